package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// CheckDate is the self-healing checker: when today's newslist is absent it
// re-triggers the crawl stage. All other checkers only observe.
func (j *Jobs) CheckDate(ctx context.Context, t time.Time) error {
	key := domain.DateKeyAt(t, j.cfg.Location)
	run := j.startRun(domain.StageDateCheck, key)

	_, _, err := j.store.Get(ctx, j.cfg.ProducerBranch, domain.NewslistName(key))
	switch {
	case err == nil:
		j.finishRun(ctx, run, domain.OutcomeSuccess, 1, domain.AlertInfo,
			fmt.Sprintf("newslist %s present", domain.NewslistName(key)))
		return nil
	case errors.Is(err, ports.ErrNotFound):
		j.finishRun(ctx, run, domain.OutcomeSuccess, 1, domain.AlertWarn,
			fmt.Sprintf("newslist %s missing; crawl triggered", domain.NewslistName(key)))
		j.emit(ctx, domain.EventRunCrawler, key)
		return nil
	default:
		j.finishRun(ctx, run, domain.OutcomeFailure, 1, domain.AlertError,
			fmt.Sprintf("check newslist: %v", err))
		return err
	}
}

// CheckHealth verifies today's expected artifacts exist: the producer-branch
// newslist and summary. Info when present, Warn when absent; never mutates.
func (j *Jobs) CheckHealth(ctx context.Context, t time.Time) error {
	key := domain.DateKeyAt(t, j.cfg.Location)
	run := j.startRun(domain.StageHealthCheck, key)

	var missing []string
	for _, check := range []struct {
		label   string
		pattern NamePattern
	}{
		{"newslist", domain.MatchNewslist},
		{"summary", domain.MatchSummary},
	} {
		name, err := resolveDay(ctx, j.store, j.cfg.ProducerBranch, key, check.pattern)
		if err != nil {
			j.finishRun(ctx, run, domain.OutcomeFailure, 1, domain.AlertError,
				fmt.Sprintf("check %s: %v", check.label, err))
			return err
		}
		if name == "" {
			missing = append(missing, check.label)
		}
	}

	if len(missing) > 0 {
		j.finishRun(ctx, run, domain.OutcomeSuccess, 1, domain.AlertWarn,
			fmt.Sprintf("missing for %s: %s", key, strings.Join(missing, ", ")))
		return nil
	}

	j.finishRun(ctx, run, domain.OutcomeSuccess, 1, domain.AlertInfo,
		fmt.Sprintf("all expected artifacts present for %s", key))
	return nil
}

// Cleanup prunes dated artifacts outside the sliding two-day retention
// window, independently per branch. Publish-tree entries (path-shaped names)
// are never touched.
func (j *Jobs) Cleanup(ctx context.Context, t time.Time) error {
	key := domain.DateKeyAt(t, j.cfg.Location)
	run := j.startRun(domain.StageCleanup, key)

	deleted := 0
	for _, branch := range []string{j.cfg.ProducerBranch, j.cfg.PublishedBranch} {
		entries, err := j.store.List(ctx, branch, "")
		if err != nil {
			j.finishRun(ctx, run, domain.OutcomeFailure, 1, domain.AlertError,
				fmt.Sprintf("list %s: %v", branch, err))
			return err
		}

		for _, entry := range entries {
			if strings.Contains(entry.Name, "/") {
				continue
			}
			if domain.InRetentionWindow(key, entry.Name) {
				continue
			}
			if err := j.store.Delete(ctx, branch, entry.Name); err != nil {
				j.finishRun(ctx, run, domain.OutcomeFailure, 1, domain.AlertError,
					fmt.Sprintf("delete %s@%s: %v", entry.Name, branch, err))
				return err
			}
			j.logger.Debug("stale artifact pruned", "branch", branch, "name", entry.Name)
			deleted++
		}
	}

	j.finishRun(ctx, run, domain.OutcomeSuccess, 1, domain.AlertInfo,
		fmt.Sprintf("retention pass for %s: %d artifacts pruned", key, deleted))
	return nil
}
