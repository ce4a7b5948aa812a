package usecase

import (
	"context"
	"errors"
	"fmt"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// HandleCopyNewslist copies the latest newslist artifact (today, falling back
// to yesterday) into the publish tree. A missing artifact is non-fatal here:
// the job warns and simply does not advance the chain. That asymmetry with
// the article copy below is deliberate.
func (j *Jobs) HandleCopyNewslist(ctx context.Context, ev domain.Event) error {
	key := j.eventKey(ev)
	run := j.startRun(domain.StageCopyNewslist, key)

	name, err := ResolveDaily(ctx, j.store, j.cfg.ProducerBranch, key, domain.MatchNewslist)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			j.finishRun(ctx, run, domain.OutcomeSkipped, 0, domain.AlertWarn,
				fmt.Sprintf("no newslist for %s or %s; chain not advanced", key, key.Prev()))
			return nil
		}
		j.finishRun(ctx, run, domain.OutcomeFailure, 0, domain.AlertError, err.Error())
		return err
	}

	content, _, err := j.store.Get(ctx, j.cfg.ProducerBranch, name)
	if err != nil {
		j.finishRun(ctx, run, domain.OutcomeFailure, 0, domain.AlertError,
			fmt.Sprintf("read %s: %v", name, err))
		return err
	}

	if err := j.putArtifact(ctx, j.cfg.PublishedBranch, j.cfg.NewslistPath, content); err != nil {
		j.finishRun(ctx, run, domain.OutcomeFailure, 0, domain.AlertError, err.Error())
		return err
	}

	j.finishRun(ctx, run, domain.OutcomeSuccess, 1, domain.AlertInfo,
		fmt.Sprintf("copied %s to %s", name, j.cfg.NewslistPath))
	j.emit(ctx, domain.EventRunGetArticle, key)
	return nil
}

// HandleCopyArticle copies the latest summary artifact into the publish tree.
// Unlike the newslist copy, a missing artifact is fatal: the run aborts with
// an Error alert and no deploy trigger fires.
func (j *Jobs) HandleCopyArticle(ctx context.Context, ev domain.Event) error {
	key := j.eventKey(ev)
	run := j.startRun(domain.StageCopyArticle, key)

	if !j.states.Transition(key, domain.StateCopying) {
		j.finishRun(ctx, run, domain.OutcomeSkipped, 0, domain.AlertInfo,
			fmt.Sprintf("article copy for %s dropped: not in %s", key, domain.StateSummarizing))
		return nil
	}

	name, err := ResolveDaily(ctx, j.store, j.cfg.ProducerBranch, key, domain.MatchSummary)
	if err != nil {
		j.states.Transition(key, domain.StateFailed)
		if errors.Is(err, ports.ErrNotFound) {
			err = fmt.Errorf("no summary for %s or %s: %w", key, key.Prev(), err)
		}
		j.finishRun(ctx, run, domain.OutcomeFailure, 0, domain.AlertError, err.Error())
		return err
	}

	content, _, err := j.store.Get(ctx, j.cfg.ProducerBranch, name)
	if err != nil {
		j.states.Transition(key, domain.StateFailed)
		j.finishRun(ctx, run, domain.OutcomeFailure, 0, domain.AlertError,
			fmt.Sprintf("read %s: %v", name, err))
		return err
	}

	if err := j.putArtifact(ctx, j.cfg.PublishedBranch, j.cfg.SummaryPath, content); err != nil {
		j.states.Transition(key, domain.StateFailed)
		j.finishRun(ctx, run, domain.OutcomeFailure, 0, domain.AlertError, err.Error())
		return err
	}

	j.finishRun(ctx, run, domain.OutcomeSuccess, 1, domain.AlertInfo,
		fmt.Sprintf("copied %s to %s", name, j.cfg.SummaryPath))
	j.emit(ctx, domain.EventDeployTrigger, key)
	return nil
}
