package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// HandleRunCrawler is the crawl stage: fetch the day's edition under the
// retry budget, commit newslist and raw article to the producer branch,
// reconcile, then hand off to the newslist copy stage.
func (j *Jobs) HandleRunCrawler(ctx context.Context, ev domain.Event) error {
	key := j.eventKey(ev)
	run := j.startRun(domain.StageCrawl, key)

	if !j.states.Transition(key, domain.StateCrawling) {
		j.finishRun(ctx, run, domain.OutcomeSkipped, 0, domain.AlertInfo,
			fmt.Sprintf("crawl for %s dropped: pipeline already past %s", key, domain.StateIdle))
		return nil
	}

	var result ports.CrawlResult
	attempts, err := Retry(ctx, j.cfg.MaxAttempts, j.cfg.RetryDelay, func(ctx context.Context) error {
		var crawlErr error
		result, crawlErr = j.crawler.CrawlDaily(ctx, key)
		return crawlErr
	})
	if err != nil {
		j.states.Transition(key, domain.StateFailed)
		j.finishRun(ctx, run, domain.OutcomeFailure, attempts, domain.AlertError,
			fmt.Sprintf("crawl failed: %v", err))
		return err
	}

	if err := j.putArtifact(ctx, j.cfg.ProducerBranch, domain.NewslistName(key), result.Newslist); err != nil {
		j.states.Transition(key, domain.StateFailed)
		j.finishRun(ctx, run, domain.OutcomeFailure, attempts, domain.AlertError,
			fmt.Sprintf("store newslist: %v", err))
		return err
	}

	if len(result.RawArticle) > 0 {
		seq := result.ArticleSeq
		if seq == "" {
			seq = domain.FrontArticle
		}
		if err := j.putArtifact(ctx, j.cfg.ProducerBranch, domain.RawArticleName(key, seq), result.RawArticle); err != nil {
			j.states.Transition(key, domain.StateFailed)
			j.finishRun(ctx, run, domain.OutcomeFailure, attempts, domain.AlertError,
				fmt.Sprintf("store raw article: %v", err))
			return err
		}
	}

	if err := j.reconcile(ctx); err != nil {
		j.states.Transition(key, domain.StateFailed)
		j.finishRun(ctx, run, domain.OutcomeFailure, attempts, domain.AlertError, err.Error())
		return err
	}

	j.finishRun(ctx, run, domain.OutcomeSuccess, attempts, domain.AlertInfo,
		fmt.Sprintf("crawled %s (%d bytes newslist)", key, len(result.Newslist)))
	j.emit(ctx, domain.EventCopyNewslist, key)
	return nil
}

// HandleRunGetArticle is the article-extraction stage: locate the latest raw
// crawled page (today, falling back to yesterday), extract readable content,
// and commit the markdown rendering.
func (j *Jobs) HandleRunGetArticle(ctx context.Context, ev domain.Event) error {
	key := j.eventKey(ev)
	run := j.startRun(domain.StageExtract, key)

	if !j.states.Transition(key, domain.StateExtracting) {
		j.finishRun(ctx, run, domain.OutcomeSkipped, 0, domain.AlertInfo,
			fmt.Sprintf("extraction for %s dropped: not in %s", key, domain.StateCrawling))
		return nil
	}

	rawName, err := ResolveDaily(ctx, j.store, j.cfg.ProducerBranch, key, domain.MatchRaw)
	if err != nil {
		j.states.Transition(key, domain.StateFailed)
		if errors.Is(err, ports.ErrNotFound) {
			err = fmt.Errorf("no raw article for %s or %s: %w", key, key.Prev(), err)
		}
		j.finishRun(ctx, run, domain.OutcomeFailure, 0, domain.AlertError, err.Error())
		return err
	}

	rawHTML, _, err := j.store.Get(ctx, j.cfg.ProducerBranch, rawName)
	if err != nil {
		j.states.Transition(key, domain.StateFailed)
		j.finishRun(ctx, run, domain.OutcomeFailure, 0, domain.AlertError,
			fmt.Sprintf("read %s: %v", rawName, err))
		return err
	}

	var markdown []byte
	attempts, err := Retry(ctx, j.cfg.MaxAttempts, j.cfg.RetryDelay, func(ctx context.Context) error {
		var exErr error
		markdown, exErr = j.extractor.ExtractArticle(ctx, key, rawHTML)
		return exErr
	})
	if err != nil {
		j.states.Transition(key, domain.StateFailed)
		j.finishRun(ctx, run, domain.OutcomeFailure, attempts, domain.AlertError,
			fmt.Sprintf("extract article: %v", err))
		return err
	}

	extractedName := strings.TrimSuffix(rawName, ".html") + ".md"
	if err := j.putArtifact(ctx, j.cfg.ProducerBranch, extractedName, markdown); err != nil {
		j.states.Transition(key, domain.StateFailed)
		j.finishRun(ctx, run, domain.OutcomeFailure, attempts, domain.AlertError, err.Error())
		return err
	}

	if err := j.reconcile(ctx); err != nil {
		j.states.Transition(key, domain.StateFailed)
		j.finishRun(ctx, run, domain.OutcomeFailure, attempts, domain.AlertError, err.Error())
		return err
	}

	j.finishRun(ctx, run, domain.OutcomeSuccess, attempts, domain.AlertInfo,
		fmt.Sprintf("extracted %s from %s", extractedName, rawName))
	j.emit(ctx, domain.EventAISummarize, key)
	return nil
}

// HandleAISummarize is the summarize stage: pick the latest extracted article
// (today, falling back to yesterday), call the summarization API under the
// retry budget, and commit the summary artifact.
func (j *Jobs) HandleAISummarize(ctx context.Context, ev domain.Event) error {
	key := j.eventKey(ev)
	run := j.startRun(domain.StageSummarize, key)

	if !j.states.Transition(key, domain.StateSummarizing) {
		j.finishRun(ctx, run, domain.OutcomeSkipped, 0, domain.AlertInfo,
			fmt.Sprintf("summarize for %s dropped: not in %s", key, domain.StateExtracting))
		return nil
	}

	name, err := ResolveDaily(ctx, j.store, j.cfg.ProducerBranch, key, domain.MatchExtracted)
	if err != nil {
		j.states.Transition(key, domain.StateFailed)
		if errors.Is(err, ports.ErrNotFound) {
			err = fmt.Errorf("no article to summarize for %s or %s: %w", key, key.Prev(), err)
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

	var summary []byte
	attempts, err := Retry(ctx, j.cfg.MaxAttempts, j.cfg.RetryDelay, func(ctx context.Context) error {
		var sumErr error
		summary, sumErr = j.summarizer.Summarize(ctx, name, content)
		return sumErr
	})
	if err != nil {
		j.states.Transition(key, domain.StateFailed)
		j.finishRun(ctx, run, domain.OutcomeFailure, attempts, domain.AlertError,
			fmt.Sprintf("summarize %s: %v", name, err))
		return err
	}

	summaryName := domain.SummaryName(name)
	if err := j.putArtifact(ctx, j.cfg.ProducerBranch, summaryName, summary); err != nil {
		j.states.Transition(key, domain.StateFailed)
		j.finishRun(ctx, run, domain.OutcomeFailure, attempts, domain.AlertError, err.Error())
		return err
	}

	if err := j.reconcile(ctx); err != nil {
		j.states.Transition(key, domain.StateFailed)
		j.finishRun(ctx, run, domain.OutcomeFailure, attempts, domain.AlertError, err.Error())
		return err
	}

	j.finishRun(ctx, run, domain.OutcomeSuccess, attempts, domain.AlertInfo,
		fmt.Sprintf("summarized %s into %s", name, summaryName))
	j.emit(ctx, domain.EventCopyArticle, key)
	return nil
}
