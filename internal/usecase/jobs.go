package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// casAttempts bounds the re-read-and-retry loop a losing writer performs
// after a revision conflict.
const casAttempts = 3

// JobConfig carries the orchestration knobs shared by every stage.
type JobConfig struct {
	ProducerBranch  string
	PublishedBranch string
	MaxAttempts     int
	RetryDelay      time.Duration
	Location        *time.Location
	NewslistPath    string
	SummaryPath     string
}

// JobsDeps wires all driven adapters into the stage jobs.
type JobsDeps struct {
	Store      ports.ArtifactStore
	Bus        ports.Dispatcher
	Journal    ports.RunJournal
	Crawler    ports.Crawler
	Extractor  ports.ArticleExtractor
	Summarizer ports.Summarizer
	Deployer   ports.SiteDeployer
	States     *StateTracker
	Logger     *slog.Logger
	Now        func() time.Time
	Config     JobConfig
}

// Jobs implements every pipeline stage over the shared artifact store and
// event bus. Each stage consumes one event (or a schedule tick), emits at
// most one downstream event, and always emits exactly one alert.
type Jobs struct {
	store      ports.ArtifactStore
	bus        ports.Dispatcher
	journal    ports.RunJournal
	crawler    ports.Crawler
	extractor  ports.ArticleExtractor
	summarizer ports.Summarizer
	deployer   ports.SiteDeployer
	states     *StateTracker
	logger     *slog.Logger
	now        func() time.Time
	cfg        JobConfig
}

// NewJobs constructs the stage jobs.
func NewJobs(deps JobsDeps) *Jobs {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	states := deps.States
	if states == nil {
		states = NewStateTracker(logger.With("component", "states"))
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	cfg := deps.Config
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	return &Jobs{
		store:      deps.Store,
		bus:        deps.Bus,
		journal:    deps.Journal,
		crawler:    deps.Crawler,
		extractor:  deps.Extractor,
		summarizer: deps.Summarizer,
		deployer:   deps.Deployer,
		states:     states,
		logger:     logger,
		now:        now,
		cfg:        cfg,
	}
}

func (j *Jobs) today() domain.DateKey {
	return domain.DateKeyAt(j.now(), j.cfg.Location)
}

// eventKey normalizes the date key carried by an event, defaulting to today
// for manually dispatched events without one.
func (j *Jobs) eventKey(ev domain.Event) domain.DateKey {
	if ev.Key.Valid() {
		return ev.Key
	}
	return j.today()
}

func (j *Jobs) startRun(stage domain.Stage, key domain.DateKey) domain.JobRun {
	return domain.JobRun{
		ID:        uuid.NewString(),
		Stage:     stage,
		Key:       key,
		StartedAt: j.now(),
	}
}

// finishRun closes the run: persists it to the journal, records the alert,
// and publishes the alert event. This is the only path a run ends through,
// so every run emits exactly one alert.
func (j *Jobs) finishRun(ctx context.Context, run domain.JobRun, outcome domain.RunOutcome, attempts int, level domain.AlertLevel, detail string) {
	run.Outcome = outcome
	run.Attempts = attempts
	run.Detail = detail
	run.FinishedAt = j.now()

	if j.journal != nil {
		if err := j.journal.RecordRun(ctx, run); err != nil {
			j.logger.Error("record run", "stage", run.Stage, "error", err)
		}
	}

	alert := domain.Alert{
		Level:   level,
		Subject: fmt.Sprintf("%s %s: %s", run.Stage, run.Key, outcome),
		Body:    detail,
	}

	if j.journal != nil {
		if err := j.journal.RecordAlert(ctx, run.ID, alert); err != nil {
			j.logger.Error("record alert", "stage", run.Stage, "error", err)
		}
	}

	if err := j.bus.Publish(ctx, domain.Event{Name: domain.EventSendAlert, Key: run.Key, Alert: &alert}); err != nil {
		j.logger.Error("publish alert", "stage", run.Stage, "error", err)
	}
}

// emit publishes the downstream control event for a completed stage. Emission
// happens strictly after the stage's store writes, preserving the
// publish-after-commit ordering guarantee.
func (j *Jobs) emit(ctx context.Context, name string, key domain.DateKey) {
	if err := j.bus.Publish(ctx, domain.Event{Name: name, Key: key}); err != nil {
		j.logger.Error("publish event", "event", name, "key", key, "error", err)
	}
}

// putArtifact writes through the store's compare-and-swap: on a revision
// conflict the losing writer re-reads the current revision and retries, the
// way a rejected push forces a pull before the next attempt.
func (j *Jobs) putArtifact(ctx context.Context, branch, name string, content []byte) error {
	for i := 0; i < casAttempts; i++ {
		var revision ports.Revision
		_, current, err := j.store.Get(ctx, branch, name)
		switch {
		case err == nil:
			revision = current
		case errors.Is(err, ports.ErrNotFound):
			revision = 0
		default:
			return fmt.Errorf("read %s@%s: %w", name, branch, err)
		}

		_, err = j.store.Put(ctx, branch, name, content, revision)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ports.ErrRevisionConflict) {
			return fmt.Errorf("write %s@%s: %w", name, branch, err)
		}
	}
	return fmt.Errorf("write %s@%s: %w", name, branch, ports.ErrRevisionConflict)
}

// reconcile merges the producer branch into the published branch,
// producer-wins.
func (j *Jobs) reconcile(ctx context.Context) error {
	written, err := j.store.Reconcile(ctx, j.cfg.ProducerBranch, j.cfg.PublishedBranch)
	if err != nil {
		return fmt.Errorf("reconcile %s into %s: %w", j.cfg.ProducerBranch, j.cfg.PublishedBranch, err)
	}

	j.logger.Debug("branches reconciled",
		"producer", j.cfg.ProducerBranch,
		"published", j.cfg.PublishedBranch,
		"entries", written)
	return nil
}
