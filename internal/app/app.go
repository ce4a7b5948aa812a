package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"NewsPipeline/internal/config"
	"NewsPipeline/internal/infrastructure/crawler"
	"NewsPipeline/internal/infrastructure/deploy"
	"NewsPipeline/internal/infrastructure/dispatch"
	"NewsPipeline/internal/infrastructure/llm"
	"NewsPipeline/internal/infrastructure/notify"
	"NewsPipeline/internal/infrastructure/scheduler"
	"NewsPipeline/internal/infrastructure/storage"
	"NewsPipeline/internal/infrastructure/store"
	"NewsPipeline/internal/infrastructure/toolexec"
	"NewsPipeline/internal/logging"
	"NewsPipeline/internal/ports"
	"NewsPipeline/internal/usecase"
)

// Application wires configs to the stage jobs and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	bus    *dispatch.Dispatcher
	jobs   *usecase.Jobs
	sched  ports.Scheduler
	closer []func() error
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	artifacts, err := a.buildStore()
	if err != nil {
		return nil, err
	}

	journal, err := a.buildJournal()
	if err != nil {
		return nil, err
	}

	crawlerPort, extractor, summarizer := a.buildCollaborators(baseLogger)

	var notifier ports.AlertNotifier
	if cfg.Alerts.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Alerts.WebhookURL)
	}

	deployer := deploy.NewCommandDeployer(cfg.Deploy.Command, cfg.Deploy.Budget(),
		baseLogger.With("component", "deploy"))

	a.jobs = usecase.NewJobs(usecase.JobsDeps{
		Store:      artifacts,
		Bus:        a.bus,
		Journal:    journal,
		Crawler:    crawlerPort,
		Extractor:  extractor,
		Summarizer: summarizer,
		Deployer:   deployer,
		Logger:     baseLogger.With("component", "jobs"),
		Config: usecase.JobConfig{
			ProducerBranch:  cfg.Pipeline.ProducerBranch,
			PublishedBranch: cfg.Pipeline.PublishedBranch,
			MaxAttempts:     cfg.Pipeline.MaxAttempts,
			RetryDelay:      cfg.Pipeline.RetryDelay(),
			Location:        cfg.Pipeline.Location(),
			NewslistPath:    cfg.Publish.NewslistPath,
			SummaryPath:     cfg.Publish.SummaryPath,
		},
	})

	a.jobs.Bind()
	usecase.NewAlertRelay(notifier, baseLogger.With("component", "alerts")).Bind(a.bus)

	a.sched = scheduler.NewCronScheduler(cfg.Pipeline.Location())
	return a, nil
}

func (a *Application) buildStore() (ports.ArtifactStore, error) {
	if a.cfg.Store.Path == "" {
		a.bus = dispatch.New(a.logger.With("component", "dispatch"))
		return store.NewMemoryStore(), nil
	}

	persistent, err := store.OpenBadgerStore(a.cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open artifact store: %w", err)
	}
	a.closer = append(a.closer, persistent.Close)

	// The durable event queue shares the store's database so an accepted
	// event and the commit that preceded it live in the same place.
	a.bus = dispatch.NewDurable(persistent.DB(), a.logger.With("component", "dispatch"))
	return persistent, nil
}

func (a *Application) buildJournal() (ports.RunJournal, error) {
	if a.cfg.Database.DSN == "" {
		return storage.NewPostgresJournal(nil), nil
	}

	db, err := sql.Open("postgres", a.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}
	a.closer = append(a.closer, db.Close)
	return storage.NewPostgresJournal(db), nil
}

func (a *Application) buildCollaborators(baseLogger *slog.Logger) (ports.Crawler, ports.ArticleExtractor, ports.Summarizer) {
	if a.cfg.Crawler.ToolPath != "" {
		tool := toolexec.New(a.cfg.Crawler.ToolPath, a.cfg.DeepSeek.APIKey)
		return tool, tool, tool
	}

	return crawler.NewEditionScanner(nil, a.cfg.Crawler.BaseURL, baseLogger.With("component", "crawler")),
		crawler.NewArticleExtractor(baseLogger.With("component", "extractor")),
		llm.NewDeepSeekClient(a.cfg.DeepSeek)
}

// Run replays undelivered events, starts the periodic jobs, and blocks until
// the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.bus.Redeliver(ctx); err != nil {
		return fmt.Errorf("redeliver pending events: %w", err)
	}

	schedules := []struct {
		spec string
		job  func(context.Context, time.Time) error
	}{
		{a.cfg.Schedules.DateChecker, a.jobs.CheckDate},
		{a.cfg.Schedules.HealthCheck, a.jobs.CheckHealth},
		{a.cfg.Schedules.Cleanup, a.jobs.Cleanup},
	}
	for _, entry := range schedules {
		job := entry.job
		err := a.sched.Add(entry.spec, func(t time.Time) {
			if err := job(ctx, t); err != nil {
				a.logger.Error("scheduled job failed", "error", err)
			}
		})
		if err != nil {
			return err
		}
	}

	if err := a.sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("pipeline started",
		"producer", a.cfg.Pipeline.ProducerBranch,
		"published", a.cfg.Pipeline.PublishedBranch,
		"timezone", a.cfg.Pipeline.Timezone)

	<-ctx.Done()
	return a.shutdown()
}

func (a *Application) shutdown() error {
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.sched.Stop(stopCtx); err != nil {
		a.logger.Warn("scheduler stop", "error", err)
	}
	a.bus.Wait()

	for _, closeFn := range a.closer {
		if err := closeFn(); err != nil {
			a.logger.Warn("close resource", "error", err)
		}
	}

	a.logger.Info("pipeline stopped")
	return nil
}
