package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// Bind subscribes every stage job to its triggering event, forming the chain
// crawl -> copy-newslist -> get-article -> ai-summarize -> copy-article ->
// deploy.
func (j *Jobs) Bind() {
	j.bus.Subscribe(domain.EventRunCrawler, j.HandleRunCrawler)
	j.bus.Subscribe(domain.EventCopyNewslist, j.HandleCopyNewslist)
	j.bus.Subscribe(domain.EventRunGetArticle, j.HandleRunGetArticle)
	j.bus.Subscribe(domain.EventAISummarize, j.HandleAISummarize)
	j.bus.Subscribe(domain.EventCopyArticle, j.HandleCopyArticle)
	j.bus.Subscribe(domain.EventDeployTrigger, j.HandleDeployTrigger)
}

// AlertRelay consumes send-email-alert events and forwards them to the
// configured notifier. Delivery is best-effort; a failed notification is
// logged, never retried.
type AlertRelay struct {
	notifier ports.AlertNotifier
	logger   *slog.Logger
}

// NewAlertRelay wires the notifier; a nil notifier downgrades the relay to
// log-only.
func NewAlertRelay(notifier ports.AlertNotifier, logger *slog.Logger) *AlertRelay {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertRelay{notifier: notifier, logger: logger}
}

// Bind subscribes the relay to the alert event.
func (r *AlertRelay) Bind(bus ports.Dispatcher) {
	bus.Subscribe(domain.EventSendAlert, r.Handle)
}

// Handle delivers one alert.
func (r *AlertRelay) Handle(ctx context.Context, ev domain.Event) error {
	if ev.Alert == nil {
		return fmt.Errorf("alert event without payload")
	}

	r.logger.Info("alert",
		"level", ev.Alert.Level,
		"subject", ev.Alert.Subject,
		"body", ev.Alert.Body)

	if r.notifier == nil {
		return nil
	}

	if err := r.notifier.Notify(ctx, *ev.Alert); err != nil {
		r.logger.Error("alert delivery failed", "subject", ev.Alert.Subject, "error", err)
	}
	return nil
}
