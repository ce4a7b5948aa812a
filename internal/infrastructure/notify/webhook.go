// Package notify delivers alert events to the configured outbound channel.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"NewsPipeline/internal/domain"
	"NewsPipeline/internal/ports"
)

// WebhookNotifier posts alerts as JSON to a single webhook endpoint, the
// on-call channel's inbound hook.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

var _ ports.AlertNotifier = (*WebhookNotifier)(nil)

// NewWebhookNotifier registers the endpoint.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Notify posts one alert; non-2xx responses are delivery failures.
func (n *WebhookNotifier) Notify(ctx context.Context, alert domain.Alert) error {
	if n.url == "" || n.client == nil {
		return fmt.Errorf("webhook notifier misconfigured")
	}

	body, err := json.Marshal(map[string]string{
		"level":   string(alert.Level),
		"subject": alert.Subject,
		"body":    alert.Body,
	})
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook error: %s", resp.Status)
	}

	return nil
}
