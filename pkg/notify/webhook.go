package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Payload is the article reference posted to a webhook endpoint.
type Payload struct {
	Project   string    `json:"project"`
	FeedURL   string    `json:"feed_url"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Timestamp time.Time `json:"timestamp"`
}

// Webhook posts article payloads to a user-configured endpoint. Sends are not
// retried automatically; a failure is reported back for the user to retry.
type Webhook struct {
	client *http.Client
}

// NewWebhook creates a webhook sender.
func NewWebhook(timeout time.Duration) *Webhook {
	return &Webhook{client: &http.Client{Timeout: timeout}}
}

// Send posts the payload as JSON. Any non-2xx status is a failure.
func (w *Webhook) Send(ctx context.Context, url string, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}
