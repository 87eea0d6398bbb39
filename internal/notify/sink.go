// Package notify delivers new listings to configured destinations.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sink pushes one rendered message to one destination. Implementations own
// the platform specifics; the dispatcher only needs one call per
// (destination, listing) pair.
type Sink interface {
	Send(ctx context.Context, destination, message string) error
}

// WebhookSink posts messages to webhook URLs. The destination id is the
// webhook URL itself.
type WebhookSink struct {
	hc *http.Client
}

func NewWebhookSink() *WebhookSink {
	return &WebhookSink{
		hc: &http.Client{Timeout: 15 * time.Second},
	}
}

type webhookPayload struct {
	Content string `json:"content"`
}

func (s *WebhookSink) Send(ctx context.Context, destination, message string) error {
	body, err := json.Marshal(webhookPayload{Content: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := s.hc.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("webhook status %d", res.StatusCode)
	}
	return nil
}
