// Package push is the thin HTTP client for the external push-delivery
// endpoint. Delivery is fire-and-forget from the application's point of
// view: there are no retries and no delivery confirmation is tracked.
// Failure costs a banner, never an inbox entry.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is the payload accepted by the push endpoint.
type Message struct {
	RecipientToken string            `json:"recipientToken"`
	Title          string            `json:"title"`
	Body           string            `json:"body"`
	Data           map[string]string `json:"data,omitempty"`
}

// Client posts push messages to a configured endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient constructs a Client for endpoint. A non-positive timeout falls
// back to five seconds so a hung push call cannot pile up goroutines
// indefinitely.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// Send posts one message. A non-2xx status is reported as an error so the
// caller can log it; the caller is expected to drop the error rather than
// retry. An empty endpoint disables delivery silently (useful in dev).
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.endpoint == "" {
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push endpoint returned %s", resp.Status)
	}
	return nil
}
