// Package slack posts staff notifications to an incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"masgolf/internal/adapters/resilience"
)

// Poster sends one text message.
type Poster interface {
	Post(ctx context.Context, text string) error
}

// Client posts {"text": ...} to a Slack incoming webhook.
type Client struct {
	webhookURL string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	policy     resilience.Policy
}

// NewClient creates a webhook client. An empty webhookURL yields a client
// whose Post only logs.
func NewClient(webhookURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
		cb:         resilience.NewBreaker("slack"),
		policy:     resilience.DefaultPolicy,
	}
}

// WithPolicy overrides the retry policy.
func (c *Client) WithPolicy(p resilience.Policy) *Client {
	c.policy = p
	return c
}

// Enabled reports whether a webhook URL is configured.
func (c *Client) Enabled() bool {
	return c.webhookURL != ""
}

// Post delivers text to the webhook.
// PRE: text is non-empty
// POST: nil only when Slack answered 2xx, or when no webhook is configured
func (c *Client) Post(ctx context.Context, text string) error {
	if !c.Enabled() {
		slog.Info("slack_disabled_skip", "chars", len(text))
		return nil
	}
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}
	err = resilience.Call(ctx, c.cb, c.policy, func() error {
		return c.send(ctx, body)
	})
	if err != nil {
		slog.Error("slack_post_failed", "error", err)
		return fmt.Errorf("slack post: %w", err)
	}
	slog.Debug("slack_posted")
	return nil
}

func (c *Client) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err = fmt.Errorf("webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return resilience.Permanent(err)
	}
	return err
}
