// Package imagegen runs image-to-image jobs on a prediction API
// (create, then poll until a terminal status).
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"

	"masgolf/internal/adapters/resilience"
)

// Prediction statuses.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// MaxDownloadBytes bounds a downloaded output image.
const MaxDownloadBytes = 20 << 20

var (
	ErrNotConfigured = errors.New("image generation is not configured")
	ErrTimedOut      = errors.New("image generation did not finish in time")
	ErrNoOutput      = errors.New("image generation returned no output")
)

// Request describes one image improvement.
type Request struct {
	ImageURL string
	Prompt   string
}

// Result is a finished prediction.
type Result struct {
	PredictionID string
	OutputURL    string
	Polls        int
}

// Generator improves an image and returns the output URL.
type Generator interface {
	Improve(ctx context.Context, req Request) (Result, error)
}

// Client calls {baseURL}/predictions.
type Client struct {
	baseURL      string
	token        string
	model        string
	pollInterval time.Duration
	maxPolls     int
	httpClient   *http.Client
	cb           *gobreaker.CircuitBreaker
	policy       resilience.Policy
}

// Options configures a Client.
type Options struct {
	BaseURL      string
	Token        string
	Model        string
	PollInterval time.Duration
	MaxPolls     int
	HTTPClient   *http.Client
}

// NewClient creates a prediction client.
func NewClient(o Options) *Client {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if o.MaxPolls <= 0 {
		o.MaxPolls = 60
	}
	return &Client{
		baseURL:      o.BaseURL,
		token:        o.Token,
		model:        o.Model,
		pollInterval: o.PollInterval,
		maxPolls:     o.MaxPolls,
		httpClient:   o.HTTPClient,
		cb:           resilience.NewBreaker("imagegen"),
		policy:       resilience.DefaultPolicy,
	}
}

// Improve creates a prediction and polls it every pollInterval, at most
// maxPolls times.
// POST: Returns the first output URL of a succeeded prediction
func (c *Client) Improve(ctx context.Context, req Request) (Result, error) {
	if c.baseURL == "" || c.token == "" {
		return Result{}, ErrNotConfigured
	}
	payload, err := json.Marshal(map[string]any{
		"version": c.model,
		"input": map[string]any{
			"prompt":         req.Prompt,
			"image":          req.ImageURL,
			"num_outputs":    1,
			"output_format":  "png",
			"output_quality": 90,
		},
	})
	if err != nil {
		return Result{}, err
	}

	body, err := c.do(ctx, http.MethodPost, c.baseURL+"/predictions", payload)
	if err != nil {
		return Result{}, fmt.Errorf("create prediction: %w", err)
	}
	id := gjson.GetBytes(body, "id").String()
	slog.Info("imagegen_created", "prediction_id", id, "model", c.model)

	polls := 0
	for {
		status := gjson.GetBytes(body, "status").String()
		switch status {
		case StatusSucceeded:
			out := outputURL(body)
			if out == "" {
				return Result{}, ErrNoOutput
			}
			slog.Info("imagegen_succeeded", "prediction_id", id, "polls", polls)
			return Result{PredictionID: id, OutputURL: out, Polls: polls}, nil
		case StatusFailed, StatusCanceled:
			msg := gjson.GetBytes(body, "error").String()
			if msg == "" {
				msg = "unknown error"
			}
			return Result{}, fmt.Errorf("prediction %s %s: %s", id, status, msg)
		}

		if polls >= c.maxPolls {
			return Result{}, fmt.Errorf("prediction %s after %d polls: %w", id, polls, ErrTimedOut)
		}
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		polls++

		url := gjson.GetBytes(body, "urls.get").String()
		if url == "" {
			url = c.baseURL + "/predictions/" + id
		}
		body, err = c.do(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Result{}, fmt.Errorf("poll prediction %s: %w", id, err)
		}
		slog.Debug("imagegen_poll", "prediction_id", id, "poll", polls, "status", gjson.GetBytes(body, "status").String())
	}
}

// outputURL accepts "output": "url" and "output": ["url", ...].
func outputURL(body []byte) string {
	out := gjson.GetBytes(body, "output")
	if out.IsArray() {
		return out.Get("0").String()
	}
	return out.String()
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var body []byte
	err := resilience.Call(ctx, c.cb, c.policy, func() error {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, rd)
		if err != nil {
			return resilience.Permanent(err)
		}
		req.Header.Set("Authorization", "Token "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			err := fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(b))
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return resilience.Permanent(err)
			}
			return err
		}
		if !gjson.ValidBytes(b) {
			return resilience.Permanent(errors.New("response is not JSON"))
		}
		body = b
		return nil
	})
	return body, err
}

// Download fetches url and returns its bytes and content type.
// POST: len(data) <= MaxDownloadBytes
func Download(ctx context.Context, client *http.Client, url string) ([]byte, string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(data) > MaxDownloadBytes {
		return nil, "", fmt.Errorf("download %s: larger than %d bytes", url, MaxDownloadBytes)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return data, ct, nil
}
