// Package supabase uploads objects to Supabase Storage over its REST API.
package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"masgolf/internal/adapters/resilience"
)

// ErrNotConfigured is returned when no project URL or key is set.
var ErrNotConfigured = errors.New("supabase storage is not configured")

// Uploader stores bytes and returns their public URL.
type Uploader interface {
	Upload(ctx context.Context, path, contentType string, data []byte) (string, error)
}

// StorageClient talks to {baseURL}/storage/v1.
type StorageClient struct {
	baseURL    string
	key        string
	bucket     string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	policy     resilience.Policy
}

// NewStorageClient creates a client for bucket.
// PRE: baseURL has no trailing slash
func NewStorageClient(baseURL, serviceRoleKey, bucket string, httpClient *http.Client) *StorageClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &StorageClient{
		baseURL:    baseURL,
		key:        serviceRoleKey,
		bucket:     bucket,
		httpClient: httpClient,
		cb:         resilience.NewBreaker("supabase_storage"),
		policy:     resilience.DefaultPolicy,
	}
}

// WithPolicy overrides the retry policy.
func (c *StorageClient) WithPolicy(p resilience.Policy) *StorageClient {
	c.policy = p
	return c
}

// PublicURL returns the public object URL for path.
func (c *StorageClient) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, strings.TrimLeft(path, "/"))
}

// Upload writes data at path, replacing an existing object.
// PRE: path is relative to the bucket
// POST: Returns the public URL of the stored object
func (c *StorageClient) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	if c.baseURL == "" || c.key == "" {
		return "", ErrNotConfigured
	}
	path = strings.TrimLeft(path, "/")
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, path)

	err := resilience.Call(ctx, c.cb, c.policy, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return resilience.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.key)
		req.Header.Set("apikey", c.key)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("x-upsert", "true")
		req.Header.Set("Cache-Control", "3600")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err = fmt.Errorf("storage returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return resilience.Permanent(err)
		}
		return err
	})
	if err != nil {
		slog.Error("supabase_upload_failed", "path", path, "error", err)
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	slog.Info("supabase_uploaded", "bucket", c.bucket, "path", path, "bytes", len(data))
	return c.PublicURL(path), nil
}
