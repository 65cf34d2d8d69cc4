package slack_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"masgolf/internal/adapters/resilience"
	"masgolf/internal/adapters/slack"
)

var fast = resilience.Policy{MaxRetries: 2, InitialBackoff: time.Millisecond}

func TestPost_SendsText(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := slack.NewClient(srv.URL, srv.Client()).WithPolicy(fast)
	require.NoError(t, c.Post(context.Background(), "새 예약"))
	assert.Equal(t, "새 예약", got["text"])
}

func TestPost_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := slack.NewClient(srv.URL, srv.Client()).WithPolicy(fast)
	require.NoError(t, c.Post(context.Background(), "x"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestPost_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := slack.NewClient(srv.URL, srv.Client()).WithPolicy(fast)
	err := c.Post(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_payload")
	assert.Equal(t, int32(1), calls.Load())
}

func TestPost_DisabledIsNoop(t *testing.T) {
	c := slack.NewClient("", nil)
	assert.False(t, c.Enabled())
	assert.NoError(t, c.Post(context.Background(), "x"))
}
