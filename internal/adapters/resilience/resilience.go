// Package resilience wraps outbound calls in retry and circuit breaking.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/sony/gobreaker"
)

// Policy bounds how often a failing call is retried.
type Policy struct {
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultPolicy retries twice starting at 200ms.
var DefaultPolicy = Policy{MaxRetries: 2, InitialBackoff: 200 * time.Millisecond}

// permanentError stops Retry immediately.
type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying (4xx responses, bad payloads).
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// Retry runs fn until it succeeds, returns a Permanent error, the policy is
// exhausted, or ctx ends. Waits double each attempt with up to 50% jitter.
// POST: Returns nil or the last error from fn
func Retry(ctx context.Context, p Policy, fn func() error) error {
	var last error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = fn()
		if last == nil || IsPermanent(last) {
			return last
		}
		if attempt == p.MaxRetries {
			break
		}
		wait := p.InitialBackoff << attempt
		if half := int64(wait / 2); half > 0 {
			wait += time.Duration(rand.Int64N(half))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return last
}

// NewBreaker returns a breaker that opens after 5 requests with >= 60%
// failures and probes again after 30s. Permanent errors do not count.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= 5 && float64(c.TotalFailures)/float64(c.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsPermanent(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit_state_change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// Call runs fn through cb with retry.
func Call(ctx context.Context, cb *gobreaker.CircuitBreaker, p Policy, fn func() error) error {
	_, err := cb.Execute(func() (any, error) {
		return nil, Retry(ctx, p, fn)
	})
	return err
}
