package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"masgolf/internal/adapters/http/perf"
	"masgolf/internal/adapters/metrics"
)

// DefaultSlowRequest is the slow-request threshold when none is configured.
const DefaultSlowRequest = 500 * time.Millisecond

// unmatchedRoute labels requests no registered pattern served, keeping
// metric label cardinality bounded.
const unmatchedRoute = "unmatched"

const routeContextKey contextKey = "route"

// requestIDCounter is an atomic counter for request IDs.
var requestIDCounter uint64

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the underlying ResponseWriter.
// PRE: code is a valid HTTP status code
// POST: status stored, header written to underlying ResponseWriter
func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// statusWriterPool reduces allocations on the hot path.
var statusWriterPool = sync.Pool{
	New: func() any {
		return &statusWriter{}
	},
}

// routeTag is filled by TagRoute once the mux has matched a pattern.
type routeTag struct {
	pattern string
}

// TagRoute records the matched pattern for Timing. Route handlers call it
// because the pattern is only known inside the mux.
func TagRoute(ctx context.Context, pattern string) {
	if tag, ok := ctx.Value(routeContextKey).(*routeTag); ok {
		tag.pattern = pattern
	}
}

// Timing returns middleware that logs request duration, feeds the perf
// ring and the Prometheus request metrics.
// Normal requests log at DEBUG; requests at or above slow log at WARN.
// collector and m may be nil.
func Timing(collector *perf.Collector, m *metrics.Metrics, slow time.Duration) func(http.Handler) http.Handler {
	if slow <= 0 {
		slow = DefaultSlowRequest
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := atomic.AddUint64(&requestIDCounter, 1)

			tag := &routeTag{}
			r = r.WithContext(context.WithValue(r.Context(), routeContextKey, tag))

			sw := statusWriterPool.Get().(*statusWriter)
			sw.ResponseWriter = w
			sw.status = http.StatusOK
			defer func() {
				elapsed := time.Since(start)
				route := tag.pattern
				if route == "" {
					route = unmatchedRoute
				}
				attrs := []any{
					"request_id", reqID,
					"method", r.Method,
					"path", r.URL.Path,
					"route", route,
					"status", sw.status,
					"duration_ms", float64(elapsed.Microseconds()) / 1000.0,
				}
				if elapsed >= slow {
					slog.Warn("slow_request", attrs...)
				} else {
					slog.Debug("request", attrs...)
				}

				m.ObserveRequest(route, r.Method, sw.status, elapsed)
				if collector != nil {
					collector.Record(perf.Entry{
						Kind:       perf.KindRequest,
						Path:       route,
						StatusCode: sw.status,
						Duration:   elapsed,
						Timestamp:  start,
					})
				}

				sw.ResponseWriter = nil
				statusWriterPool.Put(sw)
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
