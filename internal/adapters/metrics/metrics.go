// Package metrics owns the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every application collector in a private registry, so
// tests can build as many as they like without duplicate registration.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	queries       *prometheus.HistogramVec
	outbox        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	submissions   *prometheus.CounterVec
	scrapes       *prometheus.CounterVec
}

// New creates a registry with Go and process collectors plus the
// application metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "masgolf_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "masgolf_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		queries: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "masgolf_db_query_duration_seconds",
			Help:    "Database call latency by operation.",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op"}),
		outbox: f.NewCounterVec(prometheus.CounterOpts{
			Name: "masgolf_outbox_actions_total",
			Help: "Outbox executions by action type and result.",
		}, []string{"action", "result"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "masgolf_notifications_enqueued_total",
			Help: "Notifications enqueued by source form and channel.",
		}, []string{"source", "channel"}),
		submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "masgolf_form_submissions_total",
			Help: "Public form submissions by form.",
		}, []string{"form"}),
		scrapes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "masgolf_solapi_syncs_total",
			Help: "Solapi group syncs by result.",
		}, []string{"result"}),
	}
}

// Outbox result labels.
const (
	ResultDone    = "done"
	ResultRetry   = "retry"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveQuery records one database call. It satisfies storage.QueryObserver.
func (m *Metrics) ObserveQuery(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(op).Observe(d.Seconds())
}

// OutboxResult counts one outbox execution.
func (m *Metrics) OutboxResult(action, result string) {
	if m == nil {
		return
	}
	m.outbox.WithLabelValues(action, result).Inc()
}

// NotificationEnqueued counts one enqueued notification.
func (m *Metrics) NotificationEnqueued(source, channel string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(source, channel).Inc()
}

// FormSubmitted counts one accepted public form.
func (m *Metrics) FormSubmitted(form string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(form).Inc()
}

// SolapiSync counts one group sync attempt.
func (m *Metrics) SolapiSync(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.scrapes.WithLabelValues(result).Inc()
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
