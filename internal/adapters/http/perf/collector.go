// Package perf keeps a bounded in-memory record of request and query
// timings for the admin performance view.
package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// EntryKind distinguishes request vs query entries.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
)

// Entry is a single timing record stored in the ring buffer.
type Entry struct {
	Kind       EntryKind
	Path       string // route pattern or query op
	StatusCode int    // HTTP status (0 for queries)
	Duration   time.Duration
	Timestamp  time.Time
}

// Collector is a fixed-size ring buffer for timing entries. When full the
// oldest entry is overwritten. Aggregation happens only in Snapshot.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	pos     int
	count   atomic.Int64
}

// NewCollector creates a collector with the given ring buffer capacity.
// POST: size <= 0 selects DefaultRingSize
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores e, overwriting the oldest entry when the ring is full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % len(c.entries)
	c.mu.Unlock()
	c.count.Add(1)
}

// TotalRecorded returns the number of entries ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return c.count.Load()
}

// Snapshot is the aggregated view served by GET /api/admin/perf.
type Snapshot struct {
	Since          time.Time  `json:"since"`
	TotalRecorded  int64      `json:"total_recorded"`
	Requests       int        `json:"requests"`
	ServerErrors   int        `json:"server_errors"`
	RequestP50Ms   float64    `json:"request_p50_ms"`
	RequestP95Ms   float64    `json:"request_p95_ms"`
	RequestP99Ms   float64    `json:"request_p99_ms"`
	Queries        int        `json:"queries"`
	QueryP95Ms     float64    `json:"query_p95_ms"`
	SlowestRoutes  []PathStat `json:"slowest_routes"`
	SlowestQueries []PathStat `json:"slowest_queries"`
}

// PathStat aggregates timing for one route or query op.
type PathStat struct {
	Path    string  `json:"path"`
	Count   int     `json:"count"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	TotalMs float64 `json:"total_ms"`
}

// Snapshot aggregates entries recorded at or after since; topN bounds the
// slowest lists.
// POST: percentiles are zero when no entry of that kind is in the window
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	c.mu.Unlock()

	snap := Snapshot{Since: since, TotalRecorded: c.TotalRecorded()}
	var reqMs, queryMs []float64
	routes := make(map[string]*PathStat)
	queries := make(map[string]*PathStat)

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		ms := float64(e.Duration.Microseconds()) / 1000.0
		switch e.Kind {
		case KindRequest:
			reqMs = append(reqMs, ms)
			if e.StatusCode >= 500 {
				snap.ServerErrors++
			}
			accumulate(routes, e.Path, ms)
		case KindQuery:
			queryMs = append(queryMs, ms)
			accumulate(queries, e.Path, ms)
		}
	}

	snap.Requests = len(reqMs)
	snap.Queries = len(queryMs)
	if len(reqMs) > 0 {
		sort.Float64s(reqMs)
		snap.RequestP50Ms = percentile(reqMs, 50)
		snap.RequestP95Ms = percentile(reqMs, 95)
		snap.RequestP99Ms = percentile(reqMs, 99)
	}
	if len(queryMs) > 0 {
		sort.Float64s(queryMs)
		snap.QueryP95Ms = percentile(queryMs, 95)
	}
	snap.SlowestRoutes = topByAvg(routes, topN)
	snap.SlowestQueries = topByAvg(queries, topN)
	return snap
}

func accumulate(stats map[string]*PathStat, path string, ms float64) {
	s, ok := stats[path]
	if !ok {
		s = &PathStat{Path: path}
		stats[path] = s
	}
	s.Count++
	s.TotalMs += ms
	s.MaxMs = max(s.MaxMs, ms)
	s.AvgMs = s.TotalMs / float64(s.Count)
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// topByAvg returns the n slowest paths by average, ties broken by path.
func topByAvg(stats map[string]*PathStat, n int) []PathStat {
	list := make([]PathStat, 0, len(stats))
	for _, s := range stats {
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs != list[j].AvgMs {
			return list[i].AvgMs > list[j].AvgMs
		}
		return list[i].Path < list[j].Path
	})
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	return list
}
