package perf

import (
	"sync"
	"testing"
	"time"
)

func ms(n float64) time.Duration {
	return time.Duration(n * float64(time.Millisecond))
}

func TestCollector_Snapshot(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()

	c.Record(Entry{Kind: KindRequest, Path: "POST /api/booking", StatusCode: 201, Duration: ms(10), Timestamp: now})
	c.Record(Entry{Kind: KindRequest, Path: "POST /api/booking", StatusCode: 500, Duration: ms(30), Timestamp: now})
	c.Record(Entry{Kind: KindQuery, Path: "exec", Duration: ms(5), Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.TotalRecorded != 3 || snap.Requests != 2 || snap.Queries != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1", snap.TotalRecorded, snap.Requests, snap.Queries)
	}
	if snap.ServerErrors != 1 {
		t.Errorf("ServerErrors = %d, want 1", snap.ServerErrors)
	}
	if len(snap.SlowestRoutes) != 1 {
		t.Fatalf("SlowestRoutes len = %d, want 1", len(snap.SlowestRoutes))
	}
	r := snap.SlowestRoutes[0]
	if r.AvgMs != 20 || r.MaxMs != 30 || r.Count != 2 {
		t.Errorf("route stat = %+v", r)
	}
	if snap.QueryP95Ms != 5 {
		t.Errorf("QueryP95Ms = %v, want 5", snap.QueryP95Ms)
	}
}

func TestCollector_RingOverwrites(t *testing.T) {
	c := NewCollector(3)
	now := time.Now()
	for i := range 5 {
		c.Record(Entry{Kind: KindRequest, Path: "GET /x", Duration: ms(float64(i)), Timestamp: now})
	}

	if c.TotalRecorded() != 5 {
		t.Errorf("TotalRecorded = %d, want 5", c.TotalRecorded())
	}
	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.Requests != 3 {
		t.Errorf("Requests = %d, want 3 (ring kept the last 3)", snap.Requests)
	}
	if snap.SlowestRoutes[0].AvgMs != 3 {
		t.Errorf("AvgMs = %v, want 3 (entries 2,3,4)", snap.SlowestRoutes[0].AvgMs)
	}
}

func TestCollector_Percentiles(t *testing.T) {
	c := NewCollector(200)
	now := time.Now()
	for i := 1; i <= 100; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /p", Duration: ms(float64(i)), Timestamp: now})
	}

	snap := c.Snapshot(now.Add(-time.Minute), 5)
	if snap.RequestP50Ms < 50 || snap.RequestP50Ms > 51 {
		t.Errorf("P50 = %v, want ~50.5", snap.RequestP50Ms)
	}
	if snap.RequestP99Ms < 99 || snap.RequestP99Ms > 100 {
		t.Errorf("P99 = %v, want ~99", snap.RequestP99Ms)
	}
}

func TestCollector_WindowExcludesOld(t *testing.T) {
	c := NewCollector(10)
	now := time.Now()
	c.Record(Entry{Kind: KindRequest, Path: "GET /old", Duration: ms(100), Timestamp: now.Add(-2 * time.Hour)})
	c.Record(Entry{Kind: KindRequest, Path: "GET /new", Duration: ms(1), Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Hour), 10)
	if snap.Requests != 1 || snap.SlowestRoutes[0].Path != "GET /new" {
		t.Errorf("snapshot = %+v, want only GET /new", snap)
	}
}

func TestCollector_TopN(t *testing.T) {
	c := NewCollector(10)
	now := time.Now()
	for i, p := range []string{"GET /a", "GET /b", "GET /c"} {
		c.Record(Entry{Kind: KindRequest, Path: p, Duration: ms(float64(i + 1)), Timestamp: now})
	}

	snap := c.Snapshot(now.Add(-time.Minute), 2)
	if len(snap.SlowestRoutes) != 2 || snap.SlowestRoutes[0].Path != "GET /c" {
		t.Errorf("SlowestRoutes = %+v, want GET /c first and length 2", snap.SlowestRoutes)
	}
}

func TestCollector_ConcurrentRecord(t *testing.T) {
	c := NewCollector(50)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.Record(Entry{Kind: KindQuery, Path: "query", Duration: time.Millisecond, Timestamp: time.Now()})
			}
		}()
	}
	wg.Wait()
	if c.TotalRecorded() != 800 {
		t.Errorf("TotalRecorded = %d, want 800", c.TotalRecorded())
	}
}
