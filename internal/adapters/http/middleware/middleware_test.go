package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRateLimiter_Refill(t *testing.T) {
	now := time.Date(2025, 11, 20, 1, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(3, time.Second)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d refused within budget", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("fourth request in the same second allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other IP shares the bucket")
	}

	now = now.Add(1500 * time.Millisecond)
	if !rl.Allow("10.0.0.1") {
		t.Error("bucket did not refill")
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2025, 11, 20, 1, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5, time.Second)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	now = now.Add(3 * time.Minute)
	rl.Allow("10.0.0.2")
	now = now.Add(3 * time.Minute)

	if n := rl.Sweep(5 * time.Minute); n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	if _, ok := rl.visitors["10.0.0.2"]; !ok {
		t.Error("recent visitor swept")
	}
}

func TestRateLimit_Responds429(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	h := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("POST", "/api/booking", nil)
	req.RemoteAddr = "203.0.113.9:51000"
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest("POST", "/api/booking", nil)
	req.RemoteAddr = "203.0.113.9:51001"
	req.Header.Set("X-Forwarded-For", "198.51.100.7")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q", rr.Header().Get("Retry-After"))
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	for _, name := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(name) == "" {
			t.Errorf("%s not set", name)
		}
	}
}

func TestCSRF_JSONExemptFormRejected(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	h := CSRF(key, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest("POST", "/api/contact", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Errorf("JSON post status = %d, want 201", rr.Code)
	}

	req = httptest.NewRequest("POST", "/api/contact", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("form post without token status = %d, want 403", rr.Code)
	}
}

func TestChain_LastIsOutermost(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}), mark("inner"), mark("outer"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("order = %v", order)
	}
}
