package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestActor tests actor extraction and rejection of anonymous API calls.
func TestActor(t *testing.T) {
	var seen string
	h := Actor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/api/cases/c-1", nil)
	req.Header.Set(ActorHeader, " sup-1 ")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || seen != "sup-1" {
		t.Errorf("code = %d, actor = %q", rr.Code, seen)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/cases/c-1", nil))
	if rr.Code != http.StatusUnauthorized || !strings.Contains(rr.Body.String(), "actor_required") {
		t.Errorf("code = %d, body = %s", rr.Code, rr.Body.String())
	}

	seen = "unchanged"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", nil))
	if rr.Code != http.StatusOK || seen != "" {
		t.Errorf("healthz: code = %d, actor = %q", rr.Code, seen)
	}
}

// TestRateLimiter tests token exhaustion and refill.
func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	rl := &RateLimiter{visitors: make(map[string]*visitor), rate: 2, interval: time.Second, now: func() time.Time { return now }}

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("expected first two requests to pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("expected third request to be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("expected other client to pass")
	}

	now = now.Add(time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Error("expected refill after one interval")
	}

	now = now.Add(10 * time.Minute)
	rl.sweep(5 * time.Minute)
	if len(rl.visitors) != 0 {
		t.Errorf("visitors = %d after sweep", len(rl.visitors))
	}
}

// TestRateLimit_Middleware tests the 429 response.
func TestRateLimit_Middleware(t *testing.T) {
	rl := &RateLimiter{visitors: make(map[string]*visitor), rate: 1, interval: time.Hour, now: time.Now}
	h := RateLimit(rl)(okHandler())

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest("GET", "/api/cases/c-1", nil)
		req.RemoteAddr = "192.0.2.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Errorf("request %d: code = %d, want %d", i, rr.Code, want)
		}
	}
}

// TestSecurityHeaders tests that the OWASP headers are set.
func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}

// TestCSRF tests that JSON requests are exempt and form posts need a token.
func TestCSRF(t *testing.T) {
	h := CSRF(make([]byte, 32), false, nil)(okHandler())

	req := httptest.NewRequest("POST", "/api/incidents", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("json: code = %d, want 200", rr.Code)
	}

	req = httptest.NewRequest("POST", "/api/incidents", strings.NewReader("subject_id=w-1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("form: code = %d, want 403", rr.Code)
	}
}
