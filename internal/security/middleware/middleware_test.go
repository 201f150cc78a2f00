package middleware

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yourorg/adminbase/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIdentityFromContextMissing(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if identity := IdentityFromContext(r.Context()); identity != nil {
		t.Fatalf("expected nil identity, got %v", identity)
	}
}

func TestContextWithIdentityRoundTrip(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	want := &domain.Identity{ID: "u-1", Email: "a@b.com"}
	ctx := ContextWithIdentity(r.Context(), want)
	if got := IdentityFromContext(ctx); got != want {
		t.Fatalf("expected identity back, got %v", got)
	}
}

func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORSMiddleware([]string{"https://admin.example.com"})(next)

	// Allowed origin gets the credentialed headers.
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Origin", "https://admin.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Header().Get("Access-Control-Allow-Origin") != "https://admin.example.com" {
		t.Fatalf("allowed origin not echoed: %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("credentials header missing")
	}

	// Unlisted origin gets nothing.
	r = httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unlisted origin must not be echoed")
	}

	// Preflight short-circuits.
	r = httptest.NewRequest(http.MethodOptions, "/", nil)
	r.Header.Set("Origin", "https://admin.example.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight: expected 204, got %d", w.Code)
	}
}

func TestLoginRateLimiter(t *testing.T) {
	limiter := NewLoginRateLimiter(5)
	handler := limiter.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	allowed, throttled := 0, 0
	for i := 0; i < 10; i++ {
		r := httptest.NewRequest("POST", "/api/auth/login", nil)
		r.RemoteAddr = "198.51.100.7:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		switch w.Code {
		case http.StatusOK:
			allowed++
		case http.StatusTooManyRequests:
			throttled++
		}
	}
	if allowed == 0 || throttled == 0 {
		t.Fatalf("expected a mix of allowed and throttled, got %d/%d", allowed, throttled)
	}

	// A different client address has a fresh budget.
	r := httptest.NewRequest("POST", "/api/auth/login", nil)
	r.RemoteAddr = "198.51.100.8:5555"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("fresh client should pass, got %d", w.Code)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.1:4242"
	if ip := ClientIP(r); ip != "192.0.2.1" {
		t.Fatalf("expected host from remote addr, got %q", ip)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	if ip := ClientIP(r); ip != "203.0.113.9" {
		t.Fatalf("expected forwarded address, got %q", ip)
	}

	// Hop lists reduce to the first entry.
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1, 10.0.0.2")
	if ip := ClientIP(r); ip != "203.0.113.9" {
		t.Fatalf("expected first forwarded hop, got %q", ip)
	}

	// An empty header falls back to the remote address.
	r.Header.Set("X-Forwarded-For", " , ")
	if ip := ClientIP(r); ip != "192.0.2.1" {
		t.Fatalf("expected remote addr fallback, got %q", ip)
	}
}

func TestLoginRateLimiterIgnoresForwardedHopRotation(t *testing.T) {
	limiter := NewLoginRateLimiter(5)
	handler := limiter.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Varying the proxy tail must not buy a fresh budget: the key is the
	// first hop only.
	throttled := 0
	for i := 0; i < 20; i++ {
		r := httptest.NewRequest("POST", "/api/auth/login", nil)
		r.RemoteAddr = "198.51.100.7:5555"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.50, 10.0.0.%d", i))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code == http.StatusTooManyRequests {
			throttled++
		}
	}
	if throttled == 0 {
		t.Fatalf("rotating the forwarded hop list bypassed the limiter")
	}
}

func TestLoginRateLimiterBoundsTrackedClients(t *testing.T) {
	limiter := NewLoginRateLimiter(5)
	limiter.max = 3

	for i := 0; i < 50; i++ {
		limiter.allow(fmt.Sprintf("203.0.113.%d", i))
	}

	limiter.mu.Lock()
	tracked := len(limiter.clients)
	limiter.mu.Unlock()
	if tracked > 3 {
		t.Fatalf("limiter tracks %d clients, want at most 3", tracked)
	}

	// A known client keeps its budget across evictions of others.
	for i := 0; i < 10; i++ {
		limiter.allow("203.0.113.49")
	}
	if limiter.allow("203.0.113.49") {
		t.Fatalf("expected the exhausted client to stay throttled")
	}
}

func TestValidateJSONContentType(t *testing.T) {
	logger := testLogger()
	handler := ValidateJSONContentType(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// GET passes regardless of content type.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET: expected 200, got %d", w.Code)
	}

	// POST with a JSON body passes.
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("JSON POST: expected 200, got %d", w.Code)
	}

	// A charset parameter is still JSON.
	r = httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("JSON with charset: expected 200, got %d", w.Code)
	}

	// POST with a non-JSON body is rejected.
	r = httptest.NewRequest("POST", "/", strings.NewReader("a=b"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("form POST: expected 415, got %d", w.Code)
	}

	// A prefix match is not a JSON media type.
	r = httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "application/jsonx")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("jsonx POST: expected 415, got %d", w.Code)
	}
}
