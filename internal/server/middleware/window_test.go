package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/custodia-labs/paygate/internal/apperr"
	"github.com/custodia-labs/paygate/internal/ratelimit"
)

type brokenStore struct{}

func (brokenStore) Increment(context.Context, string, time.Duration) (int64, time.Time, error) {
	return 0, time.Time{}, errors.New("connection refused")
}

func newWindowHandler(t *testing.T, store ratelimit.Store, limit int64) http.Handler {
	t.Helper()
	limiter, err := ratelimit.NewLimiter(store, limit, 15*time.Minute)
	if err != nil {
		t.Fatalf("failed to create limiter: %v", err)
	}
	return RateWindow(limiter, nil, testResponder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func requestFrom(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/payments", nil)
	req.RemoteAddr = remoteAddr
	return req
}

func TestRateWindowRejectsAfterLimit(t *testing.T) {
	store, err := ratelimit.NewMemoryStore(100)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	handler := newWindowHandler(t, store, 3)

	for i := range 3 {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, requestFrom("192.0.2.1:1234"))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want %d", i+1, rr.Code, http.StatusOK)
		}
		wantRemaining := strconv.Itoa(3 - (i + 1))
		if got := rr.Header().Get("RateLimit-Remaining"); got != wantRemaining {
			t.Errorf("request %d: RateLimit-Remaining = %q, want %q", i+1, got, wantRemaining)
		}
		if got := rr.Header().Get("RateLimit-Limit"); got != "3" {
			t.Errorf("RateLimit-Limit = %q, want %q", got, "3")
		}
	}

	// same client on another port
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, requestFrom("192.0.2.1:5678"))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusTooManyRequests)
	}

	retryAfter, err := strconv.Atoi(rr.Header().Get("Retry-After"))
	if err != nil || retryAfter < 1 || retryAfter > 900 {
		t.Errorf("Retry-After = %q, want seconds within the window", rr.Header().Get("Retry-After"))
	}

	var body apperr.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Success || body.Message != RateWindowMessage {
		t.Errorf("got %+v, want message %q", body, RateWindowMessage)
	}

	// other clients are unaffected
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, requestFrom("198.51.100.7:1234"))
	if rr.Code != http.StatusOK {
		t.Errorf("other client: got status %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRateWindowFailsOpen(t *testing.T) {
	handler := newWindowHandler(t, brokenStore{}, 1)

	for i := range 3 {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, requestFrom("192.0.2.1:1234"))
		if rr.Code != http.StatusOK {
			t.Errorf("request %d: got status %d, want %d", i+1, rr.Code, http.StatusOK)
		}
		if rr.Header().Get("RateLimit-Limit") != "" {
			t.Error("rate limit headers should not be set when the store fails")
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		want       string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"203.0.113.9", "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.remoteAddr, func(t *testing.T) {
			if got := ClientIP(requestFrom(tt.remoteAddr)); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
