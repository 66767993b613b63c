package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/custodia-labs/paygate/internal/apperr"
	"github.com/custodia-labs/paygate/internal/config"
	"github.com/custodia-labs/paygate/internal/server/handlers"
	"github.com/custodia-labs/paygate/internal/server/middleware"
	"github.com/custodia-labs/paygate/internal/services"
	"github.com/custodia-labs/paygate/internal/startup"
)

// newTestServer builds a server from environment variables, with the in-memory
// stores and the startup steps already run.
func newTestServer(t *testing.T, env map[string]string) *Server {
	t.Helper()

	defaults := map[string]string{
		"ENVIRONMENT":  "test",
		"FRONTEND_URL": "https://app.example.com",
		"DATABASE_URL": "",
		"REDIS_URL":    "",
	}
	for k, v := range defaults {
		if _, ok := env[k]; !ok {
			t.Setenv(k, v)
		}
	}
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := config.NewServerConfig()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := services.NewServices(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("failed to create services: %v", err)
	}
	t.Cleanup(svc.Close)

	seq := &startup.Sequence{Steps: svc.StartupSteps(cfg), StepTimeout: time.Second, Logger: logger}
	if failed := startup.Failed(seq.Run(context.Background())); len(failed) != 0 {
		t.Fatalf("startup steps failed: %+v", failed)
	}

	s, err := NewServer(cfg, logger, svc)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) apperr.ErrorResponse {
	t.Helper()
	var body apperr.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}

	var body handlers.HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != "OK" || body.Environment != "test" || body.Project != "paygate" {
		t.Errorf("unexpected health response %+v", body)
	}
	if _, err := time.Parse(time.RFC3339, body.Timestamp); err != nil {
		t.Errorf("timestamp %q is not RFC3339", body.Timestamp)
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers not applied")
	}
	if rr.Header().Get("RateLimit-Limit") != "" {
		t.Error("/health should not be rate limited")
	}
}

func TestAPIInfo(t *testing.T) {
	s := newTestServer(t, nil)

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/api", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}

	var info handlers.APIInfo
	if err := json.NewDecoder(rr.Body).Decode(&info); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if info.Name != "paygate" || info.Endpoints["balances"] != "/api/v1/balances" {
		t.Errorf("unexpected descriptor %+v", info)
	}
}

func TestRouteNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/nope", "/api/nope", "/api/v1/nope"} {
		t.Run(path, func(t *testing.T) {
			rr := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
			if rr.Code != http.StatusNotFound {
				t.Fatalf("got status %d, want %d", rr.Code, http.StatusNotFound)
			}
			body := decodeEnvelope(t, rr)
			if body.Success || body.Message != "Route not found" {
				t.Errorf("got %+v", body)
			}
		})
	}
}

func TestRouteGroups(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"path":"` + r.URL.Path + `"}`))
	}))
	defer upstream.Close()

	s := newTestServer(t, map[string]string{"PAYMENTS_UPSTREAM_URL": upstream.URL})

	tests := []struct {
		path     string
		wantCode int
	}{
		{"/api/payments/intents", http.StatusOK},
		{"/api/accounts", http.StatusOK},
		{"/api/withdrawals", http.StatusServiceUnavailable},
		{"/api/direct-deposit/ach", http.StatusServiceUnavailable},
		{"/api/v1/balances", http.StatusServiceUnavailable},
		{"/api/v1/transactions/123", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := serve(s, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rr.Code != tt.wantCode {
				t.Errorf("got status %d, want %d", rr.Code, tt.wantCode)
			}
		})
	}

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/api/accounts", nil))
	var accounts handlers.AccountsResponse
	if err := json.NewDecoder(rr.Body).Decode(&accounts); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(accounts.Accounts) != 2 {
		t.Errorf("expected the provisioned accounts, got %+v", accounts)
	}
}

func TestCORSGate(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		name     string
		method   string
		origin   string
		wantCode int
	}{
		{"frontend origin", http.MethodGet, "https://app.example.com", http.StatusOK},
		{"dev origin", http.MethodGet, "http://localhost:5173", http.StatusOK},
		{"preview origin", http.MethodGet, "https://pr-42.vercel.app", http.StatusOK},
		{"unknown origin", http.MethodGet, "https://evil.example.net", http.StatusForbidden},
		{"options", http.MethodOptions, "https://app.example.com", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api", nil)
			req.Header.Set("Origin", tt.origin)
			rr := serve(s, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("got status %d, want %d", rr.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusForbidden {
				body := decodeEnvelope(t, rr)
				if body.Message != middleware.CORSRejectedMessage {
					t.Errorf("got %+v", body)
				}
				if rr.Header().Get("Access-Control-Allow-Origin") != "" {
					t.Error("CORS headers emitted for a rejected origin")
				}
			}
		})
	}
}

func TestRateWindow(t *testing.T) {
	s := newTestServer(t, map[string]string{"RATE_LIMIT_MAX": "5"})

	send := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "203.0.113.5:40000"
		return serve(s, req)
	}

	for i := range 5 {
		if rr := send("/api"); rr.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want %d", i+1, rr.Code, http.StatusOK)
		}
	}

	rr := send("/api/accounts")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header not set")
	}
	if body := decodeEnvelope(t, rr); body.Message != middleware.RateWindowMessage {
		t.Errorf("got %+v", body)
	}

	// outside the /api prefix
	if rr := send("/health"); rr.Code != http.StatusOK {
		t.Errorf("/health: got status %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRateWindowRunsBeforeBodyDecoding(t *testing.T) {
	s := newTestServer(t, map[string]string{"RATE_LIMIT_MAX": "1"})

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.RemoteAddr = "203.0.113.9:40000"
	if rr := serve(s, req); rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusOK)
	}

	// a malformed body would get a 400 if it were decoded before the window was checked
	req = httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(`{"broken":`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.9:40000"
	if rr := serve(s, req); rr.Code != http.StatusTooManyRequests {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
}

func TestRequestBodyLimits(t *testing.T) {
	s := newTestServer(t, nil)

	big := `{"data":"` + strings.Repeat("x", 1<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	if rr := serve(s, req); rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body: got status %d, want %d", rr.Code, http.StatusRequestEntityTooLarge)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader("<xml/>"))
	req.Header.Set("Content-Type", "application/xml")
	if rr := serve(s, req); rr.Code != http.StatusUnsupportedMediaType {
		t.Errorf("xml body: got status %d, want %d", rr.Code, http.StatusUnsupportedMediaType)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(`{"broken":`))
	req.Header.Set("Content-Type", "application/json")
	if rr := serve(s, req); rr.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON: got status %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestStreamedBodyLimitOnProxiedGroup(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	s := newTestServer(t, map[string]string{"PAYMENTS_UPSTREAM_URL": upstream.URL})

	tests := []struct {
		method      string
		contentType string
	}{
		{http.MethodPost, "multipart/form-data; boundary=x"},
		{http.MethodDelete, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/payments/x", strings.NewReader(strings.Repeat("x", 2<<20)))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			req.ContentLength = -1

			rr := serve(s, req)
			if rr.Code != http.StatusRequestEntityTooLarge {
				t.Errorf("got status %d, want %d", rr.Code, http.StatusRequestEntityTooLarge)
			}
		})
	}

	if n := hits.Load(); n != 0 {
		t.Errorf("upstream received %d requests, want 0", n)
	}
}

func TestInternalErrors(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		rec         any
		wantMessage string
	}{
		{"dev string", "dev", "database exploded", "database exploded"},
		{"dev error", "dev", errors.New("database exploded"), "database exploded"},
		{"prod error", "prod", errors.New("database exploded"), apperr.GenericInternalMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, map[string]string{"ENVIRONMENT": tt.environment})
			s.router.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
				panic(tt.rec)
			})

			rr := serve(s, httptest.NewRequest(http.MethodGet, "/boom", nil))
			if rr.Code != http.StatusInternalServerError {
				t.Fatalf("got status %d, want %d", rr.Code, http.StatusInternalServerError)
			}
			body := decodeEnvelope(t, rr)
			if body.Success || body.Message != tt.wantMessage {
				t.Errorf("got %+v, want message %q", body, tt.wantMessage)
			}
		})
	}
}

// requestsTotal reads paygate_http_requests_total for GET requests with the given code from /metrics.
func requestsTotal(t *testing.T, s *Server, code string) float64 {
	t.Helper()

	rr := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics: got status %d", rr.Code)
	}

	prefix := `paygate_http_requests_total{code="` + code + `",method="GET"} `
	for _, line := range strings.Split(rr.Body.String(), "\n") {
		if strings.HasPrefix(line, prefix) {
			v, err := strconv.ParseFloat(strings.TrimPrefix(line, prefix), 64)
			if err != nil {
				t.Fatalf("failed to parse %q: %v", line, err)
			}
			return v
		}
	}
	return 0
}

func TestRecoveredPanicIsCounted(t *testing.T) {
	s := newTestServer(t, nil)
	s.router.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("database exploded")
	})

	before := requestsTotal(t, s, "500")
	if rr := serve(s, httptest.NewRequest(http.MethodGet, "/boom", nil)); rr.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if after := requestsTotal(t, s, "500"); after != before+1 {
		t.Errorf("paygate_http_requests_total{code=500} went from %v to %v, want +1", before, after)
	}
}

func TestStartSkipsListenerInProduction(t *testing.T) {
	s := newTestServer(t, map[string]string{"ENVIRONMENT": "prod", "PORT": "1"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Errorf("Start() error = %v, want nil when the listener is managed externally", err)
	}
}
