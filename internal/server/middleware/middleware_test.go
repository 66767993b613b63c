package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/paygate/internal/apperr"
	"github.com/custodia-labs/paygate/internal/logger"
)

var testResponder = apperr.NewResponder("test")

func TestRequestSizeLimits(t *testing.T) {
	router := chi.NewRouter()

	route := "/test/route"

	maxRequestSize := int64(64)

	errRequestSize := int64(128)

	if maxRequestSize <= 0 {
		t.Fatalf("Max request size is not greater than 0: %d", maxRequestSize)
	}

	router.Group(func(r chi.Router) {
		r.Use(RequestSizeLimit(maxRequestSize, testResponder))
		r.Post(route, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	tests := []struct {
		name     string
		path     string
		bodySize int64
		wantCode int
	}{
		{"API normal request", route, maxRequestSize, http.StatusOK},
		{"API oversized request", route, errRequestSize, 413}, // Request Entity Too Large
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Repeat("x", int(tt.bodySize))
			req := httptest.NewRequest("POST", tt.path, bytes.NewReader([]byte(body)))
			req.ContentLength = tt.bodySize

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("got status %d, want %d", rr.Code, tt.wantCode)
			}

			// Verify header is always set
			if header := rr.Header().Get("X-Max-Request-Size"); header == "" {
				t.Error("X-Max-Request-Size header not set")
			}
		})
	}
}

func TestRateLimitIsEnabled(t *testing.T) {
	// Create router with rate limiting
	router := chi.NewRouter()
	router.Use(RateLimit(10, 5, testResponder)) // 10 requests per second, burst of 5
	router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// First few requests should succeed (within burst)
	for i := range 5 {
		req := httptest.NewRequest("GET", "/test", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("Request %d failed: got status %d, want %d", i+1, rr.Code, http.StatusOK)
		}
	}

	// Next request should be rate limited
	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("Rate limit request should fail: got status %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
}

func TestRateLimitIsDisabled(t *testing.T) {

	tests := []struct {
		name          string
		rps           int32
		expectLimited bool
	}{
		{"Rate limiting enabled", 10, true},
		{"Rate limiting disabled with 0", 0, false},
		{"Rate limiting disabled with negative", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := chi.NewRouter()
			router.Use(RateLimit(tt.rps, 1, testResponder)) // burst of 1 for easy testing
			router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			// Make 2 requests quickly
			for i := 0; i < 2; i++ {
				req := httptest.NewRequest("GET", "/test", nil)
				rr := httptest.NewRecorder()
				router.ServeHTTP(rr, req)

				if tt.expectLimited && i == 1 {
					// Second request should be rate limited
					if rr.Code != http.StatusTooManyRequests {
						t.Errorf("Expected rate limit on request %d: got status %d, want %d", i+1, rr.Code, http.StatusTooManyRequests)
					}
				} else {
					// Request should succeed
					if rr.Code != http.StatusOK {
						t.Errorf("Request %d failed: got status %d, want %d", i+1, rr.Code, http.StatusOK)
					}
				}
			}
		})
	}
}

func TestRequestSizeLimitStreamedBody(t *testing.T) {
	router := chi.NewRouter()
	router.Use(RequestSizeLimit(64, testResponder))
	router.Use(DecodeBody(testResponder))
	router.Post("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	body := `{"data":"` + strings.Repeat("x", 128) + `"}`
	req := httptest.NewRequest("POST", "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1 // unknown length, e.g. chunked

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestRequestSizeLimitBuffersUnknownLengthBodies(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		bodySize    int
		wantCode    int
	}{
		{"oversized multipart", http.MethodPost, "multipart/form-data; boundary=x", 128, http.StatusRequestEntityTooLarge},
		{"oversized delete", http.MethodDelete, "", 128, http.StatusRequestEntityTooLarge},
		{"body at the limit", http.MethodDelete, "", 64, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received int
			reached := false
			handler := RequestSizeLimit(64, testResponder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				raw, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("failed to read buffered body: %v", err)
				}
				received = len(raw)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/test", strings.NewReader(strings.Repeat("x", tt.bodySize)))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			req.ContentLength = -1

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("got status %d, want %d", rr.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK && received != tt.bodySize {
				t.Errorf("next handler received %d bytes, want %d", received, tt.bodySize)
			}
			if tt.wantCode != http.StatusOK && reached {
				t.Error("oversized body reached the next handler")
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		environment string
		wantHSTS    bool
	}{
		{"dev", false},
		{"test", false},
		{"staging", true},
		{"prod", true},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			handler := SecurityHeaders(tt.environment)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			rr := httptest.NewRecorder()
			rr.Header().Set("X-Powered-By", "Express")
			handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

			want := map[string]string{
				"X-Content-Type-Options":            "nosniff",
				"X-Frame-Options":                   "SAMEORIGIN",
				"X-XSS-Protection":                  "0",
				"Referrer-Policy":                   "no-referrer",
				"Cross-Origin-Opener-Policy":        "same-origin",
				"Cross-Origin-Resource-Policy":      "same-origin",
				"X-DNS-Prefetch-Control":            "off",
				"X-Download-Options":                "noopen",
				"X-Permitted-Cross-Domain-Policies": "none",
				"Origin-Agent-Cluster":              "?1",
			}
			for name, value := range want {
				if got := rr.Header().Get(name); got != value {
					t.Errorf("%s = %q, want %q", name, got, value)
				}
			}
			if rr.Header().Get("Content-Security-Policy") == "" {
				t.Error("Content-Security-Policy header not set")
			}
			if rr.Header().Get("X-Powered-By") != "" {
				t.Error("X-Powered-By header should be removed")
			}
			if got := rr.Header().Get("Strict-Transport-Security") != ""; got != tt.wantHSTS {
				t.Errorf("HSTS set = %v, want %v", got, tt.wantHSTS)
			}
		})
	}
}

func TestRecovererRespondsWithEnvelope(t *testing.T) {
	tests := []struct {
		name        string
		responder   *apperr.Responder
		wantMessage string
	}{
		{"non-production shows the panic", apperr.NewResponder("dev"), "kaboom"},
		{"production hides the panic", apperr.NewResponder("prod"), apperr.GenericInternalMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Recoverer(tt.responder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("kaboom")
			}))

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

			if rr.Code != http.StatusInternalServerError {
				t.Fatalf("got status %d, want %d", rr.Code, http.StatusInternalServerError)
			}
			var got apperr.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if got.Success || got.Message != tt.wantMessage {
				t.Errorf("got %+v, want message %q", got, tt.wantMessage)
			}
		})
	}
}

func TestRecoveredPanicIsLoggedWithRequestAttrs(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	handler := chimiddleware.RequestID(
		logger.RequestLogging(base)(
			Recoverer(testResponder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic("kaboom")
			})),
		),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/boom", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusInternalServerError)
	}

	var panicLine, completedLine string
	for _, line := range strings.Split(buf.String(), "\n") {
		switch {
		case strings.Contains(line, "panic recovered"):
			panicLine = line
		case strings.Contains(line, "Request completed"):
			completedLine = line
		}
	}
	if panicLine == "" || !strings.Contains(panicLine, "path=/boom") || strings.Contains(panicLine, "request_id= ") {
		t.Errorf("panic not logged with the request logger: %q", panicLine)
	}
	if !strings.Contains(completedLine, "status=500") {
		t.Errorf("request completion not logged with status 500: %q", completedLine)
	}
}
