// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paygate_http_request_duration_seconds",
			Help:    "Time taken to handle HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	ErrorResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_error_responses_total",
			Help: "Total number of error envelopes sent, by error kind",
		},
		[]string{"kind"},
	)

	CORSRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paygate_cors_rejections_total",
			Help: "Total number of requests rejected by the origin policy",
		},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_rate_limit_rejections_total",
			Help: "Total number of requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)

	RateLimitStoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "paygate_rate_limit_store_errors_total",
			Help: "Total number of rate limit store failures (requests are let through)",
		},
	)

	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_upstream_errors_total",
			Help: "Total number of failed proxied requests, by route group",
		},
		[]string{"group"},
	)

	StartupSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paygate_startup_steps_total",
			Help: "Startup step outcomes",
		},
		[]string{"step", "outcome"},
	)
)

// Middleware records request counts and latencies.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
