package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/paygate/internal/apperr"
	"github.com/custodia-labs/paygate/internal/logger"
	"github.com/custodia-labs/paygate/internal/metrics"
	"github.com/custodia-labs/paygate/internal/ratelimit"
)

// RateWindowMessage is the client message sent when a client exhausts its window.
const RateWindowMessage = "Too many requests from this IP, please try again later."

// KeyFunc derives the rate limit key of a request.
type KeyFunc func(r *http.Request) string

// ClientIP returns the client address without its port. It expects chi's RealIP
// middleware to have already rewritten RemoteAddr from the forwarding headers.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateWindow applies a per-client fixed window limit.
//
// Every response carries RateLimit-Limit, RateLimit-Remaining and RateLimit-Reset headers.
// Clients over the limit get a 429 with Retry-After. When the store fails the request is let
// through.
func RateWindow(limiter *ratelimit.Limiter, keyFn KeyFunc, responder *apperr.Responder) func(http.Handler) http.Handler {
	if keyFn == nil {
		keyFn = ClientIP
	}
	policy := strconv.FormatInt(limiter.Limit(), 10) + ";w=" + strconv.Itoa(int(limiter.Window().Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)

			decision, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.ContextRequestLogger(r.Context()).Warn("rate limit store unavailable, request allowed",
					slog.String("component", "RateWindow"),
					slog.String("error", err.Error()),
				)
				metrics.RateLimitStoreErrors.Inc()
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now()
			h := w.Header()
			h.Set("RateLimit-Policy", policy)
			h.Set("RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
			h.Set("RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
			h.Set("RateLimit-Reset", strconv.FormatInt(resetSeconds(decision, now), 10))

			if !decision.Allowed {
				retryAfter := decision.RetryAfter(now)
				h.Set("Retry-After", strconv.FormatInt(int64(retryAfter/time.Second), 10))

				logger.ContextWithLogAttrs(r.Context(),
					slog.String("rate_limiter", "window"),
					slog.String("rate_limit_key", key),
				)
				metrics.RateLimitRejections.WithLabelValues("window").Inc()

				responder.Respond(w, r, apperr.NewRateLimitError(RateWindowMessage))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func resetSeconds(d ratelimit.Decision, now time.Time) int64 {
	left := d.ResetAt.Sub(now).Seconds()
	if left <= 0 {
		return 0
	}
	return int64(math.Ceil(left))
}
