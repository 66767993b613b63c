package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jub0bs/cors"

	"github.com/custodia-labs/paygate/internal/apperr"
	"github.com/custodia-labs/paygate/internal/logger"
	"github.com/custodia-labs/paygate/internal/metrics"
)

// CORSRejectedMessage is the client message sent for disallowed origins.
const CORSRejectedMessage = "Not allowed by CORS"

// OriginPolicy decides which request origins may call the API.
//
// An origin is allowed when it is absent (same-origin and non-browser clients),
// when it exactly matches one of the configured origins, or when it is an https
// origin on a subdomain of the preview domain.
type OriginPolicy struct {
	exact         map[string]struct{}
	origins       []string
	previewDomain string
}

// NewOriginPolicy returns a policy for the given exact origins and preview domain.
// An empty preview domain disables the pattern.
func NewOriginPolicy(origins []string, previewDomain string) *OriginPolicy {
	p := &OriginPolicy{
		exact:         make(map[string]struct{}, len(origins)),
		previewDomain: strings.ToLower(strings.Trim(previewDomain, ".")),
	}
	for _, o := range origins {
		o = strings.TrimRight(o, "/")
		if _, dup := p.exact[o]; dup || o == "" {
			continue
		}
		p.exact[o] = struct{}{}
		p.origins = append(p.origins, o)
	}
	return p
}

// Allowed reports whether origin passes the policy.
func (p *OriginPolicy) Allowed(origin string) bool {
	if origin == "" {
		return true
	}
	if _, ok := p.exact[origin]; ok {
		return true
	}
	return p.matchesPreview(origin)
}

// matchesPreview accepts https://<label(s)>.<preview-domain> with no port, path,
// query or user info.
func (p *OriginPolicy) matchesPreview(origin string) bool {
	if p.previewDomain == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Scheme != "https" || u.User != nil || u.Port() != "" {
		return false
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.Opaque != "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	suffix := "." + p.previewDomain
	if !strings.HasSuffix(host, suffix) {
		return false
	}
	labels := strings.TrimSuffix(host, suffix)
	if labels == "" {
		return false
	}
	for _, label := range strings.Split(labels, ".") {
		if label == "" {
			return false
		}
	}
	return true
}

// Patterns returns the origin patterns for the CORS header middleware.
func (p *OriginPolicy) Patterns() []string {
	patterns := append([]string(nil), p.origins...)
	if p.previewDomain != "" {
		patterns = append(patterns, "https://*."+p.previewDomain)
	}
	return patterns
}

// CORS returns the origin policy gate.
//
// Requests from a disallowed origin are rejected with 403 before any CORS header is written.
// Allowed requests get their CORS headers from jub0bs/cors. OPTIONS requests never reach
// the next handler: preflights are answered by jub0bs/cors and any other OPTIONS request gets a 204.
func CORS(policy *OriginPolicy, responder *apperr.Responder) (func(http.Handler) http.Handler, error) {
	mw, err := cors.NewMiddleware(cors.Config{
		Origins:         policy.Patterns(),
		Credentialed:    true,
		Methods:         []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		RequestHeaders:  []string{"Content-Type", "Authorization", "X-Requested-With"},
		ResponseHeaders: []string{"X-Request-Id", "Retry-After", "RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset"},
		ExtraConfig: cors.ExtraConfig{
			PreflightSuccessStatus: http.StatusNoContent,
			// local development origins use plain http
			DangerouslyTolerateInsecureOrigins: true,
			// preview domains such as vercel.app are public suffixes
			DangerouslyTolerateSubdomainsOfPublicSuffixes: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("invalid CORS configuration: %w", err)
	}

	return func(next http.Handler) http.Handler {
		terminated := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		}))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if !policy.Allowed(origin) {
				logger.ContextRequestLogger(r.Context()).Warn("CORS blocked origin",
					slog.String("component", "CORS"),
					slog.String("origin", origin),
				)
				logger.ContextWithLogAttrs(r.Context(), slog.Bool("cors_rejected", true))
				metrics.CORSRejections.Inc()

				responder.Respond(w, r, apperr.NewCORSError(CORSRejectedMessage))
				return
			}
			terminated.ServeHTTP(w, r)
		})
	}, nil
}
