package routes

import (
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/paygate/internal/apperr"
	"github.com/custodia-labs/paygate/internal/logger"
	"github.com/custodia-labs/paygate/internal/metrics"
)

// NewProxy returns a reverse proxy to target. The full request path is forwarded,
// so an upstream sees /api/payments/... exactly as the client sent it.
//
// Upstream failures are answered with a 502 envelope. CORS headers set by the
// upstream are dropped since the gateway owns them.
func NewProxy(name string, target *url.URL, timeout time.Duration, responder *apperr.Responder) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(target)

	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		req.Host = target.Host
		if id := middleware.GetReqID(req.Context()); id != "" {
			req.Header.Set(middleware.RequestIDHeader, id)
		}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	transport.ResponseHeaderTimeout = timeout
	proxy.Transport = transport

	proxy.ModifyResponse = func(resp *http.Response) error {
		for name := range resp.Header {
			if strings.HasPrefix(name, "Access-Control-") {
				resp.Header.Del(name)
			}
		}
		resp.Header.Del("X-Powered-By")
		return nil
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		metrics.UpstreamErrors.WithLabelValues(name).Inc()
		logger.ContextWithLogAttrs(r.Context(),
			slog.String("upstream_group", name),
			slog.String("upstream", target.Redacted()),
		)
		responder.Respond(w, r, apperr.WrapBadGatewayError(err, name+" service request failed"))
	}

	return proxy
}
