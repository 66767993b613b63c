// Package routes builds the six path-prefixed route groups mounted under /api.
//
// A group is served by a reverse proxy when its upstream URL is configured.
// Otherwise it falls back to a local handler (if one is registered for the group)
// or to a 503 envelope.
package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/custodia-labs/paygate/internal/apperr"
	"github.com/custodia-labs/paygate/internal/config"
)

// Group is a route group mounted at Prefix.
type Group struct {
	Name    string
	Prefix  string
	Handler http.Handler

	// Upstream is the proxied service, nil for local and unavailable groups.
	Upstream *url.URL
}

type definition struct {
	name     string
	prefix   string
	upstream func(cfg *config.ServerEnvironment) string
}

var definitions = []definition{
	{"payments", "/api/payments", func(c *config.ServerEnvironment) string { return c.PaymentsUpstreamURL }},
	{"accounts", "/api/accounts", func(c *config.ServerEnvironment) string { return c.AccountsUpstreamURL }},
	{"withdrawals", "/api/withdrawals", func(c *config.ServerEnvironment) string { return c.WithdrawalsUpstreamURL }},
	{"direct-deposit", "/api/direct-deposit", func(c *config.ServerEnvironment) string { return c.DirectDepositUpstreamURL }},
	{"balances", "/api/v1/balances", func(c *config.ServerEnvironment) string { return c.BalancesUpstreamURL }},
	{"transactions", "/api/v1/transactions", func(c *config.ServerEnvironment) string { return c.TransactionsUpstreamURL }},
}

// Prefixes returns the group prefixes keyed by group name.
func Prefixes() map[string]string {
	out := make(map[string]string, len(definitions))
	for _, d := range definitions {
		out[d.name] = d.prefix
	}
	return out
}

// Build returns the route groups in mount order. local holds the handlers used by
// groups that have no upstream, keyed by group name.
func Build(cfg *config.ServerEnvironment, local map[string]http.Handler, responder *apperr.Responder, logger *slog.Logger) ([]Group, error) {
	groups := make([]Group, 0, len(definitions))

	for _, d := range definitions {
		g := Group{Name: d.name, Prefix: d.prefix}

		switch raw := d.upstream(cfg); {
		case raw != "":
			target, err := url.Parse(raw)
			if err != nil || target.Scheme == "" || target.Host == "" {
				return nil, fmt.Errorf("invalid upstream URL for %s: %q", d.name, raw)
			}
			g.Upstream = target
			g.Handler = NewProxy(d.name, target, cfg.UpstreamTimeout, responder)
			logger.Info("route group proxied",
				slog.String("group", d.name),
				slog.String("prefix", d.prefix),
				slog.String("upstream", target.Redacted()),
			)
		case local[d.name] != nil:
			g.Handler = local[d.name]
			logger.Info("route group served locally",
				slog.String("group", d.name),
				slog.String("prefix", d.prefix),
			)
		default:
			g.Handler = Unavailable(d.name, responder)
			logger.Warn("route group has no backing service",
				slog.String("group", d.name),
				slog.String("prefix", d.prefix),
			)
		}

		groups = append(groups, g)
	}
	return groups, nil
}

// Unavailable answers every request with a 503 envelope.
func Unavailable(name string, responder *apperr.Responder) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responder.Respond(w, r, apperr.NewUnavailableError(name+" service unavailable"))
	})
}
