package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/paygate/internal/apperr"
	"github.com/custodia-labs/paygate/internal/config"
	"github.com/custodia-labs/paygate/internal/logger"
	"github.com/custodia-labs/paygate/internal/metrics"
	"github.com/custodia-labs/paygate/internal/routes"
	"github.com/custodia-labs/paygate/internal/server/handlers"
	"github.com/custodia-labs/paygate/internal/server/middleware"
	"github.com/custodia-labs/paygate/internal/services"
	"github.com/custodia-labs/paygate/internal/version"
)

type Server struct {
	config    *config.ServerEnvironment
	logger    *slog.Logger
	router    *chi.Mux
	services  *services.Services
	responder *apperr.Responder
	groups    []routes.Group
}

func NewServer(
	cfg *config.ServerEnvironment,
	logger *slog.Logger,
	svc *services.Services,
) (*Server, error) {
	server := &Server{
		config:    cfg,
		logger:    logger,
		router:    chi.NewRouter(),
		services:  svc,
		responder: apperr.NewResponder(cfg.Environment),
	}

	if err := server.setupMiddleware(); err != nil {
		return nil, err
	}
	if err := server.registerRoutes(); err != nil {
		return nil, err
	}

	return server, nil
}

// Handler returns the fully wired handler, for hosts that manage the listener themselves.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() error {
	policy := middleware.NewOriginPolicy(s.config.AllowedOrigins(), s.config.PreviewDomain)
	corsGate, err := middleware.CORS(policy, s.responder)
	if err != nil {
		return err
	}

	s.logger.Info("origin policy",
		slog.Any("origins", policy.Patterns()),
	)

	// transport and security shell
	// Recoverer stays inside metrics and request logging so recovered panics are counted and logged
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(metrics.Middleware)
	s.router.Use(logger.RequestLogging(s.logger))
	s.router.Use(middleware.Recoverer(s.responder))
	s.router.Use(middleware.SecurityHeaders(s.config.Environment))
	s.router.Use(middleware.RequestSizeLimit(s.config.MaxRequestBodyBytes, s.responder))
	s.router.Use(middleware.ValidateContentType(s.responder))
	s.router.Use(middleware.RateLimit(s.config.GlobalRateLimitRPS, s.config.GlobalRateLimitBurst, s.responder))

	// origin policy gate
	s.router.Use(corsGate)

	s.router.Use(chimiddleware.Timeout(s.config.RequestTimeout))
	return nil
}

func (s *Server) registerRoutes() error {
	notFound := handlers.HandleNotFound(s.responder)
	s.router.NotFound(notFound)
	s.router.MethodNotAllowed(notFound)

	s.router.Get("/health", handlers.HandleHealth(s.config.Environment, s.config.ProjectName))
	s.router.Get("/ready", handlers.HandleReadiness(s.services, s.config.DatabasePingTimeout))
	s.router.Get("/version", handlers.HandleVersion(version.Get(), s.config.ProjectName))
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler())

	local := map[string]http.Handler{
		"accounts": handlers.AccountsRouter(s.services.Provision.Store(), s.responder),
	}
	groups, err := routes.Build(s.config, local, s.responder, s.logger)
	if err != nil {
		return fmt.Errorf("failed to build route groups: %w", err)
	}
	s.groups = groups

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateWindow(s.services.RateLimiter, middleware.ClientIP, s.responder))

		// body decoder and input sanitiser, after the rate gate
		r.Use(middleware.DecodeBody(s.responder))
		r.Use(middleware.Sanitize)

		r.Get("/", handlers.HandleAPIInfo(s.apiInfo()))

		for _, g := range groups {
			r.Mount(strings.TrimPrefix(g.Prefix, "/api"), g.Handler)
		}
	})
	return nil
}

func (s *Server) apiInfo() handlers.APIInfo {
	endpoints := map[string]string{
		"health": "/health",
	}
	for _, g := range s.groups {
		endpoints[g.Name] = g.Prefix
	}
	return handlers.APIInfo{
		Name:        s.config.ProjectName,
		Version:     version.Get().Version,
		Description: "Payment gateway API for stablecoin payments, custodial accounts, withdrawals and deposits",
		Endpoints:   endpoints,
	}
}

// Start binds HOST:PORT and serves until ctx is cancelled, then shuts down gracefully.
//
// In the prod profile the bind is skipped unless PRODUCTION_LISTENER is set; the hosting
// runtime is then expected to serve Handler().
func (s *Server) Start(ctx context.Context) error {
	if s.config.ListenerManagedExternally() {
		s.logger.Info("listener bind skipped, the hosting runtime serves the handler",
			slog.String("environment", s.config.Environment),
		)
		return nil
	}

	serverAddr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	httpServer := &http.Server{
		Addr:         serverAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("service listening",
			slog.String("environment", s.config.Environment),
			slog.String("address", serverAddr),
			slog.String("health", fmt.Sprintf("http://%s/health", serverAddr)),
		)

		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.config.ServerShutdownTimeout)
	defer shutdownCancel()

	s.logger.Info("shutting down HTTP server")

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil {
		s.logger.Warn("HTTP server shutdown error",
			slog.String("error", err.Error()))
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server shutdown complete")
	return nil
}
