package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paygate/internal/sanitize"
	"github.com/custodia-labs/paygate/internal/server"
	"github.com/custodia-labs/paygate/internal/services"
	"github.com/custodia-labs/paygate/internal/startup"
	"github.com/custodia-labs/paygate/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Connect the backing services, run the startup steps (mock tokens and
custodial accounts) and listen on HOST:PORT until SIGINT or SIGTERM.

In the prod profile the listener is not bound unless PRODUCTION_LISTENER=true.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	appLogger.Info("Configuration loaded",
		slog.String("ENVIRONMENT", cfg.Environment),
		slog.String("HOST", cfg.Host),
		slog.Int("PORT", cfg.Port),
		slog.String("LOG_LEVEL", cfg.LogLevel),
		slog.String("FRONTEND_URL", cfg.FrontendOrigin),
		slog.String("PREVIEW_DOMAIN", cfg.PreviewDomain),
		slog.String("DATABASE_URL", sanitize.RedactSecrets(cfg.DatabaseURL)),
		slog.String("REDIS_URL", sanitize.RedactSecrets(cfg.RedisURL)),
		slog.Int64("RATE_LIMIT_MAX", cfg.RateLimitMax),
		slog.Duration("RATE_LIMIT_WINDOW", cfg.RateLimitWindow),
	)

	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.DatabasePingTimeout)
	defer connectCancel()

	svc, err := services.NewServices(connectCtx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialise services", slog.String("error", err.Error()))
		return err
	}
	defer svc.Close()

	seq := &startup.Sequence{
		Steps:       svc.StartupSteps(cfg),
		StepTimeout: cfg.StartupStepTimeout,
		Logger:      appLogger,
	}
	if failed := startup.Failed(seq.Run(ctx)); len(failed) > 0 {
		appLogger.Warn("startup steps completed with failures",
			slog.Int("failed", len(failed)),
		)
	}

	appLogger.Info("Starting server", slog.String("version", version.Get().Version))

	srv, err := server.NewServer(cfg, appLogger, svc)
	if err != nil {
		appLogger.Error("Failed to create server", slog.String("error", err.Error()))
		return err
	}

	if err := srv.Start(ctx); err != nil {
		appLogger.Error("Server error", slog.String("error", err.Error()))
		return fmt.Errorf("server error: %w", err)
	}

	appLogger.Info("server shutdown complete")
	return nil
}
