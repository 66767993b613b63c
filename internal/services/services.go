package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/paygate/internal/config"
	"github.com/custodia-labs/paygate/internal/database"
	"github.com/custodia-labs/paygate/internal/provision"
	"github.com/custodia-labs/paygate/internal/ratelimit"
	"github.com/custodia-labs/paygate/internal/startup"
)

// Services aggregates the backing services used by the server.
type Services struct {
	Provision   *provision.Service
	RateLimiter *ratelimit.Limiter

	pool  *pgxpool.Pool
	redis *redis.Client
}

// NewServices creates service implementations based on configuration.
// This is the single entry point for initializing all backing services.
func NewServices(ctx context.Context, cfg *config.ServerEnvironment, logger *slog.Logger) (*Services, error) {
	s := &Services{}

	store, err := s.newProvisionStore(ctx, cfg, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Provision = provision.NewService(store, logger)

	rateStore, err := s.newRateStore(ctx, cfg, logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	limiter, err := ratelimit.NewLimiter(rateStore, cfg.RateLimitMax, cfg.RateLimitWindow)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.RateLimiter = limiter

	return s, nil
}

func (s *Services) newProvisionStore(ctx context.Context, cfg *config.ServerEnvironment, logger *slog.Logger) (provision.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Info("using in-memory provisioning store")
		return provision.NewMemoryStore(), nil
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, database.PoolOptions{
		MaxConns:        cfg.DBMaxConnections,
		MinConns:        cfg.DBMinConnections,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
		ConnectTimeout:  cfg.DBConnectTimeout,
	})
	if err != nil {
		return nil, err
	}
	s.pool = pool

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return nil, err
		}
	}

	logger.Info("using postgres provisioning store",
		slog.Int("max_connections", int(cfg.DBMaxConnections)),
	)
	return provision.NewPostgresStore(pool), nil
}

func (s *Services) newRateStore(ctx context.Context, cfg *config.ServerEnvironment, logger *slog.Logger) (ratelimit.Store, error) {
	if cfg.RedisURL == "" {
		logger.Info("using in-memory rate limit store",
			slog.Int("max_clients", cfg.RateLimitMaxClients),
		)
		return ratelimit.NewMemoryStore(cfg.RateLimitMaxClients)
	}

	client, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	s.redis = client

	logger.Info("using redis rate limit store")
	return ratelimit.NewRedisStore(client, cfg.RateLimitKeyPrefix), nil
}

// StartupSteps returns the provisioning steps run before the listener is bound.
func (s *Services) StartupSteps(cfg *config.ServerEnvironment) []startup.Step {
	return []startup.Step{
		{
			Name: "create-mock-tokens",
			Run: func(ctx context.Context) error {
				return s.Provision.CreateMockTokens(ctx, cfg.MockTokens)
			},
		},
		{
			Name: "provision-custodial-accounts",
			Run: func(ctx context.Context) error {
				return s.Provision.ProvisionCustodialAccounts(ctx, cfg.CustodialAccounts)
			},
		},
	}
}

// Close releases the database pool and the redis client.
func (s *Services) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
		s.redis = nil
	}
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}

// Ping checks the provisioning store and, when configured, redis.
func (s *Services) Ping(ctx context.Context) error {
	if err := s.Provision.Store().Ping(ctx); err != nil {
		return err
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis unavailable: %w", err)
		}
	}
	return nil
}
