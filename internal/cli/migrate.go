package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paygate/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database migrations",
	Long:  `Apply all pending goose migrations to the database named by DATABASE_URL`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.DatabasePingTimeout)
		defer cancel()

		pool, err := database.NewPool(ctx, cfg.DatabaseURL, database.PoolOptions{
			MaxConns:        cfg.DBMaxConnections,
			MinConns:        cfg.DBMinConnections,
			MaxConnLifetime: cfg.DBMaxConnLifetime,
			MaxConnIdleTime: cfg.DBMaxConnIdleTime,
			ConnectTimeout:  cfg.DBConnectTimeout,
		})
		if err != nil {
			return err
		}
		defer pool.Close()

		return database.Migrate(cmd.Context(), pool, appLogger)
	},
}
