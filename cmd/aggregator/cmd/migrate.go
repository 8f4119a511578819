package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/spf13/cobra"

	"github.com/brooklyn-events/aggregator/internal/config"
	"github.com/brooklyn-events/aggregator/internal/storage/postgres"
)

var (
	migrateDownSteps int
	migrationsPath   string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Apply the schema migrations, including the job queue's own tables.

Examples:
  aggregator migrate
  aggregator migrate --down 1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}

		logger := config.NewLogger(cfg.Logging)

		if migrateDownSteps > 0 {
			if err := postgres.MigrateDown(cfg.Database.URL, migrationsPath, migrateDownSteps); err != nil {
				return err
			}
			logger.Info().Int("steps", migrateDownSteps).Msg("migrated down")
			return nil
		}

		if err := postgres.MigrateUp(cfg.Database.URL, migrationsPath); err != nil {
			return err
		}
		if err := migrateRiver(cfg); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
		return nil
	},
}

func init() {
	migrateCmd.Flags().IntVar(&migrateDownSteps, "down", 0, "roll back this many migrations instead of migrating up")
	migrateCmd.Flags().StringVar(&migrationsPath, "path", "", "migrations directory (default: internal/storage/postgres/migrations)")
}

// migrateRiver applies the job queue's schema.
func migrateRiver(cfg config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database.URL, 1)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("river migrate: %w", err)
	}
	return nil
}
