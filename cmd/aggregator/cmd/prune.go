package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brooklyn-events/aggregator/internal/config"
)

var pruneMaxAgeDays int

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete events older than the retention window",
	Long: `Delete events dated further in the past than the retention window.
Events without a date are never pruned.

Examples:
  aggregator prune
  aggregator prune --max-age-days 14`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		if pruneMaxAgeDays > 0 {
			cfg.Retention.MaxAgeDays = pruneMaxAgeDays
		}

		logger := config.NewLogger(cfg.Logging)

		repo, pool, err := openRepository(cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		removed, err := repo.Events().Prune(ctx, cfg.Retention.MaxAgeDays)
		if err != nil {
			return fmt.Errorf("prune: %w", err)
		}

		logger.Info().Int64("removed", removed).Msg("prune complete")
		fmt.Printf("removed %d events older than %d days\n", removed, cfg.Retention.MaxAgeDays)
		return nil
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneMaxAgeDays, "max-age-days", 0, "retention window in days (default: RETENTION_MAX_AGE_DAYS or 30)")
}
