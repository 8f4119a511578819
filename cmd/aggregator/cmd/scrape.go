package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brooklyn-events/aggregator/internal/config"
	"github.com/brooklyn-events/aggregator/internal/metrics"
	"github.com/brooklyn-events/aggregator/internal/scraper"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape commands",
}

// scrapeRunCmd runs one full pipeline pass and exits. Exit code 0 means every
// source was processed and all results persisted; persistence failures exit
// non-zero.
var scrapeRunCmd = &cobra.Command{
	Use:     "run",
	Aliases: []string{"all"},
	Short:   "Run one scrape pipeline pass",
	Long: `Scrape all configured sources once, persist the events, and record the
audit trail, then exit. Intended for cron-style scheduling as an alternative
to the serve command's built-in interval.

Examples:
  aggregator scrape run
  aggregator scrape run --log-format console`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}

		logger := config.NewLogger(cfg.Logging)
		metrics.Init()

		repo, pool, err := openRepository(cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		p, closeBrowser, err := buildPipeline(cfg, repo, logger)
		if err != nil {
			return err
		}
		defer closeBrowser()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		summary, err := p.Run(ctx)
		if err != nil {
			return fmt.Errorf("scrape run: %w", err)
		}

		fmt.Printf("sources: %d, events found: %d, events upserted: %d\n",
			summary.Sources, summary.EventsFound, summary.EventsUpserted)
		return nil
	},
}

// scrapeListCmd prints the configured sources without scraping anything.
var scrapeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured scrape sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}

		configs, err := scraper.ResolveConfigs(cfg.Scraper.SourcesDir)
		if err != nil {
			return err
		}

		for _, sc := range configs {
			mode := "plain"
			if sc.Rendered {
				mode = "rendered"
			}
			state := "enabled"
			if !sc.Enabled {
				state = "disabled"
			}
			fmt.Printf("%-18s %-8s %-8s %-8s %s\n", sc.Name, sc.Type, mode, state, sc.URL)
		}
		return nil
	},
}

// scrapeSourceCmd runs the pipeline for a single named source.
var scrapeSourceCmd = &cobra.Command{
	Use:   "source <name>",
	Short: "Scrape one configured source",
	Long: `Scrape a single source by name, persist its events, and record the
audit row.

Examples:
  aggregator scrape source brooklyn_paper
  aggregator scrape source eventbrite --log-level debug`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}

		logger := config.NewLogger(cfg.Logging)
		metrics.Init()

		repo, pool, err := openRepository(cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		p, closeBrowser, err := buildSinglePipeline(cfg, repo, name, logger)
		if err != nil {
			return err
		}
		defer closeBrowser()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		summary, err := p.Run(ctx)
		if err != nil {
			return fmt.Errorf("scrape source: %w", err)
		}

		fmt.Printf("source %s: events found: %d, events upserted: %d\n",
			name, summary.EventsFound, summary.EventsUpserted)
		return nil
	},
}

func init() {
	scrapeCmd.AddCommand(scrapeRunCmd)
	scrapeCmd.AddCommand(scrapeListCmd)
	scrapeCmd.AddCommand(scrapeSourceCmd)
}
