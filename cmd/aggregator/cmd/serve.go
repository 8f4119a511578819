package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riverqueue/river"
	"github.com/spf13/cobra"

	"github.com/brooklyn-events/aggregator/internal/api"
	"github.com/brooklyn-events/aggregator/internal/config"
	"github.com/brooklyn-events/aggregator/internal/jobs"
	"github.com/brooklyn-events/aggregator/internal/metrics"
	"github.com/brooklyn-events/aggregator/internal/telemetry"
)

var (
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the query API and the scrape schedule",
	Long: `Start the HTTP query API and the background job schedule.

The server will:
- Load configuration from environment variables
- Serve /api/events, /api/stats, /healthz, and /metrics
- Run the scrape pipeline on the configured interval (and once at startup)
- Prune stale events daily
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  aggregator serve
  aggregator serve --port 9090
  aggregator serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting aggregator")

	metrics.Init()

	shutdownTracing, err := telemetry.InitTracing(context.Background(), cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing init: %w", err)
	}

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

	workers := river.NewWorkers()
	if err := jobs.RegisterWorkers(workers,
		jobs.NewScrapeWorker(p, logger),
		jobs.NewPruneWorker(repo, cfg.Retention.MaxAgeDays, logger),
	); err != nil {
		return err
	}

	riverClient, err := jobs.NewClient(pool, workers, nil, jobs.NewPeriodicJobs(cfg.Scraper.Interval))
	if err != nil {
		return fmt.Errorf("job client: %w", err)
	}

	riverCtx, riverCancel := context.WithCancel(context.Background())
	defer riverCancel()
	if err := riverClient.Start(riverCtx); err != nil {
		return fmt.Errorf("job client start: %w", err)
	}
	logger.Info().Dur("interval", cfg.Scraper.Interval).Msg("scrape schedule started")

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(repo, cfg.RateLimit, logger),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := riverClient.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("job client stop")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown")
		return err
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("tracing shutdown")
	}

	logger.Info().Msg("shutdown complete")
	return nil
}
