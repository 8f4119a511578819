package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/brooklyn-events/aggregator/internal/config"
	"github.com/brooklyn-events/aggregator/internal/geo"
	"github.com/brooklyn-events/aggregator/internal/pipeline"
	"github.com/brooklyn-events/aggregator/internal/scraper"
	"github.com/brooklyn-events/aggregator/internal/storage/postgres"
)

// loadConfig loads env configuration and applies global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

// openRepository connects the pgx pool and wraps it in the repository.
func openRepository(cfg config.Config) (*postgres.Repository, *pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database.URL, cfg.Database.MaxConnections)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repo, pool, nil
}

// buildPipeline assembles sources, orchestrator, and pipeline. The returned
// cleanup shuts the browser process down.
func buildPipeline(cfg config.Config, repo *postgres.Repository, logger zerolog.Logger) (*pipeline.Pipeline, func(), error) {
	fetcher := scraper.NewFetcher(cfg.Scraper.FetchTimeout, logger)
	renderer := scraper.NewRenderer(cfg.Scraper.NavigationTimeout, logger)

	sources, err := scraper.BuildSources(cfg.Scraper.SourcesDir, fetcher, renderer, logger)
	if err != nil {
		renderer.Close()
		return nil, nil, fmt.Errorf("loading sources: %w", err)
	}

	// One rendered navigation plus extraction must fit inside the per-source
	// budget.
	perSourceTimeout := cfg.Scraper.NavigationTimeout + cfg.Scraper.FetchTimeout + 20*time.Second

	geocoder := geo.NewGeocoder(geo.DefaultConfig())
	orchestrator := scraper.NewOrchestrator(sources, geocoder, perSourceTimeout, logger)

	return pipeline.New(orchestrator, repo, logger), renderer.Close, nil
}

// buildSinglePipeline is buildPipeline restricted to the named source.
func buildSinglePipeline(cfg config.Config, repo *postgres.Repository, name string, logger zerolog.Logger) (*pipeline.Pipeline, func(), error) {
	fetcher := scraper.NewFetcher(cfg.Scraper.FetchTimeout, logger)
	renderer := scraper.NewRenderer(cfg.Scraper.NavigationTimeout, logger)

	configs, err := scraper.ResolveConfigs(cfg.Scraper.SourcesDir)
	if err != nil {
		renderer.Close()
		return nil, nil, fmt.Errorf("loading sources: %w", err)
	}

	var sources []scraper.Source
	for _, sc := range configs {
		if !strings.EqualFold(sc.Name, name) {
			continue
		}
		if !sc.Enabled {
			renderer.Close()
			return nil, nil, fmt.Errorf("source is disabled: %s", name)
		}
		sources = append(sources, scraper.NewSource(sc, fetcher, renderer, logger))
		break
	}
	if len(sources) == 0 {
		renderer.Close()
		return nil, nil, fmt.Errorf("source not found: %s", name)
	}

	perSourceTimeout := cfg.Scraper.NavigationTimeout + cfg.Scraper.FetchTimeout + 20*time.Second

	geocoder := geo.NewGeocoder(geo.DefaultConfig())
	orchestrator := scraper.NewOrchestrator(sources, geocoder, perSourceTimeout, logger)

	return pipeline.New(orchestrator, repo, logger), renderer.Close, nil
}
