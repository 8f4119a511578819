package jobs

import (
	"context"
	"fmt"

	"github.com/riverqueue/river"
	"github.com/rs/zerolog"

	"github.com/brooklyn-events/aggregator/internal/metrics"
	"github.com/brooklyn-events/aggregator/internal/pipeline"
	"github.com/brooklyn-events/aggregator/internal/storage"
)

// ScrapeArgs triggers one full pipeline run.
type ScrapeArgs struct{}

func (ScrapeArgs) Kind() string { return JobKindScrape }

// ScrapeWorker runs the scrape pipeline.
type ScrapeWorker struct {
	river.WorkerDefaults[ScrapeArgs]

	pipeline *pipeline.Pipeline
	logger   zerolog.Logger
}

// NewScrapeWorker constructs a ScrapeWorker.
func NewScrapeWorker(p *pipeline.Pipeline, logger zerolog.Logger) *ScrapeWorker {
	return &ScrapeWorker{pipeline: p, logger: logger}
}

func (w *ScrapeWorker) Work(ctx context.Context, job *river.Job[ScrapeArgs]) error {
	if w.pipeline == nil {
		return fmt.Errorf("scrape worker: pipeline not configured")
	}

	summary, err := w.pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("scrape job: %w", err)
	}

	w.logger.Info().
		Int("events_found", summary.EventsFound).
		Int("events_upserted", summary.EventsUpserted).
		Msg("jobs: scrape complete")
	return nil
}

// PruneArgs triggers a retention pruning pass.
type PruneArgs struct{}

func (PruneArgs) Kind() string { return JobKindPrune }

// PruneWorker deletes events older than the retention window.
type PruneWorker struct {
	river.WorkerDefaults[PruneArgs]

	repo       storage.Repository
	maxAgeDays int
	logger     zerolog.Logger
}

// NewPruneWorker constructs a PruneWorker.
func NewPruneWorker(repo storage.Repository, maxAgeDays int, logger zerolog.Logger) *PruneWorker {
	return &PruneWorker{repo: repo, maxAgeDays: maxAgeDays, logger: logger}
}

func (w *PruneWorker) Work(ctx context.Context, job *river.Job[PruneArgs]) error {
	if w.repo == nil {
		return fmt.Errorf("prune worker: repository not configured")
	}

	removed, err := w.repo.Events().Prune(ctx, w.maxAgeDays)
	if err != nil {
		return fmt.Errorf("prune job: %w", err)
	}
	metrics.EventsPrunedTotal.Add(float64(removed))

	w.logger.Info().
		Int64("removed", removed).
		Int("max_age_days", w.maxAgeDays).
		Msg("jobs: prune complete")
	return nil
}

// RegisterWorkers adds all workers to the given registry.
func RegisterWorkers(workers *river.Workers, scrape *ScrapeWorker, prune *PruneWorker) error {
	if err := river.AddWorkerSafely(workers, scrape); err != nil {
		return fmt.Errorf("register scrape worker: %w", err)
	}
	if err := river.AddWorkerSafely(workers, prune); err != nil {
		return fmt.Errorf("register prune worker: %w", err)
	}
	return nil
}
