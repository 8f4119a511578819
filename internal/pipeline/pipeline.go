// Package pipeline runs one full scrape cycle: fan out over the sources,
// persist everything found, and record the audit trail.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	domainScraper "github.com/brooklyn-events/aggregator/internal/domain/scraper"
	"github.com/brooklyn-events/aggregator/internal/metrics"
	"github.com/brooklyn-events/aggregator/internal/scraper"
	"github.com/brooklyn-events/aggregator/internal/storage"
	"github.com/brooklyn-events/aggregator/internal/telemetry"
)

const tracerName = "github.com/brooklyn-events/aggregator/internal/pipeline"

// Summary aggregates the outcome of one pipeline run.
type Summary struct {
	EventsFound    int
	EventsUpserted int
	Sources        int
}

// Pipeline wires the orchestrator to the event store.
type Pipeline struct {
	orchestrator *scraper.Orchestrator
	repo         storage.Repository
	logger       zerolog.Logger
}

// New constructs a Pipeline.
func New(orchestrator *scraper.Orchestrator, repo storage.Repository, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		orchestrator: orchestrator,
		repo:         repo,
		logger:       logger,
	}
}

// Run executes one scrape cycle. Source failures were already contained by
// the orchestrator; a persistence failure aborts the run, records a single
// failed audit row under the "all" source, and surfaces the error.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	ctx, span := telemetry.GetTracer(tracerName).Start(ctx, "pipeline.run")
	defer span.End()

	started := time.Now()
	defer func() {
		metrics.ScrapeDuration.Observe(time.Since(started).Seconds())
	}()

	results := p.orchestrator.Run(ctx)

	var summary Summary
	summary.Sources = len(results)

	for _, result := range results {
		summary.EventsFound += len(result.Events)

		added := 0
		for i := range result.Events {
			if _, err := p.repo.Events().Upsert(ctx, &result.Events[i]); err != nil {
				p.logFailedRun(ctx, started, err)
				metrics.ScrapeRunsTotal.WithLabelValues(domainScraper.SourceAll, domainScraper.StatusFailed).Inc()
				wrapped := fmt.Errorf("pipeline: persist events from %s: %w", result.Source, err)
				span.RecordError(wrapped)
				span.SetStatus(codes.Error, "persistence failed")
				return summary, wrapped
			}
			added++
			metrics.EventsUpsertedTotal.WithLabelValues(result.Source).Inc()
		}
		summary.EventsUpserted += added

		run := domainScraper.Run{
			Source:      result.Source,
			Status:      domainScraper.StatusSuccess,
			EventsFound: len(result.Events),
			EventsAdded: added,
			StartedAt:   result.StartedAt,
			CompletedAt: result.CompletedAt,
		}
		if err := p.repo.Runs().LogRun(ctx, run); err != nil {
			p.logFailedRun(ctx, started, err)
			metrics.ScrapeRunsTotal.WithLabelValues(domainScraper.SourceAll, domainScraper.StatusFailed).Inc()
			wrapped := fmt.Errorf("pipeline: log run for %s: %w", result.Source, err)
			span.RecordError(wrapped)
			span.SetStatus(codes.Error, "audit log failed")
			return summary, wrapped
		}
		metrics.ScrapeRunsTotal.WithLabelValues(result.Source, domainScraper.StatusSuccess).Inc()
	}

	span.SetAttributes(
		attribute.Int("sources", summary.Sources),
		attribute.Int("events.found", summary.EventsFound),
		attribute.Int("events.upserted", summary.EventsUpserted),
	)

	p.logger.Info().
		Int("sources", summary.Sources).
		Int("events_found", summary.EventsFound).
		Int("events_upserted", summary.EventsUpserted).
		Dur("took", time.Since(started)).
		Msg("pipeline: run complete")

	return summary, nil
}

// logFailedRun records a best-effort failed audit row attributed to the whole
// run. If even that write fails there is nothing left to do but log it.
func (p *Pipeline) logFailedRun(ctx context.Context, started time.Time, cause error) {
	run := domainScraper.Run{
		Source:       domainScraper.SourceAll,
		Status:       domainScraper.StatusFailed,
		ErrorMessage: cause.Error(),
		StartedAt:    started,
		CompletedAt:  time.Now(),
	}
	if err := p.repo.Runs().LogRun(ctx, run); err != nil {
		p.logger.Error().Err(err).Msg("pipeline: failed to record failed run")
	}
}
