package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/brooklyn-events/aggregator/internal/domain/events"
	"github.com/brooklyn-events/aggregator/internal/geo"
	"github.com/brooklyn-events/aggregator/internal/metrics"
	"github.com/brooklyn-events/aggregator/internal/telemetry"
)

const tracerName = "github.com/brooklyn-events/aggregator/internal/scraper"

// SourceResult is one adapter's contribution to a pipeline run.
type SourceResult struct {
	Source      string
	Events      []events.Event
	StartedAt   time.Time
	CompletedAt time.Time
}

// Orchestrator fans out over the configured sources, annotates every event
// with coordinates and anchor distance, and collects per-source results.
type Orchestrator struct {
	sources  []Source
	geocoder *geo.Geocoder
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewOrchestrator constructs an Orchestrator. perSourceTimeout bounds each
// adapter's Fetch; a stuck source cannot stall the others.
func NewOrchestrator(sources []Source, geocoder *geo.Geocoder, perSourceTimeout time.Duration, logger zerolog.Logger) *Orchestrator {
	if perSourceTimeout <= 0 {
		perSourceTimeout = time.Minute
	}
	return &Orchestrator{
		sources:  sources,
		geocoder: geocoder,
		timeout:  perSourceTimeout,
		logger:   logger,
	}
}

// Run scrapes all sources concurrently, one goroutine per adapter. Results
// come back in source registration order regardless of completion order. A
// panicking adapter is contained and contributes an empty result.
func (o *Orchestrator) Run(ctx context.Context) []SourceResult {
	results := make([]SourceResult, len(o.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range o.sources {
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, o.timeout)
			defer cancel()

			fetchCtx, span := telemetry.GetTracer(tracerName).Start(fetchCtx, "scrape.source",
				trace.WithAttributes(attribute.String("source", src.Name())))
			defer span.End()

			started := time.Now()
			fetched := o.fetchContained(fetchCtx, src)
			span.SetAttributes(attribute.Int("events.found", len(fetched)))
			results[i] = SourceResult{
				Source:      src.Name(),
				Events:      o.annotate(fetched),
				StartedAt:   started,
				CompletedAt: time.Now(),
			}

			metrics.EventsFoundTotal.WithLabelValues(src.Name()).Add(float64(len(fetched)))
			o.logger.Info().
				Str("source", src.Name()).
				Int("events", len(fetched)).
				Dur("took", time.Since(started)).
				Msg("scraper: source complete")
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// fetchContained invokes the adapter and absorbs panics. The containment
// contract: no single source failure may abort the run.
func (o *Orchestrator) fetchContained(ctx context.Context, src Source) (fetched []events.Event) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Str("source", src.Name()).
				Str("panic", fmt.Sprint(r)).
				Msg("scraper: adapter panicked")
			fetched = nil
		}
	}()
	return src.Fetch(ctx)
}

// annotate resolves each event's location to a coordinate and computes its
// distance from the anchor point. Events that already carry coordinates are
// left alone.
func (o *Orchestrator) annotate(evts []events.Event) []events.Event {
	anchor := o.geocoder.Anchor()
	for i := range evts {
		if evts[i].HasCoordinates() {
			continue
		}
		coord, matched := o.geocoder.Resolve(evts[i].Location)
		if !matched {
			metrics.GeocodeFallbacksTotal.Inc()
		}
		distance := geo.Distance(coord, anchor)

		evts[i].Latitude = &coord.Lat
		evts[i].Longitude = &coord.Lng
		evts[i].Distance = &distance
	}
	return evts
}
