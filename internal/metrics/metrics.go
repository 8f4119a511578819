// Package metrics exposes the Prometheus registry and instruments for the
// aggregator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "aggregator"

// Registry is the process-wide Prometheus registry.
var Registry = prometheus.NewRegistry()

// ScrapeRunsTotal counts completed scrape runs by source and status.
var ScrapeRunsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_runs_total",
		Help:      "Total number of scrape runs",
	},
	[]string{"source", "status"},
)

// EventsFoundTotal counts events extracted by adapters, per source.
var EventsFoundTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_found_total",
		Help:      "Total number of events extracted from sources",
	},
	[]string{"source"},
)

// EventsUpsertedTotal counts persisted events, per source.
var EventsUpsertedTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_upserted_total",
		Help:      "Total number of events written through the upsert path",
	},
	[]string{"source"},
)

// GeocodeFallbacksTotal counts locations that missed the gazetteer and fell
// back to the anchor coordinate.
var GeocodeFallbacksTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocode_fallbacks_total",
		Help:      "Total number of locations resolved to the default anchor",
	},
)

// ScrapeDuration records the wall time of one full pipeline run.
var ScrapeDuration = promauto.With(Registry).NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scrape_duration_seconds",
		Help:      "Duration of a full scrape pipeline run in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
	},
)

// EventsPrunedTotal counts events removed by retention pruning.
var EventsPrunedTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_pruned_total",
		Help:      "Total number of events deleted by retention pruning",
	},
)

// HTTPRequestsTotal counts query API requests by path and status code.
var HTTPRequestsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	},
	[]string{"path", "status"},
)

// Init registers the default Go and process collectors.
func Init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}
