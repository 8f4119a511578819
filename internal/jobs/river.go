// Package jobs wires the scheduled scrape and retention work onto River.
package jobs

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

const (
	JobKindScrape = "scrape"
	JobKindPrune  = "prune"
)

// ScrapeMaxAttempts is 1: a failed scrape waits for the next interval rather
// than retrying immediately against sites that just refused us.
const ScrapeMaxAttempts = 1

// PruneMaxAttempts allows a couple of retries; pruning is cheap and safe to
// repeat.
const PruneMaxAttempts = 3

// NewClientConfig builds the River client configuration.
func NewClientConfig(workers *river.Workers, logger *slog.Logger, periodicJobs []*river.PeriodicJob) *river.Config {
	config := &river.Config{
		Workers:      workers,
		MaxAttempts:  PruneMaxAttempts,
		PeriodicJobs: periodicJobs,
		Queues: map[string]river.QueueConfig{
			// One worker: scrape runs must not overlap.
			river.QueueDefault: {MaxWorkers: 1},
		},
	}
	if logger != nil {
		config.Logger = logger
	}
	return config
}

// NewClient creates a River client using pgx v5.
func NewClient(pool *pgxpool.Pool, workers *river.Workers, logger *slog.Logger, periodicJobs []*river.PeriodicJob) (*river.Client[pgx.Tx], error) {
	return river.NewClient(riverpgxv5.New(pool), NewClientConfig(workers, logger, periodicJobs))
}

// NewPeriodicJobs creates the schedule:
// - Scrape: every scrapeInterval, plus once at startup
// - Prune: daily
func NewPeriodicJobs(scrapeInterval time.Duration) []*river.PeriodicJob {
	if scrapeInterval <= 0 {
		scrapeInterval = time.Hour
	}
	return []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(scrapeInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				return ScrapeArgs{}, &river.InsertOpts{MaxAttempts: ScrapeMaxAttempts}
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		),
		river.NewPeriodicJob(
			river.PeriodicInterval(24*time.Hour),
			func() (river.JobArgs, *river.InsertOpts) {
				return PruneArgs{}, &river.InsertOpts{MaxAttempts: PruneMaxAttempts}
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		),
	}
}
