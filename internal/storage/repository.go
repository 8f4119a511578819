// Package storage defines the persistence interfaces implemented by the
// postgres sub-package.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/brooklyn-events/aggregator/internal/domain/events"
	"github.com/brooklyn-events/aggregator/internal/domain/scraper"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// QueryFilter narrows an event query. Nil date bounds fall back to the
// default window (MinDate: now). Limit <= 0 uses the default of 100.
type QueryFilter struct {
	MinDate *time.Time
	MaxDate *time.Time
	Type    string
	Limit   int
}

// EventRepository is the idempotent event store. Upsert is keyed by
// (source, source_id): it updates the existing row or inserts a new one in a
// single atomic statement and returns the affected row's id.
type EventRepository interface {
	Upsert(ctx context.Context, e *events.Event) (int64, error)
	Query(ctx context.Context, filter QueryFilter) ([]events.Event, error)
	Prune(ctx context.Context, olderThanDays int) (int64, error)
}

// RunRepository records scrape-run audit rows and serves aggregate stats.
type RunRepository interface {
	LogRun(ctx context.Context, run scraper.Run) error
	GetStats(ctx context.Context) ([]scraper.SourceStats, error)
}

// Repository bundles the per-table repositories.
type Repository interface {
	Events() EventRepository
	Runs() RunRepository
}
