// Package scraper holds the domain types for scrape-run auditing.
package scraper

import "time"

// Run statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// SourceAll is the run source recorded when a failure cannot be attributed to
// a single adapter (for example a persistence failure mid-run).
const SourceAll = "all"

// Run is the immutable audit record of one scrape of one source. Rows are
// append-only: they are written once at the end of a run and never updated.
type Run struct {
	ID           int64
	Source       string
	Status       string
	EventsFound  int
	EventsAdded  int
	ErrorMessage string
	StartedAt    time.Time
	CompletedAt  time.Time
}

// SourceStats aggregates run history for one source.
type SourceStats struct {
	Source           string
	TotalRuns        int64
	SuccessfulRuns   int64
	TotalEventsFound int64
	TotalEventsAdded int64
	LastRun          *time.Time
}

// WireMap returns the JSON-compatible representation of the stats row.
func (s *SourceStats) WireMap() map[string]any {
	m := map[string]any{
		"source":             s.Source,
		"total_runs":         s.TotalRuns,
		"successful_runs":    s.SuccessfulRuns,
		"total_events_found": s.TotalEventsFound,
		"total_events_added": s.TotalEventsAdded,
	}
	if s.LastRun != nil {
		m["last_run"] = s.LastRun.UTC().Format(time.RFC3339)
	} else {
		m["last_run"] = nil
	}
	return m
}
