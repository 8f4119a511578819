package postgres

import (
	"context"
	"fmt"

	"github.com/brooklyn-events/aggregator/internal/domain/scraper"
)

// LogRun appends one audit row. Rows are never updated after insert.
func (r *RunRepository) LogRun(ctx context.Context, run scraper.Run) error {
	const query = `
		INSERT INTO scraping_runs (
			source, status, events_found, events_added, error_message,
			started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		run.Source, run.Status, run.EventsFound, run.EventsAdded,
		run.ErrorMessage, run.StartedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("log run for %s: %w", run.Source, err)
	}
	return nil
}

// GetStats aggregates the run history per source, most recent activity first.
func (r *RunRepository) GetStats(ctx context.Context) ([]scraper.SourceStats, error) {
	const query = `
		SELECT
			source,
			COUNT(*) AS total_runs,
			COUNT(*) FILTER (WHERE status = 'success') AS successful_runs,
			COALESCE(SUM(events_found), 0) AS total_events_found,
			COALESCE(SUM(events_added), 0) AS total_events_added,
			MAX(completed_at) AS last_run
		FROM scraping_runs
		GROUP BY source
		ORDER BY last_run DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query run stats: %w", err)
	}
	defer rows.Close()

	var stats []scraper.SourceStats
	for rows.Next() {
		var s scraper.SourceStats
		if err := rows.Scan(
			&s.Source, &s.TotalRuns, &s.SuccessfulRuns,
			&s.TotalEventsFound, &s.TotalEventsAdded, &s.LastRun,
		); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats rows: %w", err)
	}
	return stats, nil
}
