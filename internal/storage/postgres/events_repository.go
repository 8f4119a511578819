package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brooklyn-events/aggregator/internal/domain/events"
	"github.com/brooklyn-events/aggregator/internal/storage"
)

const defaultQueryLimit = 100

// eventColumns is the select list shared by all read queries.
const eventColumns = `id, title, description, date, location, latitude, longitude,
	distance, type, url, source, source_id, created_at, updated_at`

// Upsert inserts the event or refreshes the existing row keyed by
// (source, source_id). The statement is atomic: the unique constraint plus
// ON CONFLICT guarantees at most one row per key even under concurrent
// writers. created_at is preserved; updated_at is bumped on every call.
func (r *EventRepository) Upsert(ctx context.Context, e *events.Event) (int64, error) {
	const query = `
		INSERT INTO events (
			title, description, date, location, latitude, longitude,
			distance, type, url, source, source_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (source, source_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			date = EXCLUDED.date,
			location = EXCLUDED.location,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			distance = EXCLUDED.distance,
			type = EXCLUDED.type,
			url = EXCLUDED.url,
			updated_at = NOW()
		RETURNING id
	`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		e.Title, e.Description, e.Date, e.Location, e.Latitude, e.Longitude,
		e.Distance, e.Type, e.URL, e.Source, e.SourceID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert event %s/%s: %w", e.Source, e.SourceID, err)
	}
	return id, nil
}

// Query returns events matching the filter, ordered by date ascending.
// Events without a date are excluded: an unknown date cannot satisfy a date
// window. The default window is date >= now.
func (r *EventRepository) Query(ctx context.Context, filter storage.QueryFilter) ([]events.Event, error) {
	var (
		conds = []string{"date IS NOT NULL"}
		args  []any
	)

	minDate := time.Now()
	if filter.MinDate != nil {
		minDate = *filter.MinDate
	}
	args = append(args, minDate)
	conds = append(conds, fmt.Sprintf("date >= $%d", len(args)))

	if filter.MaxDate != nil {
		args = append(args, *filter.MaxDate)
		conds = append(conds, fmt.Sprintf("date <= $%d", len(args)))
	}

	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	args = append(args, limit)

	query := fmt.Sprintf(
		"SELECT %s FROM events WHERE %s ORDER BY date ASC LIMIT $%d",
		eventColumns, strings.Join(conds, " AND "), len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var result []events.Event
	for rows.Next() {
		var e events.Event
		if err := rows.Scan(
			&e.ID, &e.Title, &e.Description, &e.Date, &e.Location,
			&e.Latitude, &e.Longitude, &e.Distance, &e.Type, &e.URL,
			&e.Source, &e.SourceID, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return result, nil
}

// Prune deletes events dated before now minus olderThanDays and returns the
// number of rows removed. Events without a date are never pruned.
func (r *EventRepository) Prune(ctx context.Context, olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		return 0, fmt.Errorf("prune: olderThanDays must be > 0, got %d", olderThanDays)
	}

	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM events WHERE date IS NOT NULL AND date < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune events older than %d days: %w", olderThanDays, err)
	}
	return tag.RowsAffected(), nil
}

// GetBySourceID fetches one event by its natural key. Used by tests and the
// pipeline's duplicate accounting.
func (r *EventRepository) GetBySourceID(ctx context.Context, source, sourceID string) (*events.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE source = $1 AND source_id = $2", eventColumns)

	var e events.Event
	err := r.pool.QueryRow(ctx, query, source, sourceID).Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Location,
		&e.Latitude, &e.Longitude, &e.Distance, &e.Type, &e.URL,
		&e.Source, &e.SourceID, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s/%s: %w", source, sourceID, err)
	}
	return &e, nil
}
