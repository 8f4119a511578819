package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brooklyn-events/aggregator/internal/storage"
)

// Repository implements storage.Repository on a pgx connection pool.
type Repository struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository wraps an existing pool.
func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

// NewPool opens a pgx pool against databaseURL with the given connection cap.
func NewPool(ctx context.Context, databaseURL string, maxConns int) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return pool, nil
}

func (r *Repository) Events() storage.EventRepository {
	return &EventRepository{pool: r.pool}
}

func (r *Repository) Runs() storage.RunRepository {
	return &RunRepository{pool: r.pool}
}

// EventRepository implements storage.EventRepository.
type EventRepository struct {
	pool *pgxpool.Pool
}

// RunRepository implements storage.RunRepository.
type RunRepository struct {
	pool *pgxpool.Pool
}
