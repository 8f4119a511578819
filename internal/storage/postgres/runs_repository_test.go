package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brooklyn-events/aggregator/internal/domain/scraper"
)

func TestLogRunAndGetStats(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	repo := &RunRepository{pool: pool}

	now := time.Now().UTC().Truncate(time.Second)

	runs := []scraper.Run{
		{
			Source:      "brooklyn_paper",
			Status:      scraper.StatusSuccess,
			EventsFound: 5,
			EventsAdded: 3,
			StartedAt:   now.Add(-2 * time.Minute),
			CompletedAt: now.Add(-time.Minute),
		},
		{
			Source:      "brooklyn_paper",
			Status:      scraper.StatusSuccess,
			EventsFound: 4,
			EventsAdded: 1,
			StartedAt:   now.Add(-time.Minute),
			CompletedAt: now,
		},
		{
			Source:       "bpl",
			Status:       scraper.StatusFailed,
			ErrorMessage: "fetch timed out",
			StartedAt:    now.Add(-time.Minute),
			CompletedAt:  now.Add(-30 * time.Second),
		},
	}
	for _, run := range runs {
		require.NoError(t, repo.LogRun(ctx, run))
	}

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	bySource := map[string]scraper.SourceStats{}
	for _, s := range stats {
		bySource[s.Source] = s
	}

	paper := bySource["brooklyn_paper"]
	assert.Equal(t, int64(2), paper.TotalRuns)
	assert.Equal(t, int64(2), paper.SuccessfulRuns)
	assert.Equal(t, int64(9), paper.TotalEventsFound)
	assert.Equal(t, int64(4), paper.TotalEventsAdded)
	require.NotNil(t, paper.LastRun)
	assert.WithinDuration(t, now, *paper.LastRun, time.Second)

	bpl := bySource["bpl"]
	assert.Equal(t, int64(1), bpl.TotalRuns)
	assert.Equal(t, int64(0), bpl.SuccessfulRuns)
	assert.Equal(t, int64(0), bpl.TotalEventsFound)
}

func TestGetStatsEmpty(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	repo := &RunRepository{pool: pool}

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestLogRunRecordsFailureForWholePipeline(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	repo := &RunRepository{pool: pool}

	now := time.Now().UTC()
	run := scraper.Run{
		Source:       scraper.SourceAll,
		Status:       scraper.StatusFailed,
		ErrorMessage: "database unavailable",
		StartedAt:    now.Add(-time.Minute),
		CompletedAt:  now,
	}
	require.NoError(t, repo.LogRun(ctx, run))

	var (
		source, status, errMsg string
	)
	err := pool.QueryRow(ctx,
		`SELECT source, status, error_message FROM scraping_runs`).
		Scan(&source, &status, &errMsg)
	require.NoError(t, err)
	assert.Equal(t, "all", source)
	assert.Equal(t, "failed", status)
	assert.Equal(t, "database unavailable", errMsg)
}
