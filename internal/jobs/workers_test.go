package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brooklyn-events/aggregator/internal/domain/events"
	domainScraper "github.com/brooklyn-events/aggregator/internal/domain/scraper"
	"github.com/brooklyn-events/aggregator/internal/geo"
	"github.com/brooklyn-events/aggregator/internal/pipeline"
	"github.com/brooklyn-events/aggregator/internal/scraper"
	"github.com/brooklyn-events/aggregator/internal/storage"
)

type stubSource struct {
	name   string
	events []events.Event
}

func (s *stubSource) Name() string                             { return s.name }
func (s *stubSource) Fetch(ctx context.Context) []events.Event { return s.events }

type fakeRepo struct {
	upserted []events.Event
	runs     []domainScraper.Run
	pruned   int
	pruneErr error
}

func (f *fakeRepo) Events() storage.EventRepository { return (*fakeEventRepo)(f) }
func (f *fakeRepo) Runs() storage.RunRepository     { return (*fakeRunRepo)(f) }

type fakeEventRepo fakeRepo

func (f *fakeEventRepo) Upsert(ctx context.Context, e *events.Event) (int64, error) {
	f.upserted = append(f.upserted, *e)
	return int64(len(f.upserted)), nil
}

func (f *fakeEventRepo) Query(ctx context.Context, filter storage.QueryFilter) ([]events.Event, error) {
	return nil, nil
}

func (f *fakeEventRepo) Prune(ctx context.Context, olderThanDays int) (int64, error) {
	if f.pruneErr != nil {
		return 0, f.pruneErr
	}
	f.pruned = olderThanDays
	return 7, nil
}

type fakeRunRepo fakeRepo

func (f *fakeRunRepo) LogRun(ctx context.Context, run domainScraper.Run) error {
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRunRepo) GetStats(ctx context.Context) ([]domainScraper.SourceStats, error) {
	return nil, nil
}

func TestScrapeWorkerRunsPipeline(t *testing.T) {
	repo := &fakeRepo{}
	src := &stubSource{name: "a", events: []events.Event{
		{Title: "Jazz Night", Location: "Fort Greene", Source: "a", SourceID: "j1"},
	}}

	o := scraper.NewOrchestrator([]scraper.Source{src}, geo.NewGeocoder(geo.DefaultConfig()), time.Second, zerolog.Nop())
	worker := NewScrapeWorker(pipeline.New(o, repo, zerolog.Nop()), zerolog.Nop())

	err := worker.Work(context.Background(), &river.Job[ScrapeArgs]{})
	require.NoError(t, err)

	require.Len(t, repo.upserted, 1)
	assert.Equal(t, "Jazz Night", repo.upserted[0].Title)
	require.Len(t, repo.runs, 1)
	assert.Equal(t, domainScraper.StatusSuccess, repo.runs[0].Status)
}

func TestPruneWorker(t *testing.T) {
	repo := &fakeRepo{}
	worker := NewPruneWorker(repo, 30, zerolog.Nop())

	err := worker.Work(context.Background(), &river.Job[PruneArgs]{})
	require.NoError(t, err)
	assert.Equal(t, 30, repo.pruned)
}

func TestPruneWorkerSurfacesError(t *testing.T) {
	repo := &fakeRepo{pruneErr: errors.New("deadlock")}
	worker := NewPruneWorker(repo, 30, zerolog.Nop())

	err := worker.Work(context.Background(), &river.Job[PruneArgs]{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock")
}

func TestRegisterWorkers(t *testing.T) {
	workers := river.NewWorkers()
	err := RegisterWorkers(workers,
		NewScrapeWorker(nil, zerolog.Nop()),
		NewPruneWorker(&fakeRepo{}, 30, zerolog.Nop()))
	assert.NoError(t, err)
}

func TestPeriodicJobSchedule(t *testing.T) {
	jobs := NewPeriodicJobs(time.Hour)
	assert.Len(t, jobs, 2)
}
