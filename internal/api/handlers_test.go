package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brooklyn-events/aggregator/internal/config"
	"github.com/brooklyn-events/aggregator/internal/domain/events"
	domainScraper "github.com/brooklyn-events/aggregator/internal/domain/scraper"
	"github.com/brooklyn-events/aggregator/internal/storage"
)

type stubEventRepo struct {
	events     []events.Event
	queryErr   error
	lastFilter storage.QueryFilter
}

func (s *stubEventRepo) Upsert(ctx context.Context, e *events.Event) (int64, error) {
	return 0, errors.New("not implemented")
}

func (s *stubEventRepo) Query(ctx context.Context, filter storage.QueryFilter) ([]events.Event, error) {
	s.lastFilter = filter
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.events, nil
}

func (s *stubEventRepo) Prune(ctx context.Context, olderThanDays int) (int64, error) {
	return 0, nil
}

type stubRunRepo struct {
	stats    []domainScraper.SourceStats
	statsErr error
}

func (s *stubRunRepo) LogRun(ctx context.Context, run domainScraper.Run) error { return nil }

func (s *stubRunRepo) GetStats(ctx context.Context) ([]domainScraper.SourceStats, error) {
	if s.statsErr != nil {
		return nil, s.statsErr
	}
	return s.stats, nil
}

type stubRepo struct {
	events *stubEventRepo
	runs   *stubRunRepo
}

func (s *stubRepo) Events() storage.EventRepository { return s.events }
func (s *stubRepo) Runs() storage.RunRepository     { return s.runs }

func newStubRepo() *stubRepo {
	return &stubRepo{events: &stubEventRepo{}, runs: &stubRunRepo{}}
}

func doRequest(t *testing.T, repo storage.Repository, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	// A zero rate-limit budget disables throttling; the limiter itself is
	// covered by the middleware tests.
	router := NewRouter(repo, config.RateLimitConfig{}, zerolog.Nop())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	rec := doRequest(t, newStubRepo(), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestListEvents(t *testing.T) {
	date := time.Date(2026, 9, 12, 19, 0, 0, 0, time.UTC)
	lat, lng, dist := 40.6981, -73.9969, 2.1
	repo := newStubRepo()
	repo.events.events = []events.Event{
		{
			ID: 1, Title: "Waterfront Concert", Date: &date,
			Location: "Brooklyn Bridge Park", Type: "music",
			Latitude: &lat, Longitude: &lng, Distance: &dist,
			Source: "eventbrite", SourceID: "w1",
		},
	}

	rec := doRequest(t, repo, http.MethodGet, "/api/events")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody(t, rec)
	list, ok := body["events"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)

	first := list[0].(map[string]any)
	assert.Equal(t, "Waterfront Concert", first["title"])
	assert.Equal(t, "music", first["type"])
	assert.NotContains(t, first, "created_at")
	assert.NotContains(t, first, "updated_at")
}

func TestListEventsPassesFilter(t *testing.T) {
	repo := newStubRepo()
	rec := doRequest(t, repo, http.MethodGet,
		"/api/events?min_date=2026-09-01&max_date=2026-09-30T23:59:59Z&type=family&limit=10")
	require.Equal(t, http.StatusOK, rec.Code)

	filter := repo.events.lastFilter
	require.NotNil(t, filter.MinDate)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), filter.MinDate.UTC())
	require.NotNil(t, filter.MaxDate)
	assert.Equal(t, "family", filter.Type)
	assert.Equal(t, 10, filter.Limit)
}

func TestListEventsRejectsBadParams(t *testing.T) {
	for _, target := range []string{
		"/api/events?min_date=soon",
		"/api/events?limit=-5",
		"/api/events?limit=lots",
	} {
		rec := doRequest(t, newStubRepo(), http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestListEventsStorageFailure(t *testing.T) {
	repo := newStubRepo()
	repo.events.queryErr = errors.New("pool exhausted")

	rec := doRequest(t, repo, http.MethodGet, "/api/events")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decodeBody(t, rec)
	assert.Empty(t, body["events"])
	assert.Equal(t, "storage unavailable", body["error"])
	assert.NotContains(t, rec.Body.String(), "pool exhausted")
}

func TestListEventsMethodNotAllowed(t *testing.T) {
	rec := doRequest(t, newStubRepo(), http.MethodPost, "/api/events")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "GET", rec.Header().Get("Allow"))
}

func TestStats(t *testing.T) {
	last := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.runs.stats = []domainScraper.SourceStats{
		{
			Source: "brooklyn_paper", TotalRuns: 4, SuccessfulRuns: 3,
			TotalEventsFound: 20, TotalEventsAdded: 12, LastRun: &last,
		},
	}

	rec := doRequest(t, repo, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	list, ok := body["stats"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)

	first := list[0].(map[string]any)
	assert.Equal(t, "brooklyn_paper", first["source"])
	assert.Equal(t, float64(4), first["total_runs"])
	assert.Equal(t, "2026-08-28T12:00:00Z", first["last_run"])
}

func TestStatsStorageFailure(t *testing.T) {
	repo := newStubRepo()
	repo.runs.statsErr = errors.New("boom")

	rec := doRequest(t, repo, http.MethodGet, "/api/stats")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "storage unavailable", decodeBody(t, rec)["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := doRequest(t, newStubRepo(), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterAppliesRateLimit(t *testing.T) {
	router := NewRouter(newStubRepo(), config.RateLimitConfig{PublicPerMinute: 1}, zerolog.Nop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
