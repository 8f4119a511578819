package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/brooklyn-events/aggregator/internal/metrics"
	"github.com/brooklyn-events/aggregator/internal/storage"
)

// maxQueryLimit caps the limit query parameter.
const maxQueryLimit = 500

// Handler serves the read-only query API.
type Handler struct {
	repo   storage.Repository
	logger zerolog.Logger
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	metrics.HTTPRequestsTotal.WithLabelValues("/healthz", "200").Inc()
}

// ListEvents returns upcoming events, optionally filtered by min_date,
// max_date, type, and limit. A storage failure yields an empty events list
// with a generic error marker rather than leaking internals.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"events": []any{},
			"error":  err.Error(),
		})
		metrics.HTTPRequestsTotal.WithLabelValues("/api/events", "400").Inc()
		return
	}

	found, err := h.repo.Events().Query(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("api: event query failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"events": []any{},
			"error":  "storage unavailable",
		})
		metrics.HTTPRequestsTotal.WithLabelValues("/api/events", "500").Inc()
		return
	}

	wire := make([]map[string]any, 0, len(found))
	for i := range found {
		wire = append(wire, found[i].WireMap())
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": wire})
	metrics.HTTPRequestsTotal.WithLabelValues("/api/events", "200").Inc()
}

// Stats returns the per-source scrape run aggregates.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Runs().GetStats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("api: stats query failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"stats": []any{},
			"error": "storage unavailable",
		})
		metrics.HTTPRequestsTotal.WithLabelValues("/api/stats", "500").Inc()
		return
	}

	wire := make([]map[string]any, 0, len(stats))
	for i := range stats {
		wire = append(wire, stats[i].WireMap())
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": wire})
	metrics.HTTPRequestsTotal.WithLabelValues("/api/stats", "200").Inc()
}

func parseFilter(r *http.Request) (storage.QueryFilter, error) {
	var filter storage.QueryFilter
	q := r.URL.Query()

	if raw := q.Get("min_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.MinDate = &t
	}
	if raw := q.Get("max_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filter, err
		}
		filter.MaxDate = &t
	}
	filter.Type = q.Get("type")

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, &filterError{"limit must be a positive integer"}
		}
		if limit > maxQueryLimit {
			limit = maxQueryLimit
		}
		filter.Limit = limit
	}

	return filter, nil
}

// parseDate accepts RFC 3339 timestamps and bare dates.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, &filterError{"dates must be RFC 3339 or YYYY-MM-DD"}
	}
	return t, nil
}

type filterError struct {
	msg string
}

func (e *filterError) Error() string { return e.msg }

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
