// Package api serves the query endpoints over the stored event feed.
package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/brooklyn-events/aggregator/internal/api/middleware"
	"github.com/brooklyn-events/aggregator/internal/config"
	"github.com/brooklyn-events/aggregator/internal/metrics"
	"github.com/brooklyn-events/aggregator/internal/storage"
)

// NewRouter builds the HTTP handler tree over the given repository, wrapped
// in the rate-limit and tracing middleware.
func NewRouter(repo storage.Repository, rateLimit config.RateLimitConfig, logger zerolog.Logger) http.Handler {
	h := &Handler{repo: repo, logger: logger}

	mux := http.NewServeMux()
	mux.Handle("/healthz", http.HandlerFunc(h.Healthz))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("/api/events", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(h.ListEvents),
	}))
	mux.Handle("/api/stats", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(h.Stats),
	}))

	return middleware.Tracing(middleware.RateLimit(rateLimit)(mux))
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
