// Package scraper implements the source adapters and the orchestrator that
// fans out over them, collecting normalized events from heterogeneous pages.
package scraper

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/brooklyn-events/aggregator/internal/domain/events"
)

// Source is one scrapable events source. Fetch returns the events it could
// extract, or an empty slice when the source is unreachable or yields nothing.
// Failures are logged inside the adapter and never surfaced to callers: a
// broken source must not take down the run.
type Source interface {
	Name() string
	Fetch(ctx context.Context) []events.Event
}

// NewSource builds the adapter for one validated config. Rendered sources get
// a browser-backed adapter, everything else a plain HTTP one.
func NewSource(cfg SourceConfig, fetcher *Fetcher, renderer *Renderer, logger zerolog.Logger) Source {
	if cfg.Rendered {
		return &browserSource{cfg: cfg, renderer: renderer, logger: logger}
	}
	return &httpSource{cfg: cfg, fetcher: fetcher, logger: logger}
}

// httpSource scrapes a server-rendered page over plain HTTP.
type httpSource struct {
	cfg     SourceConfig
	fetcher *Fetcher
	logger  zerolog.Logger
}

func (s *httpSource) Name() string { return s.cfg.Name }

func (s *httpSource) Fetch(ctx context.Context) []events.Event {
	doc, err := s.fetcher.FetchDocument(ctx, s.cfg.URL)
	if err != nil {
		s.logger.Warn().Err(err).Str("source", s.cfg.Name).Msg("scraper: fetch failed")
		return nil
	}
	return ExtractEvents(doc, s.cfg)
}

// documentRenderer is the browser-backed fetch behind rendered sources.
// Satisfied by *Renderer.
type documentRenderer interface {
	RenderDocument(ctx context.Context, pageURL, waitFor string) (*goquery.Document, error)
}

// browserSource scrapes a page that only materializes its content after
// script execution.
type browserSource struct {
	cfg      SourceConfig
	renderer documentRenderer
	logger   zerolog.Logger
}

func (s *browserSource) Name() string { return s.cfg.Name }

func (s *browserSource) Fetch(ctx context.Context) []events.Event {
	doc, err := s.renderer.RenderDocument(ctx, s.cfg.URL, s.cfg.WaitFor)
	if err != nil {
		s.logger.Warn().Err(err).Str("source", s.cfg.Name).Msg("scraper: rendered fetch failed")
		return nil
	}
	return ExtractEvents(doc, s.cfg)
}
