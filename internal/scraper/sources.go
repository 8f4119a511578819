package scraper

import (
	"github.com/rs/zerolog"

	"github.com/brooklyn-events/aggregator/internal/domain/events"
)

// builtinConfigs are the sources the aggregator ships with, in the order their
// results appear in the feed. A YAML config directory overrides this list.
func builtinConfigs() []SourceConfig {
	return []SourceConfig{
		{
			Name:      "brooklyn_paper",
			URL:       "https://www.brooklynpaper.com/events/",
			Type:      events.TypeArt,
			Enabled:   true,
			MaxEvents: 5,
		},
		{
			Name:      "brooklyn_library",
			URL:       "https://www.bklynlibrary.org/calendar/",
			Type:      events.TypeFamily,
			Enabled:   true,
			MaxEvents: 5,
		},
		{
			Name:      "eventbrite",
			URL:       "https://www.eventbrite.com/d/ny--brooklyn/events/",
			Type:      events.TypeMusic,
			Enabled:   true,
			Rendered:  true,
			WaitFor:   "[class*=event-card]",
			MaxEvents: 5,
		},
		{
			Name:      "wagmag",
			URL:       "https://wagmag.org/",
			Type:      events.TypeArt,
			Enabled:   true,
			MaxEvents: 5,
		},
		{
			Name:      "mommy_poppins",
			URL:       "https://mommypoppins.com/new-york-city-kids/event-calendar",
			Type:      events.TypeFamily,
			Enabled:   true,
			Rendered:  true,
			WaitFor:   "[class*=event]",
			MaxEvents: 5,
		},
		{
			Name:      "macaroni_kid",
			URL:       "https://parkslope.macaronikid.com/events",
			Type:      events.TypeFamily,
			Enabled:   true,
			Rendered:  true,
			MaxEvents: 5,
		},
	}
}

// ResolveConfigs loads source configs from dir, falling back to the builtin
// list when the directory is missing or empty.
func ResolveConfigs(dir string) ([]SourceConfig, error) {
	configs, err := LoadSourceConfigs(dir)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		configs = builtinConfigs()
	}
	return configs, nil
}

// BuildSources constructs an adapter per enabled config, preserving config
// order.
func BuildSources(dir string, fetcher *Fetcher, renderer *Renderer, logger zerolog.Logger) ([]Source, error) {
	configs, err := ResolveConfigs(dir)
	if err != nil {
		return nil, err
	}

	var sources []Source
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		sources = append(sources, NewSource(cfg, fetcher, renderer, logger))
	}
	return sources, nil
}
