package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brooklyn-events/aggregator/internal/domain/events"
)

// SourceConfig defines a scrape source loaded from a YAML config file.
type SourceConfig struct {
	Name      string `yaml:"name"`
	URL       string `yaml:"url"`
	Type      string `yaml:"type"`
	Enabled   bool   `yaml:"enabled"`
	Rendered  bool   `yaml:"rendered"`
	WaitFor   string `yaml:"wait_for,omitempty"`
	MaxEvents int    `yaml:"max_events"`
	Notes     string `yaml:"notes,omitempty"`
}

// DefaultSourceConfig returns a SourceConfig with defaults applied.
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		Enabled:   true,
		Type:      events.TypeArt,
		MaxEvents: 5,
	}
}

// ValidateConfig validates a SourceConfig and returns an error describing all
// problems found, or nil if the config is valid.
func ValidateConfig(cfg SourceConfig) error {
	var errs []string

	if strings.TrimSpace(cfg.Name) == "" {
		errs = append(errs, "name: required")
	}

	if strings.TrimSpace(cfg.URL) == "" {
		errs = append(errs, "url: required")
	} else {
		u, err := url.Parse(cfg.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("url: must be a valid http/https URL, got %q", cfg.URL))
		}
	}

	switch cfg.Type {
	case events.TypeArt, events.TypeMusic, events.TypeFamily:
		// valid
	default:
		errs = append(errs, fmt.Sprintf("type: must be art, music, or family, got %q", cfg.Type))
	}

	if cfg.WaitFor != "" && !cfg.Rendered {
		errs = append(errs, "wait_for: only valid for rendered sources")
	}

	if cfg.MaxEvents < 0 {
		errs = append(errs, fmt.Sprintf("max_events: must be > 0, got %d", cfg.MaxEvents))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// LoadSourceConfigs reads all *.yaml files from dir (skipping files starting
// with "_"), parses each into a SourceConfig with defaults applied, validates
// each config, and returns the slice of valid configs. If any config is
// invalid an error is returned that includes the file path and field errors.
// A non-existent directory returns an empty slice with no error.
func LoadSourceConfigs(dir string) ([]SourceConfig, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []SourceConfig{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source config dir %s: %w", dir, err)
	}

	var configs []SourceConfig
	var validationErrors []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "_") {
			continue
		}
		if filepath.Ext(name) != ".yaml" {
			continue
		}

		filePath := filepath.Join(dir, name)
		cfg, err := loadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", filePath, err)
		}

		if err := ValidateConfig(cfg); err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("%s: %s", filePath, err.Error()))
			continue
		}
		configs = append(configs, cfg)
	}

	if len(validationErrors) > 0 {
		return configs, fmt.Errorf("invalid source configs:\n  %s", strings.Join(validationErrors, "\n  "))
	}
	return configs, nil
}

// loadFile reads a single YAML source config file and applies defaults.
func loadFile(path string) (SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SourceConfig{}, err
	}

	// Start from defaults so zero-value booleans and ints are set properly.
	cfg := DefaultSourceConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SourceConfig{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if cfg.MaxEvents == 0 {
		cfg.MaxEvents = 5
	}

	return cfg, nil
}
