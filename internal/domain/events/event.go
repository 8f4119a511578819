// Package events defines the normalized event model shared by the scraper,
// persistence, and query layers.
package events

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Well-known event types. Type is an open tag: adapters may assign values
// outside this list and the store treats them opaquely.
const (
	TypeArt    = "art"
	TypeMusic  = "music"
	TypeFamily = "family"
)

// Event is one normalized listing. Date is nil when the source never exposed
// a parseable date; such events are excluded from date-filtered queries and
// never pruned (unknown age).
type Event struct {
	ID          int64
	Title       string
	Description string
	Date        *time.Time
	Location    string
	Latitude    *float64
	Longitude   *float64
	Distance    *float64
	Type        string
	URL         string
	Source      string
	SourceID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasCoordinates reports whether both latitude and longitude are set.
func (e *Event) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// SynthesizeSourceID derives a stable per-source identifier from title and
// date for sources that expose no identifier of their own. Title casing and
// surrounding whitespace are normalized so cosmetic markup changes between
// runs keep producing the same id; substantive title edits still produce a
// new id and hence a new row.
func SynthesizeSourceID(title string, date *time.Time) string {
	normalized := strings.ToLower(strings.TrimSpace(title))
	when := ""
	if date != nil {
		when = date.UTC().Format(time.RFC3339)
	}
	sum := sha256.Sum256([]byte(normalized + "|" + when))
	return hex.EncodeToString(sum[:8])
}

// WireMap returns the JSON-compatible external representation of the event.
// The system-managed created_at/updated_at columns are not exposed.
func (e *Event) WireMap() map[string]any {
	m := map[string]any{
		"id":          e.ID,
		"title":       e.Title,
		"description": e.Description,
		"location":    e.Location,
		"type":        e.Type,
		"url":         e.URL,
		"source":      e.Source,
		"source_id":   e.SourceID,
	}

	if e.Date != nil {
		m["date"] = e.Date.UTC().Format(time.RFC3339)
	} else {
		m["date"] = nil
	}

	if e.HasCoordinates() {
		m["latitude"] = *e.Latitude
		m["longitude"] = *e.Longitude
	} else {
		m["latitude"] = nil
		m["longitude"] = nil
	}

	if e.Distance != nil {
		m["distance"] = *e.Distance
	} else {
		m["distance"] = nil
	}

	return m
}
