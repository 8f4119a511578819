// Package geo provides the approximate geocoding and distance primitives used
// to annotate scraped events with proximity to a fixed anchor point.
package geo

import (
	"math"
	"strings"
)

// earthRadiusMiles is the Earth radius used by the haversine formula.
const earthRadiusMiles = 3959

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

// Entry maps a place-name keyword to its approximate coordinate. Keywords are
// matched case-insensitively as substrings of free-text locations.
type Entry struct {
	Keyword string
	Coord   Coordinate
}

// Config holds the gazetteer table and the anchor coordinate returned when no
// keyword matches. Entry order is significant: the first matching keyword wins.
type Config struct {
	Anchor    Coordinate
	Gazetteer []Entry
}

// DefaultConfig returns the Brooklyn gazetteer with Prospect Heights as the
// anchor point.
func DefaultConfig() Config {
	return Config{
		Anchor: Coordinate{Lat: 40.6782, Lng: -73.9712},
		Gazetteer: []Entry{
			{Keyword: "prospect park", Coord: Coordinate{40.6627, -73.9700}},
			{Keyword: "williamsburg", Coord: Coordinate{40.7081, -73.9571}},
			{Keyword: "park slope", Coord: Coordinate{40.6782, -73.9840}},
			{Keyword: "prospect heights", Coord: Coordinate{40.6782, -73.9712}},
			{Keyword: "brooklyn museum", Coord: Coordinate{40.6712, -73.9642}},
			{Keyword: "brooklyn children's museum", Coord: Coordinate{40.6694, -73.9479}},
			{Keyword: "brooklyn bridge park", Coord: Coordinate{40.6981, -73.9969}},
			{Keyword: "red hook", Coord: Coordinate{40.6773, -74.0106}},
			{Keyword: "flatbush", Coord: Coordinate{40.6529, -73.9497}},
			{Keyword: "gowanus", Coord: Coordinate{40.6779, -73.9897}},
			{Keyword: "fort greene", Coord: Coordinate{40.6915, -73.9759}},
			{Keyword: "crown heights", Coord: Coordinate{40.6697, -73.9442}},
			{Keyword: "dumbo", Coord: Coordinate{40.7033, -73.9878}},
			{Keyword: "carroll gardens", Coord: Coordinate{40.6795, -73.9996}},
			{Keyword: "boerum hill", Coord: Coordinate{40.6865, -73.9807}},
		},
	}
}

// Geocoder resolves free-text locations against a fixed gazetteer. It is a
// deliberately coarse, dependency-free placeholder for a real geocoding
// service: good enough for indicative proximity, nothing more.
type Geocoder struct {
	cfg Config
}

// NewGeocoder constructs a Geocoder from the given config.
func NewGeocoder(cfg Config) *Geocoder {
	return &Geocoder{cfg: cfg}
}

// Geocode returns the coordinate for the first gazetteer keyword found in
// locationText (case-insensitive substring match, insertion order). When no
// keyword matches it returns the anchor coordinate. Geocode never fails.
func (g *Geocoder) Geocode(locationText string) Coordinate {
	coord, _ := g.Resolve(locationText)
	return coord
}

// Resolve is Geocode plus a flag reporting whether a gazetteer keyword matched
// or the anchor fallback was used.
func (g *Geocoder) Resolve(locationText string) (Coordinate, bool) {
	lower := strings.ToLower(locationText)
	for _, e := range g.cfg.Gazetteer {
		if strings.Contains(lower, e.Keyword) {
			return e.Coord, true
		}
	}
	return g.cfg.Anchor, false
}

// Anchor returns the configured anchor coordinate.
func (g *Geocoder) Anchor() Coordinate {
	return g.cfg.Anchor
}

// Distance returns the great-circle distance in miles between a and b using
// the haversine formula.
func Distance(a, b Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMiles * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
