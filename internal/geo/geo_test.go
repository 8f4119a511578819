package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocodeKnownNeighborhoods(t *testing.T) {
	g := NewGeocoder(DefaultConfig())

	tests := []struct {
		name     string
		location string
		want     Coordinate
	}{
		{
			name:     "exact neighborhood name",
			location: "Williamsburg",
			want:     Coordinate{40.7081, -73.9571},
		},
		{
			name:     "keyword embedded in address",
			location: "Something happening near Prospect Park, Brooklyn, NY",
			want:     Coordinate{40.6627, -73.9700},
		},
		{
			name:     "case insensitive",
			location: "RED HOOK WATERFRONT",
			want:     Coordinate{40.6773, -74.0106},
		},
		{
			name:     "landmark name",
			location: "200 Eastern Pkwy (Brooklyn Museum)",
			want:     Coordinate{40.6712, -73.9642},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Geocode(tt.location))
		})
	}
}

func TestGeocodeFallsBackToAnchor(t *testing.T) {
	g := NewGeocoder(DefaultConfig())

	got := g.Geocode("1600 Pennsylvania Ave, Washington DC")
	assert.Equal(t, g.Anchor(), got)

	// Empty input is not an error either.
	assert.Equal(t, g.Anchor(), g.Geocode(""))
}

func TestGeocodeIsDeterministic(t *testing.T) {
	g := NewGeocoder(DefaultConfig())

	first := g.Geocode("prospect park near prospect heights")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, g.Geocode("prospect park near prospect heights"))
	}

	// "prospect park" precedes "prospect heights" in the table, so it wins
	// even though both keywords are present.
	assert.Equal(t, Coordinate{40.6627, -73.9700}, first)
}

func TestGeocodeMatchOrderIsInsertionOrder(t *testing.T) {
	cfg := Config{
		Anchor: Coordinate{0, 0},
		Gazetteer: []Entry{
			{Keyword: "park", Coord: Coordinate{1, 1}},
			{Keyword: "park slope", Coord: Coordinate{2, 2}},
		},
	}
	g := NewGeocoder(cfg)

	// The shorter keyword is listed first, so it shadows the longer one.
	assert.Equal(t, Coordinate{1, 1}, g.Geocode("park slope"))
}

func TestDistanceSymmetric(t *testing.T) {
	pairs := []struct {
		a, b Coordinate
	}{
		{Coordinate{40.6782, -73.9712}, Coordinate{40.7081, -73.9571}},
		{Coordinate{40.6627, -73.9700}, Coordinate{40.6773, -74.0106}},
		{Coordinate{0, 0}, Coordinate{-45.0, 170.0}},
		{Coordinate{89.9, 10}, Coordinate{-89.9, -10}},
	}

	for _, p := range pairs {
		assert.InDelta(t, Distance(p.a, p.b), Distance(p.b, p.a), 1e-9)
	}
}

func TestDistanceZeroForIdenticalPoints(t *testing.T) {
	points := []Coordinate{
		{40.6782, -73.9712},
		{0, 0},
		{-33.8688, 151.2093},
	}
	for _, p := range points {
		assert.InDelta(t, 0, Distance(p, p), 1e-9)
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// Prospect Heights to Williamsburg is roughly 2.2 miles.
	d := Distance(Coordinate{40.6782, -73.9712}, Coordinate{40.7081, -73.9571})
	require.Greater(t, d, 2.0)
	require.Less(t, d, 2.5)
}
