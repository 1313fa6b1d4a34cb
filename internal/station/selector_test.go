package station

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	return NewRegistry([]Station{
		{ICAO: "KJFK", LatDeg: 40.639751, LonDeg: -73.778925},
		{ICAO: "KLGA", LatDeg: 40.777245, LonDeg: -73.872608},
		{ICAO: "KEWR", LatDeg: 40.6925, LonDeg: -74.168667},
		{ICAO: "KLAX", LatDeg: 33.942536, LonDeg: -118.408075},
	})
}

func TestSelector_NearestWithinRadius(t *testing.T) {
	reg := testRegistry()
	sel := NewSelector(reg, SelectorConfig{RadiusNM: 30, MaxStations: 5})

	candidates := sel.Select(40.639751, -73.778925)

	require.NotEmpty(t, candidates)
	assert.Equal(t, "KJFK", candidates[0].Station.ICAO)
	assert.InDelta(t, 0.0, candidates[0].DistanceNM, 0.01)
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i].DistanceNM, candidates[i-1].DistanceNM)
	}
	for _, c := range candidates {
		assert.NotEqual(t, "KLAX", c.Station.ICAO, "KLAX is far outside radius")
	}
}

func TestSelector_MaxStationsTruncates(t *testing.T) {
	reg := testRegistry()
	sel := NewSelector(reg, SelectorConfig{RadiusNM: 5000, MaxStations: 2})

	candidates := sel.Select(40.639751, -73.778925)

	assert.Len(t, candidates, 2)
}

func TestSelector_FallbackToGlobal(t *testing.T) {
	reg := testRegistry()
	sel := NewSelector(reg, SelectorConfig{RadiusNM: 1, MaxStations: 5, FallbackToGlobal: true})

	candidates := sel.Select(-33.946111, 151.177222) // Sydney: nothing in range

	require.Len(t, candidates, 1)
	assert.Equal(t, GlobalScope, candidates[0].Station.ICAO)
}

func TestSelector_EmptyWithoutFallback(t *testing.T) {
	reg := testRegistry()
	sel := NewSelector(reg, SelectorConfig{RadiusNM: 1, MaxStations: 5, FallbackToGlobal: false})

	candidates := sel.Select(-33.946111, 151.177222)

	assert.Empty(t, candidates)
}

func TestSelector_TieBreaksByICAO(t *testing.T) {
	reg := NewRegistry([]Station{
		{ICAO: "KBBB", LatDeg: 10, LonDeg: 10},
		{ICAO: "KAAA", LatDeg: 10, LonDeg: 10},
	})
	sel := NewSelector(reg, SelectorConfig{RadiusNM: 100, MaxStations: 5})

	candidates := sel.Select(10, 10)

	require.Len(t, candidates, 2)
	assert.Equal(t, "KAAA", candidates[0].Station.ICAO)
	assert.Equal(t, "KBBB", candidates[1].Station.ICAO)
}

func TestRegistry_Merge(t *testing.T) {
	base := NewRegistry([]Station{{ICAO: "KJFK", Name: "old"}})
	extra := NewRegistry([]Station{{ICAO: "KJFK", Name: "new"}, {ICAO: "KLAX", Name: "lax"}})

	merged := base.Merge(extra)

	s, ok := merged.Lookup("KJFK")
	require.True(t, ok)
	assert.Equal(t, "new", s.Name)
	assert.Equal(t, 2, merged.Len())
}
