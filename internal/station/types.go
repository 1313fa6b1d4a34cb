// Package station implements the station registry and selector from spec
// §4.3: an immutable ICAO-keyed set of stations with geographic coordinates,
// answering nearest-K-within-radius queries for the orchestrator's tick.
package station

// Station is a single weather station: a 4-letter ICAO identifier, its
// coordinates, and optional metadata. Once registered into a Registry a
// Station is never mutated.
type Station struct {
	ICAO    string
	Name    string
	LatDeg  float64
	LonDeg  float64
	ElevFt  int
	HasElev bool
}

// GlobalScope is the synthetic scope returned by the selector when no
// station qualifies within radius and fallback is enabled (spec §4.3).
const GlobalScope = "GLOBAL"
