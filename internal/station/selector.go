package station

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"fsweatherbridge/internal/conv"
)

// SelectorConfig mirrors the selector knobs from spec §6: how far to look,
// how many stations to keep, and what to do when none qualify.
type SelectorConfig struct {
	RadiusNM         float64
	MaxStations      int
	FallbackToGlobal bool
}

// Selector picks the stations a tick should fetch weather for, given the
// aircraft's current position (spec §4.3).
type Selector struct {
	registry *Registry
	cfg      SelectorConfig
}

func NewSelector(registry *Registry, cfg SelectorConfig) *Selector {
	return &Selector{registry: registry, cfg: cfg}
}

// Candidate is one selected station with its great-circle distance from the
// query position, in nautical miles.
type Candidate struct {
	Station    Station
	DistanceNM float64
}

// Select returns up to MaxStations candidates within RadiusNM of
// (latDeg,lonDeg), nearest first, ties broken by ICAO lexicographic order.
// If none qualify and FallbackToGlobal is set, it returns a single
// candidate for the synthetic GlobalScope with DistanceNM unset (0); the
// caller (orchestrator) must special-case ICAO == GlobalScope rather than
// resolve it via the registry.
func (s *Selector) Select(latDeg, lonDeg float64) []Candidate {
	origin := orb.Point{lonDeg, latDeg}

	all := s.registry.All()
	candidates := make([]Candidate, 0, len(all))
	for _, st := range all {
		metersAway := geo.Distance(origin, orb.Point{st.LonDeg, st.LatDeg})
		// geo.Distance works on a sphere of radius orb.EarthRadius; rescale
		// the central angle onto the EarthRadiusNM sphere.
		nm := metersAway / orb.EarthRadius * conv.EarthRadiusNM
		if nm <= s.cfg.RadiusNM {
			candidates = append(candidates, Candidate{Station: st, DistanceNM: nm})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceNM != candidates[j].DistanceNM {
			return candidates[i].DistanceNM < candidates[j].DistanceNM
		}
		return candidates[i].Station.ICAO < candidates[j].Station.ICAO
	})

	if len(candidates) == 0 {
		if s.cfg.FallbackToGlobal {
			return []Candidate{{Station: Station{ICAO: GlobalScope}}}
		}
		return nil
	}

	max := s.cfg.MaxStations
	if max <= 0 || max > len(candidates) {
		max = len(candidates)
	}
	return candidates[:max]
}
