package station

import "fmt"

// Registry is an immutable ICAO-keyed station set (spec §4.3). A linear
// scan is acceptable per the spec's own ≤60k-station ceiling; no spatial
// index is built.
type Registry struct {
	byICAO   map[string]Station
	stations []Station
}

// NewRegistry builds a Registry from a flat station list. Duplicate ICAOs
// keep the last entry encountered.
func NewRegistry(stations []Station) *Registry {
	r := &Registry{
		byICAO:   make(map[string]Station, len(stations)),
		stations: make([]Station, 0, len(stations)),
	}
	index := make(map[string]int, len(stations))
	for _, s := range stations {
		if i, exists := index[s.ICAO]; exists {
			r.stations[i] = s
		} else {
			index[s.ICAO] = len(r.stations)
			r.stations = append(r.stations, s)
		}
		r.byICAO[s.ICAO] = s
	}
	return r
}

// Lookup returns the station for an ICAO identifier.
func (r *Registry) Lookup(icao string) (Station, bool) {
	s, ok := r.byICAO[icao]
	return s, ok
}

// All returns every registered station. The slice is owned by the registry
// and must not be mutated by callers.
func (r *Registry) All() []Station {
	return r.stations
}

// Len reports how many stations are registered.
func (r *Registry) Len() int {
	return len(r.stations)
}

// Merge returns a new Registry combining r with extra, with extra's entries
// winning on ICAO collision. Used to layer an external sqlite dataset over
// the embedded default set.
func (r *Registry) Merge(extra *Registry) *Registry {
	combined := make([]Station, 0, len(r.stations)+extra.Len())
	combined = append(combined, r.stations...)
	combined = append(combined, extra.All()...)
	return NewRegistry(combined)
}

func (r *Registry) String() string {
	return fmt.Sprintf("station.Registry{%d stations}", len(r.stations))
}
