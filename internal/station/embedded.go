package station

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed assets/stations.json
var embeddedAssets embed.FS

type embeddedStation struct {
	ICAO   string  `json:"icao"`
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	ElevFt int     `json:"elev_ft"`
}

// LoadEmbedded parses the bundled reference station list into a Registry.
// It is the default source when no external sqlite dataset is configured
// (spec §4.3 calls for ≤60k stations served from an in-memory set).
func LoadEmbedded() (*Registry, error) {
	raw, err := embeddedAssets.ReadFile("assets/stations.json")
	if err != nil {
		return nil, fmt.Errorf("station: read embedded assets: %w", err)
	}
	var rows []embeddedStation
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("station: parse embedded assets: %w", err)
	}
	stations := make([]Station, 0, len(rows))
	for _, r := range rows {
		stations = append(stations, Station{
			ICAO:    r.ICAO,
			Name:    r.Name,
			LatDeg:  r.Lat,
			LonDeg:  r.Lon,
			ElevFt:  r.ElevFt,
			HasElev: true,
		})
	}
	return NewRegistry(stations), nil
}
