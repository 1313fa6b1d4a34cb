// Package combiner implements the METAR/TAF combiner from spec §4.4: it
// merges a station's latest ParsedMetar and ParsedTaf into one
// TargetWeather, never inventing a value neither source reports.
package combiner

import (
	"time"

	"fsweatherbridge/internal/metar"
	"fsweatherbridge/internal/taf"
	"fsweatherbridge/internal/wx"
)

// Mode selects how METAR and TAF data are combined (spec §4.4).
type Mode string

const (
	ModeMetarOnly        Mode = "metar_only"
	ModeMetarTafFallback Mode = "metar_taf_fallback"
	ModeMetarTafAssist   Mode = "metar_taf_assist"
)

// Provenance records which source(s) contributed a TargetWeather.
type Provenance string

const (
	ProvenanceMetarOnly        Provenance = "metar_only"
	ProvenanceTafFallback      Provenance = "taf_fallback"
	ProvenanceForecastAssisted Provenance = "forecast_assisted"
)

// TargetWeather is the fully-resolved desired state for one scope at this
// tick (spec §3).
type TargetWeather struct {
	Scope      string
	Provenance Provenance
	Block      wx.Block
}

// Input bundles everything the combiner needs for one station/tick.
type Input struct {
	Scope          string
	Mode           Mode
	Metar          *metar.Parsed // nil if unavailable
	Taf            *taf.Parsed   // nil if unavailable
	Now            time.Time
	StaleThreshold time.Duration
}

// Combine merges in.Metar and in.Taf into a TargetWeather, or returns
// (nil, false) if both sources are absent — the caller must then skip
// injection for this scope this tick (spec §4.4).
func Combine(in Input) (*TargetWeather, bool) {
	switch in.Mode {
	case ModeMetarOnly:
		return combineMetarOnly(in)
	case ModeMetarTafFallback:
		return combineFallback(in)
	case ModeMetarTafAssist:
		return combineAssist(in)
	default:
		return combineMetarOnly(in)
	}
}

func combineMetarOnly(in Input) (*TargetWeather, bool) {
	if in.Metar == nil {
		return nil, false
	}
	return &TargetWeather{Scope: in.Scope, Provenance: ProvenanceMetarOnly, Block: in.Metar.Block.Clone()}, true
}

func combineFallback(in Input) (*TargetWeather, bool) {
	if in.Metar != nil && metarIsFresh(in.Metar, in.Now, in.StaleThreshold) {
		return &TargetWeather{Scope: in.Scope, Provenance: ProvenanceMetarOnly, Block: in.Metar.Block.Clone()}, true
	}
	if in.Taf != nil {
		block := activeTafBlock(in.Taf, in.Now)
		return &TargetWeather{Scope: in.Scope, Provenance: ProvenanceTafFallback, Block: block.Clone()}, true
	}
	if in.Metar != nil {
		// Stale METAR beats nothing.
		return &TargetWeather{Scope: in.Scope, Provenance: ProvenanceMetarOnly, Block: in.Metar.Block.Clone()}, true
	}
	return nil, false
}

func combineAssist(in Input) (*TargetWeather, bool) {
	if in.Metar == nil && in.Taf == nil {
		return nil, false
	}
	if in.Metar == nil {
		block := activeTafBlock(in.Taf, in.Now)
		return &TargetWeather{Scope: in.Scope, Provenance: ProvenanceTafFallback, Block: block.Clone()}, true
	}

	out := in.Metar.Block.Clone()
	assisted := false
	if in.Taf != nil {
		tafBlock := activeTafBlock(in.Taf, in.Now)

		if !out.Visibility.IsKnown() && tafBlock.Visibility.IsKnown() {
			out.Visibility = tafBlock.Visibility
			assisted = true
		}
		if len(out.Clouds) == 0 && len(tafBlock.Clouds) > 0 {
			out.Clouds = append([]wx.CloudLayer(nil), tafBlock.Clouds...)
			assisted = true
		}
		if len(out.WeatherTokens) == 0 && len(tafBlock.WeatherTokens) > 0 {
			out.WeatherTokens = append([]string(nil), tafBlock.WeatherTokens...)
			assisted = true
		}
		if !out.TemperatureC.IsKnown() && tafBlock.TemperatureC.IsKnown() {
			out.TemperatureC = tafBlock.TemperatureC
			assisted = true
		}
		if !out.DewpointC.IsKnown() && tafBlock.DewpointC.IsKnown() {
			out.DewpointC = tafBlock.DewpointC
			assisted = true
		}
		if !out.QNHhPa.IsKnown() && tafBlock.QNHhPa.IsKnown() {
			out.QNHhPa = tafBlock.QNHhPa
			assisted = true
		}
		// Wind is taken as a triple: only fall back to TAF wind wholesale
		// when METAR reports no wind at all (direction absent and calm).
		if out.Wind.Dir.Absent && out.Wind.SpeedKt == 0 && !tafBlock.Wind.Dir.Absent {
			out.Wind = tafBlock.Wind
			assisted = true
		}
	}

	prov := ProvenanceMetarOnly
	if assisted {
		prov = ProvenanceForecastAssisted
	}
	return &TargetWeather{Scope: in.Scope, Provenance: prov, Block: out}, true
}

func metarIsFresh(m *metar.Parsed, now time.Time, staleThreshold time.Duration) bool {
	issued, ok := m.IssuedAt.Get()
	if !ok {
		return false
	}
	return now.Sub(issued) <= staleThreshold
}

// activeTafBlock resolves the weather block that applies at "now": the
// active forecast group if one covers it, else the prevailing block
// (spec §4.4).
func activeTafBlock(t *taf.Parsed, now time.Time) wx.Block {
	if g, ok := t.ActiveGroup(now); ok {
		return g.Block
	}
	return t.Prevailing
}
