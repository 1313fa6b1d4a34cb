package synth

import (
	"strings"
	"testing"
	"time"

	"fsweatherbridge/internal/metar"
	"fsweatherbridge/internal/smoother"
	"fsweatherbridge/internal/wx"
)

func TestSynthesize_FullReport(t *testing.T) {
	now := time.Date(2026, 7, 19, 18, 30, 0, 0, time.UTC)
	cw := smoother.CurrentWeather{Scope: "KJFK", Block: wx.Block{
		Wind:          wx.Wind{Dir: wx.WindDir{Deg: 240}, SpeedKt: 15, GustKt: wx.Known(25)},
		Visibility:    wx.Known(wx.Visibility{SM: 10}),
		WeatherTokens: []string{"-RA"},
		Clouds: []wx.CloudLayer{
			{Coverage: wx.CoverageOvc, BaseFt: 25000},
			{Coverage: wx.CoverageFew, BaseFt: 3000},
		},
		TemperatureC: wx.Known(22),
		DewpointC:    wx.Known(-3),
		QNHhPa:       wx.Known(1013),
	}}

	out := Synthesize(cw, now)

	if !strings.HasPrefix(out, "METAR KJFK 191830Z ") {
		t.Fatalf("header wrong: %q", out)
	}
	if !strings.Contains(out, "24015G25KT") {
		t.Errorf("missing wind field: %q", out)
	}
	if !strings.Contains(out, "10SM") {
		t.Errorf("missing visibility: %q", out)
	}
	if !strings.Contains(out, "-RA") {
		t.Errorf("missing weather token: %q", out)
	}
	if !strings.Contains(out, "FEW030 OVC250") {
		t.Errorf("clouds not ascending by base: %q", out)
	}
	if !strings.Contains(out, "22/M03") {
		t.Errorf("missing temp/dew: %q", out)
	}
	if !strings.Contains(out, "Q1013") {
		t.Errorf("missing QNH: %q", out)
	}
	if len(out) > 255 {
		t.Errorf("output exceeds 255 bytes: %d", len(out))
	}
}

func TestSynthesize_CalmWindAndClearSky(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cw := smoother.CurrentWeather{Scope: "KABC", Block: wx.Block{
		Wind:       wx.Wind{Dir: wx.WindDir{Absent: true}, SpeedKt: 0},
		Visibility: wx.Known(wx.Visibility{SM: 10}),
	}}

	out := Synthesize(cw, now)

	if !strings.Contains(out, "00000KT") {
		t.Errorf("expected calm wind, got %q", out)
	}
	if !strings.Contains(out, "CLR") {
		t.Errorf("expected CLR for empty cloud layers, got %q", out)
	}
}

func TestSynthesize_GlobalScopeUsesGLOB(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cw := smoother.CurrentWeather{Scope: "GLOBAL", Block: wx.Block{Wind: wx.Wind{Dir: wx.WindDir{Absent: true}}}}

	out := Synthesize(cw, now)

	if !strings.HasPrefix(out, "METAR GLOB ") {
		t.Errorf("expected GLOB scope id, got %q", out)
	}
}

func TestBuffer_NullTerminatedAndZeroFilled(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cw := smoother.CurrentWeather{Scope: "KABC", Block: wx.Block{Wind: wx.Wind{Dir: wx.WindDir{Absent: true}}}}

	buf := Buffer(cw, now)
	s := Synthesize(cw, now)

	if buf[len(s)] != 0 {
		t.Errorf("expected null terminator at byte %d", len(s))
	}
	for i := len(s) + 1; i < len(buf); i++ {
		if buf[i] != 0 {
			t.Fatalf("expected zero padding at byte %d, got %d", i, buf[i])
		}
	}
}

func TestSynthesize_RoundTripsThroughParser(t *testing.T) {
	now := time.Date(2026, 7, 19, 12, 0, 0, 0, time.UTC)
	cw := smoother.CurrentWeather{Scope: "KJFK", Block: wx.Block{
		Wind:         wx.Wind{Dir: wx.WindDir{Deg: 90}, SpeedKt: 12},
		Visibility:   wx.Known(wx.Visibility{SM: 10}),
		TemperatureC: wx.Known(18),
		DewpointC:    wx.Known(9),
		QNHhPa:       wx.Known(1016),
	}}

	rendered := Synthesize(cw, now)
	reparsed, err := metar.Parse(rendered, now)
	if err != nil {
		t.Fatalf("re-parsing synthesized METAR failed: %v", err)
	}

	if reparsed.Block.Wind.Dir.Deg != 90 || reparsed.Block.Wind.SpeedKt != 12 {
		t.Errorf("wind round-trip mismatch: %+v", reparsed.Block.Wind)
	}
	qnh, _ := reparsed.Block.QNHhPa.Get()
	if qnh != 1016 {
		t.Errorf("qnh round-trip mismatch: %d", qnh)
	}
}
