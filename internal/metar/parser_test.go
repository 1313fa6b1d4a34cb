package metar

import (
	"testing"
	"time"
)

func TestParse_CAVOK(t *testing.T) {
	now := time.Date(2026, 7, 19, 12, 5, 0, 0, time.UTC)
	p, err := Parse("METAR EGLL 191200Z 24010KT CAVOK 15/10 Q1020", now)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if p.ICAO != "EGLL" {
		t.Errorf("ICAO = %q, want EGLL", p.ICAO)
	}
	if p.Block.Wind.Dir.Deg != 240 || p.Block.Wind.SpeedKt != 10 {
		t.Errorf("wind = %+v, want 240/10", p.Block.Wind)
	}
	vis, ok := p.Block.Visibility.Get()
	if !ok || vis.SM != 10.0 {
		t.Errorf("visibility = %+v known=%v, want 10.0", vis, ok)
	}
	if len(p.Block.Clouds) != 0 {
		t.Errorf("clouds = %+v, want none", p.Block.Clouds)
	}
	if len(p.Block.WeatherTokens) != 0 {
		t.Errorf("weather tokens = %+v, want none", p.Block.WeatherTokens)
	}
	temp, _ := p.Block.TemperatureC.Get()
	dew, _ := p.Block.DewpointC.Get()
	if temp != 15 || dew != 10 {
		t.Errorf("temp/dew = %d/%d, want 15/10", temp, dew)
	}
	qnh, _ := p.Block.QNHhPa.Get()
	if qnh != 1020 {
		t.Errorf("qnh = %d, want 1020", qnh)
	}
}

func TestParse_FullReport(t *testing.T) {
	now := time.Date(2026, 7, 19, 12, 5, 0, 0, time.UTC)
	p, err := Parse("KJFK 191151Z 24015G25KT 10SM FEW030 SCT100 BKN250 22/12 A3002", now)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if p.ICAO != "KJFK" {
		t.Fatalf("ICAO = %q", p.ICAO)
	}
	if p.Block.Wind.Dir.Deg != 240 || p.Block.Wind.SpeedKt != 15 {
		t.Errorf("wind = %+v", p.Block.Wind)
	}
	gust, ok := p.Block.Wind.GustKt.Get()
	if !ok || gust != 25 {
		t.Errorf("gust = %d known=%v, want 25", gust, ok)
	}
	vis, _ := p.Block.Visibility.Get()
	if vis.SM != 10.0 {
		t.Errorf("visibility = %v, want 10", vis)
	}
	if len(p.Block.Clouds) != 3 {
		t.Fatalf("clouds = %+v, want 3 layers", p.Block.Clouds)
	}
	if p.Block.Clouds[0].BaseFt != 3000 || p.Block.Clouds[2].BaseFt != 25000 {
		t.Errorf("cloud bases = %+v", p.Block.Clouds)
	}
	qnh, _ := p.Block.QNHhPa.Get()
	if qnh != 1017 {
		t.Errorf("qnh from A3002 = %d, want 1017", qnh)
	}
}

func TestParse_VariableWindAndCalm(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p, err := Parse("KABC 010000Z VRB02KT 1/2SM RA BKN005 05/04 Q1013", now)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !p.Block.Wind.Dir.Variable {
		t.Errorf("expected variable wind direction")
	}
	vis, _ := p.Block.Visibility.Get()
	if vis.SM != 0.5 {
		t.Errorf("visibility = %v, want 0.5", vis)
	}
	if len(p.Block.WeatherTokens) != 1 || p.Block.WeatherTokens[0] != "RA" {
		t.Errorf("weather tokens = %v, want [RA]", p.Block.WeatherTokens)
	}

	p2, err := Parse("KABC 010000Z 00000KT 9999 NSC 10/09 Q1013", now)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !p2.Block.Wind.Dir.Absent || p2.Block.Wind.SpeedKt != 0 {
		t.Errorf("expected calm wind, got %+v", p2.Block.Wind)
	}
}

func TestParse_GustBelowSpeedDropped(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// A reported gust below the sustained speed is dropped rather than kept
	// (spec §3).
	p, err := Parse("KABC 010000Z 09020G18KT 10SM CLR 20/10 Q1013", now)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if p.Block.Wind.GustKt.IsKnown() {
		t.Errorf("expected gust to be dropped when below sustained speed, got %+v", p.Block.Wind.GustKt)
	}
}

func TestParse_MissingPressureStaysAbsent(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p, err := Parse("KABC 010000Z 09010KT 10SM CLR 20/10", now)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if p.Block.QNHhPa.IsKnown() {
		t.Errorf("expected qnh absent, got known")
	}
}
