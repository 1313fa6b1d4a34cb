package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"fsweatherbridge/internal/combiner"
	"fsweatherbridge/internal/smoother"
	"fsweatherbridge/internal/station"
	"fsweatherbridge/internal/wx"
)

type fakeSource struct {
	state wx.AircraftState
	err   error
}

func (f *fakeSource) FetchState(ctx context.Context) (wx.AircraftState, error) {
	return f.state, f.err
}

type fakeFetch struct {
	metars map[string]RawReport
	tafs   map[string]RawReport
}

func (f *fakeFetch) FetchMetar(ctx context.Context, icaos []string) (map[string]RawReport, error) {
	out := make(map[string]RawReport)
	for _, icao := range icaos {
		if r, ok := f.metars[icao]; ok {
			out[icao] = r
		}
	}
	return out, nil
}

func (f *fakeFetch) FetchTaf(ctx context.Context, icaos []string) (map[string]RawReport, error) {
	return nil, nil
}

type fakeSink struct {
	mu      sync.Mutex
	written map[string][256]byte
}

func newFakeSink() *fakeSink { return &fakeSink{written: make(map[string][256]byte)} }

func (f *fakeSink) Inject(ctx context.Context, scope string, buf [256]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written[scope] = buf
	return nil
}

func testSelector() *station.Selector {
	reg := station.NewRegistry([]station.Station{
		{ICAO: "KJFK", LatDeg: 40.639751, LonDeg: -73.778925},
	})
	return station.NewSelector(reg, station.SelectorConfig{RadiusNM: 50, MaxStations: 5})
}

func TestOrchestrator_TickWritesOnChange(t *testing.T) {
	src := &fakeSource{state: wx.AircraftState{LatDeg: 40.639751, LonDeg: -73.778925, AltitudeFt: 35000}}
	fetch := &fakeFetch{metars: map[string]RawReport{
		"KJFK": {Text: "KJFK 010000Z 24010KT 10SM CLR 20/10 Q1013", IssuedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}}
	sink := newFakeSink()

	o := New(
		Config{CombiningMode: combiner.ModeMetarOnly, StaleThreshold: time.Hour, TickInterval: time.Second, FetchTimeout: 5 * time.Second},
		testSelector(), smoother.DefaultConfig(), src, fetch, sink,
	)

	now := time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC)
	if err := o.tick(context.Background(), now, 1); err != nil {
		t.Fatalf("tick returned error: %v", err)
	}

	sink.mu.Lock()
	_, wrote := sink.written["KJFK"]
	sink.mu.Unlock()
	if !wrote {
		t.Errorf("expected a write to KJFK on first tick (init always changes)")
	}
}

func TestOrchestrator_SkipsTickWhenAircraftUnavailable(t *testing.T) {
	src := &fakeSource{err: ErrUnavailable}
	fetch := &fakeFetch{}
	sink := newFakeSink()

	o := New(
		Config{CombiningMode: combiner.ModeMetarOnly, StaleThreshold: time.Hour, TickInterval: time.Second, FetchTimeout: 5 * time.Second},
		testSelector(), smoother.DefaultConfig(), src, fetch, sink,
	)

	if err := o.tick(context.Background(), time.Now(), 1); err != nil {
		t.Fatalf("tick should not error on unavailable aircraft state: %v", err)
	}
	if len(sink.written) != 0 {
		t.Errorf("expected no writes when aircraft state is unavailable")
	}
}

func TestOrchestrator_DropsSmootherForDeselectedScope(t *testing.T) {
	src := &fakeSource{state: wx.AircraftState{LatDeg: 40.639751, LonDeg: -73.778925, AltitudeFt: 35000}}
	fetch := &fakeFetch{metars: map[string]RawReport{
		"KJFK": {Text: "KJFK 010000Z 24010KT 10SM CLR 20/10 Q1013", IssuedAt: time.Now()},
	}}
	sink := newFakeSink()
	o := New(
		Config{CombiningMode: combiner.ModeMetarOnly, StaleThreshold: time.Hour, TickInterval: time.Second, FetchTimeout: 5 * time.Second},
		testSelector(), smoother.DefaultConfig(), src, fetch, sink,
	)

	_ = o.tick(context.Background(), time.Now(), 1)
	if _, ok := o.smoothers["KJFK"]; !ok {
		t.Fatalf("expected a smoother for KJFK after first tick")
	}

	o.selector = station.NewSelector(station.NewRegistry(nil), station.SelectorConfig{RadiusNM: 50, MaxStations: 5, FallbackToGlobal: false})
	_ = o.tick(context.Background(), time.Now(), 1)

	if _, ok := o.smoothers["KJFK"]; ok {
		t.Errorf("expected KJFK smoother to be dropped once deselected")
	}
}
