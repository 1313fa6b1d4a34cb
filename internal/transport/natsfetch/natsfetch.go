// Package natsfetch is a reference NATS-backed implementation of the
// engine's FetchProvider and AircraftStateSource interfaces (spec §6). The
// teacher's go.mod already carried github.com/nats-io/nats.go as a
// dependency; this package is where it finally gets exercised, as a
// request/reply bridge to whatever upstream weather/telemetry service
// publishes on the well-known subjects below.
package natsfetch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"fsweatherbridge/internal/engine"
	"fsweatherbridge/internal/wx"
)

const (
	subjectFetchMetar    = "weather.metar.fetch"
	subjectFetchTaf      = "weather.taf.fetch"
	subjectAircraftState = "aircraft.state"
)

// Provider implements engine.FetchProvider and engine.AircraftStateSource
// over a NATS connection using request/reply per tick.
type Provider struct {
	nc      *nats.Conn
	timeout time.Duration
}

// Connect dials the NATS server at url and returns a ready Provider.
func Connect(url string, timeout time.Duration) (*Provider, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("natsfetch: connect: %w", err)
	}
	return &Provider{nc: nc, timeout: timeout}, nil
}

func (p *Provider) Close() {
	p.nc.Close()
}

type fetchRequest struct {
	ICAOs []string `json:"icaos"`
}

type rawReportWire struct {
	Text     string    `json:"text"`
	IssuedAt time.Time `json:"issued_at"`
}

func (p *Provider) fetch(ctx context.Context, subject string, icaos []string) (map[string]engine.RawReport, error) {
	if len(icaos) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(fetchRequest{ICAOs: icaos})
	if err != nil {
		return nil, fmt.Errorf("natsfetch: marshal request: %w", err)
	}

	msg, err := p.nc.RequestWithContext(ctx, subject, body)
	if err != nil {
		return nil, fmt.Errorf("natsfetch: request %s: %w", subject, err)
	}

	var wire map[string]rawReportWire
	if err := json.Unmarshal(msg.Data, &wire); err != nil {
		return nil, fmt.Errorf("natsfetch: unmarshal reply from %s: %w", subject, err)
	}

	out := make(map[string]engine.RawReport, len(wire))
	for icao, r := range wire {
		out[icao] = engine.RawReport{Text: r.Text, IssuedAt: r.IssuedAt}
	}
	return out, nil
}

// FetchMetar implements engine.FetchProvider.
func (p *Provider) FetchMetar(ctx context.Context, icaos []string) (map[string]engine.RawReport, error) {
	return p.fetch(ctx, subjectFetchMetar, icaos)
}

// FetchTaf implements engine.FetchProvider.
func (p *Provider) FetchTaf(ctx context.Context, icaos []string) (map[string]engine.RawReport, error) {
	return p.fetch(ctx, subjectFetchTaf, icaos)
}

type aircraftStateWire struct {
	LatDeg        float64 `json:"lat_deg"`
	LonDeg        float64 `json:"lon_deg"`
	AltitudeFt    float64 `json:"altitude_ft"`
	GroundSpeedKt float64 `json:"ground_speed_kt"`
	HeadingDeg    float64 `json:"heading_deg"`
	OnGround      bool    `json:"on_ground"`
}

// FetchState implements engine.AircraftStateSource by requesting the
// latest snapshot on the aircraft.state subject.
func (p *Provider) FetchState(ctx context.Context) (wx.AircraftState, error) {
	msg, err := p.nc.RequestWithContext(ctx, subjectAircraftState, nil)
	if err != nil {
		return wx.AircraftState{}, fmt.Errorf("natsfetch: request aircraft state: %w", err)
	}
	var w aircraftStateWire
	if err := json.Unmarshal(msg.Data, &w); err != nil {
		return wx.AircraftState{}, fmt.Errorf("natsfetch: unmarshal aircraft state: %w", err)
	}
	return wx.AircraftState{
		LatDeg:        w.LatDeg,
		LonDeg:        w.LonDeg,
		AltitudeFt:    w.AltitudeFt,
		GroundSpeedKt: w.GroundSpeedKt,
		HeadingDeg:    w.HeadingDeg,
		OnGround:      w.OnGround,
	}, nil
}
