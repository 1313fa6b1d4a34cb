// Command weatherbridge runs the live METAR/TAF injection engine: it fetches
// real-world weather for whatever stations are near the simulated aircraft,
// combines and smooths it tick by tick, and writes synthesized METAR
// buffers for a flight simulator to consume (spec §1).
//
// Usage:
//
//	weatherbridge [options]
//
// Options:
//
//	-config PATH       YAML config file (default: "", env: WXBRIDGE_CONFIG)
//	-nats-url URL      NATS server for fetch/aircraft-state (default: nats://127.0.0.1:4222, env: WXBRIDGE_NATS_URL)
//	-sink-dir DIR      Directory to write synthesized METAR buffers into (default: ./out, env: WXBRIDGE_SINK_DIR)
//	-stations PATH     Optional supplementary SQLite station database (env: WXBRIDGE_STATIONS_DB)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fsweatherbridge/internal/combiner"
	"fsweatherbridge/internal/config"
	"fsweatherbridge/internal/engine"
	"fsweatherbridge/internal/sink/filesink"
	"fsweatherbridge/internal/station"
	"fsweatherbridge/internal/transport/natsfetch"
)

func main() {
	configPath := flag.String("config", envOrDefault("WXBRIDGE_CONFIG", ""), "YAML config file")
	natsURL := flag.String("nats-url", envOrDefault("WXBRIDGE_NATS_URL", "nats://127.0.0.1:4222"), "NATS server URL")
	sinkDir := flag.String("sink-dir", envOrDefault("WXBRIDGE_SINK_DIR", "./out"), "directory to write synthesized METAR buffers")
	stationsDB := flag.String("stations", envOrDefault("WXBRIDGE_STATIONS_DB", ""), "optional supplementary SQLite station database")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "weatherbridge: %v\n", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(*stationsDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "weatherbridge: %v\n", err)
		os.Exit(1)
	}
	selector := station.NewSelector(registry, cfg.SelectorConfig())

	if err := os.MkdirAll(*sinkDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "weatherbridge: create sink dir: %v\n", err)
		os.Exit(1)
	}
	sink := filesink.New(*sinkDir)

	fetchTimeout := time.Duration(cfg.FetchTimeoutSeconds * float64(time.Second))
	provider, err := natsfetch.Connect(*natsURL, fetchTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "weatherbridge: connect nats: %v\n", err)
		os.Exit(1)
	}
	defer provider.Close()

	orch := engine.New(
		engine.Config{
			CombiningMode:  cfg.CombiningMode,
			StaleThreshold: time.Duration(cfg.TafFallbackStaleSeconds) * time.Second,
			TickInterval:   time.Duration(cfg.TickIntervalSeconds * float64(time.Second)),
			FetchTimeout:   fetchTimeout,
			NeedsTaf:       cfg.CombiningMode != combiner.ModeMetarOnly,
		},
		selector,
		cfg.SmootherConfig(),
		provider,
		provider,
		sink,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := orch.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "weatherbridge: %v\n", err)
		os.Exit(1)
	}
}

// buildRegistry loads the bundled station set and, if dbPath is set, merges
// in a supplementary SQLite dataset on top of it.
func buildRegistry(dbPath string) (*station.Registry, error) {
	base, err := station.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("load embedded stations: %w", err)
	}
	if dbPath == "" {
		return base, nil
	}
	extra, err := station.LoadSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("load sqlite stations: %w", err)
	}
	return base.Merge(extra), nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
