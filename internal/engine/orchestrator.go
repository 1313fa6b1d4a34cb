package engine

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"fsweatherbridge/internal/combiner"
	"fsweatherbridge/internal/metar"
	"fsweatherbridge/internal/smoother"
	"fsweatherbridge/internal/station"
	"fsweatherbridge/internal/synth"
	"fsweatherbridge/internal/taf"
	"fsweatherbridge/internal/wx"
)

// Config bundles the per-run knobs the orchestrator needs beyond the
// component configs it is handed already-built (spec §5/§6).
type Config struct {
	CombiningMode  combiner.Mode
	StaleThreshold time.Duration
	TickInterval   time.Duration
	FetchTimeout   time.Duration
	NeedsTaf       bool
}

// Orchestrator drives the tick cycle described in spec §4.7. It owns
// CurrentWeather (via per-scope Smoothers), the station registry, and the
// last-selected scope set; parsers and the combiner stay pure.
type Orchestrator struct {
	cfg       Config
	selector  *station.Selector
	source    AircraftStateSource
	fetch     FetchProvider
	sink      InjectionSink
	smootherC smoother.Config

	smoothers    map[string]*smoother.Smoother
	lastSelected map[string]bool
	limiter      *rate.Limiter
}

func New(cfg Config, selector *station.Selector, smootherCfg smoother.Config, source AircraftStateSource, fetch FetchProvider, sink InjectionSink) *Orchestrator {
	return &Orchestrator{
		cfg:          cfg,
		selector:     selector,
		source:       source,
		fetch:        fetch,
		sink:         sink,
		smootherC:    smootherCfg,
		smoothers:    make(map[string]*smoother.Smoother),
		lastSelected: make(map[string]bool),
		limiter:      rate.NewLimiter(rate.Every(cfg.TickInterval), 1),
	}
}

// Run ticks until ctx is cancelled, pacing itself by the logical clock
// described in spec §5: the next tick fires at now+interval, or
// immediately if the previous tick overran.
func (o *Orchestrator) Run(ctx context.Context) error {
	lastTick := time.Now()
	for {
		if err := o.limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}
		now := time.Now()
		elapsed := now.Sub(lastTick).Seconds()
		lastTick = now

		tickCtx, cancel := context.WithTimeout(ctx, o.cfg.FetchTimeout)
		if err := o.tick(tickCtx, now, elapsed); err != nil {
			log.Printf("[engine] tick %s failed: %v", uuid.NewString(), err)
		}
		cancel()

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// tick executes one full cycle of spec §4.7's six steps.
func (o *Orchestrator) tick(ctx context.Context, now time.Time, elapsedSeconds float64) error {
	aircraft, err := o.source.FetchState(ctx)
	if err != nil {
		log.Printf("[engine] aircraft state unavailable, skipping tick: %v", err)
		return nil
	}

	candidates := o.selector.Select(aircraft.LatDeg, aircraft.LonDeg)
	selected := make(map[string]bool, len(candidates))
	icaos := make([]string, 0, len(candidates))
	for _, c := range candidates {
		selected[c.Station.ICAO] = true
		icaos = append(icaos, c.Station.ICAO)
	}
	for scope := range o.lastSelected {
		if !selected[scope] {
			delete(o.smoothers, scope)
		}
	}
	o.lastSelected = selected

	metars, tafs, err := o.fetchAll(ctx, icaos)
	if err != nil {
		log.Printf("[engine] fetch error this tick, retaining previous state: %v", err)
	}

	for _, c := range candidates {
		o.processScope(ctx, c.Station.ICAO, metars, tafs, aircraft, now, elapsedSeconds)
	}
	return nil
}

// fetchAll runs the METAR and TAF batch fetches concurrently when TAF data
// is needed by the configured combining mode (spec §5 permits concurrent
// fetch as the tick's only suspension points).
func (o *Orchestrator) fetchAll(ctx context.Context, icaos []string) (map[string]RawReport, map[string]RawReport, error) {
	if len(icaos) == 0 {
		return nil, nil, nil
	}

	var metars, tafs map[string]RawReport
	eg, gctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		m, err := o.fetch.FetchMetar(gctx, icaos)
		metars = m
		return err
	})
	if o.cfg.NeedsTaf {
		eg.Go(func() error {
			tf, err := o.fetch.FetchTaf(gctx, icaos)
			tafs = tf
			return err
		})
	}

	err := eg.Wait()
	return metars, tafs, err
}

// processScope runs steps 4-6 of spec §4.7 for one selected scope: combine,
// smooth, and — if changed — synthesize and write.
func (o *Orchestrator) processScope(ctx context.Context, scope string, metars, tafs map[string]RawReport, aircraft wx.AircraftState, now time.Time, elapsedSeconds float64) {
	var parsedMetar *metar.Parsed
	var parsedTaf *taf.Parsed

	if raw, ok := metars[scope]; ok {
		// The fetch result's own issued_at is authoritative (spec §4.7);
		// Parse's reconstructed timestamp is overwritten with it so
		// staleness stays a pure function of fetched data, not wall clock.
		if p, err := metar.Parse(raw.Text, now); err == nil {
			p.IssuedAt = wx.Known(raw.IssuedAt)
			parsedMetar = p
		} else {
			log.Printf("[engine] %s: metar parse error: %v", scope, err)
		}
	}
	if o.cfg.NeedsTaf {
		if raw, ok := tafs[scope]; ok {
			if p, err := taf.Parse(raw.Text, now); err == nil {
				parsedTaf = p
			} else {
				log.Printf("[engine] %s: taf parse error: %v", scope, err)
			}
		}
	}

	target, ok := combiner.Combine(combiner.Input{
		Scope:          scope,
		Mode:           o.cfg.CombiningMode,
		Metar:          parsedMetar,
		Taf:            parsedTaf,
		Now:            now,
		StaleThreshold: o.cfg.StaleThreshold,
	})
	if !ok {
		return
	}

	sm, exists := o.smoothers[scope]
	if !exists {
		sm = smoother.New(o.smootherC, scope)
		o.smoothers[scope] = sm
	}

	cw, changed := sm.Tick(*target, aircraft, elapsedSeconds)
	if !changed {
		return
	}

	buf := synth.Buffer(cw, now)
	if err := o.sink.Inject(ctx, scope, buf); err != nil {
		log.Printf("[engine] %s: sink write failed (state still advanced): %v", scope, err)
	}
}
