package smoother

import (
	"math"

	"fsweatherbridge/internal/combiner"
	"fsweatherbridge/internal/conv"
	"fsweatherbridge/internal/wx"
)

// CurrentWeather is the smoother's persistent per-scope state (spec §3):
// identical shape to TargetWeather, advanced only by Tick.
type CurrentWeather struct {
	Scope      string
	Provenance combiner.Provenance
	Block      wx.Block

	initialized bool
}

// Smoother owns one CurrentWeather and a frozen flag; it is not shared
// across goroutines (spec §3's ownership note).
type Smoother struct {
	cfg     Config
	current CurrentWeather
	frozen  bool

	// accumulated elapsed seconds not yet converted into whole time-based
	// steps, one bucket per field.
	acc timeAccumulators
}

type timeAccumulators struct {
	windDir, windSpeed, windGust, qnh, visibility float64
}

func New(cfg Config, scope string) *Smoother {
	return &Smoother{cfg: cfg, current: CurrentWeather{Scope: scope}}
}

// Current returns the smoother's present state (read-only view).
func (s *Smoother) Current() CurrentWeather {
	return s.current
}

// Reset discards smoother state, forcing the next Tick to treat the target
// as a fresh first sample. The orchestrator does not call it: it discards a
// deselected scope's Smoother and builds a new one if the scope reappears.
func (s *Smoother) Reset() {
	s.current = CurrentWeather{Scope: s.current.Scope}
	s.frozen = false
	s.acc = timeAccumulators{}
}

// Tick advances CurrentWeather one step toward target and reports whether
// any field changed (spec §4.5).
func (s *Smoother) Tick(target combiner.TargetWeather, aircraft wx.AircraftState, elapsedSeconds float64) (CurrentWeather, bool) {
	if !s.current.initialized {
		s.current = CurrentWeather{
			Scope:       target.Scope,
			Provenance:  target.Provenance,
			Block:       target.Block.Clone(),
			initialized: true,
		}
		return s.current, true
	}

	big, veryBig := s.detectBigChange(target.Block)

	freezeNow := aircraft.AltitudeFt <= s.cfg.ApproachFreezeAltFt && !aircraft.OnGround
	s.frozen = freezeNow

	if s.frozen && !big {
		return s.current, false
	}

	rate := 1.0
	if veryBig {
		rate = 50.0
	} else if big {
		rate = 10.0
	}

	changed := false
	cur := &s.current.Block
	tgt := target.Block

	if s.stepWindDir(cur, tgt, rate, elapsedSeconds) {
		changed = true
	}
	if s.stepWindSpeed(cur, tgt, rate, elapsedSeconds) {
		changed = true
	}
	if s.stepQNH(cur, tgt, rate, elapsedSeconds) {
		changed = true
	}
	if s.stepVisibility(cur, tgt, rate, elapsedSeconds) {
		changed = true
	}
	if s.applyTempDewImmediate(cur, tgt) {
		changed = true
	}
	if s.stepClouds(cur, tgt) {
		changed = true
	}
	if s.replaceWeatherTokens(cur, tgt) {
		changed = true
	}

	s.current.Provenance = target.Provenance

	return s.current, changed
}

// detectBigChange implements spec §4.5's big/very-big predicate.
func (s *Smoother) detectBigChange(target wx.Block) (big, veryBig bool) {
	cur := s.current.Block

	dirDelta := shortestArcDelta(windDirDeg(cur.Wind.Dir), windDirDeg(target.Wind.Dir))
	if math.Abs(dirDelta) > s.cfg.BigChangeWindDirDeg {
		big = true
	}

	speedDelta := math.Abs(float64(target.Wind.SpeedKt - cur.Wind.SpeedKt))
	if speedDelta > s.cfg.BigChangeWindSpeedKt {
		big = true
	}

	curQNH, curOk := cur.QNHhPa.Get()
	tgtQNH, tgtOk := target.QNHhPa.Get()
	if curOk && tgtOk {
		if math.Abs(float64(tgtQNH-curQNH)) > s.cfg.BigChangeQNHHpa {
			big = true
		}
	}

	visDelta := 0.0
	curVis, curVisOk := cur.Visibility.Get()
	tgtVis, tgtVisOk := target.Visibility.Get()
	if curVisOk && tgtVisOk {
		visDelta = math.Abs(tgtVis.SM - curVis.SM)
		crosses5 := (curVis.SM < 5 && tgtVis.SM >= 5) || (curVis.SM >= 5 && tgtVis.SM < 5)
		if crosses5 || visDelta > 5 {
			big = true
		}
	}

	curClearToTgtOvc := wx.IsClear(cur.Clouds) && wx.HasOvercast(target.Clouds)
	curOvcToTgtClear := wx.HasOvercast(cur.Clouds) && wx.IsClear(target.Clouds)
	if curClearToTgtOvc || curOvcToTgtClear {
		big = true
	}

	if big && (speedDelta > s.cfg.VeryBigWindSpeedKt || visDelta > s.cfg.VeryBigVisibilityNM) {
		veryBig = true
	}
	return big, veryBig
}

func windDirDeg(d wx.WindDir) float64 {
	if d.Variable || d.Absent {
		return 0
	}
	return float64(d.Deg)
}

// shortestArcDelta returns the signed shortest-arc delta from a to b on a
// 0..360 compass, in [-180, 180).
func shortestArcDelta(a, b float64) float64 {
	delta := math.Mod(b-a+540, 360) - 180
	return delta
}

// stepLimit returns the per-tick movement ceiling for one field, applying
// the rate multiplier and, for time-based mode, the accumulated-time whole
// steps.
func (s *Smoother) stepLimit(maxStep, intervalStep float64, acc *float64, rate, elapsedSeconds float64) float64 {
	if s.cfg.TransitionMode == TransitionTimeBased {
		*acc += elapsedSeconds
		interval := s.cfg.TransitionIntervalSeconds
		if interval <= 0 {
			interval = 1
		}
		steps := math.Floor(*acc / interval)
		*acc -= steps * interval
		return steps * intervalStep * rate
	}
	return maxStep * rate
}

func clampStep(delta, limit float64) float64 {
	if limit < 0 {
		limit = 0
	}
	if delta > limit {
		return limit
	}
	if delta < -limit {
		return -limit
	}
	return delta
}

func (s *Smoother) stepWindDir(cur *wx.Block, tgt wx.Block, rate, elapsed float64) bool {
	if tgt.Wind.Dir.Variable || tgt.Wind.Dir.Absent {
		if cur.Wind.Dir != tgt.Wind.Dir {
			cur.Wind.Dir = tgt.Wind.Dir
			return true
		}
		return false
	}
	if cur.Wind.Dir.Variable || cur.Wind.Dir.Absent {
		cur.Wind.Dir = tgt.Wind.Dir
		return true
	}

	delta := shortestArcDelta(float64(cur.Wind.Dir.Deg), float64(tgt.Wind.Dir.Deg))
	if delta == 0 {
		return false
	}
	limit := s.stepLimit(s.cfg.MaxWindDirChangeDeg, s.cfg.WindDirStepDeg, &s.acc.windDir, rate, elapsed)
	move := clampStep(delta, limit)
	if move == 0 {
		return false
	}
	newDeg := math.Mod(float64(cur.Wind.Dir.Deg)+move+360, 360)
	cur.Wind.Dir.Deg = int(math.Round(newDeg)) % 360
	return true
}

func (s *Smoother) stepWindSpeed(cur *wx.Block, tgt wx.Block, rate, elapsed float64) bool {
	changed := false

	delta := float64(tgt.Wind.SpeedKt - cur.Wind.SpeedKt)
	if delta != 0 {
		limit := s.stepLimit(s.cfg.MaxWindSpeedChangeKt, s.cfg.WindSpeedStepKt, &s.acc.windSpeed, rate, elapsed)
		move := clampStep(delta, limit)
		if move != 0 {
			cur.Wind.SpeedKt += int(math.Round(move))
			changed = true
		}
	}

	curGust, curOk := cur.Wind.GustKt.Get()
	tgtGust, tgtOk := tgt.Wind.GustKt.Get()
	switch {
	case tgtOk && curOk:
		gustDelta := float64(tgtGust - curGust)
		if gustDelta != 0 {
			limit := s.stepLimit(s.cfg.MaxWindSpeedChangeKt, s.cfg.WindSpeedStepKt, &s.acc.windGust, rate, elapsed)
			move := clampStep(gustDelta, limit)
			if move != 0 {
				curGust += int(math.Round(move))
				changed = true
			}
		}
		cur.Wind.GustKt = wx.Known(curGust)
	case tgtOk && !curOk:
		cur.Wind.GustKt = wx.Known(tgtGust)
		changed = true
	case !tgtOk && curOk:
		cur.Wind.GustKt = wx.Absent[int]()
		changed = true
	}

	if g, ok := cur.Wind.GustKt.Get(); ok && g <= cur.Wind.SpeedKt {
		cur.Wind.GustKt = wx.Absent[int]()
		changed = true
	}

	return changed
}

func (s *Smoother) stepQNH(cur *wx.Block, tgt wx.Block, rate, elapsed float64) bool {
	curQNH, curOk := cur.QNHhPa.Get()
	tgtQNH, tgtOk := tgt.QNHhPa.Get()
	if !tgtOk {
		if curOk {
			cur.QNHhPa = wx.Absent[int]()
			return true
		}
		return false
	}
	if !curOk {
		cur.QNHhPa = wx.Known(tgtQNH)
		return true
	}
	delta := float64(tgtQNH - curQNH)
	if delta == 0 {
		return false
	}
	limit := s.stepLimit(s.cfg.MaxQNHChangeHpa, s.cfg.QNHStepHpa, &s.acc.qnh, rate, elapsed)
	move := clampStep(delta, limit)
	if move == 0 {
		return false
	}
	cur.QNHhPa = wx.Known(curQNH + int(math.Round(move)))
	return true
}

func (s *Smoother) stepVisibility(cur *wx.Block, tgt wx.Block, rate, elapsed float64) bool {
	curVis, curOk := cur.Visibility.Get()
	tgtVis, tgtOk := tgt.Visibility.Get()
	if !tgtOk {
		if curOk {
			cur.Visibility = wx.Absent[wx.Visibility]()
			return true
		}
		return false
	}
	if !curOk {
		cur.Visibility = wx.Known(tgtVis)
		return true
	}

	curM := conv.SMToMeters(curVis.SM)
	tgtM := conv.SMToMeters(tgtVis.SM)
	delta := tgtM - curM
	if delta == 0 {
		return false
	}
	maxStepM := conv.SMToMeters(s.cfg.MaxVisibilityChangeSM)
	limit := s.stepLimit(maxStepM, s.cfg.VisibilityStepM, &s.acc.visibility, rate, elapsed)
	move := clampStep(delta, limit)
	if move == 0 {
		return false
	}
	cur.Visibility = wx.Known(wx.Visibility{SM: conv.MetersToSM(curM + move)})
	return true
}

func (s *Smoother) applyTempDewImmediate(cur *wx.Block, tgt wx.Block) bool {
	changed := false
	if cur.TemperatureC != tgt.TemperatureC {
		cur.TemperatureC = tgt.TemperatureC
		changed = true
	}
	if cur.DewpointC != tgt.DewpointC {
		cur.DewpointC = tgt.DewpointC
		changed = true
	}
	return changed
}

// stepClouds implements spec §4.5's threshold-based cloud reshuffling: add
// a target layer once it is outside the threshold of every current layer,
// drop a current layer once no target layer is within threshold, otherwise
// interpolate each surviving layer's base by the threshold per tick.
func (s *Smoother) stepClouds(cur *wx.Block, tgt wx.Block) bool {
	threshold := s.cfg.CloudChangeThresholdFt
	changed := false

	kept := make([]wx.CloudLayer, 0, len(cur.Clouds))
	for _, c := range cur.Clouds {
		if nearestMatch(tgt.Clouds, c, threshold) {
			kept = append(kept, c)
		} else {
			changed = true
		}
	}

	for i := range kept {
		if m, ok := closestTarget(tgt.Clouds, kept[i]); ok {
			delta := float64(m.BaseFt - kept[i].BaseFt)
			if delta != 0 {
				move := clampStep(delta, threshold)
				kept[i].BaseFt += int(move)
				kept[i].Coverage = m.Coverage
				changed = true
			}
		}
	}

	for _, t := range tgt.Clouds {
		if !nearestMatch(kept, t, threshold) {
			kept = append(kept, wx.CloudLayer{Coverage: t.Coverage, BaseFt: t.BaseFt})
			changed = true
		}
	}

	if changed {
		cur.Clouds = kept
	}
	return changed
}

func nearestMatch(layers []wx.CloudLayer, target wx.CloudLayer, threshold float64) bool {
	for _, l := range layers {
		if math.Abs(float64(l.BaseFt-target.BaseFt)) <= threshold {
			return true
		}
	}
	return false
}

func closestTarget(targets []wx.CloudLayer, from wx.CloudLayer) (wx.CloudLayer, bool) {
	best := wx.CloudLayer{}
	bestDist := math.Inf(1)
	found := false
	for _, t := range targets {
		d := math.Abs(float64(t.BaseFt - from.BaseFt))
		if d < bestDist {
			bestDist = d
			best = t
			found = true
		}
	}
	return best, found
}

func (s *Smoother) replaceWeatherTokens(cur *wx.Block, tgt wx.Block) bool {
	if tokensEqual(cur.WeatherTokens, tgt.WeatherTokens) {
		return false
	}
	cur.WeatherTokens = append([]string(nil), tgt.WeatherTokens...)
	return true
}

func tokensEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
