package smoother

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsweatherbridge/internal/combiner"
	"fsweatherbridge/internal/wx"
)

func cruisingAircraft() wx.AircraftState {
	return wx.AircraftState{AltitudeFt: 35000, OnGround: false}
}

func target(block wx.Block) combiner.TargetWeather {
	return combiner.TargetWeather{Scope: "KJFK", Provenance: combiner.ProvenanceMetarOnly, Block: block}
}

func TestTick_FirstSampleCopiesVerbatim(t *testing.T) {
	s := New(DefaultConfig(), "KJFK")
	tgt := target(wx.Block{Wind: wx.Wind{Dir: wx.WindDir{Deg: 270}, SpeedKt: 20}})

	cur, changed := s.Tick(tgt, cruisingAircraft(), 1)

	assert.True(t, changed)
	assert.Equal(t, 270, cur.Block.Wind.Dir.Deg)
	assert.Equal(t, 20, cur.Block.Wind.SpeedKt)
}

func TestTick_StepLimitedConvergesAndStops(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxWindSpeedChangeKt = 2
	s := New(cfg, "KJFK")

	s.Tick(target(wx.Block{Wind: wx.Wind{SpeedKt: 0}}), cruisingAircraft(), 1)
	tgt := target(wx.Block{Wind: wx.Wind{SpeedKt: 10}})

	for i := 0; i < 4; i++ {
		_, changed := s.Tick(tgt, cruisingAircraft(), 1)
		assert.True(t, changed, "tick %d should still be converging", i)
	}
	require.Equal(t, 8, s.Current().Block.Wind.SpeedKt)

	_, changed := s.Tick(tgt, cruisingAircraft(), 1)
	assert.True(t, changed)
	assert.Equal(t, 10, s.Current().Block.Wind.SpeedKt)

	_, changed = s.Tick(tgt, cruisingAircraft(), 1)
	assert.False(t, changed, "once at target, changed must be false")
}

func TestTick_NoOvershoot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxWindSpeedChangeKt = 100 // absurdly large step
	s := New(cfg, "KJFK")
	s.Tick(target(wx.Block{Wind: wx.Wind{SpeedKt: 0}}), cruisingAircraft(), 1)

	_, changed := s.Tick(target(wx.Block{Wind: wx.Wind{SpeedKt: 10}}), cruisingAircraft(), 1)

	assert.True(t, changed)
	assert.Equal(t, 10, s.Current().Block.Wind.SpeedKt, "must clamp at target, never overshoot")
}

func TestTick_ShortestArcWindDirection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxWindDirChangeDeg = 5
	s := New(cfg, "KJFK")
	s.Tick(target(wx.Block{Wind: wx.Wind{Dir: wx.WindDir{Deg: 350}}}), cruisingAircraft(), 1)

	_, changed := s.Tick(target(wx.Block{Wind: wx.Wind{Dir: wx.WindDir{Deg: 10}}}), cruisingAircraft(), 1)

	assert.True(t, changed)
	// 350 -> 10 is a 20deg delta via 0, not -340 via 180; stepping 5 should
	// land at 355, not 345.
	assert.Equal(t, 355, s.Current().Block.Wind.Dir.Deg)
}

func TestTick_FreezeHoldsStateUnlessBigChange(t *testing.T) {
	cfg := DefaultConfig()
	s := New(cfg, "KJFK")
	lowAlt := wx.AircraftState{AltitudeFt: 500, OnGround: false}

	s.Tick(target(wx.Block{Wind: wx.Wind{SpeedKt: 10}, QNHhPa: wx.Known(1013)}), lowAlt, 1)

	_, changed := s.Tick(target(wx.Block{Wind: wx.Wind{SpeedKt: 11}, QNHhPa: wx.Known(1013)}), lowAlt, 1)
	assert.False(t, changed, "small change while frozen must not move state")
	assert.Equal(t, 10, s.Current().Block.Wind.SpeedKt)

	// A big change (wind speed delta > 10kt) overrides freeze for safety.
	_, changed = s.Tick(target(wx.Block{Wind: wx.Wind{SpeedKt: 30}, QNHhPa: wx.Known(1013)}), lowAlt, 1)
	assert.True(t, changed, "big change must override freeze")
}

func TestTick_GustDroppedWhenTargetHasNone(t *testing.T) {
	s := New(DefaultConfig(), "KJFK")
	s.Tick(target(wx.Block{Wind: wx.Wind{SpeedKt: 20, GustKt: wx.Known(28)}}), cruisingAircraft(), 1)

	_, _ = s.Tick(target(wx.Block{Wind: wx.Wind{SpeedKt: 20, GustKt: wx.Absent[int]()}}), cruisingAircraft(), 1)

	assert.False(t, s.Current().Block.Wind.GustKt.IsKnown())
}

func TestTick_CloudsReshuffleByThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CloudChangeThresholdFt = 500
	s := New(cfg, "KJFK")
	s.Tick(target(wx.Block{Clouds: []wx.CloudLayer{{Coverage: wx.CoverageSct, BaseFt: 2000}}}), cruisingAircraft(), 1)

	// New target layer far outside threshold of the current one: it is
	// added, and the original, outside threshold of every target layer, is
	// dropped in the same tick.
	_, changed := s.Tick(target(wx.Block{Clouds: []wx.CloudLayer{{Coverage: wx.CoverageBkn, BaseFt: 8000}}}), cruisingAircraft(), 1)

	assert.True(t, changed)
	require.Len(t, s.Current().Block.Clouds, 1)
	assert.Equal(t, wx.CoverageBkn, s.Current().Block.Clouds[0].Coverage)
}
