// Package synth implements the METAR synthesizer from spec §4.6: it renders
// a CurrentWeather back into a canonical METAR byte string for injection.
package synth

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"fsweatherbridge/internal/smoother"
	"fsweatherbridge/internal/wx"
)

// BufferSize is the fixed-size byte buffer the sink writes (spec §4.6):
// up to 255 ASCII bytes plus a single null terminator, zero-filled beyond
// the content.
const BufferSize = 256

// Synthesize renders cw as of "now" into a canonical METAR string (without
// the null terminator; use Buffer to get the wire-ready 256-byte form).
func Synthesize(cw smoother.CurrentWeather, now time.Time) string {
	icao := cw.Scope
	if icao == "GLOBAL" {
		icao = "GLOB"
	}

	var b strings.Builder
	b.WriteString("METAR ")
	b.WriteString(icao)
	b.WriteByte(' ')
	b.WriteString(now.UTC().Format("021504"))
	b.WriteString("Z ")
	b.WriteString(windField(cw.Block.Wind))
	b.WriteByte(' ')
	b.WriteString(visibilityField(cw.Block.Visibility))

	if len(cw.Block.WeatherTokens) > 0 {
		b.WriteByte(' ')
		b.WriteString(strings.Join(cw.Block.WeatherTokens, " "))
	}

	b.WriteByte(' ')
	b.WriteString(cloudsField(cw.Block.Clouds))
	b.WriteByte(' ')
	b.WriteString(tempDewField(cw.Block.TemperatureC, cw.Block.DewpointC))

	if q, ok := cw.Block.QNHhPa.Get(); ok {
		b.WriteByte(' ')
		fmt.Fprintf(&b, "Q%04d", q)
	}

	out := b.String()
	if len(out) > 255 {
		out = out[:255]
	}
	return out
}

// Buffer renders cw into the fixed 256-byte wire format: the synthesized
// ASCII string, a null terminator, and zero-filled padding (spec §4.6 /
// §6's "METAR on the wire").
func Buffer(cw smoother.CurrentWeather, now time.Time) [BufferSize]byte {
	var buf [BufferSize]byte
	s := Synthesize(cw, now)
	copy(buf[:], s)
	buf[len(s)] = 0
	return buf
}

func windField(w wx.Wind) string {
	switch {
	case w.Dir.Absent && w.SpeedKt == 0:
		return "00000KT"
	case w.Dir.Variable:
		return fmt.Sprintf("VRB%02dKT", w.SpeedKt)
	}
	dir := fmt.Sprintf("%03d", w.Dir.Deg)
	if gust, ok := w.GustKt.Get(); ok && gust > w.SpeedKt {
		return fmt.Sprintf("%s%02dG%02dKT", dir, w.SpeedKt, gust)
	}
	return fmt.Sprintf("%s%02dKT", dir, w.SpeedKt)
}

func visibilityField(v wx.Field[wx.Visibility]) string {
	vis, ok := v.Get()
	if !ok {
		return "////"
	}
	switch {
	case vis.SM >= 10:
		return "10SM"
	case vis.SM < 0.25:
		return "M1/4SM"
	case vis.SM < 1:
		return fractionalSM(vis.SM)
	default:
		return fmt.Sprintf("%dSM", int(math.Round(vis.SM)))
	}
}

// fractionalSM renders a sub-statute-mile visibility as the nearest common
// METAR fraction (quarters), e.g. 0.5 -> "1/2SM".
func fractionalSM(sm float64) string {
	quarters := int(math.Round(sm * 4))
	switch quarters {
	case 1:
		return "1/4SM"
	case 2:
		return "1/2SM"
	case 3:
		return "3/4SM"
	default:
		return "1SM"
	}
}

func cloudsField(layers []wx.CloudLayer) string {
	if len(layers) == 0 {
		return "CLR"
	}
	sorted := append([]wx.CloudLayer(nil), layers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].BaseFt < sorted[j].BaseFt })

	n := len(sorted)
	if n > 3 {
		n = 3
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		l := sorted[i]
		parts = append(parts, fmt.Sprintf("%s%03d", l.Coverage, l.BaseFt/100))
	}
	return strings.Join(parts, " ")
}

func tempDewField(temp, dew wx.Field[int]) string {
	t, tOk := temp.Get()
	d, dOk := dew.Get()
	if !tOk || !dOk {
		return "///////"
	}
	return fmt.Sprintf("%s/%s", signedTwoDigit(t), signedTwoDigit(d))
}

func signedTwoDigit(v int) string {
	if v < 0 {
		return fmt.Sprintf("M%02d", -v)
	}
	return fmt.Sprintf("%02d", v)
}
