package wx

import (
	"regexp"
	"strconv"
	"strings"

	"fsweatherbridge/internal/conv"
)

// DefaultRegistry returns a fresh token registry carrying every recognizer
// family from spec §4.1, in the priority order the spec lists them. METAR
// and TAF (prevailing + each forecast group) all dispatch through one of
// these; a new instance is returned per parse so recognizers stay stateless.
func DefaultRegistry() *TokenRegistry {
	r := NewTokenRegistry()
	r.Register(windRecognizer{})
	r.Register(windVariabilityRecognizer{})
	r.Register(cavokRecognizer{})
	r.Register(visibilityRecognizer{})
	r.Register(rvrRecognizer{})
	r.Register(weatherRecognizer{})
	r.Register(cloudRecognizer{})
	r.Register(tempDewRecognizer{})
	r.Register(pressureRecognizer{})
	return r
}

// --- wind -------------------------------------------------------------

var windRe = regexp.MustCompile(`^(\d{3}|VRB|000)(\d{2,3})(G(\d{2,3}))?(KT|MPS|KMH)$`)

type windRecognizer struct{}

func (windRecognizer) Name() string     { return "wind" }
func (windRecognizer) Priority() int    { return 10 }
func (windRecognizer) QuickCheck(tok string) bool {
	return len(tok) >= 6 && (strings.HasSuffix(tok, "KT") || strings.HasSuffix(tok, "MPS") || strings.HasSuffix(tok, "KMH"))
}

func (windRecognizer) Recognize(tokens []string, idx int, b *Block) (int, bool) {
	m := windRe.FindStringSubmatch(tokens[idx])
	if m == nil {
		return 0, false
	}
	var dir WindDir
	switch m[1] {
	case "VRB":
		dir.Variable = true
	case "000":
		dir.Absent = true
	default:
		deg, _ := strconv.Atoi(m[1])
		dir.Deg = deg
	}
	speed, _ := strconv.Atoi(m[2])
	unit := m[5]
	speedKt := convertSpeed(float64(speed), unit)
	b.Wind.Dir = dir
	b.Wind.SpeedKt = int(speedKt + 0.5)
	if m[4] != "" {
		gust, _ := strconv.Atoi(m[4])
		gustKt := int(convertSpeed(float64(gust), unit) + 0.5)
		if gustKt >= b.Wind.SpeedKt {
			b.Wind.GustKt = Known(gustKt)
		}
	}
	return 1, true
}

func convertSpeed(v float64, unit string) float64 {
	switch unit {
	case "MPS":
		return conv.MpsToKt(v)
	case "KMH":
		return conv.KmhToKt(v)
	default:
		return v
	}
}

// windVariabilityRecognizer consumes the optional DDDvDDD variability group
// that trails the wind token (spec §4.1). It carries no dedicated Block
// field today (Block only models the resolved direction); it is still
// recognized — not left "unknown" — so the tokenizer does not misfile it as
// an unparsed trailing token.
var windVarRe = regexp.MustCompile(`^\d{3}V\d{3}$`)

type windVariabilityRecognizer struct{}

func (windVariabilityRecognizer) Name() string  { return "wind_variability" }
func (windVariabilityRecognizer) Priority() int { return 11 }
func (windVariabilityRecognizer) QuickCheck(tok string) bool {
	return len(tok) == 7 && tok[3] == 'V'
}
func (windVariabilityRecognizer) Recognize(tokens []string, idx int, b *Block) (int, bool) {
	if !windVarRe.MatchString(tokens[idx]) {
		return 0, false
	}
	return 1, true
}

// --- CAVOK --------------------------------------------------------------

type cavokRecognizer struct{}

func (cavokRecognizer) Name() string               { return "cavok" }
func (cavokRecognizer) Priority() int               { return 19 }
func (cavokRecognizer) QuickCheck(tok string) bool { return tok == "CAVOK" }
func (cavokRecognizer) Recognize(tokens []string, idx int, b *Block) (int, bool) {
	b.Visibility = Known(Visibility{SM: 10.0})
	b.Clouds = nil
	b.WeatherTokens = nil
	return 1, true
}

// --- visibility -----------------------------------------------------------

var (
	visMetersRe   = regexp.MustCompile(`^\d{4}$`)
	visFractionRe = regexp.MustCompile(`^(M)?(\d)/(\d)SM$`)
	visSimpleSMRe = regexp.MustCompile(`^[MP]?(\d+)SM$`)
)

type visibilityRecognizer struct{}

func (visibilityRecognizer) Name() string  { return "visibility" }
func (visibilityRecognizer) Priority() int { return 20 }
func (visibilityRecognizer) QuickCheck(tok string) bool {
	return visMetersRe.MatchString(tok) || strings.HasSuffix(tok, "SM")
}

func (visibilityRecognizer) Recognize(tokens []string, idx int, b *Block) (int, bool) {
	tok := tokens[idx]

	if visMetersRe.MatchString(tok) {
		meters, _ := strconv.Atoi(tok)
		if meters == 9999 {
			b.Visibility = Known(Visibility{SM: 10.0})
			return 1, true
		}
		sm := conv.MetersToSM(float64(meters))
		b.Visibility = Known(Visibility{SM: sm})
		return 1, true
	}

	// "M1/4SM" or "1/2SM" — a fraction, possibly with a leading whole-number
	// token joined by a space (e.g. "1 1/2SM" arrives as two tokens).
	if strings.HasSuffix(tok, "SM") && strings.Contains(tok, "/") {
		m := visFractionRe.FindStringSubmatch(tok)
		if m == nil {
			return 0, false
		}
		num, _ := strconv.Atoi(m[2])
		den, _ := strconv.Atoi(m[3])
		sm := float64(num) / float64(den)
		if m[1] != "M" && idx > 0 {
			// A preceding whole-number token, e.g. tokens[idx-1]=="1".
			if w, err := strconv.Atoi(tokens[idx-1]); err == nil {
				sm += float64(w)
			}
		}
		b.Visibility = Known(Visibility{SM: sm})
		return 1, true
	}

	if m := visSimpleSMRe.FindStringSubmatch(tok); m != nil {
		n, _ := strconv.Atoi(m[1])
		sm := float64(n)
		// "P6SM" ("greater than 6SM") reports as the plain value; the engine
		// only ever treats visibility as a lower bound for injection purposes.
		if n >= 10 {
			sm = 10.0
		}
		b.Visibility = Known(Visibility{SM: sm})
		return 1, true
	}

	return 0, false
}

// --- runway visual range (consumed, ignored per spec §4.1) --------------

var rvrRe = regexp.MustCompile(`^R\d{2}[LCR]?/`)

type rvrRecognizer struct{}

func (rvrRecognizer) Name() string  { return "rvr" }
func (rvrRecognizer) Priority() int { return 25 }
func (rvrRecognizer) QuickCheck(tok string) bool {
	return len(tok) > 1 && tok[0] == 'R' && tok[1] >= '0' && tok[1] <= '9'
}
func (rvrRecognizer) Recognize(tokens []string, idx int, b *Block) (int, bool) {
	if !rvrRe.MatchString(tokens[idx]) {
		return 0, false
	}
	return 1, true
}

// --- present weather ------------------------------------------------------

var weatherRe = regexp.MustCompile(
	`^[+-]?(VC)?(MI|BC|PR|DR|BL|SH|TS|FZ)?(DZ|RA|SN|SG|IC|PL|GR|GS|UP|BR|FG|FU|VA|DU|SA|HZ|PY|PO|SQ|FC|SS|DS)+$`)

type weatherRecognizer struct{}

func (weatherRecognizer) Name() string  { return "weather" }
func (weatherRecognizer) Priority() int { return 30 }
func (weatherRecognizer) QuickCheck(tok string) bool {
	t := strings.TrimPrefix(strings.TrimPrefix(tok, "+"), "-")
	return len(t) >= 2
}
func (weatherRecognizer) Recognize(tokens []string, idx int, b *Block) (int, bool) {
	tok := tokens[idx]
	if !weatherRe.MatchString(tok) {
		return 0, false
	}
	b.WeatherTokens = append(b.WeatherTokens, tok)
	return 1, true
}

// --- clouds -----------------------------------------------------------

var (
	cloudLayerRe = regexp.MustCompile(`^(FEW|SCT|BKN|OVC)(\d{3})(CB|TCU)?$`)
	cloudClearRe = regexp.MustCompile(`^(SKC|CLR|NSC|NCD)$`)
	verticalVisRe = regexp.MustCompile(`^VV(\d{3}|///)$`)
)

type cloudRecognizer struct{}

func (cloudRecognizer) Name() string  { return "clouds" }
func (cloudRecognizer) Priority() int { return 40 }
func (cloudRecognizer) QuickCheck(tok string) bool {
	return cloudLayerRe.MatchString(tok) || cloudClearRe.MatchString(tok) || verticalVisRe.MatchString(tok)
}
func (cloudRecognizer) Recognize(tokens []string, idx int, b *Block) (int, bool) {
	tok := tokens[idx]
	if cloudClearRe.MatchString(tok) {
		// Explicit "no significant cloud" report; leave b.Clouds empty.
		return 1, true
	}
	if m := verticalVisRe.FindStringSubmatch(tok); m != nil {
		if m[1] == "///" {
			return 1, true
		}
		hundreds, _ := strconv.Atoi(m[1])
		b.Clouds = append(b.Clouds, CloudLayer{Coverage: CoverageOvc, BaseFt: hundreds * 100})
		return 1, true
	}
	m := cloudLayerRe.FindStringSubmatch(tok)
	if m == nil {
		return 0, false
	}
	hundreds, _ := strconv.Atoi(m[2])
	b.Clouds = append(b.Clouds, CloudLayer{Coverage: Coverage(m[1]), BaseFt: hundreds * 100})
	return 1, true
}

// --- temperature / dewpoint ---------------------------------------------

var tempDewRe = regexp.MustCompile(`^(M)?(\d{2})/(M)?(\d{2})$`)

type tempDewRecognizer struct{}

func (tempDewRecognizer) Name() string  { return "temp_dew" }
func (tempDewRecognizer) Priority() int { return 50 }
func (tempDewRecognizer) QuickCheck(tok string) bool {
	return strings.Contains(tok, "/") && len(tok) >= 5 && len(tok) <= 7
}
func (tempDewRecognizer) Recognize(tokens []string, idx int, b *Block) (int, bool) {
	m := tempDewRe.FindStringSubmatch(tokens[idx])
	if m == nil {
		return 0, false
	}
	t, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[4])
	if m[1] == "M" {
		t = -t
	}
	if m[3] == "M" {
		d = -d
	}
	b.TemperatureC = Known(t)
	b.DewpointC = Known(d)
	return 1, true
}

// --- pressure -------------------------------------------------------------

var pressureRe = regexp.MustCompile(`^([QA])(\d{4})$`)

type pressureRecognizer struct{}

func (pressureRecognizer) Name() string  { return "pressure" }
func (pressureRecognizer) Priority() int { return 60 }
func (pressureRecognizer) QuickCheck(tok string) bool {
	return len(tok) == 5 && (tok[0] == 'Q' || tok[0] == 'A')
}
func (pressureRecognizer) Recognize(tokens []string, idx int, b *Block) (int, bool) {
	m := pressureRe.FindStringSubmatch(tokens[idx])
	if m == nil {
		return 0, false
	}
	if m[1] == "Q" {
		hpa, _ := strconv.Atoi(m[2])
		b.QNHhPa = Known(hpa)
		return 1, true
	}
	inHg, _ := strconv.ParseFloat(m[2][:2]+"."+m[2][2:], 64)
	b.QNHhPa = Known(conv.InHgToHpa(inHg))
	return 1, true
}
