package metar

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"fsweatherbridge/internal/wx"
)

var issueTimeRe = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})Z$`)
var icaoRe = regexp.MustCompile(`^[A-Z]{4}$`)

// stopWords end structured-field consumption; everything from a stop word
// onward is a trend indicator or remarks group and is ignored (spec §4.1).
var stopWords = map[string]bool{
	"RMK": true, "NOSIG": true, "BECMG": true, "TEMPO": true,
}

// Parse lexes one METAR line into a Parsed report. now is used to
// reconstruct the full issued_at timestamp from the DDHHMMZ day-of-month
// token; it should be the wall-clock time the report was received.
func Parse(raw string, now time.Time) (*Parsed, error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return nil, &ParseError{Position: 0, Reason: "empty input"}
	}
	tokens := strings.Fields(line)

	p := &Parsed{Raw: raw}
	idx := 0

	// Report type marker (optional).
	if idx < len(tokens) && (tokens[idx] == "METAR" || tokens[idx] == "SPECI") {
		idx++
	}

	foundStation := false
	foundTime := false

	// ICAO, issue time and the AUTO/COR/NIL flags appear, in the wild,
	// scattered across the first handful of tokens in no fixed relative
	// order; scan forward classifying each one until we reach the first
	// token that matches none of these header classes (the first
	// structured-field token, almost always wind, takes over from there).
	for idx < len(tokens) {
		tok := tokens[idx]
		switch {
		case !foundStation && icaoRe.MatchString(tok):
			p.ICAO = tok
			foundStation = true
		case !foundTime && issueTimeRe.MatchString(tok):
			m := issueTimeRe.FindStringSubmatch(tok)
			day, _ := strconv.Atoi(m[1])
			hour, _ := strconv.Atoi(m[2])
			min, _ := strconv.Atoi(m[3])
			p.IssuedAt = wx.Known(reconstructIssued(now, day, hour, min))
			foundTime = true
		case tok == "AUTO":
			p.Auto = true
		case tok == "COR":
			p.Cor = true
		case tok == "NIL":
			p.Nil = true
		default:
			goto doneHeader
		}
		idx++
	}
doneHeader:

	if !foundStation {
		return nil, &ParseError{Position: idx, Reason: "no ICAO station identifier found"}
	}
	if p.Nil {
		return p, nil
	}

	reg := wx.DefaultRegistry()
	for idx < len(tokens) {
		tok := tokens[idx]
		if stopWords[tok] {
			break
		}
		if consumed, ok, _ := reg.Dispatch(tokens, idx, &p.Block); ok {
			idx += consumed
			continue
		}
		// Unknown token: skip, never fatal (spec §4.1).
		idx++
	}

	if p.Block.Wind.GustKt.IsKnown() {
		gust, _ := p.Block.Wind.GustKt.Get()
		if gust < p.Block.Wind.SpeedKt {
			p.Block.Wind.GustKt = wx.Absent[int]()
		}
	}

	return p, nil
}

// reconstructIssued rebuilds a full UTC timestamp from a DDHHMMZ token and
// the approximate time of receipt, per spec §3. If the day-of-month implies
// a date more than a couple of days in the future relative to now, the
// report is assumed to be from the previous month (handles month rollover
// around the 1st).
func reconstructIssued(now time.Time, day, hour, min int) time.Time {
	now = now.UTC()
	candidate := time.Date(now.Year(), now.Month(), day, hour, min, 0, 0, time.UTC)
	if candidate.After(now.Add(48 * time.Hour)) {
		candidate = candidate.AddDate(0, -1, 0)
	}
	return candidate
}
