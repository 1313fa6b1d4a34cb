package taf

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"fsweatherbridge/internal/wx"
)

var (
	headerTimeRe = regexp.MustCompile(`^(\d{2})(\d{2})(\d{2})Z$`)
	icaoRe       = regexp.MustCompile(`^[A-Z]{4}$`)
	validityRe   = regexp.MustCompile(`^(\d{2})(\d{2})/(\d{2})(\d{2})$`)
	fmGroupRe    = regexp.MustCompile(`^FM(\d{2})(\d{2})(\d{2})$`)
	rangeGroupRe = regexp.MustCompile(`^(\d{2})(\d{2})/(\d{2})(\d{2})$`)
	probGroupRe  = regexp.MustCompile(`^PROB(\d{2})$`)
)

// Parse lexes one raw TAF bulletin into a Parsed report. now anchors the
// header issue time and the validity window's month, the same way
// internal/metar.Parse anchors METAR's day-of-month token.
func Parse(raw string, now time.Time) (*Parsed, error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return nil, &ParseError{Reason: "empty input"}
	}
	tokens := strings.Fields(line)
	idx := 0

	if idx < len(tokens) && tokens[idx] == "TAF" {
		idx++
	}
	p := &Parsed{Raw: raw}
	for idx < len(tokens) {
		switch tokens[idx] {
		case "AMD":
			p.Amended = true
			idx++
		case "COR":
			p.Corrected = true
			idx++
		default:
			goto doneMods
		}
	}
doneMods:

	foundStation := false
	foundIssue := false
	for idx < len(tokens) {
		tok := tokens[idx]
		switch {
		case !foundStation && icaoRe.MatchString(tok):
			p.ICAO = tok
			foundStation = true
		case !foundIssue && headerTimeRe.MatchString(tok):
			m := headerTimeRe.FindStringSubmatch(tok)
			day, _ := strconv.Atoi(m[1])
			hour, _ := strconv.Atoi(m[2])
			min, _ := strconv.Atoi(m[3])
			p.IssuedAt = wx.Known(reconstruct(now, day, hour, min, 0))
			foundIssue = true
		case tok == "NIL":
			p.Nil = true
			idx++
			return p, nil
		default:
			goto doneHeader
		}
		idx++
	}
doneHeader:

	if !foundStation {
		return nil, &ParseError{Reason: "no ICAO station identifier found"}
	}

	if idx < len(tokens) && validityRe.MatchString(tokens[idx]) {
		m := validityRe.FindStringSubmatch(tokens[idx])
		fromDay, _ := strconv.Atoi(m[1])
		fromHour, _ := strconv.Atoi(m[2])
		toDay, _ := strconv.Atoi(m[3])
		toHour, _ := strconv.Atoi(m[4])
		p.ValidFrom = reconstruct(now, fromDay, fromHour, 0, 36)
		p.ValidTo = rollForward(p.ValidFrom, toDay, toHour)
		idx++
	}

	if idx < len(tokens) && tokens[idx] == "CNL" {
		p.Cancelled = true
		idx++
		return p, nil
	}

	reg := wx.DefaultRegistry()

	// Prevailing block: everything up to the first group marker.
	for idx < len(tokens) {
		tok := tokens[idx]
		if isGroupMarker(tok) {
			break
		}
		if consumed, ok, _ := reg.Dispatch(tokens, idx, &p.Prevailing); ok {
			idx += consumed
			continue
		}
		idx++
	}

	for idx < len(tokens) {
		g, consumed, ok := parseGroup(tokens, idx, p.ValidFrom, reg)
		if !ok {
			idx++
			continue
		}
		p.Groups = append(p.Groups, g)
		idx += consumed
	}

	closeOpenEndedGroups(p)

	return p, nil
}

// closeOpenEndedGroups fills in the To of FM groups, which carry no
// explicit end in the source text: an FM group runs until the next group
// begins, or until the TAF's own validity end.
func closeOpenEndedGroups(p *Parsed) {
	for i := range p.Groups {
		if p.Groups[i].Kind != GroupFM || !p.Groups[i].To.IsZero() {
			continue
		}
		end := p.ValidTo
		if i+1 < len(p.Groups) {
			end = p.Groups[i+1].From
		}
		p.Groups[i].To = end
	}
}

func isGroupMarker(tok string) bool {
	if tok == "BECMG" || tok == "TEMPO" {
		return true
	}
	if fmGroupRe.MatchString(tok) || probGroupRe.MatchString(tok) {
		return true
	}
	return false
}

// parseGroup consumes one forecast group starting at idx: the marker token
// (FM.../BECMG/TEMPO/PROBnn), its validity spec, and every structured-field
// token up to (but not including) the next group marker or end of input.
func parseGroup(tokens []string, idx int, anchor time.Time, reg *wx.TokenRegistry) (Group, int, bool) {
	start := idx
	var g Group

	switch {
	case fmGroupRe.MatchString(tokens[idx]):
		m := fmGroupRe.FindStringSubmatch(tokens[idx])
		day, _ := strconv.Atoi(m[1])
		hour, _ := strconv.Atoi(m[2])
		min, _ := strconv.Atoi(m[3])
		g.Kind = GroupFM
		g.From = rollForward(anchor, day, hour)
		g.From = g.From.Add(time.Duration(min) * time.Minute)
		idx++

	case tokens[idx] == "BECMG", tokens[idx] == "TEMPO":
		kind := GroupBECMG
		if tokens[idx] == "TEMPO" {
			kind = GroupTEMPO
		}
		g.Kind = kind
		idx++
		if idx < len(tokens) && rangeGroupRe.MatchString(tokens[idx]) {
			m := rangeGroupRe.FindStringSubmatch(tokens[idx])
			fromDay, _ := strconv.Atoi(m[1])
			fromHour, _ := strconv.Atoi(m[2])
			toDay, _ := strconv.Atoi(m[3])
			toHour, _ := strconv.Atoi(m[4])
			g.From = rollForward(anchor, fromDay, fromHour)
			g.To = rollForward(g.From, toDay, toHour)
			idx++
		}

	case probGroupRe.MatchString(tokens[idx]):
		m := probGroupRe.FindStringSubmatch(tokens[idx])
		pct, _ := strconv.Atoi(m[1])
		g.Kind = GroupPROB
		g.Probability = wx.Known(pct)
		idx++
		if idx < len(tokens) && tokens[idx] == "TEMPO" {
			idx++
		}
		if idx < len(tokens) && rangeGroupRe.MatchString(tokens[idx]) {
			m := rangeGroupRe.FindStringSubmatch(tokens[idx])
			fromDay, _ := strconv.Atoi(m[1])
			fromHour, _ := strconv.Atoi(m[2])
			toDay, _ := strconv.Atoi(m[3])
			toHour, _ := strconv.Atoi(m[4])
			g.From = rollForward(anchor, fromDay, fromHour)
			g.To = rollForward(g.From, toDay, toHour)
			idx++
		}

	default:
		return Group{}, 0, false
	}

	for idx < len(tokens) {
		tok := tokens[idx]
		if isGroupMarker(tok) {
			break
		}
		if consumed, ok, _ := reg.Dispatch(tokens, idx, &g.Block); ok {
			idx += consumed
			continue
		}
		idx++
	}

	return g, idx - start, true
}

// reconstruct rebuilds a UTC timestamp from a DDHHMM triple the way
// internal/metar does, except maxFutureHours lets the TAF validity window
// use its own rollover tolerance (Parse passes 36h) instead of METAR's 48h
// default; pass 0 to use 48h.
func reconstruct(now time.Time, day, hour, min, maxFutureHours int) time.Time {
	if maxFutureHours == 0 {
		maxFutureHours = 48
	}
	now = now.UTC()
	candidate := time.Date(now.Year(), now.Month(), day, hour, min, 0, 0, time.UTC)
	if candidate.After(now.Add(time.Duration(maxFutureHours) * time.Hour)) {
		candidate = candidate.AddDate(0, -1, 0)
	}
	return candidate
}

// rollForward builds a timestamp for the (day, hour) pair in anchor's month,
// rolling into the next month only when that lands more than 36h before
// anchor, i.e. when day-of-month has wrapped (e.g. anchor on the 30th,
// group's day is "01"). A result up to 36h before anchor is kept as is.
func rollForward(anchor time.Time, day, hour int) time.Time {
	hourOnly := hour
	if hour == 24 {
		hourOnly = 0
	}
	candidate := time.Date(anchor.Year(), anchor.Month(), day, hourOnly, 0, 0, 0, time.UTC)
	if hour == 24 {
		candidate = candidate.AddDate(0, 0, 1)
	}
	if candidate.Before(anchor.Add(-36 * time.Hour)) {
		candidate = candidate.AddDate(0, 1, 0)
	}
	return candidate
}

// ParseError reports a wholly unparseable TAF header (spec §4.2).
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "taf: parse error: " + e.Reason
}
