// Package metar implements the pragmatic METAR parser from spec §4.1: a
// hand-written tokenizer plus per-family recognizers (internal/wx), in
// recognition order, skipping unknown tokens rather than failing on them.
package metar

import (
	"strconv"
	"time"

	"fsweatherbridge/internal/wx"
)

// Parsed is the decoded shape of one METAR report (spec §3's ParsedMetar).
type Parsed struct {
	ICAO     string
	IssuedAt wx.Field[time.Time]
	Auto     bool
	Cor      bool
	Nil      bool
	Block    wx.Block
	Raw      string
}

// ParseError reports where and why tokenization gave up entirely — reserved
// for inputs with no recognizable header (spec §4.1: a wholly unparseable
// report is dropped and logged, it does not panic the tokenizer).
type ParseError struct {
	Position int
	Reason   string
}

func (e *ParseError) Error() string {
	return "metar: parse error at token " + strconv.Itoa(e.Position) + ": " + e.Reason
}
