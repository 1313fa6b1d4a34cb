package wx

import "sort"

// Recognizer is one METAR/TAF token family (spec §4.1's "regex families,
// consumed in order"): wind, visibility, clouds, present weather, and so on.
// This mirrors the teacher's parser-dispatch registry (a parser per ACARS
// label), generalised from "pick the right parser for a label" to "pick the
// right recognizer for a token family" — same priority-ordered,
// QuickCheck-before-expensive-match dispatch shape, new domain.
type Recognizer interface {
	// Name identifies the recognizer for diagnostics.
	Name() string

	// Priority orders recognizers when more than one's QuickCheck passes at
	// the same position. Lower runs first.
	Priority() int

	// QuickCheck is a cheap pre-filter (no regex) run before Recognize.
	QuickCheck(tok string) bool

	// Recognize attempts to consume one or more tokens starting at idx,
	// mutating b in place. It returns how many tokens were consumed and
	// whether it matched at all. A family that never matches at idx must
	// return (0, false) and leave b untouched.
	Recognize(tokens []string, idx int, b *Block) (consumed int, ok bool)
}

// TokenRegistry holds the recognizer set for one parser (METAR or TAF main
// body / prevailing / forecast group) and dispatches position-by-position.
type TokenRegistry struct {
	recognizers []Recognizer
	sorted      bool
}

// NewTokenRegistry creates an empty registry.
func NewTokenRegistry() *TokenRegistry {
	return &TokenRegistry{}
}

// Register adds a recognizer.
func (r *TokenRegistry) Register(rec Recognizer) {
	r.recognizers = append(r.recognizers, rec)
	r.sorted = false
}

// Sort orders recognizers by ascending priority. Dispatch calls this lazily.
func (r *TokenRegistry) Sort() {
	if r.sorted {
		return
	}
	sort.Slice(r.recognizers, func(i, j int) bool {
		return r.recognizers[i].Priority() < r.recognizers[j].Priority()
	})
	r.sorted = true
}

// Dispatch tries every recognizer (priority order) at tokens[idx], applying
// the first one whose QuickCheck passes and whose Recognize succeeds.
// Unknown tokens are the caller's problem: Dispatch returns (0, false, "")
// and the tokenizer loop skips the token, per spec §4.1 ("unknown tokens are
// skipped, never fatal").
func (r *TokenRegistry) Dispatch(tokens []string, idx int, b *Block) (consumed int, matched bool, name string) {
	r.Sort()
	if idx >= len(tokens) {
		return 0, false, ""
	}
	tok := tokens[idx]
	for _, rec := range r.recognizers {
		if !rec.QuickCheck(tok) {
			continue
		}
		if n, ok := rec.Recognize(tokens, idx, b); ok {
			return n, true, rec.Name()
		}
	}
	return 0, false, ""
}
