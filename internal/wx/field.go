// Package wx holds the weather primitives shared by the METAR parser, the
// TAF parser, the combiner, the smoother and the synthesizer: the
// Known/Absent field type, wind/cloud/visibility representations, and the
// token-family recognizer registry the two parsers dispatch through.
package wx

// Field is the dynamically-typed "absent" slot from spec §9: a value is
// either Known or Absent, and callers must check before reading. The
// combiner's assist mode fills an Absent METAR field from the TAF. The
// smoother does not hold the previous value for an Absent target field: an
// Absent QNH, visibility, temperature, dewpoint or gust in the target
// replaces the current value with Absent. The synthesizer treats Absent as
// "omit token" where METAR grammar allows it.
type Field[T any] struct {
	value T
	known bool
}

// Known wraps a present value.
func Known[T any](v T) Field[T] {
	return Field[T]{value: v, known: true}
}

// Absent returns the absent value of T.
func Absent[T any]() Field[T] {
	return Field[T]{}
}

// Get returns the wrapped value and whether it was known.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.known
}

// IsKnown reports whether the field carries a value.
func (f Field[T]) IsKnown() bool {
	return f.known
}

// Or returns the wrapped value if known, else the supplied default.
func (f Field[T]) Or(def T) T {
	if f.known {
		return f.value
	}
	return def
}
