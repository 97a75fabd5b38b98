package ir

import "strconv"

// Value is a sealed interface over the scalar types a row cell may hold.
// Only String, Int, and Float implement it. String interpolation markers are
// never legal cell values; a time-varying quantity must be densified to
// numbers before it reaches the IR.
type Value interface {
	irValue()
	// Literal renders the scalar in its canonical text form.
	Literal() string
}

// String is a text cell value.
type String string

func (String) irValue() {}

// Literal implements Value.
func (v String) Literal() string { return string(v) }

// Int is an integer cell value (years, counts, interpolation-free limits).
type Int int64

func (Int) irValue() {}

// Literal implements Value.
func (v Int) Literal() string { return strconv.FormatInt(int64(v), 10) }

// Float is a numeric parameter cell value (efficiency, cost, fraction...).
// Floats render with the shortest representation that round-trips, so the
// same model always serializes to the same bytes.
type Float float64

func (Float) irValue() {}

// Literal implements Value.
func (v Float) Literal() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }

// Numeric reports whether v is an Int or Float.
func Numeric(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	}
	return false
}
