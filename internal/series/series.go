// Package series expands sparse year→value mappings into one explicit value
// per model year under a selectable interpolation policy. The expansion is
// done at compile time: the output never contains markers standing in for
// "interpolate here", only numeric values.
package series

import (
	"fmt"
	"sort"
)

// Years accepted as plausible. Model years are four-digit calendar years;
// anything outside this window indicates a malformed source document.
const (
	MinYear = 1000
	MaxYear = 9999
)

// Policy selects how gaps between sparse points are filled.
type Policy string

const (
	// PolicyLinear interpolates between points and extrapolates beyond the
	// boundary points by continuing the boundary segment's slope.
	PolicyLinear Policy = "linear"

	// PolicyStep is a right-continuous step function: a point's value holds
	// from its year until the next point. Years before the first point take
	// the first point's value.
	PolicyStep Policy = "step"

	// PolicyHold takes the first point's value strictly before the first
	// point and the last point's value strictly after the last. Between two
	// interior points the earlier point's value holds until the next point
	// is reached.
	PolicyHold Policy = "hold"
)

// ValidPolicy reports whether p is a known interpolation policy.
func ValidPolicy(p Policy) bool {
	return p == PolicyLinear || p == PolicyStep || p == PolicyHold
}

// Point is one sparse (year, value) entry.
type Point struct {
	Year  int
	Value float64
}

// Series is a sparse year→value mapping. Years must be strictly increasing;
// FromMap always produces that ordering.
type Series []Point

// FromMap builds a Series from a year→value map, sorted by year.
func FromMap(m map[int]float64) Series {
	s := make(Series, 0, len(m))
	for y, v := range m {
		s = append(s, Point{Year: y, Value: v})
	}
	sort.Slice(s, func(i, j int) bool { return s[i].Year < s[j].Year })
	return s
}

// Error describes a malformed sparse series or an unexpandable request.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "series: " + e.Message
}

func errorf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// Expand densifies s over the given model years: the result contains exactly
// one value for every year in years. Years that appear in s take the sparse
// value exactly; no drift through interpolation arithmetic.
//
// Expand is a pure function of its inputs and never mutates them.
func Expand(s Series, years []int, policy Policy) (map[int]float64, error) {
	if len(s) == 0 {
		return nil, errorf("empty sparse series")
	}
	if !ValidPolicy(policy) {
		return nil, errorf("unknown interpolation policy %q", policy)
	}
	for i, p := range s {
		if p.Year < MinYear || p.Year > MaxYear {
			return nil, errorf("sparse year %d outside plausible range [%d, %d]", p.Year, MinYear, MaxYear)
		}
		if i > 0 && p.Year <= s[i-1].Year {
			return nil, errorf("sparse years not strictly increasing: %d after %d", p.Year, s[i-1].Year)
		}
	}
	for _, y := range years {
		if y < MinYear || y > MaxYear {
			return nil, errorf("model year %d outside plausible range [%d, %d]", y, MinYear, MaxYear)
		}
	}

	out := make(map[int]float64, len(years))
	for _, y := range years {
		out[y] = valueAt(s, y, policy)
	}
	return out, nil
}

// valueAt computes the densified value for a single year. The series is
// already validated: non-empty, strictly increasing.
func valueAt(s Series, year int, policy Policy) float64 {
	// Exact sparse points always win, under every policy.
	for _, p := range s {
		if p.Year == year {
			return p.Value
		}
	}

	if len(s) == 1 {
		return s[0].Value
	}

	switch policy {
	case PolicyLinear:
		return linearAt(s, year)
	default:
		// Step and hold agree everywhere once exact matches are handled:
		// the most recent earlier point's value holds, and years before the
		// first point take the first point's value.
		return stepAt(s, year)
	}
}

func linearAt(s Series, year int) float64 {
	// Pick the segment to continue: interior years use their bracketing
	// points, boundary years reuse the nearest segment's slope.
	i := sort.Search(len(s), func(i int) bool { return s[i].Year > year })
	lo, hi := i-1, i
	if lo < 0 {
		lo, hi = 0, 1
	}
	if hi >= len(s) {
		lo, hi = len(s)-2, len(s)-1
	}
	p0, p1 := s[lo], s[hi]
	ratio := float64(year-p0.Year) / float64(p1.Year-p0.Year)
	return p0.Value + (p1.Value-p0.Value)*ratio
}

func stepAt(s Series, year int) float64 {
	if year < s[0].Year {
		return s[0].Value
	}
	i := sort.Search(len(s), func(i int) bool { return s[i].Year > year })
	return s[i-1].Value
}
