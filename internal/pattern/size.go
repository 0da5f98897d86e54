// Package pattern compiles pattern expressions (Blank, BlankSequence,
// Pattern, Alternatives, and the rest of the pattern vocabulary) into a
// tree of matcher nodes, and runs that tree against candidate expressions
// with a backtracking, continuation-passing matcher.
package pattern

import "math"

// matchSizeMax stands in for "unbounded" in size-interval arithmetic
// without risking overflow when two unbounded sizes are added.
const matchSizeMax = math.MaxInt64 >> 2

// MatchSize is the [min,max] interval of leaf counts a pattern node can
// consume from a sequence. Combining two nodes' sizes (Add) gives the
// combined interval for matching them back to back. The matcher itself
// never calls Add; it consults single-node sizes only (Repeated's count
// bound and the Flat regrouping's fixed-slot check).
type MatchSize struct {
	Min, Max int64
}

// Exactly returns the interval for a pattern that always consumes exactly n leaves.
func Exactly(n int64) MatchSize { return MatchSize{Min: n, Max: n} }

// AtLeast returns the interval for a pattern that consumes n or more leaves.
func AtLeast(n int64) MatchSize { return MatchSize{Min: n, Max: matchSizeMax} }

// Between returns the interval for a pattern that consumes between min and max leaves, inclusive.
func Between(min, max int64) MatchSize { return MatchSize{Min: min, Max: max} }

// Contains reports whether s leaves is a legal count for this interval.
func (m MatchSize) Contains(s int64) bool { return s >= m.Min && s <= m.Max }

// Unbounded reports whether the interval has no finite upper bound.
func (m MatchSize) Unbounded() bool { return m.Max >= matchSizeMax }

// Fixed returns the exact size and true when min == max.
func (m MatchSize) Fixed() (int64, bool) {
	if m.Min == m.Max {
		return m.Min, true
	}
	return 0, false
}

// Add combines two intervals as "this many, then that many", saturating at matchSizeMax.
func (m MatchSize) Add(o MatchSize) MatchSize {
	out := MatchSize{Min: m.Min + o.Min}
	if m.Unbounded() || o.Unbounded() {
		out.Max = matchSizeMax
	} else {
		out.Max = m.Max + o.Max
	}
	return out
}
