package eval

import (
	"golang.org/x/exp/slices"

	"symkernel/internal/expr"
	"symkernel/internal/value"
)

// canonicalizeOrderless sorts an Orderless head's leaves into a total
// order (by Kind, falling back to Hash, falling back to Text) so equal
// multisets of arguments always end up in the same arrangement — a
// prerequisite for SameQ-based deduplication and for pattern matching to
// see a stable leaf order before it starts permuting.
func canonicalizeOrderless(e *expr.Expression) *expr.Expression {
	leaves := e.Materialize()
	if len(leaves) < 2 {
		return e
	}
	sorted := append([]value.Value(nil), leaves...)
	slices.SortFunc(sorted, compareLeaves)
	unchanged := true
	for i := range leaves {
		if leaves[i] != sorted[i] {
			unchanged = false
			break
		}
	}
	if unchanged {
		return e
	}
	return expr.New(e.Head(), sorted...)
}

func compareLeaves(a, b value.Value) int {
	if a.Kind() != b.Kind() {
		if a.Kind() < b.Kind() {
			return -1
		}
		return 1
	}
	ah, bh := a.Hash(), b.Hash()
	if ah != bh {
		if ah < bh {
			return -1
		}
		return 1
	}
	at, bt := a.Text(), b.Text()
	switch {
	case at < bt:
		return -1
	case at > bt:
		return 1
	default:
		return 0
	}
}
