package eval

import (
	"symkernel/internal/expr"
	"symkernel/internal/value"
)

// absorbFlat inlines any leaf sharing e's own head into e's own argument
// list, the way a Flat function (Plus, Times, ...) associates: Plus[a,
// Plus[b, c]] becomes Plus[a, b, c] rather than staying nested.
func absorbFlat(e *expr.Expression) *expr.Expression {
	leaves := e.Materialize()
	absorbedAny := false
	for _, l := range leaves {
		if le, ok := l.(*expr.Expression); ok && le.Head().SameQ(e.Head()) {
			absorbedAny = true
			break
		}
	}
	if !absorbedAny {
		return e
	}
	out := make([]value.Value, 0, len(leaves))
	for _, l := range leaves {
		if le, ok := l.(*expr.Expression); ok && le.Head().SameQ(e.Head()) {
			out = append(out, le.Materialize()...)
			continue
		}
		out = append(out, l)
	}
	return expr.New(e.Head(), out...)
}
