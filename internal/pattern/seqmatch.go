package pattern

import (
	"symkernel/internal/expr"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

// maxOrderlessPermute bounds how many leaves Orderless matching will
// permute exhaustively. Above this, only the as-given order is tried — an
// accepted simplification over the unbounded combinatorial search a fully
// general Orderless matcher would need, since real patterns rarely need
// to try every ordering of more than a handful of arguments.
const maxOrderlessPermute = 8

// matchSeq matches nodes[ni:] against leaves[pos:] in strict left-to-right
// order, consuming a varying number of leaves per node via each node's own
// Match, and calls final once every node has been tried.
func matchSeq(ctx *MatchContext, nodes []Node, ni int, leaves []value.Value, pos int, final func(pos int) bool) bool {
	if ni == len(nodes) {
		return final(pos)
	}
	return nodes[ni].Match(ctx, leaves, pos, func(newPos int) bool {
		return matchSeq(ctx, nodes, ni+1, leaves, newPos, final)
	})
}

func allFixedSingle(nodes []Node) bool {
	for _, n := range nodes {
		if m, ok := n.Size().Fixed(); !ok || m != 1 {
			return false
		}
	}
	return true
}

// regroupForFlat approximates Flat absorption for the common case of
// matching every leaf one-for-one against fixed (non-sequence) patterns
// when there are more leaves than patterns: it folds the surplus tail
// leaves into a single synthetic sub-expression under the same head,
// assigned to the last pattern slot. This is not the fully general
// combinatorial regrouping a Flat matcher could attempt (which would also
// try folding the surplus into any slot, or splitting it across several);
// it covers the dominant real-world shape (f[x_, y_] absorbing a longer
// flat run into its last argument) while staying linear-time.
func regroupForFlat(head value.Value, nodes []Node, leaves []value.Value) []value.Value {
	if len(nodes) == 0 || len(leaves) <= len(nodes) || !allFixedSingle(nodes) {
		return leaves
	}
	headTail := len(nodes) - 1
	grouped := expr.New(head, leaves[headTail:]...)
	out := make([]value.Value, 0, len(nodes))
	out = append(out, leaves[:headTail]...)
	out = append(out, grouped)
	return out
}

// matchLeaves matches a compiled leaf-pattern list against a candidate's
// materialized leaves, honoring the head's Orderless and Flat attributes.
func matchLeaves(ctx *MatchContext, nodes []Node, leaves []value.Value, attrs symbol.Attributes, head value.Value) bool {
	if attrs.Has(symbol.Flat) {
		leaves = regroupForFlat(head, nodes, leaves)
	}
	if !attrs.Has(symbol.Orderless) {
		return matchSeq(ctx, nodes, 0, leaves, 0, func(pos int) bool { return pos == len(leaves) })
	}
	if len(leaves) != len(nodes) || len(leaves) > maxOrderlessPermute {
		return matchSeq(ctx, nodes, 0, leaves, 0, func(pos int) bool { return pos == len(leaves) })
	}
	perm := make([]int, len(leaves))
	for i := range perm {
		perm[i] = i
	}
	used := make([]bool, len(leaves))
	order := make([]value.Value, len(leaves))
	var tryPermutation func(depth int) bool
	tryPermutation = func(depth int) bool {
		if depth == len(leaves) {
			mark := ctx.Bindings.Mark()
			if matchSeq(ctx, nodes, 0, order, 0, func(pos int) bool { return pos == len(order) }) {
				return true
			}
			ctx.Bindings.Reset(mark)
			return false
		}
		for i := range leaves {
			if used[i] {
				continue
			}
			used[i] = true
			order[depth] = leaves[i]
			if tryPermutation(depth + 1) {
				return true
			}
			used[i] = false
		}
		return false
	}
	return tryPermutation(0)
}
