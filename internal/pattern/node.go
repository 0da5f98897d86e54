package pattern

import (
	"symkernel/internal/expr"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

// Continuation is called by a Node's Match with the sequence position
// reached after it consumed its leaves. Returning false asks the node to
// try a different consumption (a different length for a sequence node, a
// different permutation, a different Alternatives branch); returning true
// commits to that choice and unwinds the whole call stack with success.
type Continuation func(pos int) bool

// Node is one compiled pattern construct. Every node knows the range of
// leaf counts it can consume (Size) and can attempt a match starting at a
// sequence position, trying every legal consumption in turn until either
// the continuation accepts one or every possibility is exhausted.
type Node interface {
	Size() MatchSize
	Match(ctx *MatchContext, seq []value.Value, pos int, k Continuation) bool
}

// sequenceSymbol bundles consumed leaves of a BlankSequence/Repeated span
// into a single value the way Pattern needs it: one leaf stays itself,
// several become Sequence[...] so RuleDelayed substitution can splice them
// back into an argument list.
var sequenceSymbol = symbol.Lookup("System`Sequence")

// candidateHeadName is what a Blank[head] constraint actually tests
// against. It differs from Value.HeadName in exactly one case: a bare
// symbol's HeadName is its own short name (the concept expr.Expression's
// head-dispatch needs when the symbol is used as a compound head), but a
// pattern like _Symbol must match ANY bare symbol, the way Head[x] for a
// bare symbol x reports the generic tag Symbol. So Blank-family matching
// asks this helper instead of HeadName directly.
func candidateHeadName(v value.Value) string {
	if _, ok := v.(*symbol.Symbol); ok {
		return "Symbol"
	}
	return v.HeadName()
}

func bundleSpan(leaves []value.Value) value.Value {
	if len(leaves) == 1 {
		return leaves[0]
	}
	return expr.New(sequenceSymbol, leaves...)
}

// literalNode matches a single leaf that is SameQ to a fixed value — any
// pattern-free sub-expression compiles down to this.
type literalNode struct{ v value.Value }

func (n *literalNode) Size() MatchSize { return Exactly(1) }

func (n *literalNode) Match(ctx *MatchContext, seq []value.Value, pos int, k Continuation) bool {
	if pos >= len(seq) || !seq[pos].SameQ(n.v) {
		return false
	}
	return k(pos + 1)
}

// blankNode is Blank[] / Blank[head] / _ / _head: matches exactly one
// leaf, optionally constrained to a head name.
type blankNode struct{ head string }

func (n *blankNode) Size() MatchSize { return Exactly(1) }

func (n *blankNode) Match(ctx *MatchContext, seq []value.Value, pos int, k Continuation) bool {
	if pos >= len(seq) {
		return false
	}
	if n.head != "" && candidateHeadName(seq[pos]) != n.head {
		return false
	}
	return k(pos + 1)
}

// spanNode is BlankSequence[]/BlankSequence[head] (min 1) or
// BlankNullSequence[]/BlankNullSequence[head] (min 0): matches a run of
// one-or-more (or zero-or-more) consecutive leaves, each satisfying the
// optional head constraint. Longest tries the longest run first (the
// default); Shortest tries the shortest run first.
type spanNode struct {
	head     string
	min      int64
	shortest bool
}

func (n *spanNode) Size() MatchSize { return AtLeast(n.min) }

func (n *spanNode) Match(ctx *MatchContext, seq []value.Value, pos int, k Continuation) bool {
	maxRun := int64(len(seq) - pos)
	if maxRun < n.min {
		return false
	}
	try := func(count int64) bool {
		for i := int64(0); i < count; i++ {
			if n.head != "" && candidateHeadName(seq[pos+int(i)]) != n.head {
				return false
			}
		}
		return k(pos + int(count))
	}
	if n.shortest {
		for count := n.min; count <= maxRun; count++ {
			if try(count) {
				return true
			}
		}
	} else {
		for count := maxRun; count >= n.min; count-- {
			if try(count) {
				return true
			}
		}
	}
	return false
}

// patternNode is Pattern[name, inner] (x_ sugar): on every successful
// inner match it binds name to whatever span inner consumed, subject to
// the usual repeated-variable consistency rule.
type patternNode struct {
	name  string
	inner Node
}

func (n *patternNode) Size() MatchSize { return n.inner.Size() }

func (n *patternNode) Match(ctx *MatchContext, seq []value.Value, pos int, k Continuation) bool {
	return n.inner.Match(ctx, seq, pos, func(newPos int) bool {
		mark := ctx.Bindings.Mark()
		if !ctx.Bindings.bindOrCheck(n.name, bundleSpan(seq[pos:newPos])) {
			ctx.Bindings.Reset(mark)
			return false
		}
		if k(newPos) {
			return true
		}
		ctx.Bindings.Reset(mark)
		return false
	})
}

// alternativesNode is Alternatives[p1, p2, ...]: tries each branch in
// order, first success wins.
type alternativesNode struct{ branches []Node }

func (n *alternativesNode) Size() MatchSize {
	if len(n.branches) == 0 {
		return Exactly(0)
	}
	out := n.branches[0].Size()
	for _, b := range n.branches[1:] {
		s := b.Size()
		if s.Min < out.Min {
			out.Min = s.Min
		}
		if s.Max > out.Max {
			out.Max = s.Max
		}
	}
	return out
}

func (n *alternativesNode) Match(ctx *MatchContext, seq []value.Value, pos int, k Continuation) bool {
	for _, b := range n.branches {
		mark := ctx.Bindings.Mark()
		if b.Match(ctx, seq, pos, k) {
			return true
		}
		ctx.Bindings.Reset(mark)
	}
	return false
}

// exceptNode is Except[p] (size 1, matches anything p doesn't) or
// Except[p, q] (matches q provided p doesn't also match).
type exceptNode struct {
	excluded Node
	fallback Node // nil for the one-argument form (fallback = generic Blank)
}

func (n *exceptNode) Size() MatchSize {
	if n.fallback != nil {
		return n.fallback.Size()
	}
	return Exactly(1)
}

func (n *exceptNode) Match(ctx *MatchContext, seq []value.Value, pos int, k Continuation) bool {
	excludes := func(count int) bool {
		mark := ctx.Bindings.Mark()
		matched := n.excluded.Match(ctx, seq, pos, func(p int) bool { return p == pos+count })
		ctx.Bindings.Reset(mark)
		return matched
	}
	if n.fallback != nil {
		return n.fallback.Match(ctx, seq, pos, func(newPos int) bool {
			if excludes(newPos - pos) {
				return false
			}
			return k(newPos)
		})
	}
	if pos >= len(seq) || excludes(1) {
		return false
	}
	return k(pos + 1)
}

// patternTestNode is PatternTest[inner, test] (x_?test): after inner
// matches, test[span] must evaluate to True.
type patternTestNode struct {
	inner Node
	test  value.Value
}

func (n *patternTestNode) Size() MatchSize { return n.inner.Size() }

func (n *patternTestNode) Match(ctx *MatchContext, seq []value.Value, pos int, k Continuation) bool {
	return n.inner.Match(ctx, seq, pos, func(newPos int) bool {
		if ctx.Eval == nil {
			return false
		}
		ok, err := ctx.Eval.ApplyTest(n.test, bundleSpan(seq[pos:newPos]))
		if err != nil || !ok {
			return false
		}
		return k(newPos)
	})
}

// conditionNode is Condition[inner, cond] (inner /; cond): after inner
// matches and binds its variables, cond is evaluated with those bindings
// substituted in and must be True.
type conditionNode struct {
	inner Node
	cond  value.Value
}

func (n *conditionNode) Size() MatchSize { return n.inner.Size() }

func (n *conditionNode) Match(ctx *MatchContext, seq []value.Value, pos int, k Continuation) bool {
	return n.inner.Match(ctx, seq, pos, func(newPos int) bool {
		if ctx.Eval == nil {
			return false
		}
		ok, err := ctx.Eval.EvalCondition(n.cond, ctx.Bindings)
		if err != nil || !ok {
			return false
		}
		return k(newPos)
	})
}

// optionalNode is Optional[inner, default] (x_. with a default, or an
// explicit Optional[patt, default]): consumes one leaf matching inner if
// present, or zero leaves and binds inner's variable to default if
// inner is a Pattern wrapping a Blank.
type optionalNode struct {
	inner   Node
	name    string // "" if inner isn't a bare Pattern
	defaultValue value.Value
}

func (n *optionalNode) Size() MatchSize { return Between(0, 1) }

func (n *optionalNode) Match(ctx *MatchContext, seq []value.Value, pos int, k Continuation) bool {
	if pos < len(seq) {
		mark := ctx.Bindings.Mark()
		if n.inner.Match(ctx, seq, pos, k) {
			return true
		}
		ctx.Bindings.Reset(mark)
	}
	if n.name == "" {
		return k(pos)
	}
	mark := ctx.Bindings.Mark()
	if !ctx.Bindings.bindOrCheck(n.name, n.defaultValue) {
		ctx.Bindings.Reset(mark)
		return false
	}
	if k(pos) {
		return true
	}
	ctx.Bindings.Reset(mark)
	return false
}

// optionsPatternNode is OptionsPattern[] / OptionsPattern[f]: consumes
// every remaining leaf that is Rule[...]/RuleDelayed[...]-headed, bundles
// them into a List, and (if named via Pattern) binds that list.
type optionsPatternNode struct{ name string }

func (n *optionsPatternNode) Size() MatchSize { return AtLeast(0) }

func (n *optionsPatternNode) Match(ctx *MatchContext, seq []value.Value, pos int, k Continuation) bool {
	end := pos
	for end < len(seq) {
		h := seq[end].HeadName()
		if h != "Rule" && h != "RuleDelayed" {
			break
		}
		end++
	}
	if n.name == "" {
		return k(end)
	}
	mark := ctx.Bindings.Mark()
	listSym := symbol.Lookup("System`List")
	if !ctx.Bindings.bindOrCheck(n.name, expr.New(listSym, seq[pos:end]...)) {
		ctx.Bindings.Reset(mark)
		return false
	}
	if k(end) {
		return true
	}
	ctx.Bindings.Reset(mark)
	return false
}

// repeatedNode is Repeated[p] (min 1) or RepeatedNull[p] (min 0): matches
// zero/one-or-more back-to-back copies of inner, up to max. compileRepeated
// accepts no {min,max} spec, so max is always unbounded.
type repeatedNode struct {
	inner    Node
	min, max int64
	shortest bool
}

func (n *repeatedNode) Size() MatchSize {
	innerSize := n.inner.Size()
	lo := innerSize.Min * n.min
	var hi int64
	if innerSize.Unbounded() || n.max >= matchSizeMax {
		hi = matchSizeMax
	} else {
		hi = innerSize.Max * n.max
	}
	return MatchSize{Min: lo, Max: hi}
}

// reps tries to match exactly count back-to-back copies of inner starting
// at pos, then invokes k with the position after all of them.
func (n *repeatedNode) reps(ctx *MatchContext, seq []value.Value, pos int, count int64, k Continuation) bool {
	if count == 0 {
		return k(pos)
	}
	return n.inner.Match(ctx, seq, pos, func(newPos int) bool {
		return n.reps(ctx, seq, newPos, count-1, k)
	})
}

func (n *repeatedNode) Match(ctx *MatchContext, seq []value.Value, pos int, k Continuation) bool {
	remaining := int64(len(seq) - pos)
	maxCount := n.max
	if innerMin := n.inner.Size().Min; innerMin > 0 {
		if byLen := remaining / innerMin; byLen < maxCount {
			maxCount = byLen
		}
	}
	try := func(count int64) bool {
		mark := ctx.Bindings.Mark()
		if n.reps(ctx, seq, pos, count, k) {
			return true
		}
		ctx.Bindings.Reset(mark)
		return false
	}
	if n.shortest {
		for c := n.min; c <= maxCount; c++ {
			if try(c) {
				return true
			}
		}
	} else {
		for c := maxCount; c >= n.min; c-- {
			if try(c) {
				return true
			}
		}
	}
	return false
}

// expressionNode matches a compound pattern head[leafPatterns...] against
// a single compound candidate leaf.
type expressionNode struct {
	head   Node
	leaves []Node
}

func (n *expressionNode) Size() MatchSize { return Exactly(1) }

func (n *expressionNode) Match(ctx *MatchContext, seq []value.Value, pos int, k Continuation) bool {
	if pos >= len(seq) {
		return false
	}
	ce, ok := seq[pos].(*expr.Expression)
	if !ok {
		return false
	}
	headSlice := []value.Value{ce.Head()}
	headMatched := n.head.Match(ctx, headSlice, 0, func(p int) bool { return p == 1 })
	if !headMatched {
		return false
	}
	leaves := ce.Materialize()
	var attrs symbol.Attributes
	if sym, ok := ce.Head().(*symbol.Symbol); ok {
		attrs = sym.Attributes()
	}
	if matchLeaves(ctx, n.leaves, leaves, attrs, ce.Head()) {
		return k(pos + 1)
	}
	return false
}
