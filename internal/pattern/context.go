package pattern

import (
	"runtime"

	"symkernel/internal/pool"
	"symkernel/internal/value"
)

// Bindings is the variable table a match fills in: Pattern[name, ...]
// constructs record the value they matched here under name.
//
// It is backed by a flat slice acting as a fixed-slot stack: Mark/Reset
// give O(1) backtracking unwind (truncate back to a saved length) instead
// of the map-delete churn a naive implementation would need on every
// failed branch.
type Bindings struct {
	names  []string
	values []value.Value
}

// Mark returns a checkpoint that Reset can later unwind to.
func (b *Bindings) Mark() int { return len(b.names) }

// Reset truncates the binding stack back to a checkpoint from Mark,
// discarding everything bound after it.
func (b *Bindings) Reset(mark int) {
	b.names = b.names[:mark]
	b.values = b.values[:mark]
}

// Lookup returns the most recently pushed binding for name, if any.
func (b *Bindings) Lookup(name string) (value.Value, bool) {
	for i := len(b.names) - 1; i >= 0; i-- {
		if b.names[i] == name {
			return b.values[i], true
		}
	}
	return nil, false
}

// bind pushes a new binding for name. A name already bound in this branch
// must agree (SameQ) with the existing value — that's Condition's and
// Pattern's consistency rule, enforced by bindOrCheck.
func (b *Bindings) bind(name string, v value.Value) {
	b.names = append(b.names, name)
	b.values = append(b.values, v)
}

// bindOrCheck enforces repeated-variable consistency: x_ + x_ matching
// a+a binds x once; matching a+b must fail the second occurrence.
func (b *Bindings) bindOrCheck(name string, v value.Value) bool {
	if existing, ok := b.Lookup(name); ok {
		return existing.SameQ(v)
	}
	b.bind(name, v)
	return true
}

// Snapshot copies the current bindings out as a plain map, for callers
// (the rewrite engine) that want a stable, backtracking-independent view
// once a match has fully succeeded.
func (b *Bindings) Snapshot() map[string]value.Value {
	out := make(map[string]value.Value, len(b.names))
	for i, n := range b.names {
		out[n] = b.values[i]
	}
	return out
}

// TestEvaluator lets PatternTest and Condition nodes call back into the
// evaluator without this package importing internal/eval (which imports
// this package, and a cycle would follow).
type TestEvaluator interface {
	// ApplyTest evaluates test[candidate] and reports whether it returned True.
	ApplyTest(test, candidate value.Value) (bool, error)
	// EvalCondition substitutes bindings into cond and evaluates it as a boolean test.
	EvalCondition(cond value.Value, bindings *Bindings) (bool, error)
}

// MatchContext carries everything a match needs beyond the two values
// being compared: the binding table, the optional evaluator callback for
// PatternTest/Condition, and a recursion guard shared by the whole match
// attempt.
type MatchContext struct {
	Bindings *Bindings
	Eval     TestEvaluator
	depth    int
	// foldCase switches string-pattern character equality to the
	// case-insensitive mode; set by StringMatcher, never by callers.
	foldCase bool
}

// NewMatchContext starts a fresh match with empty bindings.
func NewMatchContext(eval TestEvaluator) *MatchContext {
	return &MatchContext{Bindings: &Bindings{}, Eval: eval}
}

// ctxPool recycles MatchContext slots. Rule application builds one context
// per attempted rule, which makes this the single hottest transient
// allocation in the rewrite loop, so contexts come from mini-pool arenas
// instead of the heap.
var ctxPool = pool.NewAllocator[MatchContext](runtime.GOMAXPROCS(0))

// AcquireMatchContext is the pooled variant of NewMatchContext. The
// returned release func hands the context's slot back to its arena; the
// context must not be used after release.
func AcquireMatchContext(eval TestEvaluator) (*MatchContext, func()) {
	h := ctxPool.Get()
	ctx := h.Value()
	ctx.Bindings = &Bindings{}
	ctx.Eval = eval
	ctx.depth = 0
	ctx.foldCase = false
	return ctx, h.Release
}
