// Package eval implements the fixed-point rewrite loop: it repeatedly
// evaluates an expression's head and (hold-permitting) its leaves, tries
// the applicable rule tables in specificity order, and keeps going until
// a pass produces no change. It is the seam where internal/pattern and
// internal/rewrite actually get invoked against a symbol's rule tables.
package eval

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"symkernel/internal/expr"
	"symkernel/internal/kernelerr"
	"symkernel/internal/outsink"
	"symkernel/internal/pattern"
	"symkernel/internal/pool"
	"symkernel/internal/rewrite"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

const defaultRecursionLimit = 4096

// BuiltinHandler is an evaluation rule implemented in Go rather than as a
// rewrite rule: it gets first refusal on h[...] before h's DownValues are
// scanned. Returning handled=false passes the expression through to the
// rule tables untouched.
type BuiltinHandler func(ev *Evaluator, e *expr.Expression, depth int) (result value.Value, handled bool, err error)

// Evaluator holds the mutable knobs around an otherwise pure rewrite
// loop: how deep recursive evaluation may go before giving up, a
// cooperative abort flag a REPL's Ctrl-C handler can set from another
// goroutine, an optional deadline, the built-in handler table, and the
// sink diagnostics are reported through.
type Evaluator struct {
	recursionLimit int
	aborted        atomic.Bool
	deadline       atomic.Int64 // unix nanos; 0 = none

	builtinMu sync.RWMutex
	builtins  map[*symbol.Symbol]BuiltinHandler

	sink outsink.Sink
}

// New returns an Evaluator with the default recursion limit.
func New() *Evaluator {
	return &Evaluator{
		recursionLimit: defaultRecursionLimit,
		builtins:       map[*symbol.Symbol]BuiltinHandler{},
		sink:           outsink.NopSink{},
	}
}

// NewWithLimit returns an Evaluator whose recursion limit is overridden,
// mainly for tests that want to observe RecursionLimit without building
// a deeply nested expression.
func NewWithLimit(limit int) *Evaluator {
	ev := New()
	ev.recursionLimit = limit
	return ev
}

// Interrupt requests that any evaluation in progress abort at its next
// cooperative check point; with none in progress, the next top-level
// evaluation aborts at its first check. Eval clears the request once it
// has returned the abort. It is safe to call from another goroutine.
func (ev *Evaluator) Interrupt() { ev.aborted.Store(true) }

// SetDeadline arms a timeout: evaluation past t aborts with an
// InterruptTimeout at its next cooperative check. The zero time disarms.
func (ev *Evaluator) SetDeadline(t time.Time) {
	if t.IsZero() {
		ev.deadline.Store(0)
		return
	}
	ev.deadline.Store(t.UnixNano())
}

// SetSink routes diagnostics; a nil sink silences them.
func (ev *Evaluator) SetSink(s outsink.Sink) {
	if s == nil {
		s = outsink.NopSink{}
	}
	ev.sink = s
}

// Sink returns the evaluator's current diagnostic sink.
func (ev *Evaluator) Sink() outsink.Sink { return ev.sink }

// RegisterBuiltin attaches handler as sym's built-in evaluation rule.
func (ev *Evaluator) RegisterBuiltin(sym *symbol.Symbol, handler BuiltinHandler) {
	ev.builtinMu.Lock()
	defer ev.builtinMu.Unlock()
	ev.builtins[sym] = handler
}

func (ev *Evaluator) builtinFor(sym *symbol.Symbol) (BuiltinHandler, bool) {
	ev.builtinMu.RLock()
	defer ev.builtinMu.RUnlock()
	h, ok := ev.builtins[sym]
	return h, ok
}

// Message reports sym::tag through the sink, expanding the symbol's
// stored message template (if any) with the args' textual forms.
func (ev *Evaluator) Message(sym *symbol.Symbol, tag string, args ...value.Value) {
	texts := make([]string, len(args))
	for i, a := range args {
		texts[i] = a.Text()
	}
	template, ok := sym.Message(tag)
	var body string
	if ok {
		body = outsink.Expand(template.Text(), texts...)
	} else if len(texts) > 0 {
		body = fmt.Sprintf("%s (%v)", tag, texts)
	} else {
		body = tag
	}
	ev.sink.Write(sym.ShortName(), tag, body)
}

// Eval reduces v to a normal form: a fixed point of the rewrite rules
// reachable from v's own structure.
func (ev *Evaluator) Eval(v value.Value) (value.Value, error) {
	out, err := ev.evalDepth(v, 0)
	if err != nil && kernelerr.Is(err, kernelerr.InterruptAbort) {
		ev.aborted.Store(false)
	}
	return out, err
}

func (ev *Evaluator) evalDepth(v value.Value, depth int) (value.Value, error) {
	if ev.aborted.Load() {
		return nil, kernelerr.NewInterrupt(kernelerr.InterruptAbort)
	}
	if d := ev.deadline.Load(); d != 0 && time.Now().UnixNano() > d {
		return nil, kernelerr.NewInterrupt(kernelerr.InterruptTimeout)
	}
	if depth > ev.recursionLimit {
		return nil, kernelerr.NewRecursionLimit(ev.recursionLimit)
	}
	switch t := v.(type) {
	case *symbol.Symbol:
		if ov, ok := t.OwnValue(); ok && !ov.SameQ(t) {
			return ev.evalDepth(ov, depth+1)
		}
		return t, nil
	case *expr.Expression:
		return ev.evalExpression(t, depth)
	default:
		return v, nil
	}
}

func (ev *Evaluator) evalExpression(e *expr.Expression, depth int) (value.Value, error) {
	// Step 1: evaluate the head until stable (a symbol head resolves
	// through its own-value chain, a compound head through full
	// evaluation).
	head, err := ev.evalDepth(e.Head(), depth+1)
	if err != nil {
		return nil, err
	}
	headSym, _ := head.(*symbol.Symbol)

	var attrs symbol.Attributes
	if headSym != nil {
		attrs = headSym.Attributes()
	}
	holdMode := attrs.HoldMode()

	leaves := e.Materialize()
	newLeaves := make([]value.Value, len(leaves))
	for i, leaf := range leaves {
		hold := false
		switch holdMode {
		case symbol.HoldModeAll, symbol.HoldModeAllComplete:
			hold = true
		case symbol.HoldModeFirst:
			hold = i == 0
		case symbol.HoldModeRest:
			hold = i != 0
		}
		if hold {
			newLeaves[i] = leaf
			continue
		}
		v, err := ev.evalDepth(leaf, depth+1)
		if err != nil {
			return nil, err
		}
		newLeaves[i] = v
	}

	if holdMode == symbol.HoldModeAllComplete {
		// HoldAllComplete short-circuits everything below: no sequence
		// flattening, no threading, no rule application.
		return expr.New(head, newLeaves...), nil
	}

	if !attrs.Has(symbol.SequenceHold) {
		newLeaves = spliceSequences(newLeaves)
	}

	current := expr.New(head, newLeaves...)

	if headSym != nil && attrs.Has(symbol.Listable) {
		threaded, ok, err := ev.threadListable(head, current, depth)
		if err != nil {
			return nil, err
		}
		if ok {
			// Threading already produced a fully evaluated List of
			// per-element applications; current is no longer headed by
			// headSym, so none of headSym's own rules or attributes
			// (Orderless, Flat, its rule tables) apply to it anymore.
			return threaded, nil
		}
	}

	if headSym != nil && attrs.Has(symbol.Orderless) {
		current = canonicalizeOrderless(current)
	}

	if headSym != nil && attrs.Has(symbol.Flat) {
		current = absorbFlat(current)
	}

	result, applied, err := ev.applyRules(current, depth)
	if err != nil {
		return nil, err
	}
	if !applied {
		return current, nil
	}
	return ev.evalDepth(result, depth+1)
}

// spliceSequences inlines any leaf that evaluated to a bare Sequence[...]
// expression into the surrounding argument list, the way Mathematica
// flattens Sequence; evaluation skips this step for heads with
// SequenceHold or HoldAllComplete.
func spliceSequences(leaves []value.Value) []value.Value {
	hasSequence := false
	for _, l := range leaves {
		if e, ok := l.(*expr.Expression); ok && e.HeadName() == "Sequence" {
			hasSequence = true
			break
		}
	}
	if !hasSequence {
		return leaves
	}
	out := make([]value.Value, 0, len(leaves))
	for _, l := range leaves {
		if e, ok := l.(*expr.Expression); ok && e.HeadName() == "Sequence" {
			out = append(out, e.Materialize()...)
			continue
		}
		out = append(out, l)
	}
	return out
}

// baseSymbol unwraps nested compound heads (f[a][b] has base symbol f)
// to find the symbol whose rule tables govern this expression.
func baseSymbol(v value.Value) *symbol.Symbol {
	for {
		switch t := v.(type) {
		case *symbol.Symbol:
			return t
		case *expr.Expression:
			v = t.Head()
		default:
			return nil
		}
	}
}

// applyRules tries UpValues attached to the expression's direct leaves,
// then SubValues or DownValues attached to the head's base symbol,
// mirroring the kernel's own lookup order: an argument's UpValue gets
// first refusal, since it was defined to intercept expressions shaped
// around that argument regardless of which function wraps it.
func (ev *Evaluator) applyRules(current *expr.Expression, depth int) (value.Value, bool, error) {
	for i := 0; i < current.Size(); i++ {
		leafBase := baseSymbol(current.Leaf(i))
		if leafBase == nil {
			continue
		}
		v, ok, err := ev.tryRuleTable(leafBase.Rules(symbol.UpRule), current, depth)
		if err != nil || ok {
			return v, ok, err
		}
	}
	base := baseSymbol(current.Head())
	if base == nil {
		return nil, false, nil
	}
	if _, compoundHead := current.Head().(*expr.Expression); compoundHead {
		v, ok, err := ev.tryRuleTable(base.Rules(symbol.SubRule), current, depth)
		if err != nil || ok {
			return v, ok, err
		}
	}
	// A built-in handler attached to the head symbol gets first refusal
	// before the symbol's DownValues are scanned.
	if handler, ok := ev.builtinFor(base); ok {
		v, handled, err := handler(ev, current, depth)
		if err != nil || handled {
			return v, handled, err
		}
	}
	return ev.tryRuleTable(base.Rules(symbol.DownRule), current, depth)
}

// compiledRule caches the compiled matcher and replacement template for a
// *symbol.Rule, stored in the rule's own opaque Compiled field.
type compiledRule struct {
	matcher  *pattern.Matcher
	template *rewrite.Template
}

// compileMu guards the lazy store into symbol.Rule.Compiled against
// concurrent writers (Listable threading may evaluate several leaves, and
// therefore touch the same rule, from multiple goroutines). The compile
// itself runs at most once per distinct pattern+replacement via
// compileCache, so two rules sharing a pattern share one matcher.
var compileMu sync.Mutex

// compileCache collapses concurrent compilations of the same pattern to a
// single retained result, keyed by the pattern's structural hash (plus
// the replacement's, since the cached unit is the pair). Hash collisions
// between distinct patterns would only share a matcher wrongly, so the
// key includes both texts' hashes rather than the texts themselves to
// keep keys short while making accidental aliasing astronomically
// unlikely.
var compileCache = pool.NewOnceCache[*compiledRule]()

func compiledOf(r *symbol.Rule) (*compiledRule, error) {
	compileMu.Lock()
	defer compileMu.Unlock()
	if cr, ok := r.Compiled.(*compiledRule); ok {
		return cr, nil
	}
	key := fmt.Sprintf("%x:%x", r.Pattern.Hash(), r.Replacement.Hash())
	cr, err := compileCache.Get(key, func() (*compiledRule, error) {
		m, err := pattern.Compile(r.Pattern)
		if err != nil {
			return nil, err
		}
		return &compiledRule{matcher: m, template: rewrite.Compile(r.Replacement)}, nil
	})
	if err != nil {
		return nil, err
	}
	r.Compiled = cr
	return cr, nil
}

func (ev *Evaluator) tryRuleTable(rules []*symbol.Rule, candidate value.Value, depth int) (value.Value, bool, error) {
	for _, r := range rules {
		cr, err := compiledOf(r)
		if err != nil {
			return nil, false, err
		}
		ctx, release := pattern.AcquireMatchContext(&testEvaluator{ev: ev, depth: depth})
		if !cr.matcher.MatchValue(ctx, candidate) {
			release()
			continue
		}
		out, err := rewrite.Substitute(cr.template, ctx.Bindings)
		release()
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	}
	return nil, false, nil
}
