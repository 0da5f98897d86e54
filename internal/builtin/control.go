package builtin

import (
	"symkernel/internal/atom"
	"symkernel/internal/eval"
	"symkernel/internal/expr"
	"symkernel/internal/pattern"
	"symkernel/internal/rewrite"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

// setHandler is Set[lhs, rhs] (lhs held, rhs already evaluated): an
// own-value for a bare symbol, a down-value for f[...], a sub-value for
// f[...][...]. Returns rhs, the conventional value of an assignment.
func setHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 2 {
		return nil, false, nil
	}
	// A failed (Protected-target) assignment still returns rhs; the
	// message has already been reported inside assign.
	assign(ev, e.Leaf(0), e.Leaf(1))
	return e.Leaf(1), true, nil
}

// setDelayedHandler is SetDelayed[lhs, rhs] (both held): same targets as
// Set but the right side stays unevaluated until a match fires. Returns
// Null.
func setDelayedHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 2 {
		return nil, false, nil
	}
	assign(ev, e.Leaf(0), e.Leaf(1))
	return sys("Null"), true, nil
}

// assign routes an assignment to the right store. A Protected target
// reports Set::write; the caller still returns the conventional value so
// evaluation continues.
func assign(ev *eval.Evaluator, lhs, rhs value.Value) error {
	switch t := lhs.(type) {
	case *symbol.Symbol:
		if err := t.SetOwnValue(rhs); err != nil {
			ev.Message(sys("Set"), "write", t, lhs)
			return err
		}
		return nil
	case *expr.Expression:
		base := baseOf(t)
		if base == nil {
			return nil
		}
		kind := symbol.DownRule
		if _, compound := t.Head().(*expr.Expression); compound {
			kind = symbol.SubRule
		}
		if err := base.AddRule(kind, t, rhs); err != nil {
			ev.Message(sys("Set"), "write", base, lhs)
			return err
		}
		return nil
	default:
		return nil
	}
}

func baseOf(e *expr.Expression) *symbol.Symbol {
	var v value.Value = e.Head()
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

// unsetHandler is Unset[lhs] (held): removes the matching definition.
func unsetHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 1 {
		return nil, false, nil
	}
	switch t := e.Leaf(0).(type) {
	case *symbol.Symbol:
		t.ClearOwnValue()
	case *expr.Expression:
		if base := baseOf(t); base != nil {
			kind := symbol.DownRule
			if _, compound := t.Head().(*expr.Expression); compound {
				kind = symbol.SubRule
			}
			base.RemoveRule(kind, t)
		}
	}
	return sys("Null"), true, nil
}

// ifHandler is If[cond, then], If[cond, then, else] and the four-argument
// form with an undecidable branch. The branches are held; returning one
// hands it to the evaluator's next pass.
func ifHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() < 2 || e.Size() > 4 {
		return nil, false, nil
	}
	cond := e.Leaf(0)
	switch {
	case cond.SameQ(sys("True")):
		return e.Leaf(1), true, nil
	case cond.SameQ(sys("False")):
		if e.Size() >= 3 {
			return e.Leaf(2), true, nil
		}
		return sys("Null"), true, nil
	default:
		if e.Size() == 4 {
			return e.Leaf(3), true, nil
		}
		return nil, false, nil
	}
}

// compoundHandler is CompoundExpression[e1; e2; ...]: evaluates each in
// order, returning the last one's value.
func compoundHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() == 0 {
		return sys("Null"), true, nil
	}
	var last value.Value = sys("Null")
	for i := 0; i < e.Size(); i++ {
		v, err := ev.EvalAt(e.Leaf(i), depth+1)
		if err != nil {
			return nil, false, err
		}
		last = v
	}
	return last, true, nil
}

func boolSymbol(b bool) *symbol.Symbol {
	if b {
		return sys("True")
	}
	return sys("False")
}

// sameQHandler is SameQ[a, b, ...]: bit-exact structural equality across
// every pair of neighbors.
func sameQHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() < 2 {
		return sys("True"), true, nil
	}
	for i := 1; i < e.Size(); i++ {
		if !e.Leaf(i - 1).SameQ(e.Leaf(i)) {
			return sys("False"), true, nil
		}
	}
	return sys("True"), true, nil
}

// decideEqual is the three-way numeric Equal: defined for numbers
// (tolerant comparison for inexact reals), for structurally equal values,
// and for two distinct atoms of the same non-symbol kind (unequal);
// undecidable otherwise (symbolic operands stay unevaluated).
func decideEqual(a, b value.Value) (equal, decided bool) {
	if atom.IsNumber(a) && atom.IsNumber(b) {
		eq, ok := a.(value.Equaler)
		if ok {
			return eq.NumericEqual(b), true
		}
	}
	if a.SameQ(b) {
		return true, true
	}
	// Two distinct atoms of the same concrete kind compare decidably
	// unequal; a symbol vs anything stays open (it may later evaluate).
	if a.Kind() == b.Kind() && a.Kind() != value.KindSymbol && a.Kind() != value.KindExpression {
		return false, true
	}
	if atom.IsNumber(a) && atom.IsNumber(b) {
		return false, true
	}
	return false, false
}

func equalHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() < 2 {
		return sys("True"), true, nil
	}
	for i := 1; i < e.Size(); i++ {
		eq, decided := decideEqual(e.Leaf(i-1), e.Leaf(i))
		if !decided {
			return nil, false, nil
		}
		if !eq {
			return sys("False"), true, nil
		}
	}
	return sys("True"), true, nil
}

func unequalHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 2 {
		return nil, false, nil
	}
	eq, decided := decideEqual(e.Leaf(0), e.Leaf(1))
	if !decided {
		return nil, false, nil
	}
	return boolSymbol(!eq), true, nil
}

// compiledReplacement is one prepared rule of a ReplaceAll application.
type compiledReplacement struct {
	matcher  *pattern.Matcher
	template *rewrite.Template
}

// replaceAllHandler is ReplaceAll[expr, rule] / ReplaceAll[expr, {rules}]
// (expr /. rules): each subexpression, scanned top-down, is replaced by
// the first rule that matches it; replaced subtrees are not re-scanned.
func replaceAllHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 2 {
		return nil, false, nil
	}
	rules, err := gatherRules(e.Leaf(1))
	if err != nil {
		return nil, false, err
	}
	if rules == nil {
		return nil, false, nil
	}
	out := applyRulesDeep(ev, e.Leaf(0), rules, depth)
	return out, true, nil
}

func gatherRules(v value.Value) ([]compiledReplacement, error) {
	var ruleExprs []*expr.Expression
	switch t := v.(type) {
	case *expr.Expression:
		switch t.HeadName() {
		case "Rule", "RuleDelayed":
			ruleExprs = []*expr.Expression{t}
		case "List":
			for i := 0; i < t.Size(); i++ {
				r, ok := t.Leaf(i).(*expr.Expression)
				if !ok || (r.HeadName() != "Rule" && r.HeadName() != "RuleDelayed") || r.Size() != 2 {
					return nil, nil
				}
				ruleExprs = append(ruleExprs, r)
			}
		default:
			return nil, nil
		}
	default:
		return nil, nil
	}
	out := make([]compiledReplacement, 0, len(ruleExprs))
	for _, r := range ruleExprs {
		if r.Size() != 2 {
			return nil, nil
		}
		m, err := pattern.Compile(r.Leaf(0))
		if err != nil {
			return nil, err
		}
		out = append(out, compiledReplacement{matcher: m, template: rewrite.Compile(r.Leaf(1))})
	}
	return out, nil
}

func applyRulesDeep(ev *eval.Evaluator, v value.Value, rules []compiledReplacement, depth int) value.Value {
	for _, r := range rules {
		ctx, release := pattern.AcquireMatchContext(ev.TestEvaluatorAt(depth))
		if r.matcher.MatchValue(ctx, v) {
			out, err := rewrite.Substitute(r.template, ctx.Bindings)
			release()
			if err == nil {
				return out
			}
			continue
		}
		release()
	}
	e, ok := v.(*expr.Expression)
	if !ok {
		return v
	}
	head := applyRulesDeep(ev, e.Head(), rules, depth)
	leaves := e.Materialize()
	changed := !head.SameQ(e.Head())
	for i, l := range leaves {
		nl := applyRulesDeep(ev, l, rules, depth)
		if nl != l {
			leaves[i] = nl
			changed = true
		}
	}
	if !changed {
		return e
	}
	return expr.New(head, leaves...)
}

// attributeBits maps surface attribute names to their bitset values.
var attributeBits = map[string]symbol.Attributes{
	"Orderless":       symbol.Orderless,
	"Flat":            symbol.Flat,
	"OneIdentity":     symbol.OneIdentity,
	"Listable":        symbol.Listable,
	"Constant":        symbol.Constant,
	"NumericFunction": symbol.NumericFunction,
	"Protected":       symbol.Protected,
	"Locked":          symbol.Locked,
	"ReadProtected":   symbol.ReadProtected,
	"HoldFirst":       symbol.HoldFirst,
	"HoldRest":        symbol.HoldRest,
	"HoldAll":         symbol.HoldAll,
	"HoldAllComplete": symbol.HoldAllComplete,
	"NHoldFirst":      symbol.NHoldFirst,
	"NHoldRest":       symbol.NHoldRest,
	"NHoldAll":        symbol.NHoldAll,
	"SequenceHold":    symbol.SequenceHold,
	"Temporary":       symbol.Temporary,
	"Stub":            symbol.Stub,
}

// attributeNames is the presentation order for Attributes[f].
var attributeNames = []string{
	"Constant", "Flat", "HoldAll", "HoldAllComplete", "HoldFirst",
	"HoldRest", "Listable", "Locked", "NHoldAll", "NHoldFirst",
	"NHoldRest", "NumericFunction", "OneIdentity", "Orderless",
	"Protected", "ReadProtected", "SequenceHold", "Stub", "Temporary",
}

func attributesHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 1 {
		return nil, false, nil
	}
	target, ok := e.Leaf(0).(*symbol.Symbol)
	if !ok {
		return nil, false, nil
	}
	attrs := target.Attributes()
	var names []value.Value
	for _, n := range attributeNames {
		if attrs.Has(attributeBits[n]) {
			names = append(names, sys(n))
		}
	}
	return expr.New(sys("List"), names...), true, nil
}

// parseAttributeSpec accepts a single attribute symbol or a List of them.
func parseAttributeSpec(v value.Value) (symbol.Attributes, bool) {
	switch t := v.(type) {
	case *symbol.Symbol:
		bits, ok := attributeBits[t.ShortName()]
		return bits, ok
	case *expr.Expression:
		if t.HeadName() != "List" {
			return 0, false
		}
		var out symbol.Attributes
		for i := 0; i < t.Size(); i++ {
			sym, ok := t.Leaf(i).(*symbol.Symbol)
			if !ok {
				return 0, false
			}
			bits, ok := attributeBits[sym.ShortName()]
			if !ok {
				return 0, false
			}
			out |= bits
		}
		return out, true
	default:
		return 0, false
	}
}

func setAttributesHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 2 {
		return nil, false, nil
	}
	target, ok := e.Leaf(0).(*symbol.Symbol)
	if !ok {
		return nil, false, nil
	}
	bits, ok := parseAttributeSpec(e.Leaf(1))
	if !ok {
		return nil, false, nil
	}
	if err := target.SetAttributes(target.Attributes() | bits); err != nil {
		ev.Message(sys("SetAttributes"), "locked", target)
	}
	return sys("Null"), true, nil
}

func clearAttributesHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 2 {
		return nil, false, nil
	}
	target, ok := e.Leaf(0).(*symbol.Symbol)
	if !ok {
		return nil, false, nil
	}
	bits, ok := parseAttributeSpec(e.Leaf(1))
	if !ok {
		return nil, false, nil
	}
	if err := target.SetAttributes(target.Attributes() &^ bits); err != nil {
		ev.Message(sys("ClearAttributes"), "locked", target)
	}
	return sys("Null"), true, nil
}
