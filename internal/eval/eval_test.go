package eval

import (
	"testing"

	"symkernel/internal/atom"
	"symkernel/internal/expr"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

func rule(t *testing.T, sym *symbol.Symbol, kind symbol.RuleKind, pattern, replacement value.Value) {
	t.Helper()
	if err := sym.AddRule(kind, pattern, replacement); err != nil {
		t.Fatalf("AddRule: %v", err)
	}
}

func TestDownValueRewritesMatchingExpression(t *testing.T) {
	f := symbol.Lookup("Global`evalF")
	x := symbol.Lookup("Global`evalX")
	rule(t, f, symbol.DownRule,
		expr.New(f, expr.New(symbol.Lookup("System`Pattern"), x, expr.New(symbol.Lookup("System`Blank")))),
		expr.New(symbol.Lookup("System`Plus"), x, atom.MachineInteger(1)))

	ev := New()
	out, err := ev.Eval(expr.New(f, atom.MachineInteger(41)))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	plus, ok := out.(*expr.Expression)
	if !ok || plus.HeadName() != "Plus" {
		t.Fatalf("expected an unevaluated Plus[41, 1] (no Plus DownValue defined), got %v", out)
	}
}

func TestHoldFirstSkipsEvaluatingFirstArgument(t *testing.T) {
	held := symbol.Lookup("Global`evalHeld")
	if err := held.SetAttributes(symbol.HoldFirst); err != nil {
		t.Fatalf("SetAttributes: %v", err)
	}
	inner := symbol.Lookup("Global`evalHeldInner")
	inner.SetAttributes(0)

	unevaluated := expr.New(inner, atom.MachineInteger(1))
	ev := New()
	out, err := ev.Eval(expr.New(held, unevaluated))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	outExpr, ok := out.(*expr.Expression)
	if !ok || outExpr.Size() != 1 {
		t.Fatalf("expected one leaf, got %v", out)
	}
	if !outExpr.Leaf(0).SameQ(unevaluated) {
		t.Fatalf("expected the held argument to remain un-evaluated, got %v", outExpr.Leaf(0))
	}
}

func TestOrderlessCanonicalizesLeafOrder(t *testing.T) {
	f := symbol.Lookup("Global`evalOrderless")
	if err := f.SetAttributes(symbol.Orderless); err != nil {
		t.Fatalf("SetAttributes: %v", err)
	}
	ev := New()
	a, err := ev.Eval(expr.New(f, atom.MachineInteger(2), atom.MachineInteger(1)))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	b, err := ev.Eval(expr.New(f, atom.MachineInteger(1), atom.MachineInteger(2)))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !a.SameQ(b) {
		t.Fatalf("expected Orderless canonicalization to make f[2,1] and f[1,2] SameQ, got %v vs %v", a, b)
	}
}

func TestFlatAbsorbsNestedSameHead(t *testing.T) {
	f := symbol.Lookup("Global`evalFlat")
	if err := f.SetAttributes(symbol.Flat); err != nil {
		t.Fatalf("SetAttributes: %v", err)
	}
	ev := New()
	nested := expr.New(f, atom.MachineInteger(1), expr.New(f, atom.MachineInteger(2), atom.MachineInteger(3)))
	out, err := ev.Eval(nested)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	outExpr, ok := out.(*expr.Expression)
	if !ok || outExpr.Size() != 3 {
		t.Fatalf("expected a flattened 3-leaf expression, got %v", out)
	}
}

func TestListableThreadsOverLists(t *testing.T) {
	f := symbol.Lookup("Global`evalListable")
	if err := f.SetAttributes(symbol.Listable); err != nil {
		t.Fatalf("SetAttributes: %v", err)
	}
	listSym := symbol.Lookup("System`List")
	ev := New()
	in := expr.New(f, expr.New(listSym, atom.MachineInteger(1), atom.MachineInteger(2)), atom.MachineInteger(10))
	out, err := ev.Eval(in)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	outExpr, ok := out.(*expr.Expression)
	if !ok || outExpr.HeadName() != "List" || outExpr.Size() != 2 {
		t.Fatalf("expected a 2-element List, got %v", out)
	}
	first, ok := outExpr.Leaf(0).(*expr.Expression)
	if !ok || first.HeadName() != "evalListable" {
		t.Fatalf("expected each element to stay an unevaluated f[...] call (no DownValue defined), got %v", outExpr.Leaf(0))
	}
}

func TestSequenceSplicesIntoSurroundingArguments(t *testing.T) {
	g := symbol.Lookup("Global`evalSeqHost")
	seq := symbol.Lookup("Global`evalSeqSource")
	rule(t, seq, symbol.DownRule, expr.New(seq),
		expr.New(symbol.Lookup("System`Sequence"), atom.MachineInteger(1), atom.MachineInteger(2)))

	ev := New()
	out, err := ev.Eval(expr.New(g, expr.New(seq), atom.MachineInteger(3)))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	outExpr, ok := out.(*expr.Expression)
	if !ok || outExpr.Size() != 3 {
		t.Fatalf("expected Sequence to splice into 3 arguments, got %v", out)
	}
}

func TestRecursionLimitStopsInfiniteRule(t *testing.T) {
	loop := symbol.Lookup("Global`evalInfiniteLoop")
	x := symbol.Lookup("Global`evalLoopX")
	rule(t, loop, symbol.DownRule,
		expr.New(loop, expr.New(symbol.Lookup("System`Pattern"), x, expr.New(symbol.Lookup("System`Blank")))),
		expr.New(loop, x))

	ev := NewWithLimit(32)
	_, err := ev.Eval(expr.New(loop, atom.MachineInteger(1)))
	if err == nil {
		t.Fatalf("expected a recursion-limit error for a rule that rewrites to itself forever")
	}
}

func TestPatternTestGuardsRuleApplication(t *testing.T) {
	f := symbol.Lookup("Global`evalGuarded")
	x := symbol.Lookup("Global`evalGuardedX")
	positiveQ := symbol.Lookup("Global`evalPositiveQ")
	rule(t, positiveQ, symbol.DownRule,
		expr.New(positiveQ, expr.New(symbol.Lookup("System`Pattern"), x, expr.New(symbol.Lookup("System`Blank")))),
		symbol.Lookup("System`True"))

	pat := expr.New(symbol.Lookup("System`PatternTest"),
		expr.New(symbol.Lookup("System`Pattern"), x, expr.New(symbol.Lookup("System`Blank"))),
		positiveQ)
	rule(t, f, symbol.DownRule, expr.New(f, pat), atom.MachineInteger(99))

	ev := New()
	out, err := ev.Eval(expr.New(f, atom.MachineInteger(5)))
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !out.SameQ(atom.MachineInteger(99)) {
		t.Fatalf("expected PatternTest to pass and the rule to fire, got %v", out)
	}
}
