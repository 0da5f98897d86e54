package rewrite

import (
	"testing"

	"symkernel/internal/atom"
	"symkernel/internal/expr"
	"symkernel/internal/pattern"
	"symkernel/internal/symbol"
)

func TestSubstituteReplacesBoundSlot(t *testing.T) {
	xSym := symbol.Lookup("Global`rewriteX")
	rhs := expr.New(symbol.Lookup("Global`f"), xSym, atom.MachineInteger(1))
	tmpl := Compile(rhs)

	// Bindings has no public constructor for direct binding outside the
	// pattern package; drive it through a real match instead.
	m, err := pattern.Compile(expr.New(symbol.Lookup("Global`g"),
		expr.New(symbol.Lookup("System`Pattern"), xSym, expr.New(symbol.Lookup("System`Blank")))))
	if err != nil {
		t.Fatalf("Compile pattern: %v", err)
	}
	mctx := pattern.NewMatchContext(nil)
	candidate := expr.New(symbol.Lookup("Global`g"), atom.MachineInteger(99))
	if !m.MatchValue(mctx, candidate) {
		t.Fatalf("expected match")
	}

	out, err := Substitute(tmpl, mctx.Bindings)
	if err != nil {
		t.Fatalf("Substitute: %v", err)
	}
	outExpr, ok := out.(*expr.Expression)
	if !ok || outExpr.Size() != 2 {
		t.Fatalf("expected a 2-leaf expression, got %v", out)
	}
	if !outExpr.Leaf(0).SameQ(atom.MachineInteger(99)) {
		t.Fatalf("expected first leaf substituted to 99, got %v", outExpr.Leaf(0))
	}
	if !outExpr.Leaf(1).SameQ(atom.MachineInteger(1)) {
		t.Fatalf("expected second leaf to stay 1, got %v", outExpr.Leaf(1))
	}
}

func TestSubstituteSharesUnchangedSubtree(t *testing.T) {
	original := expr.New(symbol.Lookup("Global`unchanged"), atom.MachineInteger(1), atom.MachineInteger(2))
	tmpl := Compile(original)

	out, err := Substitute(tmpl, &pattern.Bindings{})
	if err != nil {
		t.Fatalf("Substitute: %v", err)
	}
	if !out.SameQ(original) {
		t.Fatalf("expected SameQ output for an all-literal template")
	}
}

func TestSubstituteCopiesUnboundSymbol(t *testing.T) {
	globalSym := symbol.Lookup("Global`neverBound")
	tmpl := Compile(globalSym)
	out, err := Substitute(tmpl, &pattern.Bindings{})
	if err != nil {
		t.Fatalf("Substitute: %v", err)
	}
	if out != globalSym {
		t.Fatalf("expected an unbound symbol to pass through unchanged")
	}
}
