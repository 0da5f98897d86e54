package symbol

import (
	"testing"

	"symkernel/internal/atom"
	"symkernel/internal/expr"
	"symkernel/internal/value"
)

func TestLookupInterns(t *testing.T) {
	a := Lookup("Global`x")
	b := Lookup("Global`x")
	if a != b {
		t.Fatalf("expected the same *Symbol for repeat lookups")
	}
	if !a.SameQ(b) {
		t.Fatalf("expected SameQ for interned symbols")
	}
}

func TestDistinctNamesAreDistinctSymbols(t *testing.T) {
	a := Lookup("Global`y")
	b := Lookup("Global`z")
	if a.SameQ(b) {
		t.Fatalf("expected different full names to intern to different symbols")
	}
}

func TestHoldModeMutualExclusion(t *testing.T) {
	// An ill-formed raw bitset with two hold bits set doesn't match any
	// single recognized combination, so HoldMode reports HoldNone rather
	// than guessing; WithHoldMode is the enforcement point.
	ill := HoldFirst | HoldAll
	if ill.HoldMode() != HoldNone {
		t.Fatalf("expected an ill-formed hold combination to report HoldNone, got %v", ill.HoldMode())
	}
	clean := Attributes(0).WithHoldMode(HoldModeFirst).WithHoldMode(HoldModeRest)
	if clean.Has(HoldFirst) {
		t.Fatalf("WithHoldMode should clear the previous hold bit")
	}
	if !clean.Has(HoldRest) {
		t.Fatalf("expected HoldRest set")
	}
}

func TestDispatchIDTracksAttributes(t *testing.T) {
	s := Lookup("Global`HeldFunc")
	if err := s.SetAttributes(HoldAll); err != nil {
		t.Fatalf("SetAttributes: %v", err)
	}
	if s.Dispatch() != DispatchHoldAll {
		t.Fatalf("expected DispatchHoldAll, got %v", s.Dispatch())
	}
}

func TestLockedSymbolRejectsMutation(t *testing.T) {
	s := Lookup("Global`Frozen")
	s.Lock()
	if err := s.SetAttributes(Orderless); err == nil {
		t.Fatalf("expected SetAttributes on a Locked symbol to fail")
	}
	if err := s.AddRule(DownRule, atom.NewString("pat"), atom.NewString("rhs")); err == nil {
		t.Fatalf("expected AddRule on a Locked symbol to fail")
	}
}

func TestProtectedRejectsDownValueButAllowsNValue(t *testing.T) {
	s := Lookup("Global`Prot")
	if err := s.SetAttributes(Protected); err != nil {
		t.Fatalf("SetAttributes: %v", err)
	}
	if err := s.AddRule(DownRule, atom.NewString("p"), atom.NewString("r")); err == nil {
		t.Fatalf("expected DownRule insertion on a Protected symbol to fail")
	}
	if err := s.AddRule(NRule, atom.NewString("p"), atom.NewString("r")); err != nil {
		t.Fatalf("expected NRule insertion on a Protected symbol to succeed: %v", err)
	}
}

func TestRuleTableOrdersBySpecificity(t *testing.T) {
	blankSym := Lookup("System`Blank")
	fSym := Lookup("Global`f")
	blankHead := func(name string) *expr.Expression {
		return expr.New(blankSym, Lookup("System`"+name))
	}
	blankGeneric := expr.New(blankSym)

	s := fSym
	mustAdd := func(pat value.Value) {
		t.Helper()
		if err := s.AddRule(DownRule, pat, atom.NewString("rhs")); err != nil {
			t.Fatalf("AddRule: %v", err)
		}
	}
	mustAdd(expr.New(fSym, blankGeneric))
	mustAdd(expr.New(fSym, blankHead("Integer")))

	rules := s.Rules(DownRule)
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if !rules[0].Pattern.SameQ(expr.New(fSym, blankHead("Integer"))) {
		t.Fatalf("expected fixed-head Blank pattern to sort before generic Blank")
	}
}

func TestNewTemporaryNamesAreUnique(t *testing.T) {
	a := NewTemporary("x")
	b := NewTemporary("x")
	if a.FullName == b.FullName {
		t.Fatalf("expected distinct Temporary names, got %q twice", a.FullName)
	}
	if a.Attributes()&Temporary == 0 {
		t.Fatalf("expected Temporary attribute set")
	}
}

func TestSymbolHashStableAndDistinctFromString(t *testing.T) {
	s := Lookup("Global`hashme")
	if s.Hash() != s.Hash() {
		t.Fatalf("expected stable hash")
	}
	str := atom.NewString("Global`hashme")
	if s.Hash() == str.Hash() {
		t.Fatalf("expected symbol hash to differ from a same-text String atom")
	}
	if s.Kind() != value.KindSymbol {
		t.Fatalf("expected KindSymbol")
	}
}
