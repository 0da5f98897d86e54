package boxes

import (
	"testing"

	"symkernel/internal/atom"
	"symkernel/internal/expr"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

func sym(name string) *symbol.Symbol { return symbol.Lookup("System`" + name) }

func list(items ...value.Value) *expr.Expression {
	return expr.New(sym("List"), items...)
}

func TestRowBoxConcatenates(t *testing.T) {
	box := expr.New(sym("RowBox"), list(
		atom.NewString("a"), atom.NewString("+"), atom.NewString("b")))
	if got := Render(box, RenderOptions{}); got != "a+b" {
		t.Fatalf("RowBox render = %q, want a+b", got)
	}
}

func TestSuperscriptBoxRendersCaret(t *testing.T) {
	box := expr.New(sym("SuperscriptBox"), atom.NewString("x"), atom.MachineInteger(2))
	if got := Render(box, RenderOptions{}); got != "x^2" {
		t.Fatalf("SuperscriptBox render = %q, want x^2", got)
	}
}

func TestShowStringCharactersKeepsQuotes(t *testing.T) {
	s := atom.NewString("hi")
	if got := Render(s, RenderOptions{ShowStringCharacters: true}); got != `"hi"` {
		t.Fatalf("quoted render = %q", got)
	}
	if got := Render(s, RenderOptions{}); got != "hi" {
		t.Fatalf("unquoted render = %q", got)
	}
}

func TestStyleBoxRendersContentAndReportsOptions(t *testing.T) {
	var seen int
	box := expr.New(sym("StyleBox"), atom.NewString("x"),
		expr.New(sym("Rule"), sym("FontWeight"), atom.NewString("Bold")))
	got := Render(box, RenderOptions{StyleSink: func(opts []value.Value) { seen = len(opts) }})
	if got != "x" {
		t.Fatalf("StyleBox render = %q, want x", got)
	}
	if seen != 1 {
		t.Fatalf("expected 1 style option reported, got %d", seen)
	}
}

func TestNumberFormDefaults(t *testing.T) {
	o := DefaultNumberFormOptions()
	tests := []struct {
		in   value.Value
		want string
	}{
		{atom.MachineInteger(6), "6"},
		{atom.MachineInteger(1234567), "1,234,567"},
		{atom.MachineInteger(-42), "-42"},
		{atom.MachineReal(6.0), "6."},
		{atom.MachineReal(-2.5), "-2.5"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in, o); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseNumberFormOptionsWarnsOnUnknownKey(t *testing.T) {
	var warned []string
	opts := list(
		expr.New(sym("Rule"), sym("DigitBlock"), atom.MachineInteger(4)),
		expr.New(sym("Rule"), sym("NoSuchOption"), atom.MachineInteger(1)),
		expr.New(sym("Rule"), sym("NumberPoint"), atom.NewString(",")),
	)
	o := ParseNumberFormOptions(opts, func(key string) { warned = append(warned, key) })
	if o.DigitBlock != 4 {
		t.Errorf("DigitBlock = %d, want 4", o.DigitBlock)
	}
	if o.NumberPoint != "," {
		t.Errorf("NumberPoint = %q, want ,", o.NumberPoint)
	}
	if len(warned) != 1 || warned[0] != "NoSuchOption" {
		t.Errorf("warned = %v, want [NoSuchOption]", warned)
	}
}

func TestParseNumberFormOptionsInfinityDisablesGrouping(t *testing.T) {
	opts := list(expr.New(sym("Rule"), sym("DigitBlock"), sym("Infinity")))
	o := ParseNumberFormOptions(opts, func(string) {})
	if o.DigitBlock != 0 {
		t.Fatalf("DigitBlock = %d, want 0 (Infinity)", o.DigitBlock)
	}
	if got := FormatNumber(atom.MachineInteger(1234567), o); got != "1234567" {
		t.Fatalf("ungrouped = %q", got)
	}
}

func TestNumberSignsAndSeparatorOverrides(t *testing.T) {
	o := DefaultNumberFormOptions()
	o.NumberSigns = [2]string{"minus ", "plus "}
	o.NumberSeparator = [2]string{".", " "}
	o.DigitBlock = 3
	if got := FormatNumber(atom.MachineInteger(-1234567), o); got != "minus 1.234.567" {
		t.Fatalf("custom signs/separator = %q", got)
	}
}
