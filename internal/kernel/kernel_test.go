package kernel

import (
	"testing"

	"github.com/kr/pretty"

	"symkernel/internal/atom"
	"symkernel/internal/expr"
	"symkernel/internal/outsink"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

func newKernel(t *testing.T) (*Kernel, *outsink.CaptureSink) {
	t.Helper()
	sink := &outsink.CaptureSink{}
	return New(Options{Sink: sink}), sink
}

func evalString(t *testing.T, k *Kernel, src string) value.Value {
	t.Helper()
	out, err := k.EvaluateString(src)
	if err != nil {
		t.Fatalf("EvaluateString(%q): %v", src, err)
	}
	return out
}

func assertSameQ(t *testing.T, got value.Value, want value.Value, label string) {
	t.Helper()
	if !got.SameQ(want) {
		t.Fatalf("%s: got %s, want %s\ndiff: %s", label, got.Text(), want.Text(),
			pretty.Sprint(got))
	}
}

func TestScenarioPlusFoldsToInteger(t *testing.T) {
	k, _ := newKernel(t)
	assertSameQ(t, evalString(t, k, "Plus[1, 2, 3]"), atom.MachineInteger(6), "Plus[1,2,3]")
}

func TestScenarioPlusWidensToMachineReal(t *testing.T) {
	k, _ := newKernel(t)
	out := evalString(t, k, "Plus[1.0, 2, 3]")
	r, ok := out.(atom.MachineReal)
	if !ok || float64(r) != 6.0 {
		t.Fatalf("Plus[1.0,2,3] = %s, want MachineReal 6.", out.Text())
	}
}

func TestScenarioRange(t *testing.T) {
	k, _ := newKernel(t)
	out := evalString(t, k, "Range[1, 5]")
	e, ok := out.(*expr.Expression)
	if !ok || e.HeadName() != "List" || e.Size() != 5 {
		t.Fatalf("Range[1,5] = %s", out.Text())
	}
	for i := 0; i < 5; i++ {
		assertSameQ(t, e.Leaf(i), atom.MachineInteger(int64(i+1)), "Range element")
	}
}

func TestScenarioUserFunctionDefinition(t *testing.T) {
	k, _ := newKernel(t)
	evalString(t, k, "kernelScenF[x_] := x^2")
	assertSameQ(t, evalString(t, k, "kernelScenF[7]"), atom.MachineInteger(49), "f[7]")
}

func TestScenarioNestedUserFunction(t *testing.T) {
	k, _ := newKernel(t)
	evalString(t, k, "kernelScenG[x_, y_] := x + y")
	assertSameQ(t, evalString(t, k, "kernelScenG[2, kernelScenG[3, 4]]"),
		atom.MachineInteger(9), "g[2, g[3,4]]")
}

func TestScenarioUnreducibleProductIsFixedPoint(t *testing.T) {
	k, _ := newKernel(t)
	out := evalString(t, k, "2*(kernelScenA + kernelScenB)")
	e, ok := out.(*expr.Expression)
	if !ok || e.HeadName() != "Times" || e.Size() != 2 {
		t.Fatalf("2*(a+b) = %s, want an unreduced Times", out.Text())
	}
	again, err := k.Evaluate(out)
	if err != nil {
		t.Fatalf("re-evaluate: %v", err)
	}
	assertSameQ(t, again, out, "evaluator fixed point")
}

func TestScenarioThreadOverLists(t *testing.T) {
	k, _ := newKernel(t)
	out := evalString(t, k, "Thread[{1, 2, 3} + {10, 20, 30}]")
	e, ok := out.(*expr.Expression)
	if !ok || e.HeadName() != "List" || e.Size() != 3 {
		t.Fatalf("threaded sum = %s", out.Text())
	}
	want := []int64{11, 22, 33}
	for i, w := range want {
		assertSameQ(t, e.Leaf(i), atom.MachineInteger(w), "thread element")
	}
}

func TestHoldAllCompleteIntegrity(t *testing.T) {
	k, _ := newKernel(t)
	out := evalString(t, k, "HoldComplete[1 + 1, Sequence[2, 3]]")
	e, ok := out.(*expr.Expression)
	if !ok || e.HeadName() != "HoldComplete" || e.Size() != 2 {
		t.Fatalf("HoldComplete = %s, want both leaves untouched", out.Text())
	}
	plus, ok := e.Leaf(0).(*expr.Expression)
	if !ok || plus.HeadName() != "Plus" {
		t.Fatalf("held leaf evaluated: %s", e.Leaf(0).Text())
	}
	seq, ok := e.Leaf(1).(*expr.Expression)
	if !ok || seq.HeadName() != "Sequence" {
		t.Fatalf("held Sequence flattened: %s", e.Leaf(1).Text())
	}
}

func TestSequenceFlatteningInvariant(t *testing.T) {
	k, _ := newKernel(t)
	evalString(t, k, "kernelSeqSrc[] := Sequence[1, 2]")
	out := evalString(t, k, "kernelSeqHost[kernelSeqSrc[], 3]")
	e, ok := out.(*expr.Expression)
	if !ok || e.Size() != 3 {
		t.Fatalf("Sequence splice: got %s, want 3 arguments", out.Text())
	}
	for i := 0; i < e.Size(); i++ {
		if le, ok := e.Leaf(i).(*expr.Expression); ok && le.HeadName() == "Sequence" {
			t.Fatalf("leaf %d is still a Sequence: %s", i, out.Text())
		}
	}
}

func TestThreadLengthMismatchEmitsMessageWithoutRewrite(t *testing.T) {
	k, sink := newKernel(t)
	out := evalString(t, k, "{1, 2} + {10}")
	e, ok := out.(*expr.Expression)
	if !ok || e.HeadName() != "Plus" {
		t.Fatalf("mismatched lists rewrote to %s", out.Text())
	}
	msgs := sink.Messages()
	if len(msgs) == 0 || msgs[0].Symbol != "Thread" || msgs[0].Tag != "tdlen" {
		t.Fatalf("expected Thread::tdlen, got %# v", pretty.Formatter(msgs))
	}
}

func TestPatternDeterminism(t *testing.T) {
	k, _ := newKernel(t)
	evalString(t, k, "kernelDetF[x_, y_] := {y, x}")
	a := evalString(t, k, "kernelDetF[1, 2]")
	for i := 0; i < 10; i++ {
		b := evalString(t, k, "kernelDetF[1, 2]")
		assertSameQ(t, b, a, "repeated evaluation determinism")
	}
}

func TestBindingConsistency(t *testing.T) {
	k, _ := newKernel(t)
	evalString(t, k, "kernelDupF[x_, x_] := x")
	assertSameQ(t, evalString(t, k, "kernelDupF[5, 5]"), atom.MachineInteger(5), "x_,x_ same args")
	out := evalString(t, k, "kernelDupF[5, 6]")
	e, ok := out.(*expr.Expression)
	if !ok || e.HeadName() != "kernelDupF" {
		t.Fatalf("x_,x_ must not match distinct args, got %s", out.Text())
	}
}

func TestRuleOrderingSpecificFirst(t *testing.T) {
	k, _ := newKernel(t)
	// General rule defined before the literal one; the literal must still
	// win because its sort-key is more specific.
	evalString(t, k, "kernelOrdF[x_] := 0")
	evalString(t, k, "kernelOrdF[1] := 99")
	assertSameQ(t, evalString(t, k, "kernelOrdF[1]"), atom.MachineInteger(99), "specific rule wins")
	assertSameQ(t, evalString(t, k, "kernelOrdF[2]"), atom.MachineInteger(0), "general rule still fires")
}

func TestRecursionLimitSurfacesAsError(t *testing.T) {
	k := New(Options{RecursionLimit: 64, Sink: outsink.NopSink{}})
	if _, err := k.EvaluateString("kernelLoopF[x_] := kernelLoopF[x]"); err != nil {
		t.Fatalf("definition: %v", err)
	}
	if _, err := k.EvaluateString("kernelLoopF[1]"); err == nil {
		t.Fatal("expected a recursion-limit error")
	}
}

func TestLibraryAPISymbolAndRules(t *testing.T) {
	k, _ := newKernel(t)
	s := k.DefineSymbol("Global`kernelAPISym")
	if err := k.AttributesSet(s, symbol.Listable); err != nil {
		t.Fatalf("AttributesSet: %v", err)
	}
	if !s.Attributes().Has(symbol.Listable) {
		t.Fatal("attributes not applied")
	}
	x := k.DefineSymbol("Global`kernelAPIX")
	pattern := expr.New(s, expr.New(symbol.Lookup("System`Pattern"), x,
		expr.New(symbol.Lookup("System`Blank"))))
	rhs := expr.New(symbol.Lookup("System`Times"), x, atom.MachineInteger(10))
	if err := k.RuleAdd(s, DownRule, pattern, rhs); err != nil {
		t.Fatalf("RuleAdd: %v", err)
	}
	out, err := k.Evaluate(expr.New(s, atom.MachineInteger(4)))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	assertSameQ(t, out, atom.MachineInteger(40), "API-installed rule")
}

func TestMessageGoesThroughSink(t *testing.T) {
	k, sink := newKernel(t)
	s := k.DefineSymbol("Global`kernelMsgSym")
	s.SetMessage("oops", atom.NewString("problem with `1`"))
	k.Message(s, "oops", atom.MachineInteger(3))
	msgs := sink.Messages()
	if len(msgs) != 1 || msgs[0].Text != "problem with 3" {
		t.Fatalf("message = %# v", pretty.Formatter(msgs))
	}
}

func TestFormatRendersBoxesAndStrings(t *testing.T) {
	k, _ := newKernel(t)
	v := evalString(t, k, `RowBox[{"a", "+", "b"}]`)
	// RowBox has no evaluation rules, so Format sees the box tree as-is;
	// rendering shows RowBox content strings without quotes.
	got := k.Format(v)
	if got != "a+b" {
		t.Fatalf("Format(RowBox) = %q", got)
	}
}

func TestStatsCountEvaluations(t *testing.T) {
	k, _ := newKernel(t)
	evalString(t, k, "1 + 1")
	evalString(t, k, "2 + 2")
	if s := k.Stats(); s.Evaluations < 2 {
		t.Fatalf("stats = %+v, want at least 2 evaluations", s)
	}
}
