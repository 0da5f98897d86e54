package eval

import (
	"symkernel/internal/expr"
	"symkernel/internal/pattern"
	"symkernel/internal/rewrite"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

var trueSymbol = symbol.Lookup("System`True")

// testEvaluator implements pattern.TestEvaluator, giving PatternTest and
// Condition nodes a way to call back into full evaluation without
// internal/pattern importing internal/eval.
type testEvaluator struct {
	ev    *Evaluator
	depth int
}

// TestEvaluatorAt exposes the pattern-test callback at a given recursion
// depth, for callers outside this package (built-in handlers like
// ReplaceAll) that drive the matcher directly.
func (ev *Evaluator) TestEvaluatorAt(depth int) pattern.TestEvaluator {
	return &testEvaluator{ev: ev, depth: depth}
}

// EvalAt evaluates v at the given recursion depth, so built-in handlers
// can recurse without resetting the depth accounting.
func (ev *Evaluator) EvalAt(v value.Value, depth int) (value.Value, error) {
	return ev.evalDepth(v, depth)
}

func (t *testEvaluator) ApplyTest(test, candidate value.Value) (bool, error) {
	applied := expr.New(test, candidate)
	result, err := t.ev.evalDepth(applied, t.depth+1)
	if err != nil {
		return false, err
	}
	return result.SameQ(trueSymbol), nil
}

func (t *testEvaluator) EvalCondition(cond value.Value, bindings *pattern.Bindings) (bool, error) {
	tmpl := rewrite.Compile(cond)
	substituted, err := rewrite.Substitute(tmpl, bindings)
	if err != nil {
		return false, err
	}
	result, err := t.ev.evalDepth(substituted, t.depth+1)
	if err != nil {
		return false, err
	}
	return result.SameQ(trueSymbol), nil
}
