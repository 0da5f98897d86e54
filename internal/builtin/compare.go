package builtin

import (
	"math/big"

	"symkernel/internal/atom"
	"symkernel/internal/eval"
	"symkernel/internal/expr"
	"symkernel/internal/value"
)

// compareReal orders two real (non-complex) numbers; decided is false for
// complex or non-numeric operands, which stay symbolic.
func compareReal(a, b value.Value) (cmp int, decided bool) {
	fa, okA := bigFloatOf(a)
	fb, okB := bigFloatOf(b)
	if !okA || !okB {
		return 0, false
	}
	return fa.Cmp(fb), true
}

func bigFloatOf(v value.Value) (*big.Float, bool) {
	switch n := v.(type) {
	case atom.MachineInteger:
		return new(big.Float).SetInt64(int64(n)), true
	case *atom.BigInteger:
		return new(big.Float).SetInt(n.Int()), true
	case *atom.Rational:
		return new(big.Float).SetRat(n.Rat()), true
	case atom.MachineReal:
		return big.NewFloat(float64(n)), true
	case *atom.BigReal:
		return n.Float(), true
	default:
		return nil, false
	}
}

func relationHandler(test func(cmp int) bool) eval.BuiltinHandler {
	return func(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
		if e.Size() < 2 {
			return sys("True"), true, nil
		}
		for i := 1; i < e.Size(); i++ {
			cmp, decided := compareReal(e.Leaf(i-1), e.Leaf(i))
			if !decided {
				return nil, false, nil
			}
			if !test(cmp) {
				return sys("False"), true, nil
			}
		}
		return sys("True"), true, nil
	}
}

// notHandler, andHandler, orHandler implement the boolean connectives
// with conventional short-circuiting; undecidable operands leave the
// expression symbolic.
func notHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 1 {
		return nil, false, nil
	}
	switch {
	case e.Leaf(0).SameQ(sys("True")):
		return sys("False"), true, nil
	case e.Leaf(0).SameQ(sys("False")):
		return sys("True"), true, nil
	default:
		return nil, false, nil
	}
}

func andHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	// HoldAll: leaves arrive unevaluated so False can short-circuit.
	for i := 0; i < e.Size(); i++ {
		v, err := ev.EvalAt(e.Leaf(i), depth+1)
		if err != nil {
			return nil, false, err
		}
		if v.SameQ(sys("False")) {
			return sys("False"), true, nil
		}
		if !v.SameQ(sys("True")) {
			return nil, false, nil
		}
	}
	return sys("True"), true, nil
}

func orHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	for i := 0; i < e.Size(); i++ {
		v, err := ev.EvalAt(e.Leaf(i), depth+1)
		if err != nil {
			return nil, false, err
		}
		if v.SameQ(sys("True")) {
			return sys("True"), true, nil
		}
		if !v.SameQ(sys("False")) {
			return nil, false, nil
		}
	}
	return sys("False"), true, nil
}

func numberQHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 1 {
		return nil, false, nil
	}
	return boolSymbol(atom.IsNumber(e.Leaf(0))), true, nil
}

func integerQHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 1 {
		return nil, false, nil
	}
	k := e.Leaf(0).Kind()
	return boolSymbol(k == value.KindMachineInt || k == value.KindBigInt), true, nil
}

func unsameQHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() < 2 {
		return sys("True"), true, nil
	}
	for i := 0; i < e.Size(); i++ {
		for j := i + 1; j < e.Size(); j++ {
			if e.Leaf(i).SameQ(e.Leaf(j)) {
				return sys("False"), true, nil
			}
		}
	}
	return sys("True"), true, nil
}
