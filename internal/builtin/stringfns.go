package builtin

import (
	"strings"

	"symkernel/internal/atom"
	"symkernel/internal/eval"
	"symkernel/internal/expr"
	"symkernel/internal/kernelerr"
	"symkernel/internal/pattern"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

// stringMatchQHandler is StringMatchQ[s, patt] and the IgnoreCase ->
// True option form. A pattern using expression-only constructs reports
// the StringPatternError diagnostic and leaves the call unevaluated.
func stringMatchQHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() < 2 || e.Size() > 3 {
		return nil, false, nil
	}
	subject, ok := e.Leaf(0).(*atom.String)
	if !ok {
		return nil, false, nil
	}
	foldCase := false
	if e.Size() == 3 {
		opt, ok := e.Leaf(2).(*expr.Expression)
		if ok && opt.HeadName() == "Rule" && opt.Size() == 2 {
			if key, ok := opt.Leaf(0).(*symbol.Symbol); ok && key.ShortName() == "IgnoreCase" {
				foldCase = opt.Leaf(1).SameQ(sys("True"))
			}
		}
	}
	compile := pattern.CompileString
	if foldCase {
		compile = pattern.CompileStringFold
	}
	m, err := compile(e.Leaf(1))
	if err != nil {
		if kernelerr.Is(err, kernelerr.StringPatternError) || kernelerr.Is(err, kernelerr.PatternError) {
			ev.Message(sys("StringMatchQ"), "strse", e.Leaf(1))
			return nil, false, nil
		}
		return nil, false, err
	}
	ctx, release := pattern.AcquireMatchContext(ev.TestEvaluatorAt(depth))
	matched := m.Match(ctx, subject, false)
	release()
	return boolSymbol(matched), true, nil
}

func stringLengthHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 1 {
		return nil, false, nil
	}
	s, ok := e.Leaf(0).(*atom.String)
	if !ok {
		return nil, false, nil
	}
	return atom.MachineInteger(s.Len()), true, nil
}

func stringJoinHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	var sb strings.Builder
	for i := 0; i < e.Size(); i++ {
		s, ok := e.Leaf(i).(*atom.String)
		if !ok {
			return nil, false, nil
		}
		sb.WriteString(s.Value())
	}
	return atom.NewString(sb.String()), true, nil
}

// stringTakeHandler is StringTake[s, n] (first n graphemes) and
// StringTake[s, -n] (last n).
func stringTakeHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 2 {
		return nil, false, nil
	}
	s, okS := e.Leaf(0).(*atom.String)
	n, okN := e.Leaf(1).(atom.MachineInteger)
	if !okS || !okN {
		return nil, false, nil
	}
	switch {
	case n >= 0 && int(n) <= s.Len():
		return s.Slice(0, int(n)), true, nil
	case n < 0 && int(-n) <= s.Len():
		return s.Slice(s.Len()-int(-n), s.Len()), true, nil
	default:
		ev.Message(sys("StringTake"), "take", e.Leaf(1), s)
		return nil, false, nil
	}
}
