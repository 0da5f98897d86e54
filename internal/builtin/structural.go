package builtin

import (
	"symkernel/internal/atom"
	"symkernel/internal/eval"
	"symkernel/internal/expr"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

// rangeHandler is Range[n], Range[a, b] and Range[a, b, step] over
// machine integers and reals; anything else stays symbolic. A run of 16+
// machine integers lands in packed storage for free via the slice
// strategy selection.
func rangeHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	var from, to, step value.Value
	switch e.Size() {
	case 1:
		from, to, step = atom.MachineInteger(1), e.Leaf(0), atom.MachineInteger(1)
	case 2:
		from, to, step = e.Leaf(0), e.Leaf(1), atom.MachineInteger(1)
	case 3:
		from, to, step = e.Leaf(0), e.Leaf(1), e.Leaf(2)
	default:
		return nil, false, nil
	}
	if isMachineInt(from) && isMachineInt(to) && isMachineInt(step) {
		a := int64(from.(atom.MachineInteger))
		b := int64(to.(atom.MachineInteger))
		d := int64(step.(atom.MachineInteger))
		if d == 0 {
			return nil, false, nil
		}
		var out []value.Value
		if d > 0 {
			for i := a; i <= b; i += d {
				out = append(out, atom.MachineInteger(i))
			}
		} else {
			for i := a; i >= b; i += d {
				out = append(out, atom.MachineInteger(i))
			}
		}
		return expr.New(sys("List"), out...), true, nil
	}
	if fa, ok := machineFloatOf(from); ok {
		fb, okB := machineFloatOf(to)
		fd, okD := machineFloatOf(step)
		if okB && okD && fd != 0 {
			var out []value.Value
			if fd > 0 {
				for x := fa; x <= fb; x += fd {
					out = append(out, atom.MachineReal(x))
				}
			} else {
				for x := fa; x >= fb; x += fd {
					out = append(out, atom.MachineReal(x))
				}
			}
			return expr.New(sys("List"), out...), true, nil
		}
	}
	return nil, false, nil
}

func isMachineInt(v value.Value) bool {
	_, ok := v.(atom.MachineInteger)
	return ok
}

// threadHandler is the explicit Thread[f[args...]] form: lists among the
// arguments are zipped element-wise, non-lists broadcast. The implicit
// threading a Listable head performs during evaluation shares the length
// contract (and the tdlen message) but runs in the evaluator itself.
func threadHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 1 {
		return nil, false, nil
	}
	inner, ok := e.Leaf(0).(*expr.Expression)
	if !ok {
		return e.Leaf(0), true, nil
	}
	leaves := inner.Materialize()
	n := -1
	isList := make([]bool, len(leaves))
	for i, l := range leaves {
		le, ok := l.(*expr.Expression)
		if !ok || le.HeadName() != "List" {
			continue
		}
		isList[i] = true
		if n == -1 {
			n = le.Size()
		} else if le.Size() != n {
			ev.Message(sys("Thread"), "tdlen", e)
			return nil, false, nil
		}
	}
	if n == -1 {
		return inner, true, nil
	}
	rows := make([]value.Value, n)
	for idx := 0; idx < n; idx++ {
		args := make([]value.Value, len(leaves))
		for i, l := range leaves {
			if isList[i] {
				args[i] = l.(*expr.Expression).Leaf(idx)
			} else {
				args[i] = l
			}
		}
		rows[idx] = expr.New(inner.Head(), args...)
	}
	return expr.New(sys("List"), rows...), true, nil
}

// mapHandler is Map[f, expr]: wraps each leaf in f, keeping the head.
func mapHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 2 {
		return nil, false, nil
	}
	f := e.Leaf(0)
	target, ok := e.Leaf(1).(*expr.Expression)
	if !ok {
		return e.Leaf(1), true, nil
	}
	out := make([]value.Value, target.Size())
	for i := 0; i < target.Size(); i++ {
		out[i] = expr.New(f, target.Leaf(i))
	}
	return expr.New(target.Head(), out...), true, nil
}

// applyHandler is Apply[f, expr]: replaces expr's head with f.
func applyHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 2 {
		return nil, false, nil
	}
	target, ok := e.Leaf(1).(*expr.Expression)
	if !ok {
		return e.Leaf(1), true, nil
	}
	return target.Slice(e.Leaf(0), 0, target.Size()), true, nil
}

// headHandler is Head[x]: the canonical head symbol of any value — the
// head expression for compounds, Symbol for bare symbols, the numeric
// kind's head for atoms.
func headHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 1 {
		return nil, false, nil
	}
	switch t := e.Leaf(0).(type) {
	case *expr.Expression:
		return t.Head(), true, nil
	case *symbol.Symbol:
		return sys("Symbol"), true, nil
	default:
		return sys(t.HeadName()), true, nil
	}
}

func lengthHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 1 {
		return nil, false, nil
	}
	if t, ok := e.Leaf(0).(*expr.Expression); ok {
		return atom.MachineInteger(t.Size()), true, nil
	}
	return atom.MachineInteger(0), true, nil
}

func firstHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 1 {
		return nil, false, nil
	}
	if t, ok := e.Leaf(0).(*expr.Expression); ok && t.Size() > 0 {
		return t.Leaf(0), true, nil
	}
	return nil, false, nil
}

func lastHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 1 {
		return nil, false, nil
	}
	if t, ok := e.Leaf(0).(*expr.Expression); ok && t.Size() > 0 {
		return t.Leaf(t.Size() - 1), true, nil
	}
	return nil, false, nil
}

// partHandler is Part[expr, i]: 1-based leaf access, 0 for the head.
// Out-of-range parts report Part::partw and stay unevaluated.
func partHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 2 {
		return nil, false, nil
	}
	t, ok := e.Leaf(0).(*expr.Expression)
	if !ok {
		return nil, false, nil
	}
	i, ok := e.Leaf(1).(atom.MachineInteger)
	if !ok {
		return nil, false, nil
	}
	switch {
	case i == 0:
		return t.Head(), true, nil
	case i >= 1 && int(i) <= t.Size():
		return t.Leaf(int(i) - 1), true, nil
	case i < 0 && int(-i) <= t.Size():
		return t.Leaf(t.Size() + int(i)), true, nil
	default:
		ev.Message(sys("Part"), "partw", e.Leaf(1), t)
		return nil, false, nil
	}
}
