package eval

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"symkernel/internal/expr"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

// threadListable distributes a Listable head across any List-headed
// leaves, broadcasting the non-list leaves unchanged — f[{a,b},c]
// becomes {f[a,c], f[b,c]}. Every thread is evaluated concurrently via
// errgroup, since each element's evaluation is independent of its
// siblings' and this is exactly the shape of embarrassingly-parallel
// work the kernel's own Listable threading exists to exploit.
func (ev *Evaluator) threadListable(head value.Value, e *expr.Expression, depth int) (*expr.Expression, bool, error) {
	leaves := e.Materialize()
	isList := make([]bool, len(leaves))
	n := -1
	for i, l := range leaves {
		le, ok := l.(*expr.Expression)
		if !ok || le.HeadName() != "List" {
			continue
		}
		isList[i] = true
		if n == -1 {
			n = le.Size()
		} else if le.Size() != n {
			// Unequal list lengths: report Thread::tdlen and leave the
			// expression unthreaded (the standard convention of returning
			// the unevaluated form after a message).
			ev.Message(symbol.Lookup("System`Thread"), "tdlen", e)
			return nil, false, nil
		}
	}
	if n == -1 {
		return nil, false, nil
	}

	results := make([]value.Value, n)
	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for idx := 0; idx < n; idx++ {
		idx := idx
		g.Go(func() error {
			args := make([]value.Value, len(leaves))
			for i, l := range leaves {
				if isList[i] {
					args[i] = l.(*expr.Expression).Leaf(idx)
				} else {
					args[i] = l
				}
			}
			v, err := ev.evalDepth(expr.New(head, args...), depth+1)
			if err != nil {
				return err
			}
			results[idx] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}
	return expr.New(symbol.Lookup("System`List"), results...), true, nil
}
