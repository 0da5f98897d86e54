// Package boxes renders formatted output: a tree of box expressions
// (RowBox, StyleBox, SuperscriptBox, ...) flattened to text. Box trees
// are what the format rules on a symbol produce; this package is the last
// step before the output sink or the REPL prints them.
package boxes

import (
	"strings"

	"symkernel/internal/atom"
	"symkernel/internal/expr"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

// RenderOptions controls text rendering of a box tree.
type RenderOptions struct {
	// ShowStringCharacters keeps the surrounding quotes on String atoms.
	ShowStringCharacters bool
	// StyleSink, when non-nil, receives each StyleBox's option list as the
	// renderer descends into it; a terminal-aware caller can translate
	// styles to ANSI sequences, everyone else ignores them.
	StyleSink func(opts []value.Value)
}

// Render flattens a box tree (or any plain expression) to text.
func Render(v value.Value, opts RenderOptions) string {
	var sb strings.Builder
	render(v, opts, &sb)
	return sb.String()
}

func render(v value.Value, opts RenderOptions, sb *strings.Builder) {
	switch t := v.(type) {
	case *atom.String:
		if opts.ShowStringCharacters {
			sb.WriteByte('"')
			sb.WriteString(t.Value())
			sb.WriteByte('"')
		} else {
			sb.WriteString(t.Value())
		}
	case *symbol.Symbol:
		sb.WriteString(t.ShortName())
	case *expr.Expression:
		renderExpression(t, opts, sb)
	default:
		sb.WriteString(v.Text())
	}
}

func renderExpression(e *expr.Expression, opts RenderOptions, sb *strings.Builder) {
	switch e.HeadName() {
	case "RowBox":
		// RowBox[{a, b, ...}] concatenates its list's elements.
		if e.Size() == 1 {
			if list, ok := e.Leaf(0).(*expr.Expression); ok && list.HeadName() == "List" {
				for i := 0; i < list.Size(); i++ {
					render(list.Leaf(i), opts, sb)
				}
				return
			}
		}
		for i := 0; i < e.Size(); i++ {
			render(e.Leaf(i), opts, sb)
		}
	case "StyleBox":
		// StyleBox[x, opts...] renders x; presentational options go to the
		// style sink when one is attached.
		if e.Size() == 0 {
			return
		}
		if opts.StyleSink != nil && e.Size() > 1 {
			opts.StyleSink(e.Materialize()[1:])
		}
		render(e.Leaf(0), opts, sb)
	case "SuperscriptBox":
		if e.Size() == 2 {
			render(e.Leaf(0), opts, sb)
			sb.WriteByte('^')
			render(e.Leaf(1), opts, sb)
			return
		}
		fallbackRender(e, opts, sb)
	case "SubscriptBox":
		if e.Size() == 2 {
			render(e.Leaf(0), opts, sb)
			sb.WriteByte('_')
			render(e.Leaf(1), opts, sb)
			return
		}
		fallbackRender(e, opts, sb)
	case "FractionBox":
		if e.Size() == 2 {
			render(e.Leaf(0), opts, sb)
			sb.WriteByte('/')
			render(e.Leaf(1), opts, sb)
			return
		}
		fallbackRender(e, opts, sb)
	default:
		fallbackRender(e, opts, sb)
	}
}

// fallbackRender prints a non-box expression in head[a, b] form, reusing
// the same renderer for leaves so nested boxes still flatten.
func fallbackRender(e *expr.Expression, opts RenderOptions, sb *strings.Builder) {
	render(e.Head(), opts, sb)
	sb.WriteByte('[')
	for i := 0; i < e.Size(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		render(e.Leaf(i), opts, sb)
	}
	sb.WriteByte(']')
}
