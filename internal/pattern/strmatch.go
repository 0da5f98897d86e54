package pattern

import (
	"strings"

	"symkernel/internal/atom"
	"symkernel/internal/expr"
	"symkernel/internal/kernelerr"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

// StringMatcher runs a compiled string pattern over a string's grapheme
// sequence with the same continuation-passing machinery the expression
// matcher uses; only the node vocabulary differs (characters instead of
// leaves, concatenated substrings instead of Sequence bundles).
type StringMatcher struct {
	root     strNode
	foldCase bool
}

// strNode is the string-pattern analogue of Node: positions index
// graphemes of the subject.
type strNode interface {
	match(ctx *MatchContext, subject *atom.String, pos int, k Continuation) bool
}

// CompileString lowers a string pattern. Constructs that only make sense
// over expression sequences (Optional, OptionsPattern, PatternTest,
// Condition, Verbatim, Except) raise StringPatternError, the diagnostic
// reserved for exactly this misuse.
func CompileString(patt value.Value) (*StringMatcher, error) {
	n, err := compileStringNode(patt)
	if err != nil {
		return nil, err
	}
	return &StringMatcher{root: n}, nil
}

// CompileStringFold is CompileString with case-insensitive character
// equality.
func CompileStringFold(patt value.Value) (*StringMatcher, error) {
	m, err := CompileString(patt)
	if err != nil {
		return nil, err
	}
	m.foldCase = true
	return m, nil
}

// Match reports whether the whole subject matches. With prefixOnly (the
// NoEndAnchor flag), a match of any prefix suffices.
func (m *StringMatcher) Match(ctx *MatchContext, subject *atom.String, prefixOnly bool) bool {
	ctx.foldCase = m.foldCase
	return m.root.match(ctx, subject, 0, func(pos int) bool {
		return prefixOnly || pos == subject.Len()
	})
}

func compileStringNode(patt value.Value) (strNode, error) {
	switch t := patt.(type) {
	case *atom.String:
		return &strLiteralNode{text: t}, nil
	case *expr.Expression:
		return compileStringExpr(t)
	default:
		return nil, kernelerr.NewStringPatternError(
			patt.Text() + " is not a string-pattern construct")
	}
}

func compileStringExpr(e *expr.Expression) (strNode, error) {
	switch e.HeadName() {
	case "StringExpression":
		parts := make([]strNode, e.Size())
		for i := 0; i < e.Size(); i++ {
			n, err := compileStringNode(e.Leaf(i))
			if err != nil {
				return nil, err
			}
			parts[i] = n
		}
		return &strSeqNode{parts: parts}, nil
	case "Blank":
		if e.Size() != 0 {
			return nil, kernelerr.NewStringPatternError("head constraints do not apply to string blanks")
		}
		return &strSpanNode{min: 1, max: 1}, nil
	case "BlankSequence":
		return &strSpanNode{min: 1, max: -1}, nil
	case "BlankNullSequence":
		return &strSpanNode{min: 0, max: -1}, nil
	case "Pattern":
		if e.Size() != 2 {
			return nil, kernelerr.NewPatternError("Pattern expects exactly two arguments")
		}
		sym, ok := e.Leaf(0).(*symbol.Symbol)
		if !ok {
			return nil, kernelerr.NewPatternError("Pattern's first argument must be a symbol")
		}
		inner, err := compileStringNode(e.Leaf(1))
		if err != nil {
			return nil, err
		}
		return &strPatternNode{name: sym.ShortName(), inner: inner}, nil
	case "Alternatives":
		branches := make([]strNode, e.Size())
		for i := 0; i < e.Size(); i++ {
			n, err := compileStringNode(e.Leaf(i))
			if err != nil {
				return nil, err
			}
			branches[i] = n
		}
		return &strAlternativesNode{branches: branches}, nil
	case "Shortest", "Longest":
		if e.Size() != 1 {
			return nil, kernelerr.NewPatternError("Shortest/Longest expects exactly one argument")
		}
		inner, err := compileStringNode(e.Leaf(0))
		if err != nil {
			return nil, err
		}
		if span, ok := inner.(*strSpanNode); ok {
			span.shortest = e.HeadName() == "Shortest"
		}
		return inner, nil
	default:
		return nil, kernelerr.NewStringPatternError(
			e.HeadName() + " is legal only in expression patterns")
	}
}

// strLiteralNode consumes its text grapheme by grapheme.
type strLiteralNode struct{ text *atom.String }

func (n *strLiteralNode) match(ctx *MatchContext, subject *atom.String, pos int, k Continuation) bool {
	want := n.text.Len()
	if pos+want > subject.Len() {
		return false
	}
	got := subject.Slice(pos, pos+want)
	if ctx.foldCase {
		if !got.EqualFold(n.text) {
			return false
		}
	} else if got.Value() != n.text.Value() {
		return false
	}
	return k(pos + want)
}

// strSpanNode consumes between min and max graphemes (max -1 means to the
// end). Longest-first by default, like the sequence matcher.
type strSpanNode struct {
	min, max int
	shortest bool
}

func (n *strSpanNode) match(ctx *MatchContext, subject *atom.String, pos int, k Continuation) bool {
	maxRun := subject.Len() - pos
	if n.max >= 0 && n.max < maxRun {
		maxRun = n.max
	}
	if maxRun < n.min {
		return false
	}
	if n.shortest {
		for count := n.min; count <= maxRun; count++ {
			if k(pos + count) {
				return true
			}
		}
	} else {
		for count := maxRun; count >= n.min; count-- {
			if k(pos + count) {
				return true
			}
		}
	}
	return false
}

// strPatternNode binds the consumed substring, with the same repeated-
// variable consistency rule as expression patterns.
type strPatternNode struct {
	name  string
	inner strNode
}

func (n *strPatternNode) match(ctx *MatchContext, subject *atom.String, pos int, k Continuation) bool {
	return n.inner.match(ctx, subject, pos, func(newPos int) bool {
		mark := ctx.Bindings.Mark()
		if !ctx.Bindings.bindOrCheck(n.name, subject.Slice(pos, newPos)) {
			ctx.Bindings.Reset(mark)
			return false
		}
		if k(newPos) {
			return true
		}
		ctx.Bindings.Reset(mark)
		return false
	})
}

type strAlternativesNode struct{ branches []strNode }

func (n *strAlternativesNode) match(ctx *MatchContext, subject *atom.String, pos int, k Continuation) bool {
	for _, b := range n.branches {
		mark := ctx.Bindings.Mark()
		if b.match(ctx, subject, pos, k) {
			return true
		}
		ctx.Bindings.Reset(mark)
	}
	return false
}

type strSeqNode struct{ parts []strNode }

func (n *strSeqNode) match(ctx *MatchContext, subject *atom.String, pos int, k Continuation) bool {
	var step func(i, at int) bool
	step = func(i, at int) bool {
		if i == len(n.parts) {
			return k(at)
		}
		return n.parts[i].match(ctx, subject, at, func(next int) bool {
			return step(i+1, next)
		})
	}
	return step(0, pos)
}

// IsWordBoundary reports whether a grapheme position sits on a word
// boundary of s: the ends of the string, or an alphanumeric/non-
// alphanumeric transition. String-pattern consumers use this for the
// WordBoundary zero-width assertion.
func IsWordBoundary(s *atom.String, pos int) bool {
	if pos <= 0 || pos >= s.Len() {
		return true
	}
	return isWordChar(s.Slice(pos-1, pos).Value()) != isWordChar(s.Slice(pos, pos+1).Value())
}

func isWordChar(g string) bool {
	if g == "" {
		return false
	}
	return strings.ContainsAny(g[:1],
		"abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
}
