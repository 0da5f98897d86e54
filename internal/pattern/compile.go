package pattern

import (
	"symkernel/internal/expr"
	"symkernel/internal/kernelerr"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

// Matcher is a compiled pattern, ready to run against candidate values.
type Matcher struct {
	root Node
}

// Size reports the compiled pattern's leaf-count interval, the way a rule
// table can use it to reject an expression of the wrong size before ever
// attempting a full match.
func (m *Matcher) Size() MatchSize { return m.root.Size() }

// MatchValue attempts to match candidate as a single value (not as one
// leaf among siblings); ctx's Bindings hold whatever was captured on
// success.
func (m *Matcher) MatchValue(ctx *MatchContext, candidate value.Value) bool {
	seq := []value.Value{candidate}
	return m.root.Match(ctx, seq, 0, func(pos int) bool { return pos == 1 })
}

// Compile turns a pattern expression into a Matcher. Every pattern
// construct recognized by head name (Blank, BlankSequence, Pattern,
// Alternatives, ...) compiles to its dedicated Node; anything else
// compiles to a literal, SameQ-matched node.
func Compile(pattern value.Value) (*Matcher, error) {
	n, err := compileNode(pattern)
	if err != nil {
		return nil, err
	}
	return &Matcher{root: n}, nil
}

func compileNode(pattern value.Value) (Node, error) {
	e, ok := pattern.(*expr.Expression)
	if !ok {
		return &literalNode{v: pattern}, nil
	}
	switch e.HeadName() {
	case "Blank":
		return compileBlank(e, 1, false)
	case "BlankSequence":
		return compileBlank(e, 1, true)
	case "BlankNullSequence":
		return compileBlank(e, 0, true)
	case "Pattern":
		return compilePattern(e)
	case "Alternatives":
		return compileAlternatives(e)
	case "Except":
		return compileExcept(e)
	case "PatternTest":
		return compilePatternTest(e)
	case "Condition":
		return compileCondition(e)
	case "Optional":
		return compileOptional(e)
	case "OptionsPattern":
		return &optionsPatternNode{}, nil
	case "Verbatim":
		if e.Size() != 1 {
			return nil, kernelerr.NewPatternError("Verbatim expects exactly one argument")
		}
		return &literalNode{v: e.Leaf(0)}, nil
	case "Repeated":
		return compileRepeated(e, 1)
	case "RepeatedNull":
		return compileRepeated(e, 0)
	case "Shortest":
		return compileBias(e, true)
	case "Longest":
		return compileBias(e, false)
	default:
		return compileExpression(e)
	}
}

func blankHeadName(e *expr.Expression) (string, error) {
	if e.Size() == 0 {
		return "", nil
	}
	if e.Size() != 1 {
		return "", kernelerr.NewPatternError("Blank-family patterns take at most one argument")
	}
	sym, ok := e.Leaf(0).(*symbol.Symbol)
	if !ok {
		return "", kernelerr.NewPatternError("Blank-family head constraint must be a symbol")
	}
	return sym.ShortName(), nil
}

func compileBlank(e *expr.Expression, min int64, isSpan bool) (Node, error) {
	head, err := blankHeadName(e)
	if err != nil {
		return nil, err
	}
	if isSpan {
		return &spanNode{head: head, min: min}, nil
	}
	return &blankNode{head: head}, nil
}

func compilePattern(e *expr.Expression) (Node, error) {
	if e.Size() != 2 {
		return nil, kernelerr.NewPatternError("Pattern expects exactly two arguments")
	}
	sym, ok := e.Leaf(0).(*symbol.Symbol)
	if !ok {
		return nil, kernelerr.NewPatternError("Pattern's first argument must be a symbol")
	}
	name := sym.ShortName()
	if inner, ok := e.Leaf(1).(*expr.Expression); ok && inner.HeadName() == "OptionsPattern" {
		return &optionsPatternNode{name: name}, nil
	}
	inner, err := compileNode(e.Leaf(1))
	if err != nil {
		return nil, err
	}
	return &patternNode{name: name, inner: inner}, nil
}

func compileAlternatives(e *expr.Expression) (Node, error) {
	branches := make([]Node, e.Size())
	for i := 0; i < e.Size(); i++ {
		n, err := compileNode(e.Leaf(i))
		if err != nil {
			return nil, err
		}
		branches[i] = n
	}
	return &alternativesNode{branches: branches}, nil
}

func compileExcept(e *expr.Expression) (Node, error) {
	switch e.Size() {
	case 1:
		excluded, err := compileNode(e.Leaf(0))
		if err != nil {
			return nil, err
		}
		return &exceptNode{excluded: excluded}, nil
	case 2:
		excluded, err := compileNode(e.Leaf(0))
		if err != nil {
			return nil, err
		}
		fallback, err := compileNode(e.Leaf(1))
		if err != nil {
			return nil, err
		}
		return &exceptNode{excluded: excluded, fallback: fallback}, nil
	default:
		return nil, kernelerr.NewPatternError("Except expects one or two arguments")
	}
}

func compilePatternTest(e *expr.Expression) (Node, error) {
	if e.Size() != 2 {
		return nil, kernelerr.NewPatternError("PatternTest expects exactly two arguments")
	}
	inner, err := compileNode(e.Leaf(0))
	if err != nil {
		return nil, err
	}
	return &patternTestNode{inner: inner, test: e.Leaf(1)}, nil
}

func compileCondition(e *expr.Expression) (Node, error) {
	if e.Size() != 2 {
		return nil, kernelerr.NewPatternError("Condition expects exactly two arguments")
	}
	inner, err := compileNode(e.Leaf(0))
	if err != nil {
		return nil, err
	}
	return &conditionNode{inner: inner, cond: e.Leaf(1)}, nil
}

func compileOptional(e *expr.Expression) (Node, error) {
	if e.Size() != 1 && e.Size() != 2 {
		return nil, kernelerr.NewPatternError("Optional expects one or two arguments")
	}
	var def value.Value = symbol.Lookup("System`Automatic")
	if e.Size() == 2 {
		def = e.Leaf(1)
	}
	name := ""
	innerPattern := e.Leaf(0)
	if pe, ok := innerPattern.(*expr.Expression); ok && pe.HeadName() == "Pattern" && pe.Size() == 2 {
		if sym, ok := pe.Leaf(0).(*symbol.Symbol); ok {
			name = sym.ShortName()
			innerPattern = pe
		}
	}
	inner, err := compileNode(innerPattern)
	if err != nil {
		return nil, err
	}
	return &optionalNode{inner: inner, name: name, defaultValue: def}, nil
}

func compileRepeated(e *expr.Expression, min int64) (Node, error) {
	if e.Size() != 1 {
		return nil, kernelerr.NewPatternError("Repeated/RepeatedNull expects exactly one argument")
	}
	inner, err := compileNode(e.Leaf(0))
	if err != nil {
		return nil, err
	}
	return &repeatedNode{inner: inner, min: min, max: matchSizeMax}, nil
}

func compileBias(e *expr.Expression, shortest bool) (Node, error) {
	if e.Size() != 1 {
		return nil, kernelerr.NewPatternError("Shortest/Longest expects exactly one argument")
	}
	inner, err := compileNode(e.Leaf(0))
	if err != nil {
		return nil, err
	}
	switch n := inner.(type) {
	case *spanNode:
		n.shortest = shortest
	case *repeatedNode:
		n.shortest = shortest
	}
	return inner, nil
}

func compileExpression(e *expr.Expression) (Node, error) {
	head, err := compileNode(e.Head())
	if err != nil {
		return nil, err
	}
	leaves := make([]Node, e.Size())
	for i := 0; i < e.Size(); i++ {
		n, err := compileNode(e.Leaf(i))
		if err != nil {
			return nil, err
		}
		leaves[i] = n
	}
	return &expressionNode{head: head, leaves: leaves}, nil
}
