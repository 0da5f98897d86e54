// Package rewrite compiles a rule's right-hand side into a directive tree
// once, the first time the rule is applied (the evaluator caches the
// result on the rule), so repeated rule application doesn't
// re-walk and re-classify the same replacement expression on every match.
// The directive vocabulary (Slot/OptionValue/Copy/Descend/IllegalSlot) is
// grounded on the kernel's own rewrite-template design: most of a
// replacement is structure that never changes between applications (Copy),
// a few leaves are pattern-variable references that get swapped in
// (Slot), some reference a matched OptionsPattern's values (OptionValue),
// and any unresolvable slot compiles to an IllegalSlot directive so the
// error surfaces at substitution time with the original expression
// attached for diagnostics.
package rewrite

import (
	"symkernel/internal/expr"
	"symkernel/internal/kernelerr"
	"symkernel/internal/pattern"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

type directiveKind uint8

const (
	dirCopy directiveKind = iota
	dirSlot
	dirOptionValue
	dirDescend
	dirIllegalSlot
)

// Template is a compiled replacement: a tree of directives mirroring the
// shape of the original right-hand-side expression.
type Template struct {
	kind    directiveKind
	literal value.Value
	name    string
	head    *Template
	leaves  []*Template
}

// Compile walks rhs once and produces a Template. Every bare symbol leaf
// is a potential pattern-variable reference (Slot), resolved dynamically
// at Substitute time against whatever Bindings a particular match
// produced — a symbol that turns out not to be bound is simply copied
// through unchanged, since it's then just an ordinary global symbol
// appearing literally in the replacement.
func Compile(rhs value.Value) *Template {
	if sym, ok := rhs.(*symbol.Symbol); ok {
		return &Template{kind: dirSlot, name: sym.ShortName(), literal: sym}
	}
	e, ok := rhs.(*expr.Expression)
	if !ok {
		return &Template{kind: dirCopy, literal: rhs}
	}
	if e.HeadName() == "OptionValue" && e.Size() == 1 {
		if sym, ok := e.Leaf(0).(*symbol.Symbol); ok {
			return &Template{kind: dirOptionValue, name: sym.ShortName()}
		}
		return &Template{kind: dirIllegalSlot, literal: rhs}
	}
	head := Compile(e.Head())
	leaves := make([]*Template, e.Size())
	for i := 0; i < e.Size(); i++ {
		leaves[i] = Compile(e.Leaf(i))
	}
	return &Template{kind: dirDescend, head: head, leaves: leaves}
}

// Substitute instantiates the template against a successful match's
// bindings. Copy leaves and unbound symbols are reused as they are, but
// every compound node is built anew: a sub-expression that references no
// bound variable comes back as a new expression SameQ to the original,
// not as the original itself.
func Substitute(t *Template, bindings *pattern.Bindings) (value.Value, error) {
	switch t.kind {
	case dirCopy:
		return t.literal, nil
	case dirIllegalSlot:
		return nil, kernelerr.NewPatternError("illegal slot reference in replacement: " + t.literal.Text())
	case dirSlot:
		if v, ok := bindings.Lookup(t.name); ok {
			return v, nil
		}
		return t.literal, nil
	case dirOptionValue:
		if v, ok := lookupOption(bindings, t.name); ok {
			return v, nil
		}
		return nil, kernelerr.New(kernelerr.TypeMismatch, "OptionValue", "optnf",
			"option "+t.name+" not found among the matched OptionsPattern values")
	case dirDescend:
		head, err := Substitute(t.head, bindings)
		if err != nil {
			return nil, err
		}
		leaves := make([]value.Value, len(t.leaves))
		changed := head != t.head.literal
		for i, lt := range t.leaves {
			v, err := Substitute(lt, bindings)
			if err != nil {
				return nil, err
			}
			leaves[i] = v
			if lt.kind != dirCopy || v != lt.literal {
				changed = true
			}
		}
		if !changed {
			if orig, ok := t.original(); ok {
				return orig, nil
			}
		}
		return expr.New(head, leaves...), nil
	default:
		return nil, kernelerr.NewPatternError("unreachable rewrite directive")
	}
}

// original rebuilds the pre-substitution expression from the Descend
// template's own parts; nothing is stashed on the node, so every call
// builds a new expression. It fails when any part is neither Copy nor
// Descend, which includes every symbol head (Compile turns bare symbols
// into Slot).
func (t *Template) original() (*expr.Expression, bool) {
	if t.kind != dirDescend {
		return nil, false
	}
	headV, ok := t.head.pureLiteral()
	if !ok {
		return nil, false
	}
	leaves := make([]value.Value, len(t.leaves))
	for i, lt := range t.leaves {
		v, ok := lt.pureLiteral()
		if !ok {
			return nil, false
		}
		leaves[i] = v
	}
	return expr.New(headV, leaves...), true
}

func (t *Template) pureLiteral() (value.Value, bool) {
	if t.kind == dirCopy {
		return t.literal, true
	}
	if t.kind == dirDescend {
		return t.original()
	}
	return nil, false
}

// lookupOption scans every bound List-of-Rules value (what an
// OptionsPattern[] capture looks like) for a Rule whose left side names
// the requested option.
func lookupOption(bindings *pattern.Bindings, name string) (value.Value, bool) {
	for _, candidate := range bindings.Snapshot() {
		list, ok := candidate.(*expr.Expression)
		if !ok || list.HeadName() != "List" {
			continue
		}
		for i := 0; i < list.Size(); i++ {
			rule, ok := list.Leaf(i).(*expr.Expression)
			if !ok || rule.Size() != 2 {
				continue
			}
			if rule.HeadName() != "Rule" && rule.HeadName() != "RuleDelayed" {
				continue
			}
			if sym, ok := rule.Leaf(0).(*symbol.Symbol); ok && sym.ShortName() == name {
				return rule.Leaf(1), true
			}
		}
	}
	return nil, false
}
