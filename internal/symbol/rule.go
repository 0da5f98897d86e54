package symbol

import (
	"sort"

	"symkernel/internal/expr"
	"symkernel/internal/value"
)

// RuleKind distinguishes which table a Rule belongs to.
type RuleKind uint8

const (
	DownRule RuleKind = iota
	UpRule
	SubRule
	NRule
	FormatRule
	DefaultRule
)

// Rule is a single (pattern, replacement) entry in one of a symbol's rule
// tables. Compiled is populated lazily by internal/eval the first time
// the rule is matched against; it is opaque here to avoid a symbol<->
// pattern import cycle (symbol is the lower-level package, since rule
// sort-keys only need to look at a pattern's raw expression shape).
type Rule struct {
	Kind        RuleKind
	Pattern     value.Value
	Replacement value.Value
	Key         SortKey
	Compiled    any
}

// structuralKind orders pattern specificity from most to least specific,
// mirroring the ordering a rule-matching kernel uses to try narrower
// patterns before broader ones.
type structuralKind uint8

const (
	kindLiteral structuralKind = iota
	kindFixedHeadBlank
	kindGenericBlank
	kindBlankSequence
	kindBlankNullSequence
	kindAlternatives
)

// SortKey orders rules on a symbol so more specific patterns are tried
// before more general ones. Ties are broken by insertion order (a stable
// sort), matching first-come-first-served semantics for equally-specific
// rules.
type SortKey struct {
	structKind     structuralKind
	leafCount      int
	hasPatternTest bool
	hasCondition   bool
}

// Less orders k before o when k is strictly more specific.
func (k SortKey) Less(o SortKey) bool {
	if k.structKind != o.structKind {
		return k.structKind < o.structKind
	}
	// Fewer leaves is more specific only when compared within an otherwise
	// tied classification; more leaves pinned down is actually *more*
	// specific, so higher leafCount sorts first.
	if k.leafCount != o.leafCount {
		return k.leafCount > o.leafCount
	}
	if k.hasPatternTest != o.hasPatternTest {
		return k.hasPatternTest
	}
	if k.hasCondition != o.hasCondition {
		return k.hasCondition
	}
	return false
}

// ComputeSortKey classifies a rule's pattern expression for table
// ordering. It only inspects the pattern's head names and leaf shapes —
// no compiled matcher is required, so this can run before
// internal/pattern ever compiles anything.
func ComputeSortKey(pattern value.Value) SortKey {
	k := SortKey{structKind: kindLiteral}
	classifyInto(pattern, &k)
	if e, ok := pattern.(*expr.Expression); ok {
		k.leafCount = e.Size()
		worst := k.structKind
		for i := 0; i < e.Size(); i++ {
			leafKey := SortKey{}
			classifyInto(e.Leaf(i), &leafKey)
			if leafKey.structKind > worst {
				worst = leafKey.structKind
			}
			k.hasPatternTest = k.hasPatternTest || leafKey.hasPatternTest
			k.hasCondition = k.hasCondition || leafKey.hasCondition
		}
		if worst > kindLiteral {
			k.structKind = worst
		}
	}
	return k
}

// classifyInto fills in the structural classification and test/condition
// flags for a single pattern node, unwrapping Pattern[x, p],
// PatternTest[p, f] and Condition[p, c] wrappers to classify the inner
// pattern p while recording that a test/condition was present.
func classifyInto(p value.Value, k *SortKey) {
	e, ok := p.(*expr.Expression)
	if !ok {
		k.structKind = kindLiteral
		return
	}
	switch e.HeadName() {
	case "Blank":
		if e.Size() >= 1 {
			k.structKind = kindFixedHeadBlank
		} else {
			k.structKind = kindGenericBlank
		}
	case "BlankSequence":
		k.structKind = kindBlankSequence
	case "BlankNullSequence":
		k.structKind = kindBlankNullSequence
	case "Alternatives":
		k.structKind = kindAlternatives
	case "Pattern":
		if e.Size() == 2 {
			classifyInto(e.Leaf(1), k)
		}
	case "PatternTest":
		k.hasPatternTest = true
		if e.Size() == 2 {
			classifyInto(e.Leaf(0), k)
		}
	case "Condition":
		k.hasCondition = true
		if e.Size() >= 1 {
			classifyInto(e.Leaf(0), k)
		}
	case "Optional":
		if e.Size() >= 1 {
			classifyInto(e.Leaf(0), k)
		}
	default:
		k.structKind = kindLiteral
	}
}

// RuleTable is a sorted sequence of Rules; insertion keeps it ordered by
// SortKey (stable, so equally-specific rules stay in definition order).
type RuleTable struct {
	rules []*Rule
}

// Insert adds r into the table in sorted position, replacing any existing
// rule whose pattern is SameQ to r.Pattern (redefining a rule updates it
// in place rather than appending a duplicate).
func (t *RuleTable) Insert(r *Rule) {
	for i, existing := range t.rules {
		if existing.Pattern.SameQ(r.Pattern) {
			t.rules[i] = r
			return
		}
	}
	t.rules = append(t.rules, r)
	sort.SliceStable(t.rules, func(i, j int) bool {
		return t.rules[i].Key.Less(t.rules[j].Key)
	})
}

// Remove deletes the rule whose pattern is SameQ to pattern, reporting
// whether one was found.
func (t *RuleTable) Remove(pattern value.Value) bool {
	for i, r := range t.rules {
		if r.Pattern.SameQ(pattern) {
			t.rules = append(t.rules[:i], t.rules[i+1:]...)
			return true
		}
	}
	return false
}

// Rules returns the table's rules in match-attempt order.
func (t *RuleTable) Rules() []*Rule { return t.rules }

func (t *RuleTable) Len() int { return len(t.rules) }
