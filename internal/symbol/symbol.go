package symbol

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"symkernel/internal/value"
)

// DispatchID is a small, attribute-derived classifier a fast evaluation
// path can switch on without re-decoding the attribute bitset on every
// call.
type DispatchID uint8

const (
	DispatchEvaluateAll DispatchID = iota
	DispatchHoldFirst
	DispatchHoldRest
	DispatchHoldAll
	DispatchHoldAllComplete
	DispatchOrderlessFlat
)

func computeDispatchID(a Attributes) DispatchID {
	switch a.HoldMode() {
	case HoldModeFirst:
		return DispatchHoldFirst
	case HoldModeRest:
		return DispatchHoldRest
	case HoldModeAll:
		return DispatchHoldAll
	case HoldModeAllComplete:
		return DispatchHoldAllComplete
	}
	if a.Has(Orderless | Flat) {
		return DispatchOrderlessFlat
	}
	return DispatchEvaluateAll
}

// Symbol is a globally-interned name carrying mutable evaluation state:
// attributes, an own-value, and the own/down/up/sub/format/default rule
// tables. Two Symbols with the same full name (context plus short name)
// are always the same *Symbol (see Lookup), so SameQ between symbols is
// pointer identity.
type Symbol struct {
	FullName string // e.g. "System`Plus"

	mu         sync.RWMutex
	attrs      Attributes
	dispatch   atomic.Uint32 // caches computeDispatchID(attrs)
	ownValue   value.Value   // nil when unset
	down       RuleTable
	up         RuleTable
	sub        RuleTable
	nRules     RuleTable
	format     RuleTable
	defaults   RuleTable
	messages   map[string]*Rule // message-name -> template rule
	options    map[string]value.Value
	locked     bool // Locked
}

func newSymbol(fullName string) *Symbol {
	s := &Symbol{FullName: fullName, messages: map[string]*Rule{}, options: map[string]value.Value{}}
	s.dispatch.Store(uint32(DispatchEvaluateAll))
	return s
}

func (s *Symbol) Kind() value.Kind { return value.KindSymbol }

// HeadName returns the symbol's own short name (context stripped), e.g.
// "Plus" for "System`Plus". This is the name used both for printing a
// symbol used as a head (f[a,b] prints head name "f") and for pattern
// classification recognizing built-in constructs like "Blank" or
// "Pattern" regardless of which context they were looked up in. The
// distinct notion of "what Head[] returns for a bare, unevaluated
// symbol" (always the symbol System`Symbol) is a builtin-function
// concern, not this method's.
func (s *Symbol) HeadName() string { return s.ShortName() }

// ShortName strips the context prefix (everything up to and including the
// last backtick) from FullName.
func (s *Symbol) ShortName() string {
	for i := len(s.FullName) - 1; i >= 0; i-- {
		if s.FullName[i] == '`' {
			return s.FullName[i+1:]
		}
	}
	return s.FullName
}

func (s *Symbol) Text() string { return s.FullName }

// SameQ for symbols is pointer identity, since every symbol with a given
// full name is interned to exactly one *Symbol.
func (s *Symbol) SameQ(other value.Value) bool {
	o, ok := other.(*Symbol)
	return ok && s == o
}

func (s *Symbol) Hash() uint64 {
	return hashFullName(s.FullName)
}

// Attributes returns the symbol's current attribute bitset.
func (s *Symbol) Attributes() Attributes {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attrs
}

// SetAttributes replaces the symbol's attribute bitset wholesale and
// refreshes the cached dispatch ID (evaluation reads dispatch, never
// attrs directly, on its hot path).
func (s *Symbol) SetAttributes(a Attributes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return errLocked(s.FullName)
	}
	s.attrs = a
	s.dispatch.Store(uint32(computeDispatchID(a)))
	return nil
}

// Dispatch returns the cached DispatchID without taking the attribute
// lock.
func (s *Symbol) Dispatch() DispatchID {
	return DispatchID(s.dispatch.Load())
}

// OwnValue returns the symbol's own-value and whether one is set.
func (s *Symbol) OwnValue() (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownValue, s.ownValue != nil
}

// SetOwnValue assigns the symbol's own-value.
func (s *Symbol) SetOwnValue(v value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return errLocked(s.FullName)
	}
	s.ownValue = v
	return nil
}

// ClearOwnValue removes the symbol's own-value; a Locked symbol keeps it.
func (s *Symbol) ClearOwnValue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return
	}
	s.ownValue = nil
}

func (s *Symbol) table(k RuleKind) *RuleTable {
	switch k {
	case UpRule:
		return &s.up
	case SubRule:
		return &s.sub
	case NRule:
		return &s.nRules
	case FormatRule:
		return &s.format
	case DefaultRule:
		return &s.defaults
	default:
		return &s.down
	}
}

// AddRule inserts pattern -> replacement into the named table, sorted by
// specificity. Down/up/sub-value tables on a Protected or Locked symbol
// reject new rules; N-values, format-values and defaults bypass Protected
// since those tables exist precisely so a Protected built-in can still be
// extended with numeric or display rules.
func (s *Symbol) AddRule(k RuleKind, pattern, replacement value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked || (s.attrs.Has(Protected) && (k == DownRule || k == UpRule || k == SubRule)) {
		return errLocked(s.FullName)
	}
	s.table(k).Insert(&Rule{Kind: k, Pattern: pattern, Replacement: replacement, Key: ComputeSortKey(pattern)})
	return nil
}

// RemoveRule deletes the rule matching pattern (by SameQ) from the named
// table.
func (s *Symbol) RemoveRule(k RuleKind, pattern value.Value) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked || (s.attrs.Has(Protected) && (k == DownRule || k == UpRule || k == SubRule)) {
		return false, errLocked(s.FullName)
	}
	return s.table(k).Remove(pattern), nil
}

// Rules returns a snapshot of the named table's rules in match-attempt
// order.
func (s *Symbol) Rules(k RuleKind) []*Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Rule(nil), s.table(k).Rules()...)
}

// SetMessage stores a named message template (e.g. "Plus::argx").
func (s *Symbol) SetMessage(name string, template value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[name] = &Rule{Kind: DefaultRule, Replacement: template}
}

// Message looks up a named message template.
func (s *Symbol) Message(name string) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.messages[name]
	if !ok {
		return nil, false
	}
	return r.Replacement, true
}

// SetOption stores an option default.
func (s *Symbol) SetOption(name string, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options[name] = v
}

// Option looks up an option default.
func (s *Symbol) Option(name string) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.options[name]
	return v, ok
}

// Lock marks the symbol Locked: attributes, rules and own-value become
// immutable until the process restarts (there is no Unlock).
func (s *Symbol) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = true
	s.attrs |= Locked
}

type errLocked string

func (e errLocked) Error() string { return "Symbol::locked: " + string(e) + " is Locked" }

// NewTemporary mints a unique "Temporary" symbol (as produced by Unique[]
// or Module-local renaming), named with a uuid suffix so concurrent
// callers can never collide without needing a shared counter.
func NewTemporary(base string) *Symbol {
	name := base + "$" + uuid.NewString()
	s := newSymbol(name)
	s.attrs = Temporary
	return s
}

var _ value.Value = (*Symbol)(nil)
