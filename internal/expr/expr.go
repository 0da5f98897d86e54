package expr

import (
	"strings"
	"sync"

	"symkernel/internal/value"
)

// SymbolicForm mirrors internal/atom's cache: an optional, lazily computed,
// immutable-once-set computer-algebra handle.
type SymbolicForm interface {
	Text() string
}

// Expression is `(head, leaves)`. It is immutable: every
// operation that would "change" an Expression returns a new one. Go's
// garbage collector takes the place of the original kernel's explicit
// reference counting; sharing an *Expression
// across goroutines is safe for exactly the same reason sharing any
// immutable Go value is safe.
type Expression struct {
	head   value.Value
	leaves slice

	formMu   sync.Mutex
	formSet  bool
	form     SymbolicForm
}

// New builds an Expression over head and leaves, picking a leaf storage
// strategy.1.
func New(head value.Value, leaves ...value.Value) *Expression {
	return &Expression{head: head, leaves: chooseSlice(leaves)}
}

func (e *Expression) Kind() value.Kind { return value.KindExpression }

// Head returns the expression's head value (an atom, symbol, or another
// expression).
func (e *Expression) Head() value.Value { return e.head }

// Size is O(1).
func (e *Expression) Size() int { return e.leaves.size() }

// Leaf is O(1) except for a packed-slice rehydration, which is still O(1)
// but allocating.
func (e *Expression) Leaf(i int) value.Value {
	if i < 0 || i >= e.Size() {
		panic("Expression.Leaf: index out of range")
	}
	return e.leaves.leaf(i)
}

// LeafSource is the zero-copy iteration handle WithSlice passes to its
// callback").
type LeafSource interface {
	Size() int
	Leaf(i int) value.Value
}

// WithSlice invokes f with a zero-copy view over the concrete leaf
// storage, for consumers (the evaluator, pattern matcher) that want to
// iterate without materializing a dense slice first.
func (e *Expression) WithSlice(f func(LeafSource)) {
	f(e)
}

// Materialize returns a dense []value.Value of every leaf. It always
// allocates a fresh slice, so the caller may modify it.
func (e *Expression) Materialize() []value.Value {
	n := e.Size()
	out := make([]value.Value, n)
	for i := 0; i < n; i++ {
		out[i] = e.leaves.leaf(i)
	}
	return out
}

// Slice builds a new Expression over leaves [begin,end) under a
// (possibly different) head, re-running slice-strategy selection
//").
func (e *Expression) Slice(head value.Value, begin, end int) *Expression {
	n := e.Size()
	if begin < 0 || end > n || begin > end {
		panic("Expression.Slice: index out of range")
	}
	out := make([]value.Value, end-begin)
	for i := begin; i < end; i++ {
		out[i-begin] = e.leaves.leaf(i)
	}
	return New(head, out...)
}

// TypeMask returns the cached mask, computing it lazily on first access.
func (e *Expression) TypeMask() TypeMask {
	return e.leaves.cachedMask(e.Materialize)
}

// HeadName delegates to the head value's own HeadName — when the head is
// itself a compound expression, that is its head's name, recursively.
func (e *Expression) HeadName() string {
	return e.head.HeadName()
}

func (e *Expression) Text() string {
	var sb strings.Builder
	sb.WriteString(e.head.Text())
	sb.WriteByte('[')
	for i := 0; i < e.Size(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.Leaf(i).Text())
	}
	sb.WriteByte(']')
	return sb.String()
}

// Hash combines the head's hash with each leaf's hash in order; two
// structurally equal expressions always hash identically.
func (e *Expression) Hash() uint64 {
	h := e.head.Hash()
	for i := 0; i < e.Size(); i++ {
		leaf := e.Leaf(i)
		h = h ^ (leaf.Hash() + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2))
	}
	return h
}

// SameQ is structural equality: same head, same size, leaves pairwise
// SameQ.
func (e *Expression) SameQ(other value.Value) bool {
	o, ok := other.(*Expression)
	if !ok {
		return false
	}
	if e == o {
		return true
	}
	if !e.head.SameQ(o.head) || e.Size() != o.Size() {
		return false
	}
	for i := 0; i < e.Size(); i++ {
		if !e.Leaf(i).SameQ(o.Leaf(i)) {
			return false
		}
	}
	return true
}

// SymbolicFormOf lazily computes (and caches) e's symbolic-form handle.
func (e *Expression) SymbolicFormOf(construct func(*Expression) SymbolicForm) SymbolicForm {
	e.formMu.Lock()
	defer e.formMu.Unlock()
	if !e.formSet {
		e.form = construct(e)
		e.formSet = true
	}
	return e.form
}

var _ value.Value = (*Expression)(nil)
