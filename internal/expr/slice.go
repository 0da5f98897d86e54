// Package expr implements the expression container and its leaf-storage
// strategies.
package expr

import (
	"sync/atomic"

	"symkernel/internal/atom"
	"symkernel/internal/value"
)

// TypeMask is a bitset of the value.Kind values present among a slice's
// leaves. An inexact mask is a conservative superset; the exact flag
// records whether it has been verified against the actual leaves yet.
type TypeMask struct {
	bits  uint32
	exact bool
}

func maskBit(k value.Kind) uint32 { return 1 << uint(k) }

func (m TypeMask) Has(k value.Kind) bool { return m.bits&maskBit(k) != 0 }
func (m TypeMask) Exact() bool           { return m.exact }

func computeExactMask(leaves []value.Value) TypeMask {
	var bits uint32
	for _, l := range leaves {
		bits |= maskBit(l.Kind())
	}
	return TypeMask{bits: bits, exact: true}
}

// slice is the internal storage contract; Expression holds one of the four
// concrete strategies below and never exposes the interface publicly
// (consumers go through Expression's methods instead).
type slice interface {
	size() int
	leaf(i int) value.Value
	// cachedMask reads or lazily computes and stores the type mask; the
	// "unknown" state is modeled as a nil *TypeMask stored behind an
	// atomic pointer so concurrent readers race safely and only one write
	// sticks (idempotent population, like the symbolic-form cache in
	// internal/atom).
	cachedMask(leaves func() []value.Value) TypeMask
}

// ---- Empty ---------------------------------------------------------------

type emptySlice struct{}

func (emptySlice) size() int                                         { return 0 }
func (emptySlice) leaf(i int) value.Value                            { panic("emptySlice: no leaves") }
func (emptySlice) cachedMask(func() []value.Value) TypeMask          { return TypeMask{exact: true} }

// ---- Tiny(N) for N in {1,2,3,4} -------------------------------------------

type tinySlice struct {
	n     int
	items [4]value.Value
	mask  atomic.Pointer[TypeMask]
}

func newTinySlice(leaves []value.Value) *tinySlice {
	t := &tinySlice{n: len(leaves)}
	copy(t.items[:], leaves)
	return t
}

func (t *tinySlice) size() int { return t.n }
func (t *tinySlice) leaf(i int) value.Value {
	if i < 0 || i >= t.n {
		panic("tinySlice: index out of range")
	}
	return t.items[i]
}
func (t *tinySlice) cachedMask(leaves func() []value.Value) TypeMask {
	return lazyMask(&t.mask, leaves)
}

// ---- Big -------------------------------------------------------------------

type bigSlice struct {
	items []value.Value
	mask  atomic.Pointer[TypeMask]
}

func newBigSlice(leaves []value.Value) *bigSlice {
	cp := make([]value.Value, len(leaves))
	copy(cp, leaves)
	return &bigSlice{items: cp}
}

func (b *bigSlice) size() int              { return len(b.items) }
func (b *bigSlice) leaf(i int) value.Value { return b.items[i] }
func (b *bigSlice) cachedMask(leaves func() []value.Value) TypeMask {
	return lazyMask(&b.mask, leaves)
}

// ---- Packed(T) for T in {MachineInteger, MachineReal} ----------------------

type packedKind uint8

const (
	packedInt packedKind = iota
	packedReal
)

type packedSlice struct {
	kind  packedKind
	ints  []int64
	reals []float64
	mask  atomic.Pointer[TypeMask]
}

func newPackedIntSlice(ints []int64) *packedSlice {
	return &packedSlice{kind: packedInt, ints: ints}
}

func newPackedRealSlice(reals []float64) *packedSlice {
	return &packedSlice{kind: packedReal, reals: reals}
}

func (p *packedSlice) size() int {
	if p.kind == packedInt {
		return len(p.ints)
	}
	return len(p.reals)
}

// leaf materializes a boxed reference on demand; still O(1), but allocating.
func (p *packedSlice) leaf(i int) value.Value {
	if p.kind == packedInt {
		return atom.MachineInteger(p.ints[i])
	}
	return atom.MachineReal(p.reals[i])
}

func (p *packedSlice) cachedMask(leaves func() []value.Value) TypeMask {
	if m := p.mask.Load(); m != nil {
		return *m
	}
	var bits uint32
	if p.kind == packedInt {
		bits = maskBit(value.KindMachineInt)
	} else {
		bits = maskBit(value.KindMachineReal)
	}
	m := TypeMask{bits: bits, exact: true}
	p.mask.Store(&m)
	return m
}

// lazyMask implements the "unknown -> compute once -> stored" state machine
// shared by tinySlice and bigSlice.
func lazyMask(slot *atomic.Pointer[TypeMask], leaves func() []value.Value) TypeMask {
	if m := slot.Load(); m != nil {
		return *m
	}
	m := computeExactMask(leaves())
	slot.Store(&m)
	return m
}

// packedMinSize is the minimum leaf count at which a homogeneous-kind
// slice switches to packed storage.
const packedMinSize = 16

// chooseSlice implements the leaf-storage strategy selection rule.
func chooseSlice(leaves []value.Value) slice {
	switch len(leaves) {
	case 0:
		return emptySlice{}
	case 1, 2, 3, 4:
		return newTinySlice(leaves)
	}
	if len(leaves) >= packedMinSize {
		if ints, ok := allMachineInt(leaves); ok {
			return newPackedIntSlice(ints)
		}
		if reals, ok := allMachineReal(leaves); ok {
			return newPackedRealSlice(reals)
		}
	}
	return newBigSlice(leaves)
}

func allMachineInt(leaves []value.Value) ([]int64, bool) {
	out := make([]int64, len(leaves))
	for i, l := range leaves {
		mi, ok := l.(atom.MachineInteger)
		if !ok {
			return nil, false
		}
		out[i] = int64(mi)
	}
	return out, true
}

func allMachineReal(leaves []value.Value) ([]float64, bool) {
	out := make([]float64, len(leaves))
	for i, l := range leaves {
		mr, ok := l.(atom.MachineReal)
		if !ok {
			return nil, false
		}
		out[i] = float64(mr)
	}
	return out, true
}
