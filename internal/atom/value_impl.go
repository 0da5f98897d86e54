package atom

import (
	"symkernel/internal/value"
)

// Kind ----------------------------------------------------------------

func (MachineInteger) Kind() value.Kind  { return value.KindMachineInt }
func (*BigInteger) Kind() value.Kind     { return value.KindBigInt }
func (MachineReal) Kind() value.Kind     { return value.KindMachineReal }
func (*BigReal) Kind() value.Kind        { return value.KindBigReal }
func (*Rational) Kind() value.Kind       { return value.KindRational }
func (MachineComplex) Kind() value.Kind  { return value.KindMachineComplex }
func (*BigComplex) Kind() value.Kind     { return value.KindBigComplex }

// HeadName --------------------------------------------------------------

func (MachineInteger) HeadName() string { return "Integer" }
func (*BigInteger) HeadName() string    { return "Integer" }
func (MachineReal) HeadName() string    { return "Real" }
func (*BigReal) HeadName() string       { return "Real" }
func (*Rational) HeadName() string      { return "Rational" }
func (MachineComplex) HeadName() string { return "Complex" }
func (*BigComplex) HeadName() string    { return "Complex" }

// Hash --------------------------------------------------------------------
// Each Hash combines a kind-specific seed with the payload hash via
// hashCombine (hash.go).

func (n MachineInteger) Hash() uint64 {
	return hashCombine(kindSeedFor(byte(value.KindMachineInt)), hashInt64(int64(n)))
}

func (b *BigInteger) Hash() uint64 {
	b.hashOnce.Do(func() {
		b.hash = hashCombine(kindSeedFor(byte(value.KindBigInt)), hashBytes(b.v.Bytes()))
		if b.v.Sign() < 0 {
			b.hash = hashCombine(b.hash, 1)
		}
	})
	return b.hash
}

func (r MachineReal) Hash() uint64 {
	return hashCombine(kindSeedFor(byte(value.KindMachineReal)), hashMachineReal(float64(r)))
}

func (r *BigReal) Hash() uint64 {
	f, _ := r.v.Float64()
	return hashCombine(kindSeedFor(byte(value.KindBigReal)), hashMachineReal(f))
}

func (r *Rational) Hash() uint64 {
	h := hashCombine(kindSeedFor(byte(value.KindRational)), hashBytes(r.v.Num().Bytes()))
	return hashCombine(h, hashBytes(r.v.Denom().Bytes()))
}

func (c MachineComplex) Hash() uint64 {
	h := hashCombine(kindSeedFor(byte(value.KindMachineComplex)), hashMachineReal(c.Re))
	return hashCombine(h, hashMachineReal(c.Im))
}

func (c *BigComplex) Hash() uint64 {
	re, _ := c.Re.Float64()
	im, _ := c.Im.Float64()
	h := hashCombine(kindSeedFor(byte(value.KindBigComplex)), hashMachineReal(re))
	return hashCombine(h, hashMachineReal(im))
}

// SameQ is bit-exact structural equality, stricter than the numeric Equal predicate.

func (n MachineInteger) SameQ(other value.Value) bool {
	o, ok := other.(MachineInteger)
	return ok && n == o
}

func (b *BigInteger) SameQ(other value.Value) bool {
	o, ok := other.(*BigInteger)
	return ok && b.v.Cmp(o.v) == 0
}

func (r MachineReal) SameQ(other value.Value) bool {
	o, ok := other.(MachineReal)
	return ok && r == o
}

func (r *BigReal) SameQ(other value.Value) bool {
	o, ok := other.(*BigReal)
	return ok && r.v.Cmp(o.v) == 0 && r.v.Prec() == o.v.Prec()
}

func (r *Rational) SameQ(other value.Value) bool {
	o, ok := other.(*Rational)
	return ok && r.v.Cmp(o.v) == 0
}

func (c MachineComplex) SameQ(other value.Value) bool {
	o, ok := other.(MachineComplex)
	return ok && c == o
}

func (c *BigComplex) SameQ(other value.Value) bool {
	o, ok := other.(*BigComplex)
	return ok && c.Re.Cmp(o.Re) == 0 && c.Im.Cmp(o.Im) == 0
}

// NumericEqual implements value.Equaler: the looser Equal[] predicate. Two
// reals are "equal" iff their relative difference is <= 2^-(p-7) where p
// is the smaller operand's precision. Exact kinds (ints, rationals) are
// compared exactly, as rationals.

func (n MachineInteger) NumericEqual(other value.Value) bool  { return numericEqual(n, other) }
func (b *BigInteger) NumericEqual(other value.Value) bool     { return numericEqual(b, other) }
func (r MachineReal) NumericEqual(other value.Value) bool     { return numericEqual(r, other) }
func (r *BigReal) NumericEqual(other value.Value) bool        { return numericEqual(r, other) }
func (r *Rational) NumericEqual(other value.Value) bool       { return numericEqual(r, other) }
func (c MachineComplex) NumericEqual(other value.Value) bool  { return numericEqual(c, other) }
func (c *BigComplex) NumericEqual(other value.Value) bool     { return numericEqual(c, other) }
