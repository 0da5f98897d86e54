package atom

import (
	"math/big"

	"github.com/remyoudompheng/bigfft"
	"symkernel/internal/kernelerr"
	"symkernel/internal/value"
)

// rank implements the numeric promotion join lattice:
//
//	MachineInt ⊑ BigInt ⊑ BigRational ⊑ MachineReal ⊑ BigReal (and each ⊑ complex)
//
// Complex kinds always outrank their real counterpart at the same rank
// tier; Add/Sub/Mul/Div compute in the join (max) rank of their operands.
type rank int

const (
	rankMachineInt rank = iota
	rankBigInt
	rankRational
	rankMachineReal
	rankBigReal
	rankMachineComplex
	rankBigComplex
)

func rankOf(v value.Value) rank {
	switch v.(type) {
	case MachineInteger:
		return rankMachineInt
	case *BigInteger:
		return rankBigInt
	case *Rational:
		return rankRational
	case MachineReal:
		return rankMachineReal
	case *BigReal:
		return rankBigReal
	case MachineComplex:
		return rankMachineComplex
	case *BigComplex:
		return rankBigComplex
	default:
		return -1
	}
}

// IsNumber reports whether v is one of the seven numeric-tower kinds.
func IsNumber(v value.Value) bool {
	return rankOf(v) >= 0
}

// bigMul multiplies using bigfft once operands are large enough for the FFT
// crossover to pay off; math/big's own Mul already dispatches to Karatsuba
// internally for mid-size operands, bigfft only wins past a few thousand
// words, which is the regime an arbitrary-precision kernel eventually hits
// for BigInteger exponentiation (Power) chains.
const bigfftWordThreshold = 1 << 12 // ~ 2^12 * 64-bit words

func bigMul(a, b *big.Int) *big.Int {
	if len(a.Bits()) > bigfftWordThreshold && len(b.Bits()) > bigfftWordThreshold {
		return bigfft.Mul(a, b)
	}
	return new(big.Int).Mul(a, b)
}

// ---- promotion: widen a value.Value to at least the given rank ----------

func toBigInt(v value.Value) *big.Int {
	switch n := v.(type) {
	case MachineInteger:
		return big.NewInt(int64(n))
	case *BigInteger:
		return n.v
	}
	panic("toBigInt: not an integer")
}

func toRational(v value.Value) *big.Rat {
	switch n := v.(type) {
	case MachineInteger:
		return new(big.Rat).SetInt64(int64(n))
	case *BigInteger:
		return new(big.Rat).SetInt(n.v)
	case *Rational:
		return n.v
	}
	panic("toRational: not exact")
}

func toBigFloat(v value.Value, prec uint) *big.Float {
	f := new(big.Float).SetPrec(prec)
	switch n := v.(type) {
	case MachineInteger:
		return f.SetInt64(int64(n))
	case *BigInteger:
		return f.SetInt(n.v)
	case *Rational:
		return f.SetRat(n.v)
	case MachineReal:
		return f.SetFloat64(float64(n))
	case *BigReal:
		return f.Set(n.v)
	}
	panic("toBigFloat: not real")
}

func toFloat64(v value.Value) float64 {
	switch n := v.(type) {
	case MachineInteger:
		return float64(n)
	case *BigInteger:
		f, _ := new(big.Float).SetInt(n.v).Float64()
		return f
	case *Rational:
		f, _ := n.v.Float64()
		return f
	case MachineReal:
		return float64(n)
	case *BigReal:
		f, _ := n.v.Float64()
		return f
	}
	panic("toFloat64: not real")
}

func toComplexParts(v value.Value) (re, im *big.Float, prec uint) {
	switch n := v.(type) {
	case MachineComplex:
		return big.NewFloat(n.Re), big.NewFloat(n.Im), 53
	case *BigComplex:
		return n.Re, n.Im, n.Re.Prec()
	default:
		prec = uint(53)
		if r, ok := v.(*BigReal); ok {
			prec = r.v.Prec()
		}
		return toBigFloat(v, prec), new(big.Float).SetPrec(prec), prec
	}
}

// ---- canonicalization -----------------------------------------------------

// machineIntFits reports whether n fits in a MachineInteger.
func machineIntFits(n *big.Int) (int64, bool) {
	if n.IsInt64() {
		return n.Int64(), true
	}
	return 0, false
}

// NormalizeBigInt demotes a *big.Int to MachineInteger when it fits,
// otherwise keeps it as a BigInteger.
func NormalizeBigInt(n *big.Int) value.Value {
	if i, ok := machineIntFits(n); ok {
		return MachineInteger(i)
	}
	return &BigInteger{v: n}
}

// NewRational builds a canonical rational: reduced, denominator > 0, and
// demoted to an integer kind if the denominator is 1.
func NewRational(num, den *big.Int) value.Value {
	r := new(big.Rat).SetFrac(num, den)
	if r.IsInt() {
		return NormalizeBigInt(new(big.Int).Set(r.Num()))
	}
	return &Rational{v: r}
}

// ---- arithmetic -----------------------------------------------------------

// Add, Sub, Mul, Div implement the closed binary operator contract:
// compute the result in the join kind of the operands.
func Add(a, b value.Value) value.Value { return arith(a, b, opAdd) }
func Sub(a, b value.Value) value.Value { return arith(a, b, opSub) }
func Mul(a, b value.Value) value.Value { return arith(a, b, opMul) }
func Div(a, b value.Value) (value.Value, error) { return divide(a, b) }

type op int

const (
	opAdd op = iota
	opSub
	opMul
)

func arith(a, b value.Value, o op) value.Value {
	ra, rb := rankOf(a), rankOf(b)
	joined := ra
	if rb > joined {
		joined = rb
	}
	switch joined {
	case rankMachineInt:
		x, y := int64(a.(MachineInteger)), int64(b.(MachineInteger))
		v, overflow := checkedOp(x, y, o)
		if !overflow {
			return MachineInteger(v)
		}
		return NormalizeBigInt(bigIntOp(toBigInt(a), toBigInt(b), o))
	case rankBigInt:
		return NormalizeBigInt(bigIntOp(toBigInt(a), toBigInt(b), o))
	case rankRational:
		x, y := toRational(a), toRational(b)
		r := new(big.Rat)
		switch o {
		case opAdd:
			r.Add(x, y)
		case opSub:
			r.Sub(x, y)
		case opMul:
			r.Mul(x, y)
		}
		return NewRational(new(big.Int).Set(r.Num()), new(big.Int).Set(r.Denom()))
	case rankMachineReal:
		x, y := toFloat64(a), toFloat64(b)
		switch o {
		case opAdd:
			return MachineReal(x + y)
		case opSub:
			return MachineReal(x - y)
		default:
			return MachineReal(x * y)
		}
	case rankBigReal:
		prec := minPrecision(a, b)
		x, y := toBigFloat(a, prec), toBigFloat(b, prec)
		r := new(big.Float).SetPrec(prec)
		switch o {
		case opAdd:
			r.Add(x, y)
		case opSub:
			r.Sub(x, y)
		case opMul:
			r.Mul(x, y)
		}
		return &BigReal{v: r}
	case rankMachineComplex:
		x := toMachineComplex(a)
		y := toMachineComplex(b)
		switch o {
		case opAdd:
			return MachineComplex{x.Re + y.Re, x.Im + y.Im}
		case opSub:
			return MachineComplex{x.Re - y.Re, x.Im - y.Im}
		default:
			return MachineComplex{x.Re*y.Re - x.Im*y.Im, x.Re*y.Im + x.Im*y.Re}
		}
	default: // rankBigComplex
		return bigComplexOp(a, b, o)
	}
}

func toMachineComplex(v value.Value) MachineComplex {
	if c, ok := v.(MachineComplex); ok {
		return c
	}
	return MachineComplex{Re: toFloat64(v)}
}

func bigIntOp(x, y *big.Int, o op) *big.Int {
	switch o {
	case opAdd:
		return new(big.Int).Add(x, y)
	case opSub:
		return new(big.Int).Sub(x, y)
	default:
		return bigMul(x, y)
	}
}

// checkedOp performs a checked machine-integer add/sub/mul, reporting
// overflow so callers can promote to BigInteger.
func checkedOp(x, y int64, o op) (int64, bool) {
	switch o {
	case opAdd:
		s := x + y
		if (x > 0 && y > 0 && s < 0) || (x < 0 && y < 0 && s > 0) {
			return 0, true
		}
		return s, false
	case opSub:
		return checkedOp(x, -y, opAdd)
	default:
		if x == 0 || y == 0 {
			return 0, false
		}
		p := x * y
		if p/y != x {
			return 0, true
		}
		return p, false
	}
}

// minPrecision implements the rule that a BigReal result inherits the
// minimum precision of its operands: result precision = min(p_a, p_b).
func minPrecision(a, b value.Value) uint {
	pa, pb := precisionOf(a), precisionOf(b)
	if pa < pb {
		return pa
	}
	return pb
}

func precisionOf(v value.Value) uint {
	switch n := v.(type) {
	case *BigReal:
		return n.v.Prec()
	case *BigComplex:
		return n.Re.Prec()
	default:
		return 53 // machine precision
	}
}

func bigComplexOp(a, b value.Value, o op) value.Value {
	ar, ai, aprec := toComplexParts(a)
	br, bi, bprec := toComplexParts(b)
	prec := aprec
	if bprec < prec {
		prec = bprec
	}
	rr := new(big.Float).SetPrec(prec)
	ri := new(big.Float).SetPrec(prec)
	switch o {
	case opAdd:
		rr.Add(ar, br)
		ri.Add(ai, bi)
	case opSub:
		rr.Sub(ar, br)
		ri.Sub(ai, bi)
	default:
		t1 := new(big.Float).SetPrec(prec).Mul(ar, br)
		t2 := new(big.Float).SetPrec(prec).Mul(ai, bi)
		rr.Sub(t1, t2)
		t3 := new(big.Float).SetPrec(prec).Mul(ar, bi)
		t4 := new(big.Float).SetPrec(prec).Mul(ai, br)
		ri.Add(t3, t4)
	}
	return &BigComplex{Re: rr, Im: ri}
}

// divide raises DivisionByZero for a zero divisor, exact or inexact.
func divide(a, b value.Value) (value.Value, error) {
	ra, rb := rankOf(a), rankOf(b)
	joined := ra
	if rb > joined {
		joined = rb
	}
	switch joined {
	case rankMachineInt, rankBigInt:
		x, y := toBigInt(a), toBigInt(b)
		if y.Sign() == 0 {
			return nil, kernelerr.NewDivisionByZero()
		}
		q, r := new(big.Int).QuoRem(x, y, new(big.Int))
		if r.Sign() == 0 {
			return NormalizeBigInt(q), nil
		}
		return NewRational(x, y), nil
	case rankRational:
		x, y := toRational(a), toRational(b)
		if y.Sign() == 0 {
			return nil, kernelerr.NewDivisionByZero()
		}
		r := new(big.Rat).Quo(x, y)
		return NewRational(new(big.Int).Set(r.Num()), new(big.Int).Set(r.Denom())), nil
	case rankMachineReal:
		x, y := toFloat64(a), toFloat64(b)
		if y == 0 {
			return nil, kernelerr.NewDivisionByZero()
		}
		return MachineReal(x / y), nil
	case rankBigReal:
		x, y := toBigFloat(a, minPrecision(a, b)), toBigFloat(b, minPrecision(a, b))
		if y.Sign() == 0 {
			return nil, kernelerr.NewDivisionByZero()
		}
		return &BigReal{v: new(big.Float).SetPrec(minPrecision(a, b)).Quo(x, y)}, nil
	default:
		x := toMachineComplex(a)
		y := toMachineComplex(b)
		denom := y.Re*y.Re + y.Im*y.Im
		if denom == 0 {
			return nil, kernelerr.NewDivisionByZero()
		}
		return MachineComplex{
			Re: (x.Re*y.Re + x.Im*y.Im) / denom,
			Im: (x.Im*y.Re - x.Re*y.Im) / denom,
		}, nil
	}
}

// numericEqual implements the looser Equal[] predicate.
func numericEqual(a, b value.Value) bool {
	ra, rb := rankOf(a), rankOf(b)
	if ra < 0 || rb < 0 {
		return false
	}
	if ra >= rankMachineComplex || rb >= rankMachineComplex {
		ar, ai, _ := toComplexParts(a)
		br, bi, _ := toComplexParts(b)
		return floatsNearlyEqual(ar, br, minRealPrecision(a, b)) &&
			floatsNearlyEqual(ai, bi, minRealPrecision(a, b))
	}
	if ra <= rankRational && rb <= rankRational {
		return toRational(a).Cmp(toRational(b)) == 0
	}
	prec := minRealPrecision(a, b)
	return toBigFloat(a, prec).Cmp(toBigFloat(b, prec)) == 0 ||
		floatsNearlyEqual(toBigFloat(a, prec), toBigFloat(b, prec), prec)
}

func minRealPrecision(a, b value.Value) uint {
	pa, pb := precisionOf(a), precisionOf(b)
	if pa < pb {
		return pa
	}
	return pb
}

// floatsNearlyEqual implements: relative difference <= 2^-(p-7).
func floatsNearlyEqual(a, b *big.Float, p uint) bool {
	if p < 8 {
		p = 8
	}
	diff := new(big.Float).Sub(a, b)
	diff.Abs(diff)
	scale := new(big.Float).SetPrec(p).SetMantExp(big.NewFloat(1), -int(p-7))
	denom := new(big.Float).Abs(a)
	if denom.Sign() == 0 {
		denom = new(big.Float).Abs(b)
	}
	if denom.Sign() == 0 {
		return diff.Sign() == 0
	}
	rel := new(big.Float).Quo(diff, denom)
	return rel.Cmp(scale) <= 0
}

// IsDivisionByZero reports whether err is the DivisionByZero error a
// numeric-tower operation raises on a zero divisor.
func IsDivisionByZero(err error) bool {
	return kernelerr.Is(err, kernelerr.DivisionByZero)
}
