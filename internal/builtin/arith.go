package builtin

import (
	"math"
	"math/big"

	"symkernel/internal/atom"
	"symkernel/internal/eval"
	"symkernel/internal/expr"
	"symkernel/internal/kernelerr"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

// plusHandler folds the numeric leaves of Plus into one constant and
// keeps symbolic leaves untouched: Plus[1, 2, x] -> Plus[3, x],
// Plus[1, 2, 3] -> 6. Orderless canonicalization has already grouped the
// numbers at the front, but the fold doesn't rely on that.
func plusHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	return foldNumeric(e, atom.MachineInteger(0), atom.Add)
}

// timesHandler is the multiplicative twin: Times[2, 3, x] -> Times[6, x],
// with an exact-zero short circuit.
func timesHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	// An exact integer zero annihilates the whole product even when
	// symbolic factors remain.
	for i := 0; i < e.Size(); i++ {
		if n, ok := e.Leaf(i).(atom.MachineInteger); ok && n == 0 {
			return atom.MachineInteger(0), true, nil
		}
	}
	return foldNumeric(e, atom.MachineInteger(1), atom.Mul)
}

// foldNumeric combines every numeric-tower leaf with op, starting from
// identity. handled is false when nothing reducible was found, so the
// expression falls through to DownValues unchanged.
func foldNumeric(e *expr.Expression, identity value.Value, op func(a, b value.Value) value.Value) (value.Value, bool, error) {
	leaves := e.Materialize()
	var acc value.Value
	numericCount := 0
	rest := make([]value.Value, 0, len(leaves))
	for _, l := range leaves {
		if atom.IsNumber(l) {
			numericCount++
			if acc == nil {
				acc = l
			} else {
				acc = op(acc, l)
			}
			continue
		}
		rest = append(rest, l)
	}
	if numericCount == 0 && len(rest) > 1 {
		return nil, false, nil
	}
	if len(rest) == 0 {
		if acc == nil {
			return identity, true, nil
		}
		return acc, true, nil
	}
	if acc != nil && !acc.SameQ(identity) {
		rest = append([]value.Value{acc}, rest...)
	}
	if len(rest) == 1 {
		// OneIdentity: a single surviving term is the term itself.
		return rest[0], true, nil
	}
	out := expr.New(e.Head(), rest...)
	if out.SameQ(e) {
		return nil, false, nil
	}
	return out, true, nil
}

// powerHandler evaluates Power for the numeric cases: integer exponents
// exactly (negative ones through the rational tower), machine-real bases
// through math.Pow. Symbolic bases reduce only for exponents 0 and 1.
func powerHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 2 {
		return nil, false, nil
	}
	base, exp := e.Leaf(0), e.Leaf(1)

	if n, ok := exp.(atom.MachineInteger); ok {
		switch {
		case n == 0:
			return atom.MachineInteger(1), true, nil
		case n == 1:
			return base, true, nil
		}
		switch b := base.(type) {
		case atom.MachineInteger:
			if b == 0 && n < 0 {
				ev.Message(sys("Power"), "infy", e)
				return nil, false, nil
			}
			return intPower(big.NewInt(int64(b)), int64(n)), true, nil
		case *atom.BigInteger:
			if b.Int().Sign() == 0 && n < 0 {
				ev.Message(sys("Power"), "infy", e)
				return nil, false, nil
			}
			return intPower(b.Int(), int64(n)), true, nil
		case *atom.Rational:
			num, den := b.Rat().Num(), b.Rat().Denom()
			if n < 0 {
				num, den = den, num
			}
			k := int64(n)
			if k < 0 {
				k = -k
			}
			return atom.NewRational(
				new(big.Int).Exp(num, big.NewInt(k), nil),
				new(big.Int).Exp(den, big.NewInt(k), nil)), true, nil
		case atom.MachineReal:
			return atom.MachineReal(math.Pow(float64(b), float64(n))), true, nil
		}
	}
	if f, ok := exp.(atom.MachineReal); ok && atom.IsNumber(base) {
		bf, ok := machineFloatOf(base)
		if ok {
			return atom.MachineReal(math.Pow(bf, float64(f))), true, nil
		}
	}
	return nil, false, nil
}

// intPower computes base^n exactly; a negative n routes through the
// rational constructor so Power[2, -3] canonicalizes to 1/8.
func intPower(base *big.Int, n int64) value.Value {
	k := n
	if k < 0 {
		k = -k
	}
	p := new(big.Int).Exp(base, big.NewInt(k), nil)
	if n >= 0 {
		return atom.NormalizeBigInt(p)
	}
	return atom.NewRational(big.NewInt(1), p)
}

func machineFloatOf(v value.Value) (float64, bool) {
	switch n := v.(type) {
	case atom.MachineInteger:
		return float64(n), true
	case atom.MachineReal:
		return float64(n), true
	case *atom.Rational:
		f, _ := n.Rat().Float64()
		return f, true
	case *atom.BigInteger:
		f, _ := new(big.Float).SetInt(n.Int()).Float64()
		return f, true
	default:
		return 0, false
	}
}

// nHandler is N[x] and N[x, digits]: exact kinds convert to machine (or
// arbitrary, when digits are given) precision reals; expressions convert
// leaf-wise, honoring the head's NHold attributes, then re-evaluate.
func nHandler(ev *eval.Evaluator, e *expr.Expression, depth int) (value.Value, bool, error) {
	if e.Size() != 1 && e.Size() != 2 {
		return nil, false, nil
	}
	var prec uint
	if e.Size() == 2 {
		d, ok := e.Leaf(1).(atom.MachineInteger)
		if !ok || d <= 0 {
			return nil, false, nil
		}
		prec = atom.DigitsToBits(float64(d))
	}
	out, changed := numericize(e.Leaf(0), prec)
	if !changed {
		return e.Leaf(0), true, nil
	}
	result, err := ev.EvalAt(out, depth+1)
	if err != nil {
		if kernelerr.Is(err, kernelerr.NumericException) {
			// Numeric-tower faults demote to a message; the unevaluated
			// form is the result.
			ev.Message(sys("N"), "meprec", e)
			return e.Leaf(0), true, nil
		}
		return nil, false, err
	}
	return result, true, nil
}

// numericize converts exact numbers to reals of the requested precision
// (0 = machine), descending through expressions except where an NHold
// attribute keeps leaves exact.
func numericize(v value.Value, prec uint) (value.Value, bool) {
	switch t := v.(type) {
	case atom.MachineInteger:
		return convertExact(big.NewInt(int64(t)), nil, prec), true
	case *atom.BigInteger:
		return convertExact(t.Int(), nil, prec), true
	case *atom.Rational:
		return convertExact(nil, t.Rat(), prec), true
	case *expr.Expression:
		var attrs symbol.Attributes
		if sym, ok := t.Head().(*symbol.Symbol); ok {
			attrs = sym.Attributes()
		}
		leaves := t.Materialize()
		changed := false
		for i, l := range leaves {
			hold := attrs.Has(symbol.NHoldAll) ||
				(attrs.Has(symbol.NHoldFirst) && i == 0) ||
				(attrs.Has(symbol.NHoldRest) && i != 0)
			if hold {
				continue
			}
			if nl, ch := numericize(l, prec); ch {
				leaves[i] = nl
				changed = true
			}
		}
		if !changed {
			return t, false
		}
		return expr.New(t.Head(), leaves...), true
	default:
		return v, false
	}
}

func convertExact(i *big.Int, r *big.Rat, prec uint) value.Value {
	if prec == 0 {
		if i != nil {
			f, _ := new(big.Float).SetInt(i).Float64()
			return atom.MachineReal(f)
		}
		f, _ := r.Float64()
		return atom.MachineReal(f)
	}
	f := new(big.Float).SetPrec(prec)
	if i != nil {
		f.SetInt(i)
	} else {
		f.SetRat(r)
	}
	return atom.NewBigReal(f)
}
