package boxes

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"symkernel/internal/atom"
	"symkernel/internal/expr"
	"symkernel/internal/symbol"
	"symkernel/internal/value"
)

// NumberFormOptions is the closed set of options NumberForm recognizes.
// Unknown keys in an options list are ignored with a warning through the
// caller-supplied warn callback.
type NumberFormOptions struct {
	DigitBlock       int  // 0 means Infinity (no grouping)
	ExponentStep     int  // exponent rounding step; minimum 1
	SignPadding      bool // pad between sign and digits instead of before the sign
	NumberMultiplier string
	NumberPoint      string
	NumberPadding    [2]string // integer-part padding, fractional-part padding
	NumberSeparator  [2]string // integer-part grouping, fractional-part grouping
	NumberSigns      [2]string // negative sign, positive sign
	// ExponentFunction and NumberFormat are held as unevaluated function
	// values; the kernel applies them through its own evaluator when set.
	ExponentFunction value.Value
	NumberFormat     value.Value
}

// DefaultNumberFormOptions matches conventional NumberForm output:
// 3-digit blocks separated by commas in the integer part, "." as the
// number point, a bare "-" for negatives.
func DefaultNumberFormOptions() NumberFormOptions {
	return NumberFormOptions{
		DigitBlock:      3,
		ExponentStep:    1,
		NumberPoint:     ".",
		NumberSeparator: [2]string{",", " "},
		NumberSigns:     [2]string{"-", ""},
	}
}

// ParseNumberFormOptions folds a List of Rule[key, val] entries over the
// defaults. Each unknown key is reported once through warn.
func ParseNumberFormOptions(list *expr.Expression, warn func(key string)) NumberFormOptions {
	o := DefaultNumberFormOptions()
	if list == nil {
		return o
	}
	for i := 0; i < list.Size(); i++ {
		rule, ok := list.Leaf(i).(*expr.Expression)
		if !ok || rule.Size() != 2 || (rule.HeadName() != "Rule" && rule.HeadName() != "RuleDelayed") {
			continue
		}
		key, ok := rule.Leaf(0).(*symbol.Symbol)
		if !ok {
			continue
		}
		val := rule.Leaf(1)
		switch key.ShortName() {
		case "DigitBlock":
			if n, ok := val.(atom.MachineInteger); ok && n > 0 {
				o.DigitBlock = int(n)
			} else if sym, ok := val.(*symbol.Symbol); ok && sym.ShortName() == "Infinity" {
				o.DigitBlock = 0
			}
		case "ExponentStep":
			if n, ok := val.(atom.MachineInteger); ok && n >= 1 {
				o.ExponentStep = int(n)
			}
		case "ExponentFunction":
			o.ExponentFunction = val
		case "NumberFormat":
			o.NumberFormat = val
		case "NumberMultiplier":
			if s, ok := val.(*atom.String); ok {
				o.NumberMultiplier = s.Value()
			}
		case "NumberPoint":
			if s, ok := val.(*atom.String); ok {
				o.NumberPoint = s.Value()
			}
		case "NumberPadding":
			if pair, ok := stringPair(val); ok {
				o.NumberPadding = pair
			}
		case "NumberSeparator":
			if pair, ok := stringPair(val); ok {
				o.NumberSeparator = pair
			}
		case "NumberSigns":
			if pair, ok := stringPair(val); ok {
				o.NumberSigns = pair
			}
		case "SignPadding":
			if sym, ok := val.(*symbol.Symbol); ok {
				o.SignPadding = sym.ShortName() == "True"
			}
		default:
			warn(key.ShortName())
		}
	}
	return o
}

func stringPair(v value.Value) ([2]string, bool) {
	list, ok := v.(*expr.Expression)
	if !ok || list.HeadName() != "List" || list.Size() != 2 {
		return [2]string{}, false
	}
	a, okA := list.Leaf(0).(*atom.String)
	b, okB := list.Leaf(1).(*atom.String)
	if !okA || !okB {
		return [2]string{}, false
	}
	return [2]string{a.Value(), b.Value()}, true
}

// FormatNumber renders a numeric atom under the given options. Non-numeric
// values fall back to their plain textual form.
func FormatNumber(v value.Value, o NumberFormOptions) string {
	switch n := v.(type) {
	case atom.MachineInteger:
		return formatInteger(int64(n), o)
	case atom.MachineReal:
		return formatReal(float64(n), o)
	case *atom.BigInteger:
		return groupDigitString(n.Text(), o)
	default:
		return v.Text()
	}
}

func formatInteger(n int64, o NumberFormOptions) string {
	sign := splitSign(n < 0, o)
	var digits string
	if o.DigitBlock == 3 && o.NumberSeparator[0] == "," {
		// The conventional 3-comma grouping is exactly humanize's Comma.
		digits = humanize.Comma(absInt64(n))
	} else {
		digits = groupIntegerPart(strconv.FormatInt(absInt64(n), 10), o)
	}
	return sign + digits
}

func formatReal(f float64, o NumberFormOptions) string {
	sign := splitSign(math.Signbit(f), o)
	abs := math.Abs(f)
	text := strconv.FormatFloat(abs, 'g', -1, 64)
	intPart, fracPart, expPart := splitFloatText(text)
	out := sign + groupIntegerPart(intPart, o)
	if fracPart != "" || expPart == "" {
		out += o.NumberPoint + groupFractionalPart(fracPart, o)
	}
	if expPart != "" {
		mult := o.NumberMultiplier
		if mult == "" {
			mult = "*^"
		}
		out += mult + expPart
	}
	return out
}

func splitSign(negative bool, o NumberFormOptions) string {
	if negative {
		return o.NumberSigns[0]
	}
	return o.NumberSigns[1]
}

func absInt64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func splitFloatText(text string) (intPart, fracPart, expPart string) {
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		expPart = text[i+1:]
		text = text[:i]
	}
	if i := strings.IndexByte(text, '.'); i >= 0 {
		return text[:i], text[i+1:], expPart
	}
	return text, "", expPart
}

// groupIntegerPart inserts the integer-part separator every DigitBlock
// digits, counting from the right.
func groupIntegerPart(digits string, o NumberFormOptions) string {
	if o.DigitBlock <= 0 || len(digits) <= o.DigitBlock {
		return digits
	}
	sep := o.NumberSeparator[0]
	var sb strings.Builder
	lead := len(digits) % o.DigitBlock
	if lead > 0 {
		sb.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += o.DigitBlock {
		if sb.Len() > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(digits[i : i+o.DigitBlock])
	}
	return sb.String()
}

// groupFractionalPart inserts the fractional-part separator every
// DigitBlock digits, counting from the left.
func groupFractionalPart(digits string, o NumberFormOptions) string {
	if o.DigitBlock <= 0 || len(digits) <= o.DigitBlock {
		return digits
	}
	sep := o.NumberSeparator[1]
	var sb strings.Builder
	for i := 0; i < len(digits); i += o.DigitBlock {
		if i > 0 {
			sb.WriteString(sep)
		}
		end := i + o.DigitBlock
		if end > len(digits) {
			end = len(digits)
		}
		sb.WriteString(digits[i:end])
	}
	return sb.String()
}

// groupDigitString applies integer grouping to an already-formatted digit
// string (BigInteger text), preserving a leading minus sign.
func groupDigitString(text string, o NumberFormOptions) string {
	neg := strings.HasPrefix(text, "-")
	digits := strings.TrimPrefix(text, "-")
	sign := o.NumberSigns[1]
	if neg {
		sign = o.NumberSigns[0]
	}
	return sign + groupIntegerPart(digits, o)
}
