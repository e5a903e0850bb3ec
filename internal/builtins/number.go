package builtins

import (
	"context"
	"math"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/vk/burstmd/internal/value"
)

func nan() float64 { return math.NaN() }

func newNumberMethods() map[string]method {
	return map[string]method{
		"toFixed":        numToFixed,
		"toString":       numToString,
		"toExponential":  numToExponential,
		"toPrecision":    numToPrecision,
		"toLocaleString": numToLocaleString,
		"valueOf": func(_ context.Context, recv value.Value, _ []value.Value, _ value.Invoker) (value.Value, error) {
			return recv, nil
		},
	}
}

// decimal is the exact decimal expansion of a finite non-negative float:
// 0.d1d2d3... * 10^(exp+1), so exp is the power of ten of the first digit.
type decimal struct {
	digits string
	exp    int
}

func exactDecimal(abs float64) decimal {
	if abs == 0 {
		return decimal{digits: "0"}
	}
	// 1100 digits covers the longest exact expansion of a float64.
	s := new(big.Float).SetFloat64(abs).Text('e', 1100)
	i := strings.IndexByte(s, 'e')
	exp, _ := strconv.Atoi(s[i+1:])
	digits := strings.TrimRight(strings.Replace(s[:i], ".", "", 1), "0")
	if digits == "" {
		digits = "0"
	}
	return decimal{digits: digits, exp: exp}
}

// round keeps n significant digits, rounding half away from zero.
func (d decimal) round(n int) decimal {
	if n < 0 {
		return decimal{digits: "0", exp: d.exp}
	}
	if len(d.digits) <= n {
		return decimal{digits: d.digits + strings.Repeat("0", n-len(d.digits)), exp: d.exp}
	}
	up := d.digits[n] >= '5'
	b := []byte(d.digits[:n])
	if !up {
		if n == 0 {
			return decimal{digits: "0", exp: d.exp}
		}
		return decimal{digits: string(b), exp: d.exp}
	}
	i := n - 1
	for ; i >= 0; i-- {
		if b[i] == '9' {
			b[i] = '0'
			continue
		}
		b[i]++
		break
	}
	if i < 0 {
		// carried out of the leading digit
		return decimal{digits: "1" + string(b), exp: d.exp + 1}
	}
	return decimal{digits: string(b), exp: d.exp}
}

// fixed renders d with exactly frac fractional digits.
func (d decimal) fixed(frac int) string {
	digits := d.digits
	point := d.exp + 1
	var intPart, fracPart string
	if point <= 0 {
		intPart = "0"
		fracPart = strings.Repeat("0", -point) + digits
	} else {
		if len(digits) < point {
			digits += strings.Repeat("0", point-len(digits))
		}
		intPart, fracPart = digits[:point], digits[point:]
	}
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) < frac {
		fracPart += strings.Repeat("0", frac-len(fracPart))
	}
	fracPart = fracPart[:frac]
	if frac == 0 {
		return intPart
	}
	return intPart + "." + fracPart
}

func (d decimal) exponential() string {
	mant := d.digits[:1]
	if len(d.digits) > 1 {
		mant += "." + d.digits[1:]
	}
	sign := "+"
	exp := d.exp
	if d.digits == strings.Repeat("0", len(d.digits)) {
		exp = 0
	}
	if exp < 0 {
		sign, exp = "-", -exp
	}
	return mant + "e" + sign + strconv.Itoa(exp)
}

func signed(f float64, s string) string {
	if f < 0 {
		return "-" + s
	}
	return s
}

func special(f float64) (string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return value.FormatNumber(f), true
	}
	return "", false
}

func numToFixed(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	f := recv.Num()
	if s, ok := special(f); ok {
		return value.String(s), nil
	}
	frac := clamp(argInt(args, 0, 0), 0, 100)
	if math.Abs(f) >= 1e21 {
		return value.String(value.FormatNumber(f)), nil
	}
	d := exactDecimal(math.Abs(f))
	d = d.round(d.exp + 1 + frac)
	return value.String(signed(f, d.fixed(frac))), nil
}

func numToExponential(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	f := recv.Num()
	if s, ok := special(f); ok {
		return value.String(s), nil
	}
	if value.Arg(args, 0).IsUndefined() {
		return value.String(value.TrimExponent(strconv.FormatFloat(f, 'e', -1, 64))), nil
	}
	frac := clamp(argInt(args, 0, 0), 0, 100)
	d := exactDecimal(math.Abs(f)).round(frac + 1)
	return value.String(signed(f, d.exponential())), nil
}

func numToPrecision(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	f := recv.Num()
	if s, ok := special(f); ok {
		return value.String(s), nil
	}
	if value.Arg(args, 0).IsUndefined() {
		return value.String(value.FormatNumber(f)), nil
	}
	p := clamp(argInt(args, 0, 1), 1, 100)
	d := exactDecimal(math.Abs(f)).round(p)
	if f == 0 {
		d.exp = 0
	}
	if d.exp < -6 || d.exp >= p {
		return value.String(signed(f, d.exponential())), nil
	}
	return value.String(signed(f, d.fixed(p-1-d.exp))), nil
}

const digitChars = "0123456789abcdefghijklmnopqrstuvwxyz"

// numToString supports radix 2 to 36. Fractions in non-decimal radixes are
// expanded to at most 52 digits.
func numToString(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	f := recv.Num()
	radix := argInt(args, 0, 10)
	if radix < 2 || radix > 36 || radix == 10 {
		return value.String(value.FormatNumber(f)), nil
	}
	if s, ok := special(f); ok {
		return value.String(s), nil
	}
	abs := math.Abs(f)
	intPart, frac := math.Modf(abs)
	var s string
	if intPart < 1<<63 {
		s = strconv.FormatUint(uint64(intPart), radix)
	} else {
		s = new(big.Float).SetFloat64(intPart).Text('f', 0)
	}
	if frac > 0 {
		var sb strings.Builder
		for i := 0; i < 52 && frac > 0; i++ {
			frac *= float64(radix)
			digit := int(frac)
			sb.WriteByte(digitChars[digit])
			frac -= float64(digit)
		}
		s += "." + sb.String()
	}
	if f < 0 {
		s = "-" + s
	}
	return value.String(s), nil
}

// numToLocaleString formats with locale-aware grouping. The second argument
// may set minimumFractionDigits and maximumFractionDigits.
func numToLocaleString(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	f := recv.Num()
	if s, ok := special(f); ok {
		return value.String(s), nil
	}
	opts := []number.Option{number.MaxFractionDigits(3)}
	if o := value.Arg(args, 1); o.Kind() == value.KindObject {
		if v, ok := o.Object().Get("minimumFractionDigits"); ok {
			opts = append(opts, number.MinFractionDigits(value.ToInteger(v)))
		}
		if v, ok := o.Object().Get("maximumFractionDigits"); ok {
			opts = append(opts, number.MaxFractionDigits(value.ToInteger(v)))
		}
	}
	p := message.NewPrinter(locale(value.Arg(args, 0)))
	return value.String(p.Sprint(number.Decimal(f, opts...))), nil
}

// locale parses a BCP 47 tag, defaulting to en-US.
func locale(v value.Value) language.Tag {
	if v.Kind() == value.KindString {
		if tag, err := language.Parse(v.Str()); err == nil {
			return tag
		}
	}
	return language.AmericanEnglish
}

func collator(v value.Value) *collate.Collator {
	return collate.New(locale(v))
}
