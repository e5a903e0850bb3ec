package value

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Truthy applies the script truthiness rules: false, 0, NaN, "", null and
// undefined are falsy, everything else is truthy.
func Truthy(v Value) bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case KindString:
		return v.s != ""
	default:
		return true
	}
}

// TypeOf returns the result of the typeof operator.
func TypeOf(v Value) string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindFunction:
		return "function"
	default:
		return "object"
	}
}

var numericLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ToNumber converts v to a float64 the way unary plus does.
func ToNumber(v Value) float64 {
	switch v.kind {
	case KindUndefined:
		return math.NaN()
	case KindNull:
		return 0
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindNumber:
		return v.n
	case KindString:
		return parseNumber(v.s)
	case KindDate:
		return float64(v.t.UnixMilli())
	case KindArray:
		switch v.list.Len() {
		case 0:
			return 0
		case 1:
			return ToNumber(String(ToString(v.list.At(0))))
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	if !numericLiteral.MatchString(s) {
		return math.NaN()
	}
	// Out of range literals come back as ±Inf alongside a range error.
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// ToInteger truncates the numeric value of v toward zero. NaN maps to 0 and
// infinities clamp to the int range.
func ToInteger(v Value) int {
	return FloatToInt(ToNumber(v))
}

// FloatToInt truncates f toward zero with NaN mapped to 0.
func FloatToInt(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= float64(math.MaxInt64):
		return math.MaxInt
	case f <= float64(math.MinInt64):
		return math.MinInt
	}
	return int(math.Trunc(f))
}

// ToString converts v to its string form, as used by interpolation and string
// concatenation.
func ToString(v Value) string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return FormatNumber(v.n)
	case KindString:
		return v.s
	case KindArray:
		return joinList(v.list, ",", nil)
	case KindObject:
		return "[object Object]"
	case KindFunction:
		return "function " + v.fn.Name() + "() { [native code] }"
	case KindDate:
		return v.t.Format("Mon Jan 02 2006 15:04:05 GMT-0700 (MST)")
	}
	return ""
}

// Join concatenates the string forms of the list elements with sep. Null and
// undefined elements become empty strings.
func Join(l *List, sep string) string {
	return joinList(l, sep, nil)
}

func joinList(l *List, sep string, seen map[*List]bool) string {
	if seen == nil {
		seen = make(map[*List]bool)
	}
	if seen[l] {
		return ""
	}
	seen[l] = true
	defer delete(seen, l)

	var sb strings.Builder
	for i, item := range l.items {
		if i > 0 {
			sb.WriteString(sep)
		}
		switch item.kind {
		case KindUndefined, KindNull:
		case KindArray:
			sb.WriteString(joinList(item.list, ",", seen))
		default:
			sb.WriteString(ToString(item))
		}
	}
	return sb.String()
}

// FormatNumber renders f using the shortest round-tripping representation,
// switching to exponent notation outside [1e-6, 1e21).
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		return TrimExponent(strconv.FormatFloat(f, 'e', -1, 64))
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// TrimExponent rewrites Go exponent notation ("1.5e-07") into the script form
// ("1.5e-7").
func TrimExponent(s string) string {
	i := strings.IndexByte(s, 'e')
	if i < 0 {
		return s
	}
	mant, exp := s[:i], s[i+1:]
	sign := "+"
	if exp != "" && (exp[0] == '+' || exp[0] == '-') {
		sign = exp[:1]
		exp = exp[1:]
	}
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp = "0"
	}
	return mant + "e" + sign + exp
}

// StrictEquals implements ===.
func StrictEquals(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindArray:
		return a.list == b.list
	case KindObject:
		return a.obj == b.obj
	case KindFunction:
		return a.fn == b.fn
	case KindDate:
		return a.t.Equal(b.t)
	}
	return false
}

// SameValueZero is StrictEquals except that NaN equals NaN. It backs
// includes().
func SameValueZero(a, b Value) bool {
	if a.kind == KindNumber && b.kind == KindNumber && math.IsNaN(a.n) && math.IsNaN(b.n) {
		return true
	}
	return StrictEquals(a, b)
}

// LooseEquals implements == with the usual coercions.
func LooseEquals(a, b Value) bool {
	if a.kind == b.kind {
		return StrictEquals(a, b)
	}
	if a.IsNullish() || b.IsNullish() {
		return a.IsNullish() && b.IsNullish()
	}
	if a.kind == KindBool {
		return LooseEquals(Number(ToNumber(a)), b)
	}
	if b.kind == KindBool {
		return LooseEquals(a, Number(ToNumber(b)))
	}
	if isPrimitive(a) && isPrimitive(b) {
		// number and string
		return ToNumber(a) == ToNumber(b)
	}
	if !isPrimitive(a) && isPrimitive(b) {
		return LooseEquals(toPrimitive(a), b)
	}
	if isPrimitive(a) && !isPrimitive(b) {
		return LooseEquals(a, toPrimitive(b))
	}
	return false
}

func isPrimitive(v Value) bool {
	switch v.kind {
	case KindArray, KindObject, KindFunction, KindDate:
		return false
	}
	return true
}

func toPrimitive(v Value) Value {
	return String(ToString(v))
}

// Compare orders a and b for the relational operators. Two strings compare
// lexicographically; anything else compares numerically. ok is false when
// either side is NaN.
func Compare(a, b Value) (cmp int, ok bool) {
	if a.kind == KindString && b.kind == KindString {
		return strings.Compare(a.s, b.s), true
	}
	if !isPrimitive(a) && a.kind != KindDate {
		a = toPrimitive(a)
	}
	if !isPrimitive(b) && b.kind != KindDate {
		b = toPrimitive(b)
	}
	if a.kind == KindString && b.kind == KindString {
		return strings.Compare(a.s, b.s), true
	}
	x, y := ToNumber(a), ToNumber(b)
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}

// IsInteger reports whether f is a finite whole number.
func IsInteger(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)
}
