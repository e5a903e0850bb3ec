package builtins

import (
	"context"
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vk/burstmd/internal/value"
)

func native(name string, fn func(args []value.Value) value.Value) *value.Native {
	return value.NewNative(name, func(_ context.Context, args []value.Value, _ value.Invoker) (value.Value, error) {
		return fn(args), nil
	})
}

func numFn(name string, fn func(float64) float64) value.Value {
	return value.FunctionValue(native(name, func(args []value.Value) value.Value {
		return value.Number(fn(value.ToNumber(value.Arg(args, 0))))
	}))
}

// Globals returns the standard script globals. now supplies the current time
// for Date; it is the render's clock so that every block agrees.
func Globals(now func() time.Time) map[string]value.Value {
	if now == nil {
		now = time.Now
	}
	return map[string]value.Value{
		"Math":       mathObject(),
		"JSON":       jsonObject(),
		"Object":     value.FunctionValue(objectCtor()),
		"Array":      value.FunctionValue(arrayCtor()),
		"Date":       value.FunctionValue(dateCtor(now)),
		"String":     value.FunctionValue(stringCtor()),
		"Number":     value.FunctionValue(numberCtor()),
		"Boolean":    value.FunctionValue(native("Boolean", func(args []value.Value) value.Value { return value.Bool(value.Truthy(value.Arg(args, 0))) })),
		"parseInt":   value.FunctionValue(native("parseInt", parseInt)),
		"parseFloat": value.FunctionValue(native("parseFloat", parseFloat)),
		"isNaN":      numPredicate("isNaN", math.IsNaN),
		"isFinite":   numPredicate("isFinite", func(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }),
		"NaN":        value.Number(math.NaN()),
		"Infinity":   value.Number(math.Inf(1)),
	}
}

func numPredicate(name string, fn func(float64) bool) value.Value {
	return value.FunctionValue(native(name, func(args []value.Value) value.Value {
		return value.Bool(fn(value.ToNumber(value.Arg(args, 0))))
	}))
}

func mathObject() value.Value {
	m := value.NewObject()
	m.Set("PI", value.Number(math.Pi))
	m.Set("E", value.Number(math.E))
	m.Set("LN2", value.Number(math.Ln2))
	m.Set("LN10", value.Number(math.Ln10))
	m.Set("SQRT2", value.Number(math.Sqrt2))
	m.Set("floor", numFn("floor", math.Floor))
	m.Set("ceil", numFn("ceil", math.Ceil))
	m.Set("round", numFn("round", func(f float64) float64 { return math.Floor(f + 0.5) }))
	m.Set("trunc", numFn("trunc", math.Trunc))
	m.Set("abs", numFn("abs", math.Abs))
	m.Set("sqrt", numFn("sqrt", math.Sqrt))
	m.Set("cbrt", numFn("cbrt", math.Cbrt))
	m.Set("log", numFn("log", math.Log))
	m.Set("log2", numFn("log2", math.Log2))
	m.Set("log10", numFn("log10", math.Log10))
	m.Set("exp", numFn("exp", math.Exp))
	m.Set("sin", numFn("sin", math.Sin))
	m.Set("cos", numFn("cos", math.Cos))
	m.Set("tan", numFn("tan", math.Tan))
	m.Set("sign", numFn("sign", func(f float64) float64 {
		switch {
		case f > 0:
			return 1
		case f < 0:
			return -1
		}
		return f
	}))
	m.Set("pow", value.FunctionValue(native("pow", func(args []value.Value) value.Value {
		return value.Number(math.Pow(value.ToNumber(value.Arg(args, 0)), value.ToNumber(value.Arg(args, 1))))
	})))
	m.Set("atan2", value.FunctionValue(native("atan2", func(args []value.Value) value.Value {
		return value.Number(math.Atan2(value.ToNumber(value.Arg(args, 0)), value.ToNumber(value.Arg(args, 1))))
	})))
	m.Set("min", value.FunctionValue(native("min", func(args []value.Value) value.Value { return extremum(args, math.Inf(1), math.Min) })))
	m.Set("max", value.FunctionValue(native("max", func(args []value.Value) value.Value { return extremum(args, math.Inf(-1), math.Max) })))
	m.Set("random", value.FunctionValue(native("random", func([]value.Value) value.Value { return value.Number(rand.Float64()) })))
	return value.ObjectValue(m.Freeze())
}

func extremum(args []value.Value, start float64, pick func(a, b float64) float64) value.Value {
	acc := start
	for _, a := range args {
		f := value.ToNumber(a)
		if math.IsNaN(f) {
			return value.Number(math.NaN())
		}
		acc = pick(acc, f)
	}
	return value.Number(acc)
}

func objectCtor() *value.Native {
	ctor := native("Object", func(args []value.Value) value.Value {
		if a := value.Arg(args, 0); a.Kind() == value.KindObject {
			return a
		}
		return value.ObjectValue(value.NewObject())
	})
	entriesOf := func(v value.Value, pick func(k string, fv value.Value) value.Value) value.Value {
		var out []value.Value
		switch v.Kind() {
		case value.KindObject:
			o := v.Object()
			for _, k := range o.Keys() {
				fv, _ := o.Get(k)
				out = append(out, pick(k, fv))
			}
		case value.KindArray:
			for i, item := range v.List().Values() {
				out = append(out, pick(strconv.Itoa(i), item))
			}
		}
		return value.Array(out...)
	}
	ctor.WithStatic("keys", value.FunctionValue(native("keys", func(args []value.Value) value.Value {
		return entriesOf(value.Arg(args, 0), func(k string, _ value.Value) value.Value { return value.String(k) })
	})))
	ctor.WithStatic("values", value.FunctionValue(native("values", func(args []value.Value) value.Value {
		return entriesOf(value.Arg(args, 0), func(_ string, v value.Value) value.Value { return v })
	})))
	ctor.WithStatic("entries", value.FunctionValue(native("entries", func(args []value.Value) value.Value {
		return entriesOf(value.Arg(args, 0), func(k string, v value.Value) value.Value { return value.Array(value.String(k), v) })
	})))
	ctor.WithStatic("assign", value.FunctionValue(native("assign", func(args []value.Value) value.Value {
		target := value.Arg(args, 0)
		if target.Kind() != value.KindObject {
			return target
		}
		for _, src := range args[1:] {
			if src.Kind() != value.KindObject {
				continue
			}
			for _, k := range src.Object().Keys() {
				v, _ := src.Object().Get(k)
				target.Object().Set(k, v)
			}
		}
		return target
	})))
	ctor.WithStatic("fromEntries", value.FunctionValue(native("fromEntries", func(args []value.Value) value.Value {
		obj := value.NewObject()
		if a := value.Arg(args, 0); a.Kind() == value.KindArray {
			for _, pair := range a.List().Values() {
				if pair.Kind() == value.KindArray {
					obj.Set(value.ToString(pair.List().At(0)), pair.List().At(1))
				}
			}
		}
		return value.ObjectValue(obj)
	})))
	ctor.WithStatic("freeze", value.FunctionValue(native("freeze", func(args []value.Value) value.Value {
		a := value.Arg(args, 0)
		if a.Kind() == value.KindObject {
			a.Object().Freeze()
		}
		return a
	})))
	return ctor
}

func arrayCtor() *value.Native {
	ctor := native("Array", func(args []value.Value) value.Value {
		if len(args) == 1 && args[0].Kind() == value.KindNumber {
			items := make([]value.Value, max(0, min(value.ToInteger(args[0]), value.MaxListLen)))
			return value.Array(items...)
		}
		return value.Array(append([]value.Value{}, args...)...)
	})
	ctor.WithStatic("isArray", value.FunctionValue(native("isArray", func(args []value.Value) value.Value {
		return value.Bool(value.Arg(args, 0).Kind() == value.KindArray)
	})))
	ctor.WithStatic("of", value.FunctionValue(native("of", func(args []value.Value) value.Value {
		return value.Array(append([]value.Value{}, args...)...)
	})))
	ctor.WithStatic("from", value.FunctionValue(value.NewNative("from", arrayFrom)))
	return ctor
}

// arrayFrom copies arrays, splits strings into characters and expands
// {length: n} objects, applying the optional map callback.
func arrayFrom(_ context.Context, args []value.Value, invoke value.Invoker) (value.Value, error) {
	src := value.Arg(args, 0)
	var items []value.Value
	switch src.Kind() {
	case value.KindArray:
		items = src.List().Copy()
	case value.KindString:
		for _, r := range src.Str() {
			items = append(items, value.String(string(r)))
		}
	case value.KindObject:
		if n, ok := src.Object().Get("length"); ok {
			items = make([]value.Value, max(0, min(value.ToInteger(n), value.MaxListLen)))
		}
	}
	if fn := value.Arg(args, 1); callback(fn) {
		for i, item := range items {
			res, err := invoke(fn, item, value.Int(i))
			if err != nil {
				return value.Undefined, err
			}
			items[i] = res
		}
	}
	return value.Array(items...), nil
}

// dateCtor builds dates from nothing (now), epoch milliseconds, a string, or
// year/month/day/... components in local time.
func dateCtor(now func() time.Time) *value.Native {
	ctor := native("Date", func(args []value.Value) value.Value {
		switch {
		case len(args) == 0:
			return value.Date(now())
		case len(args) == 1 && args[0].Kind() == value.KindDate:
			return args[0]
		case len(args) == 1 && args[0].Kind() == value.KindString:
			if t, ok := ParseDate(args[0].Str()); ok {
				return value.Date(t)
			}
			return value.Null
		case len(args) == 1:
			return value.Date(time.UnixMilli(int64(value.ToNumber(args[0]))))
		}
		parts := [7]int{0, 0, 1, 0, 0, 0, 0}
		for i := 0; i < len(args) && i < 7; i++ {
			parts[i] = value.ToInteger(args[i])
		}
		return value.Date(time.Date(parts[0], time.Month(parts[1]+1), parts[2], parts[3], parts[4], parts[5], parts[6]*int(time.Millisecond), time.Local))
	})
	ctor.WithStatic("now", value.FunctionValue(native("now", func([]value.Value) value.Value {
		return value.Number(float64(now().UnixMilli()))
	})))
	ctor.WithStatic("parse", value.FunctionValue(native("parse", func(args []value.Value) value.Value {
		if t, ok := ParseDate(value.ToString(value.Arg(args, 0))); ok {
			return value.Number(float64(t.UnixMilli()))
		}
		return value.Number(math.NaN())
	})))
	return ctor
}

func stringCtor() *value.Native {
	ctor := native("String", func(args []value.Value) value.Value {
		if len(args) == 0 {
			return value.String("")
		}
		return value.String(value.ToString(args[0]))
	})
	ctor.WithStatic("fromCharCode", value.FunctionValue(native("fromCharCode", func(args []value.Value) value.Value {
		var sb strings.Builder
		for _, a := range args {
			sb.WriteRune(rune(value.ToInteger(a)))
		}
		return value.String(sb.String())
	})))
	return ctor
}

func numberCtor() *value.Native {
	ctor := native("Number", func(args []value.Value) value.Value {
		if len(args) == 0 {
			return value.Number(0)
		}
		return value.Number(value.ToNumber(args[0]))
	})
	ctor.WithStatic("isInteger", numPredicate("isInteger", value.IsInteger))
	ctor.WithStatic("isFinite", numPredicate("isFinite", func(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }))
	ctor.WithStatic("isNaN", numPredicate("isNaN", math.IsNaN))
	ctor.WithStatic("parseFloat", value.FunctionValue(native("parseFloat", parseFloat)))
	ctor.WithStatic("parseInt", value.FunctionValue(native("parseInt", parseInt)))
	ctor.WithStatic("MAX_SAFE_INTEGER", value.Number(1<<53-1))
	ctor.WithStatic("MIN_SAFE_INTEGER", value.Number(-(1<<53 - 1)))
	ctor.WithStatic("EPSILON", value.Number(math.Nextafter(1, 2)-1))
	return ctor
}

// parseInt reads the longest integer prefix in the given radix.
func parseInt(args []value.Value) value.Value {
	s := strings.TrimSpace(value.ToString(value.Arg(args, 0)))
	radix := value.ToInteger(value.Arg(args, 1))
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if (radix == 0 || radix == 16) && len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s, radix = s[2:], 16
	}
	if radix == 0 {
		radix = 10
	}
	if radix < 2 || radix > 36 {
		return value.Number(math.NaN())
	}
	n := 0
	for n < len(s) {
		d := strings.IndexByte(digitChars, lower(s[n]))
		if d < 0 || d >= radix {
			break
		}
		n++
	}
	if n == 0 {
		return value.Number(math.NaN())
	}
	f := 0.0
	for i := 0; i < n; i++ {
		f = f*float64(radix) + float64(strings.IndexByte(digitChars, lower(s[i])))
	}
	if neg {
		f = -f
	}
	return value.Number(f)
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

var floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parseFloat reads the longest decimal prefix.
func parseFloat(args []value.Value) value.Value {
	s := strings.TrimSpace(value.ToString(value.Arg(args, 0)))
	switch {
	case strings.HasPrefix(s, "Infinity"), strings.HasPrefix(s, "+Infinity"):
		return value.Number(math.Inf(1))
	case strings.HasPrefix(s, "-Infinity"):
		return value.Number(math.Inf(-1))
	}
	m := floatPrefix.FindString(s)
	if m == "" {
		return value.Number(math.NaN())
	}
	f, _ := strconv.ParseFloat(m, 64)
	return value.Number(f)
}
