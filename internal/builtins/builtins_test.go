package builtins

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/burstmd/internal/value"
)

// testInvoker calls native functions directly. Script closures are out of
// scope for this package.
func testInvoker(fn value.Value, args ...value.Value) (value.Value, error) {
	n, ok := fn.Function().(*value.Native)
	if !ok {
		return value.Undefined, errors.New("not callable")
	}
	return n.Call(context.Background(), args, testInvoker)
}

func fn(f func(args []value.Value) value.Value) value.Value {
	return value.FunctionValue(native("test", f))
}

func call(t *testing.T, recv value.Value, name string, args ...value.Value) value.Value {
	t.Helper()
	res, ok, err := CallMethod(context.Background(), recv, name, args, testInvoker)
	require.NoError(t, err)
	require.True(t, ok, "method %s not found on %s", name, recv.Kind())
	return res
}

func nums(ns ...float64) value.Value {
	items := make([]value.Value, len(ns))
	for i, n := range ns {
		items[i] = value.Number(n)
	}
	return value.Array(items...)
}

func TestArrayFilterWithCallback(t *testing.T) {
	// --- Arrange ---
	arr := nums(5, 1, 9, 2)
	gt2 := fn(func(args []value.Value) value.Value { return value.Bool(args[0].Num() > 2) })

	// --- Act ---
	res := call(t, arr, "filter", gt2)

	// --- Assert ---
	assert.Equal(t, "5,9", value.ToString(res))
	assert.Equal(t, 4, arr.List().Len(), "filter must not mutate the receiver")
}

func TestArrayFilterWithoutCallbackDropsEmpty(t *testing.T) {
	arr := value.Array(value.String("a"), value.Null, value.String(""), value.Undefined, value.Int(0), value.String("b"))

	res := call(t, arr, "filter")

	require.Equal(t, 3, res.List().Len())
	assert.Equal(t, "a", res.List().At(0).Str())
	assert.Equal(t, float64(0), res.List().At(1).Num())
	assert.Equal(t, "b", res.List().At(2).Str())
}

func TestArrayMutatingMethods(t *testing.T) {
	t.Run("push mutates and returns length", func(t *testing.T) {
		arr := nums(1, 2)
		res := call(t, arr, "push", value.Int(3))
		assert.Equal(t, float64(3), res.Num())
		assert.Equal(t, "1,2,3", value.ToString(arr))
	})

	t.Run("push on frozen list returns extended copy", func(t *testing.T) {
		arr := value.FrozenArray(value.Int(1), value.Int(2))
		res := call(t, arr, "push", value.Int(3))
		assert.Equal(t, "1,2,3", value.ToString(res))
		assert.Equal(t, "1,2", value.ToString(arr))
	})

	t.Run("pop on empty mutable list is undefined", func(t *testing.T) {
		res := call(t, value.Array(), "pop")
		assert.True(t, res.IsUndefined())
	})

	t.Run("shift returns the first element", func(t *testing.T) {
		arr := nums(7, 8)
		res := call(t, arr, "shift")
		assert.Equal(t, float64(7), res.Num())
		assert.Equal(t, "8", value.ToString(arr))
	})

	t.Run("splice removes and inserts", func(t *testing.T) {
		arr := nums(1, 2, 3, 4)
		removed := call(t, arr, "splice", value.Int(1), value.Int(2), value.Int(9))
		assert.Equal(t, "2,3", value.ToString(removed))
		assert.Equal(t, "1,9,4", value.ToString(arr))
	})
}

func TestArraySort(t *testing.T) {
	t.Run("default order is by string form", func(t *testing.T) {
		arr := nums(10, 9, 1)
		call(t, arr, "sort")
		assert.Equal(t, "1,10,9", value.ToString(arr))
	})

	t.Run("comparator", func(t *testing.T) {
		arr := nums(10, 9, 1)
		cmp := fn(func(args []value.Value) value.Value { return value.Number(args[0].Num() - args[1].Num()) })
		call(t, arr, "sort", cmp)
		assert.Equal(t, "1,9,10", value.ToString(arr))
	})

	t.Run("undefined sorts last", func(t *testing.T) {
		arr := value.Array(value.Undefined, value.String("b"), value.String("a"))
		call(t, arr, "sort")
		assert.True(t, arr.List().At(2).IsUndefined())
		assert.Equal(t, "a", arr.List().At(0).Str())
	})
}

func TestArrayReduceAndJoin(t *testing.T) {
	sum := fn(func(args []value.Value) value.Value { return value.Number(args[0].Num() + args[1].Num()) })

	assert.Equal(t, float64(10), call(t, nums(1, 2, 3, 4), "reduce", sum).Num())
	assert.Equal(t, float64(5), call(t, value.Array(), "reduce", sum, value.Int(5)).Num())
	assert.Equal(t, "1-2", call(t, nums(1, 2), "join", value.String("-")).Str())
	assert.Equal(t, "1,2,3", value.ToString(call(t, value.Array(nums(1), nums(2, 3)), "flat")))
}

func TestStringMethods(t *testing.T) {
	tests := []struct {
		name string
		recv string
		meth string
		args []value.Value
		want string
	}{
		{"slice negative start", "hello world", "slice", []value.Value{value.Int(-5)}, "world"},
		{"slice end before start", "abc", "slice", []value.Value{value.Int(2), value.Int(1)}, ""},
		{"substring swaps", "hello", "substring", []value.Value{value.Int(3), value.Int(1)}, "el"},
		{"substr", "hello", "substr", []value.Value{value.Int(1), value.Int(3)}, "ell"},
		{"trim", "  hi \n", "trim", nil, "hi"},
		{"upper", "abc", "toUpperCase", nil, "ABC"},
		{"padStart", "5", "padStart", []value.Value{value.Int(3), value.String("0")}, "005"},
		{"padEnd multi-char fill", "a", "padEnd", []value.Value{value.Int(4), value.String("xy")}, "axyx"},
		{"replace first only", "a-b-c", "replace", []value.Value{value.String("-"), value.String("+")}, "a+b-c"},
		{"replaceAll", "a-b-c", "replaceAll", []value.Value{value.String("-"), value.String("+")}, "a+b+c"},
		{"repeat", "ab", "repeat", []value.Value{value.Int(3)}, "ababab"},
		{"charAt out of range", "ab", "charAt", []value.Value{value.Int(5)}, ""},
		{"slice by code point", "héllo", "slice", []value.Value{value.Int(1), value.Int(3)}, "él"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := call(t, value.String(tc.recv), tc.meth, tc.args...)
			assert.Equal(t, tc.want, res.Str())
		})
	}
}

func TestStringSplit(t *testing.T) {
	t.Run("empty string with separator", func(t *testing.T) {
		res := call(t, value.String(""), "split", value.String(","))
		require.Equal(t, 1, res.List().Len())
		assert.Equal(t, "", res.List().At(0).Str())
	})

	t.Run("empty separator splits characters", func(t *testing.T) {
		res := call(t, value.String("abc"), "split", value.String(""))
		assert.Equal(t, 3, res.List().Len())
	})

	t.Run("limit", func(t *testing.T) {
		res := call(t, value.String("a,b,c"), "split", value.String(","), value.Int(2))
		assert.Equal(t, "a,b", value.ToString(res))
	})
}

func TestStringReplaceCallback(t *testing.T) {
	upper := fn(func(args []value.Value) value.Value { return value.String("<" + args[0].Str() + ">") })

	res := call(t, value.String("a.b.c"), "replaceAll", value.String("."), upper)

	assert.Equal(t, "a<.>b<.>c", res.Str())
}

func TestNumberFormatting(t *testing.T) {
	tests := []struct {
		name string
		n    float64
		meth string
		args []value.Value
		want string
	}{
		{"toFixed rounds half up on exact tie", 2.5, "toFixed", []value.Value{value.Int(0)}, "3"},
		{"toFixed binary representation below tie", 1.005, "toFixed", []value.Value{value.Int(2)}, "1.00"},
		{"toFixed pads", 1.5, "toFixed", []value.Value{value.Int(3)}, "1.500"},
		{"toFixed negative small", -0.001, "toFixed", []value.Value{value.Int(2)}, "-0.00"},
		{"toFixed default digits", 3.7, "toFixed", nil, "4"},
		{"toPrecision", 123.456, "toPrecision", []value.Value{value.Int(4)}, "123.5"},
		{"toPrecision exponent", 123456, "toPrecision", []value.Value{value.Int(2)}, "1.2e+5"},
		{"toExponential", 12345, "toExponential", []value.Value{value.Int(2)}, "1.23e+4"},
		{"toString radix 2", 10, "toString", []value.Value{value.Int(2)}, "1010"},
		{"toString radix 16", 255, "toString", []value.Value{value.Int(16)}, "ff"},
		{"toLocaleString groups thousands", 1234567.891, "toLocaleString", nil, "1,234,567.891"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := call(t, value.Number(tc.n), tc.meth, tc.args...)
			assert.Equal(t, tc.want, res.Str())
		})
	}
}

func TestDateMethods(t *testing.T) {
	d := value.Date(time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC))

	assert.Equal(t, float64(2024), call(t, d, "getFullYear").Num())
	assert.Equal(t, float64(2), call(t, d, "getMonth").Num())
	assert.Equal(t, float64(5), call(t, d, "getDate").Num())
	assert.Equal(t, "2024-03-05T14:07:09.000Z", call(t, d, "toISOString").Str())
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-03-05", "2024-03-05T10:00:00Z", "March 5, 2024"} {
		got, ok := ParseDate(s)
		require.True(t, ok, s)
		assert.Equal(t, 2024, got.Year())
	}
	_, ok := ParseDate("not a date")
	assert.False(t, ok)
}

func TestMethodMissReportsNotFound(t *testing.T) {
	res, ok, err := CallMethod(context.Background(), value.String("x"), "nope", nil, testInvoker)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, res.IsNull())
}

func TestProperty(t *testing.T) {
	l, ok := Property(value.String("héllo"), "length")
	require.True(t, ok)
	assert.Equal(t, float64(5), l.Num())

	_, ok = Property(value.Int(1), "length")
	assert.False(t, ok)
}

func TestJSONRoundTripPreservesKeyOrder(t *testing.T) {
	// --- Arrange ---
	src := `{"b":1,"a":[true,null,"x"],"c":{"z":2.5}}`

	// --- Act ---
	v, err := ParseJSON(src)
	require.NoError(t, err)
	out, ok := Stringify(v, "")

	// --- Assert ---
	require.True(t, ok)
	assert.Equal(t, src, out)
	assert.Equal(t, []string{"b", "a", "c"}, v.Object().Keys())
}

func TestJSONStringify(t *testing.T) {
	obj := value.NewObject()
	obj.Set("a", value.Int(1))
	obj.Set("skip", value.Undefined)
	obj.Set("list", nums(1, 2))

	pretty, ok := Stringify(value.ObjectValue(obj), "  ")
	require.True(t, ok)
	assert.Equal(t, "{\n  \"a\": 1,\n  \"list\": [\n    1,\n    2\n  ]\n}", pretty)

	_, ok = Stringify(value.Undefined, "")
	assert.False(t, ok)

	nan, _ := Stringify(value.Number(nan()), "")
	assert.Equal(t, "null", nan)
}

func TestJSONParseErrors(t *testing.T) {
	for _, src := range []string{"", "{", "[1,]", "1 2"} {
		_, err := ParseJSON(src)
		assert.Error(t, err, src)
	}
}

func TestGlobals(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	g := Globals(func() time.Time { return fixed })

	t.Run("parseInt", func(t *testing.T) {
		assert.Equal(t, float64(42), parseInt([]value.Value{value.String("42px")}).Num())
		assert.Equal(t, float64(255), parseInt([]value.Value{value.String("ff"), value.Int(16)}).Num())
	})

	t.Run("parseFloat rejects words", func(t *testing.T) {
		assert.Equal(t, 3.5, parseFloat([]value.Value{value.String("3.5kg")}).Num())
		assert.True(t, value.ToString(parseFloat([]value.Value{value.String("abc")})) == "NaN")
	})

	t.Run("Math.max", func(t *testing.T) {
		max, ok := Property(g["Math"], "max")
		require.True(t, ok)
		res, err := testInvoker(max, value.Int(3), value.Int(9), value.Int(1))
		require.NoError(t, err)
		assert.Equal(t, float64(9), res.Num())
	})

	t.Run("Date.now uses the render clock", func(t *testing.T) {
		now, ok := Property(g["Date"], "now")
		require.True(t, ok)
		res, err := testInvoker(now)
		require.NoError(t, err)
		assert.Equal(t, float64(fixed.UnixMilli()), res.Num())
	})

	t.Run("Math is frozen", func(t *testing.T) {
		assert.True(t, g["Math"].Object().Frozen())
	})
}
