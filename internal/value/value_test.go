package value

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	falsy := []Value{Undefined, Null, False, Number(0), Number(math.NaN()), String("")}
	for _, v := range falsy {
		assert.False(t, Truthy(v), "expected %s to be falsy", v.Kind())
	}
	truthy := []Value{True, Number(-1), String("0"), Array(), ObjectValue(NewObject())}
	for _, v := range truthy {
		assert.True(t, Truthy(v), "expected %s to be truthy", v.Kind())
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		0:                   "0",
		math.Copysign(0, -1): "0",
		3:                   "3",
		-42:                 "-42",
		1.5:                 "1.5",
		1e21:                "1e+21",
		1.5e-7:              "1.5e-7",
		123456789012:        "123456789012",
		math.Inf(1):         "Infinity",
		math.Inf(-1):        "-Infinity",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatNumber(in), "FormatNumber(%v)", in)
	}
	assert.Equal(t, "NaN", FormatNumber(math.NaN()))

	// Constant expressions are folded exactly; the sum must happen at run time.
	a, b := 0.1, 0.2
	assert.Equal(t, "0.30000000000000004", FormatNumber(a+b))
}

func TestToNumber(t *testing.T) {
	t.Run("strings", func(t *testing.T) {
		assert.Equal(t, 42.0, ToNumber(String(" 42 ")))
		assert.Equal(t, 0.0, ToNumber(String("")))
		assert.Equal(t, 255.0, ToNumber(String("0xff")))
		assert.Equal(t, 1500.0, ToNumber(String("1.5e3")))
		assert.True(t, math.IsNaN(ToNumber(String("12px"))))
		assert.True(t, math.IsNaN(ToNumber(String("inf"))))
	})

	t.Run("other kinds", func(t *testing.T) {
		assert.Equal(t, 1.0, ToNumber(True))
		assert.Equal(t, 0.0, ToNumber(Null))
		assert.True(t, math.IsNaN(ToNumber(Undefined)))
		assert.Equal(t, 0.0, ToNumber(Array()))
		assert.Equal(t, 7.0, ToNumber(Array(String("7"))))
		assert.True(t, math.IsNaN(ToNumber(Array(Int(1), Int(2)))))
	})
}

func TestToString(t *testing.T) {
	nested := Array(Int(1), Array(Int(2), Int(3)), Null, String("x"))
	assert.Equal(t, "1,2,3,,x", ToString(nested))
	assert.Equal(t, "[object Object]", ToString(ObjectValue(NewObject())))
	assert.Equal(t, "undefined", ToString(Undefined))
	assert.Equal(t, "true", ToString(True))
}

func TestEquality(t *testing.T) {
	arr := Array(Int(1))

	assert.True(t, StrictEquals(arr, arr))
	assert.False(t, StrictEquals(arr, Array(Int(1))))
	assert.False(t, StrictEquals(Number(math.NaN()), Number(math.NaN())))
	assert.True(t, SameValueZero(Number(math.NaN()), Number(math.NaN())))
	assert.False(t, StrictEquals(Int(1), String("1")))

	assert.True(t, LooseEquals(Int(1), String("1")))
	assert.True(t, LooseEquals(Null, Undefined))
	assert.False(t, LooseEquals(Null, Int(0)))
	assert.True(t, LooseEquals(True, Int(1)))
	assert.True(t, LooseEquals(arr, String("1")))
}

func TestCompare(t *testing.T) {
	c, ok := Compare(String("a"), String("b"))
	require.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = Compare(String("10"), Int(9))
	require.True(t, ok)
	assert.Equal(t, 1, c)

	_, ok = Compare(Undefined, Int(1))
	assert.False(t, ok)
}

func TestListFrozen(t *testing.T) {
	frozen := FrozenArray(Int(1))
	assert.False(t, frozen.List().Append(Int(2)))
	assert.False(t, frozen.List().Set(0, Int(5)))
	assert.Equal(t, 1, frozen.List().Len())

	l := NewList(nil)
	require.True(t, l.Set(2, String("c")))
	assert.Equal(t, 3, l.Len())
	assert.True(t, l.At(0).IsUndefined())
}

func TestObjectOrder(t *testing.T) {
	o := NewObject()
	o.Set("b", Int(1))
	o.Set("a", Int(2))
	o.Set("b", Int(3))
	require.True(t, o.Delete("a"))
	o.Set("c", Int(4))

	assert.Equal(t, []string{"b", "c"}, o.Keys())
	v, ok := o.Get("b")
	require.True(t, ok)
	assert.Equal(t, 3.0, v.Num())
}

func TestFromGoToGo(t *testing.T) {
	in := map[string]any{
		"title": "Note",
		"tags":  []any{"a", "b"},
		"meta":  map[string]any{"n": 2},
		"none":  nil,
	}

	v := FromGo(in, true)
	require.Equal(t, KindObject, v.Kind())
	assert.True(t, v.Object().Frozen())
	tags, _ := v.Object().Get("tags")
	assert.True(t, tags.List().Frozen())

	want := map[string]any{
		"title": "Note",
		"tags":  []any{"a", "b"},
		"meta":  map[string]any{"n": 2.0},
		"none":  nil,
	}
	if diff := cmp.Diff(want, ToGo(v)); diff != "" {
		t.Errorf("ToGo mismatch (-want +got):\n%s", diff)
	}
}

func TestList_Growth(t *testing.T) {
	tests := []struct {
		name    string
		act     func(l *List) bool
		wantOK  bool
		wantLen int
	}{
		{"set pads with undefined", func(l *List) bool { return l.Set(4, Int(9)) }, true, 5},
		{"set negative index", func(l *List) bool { return l.Set(-1, Int(9)) }, false, 2},
		{"set past the maximum", func(l *List) bool { return l.Set(MaxListLen, Int(9)) }, false, 2},
		{"set huge index", func(l *List) bool { return l.Set(math.MaxInt, Int(9)) }, false, 2},
		{"resize shrinks", func(l *List) bool { return l.Resize(1) }, true, 1},
		{"resize grows", func(l *List) bool { return l.Resize(3) }, true, 3},
		{"resize past the maximum", func(l *List) bool { return l.Resize(MaxListLen + 1) }, false, 2},
		{"frozen list", func(l *List) bool { l.frozen = true; return l.Set(0, Int(9)) }, false, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			l := NewList([]Value{Int(1), Int(2)})

			// --- Act ---
			ok := tc.act(l)

			// --- Assert ---
			assert.Equal(t, tc.wantOK, ok)
			require.Equal(t, tc.wantLen, l.Len())
			for i := 2; i < l.Len(); i++ {
				if i != 4 {
					assert.True(t, l.At(i).IsUndefined(), "element %d", i)
				}
			}
		})
	}
}

func TestList_ResizeDoesNotLeakOldElements(t *testing.T) {
	l := NewList([]Value{Int(1), Int(2), Int(3)})

	require.True(t, l.Resize(1))
	require.True(t, l.Resize(3))

	assert.True(t, l.At(1).IsUndefined())
	assert.True(t, l.At(2).IsUndefined())
}
