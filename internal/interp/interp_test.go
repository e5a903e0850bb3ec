package interp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/burstmd/internal/builtins"
	"github.com/vk/burstmd/internal/script/parser"
	"github.com/vk/burstmd/internal/value"
)

func newRoot() *Env {
	env := NewEnv(nil)
	for name, v := range builtins.Globals(nil) {
		env.Declare(name, v, true)
	}
	env.Define(OutputVar, value.String(""))
	return env
}

func exec(t *testing.T, in *Interpreter, env *Env, src string) string {
	t.Helper()
	prog, err := parser.ParseProgram(src)
	require.NoError(t, err)
	out, err := in.Execute(context.Background(), prog, env)
	require.NoError(t, err)
	return out
}

func eval(t *testing.T, env *Env, src string) value.Value {
	t.Helper()
	expr, err := parser.ParseExpression(src)
	require.NoError(t, err)
	v, err := New().Evaluate(context.Background(), expr, env)
	require.NoError(t, err)
	return v
}

func TestEvaluate_Expressions(t *testing.T) {
	env := newRoot()
	env.Define("n", value.Int(4))
	env.Define("s", value.String("ab"))

	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "7"},
		{"'a' + 1 + 2", "a12"},
		{"1 + 2 + 'a'", "3a"},
		{"10 / 0", "Infinity"},
		{"-7 % 3", "-1"},
		{"0 / 0", "NaN"},
		{"n > 3 ? 'big' : 'small'", "big"},
		{"missing ?? 'fallback'", "fallback"},
		{"0 || 'x'", "x"},
		{"'' && boom()", ""},
		{"`${s}-${n * 2}`", "ab-8"},
		{"[5,1,9,2].filter(x => x > 2)", "5,9"},
		{"\"hello world\".slice(-5)", "world"},
		{"typeof missing", "undefined"},
		{"typeof s.length", "number"},
		{"s.nope()", "null"},
		{"missing?.deep.field", "undefined"},
		{"({a: 1, b: [2, 3]}).b[1]", "3"},
		{"[1, ...[2, 3], 4].length", "4"},
		{"Math.max(...[3, 8, 2])", "8"},
		{"2 ** 3 ** 2", "512"},
		{"'b' in {b: 1}", "true"},
		{"new Date(0) instanceof Date", "true"},
		{"JSON.stringify({k: [1, 'x']})", `{"k":[1,"x"]}`},
		{"(0.1 + 0.2).toFixed(2)", "0.30"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			assert.Equal(t, tc.want, value.ToString(eval(t, env, tc.src)))
		})
	}
}

func TestEvaluate_UnresolvedVariableIsUndefined(t *testing.T) {
	v := eval(t, newRoot(), "nothingHere")

	assert.True(t, v.IsUndefined())
}

func TestExecute_OutputIsDelta(t *testing.T) {
	// --- Arrange ---
	in := New()
	env := newRoot()
	env.Define(OutputVar, value.String("before|"))

	// --- Act ---
	out := exec(t, in, env, `tR += "A"; tR += "B";`)

	// --- Assert ---
	assert.Equal(t, "AB", out)
	assert.Equal(t, "before|AB", env.Get(OutputVar).Str())
}

func TestExecute_ReplacingOutputReturnsWholeValue(t *testing.T) {
	env := newRoot()
	env.Define(OutputVar, value.String("old"))

	out := exec(t, New(), env, `tR = "new"`)

	assert.Equal(t, "new", out)
}

func TestExecute_NoOutputWrite(t *testing.T) {
	env := newRoot()

	out := exec(t, New(), env, `let x = 5; let y = x * 2;`)

	assert.Equal(t, "", out)
	assert.Equal(t, float64(10), env.Get("y").Num())
}

func TestExecute_Statements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "for loop",
			src:  `for (let i = 0; i < 3; i++) { tR += i; }`,
			want: "012",
		},
		{
			name: "while with break and continue",
			src:  `let i = 0; while (true) { i++; if (i === 2) continue; if (i > 4) break; tR += i; }`,
			want: "134",
		},
		{
			name: "do while runs once",
			src:  `let i = 10; do { tR += i; } while (i < 5)`,
			want: "10",
		},
		{
			name: "for of over array",
			src:  `for (const v of ["a", "b"]) tR += v.toUpperCase();`,
			want: "AB",
		},
		{
			name: "for in over object keys",
			src:  `const o = {x: 1, y: 2}; for (const k in o) tR += k + o[k];`,
			want: "x1y2",
		},
		{
			name: "if else",
			src:  `const v = ""; if (v) { tR += "yes" } else { tR += "no" }`,
			want: "no",
		},
		{
			name: "function hoisting",
			src:  `tR += twice(4); function twice(n) { return n * 2 }`,
			want: "8",
		},
		{
			name: "recursion gets fresh frames",
			src:  `function fact(n) { return n <= 1 ? 1 : n * fact(n - 1) } tR += fact(5);`,
			want: "120",
		},
		{
			name: "closures capture by reference",
			src:  `let count = 0; const inc = () => { count++; }; inc(); inc(); tR += count;`,
			want: "2",
		},
		{
			name: "closure factory",
			src:  `const make = (base) => (x) => base + x; const add2 = make(2); tR += add2(3);`,
			want: "5",
		},
		{
			name: "default and rest parameters",
			src:  `function f(a, b = 10, ...rest) { return a + b + rest.length } tR += f(1) + "," + f(1, 2, 3, 4);`,
			want: "11,5",
		},
		{
			name: "compound and logical assignment",
			src:  `let a = 5; a += 2; a *= 3; let b = null; b ??= "set"; let c = 1; c ||= 99; tR += a + b + c;`,
			want: "21set1",
		},
		{
			name: "member assignment",
			src:  `const o = {}; o.name = "x"; const arr = [1]; arr[2] = 3; tR += o.name + arr.length;`,
			want: "x3",
		},
		{
			name: "length truncates and pads",
			src:  `const a = [1, 2, 3]; a.length = 1; a.length = 3; tR += a.length + String(a[2]);`,
			want: "3undefined",
		},
		{
			name: "let in a for loop is fresh per iteration",
			src:  `const fs = []; for (let i = 0; i < 3; i++) { fs.push(() => i) } tR += fs.map(f => f()).join(",");`,
			want: "0,1,2",
		},
		{
			name: "per iteration let keeps body updates",
			src:  `const fs = []; for (let i = 0; i < 6; i++) { fs.push(() => i); i++ } tR += fs.map(f => f()).join(",");`,
			want: "1,3,5",
		},
		{
			name: "var in a for loop is shared",
			src:  `const fs = []; for (var i = 0; i < 3; i++) { fs.push(() => i) } tR += fs.map(f => f()).join(",");`,
			want: "3,3,3",
		},
		{
			name: "array mutation through method",
			src:  `const list = []; list.push("a", "b"); tR += list.join("+");`,
			want: "a+b",
		},
		{
			name: "shadowing in nested scope",
			src:  `let x = "outer"; { let x = "inner"; tR += x; } tR += x;`,
			want: "innerouter",
		},
		{
			name: "await is synchronous",
			src:  `const v = await Promise; tR += typeof v;`,
			want: "undefined",
		},
		{
			name: "interpolated template literal",
			src:  "const who = 'world'; tR += `hello ${who}!`;",
			want: "hello world!",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exec(t, New(), newRoot(), tc.src))
		})
	}
}

func TestExecute_BindingsPersistAcrossBlocks(t *testing.T) {
	in := New()
	env := newRoot()

	exec(t, in, env, `let x = 5`)
	exec(t, in, env, `let y = 10`)
	exec(t, in, env, `let sum = x + y`)

	assert.Equal(t, "15", value.ToString(eval(t, env, "sum")))
}

func TestExecute_AssignmentToUndeclaredCreatesRootBinding(t *testing.T) {
	env := newRoot()

	exec(t, New(), env, `{ implicit = 3 }`)

	assert.Equal(t, float64(3), env.Get("implicit").Num())
}

func TestExecute_RuntimeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{"const assignment", "const k = 1;\nk = 2;", "constant"},
		{"calling a non-function", "const n = 3; n();", "not a function"},
		{"break outside loop", "break;", "outside a loop"},
		{"unbounded recursion", "function f() { return f() } f();", "call depth"},
		{"host error", "JSON.parse('{')", "JSON.parse"},
		{"array index past the maximum length", "const a = []; a[1e9] = 1;", "maximum length"},
		{"array length past the maximum", "const a = []; a.length = 1e12;", "invalid array length"},
		{"negative array length", "const a = [1]; a.length = -1;", "invalid array length"},
		{"string repeat past the maximum", `tR += "ab".repeat(1e9);`, "invalid string length"},
		{"string pad past the maximum", `tR += "a".padStart(1e9, "x");`, "invalid string length"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			prog, err := parser.ParseProgram(tc.src)
			require.NoError(t, err)

			// --- Act ---
			_, err = New(WithMaxCallDepth(64)).Execute(context.Background(), prog, newRoot())

			// --- Assert ---
			var re *RuntimeError
			require.ErrorAs(t, err, &re)
			assert.Contains(t, re.Error(), tc.msg)
			assert.Positive(t, re.Location.Line)
		})
	}
}

func TestExecute_ConstErrorLocation(t *testing.T) {
	prog, err := parser.ParseProgram("const k = 1;\nk = 2;")
	require.NoError(t, err)

	_, err = New().Execute(context.Background(), prog, newRoot())

	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 2, re.Location.Line)
}

func TestExecute_Cancellation(t *testing.T) {
	// --- Arrange ---
	prog, err := parser.ParseProgram(`tR += "start"; while (true) {}`)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// --- Act ---
	out, err := New().Execute(ctx, prog, newRoot())

	// --- Assert ---
	assert.True(t, errors.Is(err, ErrCancelled))
	assert.Equal(t, "start", out)
}

func TestExecute_CancelledBeforeStart(t *testing.T) {
	prog, err := parser.ParseProgram(`tR += "never"`)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := New().Execute(ctx, prog, newRoot())

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, "", out)
}

func TestExecute_NativeCallbacksCallClosures(t *testing.T) {
	out := exec(t, New(), newRoot(), `
		const items = [3, 1, 2];
		items.sort((a, b) => b - a);
		tR += items.map(x => x * 10).join(",");
		tR += "|" + items.reduce((acc, x) => acc + x, 0);
	`)

	assert.Equal(t, "30,20,10|6", out)
}

func TestProfile_RecordsNativeCalls(t *testing.T) {
	// --- Arrange ---
	p := NewProfile()
	in := New(WithProfile(p))

	// --- Act ---
	exec(t, in, newRoot(), `Math.floor(1.5); Math.floor(2.5); Math.ceil(1);`)

	// --- Assert ---
	assert.Equal(t, 2, p.CallCount("floor"))
	assert.Equal(t, 1, p.CallCount("ceil"))
	assert.Equal(t, int64(3), p.Statements())
}

func TestEnv_ConcurrentDeclare(t *testing.T) {
	env := NewEnv(nil)
	done := make(chan struct{})
	for i := range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := range 100 {
				env.Define(string(rune('a'+i))+string(rune('a'+j%26)), value.Int(j))
				env.Lookup("aa")
			}
		}()
	}
	for range 8 {
		<-done
	}

	assert.Len(t, env.Names(), 8*26)
}
