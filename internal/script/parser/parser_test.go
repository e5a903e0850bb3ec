package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/burstmd/internal/script/ast"
)

func TestParseExpression_Precedence(t *testing.T) {
	// --- Act ---
	expr, err := ParseExpression("1 + 2 * 3 ** 2 ** 1")

	// --- Assert ---
	require.NoError(t, err)
	add, ok := expr.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "+", add.Operator)
	mul, ok := add.Right.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Operator)
	pow, ok := mul.Right.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "**", pow.Operator)
	_, rightAssoc := pow.Right.(*ast.Binary)
	assert.True(t, rightAssoc, "** must associate to the right")
}

func TestParseExpression_Variants(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want any
	}{
		{"method call", `"a".toUpperCase()`, &ast.MethodCall{}},
		{"property", "tp.file.title", &ast.PropertyAccess{}},
		{"index", "xs[0]", &ast.IndexAccess{}},
		{"arrow", "x => x > 2", &ast.ArrowFunction{}},
		{"paren arrow", "(a, b) => { return a + b }", &ast.ArrowFunction{}},
		{"conditional", "a ? b : c", &ast.Conditional{}},
		{"nullish", "a ?? 'x'", &ast.NullishCoalescing{}},
		{"and", "a && b", &ast.LogicalAnd{}},
		{"or", "a || b", &ast.LogicalOr{}},
		{"template", "`hi ${name}!`", &ast.TemplateLiteral{}},
		{"await", `await tp.system.prompt("Name")`, &ast.Await{}},
		{"typeof", "typeof x", &ast.Typeof{}},
		{"new", "new Date()", &ast.New{}},
		{"object", "{a: 1, b}", &ast.ObjectLiteral{}},
		{"array", "[1, ...rest]", &ast.ArrayLiteral{}},
		{"assignment", "tR += 'x'", &ast.Assignment{}},
		{"update", "i++", &ast.Update{}},
		{"optional call", "fn?.()", &ast.Call{}},
		{"undefined", "undefined", &ast.UndefinedLiteral{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expr, err := ParseExpression(tc.src)
			require.NoError(t, err)
			assert.IsType(t, tc.want, expr)
		})
	}
}

func TestParseExpression_TemplateParts(t *testing.T) {
	expr, err := ParseExpression("`a${1 + 2}b${`c${d}`}`")
	require.NoError(t, err)

	tpl := expr.(*ast.TemplateLiteral)
	assert.Equal(t, []string{"a", "b", ""}, tpl.Quasis)
	require.Len(t, tpl.Exprs, 2)
	assert.IsType(t, &ast.Binary{}, tpl.Exprs[0])
	assert.IsType(t, &ast.TemplateLiteral{}, tpl.Exprs[1])
}

func TestParseProgram_Statements(t *testing.T) {
	src := `
let total = 0
const xs = [1, 2, 3];
for (let i = 0; i < xs.length; i++) {
  total += xs[i]
}
for (const x of xs) { if (x > 1) continue; else break }
while (total > 0) total--
function double(n) { return n * 2 }
tR += double(total)
`
	prog, err := ParseProgram(src)
	require.NoError(t, err)
	require.Len(t, prog.Body, 7)

	assert.IsType(t, &ast.VariableDeclaration{}, prog.Body[0])
	assert.IsType(t, &ast.VariableDeclaration{}, prog.Body[1])
	assert.IsType(t, &ast.For{}, prog.Body[2])
	forOf := prog.Body[3].(*ast.ForOf)
	assert.Equal(t, "x", forOf.Name)
	assert.False(t, forOf.In)
	assert.IsType(t, &ast.While{}, prog.Body[4])
	assert.IsType(t, &ast.FunctionDeclaration{}, prog.Body[5])
	assert.IsType(t, &ast.ExpressionStatement{}, prog.Body[6])
}

func TestParseProgram_ReturnRespectsLineBreak(t *testing.T) {
	prog, err := ParseProgram("function f() {\n  return\n  1\n}")
	require.NoError(t, err)

	fn := prog.Body[0].(*ast.FunctionDeclaration)
	ret := fn.Body.Body[0].(*ast.Return)
	assert.Nil(t, ret.Argument)
}

func TestParse_ErrorsCarryLocation(t *testing.T) {
	cases := []struct {
		name string
		src  string
		line int
	}{
		{"missing paren", "let x = (1 + 2", 1},
		{"bad token on second line", "let a = 1\nlet = 2", 2},
		{"const without init", "const x", 1},
		{"unterminated string", "let s = 'abc", 1},
		{"two expressions on one line", "a b", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseProgram(tc.src)
			require.Error(t, err)

			var perr *Error
			require.True(t, errors.As(err, &perr), "expected *parser.Error, got %T", err)
			assert.Equal(t, tc.line, perr.Line)
			assert.Positive(t, perr.Column)
		})
	}
}
