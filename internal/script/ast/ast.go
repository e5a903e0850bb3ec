// Package ast defines the closed syntax tree of the template script language.
//
// Expression and Statement are sealed interfaces: only the types declared in
// this package implement them, so consumers (the interpreter, the analyzer)
// can switch over the full variant set.
package ast

// Location is a 1-based position inside one directive's source text.
type Location struct {
	Line   int
	Column int
	Length int
}

// Node is implemented by every syntax tree node.
type Node interface {
	Loc() Location
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	exprNode()
}

// Statement is a node executed for its effects.
type Statement interface {
	Node
	stmtNode()
}

// Pos is embedded by every node to carry its location.
type Pos struct {
	Location Location
}

func (p Pos) Loc() Location { return p.Location }

// --- Expressions ---

type NumberLiteral struct {
	Pos
	Value float64
}

type StringLiteral struct {
	Pos
	Value string
}

type BooleanLiteral struct {
	Pos
	Value bool
}

type NullLiteral struct{ Pos }

type UndefinedLiteral struct{ Pos }

type ArrayLiteral struct {
	Pos
	Elements []Expression
}

// Property is one key/value pair in an object literal. Computed keys
// (`[expr]: v`) set KeyExpr instead of Key.
type Property struct {
	Key     string
	KeyExpr Expression
	Value   Expression
}

type ObjectLiteral struct {
	Pos
	Properties []Property
}

// TemplateLiteral interleaves literal text with embedded expressions:
// Quasis[0] Exprs[0] Quasis[1] ... Quasis[n].
type TemplateLiteral struct {
	Pos
	Quasis []string
	Exprs  []Expression
}

type Variable struct {
	Pos
	Name string
}

// PropertyAccess is `obj.name` or `obj?.name`.
type PropertyAccess struct {
	Pos
	Object   Expression
	Name     string
	Optional bool
}

// IndexAccess is `obj[index]` or `obj?.[index]`.
type IndexAccess struct {
	Pos
	Object   Expression
	Index    Expression
	Optional bool
}

type Binary struct {
	Pos
	Operator string
	Left     Expression
	Right    Expression
}

// Unary covers prefix `!`, `-`, `+`, `~` and `void`.
type Unary struct {
	Pos
	Operator string
	Operand  Expression
}

type LogicalAnd struct {
	Pos
	Left, Right Expression
}

type LogicalOr struct {
	Pos
	Left, Right Expression
}

type NullishCoalescing struct {
	Pos
	Left, Right Expression
}

// Call invokes a callee that is not a property access.
type Call struct {
	Pos
	Callee    Expression
	Arguments []Expression
	Optional  bool
}

// MethodCall invokes Receiver.Method(...), binding the receiver for built-in
// dispatch.
type MethodCall struct {
	Pos
	Receiver  Expression
	Method    string
	Arguments []Expression
	Optional  bool
}

type Conditional struct {
	Pos
	Test, Consequent, Alternate Expression
}

// ArrowFunction is `(a, b) => expr` or `(a) => { ... }`. Exactly one of
// ExprBody and Body is set, as reported by IsExpressionBody.
type ArrowFunction struct {
	Pos
	Parameters       []Param
	ExprBody         Expression
	Body             *Block
	IsExpressionBody bool
}

// Param is one formal parameter with an optional default value.
type Param struct {
	Name    string
	Default Expression
	Rest    bool
}

// FunctionExpression is `function name(a) { ... }` used as a value.
type FunctionExpression struct {
	Pos
	Name       string
	Parameters []Param
	Body       *Block
}

// Assignment covers `=` and every compound operator (`+=`, `&&=`, `??=`...).
// Target is a *Variable, *PropertyAccess or *IndexAccess.
type Assignment struct {
	Pos
	Operator string
	Target   Expression
	Value    Expression
}

// Update is `++x`, `x++`, `--x` or `x--`.
type Update struct {
	Pos
	Operator string
	Prefix   bool
	Target   Expression
}

type Typeof struct {
	Pos
	Operand Expression
}

type Instanceof struct {
	Pos
	Left  Expression
	Right Expression
}

// Await evaluates its operand synchronously; host calls already block.
type Await struct {
	Pos
	Operand Expression
}

// New is `new Callee(args)`. Only built-in constructors are supported.
type New struct {
	Pos
	Callee    Expression
	Arguments []Expression
}

// Spread is `...expr` inside array literals and argument lists.
type Spread struct {
	Pos
	Operand Expression
}

// Sequence is `a, b` evaluated left to right, yielding the last value.
type Sequence struct {
	Pos
	Expressions []Expression
}

func (*NumberLiteral) exprNode()      {}
func (*StringLiteral) exprNode()      {}
func (*BooleanLiteral) exprNode()     {}
func (*NullLiteral) exprNode()        {}
func (*UndefinedLiteral) exprNode()   {}
func (*ArrayLiteral) exprNode()       {}
func (*ObjectLiteral) exprNode()      {}
func (*TemplateLiteral) exprNode()    {}
func (*Variable) exprNode()           {}
func (*PropertyAccess) exprNode()     {}
func (*IndexAccess) exprNode()        {}
func (*Binary) exprNode()             {}
func (*Unary) exprNode()              {}
func (*LogicalAnd) exprNode()         {}
func (*LogicalOr) exprNode()          {}
func (*NullishCoalescing) exprNode()  {}
func (*Call) exprNode()               {}
func (*MethodCall) exprNode()         {}
func (*Conditional) exprNode()        {}
func (*ArrowFunction) exprNode()      {}
func (*FunctionExpression) exprNode() {}
func (*Assignment) exprNode()         {}
func (*Update) exprNode()             {}
func (*Typeof) exprNode()             {}
func (*Instanceof) exprNode()         {}
func (*Await) exprNode()              {}
func (*New) exprNode()                {}
func (*Spread) exprNode()             {}
func (*Sequence) exprNode()           {}

// --- Statements ---

// Program is the body of one execution block.
type Program struct {
	Pos
	Body []Statement
}

// VariableDeclaration is `let`, `const` or `var` with one or more
// declarators.
type VariableDeclaration struct {
	Pos
	Kind         string
	Declarations []Declarator
}

type Declarator struct {
	Name string
	Init Expression
}

type ExpressionStatement struct {
	Pos
	Expression Expression
}

type If struct {
	Pos
	Test       Expression
	Consequent Statement
	Alternate  Statement
}

// For is the C-style three clause loop. Init is a *VariableDeclaration, an
// *ExpressionStatement or nil.
type For struct {
	Pos
	Init   Statement
	Test   Expression
	Update Expression
	Body   Statement
}

// ForOf is `for (const x of xs)` or, with In set, `for (const k in obj)`.
type ForOf struct {
	Pos
	Kind     string
	Name     string
	Iterable Expression
	In       bool
	Body     Statement
}

type While struct {
	Pos
	Test    Expression
	Body    Statement
	DoWhile bool
}

type Block struct {
	Pos
	Body []Statement
}

type Return struct {
	Pos
	Argument Expression
}

type Break struct{ Pos }

type Continue struct{ Pos }

type FunctionDeclaration struct {
	Pos
	Name       string
	Parameters []Param
	Body       *Block
}

type Empty struct{ Pos }

func (*Program) stmtNode()             {}
func (*VariableDeclaration) stmtNode() {}
func (*ExpressionStatement) stmtNode() {}
func (*If) stmtNode()                  {}
func (*For) stmtNode()                 {}
func (*ForOf) stmtNode()               {}
func (*While) stmtNode()               {}
func (*Block) stmtNode()               {}
func (*Return) stmtNode()              {}
func (*Break) stmtNode()               {}
func (*Continue) stmtNode()            {}
func (*FunctionDeclaration) stmtNode() {}
func (*Empty) stmtNode()               {}
