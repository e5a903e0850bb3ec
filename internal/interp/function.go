package interp

import (
	"github.com/vk/burstmd/internal/script/ast"
)

// Closure is a script function together with the scope it was defined in.
type Closure struct {
	name   string
	params []ast.Param
	body   *ast.Block
	expr   ast.Expression
	env    *Env
	arrow  bool
}

// Name returns the declared name, or "anonymous".
func (c *Closure) Name() string {
	if c.name == "" {
		return "anonymous"
	}
	return c.name
}

// Arity returns the number of declared parameters.
func (c *Closure) Arity() int { return len(c.params) }

func newArrow(fn *ast.ArrowFunction, env *Env) *Closure {
	return &Closure{params: fn.Parameters, body: fn.Body, expr: fn.ExprBody, env: env, arrow: true}
}

func newFunction(name string, params []ast.Param, body *ast.Block, env *Env) *Closure {
	return &Closure{name: name, params: params, body: body, env: env}
}
