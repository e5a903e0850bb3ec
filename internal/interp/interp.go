// Package interp evaluates template script syntax trees.
//
// Evaluate handles interpolation directives and Execute handles execution
// directives. Both run against an Env shared by the whole render. The output
// of an execution directive is whatever it appended to the root `tR`
// binding while it ran.
package interp

import (
	"context"
	"time"

	"github.com/vk/burstmd/internal/script/ast"
	"github.com/vk/burstmd/internal/value"
)

// OutputVar is the name of the per-render output accumulator.
const OutputVar = "tR"

const defaultMaxCallDepth = 1024

// Interpreter runs syntax trees. It holds no per-block state and is safe for
// concurrent use.
type Interpreter struct {
	profile      *Profile
	maxCallDepth int
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithProfile records host call statistics into p.
func WithProfile(p *Profile) Option {
	return func(i *Interpreter) { i.profile = p }
}

// WithMaxCallDepth limits script function recursion.
func WithMaxCallDepth(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.maxCallDepth = n
		}
	}
}

// New creates an interpreter.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{maxCallDepth: defaultMaxCallDepth}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Profile returns the profile the interpreter records into, if any.
func (in *Interpreter) Profile() *Profile { return in.profile }

// run is the state of one directive evaluation.
type run struct {
	in    *Interpreter
	ctx   context.Context
	root  *Env
	depth int
	stmts int64

	// trBefore is the root tR value observed just before this run first
	// wrote it.
	trWritten bool
	trBefore  string
}

func (in *Interpreter) newRun(ctx context.Context, env *Env) *run {
	return &run{in: in, ctx: ctx, root: env.Root()}
}

// Evaluate evaluates a single expression.
func (in *Interpreter) Evaluate(ctx context.Context, expr ast.Expression, env *Env) (value.Value, error) {
	r := in.newRun(ctx, env)
	if err := r.checkCancelled(); err != nil {
		return value.Undefined, err
	}
	return r.eval(expr, env)
}

// Execute runs a program in env and returns the text the program appended to
// tR. When the program replaced tR with a value that does not extend the
// previous content, the whole new value is returned.
func (in *Interpreter) Execute(ctx context.Context, prog *ast.Program, env *Env) (string, error) {
	r := in.newRun(ctx, env)
	defer func() { in.profile.addStatements(r.stmts) }()

	ctl, _, err := r.execList(prog.Body, env)
	if err != nil {
		return r.output(), err
	}
	if ctl == ctlBreak || ctl == ctlContinue {
		return r.output(), runtimeErr(prog, "illegal %s outside a loop", ctl)
	}
	return r.output(), nil
}

func (r *run) output() string {
	if !r.trWritten {
		return ""
	}
	after := value.ToString(r.root.Get(OutputVar))
	if len(after) >= len(r.trBefore) && after[:len(r.trBefore)] == r.trBefore {
		return after[len(r.trBefore):]
	}
	return after
}

// noteWrite records the accumulator value before the first write of the run.
func (r *run) noteWrite(name string, owner *Env) {
	if name != OutputVar || owner != r.root || r.trWritten {
		return
	}
	r.trWritten = true
	if v, ok := r.root.Lookup(OutputVar); ok {
		r.trBefore = value.ToString(v)
	}
}

func (r *run) checkCancelled() error {
	if r.ctx.Err() != nil {
		return ErrCancelled
	}
	return nil
}

// invoker returns a callback that natives use to call script functions.
func (r *run) invoker(site ast.Node) value.Invoker {
	return func(fn value.Value, args ...value.Value) (value.Value, error) {
		return r.call(site, fn, args)
	}
}

// call invokes any callable value.
func (r *run) call(site ast.Node, fn value.Value, args []value.Value) (value.Value, error) {
	switch f := fn.Function().(type) {
	case *Closure:
		return r.callClosure(site, f, args)
	case *value.Native:
		start := time.Now()
		res, err := f.Call(r.ctx, args, r.invoker(site))
		r.in.profile.recordCall(f.Name(), time.Since(start))
		if err != nil {
			return value.Undefined, wrapCallErr(site, err)
		}
		return res, nil
	}
	return value.Undefined, runtimeErr(site, "%s is not a function", describe(site))
}

func (r *run) callClosure(site ast.Node, c *Closure, args []value.Value) (value.Value, error) {
	if r.depth >= r.in.maxCallDepth {
		return value.Undefined, runtimeErr(site, "maximum call depth of %d exceeded", r.in.maxCallDepth)
	}
	r.depth++
	defer func() { r.depth-- }()

	env := newFunctionEnv(c.env)
	if c.name != "" && !c.arrow {
		env.Define(c.name, value.FunctionValue(c))
	}
	for i, p := range c.params {
		if p.Rest {
			var rest []value.Value
			if i < len(args) {
				rest = append(rest, args[i:]...)
			}
			env.Define(p.Name, value.Array(rest...))
			break
		}
		arg := value.Arg(args, i)
		if arg.IsUndefined() && p.Default != nil {
			def, err := r.eval(p.Default, env)
			if err != nil {
				return value.Undefined, err
			}
			arg = def
		}
		env.Define(p.Name, arg)
	}

	if c.expr != nil {
		return r.eval(c.expr, env)
	}
	ctl, ret, err := r.execList(c.body.Body, env)
	if err != nil {
		return value.Undefined, err
	}
	if ctl == ctlReturn {
		return ret, nil
	}
	return value.Undefined, nil
}

func describe(n ast.Node) string {
	switch e := n.(type) {
	case *ast.Call:
		return describe(e.Callee)
	case *ast.MethodCall:
		return describe(e.Receiver) + "." + e.Method
	case *ast.New:
		return describe(e.Callee)
	case *ast.Variable:
		return e.Name
	case *ast.PropertyAccess:
		return describe(e.Object) + "." + e.Name
	}
	return "expression"
}
