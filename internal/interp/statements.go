package interp

import (
	"github.com/vk/burstmd/internal/script/ast"
	"github.com/vk/burstmd/internal/value"
)

// completion is how a statement finished.
type completion int

const (
	ctlNormal completion = iota
	ctlReturn
	ctlBreak
	ctlContinue
)

func (c completion) String() string {
	switch c {
	case ctlReturn:
		return "return"
	case ctlBreak:
		return "break"
	case ctlContinue:
		return "continue"
	}
	return "normal"
}

// execList hoists function declarations and runs stmts in order.
func (r *run) execList(stmts []ast.Statement, env *Env) (completion, value.Value, error) {
	for _, s := range stmts {
		if fd, ok := s.(*ast.FunctionDeclaration); ok {
			r.declare(env, fd.Name, value.FunctionValue(newFunction(fd.Name, fd.Parameters, fd.Body, env)), false)
		}
	}
	for _, s := range stmts {
		ctl, v, err := r.exec(s, env)
		if err != nil || ctl != ctlNormal {
			return ctl, v, err
		}
	}
	return ctlNormal, value.Undefined, nil
}

func (r *run) exec(stmt ast.Statement, env *Env) (completion, value.Value, error) {
	if err := r.checkCancelled(); err != nil {
		return ctlNormal, value.Undefined, err
	}
	r.stmts++

	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		_, err := r.eval(s.Expression, env)
		return ctlNormal, value.Undefined, err

	case *ast.VariableDeclaration:
		target := env
		if s.Kind == "var" {
			target = env.functionScope()
		}
		for _, d := range s.Declarations {
			v := value.Undefined
			if d.Init != nil {
				var err error
				if v, err = r.eval(d.Init, env); err != nil {
					return ctlNormal, value.Undefined, err
				}
			}
			if cl, ok := v.Function().(*Closure); ok && cl.name == "" {
				cl.name = d.Name
			}
			r.declare(target, d.Name, v, s.Kind == "const")
		}
		return ctlNormal, value.Undefined, nil

	case *ast.If:
		test, err := r.eval(s.Test, env)
		if err != nil {
			return ctlNormal, value.Undefined, err
		}
		if value.Truthy(test) {
			return r.execScoped(s.Consequent, env)
		}
		if s.Alternate != nil {
			return r.execScoped(s.Alternate, env)
		}
		return ctlNormal, value.Undefined, nil

	case *ast.Block:
		return r.execList(s.Body, NewEnv(env))

	case *ast.For:
		return r.execFor(s, env)

	case *ast.ForOf:
		return r.execForOf(s, env)

	case *ast.While:
		return r.execWhile(s, env)

	case *ast.Return:
		if s.Argument == nil {
			return ctlReturn, value.Undefined, nil
		}
		v, err := r.eval(s.Argument, env)
		return ctlReturn, v, err

	case *ast.Break:
		return ctlBreak, value.Undefined, nil

	case *ast.Continue:
		return ctlContinue, value.Undefined, nil

	case *ast.FunctionDeclaration:
		// hoisted by execList
		return ctlNormal, value.Undefined, nil

	case *ast.Empty:
		return ctlNormal, value.Undefined, nil

	case *ast.Program:
		return r.execList(s.Body, env)
	}
	return ctlNormal, value.Undefined, runtimeErr(stmt, "unsupported statement %T", stmt)
}

// execScoped runs a branch or loop body. Non-block bodies still get their
// own scope for any declaration they make.
func (r *run) execScoped(stmt ast.Statement, env *Env) (completion, value.Value, error) {
	if b, ok := stmt.(*ast.Block); ok {
		return r.execList(b.Body, NewEnv(env))
	}
	return r.exec(stmt, env)
}

// loopBody runs one iteration and reports whether the loop must stop.
func (r *run) loopBody(body ast.Statement, env *Env) (stop bool, ctl completion, v value.Value, err error) {
	ctl, v, err = r.execScoped(body, env)
	switch {
	case err != nil:
		return true, ctlNormal, value.Undefined, err
	case ctl == ctlBreak:
		return true, ctlNormal, value.Undefined, nil
	case ctl == ctlReturn:
		return true, ctlReturn, v, nil
	}
	return false, ctlNormal, value.Undefined, nil
}

// execFor gives every iteration its own copy of the let bindings declared by
// the loop head, so closures created in the body keep that iteration's values.
func (r *run) execFor(s *ast.For, env *Env) (completion, value.Value, error) {
	loopEnv := NewEnv(env)
	if s.Init != nil {
		if _, _, err := r.exec(s.Init, loopEnv); err != nil {
			return ctlNormal, value.Undefined, err
		}
	}
	iterEnv := loopEnv.fork()
	for {
		if err := r.checkCancelled(); err != nil {
			return ctlNormal, value.Undefined, err
		}
		if s.Test != nil {
			test, err := r.eval(s.Test, iterEnv)
			if err != nil {
				return ctlNormal, value.Undefined, err
			}
			if !value.Truthy(test) {
				return ctlNormal, value.Undefined, nil
			}
		}
		if stop, ctl, v, err := r.loopBody(s.Body, iterEnv); stop {
			return ctl, v, err
		}
		iterEnv = iterEnv.fork()
		if s.Update != nil {
			if _, err := r.eval(s.Update, iterEnv); err != nil {
				return ctlNormal, value.Undefined, err
			}
		}
	}
}

func (r *run) execWhile(s *ast.While, env *Env) (completion, value.Value, error) {
	first := true
	for {
		if err := r.checkCancelled(); err != nil {
			return ctlNormal, value.Undefined, err
		}
		if !(s.DoWhile && first) {
			test, err := r.eval(s.Test, env)
			if err != nil {
				return ctlNormal, value.Undefined, err
			}
			if !value.Truthy(test) {
				return ctlNormal, value.Undefined, nil
			}
		}
		first = false
		if stop, ctl, v, err := r.loopBody(s.Body, env); stop {
			return ctl, v, err
		}
	}
}

func (r *run) execForOf(s *ast.ForOf, env *Env) (completion, value.Value, error) {
	iterable, err := r.eval(s.Iterable, env)
	if err != nil {
		return ctlNormal, value.Undefined, err
	}
	var items []value.Value
	switch {
	case s.In:
		items = keysOf(iterable)
	case iterable.Kind() == value.KindArray:
		items = iterable.List().Copy()
	case iterable.Kind() == value.KindString:
		for _, ch := range iterable.Str() {
			items = append(items, value.String(string(ch)))
		}
	case iterable.Kind() == value.KindObject:
		return ctlNormal, value.Undefined, runtimeErr(s.Iterable, "object is not iterable")
	}

	for _, item := range items {
		if err := r.checkCancelled(); err != nil {
			return ctlNormal, value.Undefined, err
		}
		iterEnv := NewEnv(env)
		if s.Kind == "" {
			if err := r.assignVar(env, s.Name, item, s); err != nil {
				return ctlNormal, value.Undefined, err
			}
		} else {
			iterEnv.Declare(s.Name, item, s.Kind == "const")
		}
		if stop, ctl, v, err := r.loopBody(s.Body, iterEnv); stop {
			return ctl, v, err
		}
	}
	return ctlNormal, value.Undefined, nil
}

// keysOf lists the enumerable keys used by for...in.
func keysOf(v value.Value) []value.Value {
	var keys []value.Value
	switch v.Kind() {
	case value.KindObject:
		for _, k := range v.Object().Keys() {
			keys = append(keys, value.String(k))
		}
	case value.KindArray:
		for i := 0; i < v.List().Len(); i++ {
			keys = append(keys, value.String(value.FormatNumber(float64(i))))
		}
	case value.KindString:
		for i := range []rune(v.Str()) {
			keys = append(keys, value.String(value.FormatNumber(float64(i))))
		}
	}
	return keys
}

// declare binds a new name, tracking the first write to the root output
// accumulator.
func (r *run) declare(env *Env, name string, v value.Value, constant bool) {
	r.noteWrite(name, env)
	env.Declare(name, v, constant)
}

// assignVar writes through the nearest binding of name, creating a root
// binding when none exists.
func (r *run) assignVar(env *Env, name string, v value.Value, site ast.Node) error {
	owner := env.Owner(name)
	if owner == nil {
		owner = r.root
	}
	r.noteWrite(name, owner)
	if ok, constant := owner.set(name, v); ok {
		if constant {
			return runtimeErr(site, "assignment to constant variable %q", name)
		}
		return nil
	}
	owner.Define(name, v)
	return nil
}
