package interp

import (
	"math"
	"strings"

	"github.com/vk/burstmd/internal/builtins"
	"github.com/vk/burstmd/internal/script/ast"
	"github.com/vk/burstmd/internal/value"
)

// eval is total over the expression variants.
func (r *run) eval(expr ast.Expression, env *Env) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return value.Number(e.Value), nil
	case *ast.StringLiteral:
		return value.String(e.Value), nil
	case *ast.BooleanLiteral:
		return value.Bool(e.Value), nil
	case *ast.NullLiteral:
		return value.Null, nil
	case *ast.UndefinedLiteral:
		return value.Undefined, nil

	case *ast.ArrayLiteral:
		items, err := r.evalList(e.Elements, env)
		if err != nil {
			return value.Undefined, err
		}
		return value.Array(items...), nil

	case *ast.ObjectLiteral:
		return r.evalObject(e, env)

	case *ast.TemplateLiteral:
		var sb strings.Builder
		for i, q := range e.Quasis {
			sb.WriteString(q)
			if i < len(e.Exprs) {
				v, err := r.eval(e.Exprs[i], env)
				if err != nil {
					return value.Undefined, err
				}
				sb.WriteString(value.ToString(v))
			}
		}
		return value.String(sb.String()), nil

	case *ast.Variable:
		return env.Get(e.Name), nil

	case *ast.PropertyAccess:
		obj, err := r.eval(e.Object, env)
		if err != nil {
			return value.Undefined, err
		}
		return getProperty(obj, e.Name), nil

	case *ast.IndexAccess:
		obj, err := r.eval(e.Object, env)
		if err != nil {
			return value.Undefined, err
		}
		if e.Optional && obj.IsNullish() {
			return value.Undefined, nil
		}
		idx, err := r.eval(e.Index, env)
		if err != nil {
			return value.Undefined, err
		}
		return getIndex(obj, idx), nil

	case *ast.Binary:
		left, err := r.eval(e.Left, env)
		if err != nil {
			return value.Undefined, err
		}
		right, err := r.eval(e.Right, env)
		if err != nil {
			return value.Undefined, err
		}
		return binaryOp(e.Operator, left, right), nil

	case *ast.Unary:
		return r.evalUnary(e, env)

	case *ast.LogicalAnd:
		left, err := r.eval(e.Left, env)
		if err != nil || !value.Truthy(left) {
			return left, err
		}
		return r.eval(e.Right, env)

	case *ast.LogicalOr:
		left, err := r.eval(e.Left, env)
		if err != nil || value.Truthy(left) {
			return left, err
		}
		return r.eval(e.Right, env)

	case *ast.NullishCoalescing:
		left, err := r.eval(e.Left, env)
		if err != nil || !left.IsNullish() {
			return left, err
		}
		return r.eval(e.Right, env)

	case *ast.Conditional:
		test, err := r.eval(e.Test, env)
		if err != nil {
			return value.Undefined, err
		}
		if value.Truthy(test) {
			return r.eval(e.Consequent, env)
		}
		return r.eval(e.Alternate, env)

	case *ast.Call:
		return r.evalCall(e, env)

	case *ast.MethodCall:
		return r.evalMethodCall(e, env)

	case *ast.New:
		callee, err := r.eval(e.Callee, env)
		if err != nil {
			return value.Undefined, err
		}
		args, err := r.evalList(e.Arguments, env)
		if err != nil {
			return value.Undefined, err
		}
		return r.call(e, callee, args)

	case *ast.ArrowFunction:
		return value.FunctionValue(newArrow(e, env)), nil

	case *ast.FunctionExpression:
		return value.FunctionValue(newFunction(e.Name, e.Parameters, e.Body, env)), nil

	case *ast.Assignment:
		return r.evalAssignment(e, env)

	case *ast.Update:
		return r.evalUpdate(e, env)

	case *ast.Typeof:
		v, err := r.eval(e.Operand, env)
		if err != nil {
			return value.Undefined, err
		}
		return value.String(value.TypeOf(v)), nil

	case *ast.Instanceof:
		left, err := r.eval(e.Left, env)
		if err != nil {
			return value.Undefined, err
		}
		right, err := r.eval(e.Right, env)
		if err != nil {
			return value.Undefined, err
		}
		return value.Bool(instanceOf(left, right)), nil

	case *ast.Await:
		return r.eval(e.Operand, env)

	case *ast.Spread:
		return r.eval(e.Operand, env)

	case *ast.Sequence:
		last := value.Undefined
		for _, sub := range e.Expressions {
			v, err := r.eval(sub, env)
			if err != nil {
				return value.Undefined, err
			}
			last = v
		}
		return last, nil
	}
	return value.Undefined, runtimeErr(expr, "unsupported expression %T", expr)
}

// evalList evaluates elements left to right, expanding spreads.
func (r *run) evalList(exprs []ast.Expression, env *Env) ([]value.Value, error) {
	out := make([]value.Value, 0, len(exprs))
	for _, x := range exprs {
		v, err := r.eval(x, env)
		if err != nil {
			return nil, err
		}
		if _, ok := x.(*ast.Spread); ok {
			switch v.Kind() {
			case value.KindArray:
				out = append(out, v.List().Values()...)
			case value.KindString:
				for _, ch := range v.Str() {
					out = append(out, value.String(string(ch)))
				}
			}
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *run) evalObject(e *ast.ObjectLiteral, env *Env) (value.Value, error) {
	obj := value.NewObject()
	for _, p := range e.Properties {
		if sp, ok := p.Value.(*ast.Spread); ok {
			v, err := r.eval(sp.Operand, env)
			if err != nil {
				return value.Undefined, err
			}
			switch v.Kind() {
			case value.KindObject:
				src := v.Object()
				for _, k := range src.Keys() {
					fv, _ := src.Get(k)
					obj.Set(k, fv)
				}
			case value.KindArray:
				for i, item := range v.List().Values() {
					obj.Set(value.FormatNumber(float64(i)), item)
				}
			}
			continue
		}
		key := p.Key
		if p.KeyExpr != nil {
			k, err := r.eval(p.KeyExpr, env)
			if err != nil {
				return value.Undefined, err
			}
			key = value.ToString(k)
		}
		v, err := r.eval(p.Value, env)
		if err != nil {
			return value.Undefined, err
		}
		obj.Set(key, v)
	}
	return value.ObjectValue(obj), nil
}

func (r *run) evalUnary(e *ast.Unary, env *Env) (value.Value, error) {
	if e.Operator == "delete" {
		return r.evalDelete(e, env)
	}
	v, err := r.eval(e.Operand, env)
	if err != nil {
		return value.Undefined, err
	}
	switch e.Operator {
	case "!":
		return value.Bool(!value.Truthy(v)), nil
	case "-":
		return value.Number(-value.ToNumber(v)), nil
	case "+":
		return value.Number(value.ToNumber(v)), nil
	case "~":
		return value.Number(float64(^toInt32(value.ToNumber(v)))), nil
	case "void":
		return value.Undefined, nil
	}
	return value.Undefined, nil
}

func (r *run) evalDelete(e *ast.Unary, env *Env) (value.Value, error) {
	var obj value.Value
	var key string
	switch t := e.Operand.(type) {
	case *ast.PropertyAccess:
		o, err := r.eval(t.Object, env)
		if err != nil {
			return value.Undefined, err
		}
		obj, key = o, t.Name
	case *ast.IndexAccess:
		o, err := r.eval(t.Object, env)
		if err != nil {
			return value.Undefined, err
		}
		k, err := r.eval(t.Index, env)
		if err != nil {
			return value.Undefined, err
		}
		obj, key = o, value.ToString(k)
	default:
		return value.True, nil
	}
	if obj.Kind() == value.KindObject {
		return value.Bool(obj.Object().Delete(key) || !obj.Object().Has(key)), nil
	}
	return value.False, nil
}

func (r *run) evalCall(e *ast.Call, env *Env) (value.Value, error) {
	callee, err := r.eval(e.Callee, env)
	if err != nil {
		return value.Undefined, err
	}
	if e.Optional && callee.IsNullish() {
		return value.Undefined, nil
	}
	args, err := r.evalList(e.Arguments, env)
	if err != nil {
		return value.Undefined, err
	}
	return r.call(e, callee, args)
}

// evalMethodCall resolves recv.name(...): object fields first, then the
// built-in methods of the receiver's kind. A miss yields null.
func (r *run) evalMethodCall(e *ast.MethodCall, env *Env) (value.Value, error) {
	recv, err := r.eval(e.Receiver, env)
	if err != nil {
		return value.Undefined, err
	}
	if recv.IsNullish() {
		if e.Optional {
			return value.Undefined, nil
		}
		return value.Null, nil
	}
	args, err := r.evalList(e.Arguments, env)
	if err != nil {
		return value.Undefined, err
	}

	if recv.Kind() == value.KindObject {
		if field, ok := recv.Object().Get(e.Method); ok {
			if field.Kind() != value.KindFunction {
				return value.Undefined, runtimeErr(e, "%s is not a function", describe(e))
			}
			return r.call(e, field, args)
		}
	}

	res, ok, err := builtins.CallMethod(r.ctx, recv, e.Method, args, r.invoker(e))
	if err != nil {
		return value.Undefined, wrapCallErr(e, err)
	}
	if !ok {
		return value.Null, nil
	}
	return res, nil
}

func getProperty(obj value.Value, name string) value.Value {
	if obj.Kind() == value.KindObject {
		v, _ := obj.Object().Get(name)
		return v
	}
	v, _ := builtins.Property(obj, name)
	return v
}

func getIndex(obj value.Value, idx value.Value) value.Value {
	switch obj.Kind() {
	case value.KindArray:
		if idx.Kind() == value.KindNumber {
			f := idx.Num()
			if !value.IsInteger(f) {
				return value.Undefined
			}
			return obj.List().At(int(f))
		}
		key := value.ToString(idx)
		if i, ok := arrayIndex(key); ok {
			return obj.List().At(i)
		}
		return getProperty(obj, key)
	case value.KindString:
		if idx.Kind() == value.KindNumber {
			return builtins.CharAt(obj.Str(), idx.Num())
		}
		return getProperty(obj, value.ToString(idx))
	}
	return getProperty(obj, value.ToString(idx))
}

// arrayIndex parses a canonical non-negative integer key.
func arrayIndex(key string) (int, bool) {
	f := value.ToNumber(value.String(key))
	if key == "" || !value.IsInteger(f) || f < 0 || value.FormatNumber(f) != key {
		return 0, false
	}
	return int(f), true
}

func instanceOf(v, ctor value.Value) bool {
	fn := ctor.Function()
	if fn == nil {
		return false
	}
	switch fn.Name() {
	case "Array":
		return v.Kind() == value.KindArray
	case "Date":
		return v.Kind() == value.KindDate
	case "Object":
		switch v.Kind() {
		case value.KindObject, value.KindArray, value.KindDate, value.KindFunction:
			return true
		}
	case "Function":
		return v.Kind() == value.KindFunction
	}
	return false
}

func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(math.Mod(math.Trunc(f), 1<<32))))
}
