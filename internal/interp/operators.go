package interp

import (
	"math"

	"github.com/vk/burstmd/internal/script/ast"
	"github.com/vk/burstmd/internal/value"
)

// binaryOp applies a non-short-circuit binary operator. Operand combinations
// without a meaningful result produce NaN or false rather than an error.
func binaryOp(op string, a, b value.Value) value.Value {
	switch op {
	case "+":
		pa, pb := primitive(a), primitive(b)
		if pa.Kind() == value.KindString || pb.Kind() == value.KindString {
			return value.String(value.ToString(pa) + value.ToString(pb))
		}
		return value.Number(value.ToNumber(pa) + value.ToNumber(pb))
	case "-":
		return value.Number(value.ToNumber(a) - value.ToNumber(b))
	case "*":
		return value.Number(value.ToNumber(a) * value.ToNumber(b))
	case "/":
		return value.Number(value.ToNumber(a) / value.ToNumber(b))
	case "%":
		x, y := value.ToNumber(a), value.ToNumber(b)
		if y == 0 || math.IsInf(x, 0) {
			return value.Number(math.NaN())
		}
		return value.Number(math.Mod(x, y))
	case "**":
		return value.Number(math.Pow(value.ToNumber(a), value.ToNumber(b)))
	case "==":
		return value.Bool(value.LooseEquals(a, b))
	case "!=":
		return value.Bool(!value.LooseEquals(a, b))
	case "===":
		return value.Bool(value.StrictEquals(a, b))
	case "!==":
		return value.Bool(!value.StrictEquals(a, b))
	case "<", ">", "<=", ">=":
		c, ok := value.Compare(a, b)
		if !ok {
			return value.False
		}
		switch op {
		case "<":
			return value.Bool(c < 0)
		case ">":
			return value.Bool(c > 0)
		case "<=":
			return value.Bool(c <= 0)
		}
		return value.Bool(c >= 0)
	case "&":
		return value.Number(float64(toInt32(value.ToNumber(a)) & toInt32(value.ToNumber(b))))
	case "|":
		return value.Number(float64(toInt32(value.ToNumber(a)) | toInt32(value.ToNumber(b))))
	case "^":
		return value.Number(float64(toInt32(value.ToNumber(a)) ^ toInt32(value.ToNumber(b))))
	case "<<":
		return value.Number(float64(toInt32(value.ToNumber(a)) << (uint32(toInt32(value.ToNumber(b))) & 31)))
	case ">>":
		return value.Number(float64(toInt32(value.ToNumber(a)) >> (uint32(toInt32(value.ToNumber(b))) & 31)))
	case ">>>":
		return value.Number(float64(uint32(toInt32(value.ToNumber(a))) >> (uint32(toInt32(value.ToNumber(b))) & 31)))
	case "in":
		return value.Bool(hasKey(b, a))
	}
	return value.Undefined
}

// primitive converts arrays, objects and dates to their string form for `+`.
func primitive(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindArray, value.KindObject, value.KindFunction, value.KindDate:
		return value.String(value.ToString(v))
	}
	return v
}

func hasKey(container, key value.Value) bool {
	switch container.Kind() {
	case value.KindObject:
		return container.Object().Has(value.ToString(key))
	case value.KindArray:
		if key.Kind() == value.KindString && key.Str() == "length" {
			return true
		}
		i, ok := arrayIndex(value.ToString(key))
		return ok && i < container.List().Len()
	}
	return false
}

// evalAssignment evaluates the right-hand side of a plain assignment before
// resolving the target. Compound forms read the current value first and the
// logical ones short-circuit.
func (r *run) evalAssignment(e *ast.Assignment, env *Env) (value.Value, error) {
	if e.Operator == "=" {
		v, err := r.eval(e.Value, env)
		if err != nil {
			return value.Undefined, err
		}
		if cl, ok := v.Function().(*Closure); ok && cl.name == "" {
			if tv, ok := e.Target.(*ast.Variable); ok {
				cl.name = tv.Name
			}
		}
		ref, err := r.resolveRef(e.Target, env)
		if err != nil {
			return value.Undefined, err
		}
		return v, ref.set(v)
	}

	ref, err := r.resolveRef(e.Target, env)
	if err != nil {
		return value.Undefined, err
	}
	cur := ref.get()
	switch e.Operator {
	case "&&=", "||=", "??=":
		skip := (e.Operator == "&&=" && !value.Truthy(cur)) ||
			(e.Operator == "||=" && value.Truthy(cur)) ||
			(e.Operator == "??=" && !cur.IsNullish())
		if skip {
			return cur, nil
		}
		v, err := r.eval(e.Value, env)
		if err != nil {
			return value.Undefined, err
		}
		return v, ref.set(v)
	}
	rhs, err := r.eval(e.Value, env)
	if err != nil {
		return value.Undefined, err
	}
	v := binaryOp(e.Operator[:len(e.Operator)-1], cur, rhs)
	return v, ref.set(v)
}

func (r *run) evalUpdate(e *ast.Update, env *Env) (value.Value, error) {
	ref, err := r.resolveRef(e.Target, env)
	if err != nil {
		return value.Undefined, err
	}
	old := value.ToNumber(ref.get())
	next := old + 1
	if e.Operator == "--" {
		next = old - 1
	}
	if err := ref.set(value.Number(next)); err != nil {
		return value.Undefined, err
	}
	if e.Prefix {
		return value.Number(next), nil
	}
	return value.Number(old), nil
}

// reference is a resolved assignment target.
type reference struct {
	get func() value.Value
	set func(value.Value) error
}

func (r *run) resolveRef(target ast.Expression, env *Env) (reference, error) {
	switch t := target.(type) {
	case *ast.Variable:
		return reference{
			get: func() value.Value { return env.Get(t.Name) },
			set: func(v value.Value) error { return r.assignVar(env, t.Name, v, t) },
		}, nil

	case *ast.PropertyAccess:
		obj, err := r.eval(t.Object, env)
		if err != nil {
			return reference{}, err
		}
		return memberRef(t, obj, value.String(t.Name)), nil

	case *ast.IndexAccess:
		obj, err := r.eval(t.Object, env)
		if err != nil {
			return reference{}, err
		}
		idx, err := r.eval(t.Index, env)
		if err != nil {
			return reference{}, err
		}
		return memberRef(t, obj, idx), nil
	}
	return reference{}, runtimeErr(target, "invalid assignment target")
}

// memberRef addresses obj[key]. Writes to frozen collections and to
// primitives are ignored; growing an array past value.MaxListLen fails.
func memberRef(site ast.Node, obj, key value.Value) reference {
	ref := reference{
		get: func() value.Value { return getIndex(obj, key) },
		set: func(value.Value) error { return nil },
	}
	switch obj.Kind() {
	case value.KindObject:
		ref.set = func(v value.Value) error {
			obj.Object().Set(value.ToString(key), v)
			return nil
		}
	case value.KindArray:
		l := obj.List()
		ref.set = func(v value.Value) error {
			if l.Frozen() {
				return nil
			}
			ks := value.ToString(key)
			if ks == "length" {
				n := value.ToInteger(v)
				if n < 0 || n > value.MaxListLen {
					return runtimeErr(site, "invalid array length %s", value.ToString(v))
				}
				l.Resize(n)
				return nil
			}
			if i, ok := arrayIndex(ks); ok && !l.Set(i, v) {
				return runtimeErr(site, "array index %s exceeds the maximum length of %d", ks, value.MaxListLen)
			}
			return nil
		}
	}
	return ref
}
