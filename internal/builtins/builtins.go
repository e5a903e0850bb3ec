// Package builtins implements the instance methods of script arrays, strings,
// numbers, dates and objects, and the global functions available to every
// template (Math, JSON, Object, Array, Date, ...).
//
// Method dispatch never fails on an unknown name: CallMethod reports ok=false
// and the evaluator substitutes null.
package builtins

import (
	"context"

	"github.com/vk/burstmd/internal/value"
)

// method is the signature shared by every built-in instance method.
type method func(ctx context.Context, recv value.Value, args []value.Value, invoke value.Invoker) (value.Value, error)

var (
	arrayMethods  map[string]method
	stringMethods map[string]method
	numberMethods map[string]method
	dateMethods   map[string]method
)

func init() {
	arrayMethods = newArrayMethods()
	stringMethods = newStringMethods()
	numberMethods = newNumberMethods()
	dateMethods = newDateMethods()
}

// CallMethod invokes the built-in method name on recv. ok is false when the
// receiver's kind has no such method.
func CallMethod(ctx context.Context, recv value.Value, name string, args []value.Value, invoke value.Invoker) (res value.Value, ok bool, err error) {
	var table map[string]method
	switch recv.Kind() {
	case value.KindArray:
		table = arrayMethods
	case value.KindString:
		table = stringMethods
	case value.KindNumber:
		table = numberMethods
	case value.KindDate:
		table = dateMethods
	case value.KindBool:
		switch name {
		case "toString":
			return value.String(value.ToString(recv)), true, nil
		case "valueOf":
			return recv, true, nil
		}
		return value.Null, false, nil
	case value.KindObject:
		return objectMethod(recv, name, args)
	case value.KindFunction:
		return functionMethod(ctx, recv, name, args, invoke)
	default:
		return value.Null, false, nil
	}
	m, found := table[name]
	if !found {
		return value.Null, false, nil
	}
	res, err = m(ctx, recv, args, invoke)
	return res, true, err
}

// Property returns a built-in property such as length. ok is false when the
// receiver has no property of that name.
func Property(recv value.Value, name string) (value.Value, bool) {
	switch recv.Kind() {
	case value.KindArray:
		if name == "length" {
			return value.Int(recv.List().Len()), true
		}
	case value.KindString:
		if name == "length" {
			return value.Int(runeLen(recv.Str())), true
		}
	case value.KindObject:
		return recv.Object().Get(name)
	case value.KindFunction:
		if n, ok := recv.Function().(*value.Native); ok {
			if v, ok := n.Static(name); ok {
				return v, true
			}
		}
		if name == "name" {
			return value.String(recv.Function().Name()), true
		}
	}
	return value.Undefined, false
}

func objectMethod(recv value.Value, name string, args []value.Value) (value.Value, bool, error) {
	obj := recv.Object()
	switch name {
	case "hasOwnProperty":
		return value.Bool(obj.Has(value.ToString(value.Arg(args, 0)))), true, nil
	case "toString":
		return value.String("[object Object]"), true, nil
	case "valueOf":
		return recv, true, nil
	}
	return value.Null, false, nil
}

func functionMethod(ctx context.Context, recv value.Value, name string, args []value.Value, invoke value.Invoker) (value.Value, bool, error) {
	if n, ok := recv.Function().(*value.Native); ok {
		if static, ok := n.Static(name); ok {
			if static.Kind() != value.KindFunction {
				return value.Null, false, nil
			}
			res, err := invoke(static, args...)
			return res, true, err
		}
	}
	switch name {
	case "call":
		var rest []value.Value
		if len(args) > 1 {
			rest = args[1:]
		}
		res, err := invoke(recv, rest...)
		return res, true, err
	case "apply":
		var rest []value.Value
		if a := value.Arg(args, 1); a.Kind() == value.KindArray {
			rest = a.List().Copy()
		}
		res, err := invoke(recv, rest...)
		return res, true, err
	case "toString":
		return value.String(value.ToString(recv)), true, nil
	}
	return value.Null, false, nil
}

// callback reports whether v can be invoked.
func callback(v value.Value) bool { return v.Kind() == value.KindFunction }

func argInt(args []value.Value, i int, def int) int {
	a := value.Arg(args, i)
	if a.IsUndefined() {
		return def
	}
	return value.ToInteger(a)
}

// relIndex resolves a possibly negative index against length n and clamps
// the result to [0, n].
func relIndex(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
	}
	if i > n {
		return n
	}
	return i
}
