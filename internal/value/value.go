// Package value defines the dynamically typed values that flow through the
// template scripting engine, together with the coercion rules shared by the
// evaluator and the built-in methods.
//
// A Value is a small closed sum type. The zero Value is undefined.
package value

import (
	"context"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindFunction
	KindDate
)

var kindNames = [...]string{
	KindUndefined: "undefined",
	KindNull:      "null",
	KindBool:      "boolean",
	KindNumber:    "number",
	KindString:    "string",
	KindArray:     "array",
	KindObject:    "object",
	KindFunction:  "function",
	KindDate:      "date",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

// Value is one dynamically typed script value.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list *List
	obj  *Object
	fn   Function
	t    time.Time
}

var (
	// Undefined is the value of unresolved names and missing arguments.
	Undefined = Value{}
	// Null is the explicit absence of a value.
	Null  = Value{kind: KindNull}
	True  = Value{kind: KindBool, b: true}
	False = Value{kind: KindBool}
)

// Bool returns a boolean value.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Int returns a numeric value from an int.
func Int(i int) Value { return Value{kind: KindNumber, n: float64(i)} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns a mutable array value holding items.
func Array(items ...Value) Value {
	return Value{kind: KindArray, list: NewList(items)}
}

// FrozenArray returns an array value that rejects in-place mutation.
func FrozenArray(items ...Value) Value {
	l := NewList(items)
	l.frozen = true
	return Value{kind: KindArray, list: l}
}

// ListValue wraps an existing list without copying it.
func ListValue(l *List) Value {
	if l == nil {
		return Null
	}
	return Value{kind: KindArray, list: l}
}

// ObjectValue wraps an existing object without copying it.
func ObjectValue(o *Object) Value {
	if o == nil {
		return Null
	}
	return Value{kind: KindObject, obj: o}
}

// FunctionValue wraps a callable.
func FunctionValue(f Function) Value {
	if f == nil {
		return Null
	}
	return Value{kind: KindFunction, fn: f}
}

// Date returns a date value.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNullish reports whether v is null or undefined.
func (v Value) IsNullish() bool { return v.kind == KindUndefined || v.kind == KindNull }

// Boolean returns the raw boolean payload. It is false for non-boolean values.
func (v Value) Boolean() bool { return v.b }

// Num returns the raw numeric payload. It is 0 for non-number values.
func (v Value) Num() float64 { return v.n }

// Str returns the raw string payload. It is empty for non-string values.
func (v Value) Str() string { return v.s }

// List returns the array payload or nil.
func (v Value) List() *List { return v.list }

// Object returns the object payload or nil.
func (v Value) Object() *Object { return v.obj }

// Function returns the callable payload or nil.
func (v Value) Function() Function { return v.fn }

// Time returns the date payload.
func (v Value) Time() time.Time { return v.t }

// String implements fmt.Stringer using script string conversion.
func (v Value) String() string { return ToString(v) }

// Function is implemented by every callable value. The evaluator knows how to
// invoke script closures; everything else must be a *Native.
type Function interface {
	Name() string
}

// Invoker calls a callable value with positional arguments. Natives and
// built-in methods receive one so they can run script callbacks.
type Invoker func(fn Value, args ...Value) (Value, error)

// NativeFunc is the Go signature of host-provided functions.
type NativeFunc func(ctx context.Context, args []Value, invoke Invoker) (Value, error)

// Native is a Go function exposed to scripts. It may carry static members,
// such as Array.isArray or Date.now.
type Native struct {
	name   string
	fn     NativeFunc
	static *Object
}

// NewNative wraps fn as a callable named name.
func NewNative(name string, fn NativeFunc) *Native {
	return &Native{name: name, fn: fn}
}

// Name returns the function's display name.
func (n *Native) Name() string { return n.name }

// Call runs the native function.
func (n *Native) Call(ctx context.Context, args []Value, invoke Invoker) (Value, error) {
	return n.fn(ctx, args, invoke)
}

// WithStatic attaches a static member and returns n.
func (n *Native) WithStatic(name string, v Value) *Native {
	if n.static == nil {
		n.static = NewObject()
	}
	n.static.Set(name, v)
	return n
}

// Static returns a static member.
func (n *Native) Static(name string) (Value, bool) {
	if n.static == nil {
		return Undefined, false
	}
	return n.static.Get(name)
}

// Arg returns args[i] or undefined when the argument is missing.
func Arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}
