package builtins

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/vk/burstmd/internal/value"
)

func newArrayMethods() map[string]method {
	return map[string]method{
		"join":        arrayJoin,
		"toString":    arrayJoin,
		"includes":    arrayIncludes,
		"contains":    arrayIncludes,
		"indexOf":     arrayIndexOf,
		"lastIndexOf": arrayLastIndexOf,
		"at":          arrayAt,
		"slice":       arraySlice,
		"reverse":     arrayReverse,
		"filter":      arrayFilter,
		"map":         arrayMap,
		"flatMap":     arrayFlatMap,
		"find":        arrayFind,
		"findIndex":   arrayFindIndex,
		"some":        arraySome,
		"every":       arrayEvery,
		"forEach":     arrayForEach,
		"push":        arrayPush,
		"pop":         arrayPop,
		"shift":       arrayShift,
		"unshift":     arrayUnshift,
		"splice":      arraySplice,
		"concat":      arrayConcat,
		"flat":        arrayFlat,
		"sort":        arraySort,
		"fill":        arrayFill,
		"reduce":      arrayReduce,
	}
}

func arrayJoin(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	sep := ","
	if a := value.Arg(args, 0); !a.IsUndefined() {
		sep = value.ToString(a)
	}
	return value.String(value.Join(recv.List(), sep)), nil
}

func arrayIncludes(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	needle := value.Arg(args, 0)
	items := recv.List().Values()
	for _, v := range items[relIndex(argInt(args, 1, 0), len(items)):] {
		if value.SameValueZero(v, needle) {
			return value.True, nil
		}
	}
	return value.False, nil
}

func arrayIndexOf(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	needle := value.Arg(args, 0)
	items := recv.List().Values()
	for i := relIndex(argInt(args, 1, 0), len(items)); i < len(items); i++ {
		if value.StrictEquals(items[i], needle) {
			return value.Int(i), nil
		}
	}
	return value.Int(-1), nil
}

func arrayLastIndexOf(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	needle := value.Arg(args, 0)
	items := recv.List().Values()
	for i := len(items) - 1; i >= 0; i-- {
		if value.StrictEquals(items[i], needle) {
			return value.Int(i), nil
		}
	}
	return value.Int(-1), nil
}

func arrayAt(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	l := recv.List()
	i := argInt(args, 0, 0)
	if i < 0 {
		i += l.Len()
	}
	return l.At(i), nil
}

func arraySlice(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	items := recv.List().Values()
	n := len(items)
	start := relIndex(argInt(args, 0, 0), n)
	end := relIndex(argInt(args, 1, n), n)
	if end < start {
		end = start
	}
	out := make([]value.Value, end-start)
	copy(out, items[start:end])
	return value.Array(out...), nil
}

// arrayReverse reverses in place; frozen lists yield a reversed copy.
func arrayReverse(_ context.Context, recv value.Value, _ []value.Value, _ value.Invoker) (value.Value, error) {
	items := recv.List().Copy()
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	if recv.List().Replace(items) {
		return recv, nil
	}
	return value.Array(items...), nil
}

// iterate calls fn(item, index, array) for each element until visit returns
// false.
func iterate(recv value.Value, fn value.Value, invoke value.Invoker, visit func(i int, item, res value.Value) bool) error {
	items := recv.List().Copy()
	for i, item := range items {
		res, err := invoke(fn, item, value.Int(i), recv)
		if err != nil {
			return err
		}
		if !visit(i, item, res) {
			return nil
		}
	}
	return nil
}

// arrayFilter without a callback drops null, undefined and empty-string
// entries.
func arrayFilter(_ context.Context, recv value.Value, args []value.Value, invoke value.Invoker) (value.Value, error) {
	fn := value.Arg(args, 0)
	var out []value.Value
	if !callback(fn) {
		for _, item := range recv.List().Values() {
			if item.IsNullish() || (item.Kind() == value.KindString && item.Str() == "") {
				continue
			}
			out = append(out, item)
		}
		return value.Array(out...), nil
	}
	err := iterate(recv, fn, invoke, func(_ int, item, res value.Value) bool {
		if value.Truthy(res) {
			out = append(out, item)
		}
		return true
	})
	return value.Array(out...), err
}

// arrayMap without a callback returns a copy.
func arrayMap(_ context.Context, recv value.Value, args []value.Value, invoke value.Invoker) (value.Value, error) {
	fn := value.Arg(args, 0)
	if !callback(fn) {
		return value.Array(recv.List().Copy()...), nil
	}
	out := make([]value.Value, 0, recv.List().Len())
	err := iterate(recv, fn, invoke, func(_ int, _, res value.Value) bool {
		out = append(out, res)
		return true
	})
	return value.Array(out...), err
}

func arrayFlatMap(ctx context.Context, recv value.Value, args []value.Value, invoke value.Invoker) (value.Value, error) {
	mapped, err := arrayMap(ctx, recv, args, invoke)
	if err != nil {
		return value.Undefined, err
	}
	return value.Array(flatten(mapped.List().Values(), 1)...), nil
}

func arrayFind(_ context.Context, recv value.Value, args []value.Value, invoke value.Invoker) (value.Value, error) {
	fn := value.Arg(args, 0)
	if !callback(fn) {
		return value.Undefined, nil
	}
	found := value.Undefined
	err := iterate(recv, fn, invoke, func(_ int, item, res value.Value) bool {
		if value.Truthy(res) {
			found = item
			return false
		}
		return true
	})
	return found, err
}

func arrayFindIndex(_ context.Context, recv value.Value, args []value.Value, invoke value.Invoker) (value.Value, error) {
	fn := value.Arg(args, 0)
	if !callback(fn) {
		return value.Int(-1), nil
	}
	found := -1
	err := iterate(recv, fn, invoke, func(i int, _, res value.Value) bool {
		if value.Truthy(res) {
			found = i
			return false
		}
		return true
	})
	return value.Int(found), err
}

// arraySome without a callback reports whether any element is truthy.
func arraySome(_ context.Context, recv value.Value, args []value.Value, invoke value.Invoker) (value.Value, error) {
	fn := value.Arg(args, 0)
	if !callback(fn) {
		for _, item := range recv.List().Values() {
			if value.Truthy(item) {
				return value.True, nil
			}
		}
		return value.False, nil
	}
	found := false
	err := iterate(recv, fn, invoke, func(_ int, _, res value.Value) bool {
		found = value.Truthy(res)
		return !found
	})
	return value.Bool(found), err
}

// arrayEvery without a callback reports whether every element is truthy.
func arrayEvery(_ context.Context, recv value.Value, args []value.Value, invoke value.Invoker) (value.Value, error) {
	fn := value.Arg(args, 0)
	if !callback(fn) {
		for _, item := range recv.List().Values() {
			if !value.Truthy(item) {
				return value.False, nil
			}
		}
		return value.True, nil
	}
	all := true
	err := iterate(recv, fn, invoke, func(_ int, _, res value.Value) bool {
		all = value.Truthy(res)
		return all
	})
	return value.Bool(all), err
}

func arrayForEach(_ context.Context, recv value.Value, args []value.Value, invoke value.Invoker) (value.Value, error) {
	fn := value.Arg(args, 0)
	if !callback(fn) {
		return value.Undefined, nil
	}
	err := iterate(recv, fn, invoke, func(int, value.Value, value.Value) bool { return true })
	return value.Undefined, err
}

// arrayPush appends in place and returns the new length. Frozen lists are
// left alone and a new extended list is returned instead; the same holds for
// pop and shift.
func arrayPush(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	l := recv.List()
	if l.Append(args...) {
		return value.Int(l.Len()), nil
	}
	return value.Array(append(l.Copy(), args...)...), nil
}

func arrayPop(_ context.Context, recv value.Value, _ []value.Value, _ value.Invoker) (value.Value, error) {
	l := recv.List()
	items := l.Copy()
	if l.Frozen() {
		if len(items) == 0 {
			return value.Array(), nil
		}
		return value.Array(items[:len(items)-1]...), nil
	}
	if len(items) == 0 {
		return value.Undefined, nil
	}
	last := items[len(items)-1]
	l.Replace(items[:len(items)-1])
	return last, nil
}

func arrayShift(_ context.Context, recv value.Value, _ []value.Value, _ value.Invoker) (value.Value, error) {
	l := recv.List()
	items := l.Copy()
	if l.Frozen() {
		if len(items) == 0 {
			return value.Array(), nil
		}
		return value.Array(items[1:]...), nil
	}
	if len(items) == 0 {
		return value.Undefined, nil
	}
	l.Replace(items[1:])
	return items[0], nil
}

func arrayUnshift(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	l := recv.List()
	items := append(append([]value.Value{}, args...), l.Values()...)
	if l.Replace(items) {
		return value.Int(len(items)), nil
	}
	return value.Array(items...), nil
}

// arraySplice removes deleteCount elements at start, inserts the remaining
// arguments and returns the removed elements.
func arraySplice(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	l := recv.List()
	items := l.Copy()
	n := len(items)
	start := relIndex(argInt(args, 0, 0), n)
	count := n - start
	if len(args) > 1 {
		count = argInt(args, 1, 0)
	}
	if count < 0 {
		count = 0
	}
	if start+count > n {
		count = n - start
	}
	removed := append([]value.Value{}, items[start:start+count]...)
	var inserts []value.Value
	if len(args) > 2 {
		inserts = args[2:]
	}
	next := make([]value.Value, 0, n-count+len(inserts))
	next = append(next, items[:start]...)
	next = append(next, inserts...)
	next = append(next, items[start+count:]...)
	l.Replace(next)
	return value.Array(removed...), nil
}

func arrayConcat(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	out := recv.List().Copy()
	for _, a := range args {
		if a.Kind() == value.KindArray {
			out = append(out, a.List().Values()...)
			continue
		}
		out = append(out, a)
	}
	return value.Array(out...), nil
}

func arrayFlat(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	depth := 1
	if a := value.Arg(args, 0); !a.IsUndefined() {
		f := value.ToNumber(a)
		switch {
		case math.IsInf(f, 1):
			depth = math.MaxInt32
		default:
			depth = value.FloatToInt(f)
		}
	}
	return value.Array(flatten(recv.List().Values(), depth)...), nil
}

func flatten(items []value.Value, depth int) []value.Value {
	out := make([]value.Value, 0, len(items))
	for _, item := range items {
		if item.Kind() == value.KindArray && depth > 0 {
			out = append(out, flatten(item.List().Values(), depth-1)...)
			continue
		}
		out = append(out, item)
	}
	return out
}

// arraySort sorts in place with a stable sort. Without a comparator elements
// are ordered by their string form, with undefined last.
func arraySort(_ context.Context, recv value.Value, args []value.Value, invoke value.Invoker) (value.Value, error) {
	items := recv.List().Copy()
	fn := value.Arg(args, 0)
	var cbErr error
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.IsUndefined() || b.IsUndefined() {
			return !a.IsUndefined() && b.IsUndefined()
		}
		if !callback(fn) {
			return strings.Compare(value.ToString(a), value.ToString(b)) < 0
		}
		if cbErr != nil {
			return false
		}
		res, err := invoke(fn, a, b)
		if err != nil {
			cbErr = err
			return false
		}
		n := value.ToNumber(res)
		return n < 0
	})
	if cbErr != nil {
		return value.Undefined, cbErr
	}
	if recv.List().Replace(items) {
		return recv, nil
	}
	return value.Array(items...), nil
}

func arrayFill(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	items := recv.List().Copy()
	n := len(items)
	start := relIndex(argInt(args, 1, 0), n)
	end := relIndex(argInt(args, 2, n), n)
	for i := start; i < end; i++ {
		items[i] = value.Arg(args, 0)
	}
	if recv.List().Replace(items) {
		return recv, nil
	}
	return value.Array(items...), nil
}

func arrayReduce(_ context.Context, recv value.Value, args []value.Value, invoke value.Invoker) (value.Value, error) {
	fn := value.Arg(args, 0)
	items := recv.List().Copy()
	if !callback(fn) {
		return value.Undefined, nil
	}
	i := 0
	var acc value.Value
	switch {
	case len(args) > 1:
		acc = args[1]
	case len(items) == 0:
		return value.Undefined, nil
	default:
		acc = items[0]
		i = 1
	}
	for ; i < len(items); i++ {
		res, err := invoke(fn, acc, items[i], value.Int(i), recv)
		if err != nil {
			return value.Undefined, err
		}
		acc = res
	}
	return acc, nil
}
