package value

import (
	"fmt"
	"reflect"
	"sort"
	"time"
)

// FromGo converts plain Go data (as produced by encoding/json, yaml.v3 or the
// HCL config loader) into a Value. When frozen is true every array and object
// in the result rejects in-place mutation.
func FromGo(x any, frozen bool) Value {
	switch t := x.(type) {
	case nil:
		return Null
	case Value:
		return t
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case int:
		return Int(t)
	case int64:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case time.Time:
		return Date(t)
	case []string:
		items := make([]Value, len(t))
		for i, s := range t {
			items[i] = String(s)
		}
		return newArray(items, frozen)
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromGo(e, frozen)
		}
		return newArray(items, frozen)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			obj.Set(k, FromGo(t[k], frozen))
		}
		if frozen {
			obj.Freeze()
		}
		return ObjectValue(obj)
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, v := range t {
			m[k] = v
		}
		return FromGo(m, frozen)
	}

	// yaml.v3 may decode nested maps with interface keys.
	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Map:
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
		}
		return FromGo(m, frozen)
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return FromGo(items, frozen)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return Number(float64(rv.Convert(reflect.TypeOf(float64(0))).Float()))
	}
	return String(fmt.Sprint(x))
}

func newArray(items []Value, frozen bool) Value {
	if frozen {
		return FrozenArray(items...)
	}
	return Array(items...)
}

// ToGo converts v into plain Go data suitable for encoding/json. Functions map
// to nil and dates to RFC 3339 strings.
func ToGo(v Value) any {
	return toGo(v, make(map[any]bool))
}

func toGo(v Value, seen map[any]bool) any {
	switch v.kind {
	case KindUndefined, KindNull, KindFunction:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindDate:
		return v.t.UTC().Format(time.RFC3339Nano)
	case KindArray:
		if seen[v.list] {
			return nil
		}
		seen[v.list] = true
		defer delete(seen, v.list)
		out := make([]any, v.list.Len())
		for i, item := range v.list.items {
			out[i] = toGo(item, seen)
		}
		return out
	case KindObject:
		if seen[v.obj] {
			return nil
		}
		seen[v.obj] = true
		defer delete(seen, v.obj)
		out := make(map[string]any, v.obj.Len())
		for _, k := range v.obj.keys {
			out[k] = toGo(v.obj.fields[k], seen)
		}
		return out
	}
	return nil
}
