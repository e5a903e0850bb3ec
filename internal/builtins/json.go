package builtins

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/vk/burstmd/internal/value"
)

func jsonObject() value.Value {
	o := value.NewObject()
	o.Set("stringify", value.FunctionValue(native("stringify", func(args []value.Value) value.Value {
		indent := ""
		switch sp := value.Arg(args, 2); sp.Kind() {
		case value.KindNumber:
			indent = strings.Repeat(" ", clamp(value.ToInteger(sp), 0, 10))
		case value.KindString:
			indent = sp.Str()
		}
		s, ok := Stringify(value.Arg(args, 0), indent)
		if !ok {
			return value.Undefined
		}
		return value.String(s)
	})))
	o.Set("parse", value.FunctionValue(value.NewNative("parse", func(_ context.Context, args []value.Value, _ value.Invoker) (value.Value, error) {
		return ParseJSON(value.ToString(value.Arg(args, 0)))
	})))
	return value.ObjectValue(o.Freeze())
}

// Stringify encodes v as JSON, keeping object keys in insertion order. ok is
// false for values JSON cannot represent at the top level (undefined and
// functions).
func Stringify(v value.Value, indent string) (string, bool) {
	var sb strings.Builder
	ok := writeJSON(&sb, v, indent, "", make(map[any]bool))
	return sb.String(), ok
}

func writeJSON(sb *strings.Builder, v value.Value, indent, prefix string, seen map[any]bool) bool {
	switch v.Kind() {
	case value.KindUndefined, value.KindFunction:
		return false
	case value.KindNull:
		sb.WriteString("null")
	case value.KindBool:
		sb.WriteString(value.ToString(v))
	case value.KindString:
		quote(sb, v.Str())
	case value.KindNumber:
		if math.IsNaN(v.Num()) || math.IsInf(v.Num(), 0) {
			sb.WriteString("null")
		} else {
			sb.WriteString(value.FormatNumber(v.Num()))
		}
	case value.KindDate:
		quote(sb, v.Time().UTC().Format("2006-01-02T15:04:05.000Z"))
	case value.KindArray:
		l := v.List()
		if seen[l] {
			sb.WriteString("null")
			return true
		}
		seen[l] = true
		defer delete(seen, l)
		sb.WriteByte('[')
		inner := prefix + indent
		for i, item := range l.Values() {
			if i > 0 {
				sb.WriteByte(',')
			}
			newline(sb, indent, inner)
			if !writeJSON(sb, item, indent, inner, seen) {
				sb.WriteString("null")
			}
		}
		if l.Len() > 0 {
			newline(sb, indent, prefix)
		}
		sb.WriteByte(']')
	case value.KindObject:
		o := v.Object()
		if seen[o] {
			sb.WriteString("null")
			return true
		}
		seen[o] = true
		defer delete(seen, o)
		sb.WriteByte('{')
		inner := prefix + indent
		first := true
		for _, k := range o.Keys() {
			fv, _ := o.Get(k)
			if fv.IsUndefined() || fv.Kind() == value.KindFunction {
				continue
			}
			if !first {
				sb.WriteByte(',')
			}
			first = false
			newline(sb, indent, inner)
			quote(sb, k)
			sb.WriteByte(':')
			if indent != "" {
				sb.WriteByte(' ')
			}
			writeJSON(sb, fv, indent, inner, seen)
		}
		if !first {
			newline(sb, indent, prefix)
		}
		sb.WriteByte('}')
	}
	return true
}

// quote writes s as a JSON string without HTML escaping.
func quote(sb *strings.Builder, s string) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	sb.Write(bytes.TrimRight(buf.Bytes(), "\n"))
}

func newline(sb *strings.Builder, indent, prefix string) {
	if indent == "" {
		return
	}
	sb.WriteByte('\n')
	sb.WriteString(prefix)
}

// ParseJSON decodes a JSON document into script values, preserving the key
// order of objects.
func ParseJSON(s string) (value.Value, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	v, err := decodeJSON(dec)
	if err != nil {
		return value.Undefined, fmt.Errorf("JSON.parse: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return value.Undefined, errors.New("JSON.parse: unexpected data after top-level value")
	}
	return v, nil
}

func decodeJSON(dec *json.Decoder) (value.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return value.Undefined, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '[':
			var items []value.Value
			for dec.More() {
				item, err := decodeJSON(dec)
				if err != nil {
					return value.Undefined, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return value.Undefined, err
			}
			return value.Array(items...), nil
		case '{':
			obj := value.NewObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return value.Undefined, err
				}
				key, _ := kt.(string)
				fv, err := decodeJSON(dec)
				if err != nil {
					return value.Undefined, err
				}
				obj.Set(key, fv)
			}
			if _, err := dec.Token(); err != nil {
				return value.Undefined, err
			}
			return value.ObjectValue(obj), nil
		}
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return value.Undefined, err
		}
		return value.Number(f), nil
	case string:
		return value.String(t), nil
	case bool:
		return value.Bool(t), nil
	case nil:
		return value.Null, nil
	}
	return value.Undefined, fmt.Errorf("unexpected token %v", tok)
}
