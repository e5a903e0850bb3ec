package builtins

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vk/burstmd/internal/value"
)

// Strings are indexed by code point.

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// CharAt returns the one-character string at code point index idx, or
// undefined when idx is out of range or not an integer.
func CharAt(s string, idx float64) value.Value {
	if !value.IsInteger(idx) || idx < 0 {
		return value.Undefined
	}
	rs := []rune(s)
	if int(idx) >= len(rs) {
		return value.Undefined
	}
	return value.String(string(rs[int(idx)]))
}

func newStringMethods() map[string]method {
	return map[string]method{
		"split":             strSplit,
		"trim":              strUnary(func(s string) string { return strings.TrimFunc(s, isSpace) }),
		"trimStart":         strUnary(func(s string) string { return strings.TrimLeftFunc(s, isSpace) }),
		"trimEnd":           strUnary(func(s string) string { return strings.TrimRightFunc(s, isSpace) }),
		"trimLeft":          strUnary(func(s string) string { return strings.TrimLeftFunc(s, isSpace) }),
		"trimRight":         strUnary(func(s string) string { return strings.TrimRightFunc(s, isSpace) }),
		"toUpperCase":       strUnary(strings.ToUpper),
		"toLowerCase":       strUnary(strings.ToLower),
		"toLocaleUpperCase": strUnary(strings.ToUpper),
		"toLocaleLowerCase": strUnary(strings.ToLower),
		"toString":          strUnary(func(s string) string { return s }),
		"valueOf":           strUnary(func(s string) string { return s }),
		"substring":         strSubstring,
		"substr":            strSubstr,
		"slice":             strSlice,
		"charAt":            strCharAt,
		"charCodeAt":        strCharCodeAt,
		"at":                strAt,
		"indexOf":           strIndexOf,
		"lastIndexOf":       strLastIndexOf,
		"includes":          strPredicate(strings.Contains),
		"startsWith":        strPredicate(strings.HasPrefix),
		"endsWith":          strPredicate(strings.HasSuffix),
		"replace":           strReplace(1),
		"replaceAll":        strReplace(-1),
		"padStart":          strPad(true),
		"padEnd":            strPad(false),
		"repeat":            strRepeat,
		"concat":            strConcat,
		"localeCompare":     strLocaleCompare,
	}
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

func strUnary(fn func(string) string) method {
	return func(_ context.Context, recv value.Value, _ []value.Value, _ value.Invoker) (value.Value, error) {
		return value.String(fn(recv.Str())), nil
	}
}

func strPredicate(fn func(s, sub string) bool) method {
	return func(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
		return value.Bool(fn(recv.Str(), value.ToString(value.Arg(args, 0)))), nil
	}
}

// strSplit splits on a literal separator. An empty separator yields one
// entry per character; a missing separator yields the whole string.
func strSplit(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	s := recv.Str()
	sepArg := value.Arg(args, 0)
	var parts []string
	switch {
	case sepArg.IsUndefined():
		parts = []string{s}
	case value.ToString(sepArg) == "":
		for _, r := range s {
			parts = append(parts, string(r))
		}
	default:
		parts = strings.Split(s, value.ToString(sepArg))
	}
	if lim := value.Arg(args, 1); !lim.IsUndefined() {
		n := value.ToInteger(lim)
		if n >= 0 && n < len(parts) {
			parts = parts[:n]
		}
	}
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.String(p)
	}
	return value.Array(out...), nil
}

func clamp(i, lo, hi int) int {
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}

// strSubstring clamps both indices to [0, len] and swaps them when start is
// past end.
func strSubstring(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	rs := []rune(recv.Str())
	n := len(rs)
	start := clamp(argInt(args, 0, 0), 0, n)
	end := clamp(argInt(args, 1, n), 0, n)
	if start > end {
		start, end = end, start
	}
	return value.String(string(rs[start:end])), nil
}

func strSubstr(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	rs := []rune(recv.Str())
	n := len(rs)
	start := relIndex(argInt(args, 0, 0), n)
	length := clamp(argInt(args, 1, n-start), 0, n-start)
	return value.String(string(rs[start : start+length])), nil
}

// strSlice accepts negative indices counted from the end.
func strSlice(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	rs := []rune(recv.Str())
	n := len(rs)
	start := relIndex(argInt(args, 0, 0), n)
	end := relIndex(argInt(args, 1, n), n)
	if end < start {
		return value.String(""), nil
	}
	return value.String(string(rs[start:end])), nil
}

func strCharAt(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	v := CharAt(recv.Str(), float64(argInt(args, 0, 0)))
	if v.IsUndefined() {
		return value.String(""), nil
	}
	return v, nil
}

func strCharCodeAt(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	rs := []rune(recv.Str())
	i := argInt(args, 0, 0)
	if i < 0 || i >= len(rs) {
		return value.Number(nan()), nil
	}
	return value.Int(int(rs[i])), nil
}

func strAt(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	rs := []rune(recv.Str())
	i := argInt(args, 0, 0)
	if i < 0 {
		i += len(rs)
	}
	if i < 0 || i >= len(rs) {
		return value.Undefined, nil
	}
	return value.String(string(rs[i])), nil
}

// runeIndex converts a byte offset into a code point index.
func runeIndex(s string, byteIdx int) int {
	if byteIdx < 0 {
		return -1
	}
	return utf8.RuneCountInString(s[:byteIdx])
}

// byteOffset converts a code point index into a byte offset.
func byteOffset(s string, runeIdx int) int {
	if runeIdx <= 0 {
		return 0
	}
	n := 0
	for i := range s {
		if n == runeIdx {
			return i
		}
		n++
	}
	return len(s)
}

func strIndexOf(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	s := recv.Str()
	sub := value.ToString(value.Arg(args, 0))
	from := byteOffset(s, argInt(args, 1, 0))
	i := strings.Index(s[from:], sub)
	if i < 0 {
		return value.Int(-1), nil
	}
	return value.Int(runeIndex(s, from+i)), nil
}

func strLastIndexOf(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	s := recv.Str()
	return value.Int(runeIndex(s, strings.LastIndex(s, value.ToString(value.Arg(args, 0))))), nil
}

// strReplace replaces n occurrences of a literal pattern (-1 for all). The
// replacement may be a callback receiving the match, its index and the
// whole string.
func strReplace(n int) method {
	return func(_ context.Context, recv value.Value, args []value.Value, invoke value.Invoker) (value.Value, error) {
		s := recv.Str()
		pattern := value.ToString(value.Arg(args, 0))
		repl := value.Arg(args, 1)
		if !callback(repl) {
			return value.String(strings.Replace(s, pattern, value.ToString(repl), n)), nil
		}
		var sb strings.Builder
		rest, offset := s, 0
		for count := 0; n < 0 || count < n; count++ {
			i := strings.Index(rest, pattern)
			if i < 0 {
				break
			}
			res, err := invoke(repl, value.String(pattern), value.Int(runeIndex(s, offset+i)), value.String(s))
			if err != nil {
				return value.Undefined, err
			}
			sb.WriteString(rest[:i])
			sb.WriteString(value.ToString(res))
			step := i + len(pattern)
			if pattern == "" {
				if i >= len(rest) {
					rest, offset = "", len(s)
					break
				}
				_, size := utf8.DecodeRuneInString(rest)
				sb.WriteString(rest[:size])
				step = size
			}
			rest, offset = rest[step:], offset+step
		}
		sb.WriteString(rest)
		return value.String(sb.String()), nil
	}
}

func strPad(start bool) method {
	return func(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
		s := recv.Str()
		target := argInt(args, 0, 0)
		fill := " "
		if f := value.Arg(args, 1); !f.IsUndefined() {
			fill = value.ToString(f)
		}
		missing := target - runeLen(s)
		if missing <= 0 || fill == "" {
			return recv, nil
		}
		if target > value.MaxStringLen {
			return value.Undefined, fmt.Errorf("invalid string length %d", target)
		}
		pad := []rune(strings.Repeat(fill, missing/runeLen(fill)+1))[:missing]
		if start {
			return value.String(string(pad) + s), nil
		}
		return value.String(s + string(pad)), nil
	}
}

func strRepeat(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	n := argInt(args, 0, 0)
	s := recv.Str()
	if n <= 0 || s == "" {
		return value.String(""), nil
	}
	if n > value.MaxStringLen/len(s) {
		return value.Undefined, fmt.Errorf("invalid string length %d", n*len(s))
	}
	return value.String(strings.Repeat(s, n)), nil
}

func strConcat(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	var sb strings.Builder
	sb.WriteString(recv.Str())
	for _, a := range args {
		sb.WriteString(value.ToString(a))
	}
	return value.String(sb.String()), nil
}

func strLocaleCompare(_ context.Context, recv value.Value, args []value.Value, _ value.Invoker) (value.Value, error) {
	return value.Int(collator(value.Arg(args, 1)).CompareString(recv.Str(), value.ToString(value.Arg(args, 0)))), nil
}
