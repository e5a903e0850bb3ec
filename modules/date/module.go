// Package date provides tp.date: formatted dates relative to the render's
// clock snapshot.
package date

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/vk/burstmd/internal/registry"
	"github.com/vk/burstmd/internal/services"
	"github.com/vk/burstmd/internal/value"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the tp.date handlers. They only read the clock snapshot,
// so they are pure.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Handler{Module: "date", Name: "now", Pure: true, Fn: now})
	r.Register(&registry.Handler{Module: "date", Name: "tomorrow", Pure: true, Fn: shifted(1)})
	r.Register(&registry.Handler{Module: "date", Name: "yesterday", Pure: true, Fn: shifted(-1)})
	r.Register(&registry.Handler{Module: "date", Name: "weekday", Pure: true, Fn: weekday})
}

func formatArg(args []value.Value, i int) string {
	v := value.Arg(args, i)
	if v.IsNullish() {
		return DefaultFormat
	}
	return value.ToString(v)
}

// reference resolves the base date: the clock snapshot, or args[i] parsed
// with the format in args[i+1].
func reference(tc *services.TemplateContext, args []value.Value, i int) (time.Time, error) {
	base := tc.Clock()()
	ref := value.Arg(args, i)
	if ref.IsNullish() || value.ToString(ref) == "" {
		return base, nil
	}
	if ref.Kind() == value.KindDate {
		return ref.Time(), nil
	}
	t, err := Parse(value.ToString(ref), formatArg(args, i+1), base.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reference date %q: %w", value.ToString(ref), err)
	}
	return t, nil
}

// now implements tp.date.now(format, offset, reference, reference_format).
func now(_ context.Context, tc *services.TemplateContext, args []value.Value, _ value.Invoker) (value.Value, error) {
	t, err := reference(tc, args, 2)
	if err != nil {
		return value.Undefined, err
	}
	switch off := value.Arg(args, 1); off.Kind() {
	case value.KindNumber:
		t = t.AddDate(0, 0, value.ToInteger(off))
	case value.KindString:
		if off.Str() != "" {
			t, err = AddISODuration(t, off.Str())
			if err != nil {
				return value.Undefined, err
			}
		}
	}
	return value.String(Format(t, formatArg(args, 0))), nil
}

func shifted(days int) registry.HandlerFunc {
	return func(_ context.Context, tc *services.TemplateContext, args []value.Value, _ value.Invoker) (value.Value, error) {
		return value.String(Format(tc.Clock()().AddDate(0, 0, days), formatArg(args, 0))), nil
	}
}

// weekday implements tp.date.weekday(format, weekday, reference,
// reference_format). weekday counts from the Sunday that starts the week.
func weekday(_ context.Context, tc *services.TemplateContext, args []value.Value, _ value.Invoker) (value.Value, error) {
	t, err := reference(tc, args, 2)
	if err != nil {
		return value.Undefined, err
	}
	n := value.ToInteger(value.Arg(args, 1))
	t = t.AddDate(0, 0, n-int(t.Weekday()))
	return value.String(Format(t, formatArg(args, 0))), nil
}

var isoDuration = regexp.MustCompile(`^([+-])?P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// AddISODuration adds an ISO 8601 duration such as "P1W" or "-P2DT3H" to t.
func AddISODuration(t time.Time, d string) (time.Time, error) {
	m := isoDuration.FindStringSubmatch(d)
	if m == nil || d == "P" || d == "PT" {
		return t, fmt.Errorf("invalid ISO 8601 duration %q", d)
	}
	n := func(i int) int {
		v, _ := strconv.Atoi(m[i])
		if m[1] == "-" {
			return -v
		}
		return v
	}
	t = t.AddDate(n(2), n(3), n(4)*7+n(5))
	return t.Add(time.Duration(n(6))*time.Hour + time.Duration(n(7))*time.Minute + time.Duration(n(8))*time.Second), nil
}
