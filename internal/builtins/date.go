package builtins

import (
	"context"
	"time"

	"github.com/vk/burstmd/internal/value"
)

type dateGetter func(t time.Time) float64

func newDateMethods() map[string]method {
	getters := map[string]dateGetter{
		"getFullYear":     func(t time.Time) float64 { return float64(t.Year()) },
		"getMonth":        func(t time.Time) float64 { return float64(t.Month() - 1) },
		"getDate":         func(t time.Time) float64 { return float64(t.Day()) },
		"getDay":          func(t time.Time) float64 { return float64(t.Weekday()) },
		"getHours":        func(t time.Time) float64 { return float64(t.Hour()) },
		"getMinutes":      func(t time.Time) float64 { return float64(t.Minute()) },
		"getSeconds":      func(t time.Time) float64 { return float64(t.Second()) },
		"getMilliseconds": func(t time.Time) float64 { return float64(t.Nanosecond() / int(time.Millisecond)) },
		"getTime":         func(t time.Time) float64 { return float64(t.UnixMilli()) },
		"valueOf":         func(t time.Time) float64 { return float64(t.UnixMilli()) },
		"getTimezoneOffset": func(t time.Time) float64 {
			_, off := t.Zone()
			return float64(-off / 60)
		},
	}
	formats := map[string]string{
		"toISOString":        "2006-01-02T15:04:05.000Z",
		"toJSON":             "2006-01-02T15:04:05.000Z",
		"toDateString":       "Mon Jan 02 2006",
		"toTimeString":       "15:04:05 GMT-0700 (MST)",
		"toLocaleDateString": "1/2/2006",
		"toLocaleTimeString": "3:04:05 PM",
		"toLocaleString":     "1/2/2006, 3:04:05 PM",
	}

	m := make(map[string]method, len(getters)+len(formats)+1)
	for name, get := range getters {
		m[name] = func(_ context.Context, recv value.Value, _ []value.Value, _ value.Invoker) (value.Value, error) {
			return value.Number(get(recv.Time())), nil
		}
	}
	for name, layout := range formats {
		utc := name == "toISOString" || name == "toJSON"
		m[name] = func(_ context.Context, recv value.Value, _ []value.Value, _ value.Invoker) (value.Value, error) {
			t := recv.Time()
			if utc {
				t = t.UTC()
			}
			return value.String(t.Format(layout)), nil
		}
	}
	m["toString"] = func(_ context.Context, recv value.Value, _ []value.Value, _ value.Invoker) (value.Value, error) {
		return value.String(value.ToString(recv)), nil
	}
	return m
}

// dateLayouts are tried in order when a string is converted to a date.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseDate parses the date formats accepted by new Date(string). Date-only
// and offset-less forms are read in local time.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
