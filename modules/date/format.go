package date

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultFormat is used when a tp.date call gets no format.
const DefaultFormat = "YYYY-MM-DD"

// tokens are the moment.js format tokens, longest first so that prefixes do
// not shadow longer tokens.
var tokens = []string{
	"YYYY", "GGGG", "gggg", "MMMM", "DDDD", "dddd",
	"MMM", "DDD", "ddd", "SSS",
	"YY", "MM", "Do", "DD", "dd", "HH", "hh", "kk", "mm", "ss", "SS", "ZZ", "WW", "ww",
	"Q", "M", "D", "d", "E", "e", "H", "h", "k", "m", "s", "S", "A", "a", "Z", "X", "x", "W", "w",
}

// Format renders t with a moment.js style format string. Text inside square
// brackets is copied literally.
func Format(t time.Time, format string) string {
	if format == "" {
		format = DefaultFormat
	}
	var sb strings.Builder
	for i := 0; i < len(format); {
		if format[i] == '[' {
			end := strings.IndexByte(format[i:], ']')
			if end > 0 {
				sb.WriteString(format[i+1 : i+end])
				i += end + 1
				continue
			}
		}
		tok := match(format[i:])
		if tok == "" {
			sb.WriteByte(format[i])
			i++
			continue
		}
		sb.WriteString(render(t, tok))
		i += len(tok)
	}
	return sb.String()
}

func match(s string) string {
	for _, tok := range tokens {
		if strings.HasPrefix(s, tok) {
			return tok
		}
	}
	return ""
}

func render(t time.Time, tok string) string {
	isoYear, isoWeek := t.ISOWeek()
	switch tok {
	case "YYYY", "gggg":
		return fmt.Sprintf("%04d", t.Year())
	case "GGGG":
		return fmt.Sprintf("%04d", isoYear)
	case "YY":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "Q":
		return strconv.Itoa((int(t.Month())-1)/3 + 1)
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "DDDD":
		return fmt.Sprintf("%03d", t.YearDay())
	case "DDD":
		return strconv.Itoa(t.YearDay())
	case "Do":
		return Ordinal(t.Day())
	case "DD":
		return fmt.Sprintf("%02d", t.Day())
	case "D":
		return strconv.Itoa(t.Day())
	case "dddd":
		return t.Weekday().String()
	case "ddd":
		return t.Weekday().String()[:3]
	case "dd":
		return t.Weekday().String()[:2]
	case "d", "e":
		return strconv.Itoa(int(t.Weekday()))
	case "E":
		wd := int(t.Weekday())
		if wd == 0 {
			wd = 7
		}
		return strconv.Itoa(wd)
	case "HH":
		return fmt.Sprintf("%02d", t.Hour())
	case "H":
		return strconv.Itoa(t.Hour())
	case "hh":
		return fmt.Sprintf("%02d", hour12(t))
	case "h":
		return strconv.Itoa(hour12(t))
	case "kk":
		return fmt.Sprintf("%02d", hour24(t))
	case "k":
		return strconv.Itoa(hour24(t))
	case "mm":
		return fmt.Sprintf("%02d", t.Minute())
	case "m":
		return strconv.Itoa(t.Minute())
	case "ss":
		return fmt.Sprintf("%02d", t.Second())
	case "s":
		return strconv.Itoa(t.Second())
	case "SSS":
		return fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
	case "SS":
		return fmt.Sprintf("%02d", t.Nanosecond()/int(10*time.Millisecond))
	case "S":
		return strconv.Itoa(t.Nanosecond() / int(100*time.Millisecond))
	case "A":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case "a":
		if t.Hour() < 12 {
			return "am"
		}
		return "pm"
	case "Z":
		return t.Format("-07:00")
	case "ZZ":
		return t.Format("-0700")
	case "X":
		return strconv.FormatInt(t.Unix(), 10)
	case "x":
		return strconv.FormatInt(t.UnixMilli(), 10)
	case "WW":
		return fmt.Sprintf("%02d", isoWeek)
	case "W":
		return strconv.Itoa(isoWeek)
	case "ww":
		return fmt.Sprintf("%02d", localeWeek(t))
	case "w":
		return strconv.Itoa(localeWeek(t))
	}
	return tok
}

func hour12(t time.Time) int {
	h := t.Hour() % 12
	if h == 0 {
		return 12
	}
	return h
}

func hour24(t time.Time) int {
	if t.Hour() == 0 {
		return 24
	}
	return t.Hour()
}

// localeWeek numbers weeks starting on Sunday, with week 1 holding January 1st.
func localeWeek(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	return (t.YearDay()+int(jan1.Weekday())-1)/7 + 1
}

// Ordinal renders n with its English suffix.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// layouts maps moment tokens to Go reference layout fragments for parsing.
var layouts = map[string]string{
	"YYYY": "2006", "YY": "06",
	"MMMM": "January", "MMM": "Jan", "MM": "01", "M": "1",
	"DD": "02", "D": "2",
	"dddd": "Monday", "ddd": "Mon",
	"HH": "15", "hh": "03", "h": "3",
	"mm": "04", "m": "4",
	"ss": "05", "s": "5",
	"SSS": "000",
	"A": "PM", "a": "pm",
	"Z": "-07:00", "ZZ": "-0700",
}

// Parse reads s using a moment.js format. Only tokens with a Go layout
// equivalent are supported.
func Parse(s, format string, loc *time.Location) (time.Time, error) {
	if format == "" {
		format = DefaultFormat
	}
	var sb strings.Builder
	for i := 0; i < len(format); {
		if format[i] == '[' {
			if end := strings.IndexByte(format[i:], ']'); end > 0 {
				sb.WriteString(format[i+1 : i+end])
				i += end + 1
				continue
			}
		}
		tok := match(format[i:])
		if tok == "" {
			sb.WriteByte(format[i])
			i++
			continue
		}
		layout, ok := layouts[tok]
		if !ok {
			return time.Time{}, fmt.Errorf("format token %q cannot be parsed", tok)
		}
		sb.WriteString(layout)
		i += len(tok)
	}
	return time.ParseInLocation(sb.String(), s, loc)
}
