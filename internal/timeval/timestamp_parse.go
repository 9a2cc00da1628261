package timeval

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/derickschaefer/timetools/internal/detect"
)

var (
	isoTimestampPattern = regexp.MustCompile(`(?i)^(\d{4})-(\d{1,2})-(\d{1,2})` +
		`(?:[T\s](\d{1,2}):(\d{2})(?::(\d{2})(?:[.,](\d+))?)?)?\s*(Z|UTC|GMT|[+-]\d{2}:?\d{2})?$`)
	clockPattern      = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2})(?:[.,](\d+))?)?$`)
	monthFirstPattern = regexp.MustCompile(`([a-z]+)\.?[\s\-/]+(\d{1,2})(?:st|nd|rd|th)?[\s,\-/]+(\d{4})`)
	dayFirstPattern   = regexp.MustCompile(`(\d{1,2})(?:st|nd|rd|th)?[\s\-/]+([a-z]+)\.?[\s,\-/]+(\d{4})`)
	meridiemPattern   = regexp.MustCompile(`(?i)^(\d{1,2}(?::\d{2}(?::\d{2}(?:[.,]\d+)?)?)?)\s*([ap])\.?m\.?$`)
)

var monthNames = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
}

var monthAbbrevs = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// lookupMonth accepts a full month name, its three-letter abbreviation, or
// any longer prefix of the full name ("sept").
func lookupMonth(token string) (int, bool) {
	token = strings.ToLower(token)
	if m, ok := monthNames[token]; ok {
		return m, true
	}
	if len(token) < 3 {
		return 0, false
	}
	m, ok := monthAbbrevs[token[:3]]
	if !ok {
		return 0, false
	}
	for name, n := range monthNames {
		if n == m && strings.HasPrefix(name, token) {
			return m, true
		}
	}
	return 0, false
}

// Option adjusts timestamp parsing.
type Option func(*parseOptions)

type parseOptions struct {
	order    detect.Order
	hasOrder bool
}

// WithOrder forces the field order used for ambiguous numeric dates instead
// of the detector's heuristic.
func WithOrder(o detect.Order) Option {
	return func(p *parseOptions) {
		p.order = o
		p.hasOrder = true
	}
}

// ParseTimestamp builds a Timestamp from any supported input shape.
func ParseTimestamp(in Input, opts ...Option) (Timestamp, error) {
	var po parseOptions
	for _, o := range opts {
		o(&po)
	}
	switch v := in.(type) {
	case StringInput:
		return parseTimestampString(string(v), po)
	case NumericInput:
		return timestampFromSerial(v)
	case TupleInput:
		return timestampFromTuple(v)
	case MappingInput:
		return timestampFromMapping(v)
	case ForeignObjectInput:
		return timestampFromObject(v.Value)
	case nil:
		return Timestamp{}, newError(UnsupportedTimestampSource, nil, "nil input")
	}
	return Timestamp{}, newError(UnsupportedTimestampSource, in, "unknown input shape %T", in)
}

// MustParseTimestamp is ParseTimestamp for string literals known to be valid.
func MustParseTimestamp(s string) Timestamp {
	t, err := ParseTimestamp(StringInput(s))
	if err != nil {
		panic(err)
	}
	return t
}

// ─── Strings ──────────────────────────────────────────────────────────────────

func parseTimestampString(raw string, po parseOptions) (Timestamp, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Timestamp{}, newError(UnrecognizedFormat, raw, "empty string")
	}
	switch detect.DateString(s) {
	case detect.DateVerbal:
		return parseVerbal(s)
	case detect.DateCompact:
		return parseCompact(s)
	case detect.DateISO:
		if t, ok, err := parseISOTimestamp(s); ok {
			return t, err
		}
	}
	return parseNumericDate(s, po)
}

// parseISOTimestamp reports ok=false when s does not match the ISO pattern
// at all, so the caller can fall back to the numeric heuristic.
func parseISOTimestamp(s string) (Timestamp, bool, error) {
	m := isoTimestampPattern.FindStringSubmatch(s)
	if m == nil {
		return Timestamp{}, false, nil
	}
	f := atoiAll(m[1:7])
	t, err := NewTimestamp(f[0], f[1], f[2], f[3], f[4], f[5], fractionMicros(m[7]))
	if err != nil {
		return Timestamp{}, true, err
	}
	return t, true, nil
}

// OffsetOf returns the UTC offset written in an ISO timestamp string, "Z"
// for Z, UTC or GMT, and "" when there is none. Parsing never applies it.
func OffsetOf(s string) string {
	m := isoTimestampPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	switch off := strings.ToUpper(m[8]); off {
	case "UTC", "GMT":
		return "Z"
	default:
		return off
	}
}

func parseNumericDate(s string, po parseOptions) (Timestamp, error) {
	datePart, timePart := s, ""
	if i := strings.IndexAny(s, " Tt"); i > 0 {
		datePart, timePart = s[:i], strings.TrimSpace(s[i+1:])
	}
	g, ok := detect.NumericGroups(datePart)
	if !ok {
		return Timestamp{}, newError(UnrecognizedFormat, s, "expected three numeric date fields")
	}
	order := po.order
	if !po.hasOrder {
		order = detect.NumericOrder(g[0], g[1], g[2])
	}
	y, mo, d := detect.Arrange(order, g[0], g[1], g[2])
	y = detect.ExpandYear(y)

	var clock [4]int
	if timePart != "" {
		c, ok := parseTimeOfDay(timePart)
		if !ok {
			return Timestamp{}, newError(UnrecognizedFormat, s, "invalid time of day %q", timePart)
		}
		clock = c
	}
	return NewTimestamp(y, mo, d, clock[0], clock[1], clock[2], clock[3])
}

// parseTimeOfDay reads a 24-hour H:MM[:SS[.f]] or a 12-hour time with an
// am/pm suffix ("5pm", "5:45 p.m.").
func parseTimeOfDay(s string) ([4]int, bool) {
	m := meridiemPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return parseClockFields(s)
	}
	clock := m[1]
	if !strings.Contains(clock, ":") {
		clock += ":00"
	}
	c, ok := parseClockFields(clock)
	if !ok || c[0] < 1 || c[0] > 12 {
		return [4]int{}, false
	}
	c[0] %= 12
	if strings.EqualFold(m[2], "p") {
		c[0] += 12
	}
	return c, true
}

func parseClockFields(s string) ([4]int, bool) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return [4]int{}, false
	}
	f := atoiAll(m[1:4])
	return [4]int{f[0], f[1], f[2], fractionMicros(m[4])}, true
}

// parseVerbal handles "17 Dec 2012", "Dec 17, 2012", "december 17th 2012"
// and similar. Any trailing text must be a time of day.
func parseVerbal(s string) (Timestamp, error) {
	lower := strings.ToLower(s)
	type hit struct {
		month, day, year int
		end              int
	}
	var found *hit
	for _, p := range []struct {
		re               *regexp.Regexp
		monthIdx, dayIdx int
	}{{monthFirstPattern, 1, 2}, {dayFirstPattern, 2, 1}} {
		for _, idx := range p.re.FindAllStringSubmatchIndex(lower, -1) {
			group := func(n int) string { return lower[idx[2*n]:idx[2*n+1]] }
			mo, ok := lookupMonth(group(p.monthIdx))
			if !ok {
				continue
			}
			day, _ := strconv.Atoi(group(p.dayIdx))
			year, _ := strconv.Atoi(group(3))
			found = &hit{month: mo, day: day, year: year, end: idx[1]}
			break
		}
		if found != nil {
			break
		}
	}
	if found == nil {
		return Timestamp{}, newError(UnrecognizedFormat, s, "no month name with day and four-digit year")
	}

	var clock [4]int
	if rest := strings.TrimSpace(strings.TrimLeft(lower[found.end:], ", t")); rest != "" {
		c, ok := parseTimeOfDay(rest)
		if !ok {
			return Timestamp{}, newError(UnrecognizedFormat, s, "invalid time of day %q", rest)
		}
		clock = c
	}
	return NewTimestamp(found.year, found.month, found.day, clock[0], clock[1], clock[2], clock[3])
}

// parseCompact reads YYYYMMDD or YYMMDD.
func parseCompact(s string) (Timestamp, error) {
	var y, m, d int
	switch len(s) {
	case 8:
		f := atoiAll([]string{s[0:4], s[4:6], s[6:8]})
		y, m, d = f[0], f[1], f[2]
	case 6:
		f := atoiAll([]string{s[0:2], s[2:4], s[4:6]})
		y, m, d = detect.ExpandYear(f[0]), f[1], f[2]
	default:
		return Timestamp{}, newError(UnrecognizedFormat, s, "compact dates are YYYYMMDD or YYMMDD")
	}
	return NewTimestamp(y, m, d, 0, 0, 0, 0)
}

func atoiAll(raw []string) []int {
	out := make([]int, len(raw))
	for i, s := range raw {
		out[i], _ = strconv.Atoi(s)
	}
	return out
}

// fractionMicros converts the digits after a decimal point to microseconds,
// truncating beyond six digits.
func fractionMicros(digits string) int {
	if digits == "" {
		return 0
	}
	if len(digits) > 6 {
		digits = digits[:6]
	}
	n, _ := strconv.Atoi(digits + strings.Repeat("0", 6-len(digits)))
	return n
}

// ─── Serial numbers ───────────────────────────────────────────────────────────

// maxSerial is comfortably past 9999-12-31.
const maxSerial = 3_000_000

func timestampFromSerial(n NumericInput) (Timestamp, error) {
	switch strings.ToLower(strings.TrimSpace(n.Unit)) {
	case "", "serial", "day", "days":
	default:
		return Timestamp{}, newError(UnrecognizedFormat, n, "serial dates are counted in days, not %q", n.Unit)
	}
	if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) || math.Abs(n.Value) > maxSerial {
		return Timestamp{}, newError(InvalidCalendarDate, n, "serial out of range")
	}
	days := math.Floor(n.Value)
	micros := math.Round((n.Value - days) * secondsPerDay * microsPerSec)
	t := serialEpoch.AddDate(0, 0, int(days)).Add(time.Duration(micros) * time.Microsecond)
	return FromTime(t)
}

// ─── Tuples and mappings ──────────────────────────────────────────────────────

func timestampFromTuple(t TupleInput) (Timestamp, error) {
	switch len(t) {
	case 3, 6, 7:
	default:
		return Timestamp{}, newError(UnrecognizedFormat, t, "timestamp tuple needs 3, 6 or 7 elements, got %d", len(t))
	}
	var f [7]int
	for i, v := range t {
		n, ok := integral(v)
		if !ok {
			return Timestamp{}, newError(InvalidCalendarDate, t, "element %d (%g) is not an integer", i, v)
		}
		f[i] = n
	}
	return NewTimestamp(f[0], f[1], f[2], f[3], f[4], f[5], f[6])
}

var timestampKeys = []string{"year", "month", "day", "hour", "minute", "second", "microsecond"}

func timestampFromMapping(m MappingInput) (Timestamp, error) {
	norm := make(map[string]float64, len(m))
	for k, v := range m {
		norm[strings.ToLower(strings.TrimSpace(k))] = v
	}
	var f [7]int
	for i, key := range timestampKeys {
		v, ok := norm[key]
		if !ok {
			if i < 3 {
				return Timestamp{}, newError(MissingRequiredField, m, "missing %q", key)
			}
			continue
		}
		n, ok := integral(v)
		if !ok {
			return Timestamp{}, newError(InvalidCalendarDate, m, "%s (%g) is not an integer", key, v)
		}
		f[i] = n
		delete(norm, key)
	}
	for k := range norm {
		return Timestamp{}, newError(UnrecognizedFormat, m, "unknown timestamp key %q", k)
	}
	return NewTimestamp(f[0], f[1], f[2], f[3], f[4], f[5], f[6])
}

func integral(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

// ─── Foreign objects ──────────────────────────────────────────────────────────

func timestampFromObject(v any) (Timestamp, error) {
	switch x := v.(type) {
	case Timestamp:
		return x, nil
	case *Timestamp:
		if x != nil {
			return *x, nil
		}
	case HasDateComponents:
		var hour, minute, second, micro int
		if h, ok := v.(hasHour); ok {
			hour = h.Hour()
		}
		if m, ok := v.(hasMinute); ok {
			minute = m.Minute()
		}
		if s, ok := v.(hasSecond); ok {
			second = s.Second()
		}
		switch u := v.(type) {
		case hasMicrosecond:
			micro = u.Microsecond()
		case hasNanosecond:
			micro = u.Nanosecond() / 1000
		}
		return NewTimestamp(x.Year(), int(x.Month()), x.Day(), hour, minute, second, micro)
	}
	return Timestamp{}, newError(UnsupportedTimestampSource, fmt.Sprintf("%T", v), "needs Year, Month and Day")
}
