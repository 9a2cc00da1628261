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

const num = `(\d+(?:[.,]\d*)?|[.,]\d+)`

var isoDurationPattern = regexp.MustCompile(`(?i)^\s*(-)?P(?:` + num + `Y)?(?:` + num + `M)?(?:` + num + `W)?(?:` + num + `D)?` +
	`(?:T(?:` + num + `H)?(?:` + num + `M)?(?:` + num + `S)?)?\s*$`)

// scale is the size of one unit, split into days and microseconds so that
// neither part needs fractional arithmetic.
type scale struct {
	days   float64
	micros float64
}

var unitScale = map[string]scale{
	"microsecond": {0, 1},
	"millisecond": {0, 1e3},
	"second":      {0, 1e6},
	"minute":      {0, 60e6},
	"hour":        {0, 3600e6},
	"day":         {1, 0},
	"week":        {daysPerWeek, 0},
	"month":       {daysPerMonth, 0},
	"year":        {daysPerYear, 0},
}

func lookupUnit(unit string) (scale, bool) {
	u := strings.ToLower(strings.TrimSpace(unit))
	if s, ok := unitScale[u]; ok {
		return s, true
	}
	s, ok := unitScale[strings.TrimSuffix(u, "s")]
	return s, ok
}

// maxConvertDepth bounds ConvertibleToDuration chains.
const maxConvertDepth = 8

// ParseDuration builds a Duration from any supported input shape.
func ParseDuration(in Input) (Duration, error) {
	switch v := in.(type) {
	case StringInput:
		return parseDurationString(string(v))
	case TupleInput:
		return durationFromTuple(v)
	case MappingInput:
		return durationFromMapping(v)
	case NumericInput:
		return durationFromNumber(v)
	case ForeignObjectInput:
		return durationFromObject(v.Value, 0)
	case nil:
		return Duration{}, newError(UnsupportedDurationSource, nil, "nil input")
	}
	return Duration{}, newError(UnsupportedDurationSource, in, "unknown input shape %T", in)
}

// MustParseDuration is ParseDuration for string literals known to be valid.
func MustParseDuration(s string) Duration {
	d, err := ParseDuration(StringInput(s))
	if err != nil {
		panic(err)
	}
	return d
}

// ─── Strings ──────────────────────────────────────────────────────────────────

func parseDurationString(s string) (Duration, error) {
	switch detect.DurationString(s) {
	case detect.DurationRatio:
		return Duration{}, newError(AmbiguousFormatUnresolved, s, "numeric ratio durations are not supported")
	case detect.DurationInterval:
		return parseInterval(s)
	case detect.DurationClock:
		return parseClock(s)
	}
	return parseISODuration(s)
}

func parseISODuration(s string) (Duration, error) {
	m := isoDurationPattern.FindStringSubmatch(s)
	if m == nil {
		return Duration{}, newError(UnrecognizedFormat, s, "not an ISO-8601 duration")
	}
	var f [7]float64
	found := false
	for i, raw := range m[2:] {
		if raw == "" {
			continue
		}
		found = true
		v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil {
			return Duration{}, wrapError(UnrecognizedFormat, s, err)
		}
		f[i] = v
	}
	if !found {
		return Duration{}, newError(UnrecognizedFormat, s, "duration has no fields")
	}
	years, months, weeks, days, hours, minutes, seconds := f[0], f[1], f[2], f[3], f[4], f[5], f[6]

	whole := math.Trunc(seconds)
	totalDays := days + daysPerYear*years + daysPerMonth*months + daysPerWeek*weeks
	totalSecs := hours*3600 + minutes*60 + whole
	micros := (seconds - whole) * microsPerSec
	if m[1] == "-" {
		totalDays, totalSecs, micros = -totalDays, -totalSecs, -micros
	}
	return checkedDuration(s, totalDays, totalSecs, micros)
}

// parseInterval handles "start/end", "start/duration" and "duration/end".
// When one half is a duration the timestamp half is ignored.
func parseInterval(s string) (Duration, error) {
	iv, ok := detect.SplitInterval(s)
	if !ok {
		return Duration{}, newError(UnrecognizedFormat, s, "interval must have exactly two parts")
	}
	switch iv.DurationHalf {
	case 0:
		return parseISODuration(iv.Start)
	case 1:
		return parseISODuration(iv.End)
	}
	start, err := ParseTimestamp(StringInput(iv.Start))
	if err != nil {
		return Duration{}, err
	}
	end, err := ParseTimestamp(StringInput(iv.End))
	if err != nil {
		return Duration{}, err
	}
	return end.Sub(start), nil
}

// parseClock reads "[-]H:M:S.f", "M:S" or "S" with at least one colon.
func parseClock(s string) (Duration, error) {
	t := strings.TrimSpace(s)
	neg := strings.HasPrefix(t, "-")
	t = strings.TrimPrefix(t, "-")
	parts := strings.Split(t, ":")
	if len(parts) > 3 {
		return Duration{}, newError(UnrecognizedFormat, s, "too many clock fields")
	}
	var vals [3]float64
	off := 3 - len(parts)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v < 0 {
			return Duration{}, newError(UnrecognizedFormat, s, "invalid clock field %q", p)
		}
		vals[off+i] = v
	}
	whole := math.Trunc(vals[2])
	secs := vals[0]*3600 + vals[1]*60 + whole
	micros := (vals[2] - whole) * microsPerSec
	if neg {
		secs, micros = -secs, -micros
	}
	return checkedDuration(s, 0, secs, micros)
}

// ─── Tuples, mappings, numbers ────────────────────────────────────────────────

// durationFromTuple accepts (days, seconds, microseconds) or
// (years, months, days, hours, minutes, seconds[, microseconds]).
// The long form folds 30*seconds into the day count and ignores months;
// existing callers depend on that arithmetic.
func durationFromTuple(t TupleInput) (Duration, error) {
	switch len(t) {
	case 3:
		return checkedDuration(t, t[0], t[1], t[2])
	case 6, 7:
	default:
		return Duration{}, newError(UnrecognizedFormat, t, "duration tuple needs 3, 6 or 7 elements, got %d", len(t))
	}
	years, days, hours, minutes, seconds := t[0], t[2], t[3], t[4], t[5]
	var micros float64
	if len(t) == 7 {
		micros = t[6]
		if micros < 1 {
			micros *= microsPerSec
		}
	}
	totalDays := days + daysPerYear*years + daysPerMonth*seconds
	whole := math.Trunc(seconds)
	micros += (seconds - whole) * microsPerSec
	return checkedDuration(t, totalDays, hours*3600+minutes*60+whole, micros)
}

func durationFromMapping(m MappingInput) (Duration, error) {
	if len(m) == 0 {
		return Duration{}, newError(MissingRequiredField, "{}", "empty duration mapping")
	}
	var days, micros float64
	for k, v := range m {
		sc, ok := lookupUnit(k)
		if !ok {
			return Duration{}, newError(UnrecognizedFormat, m, "unknown duration key %q", k)
		}
		days += v * sc.days
		micros += v * sc.micros
	}
	return checkedDuration(m, days, 0, micros)
}

func durationFromNumber(n NumericInput) (Duration, error) {
	if strings.TrimSpace(n.Unit) == "" {
		return Duration{}, newError(MissingRequiredField, n, "a bare number needs a unit")
	}
	if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return Duration{}, newError(UnrecognizedFormat, n, "value is not finite")
	}
	sc, ok := lookupUnit(n.Unit)
	if !ok {
		return Duration{}, newError(UnrecognizedFormat, n, "unknown unit %q", n.Unit)
	}
	return checkedDuration(n, n.Value*sc.days, 0, n.Value*sc.micros)
}

// ─── Foreign objects ──────────────────────────────────────────────────────────

func durationFromObject(v any, depth int) (Duration, error) {
	switch x := v.(type) {
	case Duration:
		return x, nil
	case *Duration:
		if x != nil {
			return *x, nil
		}
	case time.Duration:
		return FromStd(x), nil
	case HasDurationComponents:
		return checkedDuration(fmt.Sprintf("%T", v), float64(x.Days()), float64(x.Seconds()), float64(x.Microseconds()))
	case HasTotalSeconds:
		return checkedDuration(fmt.Sprintf("%T", v), 0, x.TotalSeconds(), 0)
	case ConvertibleToDuration:
		if depth >= maxConvertDepth {
			return Duration{}, newError(UnsupportedDurationSource, fmt.Sprintf("%T", v), "conversion chain too deep")
		}
		in := DurationOf(x.ToDuration())
		if f, ok := in.(ForeignObjectInput); ok {
			return durationFromObject(f.Value, depth+1)
		}
		return ParseDuration(in)
	}
	return Duration{}, newError(UnsupportedDurationSource, fmt.Sprintf("%T", v),
		"needs Days/Seconds/Microseconds, TotalSeconds or ToDuration")
}
