package timeval

import (
	"encoding/json"
	"errors"
	"math"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	secondsPerDay  = 86400
	microsPerSec   = 1_000_000
	daysPerYear    = 365
	daysPerMonth   = 30
	daysPerWeek    = 7
	maxStdSeconds  = math.MaxInt64 / int64(time.Second)
	maxStdDayRange = maxStdSeconds/secondsPerDay + 1
)

// Duration is a signed span of time held as (days, seconds, microseconds).
// seconds is always in [0, 86400) and micros in [0, 1e6); the sign lives in
// days, so -1µs is (-1, 86399, 999999).
type Duration struct {
	days    int64
	seconds int32
	micros  int32
}

// MaxDays bounds the magnitude of a parsed Duration's day count, the same
// range as the common fixed-point time-delta type.
const MaxDays = 999_999_999

// NewDuration builds a Duration from possibly fractional, possibly
// out-of-range parts. Fractions carry down to the next smaller unit and the
// final microsecond count is rounded half to even. Parts must be finite and
// the total within MaxDays; the parsers enforce that through checkedDuration.
func NewDuration(days, seconds, micros float64) Duration {
	d := math.Trunc(days)
	seconds += (days - d) * secondsPerDay
	carry := math.Trunc(micros / microsPerSec)
	seconds += carry
	micros -= carry * microsPerSec
	s := math.Trunc(seconds)
	micros += (seconds - s) * microsPerSec
	carry = math.Trunc(s / secondsPerDay)
	d += carry
	s -= carry * secondsPerDay
	return normalize(int64(d), int64(s), int64(math.RoundToEven(micros)))
}

// checkedDuration is NewDuration for untrusted parts: NaN, ±Inf and spans
// beyond MaxDays are errors.
func checkedDuration(src any, days, seconds, micros float64) (Duration, error) {
	for _, v := range [...]float64{days, seconds, micros} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Duration{}, newError(UnrecognizedFormat, src, "duration part is not finite")
		}
	}
	total := days + seconds/secondsPerDay + micros/(secondsPerDay*microsPerSec)
	if math.Abs(total) > MaxDays {
		return Duration{}, newError(UnrecognizedFormat, src, "duration exceeds %d days", MaxDays)
	}
	return NewDuration(days, seconds, micros), nil
}

// FromStd converts a time.Duration, rounding to the nearest microsecond.
func FromStd(d time.Duration) Duration {
	return normalize(0, 0, int64(d.Round(time.Microsecond)/time.Microsecond))
}

func normalize(days, seconds, micros int64) Duration {
	q, r := floorDivMod(micros, microsPerSec)
	seconds += q
	micros = r
	q, r = floorDivMod(seconds, secondsPerDay)
	days += q
	return Duration{days: days, seconds: int32(r), micros: int32(micros)}
}

func floorDivMod(a, b int64) (q, r int64) {
	q, r = a/b, a%b
	if r < 0 {
		q--
		r += b
	}
	return q, r
}

// Triple returns the normalized (days, seconds, microseconds).
func (d Duration) Triple() (days int64, seconds, micros int) {
	return d.days, int(d.seconds), int(d.micros)
}

func (d Duration) Days() int         { return int(d.days) }
func (d Duration) Seconds() int      { return int(d.seconds) }
func (d Duration) Microseconds() int { return int(d.micros) }

func (d Duration) IsZero() bool     { return d == Duration{} }
func (d Duration) IsNegative() bool { return d.days < 0 }

// TotalSeconds returns the whole span in seconds.
func (d Duration) TotalSeconds() float64 {
	return float64(d.days)*secondsPerDay + float64(d.seconds) + float64(d.micros)/microsPerSec
}

func (d Duration) TotalDays() float64  { return d.TotalSeconds() / secondsPerDay }
func (d Duration) TotalYears() float64 { return d.TotalDays() / daysPerYear }

// Std converts to time.Duration, saturating at its bounds.
func (d Duration) Std() time.Duration {
	if d.days > maxStdDayRange {
		return time.Duration(math.MaxInt64)
	}
	if d.days < -maxStdDayRange {
		return time.Duration(math.MinInt64)
	}
	sec := d.days*secondsPerDay + int64(d.seconds)
	switch {
	case sec >= maxStdSeconds-1:
		return time.Duration(math.MaxInt64)
	case sec <= -maxStdSeconds:
		return time.Duration(math.MinInt64)
	}
	return time.Duration(sec)*time.Second + time.Duration(d.micros)*time.Microsecond
}

// ─── Arithmetic ───────────────────────────────────────────────────────────────

func (d Duration) Add(o Duration) Duration {
	return normalize(d.days+o.days, int64(d.seconds)+int64(o.seconds), int64(d.micros)+int64(o.micros))
}

func (d Duration) Sub(o Duration) Duration { return d.Add(o.Neg()) }

func (d Duration) Neg() Duration {
	return normalize(-d.days, -int64(d.seconds), -int64(d.micros))
}

func (d Duration) Abs() Duration {
	if d.IsNegative() {
		return d.Neg()
	}
	return d
}

// Mul scales d by f.
func (d Duration) Mul(f float64) Duration {
	return NewDuration(float64(d.days)*f, float64(d.seconds)*f, float64(d.micros)*f)
}

var errDivideByZero = errors.New("timeval: duration divided by zero")

// Div divides d by f.
func (d Duration) Div(f float64) (Duration, error) {
	if f == 0 {
		return Duration{}, errDivideByZero
	}
	return NewDuration(float64(d.days)/f, float64(d.seconds)/f, float64(d.micros)/f), nil
}

// Ratio returns d / o as a float. Dividing by a zero duration yields ±Inf or NaN.
func (d Duration) Ratio(o Duration) float64 {
	return d.TotalSeconds() / o.TotalSeconds()
}

// ─── Ordering ─────────────────────────────────────────────────────────────────

// Compare returns -1, 0 or +1.
func (d Duration) Compare(o Duration) int {
	switch {
	case d.days != o.days:
		return cmpInt(d.days, o.days)
	case d.seconds != o.seconds:
		return cmpInt(int64(d.seconds), int64(o.seconds))
	}
	return cmpInt(int64(d.micros), int64(o.micros))
}

func (d Duration) Equal(o Duration) bool { return d == o }
func (d Duration) Less(o Duration) bool  { return d.Compare(o) < 0 }

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ─── Encoding ─────────────────────────────────────────────────────────────────

func (d Duration) String() string { return d.ISO(true) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.ISO(true))
}

// UnmarshalJSON accepts any duration string, or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := ParseDuration(StringInput(s))
		if err != nil {
			return err
		}
		*d = v
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return newError(UnrecognizedFormat, string(b), "expected duration string or seconds")
	}
	v, err := checkedDuration(string(b), 0, f, 0)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Duration) MarshalYAML() (any, error) { return d.ISO(true), nil }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := ParseDuration(StringInput(s))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
