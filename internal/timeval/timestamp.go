package timeval

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Timestamp is a zone-less point in time with microsecond precision. It is
// comparable: == agrees with Equal. A textual UTC offset is not part of the
// value; OffsetOf reports it from the source string.
type Timestamp struct {
	year, month, day     int
	hour, minute, second int
	micro                int
}

// serialEpoch is day zero of spreadsheet serial dates.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// NewTimestamp validates the fields and builds a Timestamp.
func NewTimestamp(year, month, day, hour, minute, second, micro int) (Timestamp, error) {
	fields := []int{year, month, day, hour, minute, second, micro}
	switch {
	case year < 1 || year > 9999:
		return Timestamp{}, newError(InvalidCalendarDate, fields, "year %d out of range", year)
	case month < 1 || month > 12:
		return Timestamp{}, newError(InvalidCalendarDate, fields, "month %d out of range", month)
	case day < 1 || day > daysIn(year, time.Month(month)):
		return Timestamp{}, newError(InvalidCalendarDate, fields, "day %d out of range for %04d-%02d", day, year, month)
	case hour < 0 || hour > 23:
		return Timestamp{}, newError(InvalidCalendarDate, fields, "hour %d out of range", hour)
	case minute < 0 || minute > 59:
		return Timestamp{}, newError(InvalidCalendarDate, fields, "minute %d out of range", minute)
	case second < 0 || second > 59:
		return Timestamp{}, newError(InvalidCalendarDate, fields, "second %d out of range", second)
	case micro < 0 || micro >= microsPerSec:
		return Timestamp{}, newError(InvalidCalendarDate, fields, "microsecond %d out of range", micro)
	}
	return Timestamp{year: year, month: month, day: day, hour: hour, minute: minute, second: second, micro: micro}, nil
}

// MustTimestamp is NewTimestamp for fields known to be valid.
func MustTimestamp(year, month, day, hour, minute, second, micro int) Timestamp {
	t, err := NewTimestamp(year, month, day, hour, minute, second, micro)
	if err != nil {
		panic(err)
	}
	return t
}

func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FromTime takes the wall-clock fields of t, truncated to the microsecond.
func FromTime(t time.Time) (Timestamp, error) {
	return NewTimestamp(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/1000)
}

// Now returns the current local wall-clock time.
func Now() Timestamp {
	t, _ := FromTime(time.Now())
	return t
}

// ─── Accessors ────────────────────────────────────────────────────────────────

func (t Timestamp) Year() int         { return t.year }
func (t Timestamp) Month() time.Month { return time.Month(t.month) }
func (t Timestamp) Day() int          { return t.day }
func (t Timestamp) Hour() int         { return t.hour }
func (t Timestamp) Minute() int       { return t.minute }
func (t Timestamp) Second() int       { return t.second }
func (t Timestamp) Microsecond() int  { return t.micro }
func (t Timestamp) IsZero() bool      { return t.year == 0 }

// Std returns t as a UTC time.Time.
func (t Timestamp) Std() time.Time {
	return time.Date(t.year, time.Month(t.month), t.day, t.hour, t.minute, t.second, t.micro*1000, time.UTC)
}

// YearDay is the ordinal day of the year, 1..366.
func (t Timestamp) YearDay() int { return t.Std().YearDay() }

// IsMidnight reports whether the time of day is exactly 00:00:00.000000.
func (t Timestamp) IsMidnight() bool {
	return t.hour == 0 && t.minute == 0 && t.second == 0 && t.micro == 0
}

// ─── Comparison and arithmetic ────────────────────────────────────────────────

func (t Timestamp) Compare(o Timestamp) int {
	a, b := t.Tuple(), o.Tuple()
	for i := range a {
		if c := cmpInt(int64(a[i]), int64(b[i])); c != 0 {
			return c
		}
	}
	return 0
}

func (t Timestamp) Equal(o Timestamp) bool  { return t.Compare(o) == 0 }
func (t Timestamp) Before(o Timestamp) bool { return t.Compare(o) < 0 }
func (t Timestamp) After(o Timestamp) bool  { return t.Compare(o) > 0 }

// Sub returns t - o.
func (t Timestamp) Sub(o Timestamp) Duration {
	secs := t.Std().Unix() - o.Std().Unix()
	return normalize(0, secs, int64(t.micro-o.micro))
}

// Add returns t + d. It fails when the result leaves years 1..9999.
func (t Timestamp) Add(d Duration) (Timestamp, error) {
	days, secs, micros := d.Triple()
	if days > 4_000_000 || days < -4_000_000 {
		return Timestamp{}, newError(InvalidCalendarDate, t.ISO(false), "adding %s leaves the calendar range", d)
	}
	std := t.Std().AddDate(0, 0, int(days)).
		Add(time.Duration(secs)*time.Second + time.Duration(micros)*time.Microsecond)
	return FromTime(std)
}

// ─── Formatting ───────────────────────────────────────────────────────────────

// ISO renders YYYY-MM-DDTHH:MM:SS, with .ffffff appended when the
// microsecond is non-zero. In compact mode a timestamp at exact midnight
// renders as the date alone.
func (t Timestamp) ISO(compact bool) string {
	date := fmt.Sprintf("%04d-%02d-%02d", t.year, t.month, t.day)
	if compact && t.IsMidnight() {
		return date
	}
	s := fmt.Sprintf("%sT%02d:%02d:%02d", date, t.hour, t.minute, t.second)
	if t.micro != 0 {
		s += fmt.Sprintf(".%06d", t.micro)
	}
	return s
}

func (t Timestamp) String() string { return t.ISO(true) }

// YearFraction returns year + (yday-1)/365 with yday capped at 365, so
// 31 December of a leap year shares its value with 30 December.
func (t Timestamp) YearFraction() float64 {
	return float64(t.year) + float64(min(t.YearDay(), 365)-1)/daysPerYear
}

// Serial returns the spreadsheet serial number for t.
func (t Timestamp) Serial() float64 {
	d := t.Sub(Timestamp{year: 1899, month: 12, day: 30})
	return d.TotalDays()
}

// Tuple returns (year, month, day, hour, minute, second, microsecond).
func (t Timestamp) Tuple() [7]int {
	return [7]int{t.year, t.month, t.day, t.hour, t.minute, t.second, t.micro}
}

// Map returns the fields keyed by name; ParseTimestamp accepts it back.
func (t Timestamp) Map() map[string]int {
	return map[string]int{
		"year": t.year, "month": t.month, "day": t.day,
		"hour": t.hour, "minute": t.minute, "second": t.second,
		"microsecond": t.micro,
	}
}

// ─── Encoding ─────────────────────────────────────────────────────────────────

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.ISO(false))
}

// UnmarshalJSON accepts any timestamp string, or a number as a serial date.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := ParseTimestamp(TimestampOf(raw))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t Timestamp) MarshalYAML() (any, error) { return t.ISO(false), nil }

func (t *Timestamp) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := ParseTimestamp(StringInput(s))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
