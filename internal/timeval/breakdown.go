package timeval

import (
	"fmt"
	"strings"
)

// Breakdown is the display-oriented decomposition of a Duration. Fields are
// computed on the absolute value; Negative carries the sign. Years are 365
// days and there is no month field.
type Breakdown struct {
	Negative     bool  `json:"negative"`
	Years        int64 `json:"years"`
	Weeks        int64 `json:"weeks"`
	Days         int64 `json:"days"`
	Hours        int64 `json:"hours"`
	Minutes      int64 `json:"minutes"`
	Seconds      int64 `json:"seconds"`
	Microseconds int64 `json:"microseconds"`
}

// Breakdown decomposes d by successive divmod of 365, 7, 3600 and 60.
func (d Duration) Breakdown() Breakdown {
	a := d.Abs()
	b := Breakdown{Negative: d.IsNegative(), Microseconds: int64(a.micros)}

	var rest int64
	b.Years, rest = a.days/daysPerYear, a.days%daysPerYear
	b.Weeks, b.Days = rest/daysPerWeek, rest%daysPerWeek

	sec := int64(a.seconds)
	b.Hours, sec = sec/3600, sec%3600
	b.Minutes, b.Seconds = sec/60, sec%60
	return b
}

// Duration reassembles the breakdown. It is the exact inverse of
// Duration.Breakdown.
func (b Breakdown) Duration() Duration {
	days := b.Years*daysPerYear + b.Weeks*daysPerWeek + b.Days
	secs := b.Hours*3600 + b.Minutes*60 + b.Seconds
	d := normalize(days, secs, b.Microseconds)
	if b.Negative {
		return d.Neg()
	}
	return d
}

// FractionalSeconds returns Seconds plus the microsecond fraction.
func (b Breakdown) FractionalSeconds() float64 {
	return float64(b.Seconds) + float64(b.Microseconds)/microsPerSec
}

// Compact renders the non-zero fields as "1y 2w 3d 4h 5m 6.5s".
func (b Breakdown) Compact() string {
	var parts []string
	add := func(v int64, unit string) {
		if v != 0 {
			parts = append(parts, fmt.Sprintf("%d%s", v, unit))
		}
	}
	add(b.Years, "y")
	add(b.Weeks, "w")
	add(b.Days, "d")
	add(b.Hours, "h")
	add(b.Minutes, "m")
	if b.Seconds != 0 || b.Microseconds != 0 || len(parts) == 0 {
		parts = append(parts, secondsText(b.Seconds, b.Microseconds, 1)+"s")
	}
	s := strings.Join(parts, " ")
	if b.Negative {
		return "-" + s
	}
	return s
}

// secondsText renders whole seconds zero-padded to width digits, followed
// by the microsecond fraction with trailing zeros trimmed.
func secondsText(sec, micros int64, width int) string {
	s := fmt.Sprintf("%0*d", width, sec)
	if micros == 0 {
		return s
	}
	frac := strings.TrimRight(fmt.Sprintf("%06d", micros), "0")
	return s + "." + frac
}
