package timeval

import (
	"fmt"
	"strings"
)

// ISO renders d as an ISO-8601 duration using years, weeks and days.
//
// Full form pads every field to two digits: P00Y00W12DT00H20M45.000123S.
// Compact form drops zero fields (and the T when no time field remains);
// the zero duration is PT0S. Negative durations get a leading "-".
func (d Duration) ISO(compact bool) string {
	b := d.Breakdown()
	var s string
	if compact {
		s = compactISO(b)
	} else {
		s = fmt.Sprintf("P%02dY%02dW%02dDT%02dH%02dM%sS",
			b.Years, b.Weeks, b.Days, b.Hours, b.Minutes, secondsText(b.Seconds, b.Microseconds, 2))
	}
	if b.Negative {
		return "-" + s
	}
	return s
}

func compactISO(b Breakdown) string {
	var date, clock strings.Builder
	for _, f := range []struct {
		v    int64
		unit byte
	}{{b.Years, 'Y'}, {b.Weeks, 'W'}, {b.Days, 'D'}} {
		if f.v != 0 {
			fmt.Fprintf(&date, "%d%c", f.v, f.unit)
		}
	}
	if b.Hours != 0 {
		fmt.Fprintf(&clock, "%dH", b.Hours)
	}
	if b.Minutes != 0 {
		fmt.Fprintf(&clock, "%dM", b.Minutes)
	}
	if b.Seconds != 0 || b.Microseconds != 0 {
		clock.WriteString(secondsText(b.Seconds, b.Microseconds, 1) + "S")
	}
	switch {
	case date.Len() == 0 && clock.Len() == 0:
		return "PT0S"
	case clock.Len() == 0:
		return "P" + date.String()
	}
	return "P" + date.String() + "T" + clock.String()
}

// Standard renders d as HH:MM:SS.ss, rounded to the centisecond. Whole days
// are folded into the hour count, so a 26-hour span prints as 26:00:00.00.
func (d Duration) Standard() string {
	a := d.Abs()
	total := a.days*secondsPerDay + int64(a.seconds)
	cs := (int64(a.micros) + 5000) / 10000
	if cs == 100 {
		total++
		cs = 0
	}
	s := fmt.Sprintf("%02d:%02d:%02d.%02d", total/3600, total%3600/60, total%60, cs)
	if d.IsNegative() && (total != 0 || cs != 0) {
		return "-" + s
	}
	return s
}
