// Package interop converts between timeval values and the calendar types of
// github.com/rickb777/date and github.com/rickb777/period.
package interop

import (
	"fmt"

	"github.com/rickb777/date/v2"
	"github.com/rickb777/period"

	"github.com/derickschaefer/timetools/internal/timeval"
)

// PeriodSource lets a period.Period enter the duration parser as a foreign
// object. Its ISO form is re-parsed, so months and years take the usual
// 30- and 365-day values.
type PeriodSource struct {
	Period period.Period
}

func (s PeriodSource) ToDuration() any { return s.Period.String() }

// FromPeriod converts p to a Duration. Periods with mixed-sign fields
// ("P1YT-1S") have no single-sign ISO form and are rejected.
func FromPeriod(p period.Period) (timeval.Duration, error) {
	d, err := timeval.ParseDuration(timeval.ForeignObjectInput{Value: PeriodSource{p}})
	if err != nil {
		return timeval.Duration{}, &timeval.ParseError{
			Kind:  timeval.UnsupportedDurationSource,
			Input: p.String(),
			Err:   err,
		}
	}
	return d, nil
}

// ToPeriod expresses d as a period of years, weeks, days and clock fields.
func ToPeriod(d timeval.Duration) (period.Period, error) {
	p, err := period.Parse(d.ISO(true))
	if err != nil {
		return period.Zero, fmt.Errorf("converting %s to period: %w", d, err)
	}
	return p, nil
}

// Human renders d in words, e.g. "1 week, 5 days, 20 minutes, 45.000123 seconds".
// It falls back to the compact ISO form if the period conversion fails.
func Human(d timeval.Duration) string {
	p, err := ToPeriod(d)
	if err != nil {
		return d.ISO(true)
	}
	return p.Format()
}

// ToDate drops the time of day.
func ToDate(t timeval.Timestamp) date.Date {
	return date.New(t.Year(), t.Month(), t.Day())
}

// FromDate converts d to a Timestamp at midnight.
func FromDate(d date.Date) (timeval.Timestamp, error) {
	return timeval.ParseTimestamp(timeval.ForeignObjectInput{Value: d})
}

// Today is the current local date at midnight.
func Today() timeval.Timestamp {
	t, _ := FromDate(date.Today())
	return t
}
