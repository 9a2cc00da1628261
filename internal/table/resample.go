package table

import (
	"fmt"
	"math"

	"github.com/derickschaefer/timetools/internal/model"
	"github.com/derickschaefer/timetools/internal/timeval"
)

// ─── Resample ─────────────────────────────────────────────────────────────────

// Freq is a calendar period for Resample.
type Freq string

const (
	FreqDaily     Freq = "daily"
	FreqWeekly    Freq = "weekly" // weeks start on Monday
	FreqMonthly   Freq = "monthly"
	FreqQuarterly Freq = "quarterly"
	FreqAnnual    Freq = "annual"
)

// Method aggregates the values that fall in one period.
type Method string

const (
	MethodMean  Method = "mean"
	MethodSum   Method = "sum"
	MethodFirst Method = "first"
	MethodLast  Method = "last"
	MethodMin   Method = "min"
	MethodMax   Method = "max"
	MethodCount Method = "count"
)

// Resample groups rows by calendar period and aggregates each group into one
// row dated at the period start. Missing values are skipped; a period whose
// values are all missing yields NaN (0 for count). Only periods containing
// at least one row are emitted.
func Resample(rows []model.Row, freq Freq, method Method) ([]model.Row, error) {
	return group(rows, method, func(ts timeval.Timestamp) (timeval.Timestamp, error) {
		return periodStart(ts, freq)
	})
}

// Bucket is Resample with fixed-width buckets of every, anchored at the
// earliest row's date.
func Bucket(rows []model.Row, every timeval.Duration, method Method) ([]model.Row, error) {
	if every.IsNegative() || every.IsZero() {
		return nil, fmt.Errorf("bucket: width must be positive, got %s", every)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("bucket: empty input")
	}
	origin := Sort(rows, false)[0].Date
	width := every.TotalSeconds()
	return group(rows, method, func(ts timeval.Timestamp) (timeval.Timestamp, error) {
		n := math.Floor(ts.Sub(origin).TotalSeconds() / width)
		return origin.Add(every.Mul(n))
	})
}

// group sorts rows, assigns each a period start via keyOf and aggregates runs
// of rows sharing a start.
func group(rows []model.Row, method Method, keyOf func(timeval.Timestamp) (timeval.Timestamp, error)) ([]model.Row, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("resample: empty input")
	}
	if _, err := aggregate(nil, method); err != nil {
		return nil, err
	}

	var (
		out   []model.Row
		start timeval.Timestamp
		vals  []float64
	)
	flush := func() {
		v, _ := aggregate(vals, method)
		out = append(out, model.Row{Date: start, Value: v})
	}
	for i, r := range Sort(rows, false) {
		key, err := keyOf(r.Date)
		if err != nil {
			return nil, fmt.Errorf("resample: %s: %w", r.Date, err)
		}
		if i > 0 && !key.Equal(start) {
			flush()
			vals = vals[:0]
		}
		start = key
		if !r.IsMissing() {
			vals = append(vals, r.Value)
		}
	}
	flush()
	return out, nil
}

// aggregate reduces vals, which are in date order. An unknown method is an
// error even when vals is empty.
func aggregate(vals []float64, method Method) (float64, error) {
	switch method {
	case MethodCount:
		return float64(len(vals)), nil
	case MethodMean, MethodSum, MethodFirst, MethodLast, MethodMin, MethodMax:
	default:
		return math.NaN(), fmt.Errorf("resample: unknown method %q (use mean, sum, first, last, min, max or count)", method)
	}
	if len(vals) == 0 {
		return math.NaN(), nil
	}
	switch method {
	case MethodFirst:
		return vals[0], nil
	case MethodLast:
		return vals[len(vals)-1], nil
	case MethodMin:
		m := vals[0]
		for _, v := range vals[1:] {
			m = math.Min(m, v)
		}
		return m, nil
	case MethodMax:
		m := vals[0]
		for _, v := range vals[1:] {
			m = math.Max(m, v)
		}
		return m, nil
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	if method == MethodSum {
		return sum, nil
	}
	return sum / float64(len(vals)), nil
}

// periodStart returns midnight on the first day of the period holding ts.
func periodStart(ts timeval.Timestamp, freq Freq) (timeval.Timestamp, error) {
	y, m, d := ts.Year(), int(ts.Month()), ts.Day()
	switch freq {
	case FreqDaily:
		return timeval.NewTimestamp(y, m, d, 0, 0, 0, 0)
	case FreqWeekly:
		day, err := timeval.NewTimestamp(y, m, d, 0, 0, 0, 0)
		if err != nil {
			return day, err
		}
		back := (int(ts.Std().Weekday()) + 6) % 7
		return day.Add(timeval.NewDuration(-float64(back), 0, 0))
	case FreqMonthly:
		return timeval.NewTimestamp(y, m, 1, 0, 0, 0, 0)
	case FreqQuarterly:
		return timeval.NewTimestamp(y, (m-1)/3*3+1, 1, 0, 0, 0, 0)
	case FreqAnnual:
		return timeval.NewTimestamp(y, 1, 1, 0, 0, 0, 0)
	}
	return timeval.Timestamp{}, fmt.Errorf("unknown frequency %q (use daily, weekly, monthly, quarterly or annual)", freq)
}
