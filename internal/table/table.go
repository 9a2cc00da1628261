// Package table implements pure operators over dated rows: ordering, outer
// joins, date-range filters, spacing and resampling. Rows are compared by Timestamp
// only; no operator mutates its input.
package table

import (
	"fmt"
	"math"
	"slices"

	"github.com/derickschaefer/timetools/internal/model"
	"github.com/derickschaefer/timetools/internal/timeval"
)

// ─── Sort ─────────────────────────────────────────────────────────────────────

// Sort returns rows ordered by date. Rows with equal dates keep their input
// order.
func Sort(rows []model.Row, descending bool) []model.Row {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b model.Row) int {
		if descending {
			return b.Date.Compare(a.Date)
		}
		return a.Date.Compare(b.Date)
	})
	return out
}

// IsSorted reports whether rows are in ascending date order.
func IsSorted(rows []model.Row) bool {
	return slices.IsSortedFunc(rows, func(a, b model.Row) int { return a.Date.Compare(b.Date) })
}

// ─── Merge ────────────────────────────────────────────────────────────────────

// Merge outer-joins two tables on date. A date present on only one side
// gets NaN on the other. Output is in ascending date order.
func Merge(left, right []model.Row) []model.MergedRow {
	l, r := Sort(left, false), Sort(right, false)
	out := make([]model.MergedRow, 0, max(len(l), len(r)))
	i, j := 0, 0
	for i < len(l) || j < len(r) {
		switch {
		case j >= len(r) || (i < len(l) && l[i].Date.Before(r[j].Date)):
			out = append(out, model.MergedRow{Date: l[i].Date, Left: l[i].Value, Right: math.NaN()})
			i++
		case i >= len(l) || r[j].Date.Before(l[i].Date):
			out = append(out, model.MergedRow{Date: r[j].Date, Left: math.NaN(), Right: r[j].Value})
			j++
		default:
			out = append(out, model.MergedRow{Date: l[i].Date, Left: l[i].Value, Right: r[j].Value})
			i++
			j++
		}
	}
	return out
}

// ─── Filter ───────────────────────────────────────────────────────────────────

// FilterOptions describes a date/value filter predicate.
type FilterOptions struct {
	After       timeval.Timestamp // keep rows with date > After (zero = no lower bound)
	Before      timeval.Timestamp // keep rows with date < Before (zero = no upper bound)
	MinValue    float64           // keep rows with value >= MinValue (NaN = no lower bound)
	MaxValue    float64           // keep rows with value <= MaxValue (NaN = no upper bound)
	DropMissing bool              // drop NaN rows
}

// NoBounds returns options that keep every row.
func NoBounds() FilterOptions {
	return FilterOptions{MinValue: math.NaN(), MaxValue: math.NaN()}
}

// Filter returns rows matching all non-zero criteria in opts.
func Filter(rows []model.Row, opts FilterOptions) []model.Row {
	out := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		if !opts.After.IsZero() && !r.Date.After(opts.After) {
			continue
		}
		if !opts.Before.IsZero() && !r.Date.Before(opts.Before) {
			continue
		}
		if r.IsMissing() {
			if opts.DropMissing {
				continue
			}
		} else {
			if !math.IsNaN(opts.MinValue) && r.Value < opts.MinValue {
				continue
			}
			if !math.IsNaN(opts.MaxValue) && r.Value > opts.MaxValue {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// ─── Spacing ──────────────────────────────────────────────────────────────────

// Span returns the duration from the earliest to the latest row.
func Span(rows []model.Row) (timeval.Duration, error) {
	if len(rows) == 0 {
		return timeval.Duration{}, fmt.Errorf("span: need at least 1 row")
	}
	lo, hi := rows[0].Date, rows[0].Date
	for _, r := range rows[1:] {
		if r.Date.Before(lo) {
			lo = r.Date
		}
		if r.Date.After(hi) {
			hi = r.Date
		}
	}
	return hi.Sub(lo), nil
}

// Intervals returns the duration between each pair of consecutive rows after
// sorting by date.
func Intervals(rows []model.Row) ([]model.Gap, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("intervals: need at least 2 rows, got %d", len(rows))
	}
	sorted := Sort(rows, false)
	out := make([]model.Gap, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		out = append(out, model.Gap{
			From: sorted[i-1].Date,
			To:   sorted[i].Date,
			Gap:  sorted[i].Date.Sub(sorted[i-1].Date),
		})
	}
	return out, nil
}

// Shift moves every row by d.
func Shift(rows []model.Row, d timeval.Duration) ([]model.Row, error) {
	out := make([]model.Row, len(rows))
	for i, r := range rows {
		date, err := r.Date.Add(d)
		if err != nil {
			return nil, fmt.Errorf("shift: row %d: %w", i, err)
		}
		r.Date = date
		out[i] = r
	}
	return out, nil
}
