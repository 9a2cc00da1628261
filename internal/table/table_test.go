package table_test

import (
	"errors"
	"math"
	"testing"

	"github.com/derickschaefer/timetools/internal/model"
	"github.com/derickschaefer/timetools/internal/table"
	"github.com/derickschaefer/timetools/internal/timeval"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

// row parses any timestamp string and panics on error. Test use only.
func row(date string, v float64) model.Row {
	return model.Row{Date: timeval.MustParseTimestamp(date), Value: v}
}

func dates(rows []model.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Date.ISO(true)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ─── Sort ─────────────────────────────────────────────────────────────────────

func TestSort(t *testing.T) {
	in := []model.Row{
		row("2020-03-01", 3),
		row("Jan 15, 2020", 1),
		row("2020-02-01T12:00:00", 2),
		row("01/15/2020", 4),
	}
	got := table.Sort(in, false)
	want := []string{"2020-01-15", "2020-01-15", "2020-02-01T12:00:00", "2020-03-01"}
	if !equalStrings(dates(got), want) {
		t.Errorf("Sort: expected %v, got %v", want, dates(got))
	}
	if got[0].Value != 1 || got[1].Value != 4 {
		t.Error("Sort must be stable for equal dates")
	}
	if in[0].Value != 3 {
		t.Error("Sort must not modify its input")
	}
	if !table.IsSorted(got) || table.IsSorted(in) {
		t.Error("IsSorted disagrees with Sort")
	}

	desc := table.Sort(in, true)
	if desc[0].Value != 3 || desc[len(desc)-1].Date.ISO(true) != "2020-01-15" {
		t.Errorf("descending: got %v", dates(desc))
	}
}

// ─── Merge ────────────────────────────────────────────────────────────────────

func TestMerge(t *testing.T) {
	left := []model.Row{row("2020-01-01", 1), row("2020-03-01", 3), row("2020-02-01", 2)}
	right := []model.Row{row("2020-02-01", 20), row("2020-04-01", 40)}

	got := table.Merge(left, right)
	if len(got) != 4 {
		t.Fatalf("expected 4 merged rows, got %d", len(got))
	}
	cases := []struct {
		date        string
		left, right float64
	}{
		{"2020-01-01", 1, math.NaN()},
		{"2020-02-01", 2, 20},
		{"2020-03-01", 3, math.NaN()},
		{"2020-04-01", math.NaN(), 40},
	}
	for i, tc := range cases {
		m := got[i]
		if m.Date.ISO(true) != tc.date {
			t.Errorf("[%d] date: expected %s, got %s", i, tc.date, m.Date)
		}
		if !sameValue(m.Left, tc.left) || !sameValue(m.Right, tc.right) {
			t.Errorf("[%d] values: expected (%v, %v), got (%v, %v)", i, tc.left, tc.right, m.Left, m.Right)
		}
	}
}

func TestMergeEmptySide(t *testing.T) {
	got := table.Merge(nil, []model.Row{row("2020-01-01", 1)})
	if len(got) != 1 || !math.IsNaN(got[0].Left) || got[0].Right != 1 {
		t.Errorf("unexpected merge with empty left: %+v", got)
	}
	if got := table.Merge(nil, nil); len(got) != 0 {
		t.Errorf("expected empty merge, got %d rows", len(got))
	}
}

func sameValue(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}

// ─── Filter ───────────────────────────────────────────────────────────────────

func TestFilter(t *testing.T) {
	rows := []model.Row{
		row("2020-01-01", 1),
		row("2020-02-01", math.NaN()),
		row("2020-03-01", 3),
		row("2020-04-01", 4),
	}

	opts := table.NoBounds()
	opts.After = timeval.MustParseTimestamp("2020-01-01")
	if got := dates(table.Filter(rows, opts)); len(got) != 3 || got[0] != "2020-02-01" {
		t.Errorf("After is exclusive: got %v", got)
	}

	opts = table.NoBounds()
	opts.Before = timeval.MustParseTimestamp("2020-04-01")
	opts.DropMissing = true
	if got := dates(table.Filter(rows, opts)); !equalStrings(got, []string{"2020-01-01", "2020-03-01"}) {
		t.Errorf("Before + DropMissing: got %v", got)
	}

	opts = table.NoBounds()
	opts.MinValue = 3
	if got := dates(table.Filter(rows, opts)); !equalStrings(got, []string{"2020-02-01", "2020-03-01", "2020-04-01"}) {
		t.Errorf("MinValue keeps missing rows: got %v", got)
	}

	if got := table.Filter(rows, table.NoBounds()); len(got) != len(rows) {
		t.Errorf("NoBounds should keep every row, got %d", len(got))
	}
}

// ─── Spacing ──────────────────────────────────────────────────────────────────

func TestSpan(t *testing.T) {
	rows := []model.Row{row("2020-03-01", 0), row("2020-01-01", 0), row("2020-02-01T06:00:00", 0)}
	d, err := table.Span(rows)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.ISO(true); got != "P8W4D" {
		t.Errorf("Span: expected P8W4D (60 days), got %s", got)
	}
	if _, err := table.Span(nil); err == nil {
		t.Error("Span of no rows: expected error")
	}
}

func TestIntervals(t *testing.T) {
	rows := []model.Row{row("2020-01-03", 0), row("2020-01-01", 0), row("2020-01-01T12:00:00", 0)}
	gaps, err := table.Intervals(rows)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"PT12H", "P1DT12H"}
	for i, g := range gaps {
		if g.Gap.ISO(true) != want[i] {
			t.Errorf("gap %d: expected %s, got %s", i, want[i], g.Gap)
		}
	}
	if gaps[0].From.ISO(true) != "2020-01-01" || gaps[1].To.ISO(true) != "2020-01-03" {
		t.Errorf("gap endpoints: %+v", gaps)
	}
	if _, err := table.Intervals(rows[:1]); err == nil {
		t.Error("Intervals of one row: expected error")
	}
}

func TestShift(t *testing.T) {
	rows := []model.Row{row("2020-02-28", 1), row("2020-12-31T18:00:00", 2)}
	got, err := table.Shift(rows, timeval.MustParseDuration("P1DT6H"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2020-02-29T06:00:00", "2021-01-02"}
	if !equalStrings(dates(got), want) {
		t.Errorf("Shift: expected %v, got %v", want, dates(got))
	}

	_, err = table.Shift([]model.Row{row("9999-12-31", 0)}, timeval.MustParseDuration("P1D"))
	if !errors.Is(err, timeval.ErrInvalidCalendarDate) {
		t.Errorf("Shift past year 9999: expected invalid date, got %v", err)
	}
}
