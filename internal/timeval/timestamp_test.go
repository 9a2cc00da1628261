package timeval_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/derickschaefer/timetools/internal/detect"
	"github.com/derickschaefer/timetools/internal/timeval"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

func mustTimestamp(t *testing.T, in timeval.Input, opts ...timeval.Option) timeval.Timestamp {
	t.Helper()
	ts, err := timeval.ParseTimestamp(in, opts...)
	if err != nil {
		t.Fatalf("ParseTimestamp(%v): %v", in, err)
	}
	return ts
}

// dateOnly has calendar fields and nothing else.
type dateOnly struct{}

func (dateOnly) Year() int         { return 2019 }
func (dateOnly) Month() time.Month { return time.May }
func (dateOnly) Day() int          { return 6 }

// withClock adds a partial time of day.
type withClock struct{ dateOnly }

func (withClock) Hour() int        { return 7 }
func (withClock) Microsecond() int { return 42 }

// ─── Parsing ──────────────────────────────────────────────────────────────────

func TestParseTimestamp_Dates(t *testing.T) {
	want := [7]int{2019, 5, 6, 0, 0, 0, 0}
	inputs := []timeval.Input{
		timeval.StringInput("2019-05-06"),
		timeval.StringInput("2019-5-6"),
		timeval.StringInput("05/06/2019"),
		timeval.StringInput("5.6.19"),
		timeval.StringInput("may 6, 2019"),
		timeval.StringInput("06 may 2019"),
		timeval.StringInput("6th May 2019"),
		timeval.StringInput("Monday, May 6th, 2019"),
		timeval.StringInput("May 6 2019"),
		timeval.StringInput("20190506"),
		timeval.StringInput("190506"),
		timeval.TupleInput{2019, 5, 6},
		timeval.TimestampOf([]int{2019, 5, 6, 0, 0, 0}),
		timeval.MappingInput{"year": 2019, "month": 5, "day": 6},
		timeval.TimestampOf(map[string]int{"Year": 2019, "Month": 5, "Day": 6}),
		timeval.TimestampOf(43591),
		timeval.ForeignObjectInput{Value: dateOnly{}},
		timeval.ForeignObjectInput{Value: time.Date(2019, 5, 6, 0, 0, 0, 0, time.UTC)},
	}
	for _, in := range inputs {
		if got := mustTimestamp(t, in).Tuple(); got != want {
			t.Errorf("ParseTimestamp(%v): expected %v, got %v", in, want, got)
		}
	}
}

func TestParseTimestamp_Scenarios(t *testing.T) {
	a := mustTimestamp(t, timeval.StringInput("2018-02-27"))
	if got := a.Tuple(); got != [7]int{2018, 2, 27, 0, 0, 0, 0} {
		t.Errorf("ISO date: got %v", got)
	}
	b := mustTimestamp(t, timeval.StringInput("Feb 27, 2018"))
	if !a.Equal(b) {
		t.Errorf("verbal date: expected %s, got %s", a, b)
	}
	c := mustTimestamp(t, timeval.TupleInput{2019, 5, 6, 0, 14, 26, 246155})
	if got := c.Tuple(); got != [7]int{2019, 5, 6, 0, 14, 26, 246155} {
		t.Errorf("tuple: got %v", got)
	}
	d := mustTimestamp(t, timeval.StringInput("05/06/2019"))
	if d.Month() != time.May || d.Day() != 6 {
		t.Errorf("ambiguous date should read American, got %s", d)
	}
}

func TestParseTimestamp_NumericOrder(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"13/02/2020", "2020-02-13"},
		{"02/13/2020", "2020-02-13"},
		{"2020/02/13", "2020-02-13"},
		{"07/04/18", "2018-07-04"},
		{"25.12.99", "1999-12-25"},
		{"Sept 6, 2019", "2019-09-06"},
		{"17-Dec-2012", "2012-12-17"},
		{"05/06/2019 10:30", "2019-05-06T10:30:00"},
		{"05/06/2019 10:30:15.5", "2019-05-06T10:30:15.500000"},
	}
	for _, tc := range cases {
		if got := mustTimestamp(t, timeval.StringInput(tc.in)).ISO(true); got != tc.want {
			t.Errorf("ParseTimestamp(%q): expected %s, got %s", tc.in, tc.want, got)
		}
	}

	eu := mustTimestamp(t, timeval.StringInput("05/06/2019"), timeval.WithOrder(detect.OrderEuropean))
	if got := eu.ISO(true); got != "2019-06-05" {
		t.Errorf("forced European order: got %s", got)
	}
}

func TestParseTimestamp_TimeOfDay(t *testing.T) {
	cases := []struct {
		in   timeval.Input
		want [7]int
	}{
		{timeval.StringInput("2019-05-06T00:14:26.246155"), [7]int{2019, 5, 6, 0, 14, 26, 246155}},
		{timeval.StringInput("2019-05-06 10:30"), [7]int{2019, 5, 6, 10, 30, 0, 0}},
		{timeval.StringInput("2019-05-06T10:30:00,5Z"), [7]int{2019, 5, 6, 10, 30, 0, 500000}},
		{timeval.StringInput("2019-05-06T10:30:00.1234567"), [7]int{2019, 5, 6, 10, 30, 0, 123456}},
		{timeval.StringInput("Feb 27, 2018 13:45:10"), [7]int{2018, 2, 27, 13, 45, 10, 0}},
		{timeval.StringInput("May 6th 2019 5:45pm"), [7]int{2019, 5, 6, 17, 45, 0, 0}},
		{timeval.StringInput("Dec 17, 2012 12:30 PM"), [7]int{2012, 12, 17, 12, 30, 0, 0}},
		{timeval.StringInput("6 May 2019 12am"), [7]int{2019, 5, 6, 0, 0, 0, 0}},
		{timeval.StringInput("05/06/2019 5:45:30 p.m."), [7]int{2019, 5, 6, 17, 45, 30, 0}},
		{timeval.TimestampOf(43591.5), [7]int{2019, 5, 6, 12, 0, 0, 0}},
		{timeval.NumericInput{Value: 43591.25, Unit: "days"}, [7]int{2019, 5, 6, 6, 0, 0, 0}},
		{timeval.MappingInput{"year": 2019, "month": 5, "day": 6, "hour": 1, "microsecond": 7}, [7]int{2019, 5, 6, 1, 0, 0, 7}},
		{timeval.ForeignObjectInput{Value: withClock{}}, [7]int{2019, 5, 6, 7, 0, 0, 42}},
		{timeval.ForeignObjectInput{Value: time.Date(2019, 5, 6, 0, 14, 26, 246155999, time.UTC)}, [7]int{2019, 5, 6, 0, 14, 26, 246155}},
	}
	for _, tc := range cases {
		if got := mustTimestamp(t, tc.in).Tuple(); got != tc.want {
			t.Errorf("ParseTimestamp(%v): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestParseTimestamp_Offset(t *testing.T) {
	a := mustTimestamp(t, timeval.StringInput("2019-05-06T10:00:00+02:00"))
	b := mustTimestamp(t, timeval.StringInput("2019-05-06T10:00:00"))
	if a != b || !a.Equal(b) {
		t.Errorf("offset must not affect equality: %v vs %v", a, b)
	}
	c := mustTimestamp(t, timeval.StringInput("2018-02-27T10:00:00 UTC"))
	if got, want := c.Tuple(), [7]int{2018, 2, 27, 10, 0, 0, 0}; got != want {
		t.Errorf("UTC suffix: expected %v, got %v", want, got)
	}

	cases := []struct{ in, want string }{
		{"2019-05-06T10:00:00+02:00", "+02:00"},
		{"2019-05-06T10:00:00z", "Z"},
		{"2018-02-27T10:00:00 UTC", "Z"},
		{"2018-02-27 10:00 gmt", "Z"},
		{"2019-05-06T10:00:00", ""},
		{"6 May 2019", ""},
	}
	for _, tc := range cases {
		if got := timeval.OffsetOf(tc.in); got != tc.want {
			t.Errorf("OffsetOf(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestParseTimestamp_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   timeval.Input
		want error
	}{
		{"april 31", timeval.StringInput("2019-04-31"), timeval.ErrInvalidCalendarDate},
		{"month 13", timeval.StringInput("2019-13-01"), timeval.ErrInvalidCalendarDate},
		{"not a leap year", timeval.StringInput("2019-02-29"), timeval.ErrInvalidCalendarDate},
		{"hour 24", timeval.StringInput("2019-02-01T24:00:00"), timeval.ErrInvalidCalendarDate},
		{"numeric out of range", timeval.StringInput("31/31/2019"), timeval.ErrInvalidCalendarDate},
		{"unknown month", timeval.StringInput("Smarch 5, 2019"), timeval.ErrUnrecognizedFormat},
		{"words", timeval.StringInput("hello world"), timeval.ErrUnrecognizedFormat},
		{"empty", timeval.StringInput("  "), timeval.ErrUnrecognizedFormat},
		{"two groups", timeval.StringInput("05/06"), timeval.ErrUnrecognizedFormat},
		{"bad time", timeval.StringInput("05/06/2019 noon"), timeval.ErrUnrecognizedFormat},
		{"verbal trailing words", timeval.StringInput("May 6 2019 garbage"), timeval.ErrUnrecognizedFormat},
		{"verbal hour past twelve", timeval.StringInput("May 6th 2019 13pm"), timeval.ErrUnrecognizedFormat},
		{"verbal five digit year", timeval.StringInput("May 6 20190"), timeval.ErrUnrecognizedFormat},
		{"numeric zero pm", timeval.StringInput("05/06/2019 0:30pm"), timeval.ErrUnrecognizedFormat},
		{"fractional tuple", timeval.TupleInput{2019, 5, 6.5}, timeval.ErrInvalidCalendarDate},
		{"tuple length", timeval.TupleInput{2019, 5, 6, 1}, timeval.ErrUnrecognizedFormat},
		{"missing day", timeval.MappingInput{"year": 2019, "month": 5}, timeval.ErrMissingRequiredField},
		{"unknown key", timeval.MappingInput{"year": 2019, "month": 5, "day": 6, "era": 1}, timeval.ErrUnrecognizedFormat},
		{"serial unit", timeval.NumericInput{Value: 43591, Unit: "seconds"}, timeval.ErrUnrecognizedFormat},
		{"serial NaN", timeval.NumericInput{Value: math.NaN()}, timeval.ErrInvalidCalendarDate},
		{"serial before year one", timeval.NumericInput{Value: -700000}, timeval.ErrInvalidCalendarDate},
		{"foreign", timeval.ForeignObjectInput{Value: struct{ Year int }{2019}}, timeval.ErrUnsupportedTimestampSource},
		{"nil", nil, timeval.ErrUnsupportedTimestampSource},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts, err := timeval.ParseTimestamp(tc.in)
			if err == nil {
				t.Fatalf("expected error, got %s", ts)
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

// ─── Formatting ───────────────────────────────────────────────────────────────

func TestTimestamp_ISO(t *testing.T) {
	midnight := timeval.MustTimestamp(2018, 2, 27, 0, 0, 0, 0)
	if got := midnight.ISO(true); got != "2018-02-27" {
		t.Errorf("compact midnight: got %q", got)
	}
	if got := midnight.ISO(false); got != "2018-02-27T00:00:00" {
		t.Errorf("full midnight: got %q", got)
	}
	withMicros := timeval.MustTimestamp(2019, 5, 6, 0, 14, 26, 246155)
	if got := withMicros.ISO(true); got != "2019-05-06T00:14:26.246155" {
		t.Errorf("compact with micros: got %q", got)
	}
	if got := timeval.MustTimestamp(2019, 5, 6, 0, 0, 0, 1).ISO(true); got != "2019-05-06T00:00:00.000001" {
		t.Errorf("one microsecond past midnight is not midnight: got %q", got)
	}
}

func TestTimestamp_YearFraction(t *testing.T) {
	cases := []struct {
		ts   timeval.Timestamp
		want float64
	}{
		{timeval.MustTimestamp(2019, 1, 1, 0, 0, 0, 0), 2019},
		{timeval.MustTimestamp(2019, 2, 14, 0, 0, 0, 0), 2019 + 44.0/365},
		{timeval.MustTimestamp(2020, 12, 30, 0, 0, 0, 0), 2020 + 364.0/365},
		{timeval.MustTimestamp(2020, 12, 31, 0, 0, 0, 0), 2020 + 364.0/365},
	}
	for _, tc := range cases {
		if got := tc.ts.YearFraction(); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("YearFraction(%s): expected %v, got %v", tc.ts, tc.want, got)
		}
	}
}

func TestTimestamp_RoundTrip(t *testing.T) {
	values := []timeval.Timestamp{
		timeval.MustTimestamp(2018, 2, 27, 0, 0, 0, 0),
		timeval.MustTimestamp(2019, 5, 6, 0, 14, 26, 246155),
		timeval.MustTimestamp(1, 1, 1, 0, 0, 0, 0),
		timeval.MustTimestamp(9999, 12, 31, 23, 59, 59, 999999),
		timeval.MustTimestamp(2020, 2, 29, 12, 0, 0, 10),
	}
	for _, ts := range values {
		for _, compact := range []bool{false, true} {
			s := ts.ISO(compact)
			got := mustTimestamp(t, timeval.StringInput(s))
			if !got.Equal(ts) {
				t.Errorf("round trip of %q: got %v", s, got.Tuple())
			}
		}
		if got := mustTimestamp(t, timeval.TimestampOf(ts.Map())); !got.Equal(ts) {
			t.Errorf("Map round trip: expected %s, got %s", ts, got)
		}
		tup := ts.Tuple()
		if got := mustTimestamp(t, timeval.TimestampOf(tup[:])); !got.Equal(ts) {
			t.Errorf("Tuple round trip: expected %s, got %s", ts, got)
		}
	}
}

func TestTimestamp_Serial(t *testing.T) {
	ts := timeval.MustTimestamp(2019, 5, 6, 12, 0, 0, 0)
	if got := ts.Serial(); got != 43591.5 {
		t.Errorf("Serial: expected 43591.5, got %v", got)
	}
	if got := mustTimestamp(t, timeval.TimestampOf(ts.Serial())); !got.Equal(ts) {
		t.Errorf("serial round trip: got %s", got)
	}
}

// ─── Arithmetic ───────────────────────────────────────────────────────────────

func TestTimestamp_SubAdd(t *testing.T) {
	a := timeval.MustParseTimestamp("2019-05-06")
	b := timeval.MustParseTimestamp("2019-05-08T12:00:00")

	d := b.Sub(a)
	if got := d.ISO(true); got != "P2DT12H" {
		t.Errorf("Sub: got %q", got)
	}
	if got := a.Sub(b); got != d.Neg() {
		t.Errorf("Sub should be antisymmetric, got %s", got)
	}
	back, err := a.Add(d)
	if err != nil || !back.Equal(b) {
		t.Errorf("Add: expected %s, got %s (%v)", b, back, err)
	}
	if _, err := timeval.MustTimestamp(9999, 12, 31, 0, 0, 0, 0).Add(timeval.MustParseDuration("P1D")); !errors.Is(err, timeval.ErrInvalidCalendarDate) {
		t.Errorf("Add past year 9999: expected invalid date, got %v", err)
	}
	if !a.Before(b) || !b.After(a) || a.Compare(a) != 0 {
		t.Error("ordering is wrong")
	}
	if got := a.Std(); !got.Equal(time.Date(2019, 5, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Std: got %v", got)
	}
}

// ─── Encoding ─────────────────────────────────────────────────────────────────

func TestTimestamp_JSON(t *testing.T) {
	ts := timeval.MustTimestamp(2019, 5, 6, 0, 14, 26, 246155)
	b, err := json.Marshal(ts)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2019-05-06T00:14:26.246155"` {
		t.Errorf("Marshal: got %s", b)
	}
	var got timeval.Timestamp
	if err := json.Unmarshal(b, &got); err != nil || !got.Equal(ts) {
		t.Errorf("Unmarshal: got %s, %v", got, err)
	}
	if err := json.Unmarshal([]byte(`43591`), &got); err != nil || got.ISO(true) != "2019-05-06" {
		t.Errorf("Unmarshal serial: got %s, %v", got, err)
	}
	if err := json.Unmarshal([]byte(`"2019-02-30"`), &got); !errors.Is(err, timeval.ErrInvalidCalendarDate) {
		t.Errorf("Unmarshal invalid: got %v", err)
	}
}
