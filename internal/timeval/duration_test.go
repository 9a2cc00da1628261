package timeval_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/derickschaefer/timetools/internal/timeval"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

type triple struct {
	days          int64
	seconds, usec int
}

func tripleOf(d timeval.Duration) triple {
	days, secs, us := d.Triple()
	return triple{days, secs, us}
}

func mustDuration(t *testing.T, in timeval.Input) timeval.Duration {
	t.Helper()
	d, err := timeval.ParseDuration(in)
	if err != nil {
		t.Fatalf("ParseDuration(%v): %v", in, err)
	}
	return d
}

// components exposes a normalized triple the way a foreign time-delta type would.
type components struct{ d, s, us int }

func (c components) Days() int         { return c.d }
func (c components) Seconds() int      { return c.s }
func (c components) Microseconds() int { return c.us }

type totalSeconds float64

func (t totalSeconds) TotalSeconds() float64 { return float64(t) }

type converter struct{ to any }

func (c converter) ToDuration() any { return c.to }

type loop struct{}

func (loop) ToDuration() any { return loop{} }

// ─── Parsing ──────────────────────────────────────────────────────────────────

func TestParseDuration_AllShapesAgree(t *testing.T) {
	want := triple{12, 1245, 123}
	inputs := []struct {
		name string
		in   timeval.Input
	}{
		{"iso string", timeval.StringInput("P12DT20M45.000123S")},
		{"lower case iso", timeval.StringInput("p12dt20m45.000123s")},
		{"three tuple", timeval.TupleInput{12, 1245, 123}},
		{"mapping", timeval.MappingInput{"days": 12, "seconds": 1245, "microseconds": 123}},
		{"mapping of ints", timeval.DurationOf(map[string]int{"Days": 12, "Seconds": 1245, "Microseconds": 123})},
		{"components", timeval.ForeignObjectInput{Value: components{12, 1245, 123}}},
		{"std duration", timeval.DurationOf(12*24*time.Hour + 1245*time.Second + 123*time.Microsecond)},
		{"total seconds", timeval.ForeignObjectInput{Value: totalSeconds(12*86400 + 1245.000123)}},
		{"converter", timeval.ForeignObjectInput{Value: converter{"P12DT20M45.000123S"}}},
		{"nested converter", timeval.ForeignObjectInput{Value: converter{converter{components{12, 1245, 123}}}}},
		{"native", timeval.DurationOf(timeval.NewDuration(12, 1245, 123))},
		{"full iso", timeval.StringInput("P00Y01W05DT00H20M45.000123S")},
	}
	for _, tc := range inputs {
		t.Run(tc.name, func(t *testing.T) {
			if got := tripleOf(mustDuration(t, tc.in)); got != want {
				t.Errorf("expected %+v, got %+v", want, got)
			}
		})
	}
}

func TestParseDuration_ISOFields(t *testing.T) {
	cases := []struct {
		in   string
		want triple
	}{
		{"P1Y", triple{365, 0, 0}},
		{"P2M", triple{60, 0, 0}},
		{"P1W", triple{7, 0, 0}},
		{"PT1H1M1S", triple{0, 3661, 0}},
		{"P1.5D", triple{1, 43200, 0}},
		{"PT0,5S", triple{0, 0, 500000}},
		{"-P1D", triple{-1, 0, 0}},
		{"-PT1S", triple{-1, 86399, 0}},
		{"-P1DT1H", triple{-2, 82800, 0}},
		{"PT0S", triple{0, 0, 0}},
		{"  P3D  ", triple{3, 0, 0}},
	}
	for _, tc := range cases {
		d := mustDuration(t, timeval.StringInput(tc.in))
		if got := tripleOf(d); got != tc.want {
			t.Errorf("ParseDuration(%q): expected %+v, got %+v", tc.in, tc.want, got)
		}
	}
}

func TestParseDuration_Interval(t *testing.T) {
	cases := []struct {
		in   string
		want triple
	}{
		{"2019-05-06/2019-05-08T12:00:00", triple{2, 43200, 0}},
		{"2019-05-08/2019-05-06", triple{-2, 0, 0}},
		{"2019-05-06/P1DT2H", triple{1, 7200, 0}},
		{"PT2H/2019-05-06", triple{0, 7200, 0}},
	}
	for _, tc := range cases {
		d := mustDuration(t, timeval.StringInput(tc.in))
		if got := tripleOf(d); got != tc.want {
			t.Errorf("ParseDuration(%q): expected %+v, got %+v", tc.in, tc.want, got)
		}
	}
}

func TestParseDuration_Clock(t *testing.T) {
	cases := []struct {
		in   string
		want triple
	}{
		{"08:37:09.07", triple{0, 31029, 70000}},
		{"37:09", triple{0, 2229, 0}},
		{"26:00:00", triple{1, 7200, 0}},
		{"-00:00:01", triple{-1, 86399, 0}},
	}
	for _, tc := range cases {
		d := mustDuration(t, timeval.StringInput(tc.in))
		if got := tripleOf(d); got != tc.want {
			t.Errorf("ParseDuration(%q): expected %+v, got %+v", tc.in, tc.want, got)
		}
	}
}

func TestParseDuration_LegacyTuple(t *testing.T) {
	// days_total = days + 365*years + 30*seconds; months are ignored
	d := mustDuration(t, timeval.TupleInput{1, 2, 3, 4, 5, 6})
	if got, want := tripleOf(d), (triple{548, 14706, 0}); got != want {
		t.Errorf("six tuple: expected %+v, got %+v", want, got)
	}
	d = mustDuration(t, timeval.TupleInput{1, 2, 3, 4, 5, 6, 0.5})
	if got, want := tripleOf(d), (triple{548, 14706, 500000}); got != want {
		t.Errorf("fractional micros: expected %+v, got %+v", want, got)
	}
	d = mustDuration(t, timeval.TupleInput{0, 0, 0, 0, 0, 0, 250})
	if got, want := tripleOf(d), (triple{0, 0, 250}); got != want {
		t.Errorf("integer micros: expected %+v, got %+v", want, got)
	}
	// anything below 1, negatives included, is read as seconds
	d = mustDuration(t, timeval.TupleInput{0, 0, 0, 0, 0, 0, -5})
	if got, want := tripleOf(d), (triple{-1, 86395, 0}); got != want {
		t.Errorf("negative micros: expected %+v, got %+v", want, got)
	}
}

func TestParseDuration_MaxDays(t *testing.T) {
	for _, in := range []timeval.Input{
		timeval.NumericInput{Value: timeval.MaxDays, Unit: "days"},
		timeval.MappingInput{"days": timeval.MaxDays - 1, "hours": 24},
	} {
		d := mustDuration(t, in)
		if got, want := tripleOf(d), (triple{timeval.MaxDays, 0, 0}); got != want {
			t.Errorf("ParseDuration(%v): expected %+v, got %+v", in, want, got)
		}
	}
	d := mustDuration(t, timeval.StringInput("-P999999999D"))
	if got, want := tripleOf(d), (triple{-timeval.MaxDays, 0, 0}); got != want {
		t.Errorf("negative bound: expected %+v, got %+v", want, got)
	}
}

func TestParseDuration_MappingAndUnits(t *testing.T) {
	cases := []struct {
		name string
		in   timeval.Input
		want triple
	}{
		{"hours and minutes", timeval.MappingInput{"hours": 1.5, "minutes": 30}, triple{0, 7200, 0}},
		{"weeks accumulate", timeval.MappingInput{"weeks": 1, "days": 1}, triple{8, 0, 0}},
		{"milliseconds", timeval.MappingInput{"milliseconds": 1500}, triple{0, 1, 500000}},
		{"months and years", timeval.MappingInput{"months": 1, "years": 1}, triple{395, 0, 0}},
		{"minutes unit", timeval.NumericInput{Value: 90, Unit: "minutes"}, triple{0, 5400, 0}},
		{"singular unit", timeval.NumericInput{Value: 1, Unit: "Hour"}, triple{0, 3600, 0}},
		{"years unit", timeval.NumericInput{Value: 2, Unit: "years"}, triple{730, 0, 0}},
		{"negative seconds", timeval.NumericInput{Value: -1.5, Unit: "seconds"}, triple{-1, 86398, 500000}},
		{"bare float is seconds", timeval.DurationOf(2.25), triple{0, 2, 250000}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tripleOf(mustDuration(t, tc.in)); got != tc.want {
				t.Errorf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestParseDuration_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   timeval.Input
		want error
	}{
		{"ratio", timeval.StringInput("3/4"), timeval.ErrAmbiguousFormatUnresolved},
		{"garbage", timeval.StringInput("hello"), timeval.ErrUnrecognizedFormat},
		{"empty designator", timeval.StringInput("P"), timeval.ErrUnrecognizedFormat},
		{"bare T", timeval.StringInput("PT"), timeval.ErrUnrecognizedFormat},
		{"three part interval", timeval.StringInput("2019-01-01/2019-02-01/2019-03-01"), timeval.ErrUnrecognizedFormat},
		{"bad interval date", timeval.StringInput("2019-02-30/2019-03-01"), timeval.ErrInvalidCalendarDate},
		{"tuple length", timeval.TupleInput{1, 2}, timeval.ErrUnrecognizedFormat},
		{"unknown key", timeval.MappingInput{"fortnights": 1}, timeval.ErrUnrecognizedFormat},
		{"empty mapping", timeval.MappingInput{}, timeval.ErrMissingRequiredField},
		{"missing unit", timeval.NumericInput{Value: 1}, timeval.ErrMissingRequiredField},
		{"unknown unit", timeval.NumericInput{Value: 1, Unit: "parsecs"}, timeval.ErrUnrecognizedFormat},
		{"not finite", timeval.NumericInput{Value: math.Inf(1), Unit: "days"}, timeval.ErrUnrecognizedFormat},
		{"huge years", timeval.StringInput("P99999999999999999999Y"), timeval.ErrUnrecognizedFormat},
		{"huge clock", timeval.StringInput("99999999999999999999:00:00"), timeval.ErrUnrecognizedFormat},
		{"NaN mapping", timeval.MappingInput{"seconds": math.NaN()}, timeval.ErrUnrecognizedFormat},
		{"NaN tuple", timeval.TupleInput{0, math.NaN(), 0}, timeval.ErrUnrecognizedFormat},
		{"past max days", timeval.NumericInput{Value: timeval.MaxDays + 1, Unit: "days"}, timeval.ErrUnrecognizedFormat},
		{"huge total seconds", timeval.ForeignObjectInput{Value: totalSeconds(1e20)}, timeval.ErrUnrecognizedFormat},
		{"foreign", timeval.ForeignObjectInput{Value: struct{}{}}, timeval.ErrUnsupportedDurationSource},
		{"conversion loop", timeval.ForeignObjectInput{Value: loop{}}, timeval.ErrUnsupportedDurationSource},
		{"nil", nil, timeval.ErrUnsupportedDurationSource},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := timeval.ParseDuration(tc.in)
			if err == nil {
				t.Fatalf("expected error, got %s", d)
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
			if !d.IsZero() {
				t.Errorf("expected zero value alongside error, got %s", d)
			}
		})
	}
}

// ─── Formatting ───────────────────────────────────────────────────────────────

func TestDuration_ISO(t *testing.T) {
	cases := []struct {
		d             timeval.Duration
		compact, full string
	}{
		{timeval.NewDuration(12, 1245, 123), "P1W5DT20M45.000123S", "P00Y01W05DT00H20M45.000123S"},
		{timeval.Duration{}, "PT0S", "P00Y00W00DT00H00M00S"},
		{timeval.NewDuration(0, 31029.070428, 0), "PT8H37M9.070428S", "P00Y00W00DT08H37M09.070428S"},
		{timeval.NewDuration(400, 0, 0), "P1Y5W", "P01Y05W00DT00H00M00S"},
		{timeval.NewDuration(0, -1, 0), "-PT1S", "-P00Y00W00DT00H00M01S"},
		{timeval.NewDuration(0, 0, 500000), "PT0.5S", "P00Y00W00DT00H00M00.5S"},
	}
	for _, tc := range cases {
		if got := tc.d.ISO(true); got != tc.compact {
			t.Errorf("ISO(compact): expected %q, got %q", tc.compact, got)
		}
		if got := tc.d.ISO(false); got != tc.full {
			t.Errorf("ISO(full): expected %q, got %q", tc.full, got)
		}
	}
}

func TestDuration_Standard(t *testing.T) {
	cases := []struct {
		d    timeval.Duration
		want string
	}{
		{timeval.NewDuration(0, 31029.070428, 0), "08:37:09.07"},
		{timeval.FromStd(26 * time.Hour), "26:00:00.00"},
		{timeval.NewDuration(0, 59.996, 0), "00:01:00.00"},
		{timeval.NewDuration(0, -90, 0), "-00:01:30.00"},
		{timeval.Duration{}, "00:00:00.00"},
	}
	for _, tc := range cases {
		if got := tc.d.Standard(); got != tc.want {
			t.Errorf("Standard: expected %q, got %q", tc.want, got)
		}
	}
}

func TestDuration_Breakdown(t *testing.T) {
	d := timeval.NewDuration(12, 1245, 123)
	b := d.Breakdown()
	want := timeval.Breakdown{Years: 0, Weeks: 1, Days: 5, Hours: 0, Minutes: 20, Seconds: 45, Microseconds: 123}
	if b != want {
		t.Errorf("Breakdown: expected %+v, got %+v", want, b)
	}
	if got := b.FractionalSeconds(); math.Abs(got-45.000123) > 1e-9 {
		t.Errorf("FractionalSeconds: expected 45.000123, got %v", got)
	}
	if got := b.Compact(); got != "1w 5d 20m 45.000123s" {
		t.Errorf("Compact: got %q", got)
	}

	neg := d.Neg().Breakdown()
	if !neg.Negative || neg.Weeks != 1 || neg.Days != 5 {
		t.Errorf("negative breakdown should mirror the absolute value, got %+v", neg)
	}
	for _, v := range []timeval.Duration{d, d.Neg(), {}, timeval.NewDuration(1000, 86399, 999999)} {
		if got := v.Breakdown().Duration(); got != v {
			t.Errorf("Breakdown round trip: expected %s, got %s", v, got)
		}
	}
}

// ─── Properties ───────────────────────────────────────────────────────────────

func TestDuration_RoundTrip(t *testing.T) {
	values := []timeval.Duration{
		{},
		timeval.NewDuration(12, 1245, 123),
		timeval.NewDuration(0, 0, -1),
		timeval.NewDuration(400, 3661, 5),
		timeval.NewDuration(10000, 0, 0),
		timeval.NewDuration(-3, 12.5, 0),
		timeval.NewDuration(0, 31029.070428, 0),
	}
	for _, d := range values {
		for _, compact := range []bool{false, true} {
			s := d.ISO(compact)
			got := mustDuration(t, timeval.StringInput(s))
			if got != d {
				t.Errorf("round trip of %q: expected %+v, got %+v", s, tripleOf(d), tripleOf(got))
			}
			again := mustDuration(t, timeval.StringInput(got.ISO(compact)))
			if again != got {
				t.Errorf("re-parse of %q is not idempotent", s)
			}
		}
	}
}

func TestDuration_StandardRoundTrip(t *testing.T) {
	d := timeval.NewDuration(0, 31029.07, 0)
	got := mustDuration(t, timeval.StringInput(d.Standard()))
	if got != d {
		t.Errorf("expected %+v, got %+v", tripleOf(d), tripleOf(got))
	}
}

func TestNewDuration_Normalizes(t *testing.T) {
	cases := []struct {
		days, secs, us float64
		want           triple
	}{
		{0, 86400, 0, triple{1, 0, 0}},
		{0, 0, -1, triple{-1, 86399, 999999}},
		{0.5, 0, 0, triple{0, 43200, 0}},
		{0, 0, 0.5, triple{0, 0, 0}},
		{0, 0, 1.5, triple{0, 0, 2}},
		{-1, 86400, 0, triple{0, 0, 0}},
	}
	for _, tc := range cases {
		if got := tripleOf(timeval.NewDuration(tc.days, tc.secs, tc.us)); got != tc.want {
			t.Errorf("NewDuration(%v, %v, %v): expected %+v, got %+v", tc.days, tc.secs, tc.us, tc.want, got)
		}
	}
}

// ─── Arithmetic ───────────────────────────────────────────────────────────────

func TestDuration_Arithmetic(t *testing.T) {
	hour := timeval.MustParseDuration("PT1H")
	half := timeval.MustParseDuration("PT30M")

	if got := hour.Add(half).ISO(true); got != "PT1H30M" {
		t.Errorf("Add: got %q", got)
	}
	if got := half.Sub(hour).ISO(true); got != "-PT30M" {
		t.Errorf("Sub: got %q", got)
	}
	if got := hour.Mul(2.5).ISO(true); got != "PT2H30M" {
		t.Errorf("Mul: got %q", got)
	}
	q, err := hour.Div(4)
	if err != nil || q.ISO(true) != "PT15M" {
		t.Errorf("Div: got %q, %v", q, err)
	}
	if _, err := hour.Div(0); err == nil {
		t.Error("Div by zero: expected error")
	}
	if r := hour.Ratio(half); r != 2 {
		t.Errorf("Ratio: expected 2, got %v", r)
	}
	if hour.Compare(half) != 1 || half.Compare(hour) != -1 || hour.Compare(hour) != 0 {
		t.Error("Compare ordering is wrong")
	}
	if !half.Neg().Less(half) || half.Neg().Abs() != half {
		t.Error("Neg/Abs/Less disagree")
	}
	if got := hour.Std(); got != time.Hour {
		t.Errorf("Std: expected 1h, got %v", got)
	}
	if got := timeval.NewDuration(1e6, 0, 0).Std(); got != time.Duration(math.MaxInt64) {
		t.Errorf("Std should saturate, got %v", got)
	}
	if got := timeval.NewDuration(12, 0, 0).TotalYears(); math.Abs(got-12.0/365) > 1e-12 {
		t.Errorf("TotalYears: got %v", got)
	}
}

// ─── Encoding ─────────────────────────────────────────────────────────────────

func TestDuration_JSON(t *testing.T) {
	in := struct {
		D timeval.Duration `json:"d"`
	}{timeval.NewDuration(12, 1245, 123)}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"d":"P1W5DT20M45.000123S"}` {
		t.Errorf("Marshal: got %s", b)
	}

	var out struct {
		D timeval.Duration `json:"d"`
	}
	if err := json.Unmarshal(b, &out); err != nil || out.D != in.D {
		t.Errorf("Unmarshal: got %s, %v", out.D, err)
	}
	if err := json.Unmarshal([]byte(`{"d":90}`), &out); err != nil || out.D.ISO(true) != "PT1M30S" {
		t.Errorf("Unmarshal seconds: got %s, %v", out.D, err)
	}
	if err := json.Unmarshal([]byte(`{"d":"3/4"}`), &out); !errors.Is(err, timeval.ErrAmbiguousFormatUnresolved) {
		t.Errorf("Unmarshal ratio: expected ambiguous error, got %v", err)
	}
}

func TestDuration_YAML(t *testing.T) {
	in := map[string]timeval.Duration{"d": timeval.NewDuration(2, 30, 0)}
	b, err := yaml.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]timeval.Duration
	if err := yaml.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out["d"] != in["d"] {
		t.Errorf("YAML round trip: expected %s, got %s", in["d"], out["d"])
	}
}
