package timeval

import (
	"fmt"
	"time"
)

// Input is the closed set of raw shapes the parsers accept.
type Input interface {
	isInput()
}

// StringInput is textual input: ISO strings, intervals, numeric and verbal dates.
type StringInput string

// TupleInput is a positional sequence of numbers.
type TupleInput []float64

// MappingInput is a set of named numeric components.
type MappingInput map[string]float64

// NumericInput is a bare number with an optional unit keyword.
// For timestamps the number is a spreadsheet serial.
type NumericInput struct {
	Value float64
	Unit  string
}

// ForeignObjectInput wraps any other Go value. The parsers probe it for
// the capability interfaces below.
type ForeignObjectInput struct {
	Value any
}

func (StringInput) isInput()        {}
func (TupleInput) isInput()         {}
func (MappingInput) isInput()       {}
func (NumericInput) isInput()       {}
func (ForeignObjectInput) isInput() {}

func (t TupleInput) String() string   { return fmt.Sprint([]float64(t)) }
func (n NumericInput) String() string { return fmt.Sprintf("%g %s", n.Value, n.Unit) }

// ─── Capabilities ─────────────────────────────────────────────────────────────

// HasDurationComponents is implemented by values that already carry a
// normalized (days, seconds, microseconds) triple.
type HasDurationComponents interface {
	Days() int
	Seconds() int
	Microseconds() int
}

// HasTotalSeconds is implemented by values that can report their length in seconds.
type HasTotalSeconds interface {
	TotalSeconds() float64
}

// ConvertibleToDuration is implemented by values that convert to some other
// supported duration source.
type ConvertibleToDuration interface {
	ToDuration() any
}

// HasDateComponents is required of foreign timestamp sources.
// time.Time satisfies it.
type HasDateComponents interface {
	Year() int
	Month() time.Month
	Day() int
}

// HasTimeComponents is satisfied by sources that also carry a time of day.
// The parser probes each method separately, so partial implementations are
// accepted and missing fields default to zero.
type HasTimeComponents interface {
	Hour() int
	Minute() int
	Second() int
	Microsecond() int
}

type (
	hasHour        interface{ Hour() int }
	hasMinute      interface{ Minute() int }
	hasSecond      interface{ Second() int }
	hasMicrosecond interface{ Microsecond() int }
	hasNanosecond  interface{ Nanosecond() int }
)

// ─── Classification ───────────────────────────────────────────────────────────

// DurationOf classifies a raw Go value as duration input.
func DurationOf(v any) Input {
	if in, ok := classify(v); ok {
		return in
	}
	switch x := v.(type) {
	case float64:
		return NumericInput{Value: x, Unit: "seconds"}
	case int:
		return NumericInput{Value: float64(x), Unit: "seconds"}
	}
	return ForeignObjectInput{Value: v}
}

// TimestampOf classifies a raw Go value as timestamp input. Plain numbers
// are spreadsheet serials.
func TimestampOf(v any) Input {
	if in, ok := classify(v); ok {
		return in
	}
	switch x := v.(type) {
	case float64:
		return NumericInput{Value: x}
	case int:
		return NumericInput{Value: float64(x)}
	}
	return ForeignObjectInput{Value: v}
}

func classify(v any) (Input, bool) {
	switch x := v.(type) {
	case Input:
		return x, true
	case string:
		return StringInput(x), true
	case []float64:
		return TupleInput(x), true
	case []int:
		t := make(TupleInput, len(x))
		for i, n := range x {
			t[i] = float64(n)
		}
		return t, true
	case map[string]float64:
		return MappingInput(x), true
	case map[string]int:
		m := make(MappingInput, len(x))
		for k, n := range x {
			m[k] = float64(n)
		}
		return m, true
	}
	return nil, false
}
