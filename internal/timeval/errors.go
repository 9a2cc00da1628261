package timeval

import (
	"errors"
	"fmt"
)

// Kind is the category of a parse failure.
type Kind int

const (
	UnrecognizedFormat Kind = iota + 1
	AmbiguousFormatUnresolved
	InvalidCalendarDate
	UnsupportedDurationSource
	UnsupportedTimestampSource
	MissingRequiredField
)

var (
	ErrUnrecognizedFormat         = errors.New("unrecognized format")
	ErrAmbiguousFormatUnresolved  = errors.New("ambiguous format unresolved")
	ErrInvalidCalendarDate        = errors.New("invalid calendar date")
	ErrUnsupportedDurationSource  = errors.New("unsupported duration source")
	ErrUnsupportedTimestampSource = errors.New("unsupported timestamp source")
	ErrMissingRequiredField       = errors.New("missing required field")
)

func (k Kind) sentinel() error {
	switch k {
	case UnrecognizedFormat:
		return ErrUnrecognizedFormat
	case AmbiguousFormatUnresolved:
		return ErrAmbiguousFormatUnresolved
	case InvalidCalendarDate:
		return ErrInvalidCalendarDate
	case UnsupportedDurationSource:
		return ErrUnsupportedDurationSource
	case UnsupportedTimestampSource:
		return ErrUnsupportedTimestampSource
	case MissingRequiredField:
		return ErrMissingRequiredField
	}
	return nil
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return "unknown"
}

// ParseError is returned by every parser in this package.
// errors.Is matches it against the sentinel for its Kind.
type ParseError struct {
	Kind   Kind
	Input  string // textual rendering of the offending input
	Detail string
	Err    error // underlying cause, may be nil
}

func (e *ParseError) Error() string {
	msg := e.Kind.String()
	if e.Input != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Input)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (e *ParseError) Unwrap() error { return e.Err }

// KindOf reports the Kind of the first ParseError in err's chain.
func KindOf(err error) (Kind, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

func newError(k Kind, input any, format string, args ...any) *ParseError {
	return &ParseError{Kind: k, Input: describe(input), Detail: fmt.Sprintf(format, args...)}
}

func wrapError(k Kind, input any, err error) *ParseError {
	return &ParseError{Kind: k, Input: describe(input), Err: err}
}

func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case StringInput:
		return string(x)
	}
	return fmt.Sprintf("%v", v)
}
