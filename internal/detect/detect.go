// Package detect classifies raw date and duration strings into one of a
// closed set of formats before they reach a parser. Classification never
// fails: an unusual string is still assigned a format, and the parser for
// that format decides whether it is valid.
package detect

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ─── Duration strings ─────────────────────────────────────────────────────────

// DurationFormat is the shape of a duration string.
type DurationFormat int

const (
	DurationISO      DurationFormat = iota // P[nY][nM][nW][nD][T[nH][nM][nS]]
	DurationRatio                          // "3/4": reserved, never parsed
	DurationInterval                       // <start>/<end>, <start>/<dur>, <dur>/<end>
	DurationClock                          // HH:MM:SS.ss
)

func (f DurationFormat) String() string {
	switch f {
	case DurationISO:
		return "iso"
	case DurationRatio:
		return "ratio"
	case DurationInterval:
		return "interval"
	case DurationClock:
		return "clock"
	}
	return "unknown"
}

// DurationString classifies s. A string without "/" is a single duration;
// with "/" it is a ratio when fewer than three non-digit characters are
// present in total, otherwise an ISO interval.
func DurationString(s string) DurationFormat {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		if countNonDigits(s) < 3 {
			return DurationRatio
		}
		return DurationInterval
	}
	if strings.Contains(s, ":") && !strings.ContainsAny(s, "Pp") {
		return DurationClock
	}
	return DurationISO
}

func countNonDigits(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			n++
		}
	}
	return n
}

// Interval is an ISO interval split into its halves.
// DurationHalf is 0 or 1 when that half lacks a "-" and is therefore a
// duration, or -1 when both halves are timestamps.
type Interval struct {
	Start        string
	End          string
	DurationHalf int
}

// SplitInterval splits "A/B" into its halves. It reports false unless there
// are exactly two non-empty halves.
func SplitInterval(s string) (Interval, bool) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Interval{}, false
	}
	iv := Interval{Start: parts[0], End: parts[1], DurationHalf: -1}
	switch {
	case !strings.Contains(parts[0], "-"):
		iv.DurationHalf = 0
	case !strings.Contains(parts[1], "-"):
		iv.DurationHalf = 1
	}
	return iv, true
}

// ─── Date strings ─────────────────────────────────────────────────────────────

// DateFormat is the shape of a date string.
type DateFormat int

const (
	DateNumeric DateFormat = iota // 07/04/18, 13.02.2020
	DateISO                       // contains ":" or "-"
	DateVerbal                    // contains a month name
	DateCompact                   // 20180227, 180227
)

func (f DateFormat) String() string {
	switch f {
	case DateNumeric:
		return "numeric"
	case DateISO:
		return "iso"
	case DateVerbal:
		return "verbal"
	case DateCompact:
		return "compact"
	}
	return "unknown"
}

var wordPattern = regexp.MustCompile(`[A-Za-z]{3,}`)

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// DateString classifies s. A month name wins over separators, so
// "Dec-17-2012" is verbal rather than ISO; other words such as a "UTC"
// suffix do not make a string verbal.
func DateString(s string) DateFormat {
	s = strings.TrimSpace(s)
	switch {
	case HasMonthName(s):
		return DateVerbal
	case strings.ContainsAny(s, ":-"):
		return DateISO
	case (len(s) == 8 || len(s) == 6) && allDigits(s):
		return DateCompact
	}
	return DateNumeric
}

// HasMonthName reports whether s contains an English month name, or a prefix
// of one at least three letters long ("Dec", "Sept").
func HasMonthName(s string) bool {
	for _, w := range wordPattern.FindAllString(s, -1) {
		w = strings.ToLower(w)
		for _, name := range monthNames {
			if strings.HasPrefix(name, w) {
				return true
			}
		}
	}
	return false
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

var groupPattern = regexp.MustCompile(`\d+`)

// NumericGroups returns the digit groups of s, split on any non-digit
// separator. It reports false when fewer than three groups are present.
func NumericGroups(s string) ([]int, bool) {
	raw := groupPattern.FindAllString(s, -1)
	if len(raw) < 3 {
		return nil, false
	}
	out := make([]int, len(raw))
	for i, g := range raw {
		n, err := strconv.Atoi(g)
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

// ─── Ordering heuristic ───────────────────────────────────────────────────────

// Order is the field ordering of a numeric date.
type Order int

const (
	OrderISO      Order = iota // year, month, day
	OrderAmerican              // month, day, year
	OrderEuropean              // day, month, year
)

func (o Order) String() string {
	switch o {
	case OrderISO:
		return "iso"
	case OrderAmerican:
		return "american"
	case OrderEuropean:
		return "european"
	}
	return "unknown"
}

// ParseOrder parses an order name. "auto" and "" report false.
func ParseOrder(s string) (Order, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "iso", "ymd":
		return OrderISO, true
	case "american", "us", "mdy":
		return OrderAmerican, true
	case "european", "eu", "dmy":
		return OrderEuropean, true
	}
	return 0, false
}

// NumericOrder decides the ordering of the first three groups of a numeric
// date. When both a and c are small enough to be days the date is ambiguous
// and American ordering is preferred.
func NumericOrder(a, b, c int) Order {
	switch {
	case a > 31:
		return OrderISO
	case c > 31:
		if a <= 12 {
			return OrderAmerican
		}
		return OrderEuropean
	case a <= 12:
		return OrderAmerican
	case b <= 12:
		return OrderEuropean
	}
	return OrderISO
}

// Arrange returns (year, month, day) from three groups in the given order.
func Arrange(o Order, a, b, c int) (year, month, day int) {
	switch o {
	case OrderAmerican:
		return c, a, b
	case OrderEuropean:
		return c, b, a
	}
	return a, b, c
}

// ExpandYear applies century inference to two-digit years.
func ExpandYear(y int) int {
	switch {
	case y < 20:
		return y + 2000
	case y < 100:
		return y + 1900
	}
	return y
}
