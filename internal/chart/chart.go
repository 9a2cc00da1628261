// Package chart draws a table of dated rows as a horizontal ASCII bar chart,
// one bar per row, labelled with dates at the precision the row spacing
// calls for.
package chart

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/derickschaefer/timetools/internal/analyze"
	"github.com/derickschaefer/timetools/internal/model"
	"github.com/derickschaefer/timetools/internal/table"
	"github.com/derickschaefer/timetools/internal/timeval"
)

// DenseWarning is the row count above which Bar prints a density warning.
const DenseWarning = 60

// BarOptions controls bar chart rendering.
type BarOptions struct {
	// Width is the total character width available. 0 reads $COLUMNS and
	// falls back to 80.
	Width int
	// MaxBars keeps only the latest MaxBars rows. 0 means no limit.
	MaxBars int
}

// Bar writes a chart of rows to w in date order. Missing values keep their
// line with a "." and no bar.
//
//	rain  2020-01 – 2020-04
//	2020-01  3.5  ████████████
//	2020-02    .
//	2020-03  5.4  ████████████████████
func Bar(w io.Writer, title string, rows []model.Row, opts BarOptions) error {
	if len(rows) == 0 {
		return fmt.Errorf("chart: no rows")
	}
	sorted := table.Sort(rows, false)
	if opts.MaxBars > 0 && len(sorted) > opts.MaxBars {
		sorted = sorted[len(sorted)-opts.MaxBars:]
	}

	minVal, maxVal := math.Inf(1), math.Inf(-1)
	for _, r := range sorted {
		if r.IsMissing() {
			continue
		}
		minVal = math.Min(minVal, r.Value)
		maxVal = math.Max(maxVal, r.Value)
	}
	if math.IsInf(minVal, 1) {
		return fmt.Errorf("chart: every row is missing its value")
	}

	totalWidth := opts.Width
	if totalWidth <= 0 {
		totalWidth = termWidth()
	}
	if len(sorted) > DenseWarning {
		fmt.Fprintf(w, "⚠  %d rows; consider --max-bars or filtering by date first\n\n", len(sorted))
	}

	cadence := analyze.CadenceUnknown
	if s, err := analyze.Summarize(title, sorted); err == nil {
		cadence = s.Cadence
	}

	dates := make([]string, len(sorted))
	vals := make([]string, len(sorted))
	var dateWidth, valWidth int
	for i, r := range sorted {
		dates[i] = DateLabel(r.Date, cadence)
		vals[i] = formatFloat(r.Value)
		dateWidth = max(dateWidth, runewidth.StringWidth(dates[i]))
		valWidth = max(valWidth, len(vals[i]))
	}

	barAreaWidth := max(totalWidth-dateWidth-valWidth-4, 4)
	valRange := maxVal - minVal
	if valRange == 0 {
		valRange = 1
	}
	hasNeg := minVal < 0
	var zeroPos int
	if hasNeg {
		zeroPos = int(math.Round((-minVal / valRange) * float64(barAreaWidth-1)))
	}

	if title != "" {
		fmt.Fprintf(w, "%s  ", title)
	}
	fmt.Fprintf(w, "%s – %s\n", dates[0], dates[len(dates)-1])

	for i, r := range sorted {
		var bar string
		switch {
		case r.IsMissing():
		case hasNeg:
			bar = buildBiBar(r.Value, minVal, maxVal, barAreaWidth, zeroPos)
		default:
			n := int(math.Round((r.Value - minVal) / valRange * float64(barAreaWidth)))
			bar = strings.Repeat("█", min(max(n, 1), barAreaWidth))
		}
		line := fmt.Sprintf("%s  %*s  %s", runewidth.FillRight(dates[i], dateWidth), valWidth, vals[i], bar)
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	return nil
}

// DateLabel renders ts at the precision a cadence needs: years for annual
// rows, months for monthly and quarterly rows, dates for daily and weekly
// rows and the compact ISO form otherwise.
func DateLabel(ts timeval.Timestamp, cadence analyze.Cadence) string {
	switch cadence {
	case analyze.CadenceAnnual:
		return strconv.Itoa(ts.Year())
	case analyze.CadenceMonthly, analyze.CadenceQuarterly:
		return fmt.Sprintf("%04d-%02d", ts.Year(), int(ts.Month()))
	case analyze.CadenceDaily, analyze.CadenceWeekly:
		return fmt.Sprintf("%04d-%02d-%02d", ts.Year(), int(ts.Month()), ts.Day())
	}
	return ts.ISO(true)
}

// buildBiBar renders a bar extending left (negative) or right (positive)
// from a zero line at zeroPos within a field of barAreaWidth.
func buildBiBar(val, minVal, maxVal float64, barAreaWidth, zeroPos int) string {
	valRange := maxVal - minVal
	buf := []rune(strings.Repeat(" ", barAreaWidth))
	if zeroPos >= 0 && zeroPos < barAreaWidth {
		buf[zeroPos] = '│'
	}
	if val >= 0 {
		end := min(zeroPos+int(math.Round(val/valRange*float64(barAreaWidth-1))), barAreaWidth)
		for i := zeroPos + 1; i <= end && i < barAreaWidth; i++ {
			buf[i] = '█'
		}
	} else {
		start := max(zeroPos-int(math.Round((-val)/valRange*float64(barAreaWidth-1))), 0)
		for i := start; i < zeroPos && i < barAreaWidth; i++ {
			buf[i] = '█'
		}
	}
	return strings.TrimRight(string(buf), " ")
}

// formatFloat formats a value label: trailing zeros trimmed, K and M
// suffixes for large magnitudes, "." for missing.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	abs := math.Abs(v)
	var s string
	switch {
	case abs == 0:
		return "0"
	case abs >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 1, 64) + "M"
	case abs >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', 1, 64) + "K"
	case abs >= 100:
		s = strconv.FormatFloat(v, 'f', 1, 64)
	case abs >= 1:
		s = strconv.FormatFloat(v, 'f', 2, 64)
	default:
		s = strconv.FormatFloat(v, 'f', 4, 64)
	}
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

// termWidth returns $COLUMNS, defaulting to 80.
func termWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if n, err := strconv.Atoi(cols); err == nil && n > 20 {
			return n
		}
	}
	return 80
}
