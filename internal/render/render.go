// Package render converts Result values into human-readable or machine-parseable
// output. Every payload type is first flattened to a header row plus string
// cells by tabulate; the table, csv, tsv and md writers share that grid while
// json, jsonl and yaml serialise the payload directly.
package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/derickschaefer/timetools/internal/analyze"
	"github.com/derickschaefer/timetools/internal/model"
	"github.com/derickschaefer/timetools/internal/pipeline"
	"github.com/derickschaefer/timetools/internal/util"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatMD    = "md"
	FormatYAML  = "yaml"
)

// Render writes result to w in the specified format.
func Render(w io.Writer, result *model.Result, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatJSONL:
		return renderJSONL(w, result)
	case FormatYAML:
		return renderYAML(w, result)
	case FormatCSV:
		return renderDelimited(w, result, ',')
	case FormatTSV:
		return renderDelimited(w, result, '\t')
	case FormatMD:
		return renderMarkdown(w, result)
	default:
		return renderTable(w, result)
	}
}

// ─── JSON / YAML ──────────────────────────────────────────────────────────────

func renderJSON(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func renderYAML(w io.Writer, result *model.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return err
	}
	return enc.Close()
}

// ─── JSONL ────────────────────────────────────────────────────────────────────

// renderJSONL writes one payload element per line. Tables are written as
// row records so the output feeds straight back into `timetools table`.
func renderJSONL(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	switch d := result.Data.(type) {
	case model.Table:
		return pipeline.WriteJSONL(w, d.Name, d.Rows, true)
	case *model.Table:
		return pipeline.WriteJSONL(w, d.Name, d.Rows, true)
	}
	v := reflect.ValueOf(result.Data)
	if v.Kind() != reflect.Slice {
		return enc.Encode(result.Data)
	}
	for i, n := 0, v.Len(); i < n; i++ {
		if err := enc.Encode(v.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// ─── Tabulation ───────────────────────────────────────────────────────────────

// tabulate flattens a payload into headers and string cells. ok is false
// for payload types with no tabular form.
func tabulate(data any) (headers []string, rows [][]string, ok bool) {
	switch d := data.(type) {
	case []model.TimestampInfo:
		headers = []string{"INPUT", "FORMAT", "VALUE", "COMPACT", "WEEKDAY", "YEAR FRACTION", "SERIAL"}
		for _, ti := range d {
			rows = append(rows, []string{
				ti.Input, ti.Format, ti.Value.ISO(false), ti.Compact, ti.Weekday,
				strconv.FormatFloat(ti.YearFraction, 'f', 6, 64),
				strconv.FormatFloat(ti.Serial, 'f', -1, 64),
			})
		}
	case []model.DurationInfo:
		headers = []string{"INPUT", "FORMAT", "ISO", "COMPACT", "STANDARD", "SECONDS", "HUMAN"}
		for _, di := range d {
			rows = append(rows, []string{
				di.Input, di.Format, di.Full, di.Value.ISO(true), di.Standard,
				strconv.FormatFloat(di.TotalSeconds, 'f', -1, 64), di.Human,
			})
		}
	case []model.Detection:
		headers = []string{"INPUT", "DATE FORMAT", "DURATION FORMAT", "ORDER"}
		for _, det := range d {
			rows = append(rows, []string{det.Input, det.DateFormat, det.DurationFormat, det.Order})
		}
	case model.Table:
		return tabulate(&d)
	case *model.Table:
		headers = []string{"DATE", "VALUE"}
		for _, r := range d.Rows {
			rows = append(rows, []string{r.Date.ISO(true), util.FormatValue(r.Value)})
		}
	case []model.MergedRow:
		headers = []string{"DATE", "LEFT", "RIGHT"}
		for _, m := range d {
			rows = append(rows, []string{m.Date.ISO(true), util.FormatValue(m.Left), util.FormatValue(m.Right)})
		}
	case []model.Gap:
		headers = []string{"FROM", "TO", "GAP", "STANDARD"}
		for _, g := range d {
			rows = append(rows, []string{g.From.ISO(true), g.To.ISO(true), g.Gap.ISO(true), g.Gap.Standard()})
		}
	case model.Entry:
		return tabulate([]model.Entry{d})
	case []model.Entry:
		headers = []string{"KEY", "NAME", "KIND", "VALUE", "CREATED"}
		for _, e := range d {
			rows = append(rows, []string{e.Key, e.Name, e.Kind, e.Value, e.CreatedAt.Format(time.RFC3339)})
		}
	case []model.BenchResult:
		headers = []string{"NAME", "LOOPS", "TOTAL", "PER OP"}
		for _, b := range d {
			rows = append(rows, []string{b.Name, strconv.Itoa(b.Loops), b.Total.Standard(), b.PerOp.ISO(true)})
		}
	case model.Report:
		return d.Headers, d.Rows, true
	case analyze.Summary:
		headers = []string{"KEY", "VALUE"}
		rows = [][]string{
			{"name", d.Name},
			{"rows", strconv.Itoa(d.Rows)},
			{"missing", strconv.Itoa(d.Missing)},
			{"first", d.First.ISO(true)},
			{"last", d.Last.ISO(true)},
			{"span", d.Span.ISO(true)},
			{"cadence", string(d.Cadence)},
			{"min_interval", d.MinInterval.ISO(true)},
			{"median_interval", d.MedianInterval.ISO(true)},
			{"max_interval", d.MaxInterval.ISO(true)},
			{"duplicates", strconv.Itoa(d.Duplicates)},
			{"mean", statCell(d.Mean)},
			{"std", statCell(d.Std)},
			{"min", statCell(d.Min)},
			{"median", statCell(d.Median)},
			{"max", statCell(d.Max)},
		}
	case analyze.TrendResult:
		headers = []string{"KEY", "VALUE"}
		rows = [][]string{
			{"name", d.Name},
			{"method", string(d.Method)},
			{"points", strconv.Itoa(d.Points)},
			{"direction", d.Direction},
			{"slope_per_day", strconv.FormatFloat(d.SlopePerDay, 'f', 6, 64)},
			{"slope_per_year", strconv.FormatFloat(d.SlopePerYear, 'f', 4, 64)},
			{"intercept", strconv.FormatFloat(d.Intercept, 'f', 4, 64)},
			{"r2", strconv.FormatFloat(d.R2, 'f', 4, 64)},
		}
	default:
		return nil, nil, false
	}
	return headers, rows, true
}

// statCell formats a statistic to four places, "." when undefined.
func statCell(v float64) string {
	if math.IsNaN(v) {
		return "."
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// ─── Table ────────────────────────────────────────────────────────────────────

func renderTable(w io.Writer, result *model.Result) error {
	headers, rows, ok := tabulate(result.Data)
	if !ok {
		return renderJSON(w, result)
	}
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	tw.SetAutoFormatHeaders(false)
	tw.AppendBulk(rows)
	tw.Render()
	return nil
}

// ─── CSV / TSV ────────────────────────────────────────────────────────────────

func renderDelimited(w io.Writer, result *model.Result, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep

	headers, rows, ok := tabulate(result.Data)
	if !ok {
		// Fallback: serialize as JSON on a single line
		b, _ := json.Marshal(result.Data)
		_ = cw.Write([]string{string(b)})
	} else {
		cols := make([]string, len(headers))
		for i, h := range headers {
			cols[i] = strings.ToLower(strings.ReplaceAll(h, " ", "_"))
		}
		_ = cw.Write(cols)
		_ = cw.WriteAll(rows)
	}

	cw.Flush()
	return cw.Error()
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func renderMarkdown(w io.Writer, result *model.Result) error {
	headers, rows, ok := tabulate(result.Data)
	if !ok {
		return renderJSON(w, result)
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(headers, " | "))
	fmt.Fprintf(w, "|%s\n", strings.Repeat("---|", len(headers)))
	for _, r := range rows {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = mdEscape(c)
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	return nil
}

// ─── Warnings / Stats Footer ─────────────────────────────────────────────────

// PrintFooter writes warnings to w, and stats when verbose mode is on.
func PrintFooter(w io.Writer, result *model.Result, verbose bool) {
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠  %s\n", warn)
	}
	if verbose {
		line := fmt.Sprintf("\n[%s • %d items • %dms",
			result.GeneratedAt.Format(time.RFC3339),
			result.Stats.Items,
			result.Stats.DurationMs,
		)
		if result.Stats.Failed > 0 {
			line += fmt.Sprintf(" • %d failed", result.Stats.Failed)
		}
		fmt.Fprintln(w, line+"]")
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
