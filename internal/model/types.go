// Package model defines the data types shared by the commands, the store and
// the renderers, plus the result envelope that every command returns.
package model

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/derickschaefer/timetools/internal/timeval"
)

// ─── Parsed Values ────────────────────────────────────────────────────────────

// TimestampInfo describes one parsed timestamp and its renderings.
type TimestampInfo struct {
	Input        string            `json:"input" yaml:"input"`
	Format       string            `json:"format" yaml:"format"`
	Value        timeval.Timestamp `json:"value" yaml:"value"`
	Compact      string            `json:"compact" yaml:"compact"`
	YearFraction float64           `json:"year_fraction" yaml:"year_fraction"`
	Serial       float64           `json:"serial" yaml:"serial"`
	Weekday      string            `json:"weekday" yaml:"weekday"`
	Offset       string            `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// DurationInfo describes one parsed duration and its renderings.
type DurationInfo struct {
	Input        string            `json:"input" yaml:"input"`
	Format       string            `json:"format" yaml:"format"`
	Value        timeval.Duration  `json:"value" yaml:"value"`
	Full         string            `json:"full" yaml:"full"`
	Standard     string            `json:"standard" yaml:"standard"`
	TotalSeconds float64           `json:"total_seconds" yaml:"total_seconds"`
	Human        string            `json:"human" yaml:"human"`
	Breakdown    timeval.Breakdown `json:"breakdown" yaml:"breakdown"`
}

// Detection is the format classification of a raw string.
type Detection struct {
	Input          string `json:"input" yaml:"input"`
	DateFormat     string `json:"date_format" yaml:"date_format"`
	DurationFormat string `json:"duration_format" yaml:"duration_format"`
	Order          string `json:"order,omitempty" yaml:"order,omitempty"`
}

// ─── Dated Rows ───────────────────────────────────────────────────────────────

// Row is one dated value in a table. Value is NaN when missing.
type Row struct {
	Date     timeval.Timestamp `json:"date" yaml:"date"`
	Value    float64           `json:"value" yaml:"value"`
	ValueRaw string            `json:"value_raw,omitempty" yaml:"value_raw,omitempty"`
}

// IsMissing returns true if the row value is NaN (missing data).
func (r Row) IsMissing() bool {
	return math.IsNaN(r.Value)
}

// MarshalJSON writes a missing value as null.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date     timeval.Timestamp `json:"date"`
		Value    *float64          `json:"value"`
		ValueRaw string            `json:"value_raw,omitempty"`
	}{r.Date, nullable(r.Value), r.ValueRaw})
}

// Table is a named sequence of rows.
type Table struct {
	Name string `json:"name" yaml:"name"`
	Rows []Row  `json:"rows" yaml:"rows"`
}

// MergedRow is one date of an outer join; a side without a row is NaN.
type MergedRow struct {
	Date  timeval.Timestamp `json:"date" yaml:"date"`
	Left  float64           `json:"left" yaml:"left"`
	Right float64           `json:"right" yaml:"right"`
}

func (m MergedRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date  timeval.Timestamp `json:"date"`
		Left  *float64          `json:"left"`
		Right *float64          `json:"right"`
	}{m.Date, nullable(m.Left), nullable(m.Right)})
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Gap is the distance between two consecutive rows.
type Gap struct {
	From timeval.Timestamp `json:"from" yaml:"from"`
	To   timeval.Timestamp `json:"to" yaml:"to"`
	Gap  timeval.Duration  `json:"gap" yaml:"gap"`
}

// ─── Stored Values ────────────────────────────────────────────────────────────

// Entry kinds.
const (
	EntryTimestamp = "timestamp"
	EntryDuration  = "duration"
)

// Entry is a named value kept in the local store. Value holds the canonical
// full ISO rendering so it re-parses to the exact same value.
type Entry struct {
	ID        string    `json:"id" yaml:"id"`
	Key       string    `json:"key" yaml:"key"`
	Name      string    `json:"name" yaml:"name"`
	Kind      string    `json:"kind" yaml:"kind"`
	Value     string    `json:"value" yaml:"value"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ─── Timing ───────────────────────────────────────────────────────────────────

// BenchResult is the outcome of timing one parser over many inputs.
type BenchResult struct {
	Name  string           `json:"name" yaml:"name"`
	Loops int              `json:"loops" yaml:"loops"`
	Total timeval.Duration `json:"total" yaml:"total"`
	PerOp timeval.Duration `json:"per_op" yaml:"per_op"`
}

// ─── Result Envelope ─────────────────────────────────────────────────────────

// ResultStats carries timing metadata for a command result.
type ResultStats struct {
	DurationMs int64 `json:"duration_ms" yaml:"duration_ms"`
	Items      int   `json:"items" yaml:"items"`
	Failed     int   `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Result is the uniform envelope returned by every command.
// The Data field holds the typed payload; Kind identifies what is in it.
// Renderers switch on the payload type to format output.
type Result struct {
	Kind        string      `json:"kind" yaml:"kind"`
	GeneratedAt time.Time   `json:"generated_at" yaml:"generated_at"`
	Command     string      `json:"command" yaml:"command"`
	Data        any         `json:"data" yaml:"data"`
	Warnings    []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Stats       ResultStats `json:"stats" yaml:"stats"`
}

// Report is a generic grid for listings that have no dedicated type, such
// as config settings or store statistics.
type Report struct {
	Headers []string
	Rows    [][]string
}

// Records returns one map per row keyed by lower-cased header.
func (r Report) Records() []map[string]string {
	out := make([]map[string]string, len(r.Rows))
	for i, row := range r.Rows {
		rec := make(map[string]string, len(r.Headers))
		for j, h := range r.Headers {
			if j < len(row) {
				rec[strings.ToLower(strings.ReplaceAll(h, " ", "_"))] = row[j]
			}
		}
		out[i] = rec
	}
	return out
}

func (r Report) MarshalJSON() ([]byte, error) { return json.Marshal(r.Records()) }
func (r Report) MarshalYAML() (any, error)    { return r.Records(), nil }

// Kind constants for Result.Kind.
const (
	KindTimestamp = "timestamp"
	KindDuration  = "duration"
	KindDetection = "detection"
	KindTable     = "table"
	KindMerged    = "merged"
	KindGaps      = "gaps"
	KindEntry     = "entry"
	KindBench     = "bench"
	KindReport    = "report"
	KindSummary   = "summary"
	KindTrend     = "trend"
)
