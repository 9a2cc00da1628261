// Package pipeline reads and writes dated rows as JSONL, the pipe format
// shared by the table commands.
package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/derickschaefer/timetools/internal/model"
	"github.com/derickschaefer/timetools/internal/timeval"
	"github.com/derickschaefer/timetools/internal/util"
)

// record is one JSONL line. Date may be any timestamp string or a serial
// number; Value may be a number, null, "." or a numeric string.
type record struct {
	Name     string `json:"name"`
	Date     any    `json:"date"`
	Value    any    `json:"value"`
	ValueRaw string `json:"value_raw"`
}

// ReadRows reads JSONL records from r and returns the table name (the first
// non-empty "name" field) and the rows that parsed. Lines that fail are
// skipped and reported together in the returned error, so callers can show
// what did parse and still fail the command.
func ReadRows(r io.Reader, opts ...timeval.Option) (string, []model.Row, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var (
		rows []model.Row
		name string
		errs util.MultiError
	)
	lineNum := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineNum++
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			errs.Add(fmt.Errorf("line %d: invalid JSON: %w", lineNum, err))
			continue
		}
		if name == "" && rec.Name != "" {
			name = rec.Name
		}
		if rec.Date == nil {
			errs.Add(fmt.Errorf("line %d: missing date", lineNum))
			continue
		}
		date, err := timeval.ParseTimestamp(timeval.TimestampOf(rec.Date), opts...)
		if err != nil {
			errs.Add(fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}
		val, raw, err := parseValue(rec.Value, rec.ValueRaw)
		if err != nil {
			errs.Add(fmt.Errorf("line %d: %w", lineNum, err))
			continue
		}
		rows = append(rows, model.Row{Date: date, Value: val, ValueRaw: raw})
	}
	if err := scanner.Err(); err != nil {
		return name, rows, fmt.Errorf("reading input: %w", err)
	}
	if len(rows) == 0 && errs.Err() == nil {
		return name, nil, fmt.Errorf("no rows read from input (is stdin empty?)")
	}
	return name, rows, errs.Err()
}

func parseValue(v any, raw string) (float64, string, error) {
	switch x := v.(type) {
	case nil:
		if raw == "" {
			raw = "."
		}
		return math.NaN(), raw, nil
	case float64:
		if raw == "" {
			raw = strconv.FormatFloat(x, 'f', -1, 64)
		}
		return x, raw, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" || s == "." {
			return math.NaN(), ".", nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, "", fmt.Errorf("unexpected string value %q", x)
		}
		return f, s, nil
	}
	return 0, "", fmt.Errorf("unexpected value type %T", v)
}

// ReadFile opens path and reads it with ReadRows. "-" means stdin.
func ReadFile(path string, opts ...timeval.Option) (string, []model.Row, error) {
	if path == "-" || path == "" {
		return ReadRows(os.Stdin, opts...)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	name, rows, err := ReadRows(f, opts...)
	if name == "" {
		name = path
	}
	return name, rows, err
}

// outRecord is the canonical JSONL record written for a row.
type outRecord struct {
	Name     string `json:"name,omitempty"`
	Date     string `json:"date"`
	Value    any    `json:"value"` // float64 or null
	ValueRaw string `json:"value_raw,omitempty"`
}

// WriteJSONL writes rows as JSONL to w. With compact set, midnight dates
// are written without a time part.
func WriteJSONL(w io.Writer, name string, rows []model.Row, compact bool) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		rec := outRecord{Name: name, Date: r.Date.ISO(compact), ValueRaw: r.ValueRaw}
		if !r.IsMissing() {
			rec.Value = r.Value
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

// IsTTY returns true if stdout is a terminal (not a pipe).
func IsTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
