package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/timetools/internal/app"
	"github.com/derickschaefer/timetools/internal/model"
	"github.com/derickschaefer/timetools/internal/pipeline"
	"github.com/derickschaefer/timetools/internal/render"
	"github.com/derickschaefer/timetools/internal/table"
	"github.com/derickschaefer/timetools/internal/timeval"
	"github.com/derickschaefer/timetools/internal/util"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Operate on dated rows (reads JSONL from stdin or files)",
	Long: `Table operators read JSONL rows of the form {"date": ..., "value": ...} and
write JSONL when piped, or a table on a terminal.

Dates may use any notation the timestamp command accepts; values may be
numbers, numeric strings, null or ".". A source argument of "-" (or none)
reads stdin, and @name reads a table saved with 'timetools store put-table'.

Pipeline example:
  timetools table sort readings.jsonl | timetools table filter --after 2020-01-01
  timetools table intervals @readings --format csv`,
}

// tableSource is one loaded input. Rows that failed to parse are counted in
// errs; the rows that did parse are still processed.
type tableSource struct {
	model.Table
	errs util.MultiError
}

// readTable loads src: "-" or "" for stdin, @name for a stored table, a
// file path otherwise.
func readTable(deps *app.Deps, src string) (*tableSource, error) {
	out := &tableSource{}
	if name, ok := strings.CutPrefix(src, "@"); ok {
		if err := deps.RequireStore(); err != nil {
			return nil, err
		}
		t, found, err := deps.Store.GetTable(name)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("no stored table named %q", name)
		}
		out.Table = t
		return out, nil
	}

	name, rows, err := pipeline.ReadFile(src, deps.Config.ParseOptions()...)
	if err != nil {
		var me *util.MultiError
		if !errors.As(err, &me) || len(rows) == 0 {
			return nil, err
		}
		out.errs = *me
	}
	out.Table = model.Table{Name: name, Rows: rows}
	return out, nil
}

func sourceArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

// writeTableOutput writes rows as JSONL when piped and as a table on a
// terminal, unless --format says otherwise.
func writeTableOutput(cmd *cobra.Command, deps *app.Deps, command string, src *tableSource, rows []model.Row, started time.Time) error {
	format := resolveFormat(deps.Config.Format)
	if globalFlags.Format == "" && !pipeline.IsTTY() {
		format = render.FormatJSONL
	}
	result := newResult(model.KindTable, command, model.Table{Name: src.Name, Rows: rows}, len(rows), started)
	failed := collectFailures(result, &src.errs)

	if format == render.FormatJSONL {
		w, closeFn, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err := pipeline.WriteJSONL(w, src.Name, rows, deps.Config.Compact); err != nil {
			closeFn()
			return err
		}
		if err := closeFn(); err != nil {
			return err
		}
		if !deps.Config.Quiet {
			render.PrintFooter(cmd.ErrOrStderr(), result, deps.Config.Verbose)
		}
		return failed
	}

	deps.Config.Format = format
	if err := emit(cmd, deps, result); err != nil {
		return err
	}
	return failed
}

// emitWithFailures renders a non-table payload and reports src's bad rows.
func emitWithFailures(cmd *cobra.Command, deps *app.Deps, result *model.Result, srcs ...*tableSource) error {
	var all util.MultiError
	for _, s := range srcs {
		for _, e := range s.errs.Errors {
			all.Add(e)
		}
	}
	failed := collectFailures(result, &all)
	if err := emit(cmd, deps, result); err != nil {
		return err
	}
	return failed
}

// ─── sort ─────────────────────────────────────────────────────────────────────

var tableSortDesc bool

var tableSortCmd = &cobra.Command{
	Use:   "sort [source]",
	Short: "Sort rows by date (stable)",
	Example: `  timetools table sort readings.jsonl
  cat readings.jsonl | timetools table sort --desc`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		src, err := readTable(deps, sourceArg(args))
		if err != nil {
			return err
		}
		return writeTableOutput(cmd, deps, "table sort", src, table.Sort(src.Rows, tableSortDesc), started)
	},
}

// ─── merge ────────────────────────────────────────────────────────────────────

var tableMergeCmd = &cobra.Command{
	Use:   "merge <left> <right>",
	Short: "Outer-join two tables on date",
	Long: `Join two tables on date. Every date present in either table appears once;
a side with no row for that date shows "." (null in JSON).`,
	Example: `  timetools table merge rain.jsonl temps.jsonl
  timetools table merge @rain - < temps.jsonl --format csv`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		if args[0] == "-" && args[1] == "-" {
			return fmt.Errorf("only one side can read stdin")
		}
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		left, err := readTable(deps, args[0])
		if err != nil {
			return fmt.Errorf("left: %w", err)
		}
		right, err := readTable(deps, args[1])
		if err != nil {
			return fmt.Errorf("right: %w", err)
		}
		merged := table.Merge(left.Rows, right.Rows)
		result := newResult(model.KindMerged, "table merge", merged, len(merged), started)
		return emitWithFailures(cmd, deps, result, left, right)
	},
}

// ─── filter ───────────────────────────────────────────────────────────────────

var (
	tableFilterAfter  string
	tableFilterBefore string
	tableFilterMin    float64
	tableFilterMax    float64
	tableFilterDrop   bool
)

var tableFilterCmd = &cobra.Command{
	Use:   "filter [source]",
	Short: "Filter rows by date range or value bounds",
	Example: `  timetools table filter readings.jsonl --after 2020-01-01 --before "July 4 2020"
  timetools table filter --min 0 --drop-missing < readings.jsonl`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		opts := table.NoBounds()
		opts.DropMissing = tableFilterDrop
		if tableFilterAfter != "" {
			if opts.After, err = parseTimestampArg(deps, tableFilterAfter); err != nil {
				return fmt.Errorf("--after: %w", err)
			}
		}
		if tableFilterBefore != "" {
			if opts.Before, err = parseTimestampArg(deps, tableFilterBefore); err != nil {
				return fmt.Errorf("--before: %w", err)
			}
		}
		if cmd.Flags().Changed("min") {
			opts.MinValue = tableFilterMin
		}
		if cmd.Flags().Changed("max") {
			opts.MaxValue = tableFilterMax
		}

		src, err := readTable(deps, sourceArg(args))
		if err != nil {
			return err
		}
		return writeTableOutput(cmd, deps, "table filter", src, table.Filter(src.Rows, opts), started)
	},
}

// ─── span ─────────────────────────────────────────────────────────────────────

var tableSpanCmd = &cobra.Command{
	Use:     "span [source]",
	Short:   "Duration from the earliest to the latest row",
	Example: `  timetools table span readings.jsonl`,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		src, err := readTable(deps, sourceArg(args))
		if err != nil {
			return err
		}
		d, err := table.Span(src.Rows)
		if err != nil {
			return err
		}
		info := durationInfo(sourceLabel(src, args), "span", d)
		result := newResult(model.KindDuration, "table span", []model.DurationInfo{info}, 1, started)
		return emitWithFailures(cmd, deps, result, src)
	},
}

func sourceLabel(src *tableSource, args []string) string {
	if src.Name != "" {
		return src.Name
	}
	return sourceArg(args)
}

// ─── intervals ────────────────────────────────────────────────────────────────

var tableIntervalsCmd = &cobra.Command{
	Use:   "intervals [source]",
	Short: "Duration between each pair of consecutive rows",
	Example: `  timetools table intervals readings.jsonl
  timetools table intervals @readings --format csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		src, err := readTable(deps, sourceArg(args))
		if err != nil {
			return err
		}
		gaps, err := table.Intervals(src.Rows)
		if err != nil {
			return err
		}
		result := newResult(model.KindGaps, "table intervals", gaps, len(gaps), started)
		return emitWithFailures(cmd, deps, result, src)
	},
}

// ─── shift ────────────────────────────────────────────────────────────────────

var tableShiftBy string

var tableShiftCmd = &cobra.Command{
	Use:   "shift [source] --by DURATION",
	Short: "Move every row by a duration",
	Example: `  timetools table shift readings.jsonl --by P1D
  timetools table shift --by=-PT6H < readings.jsonl`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		if tableShiftBy == "" {
			return fmt.Errorf("--by DURATION is required")
		}
		by, err := timeval.ParseDuration(timeval.StringInput(tableShiftBy))
		if err != nil {
			return fmt.Errorf("--by: %w", err)
		}
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		src, err := readTable(deps, sourceArg(args))
		if err != nil {
			return err
		}
		rows, err := table.Shift(src.Rows, by)
		if err != nil {
			return err
		}
		return writeTableOutput(cmd, deps, "table shift", src, rows, started)
	},
}

// ─── resample ─────────────────────────────────────────────────────────────────

var (
	tableResampleFreq   string
	tableResampleEvery  string
	tableResampleMethod string
)

var tableResampleCmd = &cobra.Command{
	Use:   "resample [source] (--freq FREQ | --every DURATION)",
	Short: "Aggregate rows into calendar periods or fixed-width buckets",
	Long: `Group rows by calendar period (--freq daily|weekly|monthly|quarterly|annual)
or by fixed-width buckets anchored at the earliest row (--every PT6H), and
aggregate each group into one row dated at its start. Weeks start on Monday.
Missing values are skipped; a group with no values yields a missing value.`,
	Example: `  timetools table resample readings.jsonl --freq monthly
  timetools table resample @readings --every PT6H --method max`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		if (tableResampleFreq == "") == (tableResampleEvery == "") {
			return fmt.Errorf("specify exactly one of --freq or --every")
		}
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		src, err := readTable(deps, sourceArg(args))
		if err != nil {
			return err
		}

		method := table.Method(tableResampleMethod)
		var rows []model.Row
		if tableResampleEvery != "" {
			every, perr := timeval.ParseDuration(timeval.StringInput(tableResampleEvery))
			if perr != nil {
				return fmt.Errorf("--every: %w", perr)
			}
			rows, err = table.Bucket(src.Rows, every, method)
		} else {
			rows, err = table.Resample(src.Rows, table.Freq(tableResampleFreq), method)
		}
		if err != nil {
			return err
		}
		return writeTableOutput(cmd, deps, "table resample", src, rows, started)
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(tableCmd)
	tableCmd.AddCommand(tableSortCmd, tableMergeCmd, tableFilterCmd, tableSpanCmd, tableIntervalsCmd, tableShiftCmd, tableResampleCmd)

	tableSortCmd.Flags().BoolVar(&tableSortDesc, "desc", false, "newest first")

	tableFilterCmd.Flags().StringVar(&tableFilterAfter, "after", "", "keep rows strictly after this timestamp")
	tableFilterCmd.Flags().StringVar(&tableFilterBefore, "before", "", "keep rows strictly before this timestamp")
	tableFilterCmd.Flags().Float64Var(&tableFilterMin, "min", 0, "keep rows with value >= min")
	tableFilterCmd.Flags().Float64Var(&tableFilterMax, "max", 0, "keep rows with value <= max")
	tableFilterCmd.Flags().BoolVar(&tableFilterDrop, "drop-missing", false, "drop rows with missing values")

	tableShiftCmd.Flags().StringVar(&tableShiftBy, "by", "", "ISO 8601 duration to add, e.g. P1D or -PT6H")

	tableResampleCmd.Flags().StringVar(&tableResampleFreq, "freq", "", "calendar period: daily|weekly|monthly|quarterly|annual")
	tableResampleCmd.Flags().StringVar(&tableResampleEvery, "every", "", "fixed bucket width as a duration, e.g. PT6H")
	tableResampleCmd.Flags().StringVar(&tableResampleMethod, "method", string(table.MethodMean), "aggregation: mean|sum|first|last|min|max|count")
}
