package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/timetools/internal/analyze"
	"github.com/derickschaefer/timetools/internal/model"
)

// ─── table summary ────────────────────────────────────────────────────────────

var tableSummaryCmd = &cobra.Command{
	Use:   "summary [source]",
	Short: "Row spacing, cadence and value statistics",
	Long: `Report first and last dates, the span, the smallest, median and largest
interval between rows, the cadence those intervals suggest (daily, weekly,
monthly, quarterly, annual, sub-daily or irregular) and value statistics.`,
	Example: `  timetools table summary readings.jsonl
  timetools table summary @readings --format json`,
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
		s, err := analyze.Summarize(sourceLabel(src, args), src.Rows)
		if err != nil {
			return err
		}
		result := newResult(model.KindSummary, "table summary", s, s.Rows, started)
		return emitWithFailures(cmd, deps, result, src)
	},
}

// ─── table trend ──────────────────────────────────────────────────────────────

var tableTrendMethod string

var tableTrendCmd = &cobra.Command{
	Use:   "trend [source]",
	Short: "Fit value against time: slope per day and year, R², direction",
	Example: `  timetools table trend readings.jsonl
  timetools table trend @readings --method theil-sen`,
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
		tr, err := analyze.Trend(sourceLabel(src, args), src.Rows, analyze.TrendMethod(tableTrendMethod))
		if err != nil {
			return err
		}
		result := newResult(model.KindTrend, "table trend", tr, tr.Points, started)
		return emitWithFailures(cmd, deps, result, src)
	},
}

func init() {
	tableCmd.AddCommand(tableSummaryCmd, tableTrendCmd)
	tableTrendCmd.Flags().StringVar(&tableTrendMethod, "method", string(analyze.TrendLinear),
		"regression method: linear|theil-sen")
}
