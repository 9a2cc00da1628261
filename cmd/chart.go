package cmd

import (
	"github.com/spf13/cobra"

	"github.com/derickschaefer/timetools/internal/chart"
)

var (
	tableChartWidth   int
	tableChartMaxBars int
)

var tableChartCmd = &cobra.Command{
	Use:   "chart [source]",
	Short: "Horizontal bar chart, one bar per row",
	Long: `Draw one labelled bar per row in date order. Date labels follow the row
cadence: years for annual rows, months for monthly rows, dates for daily
rows. Negative values extend left from a zero line; rows with missing
values keep their line but get no bar.`,
	Example: `  timetools table chart readings.jsonl
  timetools table filter @readings --after 2020-01-01 | timetools table chart --max-bars 24`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		src, err := readTable(deps, sourceArg(args))
		if err != nil {
			return err
		}

		w, closeFn, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		err = chart.Bar(w, sourceLabel(src, args), src.Rows, chart.BarOptions{
			Width:   tableChartWidth,
			MaxBars: tableChartMaxBars,
		})
		if cerr := closeFn(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		return src.errs.Err()
	},
}

func init() {
	tableCmd.AddCommand(tableChartCmd)
	tableChartCmd.Flags().IntVar(&tableChartWidth, "width", 0,
		"total chart width in characters (default: $COLUMNS, fallback 80)")
	tableChartCmd.Flags().IntVar(&tableChartMaxBars, "max-bars", 0,
		"render only the latest N rows (0 = no limit)")
}
