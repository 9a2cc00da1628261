package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/timetools/internal/model"
)

var diffCmd = &cobra.Command{
	Use:   "diff <start> <end>",
	Short: "Duration between two timestamps",
	Long: `Print the duration from start to end. The result is negative when end is
before start. Either side may be "now", "today" or a stored timestamp written
as @name.`,
	Example: `  timetools diff 2019-01-01 "Dec 25, 2019"
  timetools diff @launch-day now --format json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		start, err := parseTimestampArg(deps, args[0])
		if err != nil {
			return fmt.Errorf("start %s: %w", args[0], err)
		}
		end, err := parseTimestampArg(deps, args[1])
		if err != nil {
			return fmt.Errorf("end %s: %w", args[1], err)
		}
		d := end.Sub(start)
		info := durationInfo(start.ISO(true)+"/"+end.ISO(true), "interval", d)
		return emit(cmd, deps, newResult(model.KindDuration, "diff", []model.DurationInfo{info}, 1, started))
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
