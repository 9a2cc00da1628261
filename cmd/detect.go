package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/timetools/internal/detect"
	"github.com/derickschaefer/timetools/internal/model"
)

var detectCmd = &cobra.Command{
	Use:   "detect <value...>",
	Short: "Classify strings without parsing them",
	Long: `Report how each argument would be read: its date notation (numeric, iso,
verbal or compact), its duration notation (iso, ratio, interval or clock) and,
for numeric dates, the field order the heuristic picks.

The order column ignores --order and always shows the heuristic's choice.`,
	Example: `  timetools detect 05/06/2019 13/06/2019 2019/06/13
  timetools detect "6 May 2019" P1D 3/4 2019-01-01/P1W`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		out := make([]model.Detection, len(args))
		for i, arg := range args {
			out[i] = detection(arg)
		}
		return emit(cmd, deps, newResult(model.KindDetection, "detect", out, len(out), started))
	},
}

func detection(s string) model.Detection {
	d := model.Detection{
		Input:          s,
		DateFormat:     detect.DateString(s).String(),
		DurationFormat: detect.DurationString(s).String(),
	}
	if g, ok := detect.NumericGroups(s); ok && detect.DateString(s) == detect.DateNumeric {
		d.Order = detect.NumericOrder(g[0], g[1], g[2]).String()
	}
	return d
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
