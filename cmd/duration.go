package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/timetools/internal/detect"
	"github.com/derickschaefer/timetools/internal/interop"
	"github.com/derickschaefer/timetools/internal/model"
	"github.com/derickschaefer/timetools/internal/timeval"
	"github.com/derickschaefer/timetools/internal/util"
)

var durationUnit string

var durationCmd = &cobra.Command{
	Use:     "duration <value...>",
	Aliases: []string{"dur"},
	Short:   "Parse durations and show their canonical forms",
	Long: `Parse each argument as a duration and show the full and compact ISO 8601
forms, the HH:MM:SS.ss clock form, total seconds and a field breakdown.

Accepted notations are ISO 8601 durations (P1Y2W3DT4H5M6.5S, commas allowed as
decimal separators), clock strings (1:30:00) and intervals between two
timestamps or a timestamp and a duration (2019-01-01/2019-03-01,
2019-01-01/P2W). With --unit every argument is a plain number in that unit.

Years are 365 days and months 30 days.`,
	Example: `  timetools duration P1DT36H PT0,5S 1:30:00
  timetools duration 2019-01-01/2019-03-01
  timetools duration --unit hours 1.5 36`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		var (
			infos []model.DurationInfo
			errs  util.MultiError
		)
		for _, arg := range args {
			d, format, err := parseDurationArg(arg, durationUnit)
			if err != nil {
				errs.Add(fmt.Errorf("%s: %w", arg, err))
				continue
			}
			infos = append(infos, durationInfo(arg, format, d))
		}

		result := newResult(model.KindDuration, "duration", infos, len(infos), started)
		failed := collectFailures(result, &errs)
		if err := emit(cmd, deps, result); err != nil {
			return err
		}
		return failed
	},
}

// parseDurationArg parses arg as a number of unit when unit is set, and as
// a duration string otherwise.
func parseDurationArg(arg, unit string) (timeval.Duration, string, error) {
	if unit != "" {
		n, err := parseNumberArg(arg)
		if err != nil {
			return timeval.Duration{}, "", err
		}
		d, err := timeval.ParseDuration(timeval.NumericInput{Value: n, Unit: unit})
		return d, "number", err
	}
	d, err := timeval.ParseDuration(timeval.StringInput(arg))
	return d, detect.DurationString(arg).String(), err
}

func durationInfo(input, format string, d timeval.Duration) model.DurationInfo {
	return model.DurationInfo{
		Input:        input,
		Format:       format,
		Value:        d,
		Full:         d.ISO(false),
		Standard:     d.Standard(),
		TotalSeconds: d.TotalSeconds(),
		Human:        interop.Human(d),
		Breakdown:    d.Breakdown(),
	}
}

func init() {
	rootCmd.AddCommand(durationCmd)
	durationCmd.Flags().StringVar(&durationUnit, "unit", "",
		"read arguments as numbers in this unit: years|months|weeks|days|hours|minutes|seconds|milliseconds|microseconds")
}
