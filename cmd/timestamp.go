package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/timetools/internal/app"
	"github.com/derickschaefer/timetools/internal/detect"
	"github.com/derickschaefer/timetools/internal/model"
	"github.com/derickschaefer/timetools/internal/timeval"
	"github.com/derickschaefer/timetools/internal/util"
)

var timestampSerial bool

var timestampCmd = &cobra.Command{
	Use:     "timestamp <value...>",
	Aliases: []string{"ts", "date"},
	Short:   "Parse timestamps and show their canonical forms",
	Long: `Parse each argument as a timestamp and show the full and compact ISO 8601
forms, weekday, year fraction and spreadsheet serial.

Accepted notations include ISO 8601 (2019-05-06T17:45:00.25), numeric dates in
any field order (05/06/2019, 6.5.2019, 19-05-06), dates with month names
(6 May 2019, May 6th 2019 5:45pm), compact digits (20190506) and the literals
"now" and "today". Ambiguous numeric dates follow --order.`,
	Example: `  timetools timestamp 2019-05-06 "6 May 2019" 20190506
  timetools timestamp 05/06/2019 --order european
  timetools timestamp --serial 43591.75
  timetools timestamp now --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		var (
			infos []model.TimestampInfo
			errs  util.MultiError
		)
		for _, arg := range args {
			info, err := describeTimestamp(deps, arg)
			if err != nil {
				errs.Add(fmt.Errorf("%s: %w", arg, err))
				continue
			}
			infos = append(infos, info)
		}

		result := newResult(model.KindTimestamp, "timestamp", infos, len(infos), started)
		failed := collectFailures(result, &errs)
		if err := emit(cmd, deps, result); err != nil {
			return err
		}
		return failed
	},
}

func describeTimestamp(deps *app.Deps, arg string) (model.TimestampInfo, error) {
	var (
		ts     timeval.Timestamp
		format string
		err    error
	)
	switch {
	case timestampSerial:
		var n float64
		if n, err = parseNumberArg(arg); err != nil {
			return model.TimestampInfo{}, err
		}
		ts, err = timeval.ParseTimestamp(timeval.NumericInput{Value: n, Unit: "serial"})
		format = "serial"
	case isClockLiteral(arg):
		ts, err = parseTimestampArg(deps, arg)
		format = strings.ToLower(strings.TrimSpace(arg))
	default:
		ts, err = parseTimestampArg(deps, arg)
		format = detect.DateString(arg).String()
	}
	if err != nil {
		return model.TimestampInfo{}, err
	}
	return timestampInfo(arg, format, ts), nil
}

func isClockLiteral(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "now" || s == "today"
}

func timestampInfo(input, format string, ts timeval.Timestamp) model.TimestampInfo {
	return model.TimestampInfo{
		Input:        input,
		Format:       format,
		Value:        ts,
		Compact:      ts.ISO(true),
		YearFraction: ts.YearFraction(),
		Serial:       ts.Serial(),
		Weekday:      ts.Std().Weekday().String(),
		Offset:       timeval.OffsetOf(input),
	}
}

func init() {
	rootCmd.AddCommand(timestampCmd)
	timestampCmd.Flags().BoolVar(&timestampSerial, "serial", false, "read arguments as spreadsheet serial day numbers")
}
