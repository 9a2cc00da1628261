package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/timetools/internal/detect"
	"github.com/derickschaefer/timetools/internal/model"
	"github.com/derickschaefer/timetools/internal/timer"
	"github.com/derickschaefer/timetools/internal/timeval"
)

// benchCase is one timed workload.
type benchCase struct {
	name string
	fn   func()
}

func benchCases() []benchCase {
	ts := timeval.MustTimestamp(2019, 5, 6, 17, 45, 0, 250000)
	d := timeval.MustParseDuration("P1Y2M3W4DT5H6M7.5S")
	return []benchCase{
		{"duration/iso", func() { _, _ = timeval.ParseDuration(timeval.StringInput("P1Y2M3W4DT5H6M7.5S")) }},
		{"duration/clock", func() { _, _ = timeval.ParseDuration(timeval.StringInput("12:34:56.78")) }},
		{"duration/interval", func() { _, _ = timeval.ParseDuration(timeval.StringInput("2019-01-01/2019-03-01")) }},
		{"duration/numeric", func() { _, _ = timeval.ParseDuration(timeval.NumericInput{Value: 1.5, Unit: "hours"}) }},
		{"timestamp/iso", func() { _, _ = timeval.ParseTimestamp(timeval.StringInput("2019-05-06T17:45:00.25")) }},
		{"timestamp/numeric", func() { _, _ = timeval.ParseTimestamp(timeval.StringInput("5/6/2019 17:45")) }},
		{"timestamp/verbal", func() { _, _ = timeval.ParseTimestamp(timeval.StringInput("May 6, 2019 5:45 PM")) }},
		{"timestamp/compact", func() { _, _ = timeval.ParseTimestamp(timeval.StringInput("20190506174500")) }},
		{"timestamp/serial", func() { _, _ = timeval.ParseTimestamp(timeval.NumericInput{Value: 43591.74, Unit: "serial"}) }},
		{"detect", func() { _ = detect.DateString("May 6, 2019") }},
		{"format/timestamp", func() { _ = ts.ISO(false) }},
		{"format/duration", func() { _ = d.ISO(false) + d.ISO(true) + d.Standard() }},
	}
}

var (
	benchLoops    int
	benchProgress bool
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time the parsers and formatters",
	Long: `Run every parser and formatter in a tight loop and report the total and
per-call time. Loop count defaults to bench_loops from config (10000).`,
	Example: `  timetools bench
  timetools bench --loops 100000 --progress --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		loops := deps.Config.BenchLoops
		if cmd.Flags().Changed("loops") {
			loops = benchLoops
		}
		if loops < 1 {
			return fmt.Errorf("--loops must be at least 1")
		}

		cases := benchCases()
		t := timer.New()
		results := make([]model.BenchResult, 0, len(cases))
		for i, c := range cases {
			results = append(results, t.Benchmark(c.name, loops, c.fn))
			t.Split(c.name)
			if benchProgress && !deps.Config.Quiet {
				t.Progress(cmd.ErrOrStderr(), i+1, len(cases))
			}
		}

		result := newResult(model.KindBench, "bench", results, len(results), started)
		return emit(cmd, deps, result)
	},
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().IntVar(&benchLoops, "loops", 0, "iterations per workload (default from config)")
	benchCmd.Flags().BoolVar(&benchProgress, "progress", false, "print progress lines on stderr")
}
