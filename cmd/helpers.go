package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/timetools/internal/app"
	"github.com/derickschaefer/timetools/internal/interop"
	"github.com/derickschaefer/timetools/internal/model"
	"github.com/derickschaefer/timetools/internal/render"
	"github.com/derickschaefer/timetools/internal/timeval"
	"github.com/derickschaefer/timetools/internal/util"
)

// resolveFormat returns the effective format string, falling back to "table".
func resolveFormat(cfgFormat string) string {
	if globalFlags.Format != "" {
		return globalFlags.Format
	}
	if cfgFormat != "" {
		return cfgFormat
	}
	return render.FormatTable
}

// outputWriter returns def, or the --out file when set. The returned close
// function must always be called.
func outputWriter(def io.Writer) (io.Writer, func() error, error) {
	if globalFlags.Out == "" {
		return def, func() error { return nil }, nil
	}
	f, err := os.Create(globalFlags.Out)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// newResult wraps a payload in a Result envelope.
func newResult(kind, command string, data any, items int, started time.Time) *model.Result {
	return &model.Result{
		Kind:        kind,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        data,
		Stats: model.ResultStats{
			Items:      items,
			DurationMs: time.Since(started).Milliseconds(),
		},
	}
}

// emit renders result in the configured format, then the footer on stderr.
func emit(cmd *cobra.Command, deps *app.Deps, result *model.Result) error {
	w, closeFn, err := outputWriter(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := render.Render(w, result, resolveFormat(deps.Config.Format)); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	if !deps.Config.Quiet {
		render.PrintFooter(cmd.ErrOrStderr(), result, deps.Config.Verbose)
	}
	return nil
}

// collectFailures records per-argument errors as result warnings and
// returns the combined error so the command exits non-zero.
func collectFailures(result *model.Result, errs *util.MultiError) error {
	if errs.Err() == nil {
		return nil
	}
	for _, e := range errs.Errors {
		result.Warnings = append(result.Warnings, e.Error())
	}
	result.Stats.Failed = len(errs.Errors)
	return fmt.Errorf("%d of %d values failed to parse", len(errs.Errors), len(errs.Errors)+result.Stats.Items)
}

// parseTimestampArg understands the literals "now" and "today" and stored
// names written as @name on top of everything ParseTimestamp accepts.
func parseTimestampArg(deps *app.Deps, s string) (timeval.Timestamp, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "now":
		return timeval.Now(), nil
	case "today":
		return interop.Today(), nil
	}
	if name, ok := strings.CutPrefix(strings.TrimSpace(s), "@"); ok {
		if err := deps.RequireStore(); err != nil {
			return timeval.Timestamp{}, err
		}
		ts, found, err := deps.Store.GetTimestamp(name)
		if err != nil {
			return timeval.Timestamp{}, err
		}
		if !found {
			return timeval.Timestamp{}, fmt.Errorf("no stored timestamp named %q", name)
		}
		return ts, nil
	}
	return timeval.ParseTimestamp(timeval.StringInput(s), deps.Config.ParseOptions()...)
}

// parseNumberArg parses a CLI argument as a float.
func parseNumberArg(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return f, nil
}
