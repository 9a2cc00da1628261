// Package cmd implements the timetools CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/derickschaefer/timetools/internal/app"
	"github.com/derickschaefer/timetools/internal/config"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	Format  string
	Out     string
	Compact bool
	Order   string
	Quiet   bool
	Verbose bool
	Debug   bool
}

// appFS is the filesystem config files are read from and written to.
var appFS afero.Fs = afero.NewOsFs()

// rootCmd is the base command. Running `timetools` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "timetools",
	Short: "Parse, normalise and format dates and durations",
	Long: `timetools reads dates and durations written in almost any common notation
and renders them in canonical ISO 8601 and clock forms.

Dates:      2019-05-06T17:45, 05/06/2019, 6 May 2019, 20190506, 43591 (serial)
Durations:  P1Y2W3DT4H, PT90M, 1:30:00, 2019-01-01/2019-03-01

Quick start:
  timetools timestamp "May 6, 2019 5:45pm"
  timetools duration P1DT36H PT0.5S
  timetools diff 2019-01-01 2019-12-25
  cat rows.jsonl | timetools table sort`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		app.SetupLogging(os.Stderr, globalFlags.Verbose, globalFlags.Debug)
	},
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildDeps resolves config and constructs the dependency container.
// Called at the start of each command's RunE.
func buildDeps() (*app.Deps, error) {
	cfg, err := config.Load(appFS, globalFlags.Format)
	if err != nil {
		return nil, err
	}

	// Apply CLI flag overrides
	cfg.Quiet = globalFlags.Quiet
	cfg.Verbose = globalFlags.Verbose
	cfg.Debug = globalFlags.Debug
	if globalFlags.Compact {
		cfg.Compact = true
	}
	if globalFlags.Order != "" {
		cfg.Order = globalFlags.Order
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(cfg, appFS), nil
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl|csv|tsv|md|yaml (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.BoolVar(&globalFlags.Compact, "compact", false,
		"write midnight timestamps as bare dates in JSONL output")
	pf.StringVar(&globalFlags.Order, "order", "",
		"field order for ambiguous numeric dates: auto|iso|american|european")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress warnings and footers")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"show timing stats after output and log at info level")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"log parser, store and timer activity at debug level")
}
