package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/timetools/internal/app"
	"github.com/derickschaefer/timetools/internal/model"
	"github.com/derickschaefer/timetools/internal/store"
	"github.com/derickschaefer/timetools/internal/timeval"
	"github.com/derickschaefer/timetools/internal/util"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Save and recall named timestamps, durations and tables",
	Long: `Commands for the local bbolt database.

Saved timestamps can be used anywhere a timestamp is accepted by writing
@name, for example 'timetools diff @launch now'. Saved tables can be read by
the table commands the same way.

The database lives at ~/.timetools/timetools.db unless db_path or
TIMETOOLS_DB_PATH says otherwise.`,
}

// openStore builds deps and opens the database. The caller closes deps.
func openStore() (*app.Deps, error) {
	deps, err := buildDeps()
	if err != nil {
		return nil, err
	}
	if err := deps.RequireStore(); err != nil {
		deps.Close()
		return nil, err
	}
	return deps, nil
}

// displayEntry re-renders the stored canonical value in compact form when
// --compact is in effect.
func displayEntry(e model.Entry, compact bool) model.Entry {
	if !compact {
		return e
	}
	switch e.Kind {
	case model.EntryTimestamp:
		if ts, err := timeval.ParseTimestamp(timeval.StringInput(e.Value)); err == nil {
			e.Value = ts.ISO(true)
		}
	case model.EntryDuration:
		if d, err := timeval.ParseDuration(timeval.StringInput(e.Value)); err == nil {
			e.Value = d.ISO(true)
		}
	}
	return e
}

// ─── store put-timestamp / put-duration ───────────────────────────────────────

var storePutTimestampCmd = &cobra.Command{
	Use:   "put-timestamp <name> <value>",
	Short: "Save a timestamp under a name",
	Example: `  timetools store put-timestamp launch "July 16, 1969 13:32"
  timetools store put-timestamp checkpoint now`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openStore()
		if err != nil {
			return err
		}
		defer deps.Close()

		ts, err := parseTimestampArg(deps, args[1])
		if err != nil {
			return fmt.Errorf("%s: %w", args[1], err)
		}
		e, err := deps.Store.PutTimestamp(args[0], ts)
		if err != nil {
			return err
		}
		e = displayEntry(e, deps.Config.Compact)
		return emit(cmd, deps, newResult(model.KindEntry, "store put-timestamp", e, 1, started))
	},
}

var storePutDurationCmd = &cobra.Command{
	Use:   "put-duration <name> <value>",
	Short: "Save a duration under a name",
	Example: `  timetools store put-duration sprint P2W
  timetools store put-duration lap 1:02:03.5`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openStore()
		if err != nil {
			return err
		}
		defer deps.Close()

		d, _, err := parseDurationArg(args[1], "")
		if err != nil {
			return fmt.Errorf("%s: %w", args[1], err)
		}
		e, err := deps.Store.PutDuration(args[0], d)
		if err != nil {
			return err
		}
		e = displayEntry(e, deps.Config.Compact)
		return emit(cmd, deps, newResult(model.KindEntry, "store put-duration", e, 1, started))
	},
}

// ─── store put-table ──────────────────────────────────────────────────────────

var storePutTableCmd = &cobra.Command{
	Use:   "put-table <name> [source]",
	Short: "Save JSONL rows as a named table",
	Long: `Read JSONL rows from a file or stdin and save them under name. Rows that
fail to parse are reported and skipped; the rest are saved.`,
	Example: `  timetools store put-table readings readings.jsonl
  timetools table sort raw.jsonl | timetools store put-table readings`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openStore()
		if err != nil {
			return err
		}
		defer deps.Close()

		src, err := readTable(deps, sourceArg(args[1:]))
		if err != nil {
			return err
		}
		if err := deps.Store.PutTable(args[0], src.Rows); err != nil {
			return err
		}
		t := model.Table{Name: args[0], Rows: src.Rows}
		result := newResult(model.KindTable, "store put-table", t, len(t.Rows), started)
		return emitWithFailures(cmd, deps, result, src)
	},
}

// ─── store get / list / delete ────────────────────────────────────────────────

var storeKind string

var storeGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show a saved value",
	Example: `  timetools store get launch
  timetools store get sprint --kind duration
  timetools store get readings --kind table --format csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openStore()
		if err != nil {
			return err
		}
		defer deps.Close()

		if storeKind == "table" {
			t, found, err := deps.Store.GetTable(args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no stored table named %q", args[0])
			}
			return emit(cmd, deps, newResult(model.KindTable, "store get", t, len(t.Rows), started))
		}

		e, found, err := deps.Store.Get(storeKind, args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no stored %s named %q", storeKind, args[0])
		}
		e = displayEntry(e, deps.Config.Compact)
		return emit(cmd, deps, newResult(model.KindEntry, "store get", e, 1, started))
	},
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved values",
	Example: `  timetools store list
  timetools store list --kind duration --format csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openStore()
		if err != nil {
			return err
		}
		defer deps.Close()

		if storeKind == "table" {
			names, err := deps.Store.ListTables()
			if err != nil {
				return err
			}
			report := model.Report{Headers: []string{"NAME", "ROWS"}}
			for _, n := range names {
				t, _, err := deps.Store.GetTable(n)
				if err != nil {
					return err
				}
				report.Rows = append(report.Rows, []string{n, strconv.Itoa(len(t.Rows))})
			}
			return emit(cmd, deps, newResult(model.KindReport, "store list", report, len(report.Rows), started))
		}

		kinds := []string{model.EntryTimestamp, model.EntryDuration}
		if cmd.Flags().Changed("kind") {
			kinds = []string{storeKind}
		}
		var entries []model.Entry
		for _, k := range kinds {
			list, err := deps.Store.List(k)
			if err != nil {
				return err
			}
			for _, e := range list {
				entries = append(entries, displayEntry(e, deps.Config.Compact))
			}
		}
		return emit(cmd, deps, newResult(model.KindEntry, "store list", entries, len(entries), started))
	},
}

var storeDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a saved value",
	Example: `  timetools store delete launch
  timetools store delete sprint --kind duration`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := openStore()
		if err != nil {
			return err
		}
		defer deps.Close()

		found, err := deps.Store.Delete(storeKind, args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no stored %s named %q", storeKind, args[0])
		}
		if !deps.Config.Quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s %q\n", storeKind, args[0])
		}
		return nil
	},
}

// ─── store stats ──────────────────────────────────────────────────────────────

var storeStatsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show row counts and sizes for each bucket",
	Example: `  timetools store stats`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := openStore()
		if err != nil {
			return err
		}
		defer deps.Close()

		stats, err := deps.Store.Stats()
		if err != nil {
			return fmt.Errorf("reading store stats: %w", err)
		}
		report := model.Report{Headers: []string{"BUCKET", "ROWS", "SIZE"}}
		for _, s := range stats {
			report.Rows = append(report.Rows, []string{s.Name, strconv.Itoa(s.Count), util.HumanBytes(s.Bytes)})
		}
		result := newResult(model.KindReport, "store stats", report, len(report.Rows), started)
		if deps.Config.Verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "Database: %s\n", deps.Store.Path())
		}
		return emit(cmd, deps, result)
	},
}

// ─── store clear ──────────────────────────────────────────────────────────────

var (
	storeClearAll    bool
	storeClearBucket string
)

var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete entries from the local store",
	Long: `Delete entries from one or all buckets.

bbolt does not shrink the database file after clearing. Free pages are
reused on the next write. Run 'timetools store compact' to reclaim disk
space.`,
	Example: `  timetools store clear --all
  timetools store clear --bucket durations`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !storeClearAll && storeClearBucket == "" {
			return fmt.Errorf("specify --all or --bucket <name>\n\nBuckets: %s", strings.Join(store.AllBuckets, ", "))
		}
		deps, err := openStore()
		if err != nil {
			return err
		}
		defer deps.Close()

		out := cmd.OutOrStdout()
		if storeClearAll {
			if err := deps.Store.ClearAll(); err != nil {
				return fmt.Errorf("clearing all buckets: %w", err)
			}
			fmt.Fprintln(out, "✓ Cleared all buckets")
		} else {
			bucket, err := store.BucketName(storeClearBucket)
			if err != nil {
				return err
			}
			if err := deps.Store.ClearBucket(bucket); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Cleared bucket %q\n", bucket)
		}
		fmt.Fprintln(out, "  Run 'timetools store compact' to reclaim disk space.")
		return nil
	},
}

// ─── store compact ────────────────────────────────────────────────────────────

var storeCompactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Rewrite the database file to reclaim freed disk space",
	Long: `Compact copies every live bucket into a fresh file and swaps it in for the
original. bbolt never shrinks its file on its own, so this is the only way to
give back space freed by 'store clear' or 'store delete'.`,
	Example: `  timetools store compact`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := openStore()
		if err != nil {
			return err
		}
		defer deps.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Compacting %s ...\n", deps.Store.Path())
		before, after, err := deps.Store.Compact()
		if err != nil {
			return fmt.Errorf("compaction failed: %w", err)
		}
		fmt.Fprintf(out, "✓ Compaction complete\n")
		fmt.Fprintf(out, "  Before: %s\n", util.HumanBytes(before))
		fmt.Fprintf(out, "  After:  %s\n", util.HumanBytes(after))
		if saved := before - after; saved > 0 {
			fmt.Fprintf(out, "  Saved:  %s\n", util.HumanBytes(saved))
		} else {
			fmt.Fprintln(out, "  No space reclaimed (database was already compact).")
		}
		return nil
	},
}

// ─── Registration ─────────────────────────────────────────────────────────────

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(
		storePutTimestampCmd, storePutDurationCmd, storePutTableCmd,
		storeGetCmd, storeListCmd, storeDeleteCmd,
		storeStatsCmd, storeClearCmd, storeCompactCmd,
	)

	for _, c := range []*cobra.Command{storeGetCmd, storeListCmd, storeDeleteCmd} {
		c.Flags().StringVar(&storeKind, "kind", model.EntryTimestamp, "value kind: timestamp|duration|table")
	}
	storeClearCmd.Flags().BoolVar(&storeClearAll, "all", false, "clear all buckets")
	storeClearCmd.Flags().StringVar(&storeClearBucket, "bucket", "", "clear one bucket: timestamps|durations|tables")
	registerCompletions()
}
