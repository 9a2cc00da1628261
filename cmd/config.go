package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/derickschaefer/timetools/internal/config"
	"github.com/derickschaefer/timetools/internal/model"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage timetools configuration",
	Long: `Read and write timetools configuration stored in config.json or
config.toml in the current directory.`,
}

var configInitTOML bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template config file in the current directory",
	Example: `  timetools config init
  timetools config init --toml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if configInitTOML {
			path = config.TOMLConfigFile
		}
		if ok, _ := afero.Exists(appFS, path); ok {
			return fmt.Errorf("%s already exists (delete it first to re-initialise)", path)
		}
		if err := config.WriteFile(appFS, path, config.Template()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Long: `Print every setting after defaults, the config file, environment
variables and flags have been applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		started := time.Now()
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		cfg := deps.Config
		src := cfg.ConfigPath
		if src == "" {
			src = "(not found)"
		}
		report := model.Report{
			Headers: []string{"KEY", "VALUE"},
			Rows: [][]string{
				{"default_format", cfg.Format},
				{"compact", strconv.FormatBool(cfg.Compact)},
				{"default_order", cfg.Order},
				{"db_path", cfg.DBPath},
				{"bench_loops", strconv.Itoa(cfg.BenchLoops)},
				{"config_file", src},
			},
		}
		return emit(cmd, deps, newResult(model.KindReport, "config show", report, len(report.Rows), started))
	},
}

var configGetCmd = &cobra.Command{
	Use:     "get <key>",
	Short:   "Print one value from the config file",
	Example: `  timetools config get default_order`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, _, err := loadConfigFile()
		if err != nil {
			return err
		}
		v, err := config.Get(*f, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in the config file",
	Long: `Set a value in config.json (or config.toml if that is the file in use),
creating config.json from the template when neither exists.

Keys: default_format, compact, default_order, db_path, bench_loops`,
	Example: `  timetools config set default_order european
  timetools config set compact true`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, path, err := loadConfigFile()
		if err != nil {
			return err
		}
		if err := config.Set(f, args[0], args[1]); err != nil {
			return err
		}
		if err := config.WriteFile(appFS, path, *f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s = %s in %s\n", args[0], args[1], path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configGetCmd, configSetCmd)
	configInitCmd.Flags().BoolVar(&configInitTOML, "toml", false, "write config.toml instead of config.json")
}

// loadConfigFile reads the config file from the working directory, or
// returns the template and config.json when none exists yet.
func loadConfigFile() (*config.File, string, error) {
	f, path, err := config.ReadFile(appFS)
	if errors.Is(err, os.ErrNotExist) {
		tmpl := config.Template()
		return &tmpl, config.DefaultConfigFile, nil
	}
	if err != nil {
		return nil, "", err
	}
	return f, filepath.Base(path), nil
}
