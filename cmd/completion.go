package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/timetools/internal/config"
	"github.com/derickschaefer/timetools/internal/model"
	"github.com/derickschaefer/timetools/internal/store"
)

// completionCmd prints a shell completion script. Stored value names and the
// fixed flag vocabularies (--format, --order, --kind) complete dynamically.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate a shell completion script for timetools.

Besides commands and flags, the script completes the names of stored values
for 'store get' and 'store delete', and the accepted values of --format,
--order and --kind.

  # bash
  source <(timetools completion bash)

  # zsh
  timetools completion zsh > "${fpath[1]}/_timetools"

  # fish
  timetools completion fish > ~/.config/fish/completions/timetools.fish`,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		root := cmd.Root()
		switch args[0] {
		case "bash":
			return root.GenBashCompletionV2(w, true)
		case "zsh":
			return root.GenZshCompletion(w)
		case "fish":
			return root.GenFishCompletion(w, true)
		default:
			return root.GenPowerShellCompletionWithDesc(w)
		}
	},
}

// fixedValues completes a flag from a closed vocabulary.
func fixedValues(values ...string) cobra.CompletionFunc {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return withPrefix(values, toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

// completeStoredNames offers the keys saved under the current --kind.
func completeStoredNames(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	deps, err := openStore()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer deps.Close()

	names, err := storedKeys(deps.Store, storeKind)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return withPrefix(names, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func storedKeys(s *store.Store, kind string) ([]string, error) {
	if kind == "table" || kind == "tables" {
		return s.ListTables()
	}
	entries, err := s.List(kind)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys, nil
}

func withPrefix(values []string, prefix string) []string {
	var out []string
	for _, v := range values {
		if strings.HasPrefix(v, prefix) {
			out = append(out, v)
		}
	}
	return out
}

// registerCompletions binds flag completions; it runs after the flags exist.
func registerCompletions() {
	cobra.CheckErr(rootCmd.RegisterFlagCompletionFunc("format", fixedValues(config.Formats...)))
	cobra.CheckErr(rootCmd.RegisterFlagCompletionFunc("order", fixedValues("auto", "iso", "american", "european")))
	for _, c := range []*cobra.Command{storeGetCmd, storeListCmd, storeDeleteCmd} {
		cobra.CheckErr(c.RegisterFlagCompletionFunc("kind", fixedValues(model.EntryTimestamp, model.EntryDuration, "table")))
	}
	storeGetCmd.ValidArgsFunction = completeStoredNames
	storeDeleteCmd.ValidArgsFunction = completeStoredNames
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
