package cli

import (
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	graphio "github.com/matzehuels/pangraph/pkg/io"
	"github.com/matzehuels/pangraph/pkg/pipeline"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for pangraph.

Bash:
  $ source <(pangraph completion bash)

Zsh:
  $ pangraph completion zsh > "${fpath[1]}/_pangraph"

Fish:
  $ pangraph completion fish | source

PowerShell:
  PS> pangraph completion powershell | Out-String | Invoke-Expression

Genome names complete after --sources once the graph argument is typed.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeSources completes the last item of a comma-separated genome list
// from the graph named by the first argument.
func completeSources(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	g, err := graphio.ImportGraph(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return completeList(toComplete, g.AllSources().Sorted()), cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	formats := slices.Sorted(maps.Keys(pipeline.ValidFormats))
	return completeList(toComplete, formats), cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// completeList offers candidates for the item after the last comma,
// skipping items already listed.
func completeList(toComplete string, candidates []string) []string {
	prefix, last := "", toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix, last = toComplete[:i+1], toComplete[i+1:]
	}
	seen := make(map[string]bool)
	for _, s := range strings.Split(prefix, ",") {
		seen[strings.TrimSpace(s)] = true
	}

	var out []string
	for _, c := range candidates {
		if !seen[c] && strings.HasPrefix(c, last) {
			out = append(out, prefix+c)
		}
	}
	return out
}
