package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pangraph/pkg/errors"
	graphio "github.com/matzehuels/pangraph/pkg/io"
	"github.com/matzehuels/pangraph/pkg/newick"
	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

// selectCommand creates the select command, an interactive genome picker
// over a phylogenetic tree.
func (c *CLI) selectCommand() *cobra.Command {
	var (
		graphPath string
		preselect string
	)

	cmd := &cobra.Command{
		Use:   "select [tree.nwk]",
		Short: "Pick genomes from a phylogenetic tree",
		Long: `Pick genomes from a phylogenetic tree.

Opens an interactive tree view. Toggling an ancestor selects or clears its
whole subtree. On confirm the selected genome names are printed to stdout
as a comma-separated list, ready for --sources:

  pangraph layout graph.json --sources "$(pangraph select tree.nwk)"

With --graph, leaves that match no genome of the graph are reported and a
summary of the selection is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSelect(cmd.Context(), cmd, argOrEmpty(args), graphPath, preselect)
		},
	}

	cmd.Flags().StringVar(&graphPath, "graph", "", "graph file to check the selection against")
	cmd.Flags().StringVar(&preselect, "select", "", "comma-separated leaves to preselect")

	return cmd
}

func (c *CLI) runSelect(ctx context.Context, cmd *cobra.Command, path, graphPath, preselect string) error {
	if path == "" {
		path = c.Config.Data.Tree
	}
	if path == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no tree: pass a Newick file or set [data] tree")
	}
	tree, err := newick.ParseFile(path)
	if err != nil {
		return errors.FromGraph(err)
	}
	if preselect != "" {
		if _, err := selectLeaves(tree, preselect); err != nil {
			return err
		}
	}

	var g *seqgraph.Graph
	if graphPath == "" {
		graphPath = c.Config.Data.Graph
	}
	if graphPath != "" {
		if g, err = graphio.ImportGraph(graphPath); err != nil {
			return errors.FromGraph(err)
		}
		all := g.AllSources()
		for _, id := range tree.Leaves() {
			if n, _ := tree.Node(id); !all.Has(n.Name) {
				c.Logger.Warn("tree leaf matches no genome in the graph", "leaf", n.Name)
			}
		}
	}

	p := tea.NewProgram(NewTreePickerModel(tree), tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return err
	}
	fm, ok := final.(TreePickerModel)
	if !ok || !fm.Confirmed {
		fmt.Fprintln(os.Stderr, StyleDim.Render("No selection made"))
		return nil
	}

	sources := fm.Tree.SelectedSources().Sorted()
	if g != nil && len(sources) > 0 {
		fmt.Fprintln(os.Stderr, selectionTable(g, sources))
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(sources, ","))
	return nil
}
