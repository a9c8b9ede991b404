package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pangraph/pkg/errors"
	graphio "github.com/matzehuels/pangraph/pkg/io"
	"github.com/matzehuels/pangraph/pkg/seqgraph"
	"github.com/matzehuels/pangraph/pkg/seqgraph/transform"
)

// filterCommand creates the filter command, which writes the subgraph
// traversed by a genome selection.
func (c *CLI) filterCommand() *cobra.Command {
	var (
		in     inputFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "filter [graph.json]",
		Short: "Extract the subgraph of selected genomes",
		Long: `Extract the subgraph of selected genomes.

A node is kept when at least one selected genome traverses it; an edge is
kept when both of its endpoints are. Select genomes by name with --sources,
or by tree leaves with --tree and --select.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFilter(cmd.Context(), argOrEmpty(args), &in, output)
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.filtered.json)")

	return cmd
}

func (c *CLI) runFilter(ctx context.Context, path string, in *inputFlags, output string) error {
	input, err := c.load(ctx, path, in)
	if err != nil {
		return err
	}
	sources, err := in.selection(input)
	if err != nil {
		return err
	}
	if sources == nil {
		return errors.New(errors.ErrCodeInvalidInput, "no selection: pass --sources or --tree with --select")
	}

	g := input.Graph
	cached := false
	if in.collapse {
		runner, err := c.newRunner(ctx, in.noCache)
		if err != nil {
			return err
		}
		defer runner.Close()
		if g, _, cached, err = runner.CollapseWithCacheInfo(ctx, g, false); err != nil {
			return errors.FromGraph(err)
		}
	}

	filtered := transform.Filter(g, seqgraph.NewSources(sources...))

	outputPath := output
	if outputPath == "" {
		outputPath = derivePath(path, c.Config.Data.Graph, ".filtered.json")
	}
	if err := graphio.ExportGraph(filtered, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Kept %d of %d nodes for %d genomes", filtered.NodeCount(), g.NodeCount(), len(sources))
	printFile(outputPath)
	printGraphStats(filtered, cached)
	if filtered.NodeCount() == 0 {
		printWarning("The selection matches no nodes")
	}
	return nil
}
