package cli

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pangraph/pkg/errors"
	graphio "github.com/matzehuels/pangraph/pkg/io"
	"github.com/matzehuels/pangraph/pkg/seqgraph"
	"github.com/matzehuels/pangraph/pkg/seqgraph/transform"
)

// collapseCommand creates the collapse command, which writes the graph with
// every bubble replaced by a variation node.
func (c *CLI) collapseCommand() *cobra.Command {
	var (
		in      inputFlags
		output  string
		refresh bool
		list    bool
	)

	cmd := &cobra.Command{
		Use:   "collapse [graph.json]",
		Short: "Collapse bubbles into variation nodes",
		Long: `Collapse bubbles into variation nodes.

A bubble is a region where the paths leaving a branch node reconverge at a
single node without leaking in or out. Each bubble's interior is replaced
by one variation node carrying the union of the interior's genomes.
Nested bubbles are collapsed inside out over several passes.

The result is written as a graph file that 'layout' and 'render' accept.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCollapse(cmd.Context(), argOrEmpty(args), &in, output, refresh, list)
		},
	}

	cmd.Flags().StringVar(&in.annotations, "annotations", "", "annotation file to attach")
	cmd.Flags().BoolVar(&in.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.collapsed.json)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute a cached result")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "list every collapsed bubble")

	return cmd
}

func (c *CLI) runCollapse(ctx context.Context, path string, in *inputFlags, output string, refresh, list bool) error {
	input, err := c.load(ctx, path, in)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, in.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Collapsing bubbles...")
	spinner.Start()
	collapsed, res, hit, err := runner.CollapseWithCacheInfo(ctx, input.Graph, refresh)
	if err != nil {
		spinner.StopWithError("Collapse failed")
		return errors.FromGraph(err)
	}
	spinner.Stop()

	outputPath := output
	if outputPath == "" {
		outputPath = derivePath(path, c.Config.Data.Graph, ".collapsed.json")
	}
	if err := graphio.ExportGraph(collapsed, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Collapsed %s bubbles in %d passes", humanize.Comma(int64(len(res.Bubbles))), res.Passes)
	printFile(outputPath)
	printGraphStats(collapsed, hit)
	if list {
		printBubbles(collapsed, res.Bubbles)
	}
	return nil
}

func printBubbles(g *seqgraph.Graph, bubbles []transform.Bubble) {
	printNewline()
	for _, b := range bubbles {
		line := fmt.Sprintf("%d → %d  %d segments", b.Start, b.End, len(b.Interior))
		if n, ok := g.Node(b.Synthetic); ok {
			line += fmt.Sprintf("  as %d [%d,%d]", n.ID, n.RefStart, n.RefEnd)
		}
		printDetail("%s", line)
	}
}
