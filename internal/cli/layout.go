package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pangraph/pkg/errors"
	graphio "github.com/matzehuels/pangraph/pkg/io"
	"github.com/matzehuels/pangraph/pkg/pipeline"
)

// layoutCommand creates the layout command for computing column layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		in     inputFlags
		output string
		opts   pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute the column layout of a sequence graph",
		Long: `Compute the column layout of a sequence graph.

The graph is optionally collapsed (--collapse) and filtered to a genome
selection (--sources, or --tree with --select), then every node is assigned
a column, a row and pixel coordinates. The output is a layout.json file:

  {"positions": [{"id": 1, "column": 0, "row": 0, "x": 0, "y": -50, "shift": true}], "max_column": 2}

The graph argument may be omitted when the config file names one.
Collapsed graphs and layouts are cached for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), argOrEmpty(args), &in, opts, output)
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().Float64Var(&opts.ColumnWidth, "column-width", 0, "column width in pixels (default from config)")
	cmd.Flags().Float64Var(&opts.RowHeight, "row-height", 0, "row height in pixels (default from config)")
	cmd.Flags().Float64Var(&opts.NodeSpacing, "node-spacing", 0, "column centering offset per node (default from config)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute cached results")

	return cmd
}

// run loads the input and executes the pipeline with a spinner.
func (c *CLI) run(ctx context.Context, path string, in *inputFlags, opts pipeline.Options) (*pipeline.Input, *pipeline.Result, error) {
	input, err := c.load(ctx, path, in)
	if err != nil {
		return nil, nil, err
	}
	if opts.Sources, err = in.selection(input); err != nil {
		return nil, nil, err
	}
	opts.Collapse = in.collapse
	c.applyLayoutConfig(&opts)

	runner, err := c.newRunner(ctx, in.noCache)
	if err != nil {
		return nil, nil, err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()
	res, err := runner.Run(ctx, input.Graph, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return nil, nil, errors.FromGraph(err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}
	return input, res, nil
}

// applyLayoutConfig fills unset layout metrics from the config.
func (c *CLI) applyLayoutConfig(opts *pipeline.Options) {
	lo := c.Config.LayoutOptions()
	if opts.ColumnWidth == 0 {
		opts.ColumnWidth = lo.ColumnWidth
	}
	if opts.RowHeight == 0 {
		opts.RowHeight = lo.RowHeight
	}
	if opts.NodeSpacing == 0 {
		opts.NodeSpacing = lo.NodeSpacing
	}
}

func (c *CLI) runLayout(ctx context.Context, path string, in *inputFlags, opts pipeline.Options, output string) error {
	_, res, err := c.run(ctx, path, in, opts)
	if err != nil {
		return err
	}

	outputPath := output
	if outputPath == "" {
		outputPath = derivePath(path, c.Config.Data.Graph, ".layout.json")
	}
	if err := graphio.ExportLayout(res.Layout, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(res.Stats, res.CacheInfo)
	if in.collapse {
		printDetail("%d bubbles collapsed", len(res.Bubbles))
	}
	printNewline()
	printNextStep("Render", "pangraph render "+graphArg(path))

	return nil
}

func argOrEmpty(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

// derivePath replaces the extension of the input graph path with suffix.
func derivePath(path, fallback, suffix string) string {
	if path == "" {
		path = fallback
	}
	if path == "" {
		return "graph" + suffix
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + suffix
}

func graphArg(path string) string {
	if path == "" {
		return "-c <config>"
	}
	return path
}
