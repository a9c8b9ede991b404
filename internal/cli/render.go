package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pangraph/pkg/pipeline"
)

// renderCommand creates the render command, which lays out a graph and
// writes it as a node-link diagram.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		in      inputFlags
		output  string
		formats string
		opts    pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a sequence graph as a node-link diagram",
		Long: `Render a sequence graph as a node-link diagram.

The graph runs through the same collapse, filter and layout stages as the
layout command. Nodes are pinned to their assigned positions and drawn with
Graphviz. Output formats: svg (default), png, pdf, dot and json (layout).

With a single format, --output names the file. With several, --output is a
base path and each format gets its own extension.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formats)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), argOrEmpty(args), &in, opts, output)
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "label nodes with id, reference span and genomes")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute cached results")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, path string, in *inputFlags, opts pipeline.Options, output string) error {
	_, res, err := c.run(ctx, path, in, opts)
	if err != nil {
		return err
	}

	paths := artifactPaths(output, derivePath(path, c.Config.Data.Graph, ""), opts.Formats)
	var total int
	for _, format := range opts.Formats {
		data := res.Artifacts[format]
		if err := os.MkdirAll(filepath.Dir(paths[format]), 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		if err := os.WriteFile(paths[format], data, 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", paths[format], err)
		}
		total += len(data)
	}

	printSuccess("Rendered %s", strings.Join(opts.Formats, ", "))
	for _, format := range opts.Formats {
		printFile(paths[format])
	}
	printStats(res.Stats, res.CacheInfo)
	printDetail("%s written", humanize.Bytes(uint64(total)))
	return nil
}

// artifactPaths maps each format to its output file. A single format uses
// output verbatim when set; otherwise output (or base) gets one extension
// per format.
func artifactPaths(output, base string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	if output != "" {
		base = strings.TrimSuffix(output, filepath.Ext(output))
	}
	for _, f := range formats {
		ext := "." + f
		if f == pipeline.FormatJSON {
			ext = ".layout.json"
		}
		paths[f] = base + ext
	}
	return paths
}
