package pipeline

import (
	"bytes"
	"context"
	"fmt"

	graphio "github.com/matzehuels/pangraph/pkg/io"
	"github.com/matzehuels/pangraph/pkg/layout"
	"github.com/matzehuels/pangraph/pkg/render/nodelink"
	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

// Render generates output artifacts in the requested formats from a laid
// out graph. The DOT source is built once and shared by the Graphviz
// formats.
func Render(ctx context.Context, g *seqgraph.Graph, l *layout.Layout, opts Options) (map[string][]byte, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}

	dot := nodelink.ToDOT(g, l, nodelink.Options{Detailed: opts.Detailed})
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			var buf bytes.Buffer
			err = graphio.WriteLayout(l, &buf)
			data = buf.Bytes()
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, 2.0)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
