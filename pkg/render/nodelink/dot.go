package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pangraph/pkg/layout"
	"github.com/matzehuels/pangraph/pkg/render"
	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds sources, span and length to node labels.
	// When false, only the id and a sequence preview are shown.
	Detailed bool
}

// ToDOT converts a laid-out sequence graph to Graphviz DOT.
//
// The diagram runs left to right. Nodes sharing a layout column are pinned
// to the same rank so Graphviz keeps the column structure, and within a
// column they are listed in row order. Variation nodes are drawn as dashed
// grey ellipses; nodes flagged with Shift get a light fill.
//
// A nil layout draws every node without rank constraints.
func ToDOT(g *seqgraph.Graph, l *layout.Layout, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %s [%s];\n", nodeName(n.ID), strings.Join(fmtAttrs(n, opts.Detailed), ", "))
	}

	if l != nil {
		buf.WriteString("\n")
		for c, ids := range l.Columns {
			names := make([]string, len(ids))
			for i, id := range ids {
				names[i] = nodeName(id)
			}
			fmt.Fprintf(&buf, "  { rank=same; %s; } // column %d\n", strings.Join(names, "; "), c)
		}
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %s -> %s;\n", nodeName(e.From), nodeName(e.To))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// nodeName quotes ids so negative synthetic ids stay valid DOT identifiers.
func nodeName(id int) string { return strconv.Quote("n" + strconv.Itoa(id)) }

func fmtLabel(n *seqgraph.Node, detailed bool) string {
	head := strconv.Itoa(n.ID)
	if l := n.Label(); l != "" {
		head += ": " + l
	}
	if !detailed {
		return head
	}

	parts := []string{
		"sources: " + strings.Join(n.Sources.Sorted(), ","),
		fmt.Sprintf("span: %d-%d", n.RefStart, n.RefEnd),
		fmt.Sprintf("bases: %d", n.Bases.Total()),
	}
	for _, a := range n.Annotations {
		parts = append(parts, "gene: "+a.Name)
	}
	return head + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *seqgraph.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	switch {
	case n.IsVariation():
		attrs = append(attrs, "shape=ellipse", "style=\"filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	case n.Shift:
		attrs = append(attrs, "fillcolor=\"#eef4ff\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag to a zero-origin viewBox with
// matching width and height, so the SVG scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
