// Package nodelink renders sequence graphs as node-link diagrams.
//
// # Usage
//
// Lay the graph out, convert it to DOT, then render to SVG:
//
//	l, _ := layout.Assign(g, layout.Options{})
//	dot := nodelink.ToDOT(g, l, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # DOT Format
//
// [ToDOT] draws left to right with one Graphviz rank per layout column.
// Synthetic variation nodes appear as dashed grey ellipses labelled with
// the segments they replace.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
