// Package render provides output helpers shared by the graph renderers.
//
// [ToPDF] and [ToPNG] convert any SVG to other formats using the external
// rsvg-convert tool (from librsvg):
//
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// The [nodelink] subpackage turns a laid-out sequence graph into Graphviz
// DOT and SVG.
//
// [nodelink]: github.com/matzehuels/pangraph/pkg/render/nodelink
package render
