// Package pipeline provides the graph processing pipeline shared by the
// CLI and the HTTP server.
//
// # Architecture
//
// The pipeline runs up to four stages over an immutable input graph:
//
//  1. Collapse: replace bubbles with variation nodes (optional, cached)
//  2. Filter: keep the subgraph traversed by the selected genomes
//  3. Layout: assign columns, rows and pixel coordinates (cached)
//  4. Render: produce DOT, SVG, PNG, PDF or JSON artifacts (optional, cached)
//
// Collapsing is the expensive stage. Concurrent callers asking for the
// collapsed form of the same graph share one computation, and the result
// is stored in the runner's cache keyed by the graph's [Fingerprint].
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Run(ctx, g, pipeline.Options{
//	    Sources:  []string{"TKK_02_0004", "TKK_02_0010"},
//	    Collapse: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, p := range result.Layout.Ordered() {
//	    fmt.Println(p.ID, p.X, p.Y)
//	}
//
// A [Viewer] wraps a runner for interactive use, where only the most
// recent selection matters.
package pipeline

import (
	"fmt"
	"time"

	"github.com/matzehuels/pangraph/pkg/cache"
	"github.com/matzehuels/pangraph/pkg/layout"
	"github.com/matzehuels/pangraph/pkg/seqgraph"
	"github.com/matzehuels/pangraph/pkg/seqgraph/transform"
)

// Format constants for output artifacts.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// Options configures one pipeline run. It decodes from the JSON body of a
// layout request.
type Options struct {
	// Sources selects the genomes to keep. Nil keeps the whole graph; a
	// non-nil empty slice selects nothing and yields an empty layout.
	Sources []string `json:"sources"`

	// Collapse replaces bubbles with variation nodes before filtering.
	Collapse bool `json:"collapse,omitempty"`

	// Layout metrics; zero values use the layout package defaults.
	ColumnWidth float64 `json:"column_width,omitempty"`
	RowHeight   float64 `json:"row_height,omitempty"`
	NodeSpacing float64 `json:"node_spacing,omitempty"`

	// Formats lists artifacts to render. Empty skips rendering.
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	// Refresh bypasses cached results and overwrites them.
	Refresh bool `json:"refresh,omitempty"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RequestID identifies the run; set by [Viewer.Submit].
	RequestID string

	// Graph is the filtered (and possibly collapsed) graph that was laid out.
	// Shift flags from the layout are set on its nodes.
	Graph *seqgraph.Graph

	// Fingerprint is the content hash of the input graph.
	Fingerprint string

	// Layout holds the node positions.
	Layout *layout.Layout

	// Bubbles lists the collapsed bubbles, if Collapse was requested.
	Bubbles []transform.Bubble

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount     int // input nodes
	EdgeCount     int // input edges
	FilteredNodes int // nodes laid out
	Columns       int
	CollapseTime  time.Duration
	FilterTime    time.Duration
	LayoutTime    time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	CollapseHit bool
	LayoutHit   bool
	RenderHit   bool // all requested artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the options.
func (o *Options) Validate() error {
	if o.ColumnWidth < 0 || o.RowHeight < 0 || o.NodeSpacing < 0 {
		return fmt.Errorf("layout metrics must not be negative")
	}
	return ValidateFormats(o.Formats)
}

// Selection returns the selected genomes, or nil when all are kept.
func (o *Options) Selection() seqgraph.Sources {
	if o.Sources == nil {
		return nil
	}
	return seqgraph.NewSources(o.Sources...)
}

// LayoutOptions returns the layout metrics.
func (o *Options) LayoutOptions() layout.Options {
	return layout.Options{
		ColumnWidth: o.ColumnWidth,
		RowHeight:   o.RowHeight,
		NodeSpacing: o.NodeSpacing,
	}
}

// LayoutKeyOpts returns cache key options for the layout stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	var sources []string
	if sel := o.Selection(); sel != nil {
		sources = append([]string{}, sel.Sorted()...)
	}
	m := o.LayoutOptions()
	return cache.LayoutKeyOpts{
		Sources:     sources,
		Collapse:    o.Collapse,
		ColumnWidth: m.ColumnWidth,
		RowHeight:   m.RowHeight,
		NodeSpacing: m.NodeSpacing,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
	}
}
