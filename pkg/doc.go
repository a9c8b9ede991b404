// Package pkg provides the core libraries for pangraph, a layout engine for
// pangenome sequence-variation graphs.
//
// # Overview
//
// A pangenome graph stores the genomes of many strains as one directed
// acyclic graph of sequence segments. Each segment records which genomes
// traverse it. The pkg directory is organized by stage:
//
//  1. [seqgraph] - the graph, its nodes and source sets
//  2. [seqgraph/transform] - bubble collapsing and genome filtering
//  3. [layout] - column assignment and pixel positions
//  4. [newick] - phylogenetic trees for selecting genomes
//  5. [pipeline] - orchestration (collapse → filter → layout → render)
//  6. [cache] - file, memory and redis result caches
//  7. [io] - JSON graph, annotation and layout files
//
// # Architecture
//
// The typical data flow:
//
//	graph.json (+ annotations, tree)
//	         ↓
//	    [io] package (load records, build and validate the graph)
//	         ↓
//	    [seqgraph/transform] package (collapse bubbles, filter genomes)
//	         ↓
//	    [layout] package (columns, rows, x/y)
//	         ↓
//	    layout.json, DOT, SVG, PNG, PDF
//
// # Quick Start
//
//	g, err := io.ImportGraph("graph.json")
//	if err != nil {
//	    return err
//	}
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, err := runner.Run(ctx, g, pipeline.Options{
//	    Sources:  []string{"TKK_02_0004", "TKK_02_0010"},
//	    Collapse: true,
//	})
//	if err != nil {
//	    return err
//	}
//	io.ExportLayout(res.Layout, "layout.json")
//
// Id spaces: parsed segments keep their non-negative ids, variation nodes
// created by collapsing get negative ids counting down from -1.
//
// [seqgraph]: github.com/matzehuels/pangraph/pkg/seqgraph
// [seqgraph/transform]: github.com/matzehuels/pangraph/pkg/seqgraph/transform
// [layout]: github.com/matzehuels/pangraph/pkg/layout
// [newick]: github.com/matzehuels/pangraph/pkg/newick
// [pipeline]: github.com/matzehuels/pangraph/pkg/pipeline
// [cache]: github.com/matzehuels/pangraph/pkg/cache
// [io]: github.com/matzehuels/pangraph/pkg/io
package pkg
