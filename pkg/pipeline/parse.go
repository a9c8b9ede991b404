package pipeline

import (
	"context"
	"fmt"

	graphio "github.com/matzehuels/pangraph/pkg/io"
	"github.com/matzehuels/pangraph/pkg/newick"
	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

// ParseOptions names the input files of a session.
type ParseOptions struct {
	Graph       string // JSON graph records, required
	Annotations string // annotation file, optional
	Tree        string // Newick file, optional
}

// Input is a loaded session: the graph and, if given, the phylogeny whose
// selection drives filtering.
type Input struct {
	Graph *seqgraph.Graph
	Tree  *newick.Tree
}

// Parse loads the graph, attaches annotations and parses the tree.
func Parse(ctx context.Context, opts ParseOptions) (*Input, error) {
	if opts.Graph == "" {
		return nil, fmt.Errorf("graph file is required")
	}

	g, err := graphio.ImportGraph(opts.Graph)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Annotations != "" {
		if _, err := graphio.ImportAnnotations(opts.Annotations, g); err != nil {
			return nil, fmt.Errorf("load annotations: %w", err)
		}
	}

	in := &Input{Graph: g}
	if opts.Tree != "" {
		t, err := newick.ParseFile(opts.Tree)
		if err != nil {
			return nil, fmt.Errorf("load tree: %w", err)
		}
		in.Tree = t
	}
	return in, nil
}

// UnknownLeaves returns tree leaf names that no graph node carries, in
// tree order. Selecting such a leaf filters to nothing.
func (in *Input) UnknownLeaves() []string {
	if in.Tree == nil {
		return nil
	}
	known := in.Graph.AllSources()
	var out []string
	for _, id := range in.Tree.Leaves() {
		if n, _ := in.Tree.Node(id); !known.Has(n.Name) {
			out = append(out, n.Name)
		}
	}
	return out
}
