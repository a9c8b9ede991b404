package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/pangraph/pkg/layout"
	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

// WriteGraph encodes g as JSON and writes it to w. Variation nodes keep
// their members and bubble endpoints, so the output re-imports with
// [ReadGraph] unchanged.
func WriteGraph(g *seqgraph.Graph, w io.Writer) error {
	records, edges := g.Records()
	out := graph{
		Nodes: make([]node, len(records)),
		Edges: edges,
	}
	for i, r := range records {
		nd := node{NodeRecord: r}
		if n, ok := g.Node(r.ID); ok && n.IsVariation() {
			start, end, bases := n.Start, n.End, n.Bases
			nd.Kind = n.Kind.String()
			nd.Members = n.Members
			nd.Start, nd.End, nd.Bases = &start, &end, &bases
		}
		out.Nodes[i] = nd
	}
	if out.Edges == nil {
		out.Edges = []edge{}
	}
	return encode(w, out)
}

// ExportGraph writes g to a JSON file at path.
func ExportGraph(g *seqgraph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteGraph(g, f)
}

type layoutDoc struct {
	Positions []layout.Position `json:"positions"`
	MaxColumn int               `json:"max_column"`
}

// WriteLayout encodes l as JSON, positions ordered by column then row:
//
//	{"positions": [{"id": 1, "column": 0, "row": 0, "x": 0, "y": -50, "shift": false}], "max_column": 0}
func WriteLayout(l *layout.Layout, w io.Writer) error {
	return encode(w, layoutDoc{Positions: l.Ordered(), MaxColumn: l.MaxColumn()})
}

// ExportLayout writes l to a JSON file at path.
func ExportLayout(l *layout.Layout, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteLayout(l, f)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
