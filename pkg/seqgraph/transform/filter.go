package transform

import "github.com/matzehuels/pangraph/pkg/seqgraph"

// Filter returns the subgraph of g relevant to the selected genomes.
//
// Edges are evaluated first, against the sources of the input graph: an
// edge is kept only if both endpoints traverse at least one selected genome.
// An edge with one irrelevant endpoint is dropped even if the other endpoint
// is relevant, since a dangling half path means nothing to a viewer. Nodes
// are then kept if their sources intersect the selection.
//
// The result is a new graph; g is not modified. It is a true subgraph of g,
// filtering it again with the same selection changes nothing, and an empty
// selection yields an empty graph. The synthetic id counter of g carries
// over, so the result can still be collapsed without id collisions.
func Filter(g *seqgraph.Graph, selected seqgraph.Sources) *seqgraph.Graph {
	var edges []seqgraph.Edge
	for _, e := range g.Edges() {
		if g.Sources(e.From).Intersects(selected) && g.Sources(e.To).Intersects(selected) {
			edges = append(edges, e)
		}
	}

	var ids []int
	for _, n := range g.Nodes() {
		if n.Sources.Intersects(selected) {
			ids = append(ids, n.ID)
		}
	}
	return g.Subgraph(ids, edges)
}
