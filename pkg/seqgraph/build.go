package seqgraph

import "fmt"

// NodeRecord is a parsed segment as delivered by a graph loader.
type NodeRecord struct {
	ID       int      `json:"id"`
	Sources  []string `json:"sources"`
	RefStart int      `json:"ref_start"`
	RefEnd   int      `json:"ref_end"`
	Content  string   `json:"content"`
}

// EdgeRecord is a parsed link between two segment ids.
type EdgeRecord struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Build constructs a graph from loader records.
//
// Nodes are inserted in order, then edges. Edges are added without the
// per-edge reachability check of [Graph.AddEdge]; a single [Graph.Validate]
// pass runs at the end instead. Every failure, including an edge to an
// unknown id or a cycle, is reported as ErrMalformedGraph wrapping the
// underlying sentinel, so both errors.Is(err, ErrMalformedGraph) and
// errors.Is(err, ErrUnknownNode) hold for a dangling edge.
func Build(nodes []NodeRecord, edges []EdgeRecord) (*Graph, error) {
	g := New()
	for _, r := range nodes {
		n := Node{
			ID:       r.ID,
			Content:  r.Content,
			Sources:  NewSources(r.Sources...),
			RefStart: r.RefStart,
			RefEnd:   r.RefEnd,
		}
		if _, err := g.AddNode(n); err != nil {
			return nil, malformed(err)
		}
	}
	for _, e := range edges {
		if err := g.checkEndpoints(e.From, e.To); err != nil {
			return nil, malformed(err)
		}
		if e.From == e.To {
			return nil, malformed(fmt.Errorf("self loop on %d: %w", e.From, ErrCycle))
		}
		g.insertEdge(e.From, e.To)
	}
	if err := g.Validate(); err != nil {
		return nil, malformed(err)
	}
	return g, nil
}

// Records converts the graph back into loader records, ascending by id.
// Variation nodes are included with their (empty) content.
func (g *Graph) Records() ([]NodeRecord, []EdgeRecord) {
	nodes := g.Nodes()
	nr := make([]NodeRecord, len(nodes))
	for i, n := range nodes {
		nr[i] = NodeRecord{
			ID:       n.ID,
			Sources:  n.Sources.Sorted(),
			RefStart: n.RefStart,
			RefEnd:   n.RefEnd,
			Content:  n.Content,
		}
	}
	edges := g.Edges()
	er := make([]EdgeRecord, len(edges))
	for i, e := range edges {
		er[i] = EdgeRecord(e)
	}
	return nr, er
}

func malformed(err error) error { return fmt.Errorf("%w: %w", ErrMalformedGraph, err) }
