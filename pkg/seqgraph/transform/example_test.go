package transform_test

import (
	"fmt"

	"github.com/matzehuels/pangraph/pkg/seqgraph"
	"github.com/matzehuels/pangraph/pkg/seqgraph/transform"
)

func example() *seqgraph.Graph {
	g, _ := seqgraph.Build(
		[]seqgraph.NodeRecord{
			{ID: 1, Sources: []string{"g1", "g2"}},
			{ID: 2, Sources: []string{"g1"}},
			{ID: 3, Sources: []string{"g2"}},
			{ID: 4, Sources: []string{"g1", "g2"}},
		},
		[]seqgraph.EdgeRecord{{From: 1, To: 2}, {From: 1, To: 3}, {From: 2, To: 4}, {From: 3, To: 4}},
	)
	return g
}

func ExampleCollapseBubbles() {
	out, res, err := transform.CollapseBubbles(example())
	if err != nil {
		fmt.Println(err)
		return
	}

	b := res.Bubbles[0]
	fmt.Println("Bubble:", b.Start, "->", b.End, b.Interior)
	fmt.Println("Nodes:", out.IDs())
	fmt.Println("Edges:", out.Edges())
	fmt.Println("Sources:", out.Sources(b.Synthetic).Sorted())
	// Output:
	// Bubble: 1 -> 4 [2 3]
	// Nodes: [-1 1 4]
	// Edges: [{-1 4} {1 -1}]
	// Sources: [g1 g2]
}

func ExampleFilter() {
	out := transform.Filter(example(), seqgraph.NewSources("g2"))
	fmt.Println("Nodes:", out.IDs())
	fmt.Println("Edges:", out.Edges())
	// Output:
	// Nodes: [1 3 4]
	// Edges: [{1 3} {3 4}]
}
