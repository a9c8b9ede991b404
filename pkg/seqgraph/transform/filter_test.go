package transform

import (
	"fmt"
	"slices"
	"testing"

	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

func TestFilter_Diamond(t *testing.T) {
	g := diamond(t)

	out := Filter(g, seqgraph.NewSources("g2"))

	if got := out.IDs(); !slices.Equal(got, []int{1, 3, 4}) {
		t.Errorf("IDs() = %v, want [1 3 4]", got)
	}
	want := []seqgraph.Edge{{From: 1, To: 3}, {From: 3, To: 4}}
	if got := out.Edges(); !slices.Equal(got, want) {
		t.Errorf("Edges() = %v, want %v", got, want)
	}
	if g.NodeCount() != 4 || g.EdgeCount() != 4 {
		t.Error("Filter modified its input")
	}
}

func TestFilter_Selections(t *testing.T) {
	tests := []struct {
		name      string
		selected  seqgraph.Sources
		wantNodes []int
		wantEdges int
	}{
		{"all", seqgraph.NewSources("g1", "g2"), []int{1, 2, 3, 4}, 4},
		{"g1", seqgraph.NewSources("g1"), []int{1, 2, 4}, 2},
		{"unknown", seqgraph.NewSources("g9"), nil, 0},
		{"empty", seqgraph.Sources{}, nil, 0},
		{"nil", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Filter(diamond(t), tt.selected)
			if got := out.IDs(); !slices.Equal(got, tt.wantNodes) {
				t.Errorf("IDs() = %v, want %v", got, tt.wantNodes)
			}
			if out.EdgeCount() != tt.wantEdges {
				t.Errorf("EdgeCount() = %d, want %d", out.EdgeCount(), tt.wantEdges)
			}
		})
	}
}

func TestFilter_DropsEdgeWithOneIrrelevantEndpoint(t *testing.T) {
	g := build(t,
		map[int][]string{1: {"g1"}, 2: {"g2"}, 3: {"g1"}},
		[][2]int{{1, 2}, {2, 3}, {1, 3}},
	)

	out := Filter(g, seqgraph.NewSources("g1"))
	if got := out.Edges(); !slices.Equal(got, []seqgraph.Edge{{From: 1, To: 3}}) {
		t.Errorf("Edges() = %v, want [{1 3}]", got)
	}
}

func TestFilter_Properties(t *testing.T) {
	selections := []seqgraph.Sources{
		seqgraph.NewSources("g1"),
		seqgraph.NewSources("g2", "g3"),
		seqgraph.NewSources("g4"),
	}
	for seed := uint64(1); seed <= 15; seed++ {
		g := randomGraph(t, seed, 30)
		for i, sel := range selections {
			t.Run(fmt.Sprintf("seed=%d/sel=%d", seed, i), func(t *testing.T) {
				out := Filter(g, sel)

				for _, n := range out.Nodes() {
					if !g.HasNode(n.ID) {
						t.Errorf("node %d not in input", n.ID)
					}
					if !n.Sources.Intersects(sel) {
						t.Errorf("node %d sources %v miss selection", n.ID, n.Sources.Sorted())
					}
				}
				for _, e := range out.Edges() {
					if !g.HasEdge(e.From, e.To) {
						t.Errorf("edge %v not in input", e)
					}
				}

				again := Filter(out, sel)
				if !slices.Equal(again.IDs(), out.IDs()) || !slices.Equal(again.Edges(), out.Edges()) {
					t.Error("Filter is not idempotent")
				}
			})
		}
	}
}

func TestFilter_AllGenomesThenCollapse(t *testing.T) {
	g := diamond(t)
	_, res, err := CollapseBubbles(g)
	if err != nil {
		t.Fatal(err)
	}
	sid := res.Bubbles[0].Synthetic

	// Selecting every genome and collapsing matches collapsing directly.
	sub := Filter(g, seqgraph.NewSources("g1", "g2"))
	_, res2, err := CollapseBubbles(sub)
	if err != nil {
		t.Fatal(err)
	}
	if len(res2.Bubbles) != 1 || res2.Bubbles[0].Synthetic != sid {
		t.Errorf("collapse after filter = %+v, want synthetic %d", res2.Bubbles, sid)
	}
}
