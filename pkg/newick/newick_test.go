package newick

import (
	"errors"
	"slices"
	"testing"
)

const sample = "(g1:0.1,(g2:0.2,g3:0.3)anc:0.5);"

func TestParse(t *testing.T) {
	tr, err := Parse(sample)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tr.Nodes) != 5 {
		t.Fatalf("len(Nodes) = %d, want 5", len(tr.Nodes))
	}

	tests := []struct {
		id     int
		name   string
		weight float64
		parent int
	}{
		{1, "g1", 0.1, 0},
		{2, "anc", 0.5, 0},
		{3, "g2", 0.2, 2},
		{4, "g3", 0.3, 2},
	}
	for _, tt := range tests {
		n, _ := tr.Node(tt.id)
		if n.Name != tt.name || n.Weight != tt.weight {
			t.Errorf("node %d = %q:%v, want %q:%v", tt.id, n.Name, n.Weight, tt.name, tt.weight)
		}
		if p, ok := tr.Parent(tt.id); !ok || p != tt.parent {
			t.Errorf("Parent(%d) = %d, %v; want %d", tt.id, p, ok, tt.parent)
		}
	}
	if _, ok := tr.Parent(0); ok {
		t.Error("root has a parent")
	}
	if got := tr.Leaves(); !slices.Equal(got, []int{1, 3, 4}) {
		t.Errorf("Leaves() = %v, want [1 3 4]", got)
	}
}

func TestParse_Variants(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		leaves []string
	}{
		{"single leaf", "A;", []string{"A"}},
		{"no semicolon", "(A,B)", []string{"A", "B"}},
		{"whitespace", " ( A : 1 , B : 2 ) ; ", []string{"A", "B"}},
		{"quoted", "('genome one',B);", []string{"B", "genome one"}},
		{"underscores kept", "(TKK_02_0004,B);", []string{"B", "TKK_02_0004"}},
		{"scientific weight", "(A:1e-3,B:2.5E2);", []string{"A", "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := tr.Sources(tr.Root()).Sorted(); !slices.Equal(got, tt.leaves) {
				t.Errorf("Sources(root) = %v, want %v", got, tt.leaves)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, input := range []string{
		"",
		"   ",
		"(A,B",
		"(A;B);",
		"(A:x,B);",
		"(A:,B);",
		"('A,B);",
		"(A,B);C",
	} {
		if _, err := Parse(input); !errors.Is(err, ErrSyntax) {
			t.Errorf("Parse(%q) error = %v, want ErrSyntax", input, err)
		}
	}
}

func TestToggle_PropagatesDownAndUp(t *testing.T) {
	tr := MustParse(sample)
	anc, _ := tr.Find("anc")

	if err := tr.Toggle(anc); err != nil {
		t.Fatal(err)
	}
	want := []Selection{Partial, None, All, All, All}
	for id, s := range want {
		if got := tr.Nodes[id].Selection; got != s {
			t.Errorf("node %d selection = %v, want %v", id, got, s)
		}
	}
	if got := tr.SelectedSources().Sorted(); !slices.Equal(got, []string{"g2", "g3"}) {
		t.Errorf("SelectedSources() = %v", got)
	}

	g1, _ := tr.Find("g1")
	tr.Toggle(g1)
	if tr.Nodes[0].Selection != All {
		t.Errorf("root selection = %v, want all", tr.Nodes[0].Selection)
	}

	g2, _ := tr.Find("g2")
	tr.Toggle(g2)
	if tr.Nodes[anc].Selection != Partial || tr.Nodes[0].Selection != Partial {
		t.Errorf("after deselecting g2: anc=%v root=%v, want partial", tr.Nodes[anc].Selection, tr.Nodes[0].Selection)
	}

	tr.Toggle(0) // partial -> all
	if got := tr.SelectedSources().Len(); got != 3 {
		t.Errorf("SelectedSources() after root toggle = %d, want 3", got)
	}
	tr.Toggle(0) // all -> none
	if got := tr.SelectedSources().Len(); got != 0 {
		t.Errorf("SelectedSources() after second root toggle = %d, want 0", got)
	}

	if err := tr.Toggle(42); err == nil {
		t.Error("Toggle(42) error = nil")
	}
}

func TestSelect(t *testing.T) {
	tr := MustParse(sample)
	err := tr.Select("g1", "g3", "nope")
	if err == nil {
		t.Error("Select() with unknown name error = nil")
	}
	if got := tr.SelectedSources().Sorted(); !slices.Equal(got, []string{"g1", "g3"}) {
		t.Errorf("SelectedSources() = %v, want [g1 g3]", got)
	}

	tr.Clear()
	if tr.SelectedSources().Len() != 0 || tr.Nodes[0].Selection != None {
		t.Error("Clear() left a selection")
	}
}

func TestPruned(t *testing.T) {
	tr := MustParse(sample)
	if p := tr.Pruned(); len(p.Nodes) != 0 || p.Root() != -1 {
		t.Errorf("Pruned() of unselected tree = %d nodes", len(p.Nodes))
	}

	tr.Select("g1", "g3")
	p := tr.Pruned()
	if got := p.Sources(p.Root()).Sorted(); !slices.Equal(got, []string{"g1", "g3"}) {
		t.Errorf("Pruned() leaves = %v, want [g1 g3]", got)
	}
	if len(p.Nodes) != 4 {
		t.Errorf("Pruned() = %d nodes, want 4", len(p.Nodes))
	}
}

func TestString(t *testing.T) {
	tr := MustParse("(A:1,B:2.5):0;")
	tr.Select("B")
	want := "Ancestor<0> [partial]\n\tLeaf<A,1>\n\tLeaf<B,2.5> [all]\n"
	if got := tr.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if (&Tree{}).String() != "" {
		t.Error("empty tree String() not empty")
	}
}
