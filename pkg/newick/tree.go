package newick

import (
	"fmt"
	"strings"

	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

// Selection is the tri-state selection of a tree node.
type Selection int

const (
	None Selection = iota
	Partial
	All
)

func (s Selection) String() string {
	switch s {
	case None:
		return "none"
	case Partial:
		return "partial"
	case All:
		return "all"
	default:
		return fmt.Sprintf("Selection(%d)", int(s))
	}
}

// Any reports whether at least part of the subtree is selected.
func (s Selection) Any() bool { return s != None }

// Toggle returns None for All and All for anything else.
func (s Selection) Toggle() Selection {
	if s == All {
		return None
	}
	return All
}

func merge(a, b Selection) Selection {
	if a == b {
		return a
	}
	return Partial
}

// Node is one entry of a [Tree]. Leaves name genomes; internal nodes are
// usually unnamed ancestors.
type Node struct {
	ID        int
	Name      string
	Weight    float64 // branch length to the parent
	Children  []int
	Selection Selection
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Tree is a phylogenetic tree stored as an arena. Node ids index Nodes and
// the root is id 0.
type Tree struct {
	Nodes  []Node
	parent map[int]int
}

func (t *Tree) add(parent int) int {
	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{ID: id})
	if parent >= 0 {
		t.parent[id] = parent
		t.Nodes[parent].Children = append(t.Nodes[parent].Children, id)
	}
	return id
}

// Root returns the root node id, or -1 for an empty tree.
func (t *Tree) Root() int {
	if len(t.Nodes) == 0 {
		return -1
	}
	return 0
}

// Node returns the node with the given id.
func (t *Tree) Node(id int) (*Node, bool) {
	if id < 0 || id >= len(t.Nodes) {
		return nil, false
	}
	return &t.Nodes[id], true
}

// Parent returns the parent of id. The root has none.
func (t *Tree) Parent(id int) (int, bool) {
	p, ok := t.parent[id]
	return p, ok
}

// Leaves returns the leaf ids in pre-order.
func (t *Tree) Leaves() []int {
	var ids []int
	for _, n := range t.Nodes {
		if n.IsLeaf() {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Find returns the id of the first node named name.
func (t *Tree) Find(name string) (int, bool) {
	for _, n := range t.Nodes {
		if n.Name == name {
			return n.ID, true
		}
	}
	return 0, false
}

// Sources returns the names of the leaves below id.
func (t *Tree) Sources(id int) seqgraph.Sources {
	out := seqgraph.Sources{}
	t.walk(id, func(n *Node) {
		if n.IsLeaf() && n.Name != "" {
			out[n.Name] = struct{}{}
		}
	})
	return out
}

func (t *Tree) walk(id int, fn func(*Node)) {
	n, ok := t.Node(id)
	if !ok {
		return
	}
	fn(n)
	for _, c := range n.Children {
		t.walk(c, fn)
	}
}

// Toggle flips the selection of id between All and None. The new state is
// pushed down to every descendant, then each ancestor is recomputed from
// its children: All if every child is All, None if every child is None,
// Partial otherwise.
func (t *Tree) Toggle(id int) error {
	n, ok := t.Node(id)
	if !ok {
		return fmt.Errorf("newick: unknown node %d", id)
	}
	t.set(id, n.Selection.Toggle())
	t.refresh(id)
	return nil
}

// Select sets every leaf named in names to All and recomputes ancestors.
// Unknown names are returned as an error after the known ones are applied.
func (t *Tree) Select(names ...string) error {
	var missing []string
	for _, name := range names {
		id, ok := t.Find(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		t.set(id, All)
		t.refresh(id)
	}
	if len(missing) > 0 {
		return fmt.Errorf("newick: unknown names %s", strings.Join(missing, ", "))
	}
	return nil
}

// Clear deselects the whole tree.
func (t *Tree) Clear() {
	for i := range t.Nodes {
		t.Nodes[i].Selection = None
	}
}

func (t *Tree) set(id int, s Selection) {
	t.walk(id, func(n *Node) { n.Selection = s })
}

func (t *Tree) refresh(id int) {
	for p, ok := t.Parent(id); ok; p, ok = t.Parent(p) {
		n := &t.Nodes[p]
		s := t.Nodes[n.Children[0]].Selection
		for _, c := range n.Children[1:] {
			s = merge(s, t.Nodes[c].Selection)
		}
		n.Selection = s
	}
}

// SelectedSources returns the names of all selected leaves.
func (t *Tree) SelectedSources() seqgraph.Sources {
	out := seqgraph.Sources{}
	for _, n := range t.Nodes {
		if n.IsLeaf() && n.Selection == All && n.Name != "" {
			out[n.Name] = struct{}{}
		}
	}
	return out
}

// Pruned returns a new tree holding only the (partially) selected nodes.
// Selections are copied. An unselected root yields an empty tree.
func (t *Tree) Pruned() *Tree {
	out := &Tree{parent: make(map[int]int)}
	if len(t.Nodes) == 0 || !t.Nodes[0].Selection.Any() {
		return out
	}
	var copyNode func(id, parent int)
	copyNode = func(id, parent int) {
		src := t.Nodes[id]
		nid := out.add(parent)
		out.Nodes[nid].Name = src.Name
		out.Nodes[nid].Weight = src.Weight
		out.Nodes[nid].Selection = src.Selection
		for _, c := range src.Children {
			if t.Nodes[c].Selection.Any() {
				copyNode(c, nid)
			}
		}
	}
	copyNode(0, -1)
	return out
}

// String dumps the tree one node per line, indented by depth.
func (t *Tree) String() string {
	var b strings.Builder
	var dump func(id, depth int)
	dump = func(id, depth int) {
		n := t.Nodes[id]
		b.WriteString(strings.Repeat("\t", depth))
		if n.IsLeaf() {
			fmt.Fprintf(&b, "Leaf<%s,%g>", n.Name, n.Weight)
		} else {
			fmt.Fprintf(&b, "Ancestor<%g>", n.Weight)
		}
		if n.Selection != None {
			fmt.Fprintf(&b, " [%s]", n.Selection)
		}
		b.WriteByte('\n')
		for _, c := range n.Children {
			dump(c, depth+1)
		}
	}
	if len(t.Nodes) > 0 {
		dump(0, 0)
	}
	return b.String()
}
