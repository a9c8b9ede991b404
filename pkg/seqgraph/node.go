package seqgraph

import (
	"maps"
	"slices"
	"strings"
)

// NodeKind distinguishes segments parsed from input from synthetic nodes
// created by graph transformation.
type NodeKind int

const (
	// NodeKindSegment is a sequence segment read from the input graph.
	NodeKindSegment NodeKind = iota
	// NodeKindVariation is a synthetic node that replaces a collapsed bubble.
	// Variation nodes carry the ids of the segments they replace in Members.
	NodeKindVariation
)

// String returns "segment" or "variation".
func (k NodeKind) String() string {
	if k == NodeKindVariation {
		return "variation"
	}
	return "segment"
}

// Sources is the set of genome names that traverse a node.
// The zero value is an empty set; nil and empty sets behave identically.
type Sources map[string]struct{}

// NewSources builds a set from the given names.
func NewSources(names ...string) Sources {
	s := make(Sources, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s Sources) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of names in the set.
func (s Sources) Len() int { return len(s) }

// Intersects reports whether s and other share at least one name.
// Iterates over the smaller set.
func (s Sources) Intersects(other Sources) bool {
	a, b := s, other
	if len(b) < len(a) {
		a, b = b, a
	}
	for name := range a {
		if _, ok := b[name]; ok {
			return true
		}
	}
	return false
}

// Union returns a new set holding every name of s and others.
func (s Sources) Union(others ...Sources) Sources {
	out := maps.Clone(s)
	if out == nil {
		out = Sources{}
	}
	for _, o := range others {
		maps.Copy(out, o)
	}
	return out
}

// Clone returns an independent copy of the set. Cloning nil yields an empty set.
func (s Sources) Clone() Sources {
	if s == nil {
		return Sources{}
	}
	return maps.Clone(s)
}

// Sorted returns the names in ascending order.
func (s Sources) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Equal reports whether both sets hold the same names.
func (s Sources) Equal(other Sources) bool {
	if len(s) != len(other) {
		return false
	}
	for name := range s {
		if _, ok := other[name]; !ok {
			return false
		}
	}
	return true
}

// BaseCounter holds nucleotide counts for a node's content.
// Bases other than A, C, G and T (N, IUPAC codes) are counted in Other.
type BaseCounter struct {
	A     int `json:"a"`
	C     int `json:"c"`
	G     int `json:"g"`
	T     int `json:"t"`
	Other int `json:"other"`
}

// CountBases tallies the bases of a DNA sequence, ignoring case.
func CountBases(content string) BaseCounter {
	var b BaseCounter
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case 'A', 'a':
			b.A++
		case 'C', 'c':
			b.C++
		case 'G', 'g':
			b.G++
		case 'T', 't':
			b.T++
		default:
			b.Other++
		}
	}
	return b
}

// Total returns the sequence length the counter was built from.
func (b BaseCounter) Total() int { return b.A + b.C + b.G + b.T + b.Other }

// Add returns the element-wise sum of two counters.
func (b BaseCounter) Add(o BaseCounter) BaseCounter {
	return BaseCounter{A: b.A + o.A, C: b.C + o.C, G: b.G + o.G, T: b.T + o.T, Other: b.Other + o.Other}
}

// GC returns the GC fraction of the counted bases, or 0 for an empty counter.
func (b BaseCounter) GC() float64 {
	total := b.Total()
	if total == 0 {
		return 0
	}
	return float64(b.G+b.C) / float64(total)
}

// Annotation is a feature (gene, resistance marker) attached to a node after load.
// The graph never interprets annotations; they travel with the node.
type Annotation struct {
	Name       string            `json:"name"`
	Start      int               `json:"start"`
	End        int               `json:"end"`
	Strand     string            `json:"strand,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Node is a sequence segment or a synthetic variation node.
//
// Parsed segments have non-negative ids assigned by the loader. Variation
// nodes get negative ids from [Graph.NextSyntheticID], so the two id spaces
// never collide.
type Node struct {
	ID       int
	Content  string  // DNA sequence, empty for variation nodes
	Sources  Sources // genomes traversing this node
	RefStart int     // start in the reference genome
	RefEnd   int     // end in the reference genome, >= RefStart
	Bases    BaseCounter

	Annotations []Annotation

	// Shift marks a node alone in its column while other columns are crowded.
	// Set by layout; renderers may nudge such nodes.
	Shift bool

	Kind NodeKind
	// Members lists the segment ids collapsed into a variation node, ascending.
	Members []int
	// Start and End are the branch and reconvergence ids around a variation node.
	Start, End int
}

// IsVariation reports whether the node was synthesized by bubble collapsing.
func (n *Node) IsVariation() bool { return n.Kind == NodeKindVariation }

// Len returns the length of the node's sequence.
func (n *Node) Len() int { return len(n.Content) }

// Label returns a short human-readable description of the node.
func (n *Node) Label() string {
	if n.IsVariation() {
		return "variation(" + strings.Join(intStrings(n.Members), ",") + ")"
	}
	if len(n.Content) > 12 {
		return n.Content[:12] + "…"
	}
	return n.Content
}

func (n *Node) clone() *Node {
	c := *n
	c.Sources = n.Sources.Clone()
	c.Members = slices.Clone(n.Members)
	if n.Annotations != nil {
		c.Annotations = make([]Annotation, len(n.Annotations))
		for i, a := range n.Annotations {
			a.Attributes = maps.Clone(a.Attributes)
			c.Annotations[i] = a
		}
	}
	return &c
}
