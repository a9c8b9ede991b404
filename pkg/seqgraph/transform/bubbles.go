package transform

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

// Bubble is a region where the paths leaving Start reconverge at End.
// Interior holds the ids strictly between them, ascending.
type Bubble struct {
	Start    int   `json:"start"`
	End      int   `json:"end"`
	Interior []int `json:"interior"`
	// Synthetic is the id of the variation node that replaced the interior.
	// Zero until the bubble is collapsed.
	Synthetic int `json:"synthetic,omitempty"`
}

// CollapseResult reports what [CollapseBubbles] did.
type CollapseResult struct {
	Bubbles []Bubble // accepted bubbles in collapse order
	Passes  int      // passes run, including the final pass that found nothing
}

// CollapseBubbles replaces every closed bubble with a single variation node.
//
// The input graph is never modified: CollapseBubbles clones it, collapses
// the clone and returns it. If the clone ends up violating acyclicity the
// whole collapse is abandoned and ErrGraphIntegrity is returned.
//
// # Algorithm
//
// Each pass visits the branch nodes (out-degree > 1) of the working graph in
// ascending id order and runs [DetectBubble] on each. An accepted bubble is
// collapsed immediately:
//  1. the interior nodes and their edges are removed
//  2. a variation node S is added with the union of the interior sources and
//     the ids of the collapsed segments in Members
//  3. edges Start -> S -> End are added; other edges of Start and End stay
//
// Within one pass a bubble whose interior holds a variation node created
// earlier in the same pass is skipped, so the first detected (lowest id)
// bubble wins; the skipped region is revisited in the next pass, where the
// outer bubble absorbs the inner variation node. A bubble whose interior is
// exactly one variation node is already in collapsed form and is left alone.
// Passes repeat until one accepts nothing.
//
// # Termination
//
// Every accepted bubble either removes at least two nodes while adding one,
// or turns a single segment into a variation node, so the number of nodes
// plus the number of segments strictly decreases.
func CollapseBubbles(g *seqgraph.Graph) (*seqgraph.Graph, CollapseResult, error) {
	work := g.Clone()
	var res CollapseResult

	for {
		res.Passes++
		created := make(map[int]bool)
		for _, start := range branchNodes(work) {
			if !work.HasNode(start) || work.OutDegree(start) < 2 {
				continue
			}
			b, ok := DetectBubble(work, start)
			if !ok || touches(b.Interior, created) || alreadyCollapsed(work, b) {
				continue
			}
			id, err := collapse(work, b)
			if err != nil {
				return nil, res, err
			}
			b.Synthetic = id
			created[id] = true
			res.Bubbles = append(res.Bubbles, b)
		}
		if len(created) == 0 {
			break
		}
	}

	if _, err := work.TopoSort(); err != nil {
		return nil, res, fmt.Errorf("%w: after collapse: %w", seqgraph.ErrGraphIntegrity, err)
	}
	return work, res, nil
}

// DetectBubble looks for a closed bubble starting at the branch node start.
//
// Detection is a worklist search. One lane is opened per outgoing edge of
// start and seeded with that successor; a FIFO frontier of (node, lane)
// items interleaves the lanes round-robin. Each popped node joins its
// lane's bucket. The first popped node found in every bucket is the
// reconvergence node End. Otherwise the node's successors are queued on the
// same lane, each at most once per lane. A frontier that runs dry means the
// paths never reconverge, which is a normal outcome and reported as false.
//
// Lanes of unequal length still meet at the first node common to all of
// them, not at the first node a single lane revisits.
//
// The region between start and End must also be closed: no interior node
// may have an edge leaving the region other than to End, or entering it
// other than from start. Otherwise collapsing it would break reachability,
// so DetectBubble reports false and the divergence stays visible.
func DetectBubble(g *seqgraph.Graph, start int) (Bubble, bool) {
	succ := g.Successors(start)
	if len(succ) < 2 {
		return Bubble{}, false
	}

	type item struct{ id, lane int }
	lanes := make([]map[int]bool, len(succ))
	queued := make([]map[int]bool, len(succ))
	frontier := make([]item, 0, len(succ))
	for i, s := range succ {
		lanes[i] = make(map[int]bool)
		queued[i] = map[int]bool{s: true}
		frontier = append(frontier, item{id: s, lane: i})
	}

	end, found := 0, false
	for len(frontier) > 0 {
		curr := frontier[0]
		frontier = frontier[1:]

		lanes[curr.lane][curr.id] = true
		if inEveryLane(lanes, curr.id) {
			end, found = curr.id, true
			break
		}
		for _, next := range g.Successors(curr.id) {
			if !queued[curr.lane][next] {
				queued[curr.lane][next] = true
				frontier = append(frontier, item{id: next, lane: curr.lane})
			}
		}
	}
	if !found {
		return Bubble{}, false
	}

	interior := between(g, start, end)
	if !closed(g, start, end, interior) {
		return Bubble{}, false
	}
	return Bubble{Start: start, End: end, Interior: sortedKeys(interior)}, true
}

func inEveryLane(lanes []map[int]bool, id int) bool {
	for _, l := range lanes {
		if !l[id] {
			return false
		}
	}
	return true
}

// between returns the nodes on some path start ->* end, exclusive of both:
// forward-reachable from start without passing end, intersected with
// backward-reachable from end without passing start.
func between(g *seqgraph.Graph, start, end int) map[int]bool {
	forward := walk(start, end, g.Successors)
	backward := walk(end, start, g.Predecessors)
	interior := make(map[int]bool)
	for id := range forward {
		if backward[id] {
			interior[id] = true
		}
	}
	return interior
}

func walk(from, stop int, next func(int) []int) map[int]bool {
	seen := make(map[int]bool)
	stack := []int{from}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, n := range next(curr) {
			if n == stop || n == from || seen[n] {
				continue
			}
			seen[n] = true
			stack = append(stack, n)
		}
	}
	return seen
}

func closed(g *seqgraph.Graph, start, end int, interior map[int]bool) bool {
	if len(interior) == 0 {
		return false
	}
	for id := range interior {
		for _, s := range g.Successors(id) {
			if s != end && !interior[s] {
				return false
			}
		}
		for _, p := range g.Predecessors(id) {
			if p != start && !interior[p] {
				return false
			}
		}
	}
	return true
}

func branchNodes(g *seqgraph.Graph) []int {
	var ids []int
	for _, id := range g.IDs() {
		if g.OutDegree(id) > 1 {
			ids = append(ids, id)
		}
	}
	return ids
}

func touches(ids []int, set map[int]bool) bool {
	for _, id := range ids {
		if set[id] {
			return true
		}
	}
	return false
}

func alreadyCollapsed(g *seqgraph.Graph, b Bubble) bool {
	if len(b.Interior) != 1 {
		return false
	}
	n, ok := g.Node(b.Interior[0])
	return ok && n.IsVariation()
}

// collapse swaps the bubble interior for a variation node and returns its id.
func collapse(g *seqgraph.Graph, b Bubble) (int, error) {
	v := seqgraph.Node{
		Kind:    seqgraph.NodeKindVariation,
		Sources: seqgraph.Sources{},
		Start:   b.Start,
		End:     b.End,
	}
	for i, id := range b.Interior {
		n, ok := g.Node(id)
		if !ok {
			return 0, fmt.Errorf("%w: bubble %d->%d: interior %d: %w", seqgraph.ErrGraphIntegrity, b.Start, b.End, id, seqgraph.ErrUnknownNode)
		}
		if n.IsVariation() {
			v.Members = append(v.Members, n.Members...)
		} else {
			v.Members = append(v.Members, id)
		}
		v.Sources = v.Sources.Union(n.Sources)
		v.Bases = v.Bases.Add(n.Bases)
		v.Annotations = append(v.Annotations, n.Annotations...)
		if i == 0 || n.RefStart < v.RefStart {
			v.RefStart = n.RefStart
		}
		if i == 0 || n.RefEnd > v.RefEnd {
			v.RefEnd = n.RefEnd
		}
	}
	slices.Sort(v.Members)
	sortAnnotations(v.Annotations)

	for _, id := range b.Interior {
		if err := g.RemoveNode(id); err != nil {
			return 0, fmt.Errorf("%w: %w", seqgraph.ErrGraphIntegrity, err)
		}
	}

	v.ID = g.NextSyntheticID()
	if _, err := g.AddNode(v); err != nil {
		return 0, fmt.Errorf("%w: %w", seqgraph.ErrGraphIntegrity, err)
	}
	if err := g.AddEdge(b.Start, v.ID); err != nil {
		return 0, fmt.Errorf("%w: %w", seqgraph.ErrGraphIntegrity, err)
	}
	if err := g.AddEdge(v.ID, b.End); err != nil {
		return 0, fmt.Errorf("%w: %w", seqgraph.ErrGraphIntegrity, err)
	}
	return v.ID, nil
}

func sortedKeys(m map[int]bool) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// MemberAnnotations gathers the annotations that src carries for the given
// variation members, in the order a collapse attaches them. Variation nodes
// of src whose members all fall within members contribute theirs too.
func MemberAnnotations(src *seqgraph.Graph, members []int) []seqgraph.Annotation {
	if len(members) == 0 {
		return nil
	}
	var out []seqgraph.Annotation
	for _, id := range members {
		if n, ok := src.Node(id); ok && !n.IsVariation() {
			out = append(out, n.Annotations...)
		}
	}
	for _, n := range src.Nodes() {
		if n.IsVariation() && len(n.Members) > 0 && subset(n.Members, members) {
			out = append(out, n.Annotations...)
		}
	}
	sortAnnotations(out)
	return out
}

// subset reports whether every id of a is in the ascending list b.
func subset(a, b []int) bool {
	for _, id := range a {
		if _, ok := slices.BinarySearch(b, id); !ok {
			return false
		}
	}
	return true
}

func sortAnnotations(anns []seqgraph.Annotation) {
	slices.SortStableFunc(anns, func(a, b seqgraph.Annotation) int {
		return cmp.Or(
			cmp.Compare(a.Start, b.Start),
			cmp.Compare(a.End, b.End),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Strand, b.Strand),
		)
	})
}
