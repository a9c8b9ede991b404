package seqgraph

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strconv"
)

var (
	// ErrDuplicateID is returned by [Graph.AddNode] when a node with the same
	// id already exists. Node ids are unique within a graph.
	ErrDuplicateID = errors.New("duplicate node id")

	// ErrUnknownNode is returned when an operation references a node id that
	// is not in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrCycle is returned by [Graph.AddEdge] when the edge is a self loop or
	// would close a directed cycle, and by [Graph.TopologicalOrder] when the
	// graph is not acyclic.
	ErrCycle = errors.New("graph contains a cycle")

	// ErrGraphIntegrity is returned when a transformation leaves the graph in
	// a state that violates its invariants. The transformation is aborted and
	// its input is left untouched.
	ErrGraphIntegrity = errors.New("graph integrity violated")

	// ErrMalformedGraph is returned by [Build] when the input records do not
	// describe a valid graph (unknown edge endpoints, duplicate ids, cycles).
	ErrMalformedGraph = errors.New("malformed graph")

	// ErrInvalidSpan is returned by [Graph.AddNode] when RefStart > RefEnd.
	ErrInvalidSpan = errors.New("reference start after reference end")

	// ErrEmptySources is returned by [Graph.Validate] when a node has no
	// genome sources.
	ErrEmptySources = errors.New("node has no sources")
)

// Edge is a directed connection between two node ids.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Graph is a directed acyclic graph of sequence nodes keyed by integer id.
//
// Adjacency is stored as ascending id lists per node so every iteration is
// deterministic. Degrees are derived from the lists. Nodes refer to each
// other only by id, so removing a node never leaves a dangling reference.
//
// The zero value is not usable; create graphs with [New].
// Graph is not safe for concurrent mutation. Transformations in the
// transform package work on clones, so a graph shared read-only between
// goroutines is safe.
type Graph struct {
	nodes     map[int]*Node
	outgoing  map[int][]int // id -> successor ids, ascending
	incoming  map[int][]int // id -> predecessor ids, ascending
	edgeCount int
	synthetic int // next synthetic id, always negative
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:     make(map[int]*Node),
		outgoing:  make(map[int][]int),
		incoming:  make(map[int][]int),
		synthetic: -1,
	}
}

// AddNode inserts a copy of n and returns its id.
//
// Returns ErrDuplicateID if the id is taken and ErrInvalidSpan if
// n.RefStart > n.RefEnd. Bases is recomputed from Content when Content is
// non-empty; a nil Sources set is replaced by an empty one. Adding a node
// with a negative id moves the synthetic counter below it.
func (g *Graph) AddNode(n Node) (int, error) {
	if _, exists := g.nodes[n.ID]; exists {
		return 0, fmt.Errorf("node %d: %w", n.ID, ErrDuplicateID)
	}
	if n.RefStart > n.RefEnd {
		return 0, fmt.Errorf("node %d [%d,%d]: %w", n.ID, n.RefStart, n.RefEnd, ErrInvalidSpan)
	}
	if n.Sources == nil {
		n.Sources = Sources{}
	}
	if n.Content != "" {
		n.Bases = CountBases(n.Content)
	}
	g.nodes[n.ID] = &n
	if n.ID <= g.synthetic {
		g.synthetic = n.ID - 1
	}
	return n.ID, nil
}

// NextSyntheticID reserves and returns an id for a synthetic node.
// Synthetic ids count down from -1 and never collide with parsed ids.
func (g *Graph) NextSyntheticID() int {
	id := g.synthetic
	g.synthetic--
	return id
}

// AddEdge adds the directed edge from -> to.
//
// Returns ErrUnknownNode if either endpoint is missing and ErrCycle if the
// edge is a self loop or to already reaches from. Adding an edge that
// exists is a no-op; the graph never holds parallel edges.
func (g *Graph) AddEdge(from, to int) error {
	if err := g.checkEndpoints(from, to); err != nil {
		return err
	}
	if from == to {
		return fmt.Errorf("self loop on %d: %w", from, ErrCycle)
	}
	if g.HasEdge(from, to) {
		return nil
	}
	if g.Reachable(to, from) {
		return fmt.Errorf("edge %d->%d: %w", from, to, ErrCycle)
	}
	g.insertEdge(from, to)
	return nil
}

func (g *Graph) checkEndpoints(from, to int) error {
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("edge source %d: %w", from, ErrUnknownNode)
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("edge target %d: %w", to, ErrUnknownNode)
	}
	return nil
}

// insertEdge adds an edge without cycle checks. Callers guarantee both
// endpoints exist.
func (g *Graph) insertEdge(from, to int) bool {
	out, added := insertSorted(g.outgoing[from], to)
	if !added {
		return false
	}
	g.outgoing[from] = out
	g.incoming[to], _ = insertSorted(g.incoming[to], from)
	g.edgeCount++
	return true
}

// RemoveEdge removes the edge from -> to if it exists.
func (g *Graph) RemoveEdge(from, to int) {
	out, removed := deleteSorted(g.outgoing[from], to)
	if !removed {
		return
	}
	g.setAdj(g.outgoing, from, out)
	in, _ := deleteSorted(g.incoming[to], from)
	g.setAdj(g.incoming, to, in)
	g.edgeCount--
}

// RemoveNode removes the node and every edge incident to it.
// Returns ErrUnknownNode if the node is absent.
func (g *Graph) RemoveNode(id int) error {
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("remove %d: %w", id, ErrUnknownNode)
	}
	for _, s := range slices.Clone(g.outgoing[id]) {
		g.RemoveEdge(id, s)
	}
	for _, p := range slices.Clone(g.incoming[id]) {
		g.RemoveEdge(p, id)
	}
	delete(g.nodes, id)
	return nil
}

func (g *Graph) setAdj(m map[int][]int, id int, ids []int) {
	if len(ids) == 0 {
		delete(m, id)
		return
	}
	m[id] = ids
}

// Node returns the node with the given id. The pointer refers to the node
// stored in the graph.
func (g *Graph) Node(id int) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether id is in the graph.
func (g *Graph) HasNode(id int) bool {
	_, ok := g.nodes[id]
	return ok
}

// HasEdge reports whether the edge from -> to exists.
func (g *Graph) HasEdge(from, to int) bool {
	_, found := slices.BinarySearch(g.outgoing[from], to)
	return found
}

// Sources returns the genome set of a node, or nil if the node is absent.
func (g *Graph) Sources(id int) Sources {
	if n, ok := g.nodes[id]; ok {
		return n.Sources
	}
	return nil
}

// SetAnnotations attaches annotations to a node, replacing any previous ones.
// Layout and filtering never read annotations.
func (g *Graph) SetAnnotations(id int, anns []Annotation) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("annotate %d: %w", id, ErrUnknownNode)
	}
	n.Annotations = slices.Clone(anns)
	return nil
}

// OutDegree returns the number of outgoing edges, 0 for unknown ids.
func (g *Graph) OutDegree(id int) int { return len(g.outgoing[id]) }

// InDegree returns the number of incoming edges, 0 for unknown ids.
func (g *Graph) InDegree(id int) int { return len(g.incoming[id]) }

// Successors returns the ids this node has edges to, ascending.
// The slice is a read-only view.
func (g *Graph) Successors(id int) []int { return g.outgoing[id] }

// Predecessors returns the ids with edges to this node, ascending.
// The slice is a read-only view.
func (g *Graph) Predecessors(id int) []int { return g.incoming[id] }

// Outgoing returns the edges leaving id, ordered by target.
func (g *Graph) Outgoing(id int) []Edge {
	edges := make([]Edge, len(g.outgoing[id]))
	for i, to := range g.outgoing[id] {
		edges[i] = Edge{From: id, To: to}
	}
	return edges
}

// Incoming returns the edges entering id, ordered by source.
func (g *Graph) Incoming(id int) []Edge {
	edges := make([]Edge, len(g.incoming[id]))
	for i, from := range g.incoming[id] {
		edges[i] = Edge{From: from, To: id}
	}
	return edges
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return g.edgeCount }

// IDs returns all node ids in ascending order.
func (g *Graph) IDs() []int {
	return slices.Sorted(maps.Keys(g.nodes))
}

// Nodes returns all nodes in ascending id order. The pointers refer to the
// nodes stored in the graph.
func (g *Graph) Nodes() []*Node {
	ids := g.IDs()
	nodes := make([]*Node, len(ids))
	for i, id := range ids {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// Edges returns all edges ordered by source then target.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edgeCount)
	for _, id := range g.IDs() {
		for _, to := range g.outgoing[id] {
			edges = append(edges, Edge{From: id, To: to})
		}
	}
	return edges
}

// Roots returns the ids with in-degree 0, ascending.
func (g *Graph) Roots() []int {
	var roots []int
	for _, id := range g.IDs() {
		if len(g.incoming[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Sinks returns the ids with out-degree 0, ascending.
func (g *Graph) Sinks() []int {
	var sinks []int
	for _, id := range g.IDs() {
		if len(g.outgoing[id]) == 0 {
			sinks = append(sinks, id)
		}
	}
	return sinks
}

// Reachable reports whether a directed path from -> to exists.
// A node reaches itself.
func (g *Graph) Reachable(from, to int) bool {
	if _, ok := g.nodes[from]; !ok {
		return false
	}
	if from == to {
		return true
	}
	seen := map[int]bool{from: true}
	stack := []int{from}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.outgoing[curr] {
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// TopologicalOrder lazily yields node ids so that every edge points forward.
//
// It runs Kahn's algorithm with the ready set ordered by ascending id, so
// the order is deterministic. If the graph has a cycle, the nodes on and
// behind it are never yielded; instead a single (0, ErrCycle) pair is
// yielded once the ready set runs dry.
func (g *Graph) TopologicalOrder() iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		inDegree := make(map[int]int, len(g.nodes))
		var ready []int
		for _, id := range g.IDs() {
			inDegree[id] = len(g.incoming[id])
			if inDegree[id] == 0 {
				ready = append(ready, id)
			}
		}

		visited := 0
		for len(ready) > 0 {
			curr := ready[0]
			ready = ready[1:]
			visited++
			if !yield(curr, nil) {
				return
			}
			for _, next := range g.outgoing[curr] {
				inDegree[next]--
				if inDegree[next] == 0 {
					ready, _ = insertSorted(ready, next)
				}
			}
		}

		if visited < len(g.nodes) {
			yield(0, fmt.Errorf("%d nodes unreachable in topological order: %w", len(g.nodes)-visited, ErrCycle))
		}
	}
}

// TopoSort collects [Graph.TopologicalOrder] into a slice.
func (g *Graph) TopoSort() ([]int, error) {
	order := make([]int, 0, len(g.nodes))
	for id, err := range g.TopologicalOrder() {
		if err != nil {
			return nil, err
		}
		order = append(order, id)
	}
	return order, nil
}

// Validate checks the graph invariants: every edge endpoint exists, the
// graph is acyclic, and every node has at least one source.
//
// Returns ErrUnknownNode, ErrCycle or ErrEmptySources wrapped with the
// offending id.
func (g *Graph) Validate() error {
	for from, targets := range g.outgoing {
		for _, to := range targets {
			if err := g.checkEndpoints(from, to); err != nil {
				return err
			}
		}
	}
	if _, err := g.TopoSort(); err != nil {
		return err
	}
	for _, n := range g.Nodes() {
		if n.Sources.Len() == 0 {
			return fmt.Errorf("node %d: %w", n.ID, ErrEmptySources)
		}
	}
	return nil
}

// Clone returns a deep copy of the graph. Nodes, source sets, annotations
// and adjacency are all copied; the synthetic id counter carries over.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes:     make(map[int]*Node, len(g.nodes)),
		outgoing:  make(map[int][]int, len(g.outgoing)),
		incoming:  make(map[int][]int, len(g.incoming)),
		edgeCount: g.edgeCount,
		synthetic: g.synthetic,
	}
	for id, n := range g.nodes {
		c.nodes[id] = n.clone()
	}
	for id, ids := range g.outgoing {
		c.outgoing[id] = slices.Clone(ids)
	}
	for id, ids := range g.incoming {
		c.incoming[id] = slices.Clone(ids)
	}
	return c
}

// Subgraph returns a new graph holding copies of the given nodes and the
// given edges. Edges whose endpoints are not both kept are skipped. The
// synthetic id counter carries over so later collapses stay collision-free.
func (g *Graph) Subgraph(ids []int, edges []Edge) *Graph {
	sub := New()
	sub.synthetic = g.synthetic
	for _, id := range ids {
		if n, ok := g.nodes[id]; ok {
			sub.nodes[id] = n.clone()
		}
	}
	for _, e := range edges {
		if sub.HasNode(e.From) && sub.HasNode(e.To) {
			sub.insertEdge(e.From, e.To)
		}
	}
	return sub
}

// AllSources returns the union of every node's sources.
func (g *Graph) AllSources() Sources {
	all := Sources{}
	for _, n := range g.nodes {
		maps.Copy(all, n.Sources)
	}
	return all
}

func insertSorted(ids []int, id int) ([]int, bool) {
	i, found := slices.BinarySearch(ids, id)
	if found {
		return ids, false
	}
	return slices.Insert(ids, i, id), true
}

func deleteSorted(ids []int, id int) ([]int, bool) {
	i, found := slices.BinarySearch(ids, id)
	if !found {
		return ids, false
	}
	return slices.Delete(ids, i, i+1), true
}

func intStrings(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.Itoa(id)
	}
	return out
}
