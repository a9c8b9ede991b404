package layout

import (
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

// Default pixel metrics, matching the viewer's historical spacing.
const (
	DefaultColumnWidth = 100.0
	DefaultRowHeight   = 100.0
	DefaultNodeSpacing = 50.0
	DefaultBucketWidth = 100.0
)

// Options controls pixel placement. Zero fields fall back to the defaults.
type Options struct {
	ColumnWidth float64
	RowHeight   float64
	NodeSpacing float64
}

func (o Options) withDefaults() Options {
	if o.ColumnWidth <= 0 {
		o.ColumnWidth = DefaultColumnWidth
	}
	if o.RowHeight <= 0 {
		o.RowHeight = DefaultRowHeight
	}
	if o.NodeSpacing <= 0 {
		o.NodeSpacing = DefaultNodeSpacing
	}
	return o
}

// Position is the placement of one node.
type Position struct {
	ID     int     `json:"id"`
	Column int     `json:"column"`
	Row    int     `json:"row"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Shift  bool    `json:"shift"`
}

// Layout maps node ids to positions. Columns[c] lists the ids in column c,
// ascending.
type Layout struct {
	Positions map[int]Position
	Columns   [][]int
}

// Assign computes a column layout for g.
//
// Columns come from a longest-path layering driven by Kahn's algorithm: a
// node is placed once all of its predecessors are placed, at one past the
// largest predecessor column. Roots sit in column 0. Every edge therefore
// points to a strictly larger column, and the used columns are exactly
// 0..MaxColumn.
//
// Within a column of k nodes, nodes are stacked by ascending id at index i
// with Row = i - k/2 and Y = i*RowHeight - k*NodeSpacing. Odd columns are
// centered on row 0; even columns sit half a row above it, so k = 2 yields
// rows -1 and 0. Y is the viewer's pixel offset and is not derived from Row.
// X = Column*ColumnWidth.
//
// A node alone in its column is flagged with Shift when some other column
// holds more than one node. The flag is written to both the returned
// position and the graph node.
//
// Assign returns an error wrapping seqgraph.ErrCycle if not every node can
// be placed.
func Assign(g *seqgraph.Graph, opts Options) (*Layout, error) {
	opts = opts.withDefaults()

	columns, err := assignColumns(g)
	if err != nil {
		return nil, err
	}

	maxCol := -1
	for _, c := range columns {
		maxCol = max(maxCol, c)
	}
	l := &Layout{
		Positions: make(map[int]Position, len(columns)),
		Columns:   make([][]int, maxCol+1),
	}
	for _, id := range g.IDs() {
		c := columns[id]
		l.Columns[c] = append(l.Columns[c], id)
	}

	crowded := slices.ContainsFunc(l.Columns, func(ids []int) bool { return len(ids) > 1 })

	for c, ids := range l.Columns {
		k := len(ids)
		for i, id := range ids {
			p := Position{
				ID:     id,
				Column: c,
				Row:    i - k/2,
				X:      float64(c) * opts.ColumnWidth,
				Y:      float64(i)*opts.RowHeight - float64(k)*opts.NodeSpacing,
				Shift:  k == 1 && crowded,
			}
			l.Positions[id] = p
			if n, ok := g.Node(id); ok {
				n.Shift = p.Shift
			}
		}
	}
	return l, nil
}

func assignColumns(g *seqgraph.Graph) (map[int]int, error) {
	ids := g.IDs()
	inDegree := make(map[int]int, len(ids))
	columns := make(map[int]int, len(ids))
	queue := make([]int, 0, len(ids))

	for _, id := range ids {
		degree := g.InDegree(id)
		inDegree[id] = degree
		if degree == 0 {
			queue = append(queue, id)
			columns[id] = 0
		}
	}

	placed := 0
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		placed++

		for _, next := range g.Successors(curr) {
			if col := columns[curr] + 1; col > columns[next] {
				columns[next] = col
			}
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if placed < len(ids) {
		return nil, fmt.Errorf("layout: %d of %d nodes unplaced: %w", len(ids)-placed, len(ids), seqgraph.ErrCycle)
	}
	return columns, nil
}

// MaxColumn returns the largest column index, or -1 for an empty layout.
func (l *Layout) MaxColumn() int { return len(l.Columns) - 1 }

// Position returns the placement of id.
func (l *Layout) Position(id int) (Position, bool) {
	p, ok := l.Positions[id]
	return p, ok
}

// Column returns the column of id, or -1 if id was not laid out.
func (l *Layout) Column(id int) int {
	if p, ok := l.Positions[id]; ok {
		return p.Column
	}
	return -1
}

// Ordered returns all positions sorted by column, then row.
func (l *Layout) Ordered() []Position {
	out := make([]Position, 0, len(l.Positions))
	for _, ids := range l.Columns {
		for _, id := range ids {
			out = append(out, l.Positions[id])
		}
	}
	return out
}

// Buckets partitions node ids into slots of the given pixel width by X, so
// a viewer can load only the slots near its viewport. Ids within a slot are
// ascending. A non-positive width uses DefaultBucketWidth.
func (l *Layout) Buckets(width float64) map[int][]int {
	if width <= 0 {
		width = DefaultBucketWidth
	}
	buckets := make(map[int][]int)
	for _, p := range l.Ordered() {
		slot := int(math.Floor(p.X / width))
		buckets[slot] = append(buckets[slot], p.ID)
	}
	for _, ids := range buckets {
		slices.Sort(ids)
	}
	return buckets
}

// Visible returns the ids whose slot falls in the window a viewer scrolled
// to left with the given viewport width, padded by one slot on each side:
// slots round(left/slot)-1 through that plus ceil(width/slot)+1. Ids are
// returned ascending.
func (l *Layout) Visible(left, width, slot float64) []int {
	if slot <= 0 {
		slot = DefaultBucketWidth
	}
	first := int(math.Round(left/slot)) - 1
	last := first + int(math.Ceil(width/slot)) + 1

	var ids []int
	for s, bucket := range l.Buckets(slot) {
		if s >= first && s <= last {
			ids = append(ids, bucket...)
		}
	}
	slices.Sort(ids)
	return ids
}

// Subset returns a layout holding only the positions of ids. Column count
// is kept, so MaxColumn is unchanged. Unknown ids are ignored.
func (l *Layout) Subset(ids []int) *Layout {
	keep := make(map[int]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	out := &Layout{
		Positions: make(map[int]Position, len(ids)),
		Columns:   make([][]int, len(l.Columns)),
	}
	for c, col := range l.Columns {
		for _, id := range col {
			if keep[id] {
				out.Positions[id] = l.Positions[id]
				out.Columns[c] = append(out.Columns[c], id)
			}
		}
	}
	return out
}
