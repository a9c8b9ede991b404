// Package layout assigns draw coordinates to a sequence graph.
//
// # Overview
//
// [Assign] places every node in a column (its topological depth) and a row
// (its offset within the column). Columns increase along every edge, so a
// left-to-right drawing follows the data flow. Rows are a crowding
// heuristic only and carry no meaning beyond placement.
//
//	l, err := layout.Assign(g, layout.Options{})
//	if err != nil {
//	    return err
//	}
//	for _, p := range l.Ordered() {
//	    fmt.Println(p.ID, p.Column, p.Row)
//	}
//
// # Viewport Culling
//
// [Layout.Buckets] and [Layout.Visible] split the layout into fixed-width
// slots by X so a viewer can load only what is near the viewport.
//
// # Related Packages
//
// Input graphs come from [github.com/matzehuels/pangraph/pkg/seqgraph],
// usually after [github.com/matzehuels/pangraph/pkg/seqgraph/transform]
// collapsed and filtered them.
package layout
