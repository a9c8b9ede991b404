// Package newick parses phylogenetic trees and tracks which genomes a user
// selected in them.
//
// A [Tree] is an arena of [Node] values indexed by id with the root at 0.
// Each node carries a tri-state [Selection]. [Tree.Toggle] flips a subtree
// and recomputes the ancestors, and [Tree.SelectedSources] turns the
// selected leaves into the source set a sequence graph filter expects:
//
//	t, err := newick.Parse("(g1:0.1,(g2:0.2,g3:0.3):0.5);")
//	if err != nil {
//	    return err
//	}
//	t.Select("g2", "g3")
//	sub := transform.Filter(g, t.SelectedSources())
package newick
