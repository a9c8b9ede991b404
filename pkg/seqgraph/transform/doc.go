// Package transform provides structural transformations of sequence graphs.
//
// # Bubble Collapsing
//
// [CollapseBubbles] finds regions where genomes diverge at a branch node and
// reconverge at a later node, and replaces each region with one synthetic
// variation node carrying the union of the region's sources:
//
//	Before: 1 → 2 → 4, 1 → 3 → 4
//	After:  1 → S → 4   (S = variation of {2, 3})
//
// Detection for a single branch node is exposed as [DetectBubble].
//
// # Source Filtering
//
// [Filter] derives the subgraph touched by a selection of genomes, as picked
// from the phylogenetic tree.
//
// # Purity
//
// Both transformations return new graphs and leave their input untouched,
// so a shared graph can serve concurrent requests for different selections.
package transform
