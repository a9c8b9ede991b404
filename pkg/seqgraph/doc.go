// Package seqgraph provides the sequence graph at the heart of pangraph: a
// directed acyclic graph of genome segments keyed by integer id.
//
// # Overview
//
// A pangenome variation graph stores each shared or divergent stretch of DNA
// once, as a node, and records which genomes ("sources") traverse it. Edges
// follow the genomes from left to right. Where genomes disagree the graph
// branches, and where they agree again it reconverges.
//
// # Basic Usage
//
// Build a graph from loader records with [Build], or incrementally with
// [New], [Graph.AddNode] and [Graph.AddEdge]:
//
//	g := seqgraph.New()
//	g.AddNode(seqgraph.Node{ID: 1, Content: "ACGT", Sources: seqgraph.NewSources("g1", "g2")})
//	g.AddNode(seqgraph.Node{ID: 2, Content: "T", Sources: seqgraph.NewSources("g1")})
//	g.AddEdge(1, 2)
//
// [Graph.AddEdge] rejects edges that would close a cycle. [Build] skips the
// per-edge check and validates once at the end, which is what loaders of
// large graphs want.
//
// # Identity
//
// Nodes refer to each other only by id. Callers hold ids, never node
// pointers, across structural changes. Synthetic nodes created by bubble
// collapsing draw ids from [Graph.NextSyntheticID], which counts down from
// -1 and so never collides with parsed segment ids.
//
// # Determinism
//
// Adjacency lists are kept sorted. [Graph.Nodes], [Graph.Edges],
// [Graph.Roots] and [Graph.TopologicalOrder] all iterate in ascending id
// order, which layout and tests rely on.
//
// # Errors
//
// Operations return the sentinel errors [ErrDuplicateID], [ErrUnknownNode],
// [ErrCycle], [ErrMalformedGraph] and [ErrGraphIntegrity] wrapped with
// context. Match them with errors.Is.
//
// # Related Packages
//
// The [transform] subpackage collapses bubbles and filters by source; the
// [layout] package assigns draw columns.
//
// [transform]: github.com/matzehuels/pangraph/pkg/seqgraph/transform
// [layout]: github.com/matzehuels/pangraph/pkg/layout
package seqgraph
