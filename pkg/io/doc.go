// Package io provides JSON import and export for sequence graphs and their
// layouts.
//
// # Graph Format
//
//	{
//	  "nodes": [
//	    {"id": 1, "sources": ["g1", "g2"], "ref_start": 0, "ref_end": 4, "content": "ACGT"},
//	    {"id": 2, "sources": ["g1"], "ref_start": 4, "ref_end": 5, "content": "A"}
//	  ],
//	  "edges": [
//	    {"from": 1, "to": 2}
//	  ]
//	}
//
// Ids are integers. Every node needs at least one source. Collapsed graphs
// add "kind": "variation" with "members", "start" and "end" on synthetic
// nodes, which carry negative ids.
//
// Use [ImportGraph] or [ReadGraph] to load a graph and [ExportGraph] or
// [WriteGraph] to save one. A graph exported and re-imported is identical.
//
// # Annotations
//
// [ReadAnnotations] attaches gene annotations after load, keyed by node id:
//
//	{"annotations": {"2": [{"name": "rpoB", "start": 0, "end": 1, "strand": "+"}]}}
//
// # Layout Export
//
// [WriteLayout] and [ExportLayout] emit computed positions for external
// renderers, and [ReadLayout] loads them back:
//
//	{"positions": [{"id": 1, "column": 0, "row": 0, "x": 0, "y": -50, "shift": true}], "max_column": 2}
package io
