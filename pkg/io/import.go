package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/pangraph/pkg/layout"
	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

var kindFromString = map[string]seqgraph.NodeKind{
	"":          seqgraph.NodeKindSegment,
	"segment":   seqgraph.NodeKindSegment,
	"variation": seqgraph.NodeKindVariation,
}

type graph struct {
	Nodes []node `json:"nodes"`
	Edges []edge `json:"edges"`
}

type node struct {
	seqgraph.NodeRecord
	Kind    string                `json:"kind,omitempty"`
	Members []int                 `json:"members,omitempty"`
	Start   *int                  `json:"start,omitempty"`
	End     *int                  `json:"end,omitempty"`
	Bases   *seqgraph.BaseCounter `json:"bases,omitempty"`
}

type edge = seqgraph.EdgeRecord

// ReadGraph decodes a JSON sequence graph from r.
//
// The input is an object with "nodes" and "edges" arrays:
//
//	{
//	  "nodes": [{"id": 1, "sources": ["g1"], "ref_start": 0, "ref_end": 4, "content": "ACGT"}],
//	  "edges": [{"from": 1, "to": 2}]
//	}
//
// Nodes written by [WriteGraph] for collapsed graphs also carry "kind",
// "members", "start", "end" and "bases"; they are restored as variation
// nodes.
//
// Structural problems (duplicate ids, dangling edges, cycles, nodes
// without sources) are reported as seqgraph.ErrMalformedGraph wrapping the
// specific sentinel. ReadGraph does not close r.
func ReadGraph(r io.Reader) (*seqgraph.Graph, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	records := make([]seqgraph.NodeRecord, len(data.Nodes))
	for i, n := range data.Nodes {
		if _, ok := kindFromString[n.Kind]; !ok {
			return nil, fmt.Errorf("node %d: unknown kind %q: %w", n.ID, n.Kind, seqgraph.ErrMalformedGraph)
		}
		records[i] = n.NodeRecord
	}

	g, err := seqgraph.Build(records, data.Edges)
	if err != nil {
		return nil, err
	}

	for _, n := range data.Nodes {
		if kindFromString[n.Kind] != seqgraph.NodeKindVariation {
			continue
		}
		gn, _ := g.Node(n.ID)
		gn.Kind = seqgraph.NodeKindVariation
		gn.Members = n.Members
		if n.Start != nil {
			gn.Start = *n.Start
		}
		if n.End != nil {
			gn.End = *n.End
		}
		if n.Bases != nil {
			gn.Bases = *n.Bases
		}
	}
	return g, nil
}

// ImportGraph reads a JSON graph file at path. See [ReadGraph].
func ImportGraph(path string) (*seqgraph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f)
}

type annotationFile struct {
	Annotations map[string][]seqgraph.Annotation `json:"annotations"`
}

// ReadAnnotations decodes an annotation file and attaches each list to the
// node named by its key:
//
//	{"annotations": {"12": [{"name": "katG", "start": 3, "end": 40, "strand": "+"}]}}
//
// It returns the number of nodes annotated. Keys that are not integers or
// name unknown nodes are errors; nothing is attached in that case.
func ReadAnnotations(r io.Reader, g *seqgraph.Graph) (int, error) {
	var data annotationFile
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return 0, fmt.Errorf("decode annotations: %w", err)
	}

	byID := make(map[int][]seqgraph.Annotation, len(data.Annotations))
	for key, anns := range data.Annotations {
		id, err := strconv.Atoi(key)
		if err != nil {
			return 0, fmt.Errorf("annotation key %q: %w", key, err)
		}
		if !g.HasNode(id) {
			return 0, fmt.Errorf("annotation key %q: %w", key, seqgraph.ErrUnknownNode)
		}
		byID[id] = anns
	}
	for id, anns := range byID {
		if err := g.SetAnnotations(id, anns); err != nil {
			return 0, err
		}
	}
	return len(byID), nil
}

// ImportAnnotations reads an annotation file at path. See [ReadAnnotations].
func ImportAnnotations(path string, g *seqgraph.Graph) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadAnnotations(f, g)
}

// ReadLayout decodes a layout written by [WriteLayout]. Positions must be
// ordered by column then row, with columns numbered densely from zero, so
// max_column is below the number of positions. Viewport subsets from
// [layout.Layout.Subset] do not satisfy this and are not read back.
func ReadLayout(r io.Reader) (*layout.Layout, error) {
	var data layoutDoc
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}

	switch {
	case len(data.Positions) == 0 && data.MaxColumn != -1:
		return nil, fmt.Errorf("empty layout: max_column %d, want -1", data.MaxColumn)
	case len(data.Positions) > 0 && (data.MaxColumn < 0 || data.MaxColumn >= len(data.Positions)):
		return nil, fmt.Errorf("max_column %d out of range for %d positions", data.MaxColumn, len(data.Positions))
	}

	l := &layout.Layout{
		Positions: make(map[int]layout.Position, len(data.Positions)),
		Columns:   make([][]int, data.MaxColumn+1),
	}
	for _, p := range data.Positions {
		if p.Column < 0 || p.Column > data.MaxColumn {
			return nil, fmt.Errorf("position %d: column %d out of range [0,%d]", p.ID, p.Column, data.MaxColumn)
		}
		if _, dup := l.Positions[p.ID]; dup {
			return nil, fmt.Errorf("position %d: %w", p.ID, seqgraph.ErrDuplicateID)
		}
		l.Positions[p.ID] = p
		l.Columns[p.Column] = append(l.Columns[p.Column], p.ID)
	}
	return l, nil
}
