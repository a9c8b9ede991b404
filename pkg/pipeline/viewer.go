package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/matzehuels/pangraph/pkg/observability"
	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

// ErrSuperseded is returned by [Viewer.Submit] when a newer request was
// submitted before this one finished.
var ErrSuperseded = errors.New("superseded by a newer request")

// Viewer runs layout requests against one graph where only the latest
// request matters, as when a user keeps changing the genome selection.
//
// Requests run concurrently and are never canceled. Each is stamped with a
// generation when submitted; a request that finishes after a newer one was
// submitted returns ErrSuperseded and its result is dropped.
type Viewer struct {
	graph *seqgraph.Graph
	base  Options
	run   func(ctx context.Context, g *seqgraph.Graph, opts Options) (*Result, error)

	generation atomic.Uint64

	mu        sync.Mutex
	latest    *Result
	latestGen uint64
}

// NewViewer creates a viewer over g. base supplies every option except
// Sources, which each request sets.
func NewViewer(r *Runner, g *seqgraph.Graph, base Options) *Viewer {
	return &Viewer{graph: g, base: base, run: r.Run}
}

// Submit runs the pipeline for the given selection. A nil selection keeps
// every genome.
func (v *Viewer) Submit(ctx context.Context, sources []string) (*Result, error) {
	opts := v.base
	opts.Sources = sources
	return v.SubmitOptions(ctx, opts)
}

// SubmitOptions is like Submit with per-request options. Zero layout
// metrics and empty formats fall back to the viewer's base options.
func (v *Viewer) SubmitOptions(ctx context.Context, opts Options) (*Result, error) {
	gen := v.generation.Add(1)
	id := uuid.NewString()

	if opts.ColumnWidth == 0 {
		opts.ColumnWidth = v.base.ColumnWidth
	}
	if opts.RowHeight == 0 {
		opts.RowHeight = v.base.RowHeight
	}
	if opts.NodeSpacing == 0 {
		opts.NodeSpacing = v.base.NodeSpacing
	}
	if len(opts.Formats) == 0 {
		opts.Formats = v.base.Formats
	}
	res, err := v.run(ctx, v.graph, opts)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", id, err)
	}
	res.RequestID = id

	if gen != v.generation.Load() {
		observability.Pipeline().OnSuperseded(ctx, id)
		return nil, fmt.Errorf("request %s: %w", id, ErrSuperseded)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen > v.latestGen {
		v.latest, v.latestGen = res, gen
	}
	return res, nil
}

// Latest returns the result of the newest request that completed without
// being superseded, or nil.
func (v *Viewer) Latest() *Result {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.latest
}

// Generation returns the number of requests submitted so far.
func (v *Viewer) Generation() uint64 { return v.generation.Load() }
