package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/pangraph/pkg/cache"
	graphio "github.com/matzehuels/pangraph/pkg/io"
	"github.com/matzehuels/pangraph/pkg/layout"
	"github.com/matzehuels/pangraph/pkg/observability"
	"github.com/matzehuels/pangraph/pkg/seqgraph"
	"github.com/matzehuels/pangraph/pkg/seqgraph/transform"
)

// Runner executes pipeline stages with caching.
//
// The Runner stores no results of its own, only the cache. It never
// modifies an input graph, so one graph and one Runner can serve many
// goroutines at once.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the per-stage cache TTLs when positive.
	TTL time.Duration

	group singleflight.Group
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Fingerprint returns the SHA-256 of the canonical JSON encoding of g.
// Graphs with the same nodes, sources, content and edges share a
// fingerprint.
func Fingerprint(g *seqgraph.Graph) (string, error) {
	var buf bytes.Buffer
	if err := graphio.WriteGraph(g, &buf); err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return cache.Hash(buf.Bytes()), nil
}

// Run executes collapse, filter, layout and render for g.
func (r *Runner) Run(ctx context.Context, g *seqgraph.Graph, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	fp, err := Fingerprint(g)
	if err != nil {
		return nil, err
	}
	result := &Result{
		Fingerprint: fp,
		Stats: Stats{
			NodeCount: g.NodeCount(),
			EdgeCount: g.EdgeCount(),
		},
	}

	// Stage 1: Collapse
	work := g
	if opts.Collapse {
		start := time.Now()
		collapsed, res, hit, err := r.collapse(ctx, g, fp, opts.Refresh)
		if err != nil {
			return nil, fmt.Errorf("collapse: %w", err)
		}
		work = collapsed
		result.Bubbles = res.Bubbles
		result.Stats.CollapseTime = time.Since(start)
		result.CacheInfo.CollapseHit = hit

		r.Logger.Info("collapsed bubbles",
			"bubbles", len(res.Bubbles),
			"nodes", collapsed.NodeCount(),
			"cached", hit,
			"duration", result.Stats.CollapseTime)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: Filter
	start := time.Now()
	if sel := opts.Selection(); sel != nil {
		work = transform.Filter(work, sel)
		observability.Pipeline().OnFilterComplete(ctx, sel.Len(), work.NodeCount(), time.Since(start))
	} else if work == g {
		work = g.Clone()
	}
	result.Stats.FilterTime = time.Since(start)
	result.Stats.FilteredNodes = work.NodeCount()
	result.Graph = work

	r.Logger.Debug("filtered graph",
		"sources", len(opts.Sources),
		"nodes", work.NodeCount(),
		"edges", work.EdgeCount())

	// Stage 3: Layout
	start = time.Now()
	key := r.Keyer.LayoutKey(fp, opts.LayoutKeyOpts())
	l, hit, err := r.layout(ctx, work, key, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(start)
	result.Stats.Columns = l.MaxColumn() + 1
	result.CacheInfo.LayoutHit = hit

	r.Logger.Info("computed layout",
		"columns", result.Stats.Columns,
		"nodes", len(l.Positions),
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	// Stage 4: Render
	if len(opts.Formats) > 0 {
		start = time.Now()
		artifacts, hit, err := r.render(ctx, work, l, key, opts)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		result.Artifacts = artifacts
		result.Stats.RenderTime = time.Since(start)
		result.CacheInfo.RenderHit = hit

		r.Logger.Info("rendered outputs",
			"formats", opts.Formats,
			"cached", hit,
			"duration", result.Stats.RenderTime)
	}

	return result, nil
}

// CollapseWithCacheInfo returns the collapsed form of g and reports whether
// it came from the cache. The returned graph is owned by the caller.
func (r *Runner) CollapseWithCacheInfo(ctx context.Context, g *seqgraph.Graph, refresh bool) (*seqgraph.Graph, transform.CollapseResult, bool, error) {
	fp, err := Fingerprint(g)
	if err != nil {
		return nil, transform.CollapseResult{}, false, err
	}
	return r.collapse(ctx, g, fp, refresh)
}

// Collapse is a convenience wrapper that calls CollapseWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Collapse(ctx context.Context, g *seqgraph.Graph) (*seqgraph.Graph, transform.CollapseResult, error) {
	c, res, _, err := r.CollapseWithCacheInfo(ctx, g, false)
	return c, res, err
}

type collapsedEntry struct {
	Graph  json.RawMessage          `json:"graph"`
	Result transform.CollapseResult `json:"result"`
}

type flightResult struct {
	data []byte
	hit  bool
}

// collapse runs CollapseBubbles at most once per fingerprint at a time.
// The shared result is the serialized entry; every caller decodes its own
// graph from it.
func (r *Runner) collapse(ctx context.Context, g *seqgraph.Graph, fp string, refresh bool) (*seqgraph.Graph, transform.CollapseResult, bool, error) {
	key := r.Keyer.CollapseKey(fp)
	flight := key
	if refresh {
		flight += "#refresh"
	}

	v, err, shared := r.group.Do(flight, func() (any, error) {
		if !refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "collapse")
				return flightResult{data: data, hit: true}, nil
			} else if err != nil {
				r.Logger.Warn("cache read failed", "key", key, "err", err)
			}
			observability.Cache().OnCacheMiss(ctx, "collapse")
		}

		observability.Pipeline().OnCollapseStart(ctx, g.NodeCount())
		start := time.Now()
		collapsed, res, err := transform.CollapseBubbles(g)
		observability.Pipeline().OnCollapseComplete(ctx, len(res.Bubbles), time.Since(start), err)
		if err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		if err := graphio.WriteGraph(collapsed, &buf); err != nil {
			return nil, err
		}
		data, err := json.Marshal(collapsedEntry{Graph: buf.Bytes(), Result: res})
		if err != nil {
			return nil, err
		}
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLCollapse)); err != nil {
			r.Logger.Warn("cache write failed", "key", key, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "collapse", len(data))
		}
		return flightResult{data: data}, nil
	})
	if err != nil {
		return nil, transform.CollapseResult{}, false, err
	}
	if shared {
		r.Logger.Debug("shared collapse with a concurrent request", "key", key)
	}

	fr := v.(flightResult)
	var entry collapsedEntry
	if err := json.Unmarshal(fr.data, &entry); err != nil {
		return nil, transform.CollapseResult{}, false, fmt.Errorf("decode collapse entry: %w", err)
	}
	collapsed, err := graphio.ReadGraph(bytes.NewReader(entry.Graph))
	if err != nil {
		return nil, transform.CollapseResult{}, false, fmt.Errorf("decode collapsed graph: %w", err)
	}
	carryAnnotations(g, collapsed)
	return collapsed, entry.Result, fr.hit, nil
}

// carryAnnotations restores annotations from src onto dst, since the JSON
// graph form does not hold them. Variation nodes get the annotations of
// their member segments.
func carryAnnotations(src, dst *seqgraph.Graph) {
	for _, n := range dst.Nodes() {
		anns := transform.MemberAnnotations(src, n.Members)
		if !n.IsVariation() {
			if s, ok := src.Node(n.ID); ok {
				anns = s.Annotations
			}
		}
		if len(anns) > 0 {
			_ = dst.SetAnnotations(n.ID, anns)
		}
	}
}

// layout assigns positions to g, reusing a cached layout when its node set
// matches g. Shift flags from a cached layout are copied onto g.
func (r *Runner) layout(ctx context.Context, g *seqgraph.Graph, key string, opts Options) (*layout.Layout, bool, error) {
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if l, err := graphio.ReadLayout(bytes.NewReader(data)); err == nil && covers(l, g) {
				observability.Cache().OnCacheHit(ctx, "layout")
				for id, p := range l.Positions {
					n, _ := g.Node(id)
					n.Shift = p.Shift
				}
				return l, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	observability.Pipeline().OnLayoutStart(ctx, g.NodeCount())
	start := time.Now()
	l, err := layout.Assign(g, opts.LayoutOptions())
	if err != nil {
		observability.Pipeline().OnLayoutComplete(ctx, 0, time.Since(start), err)
		return nil, false, err
	}
	observability.Pipeline().OnLayoutComplete(ctx, l.MaxColumn()+1, time.Since(start), nil)

	var buf bytes.Buffer
	if err := graphio.WriteLayout(l, &buf); err != nil {
		r.Logger.Warn("encode layout for cache failed", "key", key, "err", err)
	} else if err := r.Cache.Set(ctx, key, buf.Bytes(), r.ttl(cache.TTLLayout)); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "layout", buf.Len())
	}
	return l, false, nil
}

// covers reports whether l places exactly the nodes of g.
func covers(l *layout.Layout, g *seqgraph.Graph) bool {
	if len(l.Positions) != g.NodeCount() {
		return false
	}
	for id := range l.Positions {
		if !g.HasNode(id) {
			return false
		}
	}
	return true
}

// render produces the requested artifacts, all from cache or all fresh.
func (r *Runner) render(ctx context.Context, g *seqgraph.Graph, l *layout.Layout, layoutKey string, opts Options) (map[string][]byte, bool, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(layoutKey, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, g, l, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutKey, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLArtifact)); err != nil {
			r.Logger.Warn("cache write failed", "key", key, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
