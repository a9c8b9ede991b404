// Package cache provides byte-level caching for pipeline results.
//
// A [Cache] stores opaque byte slices under string keys with an optional
// TTL. Backends:
//
//   - [NullCache]: stores nothing, used when caching is disabled
//   - [FileCache]: snappy-compressed files under a directory, for the CLI
//   - [MemoryCache]: an in-process freecache arena, for the server
//   - [RedisCache]: a shared redis instance, for several servers
//
// Keys come from a [Keyer], which hashes the inputs of a computation so
// identical inputs hit the same entry.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry type.
const (
	TTLCollapse = 7 * 24 * time.Hour
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte store keyed by string.
//
// Get reports a miss as (nil, false, nil); an error means the backend
// failed, not that the key is absent. A ttl of zero means no expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer derives cache keys for pipeline stages.
type Keyer interface {
	// CollapseKey keys the collapsed form of the graph with the given hash.
	CollapseKey(graphHash string) string
	// LayoutKey keys a filtered layout of the graph with the given hash.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	// ArtifactKey keys a rendered artifact of the layout with the given hash.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds every input besides the graph that changes a layout.
type LayoutKeyOpts struct {
	Sources     []string `json:"sources"` // sorted selection
	Collapse    bool     `json:"collapse"`
	ColumnWidth float64  `json:"column_width"`
	RowHeight   float64  `json:"row_height"`
	NodeSpacing float64  `json:"node_spacing"`
}

// ArtifactKeyOpts holds every input besides the layout that changes a
// rendered artifact.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
}

// DefaultKeyer builds keys of the form "<stage>:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) CollapseKey(graphHash string) string {
	return hashKey("collapse", graphHash)
}

func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
