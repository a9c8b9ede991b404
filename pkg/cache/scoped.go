package cache

// ScopedKeyer wraps a Keyer with a prefix so several graphs or deployments
// can share one backend without colliding.
//
// Example usage:
//
//	// Keys for one served dataset
//	k := NewScopedKeyer(NewDefaultKeyer(), "tb328:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// CollapseKey generates a prefixed key for collapsed graphs.
func (k *ScopedKeyer) CollapseKey(graphHash string) string {
	return k.prefix + k.inner.CollapseKey(graphHash)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
