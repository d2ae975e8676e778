package cache

// ScopedKeyer wraps a Keyer with a prefix so different projects get
// separate cache namespaces. Keys are content-addressed, so collisions
// across projects are harmless but make `cache clear` coarser than it
// should be; scoping keeps one project's entries enumerable.
//
// Example usage:
//
//	// Project-specific keys
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "proj:"+Hash([]byte(root))[:12]+":")
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

// ComposeKey generates a prefixed key for a composed SVG document.
func (k *ScopedKeyer) ComposeKey(specHash string, opts ComposeKeyOpts) string {
	return k.prefix + k.inner.ComposeKey(specHash, opts)
}

// ArtifactKey generates a prefixed key for a converted artifact.
func (k *ScopedKeyer) ArtifactKey(svgHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(svgHash, opts)
}
