// Package cache provides content-addressed caching for pipeline artifacts.
//
// Composed SVG documents and converted PDF/PNG artifacts are keyed by the
// content hashes of everything that went into them, so editing a panel
// fragment or the style sheet invalidates exactly the affected outputs.
// Two backends are provided: FileCache for normal CLI usage and NullCache
// for disabling caching entirely.
package cache

import (
	"context"
	"time"
)

// TTL defaults for cached artifacts.
const (
	// TTLCompose bounds how long composed SVG documents are kept.
	TTLCompose = 7 * 24 * time.Hour

	// TTLArtifact bounds how long converted PDF/PNG artifacts are kept.
	// Conversion runs an external tool, so these are the expensive entries.
	TTLArtifact = 30 * 24 * time.Hour
)

// Cache is the interface for artifact caching backends.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ComposeKeyOpts are the inputs that determine a composed document.
type ComposeKeyOpts struct {
	StyleHash      string   // Hash of the resolved style sheet
	FragmentHashes []string // Content hashes of panel fragments, in panel order
}

// ArtifactKeyOpts are the inputs that determine a converted artifact.
type ArtifactKeyOpts struct {
	Format     string  // Output format: pdf or png
	DPI        float64 // Raster resolution (png only)
	Background string  // Raster background color (png only)
	Tool       string  // Converter backend name and version
	TextToPath bool    // Whether text was outlined during export
}

// Keyer generates cache keys for pipeline stages.
type Keyer interface {
	// ComposeKey generates a key for a composed SVG document.
	ComposeKey(specHash string, opts ComposeKeyOpts) string

	// ArtifactKey generates a key for a converted artifact.
	ArtifactKey(svgHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer implements Keyer by hashing all key components.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ComposeKey generates a key for a composed SVG document.
func (k *DefaultKeyer) ComposeKey(specHash string, opts ComposeKeyOpts) string {
	return hashKey("compose", specHash, opts)
}

// ArtifactKey generates a key for a converted artifact.
func (k *DefaultKeyer) ArtifactKey(svgHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", svgHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
