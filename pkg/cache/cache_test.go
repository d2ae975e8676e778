package cache

import (
	"context"
	"testing"
	"time"
)

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	// Miss before Set
	_, hit, err := c.Get(ctx, "artifact:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("Get before Set should miss")
	}

	// Set then hit
	payload := []byte("%PDF-1.5 fake artifact")
	if err := c.Set(ctx, "artifact:abc", payload, time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	data, hit, err := c.Get(ctx, "artifact:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit {
		t.Fatal("Get after Set should hit")
	}
	if string(data) != string(payload) {
		t.Errorf("Get data = %q, want %q", data, payload)
	}

	// Delete then miss
	if err := c.Delete(ctx, "artifact:abc"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	_, hit, _ = c.Get(ctx, "artifact:abc")
	if hit {
		t.Error("Get after Delete should miss")
	}

	// Deleting a missing key is not an error
	if err := c.Delete(ctx, "artifact:missing"); err != nil {
		t.Errorf("Delete missing key error: %v", err)
	}
}

func TestFileCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	// Negative TTL produces an already-expired entry
	if err := c.Set(ctx, "key", []byte("stale"), -time.Second); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	_, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("Expired entry should miss")
	}

	// Zero TTL never expires
	if err := c.Set(ctx, "pinned", []byte("data"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	_, hit, _ = c.Get(ctx, "pinned")
	if !hit {
		t.Error("Zero-TTL entry should hit")
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// ComposeKey should include options in hash
	ck1 := k.ComposeKey("spec123", ComposeKeyOpts{StyleHash: "s1", FragmentHashes: []string{"f1", "f2"}})
	ck2 := k.ComposeKey("spec123", ComposeKeyOpts{StyleHash: "s2", FragmentHashes: []string{"f1", "f2"}})
	if ck1 == ck2 {
		t.Error("Different ComposeKeyOpts should produce different keys")
	}

	// Fragment order matters: panels stack in declaration order
	ck3 := k.ComposeKey("spec123", ComposeKeyOpts{StyleHash: "s1", FragmentHashes: []string{"f2", "f1"}})
	if ck1 == ck3 {
		t.Error("Fragment order should affect the key")
	}

	// ArtifactKey
	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "pdf", Tool: "inkscape 1.3"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png", Tool: "inkscape 1.3"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}

	ak3 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png", DPI: 250, Tool: "inkscape 1.3"})
	ak4 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "png", DPI: 300, Tool: "inkscape 1.3"})
	if ak3 == ak4 {
		t.Error("Different DPI should produce different keys")
	}

	// Same inputs produce the same key
	if k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "pdf"}) != k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "pdf"}) {
		t.Error("Keys should be deterministic")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "proj:abc123:")

	// All keys should be prefixed
	ck := scoped.ComposeKey("spec", ComposeKeyOpts{})
	if len(ck) < 12 || ck[:12] != "proj:abc123:" {
		t.Errorf("ScopedKeyer ComposeKey should be prefixed: %s", ck)
	}

	ak := scoped.ArtifactKey("hash", ArtifactKeyOpts{Format: "pdf"})
	if len(ak) < 12 || ak[:12] != "proj:abc123:" {
		t.Errorf("ScopedKeyer ArtifactKey should be prefixed: %s", ak)
	}

	// Prefix wraps the inner key unchanged
	if ck != "proj:abc123:"+inner.ComposeKey("spec", ComposeKeyOpts{}) {
		t.Error("ScopedKeyer should delegate to the inner keyer")
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	want := "prefix:" + NewDefaultKeyer().ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	if key != want {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}
