package cache

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func init() { retryDelay = time.Millisecond }

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always return a nil miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

// exercise runs the shared Cache contract against a backend.
func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v, err %v; want miss", hit, err)
	}

	want := []byte(`{"nodes":[1,2,3]}`)
	if err := c.Set(ctx, "k", want, time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("Get(k) = hit %v, err %v; want hit", hit, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Get(k) = %s, want %s", got, want)
	}

	if err := c.Set(ctx, "k", []byte("v2"), 0); err != nil {
		t.Fatal(err)
	}
	if got, _, _ := c.Get(ctx, "k"); string(got) != "v2" {
		t.Errorf("Get(k) after overwrite = %s, want v2", got)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get(k) after Delete hit")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of absent key error = %v", err)
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache"))
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, c)
}

func TestFileCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	c.Set(ctx, "k", []byte("v"), time.Nanosecond)
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned")
	}
	if n, _, _ := c.Usage(); n != 0 {
		t.Errorf("expired entry not removed, %d left", n)
	}
}

func TestFileCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	c.Set(ctx, "k", []byte("v"), 0)

	if err := os.WriteFile(c.path("k"), []byte("not snappy"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("Get(corrupt) = hit %v, err %v; want miss", hit, err)
	}
}

func TestFileCache_UsageAndClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		c.Set(ctx, k, bytes.Repeat([]byte(k), 100), 0)
	}

	n, size, err := c.Usage()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 || size == 0 {
		t.Errorf("Usage() = %d entries %d bytes, want 3 and > 0", n, size)
	}

	removed, err := c.Clear()
	if err != nil || removed != 3 {
		t.Errorf("Clear() = %d, %v; want 3", removed, err)
	}
	if n, _, _ := c.Usage(); n != 0 {
		t.Errorf("Usage() after Clear = %d", n)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()
	exercise(t, c)

	ctx := context.Background()
	c.Set(ctx, "x", []byte("1"), time.Minute)
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestMemoryCache_LargeEntries(t *testing.T) {
	ctx := context.Background()

	// Random bytes do not compress, so these exercise the chunked path.
	rng := rand.New(rand.NewPCG(1, 2))
	noise := func(n int) []byte {
		b := make([]byte, n)
		for i := range b {
			b[i] = byte(rng.Uint32())
		}
		return b
	}

	tests := []struct {
		name  string
		arena int
		size  int
	}{
		{"default arena 40KiB", DefaultMemoryBytes, 40 << 10},
		{"default arena 1MiB", DefaultMemoryBytes, 1 << 20},
		{"min arena 600B", MinMemoryBytes, 600},
		{"min arena 16KiB", MinMemoryBytes, 16 << 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewMemoryCache(tt.arena)
			defer c.Close()

			want := noise(tt.size)
			if err := c.Set(ctx, "pangraph:collapse:v1:abc", want, time.Hour); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			got, hit, err := c.Get(ctx, "pangraph:collapse:v1:abc")
			if err != nil || !hit {
				t.Fatalf("Get() = hit %v, err %v", hit, err)
			}
			if !bytes.Equal(got, want) {
				t.Fatal("Get() returned different bytes")
			}

			c.Delete(ctx, "pangraph:collapse:v1:abc")
			if c.Len() != 0 {
				t.Errorf("Len() after Delete = %d, want 0", c.Len())
			}
		})
	}
}

func TestMemoryCache_TooLarge(t *testing.T) {
	c := NewMemoryCache(MinMemoryBytes)
	defer c.Close()

	rng := rand.New(rand.NewPCG(3, 4))
	data := make([]byte, MinMemoryBytes/8)
	for i := range data {
		data[i] = byte(rng.Uint32())
	}
	err := c.Set(context.Background(), "big", data, 0)
	if !errors.Is(err, ErrEntryTooLarge) {
		t.Errorf("Set() error = %v, want ErrEntryTooLarge", err)
	}

	// Compressible data of the same size fits.
	if err := c.Set(context.Background(), "big", make([]byte, MinMemoryBytes/8), 0); err != nil {
		t.Errorf("Set(zeros) error = %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		backend string
		check   func(Cache) bool
	}{
		{"", func(c Cache) bool { _, ok := c.(*NullCache); return ok }},
		{BackendNone, func(c Cache) bool { _, ok := c.(*NullCache); return ok }},
		{BackendMemory, func(c Cache) bool { _, ok := c.(*MemoryCache); return ok }},
		{BackendFile, func(c Cache) bool { _, ok := c.(*FileCache); return ok }},
	}
	for _, tt := range tests {
		c, err := Open(ctx, Options{Backend: tt.backend, Dir: t.TempDir()})
		if err != nil {
			t.Errorf("Open(%q) error = %v", tt.backend, err)
			continue
		}
		if !tt.check(c) {
			t.Errorf("Open(%q) = %T", tt.backend, c)
		}
		c.Close()
	}

	if _, err := Open(ctx, Options{Backend: "etcd"}); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(etcd) error = %v, want ErrUnknownBackend", err)
	}
}

func TestRedisCache_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisCache(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("NewRedisCache() error = %v, want ErrNetwork", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if k.CollapseKey("abc") == k.CollapseKey("abd") {
		t.Error("CollapseKey should depend on the graph hash")
	}

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Sources: []string{"g1"}})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Sources: []string{"g1", "g2"}})
	lk3 := k.LayoutKey("hash123", LayoutKeyOpts{Sources: []string{"g1"}, Collapse: true})
	if lk1 == lk2 || lk1 == lk3 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}
	if lk1[:7] != "layout:" {
		t.Errorf("LayoutKey prefix = %s", lk1)
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "dot"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "tb:")
	if key := scoped.CollapseKey("h"); key != "tb:"+NewDefaultKeyer().CollapseKey("h") {
		t.Errorf("ScopedKeyer CollapseKey unexpected: %s", key)
	}

	key := NewScopedKeyer(nil, "prefix:").LayoutKey("h", LayoutKeyOpts{})
	if len(key) < 15 || key[:7] != "prefix:" {
		t.Errorf("ScopedKeyer with nil inner should be prefixed: %s", key)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("Retryable should unwrap to the cause")
	}
	if IsRetryable(ErrNetwork) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	calls := 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err %v, calls %d", err, calls)
	}

	calls = 0
	errPermanent := errors.New("permanent")
	err := RetryWithBackoff(ctx, func() error { calls++; return errPermanent })
	if err != errPermanent || calls != 1 {
		t.Errorf("non-retryable: err %v, calls %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry once: err %v, calls %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error { calls++; return Retryable(ErrNetwork) })
	if !errors.Is(err, ErrNetwork) || calls != 3 {
		t.Errorf("exhausted: err %v, calls %d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
