package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/coocood/freecache"
	"github.com/golang/snappy"
)

const (
	// MinMemoryBytes is the smallest arena freecache accepts.
	MinMemoryBytes = 512 * 1024

	// DefaultMemoryBytes is the arena size used when none is given.
	DefaultMemoryBytes = 32 << 20
)

// freecache splits its arena into 256 segments and refuses entries larger
// than a quarter of one; entryHeader is its per-entry overhead.
const (
	arenaShare  = 1024
	entryHeader = 24
)

// Entry kinds, stored as the first byte of the head entry.
const (
	kindInline byte = iota
	kindChunked
)

// ErrEntryTooLarge is returned by MemoryCache.Set for values that take more
// than a sixteenth of the arena after compression.
var ErrEntryTooLarge = errors.New("cache: entry too large for memory arena")

// MemoryCache is an in-process cache backed by a freecache arena. It is
// safe for concurrent use and evicts the oldest entries when full.
//
// Values are snappy-compressed. A value too large for a single freecache
// entry is split into chunks stored under derived keys; if any chunk has
// been evicted the whole value reads as a miss.
type MemoryCache struct {
	fc    *freecache.Cache
	size  int
	chunk int // payload bytes per freecache entry
}

// NewMemoryCache allocates an arena of size bytes. Zero selects
// DefaultMemoryBytes; smaller sizes are raised to MinMemoryBytes.
func NewMemoryCache(size int) *MemoryCache {
	if size == 0 {
		size = DefaultMemoryBytes
	}
	size = max(size, MinMemoryBytes)
	return &MemoryCache{
		fc:    freecache.NewCache(size),
		size:  size,
		chunk: size/arenaShare - entryHeader - 64,
	}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	head, err := c.fc.Get([]byte(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(head) == 0 {
		return nil, false, fmt.Errorf("cache: empty memory entry %q", key)
	}

	var encoded []byte
	switch head[0] {
	case kindInline:
		encoded = head[1:]
	case kindChunked:
		n, read := binary.Uvarint(head[1:])
		if read <= 0 {
			return nil, false, fmt.Errorf("cache: corrupt chunk header %q", key)
		}
		for i := range int(n) {
			part, err := c.fc.Get(chunkKey(key, i))
			if errors.Is(err, freecache.ErrNotFound) {
				return nil, false, nil
			}
			if err != nil {
				return nil, false, err
			}
			encoded = append(encoded, part...)
		}
	default:
		return nil, false, fmt.Errorf("cache: unknown memory entry kind %d", head[0])
	}

	data, err := snappy.Decode(nil, encoded)
	if err != nil {
		return nil, false, fmt.Errorf("cache: decode %q: %w", key, err)
	}
	return data, true, nil
}

// Set stores a value. TTLs are rounded up to whole seconds.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	secs := 0
	if ttl > 0 {
		secs = int((ttl + time.Second - 1) / time.Second)
	}

	encoded := snappy.Encode(nil, data)
	step := c.chunk - len(key) - 8
	if len(encoded) > c.size/16 || step <= 0 {
		return fmt.Errorf("%w: %q is %d bytes compressed", ErrEntryTooLarge, key, len(encoded))
	}
	if len(key)+len(encoded)+1 <= c.chunk {
		return c.fc.Set([]byte(key), append([]byte{kindInline}, encoded...), secs)
	}

	n := 0
	for off := 0; off < len(encoded); off += step {
		end := min(off+step, len(encoded))
		if err := c.fc.Set(chunkKey(key, n), encoded[off:end], secs); err != nil {
			return fmt.Errorf("cache: store chunk %d of %q: %w", n, key, err)
		}
		n++
	}
	head := binary.AppendUvarint([]byte{kindChunked}, uint64(n))
	return c.fc.Set([]byte(key), head, secs)
}

// Delete removes a value and any chunks it was split into.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	head, err := c.fc.Get([]byte(key))
	if err == nil && len(head) > 0 && head[0] == kindChunked {
		if n, read := binary.Uvarint(head[1:]); read > 0 {
			for i := range int(n) {
				c.fc.Del(chunkKey(key, i))
			}
		}
	}
	c.fc.Del([]byte(key))
	return nil
}

// Close clears the arena.
func (c *MemoryCache) Close() error {
	c.fc.Clear()
	return nil
}

// Len returns the number of live freecache entries, chunks included.
func (c *MemoryCache) Len() int64 { return c.fc.EntryCount() }

// HitRate returns the fraction of lookups that hit.
func (c *MemoryCache) HitRate() float64 { return c.fc.HitRate() }

func chunkKey(key string, i int) []byte {
	return []byte(key + "#" + strconv.Itoa(i))
}

var _ Cache = (*MemoryCache)(nil)
