package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Backend names accepted by [Open].
const (
	BackendNone   = "none"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options selects and configures a backend for [Open].
type Options struct {
	Backend     string
	Dir         string // file backend; empty means DefaultDir()
	MemoryBytes int    // memory backend arena size
	Redis       RedisConfig
}

// Open creates the cache named by opts.Backend. An empty backend is "none".
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case "", BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		dir := opts.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		fc, err := NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	case BackendMemory:
		return NewMemoryCache(opts.MemoryBytes), nil
	case BackendRedis:
		rc, err := NewRedisCache(ctx, opts.Redis)
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// DefaultDir returns the per-user cache directory for pangraph.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate user cache dir: %w", err)
	}
	return filepath.Join(base, "pangraph"), nil
}
