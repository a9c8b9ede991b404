// Package config loads pangraph settings from a TOML file.
//
// Every section is optional; missing keys keep the values of [Default].
// Relative paths are resolved against the directory of the config file.
//
//	[data]
//	graph = "graph.json"
//	annotations = "annotations.json"
//	tree = "tree.nwk"
//
//	[layout]
//	column_width = 100
//	row_height = 100
//	node_spacing = 50
//	bucket_width = 100
//
//	[cache]
//	backend = "file"      # none, file, memory, redis
//	dir = ""              # file backend, default is the user cache dir
//	memory_bytes = 33554432
//	ttl = "24h"
//	prefix = ""           # key prefix when several datasets share redis
//
//	[redis]
//	addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//
//	[logging]
//	level = "info"
//	file = ""             # rotate logs into this file when set
//	max_size = 100        # megabytes
//	max_age = 28          # days
package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/pangraph/pkg/cache"
	"github.com/matzehuels/pangraph/pkg/layout"
)

// Config is the decoded configuration file.
type Config struct {
	Data    DataConfig    `toml:"data"`
	Layout  LayoutConfig  `toml:"layout"`
	Cache   CacheConfig   `toml:"cache"`
	Redis   RedisConfig   `toml:"redis"`
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`

	path string
}

// DataConfig names the input files served by default.
type DataConfig struct {
	Graph       string `toml:"graph"`
	Annotations string `toml:"annotations"`
	Tree        string `toml:"tree"`
}

type LayoutConfig struct {
	ColumnWidth float64 `toml:"column_width"`
	RowHeight   float64 `toml:"row_height"`
	NodeSpacing float64 `toml:"node_spacing"`
	BucketWidth float64 `toml:"bucket_width"`
}

type CacheConfig struct {
	Backend     string        `toml:"backend"`
	Dir         string        `toml:"dir"`
	MemoryBytes int           `toml:"memory_bytes"`
	TTL         time.Duration `toml:"ttl"`
	Prefix      string        `toml:"prefix"` // namespaces keys in a shared backend
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LoggingConfig struct {
	Level   string `toml:"level"`
	File    string `toml:"file"`
	MaxSize int    `toml:"max_size"` // megabytes
	MaxAge  int    `toml:"max_age"`  // days
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			ColumnWidth: layout.DefaultColumnWidth,
			RowHeight:   layout.DefaultRowHeight,
			NodeSpacing: layout.DefaultNodeSpacing,
			BucketWidth: layout.DefaultBucketWidth,
		},
		Cache: CacheConfig{
			Backend:     cache.BackendFile,
			MemoryBytes: cache.DefaultMemoryBytes,
			TTL:         cache.TTLLayout,
		},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Server: ServerConfig{Addr: ":8080"},
		Logging: LoggingConfig{
			Level:   "info",
			MaxSize: 100,
			MaxAge:  28,
		},
	}
}

// Load reads the TOML file at path over the defaults, resolves relative
// paths and validates the result. Unknown keys are an error.
func Load(path string) (*Config, error) {
	c := Default()
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("decode %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	c.path = path
	if err := c.resolvePaths(filepath.Dir(path)); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Path returns the file the config was loaded from, or "" for defaults.
func (c *Config) Path() string { return c.path }

func (c *Config) resolvePaths(dir string) error {
	for _, p := range []*string{
		&c.Data.Graph,
		&c.Data.Annotations,
		&c.Data.Tree,
		&c.Cache.Dir,
		&c.Logging.File,
	} {
		if *p == "" || filepath.IsAbs(*p) {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(dir, *p))
		if err != nil {
			return fmt.Errorf("resolve %q: %w", *p, err)
		}
		*p = abs
	}
	return nil
}

var backends = []string{cache.BackendNone, cache.BackendFile, cache.BackendMemory, cache.BackendRedis}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	if c.Layout.ColumnWidth <= 0 || c.Layout.RowHeight <= 0 || c.Layout.BucketWidth <= 0 {
		return fmt.Errorf("layout: column_width, row_height and bucket_width must be positive")
	}
	if c.Layout.NodeSpacing < 0 {
		return fmt.Errorf("layout: node_spacing must not be negative")
	}
	if !slices.Contains(backends, c.Cache.Backend) {
		return fmt.Errorf("cache: unknown backend %q (must be one of: %s)", c.Cache.Backend, strings.Join(backends, ", "))
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache: ttl must not be negative")
	}
	if c.Cache.Backend == cache.BackendRedis && c.Redis.Addr == "" {
		return fmt.Errorf("redis: addr is required for the redis backend")
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Logging.MaxSize < 0 || c.Logging.MaxAge < 0 {
		return fmt.Errorf("logging: max_size and max_age must not be negative")
	}
	return nil
}

// CacheOptions converts the cache and redis sections for cache.Open.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:     c.Cache.Backend,
		Dir:         c.Cache.Dir,
		MemoryBytes: c.Cache.MemoryBytes,
		Redis: cache.RedisConfig{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		},
	}
}

// LayoutOptions converts the layout section.
func (c *Config) LayoutOptions() layout.Options {
	return layout.Options{
		ColumnWidth: c.Layout.ColumnWidth,
		RowHeight:   c.Layout.RowHeight,
		NodeSpacing: c.Layout.NodeSpacing,
	}
}
