package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pangraph/pkg/cache"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pangraph.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if c.Layout.ColumnWidth != 100 || c.Layout.RowHeight != 100 || c.Layout.NodeSpacing != 50 {
		t.Errorf("Layout = %+v", c.Layout)
	}
	if c.Cache.Backend != cache.BackendFile {
		t.Errorf("Cache.Backend = %q, want file", c.Cache.Backend)
	}
	if c.Path() != "" {
		t.Errorf("Path() = %q, want empty", c.Path())
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[data]
graph = "data/graph.json"
tree = "/abs/tree.nwk"

[layout]
column_width = 120

[cache]
backend = "memory"
ttl = "90m"

[logging]
level = "debug"
file = "logs/pangraph.log"
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	dir := filepath.Dir(path)

	if want := filepath.Join(dir, "data", "graph.json"); c.Data.Graph != want {
		t.Errorf("Data.Graph = %q, want %q", c.Data.Graph, want)
	}
	if c.Data.Tree != "/abs/tree.nwk" {
		t.Errorf("Data.Tree = %q, absolute paths must stay", c.Data.Tree)
	}
	if c.Data.Annotations != "" {
		t.Errorf("Data.Annotations = %q, want empty", c.Data.Annotations)
	}
	if want := filepath.Join(dir, "logs", "pangraph.log"); c.Logging.File != want {
		t.Errorf("Logging.File = %q, want %q", c.Logging.File, want)
	}

	if c.Layout.ColumnWidth != 120 || c.Layout.RowHeight != 100 {
		t.Errorf("Layout = %+v, want column_width overridden and defaults kept", c.Layout)
	}
	if c.Cache.Backend != cache.BackendMemory || c.Cache.TTL != 90*time.Minute {
		t.Errorf("Cache = %+v", c.Cache)
	}
	if c.Path() != path {
		t.Errorf("Path() = %q, want %q", c.Path(), path)
	}

	opts := c.CacheOptions()
	if opts.Backend != cache.BackendMemory || opts.Redis.Addr != "localhost:6379" {
		t.Errorf("CacheOptions() = %+v", opts)
	}
	if lo := c.LayoutOptions(); lo.ColumnWidth != 120 || lo.NodeSpacing != 50 {
		t.Errorf("LayoutOptions() = %+v", lo)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[layout\n", "decode"},
		{"unknown key", "[layout]\nzoom = 2\n", "unknown keys: layout.zoom"},
		{"bad backend", "[cache]\nbackend = \"etcd\"\n", "unknown backend"},
		{"zero width", "[layout]\ncolumn_width = 0\n", "must be positive"},
		{"negative spacing", "[layout]\nnode_spacing = -1\n", "must not be negative"},
		{"bad level", "[logging]\nlevel = \"loud\"\n", "logging"},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n[redis]\naddr = \"\"\n", "addr is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load() of a missing file should fail")
	}
}
