// Package cli implements the pangraph command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pangraph/pkg/buildinfo"
	"github.com/matzehuels/pangraph/pkg/cache"
	"github.com/matzehuels/pangraph/pkg/config"
	"github.com/matzehuels/pangraph/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "pangraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	stderr     io.Writer
	configPath string
	logCloser  io.Closer
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
		stderr: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "pangraph lays out pangenome variation graphs",
		Long: `pangraph loads a pangenome sequence graph, collapses its bubbles into
variation nodes, filters it to a selection of genomes and computes a
column layout for a viewer.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.setup(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) { c.Close() },
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "TOML config file")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.collapseCommand())
	root.AddCommand(c.filterCommand())
	root.AddCommand(c.selectCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the config file, if any, and attaches the log file it names.
func (c *CLI) setup() error {
	if c.configPath != "" {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		c.Config = cfg
		c.Logger.Debug("loaded config", "path", cfg.Path())
	}

	if c.Config.Logging.File != "" {
		logger, closer := newFileLogger(c.stderr, c.Logger.GetLevel(), c.Config.Logging)
		c.Logger, c.logCloser = logger, closer
	}
	return nil
}

// Close flushes the log file, if one is open.
func (c *CLI) Close() {
	if c.logCloser != nil {
		c.logCloser.Close()
		c.logCloser = nil
	}
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if c.Config.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, c.Config.Cache.Prefix)
	}
	r := pipeline.NewRunner(ch, keyer, c.Logger)
	r.TTL = c.Config.Cache.TTL
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	ch, err := cache.Open(ctx, c.Config.CacheOptions())
	if err != nil {
		if c.Config.Cache.Backend == cache.BackendRedis {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		c.Logger.Warn("cache unavailable, continuing without", "err", err)
		return cache.NewNullCache(), nil
	}
	return ch, nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
