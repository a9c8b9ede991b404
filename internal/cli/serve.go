package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pangraph/internal/server"
	"github.com/matzehuels/pangraph/pkg/errors"
)

// serveCommand creates the serve command, which exposes one graph over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		in   inputFlags
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve [graph.json]",
		Short: "Serve layouts of a graph over HTTP",
		Long: `Serve layouts of a graph over HTTP.

The graph is loaded once. Clients post genome selections and receive
layout JSON:

  curl -X POST localhost:8080/layout -d '{"sources":["g1","g2"],"collapse":true}'

Only the newest request is answered with a layout; a request overtaken by
a newer one gets 409 Conflict. Other routes: GET /healthz, GET /graph,
GET /sources, POST /render?format=svg.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), argOrEmpty(args), &in, addr)
		},
	}

	cmd.Flags().StringVar(&in.annotations, "annotations", "", "annotation file to attach")
	cmd.Flags().BoolVar(&in.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, path string, in *inputFlags, addr string) error {
	input, err := c.load(ctx, path, in)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, in.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := server.Options{BucketWidth: c.Config.Layout.BucketWidth}
	c.applyLayoutConfig(&opts.Base)

	logger := loggerFromContext(ctx)
	srv, err := server.New(runner, input.Graph, opts, logger)
	if err != nil {
		return errors.FromGraph(err)
	}

	if addr == "" {
		addr = c.Config.Server.Addr
	}
	printInfo("Serving %s on %s", graphArg(path), StyleHighlight.Render(addr))
	return srv.ListenAndServe(ctx, addr)
}
