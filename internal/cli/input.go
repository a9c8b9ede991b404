package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pangraph/pkg/errors"
	"github.com/matzehuels/pangraph/pkg/newick"
	"github.com/matzehuels/pangraph/pkg/pipeline"
)

// inputFlags are the graph input and selection flags shared by commands.
type inputFlags struct {
	annotations string
	tree        string
	sources     string // comma-separated genome names
	leaves      string // comma-separated tree leaf names, requires tree
	collapse    bool
	noCache     bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.annotations, "annotations", "", "annotation file to attach")
	cmd.Flags().StringVar(&f.tree, "tree", "", "Newick tree of the genomes")
	cmd.Flags().StringVarP(&f.sources, "sources", "s", "", "comma-separated genomes to keep (default: all)")
	cmd.Flags().StringVar(&f.leaves, "select", "", "comma-separated tree leaves to select (with --tree)")
	cmd.Flags().BoolVar(&f.collapse, "collapse", false, "collapse bubbles into variation nodes")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	_ = cmd.RegisterFlagCompletionFunc("sources", completeSources)
}

// load reads the graph named by path, or the configured graph when path is
// empty, plus the annotation and tree files.
func (c *CLI) load(ctx context.Context, path string, f *inputFlags) (*pipeline.Input, error) {
	opts := pipeline.ParseOptions{
		Graph:       path,
		Annotations: f.annotations,
		Tree:        f.tree,
	}
	if opts.Graph == "" {
		opts.Graph = c.Config.Data.Graph
	}
	if opts.Annotations == "" {
		opts.Annotations = c.Config.Data.Annotations
	}
	if opts.Tree == "" {
		opts.Tree = c.Config.Data.Tree
	}

	prog := newProgress(c.Logger)
	in, err := pipeline.Parse(ctx, opts)
	if err != nil {
		return nil, errors.FromGraph(err)
	}
	prog.done(fmt.Sprintf("Loaded %d nodes, %d edges", in.Graph.NodeCount(), in.Graph.EdgeCount()))

	for _, name := range in.UnknownLeaves() {
		c.Logger.Warn("tree leaf matches no genome in the graph", "leaf", name)
	}
	return in, nil
}

// selection resolves --sources and --select to the genome list for the
// pipeline. Nil means every genome.
func (f *inputFlags) selection(in *pipeline.Input) ([]string, error) {
	if f.sources != "" && f.leaves != "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "--sources and --select are mutually exclusive")
	}

	if f.sources != "" {
		sel, err := errors.ParseSelection(f.sources, in.Graph.AllSources())
		if err != nil {
			return nil, err
		}
		return sel.Sorted(), nil
	}

	if f.leaves != "" {
		if in.Tree == nil {
			return nil, errors.New(errors.ErrCodeInvalidInput, "--select needs a tree (--tree or [data] tree)")
		}
		return selectLeaves(in.Tree, f.leaves)
	}
	return nil, nil
}

// selectLeaves selects the named leaves of t and returns the resulting
// genome set. An empty result is returned as a non-nil empty list.
func selectLeaves(t *newick.Tree, list string) ([]string, error) {
	var names []string
	for _, n := range strings.Split(list, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if err := t.Select(names...); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "select leaves")
	}
	out := t.SelectedSources().Sorted()
	if out == nil {
		out = []string{}
	}
	return out, nil
}
