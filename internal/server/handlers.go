package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/matzehuels/pangraph/pkg/errors"
	graphio "github.com/matzehuels/pangraph/pkg/io"
	"github.com/matzehuels/pangraph/pkg/pipeline"
)

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
}

// GraphSummary is the response of GET /graph.
type GraphSummary struct {
	Nodes       int    `json:"nodes"`
	Edges       int    `json:"edges"`
	Sources     int    `json:"sources"`
	Roots       int    `json:"roots"`
	Fingerprint string `json:"fingerprint"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GraphSummary{
		Nodes:       s.graph.NodeCount(),
		Edges:       s.graph.EdgeCount(),
		Sources:     s.graph.AllSources().Len(),
		Roots:       len(s.graph.Roots()),
		Fingerprint: s.fingerprint,
	})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	sources := s.graph.AllSources().Sorted()
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sources": sources})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.decodeOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts.Formats = nil
	window, err := parseWindow(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.viewer.SubmitOptions(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	l := res.Layout
	if window != nil {
		l = l.Subset(l.Visible(window.left, window.width, s.bucketWidth))
	}

	w.Header().Set("Content-Type", contentTypes[pipeline.FormatJSON])
	w.Header().Set(HeaderRequestID, res.RequestID)
	if err := graphio.WriteLayout(l, w); err != nil {
		s.logger.Error("write layout", "err", err)
	}
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "%s", err.Error()))
		return
	}

	opts, err := s.decodeOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts.Formats = []string{format}

	res, err := s.viewer.SubmitOptions(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set(HeaderRequestID, res.RequestID)
	if _, err := w.Write(res.Artifacts[format]); err != nil {
		s.logger.Error("write artifact", "format", format, "err", err)
	}
}

type viewport struct {
	left, width float64
}

// parseWindow reads the optional left and width query parameters. Both
// must be given together.
func parseWindow(r *http.Request) (*viewport, error) {
	q := r.URL.Query()
	left, width := q.Get("left"), q.Get("width")
	if left == "" && width == "" {
		return nil, nil
	}
	if left == "" || width == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "left and width must be given together")
	}
	var v viewport
	var err error
	if v.left, err = strconv.ParseFloat(left, 64); err != nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid left %q", left)
	}
	if v.width, err = strconv.ParseFloat(width, 64); err != nil || v.width < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid width %q", width)
	}
	return &v, nil
}

// decodeOptions reads the request body. An empty body selects every genome.
// Named genomes must exist in the graph.
func (s *Server) decodeOptions(r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil && err != io.EOF {
		return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	if err := opts.Validate(); err != nil {
		return opts, errors.New(errors.ErrCodeInvalidInput, "%s", err.Error())
	}

	if opts.Sources != nil {
		sel, err := errors.ValidateSelection(opts.Sources, s.graph.AllSources())
		if err != nil {
			return opts, err
		}
		opts.Sources = sel.Sorted()
		if opts.Sources == nil {
			opts.Sources = []string{}
		}
	}
	return opts, nil
}
