// Package server exposes a pangenome graph over HTTP.
//
// One graph is loaded at startup. Clients post genome selections to
// /layout and receive layout JSON; requests are served latest-wins through
// a [pipeline.Viewer], so a request overtaken by a newer one answers 409.
//
// Routes:
//
//	GET  /healthz   liveness probe
//	GET  /graph     node, edge and genome counts plus the graph fingerprint
//	GET  /sources   sorted genome names
//	POST /layout    body: pipeline.Options, response: layout JSON;
//	                ?left=&width= returns only the positions near that viewport
//	POST /render    body: pipeline.Options, ?format=svg|png|pdf|dot
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pangraph/pkg/errors"
	"github.com/matzehuels/pangraph/pkg/observability"
	"github.com/matzehuels/pangraph/pkg/pipeline"
	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

// HeaderRequestID carries the pipeline request id of a layout response.
const HeaderRequestID = "X-Request-ID"

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// Options configures a [Server].
type Options struct {
	// Base supplies the default layout metrics of every request.
	Base pipeline.Options
	// BucketWidth is the slot width for viewport queries; zero uses the
	// layout default.
	BucketWidth float64
}

// Server serves one graph.
type Server struct {
	graph       *seqgraph.Graph
	fingerprint string
	viewer      *pipeline.Viewer
	bucketWidth float64
	logger      *log.Logger
	router      chi.Router
}

// New creates a server over g.
func New(r *pipeline.Runner, g *seqgraph.Graph, opts Options, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	fp, err := pipeline.Fingerprint(g)
	if err != nil {
		return nil, fmt.Errorf("fingerprint graph: %w", err)
	}
	s := &Server{
		graph:       g,
		fingerprint: fp,
		viewer:      pipeline.NewViewer(r, g, opts.Base),
		bucketWidth: opts.BucketWidth,
		logger:      logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/graph", s.handleGraph)
	r.Get("/sources", s.handleSources)
	r.Post("/layout", s.handleLayout)
	r.Post("/render", s.handleRender)
	return r
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr, "nodes", s.graph.NodeCount())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.Server()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"elapsed", elapsed.Round(time.Microsecond))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

// writeError maps err to a status code from its error code.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	err = errors.FromGraph(err)
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = errors.UserMessage(err)
	if status < http.StatusInternalServerError {
		body.Error.Message = errors.Detail(err)
	}
	writeJSON(w, status, body)
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSource,
		errors.ErrCodeInvalidGraph, errors.ErrCodeInvalidTree:
		return http.StatusBadRequest
	case errors.ErrCodeMalformedGraph, errors.ErrCodeGraphIntegrity:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeSuperseded:
		return http.StatusConflict
	case errors.ErrCodeCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
