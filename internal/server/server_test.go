package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pangraph/pkg/errors"
	graphio "github.com/matzehuels/pangraph/pkg/io"
	"github.com/matzehuels/pangraph/pkg/layout"
	"github.com/matzehuels/pangraph/pkg/pipeline"
	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	g, err := seqgraph.Build(
		[]seqgraph.NodeRecord{
			{ID: 1, Sources: []string{"g1", "g2"}, RefStart: 0, RefEnd: 4, Content: "ACGT"},
			{ID: 2, Sources: []string{"g1"}, RefStart: 4, RefEnd: 5, Content: "A"},
			{ID: 3, Sources: []string{"g2"}, RefStart: 4, RefEnd: 5, Content: "C"},
			{ID: 4, Sources: []string{"g1", "g2"}, RefStart: 5, RefEnd: 7, Content: "GG"},
		},
		[]seqgraph.EdgeRecord{{From: 1, To: 2}, {From: 1, To: 3}, {From: 2, To: 4}, {From: 3, To: 4}},
	)
	if err != nil {
		t.Fatal(err)
	}
	logger := log.New(io.Discard)
	s, err := New(pipeline.NewRunner(nil, nil, logger), g, Options{}, logger)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestGraph(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/graph")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got GraphSummary
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Nodes != 4 || got.Edges != 4 || got.Sources != 2 || got.Roots != 1 {
		t.Errorf("summary = %+v", got)
	}
	if got.Fingerprint == "" {
		t.Error("fingerprint is empty")
	}
}

func TestSources(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/sources")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got struct{ Sources []string }
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if strings.Join(got.Sources, ",") != "g1,g2" {
		t.Errorf("sources = %v, want [g1 g2]", got.Sources)
	}
}

func TestLayout(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name      string
		body      string
		wantCount int
		wantCols  int
	}{
		{"all genomes", ``, 4, 2},
		{"null selection", `{"sources":null}`, 4, 2},
		{"one genome", `{"sources":["g1"]}`, 3, 2},
		{"empty selection", `{"sources":[]}`, 0, -1},
		{"collapsed", `{"collapse":true}`, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/layout", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				t.Fatalf("status = %d: %s", resp.StatusCode, body)
			}
			if resp.Header.Get(HeaderRequestID) == "" {
				t.Error("missing request id header")
			}
			l, err := graphio.ReadLayout(resp.Body)
			if err != nil {
				t.Fatal(err)
			}
			if got := len(l.Ordered()); got != tt.wantCount {
				t.Errorf("positions = %d, want %d", got, tt.wantCount)
			}
			if got := l.MaxColumn(); got != tt.wantCols {
				t.Errorf("MaxColumn() = %d, want %d", got, tt.wantCols)
			}
		})
	}
}

func TestLayout_Window(t *testing.T) {
	ts := newTestServer(t)

	// Default metrics put columns 100px apart: x = 0, 100, 200. A window at
	// left=300 pads back to slot 2 only.
	resp, err := http.Post(ts.URL+"/layout?left=300&width=50", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	// A window keeps the full column count, so it is decoded as a plain
	// document rather than read back as a layout.
	var doc struct {
		Positions []layout.Position `json:"positions"`
		MaxColumn int               `json:"max_column"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Positions) != 1 || doc.Positions[0].ID != 4 {
		t.Errorf("positions = %+v, want only node 4", doc.Positions)
	}
	if doc.MaxColumn != 2 {
		t.Errorf("max_column = %d, want 2", doc.MaxColumn)
	}
}

func TestLayout_Errors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   errors.Code
	}{
		{"unknown genome", "/layout", `{"sources":["nope"]}`, http.StatusBadRequest, errors.ErrCodeInvalidSource},
		{"bad json", "/layout", `{"sources":`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", "/layout", `{"genomes":["g1"]}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"negative metric", "/layout", `{"row_height":-1}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"half window", "/layout?left=0", ``, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad window", "/layout?left=0&width=x", ``, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad format", "/render?format=gif", ``, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+tt.path, "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var body errorBody
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", body.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/layout")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidSource, http.StatusBadRequest},
		{errors.ErrCodeMalformedGraph, http.StatusUnprocessableEntity},
		{errors.ErrCodeNotFound, http.StatusNotFound},
		{errors.ErrCodeSuperseded, http.StatusConflict},
		{errors.ErrCodeCanceled, http.StatusServiceUnavailable},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code); got != tt.want {
			t.Errorf("statusFor(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
