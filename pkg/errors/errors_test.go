package errors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/matzehuels/pangraph/pkg/newick"
	"github.com/matzehuels/pangraph/pkg/pipeline"
	"github.com/matzehuels/pangraph/pkg/seqgraph"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}
	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInternal, cause, "failed to lay out")

	if err.Code != ErrCodeInternal {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInternal)
	}
	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeInvalidInput, "test"), ErrCodeInvalidInput, true},
		{"non-matching code", New(ErrCodeInvalidInput, "test"), ErrCodeNotFound, false},
		{"wrapped error", Wrap(ErrCodeNotFound, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeNotFound, true},
		{"fmt wrapped", fmt.Errorf("ctx: %w", New(ErrCodeSuperseded, "x")), ErrCodeSuperseded, true},
		{"non-Error type", errors.New("plain error"), ErrCodeInvalidInput, false},
		{"nil error", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeInvalidSource, "test")); got != ErrCodeInvalidSource {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeInvalidSource)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
	if got := GetCode(nil); got != "" {
		t.Errorf("GetCode(nil) = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidInput, "friendly message")); got != "friendly message" {
		t.Errorf("UserMessage() = %v", got)
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage(plain) = %v", got)
	}
}

func TestFromGraph(t *testing.T) {
	_, buildErr := seqgraph.Build(
		[]seqgraph.NodeRecord{{ID: 1, Sources: []string{"g"}}},
		[]seqgraph.EdgeRecord{{From: 1, To: 2}},
	)
	_, parseErr := newick.Parse("(A,B")

	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"malformed wins over cause", buildErr, ErrCodeMalformedGraph},
		{"integrity", fmt.Errorf("%w: x: %w", seqgraph.ErrGraphIntegrity, seqgraph.ErrUnknownNode), ErrCodeGraphIntegrity},
		{"cycle", fmt.Errorf("edge 2->1: %w", seqgraph.ErrCycle), ErrCodeInvalidGraph},
		{"unknown node", seqgraph.ErrUnknownNode, ErrCodeNotFound},
		{"newick", parseErr, ErrCodeInvalidTree},
		{"canceled", context.Canceled, ErrCodeCanceled},
		{"superseded", fmt.Errorf("request x: %w", pipeline.ErrSuperseded), ErrCodeSuperseded},
		{"already coded", New(ErrCodeSuperseded, "old"), ErrCodeSuperseded},
		{"missing file", fmt.Errorf("open graph.json: %w", fs.ErrNotExist), ErrCodeNotFound},
		{"unknown", errors.New("disk on fire"), ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromGraph(tt.err)
			if GetCode(got) != tt.want {
				t.Errorf("FromGraph() code = %v, want %v", GetCode(got), tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("FromGraph() lost the cause")
			}
		})
	}

	if FromGraph(nil) != nil {
		t.Error("FromGraph(nil) != nil")
	}
}

func TestDetail(t *testing.T) {
	cause := errors.New("unexpected EOF")
	tests := []struct {
		err  error
		want string
	}{
		{Wrap(ErrCodeInvalidInput, cause, "invalid request body"), "invalid request body: unexpected EOF"},
		{New(ErrCodeNotFound, "no graph"), "no graph"},
		{cause, "unexpected EOF"},
	}
	for _, tt := range tests {
		if got := Detail(tt.err); got != tt.want {
			t.Errorf("Detail(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
