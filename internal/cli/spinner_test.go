package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinner(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner("Computing layout...")
	s.out = &buf
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()
	s.Stop()

	if !strings.Contains(buf.String(), "Computing layout...") {
		t.Errorf("output = %q, want the message", buf.String())
	}
	if s.Cancelled() {
		t.Error("Stop should not count as cancellation")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	s := newSpinnerWithContext(ctx, "Collapsing bubbles...")
	s.out = &bytes.Buffer{}
	s.Start()
	cancel()
	time.Sleep(50 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopWithError(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner("Rendering...")
	s.out = &buf
	s.Start()
	s.StopWithError("Render failed")

	if !strings.Contains(buf.String(), "Render failed") {
		t.Errorf("output = %q, want the error message", buf.String())
	}
}
