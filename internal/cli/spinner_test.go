package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerDrawsAndClears(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Settling layout...")
	s.Start()
	time.Sleep(3 * spinnerInterval)
	s.Update("Rendering svg...")
	time.Sleep(3 * spinnerInterval)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Settling layout...") || !strings.Contains(out, "Rendering svg...") {
		t.Errorf("spinner output missing messages: %q", out)
	}
	if !strings.HasSuffix(out, "\r") {
		t.Errorf("spinner did not clear its line: %q", out)
	}
	if !s.Cancelled() {
		t.Error("Cancelled() = false after Stop")
	}
}

func TestSpinnerParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	s := newSpinner(ctx, &buf, "Testing")
	s.Start()
	cancel()
	<-s.stopped

	if !s.Cancelled() {
		t.Error("spinner should be cancelled after its context is")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Testing")
	s.Start()
	s.Stop()
	s.Stop()
	s.StopWithSuccess("Done")

	if !strings.Contains(buf.String(), "Done") {
		t.Errorf("missing success line: %q", buf.String())
	}
}
