package monitoring

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetLogWriters(t *testing.T) {
	defer SetLogWriters(LogWriters{})

	var ops, diag, trace bytes.Buffer
	SetLogWriters(LogWriters{Ops: &ops, Diag: &diag, Trace: &trace})

	Opsf("geometry missing for event %d", 7)
	Diagf("staged %d inputs", 42)
	Tracef("candidate %d rejected", 3)

	if !strings.Contains(ops.String(), "geometry missing for event 7") {
		t.Errorf("ops stream = %q", ops.String())
	}
	if !strings.Contains(diag.String(), "staged 42 inputs") {
		t.Errorf("diag stream = %q", diag.String())
	}
	if !strings.Contains(trace.String(), "candidate 3 rejected") {
		t.Errorf("trace stream = %q", trace.String())
	}
}

func TestSetLogWriters_NilDisablesStream(t *testing.T) {
	defer SetLogWriters(LogWriters{})

	var diag bytes.Buffer
	SetLogWriters(LogWriters{Diag: &diag})

	// Must not panic with the other streams disabled.
	Opsf("dropped")
	Tracef("dropped")
	Diagf("kept")

	if !strings.Contains(diag.String(), "kept") {
		t.Errorf("diag stream = %q", diag.String())
	}
	if strings.Contains(diag.String(), "dropped") {
		t.Errorf("disabled streams leaked into diag: %q", diag.String())
	}
}
