// Package diag provides the warnings/diagnostics collaborator used
// throughout this module instead of writing directly to stderr.
// Warnings (spec: missing initial instruction, constant ramp
// collapsed, shutter asked to act before it can) flow through a Sink
// so callers can capture, filter or suppress them.
package diag

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
)

// Severity classifies a warning so a Sink can suppress by tier.
type Severity int

const (
	// Mild warnings are informational (e.g. a ramp collapsed to a
	// constant). SuppressMild drops these.
	Mild Severity = iota
	// Notable warnings indicate a likely authoring mistake (e.g. a
	// shutter commanded before it can physically move) but do not
	// abort compilation.
	Notable
)

// Sink receives non-fatal diagnostics emitted during compilation.
type Sink interface {
	Warn(sev Severity, op, msg string)
	// Dump writes a verbose structural dump of v, used when a Sink is
	// configured for verbose output. Implementations may no-op.
	Dump(label string, v interface{})
}

// WriterSink writes warnings as lines to an io.Writer.
type WriterSink struct {
	W                 io.Writer
	SuppressMild      bool
	SuppressAll       bool
	Verbose           bool
}

// NewWriterSink returns a WriterSink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{W: w}
}

func (s *WriterSink) Warn(sev Severity, op, msg string) {
	if s.SuppressAll {
		return
	}
	if sev == Mild && s.SuppressMild {
		return
	}
	fmt.Fprintf(s.W, "WARNING: %s: %s\n", op, msg)
}

func (s *WriterSink) Dump(label string, v interface{}) {
	if !s.Verbose {
		return
	}
	fmt.Fprintf(s.W, "-- %s --\n%s\n", label, spew.Sdump(v))
}

// NopSink discards all diagnostics.
type NopSink struct{}

func (NopSink) Warn(Severity, string, string)  {}
func (NopSink) Dump(string, interface{})       {}
