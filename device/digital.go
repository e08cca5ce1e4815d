package device

import (
	"github.com/example/labc/diag"
	"github.com/example/labc/instruction"
	"github.com/example/labc/registry"
)

// DigitalOut is bit-packed into a uint32 at materialisation time
// (spec.md §3/§4.5); Inverted flips the physical sense of high/low.
type DigitalOut struct {
	outputBase
	Inverted bool
}

// NewDigitalOut constructs a DigitalOut under an IntermediateDevice.
func NewDigitalOut(ctx *registry.Context, name string, parent *IntermediateDevice, connection string, inverted bool) (*DigitalOut, error) {
	return newDigitalOutKind(ctx, "device.NewDigitalOut", KindDigitalOut, name, parent, connection, inverted)
}

func newDigitalOutKind(ctx *registry.Context, op string, kind Kind, name string, parent *IntermediateDevice, connection string, inverted bool) (*DigitalOut, error) {
	b, err := newBase(ctx, op, kind, name, parent, connection)
	if err != nil {
		return nil, err
	}
	cl, err := ParentClockLine(parent)
	if err != nil {
		return nil, err
	}
	d := &DigitalOut{
		outputBase: outputBase{
			Base: b,
			// Digital outputs carry 0/1 with no calibration; limits
			// are meaningless so Set stays false.
			timeline:   instruction.NewTimeline(instruction.Limits{}, cl.RampingAllowed, nil),
			clockLimit: cl.ClockLimit,
		},
		Inverted: inverted,
	}
	d.connectionTableProperties["inverted"] = inverted
	attach(ctx, d, b)
	return d, nil
}

func (d *DigitalOut) IsDigital() bool { return true }

// GoHigh writes the literal high level (1) at time t. Inverted plays
// no part here: go_high/go_low always command the raw wire level, per
// the original's DigitalQuantity.go_high/go_low.
func (d *DigitalOut) GoHigh(startCalled bool, t0, t float64, sink diag.Sink) error {
	return d.timeline.AddScalar(startCalled, t0, t, 1, "", sink)
}

// GoLow writes the literal low level (0) at time t.
func (d *DigitalOut) GoLow(startCalled bool, t0, t float64, sink diag.Sink) error {
	return d.timeline.AddScalar(startCalled, t0, t, 0, "", sink)
}

// Enable commands the output to its logical active state at time t,
// choosing GoHigh or GoLow according to Inverted.
func (d *DigitalOut) Enable(startCalled bool, t0, t float64, sink diag.Sink) error {
	if d.Inverted {
		return d.GoLow(startCalled, t0, t, sink)
	}
	return d.GoHigh(startCalled, t0, t, sink)
}

// Disable commands the output to its logical inactive state at time t.
func (d *DigitalOut) Disable(startCalled bool, t0, t float64, sink diag.Sink) error {
	if d.Inverted {
		return d.GoHigh(startCalled, t0, t, sink)
	}
	return d.GoLow(startCalled, t0, t, sink)
}
