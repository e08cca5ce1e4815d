package device

import "github.com/example/labc/registry"

// ClockLine is one physical clock output of a Pseudoclock (spec.md
// §3). ClockLimit starts as a copy of the parent pseudoclock's
// ClockLimit and changes only through SetClockLimit; the limits of
// attached devices are not consulted.
type ClockLine struct {
	*Base

	ClockLimit     float64
	RampingAllowed bool

	explicitLimit bool
}

// NewClockLine constructs a clockline under a Pseudoclock parent.
func NewClockLine(ctx *registry.Context, name string, parent *Pseudoclock, connection string, rampingAllowed bool) (*ClockLine, error) {
	b, err := newBase(ctx, "device.NewClockLine", KindClockLine, name, parent, connection)
	if err != nil {
		return nil, err
	}
	cl := &ClockLine{
		Base:           b,
		RampingAllowed: rampingAllowed,
		ClockLimit:     parent.ClockLimit,
	}
	attach(ctx, cl, b)
	return cl, nil
}

// SetClockLimit overrides the inherited clock limit with the given
// explicit value.
func (cl *ClockLine) SetClockLimit(limit float64) {
	cl.ClockLimit = limit
	cl.explicitLimit = true
}

// IntermediateDevices returns this clockline's children in insertion order.
func (cl *ClockLine) IntermediateDevices() []*IntermediateDevice {
	var out []*IntermediateDevice
	for _, c := range cl.Children() {
		if id, ok := c.(*IntermediateDevice); ok {
			out = append(out, id)
		}
	}
	return out
}

// Outputs returns every Output owned by this clockline's
// intermediate devices, in insertion order.
func (cl *ClockLine) Outputs() []Output {
	var out []Output
	for _, id := range cl.IntermediateDevices() {
		out = append(out, id.Outputs()...)
	}
	return out
}
