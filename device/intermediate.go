package device

import "github.com/example/labc/registry"

// IntermediateDevice bridges a ClockLine and the Outputs hanging off
// it (spec.md §3). All outputs carry an effective clock limit
// inherited from their clockline.
type IntermediateDevice struct {
	*Base
}

// NewIntermediateDevice constructs an intermediate device under a
// ClockLine parent.
func NewIntermediateDevice(ctx *registry.Context, name string, parent *ClockLine, connection string) (*IntermediateDevice, error) {
	b, err := newBase(ctx, "device.NewIntermediateDevice", KindIntermediateDevice, name, parent, connection)
	if err != nil {
		return nil, err
	}
	id := &IntermediateDevice{Base: b}
	attach(ctx, id, b)
	return id, nil
}

// Outputs returns every Output child, in insertion order.
func (id *IntermediateDevice) Outputs() []Output {
	var out []Output
	for _, c := range id.Children() {
		if o, ok := c.(Output); ok {
			out = append(out, o)
		}
	}
	return out
}
