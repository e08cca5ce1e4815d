package device

import "github.com/example/labc/registry"

// EdgePolarity selects which digital transition a Trigger asserts on.
type EdgePolarity int

const (
	EdgePositive EdgePolarity = iota
	EdgeNegative
)

// Trigger is a DigitalOut that may parent triggerable devices,
// principally secondary PseudoclockDevices (spec.md §3/§4.1).
type Trigger struct {
	*DigitalOut
	Edge EdgePolarity
}

// NewTrigger constructs a Trigger under an IntermediateDevice.
func NewTrigger(ctx *registry.Context, name string, parent *IntermediateDevice, connection string, edge EdgePolarity) (*Trigger, error) {
	d, err := newDigitalOutKind(ctx, "device.NewTrigger", KindTrigger, name, parent, connection, edge == EdgeNegative)
	if err != nil {
		return nil, err
	}
	return &Trigger{DigitalOut: d, Edge: edge}, nil
}

// TriggeredPseudoclocks returns every secondary Pseudoclock parented
// under this trigger.
func (t *Trigger) TriggeredPseudoclocks() []*Pseudoclock {
	var out []*Pseudoclock
	for _, c := range t.Children() {
		if pc, ok := c.(*Pseudoclock); ok {
			out = append(out, pc)
		}
	}
	return out
}
