package device

import (
	"github.com/example/labc/instruction"
	"github.com/example/labc/registry"
	"github.com/example/labc/unit"
)

// DDS is a composite device owning three AnalogOut-like sub-outputs
// (frequency, amplitude, phase) and an optional digital gate
// (spec.md §3, §9: "DDS ... does not add output kinds, it
// delegates"). Sub-output names follow the original's convention of
// "<dds-name>_freq/_amp/_phase" (SPEC_FULL.md §D.4); the gate
// defaults to closed on power-up.
type DDS struct {
	*Base
	Frequency *AnalogOut
	Amplitude *AnalogOut
	Phase     *AnalogOut
	Gate      *DigitalOut // nil if this DDS has no gate
}

// NewDDS constructs a DDS and its three sub-outputs under the given
// IntermediateDevice parent; withGate additionally constructs a
// closed-by-default digital gate.
func NewDDS(ctx *registry.Context, name string, parent *IntermediateDevice, connection string,
	freqLimits, ampLimits, phaseLimits instruction.Limits,
	freqCal, ampCal, phaseCal unit.Calibration, withGate bool) (*DDS, error) {
	b, err := newBase(ctx, "device.NewDDS", KindDDS, name, parent, connection)
	if err != nil {
		return nil, err
	}
	freq, err := NewAnalogOut(ctx, name+"_freq", parent, connection+"_freq", freqLimits, freqCal)
	if err != nil {
		return nil, err
	}
	amp, err := NewAnalogOut(ctx, name+"_amp", parent, connection+"_amp", ampLimits, ampCal)
	if err != nil {
		return nil, err
	}
	phase, err := NewAnalogOut(ctx, name+"_phase", parent, connection+"_phase", phaseLimits, phaseCal)
	if err != nil {
		return nil, err
	}
	dds := &DDS{Base: b, Frequency: freq, Amplitude: amp, Phase: phase}
	if withGate {
		gate, err := NewDigitalOut(ctx, name+"_gate", parent, connection+"_gate", false)
		if err != nil {
			return nil, err
		}
		dds.Gate = gate
	}
	attach(ctx, dds, b)
	return dds, nil
}

// SubOutputs returns the DDS's component outputs (gate last, if present).
func (d *DDS) SubOutputs() []Output {
	out := []Output{d.Frequency, d.Amplitude, d.Phase}
	if d.Gate != nil {
		out = append(out, d.Gate)
	}
	return out
}
