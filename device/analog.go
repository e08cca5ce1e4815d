package device

import (
	"github.com/example/labc/instruction"
	"github.com/example/labc/registry"
	"github.com/example/labc/unit"
)

// AnalogOut is a float-sampled output with optional (min,max) limits,
// an optional unit-conversion calibration and an optional default
// value (spec.md §3).
type AnalogOut struct {
	outputBase
	Limits       instruction.Limits
	Calibration  unit.Calibration
	DefaultValue *float64
}

// NewAnalogOut constructs an AnalogOut under an IntermediateDevice
// parent, inheriting clockLimit from the owning clockline.
func NewAnalogOut(ctx *registry.Context, name string, parent *IntermediateDevice, connection string, limits instruction.Limits, cal unit.Calibration) (*AnalogOut, error) {
	b, err := newBase(ctx, "device.NewAnalogOut", KindAnalogOut, name, parent, connection)
	if err != nil {
		return nil, err
	}
	cl, err := ParentClockLine(parent)
	if err != nil {
		return nil, err
	}
	a := &AnalogOut{
		outputBase: outputBase{
			Base:       b,
			timeline:   instruction.NewTimeline(limits, cl.RampingAllowed, cal),
			clockLimit: cl.ClockLimit,
		},
		Limits:      limits,
		Calibration: cal,
	}
	attach(ctx, a, b)
	return a, nil
}

func (a *AnalogOut) IsDigital() bool { return false }
