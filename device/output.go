package device

import "github.com/example/labc/instruction"

// Output is implemented by every timed output kind (AnalogOut,
// DigitalOut, Shutter, Trigger, the per-channel sub-outputs of DDS).
// Static variants and AnalogIn do not carry a Timeline and therefore
// do not implement Output; they are addressed directly by their own
// types.
type Output interface {
	Device
	Timeline() *instruction.Timeline
	// IsDigital selects the dtype used during materialisation
	// (spec.md §4.5): true -> uint32 bit-packed, false -> float64.
	IsDigital() bool
	// EffectiveClockLimit is the clock limit inherited from this
	// output's clockline.
	EffectiveClockLimit() float64
}

// outputBase is embedded by every concrete Output kind.
type outputBase struct {
	*Base
	timeline    *instruction.Timeline
	clockLimit  float64
}

func (o *outputBase) Timeline() *instruction.Timeline { return o.timeline }
func (o *outputBase) EffectiveClockLimit() float64    { return o.clockLimit }
