package device

import (
	"github.com/example/labc/instruction"
	"github.com/example/labc/labcerr"
	"github.com/example/labc/registry"
	"github.com/example/labc/unit"
)

// StaticAnalogOut carries a single value set once before start(),
// never a timeline (spec.md §3).
type StaticAnalogOut struct {
	*Base
	Limits      instruction.Limits
	Calibration unit.Calibration
	value       *float64
}

// NewStaticAnalogOut constructs a static analog output.
func NewStaticAnalogOut(ctx *registry.Context, name string, parent *IntermediateDevice, connection string, limits instruction.Limits, cal unit.Calibration) (*StaticAnalogOut, error) {
	b, err := newBase(ctx, "device.NewStaticAnalogOut", KindStaticAnalogOut, name, parent, connection)
	if err != nil {
		return nil, err
	}
	s := &StaticAnalogOut{Base: b, Limits: limits, Calibration: cal}
	attach(ctx, s, b)
	return s, nil
}

// Set commands the one-time static value, converting units if given.
// Fails NameClash if already set, matching the original's refusal to
// silently let a second constant command overwrite the first.
func (s *StaticAnalogOut) Set(v float64, units string) error {
	const op = "device.StaticAnalogOut.Set"
	if s.value != nil {
		return labcerr.New(labcerr.NameClash, op, "static output already set", "name", s.DeviceName())
	}
	converted := v
	if units != "" {
		if s.Calibration == nil {
			return labcerr.New(labcerr.UnknownUnits, op, "units given but output has no calibration", "units", units)
		}
		var err error
		converted, err = s.Calibration.ToBase(units, v)
		if err != nil {
			return err
		}
	}
	if s.Limits.Set && (converted < s.Limits.Min || converted > s.Limits.Max) {
		return labcerr.New(labcerr.OutOfRange, op, "value outside configured limits", "value", converted)
	}
	s.value = &converted
	return nil
}

// Value returns the static value, if set.
func (s *StaticAnalogOut) Value() (float64, bool) {
	if s.value == nil {
		return 0, false
	}
	return *s.value, true
}

// StaticDigitalOut carries a single 0/1 value set once before start().
type StaticDigitalOut struct {
	*Base
	Inverted bool
	value    *uint8
}

// NewStaticDigitalOut constructs a static digital output.
func NewStaticDigitalOut(ctx *registry.Context, name string, parent *IntermediateDevice, connection string, inverted bool) (*StaticDigitalOut, error) {
	b, err := newBase(ctx, "device.NewStaticDigitalOut", KindStaticDigitalOut, name, parent, connection)
	if err != nil {
		return nil, err
	}
	s := &StaticDigitalOut{Base: b, Inverted: inverted}
	s.connectionTableProperties["inverted"] = inverted
	attach(ctx, s, b)
	return s, nil
}

func (s *StaticDigitalOut) set(level uint8) error {
	const op = "device.StaticDigitalOut.Set"
	if s.value != nil {
		return labcerr.New(labcerr.NameClash, op, "static output already set", "name", s.DeviceName())
	}
	s.value = &level
	return nil
}

// GoHigh sets the static output to its logical high level.
func (s *StaticDigitalOut) GoHigh() error {
	if s.Inverted {
		return s.set(0)
	}
	return s.set(1)
}

// GoLow sets the static output to its logical low level.
func (s *StaticDigitalOut) GoLow() error {
	if s.Inverted {
		return s.set(1)
	}
	return s.set(0)
}

// Value returns the static 0/1 value, if set.
func (s *StaticDigitalOut) Value() (uint8, bool) {
	if s.value == nil {
		return 0, false
	}
	return *s.value, true
}

// StaticDDS carries one fixed (frequency, amplitude, phase) triple,
// set once before start().
type StaticDDS struct {
	*Base
	Frequency *StaticAnalogOut
	Amplitude *StaticAnalogOut
	Phase     *StaticAnalogOut
}

// NewStaticDDS constructs a static DDS and its three sub-outputs.
func NewStaticDDS(ctx *registry.Context, name string, parent *IntermediateDevice, connection string,
	freqLimits, ampLimits, phaseLimits instruction.Limits, freqCal, ampCal, phaseCal unit.Calibration) (*StaticDDS, error) {
	b, err := newBase(ctx, "device.NewStaticDDS", KindStaticDDS, name, parent, connection)
	if err != nil {
		return nil, err
	}
	freq, err := NewStaticAnalogOut(ctx, name+"_freq", parent, connection+"_freq", freqLimits, freqCal)
	if err != nil {
		return nil, err
	}
	amp, err := NewStaticAnalogOut(ctx, name+"_amp", parent, connection+"_amp", ampLimits, ampCal)
	if err != nil {
		return nil, err
	}
	phase, err := NewStaticAnalogOut(ctx, name+"_phase", parent, connection+"_phase", phaseLimits, phaseCal)
	if err != nil {
		return nil, err
	}
	dds := &StaticDDS{Base: b, Frequency: freq, Amplitude: amp, Phase: phase}
	attach(ctx, dds, b)
	return dds, nil
}
