package device

import (
	"sort"

	"github.com/example/labc/labcerr"
	"github.com/example/labc/registry"
)

// Acquisition is one recorded acquisition window on an AnalogIn
// (spec.md §3; SPEC_FULL.md §D.5).
type Acquisition struct {
	Label       string
	StartTime   float64
	EndTime     float64
	WaitLabel   string
	ScaleFactor float64
	Units       string
}

// AnalogIn has no outputs; it records acquisition windows for the
// out-of-scope acquisition runtime to consume.
type AnalogIn struct {
	*Base
	ScaleFactor  float64
	Units        string
	acquisitions []Acquisition
}

// NewAnalogIn constructs an AnalogIn under an IntermediateDevice.
func NewAnalogIn(ctx *registry.Context, name string, parent *IntermediateDevice, connection string, scaleFactor float64, units string) (*AnalogIn, error) {
	b, err := newBase(ctx, "device.NewAnalogIn", KindAnalogIn, name, parent, connection)
	if err != nil {
		return nil, err
	}
	a := &AnalogIn{Base: b, ScaleFactor: scaleFactor, Units: units}
	attach(ctx, a, b)
	return a, nil
}

// Acquire records an acquisition window, returning its duration.
func (a *AnalogIn) Acquire(label string, start, end float64, waitLabel string, scaleFactor *float64, units string) (float64, error) {
	sf := a.ScaleFactor
	if scaleFactor != nil {
		sf = *scaleFactor
	}
	if units == "" {
		units = a.Units
	}
	if end < start {
		return 0, labcerr.New(labcerr.NegativeDuration, "device.AnalogIn.Acquire",
			"end_time precedes start_time", "start", start, "end", end)
	}
	a.acquisitions = append(a.acquisitions, Acquisition{
		Label: label, StartTime: start, EndTime: end,
		WaitLabel: waitLabel, ScaleFactor: sf, Units: units,
	})
	return end - start, nil
}

// Acquisitions returns every recorded window.
func (a *AnalogIn) Acquisitions() []Acquisition {
	return append([]Acquisition(nil), a.acquisitions...)
}

// Validate fails if any window falls outside [0, stopTime] or
// overlaps another window (the do_checks analogue for AnalogIn).
func (a *AnalogIn) Validate(stopTime float64) error {
	wins := append([]Acquisition(nil), a.acquisitions...)
	sort.Slice(wins, func(i, j int) bool { return wins[i].StartTime < wins[j].StartTime })
	for i, w := range wins {
		if w.StartTime < 0 || w.EndTime > stopTime {
			return labcerr.New(labcerr.OutOfRange, "device.AnalogIn.Validate",
				"acquisition window outside [0, stop_time]", "label", w.Label, "start", w.StartTime, "end", w.EndTime)
		}
		if i > 0 && w.StartTime < wins[i-1].EndTime {
			return labcerr.New(labcerr.TriggerOverlap, "device.AnalogIn.Validate",
				"acquisition windows overlap", "a", wins[i-1].Label, "b", w.Label)
		}
	}
	return nil
}
