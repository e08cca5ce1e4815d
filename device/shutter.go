package device

import (
	"sort"

	"github.com/example/labc/diag"
	"github.com/example/labc/labcerr"
	"github.com/example/labc/registry"
)

// shutterActual records, for the late-open/late-close diagnostic, the
// physically-delayed time an Open/Close call actually resolved to
// (SPEC_FULL.md §D.2, grounded on labscript.py's Shutter.actual_times).
type shutterActual struct {
	Time        float64
	Instruction int // 1 = opening, 0 = closing
}

// Shutter is a DigitalOut with asymmetric open/close mechanical
// delays: Open(t)/Close(t) are specified in the logical time the
// shutter should physically reach that state, and are rewritten
// earlier by the relevant delay (spec.md §3, SPEC_FULL.md §D.2).
type Shutter struct {
	*DigitalOut
	OpenDelay  float64
	CloseDelay float64
	OpenState  int // 0 or 1: which DigitalOut level means "open"

	actual map[float64]shutterActual
}

// NewShutter constructs a Shutter. openState must be 0 or 1.
func NewShutter(ctx *registry.Context, name string, parent *IntermediateDevice, connection string, openDelay, closeDelay float64, openState int) (*Shutter, error) {
	if openState != 0 && openState != 1 {
		return nil, labcerr.New(labcerr.InvalidName, "device.NewShutter",
			"open_state must be 0 or 1", "name", name, "open_state", openState)
	}
	d, err := newDigitalOutKind(ctx, "device.NewShutter", KindShutter, name, parent, connection, openState == 0)
	if err != nil {
		return nil, err
	}
	return &Shutter{
		DigitalOut: d,
		OpenDelay:  openDelay,
		CloseDelay: closeDelay,
		OpenState:  openState,
		actual:     map[float64]shutterActual{},
	}, nil
}

func delayedTime(t, delay float64) float64 {
	if t >= delay {
		return t - delay
	}
	return 0
}

// Open commands the shutter to be physically open by time t.
func (s *Shutter) Open(startCalled bool, t0, t float64, sink diag.Sink) error {
	tCalc := delayedTime(t, s.OpenDelay)
	s.actual[t] = shutterActual{Time: tCalc, Instruction: 1}
	return s.Enable(startCalled, t0, tCalc, sink)
}

// Close commands the shutter to be physically closed by time t.
func (s *Shutter) Close(startCalled bool, t0, t float64, sink diag.Sink) error {
	tCalc := delayedTime(t, s.CloseDelay)
	s.actual[t] = shutterActual{Time: tCalc, Instruction: 0}
	return s.Disable(startCalled, t0, tCalc, sink)
}

// CheckRecovery emits ShutterRecovery-flavoured warnings when a
// requested transition can't physically complete before the next one
// starts, mirroring labscript.py's Shutter.get_change_times check.
func (s *Shutter) CheckRecovery(sink diag.Sink) {
	if len(s.actual) < 2 || sink == nil {
		return
	}
	times := make([]float64, 0, len(s.actual))
	for t := range s.actual {
		times = append(times, t)
	}
	sort.Float64s(times)
	for i := 0; i < len(times)-1; i++ {
		cur := s.actual[times[i]]
		next := s.actual[times[i+1]]
		if cur.Instruction == next.Instruction {
			continue
		}
		if next.Time < cur.Time {
			sink.Warn(diag.Notable, "device.Shutter.CheckRecovery",
				"shutter commanded to transition before it can physically move")
		}
	}
}
