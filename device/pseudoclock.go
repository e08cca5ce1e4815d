package device

import "github.com/example/labc/registry"

// Pseudoclock is the hardware clock-tick generator of spec.md §3. A
// master pseudoclock has no parent and starts at t=0; a secondary
// pseudoclock is parented under a Trigger and starts at
// InitialTriggerTime, losing TriggerDelay on every resume.
type Pseudoclock struct {
	*Base

	ClockLimit             float64 // max Hz
	ClockResolution        float64 // quantum, seconds
	TriggerDelay           float64
	TriggerMinimumDuration float64
	WaitDelay              float64

	IsMaster           bool
	InitialTriggerTime float64

	// TriggerTimes accumulates every time this pseudoclock was
	// triggered/resumed, populated by the trigger package during
	// compilation.
	TriggerTimes []float64

	StopTime *float64
}

// NewMasterPseudoclock constructs the single master pseudoclock: no
// parent, starts at t=0.
func NewMasterPseudoclock(ctx *registry.Context, name string, clockLimit, clockResolution, triggerMinDuration, waitDelay float64) (*Pseudoclock, error) {
	b, err := newBase(ctx, "device.NewMasterPseudoclock", KindPseudoclock, name, nil, "")
	if err != nil {
		return nil, err
	}
	pc := &Pseudoclock{
		Base:                   b,
		ClockLimit:             clockLimit,
		ClockResolution:        clockResolution,
		TriggerMinimumDuration: triggerMinDuration,
		WaitDelay:              waitDelay,
		IsMaster:               true,
	}
	attach(ctx, pc, b)
	return pc, nil
}

// NewSecondaryPseudoclock constructs a pseudoclock triggered by a
// parent Trigger device (spec.md §4.1: Trigger⊃{PseudoclockDevice}).
func NewSecondaryPseudoclock(ctx *registry.Context, name string, parent *Trigger, connection string, clockLimit, clockResolution, triggerDelay, triggerMinDuration, waitDelay, initialTriggerTime float64) (*Pseudoclock, error) {
	b, err := newBase(ctx, "device.NewSecondaryPseudoclock", KindPseudoclock, name, parent, connection)
	if err != nil {
		return nil, err
	}
	pc := &Pseudoclock{
		Base:                   b,
		ClockLimit:             clockLimit,
		ClockResolution:        clockResolution,
		TriggerDelay:           triggerDelay,
		TriggerMinimumDuration: triggerMinDuration,
		WaitDelay:              waitDelay,
		IsMaster:               false,
		InitialTriggerTime:     initialTriggerTime,
	}
	attach(ctx, pc, b)
	return pc, nil
}

// ClockLines returns this pseudoclock's child clocklines in insertion
// order (spec.md §5: "ordering of iteration over clocklines is
// insertion order of the parent pseudoclock").
func (pc *Pseudoclock) ClockLines() []*ClockLine {
	var out []*ClockLine
	for _, c := range pc.Children() {
		if cl, ok := c.(*ClockLine); ok {
			out = append(out, cl)
		}
	}
	return out
}

// T0 returns the earliest time an instruction may be added to a
// descendant of this pseudoclock (spec.md §4.2).
func (pc *Pseudoclock) T0() float64 {
	if pc.IsMaster {
		return 0
	}
	if len(pc.TriggerTimes) == 0 {
		return pc.InitialTriggerTime + pc.TriggerDelay
	}
	return pc.TriggerTimes[0] + pc.TriggerDelay
}
