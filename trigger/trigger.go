// Package trigger implements the master/secondary triggering protocol
// of spec.md §4.6: asserting secondary pseudoclock triggers and
// rewriting secondary instructions onto their post-trigger timeline.
// The wait monitor is not pulsed by this package or any other; its
// only effect on timing is that compiler.Start lengthens
// trigger_duration to its minimum pulse width.
package trigger

import (
	"github.com/example/labc/device"
	"github.com/example/labc/diag"
	"github.com/example/labc/registry"
)

// collectTriggers walks every clockline/intermediate-device/output
// reachable from master and returns every Trigger output found, in
// discovery order.
func collectTriggers(master *device.Pseudoclock) []*device.Trigger {
	var out []*device.Trigger
	for _, cl := range master.ClockLines() {
		for _, id := range cl.IntermediateDevices() {
			for _, o := range id.Outputs() {
				if tr, ok := o.(*device.Trigger); ok {
					out = append(out, tr)
				}
			}
		}
	}
	return out
}

// CollectSecondaries returns the Pseudoclocks parented under any
// Trigger output reachable from master, in discovery order.
func CollectSecondaries(master *device.Pseudoclock) []*device.Pseudoclock {
	var out []*device.Pseudoclock
	for _, tr := range collectTriggers(master) {
		out = append(out, tr.TriggeredPseudoclocks()...)
	}
	return out
}

// TriggerAll implements trigger_all_pseudoclocks (spec.md §4.6):
// every Trigger device feeding a secondary is pulsed (enable(t),
// disable(t+trigger_duration)) so the pulse is a real instruction on
// its own timeline, the time by which every secondary is ready to
// resume is computed, and the time by which every device is
// guaranteed ready again is returned.
func TriggerAll(ctx *registry.Context, master *device.Pseudoclock, secondaries []*device.Pseudoclock, t float64, isInitial bool, sink diag.Sink) (float64, error) {
	maxSecondaryDelay := 0.0
	for _, s := range secondaries {
		s.TriggerTimes = append(s.TriggerTimes, t)
		if s.TriggerDelay > maxSecondaryDelay {
			maxSecondaryDelay = s.TriggerDelay
		}
	}

	t0 := master.T0()
	for _, tr := range collectTriggers(master) {
		if len(tr.TriggeredPseudoclocks()) == 0 {
			continue
		}
		if err := tr.Enable(ctx.StartCalled, t0, t, sink); err != nil {
			return 0, err
		}
		if err := tr.Disable(ctx.StartCalled, t0, t+ctx.TriggerDuration, sink); err != nil {
			return 0, err
		}
	}

	waitDelay := ctx.WaitDelay
	if isInitial {
		waitDelay = 0
	}

	masterPeriod := 0.0
	if master.ClockLimit > 0 {
		masterPeriod = 1 / master.ClockLimit
	}

	ready := ctx.TriggerDuration + masterPeriod
	if maxSecondaryDelay > ready {
		ready = maxSecondaryDelay
	}
	return ready + waitDelay, nil
}

// Wait implements spec.md §4.6's wait(): records the wait table entry
// and triggers every secondary pseudoclock at t.
func Wait(ctx *registry.Context, master *device.Pseudoclock, secondaries []*device.Pseudoclock, label string, t, timeout float64, sink diag.Sink) (float64, error) {
	if err := ctx.AddWait(label, t, timeout); err != nil {
		return 0, err
	}
	return TriggerAll(ctx, master, secondaries, t, false, sink)
}
