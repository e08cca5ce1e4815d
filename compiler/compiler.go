// Package compiler implements the start/stop orchestration of
// spec.md §4.7, wiring the registry, device tree, scheduler, trigger
// protocol and output materialisation into a single compile pass.
package compiler

import (
	"strconv"

	"github.com/example/labc/device"
	"github.com/example/labc/diag"
	"github.com/example/labc/labcerr"
	"github.com/example/labc/output"
	"github.com/example/labc/registry"
	"github.com/example/labc/scheduler"
	"github.com/example/labc/trigger"
)

// Compiler ties together one compilation context and the diagnostics
// sink its passes report through.
type Compiler struct {
	Ctx  *registry.Context
	Diag diag.Sink
}

// New returns a Compiler over a fresh compilation context.
func New(sink diag.Sink) *Compiler {
	if sink == nil {
		sink = diag.NopSink{}
	}
	return &Compiler{Ctx: registry.New(), Diag: sink}
}

// Start implements spec.md §4.7's start(): locates the single master
// pseudoclock, computes trigger_duration and wait_delay, and fires
// the initial trigger.
func (c *Compiler) Start() (readyTime float64, err error) {
	master, err := c.findMaster()
	if err != nil {
		return 0, err
	}
	c.Ctx.MasterPseudoclock = master
	c.Ctx.Start()

	secondaries := trigger.CollectSecondaries(master)

	minClockLimit := master.ClockLimit
	maxSecondaryMinDuration := 0.0
	maxWaitDelay := 0.0
	for _, s := range secondaries {
		if s.ClockLimit < minClockLimit {
			minClockLimit = s.ClockLimit
		}
		if s.TriggerMinimumDuration > maxSecondaryMinDuration {
			maxSecondaryMinDuration = s.TriggerMinimumDuration
		}
		if s.WaitDelay > maxWaitDelay {
			maxWaitDelay = s.WaitDelay
		}
	}

	waitMonitorPulse := 0.0
	if wm, ok := c.findWaitMonitor(); ok {
		c.Ctx.WaitMonitor = wm
		if wm.MinimumPulseWidth > waitMonitorPulse {
			waitMonitorPulse = wm.MinimumPulseWidth
		}
	}

	triggerDuration := 2 / minClockLimit
	if maxSecondaryMinDuration > triggerDuration {
		triggerDuration = maxSecondaryMinDuration
	}
	if waitMonitorPulse > triggerDuration {
		triggerDuration = waitMonitorPulse
	}
	triggerDuration += 2 * master.ClockResolution

	c.Ctx.TriggerDuration = triggerDuration
	c.Ctx.WaitDelay = maxWaitDelay

	return trigger.TriggerAll(c.Ctx, master, secondaries, 0, true, c.Diag)
}

func (c *Compiler) findMaster() (*device.Pseudoclock, error) {
	const op = "compiler.findMaster"
	var master *device.Pseudoclock
	found := 0
	for _, d := range c.Ctx.Devices() {
		pc, ok := d.(*device.Pseudoclock)
		if !ok || !pc.IsMaster {
			continue
		}
		found++
		master = pc
	}
	switch {
	case found == 0:
		return nil, labcerr.New(labcerr.NoToplevelDevices, op, "no master pseudoclock declared")
	case found > 1:
		return nil, labcerr.New(labcerr.MultipleMasters, op, "more than one master pseudoclock declared")
	}
	return master, nil
}

// ensureInitialInstructions fills in a default-value instruction at
// t0 for every output of pc that has none, warning mildly (spec.md
// §7: "missing initial instruction"). Without this, an output whose
// first real instruction comes after t0 would leave its own
// clockline with no recorded change time at t0.
func ensureInitialInstructions(pc *device.Pseudoclock, sink diag.Sink) {
	t0 := pc.T0()
	for _, cl := range pc.ClockLines() {
		for _, o := range cl.Outputs() {
			if _, ok := o.Timeline().At(t0); ok {
				continue
			}
			def := 0.0
			if a, ok := o.(*device.AnalogOut); ok && a.DefaultValue != nil {
				def = *a.DefaultValue
			}
			sink.Warn(diag.Mild, "compiler.ensureInitialInstructions",
				"missing initial instruction on "+o.DeviceName()+", defaulting to "+formatFloat(def))
			// startCalled is always true here: ensureInitialInstructions
			// only runs after Stop(), which requires a prior Start().
			_ = o.Timeline().AddScalar(true, t0, t0, def, "", sink)
		}
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (c *Compiler) findWaitMonitor() (*device.WaitMonitor, bool) {
	for _, d := range c.Ctx.Devices() {
		if wm, ok := d.(*device.WaitMonitor); ok {
			return wm, true
		}
	}
	return nil, false
}

// Wait implements spec.md §4.6's wait(): records a wait table entry
// and triggers every secondary pseudoclock.
func (c *Compiler) Wait(label string, t, timeout float64) (float64, error) {
	master := c.Ctx.MasterPseudoclock.(*device.Pseudoclock)
	secondaries := trigger.CollectSecondaries(master)
	return trigger.Wait(c.Ctx, master, secondaries, label, t, timeout, c.Diag)
}

// CompiledOutput is one output's final materialised samples.
type CompiledOutput struct {
	Output  device.Output
	Samples *output.Samples
}

// CompiledPseudoclock is one pseudoclock's scheduling result.
type CompiledPseudoclock struct {
	Pseudoclock *device.Pseudoclock
	Program     scheduler.Program
}

// Compiled is the full result of a Stop() compile pass.
type Compiled struct {
	Pseudoclocks []CompiledPseudoclock
	Outputs      []CompiledOutput
}

// Stop implements spec.md §4.7's stop(t): sets stop_time on every
// pseudoclock, then for the master pseudoclock and (after offsetting)
// every secondary, runs do_checks, scheduling and materialisation.
func (c *Compiler) Stop(t float64) (*Compiled, error) {
	const op = "compiler.Stop"
	if err := c.Ctx.Stop(t); err != nil {
		return nil, err
	}
	master, ok := c.Ctx.MasterPseudoclock.(*device.Pseudoclock)
	if !ok {
		return nil, labcerr.New(labcerr.NoToplevelDevices, op, "start() was never called")
	}

	secondaries := trigger.CollectSecondaries(master)
	allPseudoclocks := append([]*device.Pseudoclock{master}, secondaries...)

	masterClockPeriod := 1 / master.ClockLimit
	for _, pc := range allPseudoclocks {
		for _, cl := range pc.ClockLines() {
			for _, o := range cl.Outputs() {
				if err := trigger.DoChecks(o, pc.TriggerTimes, pc.TriggerDelay, masterClockPeriod, c.Ctx.WaitDelay); err != nil {
					return nil, err
				}
			}
		}
	}

	for _, pc := range allPseudoclocks {
		ensureInitialInstructions(pc, c.Diag)
	}

	stopTime := t
	for _, s := range secondaries {
		stopTime2 := trigger.OffsetSecondary(s, t)
		s.StopTime = &stopTime2
	}
	master.StopTime = &stopTime

	for _, pc := range allPseudoclocks {
		st := t
		if pc.StopTime != nil {
			st = *pc.StopTime
		}
		for _, cl := range pc.ClockLines() {
			for _, o := range cl.Outputs() {
				if s, ok := o.(*device.Shutter); ok {
					s.CheckRecovery(c.Diag)
				}
			}
			for _, id := range cl.IntermediateDevices() {
				for _, child := range id.Children() {
					if a, ok := child.(*device.AnalogIn); ok {
						if err := a.Validate(st); err != nil {
							return nil, err
						}
					}
				}
			}
		}
	}

	result := &Compiled{}
	for _, pc := range allPseudoclocks {
		st := t
		if pc.StopTime != nil {
			st = *pc.StopTime
		}
		res, err := scheduler.Compile(pc, st, pc.TriggerTimes)
		if err != nil {
			return nil, err
		}
		result.Pseudoclocks = append(result.Pseudoclocks, CompiledPseudoclock{Pseudoclock: pc, Program: res.Program})

		for cl, ticks := range res.TicksByLine {
			for _, o := range cl.Outputs() {
				samples, err := output.Materialize(o, ticks)
				if err != nil {
					return nil, err
				}
				result.Outputs = append(result.Outputs, CompiledOutput{Output: o, Samples: samples})
			}
		}
	}
	return result, nil
}
