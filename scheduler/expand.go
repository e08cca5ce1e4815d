package scheduler

import (
	"math"

	"github.com/example/labc/device"
	"github.com/example/labc/labcerr"
)

// cursor tracks, per clockline, the index of its next unused change
// time so expandChangeTimes can determine which clocklines are
// "enabled" at the current global change time.
type cursor struct {
	times []float64
	pos   int
}

func (c *cursor) peek() (float64, bool) {
	if c.pos >= len(c.times) {
		return 0, false
	}
	return c.times[c.pos], true
}

func (c *cursor) advance() { c.pos++ }

// expandChangeTimes implements spec.md §4.4.2: walks the global
// change-time list and emits the clock program plus per-clockline
// tick arrays.
func expandChangeTimes(pc *device.Pseudoclock, all []float64, perLine map[*device.ClockLine][]float64, triggerTimes []float64, stopTime float64) (Program, map[*device.ClockLine][]float64, error) {
	cursors := map[*device.ClockLine]*cursor{}
	ticks := map[*device.ClockLine][]float64{}
	for cl, times := range perLine {
		cursors[cl] = &cursor{times: times}
		ticks[cl] = nil
	}
	nonInitialTriggers := map[float64]bool{}
	for i, t := range triggerTimes {
		if i > 0 {
			nonInitialTriggers[device.QuantiseToPseudoclock(t, pc.ClockResolution)] = true
		}
	}

	var prog Program
	qStop := device.QuantiseToPseudoclock(stopTime, pc.ClockResolution)

	for i := 0; i < len(all); i++ {
		ti := all[i]
		last := i == len(all)-1

		if nonInitialTriggers[ti] {
			prog = append(prog, Segment{IsWait: true})
		}

		enabled := enabledClockLines(pc, cursors, ti)
		for _, cl := range enabled {
			cursors[cl].advance()
			ticks[cl] = append(ticks[cl], ti)
		}

		if last {
			if qStop < ti-eps {
				return nil, nil, labcerr.New(labcerr.InstructionsAfterStop, "scheduler.expandChangeTimes",
					"stop_time precedes final change time", "stop_time", qStop, "last", ti)
			}
			allLines := pc.ClockLines()
			prog = append(prog, Segment{
				Start: ti, Reps: 1, Step: 10 / pc.ClockLimit, Enabled: allLines,
			})
			break
		}

		tNext := all[i+1]
		segs, extraTicks, err := emitInterval(pc, enabled, ti, tNext)
		if err != nil {
			return nil, nil, err
		}
		prog = append(prog, segs...)
		for cl, ts := range extraTicks {
			ticks[cl] = append(ticks[cl], ts...)
		}
	}
	return prog, ticks, nil
}

func enabledClockLines(pc *device.Pseudoclock, cursors map[*device.ClockLine]*cursor, ti float64) []*device.ClockLine {
	var out []*device.ClockLine
	for _, cl := range pc.ClockLines() {
		if v, ok := cursors[cl].peek(); ok && v == ti {
			out = append(out, cl)
		}
	}
	return out
}

// activeRamps returns, among enabled, the subset with an active ramp
// at ti plus the maximum clock_rate among them (spec.md §4.4.2).
func activeRamps(enabled []*device.ClockLine, ti float64) (looping []*device.ClockLine, maxRate float64) {
	for _, cl := range enabled {
		best := 0.0
		found := false
		for _, out := range cl.Outputs() {
			rec, ok := out.Timeline().ActiveRampAt(ti)
			if !ok {
				continue
			}
			found = true
			if rec.ClockRate > best {
				best = rec.ClockRate
			}
		}
		if found {
			looping = append(looping, cl)
			if best > maxRate {
				maxRate = best
			}
		}
	}
	return looping, maxRate
}

// emitInterval implements the body of spec.md §4.4.2's per-interval
// walk: computing max_rate, the tick count, and the exact 1/2/>=3
// tick tie-break segment emission.
func emitInterval(pc *device.Pseudoclock, enabled []*device.ClockLine, ti, tNext float64) (Program, map[*device.ClockLine][]float64, error) {
	looping, maxRate := activeRamps(enabled, ti)
	extra := map[*device.ClockLine][]float64{}

	if maxRate <= 0 {
		return Program{{Start: ti, Reps: 1, Step: tNext - ti, Enabled: enabled}}, extra, nil
	}

	localLimit := pc.ClockLimit
	for _, cl := range looping {
		if cl.ClockLimit < localLimit {
			localLimit = cl.ClockLimit
		}
	}
	if maxRate > localLimit+eps {
		return nil, nil, labcerr.New(labcerr.ClockLimitExceeded, "scheduler.emitInterval",
			"ramp rate exceeds local clock limit", "rate", maxRate, "limit", localLimit)
	}

	period := device.QuantiseToPseudoclock(1/maxRate, pc.ClockResolution)
	if period <= 0 {
		period = 1 / maxRate
	}
	gap := tNext - ti
	nFull := int(math.Floor(gap/period + 1e-9))
	remainder := gap - float64(nFull)*period
	nTicks := nFull
	if remainder >= 1/localLimit-eps {
		nTicks++
	}
	if nTicks < 1 {
		nTicks = 1
	}

	lastTick := ti + float64(nTicks-1)*period

	// k=0 (the tick at ti itself) was already recorded by the
	// unconditional "enabled" bookkeeping in expandChangeTimes; only
	// the subsequent ramp sub-ticks are new here.
	for _, cl := range looping {
		for k := 1; k < nTicks; k++ {
			extra[cl] = append(extra[cl], ti+float64(k)*period)
		}
	}

	switch {
	case nTicks == 1:
		return Program{{Start: ti, Reps: 1, Step: tNext - ti, Enabled: enabled}}, extra, nil
	case nTicks == 2:
		return Program{
			{Start: ti, Reps: 1, Step: period, Enabled: enabled},
			{Start: lastTick, Reps: 1, Step: tNext - lastTick, Enabled: looping},
		}, extra, nil
	default:
		return Program{
			{Start: ti, Reps: 1, Step: period, Enabled: enabled},
			{Start: ti + period, Reps: nTicks - 2, Step: period, Enabled: looping},
			{Start: lastTick, Reps: 1, Step: tNext - lastTick, Enabled: looping},
		}, extra, nil
	}
}
