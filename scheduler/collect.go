package scheduler

import (
	"sort"

	"github.com/example/labc/device"
	"github.com/example/labc/instruction"
	"github.com/example/labc/labcerr"
)

const eps = 1e-12

type changeSet map[float64]bool

func (s changeSet) add(t float64) { s[t] = true }

func (s changeSet) sorted() []float64 {
	out := make([]float64, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Float64s(out)
	return out
}

// collected holds the per-pseudoclock, per-clockline change-time
// bookkeeping assembled by collectChangeTimes (spec.md §4.4.1).
type collected struct {
	clockLines   []*device.ClockLine
	linesTimes   map[*device.ClockLine]changeSet
	lineRamps    map[*device.ClockLine][]instruction.Interval
	allTimes     changeSet
}

// collectChangeTimes implements spec.md §4.4.1 steps 1-5.
func collectChangeTimes(pc *device.Pseudoclock, stopTime float64, triggerTimes []float64) *collected {
	res := &collected{
		clockLines: pc.ClockLines(),
		linesTimes: map[*device.ClockLine]changeSet{},
		lineRamps:  map[*device.ClockLine][]instruction.Interval{},
		allTimes:   changeSet{},
	}
	q := func(t float64) float64 { return device.QuantiseToPseudoclock(t, pc.ClockResolution) }

	for _, cl := range res.clockLines {
		set := changeSet{}
		for _, out := range cl.Outputs() {
			for _, t := range out.Timeline().ChangeTimes() {
				qt := q(t)
				set.add(qt)
				res.allTimes.add(qt)
			}
			for _, iv := range out.Timeline().RampIntervals() {
				res.lineRamps[cl] = append(res.lineRamps[cl], instruction.Interval{Start: q(iv.Start), End: q(iv.End)})
			}
		}
		res.linesTimes[cl] = set
	}

	res.allTimes.add(q(stopTime))
	for _, t := range triggerTimes {
		res.allTimes.add(q(t))
	}

	// Step 4: cross-clockline ramp break.
	all := res.allTimes.sorted()
	for _, cl := range res.clockLines {
		set := res.linesTimes[cl]
		for _, iv := range res.lineRamps[cl] {
			for _, t := range all {
				if t > iv.Start && t < iv.End {
					set.add(t)
				}
			}
		}
	}
	return res
}

// finalizeAndCheck implements spec.md §4.4.1 steps 6-7: appends
// stop_time to every clockline list, enforces the stop-gap and
// minimum-gap invariants, and returns the sorted global and
// per-clockline change time slices.
func finalizeAndCheck(pc *device.Pseudoclock, c *collected, stopTime float64) (all []float64, perLine map[*device.ClockLine][]float64, err error) {
	q := device.QuantiseToPseudoclock(stopTime, pc.ClockResolution)
	perLine = map[*device.ClockLine][]float64{}

	for _, cl := range c.clockLines {
		set := c.linesTimes[cl]
		set.add(q)
		times := set.sorted()
		if len(times) >= 2 {
			gap := times[len(times)-1] - times[len(times)-2]
			if gap+eps < 1/cl.ClockLimit {
				return nil, nil, labcerr.New(labcerr.StopTimeTooClose, "scheduler.finalizeAndCheck",
					"gap to stop_time smaller than 1/clock_limit", "clockline", cl.DeviceName(), "gap", gap)
			}
		}
		for i := 1; i < len(times); i++ {
			gap := times[i] - times[i-1]
			if gap+eps < 1/cl.ClockLimit {
				return nil, nil, labcerr.New(labcerr.ClockLimitExceeded, "scheduler.finalizeAndCheck",
					"adjacent change times violate clockline clock_limit", "clockline", cl.DeviceName(), "gap", gap)
			}
		}
		perLine[cl] = times
	}

	all = c.allTimes.sorted()
	if len(all) > 0 && all[len(all)-1] > q+eps {
		return nil, nil, labcerr.New(labcerr.InstructionsAfterStop, "scheduler.finalizeAndCheck",
			"an instruction falls after stop_time", "last", all[len(all)-1], "stop_time", q)
	}
	for i := 1; i < len(all); i++ {
		gap := all[i] - all[i-1]
		if gap+eps < 1/pc.ClockLimit {
			return nil, nil, labcerr.New(labcerr.ClockLimitExceeded, "scheduler.finalizeAndCheck",
				"adjacent change times violate pseudoclock clock_limit", "gap", gap)
		}
	}
	return all, perLine, nil
}
