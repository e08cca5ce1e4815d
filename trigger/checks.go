package trigger

import (
	"github.com/example/labc/device"
	"github.com/example/labc/labcerr"
)

// DoChecks implements spec.md §4.6's do_checks(trigger_times) for one
// output: no ramp may span a trigger time; no instruction may fall in
// (trigger, trigger+trigger_delay]; no instruction may fall in
// [trigger - max(clock_limit_period, wait_delay), trigger).
func DoChecks(o device.Output, triggerTimes []float64, triggerDelay, clockLimitPeriod, waitDelay float64) error {
	tl := o.Timeline()
	exclusionBefore := clockLimitPeriod
	if waitDelay > exclusionBefore {
		exclusionBefore = waitDelay
	}

	for _, iv := range tl.RampIntervals() {
		for _, tt := range triggerTimes {
			if tt > iv.Start && tt < iv.End {
				return labcerr.New(labcerr.TriggerOverlap, "trigger.DoChecks",
					"ramp spans a trigger time", "output", o.DeviceName(), "trigger", tt, "ramp_start", iv.Start, "ramp_end", iv.End)
			}
		}
	}

	for _, t := range tl.ChangeTimes() {
		for _, tt := range triggerTimes {
			if t > tt && t <= tt+triggerDelay {
				return labcerr.New(labcerr.TriggerOverlap, "trigger.DoChecks",
					"instruction falls within post-trigger dead time", "output", o.DeviceName(), "time", t, "trigger", tt)
			}
			if t >= tt-exclusionBefore && t < tt {
				return labcerr.New(labcerr.TriggerOverlap, "trigger.DoChecks",
					"instruction falls within pre-trigger exclusion window", "output", o.DeviceName(), "time", t, "trigger", tt)
			}
		}
	}
	return nil
}
