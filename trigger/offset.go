package trigger

import "github.com/example/labc/device"

// countPriorResumes returns how many of trigger_times (including the
// initial trigger) occur at or before t — the number of times this
// secondary pseudoclock has lost trigger_delay of dead time by t.
func countPriorResumes(triggerTimes []float64, t float64) int {
	n := 0
	for _, tt := range triggerTimes {
		if tt <= t {
			n++
		}
	}
	return n
}

// OffsetSecondary implements spec.md §4.6's post-collection offset:
// t_effective = t_original - trigger_times[0] - n_prior_triggers *
// trigger_delay, re-quantised, applied to every output's timeline and
// to the pseudoclock's own stop_time.
func OffsetSecondary(pc *device.Pseudoclock, stopTime float64) float64 {
	if len(pc.TriggerTimes) == 0 {
		return stopTime
	}
	t0 := pc.TriggerTimes[0]
	offset := func(t float64) float64 {
		n := countPriorResumes(pc.TriggerTimes, t)
		return t - t0 - float64(n)*pc.TriggerDelay
	}
	for _, cl := range pc.ClockLines() {
		for _, o := range cl.Outputs() {
			o.Timeline().Rewrite(offset)
		}
	}
	return offset(stopTime)
}
