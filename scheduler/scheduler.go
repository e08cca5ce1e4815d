package scheduler

import "github.com/example/labc/device"

// Compile runs the full scheduling pass for one pseudoclock: change
// time collection (§4.4.1) followed by tick expansion and clock
// program synthesis (§4.4.2).
func Compile(pc *device.Pseudoclock, stopTime float64, triggerTimes []float64) (*Result, error) {
	collected := collectChangeTimes(pc, stopTime, triggerTimes)
	all, perLine, err := finalizeAndCheck(pc, collected, stopTime)
	if err != nil {
		return nil, err
	}
	prog, ticks, err := expandChangeTimes(pc, all, perLine, triggerTimes, stopTime)
	if err != nil {
		return nil, err
	}
	return &Result{Program: prog, TicksByLine: ticks}, nil
}
