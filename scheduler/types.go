// Package scheduler implements the pseudoclock scheduler of spec.md
// §4.4: change-time collection, cross-clockline ramp-break injection,
// resolution quantisation, tick expansion and clock-program
// synthesis. This is the heart of the compiler.
package scheduler

import "github.com/example/labc/device"

// Segment is one entry of a clock program (spec.md §3): either the
// WAIT marker or a repetition-encoded tick run.
type Segment struct {
	IsWait  bool
	Start   float64
	Reps    int
	Step    float64
	Enabled []*device.ClockLine
}

// Program is the ordered clock program produced for one pseudoclock.
type Program []Segment

// Result is everything the scheduler produces for one pseudoclock:
// the clock program plus, per clockline, the flat list of tick times
// materialisation will sample against.
type Result struct {
	Program     Program
	TicksByLine map[*device.ClockLine][]float64
}
