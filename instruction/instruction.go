// Package instruction implements the per-output instruction model of
// spec.md §4.2: a time-indexed map of scalar values or ramp records,
// with the validation and ramp-limits bookkeeping the spec requires.
package instruction

import (
	"math"
	"sort"

	"github.com/example/labc/diag"
	"github.com/example/labc/labcerr"
	"github.com/example/labc/unit"
	"github.com/example/labc/waveform"
)

// Round10 rounds t to the nearest 1e-10 second, the single rounding
// policy applied to every user-supplied time on entry (spec.md §9).
func Round10(t float64) float64 {
	const q = 1e10
	return math.Round(t*q) / q
}

// Interval is a closed [Start,End] ramp span, used for ramp_limits
// overlap checks and by the scheduler's ramp handling.
type Interval struct {
	Start float64
	End   float64
}

// Record is a ramp instruction (spec.md §3).
type Record struct {
	Function    waveform.Func
	Description string
	InitialTime float64
	EndTime     float64
	ClockRate   float64
	Units       string
}

// Entry is either a scalar base-unit value or a ramp Record.
type Entry struct {
	IsRamp bool
	Scalar float64
	Ramp   Record
}

// Limits is an optional (min,max) inclusive range for scalar and
// ramp-sampled values.
type Limits struct {
	Min, Max float64
	Set      bool
}

// Timeline is one Output's instruction map plus its ramp_limits.
type Timeline struct {
	entries         map[float64]Entry
	rampLimits      []Interval
	limits          Limits
	ramplingAllowed bool
	calibration     unit.Calibration
}

// NewTimeline constructs an empty Timeline. ramplingAllowed mirrors
// the owning clockline's ramping_allowed flag (spec.md §4.2).
func NewTimeline(limits Limits, ramplingAllowed bool, cal unit.Calibration) *Timeline {
	return &Timeline{
		entries:         map[float64]Entry{},
		limits:          limits,
		ramplingAllowed: ramplingAllowed,
		calibration:     cal,
	}
}

// Convert applies this timeline's calibration to v, expressed in
// units, returning the base-unit value. Exported for the output
// package's sample materialisation pass.
func (tl *Timeline) Convert(units string, v float64) (float64, error) {
	return tl.convert(v, units)
}

// CheckLimits fails OutOfRange if v is outside this timeline's
// configured (min,max), when set. Exported for the output package.
func (tl *Timeline) CheckLimits(v float64) error {
	return tl.checkLimits(v)
}

func (tl *Timeline) convert(v float64, units string) (float64, error) {
	if units == "" {
		return v, nil
	}
	if tl.calibration == nil {
		return 0, labcerr.New(labcerr.UnknownUnits, "instruction.convert",
			"units given but output has no calibration", "units", units)
	}
	return tl.calibration.ToBase(units, v)
}

func (tl *Timeline) checkLimits(v float64) error {
	if !tl.limits.Set {
		return nil
	}
	if v < tl.limits.Min || v > tl.limits.Max {
		return labcerr.New(labcerr.OutOfRange, "instruction.checkLimits",
			"value outside configured limits", "value", v, "min", tl.limits.Min, "max", tl.limits.Max)
	}
	return nil
}

// AddScalar adds a constant-value instruction at time t (spec.md
// §4.2). startCalled and t0 implement the NotStarted/TooEarly checks;
// sink receives the overwrite warning, if any.
func (tl *Timeline) AddScalar(startCalled bool, t0, t, v float64, units string, sink diag.Sink) error {
	const op = "instruction.AddScalar"
	if !startCalled {
		return labcerr.New(labcerr.NotStarted, op, "start() has not been called")
	}
	t = Round10(t)
	if t < t0 {
		return labcerr.New(labcerr.TooEarly, op, "instruction precedes t0", "t", t, "t0", t0)
	}
	converted, err := tl.convert(v, units)
	if err != nil {
		return err
	}
	if err := tl.checkLimits(converted); err != nil {
		return err
	}
	if err := tl.checkRampOverlap(t, t); err != nil {
		return err
	}
	tl.overwriteWarn(t, sink, op)
	tl.entries[t] = Entry{Scalar: converted}
	return nil
}

// AddRamp adds a ramp record spanning [t,end_time] (spec.md §4.2).
func (tl *Timeline) AddRamp(startCalled bool, t0 float64, rec Record, sink diag.Sink) error {
	const op = "instruction.AddRamp"
	if !startCalled {
		return labcerr.New(labcerr.NotStarted, op, "start() has not been called")
	}
	t := Round10(rec.InitialTime)
	end := Round10(rec.EndTime)
	rec.InitialTime = t
	rec.EndTime = end
	if t < t0 {
		return labcerr.New(labcerr.TooEarly, op, "instruction precedes t0", "t", t, "t0", t0)
	}
	if !tl.ramplingAllowed {
		return labcerr.New(labcerr.NoRamping, op, "clockline does not allow ramping")
	}
	if t > end {
		return labcerr.New(labcerr.NegativeDuration, op, "end_time precedes start time", "start", t, "end", end)
	}
	if rec.ClockRate == 0 {
		return labcerr.New(labcerr.BadRate, op, "clock_rate must be nonzero")
	}
	if err := tl.checkRampOverlap(t, end); err != nil {
		return err
	}
	if rec.Function.IsConstant() && sink != nil {
		sink.Warn(diag.Mild, op, "ramp collapsed to a constant value")
	}
	if rec.Units != "" {
		// Validate the unit name eagerly so a bad unit fails at
		// authoring time rather than during sample materialisation.
		if _, err := tl.convert(0, rec.Units); err != nil {
			return err
		}
	}
	tl.overwriteWarn(t, sink, op)
	tl.entries[t] = Entry{IsRamp: true, Ramp: rec}
	tl.rampLimits = append(tl.rampLimits, Interval{Start: t, End: end})
	return nil
}

func (tl *Timeline) overwriteWarn(t float64, sink diag.Sink, op string) {
	if _, exists := tl.entries[t]; exists && sink != nil {
		sink.Warn(diag.Mild, op, "instruction already exists at this time, overwriting")
	}
}

// checkRampOverlap fails RampOverlap if [s,e] strictly interior-overlaps
// any existing ramp_limits interval (spec.md §4.2).
func (tl *Timeline) checkRampOverlap(s, e float64) error {
	for _, iv := range tl.rampLimits {
		if strictlyInterior(s, iv) || strictlyInterior(e, iv) {
			return labcerr.New(labcerr.RampOverlap, "instruction.checkRampOverlap",
				"instruction falls inside an existing ramp", "start", s, "end", e, "ramp_start", iv.Start, "ramp_end", iv.End)
		}
	}
	return nil
}

func strictlyInterior(t float64, iv Interval) bool {
	return t > iv.Start && t < iv.End
}

// ChangeTimes returns every instruction time, sorted ascending.
func (tl *Timeline) ChangeTimes() []float64 {
	out := make([]float64, 0, len(tl.entries))
	for t := range tl.entries {
		out = append(out, t)
	}
	sort.Float64s(out)
	return out
}

// RampIntervals returns every ramp's [start,end], in the order added.
func (tl *Timeline) RampIntervals() []Interval {
	return append([]Interval(nil), tl.rampLimits...)
}

// ActiveAt returns the instruction in effect at time t: the entry
// with the latest time <= t, and whether any such entry exists.
func (tl *Timeline) ActiveAt(t float64) (Entry, bool) {
	best, ok := 0.0, false
	var bestEntry Entry
	for et, entry := range tl.entries {
		if et <= t && (!ok || et > best) {
			best, ok = et, true
			bestEntry = entry
		}
	}
	return bestEntry, ok
}

// At returns the instruction exactly at time t, if any.
func (tl *Timeline) At(t float64) (Entry, bool) {
	e, ok := tl.entries[t]
	return e, ok
}

// Len reports how many instructions are on this timeline.
func (tl *Timeline) Len() int { return len(tl.entries) }

// Rewrite replaces every instruction and ramp-limit time t with
// offset(t), re-rounding to 10⁻¹⁰ s. Used by the trigger package to
// compress a secondary pseudoclock's instructions onto its own
// post-offset timeline (spec.md §4.6).
func (tl *Timeline) Rewrite(offset func(t float64) float64) {
	newEntries := make(map[float64]Entry, len(tl.entries))
	for t, e := range tl.entries {
		nt := Round10(offset(t))
		if e.IsRamp {
			e.Ramp.InitialTime = Round10(offset(e.Ramp.InitialTime))
			e.Ramp.EndTime = Round10(offset(e.Ramp.EndTime))
		}
		newEntries[nt] = e
	}
	tl.entries = newEntries

	newRamps := make([]Interval, len(tl.rampLimits))
	for i, iv := range tl.rampLimits {
		newRamps[i] = Interval{Start: Round10(offset(iv.Start)), End: Round10(offset(iv.End))}
	}
	tl.rampLimits = newRamps
}

// ActiveRampAt returns the ramp Record in effect at time t — the
// latest instruction with time <= t, provided it is a ramp and t is
// strictly before its end_time — and whether one was found. Used by
// the scheduler to determine which clocklines are "looping" at a
// given change time (spec.md §4.4.2).
func (tl *Timeline) ActiveRampAt(t float64) (Record, bool) {
	e, ok := tl.ActiveAt(t)
	if !ok || !e.IsRamp {
		return Record{}, false
	}
	if t < e.Ramp.InitialTime || t >= e.Ramp.EndTime {
		return Record{}, false
	}
	return e.Ramp, true
}
