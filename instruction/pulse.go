package instruction

import (
	"github.com/example/labc/diag"
)

// PulseStep is one state transition produced by ExpandPulseTrain.
type PulseStep struct {
	Time  float64
	High  bool
}

// ExpandPulseTrain implements the original's repeat_pulse_sequence
// (SPEC_FULL.md §D.3): starting at t, repeat the given digital
// pulse_sequence (each pair an offset-within-period plus level) every
// period, for as many whole periods fit in duration. A trailing
// remainder shorter than one full period is dropped with a mild
// warning rather than emitting a truncated final pulse (the decided
// open-question policy from spec.md §9).
func ExpandPulseTrain(t, duration, period float64, sequence []PulseStep, sink diag.Sink) []PulseStep {
	if period <= 0 || len(sequence) == 0 {
		return nil
	}
	nPeriods := int(duration / period)
	remainder := duration - float64(nPeriods)*period
	if remainder > 0 && sink != nil {
		sink.Warn(diag.Mild, "instruction.ExpandPulseTrain",
			"duration is not a whole number of periods; trailing partial period dropped")
	}
	out := make([]PulseStep, 0, nPeriods*len(sequence))
	for i := 0; i < nPeriods; i++ {
		base := t + float64(i)*period
		for _, step := range sequence {
			out = append(out, PulseStep{Time: Round10(base + step.Time), High: step.High})
		}
	}
	return out
}
