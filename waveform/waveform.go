// Package waveform implements the pure functions of relative time
// used to fill ramp instructions (spec.md §4, §9). Every waveform is
// a tagged value evaluated through a dispatch table, never a bare
// closure, so its parameters remain introspectable by the scheduler
// and by diagnostics.
package waveform

import "math"

// Kind tags which waveform a Func evaluates.
type Kind int

const (
	KindRamp Kind = iota
	KindSine
	KindSineSquared
	KindQuarticSine
	KindExpByAsymptote
	KindExpByTau
	KindPiecewiseAccel
	KindSquareWave
	KindPulseTrain
	KindCustom
)

// Func is a tagged waveform value. Exactly the fields relevant to
// Kind are meaningful; Evaluate dispatches on Kind.
type Func struct {
	Kind Kind

	// Ramp / shared linear parameters.
	Initial  float64
	Final    float64
	Duration float64

	// Sine / SineSquared / QuarticSine / SquareWave.
	Frequency float64
	Amplitude float64
	Phase     float64 // radians
	Offset    float64

	// ExpByAsymptote: value(t) = Asymptote - (Asymptote-Initial)*exp(-t/Tau).
	Asymptote float64
	Tau       float64

	// ExpByTau reuses Initial, Final, Tau: decays from Initial toward
	// Final with time constant Tau.

	// PiecewiseAccel: smoothstep ramp (3f^2 - 2f^3 of the elapsed
	// fraction f) from Initial to Final over Duration, i.e. a parabolic
	// velocity profile that is zero at both ends, sampled as position.

	// SquareWave: DutyCycle is the fraction of each Frequency-period
	// spent at (Offset+Amplitude) before falling to Offset; a
	// non-positive DutyCycle is treated as 0.5.
	DutyCycle float64

	// PulseTrain: a repeating (High, Low) pair, High seconds at
	// Amplitude+Offset then Low seconds at Offset, looping for
	// Duration.
	High float64
	Low  float64

	// Custom evaluates CustomFn directly; CustomName is carried
	// alongside it as a normal struct field so the value stays
	// introspectable.
	CustomName string
	CustomFn   func(tRel float64) float64
}

// IsConstant reports whether this ramp, as parameterised, never
// actually changes value — used to emit the "constant ramp collapsed"
// warning (spec.md §7). The ramp itself is still recorded and
// scheduled as usual.
func (f Func) IsConstant() bool {
	switch f.Kind {
	case KindRamp:
		return f.Initial == f.Final
	case KindExpByAsymptote:
		return f.Initial == f.Asymptote
	case KindExpByTau:
		return f.Initial == f.Final
	default:
		return false
	}
}

// Evaluate returns the waveform's value at tRel seconds relative to
// the instruction's initial_time.
func Evaluate(f Func, tRel float64) float64 {
	switch f.Kind {
	case KindRamp:
		if f.Duration <= 0 {
			return f.Final
		}
		frac := tRel / f.Duration
		return f.Initial + (f.Final-f.Initial)*frac
	case KindSine:
		return f.Offset + f.Amplitude*math.Sin(2*math.Pi*f.Frequency*tRel+f.Phase)
	case KindSineSquared:
		s := math.Sin(2*math.Pi*f.Frequency*tRel + f.Phase)
		return f.Offset + f.Amplitude*s*s
	case KindQuarticSine:
		s := math.Sin(2*math.Pi*f.Frequency*tRel + f.Phase)
		s2 := s * s
		return f.Offset + f.Amplitude*s2*s2
	case KindExpByAsymptote:
		if f.Tau <= 0 {
			return f.Asymptote
		}
		return f.Asymptote - (f.Asymptote-f.Initial)*math.Exp(-tRel/f.Tau)
	case KindExpByTau:
		if f.Tau <= 0 {
			return f.Final
		}
		return f.Final + (f.Initial-f.Final)*math.Exp(-tRel/f.Tau)
	case KindPiecewiseAccel:
		if f.Duration <= 0 {
			return f.Final
		}
		frac := tRel / f.Duration
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		// Smoothstep-shaped position profile: zero velocity at both
		// ends, with acceleration falling linearly through zero at the
		// midpoint.
		shaped := 3*frac*frac - 2*frac*frac*frac
		return f.Initial + (f.Final-f.Initial)*shaped
	case KindSquareWave:
		if f.Frequency <= 0 {
			return f.Offset
		}
		period := 1 / f.Frequency
		phaseTime := math.Mod(tRel, period)
		if phaseTime < 0 {
			phaseTime += period
		}
		duty := f.DutyCycle
		if duty <= 0 {
			duty = 0.5
		}
		if phaseTime < duty*period {
			return f.Offset + f.Amplitude
		}
		return f.Offset
	case KindPulseTrain:
		period := f.High + f.Low
		if period <= 0 {
			return f.Offset
		}
		phaseTime := math.Mod(tRel, period)
		if phaseTime < 0 {
			phaseTime += period
		}
		if phaseTime < f.High {
			return f.Offset + f.Amplitude
		}
		return f.Offset
	case KindCustom:
		if f.CustomFn == nil {
			return 0
		}
		return f.CustomFn(tRel)
	default:
		return 0
	}
}
