// Package output implements sample materialisation (spec.md §4.5):
// expanding each output's symbolic instructions into a flat array of
// samples aligned to the tick array the scheduler produced for its
// clockline.
package output

import (
	"github.com/example/labc/device"
	"github.com/example/labc/instruction"
	"github.com/example/labc/waveform"
)

// Samples is one output's materialised raw_output array plus its
// dtype selection (spec.md §4.5).
type Samples struct {
	Digital bool
	Float64 []float64 // valid when !Digital
	Uint32  []uint32  // valid when Digital
}

// Materialize evaluates o's instructions at every tick in ticks,
// producing raw_output (spec.md §4.5).
func Materialize(o device.Output, ticks []float64) (*Samples, error) {
	tl := o.Timeline()
	groups := groupTicksByInstruction(tl, ticks)

	values := make([]float64, len(ticks))
	idx := 0
	for gi, g := range groups {
		var next *group
		if gi+1 < len(groups) {
			next = &groups[gi+1]
		}
		if err := fillGroup(tl, g, next, values[idx:idx+len(g.ticks)]); err != nil {
			return nil, err
		}
		idx += len(g.ticks)
	}

	s := &Samples{Digital: o.IsDigital()}
	if o.IsDigital() {
		s.Uint32 = make([]uint32, len(values))
		for i, v := range values {
			s.Uint32[i] = uint32(v)
		}
	} else {
		s.Float64 = values
	}
	return s, nil
}

type group struct {
	entry    instruction.Entry
	hasEntry bool
	ticks    []float64
}

// groupTicksByInstruction partitions ticks into contiguous runs that
// share the same active instruction (make_timeseries, spec.md §4.5).
func groupTicksByInstruction(tl *instruction.Timeline, ticks []float64) []group {
	var groups []group
	var cur *group
	for _, t := range ticks {
		entry, ok := tl.ActiveAt(t)
		if cur == nil || !sameEntry(cur.entry, entry) || cur.hasEntry != ok {
			groups = append(groups, group{entry: entry, hasEntry: ok})
			cur = &groups[len(groups)-1]
		}
		cur.ticks = append(cur.ticks, t)
	}
	return groups
}

func sameEntry(a, b instruction.Entry) bool {
	if a.IsRamp != b.IsRamp {
		return false
	}
	if a.IsRamp {
		return a.Ramp.InitialTime == b.Ramp.InitialTime
	}
	return a.Scalar == b.Scalar
}

func fillGroup(tl *instruction.Timeline, g group, next *group, out []float64) error {
	if !g.hasEntry {
		for i := range out {
			out[i] = 0
		}
		return nil
	}
	if !g.entry.IsRamp {
		for i := range out {
			out[i] = g.entry.Scalar
		}
		return nil
	}

	rec := g.entry.Ramp
	for i, t := range g.ticks {
		var boundary float64
		if i+1 < len(g.ticks) {
			boundary = g.ticks[i+1]
		} else if next != nil && len(next.ticks) > 0 {
			boundary = next.ticks[0]
		} else if len(g.ticks) >= 2 {
			boundary = t + (t - g.ticks[i-1])
		} else {
			boundary = t
		}
		mid := (t + boundary) / 2
		rel := mid - rec.InitialTime
		v := waveform.Evaluate(rec.Function, rel)
		if rec.Units != "" {
			converted, err := tl.Convert(rec.Units, v)
			if err != nil {
				return err
			}
			v = converted
		}
		if err := tl.CheckLimits(v); err != nil {
			return err
		}
		out[i] = v
	}
	return nil
}
