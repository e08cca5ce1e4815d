package instruction

import (
	"testing"

	"github.com/example/labc/diag"
)

func TestExpandPulseTrainDropsTrailingPartialPeriod(t *testing.T) {
	seq := []PulseStep{{Time: 0, High: true}, {Time: 0.5e-3, High: false}}
	sink := &recordingSink{}
	steps := ExpandPulseTrain(0, 2.5e-3, 1e-3, seq, sink)

	want := []PulseStep{
		{Time: 0, High: true}, {Time: 0.5e-3, High: false},
		{Time: 1e-3, High: true}, {Time: 1.5e-3, High: false},
	}
	if len(steps) != len(want) {
		t.Fatalf("ExpandPulseTrain: got %v want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("ExpandPulseTrain[%d]: got %+v want %+v", i, steps[i], want[i])
		}
	}
	if len(sink.messages) == 0 {
		t.Fatalf("ExpandPulseTrain: expected a warning about the dropped trailing partial period")
	}
}

func TestExpandPulseTrainExactWholePeriods(t *testing.T) {
	// 0.25 and 0.5 are exactly representable in binary floating point,
	// so duration/period lands on 2.0 with no rounding fuzz.
	seq := []PulseStep{{Time: 0, High: true}}
	sink := &recordingSink{}
	steps := ExpandPulseTrain(0, 0.5, 0.25, seq, sink)
	if len(steps) != 2 {
		t.Fatalf("ExpandPulseTrain: got %d steps want 2", len(steps))
	}
	if len(sink.messages) != 0 {
		t.Fatalf("ExpandPulseTrain: unexpected warning for a whole-period duration: %v", sink.messages)
	}
}

type recordingSink struct {
	messages []string
}

func (r *recordingSink) Warn(sev diag.Severity, op, msg string) { r.messages = append(r.messages, msg) }
func (r *recordingSink) Dump(string, interface{})               {}
