package scheduler

import (
	"testing"

	"github.com/example/labc/device"
	"github.com/example/labc/instruction"
	"github.com/example/labc/registry"
	"github.com/example/labc/waveform"
)

func newRig(t *testing.T) (*device.Pseudoclock, *device.ClockLine) {
	t.Helper()
	ctx := registry.New()
	pc, err := device.NewMasterPseudoclock(ctx, "master", 10e6, 1e-7, 0, 0)
	if err != nil {
		t.Fatalf("NewMasterPseudoclock: %v", err)
	}
	cl, err := device.NewClockLine(ctx, "cl", pc, "cl", true)
	if err != nil {
		t.Fatalf("NewClockLine: %v", err)
	}
	return pc, cl
}

// emitInterval with no active ramp collapses to a single segment
// spanning the whole interval (the 1-tick case).
func TestEmitIntervalNoRampSingleSegment(t *testing.T) {
	pc, cl := newRig(t)
	prog, extra, err := emitInterval(pc, []*device.ClockLine{cl}, 0, 1e-3)
	if err != nil {
		t.Fatalf("emitInterval: %v", err)
	}
	if len(prog) != 1 || prog[0].Reps != 1 || prog[0].Step != 1e-3 {
		t.Fatalf("emitInterval (no ramp): got %+v", prog)
	}
	if len(extra) != 0 {
		t.Fatalf("emitInterval (no ramp): expected no extra ticks, got %v", extra)
	}
}

// emitInterval with a ramp producing exactly 3+ sub-ticks emits the
// three-segment lead/repeat/tail encoding.
func TestEmitIntervalRampThreeSegments(t *testing.T) {
	ctx := registry.New()
	pc, err := device.NewMasterPseudoclock(ctx, "master", 10e6, 1e-7, 0, 0)
	if err != nil {
		t.Fatalf("NewMasterPseudoclock: %v", err)
	}
	cl, err := device.NewClockLine(ctx, "cl", pc, "cl", true)
	if err != nil {
		t.Fatalf("NewClockLine: %v", err)
	}
	id, err := device.NewIntermediateDevice(ctx, "id", cl, "id")
	if err != nil {
		t.Fatalf("NewIntermediateDevice: %v", err)
	}
	a, err := device.NewAnalogOut(ctx, "a", id, "a", instruction.Limits{}, nil)
	if err != nil {
		t.Fatalf("NewAnalogOut: %v", err)
	}
	rec := instruction.Record{
		Function:    waveform.Func{Kind: waveform.KindRamp, Initial: 0, Final: 1, Duration: 1e-3},
		InitialTime: 0,
		EndTime:     1e-3,
		ClockRate:   4e3, // period 2.5e-4 over a 1e-3 interval -> 4 ticks
	}
	if err := a.Timeline().AddRamp(true, 0, rec, nil); err != nil {
		t.Fatalf("AddRamp: %v", err)
	}

	prog, extra, err := emitInterval(pc, []*device.ClockLine{cl}, 0, 1e-3)
	if err != nil {
		t.Fatalf("emitInterval: %v", err)
	}
	if len(prog) != 3 {
		t.Fatalf("emitInterval (ramp, >=3 ticks): got %d segments, want 3: %+v", len(prog), prog)
	}
	if prog[1].Reps != 2 {
		t.Fatalf("emitInterval middle segment reps: got %d want 2 (4 ticks total)", prog[1].Reps)
	}
	if len(extra[cl]) != 3 {
		t.Fatalf("emitInterval extra ticks: got %v want 3 sub-ticks after ti", extra[cl])
	}
}

// collectChangeTimes adds other clocklines' change times that fall
// strictly inside a ramp to the ramping clockline's own change-time
// set (spec.md §4.4.1 step 4).
func TestCollectChangeTimesCrossClocklineBreak(t *testing.T) {
	ctx := registry.New()
	pc, err := device.NewMasterPseudoclock(ctx, "master", 10e6, 1e-7, 0, 0)
	if err != nil {
		t.Fatalf("NewMasterPseudoclock: %v", err)
	}
	clA, err := device.NewClockLine(ctx, "clA", pc, "clA", true)
	if err != nil {
		t.Fatalf("NewClockLine(A): %v", err)
	}
	clB, err := device.NewClockLine(ctx, "clB", pc, "clB", true)
	if err != nil {
		t.Fatalf("NewClockLine(B): %v", err)
	}
	idA, _ := device.NewIntermediateDevice(ctx, "idA", clA, "idA")
	idB, _ := device.NewIntermediateDevice(ctx, "idB", clB, "idB")

	a, err := device.NewAnalogOut(ctx, "a", idA, "a", instruction.Limits{}, nil)
	if err != nil {
		t.Fatalf("NewAnalogOut: %v", err)
	}
	rec := instruction.Record{
		Function:    waveform.Func{Kind: waveform.KindRamp, Initial: 0, Final: 1, Duration: 1e-3},
		InitialTime: 0,
		EndTime:     1e-3,
		ClockRate:   1e3,
	}
	if err := a.Timeline().AddRamp(true, 0, rec, nil); err != nil {
		t.Fatalf("AddRamp: %v", err)
	}

	d, err := device.NewDigitalOut(ctx, "d", idB, "d", false)
	if err != nil {
		t.Fatalf("NewDigitalOut: %v", err)
	}
	if err := d.Timeline().AddScalar(true, 0, 0, 0, "", nil); err != nil {
		t.Fatalf("AddScalar(0): %v", err)
	}
	// clB changes mid-way through clA's ramp; clA's own change-time
	// set must absorb that time as a ramp break even though clA has
	// no instruction of its own there.
	if err := d.Timeline().AddScalar(true, 0, 0.5e-3, 1, "", nil); err != nil {
		t.Fatalf("AddScalar(0.5e-3): %v", err)
	}
	if err := d.Timeline().AddScalar(true, 0, 1e-3, 0, "", nil); err != nil {
		t.Fatalf("AddScalar(1e-3): %v", err)
	}

	res := collectChangeTimes(pc, 1e-3, nil)
	foundBreak := false
	for tm := range res.linesTimes[clA] {
		if tm == 0.5e-3 {
			foundBreak = true
		}
	}
	if !foundBreak {
		t.Fatalf("clockline A missing cross-clockline ramp break at 0.5e-3: %v", res.linesTimes[clA].sorted())
	}
}
