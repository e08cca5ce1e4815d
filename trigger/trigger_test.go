package trigger

import (
	"testing"

	"github.com/example/labc/device"
	"github.com/example/labc/registry"
)

func buildMasterWithTrigger(t *testing.T) (*registry.Context, *device.Pseudoclock, *device.Trigger) {
	t.Helper()
	ctx := registry.New()
	master, err := device.NewMasterPseudoclock(ctx, "master", 10e6, 1e-7, 0, 0)
	if err != nil {
		t.Fatalf("NewMasterPseudoclock: %v", err)
	}
	mcl, err := device.NewClockLine(ctx, "mcl", master, "mcl", false)
	if err != nil {
		t.Fatalf("NewClockLine: %v", err)
	}
	mid, err := device.NewIntermediateDevice(ctx, "mid", mcl, "mid")
	if err != nil {
		t.Fatalf("NewIntermediateDevice: %v", err)
	}
	trig, err := device.NewTrigger(ctx, "trig", mid, "trig", device.EdgePositive)
	if err != nil {
		t.Fatalf("NewTrigger: %v", err)
	}
	if _, err := device.NewSecondaryPseudoclock(ctx, "secondary", trig, "sec", 10e6, 1e-7, 1e-6, 0, 0, 0); err != nil {
		t.Fatalf("NewSecondaryPseudoclock: %v", err)
	}
	ctx.MasterPseudoclock = master
	ctx.Start()
	ctx.TriggerDuration = 1e-5
	return ctx, master, trig
}

// TriggerAll must record a real pulse on the Trigger device's own
// timeline, not just arithmetic on the secondary's TriggerTimes
// (original_source/labscript/labscript.py:2650-2671).
func TestTriggerAllPulsesTriggerTimeline(t *testing.T) {
	ctx, master, trig := buildMasterWithTrigger(t)
	secondaries := CollectSecondaries(master)
	if len(secondaries) != 1 {
		t.Fatalf("CollectSecondaries: got %d want 1", len(secondaries))
	}

	if _, err := TriggerAll(ctx, master, secondaries, 2e-3, false, nil); err != nil {
		t.Fatalf("TriggerAll: %v", err)
	}

	entry, ok := trig.Timeline().At(2e-3)
	if !ok || entry.Scalar != 1 {
		t.Fatalf("trigger pulse high edge: got %+v,%v want scalar=1 at t=2e-3", entry, ok)
	}
	entry, ok = trig.Timeline().At(2e-3 + ctx.TriggerDuration)
	if !ok || entry.Scalar != 0 {
		t.Fatalf("trigger pulse low edge: got %+v,%v want scalar=0", entry, ok)
	}
	if len(secondaries[0].TriggerTimes) != 1 || secondaries[0].TriggerTimes[0] != 2e-3 {
		t.Fatalf("secondary TriggerTimes: got %v want [2e-3]", secondaries[0].TriggerTimes)
	}
}

// A Trigger device feeding no secondary is never pulsed.
func TestTriggerAllSkipsUnusedTrigger(t *testing.T) {
	ctx := registry.New()
	master, err := device.NewMasterPseudoclock(ctx, "master", 10e6, 1e-7, 0, 0)
	if err != nil {
		t.Fatalf("NewMasterPseudoclock: %v", err)
	}
	mcl, _ := device.NewClockLine(ctx, "mcl", master, "mcl", false)
	mid, _ := device.NewIntermediateDevice(ctx, "mid", mcl, "mid")
	trig, err := device.NewTrigger(ctx, "trig", mid, "trig", device.EdgePositive)
	if err != nil {
		t.Fatalf("NewTrigger: %v", err)
	}
	ctx.MasterPseudoclock = master
	ctx.Start()
	ctx.TriggerDuration = 1e-5

	if _, err := TriggerAll(ctx, master, nil, 1e-3, true, nil); err != nil {
		t.Fatalf("TriggerAll: %v", err)
	}
	if _, ok := trig.Timeline().At(1e-3); ok {
		t.Fatalf("unused trigger should not be pulsed")
	}
}
