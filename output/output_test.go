package output

import (
	"testing"

	"github.com/example/labc/device"
	"github.com/example/labc/instruction"
	"github.com/example/labc/registry"
	"github.com/example/labc/unit"
	"github.com/example/labc/waveform"
)

func newRig(t *testing.T) (*registry.Context, *device.IntermediateDevice) {
	t.Helper()
	ctx := registry.New()
	master, err := device.NewMasterPseudoclock(ctx, "master", 1e6, 1e-7, 0, 0)
	if err != nil {
		t.Fatalf("NewMasterPseudoclock: %v", err)
	}
	cl, err := device.NewClockLine(ctx, "cl", master, "cl", true)
	if err != nil {
		t.Fatalf("NewClockLine: %v", err)
	}
	id, err := device.NewIntermediateDevice(ctx, "id", cl, "id")
	if err != nil {
		t.Fatalf("NewIntermediateDevice: %v", err)
	}
	return ctx, id
}

func TestMaterializeDigitalPulse(t *testing.T) {
	ctx, id := newRig(t)
	d, err := device.NewDigitalOut(ctx, "d", id, "d", false)
	if err != nil {
		t.Fatalf("NewDigitalOut: %v", err)
	}
	if err := d.Timeline().AddScalar(true, 0, 0, 0, "", nil); err != nil {
		t.Fatalf("AddScalar(0): %v", err)
	}
	if err := d.Timeline().AddScalar(true, 0, 1e-3, 1, "", nil); err != nil {
		t.Fatalf("AddScalar(1e-3): %v", err)
	}
	if err := d.Timeline().AddScalar(true, 0, 2e-3, 0, "", nil); err != nil {
		t.Fatalf("AddScalar(2e-3): %v", err)
	}

	ticks := []float64{0, 1e-3, 2e-3, 3e-3}
	samples, err := Materialize(d, ticks)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if !samples.Digital {
		t.Fatalf("Materialize: expected Digital=true")
	}
	want := []uint32{0, 1, 0, 0}
	if len(samples.Uint32) != len(want) {
		t.Fatalf("Uint32: got %v want %v", samples.Uint32, want)
	}
	for i := range want {
		if samples.Uint32[i] != want[i] {
			t.Fatalf("Uint32[%d]: got %v want %v", i, samples.Uint32, want)
		}
	}
}

func TestMaterializeRampMidpoints(t *testing.T) {
	ctx, id := newRig(t)
	a, err := device.NewAnalogOut(ctx, "a", id, "a", instruction.Limits{}, nil)
	if err != nil {
		t.Fatalf("NewAnalogOut: %v", err)
	}
	rec := instruction.Record{
		Function:    waveform.Func{Kind: waveform.KindRamp, Initial: 0, Final: 10, Duration: 1e-3},
		InitialTime: 0,
		EndTime:     1e-3,
		ClockRate:   4e3,
	}
	if err := a.Timeline().AddRamp(true, 0, rec, nil); err != nil {
		t.Fatalf("AddRamp: %v", err)
	}
	ticks := []float64{0, 0.25e-3, 0.5e-3, 0.75e-3, 1e-3}
	samples, err := Materialize(a, ticks)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if samples.Digital {
		t.Fatalf("Materialize: expected Digital=false for AnalogOut")
	}
	// Midpoint of [0, 0.25e-3) is 0.125e-3 -> ramp value 1.25.
	if got, want := samples.Float64[0], 1.25; abs(got-want) > 1e-9 {
		t.Fatalf("Float64[0]: got %v want %v", got, want)
	}
}

func TestMaterializeUnitConversion(t *testing.T) {
	ctx, id := newRig(t)
	cal, err := unit.NewTable("scaled", map[string]unit.AffineFunc{"mV": {Scale: 1e-3, Offset: 0}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	a, err := device.NewAnalogOut(ctx, "a", id, "a", instruction.Limits{}, cal)
	if err != nil {
		t.Fatalf("NewAnalogOut: %v", err)
	}
	if err := a.Timeline().AddScalar(true, 0, 0, 5, "mV", nil); err != nil {
		t.Fatalf("AddScalar(mV): %v", err)
	}
	samples, err := Materialize(a, []float64{0, 1e-3})
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if got, want := samples.Float64[0], 5e-3; abs(got-want) > 1e-12 {
		t.Fatalf("converted value: got %v want %v (5mV in base volts)", got, want)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
