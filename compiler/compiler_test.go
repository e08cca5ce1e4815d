package compiler

import (
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/example/labc/device"
	"github.com/example/labc/instruction"
	"github.com/example/labc/labcerr"
	"github.com/example/labc/waveform"
)

func newMasterRig(t *testing.T) (*Compiler, *device.ClockLine, *device.IntermediateDevice) {
	t.Helper()
	c := New(nil)
	master, err := device.NewMasterPseudoclock(c.Ctx, "master", 10e6, 1e-7, 0, 0)
	if err != nil {
		t.Fatalf("NewMasterPseudoclock: %v", err)
	}
	cl, err := device.NewClockLine(c.Ctx, "cl", master, "cl", true)
	if err != nil {
		t.Fatalf("NewClockLine: %v", err)
	}
	id, err := device.NewIntermediateDevice(c.Ctx, "id", cl, "id")
	if err != nil {
		t.Fatalf("NewIntermediateDevice: %v", err)
	}
	return c, cl, id
}

// S1: single digital pulse. Expect raw_output = [0,1,0,0] and a clock
// program whose ticks are exactly [0, 1e-3, 2e-3, 3e-3].
func TestStopSingleDigitalPulse(t *testing.T) {
	c, _, id := newMasterRig(t)
	d, err := device.NewDigitalOut(c.Ctx, "d", id, "d", false)
	if err != nil {
		t.Fatalf("NewDigitalOut: %v", err)
	}
	if _, err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.GoHigh(c.Ctx.StartCalled, 0, 1e-3, c.Diag); err != nil {
		t.Fatalf("GoHigh: %v", err)
	}
	if err := d.GoLow(c.Ctx.StartCalled, 0, 2e-3, c.Diag); err != nil {
		t.Fatalf("GoLow: %v", err)
	}

	compiled, err := c.Stop(3e-3)
	if err != nil {
		t.Fatalf("Stop: %v\nstate: %s", err, spew.Sdump(c.Ctx))
	}
	if len(compiled.Pseudoclocks) != 1 {
		t.Fatalf("Pseudoclocks: got %d want 1", len(compiled.Pseudoclocks))
	}
	var ticks []float64
	for cl, ts := range mustSingleLine(t, compiled) {
		_ = cl
		ticks = ts
	}
	want := []float64{0, 1e-3, 2e-3, 3e-3}
	if !floatsEqual(ticks, want) {
		t.Fatalf("ticks: got %v want %v", ticks, want)
	}

	var sampled *[]uint32
	for _, o := range compiled.Outputs {
		if o.Output.DeviceName() == "d" {
			sampled = &o.Samples.Uint32
		}
	}
	if sampled == nil {
		t.Fatalf("no samples recorded for output d")
	}
	wantOut := []uint32{0, 1, 0, 0}
	if !uint32sEqual(*sampled, wantOut) {
		t.Fatalf("raw_output: got %v want %v", *sampled, wantOut)
	}
}

// S2: a linear ramp on an analog output is sampled at its midpoints.
func TestStopLinearRamp(t *testing.T) {
	c, _, id := newMasterRig(t)
	a, err := device.NewAnalogOut(c.Ctx, "a", id, "a", instruction.Limits{}, nil)
	if err != nil {
		t.Fatalf("NewAnalogOut: %v", err)
	}
	if _, err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec := instruction.Record{
		Function:    waveform.Func{Kind: waveform.KindRamp, Initial: 0, Final: 5, Duration: 1e-3},
		InitialTime: 0,
		EndTime:     1e-3,
		ClockRate:   1e4,
	}
	if err := a.Timeline().AddRamp(c.Ctx.StartCalled, 0, rec, c.Diag); err != nil {
		t.Fatalf("AddRamp: %v", err)
	}

	compiled, err := c.Stop(1e-3)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	var samples *CompiledOutput
	for i := range compiled.Outputs {
		if compiled.Outputs[i].Output.DeviceName() == "a" {
			samples = &compiled.Outputs[i]
		}
	}
	if samples == nil {
		t.Fatalf("no samples for output a")
	}
	if len(samples.Samples.Float64) < 2 {
		t.Fatalf("ramp produced too few samples: %v", samples.Samples.Float64)
	}
	// First tick spans [0, period); its midpoint sample is the ramp
	// value at period/2, i.e. 5*(0.05e-3/1e-3) = 0.25.
	want := 0.25
	if got := samples.Samples.Float64[0]; abs(got-want) > 1e-9 {
		t.Fatalf("first ramp sample: got %v want %v", got, want)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// S6: a scalar instruction strictly inside an active ramp's interval
// is rejected with RampOverlap before Stop ever runs.
func TestAddScalarDuringRampRejected(t *testing.T) {
	c, _, id := newMasterRig(t)
	a, err := device.NewAnalogOut(c.Ctx, "a", id, "a", instruction.Limits{}, nil)
	if err != nil {
		t.Fatalf("NewAnalogOut: %v", err)
	}
	if _, err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec := instruction.Record{
		Function:    waveform.Func{Kind: waveform.KindRamp, Initial: 0, Final: 1, Duration: 0.1},
		InitialTime: 0.1,
		EndTime:     0.2,
		ClockRate:   1e3,
	}
	if err := a.Timeline().AddRamp(c.Ctx.StartCalled, 0, rec, c.Diag); err != nil {
		t.Fatalf("AddRamp: %v", err)
	}
	if err := a.Timeline().AddScalar(c.Ctx.StartCalled, 0, 0.15, 1, "", c.Diag); !labcerr.Is(err, labcerr.RampOverlap) {
		t.Fatalf("AddScalar inside ramp: got %v want RampOverlap", err)
	}
}

func mustSingleLine(t *testing.T, compiled *Compiled) map[*device.ClockLine][]float64 {
	t.Helper()
	out := map[*device.ClockLine][]float64{}
	pc := compiled.Pseudoclocks[0].Pseudoclock
	for _, cl := range pc.ClockLines() {
		var ticks []float64
		for _, seg := range compiled.Pseudoclocks[0].Program {
			if seg.IsWait {
				continue
			}
			for r := 0; r < seg.Reps; r++ {
				enabled := false
				for _, e := range seg.Enabled {
					if e == cl {
						enabled = true
					}
				}
				if enabled {
					ticks = append(ticks, seg.Start+float64(r)*seg.Step)
				}
			}
		}
		out[cl] = ticks
	}
	return out
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func uint32sEqual(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
