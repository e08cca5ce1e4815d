package script

import (
	"testing"

	"github.com/example/labc/sink"
)

const pulseScript = `
lab.add_master_pseudoclock("master", 10e6, 1e-7)
lab.add_clockline("cl", "master", "cl")
lab.add_intermediate_device("id", "cl", "id")
lab.add_digital_out("d", "id", "port0/line0")

lab.start()
lab.go_high("d", 1e-3)
lab.go_low("d", 2e-3)
lab.stop(3e-3)
`

func TestRunPulseScript(t *testing.T) {
	mem := &sink.MemorySink{}
	h := New(nil, mem)
	defer h.Close()

	if err := h.Run(pulseScript); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mem.Last == nil {
		t.Fatalf("script never emitted a payload")
	}
	if len(mem.Last.Outputs) != 1 {
		t.Fatalf("Outputs: got %d want 1", len(mem.Last.Outputs))
	}
	want := []uint32{0, 1, 0, 0}
	got := mem.Last.Outputs[0].Uint32
	if len(got) != len(want) {
		t.Fatalf("raw_output: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("raw_output[%d]: got %v want %v", i, got, want)
		}
	}
}

func TestRunRejectsUnknownDevice(t *testing.T) {
	h := New(nil, nil)
	defer h.Close()
	if err := h.Run(`lab.go_high("nope", 1e-3)`); err == nil {
		t.Fatalf("Run with unknown device: want error, got nil")
	}
}

const shutterScript = `
lab.add_master_pseudoclock("master", 10e6, 1e-7)
lab.add_clockline("cl", "master", "cl")
lab.add_intermediate_device("id", "cl", "id")
lab.add_shutter("sh", "id", "port0/line0", 1e-3, 1e-3, 1)

lab.start()
lab.shutter_open("sh", 2e-3)
lab.shutter_close("sh", 4e-3)
lab.stop(5e-3)
`

func TestRunShutterScript(t *testing.T) {
	mem := &sink.MemorySink{}
	h := New(nil, mem)
	defer h.Close()
	if err := h.Run(shutterScript); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mem.Last == nil || len(mem.Last.Outputs) != 1 {
		t.Fatalf("expected one output payload, got %+v", mem.Last)
	}
}

const sineScript = `
lab.add_master_pseudoclock("master", 10e6, 1e-7)
lab.add_clockline("cl", "master", "cl", true)
lab.add_intermediate_device("id", "cl", "id")
lab.add_analog_out("a", "id", "ao0")

lab.start()
lab.sine("a", 0, 1e-3, 1e4, 1e3, 2)
lab.stop(1e-3)
`

func TestRunSineScript(t *testing.T) {
	mem := &sink.MemorySink{}
	h := New(nil, mem)
	defer h.Close()
	if err := h.Run(sineScript); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mem.Last == nil || len(mem.Last.Outputs) != 1 {
		t.Fatalf("expected one output payload, got %+v", mem.Last)
	}
	if len(mem.Last.Outputs[0].Float64) < 2 {
		t.Fatalf("sine produced too few samples: %v", mem.Last.Outputs[0].Float64)
	}
}

const staticAndRepeatScript = `
lab.add_master_pseudoclock("master", 10e6, 1e-7)
lab.add_clockline("cl", "master", "cl")
lab.add_intermediate_device("id", "cl", "id")
lab.add_digital_out("d", "id", "port0/line0")
lab.add_static_analog_out("s", "id", "ao1")
lab.static_set("s", 3.3, "")

lab.start()
lab.repeat_pulse_sequence("d", 0, 2e-3, 1e-3, {{0, true}, {5e-4, false}})
lab.stop(2e-3)
`

func TestRunStaticOutputAndRepeatPulseSequence(t *testing.T) {
	mem := &sink.MemorySink{}
	h := New(nil, mem)
	defer h.Close()
	if err := h.Run(staticAndRepeatScript); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mem.Last == nil || len(mem.Last.Outputs) != 1 {
		t.Fatalf("expected one clocked output payload, got %+v", mem.Last)
	}
	want := []uint32{1, 0, 1, 0, 0}
	got := mem.Last.Outputs[0].Uint32
	if len(got) != len(want) {
		t.Fatalf("raw_output: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("raw_output[%d]: got %v want %v", i, got, want)
		}
	}
}

func TestRunRampScript(t *testing.T) {
	const src = `
lab.add_master_pseudoclock("master", 10e6, 1e-7)
lab.add_clockline("cl", "master", "cl", true)
lab.add_intermediate_device("id", "cl", "id")
lab.add_analog_out("a", "id", "ao0")

lab.start()
lab.ramp("a", 0, 1e-3, 1e4, 0, 5)
lab.stop(1e-3)
`
	mem := &sink.MemorySink{}
	h := New(nil, mem)
	defer h.Close()
	if err := h.Run(src); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if mem.Last == nil || len(mem.Last.Outputs) != 1 {
		t.Fatalf("expected one output payload, got %+v", mem.Last)
	}
	if mem.Last.Outputs[0].Digital {
		t.Fatalf("analog output serialised as digital")
	}
	if len(mem.Last.Outputs[0].Float64) < 2 {
		t.Fatalf("ramp produced too few samples: %v", mem.Last.Outputs[0].Float64)
	}
}
