package instruction

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"

	"github.com/example/labc/labcerr"
	"github.com/example/labc/waveform"
)

func TestRound10(t *testing.T) {
	got := Round10(1.00000000001e-3)
	want := 1e-3
	if got != want {
		t.Fatalf("Round10: got %v want %v", got, want)
	}
}

func TestAddScalar(t *testing.T) {
	tl := NewTimeline(Limits{}, true, nil)
	if err := tl.AddScalar(true, 0, 1e-3, 1, "", nil); err != nil {
		t.Fatalf("AddScalar: unexpected error: %v\nstate: %s", err, spew.Sdump(tl))
	}
	e, ok := tl.At(1e-3)
	if !ok || e.Scalar != 1 {
		t.Fatalf("At(1e-3): got %+v, %v want Scalar=1", e, ok)
	}

	if err := tl.AddScalar(false, 0, 2e-3, 1, "", nil); !labcerr.Is(err, labcerr.NotStarted) {
		t.Fatalf("AddScalar before start: got %v want NotStarted", err)
	}
	if err := tl.AddScalar(true, 1e-3, 0, 1, "", nil); !labcerr.Is(err, labcerr.TooEarly) {
		t.Fatalf("AddScalar before t0: got %v want TooEarly", err)
	}
}

func TestAddScalarOutOfRange(t *testing.T) {
	tl := NewTimeline(Limits{Min: 0, Max: 5, Set: true}, true, nil)
	if err := tl.AddScalar(true, 0, 0, 6, "", nil); !labcerr.Is(err, labcerr.OutOfRange) {
		t.Fatalf("AddScalar out of range: got %v want OutOfRange", err)
	}
}

func TestAddRampOverlap(t *testing.T) {
	tl := NewTimeline(Limits{}, true, nil)
	rec := Record{
		Function:    waveform.Func{Kind: waveform.KindRamp, Initial: 0, Final: 1, Duration: 0.1},
		InitialTime: 0.1,
		EndTime:     0.2,
		ClockRate:   1e6,
	}
	if err := tl.AddRamp(true, 0, rec, nil); err != nil {
		t.Fatalf("AddRamp: unexpected error: %v", err)
	}
	// S6: a scalar strictly inside [0.1,0.2] must fail RampOverlap.
	if err := tl.AddScalar(true, 0, 0.15, 1, "", nil); !labcerr.Is(err, labcerr.RampOverlap) {
		t.Fatalf("AddScalar inside ramp: got %v want RampOverlap", err)
	}
}

func TestAddRampNoRamping(t *testing.T) {
	tl := NewTimeline(Limits{}, false, nil)
	rec := Record{Function: waveform.Func{Kind: waveform.KindRamp, Final: 1, Duration: 1}, InitialTime: 0, EndTime: 1, ClockRate: 1e3}
	if err := tl.AddRamp(true, 0, rec, nil); !labcerr.Is(err, labcerr.NoRamping) {
		t.Fatalf("AddRamp on non-ramping clockline: got %v want NoRamping", err)
	}
}

func TestChangeTimesSorted(t *testing.T) {
	tl := NewTimeline(Limits{}, true, nil)
	times := []float64{3e-3, 1e-3, 2e-3}
	for _, tm := range times {
		if err := tl.AddScalar(true, 0, tm, 1, "", nil); err != nil {
			t.Fatalf("AddScalar(%v): %v", tm, err)
		}
	}
	got := tl.ChangeTimes()
	want := []float64{1e-3, 2e-3, 3e-3}
	if diff := deep.Equal(got, want); diff != nil {
		t.Fatalf("ChangeTimes: %v", diff)
	}
}

func TestActiveAt(t *testing.T) {
	tl := NewTimeline(Limits{}, true, nil)
	mustAdd(t, tl, 0, 0)
	mustAdd(t, tl, 1e-3, 1)
	mustAdd(t, tl, 2e-3, 0)

	cases := []struct {
		t    float64
		want float64
	}{
		{0, 0}, {5e-4, 0}, {1e-3, 1}, {1.5e-3, 1}, {2e-3, 0}, {3e-3, 0},
	}
	for _, c := range cases {
		e, ok := tl.ActiveAt(c.t)
		if !ok || e.Scalar != c.want {
			t.Errorf("ActiveAt(%v): got %+v,%v want %v", c.t, e, ok, c.want)
		}
	}
}

func mustAdd(t *testing.T, tl *Timeline, at, v float64) {
	t.Helper()
	if err := tl.AddScalar(true, 0, at, v, "", nil); err != nil {
		t.Fatalf("AddScalar(%v,%v): %v", at, v, err)
	}
}

func TestRewriteOffset(t *testing.T) {
	tl := NewTimeline(Limits{}, true, nil)
	mustAdd(t, tl, 1.000001, 1)
	tl.Rewrite(func(t float64) float64 { return t - 1.0 - 1e-6 })
	e, ok := tl.At(0)
	if !ok || e.Scalar != 1 {
		t.Fatalf("Rewrite: got entry at 0 = %+v,%v, want Scalar=1 present", e, ok)
	}
}
