package osc

import (
	"errors"
	"math"
	"testing"
)

func TestEveryWaveformIsRegistered(t *testing.T) {
	reg := Default()
	for _, w := range Waveforms() {
		if _, ok := reg.Lookup(w); !ok {
			t.Errorf("no function registered for %v", w)
		}
		parsed, err := ParseWaveform(w.String())
		if err != nil {
			t.Errorf("parse %q: %v", w.String(), err)
		}
		if parsed != w {
			t.Errorf("parse %q = %v, want %v", w.String(), parsed, w)
		}
	}
}

func TestParseWaveformRejectsUnknownNames(t *testing.T) {
	for _, name := range []string{"", "Sine", "noise", "saw-i"} {
		if _, err := ParseWaveform(name); !errors.Is(err, ErrUnknownWaveform) {
			t.Errorf("parse %q: err = %v, want ErrUnknownWaveform", name, err)
		}
	}
	if w, err := ParseWaveform("saw_inverted"); err != nil || w != SawInverted {
		t.Errorf("parse saw_inverted = %v, %v", w, err)
	}
	if w, err := ParseWaveform("raw"); err != nil || w != Signal {
		t.Errorf("parse raw = %v, %v", w, err)
	}
}

func TestWaveformShapes(t *testing.T) {
	cases := []struct {
		wave Waveform
		t    float64
		want float64
	}{
		{Sine, 0, 0},
		{Sine, 0.25, 1},
		{Sine, 0.75, -1},
		{Saw, 0, -1},
		{Saw, 0.5, 0},
		{Saw, 0.75, 0.5},
		{SawInverted, 0, 1},
		{SawInverted, 0.75, -0.5},
		{Triangle, 0, -1},
		{Triangle, 0.25, 0},
		{Triangle, 0.5, 1},
		{Square, 0.1, 1},
		{Square, 0.6, -1},
		{Signal, 0.3, 1},
	}
	reg := Default()
	for _, tc := range cases {
		fn, _ := reg.Lookup(tc.wave)
		if got := fn(tc.t, 1); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%v at t=%v: got %f, want %f", tc.wave, tc.t, got, tc.want)
		}
	}
}

func TestWaveformIsPureFunctionOfTime(t *testing.T) {
	fn, _ := Default().Lookup(Triangle)
	a := fn(1.3, 2)
	for i := 0; i < 10; i++ {
		fn(float64(i), 2)
	}
	if b := fn(1.3, 2); a != b {
		t.Fatalf("triangle(1.3, 2) changed between calls: %f then %f", a, b)
	}
}

func TestFrequencyScalesPeriod(t *testing.T) {
	fn, _ := Default().Lookup(Saw)
	// At 4 Hz, t=0.125 is half a cycle.
	if got := fn(0.125, 4); math.Abs(got) > 1e-9 {
		t.Fatalf("saw at half cycle: got %f, want 0", got)
	}
}

func TestLookupMissingFunction(t *testing.T) {
	reg := Registry{Sine: nil}
	if _, ok := reg.Lookup(Sine); ok {
		t.Error("nil function should not be reported as registered")
	}
	if _, ok := reg.Lookup(Square); ok {
		t.Error("absent waveform should not be reported as registered")
	}
}
