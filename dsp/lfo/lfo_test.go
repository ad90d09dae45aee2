package lfo

import (
	"math"
	"math/rand"
	"testing"
)

func TestPhaseAdvanceWraps(t *testing.T) {
	var p Phase
	const sampleRate = 100.0

	for i := 0; i < 1000; i++ {
		p.Advance(7, sampleRate)
		if v := p.Value(); v < 0 || v >= 1 {
			t.Fatalf("step %d: phase %v outside [0, 1)", i, v)
		}
	}
	// 1000 steps of 0.07 is 70 whole cycles.
	if v := p.Value(); math.Abs(v) > 1e-9 && math.Abs(v-1) > 1e-9 {
		t.Fatalf("phase after whole cycles = %v, want ~0", v)
	}
}

func TestPhaseStepSubtractsOne(t *testing.T) {
	var p Phase
	p.Step(0.75)
	p.Step(0.5)
	if got := p.Value(); math.Abs(got-0.25) > 1e-15 {
		t.Fatalf("phase = %v, want 0.25", got)
	}
}

func TestPhaseStepLargeIncrement(t *testing.T) {
	var p Phase
	p.Step(3.25)
	if got := p.Value(); math.Abs(got-0.25) > 1e-15 {
		t.Fatalf("phase = %v, want 0.25", got)
	}
}

func TestPhaseReset(t *testing.T) {
	var p Phase
	p.Step(0.4)
	p.Reset()
	if p.Value() != 0 {
		t.Fatalf("phase after reset = %v", p.Value())
	}
}

func TestDelayBound(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	widths := []float64{0, 0.0005, 0.008, 0.02, 0.4}

	for _, w := range widths {
		for i := 0; i < 10000; i++ {
			phase := rng.Float64()
			d := Delay(w, phase)
			if d < 0 || d > w {
				t.Fatalf("Delay(%v, %v) = %v outside [0, %v]", w, phase, d, w)
			}
		}
	}
}

func TestDelayLandmarks(t *testing.T) {
	const w = 0.01
	tests := []struct {
		phase float64
		want  float64
	}{
		{phase: 0, want: w / 2},
		{phase: 0.25, want: w},
		{phase: 0.5, want: w / 2},
		{phase: 0.75, want: 0},
	}

	for _, tt := range tests {
		if got := Delay(w, tt.phase); math.Abs(got-tt.want) > 1e-15 {
			t.Fatalf("Delay(%v, %v) = %v, want %v", w, tt.phase, got, tt.want)
		}
	}
}

func TestPhaseStepTinyNegative(t *testing.T) {
	var p Phase
	p.Step(-1e-20)
	if v := p.Value(); v < 0 || v >= 1 {
		t.Fatalf("phase %v outside [0, 1)", v)
	}
}
