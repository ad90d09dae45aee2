package delay

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-vibrato/dsp/interp"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

var allModes = []struct {
	name string
	mode interp.Mode
}{
	{"Lagrange3", interp.Lagrange3},
	{"Hermite", interp.Hermite},
	{"Linear", interp.Linear},
}

// --- construction and validation ---

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for size=0")
	}

	if _, err := New(-1); err == nil {
		t.Fatal("expected error for size=-1")
	}

	if _, err := New(6); err == nil {
		t.Fatal("expected error for size too small for default guard")
	}

	if _, err := New(16, WithGuard(-1)); err == nil {
		t.Fatal("expected error for negative guard")
	}
}

func TestNewDefaults(t *testing.T) {
	d, err := New(16)
	if err != nil {
		t.Fatal(err)
	}

	if d.Len() != 16 {
		t.Fatalf("Len: got %d want 16", d.Len())
	}

	if d.Guard() != DefaultGuard {
		t.Fatalf("Guard: got %d want %d", d.Guard(), DefaultGuard)
	}

	if d.Mode() != interp.Lagrange3 {
		t.Fatalf("default mode: got %v want Lagrange3", d.Mode())
	}
}

func TestNewWithOptions(t *testing.T) {
	d, err := New(16, WithMode(interp.Hermite), WithGuard(0), nil)
	if err != nil {
		t.Fatal(err)
	}

	if d.Mode() != interp.Hermite {
		t.Fatalf("mode: got %v want Hermite", d.Mode())
	}

	if d.Guard() != 0 {
		t.Fatalf("guard: got %d want 0", d.Guard())
	}
}

func TestCapacityFor(t *testing.T) {
	tests := []struct {
		name       string
		maxSeconds float64
		sampleRate float64
		want       int
	}{
		{name: "48k", maxSeconds: 0.4, sampleRate: 48000, want: 28800},
		{name: "44.1k", maxSeconds: 0.4, sampleRate: 44100, want: 26460},
		{name: "96k", maxSeconds: 0.4, sampleRate: 96000, want: 57600},
		// Nominal 6 samples cannot hold 4 samples of delay plus guard and taps.
		{name: "tiny rate", maxSeconds: 0.4, sampleRate: 10, want: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CapacityFor(tt.maxSeconds, tt.sampleRate, 1.5, DefaultGuard); got != tt.want {
				t.Fatalf("CapacityFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

// --- integer Read/Write ---

func TestReadWrite(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 8; i++ {
		d.Write(float64(i))
	}
	// delay=1 => most recently written (7)
	if got := d.Read(1); got != 7 {
		t.Fatalf("got %v want 7", got)
	}
	// delay=3 => 3 samples back from write head
	if got := d.Read(3); got != 5 {
		t.Fatalf("got %v want 5", got)
	}
}

func TestWriteFlushesDenormals(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	d.Write(1e-310)
	d.Write(-1e-32)
	d.Write(1e-20)

	if got := d.Read(3); got != 0 {
		t.Fatalf("denormal stored as %v, want 0", got)
	}
	if got := d.Read(2); got != 0 {
		t.Fatalf("tiny negative stored as %v, want 0", got)
	}
	if got := d.Read(1); got != 1e-20 {
		t.Fatalf("got %v want 1e-20", got)
	}
}

func TestReadWraparound(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 13; i++ {
		d.Write(float64(i))
	}
	// buffer holds [8 9 10 11 12 5 6 7], writePos=5
	if d.WritePos() != 5 {
		t.Fatalf("WritePos: got %d want 5", d.WritePos())
	}
	if got := d.Read(1); got != 12 {
		t.Fatalf("got %v want 12", got)
	}
	if got := d.Read(8); got != 5 {
		t.Fatalf("got %v want 5", got)
	}
}

func TestOldestSlotHoldsSampleWrittenCapacityStepsEarlier(t *testing.T) {
	const size = 11

	for start := 0; start < size; start++ {
		d, err := New(size)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < start; i++ {
			d.Write(-1)
		}

		first := float64(100 * (start + 1))
		for k := 0; k < size; k++ {
			d.Write(first + float64(k))
		}

		if got := d.At(d.WritePos()); got != first {
			t.Fatalf("start=%d: oldest slot got %v want %v", start, got, first)
		}
		if got := d.Read(size); got != first {
			t.Fatalf("start=%d: Read(size) got %v want %v", start, got, first)
		}
		if got := d.Read(1); got != first+size-1 {
			t.Fatalf("start=%d: newest got %v want %v", start, got, first+size-1)
		}
	}
}

func TestReset(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	d.Write(1)
	d.Write(2)
	d.Reset()

	if d.WritePos() != 0 {
		t.Fatalf("WritePos after reset: got %d want 0", d.WritePos())
	}
	for i := 0; i < 8; i++ {
		if got := d.Read(i); got != 0 {
			t.Fatalf("after reset Read(%d): got %v want 0", i, got)
		}
	}
}

// --- fractional reads ---

func TestReadPositionInRange(t *testing.T) {
	d, err := New(16)
	if err != nil {
		t.Fatal(err)
	}

	for step := 0; step < 40; step++ {
		for _, delay := range []float64{0, 0.25, 3.5, 9.999, 12} {
			pos := d.ReadPosition(delay)
			if pos < 0 || pos >= float64(d.Len()) {
				t.Fatalf("step %d delay %v: position %v outside [0, %d)", step, delay, pos, d.Len())
			}
		}
		d.Write(float64(step))
	}
}

func TestReadFractionalZeroIsGuardTap(t *testing.T) {
	d, err := New(16)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 21; i++ {
		d.Write(float64(i * i))
	}

	if got, want := d.ReadFractional(0), d.Read(DefaultGuard); got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestReadFractionalIntegerDelaysExact(t *testing.T) {
	for _, tc := range allModes {
		d, err := New(32, WithMode(tc.mode))
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 45; i++ {
			d.Write(math.Sin(float64(i)))
		}

		for k := 0; k <= int(d.MaxDelay()); k++ {
			got := d.ReadFractional(float64(k))
			want := d.Read(k + d.Guard())
			if got != want {
				t.Fatalf("%s delay %d: got %v want %v", tc.name, k, got, want)
			}
		}
	}
}

// fillRamp fills a delay line with a linear ramp [0, 1, 2, ..., size-1].
func fillRamp(d *Line) {
	for i := 0; i < d.Len(); i++ {
		d.Write(float64(i))
	}
}

func TestReadFractionalLinearRamp(t *testing.T) {
	for _, tc := range allModes {
		d, err := New(32, WithMode(tc.mode))
		if err != nil {
			t.Fatal(err)
		}

		fillRamp(d)
		// All kernels are exact on a linear ramp away from the wrap seam.
		got := d.ReadFractional(5.5)

		want := float64(d.Len()-d.Guard()) - 5.5
		if !approxEqual(got, want, 1e-10) {
			t.Fatalf("%s: got %v want %v", tc.name, got, want)
		}
	}
}

func TestReadFractionalClamped(t *testing.T) {
	d, err := New(16)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 16; i++ {
		d.Write(float64(i + 1))
	}

	if got, want := d.ReadFractional(-1.0), d.ReadFractional(0); got != want {
		t.Fatalf("negative delay: got %v want %v", got, want)
	}
	if got, want := d.ReadFractional(1e6), d.ReadFractional(d.MaxDelay()); got != want {
		t.Fatalf("oversized delay: got %v want %v", got, want)
	}
}

func TestReadAtWrapsTaps(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 8; i++ {
		d.Write(float64(i))
	}

	// floor(pos) = 0 pulls the left tap from slot 7.
	got := d.ReadAt(0)
	if got != 0 {
		t.Fatalf("ReadAt(0): got %v want 0", got)
	}

	got = d.ReadAt(7.5)
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("ReadAt(7.5) produced %v", got)
	}
}

func TestAllModesDCPreservation(t *testing.T) {
	for _, tc := range allModes {
		d, err := New(32, WithMode(tc.mode))
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < d.Len(); i++ {
			d.Write(42.0)
		}

		got := d.ReadFractional(5.3)
		if !approxEqual(got, 42.0, 1e-9) {
			t.Fatalf("%s DC: got %v want 42", tc.name, got)
		}
	}
}

func TestAllModesSineQuality(t *testing.T) {
	// Write a low-frequency sine into a large buffer and verify
	// that fractional reads are close to the analytic value.
	freq := 0.02 // cycles per sample
	size := 256

	modes := []struct {
		name string
		mode interp.Mode
		tol  float64
	}{
		{"Linear", interp.Linear, 0.01},
		{"Hermite", interp.Hermite, 1e-4},
		{"Lagrange3", interp.Lagrange3, 1e-4},
	}

	for _, tc := range modes {
		d, err := New(size, WithMode(tc.mode))
		if err != nil {
			t.Fatal(err)
		}

		for i := 0; i < size; i++ {
			d.Write(math.Sin(2 * math.Pi * freq * float64(i)))
		}

		delay := 20.37
		// Slot s holds the sample written at index s, and the read position is
		// size - guard - delay.
		exactSample := float64(size-d.Guard()) - delay
		want := math.Sin(2 * math.Pi * freq * exactSample)
		got := d.ReadFractional(delay)

		if diff := math.Abs(got - want); diff > tc.tol {
			t.Fatalf("%s sine: got %v want %v (err=%e, tol=%e)", tc.name, got, want, diff, tc.tol)
		}
	}
}

// --- benchmarks ---

func BenchmarkReadFractionalLagrange(b *testing.B) {
	d, _ := New(1024)
	fillRamp(d)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		d.ReadFractional(100.37)
	}
}

func BenchmarkReadFractionalHermite(b *testing.B) {
	d, _ := New(1024, WithMode(interp.Hermite))
	fillRamp(d)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		d.ReadFractional(100.37)
	}
}

func BenchmarkWrite(b *testing.B) {
	d, _ := New(1024)
	for i := 0; i < b.N; i++ {
		d.Write(0.5)
	}
}
