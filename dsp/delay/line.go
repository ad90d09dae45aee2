package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vibrato/dsp/core"
	"github.com/cwbudde/algo-vibrato/dsp/interp"
)

const (
	// DefaultGuard is the number of samples fractional reads stay behind the write cursor.
	DefaultGuard = 3

	// tapReach is how far a 4-point kernel reaches around floor(readPos): one back, two ahead.
	tapReach = 3
)

// Option configures a Line at construction time.
type Option func(*Line) error

// WithMode selects the fractional-read interpolation kernel.
func WithMode(m interp.Mode) Option {
	return func(d *Line) error {
		d.mode = m
		return nil
	}
}

// WithGuard sets the guard offset in samples.
func WithGuard(guard int) Option {
	return func(d *Line) error {
		if guard < 0 {
			return fmt.Errorf("delay guard must be >= 0: %d", guard)
		}
		d.guard = guard
		return nil
	}
}

// Line is a circular delay line.
type Line struct {
	buffer   []float64
	writePos int
	guard    int
	mode     interp.Mode
}

// New returns a delay line of fixed size.
func New(size int, opts ...Option) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}

	d := &Line{guard: DefaultGuard, mode: interp.Lagrange3}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	if size <= d.guard+tapReach {
		return nil, fmt.Errorf("delay size %d too small for guard %d", size, d.guard)
	}

	d.buffer = make([]float64, size)
	return d, nil
}

// CapacityFor returns the buffer size needed to read delays of up to
// maxDelaySeconds at sampleRate. headroom scales the nominal length; the
// result never drops below what the guard and interpolation taps require.
func CapacityFor(maxDelaySeconds, sampleRate, headroom float64, guard int) int {
	samples := maxDelaySeconds * sampleRate
	nominal := ceilSamples(headroom * samples)
	required := ceilSamples(samples) + guard + tapReach + 1
	return max(nominal, required)
}

// ceilSamples rounds up, ignoring representation noise such as 0.6*48000 = 28800.000000000004.
func ceilSamples(x float64) int {
	const noise = 1e-9
	return int(math.Ceil(x - noise))
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// WritePos returns the index the next Write will store to.
func (d *Line) WritePos() int {
	return d.writePos
}

// Guard returns the guard offset in samples.
func (d *Line) Guard() int {
	return d.guard
}

// Mode returns the fractional-read kernel.
func (d *Line) Mode() interp.Mode {
	return d.mode
}

// MaxDelay returns the largest fractional delay in samples that keeps every
// tap strictly behind the write cursor.
func (d *Line) MaxDelay() float64 {
	return float64(len(d.buffer) - d.guard - tapReach - 1)
}

// Write writes one sample. Denormal-range values are stored as zero so decaying
// tails never slow down the interpolating reads.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = core.FlushDenormals(sample)
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// At returns the raw slot at index i taken modulo the buffer size.
func (d *Line) At(i int) float64 {
	return d.buffer[core.WrapIndex(i, len(d.buffer))]
}

// Read reads an integer delay in samples; Read(1) is the most recent sample.
func (d *Line) Read(delay int) float64 {
	return d.At(d.writePos - delay)
}

// ReadPosition maps a delay in samples to a real-valued buffer position in [0, Len()).
func (d *Line) ReadPosition(delay float64) float64 {
	size := float64(len(d.buffer))
	return core.FloorMod(float64(d.writePos)-delay+size-float64(d.guard), size)
}

// ReadAt reconstructs the signal at buffer position pos.
func (d *Line) ReadAt(pos float64) float64 {
	i := int(math.Floor(pos))
	t := pos - float64(i)

	size := len(d.buffer)
	xm1 := d.buffer[core.WrapIndex(i-1, size)]
	x0 := d.buffer[core.WrapIndex(i, size)]
	x1 := d.buffer[core.WrapIndex(i+1, size)]
	x2 := d.buffer[core.WrapIndex(i+2, size)]

	return interp.Interpolate4(d.mode, t, xm1, x0, x1, x2)
}

// ReadFractional reads a delay given in (possibly fractional) samples.
// The delay is measured from the guard position: ReadFractional(0) equals
// Read(Guard()), and delays are clamped to [0, MaxDelay()].
func (d *Line) ReadFractional(delay float64) float64 {
	if delay < 0 {
		delay = 0
	}
	if maxDelay := d.MaxDelay(); delay > maxDelay {
		delay = maxDelay
	}
	return d.ReadAt(d.ReadPosition(delay))
}

// Reset clears line state.
func (d *Line) Reset() {
	core.Zero(d.buffer)
	d.writePos = 0
}
