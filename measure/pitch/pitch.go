// Package pitch tracks the dominant frequency of a signal over time with a
// short-time Fourier transform and measures how far it swings.
package pitch

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-vibrato/dsp/window"
)

const (
	defaultFrameSize = 2048
	defaultPadFactor = 4
	defaultMinHz     = 20.0
	defaultMaxHz     = 20000.0
)

var (
	// ErrInvalidConfig reports a tracker configuration that cannot be analysed.
	ErrInvalidConfig = errors.New("pitch: invalid config")
	// ErrNoEstimates reports that no frame produced a usable peak.
	ErrNoEstimates = errors.New("pitch: no estimates")
)

// Config holds tracker parameters. Zero values select defaults.
type Config struct {
	SampleRate float64
	// FrameSize is the analysis frame length in samples.
	FrameSize int
	// HopSize is the distance between frame starts. Defaults to FrameSize/8.
	HopSize int
	// FFTSize is the zero-padded transform length, a power of two no smaller
	// than FrameSize. Defaults to 4*FrameSize rounded up.
	FFTSize    int
	WindowType window.Type
	MinHz      float64
	MaxHz      float64
}

// Estimate is the dominant frequency of one frame.
type Estimate struct {
	// Time is the frame centre in seconds.
	Time float64
	Hz   float64
	// Level is the estimated sinusoid amplitude.
	Level float64
}

// Deviation summarises how far a tracked pitch moves.
type Deviation struct {
	MinHz    float64
	MaxHz    float64
	CenterHz float64
	// Relative is (max-min)/(max+min), comparable to a vibrato's peak
	// relative frequency deviation.
	Relative float64
	// DepthCents is half the peak-to-peak excursion in cents.
	DepthCents float64
}

// Tracker runs frame-by-frame peak picking. It reuses its buffers and is not
// safe for concurrent use.
type Tracker struct {
	cfg    Config
	plan   *algofft.Plan[complex128]
	coeffs []float64
	gain   float64
	frame  []float64
	in     []complex128
	out    []complex128
	minBin int
	maxBin int
	binHz  float64
}

// NewTracker validates cfg, fills defaults and plans the transform.
func NewTracker(cfg Config) (*Tracker, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, err
	}

	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("pitch: plan fft: %w", err)
	}

	coeffs := window.Generate(cfg.WindowType, cfg.FrameSize, window.WithPeriodic())

	gain, err := window.CoherentGain(coeffs)
	if err != nil {
		return nil, err
	}

	binHz := cfg.SampleRate / float64(cfg.FFTSize)
	nyquistBin := cfg.FFTSize / 2

	t := &Tracker{
		cfg:    cfg,
		plan:   plan,
		coeffs: coeffs,
		gain:   gain,
		frame:  make([]float64, cfg.FrameSize),
		in:     make([]complex128, cfg.FFTSize),
		out:    make([]complex128, cfg.FFTSize),
		binHz:  binHz,
		minBin: max(1, int(math.Ceil(cfg.MinHz/binHz))),
		maxBin: min(nyquistBin-1, int(math.Floor(cfg.MaxHz/binHz))),
	}

	if t.minBin > t.maxBin {
		return nil, fmt.Errorf("%w: band [%g, %g] Hz holds no bins", ErrInvalidConfig, cfg.MinHz, cfg.MaxHz)
	}

	return t, nil
}

// Config returns the normalized configuration.
func (t *Tracker) Config() Config { return t.cfg }

// Track estimates the dominant frequency of every full frame in signal.
// Frames with no energy in the search band are skipped.
func (t *Tracker) Track(signal []float64) []Estimate {
	frameSize := t.cfg.FrameSize
	if len(signal) < frameSize {
		return nil
	}

	estimates := make([]Estimate, 0, (len(signal)-frameSize)/t.cfg.HopSize+1)

	for start := 0; start+frameSize <= len(signal); start += t.cfg.HopSize {
		est, ok := t.Frame(signal[start : start+frameSize])
		if !ok {
			continue
		}

		est.Time = (float64(start) + float64(frameSize)/2) / t.cfg.SampleRate
		estimates = append(estimates, est)
	}

	return estimates
}

// Frame estimates the dominant frequency of a single frame of FrameSize
// samples. It reports false when the frame length is wrong or the band is
// silent.
func (t *Tracker) Frame(frame []float64) (Estimate, bool) {
	if len(frame) != t.cfg.FrameSize {
		return Estimate{}, false
	}

	if err := window.ApplyCoefficients(t.frame, frame, t.coeffs); err != nil {
		return Estimate{}, false
	}

	for i := range t.in {
		if i < len(t.frame) {
			t.in[i] = complex(t.frame[i], 0)
		} else {
			t.in[i] = 0
		}
	}

	if err := t.plan.Forward(t.out, t.in); err != nil {
		return Estimate{}, false
	}

	peak := t.minBin
	peakMag := 0.0

	for k := t.minBin; k <= t.maxBin; k++ {
		if m := magnitude(t.out[k]); m > peakMag {
			peak = k
			peakMag = m
		}
	}

	if peakMag == 0 {
		return Estimate{}, false
	}

	offset := parabolicOffset(
		magnitude(t.out[peak-1]),
		peakMag,
		magnitude(t.out[peak+1]),
	)

	return Estimate{
		Hz:    (float64(peak) + offset) * t.binHz,
		Level: 2 * peakMag / (float64(t.cfg.FrameSize) * t.gain),
	}, true
}

// Summarize reduces a track to its frequency excursion.
func Summarize(estimates []Estimate) (Deviation, error) {
	if len(estimates) == 0 {
		return Deviation{}, ErrNoEstimates
	}

	lo := math.Inf(1)
	hi := math.Inf(-1)

	for _, e := range estimates {
		lo = min(lo, e.Hz)
		hi = max(hi, e.Hz)
	}

	return Deviation{
		MinHz:      lo,
		MaxHz:      hi,
		CenterHz:   (lo + hi) / 2,
		Relative:   (hi - lo) / (hi + lo),
		DepthCents: 600 * math.Log2(hi/lo),
	}, nil
}

// Analyze tracks signal with cfg and summarises the result.
func Analyze(signal []float64, cfg Config) (Deviation, []Estimate, error) {
	tracker, err := NewTracker(cfg)
	if err != nil {
		return Deviation{}, nil, err
	}

	estimates := tracker.Track(signal)

	dev, err := Summarize(estimates)
	if err != nil {
		return Deviation{}, estimates, err
	}

	return dev, estimates, nil
}

func normalizeConfig(cfg Config) (Config, error) {
	if cfg.SampleRate <= 0 || math.IsNaN(cfg.SampleRate) || math.IsInf(cfg.SampleRate, 0) {
		return cfg, fmt.Errorf("%w: sample rate %f", ErrInvalidConfig, cfg.SampleRate)
	}

	if cfg.FrameSize == 0 {
		cfg.FrameSize = defaultFrameSize
	}

	if cfg.FrameSize < 4 {
		return cfg, fmt.Errorf("%w: frame size %d", ErrInvalidConfig, cfg.FrameSize)
	}

	if cfg.HopSize == 0 {
		cfg.HopSize = max(1, cfg.FrameSize/8)
	}

	if cfg.HopSize < 0 {
		return cfg, fmt.Errorf("%w: hop size %d", ErrInvalidConfig, cfg.HopSize)
	}

	if cfg.FFTSize == 0 {
		cfg.FFTSize = nextPowerOf2(defaultPadFactor * cfg.FrameSize)
	}

	if cfg.FFTSize < cfg.FrameSize || cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		return cfg, fmt.Errorf("%w: fft size %d must be a power of two >= frame size %d",
			ErrInvalidConfig, cfg.FFTSize, cfg.FrameSize)
	}

	if cfg.WindowType == window.TypeRectangular {
		cfg.WindowType = window.TypeHann
	}

	if cfg.MinHz <= 0 {
		cfg.MinHz = defaultMinHz
	}

	if cfg.MaxHz <= 0 {
		cfg.MaxHz = min(defaultMaxHz, cfg.SampleRate/2)
	}

	if cfg.MinHz >= cfg.MaxHz {
		return cfg, fmt.Errorf("%w: min %g Hz >= max %g Hz", ErrInvalidConfig, cfg.MinHz, cfg.MaxHz)
	}

	return cfg, nil
}

// parabolicOffset fits a parabola through log magnitudes around a peak and
// returns the vertex offset in bins, within [-0.5, 0.5].
func parabolicOffset(left, centre, right float64) float64 {
	if left <= 0 || right <= 0 {
		return 0
	}

	a := math.Log(left)
	b := math.Log(centre)
	c := math.Log(right)

	den := a - 2*b + c
	if den == 0 {
		return 0
	}

	return max(-0.5, min(0.5, 0.5*(a-c)/den))
}

func magnitude(x complex128) float64 {
	return math.Hypot(real(x), imag(x))
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
