package modulation

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-vibrato/dsp/core"
	"github.com/cwbudde/algo-vibrato/dsp/delay"
	"github.com/cwbudde/algo-vibrato/dsp/interp"
	"github.com/cwbudde/algo-vibrato/dsp/lfo"
	"github.com/cwbudde/algo-vibrato/dsp/param"
	"github.com/cwbudde/algo-vibrato/dsp/smooth"
)

const (
	defaultVibratoFrequencyHz     = 2.0
	defaultVibratoSweepWidth      = 0.008
	defaultVibratoGainDB          = 0.0
	defaultVibratoMaxWidth        = 0.4
	defaultVibratoTransitionTime  = 0.2
	defaultVibratoBufferHeadroom  = 1.5
	defaultVibratoSmoothRetention = smooth.DefaultRetention

	minVibratoFrequencyHz = 0.01
	maxVibratoFrequencyHz = 20.0
	minVibratoSweepWidth  = 0.0005
	maxVibratoSweepWidth  = 0.4
	minVibratoGainDB      = -30.0
	maxVibratoGainDB      = 20.0
)

// VibratoOption mutates vibrato construction parameters.
type VibratoOption func(*vibratoConfig) error

type vibratoConfig struct {
	maxWidth       float64
	transitionTime float64
	retention      float64
	guard          int
	mode           interp.Mode

	frequencyHz float64
	sweepWidth  float64
	gainDB      float64
}

func defaultVibratoConfig() vibratoConfig {
	return vibratoConfig{
		maxWidth:       defaultVibratoMaxWidth,
		transitionTime: defaultVibratoTransitionTime,
		retention:      defaultVibratoSmoothRetention,
		guard:          delay.DefaultGuard,
		mode:           interp.Lagrange3,
		frequencyHz:    defaultVibratoFrequencyHz,
		sweepWidth:     defaultVibratoSweepWidth,
		gainDB:         defaultVibratoGainDB,
	}
}

// WithVibratoMaxWidth sets the sweep-width ceiling the delay buffer is sized for.
func WithVibratoMaxWidth(seconds float64) VibratoOption {
	return func(cfg *vibratoConfig) error {
		if seconds < minVibratoSweepWidth || seconds > maxVibratoSweepWidth || math.IsNaN(seconds) {
			return fmt.Errorf("vibrato max width must be in [%f, %f]: %f",
				minVibratoSweepWidth, maxVibratoSweepWidth, seconds)
		}
		cfg.maxWidth = seconds
		return nil
	}
}

// WithVibratoTransitionTime sets the sweep-width crossfade duration in seconds.
func WithVibratoTransitionTime(seconds float64) VibratoOption {
	return func(cfg *vibratoConfig) error {
		if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("vibrato transition time must be > 0 and finite: %f", seconds)
		}
		cfg.transitionTime = seconds
		return nil
	}
}

// WithVibratoSmoothing sets the per-sample retention of the parameter smoothers in [0, 1).
func WithVibratoSmoothing(retention float64) VibratoOption {
	return func(cfg *vibratoConfig) error {
		if retention < 0 || retention >= 1 || math.IsNaN(retention) {
			return fmt.Errorf("vibrato smoothing retention must be in [0, 1): %f", retention)
		}
		cfg.retention = retention
		return nil
	}
}

// WithVibratoGuardOffset sets how many samples reads stay behind the write cursor.
func WithVibratoGuardOffset(samples int) VibratoOption {
	return func(cfg *vibratoConfig) error {
		if samples < 0 {
			return fmt.Errorf("vibrato guard offset must be >= 0: %d", samples)
		}
		cfg.guard = samples
		return nil
	}
}

// WithVibratoInterpolation selects the fractional-read kernel. The default is
// 4-point Lagrange.
func WithVibratoInterpolation(mode interp.Mode) VibratoOption {
	return func(cfg *vibratoConfig) error {
		cfg.mode = mode
		return nil
	}
}

// WithVibratoFrequency sets the initial modulation frequency in Hz.
func WithVibratoFrequency(hz float64) VibratoOption {
	return func(cfg *vibratoConfig) error {
		if !core.IsFinite(hz) {
			return fmt.Errorf("vibrato frequency must be finite: %f", hz)
		}
		cfg.frequencyHz = hz
		return nil
	}
}

// WithVibratoSweepWidth sets the initial sweep width in seconds.
func WithVibratoSweepWidth(seconds float64) VibratoOption {
	return func(cfg *vibratoConfig) error {
		if !core.IsFinite(seconds) {
			return fmt.Errorf("vibrato sweep width must be finite: %f", seconds)
		}
		cfg.sweepWidth = seconds
		return nil
	}
}

// WithVibratoGainDB sets the initial output gain in dB.
func WithVibratoGainDB(db float64) VibratoOption {
	return func(cfg *vibratoConfig) error {
		if !core.IsFinite(db) {
			return fmt.Errorf("vibrato gain must be finite: %f", db)
		}
		cfg.gainDB = db
		return nil
	}
}

// Vibrato is a pitch-modulating delay: an LFO sweeps a short delay between 0
// and the sweep width, and the delayed signal is read with 4-point
// interpolation.
//
// Delay time follows:
//
//	d(t) = width * 0.5 * (1 + sin(2*pi*phase))
//
// Sweep-width changes are crossfaded with equal-power weights over a fixed
// transition window. While a transition runs, further width changes are not
// observed; the smoothed width is picked up again once the engine is idle.
//
// The engine is mono. Process writes the same signal to both output channels.
//
// Parameter setters may be called from any goroutine. Prepare, Process and
// ProcessSample must be called from a single goroutine.
type Vibrato struct {
	sampleRate     float64
	blockSize      int
	maxWidth       float64
	transitionTime float64
	retention      float64
	guard          int
	mode           interp.Mode

	frequencyHz *param.Float
	sweepWidth  *param.Float
	gainDB      *param.Float

	line      *delay.Line
	phase     lfo.Phase
	freqSmth  *smooth.OnePole
	widthSmth *smooth.OnePole
	gainSmth  *smooth.OnePole
	width     widthTransition

	wet  []float64
	gain []float64

	peakBits atomic.Uint64
}

// NewVibrato creates a vibrato prepared for sampleRate and blocks of up to
// maxBlockSize samples.
func NewVibrato(sampleRate float64, maxBlockSize int, opts ...VibratoOption) (*Vibrato, error) {
	cfg := defaultVibratoConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	frequency, err := param.NewFloat("freq", "Hz", param.Range{
		Min: minVibratoFrequencyHz, Max: maxVibratoFrequencyHz, Default: defaultVibratoFrequencyHz,
	})
	if err != nil {
		return nil, err
	}

	width, err := param.NewFloat("width", "s", param.Range{
		Min: minVibratoSweepWidth, Max: cfg.maxWidth, Default: min(defaultVibratoSweepWidth, cfg.maxWidth),
	})
	if err != nil {
		return nil, err
	}

	gain, err := param.NewFloat("gain", "dB", param.Range{
		Min: minVibratoGainDB, Max: maxVibratoGainDB, Default: defaultVibratoGainDB,
	})
	if err != nil {
		return nil, err
	}

	frequency.Set(cfg.frequencyHz)
	width.Set(cfg.sweepWidth)
	gain.Set(cfg.gainDB)

	v := &Vibrato{
		maxWidth:       cfg.maxWidth,
		transitionTime: cfg.transitionTime,
		retention:      cfg.retention,
		guard:          cfg.guard,
		mode:           cfg.mode,
		frequencyHz:    frequency,
		sweepWidth:     width,
		gainDB:         gain,
	}

	err = v.Prepare(sampleRate, maxBlockSize)
	if err != nil {
		return nil, err
	}

	return v, nil
}

// Prepare resizes the delay buffer for sampleRate and resets all running
// state: write cursor, LFO phase, smoothers and the width transition.
// Smoothers restart at the current parameter values, so no slew follows a
// Prepare. On error the previous state is left untouched.
func (v *Vibrato) Prepare(sampleRate float64, maxBlockSize int) error {
	pc := core.ApplyProcessorOptions(core.WithSampleRate(sampleRate), core.WithBlockSize(maxBlockSize))
	if err := pc.Validate(); err != nil {
		return fmt.Errorf("vibrato prepare: %w", err)
	}

	capacity := delay.CapacityFor(v.maxWidth, pc.SampleRate, defaultVibratoBufferHeadroom, v.guard)

	line, err := delay.New(capacity, delay.WithGuard(v.guard), delay.WithMode(v.mode))
	if err != nil {
		return fmt.Errorf("vibrato prepare: %w", err)
	}

	frequency := v.frequencyHz.Load()
	width := v.sweepWidth.Load()
	gain := dbToLinear(v.gainDB.Load())

	freqSmth, err := smooth.NewOnePole(v.retention, frequency)
	if err != nil {
		return err
	}
	widthSmth, err := smooth.NewOnePole(v.retention, width)
	if err != nil {
		return err
	}
	gainSmth, err := smooth.NewOnePole(v.retention, gain)
	if err != nil {
		return err
	}

	v.sampleRate = pc.SampleRate
	v.blockSize = pc.BlockSize
	v.line = line
	v.freqSmth = freqSmth
	v.widthSmth = widthSmth
	v.gainSmth = gainSmth
	v.phase.Reset()
	v.width.reset(width, transitionSamples(v.transitionTime, pc.SampleRate))
	v.wet = core.EnsureLen(v.wet, pc.BlockSize)
	v.gain = core.EnsureLen(v.gain, pc.BlockSize)
	v.peakBits.Store(0)

	return nil
}

// Reset clears the delay buffer and running state without resizing.
func (v *Vibrato) Reset() {
	v.line.Reset()
	v.phase.Reset()
	v.freqSmth.Reset(v.frequencyHz.Load())
	v.widthSmth.Reset(v.sweepWidth.Load())
	v.gainSmth.Reset(dbToLinear(v.gainDB.Load()))
	v.width.reset(v.sweepWidth.Load(), v.width.length)
	v.peakBits.Store(0)
}

// SetFrequency sets the LFO rate in Hz, clamped to [0.01, 20].
// Non-finite values are ignored.
func (v *Vibrato) SetFrequency(hz float64) {
	v.frequencyHz.Set(hz)
}

// SetSweepWidth sets the maximum modulation delay in seconds, clamped to
// [0.0005, MaxWidth()]. Non-finite values are ignored.
func (v *Vibrato) SetSweepWidth(seconds float64) {
	v.sweepWidth.Set(seconds)
}

// SetGainDB sets the output gain in dB, clamped to [-30, 20].
// Non-finite values are ignored.
func (v *Vibrato) SetGainDB(db float64) {
	v.gainDB.Set(db)
}

// SetGainLinear sets the output gain as a linear factor. Factors <= 0 map to
// the lowest gain.
func (v *Vibrato) SetGainLinear(gain float64) {
	if gain <= 0 {
		v.gainDB.Set(minVibratoGainDB)
		return
	}
	v.gainDB.Set(core.LinearToDB(gain))
}

// Process consumes len(in) samples and writes the result to both outL and
// outR. in may alias either output.
func (v *Vibrato) Process(in, outL, outR []float64) error {
	if len(outL) < len(in) || len(outR) < len(in) {
		return ErrChannelLength
	}

	for off := 0; off < len(in); off += v.blockSize {
		end := min(off+v.blockSize, len(in))
		v.processBlock(in[off:end], outL[off:end], outR[off:end])
	}

	return nil
}

// ProcessInPlace applies the vibrato to buf in place.
func (v *Vibrato) ProcessInPlace(buf []float64) error {
	return v.Process(buf, buf, buf)
}

// ProcessSample processes one sample. Peak then reports the magnitude of
// that sample.
func (v *Vibrato) ProcessSample(sample float64) float64 {
	wet := v.tick(sample, v.frequencyHz.Load(), v.sweepWidth.Load())
	out := wet * v.gainSmth.Next(dbToLinear(v.gainDB.Load()))
	v.peakBits.Store(math.Float64bits(math.Abs(out)))
	return out
}

func (v *Vibrato) processBlock(in, outL, outR []float64) {
	freqTarget := v.frequencyHz.Load()
	widthTarget := v.sweepWidth.Load()
	gainTarget := dbToLinear(v.gainDB.Load())

	wet := v.wet[:len(in)]
	gain := v.gain[:len(in)]

	for i, x := range in {
		wet[i] = v.tick(x, freqTarget, widthTarget)
		gain[i] = v.gainSmth.Next(gainTarget)
	}

	vecmath.MulBlock(outL, wet, gain)
	copy(outR, outL)

	v.peakBits.Store(math.Float64bits(vecmath.MaxAbs(outL)))
}

// tick runs the per-sample core and returns the crossfaded delay output
// before the gain stage.
func (v *Vibrato) tick(x, freqTarget, widthTarget float64) float64 {
	freq := v.freqSmth.Next(freqTarget)
	v.width.observe(v.widthSmth.Next(widthTarget))

	mod := lfo.Unipolar(v.phase.Value())
	out := v.read(v.width.active * mod)

	if v.width.transitioning {
		prev := v.read(v.width.previous * mod)
		f1, f2 := v.width.weights()
		out = f1*prev + f2*out
		v.width.advance()
	}

	v.line.Write(x)
	v.phase.Advance(freq, v.sampleRate)

	return out
}

func (v *Vibrato) read(delaySeconds float64) float64 {
	return v.line.ReadFractional(delaySeconds * v.sampleRate)
}

// SampleRate returns sample rate in Hz.
func (v *Vibrato) SampleRate() float64 { return v.sampleRate }

// BlockSize returns the maximum block size Process handles in one pass.
func (v *Vibrato) BlockSize() int { return v.blockSize }

// Capacity returns the delay buffer length in samples.
func (v *Vibrato) Capacity() int { return v.line.Len() }

// MaxWidth returns the sweep-width ceiling in seconds.
func (v *Vibrato) MaxWidth() float64 { return v.maxWidth }

// Frequency returns the requested LFO rate in Hz.
func (v *Vibrato) Frequency() float64 { return v.frequencyHz.Load() }

// SweepWidth returns the requested sweep width in seconds.
func (v *Vibrato) SweepWidth() float64 { return v.sweepWidth.Load() }

// GainDB returns the requested output gain in dB.
func (v *Vibrato) GainDB() float64 { return v.gainDB.Load() }

// Parameters returns the frequency, sweep width and gain parameters.
func (v *Vibrato) Parameters() []*param.Float {
	return []*param.Float{v.frequencyHz, v.sweepWidth, v.gainDB}
}

// ActiveWidth returns the committed sweep width in seconds.
func (v *Vibrato) ActiveWidth() float64 { return v.width.active }

// Transitioning reports whether a sweep-width crossfade is running.
func (v *Vibrato) Transitioning() bool { return v.width.transitioning }

// TransitionLength returns the crossfade length in samples.
func (v *Vibrato) TransitionLength() int { return v.width.length }

// Peak returns the largest absolute output sample of the last processed
// block. Safe to call from any goroutine.
func (v *Vibrato) Peak() float64 { return math.Float64frombits(v.peakBits.Load()) }

// PitchDeviation returns the peak relative frequency deviation for the
// current frequency and sweep width parameters.
func (v *Vibrato) PitchDeviation() float64 {
	return PitchDeviation(v.frequencyHz.Load(), v.sweepWidth.Load())
}

// PitchDeviation returns the peak relative frequency deviation produced by
// the vibrato delay law: the delay slope peaks at pi * rate * width, so a
// tone at f leaves the effect between f*(1-dev) and f*(1+dev).
func PitchDeviation(rateHz, widthSeconds float64) float64 {
	return math.Pi * rateHz * widthSeconds
}

// DeviationCents converts a relative frequency deviation to cents.
func DeviationCents(deviation float64) float64 {
	return 1200 * math.Log2(1+deviation)
}

func transitionSamples(seconds, sampleRate float64) int {
	const noise = 1e-9
	return max(1, int(math.Floor(seconds*sampleRate+noise)))
}
