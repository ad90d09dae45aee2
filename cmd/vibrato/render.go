package main

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/algo-vibrato/dsp/core"
	"github.com/cwbudde/algo-vibrato/dsp/effects/modulation"
	"github.com/cwbudde/algo-vibrato/dsp/interp"
	"github.com/cwbudde/algo-vibrato/dsp/signal"
	"github.com/cwbudde/algo-vibrato/dsp/window"
	"github.com/cwbudde/algo-vibrato/internal/wavio"
	"github.com/cwbudde/algo-vibrato/measure/pitch"
	timestats "github.com/cwbudde/algo-vibrato/stats/time"
)

type renderConfig struct {
	in  string
	out string

	source     string
	toneHz     float64
	seed       int64
	duration   float64
	sampleRate float64

	freqHz float64
	width  float64
	gainDB float64
	block  int
	interp string

	sweepTo float64
	sweepAt float64

	normalize float64
	levels    bool

	analyze bool
	window  string
}

type rendered struct {
	sampleRate  float64
	input       []float64
	left, right []float64
	transitions int
	elapsed     time.Duration

	// expected holds the analytic pitch deviation of the engine's clamped
	// parameters, one entry per sweep width used.
	expected []float64
}

func run(cfg renderConfig, w io.Writer) error {
	input, sampleRate, err := loadInput(cfg)
	if err != nil {
		return err
	}

	res, err := render(cfg, input, sampleRate)
	if err != nil {
		return err
	}

	if cfg.normalize > 0 {
		if _, err := signal.Normalize(res.left, cfg.normalize); err != nil {
			return err
		}
		copy(res.right, res.left)
	}

	if cfg.out != "" {
		clip := wavio.Clip{
			SampleRate: int(math.Round(res.sampleRate)),
			Channels:   [][]float64{res.left, res.right},
		}
		if err := wavio.WriteFile(cfg.out, clip); err != nil {
			return fmt.Errorf("write %s: %w", cfg.out, err)
		}
	}

	fmt.Fprintf(w, "rendered %d samples at %g Hz in %v (%d width transitions)\n",
		len(res.left), res.sampleRate, res.elapsed.Round(time.Microsecond), res.transitions)

	if cfg.levels {
		if err := printLevels(w, res); err != nil {
			return err
		}
	}

	if cfg.analyze {
		return printAnalysis(w, cfg, res)
	}

	return nil
}

func loadInput(cfg renderConfig) ([]float64, float64, error) {
	if cfg.in != "" {
		clip, err := wavio.ReadFile(cfg.in)
		if err != nil {
			return nil, 0, fmt.Errorf("read %s: %w", cfg.in, err)
		}
		return clip.Mono(), float64(clip.SampleRate), nil
	}

	if cfg.duration <= 0 {
		return nil, 0, fmt.Errorf("generated input needs a positive -duration: %g", cfg.duration)
	}

	gen, err := signal.NewGenerator(
		core.ApplyProcessorOptions(core.WithSampleRate(cfg.sampleRate)),
		signal.WithSeed(cfg.seed),
	)
	if err != nil {
		return nil, 0, err
	}

	n := gen.Samples(cfg.duration)

	var input []float64
	switch cfg.source {
	case "", "sine":
		input, err = gen.Sine(cfg.toneHz, 0.5, n)
	case "noise":
		input, err = gen.WhiteNoise(0.5, n)
	default:
		err = fmt.Errorf("unknown signal %q (want sine or noise)", cfg.source)
	}
	if err != nil {
		return nil, 0, err
	}

	return input, cfg.sampleRate, nil
}

func render(cfg renderConfig, input []float64, sampleRate float64) (rendered, error) {
	mode, err := interp.ParseMode(cfg.interp)
	if err != nil {
		return rendered{}, err
	}

	v, err := modulation.NewVibrato(sampleRate, cfg.block,
		modulation.WithVibratoFrequency(cfg.freqHz),
		modulation.WithVibratoSweepWidth(cfg.width),
		modulation.WithVibratoGainDB(cfg.gainDB),
		modulation.WithVibratoInterpolation(mode),
	)
	if err != nil {
		return rendered{}, err
	}

	res := rendered{
		sampleRate: sampleRate,
		input:      input,
		left:       make([]float64, len(input)),
		right:      make([]float64, len(input)),
	}

	sweepAt := len(input)
	if cfg.sweepTo > 0 {
		sweepAt = min(len(input), max(0, int(math.Round(cfg.sweepAt*sampleRate))))
	}

	res.expected = append(res.expected, v.PitchDeviation())

	start := time.Now()

	blocks := blockProcessor{v: v, block: cfg.block}
	if err := blocks.run(input[:sweepAt], res.left[:sweepAt], res.right[:sweepAt]); err != nil {
		return rendered{}, err
	}

	if sweepAt < len(input) {
		v.SetSweepWidth(cfg.sweepTo)
		res.expected = append(res.expected, v.PitchDeviation())
	}

	if err := blocks.run(input[sweepAt:], res.left[sweepAt:], res.right[sweepAt:]); err != nil {
		return rendered{}, err
	}

	res.elapsed = time.Since(start)
	res.transitions = blocks.transitions

	return res, nil
}

// blockProcessor feeds host-sized blocks to the vibrato and counts the width
// transitions it observes at block boundaries.
type blockProcessor struct {
	v             *modulation.Vibrato
	block         int
	transitioning bool
	transitions   int
}

func (b *blockProcessor) run(in, outL, outR []float64) error {
	for off := 0; off < len(in); off += b.block {
		end := min(off+b.block, len(in))
		if err := b.v.Process(in[off:end], outL[off:end], outR[off:end]); err != nil {
			return err
		}

		t := b.v.Transitioning()
		if t && !b.transitioning {
			b.transitions++
		}
		b.transitioning = t
	}

	return nil
}

func printLevels(w io.Writer, res rendered) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Signal\tRMS [dB]\tPeak [dB]\tCrest [dB]\tDC\n")
	for _, row := range []struct {
		name string
		data []float64
	}{
		{"input", res.input},
		{"output", res.left},
	} {
		st := timestats.Calculate(row.data)
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.4f\n",
			row.name, st.RMS_dB, st.Peak_dB, st.CrestFactor_dB, st.DC)
	}

	return tw.Flush()
}

func printAnalysis(w io.Writer, cfg renderConfig, res rendered) error {
	winType, err := window.ParseType(cfg.window)
	if err != nil {
		return err
	}

	// Skip the first frames while the delay line still holds silence.
	skip := min(len(res.left), int(res.sampleRate/10))

	dev, estimates, err := pitch.Analyze(res.left[skip:], pitch.Config{
		SampleRate: res.sampleRate,
		WindowType: winType,
	})
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	expected := make([]string, len(res.expected))
	for i, d := range res.expected {
		expected[i] = fmt.Sprintf("%.4f", d)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Frames\tMin [Hz]\tMax [Hz]\tCenter [Hz]\tDepth [cents]\tDeviation\tExpected\n")
	fmt.Fprintf(tw, "------\t--------\t--------\t-----------\t-------------\t---------\t--------\n")
	fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t%.1f\t%.4f\t%s\n",
		len(estimates), dev.MinHz, dev.MaxHz, dev.CenterHz, dev.DepthCents, dev.Relative,
		strings.Join(expected, " -> "))

	return tw.Flush()
}
