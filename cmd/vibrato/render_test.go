package main

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-vibrato/internal/wavio"
	timestats "github.com/cwbudde/algo-vibrato/stats/time"
)

func testConfig() renderConfig {
	return renderConfig{
		toneHz:     1000,
		duration:   1,
		sampleRate: 48000,
		freqHz:     2,
		width:      0.008,
		block:      512,
		interp:     "lagrange3",
		window:     "hann",
	}
}

func TestRunWritesStereoFile(t *testing.T) {
	cfg := testConfig()
	cfg.out = filepath.Join(t.TempDir(), "out.wav")

	var stdout bytes.Buffer
	require.NoError(t, run(cfg, &stdout))
	assert.Contains(t, stdout.String(), "rendered 48000 samples")

	clip, err := wavio.ReadFile(cfg.out)
	require.NoError(t, err)
	assert.Equal(t, 48000, clip.SampleRate)
	require.Len(t, clip.Channels, 2)
	assert.Equal(t, 48000, clip.Frames())
	assert.Equal(t, clip.Channels[0], clip.Channels[1])
}

func TestRunReadsInputFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")

	tone := make([]float64, 4410)
	for i := range tone {
		tone[i] = 0.25
	}
	require.NoError(t, wavio.WriteFile(in, wavio.Clip{SampleRate: 44100, Channels: [][]float64{tone}}))

	cfg := testConfig()
	cfg.in = in
	cfg.out = filepath.Join(dir, "out.wav")

	var stdout bytes.Buffer
	require.NoError(t, run(cfg, &stdout))
	assert.Contains(t, stdout.String(), "rendered 4410 samples at 44100 Hz")
}

func TestRenderSweepStartsTransition(t *testing.T) {
	cfg := testConfig()
	cfg.sweepTo = 0.02
	cfg.sweepAt = 0.5

	input, sr, err := loadInput(cfg)
	require.NoError(t, err)

	res, err := render(cfg, input, sr)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.transitions, 1)
	assert.Len(t, res.left, 48000)

	cfg.sweepTo = 0
	res, err = render(cfg, input, sr)
	require.NoError(t, err)
	assert.Zero(t, res.transitions)
}

func TestRunAnalyze(t *testing.T) {
	cfg := testConfig()
	cfg.duration = 2
	cfg.analyze = true

	var stdout bytes.Buffer
	require.NoError(t, run(cfg, &stdout))

	out := stdout.String()
	assert.Contains(t, out, "Depth [cents]")
	assert.Contains(t, out, "0.0503")
	assert.Equal(t, 4, strings.Count(out, "\n"))
}

func TestRunRejectsBadConfig(t *testing.T) {
	var stdout bytes.Buffer

	cfg := testConfig()
	cfg.duration = 0
	assert.Error(t, run(cfg, &stdout))

	cfg = testConfig()
	cfg.block = 0
	assert.Error(t, run(cfg, &stdout))

	cfg = testConfig()
	cfg.interp = "sinc"
	assert.Error(t, run(cfg, &stdout))

	cfg = testConfig()
	cfg.analyze = true
	cfg.window = "kaiser"
	assert.Error(t, run(cfg, &stdout))

	cfg = testConfig()
	cfg.source = "pink"
	assert.Error(t, run(cfg, &stdout))

	cfg = testConfig()
	cfg.toneHz = 30000
	assert.Error(t, run(cfg, &stdout))

	cfg = testConfig()
	cfg.in = filepath.Join(t.TempDir(), "missing.wav")
	assert.Error(t, run(cfg, &stdout))
}

func TestRunLevelsAndNormalize(t *testing.T) {
	cfg := testConfig()
	cfg.source = "noise"
	cfg.seed = 7
	cfg.levels = true
	cfg.normalize = 0.9
	cfg.out = filepath.Join(t.TempDir(), "noise.wav")

	var stdout bytes.Buffer
	require.NoError(t, run(cfg, &stdout))

	out := stdout.String()
	assert.Contains(t, out, "Crest [dB]")
	assert.Contains(t, out, "input")
	assert.Contains(t, out, "output")
	assert.Contains(t, out, "-0.92")

	clip, err := wavio.ReadFile(cfg.out)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, timestats.Peak(clip.Channels[0]), 1e-3)
}

func TestLoadInputNoiseIsDeterministic(t *testing.T) {
	cfg := testConfig()
	cfg.source = "noise"
	cfg.seed = 3

	a, sr, err := loadInput(cfg)
	require.NoError(t, err)
	assert.Equal(t, 48000.0, sr)

	b, _, err := loadInput(cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.LessOrEqual(t, timestats.Peak(a), 0.5)
}

func TestRenderExpectedDeviationUsesEngineParameters(t *testing.T) {
	cfg := testConfig()
	cfg.sweepTo = 1
	cfg.sweepAt = 0.5

	input, sr, err := loadInput(cfg)
	require.NoError(t, err)

	res, err := render(cfg, input, sr)
	require.NoError(t, err)
	require.Len(t, res.expected, 2)
	assert.InDelta(t, math.Pi*2*0.008, res.expected[0], 1e-12)
	assert.InDelta(t, math.Pi*2*0.4, res.expected[1], 1e-12)
}

func TestRunAnalyzeShowsBothSweepWidths(t *testing.T) {
	cfg := testConfig()
	cfg.duration = 2
	cfg.analyze = true
	cfg.sweepTo = 0.02
	cfg.sweepAt = 1

	var stdout bytes.Buffer
	require.NoError(t, run(cfg, &stdout))
	assert.Contains(t, stdout.String(), "0.0503 -> 0.1257")
}
