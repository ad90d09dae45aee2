// Package wavio reads and writes PCM WAV clips as float64 channels.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/youpy/go-wav"
)

const (
	// DefaultBitsPerSample is used when a Clip leaves BitsPerSample unset.
	DefaultBitsPerSample = 16

	readChunk = 4096
)

var (
	// ErrNoChannels reports a clip without audio channels.
	ErrNoChannels = errors.New("wavio: clip has no channels")
	// ErrChannelCount reports more channels than the WAV codec carries.
	ErrChannelCount = errors.New("wavio: only mono and stereo are supported")
	// ErrRaggedChannels reports channels of different lengths.
	ErrRaggedChannels = errors.New("wavio: channel lengths differ")
)

// Source is what the WAV decoder needs to walk RIFF chunks.
type Source interface {
	io.Reader
	io.ReaderAt
}

// Clip is decoded audio with one slice per channel, samples in [-1, 1].
type Clip struct {
	SampleRate    int
	BitsPerSample int
	Channels      [][]float64
}

// Frames returns the per-channel sample count.
func (c Clip) Frames() int {
	if len(c.Channels) == 0 {
		return 0
	}
	return len(c.Channels[0])
}

// Mono averages all channels into one.
func (c Clip) Mono() []float64 {
	if len(c.Channels) == 1 {
		return c.Channels[0]
	}

	out := make([]float64, c.Frames())
	if len(c.Channels) == 0 {
		return out
	}

	scale := 1 / float64(len(c.Channels))
	for _, ch := range c.Channels {
		for i, v := range ch {
			out[i] += v * scale
		}
	}

	return out
}

// Decode reads a whole WAV stream.
func Decode(src Source) (Clip, error) {
	r := wav.NewReader(src)

	format, err := r.Format()
	if err != nil {
		return Clip{}, fmt.Errorf("wavio: read format: %w", err)
	}

	numChannels := int(format.NumChannels)
	if numChannels < 1 || numChannels > 2 {
		return Clip{}, fmt.Errorf("%w: %d", ErrChannelCount, numChannels)
	}

	clip := Clip{
		SampleRate:    int(format.SampleRate),
		BitsPerSample: int(format.BitsPerSample),
		Channels:      make([][]float64, numChannels),
	}

	for {
		samples, err := r.ReadSamples(readChunk)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Clip{}, fmt.Errorf("wavio: read samples: %w", err)
		}

		for _, s := range samples {
			for ch := range clip.Channels {
				clip.Channels[ch] = append(clip.Channels[ch], r.FloatValue(s, uint(ch)))
			}
		}
	}

	return clip, nil
}

// Encode writes clip as integer PCM.
func Encode(w io.Writer, clip Clip) error {
	if len(clip.Channels) == 0 {
		return ErrNoChannels
	}
	if len(clip.Channels) > 2 {
		return fmt.Errorf("%w: %d", ErrChannelCount, len(clip.Channels))
	}

	frames := clip.Frames()
	for _, ch := range clip.Channels[1:] {
		if len(ch) != frames {
			return ErrRaggedChannels
		}
	}

	if clip.SampleRate <= 0 {
		return fmt.Errorf("wavio: sample rate must be > 0: %d", clip.SampleRate)
	}

	bits := clip.BitsPerSample
	if bits == 0 {
		bits = DefaultBitsPerSample
	}
	if bits != 16 && bits != 24 {
		return fmt.Errorf("wavio: unsupported bit depth %d", bits)
	}

	writer := wav.NewWriter(w, uint32(frames), uint16(len(clip.Channels)), uint32(clip.SampleRate), uint16(bits))

	fullScale := math.Exp2(float64(bits-1)) - 1
	samples := make([]wav.Sample, 0, min(frames, readChunk))

	for start := 0; start < frames; start += readChunk {
		end := min(start+readChunk, frames)
		samples = samples[:0]

		for i := start; i < end; i++ {
			var s wav.Sample
			for ch, data := range clip.Channels {
				s.Values[ch] = quantize(data[i], fullScale)
			}
			samples = append(samples, s)
		}

		if err := writer.WriteSamples(samples); err != nil {
			return fmt.Errorf("wavio: write samples: %w", err)
		}
	}

	return nil
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return Clip{}, err
	}
	defer f.Close()

	return Decode(f)
}

// WriteFile encodes clip into a new file at path.
func WriteFile(path string, clip Clip) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return Encode(f, clip)
}

// quantize clips x to [-1, 1] and scales it to a signed integer.
func quantize(x, fullScale float64) int {
	if math.IsNaN(x) {
		return 0
	}
	x = max(-1, min(1, x))
	return int(math.Round(x * fullScale))
}
