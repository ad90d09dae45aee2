// Command vibratolive runs the default audio input through a vibrato and
// plays the result on the default output. Parameters are changed from an
// interactive prompt while audio runs.
//
// Usage:
//
//	vibratolive [flags]
//
// Prompt commands:
//
//	freq <hz>        modulation frequency
//	width <seconds>  sweep width
//	gain <db>        output gain
//	status           current parameters and output peak
//	help             list commands
//	quit
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/chzyer/readline"
	"github.com/gordonklaus/portaudio"

	"github.com/cwbudde/algo-vibrato/dsp/core"
	"github.com/cwbudde/algo-vibrato/dsp/effects/modulation"
	"github.com/cwbudde/algo-vibrato/internal/control"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("vibratolive: ")

	sampleRate := flag.Float64("sr", 48000, "stream sample rate in Hz")
	frames := flag.Int("frames", 256, "frames per buffer")
	freq := flag.Float64("freq", 2, "initial modulation frequency in Hz")
	width := flag.Float64("width", 0.008, "initial sweep width in seconds")
	gain := flag.Float64("gain", 0, "initial output gain in dB")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vibratolive [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Processes the default input device live. Type help at the prompt.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	v, err := modulation.NewVibrato(*sampleRate, *frames,
		modulation.WithVibratoFrequency(*freq),
		modulation.WithVibratoSweepWidth(*width),
		modulation.WithVibratoGainDB(*gain),
	)
	if err != nil {
		log.Fatal(err)
	}

	if err := portaudio.Initialize(); err != nil {
		log.Fatal(err)
	}
	defer portaudio.Terminate()

	s := newSession(v, *frames)

	stream, err := portaudio.OpenDefaultStream(1, 2, *sampleRate, *frames, s.process)
	if err != nil {
		log.Fatal(err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		log.Fatal(err)
	}
	defer stream.Stop()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:       "vibrato> ",
		AutoComplete: control.Completer(),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer rl.Close()

	if err := control.Run(rl, v, rl.Stdout()); err != nil {
		log.Print(err)
	}
}

// session adapts portaudio's float32 buffers to the float64 engine. The
// callback runs on the audio thread and only touches preallocated buffers.
type session struct {
	v     *modulation.Vibrato
	in    []float64
	left  []float64
	right []float64
}

func newSession(v *modulation.Vibrato, frames int) *session {
	return &session{
		v:     v,
		in:    make([]float64, frames),
		left:  make([]float64, frames),
		right: make([]float64, frames),
	}
}

func (s *session) process(in []float32, out [][]float32) {
	n := min(len(in), len(out[0]), len(s.in))

	core.Float32To64(s.in[:n], in[:n])
	if err := s.v.Process(s.in[:n], s.left[:n], s.right[:n]); err != nil {
		clear(out[0])
		clear(out[1])
		return
	}

	core.Float64To32(out[0], s.left[:n])
	core.Float64To32(out[1], s.right[:n])
}
