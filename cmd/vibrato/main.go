// Command vibrato renders a WAV file or a test tone through the vibrato
// effect and optionally measures the resulting pitch deviation.
//
// Usage:
//
//	vibrato [flags]
//
// Examples:
//
//	vibrato -in voice.wav -out voice-vib.wav -freq 5 -width 0.004
//	vibrato -tone 1000 -duration 2 -analyze
//	vibrato -signal noise -levels -normalize 0.9 -out noise-vib.wav
//	vibrato -tone 440 -sweep-to 0.02 -sweep-at 1 -out sweep.wav
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("vibrato: ")

	var cfg renderConfig

	flag.StringVar(&cfg.in, "in", "", "input WAV file (mono or stereo, downmixed)")
	flag.StringVar(&cfg.out, "out", "", "output stereo WAV file")
	flag.StringVar(&cfg.source, "signal", "sine", "generated input when -in is not set: sine or noise")
	flag.Float64Var(&cfg.toneHz, "tone", 440, "test tone frequency in Hz for -signal sine")
	flag.Int64Var(&cfg.seed, "seed", 1, "random seed for -signal noise")
	flag.Float64Var(&cfg.duration, "duration", 2, "test tone duration in seconds")
	flag.Float64Var(&cfg.sampleRate, "sr", 48000, "test tone sample rate in Hz")
	flag.Float64Var(&cfg.freqHz, "freq", 2, "modulation frequency in Hz [0.01, 20]")
	flag.Float64Var(&cfg.width, "width", 0.008, "sweep width in seconds [0.0005, 0.4]")
	flag.Float64Var(&cfg.gainDB, "gain", 0, "output gain in dB [-30, 20]")
	flag.IntVar(&cfg.block, "block", 512, "processing block size in samples")
	flag.Float64Var(&cfg.sweepTo, "sweep-to", 0, "sweep width to switch to during rendering (0 disables)")
	flag.Float64Var(&cfg.sweepAt, "sweep-at", 1, "time in seconds of the -sweep-to change")
	flag.StringVar(&cfg.interp, "interp", "lagrange3", "interpolation: lagrange3, hermite or linear")
	flag.Float64Var(&cfg.normalize, "normalize", 0, "normalize the output to this peak amplitude (0 disables)")
	flag.BoolVar(&cfg.levels, "levels", false, "print input and output level statistics")
	flag.BoolVar(&cfg.analyze, "analyze", false, "track the output pitch and print its deviation")
	flag.StringVar(&cfg.window, "window", "hann", "analysis window for -analyze")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vibrato [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Renders audio through a vibrato and writes a stereo WAV file.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if cfg.out == "" && !cfg.analyze && !cfg.levels {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(cfg, os.Stdout); err != nil {
		log.Fatal(err)
	}
}
