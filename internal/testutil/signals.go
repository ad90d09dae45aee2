// Package testutil provides deterministic test signals and tolerance checks
// shared by the package tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a sine starting at phase zero.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// ModulatedSine generates a sine whose instantaneous frequency follows
// carrierHz * (1 + deviation*sin(2*pi*rateHz*t)).
func ModulatedSine(carrierHz, rateHz, deviation, sampleRate float64, length int) []float64 {
	out := make([]float64, length)
	phase := 0.0
	for i := range out {
		t := float64(i) / sampleRate
		f := carrierHz * (1 + deviation*math.Sin(2*math.Pi*rateHz*t))
		out[i] = math.Sin(phase)
		phase += 2 * math.Pi * f / sampleRate
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Peak returns the largest absolute sample.
func Peak(data []float64) float64 {
	peak := 0.0
	for _, v := range data {
		peak = max(peak, math.Abs(v))
	}
	return peak
}
