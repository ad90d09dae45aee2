// Package lfo provides a normalized phase accumulator and the delay law that
// turns its phase into a modulated delay time.
package lfo

import (
	"math"
)

// Phase is a normalized oscillator phase in [0, 1).
type Phase struct {
	value float64
}

// Value returns the current phase in [0, 1).
func (p *Phase) Value() float64 {
	return p.value
}

// Reset sets the phase back to 0.
func (p *Phase) Reset() {
	p.value = 0
}

// Advance steps the phase by freqHz/sampleRate and wraps it into [0, 1).
func (p *Phase) Advance(freqHz, sampleRate float64) {
	p.Step(freqHz / sampleRate)
}

// Step adds a normalized increment. Increments below 1 wrap by subtracting
// exactly 1; larger ones drop their whole cycles.
func (p *Phase) Step(increment float64) {
	p.value += increment
	if p.value >= 1 || p.value < 0 {
		p.value -= math.Floor(p.value)
		if p.value >= 1 {
			p.value = 0
		}
	}
}

// Unipolar maps a phase to 0.5 + 0.5*sin(2*pi*phase), a value in [0, 1].
func Unipolar(phase float64) float64 {
	return 0.5 + 0.5*math.Sin(2*math.Pi*phase)
}

// Delay returns the modulated delay for sweep width w at the given phase:
// w * (0.5 + 0.5*sin(2*pi*phase)), always within [0, w] for w >= 0.
func Delay(width, phase float64) float64 {
	return width * Unipolar(phase)
}
