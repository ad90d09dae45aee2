// Package smooth provides one-pole parameter smoothing for control values
// that are read once per sample.
package smooth

import (
	"fmt"
	"math"
)

// DefaultRetention is the fraction of the previous smoothed value kept per sample.
const DefaultRetention = 0.95

// OnePole slews towards a target with smoothed = (1-k)*target + k*smoothed.
//
// The update is evaluated as smoothed += (1-k)*(target-smoothed), which is the
// same recurrence but leaves a settled value bit-identical, and never steps
// past the target.
type OnePole struct {
	retention float64
	value     float64
}

// NewOnePole returns a smoother with retention k in [0, 1) starting at initial.
func NewOnePole(retention, initial float64) (*OnePole, error) {
	if retention < 0 || retention >= 1 || math.IsNaN(retention) {
		return nil, fmt.Errorf("smoother retention must be in [0, 1): %f", retention)
	}
	return &OnePole{retention: retention, value: initial}, nil
}

// RetentionForTime returns the per-sample retention of a one-pole filter with
// time constant tauSeconds at sampleRate. tau <= 0 disables smoothing.
func RetentionForTime(tauSeconds, sampleRate float64) float64 {
	if tauSeconds <= 0 || sampleRate <= 0 {
		return 0
	}
	return math.Exp(-1 / (tauSeconds * sampleRate))
}

// Next advances one sample towards target and returns the smoothed value.
func (s *OnePole) Next(target float64) float64 {
	s.value += (1 - s.retention) * (target - s.value)
	return s.value
}

// Value returns the current smoothed value without advancing.
func (s *OnePole) Value() float64 {
	return s.value
}

// Reset jumps to v with no slew.
func (s *OnePole) Reset(v float64) {
	s.value = v
}

// Retention returns k.
func (s *OnePole) Retention() float64 {
	return s.retention
}

// SettleSamples returns how many samples a step needs to decay below
// fraction tol of its size, e.g. tol = 0.001 for -60 dB.
func (s *OnePole) SettleSamples(tol float64) int {
	if s.retention == 0 || tol >= 1 {
		return 0
	}
	if tol <= 0 {
		tol = 1e-12
	}
	return int(math.Ceil(math.Log(tol) / math.Log(s.retention)))
}
