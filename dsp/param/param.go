// Package param holds user-controlled parameter values that are written from
// a control goroutine and read from the audio path without locks.
package param

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"

	"github.com/cwbudde/algo-vibrato/dsp/core"
)

// Range bounds a parameter and names its default.
type Range struct {
	Min     float64
	Max     float64
	Default float64
}

// Validate checks that the range is finite, ordered and contains its default.
func (r Range) Validate() error {
	for _, v := range []float64{r.Min, r.Max, r.Default} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("parameter range must be finite: %+v", r)
		}
	}
	if r.Min > r.Max {
		return fmt.Errorf("parameter range min %g exceeds max %g", r.Min, r.Max)
	}
	if r.Default < r.Min || r.Default > r.Max {
		return fmt.Errorf("parameter default %g outside [%g, %g]", r.Default, r.Min, r.Max)
	}
	return nil
}

// Clamp limits v to [Min, Max].
func (r Range) Clamp(v float64) float64 {
	return core.Clamp(v, r.Min, r.Max)
}

// Float is a bounded float64 parameter published with atomic stores.
type Float struct {
	name string
	unit string
	rng  Range
	bits atomic.Uint64
}

// NewFloat creates a parameter holding its range default.
func NewFloat(name, unit string, rng Range) (*Float, error) {
	if err := rng.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	p := &Float{name: name, unit: unit, rng: rng}
	p.bits.Store(math.Float64bits(rng.Default))
	return p, nil
}

// Name returns the parameter name.
func (p *Float) Name() string { return p.name }

// Unit returns the display unit, e.g. "Hz".
func (p *Float) Unit() string { return p.unit }

// Range returns the parameter bounds.
func (p *Float) Range() Range { return p.rng }

// Load returns the most recently published value.
func (p *Float) Load() float64 {
	return math.Float64frombits(p.bits.Load())
}

// Set clamps v into range and publishes it. Non-finite values are dropped
// and Set reports false.
func (p *Float) Set(v float64) bool {
	if !core.IsFinite(v) {
		return false
	}
	p.bits.Store(math.Float64bits(p.rng.Clamp(v)))
	return true
}

// Reset publishes the default value.
func (p *Float) Reset() {
	p.bits.Store(math.Float64bits(p.rng.Default))
}

// String formats the parameter as "name=value unit".
func (p *Float) String() string {
	s := p.name + "=" + strconv.FormatFloat(p.Load(), 'g', 6, 64)
	if p.unit != "" {
		s += " " + p.unit
	}
	return s
}
