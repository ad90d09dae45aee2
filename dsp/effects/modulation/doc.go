// Package modulation provides modulated-delay effects.
//
// [Vibrato] reads a circular delay line at a position swept by a sine LFO,
// producing periodic pitch modulation without any dry signal. Sweep width
// changes are crossfaded with equal-power weights between the previous and
// the new width so the read head never jumps. The mono result is written
// identically to both output channels.
//
// Parameters are published through [param.Float] values and may be set from
// any goroutine while another goroutine runs Process.
package modulation
