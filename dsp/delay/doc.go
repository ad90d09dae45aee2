// Package delay provides a fixed-capacity circular delay line with
// integer and fractional (interpolated) reads.
//
// The write cursor always points at the slot that is overwritten next; the
// most recent sample sits one slot behind it. Fractional reads keep a guard
// distance behind the cursor so that no interpolation tap ever observes a
// slot that is about to be overwritten.
package delay
