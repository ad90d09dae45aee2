// Package interp provides the interpolation kernels used by fractional delay reads.
//
// Available methods, from cheapest to highest quality:
//
//   - [Linear2]:   2-point linear interpolation
//   - [Hermite4]:  4-point cubic Hermite (Catmull-Rom)
//   - [Lagrange4]: 4-point cubic Lagrange, exact on cubic polynomials
//
// All 4-point kernels take the taps around the read position as
// (xm1, x0, x1, x2) and a fraction t in [0, 1) measured from x0 towards x1.
// The [Mode] enum selects a kernel at delay-line construction time.
package interp
