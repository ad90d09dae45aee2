//go:build !fastmath

package modulation

// gainTolerance is the relative error allowed for dbToLinear.
const gainTolerance = 1e-12
