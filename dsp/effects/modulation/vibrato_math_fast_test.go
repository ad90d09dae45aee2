//go:build fastmath

package modulation

// gainTolerance is the relative error allowed for dbToLinear. FastExp keeps
// about five decimal digits.
const gainTolerance = 1e-5
