//go:build fastmath

package modulation

import (
	"github.com/meko-christian/algo-approx"
)

// ln10Over20 converts decibels to a natural exponent.
const ln10Over20 = 0.115129254649702284200899572734

// dbToLinear converts decibels to a linear factor using fast approximation.
// Uses the identity: 10^(db/20) = e^(db * ln(10) / 20)
func dbToLinear(db float64) float64 {
	return approx.FastExp(db * ln10Over20)
}
