//go:build !fastmath

package modulation

import "math"

// dbToLinear converts decibels to a linear factor using standard library math.
func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}
