// Package utils contains small numeric and environment helpers shared across packages.
package utils

import (
	"math"
	"math/rand"
)

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Clamp limits v to the closed interval [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// SampleRandomFloatRange samples a float uniformly from [lo, hi) using the given rand.Rand.
func SampleRandomFloatRange(lo, hi float64, r *rand.Rand) float64 {
	return lo + r.Float64()*(hi-lo)
}
