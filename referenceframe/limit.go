package referenceframe

import (
	"math"
	"math/rand"
)

// Limit represents the limits of motion for a joint.
type Limit struct {
	Min float64
	Max float64
}

// Within returns whether the value is inside the limit, inclusive.
func (l Limit) Within(value float64) bool {
	return value >= l.Min && value <= l.Max
}

// Clamp returns the closest value inside the limit.
func (l Limit) Clamp(value float64) float64 {
	return math.Min(math.Max(value, l.Min), l.Max)
}

// RandomInputs will produce a list of valid, in-bounds inputs for the given limits.
func RandomInputs(limits []Limit, rSeed *rand.Rand) []Input {
	if rSeed == nil {
		//nolint:gosec
		rSeed = rand.New(rand.NewSource(1))
	}
	pos := make([]Input, 0, len(limits))
	for _, lim := range limits {
		l, u := lim.Min, lim.Max

		// Default to [-999,999] as range if limits are infinite
		if l == math.Inf(-1) {
			l = -999
		}
		if u == math.Inf(1) {
			u = 999
		}

		jRange := math.Abs(u - l)
		pos = append(pos, Input{rSeed.Float64()*jRange + l})
	}
	return pos
}

// CheckInputsInLimits returns an error naming the first input outside of its limit.
func CheckInputsInLimits(inputs []Input, limits []Limit) error {
	if len(inputs) != len(limits) {
		return NewIncorrectDoFError(len(inputs), len(limits))
	}
	for i, in := range inputs {
		if !limits[i].Within(in.Value) {
			return NewOutOfLimitsError(i, in.Value, limits[i])
		}
	}
	return nil
}
