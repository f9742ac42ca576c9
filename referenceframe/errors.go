package referenceframe

import "github.com/pkg/errors"

// NewIncorrectDoFError returns an error indicating that the number of inputs does not match the
// number of joints.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match number of joints, expected %d but got %d", expected, actual)
}

// NewOutOfLimitsError returns an error indicating that a joint input is outside of its limits.
func NewOutOfLimitsError(joint int, value float64, limit Limit) error {
	return errors.Errorf("input %d of %.5f is outside of limits [%.5f, %.5f]", joint, value, limit.Min, limit.Max)
}
