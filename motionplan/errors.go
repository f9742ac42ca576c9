package motionplan

import (
	"github.com/pkg/errors"

	"go.viam.com/manipulation/world"
)

// NewIKError returns an error indicating that no joint configuration reaches the target.
func NewIKError() error {
	return errors.New("unable to solve for position")
}

// NewPlannerFailedError returns an error indicating that no path was found.
func NewPlannerFailedError() error {
	return errors.New("motion planner failed to find path")
}

// NewCollisionError returns an error describing a collision found at a waypoint.
func NewCollisionError(waypoint int, a, b world.Body) error {
	return errors.Wrapf(NewPlannerFailedError(), "bodies %d and %d collide at waypoint %d", a, b, waypoint)
}
