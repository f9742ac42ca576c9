// Package world defines the contract of the rigid-body engine that stores and mutates body poses
// and joint state. Every read and write of the shared scene goes through a World value so the
// dependency on shared mutable state is visible in each signature.
package world

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/spatialmath"
)

type (
	// Body is a handle to a rigid body or articulated robot known to the engine.
	Body int
	// Link is a link index within an articulated body. BaseLink addresses the root.
	Link int
	// Joint is a joint index within an articulated body.
	Joint int
)

// BaseLink addresses the root link of a body.
const BaseLink Link = -1

var (
	// ErrNoPlacement is returned by a placement sampler that could not find a pose.
	ErrNoPlacement = errors.New("no placement found")
	// ErrUnknownBody is returned for handles the engine does not know about.
	ErrUnknownBody = errors.New("unknown body")
)

// NewUnknownBodyError wraps ErrUnknownBody with the offending handle.
func NewUnknownBodyError(body Body) error {
	return errors.Wrapf(ErrUnknownBody, "body %d", body)
}

// NewUnknownLinkError returns an error for a link name the body does not have.
func NewUnknownLinkError(body Body, name string) error {
	return errors.Errorf("body %d has no link %q", body, name)
}

// Range is a closed interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Prism is an axis aligned bounding box approximation of a body. Center is in the world frame.
type Prism struct {
	Center      r3.Vector
	HalfExtents r3.Vector
}

// State reads and writes body poses and joint values.
type State interface {
	BodyName(body Body) (string, error)
	Pose(body Body) (spatialmath.Pose, error)
	SetPose(body Body, pose spatialmath.Pose) error

	LinkFromName(body Body, name string) (Link, error)
	LinkPose(body Body, link Link) (spatialmath.Pose, error)

	MovableJoints(body Body) ([]Joint, error)
	JointLimits(body Body, joints []Joint) ([]referenceframe.Limit, error)
	JointPositions(body Body, joints []Joint) ([]referenceframe.Input, error)
	SetJointPositions(body Body, joints []Joint, values []referenceframe.Input) error

	// ApproximateAsPrism returns the bounding prism of the body as if it were placed at bodyPose.
	ApproximateAsPrism(body Body, bodyPose spatialmath.Pose) (Prism, error)
}

// CollisionChecker answers pairwise collision queries against the current state.
type CollisionChecker interface {
	PairwiseCollision(a, b Body) (bool, error)
}

// ConstraintManager creates and removes rigid couplings between bodies and robot links.
type ConstraintManager interface {
	AddFixedConstraint(body, robot Body, link Link) error
	RemoveFixedConstraint(body, robot Body, link Link) error
}

// Simulator advances the physical simulation.
type Simulator interface {
	SetRealTime(enabled bool) error
	EnableGravity() error
	StepSimulation() error
	SetJointTargets(body Body, joints []Joint, targets []referenceframe.Input) error
	JointsAtTarget(body Body, joints []Joint) (bool, error)
}

// PlacementSampler proposes resting poses of one body on another.
type PlacementSampler interface {
	// SampleReachablePlacement samples a pose of body resting on surface whose horizontal distance
	// from the robot base is within reach and whose bearing is within theta. It returns
	// ErrNoPlacement when no pose was found.
	SampleReachablePlacement(body, surface Body, reach, theta Range) (spatialmath.Pose, error)
	// StableZ returns the height of body's origin when resting on surface.
	StableZ(body, surface Body) (float64, error)
}

// World is the complete engine contract.
type World interface {
	State
	CollisionChecker
	ConstraintManager
	Simulator
	PlacementSampler
}
