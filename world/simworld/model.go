package simworld

import (
	"github.com/golang/geo/r3"

	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/world"
)

// Box is a collision box. The pose is the box center.
type Box struct {
	Pose        spatialmath.Pose
	HalfExtents r3.Vector
}

// Model is the kinematic description of an articulated robot. Poses are relative to the robot
// base.
type Model interface {
	// Name is the robot name, used to look up its tool frame.
	Name() string
	DoF() []referenceframe.Limit
	LinkNames() []string
	LinkPose(link world.Link, inputs []referenceframe.Input) (spatialmath.Pose, error)
	Geometries(inputs []referenceframe.Input) ([]Box, error)
}
