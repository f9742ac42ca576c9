package inject

import (
	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/world"
)

// World is an injected world.World. Unset functions fall through to the embedded World.
type World struct {
	world.World
	BodyNameFunc                 func(body world.Body) (string, error)
	PoseFunc                     func(body world.Body) (spatialmath.Pose, error)
	SetPoseFunc                  func(body world.Body, pose spatialmath.Pose) error
	LinkFromNameFunc             func(body world.Body, name string) (world.Link, error)
	LinkPoseFunc                 func(body world.Body, link world.Link) (spatialmath.Pose, error)
	MovableJointsFunc            func(body world.Body) ([]world.Joint, error)
	JointLimitsFunc              func(body world.Body, joints []world.Joint) ([]referenceframe.Limit, error)
	JointPositionsFunc           func(body world.Body, joints []world.Joint) ([]referenceframe.Input, error)
	SetJointPositionsFunc        func(body world.Body, joints []world.Joint, values []referenceframe.Input) error
	ApproximateAsPrismFunc       func(body world.Body, bodyPose spatialmath.Pose) (world.Prism, error)
	PairwiseCollisionFunc        func(a, b world.Body) (bool, error)
	AddFixedConstraintFunc       func(body, robot world.Body, link world.Link) error
	RemoveFixedConstraintFunc    func(body, robot world.Body, link world.Link) error
	SetRealTimeFunc              func(enabled bool) error
	EnableGravityFunc            func() error
	StepSimulationFunc           func() error
	SetJointTargetsFunc          func(body world.Body, joints []world.Joint, targets []referenceframe.Input) error
	JointsAtTargetFunc           func(body world.Body, joints []world.Joint) (bool, error)
	SampleReachablePlacementFunc func(body, surface world.Body, reach, theta world.Range) (spatialmath.Pose, error)
	StableZFunc                  func(body, surface world.Body) (float64, error)
}

// BodyName calls the injected BodyName or the real version.
func (w *World) BodyName(body world.Body) (string, error) {
	if w.BodyNameFunc == nil {
		return w.World.BodyName(body)
	}
	return w.BodyNameFunc(body)
}

// Pose calls the injected Pose or the real version.
func (w *World) Pose(body world.Body) (spatialmath.Pose, error) {
	if w.PoseFunc == nil {
		return w.World.Pose(body)
	}
	return w.PoseFunc(body)
}

// SetPose calls the injected SetPose or the real version.
func (w *World) SetPose(body world.Body, pose spatialmath.Pose) error {
	if w.SetPoseFunc == nil {
		return w.World.SetPose(body, pose)
	}
	return w.SetPoseFunc(body, pose)
}

// LinkFromName calls the injected LinkFromName or the real version.
func (w *World) LinkFromName(body world.Body, name string) (world.Link, error) {
	if w.LinkFromNameFunc == nil {
		return w.World.LinkFromName(body, name)
	}
	return w.LinkFromNameFunc(body, name)
}

// LinkPose calls the injected LinkPose or the real version.
func (w *World) LinkPose(body world.Body, link world.Link) (spatialmath.Pose, error) {
	if w.LinkPoseFunc == nil {
		return w.World.LinkPose(body, link)
	}
	return w.LinkPoseFunc(body, link)
}

// MovableJoints calls the injected MovableJoints or the real version.
func (w *World) MovableJoints(body world.Body) ([]world.Joint, error) {
	if w.MovableJointsFunc == nil {
		return w.World.MovableJoints(body)
	}
	return w.MovableJointsFunc(body)
}

// JointLimits calls the injected JointLimits or the real version.
func (w *World) JointLimits(body world.Body, joints []world.Joint) ([]referenceframe.Limit, error) {
	if w.JointLimitsFunc == nil {
		return w.World.JointLimits(body, joints)
	}
	return w.JointLimitsFunc(body, joints)
}

// JointPositions calls the injected JointPositions or the real version.
func (w *World) JointPositions(body world.Body, joints []world.Joint) ([]referenceframe.Input, error) {
	if w.JointPositionsFunc == nil {
		return w.World.JointPositions(body, joints)
	}
	return w.JointPositionsFunc(body, joints)
}

// SetJointPositions calls the injected SetJointPositions or the real version.
func (w *World) SetJointPositions(body world.Body, joints []world.Joint, values []referenceframe.Input) error {
	if w.SetJointPositionsFunc == nil {
		return w.World.SetJointPositions(body, joints, values)
	}
	return w.SetJointPositionsFunc(body, joints, values)
}

// ApproximateAsPrism calls the injected ApproximateAsPrism or the real version.
func (w *World) ApproximateAsPrism(body world.Body, bodyPose spatialmath.Pose) (world.Prism, error) {
	if w.ApproximateAsPrismFunc == nil {
		return w.World.ApproximateAsPrism(body, bodyPose)
	}
	return w.ApproximateAsPrismFunc(body, bodyPose)
}

// PairwiseCollision calls the injected PairwiseCollision or the real version.
func (w *World) PairwiseCollision(a, b world.Body) (bool, error) {
	if w.PairwiseCollisionFunc == nil {
		return w.World.PairwiseCollision(a, b)
	}
	return w.PairwiseCollisionFunc(a, b)
}

// AddFixedConstraint calls the injected AddFixedConstraint or the real version.
func (w *World) AddFixedConstraint(body, robot world.Body, link world.Link) error {
	if w.AddFixedConstraintFunc == nil {
		return w.World.AddFixedConstraint(body, robot, link)
	}
	return w.AddFixedConstraintFunc(body, robot, link)
}

// RemoveFixedConstraint calls the injected RemoveFixedConstraint or the real version.
func (w *World) RemoveFixedConstraint(body, robot world.Body, link world.Link) error {
	if w.RemoveFixedConstraintFunc == nil {
		return w.World.RemoveFixedConstraint(body, robot, link)
	}
	return w.RemoveFixedConstraintFunc(body, robot, link)
}

// SetRealTime calls the injected SetRealTime or the real version.
func (w *World) SetRealTime(enabled bool) error {
	if w.SetRealTimeFunc == nil {
		return w.World.SetRealTime(enabled)
	}
	return w.SetRealTimeFunc(enabled)
}

// EnableGravity calls the injected EnableGravity or the real version.
func (w *World) EnableGravity() error {
	if w.EnableGravityFunc == nil {
		return w.World.EnableGravity()
	}
	return w.EnableGravityFunc()
}

// StepSimulation calls the injected StepSimulation or the real version.
func (w *World) StepSimulation() error {
	if w.StepSimulationFunc == nil {
		return w.World.StepSimulation()
	}
	return w.StepSimulationFunc()
}

// SetJointTargets calls the injected SetJointTargets or the real version.
func (w *World) SetJointTargets(body world.Body, joints []world.Joint, targets []referenceframe.Input) error {
	if w.SetJointTargetsFunc == nil {
		return w.World.SetJointTargets(body, joints, targets)
	}
	return w.SetJointTargetsFunc(body, joints, targets)
}

// JointsAtTarget calls the injected JointsAtTarget or the real version.
func (w *World) JointsAtTarget(body world.Body, joints []world.Joint) (bool, error) {
	if w.JointsAtTargetFunc == nil {
		return w.World.JointsAtTarget(body, joints)
	}
	return w.JointsAtTargetFunc(body, joints)
}

// SampleReachablePlacement calls the injected SampleReachablePlacement or the real version.
func (w *World) SampleReachablePlacement(body, surface world.Body, reach, theta world.Range) (spatialmath.Pose, error) {
	if w.SampleReachablePlacementFunc == nil {
		return w.World.SampleReachablePlacement(body, surface, reach, theta)
	}
	return w.SampleReachablePlacementFunc(body, surface, reach, theta)
}

// StableZ calls the injected StableZ or the real version.
func (w *World) StableZ(body, surface world.Body) (float64, error) {
	if w.StableZFunc == nil {
		return w.World.StableZ(body, surface)
	}
	return w.StableZFunc(body, surface)
}
