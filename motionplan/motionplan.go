// Package motionplan defines the inverse kinematics, joint-space planning and path refinement
// collaborators used to turn geometric goals into joint trajectories, along with a straight-line
// reference planner.
package motionplan

import (
	"context"

	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/world"
)

// IKSolver solves for the joint values that put a robot link at a target pose. The seed is the
// robot's current joint state. On success the robot is left at the returned configuration;
// failure is reported with an error created by NewIKError.
type IKSolver interface {
	Solve(
		ctx context.Context,
		w world.State,
		robot world.Body,
		link world.Link,
		target spatialmath.Pose,
	) ([]referenceframe.Input, error)
}

// IKSolverFunc adapts a function to an IKSolver.
type IKSolverFunc func(
	ctx context.Context,
	w world.State,
	robot world.Body,
	link world.Link,
	target spatialmath.Pose,
) ([]referenceframe.Input, error)

// Solve calls f.
func (f IKSolverFunc) Solve(
	ctx context.Context,
	w world.State,
	robot world.Body,
	link world.Link,
	target spatialmath.Pose,
) ([]referenceframe.Input, error) {
	return f(ctx, w, robot, link, target)
}

// PlanRequest describes a joint-space motion from the robot's current joint state to Goal.
type PlanRequest struct {
	Robot  world.Body
	Joints []world.Joint
	Goal   []referenceframe.Input

	// Obstacles are checked against the robot and against every attached body.
	Obstacles []world.Body
	// Attachments are carried along the path and collision checked.
	Attachments []*world.Attachment
	// SelfCollisions asks planners that model the robot's links separately to check them against
	// each other. LinearPlanner checks the robot as a single body and ignores it.
	SelfCollisions bool
}

// Planner plans collision free joint-space paths. Every returned path starts at the current
// configuration and ends at the goal.
type Planner interface {
	// PlanJointMotion plans a path that may deviate from a straight line.
	PlanJointMotion(ctx context.Context, w world.World, req *PlanRequest) ([][]referenceframe.Input, error)
	// PlanDirectJointMotion returns the straight joint-space line, or an error if it is blocked.
	PlanDirectJointMotion(ctx context.Context, w world.World, req *PlanRequest) ([][]referenceframe.Input, error)
	// PlanInterpolatedJointMotion returns sparse waypoints whose straight interpolation is collision free.
	PlanInterpolatedJointMotion(ctx context.Context, w world.World, req *PlanRequest) ([][]referenceframe.Input, error)
}

// Refiner densifies a path, keeping its first and last waypoints.
type Refiner interface {
	Refine(
		w world.State,
		body world.Body,
		joints []world.Joint,
		path [][]referenceframe.Input,
		numSteps int,
	) ([][]referenceframe.Input, error)
}
