package inject

import (
	"context"

	"go.viam.com/manipulation/motionplan"
	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/world"
)

// IKSolver is an injected motionplan.IKSolver.
type IKSolver struct {
	motionplan.IKSolver
	SolveFunc func(
		ctx context.Context,
		w world.State,
		robot world.Body,
		link world.Link,
		target spatialmath.Pose,
	) ([]referenceframe.Input, error)
}

// Solve calls the injected Solve or the real version.
func (ik *IKSolver) Solve(
	ctx context.Context,
	w world.State,
	robot world.Body,
	link world.Link,
	target spatialmath.Pose,
) ([]referenceframe.Input, error) {
	if ik.SolveFunc == nil {
		return ik.IKSolver.Solve(ctx, w, robot, link, target)
	}
	return ik.SolveFunc(ctx, w, robot, link, target)
}

// Planner is an injected motionplan.Planner.
type Planner struct {
	motionplan.Planner
	PlanJointMotionFunc func(ctx context.Context, w world.World, req *motionplan.PlanRequest) (
		[][]referenceframe.Input, error)
	PlanDirectJointMotionFunc func(ctx context.Context, w world.World, req *motionplan.PlanRequest) (
		[][]referenceframe.Input, error)
	PlanInterpolatedJointMotionFunc func(ctx context.Context, w world.World, req *motionplan.PlanRequest) (
		[][]referenceframe.Input, error)
}

// PlanJointMotion calls the injected PlanJointMotion or the real version.
func (p *Planner) PlanJointMotion(
	ctx context.Context,
	w world.World,
	req *motionplan.PlanRequest,
) ([][]referenceframe.Input, error) {
	if p.PlanJointMotionFunc == nil {
		return p.Planner.PlanJointMotion(ctx, w, req)
	}
	return p.PlanJointMotionFunc(ctx, w, req)
}

// PlanDirectJointMotion calls the injected PlanDirectJointMotion or the real version.
func (p *Planner) PlanDirectJointMotion(
	ctx context.Context,
	w world.World,
	req *motionplan.PlanRequest,
) ([][]referenceframe.Input, error) {
	if p.PlanDirectJointMotionFunc == nil {
		return p.Planner.PlanDirectJointMotion(ctx, w, req)
	}
	return p.PlanDirectJointMotionFunc(ctx, w, req)
}

// PlanInterpolatedJointMotion calls the injected PlanInterpolatedJointMotion or the real version.
func (p *Planner) PlanInterpolatedJointMotion(
	ctx context.Context,
	w world.World,
	req *motionplan.PlanRequest,
) ([][]referenceframe.Input, error) {
	if p.PlanInterpolatedJointMotionFunc == nil {
		return p.Planner.PlanInterpolatedJointMotion(ctx, w, req)
	}
	return p.PlanInterpolatedJointMotionFunc(ctx, w, req)
}

// Refiner is an injected motionplan.Refiner.
type Refiner struct {
	motionplan.Refiner
	RefineFunc func(
		w world.State,
		body world.Body,
		joints []world.Joint,
		path [][]referenceframe.Input,
		numSteps int,
	) ([][]referenceframe.Input, error)
}

// Refine calls the injected Refine or the real version.
func (r *Refiner) Refine(
	w world.State,
	body world.Body,
	joints []world.Joint,
	path [][]referenceframe.Input,
	numSteps int,
) ([][]referenceframe.Input, error) {
	if r.RefineFunc == nil {
		return r.Refiner.Refine(w, body, joints, path, numSteps)
	}
	return r.RefineFunc(w, body, joints, path, numSteps)
}
