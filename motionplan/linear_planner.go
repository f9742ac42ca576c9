package motionplan

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.opencensus.io/trace"

	"go.viam.com/manipulation/logging"
	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/world"
)

// LinearPlanner plans straight joint-space lines, checking collisions at a fixed resolution. It
// never searches around obstacles: a blocked line is a planning failure.
type LinearPlanner struct {
	opts   *PlannerOptions
	logger logging.Logger
}

// NewLinearPlanner returns a LinearPlanner. Nil options use NewBasicPlannerOptions.
func NewLinearPlanner(logger logging.Logger, opts *PlannerOptions) *LinearPlanner {
	if opts == nil {
		opts = NewBasicPlannerOptions()
	}
	return &LinearPlanner{opts: opts, logger: logger}
}

// PlanJointMotion plans the straight line from the current configuration to the goal.
func (lp *LinearPlanner) PlanJointMotion(
	ctx context.Context,
	w world.World,
	req *PlanRequest,
) ([][]referenceframe.Input, error) {
	ctx, span := trace.StartSpan(ctx, "PlanJointMotion")
	defer span.End()
	return lp.plan(ctx, w, req, lp.opts.Resolution)
}

// PlanDirectJointMotion returns every checked waypoint of the straight line.
func (lp *LinearPlanner) PlanDirectJointMotion(
	ctx context.Context,
	w world.World,
	req *PlanRequest,
) ([][]referenceframe.Input, error) {
	ctx, span := trace.StartSpan(ctx, "PlanDirectJointMotion")
	defer span.End()
	return lp.plan(ctx, w, req, lp.opts.Resolution)
}

// PlanInterpolatedJointMotion checks the line at full resolution but returns waypoints spaced by
// the interpolation resolution. The result is meant to be refined before execution.
func (lp *LinearPlanner) PlanInterpolatedJointMotion(
	ctx context.Context,
	w world.World,
	req *PlanRequest,
) ([][]referenceframe.Input, error) {
	ctx, span := trace.StartSpan(ctx, "PlanInterpolatedJointMotion")
	defer span.End()
	dense, err := lp.plan(ctx, w, req, lp.opts.Resolution)
	if err != nil {
		return nil, err
	}
	return lp.sparsify(dense), nil
}

func (lp *LinearPlanner) plan(
	ctx context.Context,
	w world.World,
	req *PlanRequest,
	resolution float64,
) ([][]referenceframe.Input, error) {
	if lp.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, lp.opts.timeoutDuration())
		defer cancel()
	}

	if len(req.Goal) != len(req.Joints) {
		return nil, referenceframe.NewIncorrectDoFError(len(req.Goal), len(req.Joints))
	}
	limits, err := w.JointLimits(req.Robot, req.Joints)
	if err != nil {
		return nil, err
	}
	if err := referenceframe.CheckInputsInLimits(req.Goal, limits); err != nil {
		return nil, errors.Wrap(NewPlannerFailedError(), err.Error())
	}
	start, err := w.JointPositions(req.Robot, req.Joints)
	if err != nil {
		return nil, err
	}

	path, err := interpolateLine(start, req.Goal, resolution, lp.opts.MaxWaypoints)
	if err != nil {
		return nil, err
	}

	// Leave the robot and its attachments where they started.
	defer func() {
		if err := w.SetJointPositions(req.Robot, req.Joints, start); err != nil {
			lp.logger.Warnw("failed to restore joint positions after planning", "error", err)
			return
		}
		for _, a := range req.Attachments {
			if _, err := a.Assign(w); err != nil {
				lp.logger.Warnw("failed to restore attachment after planning", "error", err)
			}
		}
	}()

	checker := newCollisionChecker(req)
	for i, waypoint := range path {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := w.SetJointPositions(req.Robot, req.Joints, waypoint); err != nil {
			return nil, err
		}
		for _, a := range req.Attachments {
			if _, err := a.Assign(w); err != nil {
				return nil, err
			}
		}
		if err := checker.check(w, i); err != nil {
			lp.logger.Debugw("straight line blocked", "waypoint", i, "of", len(path), "error", err)
			return nil, err
		}
	}
	return path, nil
}

// sparsify keeps the endpoints and every waypoint that is at least the interpolation resolution
// away from the last kept one.
func (lp *LinearPlanner) sparsify(dense [][]referenceframe.Input) [][]referenceframe.Input {
	if len(dense) <= 2 {
		return dense
	}
	sparse := [][]referenceframe.Input{dense[0]}
	for _, waypoint := range dense[1 : len(dense)-1] {
		if maxJointDelta(sparse[len(sparse)-1], waypoint) >= lp.opts.InterpolationResolution {
			sparse = append(sparse, waypoint)
		}
	}
	return append(sparse, dense[len(dense)-1])
}

type collisionChecker struct {
	pairs [][2]world.Body
}

func newCollisionChecker(req *PlanRequest) *collisionChecker {
	held := lo.Map(req.Attachments, func(a *world.Attachment, _ int) world.Body { return a.Child })
	moving := append([]world.Body{req.Robot}, held...)
	obstacles := lo.Uniq(lo.Filter(req.Obstacles, func(b world.Body, _ int) bool {
		return !lo.Contains(moving, b)
	}))

	c := &collisionChecker{}
	for _, m := range moving {
		for _, o := range obstacles {
			c.pairs = append(c.pairs, [2]world.Body{m, o})
		}
	}
	return c
}

func (c *collisionChecker) check(w world.CollisionChecker, waypoint int) error {
	for _, pair := range c.pairs {
		collides, err := w.PairwiseCollision(pair[0], pair[1])
		if err != nil {
			return err
		}
		if collides {
			return NewCollisionError(waypoint, pair[0], pair[1])
		}
	}
	return nil
}

// interpolateLine returns evenly spaced waypoints from start to goal, inclusive, such that no joint
// moves more than resolution between consecutive waypoints.
func interpolateLine(start, goal []referenceframe.Input, resolution float64, maxWaypoints int) ([][]referenceframe.Input, error) {
	steps := int(math.Ceil(maxJointDelta(start, goal) / resolution))
	if steps+1 > maxWaypoints {
		return nil, errors.Wrapf(NewPlannerFailedError(), "path needs %d waypoints, more than the limit of %d", steps+1, maxWaypoints)
	}
	if steps == 0 {
		return [][]referenceframe.Input{referenceframe.CopyInputs(start), referenceframe.CopyInputs(goal)}, nil
	}
	path := make([][]referenceframe.Input, 0, steps+1)
	for i := 0; i < steps; i++ {
		path = append(path, referenceframe.InterpolateInputs(start, goal, float64(i)/float64(steps)))
	}
	return append(path, referenceframe.CopyInputs(goal)), nil
}

func maxJointDelta(a, b []referenceframe.Input) float64 {
	maxDelta := 0.
	for i := range a {
		maxDelta = math.Max(maxDelta, math.Abs(a[i].Value-b[i].Value))
	}
	return maxDelta
}
