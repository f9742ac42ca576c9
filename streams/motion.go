package streams

import (
	"context"

	"go.opencensus.io/trace"

	"go.viam.com/manipulation/motionplan"
	"go.viam.com/manipulation/primitives"
	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/world"
)

// FreeMotionFunc plans an empty handed motion from conf1 to conf2.
type FreeMotionFunc func(ctx context.Context, conf1, conf2 *primitives.Conf, fluents ...Fluent) (*primitives.Command, error)

// HoldingMotionFunc plans a motion from conf1 to conf2 carrying body with grasp.
type HoldingMotionFunc func(
	ctx context.Context,
	conf1, conf2 *primitives.Conf,
	body world.Body,
	grasp *primitives.Grasp,
	fluents ...Fluent,
) (*primitives.Command, error)

// MotionFunc plans a motion of robot from conf1 to conf2, carrying whatever an athandpose fluent
// says it holds.
type MotionFunc func(ctx context.Context, robot world.Body, conf1, conf2 *primitives.Conf, fluents ...Fluent) (*primitives.Command, error)

type planFunc func(ctx context.Context, w world.World, req *motionplan.PlanRequest) ([][]referenceframe.Input, error)

type motionRequest struct {
	op      string
	robot   world.Body
	conf1   *primitives.Conf
	conf2   *primitives.Conf
	grasp   *primitives.Grasp
	fluents []Fluent
	plan    planFunc
	// graspFromFluents takes the held grasp from an athandpose fluent.
	graspFromFluents bool
}

// FreeMotionGen returns a FreeMotionFunc for robot.
func (s *Streams) FreeMotionGen(robot world.Body) FreeMotionFunc {
	return func(ctx context.Context, conf1, conf2 *primitives.Conf, fluents ...Fluent) (*primitives.Command, error) {
		ctx, span := trace.StartSpan(ctx, "streams::FreeMotionGen")
		defer span.End()
		return s.planMotion(ctx, &motionRequest{
			op:      "free motion",
			robot:   robot,
			conf1:   conf1,
			conf2:   conf2,
			fluents: fluents,
			plan:    s.planner.PlanJointMotion,
		})
	}
}

// HoldingMotionGen returns a HoldingMotionFunc for robot. The held body is collision checked
// along the whole path.
func (s *Streams) HoldingMotionGen(robot world.Body) HoldingMotionFunc {
	return func(
		ctx context.Context,
		conf1, conf2 *primitives.Conf,
		body world.Body,
		grasp *primitives.Grasp,
		fluents ...Fluent,
	) (*primitives.Command, error) {
		ctx, span := trace.StartSpan(ctx, "streams::HoldingMotionGen")
		defer span.End()
		if grasp == nil || grasp.Body != body {
			return nil, NewPreconditionError("holding motion", "grasp %v does not hold body %d", grasp, body)
		}
		if grasp.Robot != robot {
			return nil, NewPreconditionError("holding motion", "grasp %s is for robot %d, not %d", grasp, grasp.Robot, robot)
		}
		return s.planMotion(ctx, &motionRequest{
			op:      "holding motion",
			robot:   robot,
			conf1:   conf1,
			conf2:   conf2,
			grasp:   grasp,
			fluents: fluents,
			plan:    s.planner.PlanJointMotion,
		})
	}
}

// MotionGen returns a MotionFunc. It plans with the interpolating planner.
func (s *Streams) MotionGen() MotionFunc {
	return func(ctx context.Context, robot world.Body, conf1, conf2 *primitives.Conf, fluents ...Fluent) (*primitives.Command, error) {
		ctx, span := trace.StartSpan(ctx, "streams::MotionGen")
		defer span.End()
		return s.planMotion(ctx, &motionRequest{
			op:               "motion",
			robot:            robot,
			conf1:            conf1,
			conf2:            conf2,
			fluents:          fluents,
			plan:             s.planner.PlanInterpolatedJointMotion,
			graspFromFluents: true,
		})
	}
}

func (s *Streams) planMotion(ctx context.Context, req *motionRequest) (*primitives.Command, error) {
	if req.conf1 == nil || req.conf2 == nil {
		return nil, NewPreconditionError(req.op, "both configurations are required")
	}
	if !req.conf1.SameJointSet(req.conf2) {
		return nil, NewPreconditionError(req.op, "%s and %s are not configurations of the same body and joints", req.conf1, req.conf2)
	}
	if req.conf1.Body != req.robot {
		return nil, NewPreconditionError(req.op, "%s is not a configuration of robot %d", req.conf1, req.robot)
	}
	state, err := parseFluents(req.op, req.fluents)
	if err != nil {
		return nil, err
	}
	grasp := req.grasp
	if req.graspFromFluents {
		grasp = state.grasp
	}
	var attachments []*primitives.Grasp
	if grasp != nil {
		attachments = append(attachments, grasp)
	}

	var path [][]referenceframe.Input
	if s.cfg.Teleport {
		path = [][]referenceframe.Input{req.conf1.Values, req.conf2.Values}
	} else {
		err := s.retry(ctx, req.op, s.cfg.MotionAttempts, func(int) error {
			if _, err := req.conf1.Assign(s.w); err != nil {
				return err
			}
			if err := state.assign(s.w); err != nil {
				return err
			}
			planReq := &motionplan.PlanRequest{
				Robot:          req.robot,
				Joints:         req.conf2.Joints,
				Goal:           req.conf2.Values,
				Obstacles:      append(append([]world.Body{}, s.fixed...), state.obstacles...),
				SelfCollisions: s.cfg.SelfCollisions,
			}
			if grasp != nil {
				planReq.Attachments = []*world.Attachment{grasp.Attachment()}
			}
			var err error
			path, err = req.plan(ctx, s.w, planReq)
			if err != nil {
				return unlessCanceled(ctx, err, req.op)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	p, err := primitives.NewPath(req.robot, req.conf2.Joints, path, attachments...)
	if err != nil {
		return nil, err
	}
	cmd := primitives.NewCommand(p)
	s.logCandidate(req.op+" command", "command", cmd, "waypoints", len(path), "holding", grasp != nil)
	return cmd, nil
}
