package main

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/manipulation/logging"
	"go.viam.com/manipulation/primitives"
	"go.viam.com/manipulation/streams"
	"go.viam.com/manipulation/world"
	"go.viam.com/manipulation/world/simworld"
)

// Placement candidates tried before giving up on a grasp.
const maxPlacements = 20

// pickPlacePlan moves one block from where it rests to a sampled placement and returns home.
type pickPlacePlan struct {
	Home      *primitives.Conf
	Body      world.Body
	Start     *primitives.Pose
	Grasp     *primitives.Grasp
	Placement *primitives.Pose
	Command   *primitives.Command
	// others holds the poses of the blocks left in place.
	others []*primitives.Pose
}

// planPickPlace searches grasps and placements until the pick, the carry, the place and the trip
// home are all feasible. Infeasible candidates are skipped, anything else aborts.
func planPickPlace(
	ctx context.Context,
	scene *simworld.Scene,
	s *streams.Streams,
	block world.Body,
	logger logging.Logger,
) (*pickPlacePlan, error) {
	home, err := primitives.NewConfFromWorld(scene, scene.Robot, nil)
	if err != nil {
		return nil, err
	}
	start, err := primitives.NewPoseFromWorld(scene, block)
	if err != nil {
		return nil, err
	}
	plan := &pickPlacePlan{Home: home, Body: block, Start: start}
	var fluents []streams.Fluent
	for _, other := range lo.Without(scene.Blocks, block) {
		pose, err := primitives.NewPoseFromWorld(scene, other)
		if err != nil {
			return nil, err
		}
		plan.others = append(plan.others, pose)
		fluents = append(fluents, streams.AtPose(other, pose))
	}

	graspGen, err := s.GraspGen(scene.Robot)
	if err != nil {
		return nil, err
	}
	ik, err := s.IKFn(scene.Robot)
	if err != nil {
		return nil, err
	}
	free := s.FreeMotionGen(scene.Robot)
	holding := s.HoldingMotionGen(scene.Robot)
	collides := s.MovableCollisionTest()

	for grasp, err := range graspGen(block) {
		if err != nil {
			return nil, err
		}
		pick, err := ik(ctx, block, start, grasp)
		if errors.Is(err, streams.ErrInfeasible) {
			logger.Debugw("pick infeasible", "grasp", grasp, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}

		tried := 0
		for placement, err := range s.StableGen()(block, scene.Table) {
			if errors.Is(err, world.ErrNoPlacement) || tried == maxPlacements {
				break
			}
			if err != nil {
				return nil, err
			}
			tried++
			cmd, err := plan.complete(ctx, free, holding, ik, collides, fluents, grasp, pick, placement)
			if errors.Is(err, streams.ErrInfeasible) {
				logger.Debugw("placement infeasible", "grasp", grasp, "placement", placement, "error", err)
				continue
			}
			if err != nil {
				return nil, err
			}
			plan.Grasp = grasp
			plan.Placement = placement
			plan.Command = cmd
			logger.Infow("planned pick and place", "body", block, "grasp", grasp, "placement", placement, "command", cmd)
			if err := plan.reset(scene); err != nil {
				return nil, err
			}
			return plan, nil
		}
	}
	return nil, errors.Wrapf(streams.ErrInfeasible, "no grasp and placement of body %d worked", block)
}

// complete plans everything after the pick for one placement.
func (plan *pickPlacePlan) complete(
	ctx context.Context,
	free streams.FreeMotionFunc,
	holding streams.HoldingMotionFunc,
	ik streams.IKFunc,
	collides streams.CollisionTest,
	fluents []streams.Fluent,
	grasp *primitives.Grasp,
	pick *streams.GraspCommand,
	placement *primitives.Pose,
) (*primitives.Command, error) {
	place, err := ik(ctx, plan.Body, placement, grasp)
	if err != nil {
		return nil, err
	}
	// Lowering the block must not hit the blocks left in place.
	for _, other := range plan.others {
		hit, err := collides(place.Command, other.Body, other)
		if err != nil {
			return nil, err
		}
		if hit {
			return nil, errors.Wrapf(streams.ErrInfeasible, "placing %s hits body %d", placement, other.Body)
		}
	}

	approach, err := free(ctx, plan.Home, pick.Approach, fluents...)
	if err != nil {
		return nil, err
	}
	carry, err := holding(ctx, pick.Approach, place.Approach, plan.Body, grasp, fluents...)
	if err != nil {
		return nil, err
	}
	ret, err := free(ctx, place.Approach, plan.Home, append(fluents, streams.AtPose(plan.Body, placement))...)
	if err != nil {
		return nil, err
	}

	var segments []primitives.Segment
	for _, c := range []*primitives.Command{approach, pick.Command, carry, place.Command.Reverse(), ret} {
		segments = append(segments, c.Segments...)
	}
	return primitives.NewCommand(segments...), nil
}

// reset puts the world back to where the plan starts.
func (plan *pickPlacePlan) reset(w world.State) error {
	if _, err := plan.Home.Assign(w); err != nil {
		return err
	}
	for _, p := range append([]*primitives.Pose{plan.Start}, plan.others...) {
		if _, err := p.Assign(w); err != nil {
			return err
		}
	}
	return nil
}

type runOptions struct {
	control  bool
	timeStep time.Duration
}

// run executes the plan from its start state, either through the joint controllers or by
// replaying it kinematically.
func (plan *pickPlacePlan) run(ctx context.Context, w world.World, opts runOptions) error {
	if err := plan.reset(w); err != nil {
		return err
	}
	if opts.control {
		controlOpts := primitives.DefaultControlOptions()
		controlOpts.DT = opts.timeStep
		return plan.Command.Control(ctx, w, controlOpts)
	}
	return plan.Command.Execute(ctx, w, opts.timeStep)
}
