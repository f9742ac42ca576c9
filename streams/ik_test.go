package streams

import (
	"context"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/manipulation/logging"
	"go.viam.com/manipulation/motionplan"
	"go.viam.com/manipulation/primitives"
	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/testutils/inject"
	"go.viam.com/manipulation/world"
	"go.viam.com/manipulation/world/simworld"
)

func firstGrasp(t *testing.T, s *Streams, robot, body world.Body) *primitives.Grasp {
	t.Helper()
	gen, err := s.GraspGen(robot)
	test.That(t, err, test.ShouldBeNil)
	for g, err := range gen(body) {
		test.That(t, err, test.ShouldBeNil)
		return g
	}
	t.Fatal("no grasps")
	return nil
}

func TestIKFn(t *testing.T) {
	scene := newTestScene(t, 1)
	block := scene.Blocks[0]
	s := newTestStreams(t, scene, nil, WithFixed(scene.Table))
	grasp := firstGrasp(t, s, scene.Robot, block)
	pose, err := primitives.NewPoseFromWorld(scene, block)
	test.That(t, err, test.ShouldBeNil)

	ik, err := s.IKFn(scene.Robot)
	test.That(t, err, test.ShouldBeNil)
	result, err := ik(context.Background(), block, pose, grasp)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, result.Approach.Body, test.ShouldEqual, scene.Robot)
	test.That(t, result.Approach.Values[2].Value, test.ShouldAlmostEqual, 0.18)
	segments := result.Command.Segments
	test.That(t, len(segments), test.ShouldEqual, 3)
	approach, ok := segments[0].(*primitives.Path)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, approach.Attachments, test.ShouldBeEmpty)
	test.That(t, approach.Waypoints[0], test.ShouldResemble, result.Approach.Values)
	last := approach.Waypoints[len(approach.Waypoints)-1]
	test.That(t, referenceframe.InputsAlmostEqual(last, referenceframe.FloatsToInputs(
		[]float64{0.35, -0.15, 0.08, result.Approach.Values[3].Value}), 1e-9), test.ShouldBeTrue)
	test.That(t, segments[1], test.ShouldResemble, primitives.NewAttach(block, scene.Robot, grasp.Link))
	retreat, ok := segments[2].(*primitives.Path)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, retreat.Attachments, test.ShouldResemble, []*primitives.Grasp{grasp})
	test.That(t, retreat.Waypoints[0], test.ShouldResemble, last)
	test.That(t, retreat.Waypoints[len(retreat.Waypoints)-1], test.ShouldResemble, approach.Waypoints[0])
	test.That(t, result.Command.Bodies(), test.ShouldResemble, []world.Body{scene.Robot, block})

	// Replaying the command lifts the block by the approach distance.
	test.That(t, result.Command.Step(context.Background(), scene, nil), test.ShouldBeNil)
	lifted, err := scene.Pose(block)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(lifted.Point(), r3.Vector{X: 0.35, Y: -0.15, Z: 0.14}, 1e-9), test.ShouldBeTrue)

	t.Run("teleport", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Teleport = true
		planner := &inject.Planner{}
		planner.PlanDirectJointMotionFunc = func(context.Context, world.World, *motionplan.PlanRequest) ([][]referenceframe.Input, error) {
			t.Fatal("teleport should not plan")
			return nil, nil
		}
		s, err := New(scene, simworld.GantryIK{}, planner, cfg, logging.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)
		ik, err := s.IKFn(scene.Robot)
		test.That(t, err, test.ShouldBeNil)
		result, err := ik(context.Background(), block, pose, grasp)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(result.Command.Segments[0].(*primitives.Path).Waypoints), test.ShouldEqual, 2)
	})
}

func TestIKFnInfeasible(t *testing.T) {
	scene := newTestScene(t, 2)
	block := scene.Blocks[0]

	// Park the other block where the gripper has to be before grasping.
	test.That(t, scene.SetPose(scene.Blocks[1], spatialmath.NewPoseFromPoint(r3.Vector{X: 0.35, Y: -0.15, Z: 0.2})), test.ShouldBeNil)
	var failures []error
	cfg := NewDefaultConfig()
	cfg.NumAttempts = 4
	s := newTestStreams(t, scene, cfg, WithFixed(scene.Table, scene.Blocks[1]), WithFailureHook(func(op string, err error) {
		test.That(t, op, test.ShouldEqual, "ik")
		failures = append(failures, err)
	}))
	grasp := firstGrasp(t, s, scene.Robot, block)
	pose, err := primitives.NewPoseFromWorld(scene, block)
	test.That(t, err, test.ShouldBeNil)
	ik, err := s.IKFn(scene.Robot)
	test.That(t, err, test.ShouldBeNil)

	_, err = ik(context.Background(), block, pose, grasp)
	test.That(t, errors.Is(err, ErrInfeasible), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "after 4 attempt(s)")
	test.That(t, err.Error(), test.ShouldContainSubstring, "robot collides with body 3")
	test.That(t, len(failures), test.ShouldEqual, 4)

	// A tipped over block has no vertical grasp.
	tipped := primitives.NewPose(block, spatialmath.NewPose(r3.Vector{X: 0.35, Y: 0.15, Z: 0.02}, &spatialmath.EulerAngles{Roll: 1.5707963267948966}))
	_, err = ik(context.Background(), block, tipped, grasp)
	test.That(t, errors.Is(err, ErrInfeasible), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not vertical")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ik(ctx, block, pose, grasp)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
	test.That(t, errors.Is(err, ErrInfeasible), test.ShouldBeFalse)

	_, err = ik(context.Background(), scene.Blocks[1], pose, grasp)
	test.That(t, errors.Is(err, ErrPrecondition), test.ShouldBeTrue)
	_, err = ik(context.Background(), block, nil, grasp)
	test.That(t, errors.Is(err, ErrPrecondition), test.ShouldBeTrue)
	_, err = ik(context.Background(), block, pose, nil)
	test.That(t, errors.Is(err, ErrPrecondition), test.ShouldBeTrue)
	test.That(t, len(failures), test.ShouldEqual, 4)
}

func TestIKFnPlannerFailure(t *testing.T) {
	scene := newTestScene(t, 1)
	block := scene.Blocks[0]
	logger := logging.NewTestLogger(t)
	planner := &inject.Planner{Planner: motionplan.NewLinearPlanner(logger, nil)}
	calls := 0
	planner.PlanDirectJointMotionFunc = func(ctx context.Context, w world.World, req *motionplan.PlanRequest) ([][]referenceframe.Input, error) {
		calls++
		test.That(t, req.Obstacles, test.ShouldResemble, []world.Body{block, scene.Table})
		test.That(t, req.Attachments, test.ShouldBeEmpty)
		// The robot was put at the approach configuration first.
		start, err := w.JointPositions(req.Robot, req.Joints)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, start[2].Value, test.ShouldAlmostEqual, 0.18)
		if calls < 3 {
			return nil, motionplan.NewPlannerFailedError()
		}
		return planner.Planner.PlanDirectJointMotion(ctx, w, req)
	}
	s, err := New(scene, simworld.GantryIK{}, planner, nil, logger, WithFixed(scene.Table))
	test.That(t, err, test.ShouldBeNil)
	grasp := firstGrasp(t, s, scene.Robot, block)
	pose, err := primitives.NewPoseFromWorld(scene, block)
	test.That(t, err, test.ShouldBeNil)
	ik, err := s.IKFn(scene.Robot)
	test.That(t, err, test.ShouldBeNil)

	_, err = ik(context.Background(), block, pose, grasp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, calls, test.ShouldEqual, 3)

	errEngine := errors.New("engine down")
	injected := &inject.World{World: scene}
	injected.PairwiseCollisionFunc = func(a, b world.Body) (bool, error) {
		return false, errEngine
	}
	s, err = New(injected, simworld.GantryIK{}, planner, nil, logger)
	test.That(t, err, test.ShouldBeNil)
	ik, err = s.IKFn(scene.Robot)
	test.That(t, err, test.ShouldBeNil)
	_, err = ik(context.Background(), block, pose, grasp)
	test.That(t, errors.Is(err, errEngine), test.ShouldBeTrue)
	test.That(t, errors.Is(err, ErrInfeasible), test.ShouldBeFalse)
}

func TestRobotIKFn(t *testing.T) {
	scene := newTestScene(t, 2)
	block := scene.Blocks[0]
	test.That(t, scene.SetPose(scene.Blocks[1], spatialmath.NewPoseFromPoint(r3.Vector{X: 0.35, Y: -0.15, Z: 0.2})), test.ShouldBeNil)

	joints, err := scene.MovableJoints(scene.Robot)
	test.That(t, err, test.ShouldBeNil)
	home, err := scene.JointPositions(scene.Robot, joints)
	test.That(t, err, test.ShouldBeNil)

	solves := 0
	var seeds [][]referenceframe.Input
	alternate := &inject.IKSolver{IKSolver: simworld.GantryIK{}}
	alternate.SolveFunc = func(
		ctx context.Context,
		w world.State,
		robot world.Body,
		link world.Link,
		target spatialmath.Pose,
	) ([]referenceframe.Input, error) {
		solves++
		seed, err := w.JointPositions(robot, joints)
		test.That(t, err, test.ShouldBeNil)
		seeds = append(seeds, seed)
		return alternate.IKSolver.Solve(ctx, w, robot, link, target)
	}

	s := newTestStreams(t, scene, nil, WithFixed(scene.Table, scene.Blocks[1]), WithRobotIK(alternate))
	grasp := firstGrasp(t, s, scene.Robot, block)
	pose, err := primitives.NewPoseFromWorld(scene, block)
	test.That(t, err, test.ShouldBeNil)

	_, err = s.RobotIKFn()(context.Background(), scene.Robot, block, pose, grasp)
	test.That(t, errors.Is(err, ErrInfeasible), test.ShouldBeTrue)
	test.That(t, solves, test.ShouldEqual, s.Config().NumAttempts)

	// Only the first attempt starts from the current joints; retries are reseeded.
	test.That(t, seeds[0], test.ShouldResemble, home)
	for _, seed := range seeds[1:] {
		test.That(t, referenceframe.InputsAlmostEqual(seed, seeds[0], 1e-9), test.ShouldBeFalse)
	}
	test.That(t, scene.SetJointPositions(scene.Robot, joints, home), test.ShouldBeNil)

	cfg := NewDefaultConfig()
	cfg.RobotIKCollisionCheck = false
	s = newTestStreams(t, scene, cfg, WithFixed(scene.Table, scene.Blocks[1]), WithRobotIK(alternate))
	solves = 0
	pair, err := s.RobotIKFn()(context.Background(), scene.Robot, block, pose, grasp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solves, test.ShouldEqual, 2)
	test.That(t, pair.Approach.Values[2].Value, test.ShouldAlmostEqual, 0.18)
	test.That(t, pair.Grasp.Values[2].Value, test.ShouldAlmostEqual, 0.08)
	test.That(t, pair.Approach.SameJointSet(pair.Grasp), test.ShouldBeTrue)

	_, err = s.RobotIKFn()(context.Background(), scene.Robot, scene.Blocks[1], pose, grasp)
	test.That(t, errors.Is(err, ErrPrecondition), test.ShouldBeTrue)
	_, err = s.RobotIKFn()(context.Background(), scene.Robot, block, nil, grasp)
	test.That(t, errors.Is(err, ErrPrecondition), test.ShouldBeTrue)
	_, err = s.RobotIKFn()(context.Background(), scene.Robot, block, pose, nil)
	test.That(t, errors.Is(err, ErrPrecondition), test.ShouldBeTrue)
	_, err = s.RobotIKFn()(context.Background(), scene.Table, block, pose, grasp)
	test.That(t, errors.Is(err, ErrPrecondition), test.ShouldBeTrue)
}
