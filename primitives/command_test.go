package primitives

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/manipulation/motionplan"
	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/world"
)

// pickCommand mirrors what grasp planning returns: approach, attach, retreat holding the block.
func pickCommand(t *testing.T, robot, block world.Body, link world.Link) (*Command, *Grasp) {
	t.Helper()
	// The tool points down, so the block hangs 0.1 below it.
	g := NewGrasp(block, spatialmath.NewPoseFromPoint(r3.Vector{Z: 0.1}), spatialmath.NewZeroPose(), robot, link)
	approach, err := NewPath(robot, gantryJoints, waypoints(
		[]float64{0.35, -0.15, 0.5, 0},
		[]float64{0.35, -0.15, 0.3, 0},
		[]float64{0.35, -0.15, 0.14, 0},
	))
	test.That(t, err, test.ShouldBeNil)
	retreat := approach.Reverse().(*Path)
	retreat.Attachments = []*Grasp{g}
	return NewCommand(approach, NewAttach(block, robot, link), retreat), g
}

func TestCommandBodies(t *testing.T) {
	c, _ := pickCommand(t, 0, 2, 1)
	test.That(t, c.Bodies(), test.ShouldResemble, []world.Body{0, 2})
	test.That(t, NewCommand().Bodies(), test.ShouldBeEmpty)
}

func TestCommandReverse(t *testing.T) {
	c, _ := pickCommand(t, 0, 2, 1)
	r := c.Reverse()
	test.That(t, len(r.Segments), test.ShouldEqual, 3)
	for i, s := range c.Segments {
		test.That(t, r.Segments[len(c.Segments)-1-i], test.ShouldResemble, s.Reverse())
	}
	_, isDetach := r.Segments[1].(*Detach)
	test.That(t, isDetach, test.ShouldBeTrue)

	rr := r.Reverse()
	test.That(t, rr.Segments, test.ShouldResemble, c.Segments)
	test.That(t, rr, test.ShouldNotEqual, c)
}

func TestCommandStep(t *testing.T) {
	scene := newScene(t, 1)
	c, _ := pickCommand(t, scene.Robot, scene.Blocks[0], toolLink(t, scene))

	var seen [][2]int
	err := c.Step(context.Background(), scene, func(segment, step int) error {
		seen = append(seen, [2]int{segment, step})
		return nil
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, seen, test.ShouldResemble, [][2]int{{0, 0}, {0, 1}, {0, 2}, {2, 0}, {2, 1}, {2, 2}})

	// The block was carried up with the retreat.
	blockPose, err := scene.Pose(scene.Blocks[0])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, blockPose.Point().Z, test.ShouldAlmostEqual, 0.4)

	errStop := errors.New("stop")
	err = c.Step(context.Background(), scene, func(segment, step int) error {
		if step == 1 {
			return errStop
		}
		return nil
	})
	test.That(t, err, test.ShouldBeError, errStop)
	current, err := scene.JointPositions(scene.Robot, gantryJoints)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, current, test.ShouldResemble, referenceframe.FloatsToInputs([]float64{0.35, -0.15, 0.3, 0}))
}

func TestCommandExecuteWithClock(t *testing.T) {
	scene := newScene(t, 1)
	c, _ := pickCommand(t, scene.Robot, scene.Blocks[0], toolLink(t, scene))
	mock := clock.NewMock()
	start := mock.Now()
	const timeStep = 50 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		done <- c.ExecuteWithClock(context.Background(), scene, mock, timeStep)
	}()
	var err error
	for finished := false; !finished; {
		select {
		case err = <-done:
			finished = true
		default:
			mock.Add(timeStep)
		}
	}
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mock.Now().Sub(start), test.ShouldBeGreaterThanOrEqualTo, 6*timeStep)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.ExecuteWithClock(ctx, scene, mock, timeStep)
	test.That(t, err, test.ShouldBeError, context.Canceled)

	test.That(t, c.Execute(context.Background(), scene, 0), test.ShouldBeNil)
}

func TestCommandRefine(t *testing.T) {
	c, g := pickCommand(t, 0, 2, 1)
	refined, err := c.Refine(nil, motionplan.LinearRefiner{}, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, refined, test.ShouldNotEqual, c)
	test.That(t, len(refined.Segments[0].(*Path).Waypoints), test.ShouldEqual, 5)
	test.That(t, refined.Segments[1], test.ShouldEqual, c.Segments[1])
	test.That(t, refined.Segments[2].(*Path).Attachments, test.ShouldResemble, []*Grasp{g})

}

func TestCommandControl(t *testing.T) {
	scene := newScene(t, 1)
	tool := toolLink(t, scene)
	block := scene.Blocks[0]
	c, _ := pickCommand(t, scene.Robot, block, tool)
	test.That(t, scene.SetJointPositions(scene.Robot, gantryJoints, referenceframe.FloatsToInputs([]float64{0.35, -0.15, 0.5, 0})),
		test.ShouldBeNil)

	test.That(t, c.Control(context.Background(), scene, DefaultControlOptions()), test.ShouldBeNil)
	test.That(t, scene.HasFixedConstraint(block, scene.Robot, tool), test.ShouldBeTrue)
	blockPose, err := scene.Pose(block)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, blockPose.Point().Z, test.ShouldAlmostEqual, 0.4, 1e-6)

	// Undo: lower the block back and let go.
	test.That(t, c.Reverse().Control(context.Background(), scene, DefaultControlOptions()), test.ShouldBeNil)
	test.That(t, scene.HasFixedConstraint(block, scene.Robot, tool), test.ShouldBeFalse)
	blockPose, err = scene.Pose(block)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, blockPose.Point().Z, test.ShouldAlmostEqual, 0.04, 1e-6)

	bad := NewCommand(NewAttach(world.Body(40), scene.Robot, tool))
	err = bad.Control(context.Background(), scene, DefaultControlOptions())
	test.That(t, errors.Is(err, world.ErrUnknownBody), test.ShouldBeTrue)
}
