package primitives

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/manipulation/motionplan"
	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/testutils/inject"
	"go.viam.com/manipulation/world"
)

var gantryJoints = []world.Joint{0, 1, 2, 3}

func waypoints(values ...[]float64) [][]referenceframe.Input {
	out := make([][]referenceframe.Input, 0, len(values))
	for _, v := range values {
		out = append(out, referenceframe.FloatsToInputs(v))
	}
	return out
}

func TestNewPath(t *testing.T) {
	_, err := NewPath(0, gantryJoints, waypoints([]float64{0, 0, 0.5, 0}, []float64{0, 0.5}))
	test.That(t, err, test.ShouldBeError, referenceframe.NewIncorrectDoFError(2, 4))

	scene := newScene(t, 0)
	a, err := NewConfFromWorld(scene, scene.Robot, nil)
	test.That(t, err, test.ShouldBeNil)
	b, err := NewConf(scene.Robot, gantryJoints, referenceframe.FloatsToInputs([]float64{0.1, 0, 0.5, 0}))
	test.That(t, err, test.ShouldBeNil)
	p, err := NewPathFromConfs([]*Conf{a, b})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Body, test.ShouldEqual, scene.Robot)
	test.That(t, p.Waypoints, test.ShouldResemble, [][]referenceframe.Input{a.Values, b.Values})

	other, err := NewConf(scene.Robot, []world.Joint{0}, referenceframe.FloatsToInputs([]float64{0}))
	test.That(t, err, test.ShouldBeNil)
	_, err = NewPathFromConfs([]*Conf{a, other})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPathFromConfs(nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPathIterator(t *testing.T) {
	scene := newScene(t, 1)
	tool := toolLink(t, scene)
	g := NewGrasp(scene.Blocks[0], spatialmath.NewPoseFromPoint(r3.Vector{Z: 0.06}), spatialmath.NewZeroPose(), scene.Robot, tool)
	p, err := NewPath(scene.Robot, gantryJoints, waypoints(
		[]float64{0, 0, 0.5, 0},
		[]float64{0.1, 0, 0.5, 0},
		[]float64{0.2, 0, 0.4, 0},
	), g)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Bodies(), test.ShouldResemble, []world.Body{scene.Robot, scene.Blocks[0]})

	for range 2 {
		var steps []int
		for i, err := range p.Iterator(scene) {
			test.That(t, err, test.ShouldBeNil)
			current, err := scene.JointPositions(scene.Robot, gantryJoints)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, current, test.ShouldResemble, p.Waypoints[i])
			steps = append(steps, i)
		}
		test.That(t, steps, test.ShouldResemble, []int{0, 1, 2})
	}

	// The held block followed the tool to the last waypoint.
	held, err := scene.Pose(scene.Blocks[0])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(held.Point(), r3.Vector{X: 0.2, Z: 0.34}, 1e-9), test.ShouldBeTrue)

	// Stopping early leaves the world at the last yielded step.
	for i := range p.Iterator(scene) {
		if i == 1 {
			break
		}
	}
	current, err := scene.JointPositions(scene.Robot, gantryJoints)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, current, test.ShouldResemble, p.Waypoints[1])

	errBoom := errors.New("boom")
	injected := &inject.World{World: scene}
	injected.SetJointPositionsFunc = func(world.Body, []world.Joint, []referenceframe.Input) error {
		return errBoom
	}
	count := 0
	for _, err := range p.Iterator(injected) {
		test.That(t, err, test.ShouldBeError, errBoom)
		count++
	}
	test.That(t, count, test.ShouldEqual, 1)
}

func TestPathReverseAndRefine(t *testing.T) {
	g := NewGrasp(2, spatialmath.NewZeroPose(), spatialmath.NewZeroPose(), 0, 1)
	p, err := NewPath(0, []world.Joint{0}, waypoints([]float64{0}, []float64{1}, []float64{3}), g)
	test.That(t, err, test.ShouldBeNil)

	r := p.Reverse().(*Path)
	test.That(t, r.Waypoints, test.ShouldResemble, waypoints([]float64{3}, []float64{1}, []float64{0}))
	test.That(t, r.Attachments, test.ShouldResemble, p.Attachments)
	test.That(t, r.Joints, test.ShouldResemble, p.Joints)
	// The original is untouched.
	test.That(t, p.Waypoints[0][0].Value, test.ShouldEqual, 0.)
	test.That(t, r.Reverse(), test.ShouldResemble, Segment(p))

	refined, err := p.Refine(nil, motionplan.LinearRefiner{}, 1)
	test.That(t, err, test.ShouldBeNil)
	rp := refined.(*Path)
	test.That(t, len(rp.Waypoints), test.ShouldEqual, 5)
	test.That(t, rp.Waypoints[0], test.ShouldResemble, p.Waypoints[0])
	test.That(t, rp.Waypoints[4], test.ShouldResemble, p.Waypoints[2])
	test.That(t, rp.Attachments, test.ShouldResemble, p.Attachments)

	errRefine := errors.New("cannot refine")
	_, err = p.Refine(nil, &inject.Refiner{
		RefineFunc: func(world.State, world.Body, []world.Joint, [][]referenceframe.Input, int) ([][]referenceframe.Input, error) {
			return nil, errRefine
		},
	}, 3)
	test.That(t, err, test.ShouldBeError, errRefine)
}

func TestAttachDetach(t *testing.T) {
	attach := NewAttach(2, 0, 1)
	detach := NewDetach(2, 0, 1)

	test.That(t, attach.Reverse(), test.ShouldResemble, Segment(detach))
	test.That(t, detach.Reverse(), test.ShouldResemble, Segment(attach))
	test.That(t, attach.Reverse().Reverse(), test.ShouldResemble, Segment(attach))
	test.That(t, attach.Bodies(), test.ShouldResemble, []world.Body{2, 0})
	test.That(t, detach.Bodies(), test.ShouldResemble, []world.Body{2, 0})

	refined, err := attach.Refine(nil, motionplan.LinearRefiner{}, 10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, refined, test.ShouldEqual, Segment(attach))

	for range attach.Iterator(nil) {
		t.Fatal("attach should not yield")
	}
	for range detach.Iterator(nil) {
		t.Fatal("detach should not yield")
	}
}

func TestSegmentControl(t *testing.T) {
	scene := newScene(t, 1)
	tool := toolLink(t, scene)
	block := scene.Blocks[0]

	// Put the gantry on top of the block and couple them.
	grasping := referenceframe.FloatsToInputs([]float64{0.35, -0.15, 0.14, 0})
	test.That(t, scene.SetJointPositions(scene.Robot, gantryJoints, grasping), test.ShouldBeNil)
	test.That(t, NewAttach(block, scene.Robot, tool).Control(context.Background(), scene, DefaultControlOptions()), test.ShouldBeNil)
	test.That(t, scene.HasFixedConstraint(block, scene.Robot, tool), test.ShouldBeTrue)

	lift, err := NewPath(scene.Robot, gantryJoints, waypoints(
		[]float64{0.35, -0.15, 0.14, 0},
		[]float64{0.35, -0.15, 0.24, 0},
	))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lift.Control(context.Background(), scene, DefaultControlOptions()), test.ShouldBeNil)
	test.That(t, scene.GravityEnabled(), test.ShouldBeTrue)

	current, err := scene.JointPositions(scene.Robot, gantryJoints)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, referenceframe.InputsAlmostEqual(current, lift.Waypoints[1], 1e-6), test.ShouldBeTrue)
	blockPose, err := scene.Pose(block)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, blockPose.Point().Z, test.ShouldAlmostEqual, 0.14, 1e-6)

	test.That(t, NewDetach(block, scene.Robot, tool).Control(context.Background(), scene, DefaultControlOptions()), test.ShouldBeNil)
	test.That(t, scene.HasFixedConstraint(block, scene.Robot, tool), test.ShouldBeFalse)

	// Too few control steps to arrive.
	far, err := NewPath(scene.Robot, gantryJoints, waypoints([]float64{-0.35, -0.15, 0.24, 0}))
	test.That(t, err, test.ShouldBeNil)
	err = far.Control(context.Background(), scene, ControlOptions{MaxControlSteps: 3})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "within 3 control steps")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = far.Control(ctx, scene, DefaultControlOptions())
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestPathControlRealTime(t *testing.T) {
	calls := map[string]int{}
	w := &inject.World{}
	w.SetRealTimeFunc = func(enabled bool) error {
		test.That(t, enabled, test.ShouldBeTrue)
		calls["realtime"]++
		return nil
	}
	w.SetJointTargetsFunc = func(world.Body, []world.Joint, []referenceframe.Input) error {
		calls["targets"]++
		return nil
	}
	w.JointsAtTargetFunc = func(world.Body, []world.Joint) (bool, error) {
		calls["at"]++
		return calls["at"]%2 == 0, nil
	}
	w.EnableGravityFunc = func() error {
		calls["gravity"]++
		return nil
	}
	w.StepSimulationFunc = func() error {
		t.Fatal("real time control should not step the simulation")
		return nil
	}

	p, err := NewPath(0, []world.Joint{0}, waypoints([]float64{0}, []float64{1}))
	test.That(t, err, test.ShouldBeNil)
	err = p.Control(context.Background(), w, ControlOptions{RealTime: true, MaxControlSteps: 10})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, calls, test.ShouldResemble, map[string]int{"realtime": 1, "targets": 2, "at": 4, "gravity": 2})
}
