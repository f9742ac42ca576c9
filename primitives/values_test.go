package primitives

import (
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/manipulation/logging"
	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/world"
	"go.viam.com/manipulation/world/simworld"
)

func newScene(t *testing.T, numBlocks int) *simworld.Scene {
	t.Helper()
	scene, err := simworld.NewTabletopScene(logging.NewTestLogger(t), numBlocks)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() { test.That(t, scene.Close(), test.ShouldBeNil) })
	return scene
}

func toolLink(t *testing.T, scene *simworld.Scene) world.Link {
	t.Helper()
	link, err := scene.LinkFromName(scene.Robot, simworld.GantryToolLink)
	test.That(t, err, test.ShouldBeNil)
	return link
}

func TestPose(t *testing.T) {
	scene := newScene(t, 1)
	block := scene.Blocks[0]

	p, err := NewPoseFromWorld(scene, block)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Body, test.ShouldEqual, block)
	test.That(t, spatialmath.R3VectorAlmostEqual(p.Value.Point(), r3.Vector{X: 0.35, Y: -0.15, Z: 0.04}, 1e-9), test.ShouldBeTrue)
	test.That(t, strings.HasPrefix(p.String(), "p"), test.ShouldBeTrue)

	// Moving the body does not change a pose read earlier.
	test.That(t, scene.SetPose(block, spatialmath.NewPoseFromPoint(r3.Vector{X: 0.1})), test.ShouldBeNil)
	test.That(t, p.Value.Point().X, test.ShouldAlmostEqual, 0.35)

	for range 2 {
		applied, err := p.Assign(scene)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, applied, test.ShouldEqual, p.Value)
		current, err := scene.Pose(block)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, spatialmath.PoseAlmostEqual(current, p.Value), test.ShouldBeTrue)
	}

	_, err = NewPoseFromWorld(scene, world.Body(12))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestGrasp(t *testing.T) {
	scene := newScene(t, 1)
	tool := toolLink(t, scene)
	graspPose := spatialmath.NewPoseFromPoint(r3.Vector{Z: 0.06})
	approach := spatialmath.NewPoseFromPoint(r3.Vector{Z: 0.1})
	g := NewGrasp(scene.Blocks[0], graspPose, approach, scene.Robot, tool)

	test.That(t, g.Value(), test.ShouldEqual, graspPose)
	test.That(t, g.Approach(), test.ShouldEqual, approach)
	test.That(t, strings.HasPrefix(g.String(), "g"), test.ShouldBeTrue)

	a := g.Attachment()
	test.That(t, a.Robot, test.ShouldEqual, scene.Robot)
	test.That(t, a.Link, test.ShouldEqual, tool)
	test.That(t, a.Child, test.ShouldEqual, scene.Blocks[0])
	test.That(t, a.GraspPose, test.ShouldEqual, graspPose)

	// The gantry starts with its tool at z=0.5 pointing down.
	held, err := g.Assign(scene)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.R3VectorAlmostEqual(held.Point(), r3.Vector{Z: 0.44}, 1e-9), test.ShouldBeTrue)
	current, err := scene.Pose(scene.Blocks[0])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(current, held), test.ShouldBeTrue)
}

func TestConf(t *testing.T) {
	scene := newScene(t, 0)

	_, err := NewConf(scene.Robot, []world.Joint{0, 1}, referenceframe.FloatsToInputs([]float64{0}))
	test.That(t, err, test.ShouldBeError, referenceframe.NewIncorrectDoFError(1, 2))

	home, err := NewConfFromWorld(scene, scene.Robot, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, home.Joints, test.ShouldResemble, []world.Joint{0, 1, 2, 3})
	test.That(t, home.Values, test.ShouldResemble, simworld.GantryHome)
	test.That(t, strings.HasPrefix(home.String(), "q"), test.ShouldBeTrue)

	partial, err := NewConfFromWorld(scene, scene.Robot, []world.Joint{2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, partial.Values, test.ShouldResemble, referenceframe.FloatsToInputs([]float64{0.5}))
	test.That(t, home.SameJointSet(partial), test.ShouldBeFalse)

	moved, err := NewConf(scene.Robot, home.Joints, referenceframe.FloatsToInputs([]float64{0.1, 0.2, 0.3, 0.4}))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, home.SameJointSet(moved), test.ShouldBeTrue)
	other, err := NewConf(scene.Table, home.Joints, moved.Values)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, moved.SameJointSet(other), test.ShouldBeFalse)

	applied, err := moved.Assign(scene)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, applied, test.ShouldResemble, moved.Values)
	current, err := scene.JointPositions(scene.Robot, home.Joints)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, current, test.ShouldResemble, moved.Values)
}

func TestDisplayIndex(t *testing.T) {
	a := NewPose(0, spatialmath.NewZeroPose())
	b := NewPose(0, spatialmath.NewZeroPose())
	test.That(t, a.index+1, test.ShouldEqual, b.index)
	test.That(t, a.ID, test.ShouldNotEqual, b.ID)
	test.That(t, a == b, test.ShouldBeFalse)

	c1 := NewCommand()
	c2 := NewCommand()
	test.That(t, c1.String(), test.ShouldNotEqual, c2.String())
	test.That(t, strings.HasPrefix(c1.String(), "c"), test.ShouldBeTrue)
}
