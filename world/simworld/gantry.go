package simworld

import (
	"context"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/manipulation/motionplan"
	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/world"
)

// Gantry link names.
const (
	GantryCarriageLink = "carriage"
	GantryToolLink     = "tool_link"
)

const (
	gantryCarriage world.Link = iota
	gantryTool
)

// Clearance between the tool point and the bottom of the gripper.
const gripperClearance = 0.005

var gripperHalfExtents = r3.Vector{X: 0.02, Y: 0.05, Z: 0.025}

// Gantry is a four joint cartesian robot: x, y, z translation of the carriage followed by a yaw
// of the tool. The tool z axis points down, so a zero configuration holds a tool facing the floor.
type Gantry struct {
	name   string
	limits []referenceframe.Limit
}

// NewGantry returns a gantry spanning the given horizontal and vertical travel.
func NewGantry(name string, xy, z referenceframe.Limit) *Gantry {
	return &Gantry{
		name:   name,
		limits: []referenceframe.Limit{xy, xy, z, {Min: -math.Pi, Max: math.Pi}},
	}
}

// Name returns the robot name.
func (g *Gantry) Name() string {
	return g.name
}

// DoF returns x, y, z and yaw limits.
func (g *Gantry) DoF() []referenceframe.Limit {
	return g.limits
}

// LinkNames returns the carriage and tool names, indexed by link.
func (g *Gantry) LinkNames() []string {
	return []string{GantryCarriageLink, GantryToolLink}
}

// LinkPose returns the carriage or tool pose relative to the gantry base.
func (g *Gantry) LinkPose(link world.Link, inputs []referenceframe.Input) (spatialmath.Pose, error) {
	if len(inputs) != len(g.limits) {
		return nil, referenceframe.NewIncorrectDoFError(len(inputs), len(g.limits))
	}
	carriage := spatialmath.NewPoseFromPoint(r3.Vector{X: inputs[0].Value, Y: inputs[1].Value, Z: inputs[2].Value})
	switch link {
	case world.BaseLink:
		return spatialmath.NewZeroPose(), nil
	case gantryCarriage:
		return carriage, nil
	case gantryTool:
		return spatialmath.Compose(carriage, spatialmath.NewPoseFromOrientation(
			&spatialmath.EulerAngles{Roll: math.Pi, Yaw: inputs[3].Value},
		)), nil
	default:
		return nil, errors.Errorf("gantry %q has no link %d", g.name, link)
	}
}

// Geometries returns the gripper box, which sits just above the tool point.
func (g *Gantry) Geometries(inputs []referenceframe.Input) ([]Box, error) {
	tool, err := g.LinkPose(gantryTool, inputs)
	if err != nil {
		return nil, err
	}
	// The tool z axis points down, so the gripper extends along -z.
	offset := spatialmath.NewPoseFromPoint(r3.Vector{Z: -(gripperClearance + gripperHalfExtents.Z)})
	return []Box{{Pose: spatialmath.Compose(tool, offset), HalfExtents: gripperHalfExtents}}, nil
}

// GantryIK solves gantry inverse kinematics in closed form. Targets whose tool z axis does not
// point straight down are unreachable. It only reads the world through world.State, so any engine
// holding a robot with the gantry's links and joints can use it.
type GantryIK struct{}

var _ motionplan.IKSolver = GantryIK{}

// Solve implements motionplan.IKSolver for gantry robots.
func (GantryIK) Solve(
	ctx context.Context,
	w world.State,
	robot world.Body,
	link world.Link,
	target spatialmath.Pose,
) ([]referenceframe.Input, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tool, err := w.LinkFromName(robot, GantryToolLink)
	if err != nil {
		return nil, errors.Wrapf(err, "robot %d is not a gantry", robot)
	}
	if link != tool {
		return nil, errors.Wrapf(motionplan.NewIKError(), "gantry ik only solves for %s", GantryToolLink)
	}
	joints, err := w.MovableJoints(robot)
	if err != nil {
		return nil, err
	}
	if len(joints) != 4 {
		return nil, errors.Errorf("robot %d is not a gantry: %d joints", robot, len(joints))
	}
	limits, err := w.JointLimits(robot, joints)
	if err != nil {
		return nil, err
	}
	base, err := w.Pose(robot)
	if err != nil {
		return nil, err
	}

	local := spatialmath.PoseBetween(base, target)
	rm := local.Orientation().RotationMatrix()
	const axisTolerance = 1e-4
	if !spatialmath.R3VectorAlmostEqual(rm.Col(2), r3.Vector{Z: -1}, axisTolerance) {
		return nil, errors.Wrap(motionplan.NewIKError(), "target tool axis is not vertical")
	}
	xAxis := rm.Col(0)
	yaw := math.Atan2(xAxis.Y, xAxis.X)
	pt := local.Point()
	solution := referenceframe.FloatsToInputs([]float64{pt.X, pt.Y, pt.Z, yaw})
	if err := referenceframe.CheckInputsInLimits(solution, limits); err != nil {
		return nil, errors.Wrap(motionplan.NewIKError(), err.Error())
	}
	if err := w.SetJointPositions(robot, joints, solution); err != nil {
		return nil, err
	}
	return solution, nil
}
