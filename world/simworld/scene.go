package simworld

import (
	"fmt"

	"github.com/golang/geo/r3"

	"go.viam.com/manipulation/logging"
	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/world"
)

// Default tabletop dimensions, in meters.
var (
	TableHalfExtents = r3.Vector{X: 0.6, Y: 0.6, Z: 0.02}
	BlockHalfExtents = r3.Vector{X: 0.02, Y: 0.02, Z: 0.04}
)

// GantryHome is the configuration the tabletop gantry starts in.
var GantryHome = []referenceframe.Input{{Value: 0}, {Value: 0}, {Value: 0.5}, {Value: 0}}

// Scene is a gantry above a table whose top is at z=0, with a row of blocks on the table.
type Scene struct {
	*World
	Robot  world.Body
	Table  world.Body
	Blocks []world.Body
}

// NewTabletopScene builds a Scene with numBlocks blocks spaced along y at x=0.35.
func NewTabletopScene(logger logging.Logger, numBlocks int, opts ...Option) (*Scene, error) {
	w := New(logger, opts...)
	scene := &Scene{World: w}
	scene.Robot = w.AddRobot(
		NewGantry("gantry", referenceframe.Limit{Min: -0.7, Max: 0.7}, referenceframe.Limit{Min: 0, Max: 0.8}),
		spatialmath.NewZeroPose(),
	)
	joints, err := w.MovableJoints(scene.Robot)
	if err != nil {
		return nil, err
	}
	if err := w.SetJointPositions(scene.Robot, joints, GantryHome); err != nil {
		return nil, err
	}
	scene.Table = w.AddBox("table", TableHalfExtents, spatialmath.NewPoseFromPoint(r3.Vector{Z: -TableHalfExtents.Z}))
	for i := range numBlocks {
		y := -0.15 + 0.15*float64(i)
		scene.Blocks = append(scene.Blocks, w.AddBox(
			fmt.Sprintf("block%d", i),
			BlockHalfExtents,
			spatialmath.NewPoseFromPoint(r3.Vector{X: 0.35, Y: y, Z: BlockHalfExtents.Z}),
		))
	}
	return scene, nil
}
