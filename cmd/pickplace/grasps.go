package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"go.viam.com/manipulation/streams"
	"go.viam.com/manipulation/utils"
	"go.viam.com/manipulation/world"
)

// graspTable renders the grasps of body, one row per candidate with the body pose in the tool frame.
func graspTable(s *streams.Streams, robot, body world.Body) (string, error) {
	gen, err := s.GraspGen(robot)
	if err != nil {
		return "", err
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Grasp", "Translation", "Orientation", "Approach"})
	i := 0
	for grasp, err := range gen(body) {
		if err != nil {
			return "", err
		}
		tra := grasp.GraspPose.Point()
		ori := grasp.GraspPose.Orientation().EulerAngles()
		approach := grasp.ApproachPose.Point()
		i++
		t.AppendRow([]interface{}{
			fmt.Sprintf("%d", i),
			grasp.String(),
			fmt.Sprintf("X:%.3f, Y:%.3f, Z:%.3f", tra.X, tra.Y, tra.Z),
			fmt.Sprintf(
				"Roll:%.2f, Pitch:%.2f, Yaw:%.2f",
				utils.RadToDeg(ori.Roll),
				utils.RadToDeg(ori.Pitch),
				utils.RadToDeg(ori.Yaw),
			),
			fmt.Sprintf("X:%.3f, Y:%.3f, Z:%.3f", approach.X, approach.Y, approach.Z),
		})
	}
	return t.Render(), nil
}
