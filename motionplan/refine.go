package motionplan

import (
	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/world"
)

// RefinePath inserts numSteps evenly spaced waypoints between every consecutive pair. The first
// and last waypoints are unchanged.
func RefinePath(path [][]referenceframe.Input, numSteps int) [][]referenceframe.Input {
	if numSteps <= 0 || len(path) < 2 {
		return path
	}
	refined := make([][]referenceframe.Input, 0, (len(path)-1)*(numSteps+1)+1)
	for i := 0; i < len(path)-1; i++ {
		from, to := path[i], path[i+1]
		for step := 0; step <= numSteps; step++ {
			refined = append(refined, referenceframe.InterpolateInputs(from, to, float64(step)/float64(numSteps+1)))
		}
	}
	return append(refined, path[len(path)-1])
}

// LinearRefiner is a Refiner that interpolates in joint space.
type LinearRefiner struct{}

// Refine validates the waypoint dimensions and calls RefinePath.
func (LinearRefiner) Refine(
	_ world.State,
	_ world.Body,
	joints []world.Joint,
	path [][]referenceframe.Input,
	numSteps int,
) ([][]referenceframe.Input, error) {
	for _, waypoint := range path {
		if len(waypoint) != len(joints) {
			return nil, referenceframe.NewIncorrectDoFError(len(waypoint), len(joints))
		}
	}
	return RefinePath(path, numSteps), nil
}
