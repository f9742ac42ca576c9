package streams

import (
	"strings"

	"go.viam.com/manipulation/primitives"
	"go.viam.com/manipulation/utils"
	"go.viam.com/manipulation/world"
)

// Fluent predicates understood by the motion generators.
const (
	PredicateAtPose     = "atpose"
	PredicateAtHandPose = "athandpose"
)

// Fluent is a fact asserted true at planning time, such as another body's current pose.
type Fluent struct {
	Predicate string
	Args      []any
}

// AtPose asserts that body is at pose.
func AtPose(body world.Body, pose *primitives.Pose) Fluent {
	return Fluent{Predicate: PredicateAtPose, Args: []any{body, pose}}
}

// AtHandPose asserts that robot holds body with grasp.
func AtHandPose(robot, body world.Body, grasp *primitives.Grasp) Fluent {
	return Fluent{Predicate: PredicateAtHandPose, Args: []any{robot, body, grasp}}
}

// fluentState is what a list of fluents contributes to one planning call.
type fluentState struct {
	obstacles []world.Body
	poses     []*primitives.Pose
	grasp     *primitives.Grasp
}

// parseFluents reads the fluents without touching the world. Unknown predicates are ignored.
func parseFluents(op string, fluents []Fluent) (*fluentState, error) {
	state := &fluentState{}
	for _, f := range fluents {
		switch strings.ToLower(f.Predicate) {
		case PredicateAtPose:
			if len(f.Args) != 2 {
				return nil, NewPreconditionError(op, "%s takes 2 arguments, got %d", PredicateAtPose, len(f.Args))
			}
			body, ok := f.Args[0].(world.Body)
			if !ok {
				return nil, NewPreconditionError(op, "%s: %v", PredicateAtPose, utils.NewUnexpectedTypeError(body, f.Args[0]))
			}
			pose, ok := f.Args[1].(*primitives.Pose)
			if !ok {
				return nil, NewPreconditionError(op, "%s: %v", PredicateAtPose, utils.NewUnexpectedTypeError(pose, f.Args[1]))
			}
			state.obstacles = append(state.obstacles, body)
			state.poses = append(state.poses, pose)
		case PredicateAtHandPose:
			if len(f.Args) != 3 {
				return nil, NewPreconditionError(op, "%s takes 3 arguments, got %d", PredicateAtHandPose, len(f.Args))
			}
			grasp, ok := f.Args[2].(*primitives.Grasp)
			if !ok {
				return nil, NewPreconditionError(op, "%s: %v", PredicateAtHandPose, utils.NewUnexpectedTypeError(grasp, f.Args[2]))
			}
			state.grasp = grasp
		}
	}
	return state, nil
}

// assign pushes every asserted pose and the held grasp into the world.
func (s *fluentState) assign(w world.State) error {
	for _, p := range s.poses {
		if _, err := p.Assign(w); err != nil {
			return err
		}
	}
	if s.grasp != nil {
		if _, err := s.grasp.Assign(w); err != nil {
			return err
		}
	}
	return nil
}
