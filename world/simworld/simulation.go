package simworld

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/world"
)

// SetRealTime toggles real time mode. While on, a background worker advances the simulation with
// the world clock and StepSimulation is not needed.
func (w *World) SetRealTime(enabled bool) error {
	w.mu.Lock()
	if enabled == w.realTime {
		w.mu.Unlock()
		return nil
	}
	w.realTime = enabled
	w.lastUpdated = w.clock.Now()
	workers := w.timeSimulation
	w.timeSimulation = nil
	if enabled {
		w.timeSimulation = utils.NewStoppableWorkerWithTicker(realTimeTick, func(_ context.Context) {
			w.updateForTime(w.clock.Now())
		})
	}
	w.mu.Unlock()

	// The worker takes the lock, so stop it without holding it.
	if workers != nil {
		workers.Stop()
	}
	w.logger.Debugw("real time simulation", "enabled", enabled)
	return nil
}

// EnableGravity turns gravity on. Bodies in this world are kinematic, so it only records the
// request.
func (w *World) EnableGravity() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gravity = true
	return nil
}

// GravityEnabled returns whether EnableGravity was called.
func (w *World) GravityEnabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gravity
}

// StepSimulation advances the simulation by one fixed time step.
func (w *World) StepSimulation() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.advance(w.timeStep)
}

func (w *World) updateForTime(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	elapsed := now.Sub(w.lastUpdated)
	w.lastUpdated = now
	if err := w.advance(elapsed); err != nil {
		w.logger.Warnw("real time step failed", "error", err)
	}
}

// advance moves every joint toward its target at the joint speed, then re-poses constrained
// bodies. Must hold the lock.
func (w *World) advance(elapsed time.Duration) error {
	maxTravel := elapsed.Seconds() * w.jointSpeed
	for _, e := range w.entities {
		if e.targets == nil {
			continue
		}
		for j, target := range e.targets {
			diff := target.Value - e.inputs[j].Value
			if math.Abs(diff) <= maxTravel {
				e.inputs[j] = target
				continue
			}
			e.inputs[j].Value += math.Copysign(maxTravel, diff)
		}
	}

	for key, rel := range w.constraints {
		robot, err := w.entity(key.robot)
		if err != nil {
			return err
		}
		linkPose, err := w.linkPose(robot, key.link)
		if err != nil {
			return err
		}
		body, err := w.entity(key.body)
		if err != nil {
			return err
		}
		body.pose = spatialmath.Compose(linkPose, rel)
	}
	return nil
}

// SetJointTargets sets position targets for the given joints. Other joints hold their position.
func (w *World) SetJointTargets(body world.Body, joints []world.Joint, targets []referenceframe.Input) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.robot(body)
	if err != nil {
		return err
	}
	if len(joints) != len(targets) {
		return referenceframe.NewIncorrectDoFError(len(targets), len(joints))
	}
	if err := checkJoints(e, joints); err != nil {
		return err
	}
	if e.targets == nil {
		e.targets = referenceframe.CopyInputs(e.inputs)
	}
	for i, j := range joints {
		e.targets[j] = targets[i]
	}
	return nil
}

// JointsAtTarget returns whether the given joints reached their targets. Joints without a target
// are always there.
func (w *World) JointsAtTarget(body world.Body, joints []world.Joint) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.robot(body)
	if err != nil {
		return false, err
	}
	if err := checkJoints(e, joints); err != nil {
		return false, err
	}
	if e.targets == nil {
		return true, nil
	}
	for _, j := range joints {
		if math.Abs(e.targets[j].Value-e.inputs[j].Value) > targetTolerance {
			return false, nil
		}
	}
	return true, nil
}

// AddFixedConstraint freezes the current pose of body relative to the robot link.
func (w *World) AddFixedConstraint(body, robot world.Body, link world.Link) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	child, err := w.entity(body)
	if err != nil {
		return err
	}
	parent, err := w.robot(robot)
	if err != nil {
		return err
	}
	linkPose, err := w.linkPose(parent, link)
	if err != nil {
		return err
	}
	if body == robot {
		return errors.New("cannot constrain a body to itself")
	}
	w.constraints[constraintKey{body, robot, link}] = spatialmath.PoseBetween(linkPose, child.pose)
	return nil
}

// RemoveFixedConstraint removes the constraint if present.
func (w *World) RemoveFixedConstraint(body, robot world.Body, link world.Link) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.constraints, constraintKey{body, robot, link})
	return nil
}

// HasFixedConstraint returns whether body is constrained to the robot link.
func (w *World) HasFixedConstraint(body, robot world.Body, link world.Link) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.constraints[constraintKey{body, robot, link}]
	return ok
}
