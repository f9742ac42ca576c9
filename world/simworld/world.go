// Package simworld implements world.World as an in-memory kinematic scene of boxes and
// articulated robots. Collisions are axis aligned bounding box overlaps, fixed constraints
// carry bodies along with robot links when the simulation steps, and joints follow position
// targets at a fixed speed.
package simworld

import (
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/manipulation/logging"
	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/world"
)

const (
	// Matches the default physics step of common rigid body engines.
	defaultTimeStep = time.Second / 240

	// Joint speed in radians or meters per second.
	defaultJointSpeed = 1.0

	defaultPlacementTries = 100

	// Overlaps smaller than this are contact, not collision.
	collisionTolerance = 1e-6

	// Joints within this distance of their target have arrived.
	targetTolerance = 1e-6

	realTimeTick = 10 * time.Millisecond
)

var _ world.World = (*World)(nil)

type entity struct {
	name string
	// pose is the body pose, or the base pose of a robot.
	pose        spatialmath.Pose
	halfExtents r3.Vector

	model   Model
	inputs  []referenceframe.Input
	targets []referenceframe.Input
}

type constraintKey struct {
	body  world.Body
	robot world.Body
	link  world.Link
}

// World is an in-memory world.World.
type World struct {
	mu          sync.Mutex
	entities    []*entity
	constraints map[constraintKey]spatialmath.Pose

	gravity     bool
	realTime    bool
	lastUpdated time.Time

	timeStep       time.Duration
	jointSpeed     float64
	placementTries int
	reachCenter    r3.Vector
	clock          clock.Clock
	rand           *rand.Rand

	// timeSimulation advances joints with the clock while real time mode is on.
	timeSimulation *utils.StoppableWorkers

	logger logging.Logger
}

// Option configures a World.
type Option func(*World)

// WithClock sets the clock used to pace real time simulation.
func WithClock(c clock.Clock) Option {
	return func(w *World) {
		w.clock = c
	}
}

// WithRandSource sets the random source used for placement sampling.
func WithRandSource(r *rand.Rand) Option {
	return func(w *World) {
		w.rand = r
	}
}

// WithJointSpeed sets how far joints move per second of simulated time.
func WithJointSpeed(speed float64) Option {
	return func(w *World) {
		w.jointSpeed = speed
	}
}

// WithReachCenter sets the point placements are sampled around, usually the robot base.
func WithReachCenter(center r3.Vector) Option {
	return func(w *World) {
		w.reachCenter = center
	}
}

// New returns an empty world.
func New(logger logging.Logger, opts ...Option) *World {
	w := &World{
		constraints:    map[constraintKey]spatialmath.Pose{},
		timeStep:       defaultTimeStep,
		jointSpeed:     defaultJointSpeed,
		placementTries: defaultPlacementTries,
		clock:          clock.New(),
		//nolint:gosec
		rand:   rand.New(rand.NewSource(1)),
		logger: logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// AddBox adds a box body with the given half extents at pose.
func (w *World) AddBox(name string, halfExtents r3.Vector, pose spatialmath.Pose) world.Body {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entities = append(w.entities, &entity{name: name, pose: pose, halfExtents: halfExtents})
	body := world.Body(len(w.entities) - 1)
	w.logger.Debugw("added box", "name", name, "body", body)
	return body
}

// AddRobot adds a robot with its base at basePose. Joints start at zero, clamped into limits.
func (w *World) AddRobot(model Model, basePose spatialmath.Pose) world.Body {
	w.mu.Lock()
	defer w.mu.Unlock()
	inputs := make([]referenceframe.Input, len(model.DoF()))
	for i, limit := range model.DoF() {
		inputs[i] = referenceframe.Input{Value: limit.Clamp(0)}
	}
	w.entities = append(w.entities, &entity{name: model.Name(), pose: basePose, model: model, inputs: inputs})
	body := world.Body(len(w.entities) - 1)
	w.logger.Debugw("added robot", "name", model.Name(), "body", body, "dof", len(inputs))
	return body
}

// BodyFromName returns the first body with the given name.
func (w *World) BodyFromName(name string) (world.Body, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, e := range w.entities {
		if e.name == name {
			return world.Body(i), nil
		}
	}
	return 0, errors.Wrapf(world.ErrUnknownBody, "no body named %q", name)
}

// Bodies returns every body handle in insertion order.
func (w *World) Bodies() []world.Body {
	w.mu.Lock()
	defer w.mu.Unlock()
	bodies := make([]world.Body, len(w.entities))
	for i := range w.entities {
		bodies[i] = world.Body(i)
	}
	return bodies
}

// Close stops real time simulation.
func (w *World) Close() error {
	return w.SetRealTime(false)
}

func (w *World) entity(body world.Body) (*entity, error) {
	if body < 0 || int(body) >= len(w.entities) {
		return nil, world.NewUnknownBodyError(body)
	}
	return w.entities[body], nil
}

func (w *World) robot(body world.Body) (*entity, error) {
	e, err := w.entity(body)
	if err != nil {
		return nil, err
	}
	if e.model == nil {
		return nil, errors.Errorf("body %d (%s) is not a robot", body, e.name)
	}
	return e, nil
}

// BodyName returns the name the body was added with.
func (w *World) BodyName(body world.Body) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.entity(body)
	if err != nil {
		return "", err
	}
	return e.name, nil
}

// Pose returns the body pose, or the base pose of a robot.
func (w *World) Pose(body world.Body) (spatialmath.Pose, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.entity(body)
	if err != nil {
		return nil, err
	}
	return e.pose, nil
}

// SetPose moves a body, or the base of a robot.
func (w *World) SetPose(body world.Body, pose spatialmath.Pose) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.entity(body)
	if err != nil {
		return err
	}
	e.pose = pose
	return nil
}

// LinkFromName resolves a link name of a robot.
func (w *World) LinkFromName(body world.Body, name string) (world.Link, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.entity(body)
	if err != nil {
		return 0, err
	}
	if e.model != nil {
		for i, linkName := range e.model.LinkNames() {
			if linkName == name {
				return world.Link(i), nil
			}
		}
	}
	return 0, world.NewUnknownLinkError(body, name)
}

// LinkPose returns the world pose of a link. BaseLink is the body pose.
func (w *World) LinkPose(body world.Body, link world.Link) (spatialmath.Pose, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.entity(body)
	if err != nil {
		return nil, err
	}
	return w.linkPose(e, link)
}

func (w *World) linkPose(e *entity, link world.Link) (spatialmath.Pose, error) {
	if link == world.BaseLink {
		return e.pose, nil
	}
	if e.model == nil {
		return nil, errors.Errorf("%s has no link %d", e.name, link)
	}
	local, err := e.model.LinkPose(link, e.inputs)
	if err != nil {
		return nil, err
	}
	return spatialmath.Compose(e.pose, local), nil
}

// MovableJoints returns every joint of a robot and nothing for boxes.
func (w *World) MovableJoints(body world.Body) ([]world.Joint, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.entity(body)
	if err != nil {
		return nil, err
	}
	joints := make([]world.Joint, len(e.inputs))
	for i := range joints {
		joints[i] = world.Joint(i)
	}
	return joints, nil
}

func checkJoints(e *entity, joints []world.Joint) error {
	for _, j := range joints {
		if j < 0 || int(j) >= len(e.inputs) {
			return errors.Errorf("%s has no joint %d", e.name, j)
		}
	}
	return nil
}

// JointLimits returns the limits of the given joints.
func (w *World) JointLimits(body world.Body, joints []world.Joint) ([]referenceframe.Limit, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.robot(body)
	if err != nil {
		return nil, err
	}
	if err := checkJoints(e, joints); err != nil {
		return nil, err
	}
	dof := e.model.DoF()
	limits := make([]referenceframe.Limit, len(joints))
	for i, j := range joints {
		limits[i] = dof[j]
	}
	return limits, nil
}

// JointPositions returns the current values of the given joints.
func (w *World) JointPositions(body world.Body, joints []world.Joint) ([]referenceframe.Input, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.entity(body)
	if err != nil {
		return nil, err
	}
	if err := checkJoints(e, joints); err != nil {
		return nil, err
	}
	values := make([]referenceframe.Input, len(joints))
	for i, j := range joints {
		values[i] = e.inputs[j]
	}
	return values, nil
}

// SetJointPositions teleports the given joints. Constrained bodies follow on the next step.
func (w *World) SetJointPositions(body world.Body, joints []world.Joint, values []referenceframe.Input) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, err := w.entity(body)
	if err != nil {
		return err
	}
	if len(joints) != len(values) {
		return referenceframe.NewIncorrectDoFError(len(values), len(joints))
	}
	if err := checkJoints(e, joints); err != nil {
		return err
	}
	for i, j := range joints {
		e.inputs[j] = values[i]
	}
	return nil
}
