// Package primitives contains the geometric values (poses, grasps, configurations) and the
// executable commands that pick and place planning produces. Every value is a handle: equality is
// pointer identity and the display index is for humans only.
package primitives

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/spatialmath"
	"go.viam.com/manipulation/world"
)

// Display counters, one per value type.
var (
	poseCount    atomic.Uint64
	graspCount   atomic.Uint64
	confCount    atomic.Uint64
	commandCount atomic.Uint64
)

func nextIndex(counter *atomic.Uint64) uint64 {
	return counter.Inc() - 1
}

// Pose is the pose of a body, fixed at construction. Assign is the only way it reaches the world.
type Pose struct {
	ID    uuid.UUID
	Body  world.Body
	Value spatialmath.Pose
	index uint64
}

// NewPose returns a Pose of body at value.
func NewPose(body world.Body, value spatialmath.Pose) *Pose {
	return &Pose{ID: uuid.New(), Body: body, Value: value, index: nextIndex(&poseCount)}
}

// NewPoseFromWorld reads the current pose of body.
func NewPoseFromWorld(w world.State, body world.Body) (*Pose, error) {
	value, err := w.Pose(body)
	if err != nil {
		return nil, err
	}
	return NewPose(body, value), nil
}

// Assign sets the body to the stored pose and returns it.
func (p *Pose) Assign(w world.State) (spatialmath.Pose, error) {
	if err := w.SetPose(p.Body, p.Value); err != nil {
		return nil, err
	}
	return p.Value, nil
}

func (p *Pose) String() string {
	return fmt.Sprintf("p%d", p.index)
}

// Grasp is where a robot link must be to hold a body. GraspPose is the body pose in the link
// frame and ApproachPose is the pre-grasp offset, applied in the world frame before the grasp.
type Grasp struct {
	ID           uuid.UUID
	Body         world.Body
	GraspPose    spatialmath.Pose
	ApproachPose spatialmath.Pose
	Robot        world.Body
	Link         world.Link
	index        uint64
}

// NewGrasp returns a new Grasp.
func NewGrasp(body world.Body, graspPose, approachPose spatialmath.Pose, robot world.Body, link world.Link) *Grasp {
	return &Grasp{
		ID:           uuid.New(),
		Body:         body,
		GraspPose:    graspPose,
		ApproachPose: approachPose,
		Robot:        robot,
		Link:         link,
		index:        nextIndex(&graspCount),
	}
}

// Value returns the grasp transform.
func (g *Grasp) Value() spatialmath.Pose {
	return g.GraspPose
}

// Approach returns the approach transform.
func (g *Grasp) Approach() spatialmath.Pose {
	return g.ApproachPose
}

// Attachment derives the attachment that holds the body at this grasp.
func (g *Grasp) Attachment() *world.Attachment {
	return world.NewAttachment(g.Robot, g.Link, g.GraspPose, g.Body)
}

// Assign moves the body to the grasp relative to the current link pose and returns the body pose.
func (g *Grasp) Assign(w world.State) (spatialmath.Pose, error) {
	return g.Attachment().Assign(w)
}

func (g *Grasp) String() string {
	return fmt.Sprintf("g%d", g.index)
}

// Conf is a joint configuration of a body.
type Conf struct {
	ID     uuid.UUID
	Body   world.Body
	Joints []world.Joint
	Values []referenceframe.Input
	index  uint64
}

// NewConf returns a Conf. It fails when joints and values differ in length.
func NewConf(body world.Body, joints []world.Joint, values []referenceframe.Input) (*Conf, error) {
	if len(joints) != len(values) {
		return nil, referenceframe.NewIncorrectDoFError(len(values), len(joints))
	}
	return &Conf{
		ID:     uuid.New(),
		Body:   body,
		Joints: joints,
		Values: values,
		index:  nextIndex(&confCount),
	}, nil
}

// NewConfFromWorld reads the current values of joints. Nil joints means every movable joint.
func NewConfFromWorld(w world.State, body world.Body, joints []world.Joint) (*Conf, error) {
	if joints == nil {
		var err error
		if joints, err = w.MovableJoints(body); err != nil {
			return nil, err
		}
	}
	values, err := w.JointPositions(body, joints)
	if err != nil {
		return nil, err
	}
	return NewConf(body, joints, values)
}

// Assign sets the joints to the stored values and returns them.
func (c *Conf) Assign(w world.State) ([]referenceframe.Input, error) {
	if err := w.SetJointPositions(c.Body, c.Joints, c.Values); err != nil {
		return nil, err
	}
	return c.Values, nil
}

// SameJointSet reports whether other is a configuration of the same body and joint list.
func (c *Conf) SameJointSet(other *Conf) bool {
	return c.Body == other.Body && slices.Equal(c.Joints, other.Joints)
}

func (c *Conf) String() string {
	return fmt.Sprintf("q%d", c.index)
}
