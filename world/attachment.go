package world

import (
	"fmt"

	"go.viam.com/manipulation/spatialmath"
)

// Attachment rigidly couples a child body to a robot link. It is derived from a grasp whenever
// needed and never stored by the engine.
type Attachment struct {
	Robot     Body
	Link      Link
	GraspPose spatialmath.Pose
	Child     Body
}

// NewAttachment returns a new Attachment.
func NewAttachment(robot Body, link Link, graspPose spatialmath.Pose, child Body) *Attachment {
	return &Attachment{Robot: robot, Link: link, GraspPose: graspPose, Child: child}
}

// Assign moves the child so it keeps the grasp transform relative to the current link pose, and
// returns the pose that was applied.
func (a *Attachment) Assign(w State) (spatialmath.Pose, error) {
	linkPose, err := w.LinkPose(a.Robot, a.Link)
	if err != nil {
		return nil, err
	}
	childPose := spatialmath.Compose(linkPose, a.GraspPose)
	if err := w.SetPose(a.Child, childPose); err != nil {
		return nil, err
	}
	return childPose, nil
}

func (a *Attachment) String() string {
	return fmt.Sprintf("Attachment{robot: %d, link: %d, child: %d}", a.Robot, a.Link, a.Child)
}
