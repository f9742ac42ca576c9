package primitives

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	goutils "go.viam.com/utils"

	"go.viam.com/manipulation/motionplan"
	"go.viam.com/manipulation/referenceframe"
	"go.viam.com/manipulation/world"
)

const defaultMaxControlSteps = 1000

// ControlOptions configure physical replay through the world's controllers.
type ControlOptions struct {
	// RealTime lets the world advance on its own clock instead of being stepped.
	RealTime bool
	// DT is the pause between controller ticks.
	DT time.Duration
	// MaxControlSteps bounds the ticks spent converging on a single waypoint.
	MaxControlSteps int
}

// DefaultControlOptions returns stepped control with no pause between ticks.
func DefaultControlOptions() ControlOptions {
	return ControlOptions{MaxControlSteps: defaultMaxControlSteps}
}

// Segment is one part of a Command. The only implementations are *Path, *Attach and *Detach.
type Segment interface {
	// Bodies returns the bodies the segment moves or couples.
	Bodies() []world.Body
	// Iterator replays the segment kinematically, yielding a step index after each world update.
	Iterator(w world.State) iter.Seq2[int, error]
	// Control replays the segment through the world's controllers and constraints.
	Control(ctx context.Context, w world.World, opts ControlOptions) error
	// Refine returns a denser version of the segment.
	Refine(w world.State, refiner motionplan.Refiner, numSteps int) (Segment, error)
	// Reverse returns the segment that undoes this one.
	Reverse() Segment

	isSegment()
}

// Path moves a body's joints through a sequence of waypoints, carrying the held bodies along.
type Path struct {
	Body        world.Body
	Joints      []world.Joint
	Waypoints   [][]referenceframe.Input
	Attachments []*Grasp
}

// NewPath returns a Path. Every waypoint must have one value per joint.
func NewPath(body world.Body, joints []world.Joint, waypoints [][]referenceframe.Input, attachments ...*Grasp) (*Path, error) {
	for _, waypoint := range waypoints {
		if len(waypoint) != len(joints) {
			return nil, referenceframe.NewIncorrectDoFError(len(waypoint), len(joints))
		}
	}
	return &Path{Body: body, Joints: joints, Waypoints: waypoints, Attachments: attachments}, nil
}

// NewPathFromConfs returns a Path through the given configurations, which must share a joint set.
func NewPathFromConfs(confs []*Conf, attachments ...*Grasp) (*Path, error) {
	if len(confs) == 0 {
		return nil, errors.New("path needs at least one configuration")
	}
	waypoints := make([][]referenceframe.Input, 0, len(confs))
	for _, conf := range confs {
		if !conf.SameJointSet(confs[0]) {
			return nil, errors.Errorf("configuration %s does not share the joint set of %s", conf, confs[0])
		}
		waypoints = append(waypoints, conf.Values)
	}
	return NewPath(confs[0].Body, confs[0].Joints, waypoints, attachments...)
}

func (*Path) isSegment() {}

// Bodies returns the moving body and every held body.
func (p *Path) Bodies() []world.Body {
	held := lo.Map(p.Attachments, func(g *Grasp, _ int) world.Body { return g.Body })
	return lo.Uniq(append([]world.Body{p.Body}, held...))
}

// Iterator sets each waypoint in turn and re-assigns the attachments. Every call starts over at
// the first waypoint.
func (p *Path) Iterator(w world.State) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		for i, waypoint := range p.Waypoints {
			if err := p.assign(w, waypoint); err != nil {
				yield(i, err)
				return
			}
			if !yield(i, nil) {
				return
			}
		}
	}
}

func (p *Path) assign(w world.State, waypoint []referenceframe.Input) error {
	if err := w.SetJointPositions(p.Body, p.Joints, waypoint); err != nil {
		return err
	}
	return p.assignAttachments(w)
}

func (p *Path) assignAttachments(w world.State) error {
	for _, g := range p.Attachments {
		if _, err := g.Assign(w); err != nil {
			return err
		}
	}
	return nil
}

// Control drives the joint controllers to each waypoint in turn.
func (p *Path) Control(ctx context.Context, w world.World, opts ControlOptions) error {
	if err := w.SetRealTime(opts.RealTime); err != nil {
		return err
	}
	if opts.MaxControlSteps <= 0 {
		opts.MaxControlSteps = defaultMaxControlSteps
	}
	for i, waypoint := range p.Waypoints {
		if err := w.SetJointTargets(p.Body, p.Joints, waypoint); err != nil {
			return err
		}
		if err := holdUntilAtTarget(ctx, w, p.Body, p.Joints, opts); err != nil {
			return errors.Wrapf(err, "waypoint %d", i)
		}
		if err := p.assignAttachments(w); err != nil {
			return err
		}
	}
	return nil
}

func holdUntilAtTarget(ctx context.Context, w world.World, body world.Body, joints []world.Joint, opts ControlOptions) error {
	for range opts.MaxControlSteps {
		done, err := w.JointsAtTarget(body, joints)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if err := w.EnableGravity(); err != nil {
			return err
		}
		if !opts.RealTime {
			if err := w.StepSimulation(); err != nil {
				return err
			}
		}
		if opts.DT > 0 {
			if !goutils.SelectContextOrWait(ctx, opts.DT) {
				return ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
	}
	return errors.Errorf("joints did not reach their targets within %d control steps", opts.MaxControlSteps)
}

// Refine densifies the waypoints with refiner, keeping the joints and attachments.
func (p *Path) Refine(w world.State, refiner motionplan.Refiner, numSteps int) (Segment, error) {
	waypoints, err := refiner.Refine(w, p.Body, p.Joints, p.Waypoints, numSteps)
	if err != nil {
		return nil, err
	}
	return NewPath(p.Body, p.Joints, waypoints, p.Attachments...)
}

// Reverse returns the path with its waypoints reversed. Joints and attachments are shared.
func (p *Path) Reverse() Segment {
	waypoints := slices.Clone(p.Waypoints)
	slices.Reverse(waypoints)
	return &Path{Body: p.Body, Joints: p.Joints, Waypoints: waypoints, Attachments: p.Attachments}
}

func (p *Path) String() string {
	return fmt.Sprintf("Path{body: %d, waypoints: %d, attachments: %d}", p.Body, len(p.Waypoints), len(p.Attachments))
}

// Attach rigidly couples a body to a robot link.
type Attach struct {
	Body  world.Body
	Robot world.Body
	Link  world.Link
}

// NewAttach returns a new Attach.
func NewAttach(body, robot world.Body, link world.Link) *Attach {
	return &Attach{Body: body, Robot: robot, Link: link}
}

func (*Attach) isSegment() {}

// Bodies returns the attached body and the robot.
func (a *Attach) Bodies() []world.Body {
	return []world.Body{a.Body, a.Robot}
}

// Iterator yields nothing.
func (a *Attach) Iterator(world.State) iter.Seq2[int, error] {
	return emptySeq
}

// Control adds the fixed constraint.
func (a *Attach) Control(_ context.Context, w world.World, _ ControlOptions) error {
	return w.AddFixedConstraint(a.Body, a.Robot, a.Link)
}

// Refine returns a.
func (a *Attach) Refine(world.State, motionplan.Refiner, int) (Segment, error) {
	return a, nil
}

// Reverse returns the matching Detach.
func (a *Attach) Reverse() Segment {
	return &Detach{Body: a.Body, Robot: a.Robot, Link: a.Link}
}

func (a *Attach) String() string {
	return fmt.Sprintf("Attach{body: %d, robot: %d, link: %d}", a.Body, a.Robot, a.Link)
}

// Detach removes the coupling created by an Attach.
type Detach struct {
	Body  world.Body
	Robot world.Body
	Link  world.Link
}

// NewDetach returns a new Detach.
func NewDetach(body, robot world.Body, link world.Link) *Detach {
	return &Detach{Body: body, Robot: robot, Link: link}
}

func (*Detach) isSegment() {}

// Bodies returns the detached body and the robot.
func (d *Detach) Bodies() []world.Body {
	return []world.Body{d.Body, d.Robot}
}

// Iterator yields nothing.
func (d *Detach) Iterator(world.State) iter.Seq2[int, error] {
	return emptySeq
}

// Control removes the fixed constraint.
func (d *Detach) Control(_ context.Context, w world.World, _ ControlOptions) error {
	return w.RemoveFixedConstraint(d.Body, d.Robot, d.Link)
}

// Refine returns d.
func (d *Detach) Refine(world.State, motionplan.Refiner, int) (Segment, error) {
	return d, nil
}

// Reverse returns the matching Attach.
func (d *Detach) Reverse() Segment {
	return &Attach{Body: d.Body, Robot: d.Robot, Link: d.Link}
}

func (d *Detach) String() string {
	return fmt.Sprintf("Detach{body: %d, robot: %d, link: %d}", d.Body, d.Robot, d.Link)
}

func emptySeq(func(int, error) bool) {}
