package primitives

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	goutils "go.viam.com/utils"

	"go.viam.com/manipulation/motionplan"
	"go.viam.com/manipulation/world"
)

// Command is one manipulation action: an ordered list of segments executed in sequence.
type Command struct {
	ID       uuid.UUID
	Segments []Segment
	index    uint64
}

// NewCommand returns a Command executing segments in order.
func NewCommand(segments ...Segment) *Command {
	return &Command{ID: uuid.New(), Segments: segments, index: nextIndex(&commandCount)}
}

// Bodies returns every body any segment moves or couples, in first-seen order.
func (c *Command) Bodies() []world.Body {
	return lo.Uniq(lo.FlatMap(c.Segments, func(s Segment, _ int) []world.Body { return s.Bodies() }))
}

// ConfirmFunc is called after every replayed step. Returning an error stops the replay.
type ConfirmFunc func(segment, step int) error

// Step replays every segment kinematically, calling confirm after each step.
func (c *Command) Step(ctx context.Context, w world.State, confirm ConfirmFunc) error {
	for i, segment := range c.Segments {
		for j, err := range segment.Iterator(w) {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if confirm != nil {
				if err := confirm(i, j); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Execute replays every segment kinematically, pausing timeStep after each step.
func (c *Command) Execute(ctx context.Context, w world.State, timeStep time.Duration) error {
	return c.ExecuteWithClock(ctx, w, clock.New(), timeStep)
}

// ExecuteWithClock is Execute paced by the given clock.
func (c *Command) ExecuteWithClock(ctx context.Context, w world.State, clk clock.Clock, timeStep time.Duration) error {
	if timeStep <= 0 {
		return c.Step(ctx, w, nil)
	}
	ticker := clk.Ticker(timeStep)
	defer ticker.Stop()
	return c.Step(ctx, w, func(int, int) error {
		if !goutils.SelectContextOrWaitChan(ctx, ticker.C) {
			return ctx.Err()
		}
		return nil
	})
}

// Control replays every segment through the world's controllers and constraints.
func (c *Command) Control(ctx context.Context, w world.World, opts ControlOptions) error {
	for i, segment := range c.Segments {
		if err := segment.Control(ctx, w, opts); err != nil {
			return errors.Wrapf(err, "segment %d of %s", i, c)
		}
	}
	return nil
}

// Refine returns a new Command with every segment refined. Attach and Detach are unchanged.
func (c *Command) Refine(w world.State, refiner motionplan.Refiner, numSteps int) (*Command, error) {
	segments := make([]Segment, 0, len(c.Segments))
	for _, segment := range c.Segments {
		refined, err := segment.Refine(w, refiner, numSteps)
		if err != nil {
			return nil, err
		}
		segments = append(segments, refined)
	}
	return NewCommand(segments...), nil
}

// Reverse returns the Command that undoes c: the segments in reverse order, each reversed.
func (c *Command) Reverse() *Command {
	segments := make([]Segment, 0, len(c.Segments))
	for i := len(c.Segments) - 1; i >= 0; i-- {
		segments = append(segments, c.Segments[i].Reverse())
	}
	return NewCommand(segments...)
}

func (c *Command) String() string {
	return fmt.Sprintf("c%d", c.index)
}
