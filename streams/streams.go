// Package streams turns symbolic pick and place actions into verified geometry. It provides
// candidate generators for grasps and placements, IK and motion planning functions that return
// executable commands, and a collision test for re-validating commands against moved bodies.
//
// Every function reports infeasibility as an error matching ErrInfeasible, which a task planner
// should treat as a reason to backtrack. Errors matching ErrPrecondition are caller bugs.
// Planning functions mutate the shared world and are not safe to call concurrently.
package streams

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/manipulation/logging"
	"go.viam.com/manipulation/motionplan"
	"go.viam.com/manipulation/world"
)

// FailureHook is called after every failed attempt, for example to pause for inspection.
type FailureHook func(op string, err error)

// Streams holds the collaborators shared by every generator and planning function.
type Streams struct {
	w         world.World
	ik        motionplan.IKSolver
	robotIK   motionplan.IKSolver
	planner   motionplan.Planner
	cfg       *Config
	fixed     []world.Body
	onFailure FailureHook
	rand      *rand.Rand
	logger    logging.Logger
}

// Option configures Streams.
type Option func(*Streams)

// WithFixed declares bodies that never move, such as tables. They are obstacles for every plan.
func WithFixed(bodies ...world.Body) Option {
	return func(s *Streams) {
		s.fixed = append(s.fixed, bodies...)
	}
}

// WithRobotIK sets the alternate solver used by RobotIKFn. It defaults to the primary solver.
func WithRobotIK(ik motionplan.IKSolver) Option {
	return func(s *Streams) {
		s.robotIK = ik
	}
}

// WithFailureHook sets a hook called after every failed attempt.
func WithFailureHook(hook FailureHook) Option {
	return func(s *Streams) {
		s.onFailure = hook
	}
}

// WithRandSource sets the source of random IK seeds.
func WithRandSource(r *rand.Rand) Option {
	return func(s *Streams) {
		s.rand = r
	}
}

// New returns Streams over w. A nil cfg uses NewDefaultConfig.
func New(
	w world.World,
	ik motionplan.IKSolver,
	planner motionplan.Planner,
	cfg *Config,
	logger logging.Logger,
	opts ...Option,
) (*Streams, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate("streams"); err != nil {
		return nil, err
	}
	if w == nil || ik == nil || planner == nil {
		return nil, errors.New("streams need a world, an ik solver and a planner")
	}
	s := &Streams{
		w:       w,
		ik:      ik,
		planner: planner,
		cfg:     cfg,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.robotIK == nil {
		s.robotIK = ik
	}
	if s.rand == nil {
		seed := cfg.RSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		//nolint:gosec
		s.rand = rand.New(rand.NewSource(seed))
	}
	return s, nil
}

// Config returns the configuration in use.
func (s *Streams) Config() *Config {
	return s.cfg
}

// logCandidate logs a produced value at info in verbose mode and at debug otherwise.
func (s *Streams) logCandidate(msg string, keysAndValues ...interface{}) {
	if s.cfg.Verbose {
		s.logger.Infow(msg, keysAndValues...)
		return
	}
	s.logger.Debugw(msg, keysAndValues...)
}

// retry runs fn up to attempts times. Attempt failures are collected into an InfeasibleError once
// the budget is spent; any other error stops the loop and is returned as is.
func (s *Streams) retry(ctx context.Context, op string, attempts int, fn func(attempt int) error) error {
	var reasons error
	for attempt := range attempts {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(attempt)
		if err == nil {
			return nil
		}
		var failed *attemptFailed
		if !errors.As(err, &failed) {
			return err
		}
		s.logger.CDebugw(ctx, "attempt failed", "op", op, "attempt", attempt, "error", err)
		if s.onFailure != nil {
			s.onFailure(op, err)
		}
		reasons = multierr.Append(reasons, err)
	}
	return &InfeasibleError{Op: op, Attempts: attempts, Reasons: reasons}
}

// unlessCanceled turns a collaborator failure into an attempt failure, unless ctx is done.
func unlessCanceled(ctx context.Context, err error, msg string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return failAttempt(errors.Wrap(err, msg))
}
