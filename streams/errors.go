package streams

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInfeasible is matched by every InfeasibleError. It means the bindings admit no solution
	// within the attempt budget, which a task planner should backtrack on.
	ErrInfeasible = errors.New("infeasible")

	// ErrPrecondition is matched by every PreconditionError. It means the caller broke the
	// contract of a planning function.
	ErrPrecondition = errors.New("precondition violated")

	// ErrNotImplemented is returned by declared operations that have no implementation.
	ErrNotImplemented = errors.New("not implemented")
)

// InfeasibleError reports that every attempt of a planning function failed.
type InfeasibleError struct {
	Op       string
	Attempts int
	// Reasons combines the failure of every attempt.
	Reasons error
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("%s infeasible after %d attempt(s): %v", e.Op, e.Attempts, e.Reasons)
}

// Is matches ErrInfeasible.
func (e *InfeasibleError) Is(target error) bool {
	return target == ErrInfeasible
}

// Unwrap returns the combined attempt failures.
func (e *InfeasibleError) Unwrap() error {
	return e.Reasons
}

// PreconditionError reports a caller contract violation. It is never retried.
type PreconditionError struct {
	Op     string
	Reason string
}

// NewPreconditionError returns a PreconditionError.
func NewPreconditionError(op, format string, args ...interface{}) error {
	return &PreconditionError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrPrecondition, e.Reason)
}

// Is matches ErrPrecondition.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// attemptFailed marks an error as a recoverable failure of a single attempt.
type attemptFailed struct {
	err error
}

func (a *attemptFailed) Error() string {
	return a.err.Error()
}

func (a *attemptFailed) Unwrap() error {
	return a.err
}

func failAttempt(err error) error {
	return &attemptFailed{err: err}
}

func failAttemptf(format string, args ...interface{}) error {
	return &attemptFailed{err: errors.Errorf(format, args...)}
}
