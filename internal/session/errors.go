package session

import (
	"errors"
	"fmt"

	"github.com/repeticio/repeticio/internal/backend"
)

// Guard rejection reasons.
var (
	ErrAlreadyActive    = errors.New("an exercise is already active")
	ErrNoActiveExercise = errors.New("no active exercise")
	ErrBusy             = errors.New("a request is already in flight")
	ErrNothingToRate    = errors.New("no answered exercise to rate")
	ErrAlreadyRated     = errors.New("exercise already rated")
)

// ErrNoClient is the transport failure reported when a machine was built
// without a backend client.
var ErrNoClient = errors.New("no backend client configured")

// Validation failure reasons raised by the session itself. Exercise
// completeness failures wrap exercise.ErrIncomplete or exercise.ErrMissingID.
var (
	ErrMissingExercise  = errors.New("backend reported success without an exercise")
	ErrAnswerOutOfRange = errors.New("answer index out of range")
)

// ErrStaleOutcome is returned by Complete for an outcome whose ticket is no
// longer pending. The outcome has no effect.
var ErrStaleOutcome = errors.New("stale outcome ignored")

// GuardRejection is returned when an operation is attempted while the
// request guard disallows it. It has no side effects.
type GuardRejection struct {
	Op     string
	Reason error
}

func (e *GuardRejection) Error() string {
	return fmt.Sprintf("%s rejected: %v", e.Op, e.Reason)
}

func (e *GuardRejection) Unwrap() error { return e.Reason }

// ValidationFailure is returned when an exercise or an answer fails local
// validation. Nothing is committed.
type ValidationFailure struct {
	ExerciseID string
	Err        error
}

func (e *ValidationFailure) Error() string {
	if e.ExerciseID == "" {
		return fmt.Sprintf("validation failed: %v", e.Err)
	}
	return fmt.Sprintf("exercise %s: validation failed: %v", e.ExerciseID, e.Err)
}

func (e *ValidationFailure) Unwrap() error { return e.Err }

// Kind classifies session errors.
type Kind int

const (
	KindUnknown Kind = iota
	KindGuard
	KindTransport
	KindBackend
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindGuard:
		return "guard"
	case KindTransport:
		return "transport"
	case KindBackend:
		return "backend"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// KindOf classifies err. A nil error is KindUnknown.
func KindOf(err error) Kind {
	var (
		gr *GuardRejection
		vf *ValidationFailure
		be *backend.BackendError
		te *backend.TransportError
	)
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &gr):
		return KindGuard
	case errors.As(err, &vf):
		return KindValidation
	case errors.As(err, &be):
		return KindBackend
	case errors.As(err, &te):
		return KindTransport
	default:
		return KindUnknown
	}
}
