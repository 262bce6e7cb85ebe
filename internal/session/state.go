package session

import (
	"github.com/repeticio/repeticio/internal/exercise"
)

// Phase is the composed view of the session state.
type Phase int

const (
	PhaseIdle       Phase = iota // no active exercise, nothing in flight
	PhaseFetching                // fetch dispatched, no exercise yet
	PhaseLoaded                  // active exercise, waiting for an answer
	PhaseSubmitting              // answer dispatched for the active exercise
	PhaseResolved                // just resolved; folds into Idle on the next operation
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseLoaded:
		return "loaded"
	case PhaseSubmitting:
		return "submitting"
	case PhaseResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// State is a value snapshot of the session. The machine owns the live copy;
// everything handed out is a deep copy.
type State struct {
	// Active is the exercise in play. ActiveID is set exactly when Active
	// is, and always equals Active.ID.
	Active   *exercise.Exercise
	ActiveID string

	// Last is the most recently resolved exercise.
	Last   *exercise.Exercise
	LastID string

	// LastResult is the outcome of the most recent successful submission.
	LastResult *exercise.Result

	// LastRating is the thumbs up (true) or down (false) the backend
	// accepted for Last. Nil until rated.
	LastRating *bool

	// InFlight is true while a fetch or submit is dispatched and unresolved.
	InFlight bool

	// Resolved marks the state right after a successful submission. The
	// next guarded operation clears it.
	Resolved bool
}

// HasActive reports whether an exercise is in play.
func (s State) HasActive() bool {
	return s.ActiveID != ""
}

// CanFetch reports whether a fetch may start: no active exercise and
// nothing in flight.
func (s State) CanFetch() bool {
	return !s.HasActive() && !s.InFlight
}

// CanSubmit reports whether a submission may start: an active exercise and
// nothing in flight.
func (s State) CanSubmit() bool {
	return s.HasActive() && !s.InFlight
}

// CanRate reports whether Last may be rated: it exists, has not been rated
// and nothing is in flight.
func (s State) CanRate() bool {
	return s.LastID != "" && s.LastRating == nil && !s.InFlight
}

// Phase derives the composed phase.
func (s State) Phase() Phase {
	switch {
	case s.InFlight && s.HasActive():
		return PhaseSubmitting
	case s.InFlight:
		return PhaseFetching
	case s.HasActive():
		return PhaseLoaded
	case s.Resolved:
		return PhaseResolved
	default:
		return PhaseIdle
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Active = s.Active.Clone()
	out.Last = s.Last.Clone()
	if s.LastResult != nil {
		r := *s.LastResult
		if s.LastResult.Correct != nil {
			c := *s.LastResult.Correct
			r.Correct = &c
		}
		r.Raw = append([]byte(nil), s.LastResult.Raw...)
		out.LastResult = &r
	}
	if s.LastRating != nil {
		v := *s.LastRating
		out.LastRating = &v
	}
	return out
}
