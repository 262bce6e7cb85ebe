package session

import (
	"github.com/repeticio/repeticio/internal/backend"
	"github.com/repeticio/repeticio/internal/exercise"
)

// Ticket is the right to run one dispatched request. It is issued by
// BeginFetch or BeginSubmit and redeemed exactly once by Complete.
type Ticket struct {
	seq uint64
	op  string

	// Submit: the exercise active at dispatch time. Rate: the exercise
	// being rated.
	answer     int
	exerciseID string
	exercise   *exercise.Exercise

	positive bool
}

// Op returns backend.OpFetch, backend.OpSubmit or backend.OpRate.
func (t *Ticket) Op() string { return t.op }

// Answer returns the submitted answer index.
func (t *Ticket) Answer() int { return t.answer }

// ExerciseID returns the id of the exercise being answered or rated.
func (t *Ticket) ExerciseID() string { return t.exerciseID }

// Positive reports whether a rate ticket carries a thumbs up.
func (t *Ticket) Positive() bool { return t.positive }

// acquireFetch evaluates the fetch guard and, when allowed, marks the
// session in flight. Caller holds m.mu.
func (m *Machine) acquireFetch() (*Ticket, error) {
	if !m.state.CanFetch() {
		reason := ErrAlreadyActive
		if m.state.InFlight {
			reason = ErrBusy
		}
		return nil, &GuardRejection{Op: backend.OpFetch, Reason: reason}
	}
	return m.acquire(&Ticket{op: backend.OpFetch}), nil
}

// acquireSubmit evaluates the submit guard and the answer range and, when
// both pass, marks the session in flight with a snapshot of the active
// exercise. Caller holds m.mu.
func (m *Machine) acquireSubmit(answer int) (*Ticket, error) {
	if !m.state.CanSubmit() {
		reason := ErrNoActiveExercise
		if m.state.InFlight {
			reason = ErrBusy
		}
		return nil, &GuardRejection{Op: backend.OpSubmit, Reason: reason}
	}
	if !m.state.Active.HasChoice(answer) {
		return nil, &ValidationFailure{ExerciseID: m.state.ActiveID, Err: ErrAnswerOutOfRange}
	}
	return m.acquire(&Ticket{
		op:         backend.OpSubmit,
		answer:     answer,
		exerciseID: m.state.ActiveID,
		exercise:   m.state.Active.Clone(),
	}), nil
}

// acquireRate evaluates the rating guard for the last resolved exercise.
// Caller holds m.mu.
func (m *Machine) acquireRate(positive bool) (*Ticket, error) {
	if !m.state.CanRate() {
		reason := ErrNothingToRate
		switch {
		case m.state.InFlight:
			reason = ErrBusy
		case m.state.LastRating != nil:
			reason = ErrAlreadyRated
		}
		return nil, &GuardRejection{Op: backend.OpRate, Reason: reason}
	}
	return m.acquire(&Ticket{
		op:         backend.OpRate,
		exerciseID: m.state.LastID,
		positive:   positive,
	}), nil
}

// discardActive drops the active exercise without a request. Caller holds
// m.mu.
func (m *Machine) discardActive() (string, error) {
	switch {
	case m.state.InFlight:
		return "", &GuardRejection{Op: opDiscard, Reason: ErrBusy}
	case !m.state.HasActive():
		return "", &GuardRejection{Op: opDiscard, Reason: ErrNoActiveExercise}
	}
	id := m.state.ActiveID
	m.state.Active = nil
	m.state.ActiveID = ""
	m.state.Resolved = false
	return id, nil
}

func (m *Machine) acquire(t *Ticket) *Ticket {
	m.seq++
	t.seq = m.seq
	m.pending = t.seq
	m.state.InFlight = true
	m.state.Resolved = false
	return t
}

// release clears the in-flight marker for t. It reports false when t is not
// the pending ticket, in which case nothing changes. Caller holds m.mu.
func (m *Machine) release(t *Ticket) bool {
	if t == nil || t.seq == 0 || t.seq != m.pending {
		return false
	}
	m.pending = 0
	m.state.InFlight = false
	return true
}
