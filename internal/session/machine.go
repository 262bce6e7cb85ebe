package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/repeticio/repeticio/internal/backend"
	"github.com/repeticio/repeticio/internal/exercise"
)

// DefaultTimeout bounds a dispatched request when Options.Timeout is zero.
const DefaultTimeout = 15 * time.Second

const opDiscard = "discard"

// Options configures a Machine.
type Options struct {
	// Client performs the backend requests. It is required: without one
	// every dispatch fails with a TransportError wrapping ErrNoClient.
	Client backend.Client

	// Timeout bounds every dispatched request. Zero selects DefaultTimeout.
	Timeout time.Duration

	// Logger receives guard rejections and transitions. Nil disables logging.
	Logger *zerolog.Logger

	// SessionID identifies this session in logs and attempt history. Empty
	// generates one.
	SessionID string
}

// Machine is the single-exercise session state machine. All state changes
// happen under one mutex; network I/O happens in Dispatch, which never
// touches state.
type Machine struct {
	client    backend.Client
	timeout   time.Duration
	log       zerolog.Logger
	sessionID string

	mu      sync.Mutex
	state   State
	seq     uint64
	pending uint64 // seq of the dispatched ticket, 0 when none

	observers    map[int]Observer
	nextObserver int
}

// NewMachine creates an idle session.
func NewMachine(opts Options) *Machine {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	return &Machine{
		client:    opts.Client,
		timeout:   timeout,
		log:       log.With().Str("session", sessionID).Logger(),
		sessionID: sessionID,
		observers: make(map[int]Observer),
	}
}

// SessionID returns the session identifier.
func (m *Machine) SessionID() string {
	return m.sessionID
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// BeginFetch acquires the guard for a fetch. On success the session is in
// flight until the returned ticket is completed.
func (m *Machine) BeginFetch() (*Ticket, error) {
	m.mu.Lock()
	t, err := m.acquireFetch()
	m.mu.Unlock()

	if err != nil {
		m.log.Debug().Err(err).Msg("fetch not started")
		return nil, err
	}
	m.log.Debug().Uint64("ticket", t.seq).Msg("fetch dispatched")
	return t, nil
}

// BeginSubmit acquires the guard for submitting answer against the active
// exercise. An out-of-range answer is a ValidationFailure and leaves the
// session untouched.
func (m *Machine) BeginSubmit(answer int) (*Ticket, error) {
	m.mu.Lock()
	t, err := m.acquireSubmit(answer)
	m.mu.Unlock()

	if err != nil {
		m.log.Debug().Err(err).Int("answer", answer).Msg("submit not started")
		return nil, err
	}
	m.log.Debug().
		Uint64("ticket", t.seq).
		Str("exercise", t.exerciseID).
		Int("answer", answer).
		Msg("submit dispatched")
	return t, nil
}

// BeginRate acquires the guard for rating the last resolved exercise.
func (m *Machine) BeginRate(positive bool) (*Ticket, error) {
	m.mu.Lock()
	t, err := m.acquireRate(positive)
	m.mu.Unlock()

	if err != nil {
		m.log.Debug().Err(err).Msg("rating not started")
		return nil, err
	}
	m.log.Debug().
		Uint64("ticket", t.seq).
		Str("exercise", t.exerciseID).
		Bool("positive", positive).
		Msg("rating dispatched")
	return t, nil
}

// Outcome is the result of running a ticket's request.
type Outcome struct {
	Ticket   *Ticket
	Exercise *exercise.Exercise // fetch
	Result   *exercise.Result   // submit
	Err      error
}

// Dispatch performs the one request t stands for, bounded by the machine's
// timeout. It does not read or modify session state and is safe to run on
// any goroutine.
func (m *Machine) Dispatch(ctx context.Context, t *Ticket) Outcome {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	out := Outcome{Ticket: t}
	if m.client == nil {
		out.Err = &backend.TransportError{Op: t.op, Err: ErrNoClient}
		return out
	}
	switch t.op {
	case backend.OpFetch:
		out.Exercise, out.Err = m.client.IssueExercise(ctx)
	case backend.OpSubmit:
		out.Result, out.Err = m.client.SubmitAnswer(ctx, backend.SubmitRequest{
			Answer:     t.answer,
			ExerciseID: t.exerciseID,
		})
	case backend.OpRate:
		out.Err = m.client.Rate(ctx, backend.RateRequest{
			ExerciseID: t.exerciseID,
			Positive:   t.positive,
		})
	default:
		out.Err = fmt.Errorf("unknown operation %q", t.op)
	}
	out.Err = classifyTransport(t.op, out.Err)
	return out
}

// classifyTransport wraps bare context and transport errors from clients
// that do not produce backend error types themselves.
func classifyTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		be *backend.BackendError
		te *backend.TransportError
	)
	if errors.As(err, &be) || errors.As(err, &te) {
		return err
	}
	return &backend.TransportError{Op: op, Err: err}
}

// Complete applies an outcome. It releases the guard exactly once for the
// pending ticket and returns the failure, if any, that the outcome carried.
// Outcomes for tickets that are no longer pending are ignored and return
// ErrStaleOutcome.
func (m *Machine) Complete(o Outcome) error {
	m.mu.Lock()
	if !m.release(o.Ticket) {
		m.mu.Unlock()
		m.log.Warn().Msg("stale outcome ignored")
		return ErrStaleOutcome
	}

	var ev Event
	var err error
	switch o.Ticket.op {
	case backend.OpFetch:
		ev, err = m.completeFetch(o)
	case backend.OpRate:
		ev, err = m.completeRate(o)
	default:
		ev, err = m.completeSubmit(o)
	}
	ev.State = m.state.Clone()
	observers := m.observersLocked()
	m.mu.Unlock()

	m.logTransition(ev)
	notify(observers, ev)
	return err
}

// completeFetch commits a valid exercise. Caller holds m.mu.
func (m *Machine) completeFetch(o Outcome) (Event, error) {
	if o.Err != nil {
		return Event{Kind: EventFetchFailed, Err: o.Err}, o.Err
	}
	if o.Exercise == nil {
		err := &ValidationFailure{Err: ErrMissingExercise}
		return Event{Kind: EventFetchFailed, Err: err}, err
	}
	if verr := o.Exercise.Validate(); verr != nil {
		err := &ValidationFailure{ExerciseID: o.Exercise.ID, Err: verr}
		return Event{Kind: EventFetchFailed, Err: err, ExerciseID: o.Exercise.ID}, err
	}

	m.state.Active = o.Exercise.Clone()
	m.state.ActiveID = o.Exercise.ID
	return Event{Kind: EventExerciseLoaded, ExerciseID: o.Exercise.ID}, nil
}

// completeSubmit retires the exercise captured by the ticket. On failure
// the active exercise stays answerable, unless the backend reports it no
// longer holds it: then it is discarded so a fetch can follow. Caller holds
// m.mu.
func (m *Machine) completeSubmit(o Outcome) (Event, error) {
	t := o.Ticket
	if errors.Is(o.Err, backend.ErrNotPending) {
		m.state.Active = nil
		m.state.ActiveID = ""
		return Event{Kind: EventExerciseDiscarded, Err: o.Err, Answer: t.answer, ExerciseID: t.exerciseID}, o.Err
	}
	if o.Err != nil {
		return Event{Kind: EventSubmitFailed, Err: o.Err, Answer: t.answer, ExerciseID: t.exerciseID}, o.Err
	}

	result := o.Result
	if result == nil {
		result = &exercise.Result{}
	}
	m.state.Last = t.exercise
	m.state.LastID = t.exerciseID
	m.state.LastResult = result
	m.state.LastRating = nil
	m.state.Active = nil
	m.state.ActiveID = ""
	m.state.Resolved = true
	return Event{Kind: EventResolved, Answer: t.answer, ExerciseID: t.exerciseID}, nil
}

// completeRate records an accepted rating on Last. Caller holds m.mu.
func (m *Machine) completeRate(o Outcome) (Event, error) {
	t := o.Ticket
	ev := Event{ExerciseID: t.exerciseID, Positive: t.positive}
	if o.Err != nil {
		ev.Kind, ev.Err = EventRateFailed, o.Err
		return ev, o.Err
	}
	if m.state.LastID == t.exerciseID {
		v := t.positive
		m.state.LastRating = &v
	}
	ev.Kind = EventRated
	return ev, nil
}

func (m *Machine) logTransition(ev Event) {
	switch ev.Kind {
	case EventRated:
		m.log.Info().Str("exercise", ev.ExerciseID).Bool("positive", ev.Positive).Msg("exercise rated")
	case EventExerciseDiscarded:
		if ev.Err != nil {
			m.log.Warn().Err(ev.Err).Str("exercise", ev.ExerciseID).Msg("exercise no longer pending, discarded")
			return
		}
		m.log.Info().Str("exercise", ev.ExerciseID).Msg("exercise discarded")
	case EventExerciseLoaded:
		m.log.Info().Str("exercise", ev.ExerciseID).Msg("exercise loaded")
	case EventResolved:
		e := m.log.Info().Str("exercise", ev.ExerciseID).Int("answer", ev.Answer)
		if r := ev.State.LastResult; r != nil {
			e = e.Str("result", r.Message)
		}
		e.Msg("exercise resolved")
	default:
		m.log.Warn().
			Err(ev.Err).
			Str("kind", KindOf(ev.Err).String()).
			Str("exercise", ev.ExerciseID).
			Msg(ev.Kind.String())
	}
}

// FetchNewExercise runs a complete fetch: guard, one request, transition.
func (m *Machine) FetchNewExercise(ctx context.Context) error {
	t, err := m.BeginFetch()
	if err != nil {
		return err
	}
	return m.Complete(m.Dispatch(ctx, t))
}

// SubmitAnswer runs a complete submission of answer for the active
// exercise.
func (m *Machine) SubmitAnswer(ctx context.Context, answer int) error {
	t, err := m.BeginSubmit(answer)
	if err != nil {
		return err
	}
	return m.Complete(m.Dispatch(ctx, t))
}

// Discard drops the active exercise without telling the backend, so the
// next fetch is allowed. It is rejected while a request is in flight or
// when there is no active exercise.
func (m *Machine) Discard() error {
	m.mu.Lock()
	id, err := m.discardActive()
	if err != nil {
		m.mu.Unlock()
		m.log.Debug().Err(err).Msg("discard rejected")
		return err
	}
	ev := Event{Kind: EventExerciseDiscarded, ExerciseID: id, State: m.state.Clone()}
	observers := m.observersLocked()
	m.mu.Unlock()

	m.logTransition(ev)
	notify(observers, ev)
	return nil
}

// RateLast runs a complete rating of the last resolved exercise.
func (m *Machine) RateLast(ctx context.Context, positive bool) error {
	t, err := m.BeginRate(positive)
	if err != nil {
		return err
	}
	return m.Complete(m.Dispatch(ctx, t))
}

// Restore replaces the state with s, typically loaded from a snapshot. It
// is only allowed while nothing is in flight. The active exercise must be
// valid; in-flight and resolved markers are never restored.
func (m *Machine) Restore(s State) error {
	if s.Active != nil {
		if err := s.Active.Validate(); err != nil {
			return &ValidationFailure{ExerciseID: s.Active.ID, Err: err}
		}
		if s.ActiveID != "" && s.ActiveID != s.Active.ID {
			return &ValidationFailure{
				ExerciseID: s.ActiveID,
				Err:        fmt.Errorf("active id does not match exercise %s", s.Active.ID),
			}
		}
	} else if s.ActiveID != "" {
		return &ValidationFailure{ExerciseID: s.ActiveID, Err: ErrMissingExercise}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.InFlight {
		return &GuardRejection{Op: "restore", Reason: ErrBusy}
	}

	next := s.Clone()
	next.ActiveID = ""
	if next.Active != nil {
		next.ActiveID = next.Active.ID
	}
	if next.Last != nil && next.LastID == "" {
		next.LastID = next.Last.ID
	}
	next.InFlight = false
	next.Resolved = false
	m.state = next
	return nil
}
