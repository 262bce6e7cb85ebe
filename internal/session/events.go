package session

// EventKind identifies a state transition observers are told about.
type EventKind int

const (
	EventExerciseLoaded EventKind = iota + 1
	EventFetchFailed
	EventResolved
	EventSubmitFailed
	EventExerciseDiscarded
	EventRated
	EventRateFailed
)

func (k EventKind) String() string {
	switch k {
	case EventExerciseLoaded:
		return "exercise_loaded"
	case EventFetchFailed:
		return "fetch_failed"
	case EventResolved:
		return "resolved"
	case EventSubmitFailed:
		return "submit_failed"
	case EventExerciseDiscarded:
		return "exercise_discarded"
	case EventRated:
		return "rated"
	case EventRateFailed:
		return "rate_failed"
	default:
		return "unknown"
	}
}

// Event describes a completed transition.
type Event struct {
	Kind EventKind

	// State is a copy of the session state after the transition.
	State State

	// Err is set for the failure kinds, and for EventExerciseDiscarded when
	// the backend no longer held the exercise.
	Err error

	// Answer and ExerciseID describe the submission for the submit kinds.
	// ExerciseID is also the fetched, discarded or rated exercise.
	Answer     int
	ExerciseID string

	// Positive is the rating for the rate kinds.
	Positive bool
}

// Observer receives events. Observers run on the goroutine that called
// Complete, after the machine's lock is released, and must not block.
type Observer func(Event)

// Subscribe registers fn and returns a function that removes it.
func (m *Machine) Subscribe(fn Observer) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextObserver++
	id := m.nextObserver
	m.observers[id] = fn
	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// observersLocked returns the observers in registration order. Caller holds
// m.mu.
func (m *Machine) observersLocked() []Observer {
	out := make([]Observer, 0, len(m.observers))
	for id := 1; id <= m.nextObserver; id++ {
		if fn, ok := m.observers[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func notify(observers []Observer, ev Event) {
	for _, fn := range observers {
		fn(ev)
	}
}
