package render

import (
	"errors"

	"github.com/repeticio/repeticio/internal/backend"
	"github.com/repeticio/repeticio/internal/session"
)

// Status turns a session error into a one-line message for the status bar.
func Status(err error) string {
	if err == nil {
		return ""
	}

	switch session.KindOf(err) {
	case session.KindGuard:
		switch {
		case errors.Is(err, session.ErrBusy):
			return "Still waiting for the last request."
		case errors.Is(err, session.ErrAlreadyActive):
			return "Answer the current exercise first."
		case errors.Is(err, session.ErrNoActiveExercise):
			return "There is no exercise to answer."
		case errors.Is(err, session.ErrNothingToRate):
			return "Answer an exercise before rating it."
		case errors.Is(err, session.ErrAlreadyRated):
			return "You already rated this exercise."
		}
	case session.KindValidation:
		if errors.Is(err, session.ErrAnswerOutOfRange) {
			return "That answer does not exist."
		}
		return "The server sent an exercise that cannot be shown."
	case session.KindBackend:
		if errors.Is(err, backend.ErrNotPending) {
			return "The server no longer has that exercise. Press Enter for a new one."
		}
		var be *backend.BackendError
		if errors.As(err, &be) && be.Message != "" {
			return "Server: " + be.Message
		}
		return "The server rejected the request."
	case session.KindTransport:
		if errors.Is(err, backend.ErrRatingDisabled) {
			return "Rating is not available on this server."
		}
		return "Could not reach the server. Try again."
	}
	return err.Error()
}
