package backend

import (
	"context"

	"github.com/repeticio/repeticio/internal/exercise"
)

// Operation names used in errors and request events.
const (
	OpFetch  = "fetch"
	OpSubmit = "submit"
	OpRate   = "rate"
)

// Client is the transport used by the session machine. Each call is one
// request; implementations must not retry on their own.
type Client interface {
	// IssueExercise asks the backend for an exercise. A nil exercise with a
	// nil error means the backend answered success without an exercise.
	IssueExercise(ctx context.Context) (*exercise.Exercise, error)

	// SubmitAnswer sends the chosen answer for the given exercise.
	SubmitAnswer(ctx context.Context, req SubmitRequest) (*exercise.Result, error)

	// Rate sends a thumbs up or down for an exercise the user has answered.
	Rate(ctx context.Context, req RateRequest) error
}

// SubmitRequest is the body of an answer submission.
type SubmitRequest struct {
	Answer     int    `json:"answer"`
	ExerciseID string `json:"exercise_id"`
}

// RateRequest is the body of an exercise rating.
type RateRequest struct {
	ExerciseID string `json:"exercise_id"`
	Positive   bool   `json:"is_positive"`
}
