package backend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/repeticio/repeticio/internal/exercise"
	"github.com/repeticio/repeticio/internal/store"
)

// RecordingClient is a decorator that records every backend request as a
// request event.
type RecordingClient struct {
	inner  Client
	events store.EventRepo
	log    zerolog.Logger
}

// WithRecorder wraps c so each call is appended to repo. Failures to record
// are logged and never affect the call's outcome.
func WithRecorder(c Client, repo store.EventRepo, log zerolog.Logger) Client {
	return &RecordingClient{inner: c, events: repo, log: log}
}

func (r *RecordingClient) IssueExercise(ctx context.Context) (*exercise.Exercise, error) {
	start := time.Now()
	ex, err := r.inner.IssueExercise(ctx)

	var id string
	if ex != nil {
		id = ex.ID
	}
	r.record(ctx, OpFetch, id, start, err)
	return ex, err
}

func (r *RecordingClient) SubmitAnswer(ctx context.Context, req SubmitRequest) (*exercise.Result, error) {
	start := time.Now()
	res, err := r.inner.SubmitAnswer(ctx, req)
	r.record(ctx, OpSubmit, req.ExerciseID, start, err)
	return res, err
}

func (r *RecordingClient) Rate(ctx context.Context, req RateRequest) error {
	start := time.Now()
	err := r.inner.Rate(ctx, req)
	r.record(ctx, OpRate, req.ExerciseID, start, err)
	return err
}

func (r *RecordingClient) record(ctx context.Context, op, exerciseID string, start time.Time, err error) {
	data := store.RequestEventData{
		Operation:  op,
		ExerciseID: exerciseID,
		LatencyMs:  time.Since(start).Milliseconds(),
		Success:    err == nil,
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	// The request context may already be expired; recording must not be.
	if logErr := r.events.AppendRequestEvent(context.WithoutCancel(ctx), data); logErr != nil {
		r.log.Warn().Err(logErr).Str("op", op).Msg("failed to record request event")
	}
}
