package store

import (
	"context"
	"time"

	"github.com/repeticio/repeticio/internal/exercise"
)

// QueryOpts configures event queries.
type QueryOpts struct {
	Limit     int    // max results (0 = unlimited)
	After     int64  // sequence > After
	SessionID string // only events of this session when set
}

// SnapshotData captures the client session at a point in time.
type SnapshotData struct {
	Version int              `json:"version"`
	Session *SessionSnapshot `json:"session,omitempty"`
}

// SessionSnapshot is the persisted form of the session state. In-flight
// requests are never persisted.
type SessionSnapshot struct {
	SessionID  string             `json:"session_id"`
	Active     *exercise.Exercise `json:"active,omitempty"`
	Last       *exercise.Exercise `json:"last,omitempty"`
	LastResult *exercise.Result   `json:"last_result,omitempty"`
	LastRating *bool              `json:"last_rating,omitempty"`
}

// Snapshot is a stored SnapshotData with its bookkeeping columns.
type Snapshot struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	Data      SnapshotData
}

// SnapshotRepo manages session snapshots.
type SnapshotRepo interface {
	// Save stores a new snapshot.
	Save(ctx context.Context, snap *Snapshot) error

	// Latest returns the most recent snapshot, or nil if none exist.
	Latest(ctx context.Context) (*Snapshot, error)

	// Prune deletes all but the N most recent snapshots.
	Prune(ctx context.Context, keep int) error
}

// RequestEventData captures one backend request.
type RequestEventData struct {
	Operation    string
	ExerciseID   string
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// RequestEventRecord is a stored request event.
type RequestEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	RequestEventData
}

// AttemptEventData captures one resolved answer submission.
type AttemptEventData struct {
	SessionID     string
	ExerciseID    string
	AnswerIndex   int
	AnswerText    string
	Prompt        string
	ResultMessage string
	Correct       *bool
}

// AttemptRecord is a stored attempt event.
type AttemptRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	AttemptEventData
}

// AttemptStats aggregates attempt events.
type AttemptStats struct {
	Total   int
	Graded  int // attempts whose result reported correctness
	Correct int
}

// EventRepo provides append and query access to events.
type EventRepo interface {
	AppendRequestEvent(ctx context.Context, data RequestEventData) error
	QueryRequestEvents(ctx context.Context, opts QueryOpts) ([]RequestEventRecord, error)

	AppendAttemptEvent(ctx context.Context, data AttemptEventData) error
	QueryAttempts(ctx context.Context, opts QueryOpts) ([]AttemptRecord, error)
	AttemptStats(ctx context.Context) (AttemptStats, error)
}
