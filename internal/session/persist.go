package session

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/repeticio/repeticio/internal/store"
)

// snapshotVersion is the SnapshotData schema version written by this package.
const snapshotVersion = 1

// ToSnapshot converts s into its persisted form. In-flight and resolved
// markers are not persisted.
func (s State) ToSnapshot(sessionID string) *store.SessionSnapshot {
	c := s.Clone()
	return &store.SessionSnapshot{
		SessionID:  sessionID,
		Active:     c.Active,
		Last:       c.Last,
		LastResult: c.LastResult,
		LastRating: c.LastRating,
	}
}

// StateFromSnapshot rebuilds a State from its persisted form. The result
// still has to pass Machine.Restore.
func StateFromSnapshot(snap *store.SessionSnapshot) State {
	if snap == nil {
		return State{}
	}
	s := State{
		Active:     snap.Active,
		Last:       snap.Last,
		LastResult: snap.LastResult,
		LastRating: snap.LastRating,
	}
	if s.Active != nil {
		s.ActiveID = s.Active.ID
	}
	if s.Last != nil {
		s.LastID = s.Last.ID
	}
	return s.Clone()
}

// AttemptRecorder returns an observer that appends every resolved submission
// to the attempt history.
func AttemptRecorder(repo store.EventRepo, sessionID string, log zerolog.Logger) Observer {
	return func(ev Event) {
		if ev.Kind != EventResolved {
			return
		}
		data := store.AttemptEventData{
			SessionID:   sessionID,
			ExerciseID:  ev.ExerciseID,
			AnswerIndex: ev.Answer,
		}
		if last := ev.State.Last; last != nil {
			data.Prompt = strings.Join(last.InitialStrings, " ")
			if last.HasChoice(ev.Answer) {
				data.AnswerText = last.FinalStrings[ev.Answer]
			}
		}
		if r := ev.State.LastResult; r != nil {
			data.ResultMessage = r.Message
			data.Correct = r.Correct
		}
		if err := repo.AppendAttemptEvent(context.Background(), data); err != nil {
			log.Warn().Err(err).Str("exercise", ev.ExerciseID).Msg("failed to record attempt")
		}
	}
}

// SnapshotSaver returns an observer that persists the session after every
// transition and keeps the newest keep snapshots.
func SnapshotSaver(repo store.SnapshotRepo, sessionID string, keep int, log zerolog.Logger) Observer {
	return func(ev Event) {
		ctx := context.Background()
		err := repo.Save(ctx, &store.Snapshot{
			Timestamp: time.Now(),
			Data: store.SnapshotData{
				Version: snapshotVersion,
				Session: ev.State.ToSnapshot(sessionID),
			},
		})
		if err != nil {
			log.Warn().Err(err).Msg("failed to save snapshot")
			return
		}
		if keep > 0 {
			if err := repo.Prune(ctx, keep); err != nil {
				log.Warn().Err(err).Msg("failed to prune snapshots")
			}
		}
	}
}

// LoadLatest restores m from the newest snapshot, if any. It reports
// whether a snapshot was applied.
func LoadLatest(ctx context.Context, m *Machine, repo store.SnapshotRepo) (bool, error) {
	snap, err := repo.Latest(ctx)
	if err != nil {
		return false, err
	}
	if snap == nil || snap.Data.Session == nil {
		return false, nil
	}
	if err := m.Restore(StateFromSnapshot(snap.Data.Session)); err != nil {
		return false, err
	}
	return true, nil
}
