package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendAttemptEvent(ctx context.Context, data AttemptEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	// correct stays NULL when the backend did not grade the answer.
	var correct any
	if data.Correct != nil {
		correct = boolToInt(*data.Correct)
	}

	query, args := builder().Insert("attempt_events").
		Columns("sequence", "timestamp", "session_id", "exercise_id", "answer_index",
			"answer_text", "prompt", "result_message", "correct").
		Values(seqNum, time.Now().UnixMilli(), data.SessionID, data.ExerciseID, data.AnswerIndex,
			data.AnswerText, data.Prompt, data.ResultMessage, correct).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save attempt event: %w", err)
	}
	return nil
}

// QueryAttempts returns attempts newest first.
func (r *eventRepo) QueryAttempts(ctx context.Context, opts QueryOpts) ([]AttemptRecord, error) {
	sel := builder().
		Select("id", "sequence", "timestamp", "session_id", "exercise_id", "answer_index",
			"answer_text", "prompt", "result_message", "correct").
		From(entsql.Table("attempt_events")).
		OrderBy(entsql.Desc("sequence"))
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.SessionID != "" {
		sel.Where(entsql.EQ("session_id", opts.SessionID))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		var (
			rec     AttemptRecord
			ts      int64
			correct sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.Sequence, &ts, &rec.SessionID, &rec.ExerciseID,
			&rec.AnswerIndex, &rec.AnswerText, &rec.Prompt, &rec.ResultMessage, &correct); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts)
		if correct.Valid {
			c := correct.Int64 == 1
			rec.Correct = &c
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *eventRepo) AttemptStats(ctx context.Context) (AttemptStats, error) {
	var st AttemptStats
	err := r.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COUNT(correct),
		COALESCE(SUM(CASE WHEN correct = 1 THEN 1 ELSE 0 END), 0)
		FROM attempt_events`).Scan(&st.Total, &st.Graded, &st.Correct)
	if err != nil {
		return AttemptStats{}, fmt.Errorf("attempt stats: %w", err)
	}
	return st, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
