package store

import (
	"context"
	"database/sql"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// RequestEventsColumns holds the columns for the "request_events" table.
	RequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64, Comment: "Unix milliseconds"},
		{Name: "operation", Type: field.TypeString, Comment: "fetch, submit or rate"},
		{Name: "exercise_id", Type: field.TypeString, Default: ""},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
	}
	// RequestEventsTable holds the schema information for the "request_events" table.
	RequestEventsTable = &schema.Table{
		Name:       "request_events",
		Columns:    RequestEventsColumns,
		PrimaryKey: []*schema.Column{RequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "requestevent_timestamp", Columns: []*schema.Column{RequestEventsColumns[2]}},
			{Name: "requestevent_operation", Columns: []*schema.Column{RequestEventsColumns[3]}},
		},
	}

	// AttemptEventsColumns holds the columns for the "attempt_events" table.
	AttemptEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeInt64, Comment: "Unix milliseconds"},
		{Name: "session_id", Type: field.TypeString},
		{Name: "exercise_id", Type: field.TypeString},
		{Name: "answer_index", Type: field.TypeInt},
		{Name: "answer_text", Type: field.TypeString, Default: ""},
		{Name: "prompt", Type: field.TypeString, Default: ""},
		{Name: "result_message", Type: field.TypeString, Default: ""},
		{Name: "correct", Type: field.TypeInt, Nullable: true, Comment: "NULL when ungraded"},
	}
	// AttemptEventsTable holds the schema information for the "attempt_events" table.
	AttemptEventsTable = &schema.Table{
		Name:       "attempt_events",
		Columns:    AttemptEventsColumns,
		PrimaryKey: []*schema.Column{AttemptEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "attemptevent_timestamp", Columns: []*schema.Column{AttemptEventsColumns[2]}},
			{Name: "attemptevent_session_id", Columns: []*schema.Column{AttemptEventsColumns[3]}},
		},
	}

	// SnapshotsColumns holds the columns for the "snapshots" table.
	SnapshotsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Default: 0},
		{Name: "timestamp", Type: field.TypeInt64, Comment: "Unix milliseconds"},
		{Name: "data", Type: field.TypeString, Comment: "SnapshotData as JSON"},
	}
	// SnapshotsTable holds the schema information for the "snapshots" table.
	SnapshotsTable = &schema.Table{
		Name:       "snapshots",
		Columns:    SnapshotsColumns,
		PrimaryKey: []*schema.Column{SnapshotsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "snapshot_timestamp", Columns: []*schema.Column{SnapshotsColumns[2]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		RequestEventsTable,
		AttemptEventsTable,
		SnapshotsTable,
	}
)

// migrate creates missing tables, columns and indexes. It never drops
// anything.
func migrate(ctx context.Context, db *sql.DB) error {
	drv := entsql.OpenDB(dialect.SQLite, db)
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return err
	}
	return m.Create(ctx, Tables...)
}
