package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/petrijr/waypoint/pkg/api"
)

// SQLiteEventStore is an EventStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteEventStore struct {
	db *sql.DB
}

var _ EventStore = (*SQLiteEventStore)(nil)

// NewSQLiteEventStore initializes the required schema in the given database
// and returns a new SQLiteEventStore.
func NewSQLiteEventStore(db *sql.DB) (*SQLiteEventStore, error) {
	s := &SQLiteEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("journal: sqlite schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transition_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			workflow_name TEXT NOT NULL DEFAULT '',
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			step TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL DEFAULT -1,
			from_step TEXT NOT NULL DEFAULT '',
			from_position INTEGER NOT NULL DEFAULT -1,
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_transition_events_run_id ON transition_events(run_id, id);
		CREATE INDEX IF NOT EXISTS idx_transition_events_workflow ON transition_events(workflow_name);
	`)
	return err
}

func (s *SQLiteEventStore) AppendEvent(ctx context.Context, ev api.TransitionEvent) error {
	ev, err := prepare(ev)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transition_events (run_id, workflow_name, at, type, step, position, from_step, from_position, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.RunID,
		ev.WorkflowName,
		ev.At.UnixNano(),
		string(ev.Type),
		ev.Step,
		ev.Position,
		ev.From,
		ev.FromPosition,
		ev.Detail,
	)
	if err != nil {
		return fmt.Errorf("journal: append %s for run %s: %w", ev.Type, ev.RunID, err)
	}
	return nil
}

func (s *SQLiteEventStore) ListEvents(ctx context.Context, runID string) ([]api.TransitionEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, workflow_name, at, type, step, position, from_step, from_position, detail
		FROM transition_events
		WHERE run_id = ?
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *SQLiteEventStore) ListRuns(ctx context.Context, workflow string) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.run_id, e.workflow_name, MIN(e.at), MAX(e.at), COUNT(*),
		       (SELECT l.type FROM transition_events l WHERE l.run_id = e.run_id ORDER BY l.id DESC LIMIT 1)
		FROM transition_events e
		WHERE ? = '' OR e.workflow_name = ?
		GROUP BY e.run_id, e.workflow_name
		ORDER BY MIN(e.at) ASC`, workflow, workflow)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRuns(rows)
}

// scanEvents reads rows selected in the column order used by the SQL stores.
func scanEvents(rows *sql.Rows) ([]api.TransitionEvent, error) {
	var out []api.TransitionEvent
	for rows.Next() {
		var (
			ev  api.TransitionEvent
			atN int64
			typ string
		)
		if err := rows.Scan(&ev.RunID, &ev.WorkflowName, &atN, &typ, &ev.Step, &ev.Position, &ev.From, &ev.FromPosition, &ev.Detail); err != nil {
			return nil, err
		}
		ev.At = time.Unix(0, atN)
		ev.Type = api.EventType(typ)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func scanRuns(rows *sql.Rows) ([]RunSummary, error) {
	var out []RunSummary
	for rows.Next() {
		var (
			run            RunSummary
			first, last    int64
			lastEventTyped string
		)
		if err := rows.Scan(&run.RunID, &run.Workflow, &first, &last, &run.Events, &lastEventTyped); err != nil {
			return nil, err
		}
		run.StartedAt = time.Unix(0, first)
		run.UpdatedAt = time.Unix(0, last)
		run.LastEvent = api.EventType(lastEventTyped)
		out = append(out, run)
	}
	return out, rows.Err()
}
