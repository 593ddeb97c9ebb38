package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/petrijr/waypoint/pkg/api"
)

// PostgresEventStore is an EventStore backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
type PostgresEventStore struct {
	db *sql.DB
}

var _ EventStore = (*PostgresEventStore)(nil)

// NewPostgresEventStore initializes the required schema in the given database
// and returns a new PostgresEventStore.
func NewPostgresEventStore(db *sql.DB) (*PostgresEventStore, error) {
	s := &PostgresEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("journal: postgres schema: %w", err)
	}
	return s, nil
}

func (s *PostgresEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS transition_events (
			id BIGSERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			workflow_name TEXT NOT NULL DEFAULT '',
			at BIGINT NOT NULL,
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

func (s *PostgresEventStore) AppendEvent(ctx context.Context, ev api.TransitionEvent) error {
	ev, err := prepare(ev)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transition_events (run_id, workflow_name, at, type, step, position, from_step, from_position, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
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

func (s *PostgresEventStore) ListEvents(ctx context.Context, runID string) ([]api.TransitionEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, workflow_name, at, type, step, position, from_step, from_position, detail
		FROM transition_events
		WHERE run_id = $1
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *PostgresEventStore) ListRuns(ctx context.Context, workflow string) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.run_id, e.workflow_name, MIN(e.at), MAX(e.at), COUNT(*),
		       (SELECT l.type FROM transition_events l WHERE l.run_id = e.run_id ORDER BY l.id DESC LIMIT 1)
		FROM transition_events e
		WHERE $1 = '' OR e.workflow_name = $1
		GROUP BY e.run_id, e.workflow_name
		ORDER BY MIN(e.at) ASC
	`, workflow)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRuns(rows)
}
