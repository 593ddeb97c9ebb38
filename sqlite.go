package waypoint

import (
	"database/sql"

	"github.com/petrijr/waypoint/internal/persistence"
)

// NewSQLiteRunner constructs a Runner whose journal lives in the given SQLite
// database. cfg.Journal is overridden.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:waypoint.db?_pragma=journal_mode(WAL)")
//	runner, err := waypoint.NewSQLiteRunner(db, flow, waypoint.Config{})
func NewSQLiteRunner(db *sql.DB, b *FlowBuilder, cfg Config) (*Runner, error) {
	store, err := persistence.NewSQLiteEventStore(db)
	if err != nil {
		return nil, err
	}
	cfg.Journal = store
	return NewRunner(b, cfg)
}

// NewSQLiteEventStore opens the journal schema in db.
func NewSQLiteEventStore(db *sql.DB) (EventStore, error) {
	return persistence.NewSQLiteEventStore(db)
}
