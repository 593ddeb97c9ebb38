package cli

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	_ "modernc.org/sqlite"

	"github.com/petrijr/waypoint"
	"github.com/petrijr/waypoint/internal/persistence"
)

// OpenJournal opens the event store named by dsn:
//
//	memory                     in-process, lost on exit
//	postgres://... postgresql://...
//	redis://... rediss://...
//	mongodb://... mongodb+srv://...
//	anything else              a SQLite database file
//
// An empty dsn returns a nil store. The returned close function is never nil.
func OpenJournal(ctx context.Context, dsn string) (waypoint.EventStore, func() error, error) {
	noop := func() error { return nil }

	switch {
	case dsn == "":
		return nil, noop, nil

	case dsn == "memory":
		return persistence.NewInMemoryEventStore(), noop, nil

	case hasPrefix(dsn, "postgres://", "postgresql://"):
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, noop, fmt.Errorf("journal: open postgres: %w", err)
		}
		store, err := persistence.NewPostgresEventStore(db)
		if err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return store, db.Close, nil

	case hasPrefix(dsn, "redis://", "rediss://"):
		opts, err := redis.ParseURL(dsn)
		if err != nil {
			return nil, noop, fmt.Errorf("journal: parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("journal: ping redis: %w", err)
		}
		return persistence.NewRedisEventStore(client, ""), client.Close, nil

	case hasPrefix(dsn, "mongodb://", "mongodb+srv://"):
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(dsn))
		if err != nil {
			return nil, noop, fmt.Errorf("journal: connect mongo: %w", err)
		}
		closeFn := func() error { return client.Disconnect(context.Background()) }
		return persistence.NewMongoEventStore(client, "", ""), closeFn, nil

	default:
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, noop, fmt.Errorf("journal: open sqlite: %w", err)
		}
		store, err := persistence.NewSQLiteEventStore(db)
		if err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return store, db.Close, nil
	}
}

func hasPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
