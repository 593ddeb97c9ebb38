package persistence

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/waypoint/pkg/api"
)

// MongoEventStore is an EventStore backed by a MongoDB collection, one
// document per event.
type MongoEventStore struct {
	coll *mongo.Collection
}

var _ EventStore = (*MongoEventStore)(nil)

// NewMongoEventStore creates a Mongo-backed event store.
// dbName defaults to "waypoint" if empty, collName defaults to "transition_events".
func NewMongoEventStore(client *mongo.Client, dbName, collName string) *MongoEventStore {
	if dbName == "" {
		dbName = "waypoint"
	}
	if collName == "" {
		collName = "transition_events"
	}

	return &MongoEventStore{
		coll: client.Database(dbName).Collection(collName),
	}
}

// Timestamps are kept as Unix nanoseconds; BSON dates only hold milliseconds.
type mongoEventDoc struct {
	RunID        string `bson:"run_id"`
	Workflow     string `bson:"workflow_name"`
	At           int64  `bson:"at"`
	Type         string `bson:"type"`
	Step         string `bson:"step"`
	Position     int    `bson:"position"`
	From         string `bson:"from_step"`
	FromPosition int    `bson:"from_position"`
	Detail       string `bson:"detail,omitempty"`
}

func (d mongoEventDoc) event() api.TransitionEvent {
	return api.TransitionEvent{
		RunID:        d.RunID,
		WorkflowName: d.Workflow,
		At:           time.Unix(0, d.At),
		Type:         api.EventType(d.Type),
		Step:         d.Step,
		Position:     d.Position,
		From:         d.From,
		FromPosition: d.FromPosition,
		Detail:       d.Detail,
	}
}

func (s *MongoEventStore) AppendEvent(ctx context.Context, ev api.TransitionEvent) error {
	ev, err := prepare(ev)
	if err != nil {
		return err
	}

	doc := mongoEventDoc{
		RunID:        ev.RunID,
		Workflow:     ev.WorkflowName,
		At:           ev.At.UnixNano(),
		Type:         string(ev.Type),
		Step:         ev.Step,
		Position:     ev.Position,
		From:         ev.From,
		FromPosition: ev.FromPosition,
		Detail:       ev.Detail,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("journal: append %s for run %s: %w", ev.Type, ev.RunID, err)
	}
	return nil
}

func (s *MongoEventStore) ListEvents(ctx context.Context, runID string) ([]api.TransitionEvent, error) {
	// ObjectIDs generated by one client increase, which breaks ties between
	// events appended within the same nanosecond.
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{"run_id": runID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []mongoEventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]api.TransitionEvent, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.event())
	}
	return out, nil
}

func (s *MongoEventStore) ListRuns(ctx context.Context, workflow string) ([]RunSummary, error) {
	filter := bson.M{}
	if workflow != "" {
		filter["workflow_name"] = workflow
	}

	ids, err := s.coll.Distinct(ctx, "run_id", filter)
	if err != nil {
		return nil, err
	}

	result := make([]RunSummary, 0, len(ids))
	for _, raw := range ids {
		id, ok := raw.(string)
		if !ok {
			continue
		}
		evs, err := s.ListEvents(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(evs) == 0 {
			continue
		}
		result = append(result, summarize(evs))
	}
	sortRuns(result)
	return result, nil
}
