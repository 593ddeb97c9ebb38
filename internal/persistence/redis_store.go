package persistence

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/waypoint/pkg/api"
)

// RedisEventStore is an EventStore backed by Redis.
// It uses a simple key structure:
//
//	<prefix>:run:<id>         => LIST of gob-encoded events, in append order
//	<prefix>:idx:all          => ZSET of all run IDs scored by first event time
//	<prefix>:idx:wf:<name>    => ZSET of run IDs for a given workflow
type RedisEventStore struct {
	client *redis.Client
	prefix string
}

var _ EventStore = (*RedisEventStore)(nil)

// NewRedisEventStore creates a RedisEventStore.
// prefix is optional but recommended (e.g. "waypoint:").
func NewRedisEventStore(client *redis.Client, prefix string) *RedisEventStore {
	if prefix == "" {
		prefix = "waypoint:"
	}
	return &RedisEventStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisEventStore) keyRun(id string) string {
	return s.prefix + "run:" + id
}

func (s *RedisEventStore) keyAll() string {
	return s.prefix + "idx:all"
}

func (s *RedisEventStore) keyWorkflow(name string) string {
	return s.prefix + "idx:wf:" + name
}

func encodeRedisEvent(ev api.TransitionEvent) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&ev); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRedisEvent(data []byte) (api.TransitionEvent, error) {
	var ev api.TransitionEvent
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&ev); err != nil {
		return ev, err
	}
	return ev, nil
}

func (s *RedisEventStore) AppendEvent(ctx context.Context, ev api.TransitionEvent) error {
	ev, err := prepare(ev)
	if err != nil {
		return err
	}
	data, err := encodeRedisEvent(ev)
	if err != nil {
		return fmt.Errorf("journal: encode event: %w", err)
	}

	member := redis.Z{Score: float64(ev.At.UnixNano()), Member: ev.RunID}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.keyRun(ev.RunID), data)
		// NX keeps the score of the first event.
		pipe.ZAddNX(ctx, s.keyAll(), member)
		pipe.ZAddNX(ctx, s.keyWorkflow(ev.WorkflowName), member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("journal: append %s for run %s: %w", ev.Type, ev.RunID, err)
	}
	return nil
}

func (s *RedisEventStore) ListEvents(ctx context.Context, runID string) ([]api.TransitionEvent, error) {
	raw, err := s.client.LRange(ctx, s.keyRun(runID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]api.TransitionEvent, 0, len(raw))
	for _, r := range raw {
		ev, err := decodeRedisEvent([]byte(r))
		if err != nil {
			return nil, fmt.Errorf("journal: decode event of run %s: %w", runID, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *RedisEventStore) ListRuns(ctx context.Context, workflow string) ([]RunSummary, error) {
	key := s.keyAll()
	if workflow != "" {
		key = s.keyWorkflow(workflow)
	}

	ids, err := s.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	result := make([]RunSummary, 0, len(ids))
	for _, id := range ids {
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
