// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list that carries match actions to the historian.
const DefaultQueueName = "meitra_actions"

// ActionMatchEnd marks the last record of a finished match.
const ActionMatchEnd = "match_end"

// MatchActionRecord holds the minimal info needed by the historian.
type MatchActionRecord struct {
	MatchID       uuid.UUID      `json:"match_id"`
	ActionIndex   int            `json:"action_index"`
	ActorUserID   uuid.UUID      `json:"actor_user_id"`
	ActionType    string         `json:"action_type"`
	ActionPayload map[string]any `json:"action_payload"`
	Timestamp     int64          `json:"timestamp"`
}

// ConnectRedis opens a client and pings it.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Queue is a Redis list used as a FIFO of match actions.
type Queue struct {
	Client *redis.Client
	Name   string
}

func NewQueue(client *redis.Client, name string) *Queue {
	if name == "" {
		name = DefaultQueueName
	}
	return &Queue{Client: client, Name: name}
}

// PublishMatchAction pushes the record to the tail of the queue.
func (q *Queue) PublishMatchAction(ctx context.Context, record MatchActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal MatchActionRecord: %w", err)
	}
	if err := q.Client.RPush(ctx, q.Name, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.Name, err)
	}
	return nil
}

// Pop blocks up to timeout for the next raw record. It returns nil, nil on
// timeout.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := q.Client.BLPop(ctx, timeout, q.Name).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// res[0] is the list name
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

// DecodeRecord parses a queued record and rejects ones without a match.
func DecodeRecord(data []byte) (MatchActionRecord, error) {
	var rec MatchActionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("invalid action record: %w", err)
	}
	if rec.MatchID == uuid.Nil {
		return rec, errors.New("invalid action record: missing match_id")
	}
	if rec.ActionPayload == nil {
		rec.ActionPayload = map[string]any{}
	}
	return rec, nil
}
