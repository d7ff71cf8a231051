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

// DefaultQueueName is the Redis list (queue) name for room action logs.
const DefaultQueueName = "uno_actions"

// ActionRecord is one accepted player action, as consumed by the historian.
type ActionRecord struct {
	RoomID        uuid.UUID   `json:"room_id"`
	ActionIndex   int         `json:"action_index"`
	ActorID       uuid.UUID   `json:"actor_id"`
	ActionType    string      `json:"action_type"`
	ActionPayload interface{} `json:"action_payload,omitempty"`
	Timestamp     int64       `json:"timestamp"` // epoch millis
}

// EncodeActionRecord is the queue wire format.
func EncodeActionRecord(record ActionRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ActionRecord: %w", err)
	}
	return data, nil
}

// DecodeActionRecord parses a queue entry written by EncodeActionRecord.
func DecodeActionRecord(data []byte) (ActionRecord, error) {
	var record ActionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return ActionRecord{}, fmt.Errorf("invalid action record: %w", err)
	}
	if record.RoomID == uuid.Nil {
		return ActionRecord{}, fmt.Errorf("invalid action record: missing room_id")
	}
	return record, nil
}

// ConnectRedis opens a client and pings it with a 5 second timeout.
func ConnectRedis(addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// ActionQueue publishes action records onto a Redis list.
type ActionQueue struct {
	Client *redis.Client
	Queue  string
}

// NewActionQueue returns a queue publisher; an empty name uses DefaultQueueName.
func NewActionQueue(client *redis.Client, queue string) *ActionQueue {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &ActionQueue{Client: client, Queue: queue}
}

// PublishAction serializes the record and pushes it onto the queue.
func (q *ActionQueue) PublishAction(ctx context.Context, record ActionRecord) error {
	data, err := EncodeActionRecord(record)
	if err != nil {
		return err
	}
	if err := q.Client.RPush(ctx, q.Queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.Queue, err)
	}
	return nil
}

// PopAction blocks for up to timeout waiting for the next record. ok is false when the wait timed out.
func (q *ActionQueue) PopAction(ctx context.Context, timeout time.Duration) (record ActionRecord, ok bool, err error) {
	res, err := q.Client.BLPop(ctx, timeout, q.Queue).Result()
	if errors.Is(err, redis.Nil) {
		return ActionRecord{}, false, nil
	}
	if err != nil {
		return ActionRecord{}, false, fmt.Errorf("BLPop %s: %w", q.Queue, err)
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return ActionRecord{}, false, nil
	}
	record, err = DecodeActionRecord([]byte(res[1]))
	if err != nil {
		return ActionRecord{}, false, err
	}
	return record, true, nil
}
