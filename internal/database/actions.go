// internal/database/actions.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/uno/internal/cache"
)

// ActionStore persists the action log drained by the historian.
type ActionStore struct {
	Pool *pgxpool.Pool
}

func NewActionStore(pool *pgxpool.Pool) *ActionStore {
	return &ActionStore{Pool: pool}
}

// InsertActions writes a batch in one transaction. Records already stored are skipped, so a batch
// that is retried after a partial failure does not duplicate rows.
func (s *ActionStore) InsertActions(ctx context.Context, records []cache.ActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		seen := make(map[uuid.UUID]bool)
		for _, rec := range records {
			at := time.UnixMilli(rec.Timestamp)
			if !seen[rec.RoomID] {
				seen[rec.RoomID] = true
				batch.Queue(`
					INSERT INTO room_games (room_id, status, start_time)
					VALUES ($1, 'in_progress', $2)
					ON CONFLICT (room_id) DO NOTHING
				`, rec.RoomID, at)
			}

			payload, err := json.Marshal(rec.ActionPayload)
			if err != nil {
				return fmt.Errorf("marshal payload of action %d: %w", rec.ActionIndex, err)
			}
			batch.Queue(`
				INSERT INTO game_actions (room_id, action_index, actor_id, action_type, action_payload, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (room_id, action_index) DO NOTHING
			`, rec.RoomID, rec.ActionIndex, rec.ActorID, rec.ActionType, payload, at)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("tx insert %d actions: %w", len(records), err)
	}
	return nil
}

// MarkAbandoned flags a game that is still in progress as abandoned.
func (s *ActionStore) MarkAbandoned(ctx context.Context, roomID uuid.UUID) error {
	q := `
		UPDATE room_games
		SET status = 'abandoned', end_time = NOW()
		WHERE room_id = $1 AND status = 'in_progress'
	`
	if _, err := s.Pool.Exec(ctx, q, roomID); err != nil {
		return fmt.Errorf("failed to mark room %s abandoned: %w", roomID, err)
	}
	return nil
}
