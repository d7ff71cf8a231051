// internal/database/db.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pool for url and pings it with a 5 second timeout.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS room_games (
	room_id      UUID PRIMARY KEY,
	status       TEXT NOT NULL,
	start_time   TIMESTAMPTZ,
	end_time     TIMESTAMPTZ,
	winner_id    UUID,
	player_count INT,
	cards_placed INT,
	cards_drawn  INT
);

CREATE TABLE IF NOT EXISTS game_results (
	room_id    UUID NOT NULL REFERENCES room_games (room_id),
	player_id  UUID NOT NULL,
	username   TEXT NOT NULL,
	place      INT NOT NULL,
	cards_left INT NOT NULL,
	did_win    BOOLEAN NOT NULL,
	PRIMARY KEY (room_id, player_id)
);

CREATE TABLE IF NOT EXISTS game_actions (
	room_id        UUID NOT NULL,
	action_index   INT NOT NULL,
	actor_id       UUID NOT NULL,
	action_type    TEXT NOT NULL,
	action_payload JSONB,
	created_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (room_id, action_index)
);
`

// EnsureSchema creates the archive tables if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// upsertRoomGame makes sure a room_games row exists with the given status.
// Rows that already reached completed or aborted keep their status.
func upsertRoomGame(ctx context.Context, tx pgx.Tx, roomID uuid.UUID, status string, at time.Time) error {
	q := `
		INSERT INTO room_games (room_id, status, start_time)
		VALUES ($1, $2, $3)
		ON CONFLICT (room_id) DO UPDATE
		SET status = EXCLUDED.status
		WHERE room_games.status NOT IN ('completed', 'aborted')
	`
	_, err := tx.Exec(ctx, q, roomID, status, at)
	return err
}
