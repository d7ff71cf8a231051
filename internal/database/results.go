// internal/database/results.go
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/uno/internal/game"
)

// ResultStore archives the outcome of finished games.
type ResultStore struct {
	Pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{Pool: pool}
}

// RecordResult writes the game row and one game_results row per standing in a single transaction.
// Aborted games have no standings and are stored with status 'aborted'.
func (s *ResultStore) RecordResult(ctx context.Context, result game.GameResult) error {
	status := "completed"
	if result.Aborted {
		status = "aborted"
	}
	stats := result.Statistics

	err := pgx.BeginTxFunc(ctx, s.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := upsertRoomGame(ctx, tx, result.RoomID, "in_progress", stats.StartedAt); err != nil {
			return err
		}

		var winner interface{}
		if !result.Aborted {
			winner = result.WinnerID
		}
		finalizeQ := `
			UPDATE room_games
			SET status = $2, start_time = $3, end_time = $4, winner_id = $5,
			    player_count = $6, cards_placed = $7, cards_drawn = $8
			WHERE room_id = $1
		`
		if _, err := tx.Exec(ctx, finalizeQ, result.RoomID, status, stats.StartedAt, stats.EndedAt, winner,
			stats.PlayerCount, stats.CardsPlaced, stats.CardsDrawn); err != nil {
			return err
		}

		resultQ := `
			INSERT INTO game_results (room_id, player_id, username, place, cards_left, did_win)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (room_id, player_id)
			DO UPDATE SET username = $3, place = $4, cards_left = $5, did_win = $6
		`
		for _, st := range result.Standings {
			didWin := !result.Aborted && st.ID == result.WinnerID
			if _, err := tx.Exec(ctx, resultQ, result.RoomID, st.ID, st.Username, st.Place, st.Cards, didWin); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx record result for room %s: %w", result.RoomID, err)
	}
	return nil
}
