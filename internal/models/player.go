package models

import (
	"github.com/google/uuid"
)

// TurnAction is a move a player made during the current turn.
type TurnAction string

const (
	ActionDrawCard  TurnAction = "draw_card"
	ActionPlaceCard TurnAction = "place_card"
)

// Player is a seat in a room. The transport handle lives with the room coordinator, not here.
type Player struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Connected  bool      `json:"connected"`
	IsHost     bool      `json:"isHost"`
	Registered bool      `json:"-"`
	Hand       []Card    `json:"-"`

	// TurnActions holds the moves made since this player's turn began.
	TurnActions []TurnAction `json:"-"`
}

// NewPlayer creates a player that has connected but not registered a username yet.
func NewPlayer(id uuid.UUID) *Player {
	return &Player{
		ID:        id,
		Username:  "connecting...",
		Connected: true,
	}
}

// CanEnd reports whether the player has done enough this turn to end it.
func (p *Player) CanEnd() bool {
	draws := 0
	for _, a := range p.TurnActions {
		switch a {
		case ActionPlaceCard:
			return true
		case ActionDrawCard:
			draws++
		}
	}
	return draws >= 3
}
