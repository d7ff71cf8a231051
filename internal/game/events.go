// internal/game/events.go
package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// EventType is the wire tag of an outbound event.
type EventType string

const (
	EventGameData      EventType = "GAME-DATA"
	EventConnect       EventType = "CONNECT"
	EventDisconnect    EventType = "DISCONNECT"
	EventMessage       EventType = "MESSAGE"
	EventStatusPublic  EventType = "STATUS-UPDATE-PUBLIC"
	EventStatusPrivate EventType = "STATUS-UPDATE-PRIVATE"
	EventAllowedCards  EventType = "ALLOWED-CARDS-UPDATE"
	EventTurnUpdate    EventType = "TURN-UPDATE"
	EventEndTurn       EventType = "END-TURN"
	EventError         EventType = "ERROR"
	EventWinUpdate     EventType = "WIN-UPDATE"
)

// Event is implemented by every outbound event struct below and nothing else.
type Event interface {
	EventType() EventType
}

// RosterEntry describes one seat in GameData.
type RosterEntry struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	IsHost    bool      `json:"isHost"`
	Connected bool      `json:"connected"`
}

// GameData tells a player who they are and who else is in the room.
type GameData struct {
	SelfID       uuid.UUID     `json:"selfId"`
	SelfUsername string        `json:"selfUsername"`
	Status       Status        `json:"status"`
	Roster       []RosterEntry `json:"roster"`
}

type Connect struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

type Disconnect struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// Message is a chat line. A nil Sender marks a notice from the server.
type Message struct {
	Sender   *uuid.UUID `json:"sender,omitempty"`
	Username string     `json:"username,omitempty"`
	Content  string     `json:"content"`
}

// StatusPublic is what every other player may see about one player.
type StatusPublic struct {
	ID       uuid.UUID    `json:"id"`
	Username string       `json:"username"`
	Cards    int          `json:"cards"`
	Current  *models.Card `json:"current,omitempty"`
}

// StatusPrivate is a player's own hand.
type StatusPrivate struct {
	Cards   []models.Card `json:"cards"`
	Current *models.Card  `json:"current,omitempty"`
}

// AllowedCards is the recipient's current legal set. It is empty outside the recipient's turn.
type AllowedCards struct {
	Cards []models.Card `json:"cards"`
}

type TurnUpdate struct {
	Current uuid.UUID `json:"current"`
	Next    uuid.UUID `json:"next"`
}

type EndTurn struct {
	ID uuid.UUID `json:"id"`
}

// Error is a rejected action, sent only to the player who sent it.
type Error struct {
	StatusCode int    `json:"status_code"`
	Body       string `json:"body"`
}

// Standing is a final position. Place 1 is the winner.
type Standing struct {
	Place    int       `json:"place"`
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Cards    int       `json:"cards"`
}

// Statistics accumulates over one game and is only read once it ends.
type Statistics struct {
	StartedAt      time.Time `json:"startedAt"`
	EndedAt        time.Time `json:"endedAt"`
	PlayerCount    int       `json:"playerCount"`
	SpectatorCount int       `json:"spectatorCount"`
	CardsPlaced    int       `json:"cardsPlaced"`
	CardsDrawn     int       `json:"cardsDrawn"`
}

type WinUpdate struct {
	WinnerID       uuid.UUID  `json:"winnerId"`
	WinnerUsername string     `json:"winnerUsername"`
	Standings      []Standing `json:"standings"`
	Statistics     Statistics `json:"statistics"`
}

func (GameData) EventType() EventType      { return EventGameData }
func (Connect) EventType() EventType       { return EventConnect }
func (Disconnect) EventType() EventType    { return EventDisconnect }
func (Message) EventType() EventType       { return EventMessage }
func (StatusPublic) EventType() EventType  { return EventStatusPublic }
func (StatusPrivate) EventType() EventType { return EventStatusPrivate }
func (AllowedCards) EventType() EventType  { return EventAllowedCards }
func (TurnUpdate) EventType() EventType    { return EventTurnUpdate }
func (EndTurn) EventType() EventType       { return EventEndTurn }
func (Error) EventType() EventType         { return EventError }
func (WinUpdate) EventType() EventType     { return EventWinUpdate }

// ErrorEvent converts a rejection into the event delivered to its sender.
func ErrorEvent(err *RuleError) Error {
	return Error{StatusCode: err.Code, Body: err.Message}
}

// GameResult is handed to OnGameEnd once a game reaches Ended.
type GameResult struct {
	RoomID     uuid.UUID
	WinnerID   uuid.UUID
	Aborted    bool
	Standings  []Standing
	Statistics Statistics
}
