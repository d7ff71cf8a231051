// internal/room/actions.go
package room

import "github.com/jason-s-yu/uno/internal/models"

// Action is an inbound request from a player. The set of implementations below is closed.
type Action interface {
	ActionType() string
}

type Register struct {
	Username string `json:"username"`
}

type Message struct {
	Content string `json:"content"`
}

type StartGame struct {
	Options map[string]interface{} `json:"options,omitempty"`
}

type DrawCards struct {
	Amount int `json:"amount"`
}

type PlaceCard struct {
	Index int `json:"index"`
}

type EndTurn struct{}

type ColorSwitch struct {
	Color models.Color `json:"color"`
}

func (Register) ActionType() string    { return "REGISTER" }
func (Message) ActionType() string     { return "MESSAGE" }
func (StartGame) ActionType() string   { return "START-GAME" }
func (DrawCards) ActionType() string   { return "DRAW-CARDS" }
func (PlaceCard) ActionType() string   { return "PLACE-CARD" }
func (EndTurn) ActionType() string     { return "END-TURN" }
func (ColorSwitch) ActionType() string { return "COLOR-SWITCH" }
