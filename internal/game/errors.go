// internal/game/errors.go
package game

import "net/http"

// RuleError is a rejected action. Code follows HTTP semantics: 400 for malformed or illegal requests,
// 401 for authorization and turn violations. A RuleError never leaves the game in a changed state.
type RuleError struct {
	Code    int
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

func badRequest(msg string) *RuleError {
	return &RuleError{Code: http.StatusBadRequest, Message: msg}
}

func unauthorized(msg string) *RuleError {
	return &RuleError{Code: http.StatusUnauthorized, Message: msg}
}

var (
	ErrNotYourTurn       = unauthorized("It's not your turn.")
	ErrNotHost           = unauthorized("Only host can start the game.")
	ErrAlreadyRegistered = unauthorized("Instance already exists.")
	ErrNotRegistered     = unauthorized("Register a username first.")
	ErrUnknownPlayer     = unauthorized("Player is not part of this room.")
	ErrGameInProgress    = unauthorized("Game already in progress.")

	ErrGameNotActive     = badRequest("Game is not running.")
	ErrGameStarted       = badRequest("Game has already started.")
	ErrNotEnoughPlayers  = badRequest("At least two players are required to start.")
	ErrRoomFull          = badRequest("Room is full.")
	ErrHandTooLarge      = badRequest("Hand size is too large for this many players.")
	ErrCardNotFound      = badRequest("Card at index was not found.")
	ErrIllegalCard       = badRequest("Card cannot be placed on the current card.")
	ErrCannotEndTurn     = badRequest("Place a card or draw three times before ending the turn.")
	ErrColorRequired     = badRequest("Choose a color before ending the turn.")
	ErrCannotSwitchColor = badRequest("The current card cannot switch color.")
	ErrInvalidColor      = badRequest("Invalid color.")
	ErrInvalidAmount     = badRequest("Invalid draw amount.")
	ErrNotEnoughCards    = badRequest("Not enough cards left to draw.")
	ErrEmptyMessage      = badRequest("Message cannot be empty.")
	ErrEmptyUsername     = badRequest("Username cannot be empty.")
)
