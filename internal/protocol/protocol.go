// internal/protocol/protocol.go
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/room"
)

// DecodeError is a malformed inbound frame. It converts to the same Error event as a rule violation.
type DecodeError struct {
	Code    int
	Message string
}

func (e *DecodeError) Error() string {
	return e.Message
}

// RuleError lets transports report decode failures through PlayerConnection.WriteError.
func (e *DecodeError) RuleError() *game.RuleError {
	return &game.RuleError{Code: e.Code, Message: e.Message}
}

func malformed(format string, args ...interface{}) *DecodeError {
	return &DecodeError{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

var errMissingType = &DecodeError{Code: http.StatusBadRequest, Message: "Missing request type."}

type envelope struct {
	Type string `json:"type"`
}

// Decode parses one inbound frame into its action.
func Decode(data []byte) (room.Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, malformed("Invalid JSON format.")
	}

	var action room.Action
	switch env.Type {
	case "":
		return nil, errMissingType
	case "REGISTER":
		var a room.Register
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, malformed("Invalid payload for %s.", env.Type)
		}
		action = a
	case "MESSAGE":
		var a room.Message
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, malformed("Invalid payload for %s.", env.Type)
		}
		action = a
	case "START-GAME":
		a, err := decodeStartGame(data)
		if err != nil {
			return nil, err
		}
		action = a
	case "DRAW-CARDS":
		var a room.DrawCards
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, malformed("Invalid payload for %s.", env.Type)
		}
		action = a
	case "PLACE-CARD":
		var a room.PlaceCard
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, malformed("Invalid payload for %s.", env.Type)
		}
		action = a
	case "END-TURN":
		action = room.EndTurn{}
	case "COLOR-SWITCH":
		var a room.ColorSwitch
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, malformed("Invalid payload for %s.", env.Type)
		}
		action = a
	default:
		return nil, malformed("Unknown request type: %s", env.Type)
	}
	return action, nil
}

// decodeStartGame accepts options as an object, as a string holding a JSON object, or absent.
func decodeStartGame(data []byte) (room.StartGame, error) {
	var raw struct {
		Options json.RawMessage `json:"options"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return room.StartGame{}, malformed("Invalid payload for START-GAME.")
	}
	opts := bytes.TrimSpace(raw.Options)
	if len(opts) == 0 || bytes.Equal(opts, []byte("null")) {
		return room.StartGame{}, nil
	}
	if opts[0] == '"' {
		var s string
		if err := json.Unmarshal(opts, &s); err != nil {
			return room.StartGame{}, malformed("Invalid options.")
		}
		if s == "" {
			return room.StartGame{}, nil
		}
		opts = []byte(s)
	}
	var options map[string]interface{}
	if err := json.Unmarshal(opts, &options); err != nil {
		return room.StartGame{}, malformed("Invalid options.")
	}
	return room.StartGame{Options: options}, nil
}

// Encode serializes an event with its type tag alongside the event's own fields.
func Encode(ev game.Event) ([]byte, error) {
	var frame interface{}
	switch e := ev.(type) {
	case game.GameData:
		frame = struct {
			Type game.EventType `json:"type"`
			game.GameData
		}{e.EventType(), e}
	case game.Connect:
		frame = struct {
			Type game.EventType `json:"type"`
			game.Connect
		}{e.EventType(), e}
	case game.Disconnect:
		frame = struct {
			Type game.EventType `json:"type"`
			game.Disconnect
		}{e.EventType(), e}
	case game.Message:
		frame = struct {
			Type game.EventType `json:"type"`
			game.Message
		}{e.EventType(), e}
	case game.StatusPublic:
		frame = struct {
			Type game.EventType `json:"type"`
			game.StatusPublic
		}{e.EventType(), e}
	case game.StatusPrivate:
		frame = struct {
			Type game.EventType `json:"type"`
			game.StatusPrivate
		}{e.EventType(), e}
	case game.AllowedCards:
		frame = struct {
			Type game.EventType `json:"type"`
			game.AllowedCards
		}{e.EventType(), e}
	case game.TurnUpdate:
		frame = struct {
			Type game.EventType `json:"type"`
			game.TurnUpdate
		}{e.EventType(), e}
	case game.EndTurn:
		frame = struct {
			Type game.EventType `json:"type"`
			game.EndTurn
		}{e.EventType(), e}
	case game.Error:
		frame = struct {
			Type game.EventType `json:"type"`
			game.Error
		}{e.EventType(), e}
	case game.WinUpdate:
		frame = struct {
			Type game.EventType `json:"type"`
			game.WinUpdate
		}{e.EventType(), e}
	default:
		return nil, fmt.Errorf("unknown event %T", ev)
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", ev.EventType(), err)
	}
	return data, nil
}
