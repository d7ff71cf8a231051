package protocol

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/jason-s-yu/uno/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeActions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want room.Action
	}{
		{"register", `{"type":"REGISTER","username":"alice"}`, room.Register{Username: "alice"}},
		{"message", `{"type":"MESSAGE","content":"hi"}`, room.Message{Content: "hi"}},
		{"start without options", `{"type":"START-GAME"}`, room.StartGame{}},
		{"start with null options", `{"type":"START-GAME","options":null}`, room.StartGame{}},
		{"start with options", `{"type":"START-GAME","options":{"handSize":7}}`,
			room.StartGame{Options: map[string]interface{}{"handSize": float64(7)}}},
		{"start with string options", `{"type":"START-GAME","options":"{\"maxPlayers\":4}"}`,
			room.StartGame{Options: map[string]interface{}{"maxPlayers": float64(4)}}},
		{"draw", `{"type":"DRAW-CARDS","amount":2}`, room.DrawCards{Amount: 2}},
		{"place", `{"type":"PLACE-CARD","index":3}`, room.PlaceCard{Index: 3}},
		{"end turn", `{"type":"END-TURN"}`, room.EndTurn{}},
		{"color switch", `{"type":"COLOR-SWITCH","color":"GREEN"}`, room.ColorSwitch{Color: models.ColorGreen}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		message string
	}{
		{"not json", `hello`, "Invalid JSON format."},
		{"missing type", `{"username":"alice"}`, "Missing request type."},
		{"unknown type", `{"type":"FLIP-TABLE"}`, "Unknown request type: FLIP-TABLE"},
		{"bad index", `{"type":"PLACE-CARD","index":"first"}`, "Invalid payload for PLACE-CARD."},
		{"bad color", `{"type":"COLOR-SWITCH","color":"PURPLE"}`, "Invalid payload for COLOR-SWITCH."},
		{"bad options", `{"type":"START-GAME","options":[1,2]}`, "Invalid options."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			require.Error(t, err)
			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, http.StatusBadRequest, de.Code)
			assert.Equal(t, tt.message, de.Message)
			assert.Equal(t, tt.message, de.RuleError().Message)
		})
	}
}

func TestEncodeCarriesTypeTag(t *testing.T) {
	id := uuid.New()
	card := models.Card{Rank: models.RankSeven, Color: models.ColorBlue}
	events := []game.Event{
		game.GameData{SelfID: id, SelfUsername: "alice", Roster: []game.RosterEntry{{ID: id, Username: "alice", IsHost: true}}},
		game.Connect{ID: id, Username: "alice"},
		game.Disconnect{ID: id, Username: "alice"},
		game.Message{Sender: &id, Username: "alice", Content: "hi"},
		game.StatusPublic{ID: id, Username: "alice", Cards: 3, Current: &card},
		game.StatusPrivate{Cards: []models.Card{card}, Current: &card},
		game.AllowedCards{Cards: []models.Card{card}},
		game.TurnUpdate{Current: id, Next: id},
		game.EndTurn{ID: id},
		game.Error{StatusCode: 401, Body: "It's not your turn."},
		game.WinUpdate{WinnerID: id, WinnerUsername: "alice"},
	}
	for _, ev := range events {
		data, err := Encode(ev)
		require.NoError(t, err, "%T", ev)
		var frame map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &frame))
		assert.Equal(t, string(ev.EventType()), frame["type"])
	}
}

func TestEncodeFieldNames(t *testing.T) {
	data, err := Encode(game.Error{StatusCode: 400, Body: "Card at index was not found."})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ERROR","status_code":400,"body":"Card at index was not found."}`, string(data))

	card := models.Card{Rank: models.RankDrawTwo, Color: models.ColorRed}
	data, err = Encode(game.StatusPrivate{Cards: []models.Card{card}, Current: &card})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"STATUS-UPDATE-PRIVATE","cards":[{"rank":"DRAW-2","color":"RED"}],"current":{"rank":"DRAW-2","color":"RED"}}`,
		string(data))
}
