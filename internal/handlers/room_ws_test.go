package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/room"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*RoomServer, *httptest.Server) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	issuer, err := auth.NewIssuer(0)
	require.NoError(t, err)
	rs := NewRoomServer(room.NewCoordinator(logger), issuer, logger, 64)
	srv := httptest.NewServer(rs.Routes())
	t.Cleanup(srv.Close)
	return rs, srv
}

func dialRoom(t *testing.T, ctx context.Context, srv *httptest.Server, roomID uuid.UUID, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/room/ws/" + roomID.String() + "?token=" + token
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{"uno"}})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	return c
}

// readUntil reads frames until one with the given type tag arrives.
func readUntil(t *testing.T, ctx context.Context, c *websocket.Conn, typ string) map[string]interface{} {
	t.Helper()
	for {
		var frame map[string]interface{}
		require.NoError(t, wsjson.Read(ctx, c, &frame), "waiting for %s", typ)
		if frame["type"] == typ {
			return frame
		}
	}
}

func TestSessionHandlerIssuesAndReusesToken(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/session", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created sessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEqual(t, uuid.Nil, created.PlayerID)
	require.NotEmpty(t, resp.Cookies())
	assert.Equal(t, auth.CookieName, resp.Cookies()[0].Name)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/session", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+created.Token)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var reused sessionResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&reused))
	assert.Equal(t, created.PlayerID, reused.PlayerID)
}

func TestRoomWSRejectsBadInput(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/room/ws/not-a-uuid")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/room/ws/" + uuid.NewString() + "?token=garbage")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoomWSTwoPlayerStart(t *testing.T) {
	rs, srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	roomID := uuid.New()
	var conns [2]*websocket.Conn
	var ids [2]uuid.UUID
	for i, name := range []string{"alice", "bob"} {
		id, token, err := rs.Issuer.NewSession()
		require.NoError(t, err)
		ids[i] = id
		conns[i] = dialRoom(t, ctx, srv, roomID, token)

		gd := readUntil(t, ctx, conns[i], "GAME-DATA")
		assert.Equal(t, id.String(), gd["selfId"])

		require.NoError(t, wsjson.Write(ctx, conns[i], map[string]interface{}{"type": "REGISTER", "username": name}))
		gd = readUntil(t, ctx, conns[i], "GAME-DATA")
		assert.Equal(t, name, gd["selfUsername"])
	}

	// bob is not the host.
	require.NoError(t, wsjson.Write(ctx, conns[1], map[string]interface{}{"type": "START-GAME"}))
	errFrame := readUntil(t, ctx, conns[1], "ERROR")
	assert.EqualValues(t, http.StatusUnauthorized, errFrame["status_code"])

	require.NoError(t, wsjson.Write(ctx, conns[0], map[string]interface{}{"type": "START-GAME"}))
	for _, c := range conns {
		priv := readUntil(t, ctx, c, "STATUS-UPDATE-PRIVATE")
		cards, ok := priv["cards"].([]interface{})
		require.True(t, ok)
		assert.Len(t, cards, 8)
	}

	rooms := rs.Coordinator.Rooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, 2, rooms[0].Players)

	// A malformed frame is answered without touching the room.
	require.NoError(t, conns[0].Write(ctx, websocket.MessageText, []byte(`{"amount":1}`)))
	errFrame = readUntil(t, ctx, conns[0], "ERROR")
	assert.Equal(t, "Missing request type.", errFrame["body"])
}

func TestListRooms(t *testing.T) {
	rs, srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, token, err := rs.Issuer.NewSession()
	require.NoError(t, err)
	roomID := uuid.New()
	c := dialRoom(t, ctx, srv, roomID, token)
	readUntil(t, ctx, c, "GAME-DATA")

	resp, err := http.Get(srv.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rooms []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, roomID.String(), rooms[0]["id"])
	assert.Equal(t, "waiting", rooms[0]["status"])
}
