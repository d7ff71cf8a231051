// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/middleware"
	"github.com/jason-s-yu/uno/internal/protocol"
	"github.com/jason-s-yu/uno/internal/room"
	"github.com/sirupsen/logrus"
)

const subprotocol = "uno"

// RoomWSHandler upgrades /room/ws/{roomId} and joins the caller to that room.
func (rs *RoomServer) RoomWSHandler(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(r.PathValue("roomId"))
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	playerID, ok := rs.identify(w, r)
	if !ok {
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{subprotocol},
		OriginPatterns: []string{"*"}, // Adjust in production
	})
	if err != nil {
		rs.Logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != subprotocol {
		c.Close(BadSubprotocolError, "client must speak the uno subprotocol")
		return
	}

	fields := logrus.Fields{"room": roomID, "player": playerID}
	middleware.LogWebSocketConnect(rs.Logger, r.RemoteAddr, r.URL.Path, fields)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	conn := room.NewPlayerConnection(playerID, rs.OutBuffer, cancel, rs.Logger)

	if err := rs.Coordinator.Connect(roomID, playerID, conn); err != nil {
		// The rejection is already queued on the connection; deliver it before closing.
		rs.flush(ctx, c, conn)
		c.Close(RoomRejectedError, err.Error())
		middleware.LogWebSocketDisconnect(rs.Logger, r.RemoteAddr, r.URL.Path, fields, err)
		return
	}

	go rs.writePump(ctx, c, conn)
	readErr := rs.readPump(ctx, c, roomID, conn)

	rs.Coordinator.Release(roomID, conn)
	c.Close(websocket.StatusNormalClosure, "")
	middleware.LogWebSocketDisconnect(rs.Logger, r.RemoteAddr, r.URL.Path, fields, readErr)
}

// readPump decodes frames and dispatches them until the socket or its context closes.
// It returns the error that ended the loop, or nil for a normal close.
func (rs *RoomServer) readPump(ctx context.Context, c *websocket.Conn, roomID uuid.UUID, conn *room.PlayerConnection) error {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			rs.Logger.Warnf("Room %s: ignoring non-text frame from %s", roomID, conn.PlayerID)
			continue
		}

		action, err := protocol.Decode(msg)
		if err != nil {
			var de *protocol.DecodeError
			if errors.As(err, &de) {
				conn.WriteError(de.RuleError())
			}
			rs.Logger.Warnf("Room %s: bad frame from %s: %v", roomID, conn.PlayerID, err)
			continue
		}

		err = rs.Coordinator.Dispatch(roomID, conn.PlayerID, action)
		if errors.Is(err, room.ErrRoomNotFound) {
			return err
		}
	}
}

// writePump encodes queued events onto the socket and keeps it alive with pings.
func (rs *RoomServer) writePump(ctx context.Context, c *websocket.Conn, conn *room.PlayerConnection) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-conn.OutChan:
			if !ok {
				return
			}
			if err := rs.writeEvent(ctx, c, ev); err != nil {
				rs.Logger.Warnf("Failed to write to websocket for player %v: %v", conn.PlayerID, err)
				conn.Close()
				return
			}
		case <-ticker.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			pingCancel()
			if err != nil {
				rs.Logger.Warnf("Failed to send ping to player %v: %v. Assuming disconnect.", conn.PlayerID, err)
				conn.Close()
				return
			}
		}
	}
}

// flush writes whatever is already queued on conn without waiting for more.
func (rs *RoomServer) flush(ctx context.Context, c *websocket.Conn, conn *room.PlayerConnection) {
	for {
		select {
		case ev, ok := <-conn.OutChan:
			if !ok {
				return
			}
			if err := rs.writeEvent(ctx, c, ev); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (rs *RoomServer) writeEvent(ctx context.Context, c *websocket.Conn, ev game.Event) error {
	data, err := protocol.Encode(ev)
	if err != nil {
		rs.Logger.Errorf("failed to encode %s: %v", ev.EventType(), err)
		return nil
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return c.Write(writeCtx, websocket.MessageText, data)
}
