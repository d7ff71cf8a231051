// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the room handler.
const (
	BadSubprotocolError websocket.StatusCode = 3000 // Client connected without the uno subprotocol.
	RoomRejectedError   websocket.StatusCode = 3003 // The room refused the join (full or already playing).
)
