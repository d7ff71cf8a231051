// internal/handlers/rooms.go
package handlers

import (
	"net/http"

	"github.com/google/uuid"
)

// ListRoomsHandler returns a summary of every live room.
func (rs *RoomServer) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, rs.Logger, http.StatusOK, rs.Coordinator.Rooms())
}

// CreateRoomHandler hands out a fresh room id. The room itself comes into existence when the first
// player connects to /room/ws/{roomId}.
func (rs *RoomServer) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, rs.Logger, http.StatusCreated, map[string]uuid.UUID{"id": uuid.New()})
}
