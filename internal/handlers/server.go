// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/middleware"
	"github.com/jason-s-yu/uno/internal/room"
	"github.com/sirupsen/logrus"
)

// RoomServer holds what the HTTP and websocket handlers share.
type RoomServer struct {
	Coordinator *room.Coordinator
	Issuer      *auth.Issuer
	Logger      *logrus.Logger
	// OutBuffer is the capacity of each player's outbound event channel.
	OutBuffer int
}

// NewRoomServer wires a server around an existing coordinator.
func NewRoomServer(coord *room.Coordinator, issuer *auth.Issuer, logger *logrus.Logger, outBuffer int) *RoomServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if outBuffer < 1 {
		outBuffer = 64
	}
	return &RoomServer{
		Coordinator: coord,
		Issuer:      issuer,
		Logger:      logger,
		OutBuffer:   outBuffer,
	}
}

// Routes returns the server's mux with request logging applied.
func (rs *RoomServer) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /session", rs.SessionHandler)
	mux.HandleFunc("GET /rooms", rs.ListRoomsHandler)
	mux.HandleFunc("POST /rooms", rs.CreateRoomHandler)
	mux.HandleFunc("GET /room/ws/{roomId}", rs.RoomWSHandler)
	return middleware.LogMiddleware(rs.Logger)(mux)
}
