// internal/room/connection.go
package room

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/sirupsen/logrus"
)

// PlayerConnection is a player's live output channel. The transport drains OutChan.
type PlayerConnection struct {
	PlayerID uuid.UUID
	OutChan  chan game.Event
	// Cancel stops the transport goroutines serving this connection. May be nil.
	Cancel func()

	logger *logrus.Logger
	mu     sync.Mutex
	closed bool
}

// NewPlayerConnection creates a connection with an OutChan of the given capacity.
func NewPlayerConnection(playerID uuid.UUID, buffer int, cancel func(), logger *logrus.Logger) *PlayerConnection {
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PlayerConnection{
		PlayerID: playerID,
		OutChan:  make(chan game.Event, buffer),
		Cancel:   cancel,
		logger:   logger,
	}
}

// Write pushes an event onto OutChan without blocking. Events for a full or closed channel are dropped.
func (conn *PlayerConnection) Write(ev game.Event) {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if conn.closed {
		return
	}
	select {
	case conn.OutChan <- ev:
	default:
		conn.logger.WithFields(logrus.Fields{
			"player": conn.PlayerID,
			"event":  ev.EventType(),
		}).Warn("OutChan full, dropping event")
	}
}

// WriteError sends a rejection to this connection only.
func (conn *PlayerConnection) WriteError(err *game.RuleError) {
	conn.Write(game.ErrorEvent(err))
}

// Close closes OutChan and cancels the transport. Safe to call more than once.
func (conn *PlayerConnection) Close() {
	conn.mu.Lock()
	if conn.closed {
		conn.mu.Unlock()
		return
	}
	conn.closed = true
	close(conn.OutChan)
	conn.mu.Unlock()

	if conn.Cancel != nil {
		conn.Cancel()
	}
}
