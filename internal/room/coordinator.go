// internal/room/coordinator.go
package room

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/sirupsen/logrus"
)

// ErrRoomNotFound is returned for operations on a room that does not exist (or no longer exists).
var ErrRoomNotFound = errors.New("room not found")

var errUnknownAction = &game.RuleError{Code: http.StatusBadRequest, Message: "Unknown request type."}

// ActionPublisher receives every accepted action. Implemented by cache.ActionQueue.
type ActionPublisher interface {
	PublishAction(ctx context.Context, record cache.ActionRecord) error
}

// ResultRecorder archives finished games. Implemented by database.ResultStore.
type ResultRecorder interface {
	RecordResult(ctx context.Context, result game.GameResult) error
}

// Room is one game session and the connections of its players.
// Mu serializes every access to Game and Connections.
type Room struct {
	ID        uuid.UUID
	CreatedAt time.Time

	Game        *game.UnoGame
	Connections map[uuid.UUID]*PlayerConnection

	Mu sync.Mutex

	actionIndex int
	closed      bool
}

// Summary is a read-only snapshot of a room for listings.
type Summary struct {
	ID        uuid.UUID   `json:"id"`
	Status    game.Status `json:"status"`
	Players   int         `json:"players"`
	Host      string      `json:"host,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Coordinator owns every room. Rooms are independent: each has its own lock, and the coordinator's
// lock only guards the room map.
type Coordinator struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Room

	logger *logrus.Logger

	// History, when set, receives a record of each accepted action.
	History ActionPublisher
	// Results, when set, receives the outcome of each game that ends.
	Results ResultRecorder
}

// NewCoordinator returns a coordinator with no rooms.
func NewCoordinator(logger *logrus.Logger) *Coordinator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Coordinator{
		rooms:  make(map[uuid.UUID]*Room),
		logger: logger,
	}
}

// Connect adds a player to a room, creating the room on first reference. A player who is already
// connected is re-associated with the new connection and sent the current state.
func (c *Coordinator) Connect(roomID, playerID uuid.UUID, conn *PlayerConnection) error {
	r := c.lockRoom(roomID)
	defer r.Mu.Unlock()

	log := c.logger.WithFields(logrus.Fields{"room": roomID, "player": playerID})

	if old, ok := r.Connections[playerID]; ok {
		r.Connections[playerID] = conn
		old.Close()
		if p, ok := r.Game.Players.Get(playerID); ok {
			p.Connected = true
		}
		r.Game.SyncPlayer(playerID)
		log.Info("player re-associated with a new connection")
		return nil
	}

	r.Connections[playerID] = conn
	if _, err := r.Game.Join(playerID); err != nil {
		delete(r.Connections, playerID)
		var re *game.RuleError
		if errors.As(err, &re) {
			conn.WriteError(re)
		}
		c.collectIfEmpty(r)
		log.WithError(err).Info("join rejected")
		return err
	}
	log.Info("player joined room")
	return nil
}

// Disconnect removes a player from a room. Leaving an active game aborts it, and the room is
// destroyed once nobody is left.
func (c *Coordinator) Disconnect(roomID, playerID uuid.UUID) error {
	r, ok := c.getRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	c.disconnectLocked(r, playerID)
	return nil
}

// Release disconnects the player only if conn is still their current connection. Transports call
// this when their read loop ends so a replaced connection cannot remove its successor.
func (c *Coordinator) Release(roomID uuid.UUID, conn *PlayerConnection) {
	r, ok := c.getRoom(roomID)
	if !ok {
		conn.Close()
		return
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if current, ok := r.Connections[conn.PlayerID]; !ok || current != conn {
		conn.Close()
		return
	}
	c.disconnectLocked(r, conn.PlayerID)
}

func (c *Coordinator) disconnectLocked(r *Room, playerID uuid.UUID) {
	if conn, ok := r.Connections[playerID]; ok {
		delete(r.Connections, playerID)
		conn.Close()
	}
	if err := r.Game.Leave(playerID); err != nil && !errors.Is(err, game.ErrUnknownPlayer) {
		c.logger.WithError(err).Warnf("Room %s: leave failed for %s", r.ID, playerID)
	}
	c.logger.WithFields(logrus.Fields{"room": r.ID, "player": playerID}).Info("player left room")
	c.collectIfEmpty(r)
}

// Dispatch applies one player action to its room and fans out the resulting events.
// Rejected actions are reported to the sender as an Error event and returned.
func (c *Coordinator) Dispatch(roomID, playerID uuid.UUID, action Action) error {
	r, ok := c.getRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}

	conn := r.Connections[playerID]
	reject := func(re *game.RuleError) error {
		if conn != nil {
			conn.WriteError(re)
		}
		c.logger.WithFields(logrus.Fields{
			"room":   roomID,
			"player": playerID,
			"action": action.ActionType(),
			"code":   re.Code,
		}).Debugf("action rejected: %s", re.Message)
		return re
	}

	if _, ok := r.Game.Players.Get(playerID); !ok {
		return reject(game.ErrUnknownPlayer)
	}

	err := apply(r.Game, playerID, action)
	var re *game.RuleError
	if errors.As(err, &re) {
		return reject(re)
	}
	if err != nil {
		c.logger.WithError(err).Errorf("Room %s: %s from %s failed", roomID, action.ActionType(), playerID)
		if conn != nil {
			conn.WriteError(&game.RuleError{Code: http.StatusBadRequest, Message: "Action could not be applied."})
		}
		return fmt.Errorf("dispatch %s: %w", action.ActionType(), err)
	}

	c.publishAction(r, playerID, action)
	return nil
}

// apply maps an action onto the game operation it names.
func apply(g *game.UnoGame, playerID uuid.UUID, action Action) error {
	switch a := action.(type) {
	case Register:
		return g.Register(playerID, a.Username)
	case Message:
		return g.Chat(playerID, a.Content)
	case StartGame:
		return g.Start(playerID, a.Options)
	case DrawCards:
		return g.DrawCards(playerID, a.Amount)
	case PlaceCard:
		return g.PlaceCard(playerID, a.Index)
	case EndTurn:
		return g.EndTurn(playerID)
	case ColorSwitch:
		return g.SwitchColor(playerID, a.Color)
	default:
		return errUnknownAction
	}
}

// publishAction hands the action to History without holding up the room.
func (c *Coordinator) publishAction(r *Room, playerID uuid.UUID, action Action) {
	if c.History == nil {
		return
	}
	r.actionIndex++
	record := cache.ActionRecord{
		RoomID:        r.ID,
		ActionIndex:   r.actionIndex,
		ActorID:       playerID,
		ActionType:    action.ActionType(),
		ActionPayload: action,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.History.PublishAction(ctx, record); err != nil {
			c.logger.WithError(err).Warnf("Room %s: failed to publish action %d", record.RoomID, record.ActionIndex)
		}
	}()
}

func (c *Coordinator) recordResult(result game.GameResult) {
	c.logger.WithFields(logrus.Fields{
		"room":    result.RoomID,
		"winner":  result.WinnerID,
		"aborted": result.Aborted,
	}).Info("game ended")
	if c.Results == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Results.RecordResult(ctx, result); err != nil {
			c.logger.WithError(err).Warnf("Room %s: failed to record result", result.RoomID)
		}
	}()
}

// lockRoom returns the room with its lock held, creating it if needed. A room that was collected
// between lookup and lock is replaced by a fresh one.
func (c *Coordinator) lockRoom(roomID uuid.UUID) *Room {
	for {
		c.mu.Lock()
		r, ok := c.rooms[roomID]
		if !ok {
			r = c.newRoom(roomID)
			c.rooms[roomID] = r
			c.logger.Infof("Room %s created", roomID)
		}
		c.mu.Unlock()

		r.Mu.Lock()
		if !r.closed {
			return r
		}
		r.Mu.Unlock()
	}
}

func (c *Coordinator) newRoom(roomID uuid.UUID) *Room {
	r := &Room{
		ID:          roomID,
		CreatedAt:   time.Now(),
		Game:        game.NewUnoGame(roomID),
		Connections: make(map[uuid.UUID]*PlayerConnection),
	}
	r.Game.BroadcastFn = func(ev game.Event) {
		for _, conn := range r.Connections {
			conn.Write(ev)
		}
	}
	r.Game.BroadcastToPlayerFn = func(playerID uuid.UUID, ev game.Event) {
		if conn, ok := r.Connections[playerID]; ok {
			conn.Write(ev)
		}
	}
	r.Game.OnGameEnd = c.recordResult
	return r
}

// collectIfEmpty deletes the room once no players or connections remain. Caller holds r.Mu.
func (c *Coordinator) collectIfEmpty(r *Room) {
	if len(r.Connections) > 0 || !r.Game.Players.IsEmpty() {
		return
	}
	r.closed = true
	c.mu.Lock()
	if c.rooms[r.ID] == r {
		delete(c.rooms, r.ID)
	}
	c.mu.Unlock()
	c.logger.Infof("Room %s is empty and was removed", r.ID)
}

func (c *Coordinator) getRoom(roomID uuid.UUID) (*Room, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rooms[roomID]
	return r, ok
}

// Rooms returns a snapshot of every room, oldest first.
func (c *Coordinator) Rooms() []Summary {
	c.mu.Lock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		rooms = append(rooms, r)
	}
	c.mu.Unlock()

	summaries := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		r.Mu.Lock()
		if !r.closed {
			s := Summary{
				ID:        r.ID,
				Status:    r.Game.Status,
				Players:   r.Game.Players.Len(),
				CreatedAt: r.CreatedAt,
			}
			for _, p := range r.Game.Players.Players() {
				if p.IsHost {
					s.Host = p.Username
				}
			}
			summaries = append(summaries, s)
		}
		r.Mu.Unlock()
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries
}

// Snapshot runs fn with the room's lock held. fn must not keep references to the game.
func (c *Coordinator) Snapshot(roomID uuid.UUID, fn func(g *game.UnoGame)) error {
	r, ok := c.getRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	fn(r.Game)
	return nil
}

// CloseAll closes every connection, which stops their transports. Used on shutdown.
func (c *Coordinator) CloseAll() {
	c.mu.Lock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		rooms = append(rooms, r)
	}
	c.mu.Unlock()

	for _, r := range rooms {
		r.Mu.Lock()
		for _, conn := range r.Connections {
			conn.Close()
		}
		r.Mu.Unlock()
	}
}
