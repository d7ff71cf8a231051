package room

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	mu      sync.Mutex
	records []cache.ActionRecord
}

func (f *fakeHistory) PublishAction(_ context.Context, record cache.ActionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

func (f *fakeHistory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeResults struct {
	mu      sync.Mutex
	results []game.GameResult
}

func (f *fakeResults) RecordResult(_ context.Context, result game.GameResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, result)
	return nil
}

func (f *fakeResults) snapshot() []game.GameResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]game.GameResult(nil), f.results...)
}

func newTestCoordinator() *Coordinator {
	logger, _ := test.NewNullLogger()
	return NewCoordinator(logger)
}

func newTestConn(id uuid.UUID) *PlayerConnection {
	logger, _ := test.NewNullLogger()
	return NewPlayerConnection(id, 256, nil, logger)
}

// drain empties a connection's channel without blocking.
func drain(conn *PlayerConnection) []game.Event {
	var out []game.Event
	for {
		select {
		case ev, ok := <-conn.OutChan:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func lastOf(events []game.Event, typ game.EventType) game.Event {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].EventType() == typ {
			return events[i]
		}
	}
	return nil
}

// startTwoPlayerRoom connects, registers and starts a game for two players. The first player is host.
func startTwoPlayerRoom(t *testing.T, c *Coordinator) (uuid.UUID, [2]uuid.UUID, [2]*PlayerConnection) {
	t.Helper()
	roomID := uuid.New()
	ids := [2]uuid.UUID{uuid.New(), uuid.New()}
	var conns [2]*PlayerConnection
	for i, id := range ids {
		conns[i] = newTestConn(id)
		require.NoError(t, c.Connect(roomID, id, conns[i]))
		require.NoError(t, c.Dispatch(roomID, id, Register{Username: []string{"alice", "bob"}[i]}))
	}
	drain(conns[0])
	drain(conns[1])
	require.NoError(t, c.Dispatch(roomID, ids[0], StartGame{}))
	return roomID, ids, conns
}

func TestConnectCreatesRoomAndSendsGameData(t *testing.T) {
	c := newTestCoordinator()
	roomID, id := uuid.New(), uuid.New()
	conn := newTestConn(id)

	require.NoError(t, c.Connect(roomID, id, conn))

	rooms := c.Rooms()
	require.Len(t, rooms, 1)
	assert.Equal(t, roomID, rooms[0].ID)
	assert.Equal(t, game.StatusWaiting, rooms[0].Status)
	assert.Equal(t, 1, rooms[0].Players)

	gd, ok := lastOf(drain(conn), game.EventGameData).(game.GameData)
	require.True(t, ok)
	assert.Equal(t, id, gd.SelfID)
}

func TestTwoPlayerGameFlow(t *testing.T) {
	c := newTestCoordinator()
	roomID, ids, conns := startTwoPlayerRoom(t, c)

	events := [2][]game.Event{drain(conns[0]), drain(conns[1])}
	for i := range ids {
		priv, ok := lastOf(events[i], game.EventStatusPrivate).(game.StatusPrivate)
		require.True(t, ok, "player %d gets a private status", i)
		assert.Len(t, priv.Cards, 8)
		require.NotNil(t, priv.Current)
	}

	turn, ok := lastOf(events[0], game.EventTurnUpdate).(game.TurnUpdate)
	require.True(t, ok)
	current, other := 0, 1
	if turn.Current == ids[1] {
		current, other = 1, 0
	}
	assert.Equal(t, ids[other], turn.Next)

	// Acting out of turn is rejected for the sender only.
	err := c.Dispatch(roomID, ids[other], DrawCards{Amount: 1})
	require.Error(t, err)
	errEv, ok := lastOf(drain(conns[other]), game.EventError).(game.Error)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, errEv.StatusCode)
	assert.Nil(t, lastOf(drain(conns[current]), game.EventError))

	// Place the first legal card, falling back to a draw, then end the turn.
	allowed, ok := lastOf(events[current], game.EventAllowedCards).(game.AllowedCards)
	require.True(t, ok)
	var handIndex = -1
	require.NoError(t, c.Snapshot(roomID, func(g *game.UnoGame) {
		p, _ := g.Players.Get(ids[current])
		top, _ := g.Deck.Top()
		for i, card := range p.Hand {
			if game.IsLegal(top, card, ids[current]) && !card.Rank.IsWild() {
				handIndex = i
				break
			}
		}
	}))
	if handIndex >= 0 {
		assert.NotEmpty(t, allowed.Cards)
		require.NoError(t, c.Dispatch(roomID, ids[current], PlaceCard{Index: handIndex}))
	} else {
		for i := 0; i < 3; i++ {
			require.NoError(t, c.Dispatch(roomID, ids[current], DrawCards{Amount: 1}))
		}
	}
	drain(conns[other])
	require.NoError(t, c.Dispatch(roomID, ids[current], EndTurn{}))

	// After the hand-off the other player (or, after a skip or a reverse with two players, the same
	// one) holds the turn and receives a fresh allowed set.
	var holder uuid.UUID
	require.NoError(t, c.Snapshot(roomID, func(g *game.UnoGame) {
		require.NotNil(t, g.CurrentTurn)
		holder = *g.CurrentTurn
	}))
	for i, id := range ids {
		if id != holder {
			continue
		}
		events := drain(conns[i])
		assert.NotNil(t, lastOf(events, game.EventTurnUpdate))
		assert.NotNil(t, lastOf(events, game.EventAllowedCards))
	}
}

func TestDispatchUnknownRoom(t *testing.T) {
	c := newTestCoordinator()
	err := c.Dispatch(uuid.New(), uuid.New(), EndTurn{})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestDispatchUnknownPlayer(t *testing.T) {
	c := newTestCoordinator()
	roomID, id := uuid.New(), uuid.New()
	require.NoError(t, c.Connect(roomID, id, newTestConn(id)))

	err := c.Dispatch(roomID, uuid.New(), Register{Username: "ghost"})
	require.Error(t, err)
	assert.ErrorIs(t, err, game.ErrUnknownPlayer)
}

func TestDispatchRecordsHistory(t *testing.T) {
	c := newTestCoordinator()
	history := &fakeHistory{}
	c.History = history

	roomID, id := uuid.New(), uuid.New()
	require.NoError(t, c.Connect(roomID, id, newTestConn(id)))
	require.NoError(t, c.Dispatch(roomID, id, Register{Username: "alice"}))
	require.NoError(t, c.Dispatch(roomID, id, Message{Content: "hi"}))
	// Rejected actions are not recorded.
	require.Error(t, c.Dispatch(roomID, id, Message{}))

	assert.Eventually(t, func() bool { return history.count() == 2 }, time.Second, 10*time.Millisecond)
	history.mu.Lock()
	defer history.mu.Unlock()
	for _, r := range history.records {
		assert.Equal(t, roomID, r.RoomID)
		assert.Equal(t, id, r.ActorID)
	}
}

func TestJoinActiveRoomRejected(t *testing.T) {
	c := newTestCoordinator()
	roomID, _, _ := startTwoPlayerRoom(t, c)

	late := uuid.New()
	conn := newTestConn(late)
	err := c.Connect(roomID, late, conn)
	require.ErrorIs(t, err, game.ErrGameInProgress)

	errEv, ok := lastOf(drain(conn), game.EventError).(game.Error)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, errEv.StatusCode)
	assert.Equal(t, 2, c.Rooms()[0].Players)
}

func TestReconnectReplacesConnection(t *testing.T) {
	c := newTestCoordinator()
	roomID, id := uuid.New(), uuid.New()
	first := newTestConn(id)
	require.NoError(t, c.Connect(roomID, id, first))
	require.NoError(t, c.Dispatch(roomID, id, Register{Username: "alice"}))

	second := newTestConn(id)
	require.NoError(t, c.Connect(roomID, id, second))

	drain(first)
	_, open := <-first.OutChan
	assert.False(t, open, "replaced connection is closed")

	// The stale connection ending must not remove the player.
	c.Release(roomID, first)
	require.Len(t, c.Rooms(), 1)
	assert.Equal(t, 1, c.Rooms()[0].Players)

	c.Release(roomID, second)
	assert.Empty(t, c.Rooms())
}

func TestEmptyRoomIsCollected(t *testing.T) {
	c := newTestCoordinator()
	roomID := uuid.New()
	a, b := uuid.New(), uuid.New()
	require.NoError(t, c.Connect(roomID, a, newTestConn(a)))
	require.NoError(t, c.Connect(roomID, b, newTestConn(b)))

	require.NoError(t, c.Disconnect(roomID, a))
	require.Len(t, c.Rooms(), 1)
	require.NoError(t, c.Disconnect(roomID, b))
	assert.Empty(t, c.Rooms())

	assert.ErrorIs(t, c.Disconnect(roomID, b), ErrRoomNotFound)

	// The same id can be reused for a new room.
	require.NoError(t, c.Connect(roomID, a, newTestConn(a)))
	assert.Len(t, c.Rooms(), 1)
}

func TestLeavingActiveGameRecordsAbort(t *testing.T) {
	c := newTestCoordinator()
	results := &fakeResults{}
	c.Results = results
	roomID, ids, conns := startTwoPlayerRoom(t, c)
	drain(conns[1])

	require.NoError(t, c.Disconnect(roomID, ids[0]))

	assert.Eventually(t, func() bool { return len(results.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	assert.True(t, results.snapshot()[0].Aborted)

	events := drain(conns[1])
	assert.NotNil(t, lastOf(events, game.EventDisconnect))
	assert.Equal(t, game.StatusEnded, c.Rooms()[0].Status)
}

func TestConcurrentDispatchSingleTurnHolder(t *testing.T) {
	c := newTestCoordinator()
	roomID, ids, _ := startTwoPlayerRoom(t, c)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := map[uuid.UUID]int{}
	for i := 0; i < 20; i++ {
		for _, id := range ids {
			wg.Add(1)
			go func(id uuid.UUID) {
				defer wg.Done()
				if c.Dispatch(roomID, id, DrawCards{Amount: 1}) == nil {
					mu.Lock()
					accepted[id]++
					mu.Unlock()
				}
			}(id)
		}
	}
	wg.Wait()

	assert.Len(t, accepted, 1, "only the turn holder can draw")
	require.NoError(t, c.Snapshot(roomID, func(g *game.UnoGame) {
		assert.Equal(t, game.DeckSize, g.CardCount())
	}))
}

func TestCloseAllClosesConnections(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)
	c := NewCoordinator(logger)

	roomID, id := uuid.New(), uuid.New()
	cancelled := make(chan struct{})
	conn := NewPlayerConnection(id, 4, func() { close(cancelled) }, logger)
	require.NoError(t, c.Connect(roomID, id, conn))

	c.CloseAll()
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("connection was not cancelled")
	}
	assert.NotEmpty(t, hook.AllEntries())
}
