// internal/game/game.go
package game

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// Status is the lifecycle stage of a game.
type Status int

const (
	StatusWaiting Status = iota
	StatusActive
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusActive:
		return "active"
	case StatusEnded:
		return "ended"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// OnGameEndFunc receives the outcome of a game once it reaches Ended.
type OnGameEndFunc func(result GameResult)

// UnoGame is the state of one room's game.
//
// UnoGame does no locking of its own. Every method must be called by the owner of the room that
// holds it, one call at a time; the room coordinator does this with a mutex per room.
type UnoGame struct {
	RoomID uuid.UUID
	Status Status

	Players     *PlayerRotation
	Spectators  map[uuid.UUID]*models.Player
	CurrentTurn *uuid.UUID

	Deck       *Deck
	DrawStack  int
	BlockStack int
	Reversed   bool

	Rules      HouseRules
	Statistics Statistics
	Standings  []Standing

	// BroadcastFn sends an event to every player in the room.
	BroadcastFn func(ev Event)
	// BroadcastToPlayerFn sends an event to a single player.
	BroadcastToPlayerFn func(playerID uuid.UUID, ev Event)
	// OnGameEnd is called once when the game ends, whether by a win or an abort.
	OnGameEnd OnGameEndFunc

	now func() time.Time
}

// NewUnoGame creates a game in the Waiting state for the given room.
func NewUnoGame(roomID uuid.UUID) *UnoGame {
	return &UnoGame{
		RoomID:     roomID,
		Status:     StatusWaiting,
		Players:    NewPlayerRotation(),
		Spectators: make(map[uuid.UUID]*models.Player),
		Deck:       NewDeck(),
		Rules:      DefaultHouseRules(),
		now:        time.Now,
	}
}

// Join seats a new player. The first player in an empty room becomes host.
func (g *UnoGame) Join(id uuid.UUID) (*models.Player, error) {
	if g.Status != StatusWaiting {
		return nil, ErrGameInProgress
	}
	if p, ok := g.Players.Get(id); ok {
		return p, nil
	}
	if g.Players.Len() >= g.Rules.MaxPlayers {
		return nil, ErrRoomFull
	}

	p := models.NewPlayer(id)
	p.IsHost = g.Players.IsEmpty()
	g.Players.Insert(p)

	g.sendTo(id, g.gameData(p))
	return p, nil
}

// Register sets the username of a joined player and announces them to the room.
func (g *UnoGame) Register(id uuid.UUID, username string) error {
	p, ok := g.Players.Get(id)
	if !ok {
		return ErrUnknownPlayer
	}
	if p.Registered {
		return ErrAlreadyRegistered
	}
	if username == "" {
		return ErrEmptyUsername
	}
	p.Username = username
	p.Registered = true

	g.sendTo(id, g.gameData(p))
	g.broadcastExcept(id, Connect{ID: id, Username: username})
	return nil
}

// Chat relays a message from a registered player to the whole room.
func (g *UnoGame) Chat(id uuid.UUID, content string) error {
	p, err := g.registered(id)
	if err != nil {
		return err
	}
	if content == "" {
		return ErrEmptyMessage
	}
	sender := id
	g.broadcast(Message{Sender: &sender, Username: p.Username, Content: content})
	return nil
}

// Start deals the cards and gives the first turn. Only the host may start, and only from Waiting.
func (g *UnoGame) Start(id uuid.UUID, options map[string]interface{}) error {
	p, err := g.registered(id)
	if err != nil {
		return err
	}
	if !p.IsHost {
		return ErrNotHost
	}
	if g.Status != StatusWaiting {
		return ErrGameStarted
	}
	if g.Players.Len() < 2 {
		return ErrNotEnoughPlayers
	}
	rules, err := ParseRules(options, g.Rules)
	if err != nil {
		return badRequest(err.Error())
	}
	if rules.HandSize*g.Players.Len() >= DeckSize {
		return ErrHandTooLarge
	}
	// Deal against a copy of the piles so a failed deal leaves the game untouched.
	deck := &Deck{
		DrawPile:    append([]models.Card(nil), g.Deck.DrawPile...),
		DiscardPile: append([]models.Card(nil), g.Deck.DiscardPile...),
		rng:         g.Deck.rng,
	}
	seated := g.Players.Players()
	hands := make([][]models.Card, len(seated))
	for i, pl := range seated {
		cards, err := deck.Draw(rules.HandSize, pl.ID)
		if err != nil {
			return fmt.Errorf("deal to %s: %w", pl.ID, err)
		}
		hands[i] = cards
	}
	start, ok := deck.PickStartCard()
	if !ok {
		return fmt.Errorf("no number card left to open the discard pile")
	}
	deck.Discard(start)

	g.Rules = rules
	g.Deck = deck
	for i, pl := range seated {
		pl.Hand = append(pl.Hand, hands[i]...)
	}
	g.Status = StatusActive
	g.Statistics = Statistics{
		StartedAt:      g.now(),
		PlayerCount:    g.Players.Len(),
		SpectatorCount: len(g.Spectators),
	}
	g.giveTurn()
	return nil
}

// PlaceCard moves the card at handIndex from the player's hand onto the discard pile.
func (g *UnoGame) PlaceCard(id uuid.UUID, handIndex int) error {
	p, err := g.turnPlayer(id)
	if err != nil {
		return err
	}
	if handIndex < 0 || handIndex >= len(p.Hand) {
		return ErrCardNotFound
	}
	prev, _ := g.Deck.Top()
	card := p.Hand[handIndex]
	if !IsLegal(prev, card, id) {
		return ErrIllegalCard
	}

	p.Hand = append(p.Hand[:handIndex], p.Hand[handIndex+1:]...)
	placed := card.WithHolder(id)
	if placed.Rank.IsWild() {
		placed.Color = models.ColorNone
	}

	if placed.Rank == prev.Rank && placed.Rank.IsDraw() {
		g.DrawStack = stackUp(g.DrawStack, placed.Rank.DrawCount())
	} else {
		g.DrawStack = 0
	}
	if placed.Rank == models.RankBlock && prev.Rank == models.RankBlock && prev.HeldBy(id) {
		g.BlockStack = stackUp(g.BlockStack, 1)
	} else {
		g.BlockStack = 0
	}

	g.Deck.Discard(placed)
	p.TurnActions = append(p.TurnActions, models.ActionPlaceCard)
	g.Statistics.CardsPlaced++

	if len(p.Hand) == 0 {
		g.endGame(p)
		return nil
	}
	g.broadcastState()
	return nil
}

// stackUp applies the stacking rule: the first counter doubles the base, later ones add it.
func stackUp(stack, base int) int {
	if stack == 0 {
		return stack + base*2
	}
	return stack + base
}

// DrawCards gives the current player n cards from the draw pile.
func (g *UnoGame) DrawCards(id uuid.UUID, n int) error {
	p, err := g.turnPlayer(id)
	if err != nil {
		return err
	}
	if n < 1 || n > g.Rules.MaxDrawAmount {
		return ErrInvalidAmount
	}
	if err := g.drawInto(p, n); err != nil {
		return err
	}
	p.TurnActions = append(p.TurnActions, models.ActionDrawCard)
	g.broadcastState()
	return nil
}

func (g *UnoGame) drawInto(p *models.Player, n int) error {
	cards, err := g.Deck.Draw(n, p.ID)
	if errors.Is(err, ErrDeckExhausted) {
		return ErrNotEnoughCards
	}
	if err != nil {
		return err
	}
	p.Hand = append(p.Hand, cards...)
	g.Statistics.CardsDrawn += n
	return nil
}

// SwitchColor picks the color of a wild the player has just placed.
func (g *UnoGame) SwitchColor(id uuid.UUID, color models.Color) error {
	if _, err := g.turnPlayer(id); err != nil {
		return err
	}
	if color == models.ColorNone {
		return ErrInvalidColor
	}
	top, _ := g.Deck.Top()
	if !top.Rank.IsWild() || !top.HeldBy(id) {
		return ErrCannotSwitchColor
	}
	top.Color = color
	g.Deck.SetTop(top)
	g.broadcastState()
	return nil
}

// EndTurn resolves the pending effect of the top card and hands the turn on.
func (g *UnoGame) EndTurn(id uuid.UUID) error {
	p, err := g.turnPlayer(id)
	if err != nil {
		return err
	}
	top, _ := g.Deck.Top()
	facingDraw := top.Rank.IsDraw() && top.Holder != nil && !top.HeldBy(id)
	if !p.CanEnd() && !facingDraw {
		return ErrCannotEndTurn
	}
	if top.HeldBy(id) && top.Rank.IsWild() && top.Color == models.ColorNone {
		return ErrColorRequired
	}

	if facingDraw {
		n := g.DrawStack
		if base := top.Rank.DrawCount(); n < base {
			n = base
		}
		if err := g.drawInto(p, n); err != nil {
			return err
		}
		top = top.Neutral()
	}

	if top.Holder != nil {
		top = top.WithHolder(id)
	}

	// With three or more seats the extra step in the new direction hands the turn to the
	// player who was already next, so only the order of later turns changes.
	if top.Rank == models.RankReverse && top.Holder != nil {
		g.Reversed = !g.Reversed
		if g.Players.Len() >= 3 {
			g.Players.Advance(g.Reversed)
		}
		top = top.Neutral()
	}

	if top.Rank == models.RankBlock && top.Holder != nil {
		skips := g.BlockStack
		if skips < 1 {
			skips = 1
		}
		for i := 0; i < skips; i++ {
			g.Players.Advance(g.Reversed)
		}
		g.BlockStack = 0
		top = top.Neutral()
	}
	g.Deck.SetTop(top)

	p.TurnActions = nil
	g.broadcast(EndTurn{ID: id})

	if len(p.Hand) == 0 {
		g.endGame(p)
		return nil
	}
	g.giveTurn()
	return nil
}

// Leave removes a player or spectator. Leaving an active game aborts it.
func (g *UnoGame) Leave(id uuid.UUID) error {
	if _, ok := g.Spectators[id]; ok {
		delete(g.Spectators, id)
		return nil
	}
	p, ok := g.Players.Remove(id)
	if !ok {
		return ErrUnknownPlayer
	}
	g.broadcast(Disconnect{ID: id, Username: p.Username})

	switch g.Status {
	case StatusActive:
		g.abort(p)
	case StatusWaiting:
		if p.IsHost && !g.Players.IsEmpty() {
			next := g.Players.Players()[0]
			next.IsHost = true
			g.broadcast(Message{Content: fmt.Sprintf("%s is now the host.", next.Username)})
		}
	}
	return nil
}

// giveTurn advances the ring and announces the new current player.
func (g *UnoGame) giveTurn() {
	next := g.Players.Advance(g.Reversed)
	g.CurrentTurn = &next
	if p, ok := g.Players.Get(next); ok {
		p.TurnActions = nil
	}
	g.broadcast(TurnUpdate{Current: next, Next: g.Players.PeekNext(g.Reversed)})
	g.broadcastState()
}

func (g *UnoGame) endGame(winner *models.Player) {
	g.Status = StatusEnded
	g.CurrentTurn = nil
	g.Statistics.EndedAt = g.now()
	g.Standings = g.computeStandings()

	g.broadcastState()
	win := WinUpdate{
		WinnerID:       winner.ID,
		WinnerUsername: winner.Username,
		Standings:      g.Standings,
		Statistics:     g.Statistics,
	}
	g.broadcast(win)

	if g.OnGameEnd != nil {
		g.OnGameEnd(GameResult{
			RoomID:     g.RoomID,
			WinnerID:   winner.ID,
			Standings:  g.Standings,
			Statistics: g.Statistics,
		})
	}
}

// abort ends an active game without a winner.
func (g *UnoGame) abort(leaver *models.Player) {
	g.Status = StatusEnded
	g.CurrentTurn = nil
	g.Statistics.EndedAt = g.now()
	g.broadcast(Message{Content: fmt.Sprintf("%s left the game. The game has been aborted.", leaver.Username)})

	if g.OnGameEnd != nil {
		g.OnGameEnd(GameResult{
			RoomID:     g.RoomID,
			Aborted:    true,
			Statistics: g.Statistics,
		})
	}
}

// computeStandings orders players by ascending hand size, keeping ring order for ties.
func (g *UnoGame) computeStandings() []Standing {
	players := g.Players.Players()
	sort.SliceStable(players, func(i, j int) bool {
		return len(players[i].Hand) < len(players[j].Hand)
	})
	standings := make([]Standing, len(players))
	for i, p := range players {
		standings[i] = Standing{Place: i + 1, ID: p.ID, Username: p.Username, Cards: len(p.Hand)}
	}
	return standings
}

func (g *UnoGame) registered(id uuid.UUID) (*models.Player, error) {
	p, ok := g.Players.Get(id)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	if !p.Registered {
		return nil, ErrNotRegistered
	}
	return p, nil
}

// turnPlayer returns the player only if the game is running and it is their turn.
func (g *UnoGame) turnPlayer(id uuid.UUID) (*models.Player, error) {
	p, err := g.registered(id)
	if err != nil {
		return nil, err
	}
	if g.Status != StatusActive {
		return nil, ErrGameNotActive
	}
	if g.CurrentTurn == nil || *g.CurrentTurn != id {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

// IsCurrentTurn reports whether id holds the turn.
func (g *UnoGame) IsCurrentTurn(id uuid.UUID) bool {
	return g.CurrentTurn != nil && *g.CurrentTurn == id
}

// CardCount is the number of cards across both piles and all hands.
func (g *UnoGame) CardCount() int {
	n := g.Deck.Size()
	for _, p := range g.Players.Players() {
		n += len(p.Hand)
	}
	return n
}

func (g *UnoGame) broadcast(ev Event) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	}
}

func (g *UnoGame) sendTo(id uuid.UUID, ev Event) {
	if g.BroadcastToPlayerFn != nil {
		g.BroadcastToPlayerFn(id, ev)
	}
}

func (g *UnoGame) broadcastExcept(skip uuid.UUID, ev Event) {
	for _, p := range g.Players.Players() {
		if p.ID != skip {
			g.sendTo(p.ID, ev)
		}
	}
}
