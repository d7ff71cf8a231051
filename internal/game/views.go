// internal/game/views.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// topCard returns a copy of the discard top for embedding in a view, or nil before the game starts.
func (g *UnoGame) topCard() *models.Card {
	top, ok := g.Deck.Top()
	if !ok {
		return nil
	}
	return &top
}

// PublicView is what other players may see about the given player.
func (g *UnoGame) PublicView(p *models.Player) StatusPublic {
	return StatusPublic{
		ID:       p.ID,
		Username: p.Username,
		Cards:    len(p.Hand),
		Current:  g.topCard(),
	}
}

// PrivateView is the player's own hand.
func (g *UnoGame) PrivateView(p *models.Player) StatusPrivate {
	hand := make([]models.Card, len(p.Hand))
	copy(hand, p.Hand)
	return StatusPrivate{Cards: hand, Current: g.topCard()}
}

// AllowedFor is the legal set of the given player; empty unless they hold the turn in an active game.
func (g *UnoGame) AllowedFor(p *models.Player) []models.Card {
	if g.Status != StatusActive || !g.IsCurrentTurn(p.ID) {
		return []models.Card{}
	}
	top, ok := g.Deck.Top()
	if !ok {
		return []models.Card{}
	}
	return LegalCards(top, p.Hand, p.ID)
}

// Roster lists the seated players in ring order.
func (g *UnoGame) Roster() []RosterEntry {
	players := g.Players.Players()
	roster := make([]RosterEntry, len(players))
	for i, p := range players {
		roster[i] = RosterEntry{ID: p.ID, Username: p.Username, IsHost: p.IsHost, Connected: p.Connected}
	}
	return roster
}

func (g *UnoGame) gameData(p *models.Player) GameData {
	return GameData{
		SelfID:       p.ID,
		SelfUsername: p.Username,
		Status:       g.Status,
		Roster:       g.Roster(),
	}
}

// broadcastState sends every player the public view of everyone else, their own hand and
// their legal set. It is recomputed from scratch after each mutation.
func (g *UnoGame) broadcastState() {
	players := g.Players.Players()
	for _, recipient := range players {
		for _, other := range players {
			if other.ID != recipient.ID {
				g.sendTo(recipient.ID, g.PublicView(other))
			}
		}
		g.sendTo(recipient.ID, g.PrivateView(recipient))
		g.sendTo(recipient.ID, AllowedCards{Cards: g.AllowedFor(recipient)})
	}
}

// SyncPlayer resends the full state to one player, for example after they re-associate.
func (g *UnoGame) SyncPlayer(id uuid.UUID) {
	p, ok := g.Players.Get(id)
	if !ok {
		return
	}
	g.sendTo(id, g.gameData(p))
	if g.Status == StatusWaiting {
		return
	}
	for _, other := range g.Players.Players() {
		if other.ID != id {
			g.sendTo(id, g.PublicView(other))
		}
	}
	g.sendTo(id, g.PrivateView(p))
	g.sendTo(id, AllowedCards{Cards: g.AllowedFor(p)})
}
