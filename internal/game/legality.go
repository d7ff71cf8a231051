// internal/game/legality.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// IsLegal decides whether card may be placed on top by the current player.
// The order of the checks matters: a player covering their own pending effect may only stack the
// same rank, and a player facing someone else's draw card may only counter with the same draw rank.
func IsLegal(top, card models.Card, current uuid.UUID) bool {
	switch {
	case top.HeldBy(current):
		return card.Rank == top.Rank
	case top.Holder == nil:
		return matchesOpen(top, card)
	case top.Rank.IsDraw():
		return card.Rank == top.Rank
	default:
		return matchesOpen(top, card)
	}
}

func matchesOpen(top, card models.Card) bool {
	if card.Rank.IsWild() {
		return true
	}
	if top.Color != models.ColorNone && card.Color == top.Color {
		return true
	}
	return card.Rank == top.Rank
}

// LegalCards returns the subset of hand that IsLegal accepts, in hand order.
func LegalCards(top models.Card, hand []models.Card, current uuid.UUID) []models.Card {
	legal := make([]models.Card, 0, len(hand))
	for _, c := range hand {
		if IsLegal(top, c, current) {
			legal = append(legal, c)
		}
	}
	return legal
}
