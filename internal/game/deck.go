// internal/game/deck.go
package game

import (
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// DeckSize is the number of cards produced by GenerateDeck.
const DeckSize = 108

// ErrDeckExhausted is returned when a draw asks for more cards than both piles hold.
var ErrDeckExhausted = errors.New("not enough cards left in draw and discard piles")

// Deck holds the draw pile and the discard pile. DiscardPile[0] is the top card.
type Deck struct {
	DrawPile    []models.Card
	DiscardPile []models.Card

	rng *rand.Rand
}

// NewDeck returns a freshly generated and shuffled deck with an empty discard pile.
func NewDeck() *Deck {
	d := &Deck{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	d.DrawPile = GenerateDeck(d.rng)
	return d
}

// GenerateDeck builds two copies of every colored rank per color plus two of each wild, shuffled.
func GenerateDeck(rng *rand.Rand) []models.Card {
	cards := make([]models.Card, 0, DeckSize)
	for _, color := range models.Colors {
		for _, rank := range models.Ranks {
			if rank.IsWild() {
				continue
			}
			cards = append(cards,
				models.Card{Rank: rank, Color: color},
				models.Card{Rank: rank, Color: color},
			)
		}
	}
	for _, rank := range models.Ranks {
		if rank.IsWild() {
			cards = append(cards, models.Card{Rank: rank}, models.Card{Rank: rank})
		}
	}
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return cards
}

// Top returns the current discard top.
func (d *Deck) Top() (models.Card, bool) {
	if len(d.DiscardPile) == 0 {
		return models.Card{}, false
	}
	return d.DiscardPile[0], true
}

// SetTop replaces the discard top in place.
func (d *Deck) SetTop(c models.Card) {
	if len(d.DiscardPile) == 0 {
		d.DiscardPile = append(d.DiscardPile, c)
		return
	}
	d.DiscardPile[0] = c
}

// Discard pushes a card onto the discard pile, making it the new top.
func (d *Deck) Discard(c models.Card) {
	d.DiscardPile = append([]models.Card{c}, d.DiscardPile...)
}

// Available is the number of cards a draw can reach: the draw pile plus the discard history below the top.
func (d *Deck) Available() int {
	n := len(d.DrawPile)
	if len(d.DiscardPile) > 1 {
		n += len(d.DiscardPile) - 1
	}
	return n
}

// Draw pops n cards off the draw pile, refilling it from the discard history whenever it runs dry.
// Drawn cards are handed to owner. Nothing is drawn if n cards cannot be reached.
func (d *Deck) Draw(n int, owner uuid.UUID) ([]models.Card, error) {
	if n > d.Available() {
		return nil, ErrDeckExhausted
	}
	drawn := make([]models.Card, 0, n)
	for i := 0; i < n; i++ {
		if len(d.DrawPile) == 0 {
			d.replenish()
		}
		c := d.DrawPile[0]
		d.DrawPile = d.DrawPile[1:]
		drawn = append(drawn, c.WithHolder(owner))
	}
	return drawn, nil
}

// replenish moves everything under the discard top back into the draw pile and shuffles it.
func (d *Deck) replenish() {
	if len(d.DiscardPile) <= 1 {
		return
	}
	history := d.DiscardPile[1:]
	refill := make([]models.Card, 0, len(history))
	for _, c := range history {
		c = c.Neutral()
		if c.Rank.IsWild() {
			c.Color = models.ColorNone
		}
		refill = append(refill, c)
	}
	d.DiscardPile = d.DiscardPile[:1]
	d.rng.Shuffle(len(refill), func(i, j int) { refill[i], refill[j] = refill[j], refill[i] })
	d.DrawPile = append(d.DrawPile, refill...)
}

// PickStartCard removes and returns the first number card in the draw pile.
func (d *Deck) PickStartCard() (models.Card, bool) {
	for i, c := range d.DrawPile {
		if c.Rank.IsAction() {
			continue
		}
		d.DrawPile = append(d.DrawPile[:i:i], d.DrawPile[i+1:]...)
		return c, true
	}
	return models.Card{}, false
}

// Size is the number of cards across both piles.
func (d *Deck) Size() int {
	return len(d.DrawPile) + len(d.DiscardPile)
}
