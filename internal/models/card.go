// internal/models/card.go
package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Rank is the face of a card. Number ranks 0-9 use their own value.
type Rank int

const (
	RankZero Rank = iota
	RankOne
	RankTwo
	RankThree
	RankFour
	RankFive
	RankSix
	RankSeven
	RankEight
	RankNine
	RankBlock
	RankReverse
	RankDrawTwo
	RankSwitch
	RankDrawFour
)

// Ranks lists every rank in deck order.
var Ranks = []Rank{
	RankZero, RankOne, RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven, RankEight, RankNine,
	RankBlock, RankReverse, RankDrawTwo, RankSwitch, RankDrawFour,
}

func (r Rank) String() string {
	switch {
	case r >= RankZero && r <= RankNine:
		return fmt.Sprintf("%d", int(r))
	case r == RankBlock:
		return "BLOCK"
	case r == RankReverse:
		return "REVERSE"
	case r == RankDrawTwo:
		return "DRAW-2"
	case r == RankSwitch:
		return "SWITCH"
	case r == RankDrawFour:
		return "DRAW-4"
	default:
		return fmt.Sprintf("Rank(%d)", int(r))
	}
}

// IsWild reports whether the rank carries no color until switched.
func (r Rank) IsWild() bool {
	return r == RankSwitch || r == RankDrawFour
}

// IsAction reports whether the rank is anything other than a number.
func (r Rank) IsAction() bool {
	return r > RankNine
}

// IsDraw reports whether the rank forces the next player to draw.
func (r Rank) IsDraw() bool {
	return r == RankDrawTwo || r == RankDrawFour
}

// DrawCount is the base penalty of a draw rank, 0 for any other rank.
func (r Rank) DrawCount() int {
	switch r {
	case RankDrawTwo:
		return 2
	case RankDrawFour:
		return 4
	}
	return 0
}

func (r Rank) MarshalText() ([]byte, error) {
	if r < RankZero || r > RankDrawFour {
		return nil, fmt.Errorf("invalid rank %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Rank) UnmarshalText(b []byte) error {
	s := string(b)
	for _, candidate := range Ranks {
		if candidate.String() == s {
			*r = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown rank %q", s)
}

// Color of a card. ColorNone marks a wild that has not been switched yet.
type Color int

const (
	ColorNone Color = iota
	ColorRed
	ColorYellow
	ColorBlue
	ColorGreen
)

// Colors lists the four playable colors.
var Colors = []Color{ColorRed, ColorYellow, ColorBlue, ColorGreen}

func (c Color) String() string {
	switch c {
	case ColorRed:
		return "RED"
	case ColorYellow:
		return "YELLOW"
	case ColorBlue:
		return "BLUE"
	case ColorGreen:
		return "GREEN"
	default:
		return ""
	}
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	s := string(b)
	if s == "" {
		*c = ColorNone
		return nil
	}
	for _, candidate := range Colors {
		if candidate.String() == s {
			*c = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown color %q", s)
}

// Card is a single card. Holder is the player whose effect on the discard top is still pending;
// nil means the effect has been resolved.
type Card struct {
	Rank   Rank       `json:"rank"`
	Color  Color      `json:"color,omitempty"`
	Holder *uuid.UUID `json:"holder,omitempty"`
}

// HeldBy reports whether id currently holds the card.
func (c Card) HeldBy(id uuid.UUID) bool {
	return c.Holder != nil && *c.Holder == id
}

// WithHolder returns a copy of the card held by id.
func (c Card) WithHolder(id uuid.UUID) Card {
	holder := id
	c.Holder = &holder
	return c
}

// Neutral returns a copy of the card with no holder.
func (c Card) Neutral() Card {
	c.Holder = nil
	return c
}

func (c Card) String() string {
	if c.Color == ColorNone {
		return c.Rank.String()
	}
	return c.Color.String() + " " + c.Rank.String()
}
