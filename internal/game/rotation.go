// internal/game/rotation.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// PlayerRotation is the turn ring. The head of the slice is the current seat.
// Advancing forward moves the tail to the head; advancing in reverse moves the head to the tail.
type PlayerRotation struct {
	seats []*models.Player
}

// NewPlayerRotation returns an empty ring.
func NewPlayerRotation() *PlayerRotation {
	return &PlayerRotation{}
}

// Insert appends a player to the tail. Inserting an existing id replaces the entry in place.
func (r *PlayerRotation) Insert(p *models.Player) {
	if i := r.index(p.ID); i >= 0 {
		r.seats[i] = p
		return
	}
	r.seats = append(r.seats, p)
}

// Remove drops the player with the given id and reports whether it was present.
func (r *PlayerRotation) Remove(id uuid.UUID) (*models.Player, bool) {
	i := r.index(id)
	if i < 0 {
		return nil, false
	}
	p := r.seats[i]
	r.seats = append(r.seats[:i], r.seats[i+1:]...)
	return p, true
}

func (r *PlayerRotation) Get(id uuid.UUID) (*models.Player, bool) {
	i := r.index(id)
	if i < 0 {
		return nil, false
	}
	return r.seats[i], true
}

func (r *PlayerRotation) Len() int { return len(r.seats) }

func (r *PlayerRotation) IsEmpty() bool { return len(r.seats) == 0 }

// Players returns the seats in ring order starting at the head. The slice is a copy.
func (r *PlayerRotation) Players() []*models.Player {
	out := make([]*models.Player, len(r.seats))
	copy(out, r.seats)
	return out
}

// Head returns the current seat's id, or uuid.Nil for an empty ring.
func (r *PlayerRotation) Head() uuid.UUID {
	if len(r.seats) == 0 {
		return uuid.Nil
	}
	return r.seats[0].ID
}

// Advance rotates the ring by one seat and returns the new head.
func (r *PlayerRotation) Advance(reversed bool) uuid.UUID {
	n := len(r.seats)
	if n == 0 {
		return uuid.Nil
	}
	if reversed {
		head := r.seats[0]
		copy(r.seats, r.seats[1:])
		r.seats[n-1] = head
	} else {
		tail := r.seats[n-1]
		copy(r.seats[1:], r.seats[:n-1])
		r.seats[0] = tail
	}
	return r.seats[0].ID
}

// PeekNext returns what Advance would return without rotating.
func (r *PlayerRotation) PeekNext(reversed bool) uuid.UUID {
	n := len(r.seats)
	switch {
	case n == 0:
		return uuid.Nil
	case n == 1:
		return r.seats[0].ID
	case reversed:
		return r.seats[1].ID
	default:
		return r.seats[n-1].ID
	}
}

func (r *PlayerRotation) index(id uuid.UUID) int {
	for i, p := range r.seats {
		if p.ID == id {
			return i
		}
	}
	return -1
}
