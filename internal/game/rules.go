// internal/game/rules.go
package game

import "fmt"

// HouseRules holds the per-room settings the host may change when starting the game.
type HouseRules struct {
	HandSize      int `json:"handSize"`      // cards dealt to each player on start
	MaxDrawAmount int `json:"maxDrawAmount"` // largest amount a single draw request may ask for
	MaxPlayers    int `json:"maxPlayers"`    // seats available while waiting
}

// DefaultHouseRules returns the rules a new room starts with.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		HandSize:      8,
		MaxDrawAmount: 4,
		MaxPlayers:    10,
	}
}

// Update will update the house rules with the new rules provided.
// Keys that are absent or null are ignored and keep their old value.
func (rules *HouseRules) Update(newRules map[string]interface{}) error {
	assignInt := func(field *int, key string, minVal, maxVal int) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		var n int
		switch v := val.(type) {
		case float64: // JSON numbers decode as float64
			n = int(v)
		case int:
			n = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if n < minVal || n > maxVal {
			return fmt.Errorf("%s must be between %d and %d", key, minVal, maxVal)
		}
		*field = n
		return nil
	}

	if err := assignInt(&rules.HandSize, "handSize", 1, 20); err != nil {
		return err
	}
	if err := assignInt(&rules.MaxDrawAmount, "maxDrawAmount", 1, 8); err != nil {
		return err
	}
	if err := assignInt(&rules.MaxPlayers, "maxPlayers", 2, 10); err != nil {
		return err
	}
	return nil
}

// ParseRules applies rules on top of current and returns the result without touching current.
func ParseRules(rules map[string]interface{}, current HouseRules) (HouseRules, error) {
	houseRules := current
	err := houseRules.Update(rules)
	return houseRules, err
}
