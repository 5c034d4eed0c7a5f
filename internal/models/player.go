package models

import (
	"slices"
	"time"
)

// Player is an anonymous, name-only participant
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	GameIDs   []string  `json:"gameIds"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsInGame reports whether the player has joined the game
func (p *Player) IsInGame(gameID string) bool {
	return slices.Contains(p.GameIDs, gameID)
}
