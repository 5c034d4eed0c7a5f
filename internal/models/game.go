package models

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"planningpoker/internal/apperr"
)

// Card is a single estimate value. Cards are equal when their values are.
type Card struct {
	Value int `json:"value"`
}

// Game is a named estimation room with a fixed set of playable cards
type Game struct {
	ID            string
	Name          string
	PasswordHash  string // bcrypt hash, empty when the game is open
	PlayableCards []Card
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewGame builds a game and validates it before it is persisted
func NewGame(id, name, passwordHash string, playableCards []Card, now time.Time) (*Game, error) {
	game := &Game{
		ID:            id,
		Name:          name,
		PasswordHash:  passwordHash,
		PlayableCards: playableCards,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := game.Validate(); err != nil {
		return nil, err
	}
	return game, nil
}

// Validate checks the game invariants: a non-blank name and a non-empty
// set of pairwise distinct playable cards.
func (g *Game) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return apperr.BadRequest("Name of game must not be blank.")
	}
	if len(g.PlayableCards) == 0 {
		return apperr.BadRequest("No playable cards are set for the game.")
	}
	if dups := DuplicateCardValues(g.PlayableCards); len(dups) > 0 {
		values := make([]string, len(dups))
		for i, v := range dups {
			values[i] = strconv.Itoa(v)
		}
		return apperr.BadRequest("Playable cards are duplicated: %s", strings.Join(values, ", "))
	}
	return nil
}

// HasPassword reports whether joining the game requires a password
func (g *Game) HasPassword() bool {
	return g.PasswordHash != ""
}

// IsPlayable reports whether card is one of the game's playable cards
func (g *Game) IsPlayable(card Card) bool {
	for _, c := range g.PlayableCards {
		if c.Value == card.Value {
			return true
		}
	}
	return false
}

// SortedCards returns a copy of the playable cards ordered by ascending value
func (g *Game) SortedCards() []Card {
	cards := make([]Card, len(g.PlayableCards))
	copy(cards, g.PlayableCards)
	sort.Slice(cards, func(i, j int) bool { return cards[i].Value < cards[j].Value })
	return cards
}

// MarshalJSON hides the password hash and exposes hasPassword instead
func (g Game) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID            string    `json:"id"`
		Name          string    `json:"name"`
		HasPassword   bool      `json:"hasPassword"`
		PlayableCards []Card    `json:"playableCards"`
		CreatedAt     time.Time `json:"createdAt"`
	}{
		ID:            g.ID,
		Name:          g.Name,
		HasPassword:   g.HasPassword(),
		PlayableCards: g.PlayableCards,
		CreatedAt:     g.CreatedAt,
	})
}

// DuplicateCardValues returns every card value that occurs more than once,
// each listed once, in ascending order.
func DuplicateCardValues(cards []Card) []int {
	counts := make(map[int]int, len(cards))
	for _, c := range cards {
		counts[c.Value]++
	}
	var dups []int
	for value, n := range counts {
		if n > 1 {
			dups = append(dups, value)
		}
	}
	sort.Ints(dups)
	return dups
}

// PagedResult is one page of a listing
type PagedResult[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}
