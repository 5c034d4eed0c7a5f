package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"planningpoker/internal/apperr"
)

func cards(values ...int) []Card {
	result := make([]Card, len(values))
	for i, v := range values {
		result[i] = Card{Value: v}
	}
	return result
}

func TestNewGameValidation(t *testing.T) {
	tests := []struct {
		name    string
		game    string
		cards   []Card
		wantMsg string
	}{
		{
			name:  "valid game",
			game:  "Sprint 42",
			cards: cards(1, 2, 3, 5, 8),
		},
		{
			name:    "blank name",
			game:    "   ",
			cards:   cards(1, 2),
			wantMsg: "Name of game must not be blank.",
		},
		{
			name:    "no cards",
			game:    "Sprint",
			cards:   nil,
			wantMsg: "No playable cards are set for the game.",
		},
		{
			name:    "duplicate cards listed sorted",
			game:    "Sprint",
			cards:   cards(3, 1, 2, 2, 3),
			wantMsg: "Playable cards are duplicated: 2, 3",
		},
		{
			name:    "value repeated three times listed once",
			game:    "Sprint",
			cards:   cards(5, 5, 5, 1),
			wantMsg: "Playable cards are duplicated: 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			game, err := NewGame("g1", tt.game, "", tt.cards, time.Now())
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("NewGame() error = %v", err)
				}
				if game.ID != "g1" {
					t.Errorf("ID = %q, want g1", game.ID)
				}
				return
			}
			if err == nil {
				t.Fatalf("NewGame() expected error %q", tt.wantMsg)
			}
			if !errors.Is(err, apperr.ErrBadRequest) {
				t.Errorf("NewGame() error kind = %v, want bad request", apperr.KindOf(err))
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("NewGame() error = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestGameIsPlayable(t *testing.T) {
	game := &Game{PlayableCards: cards(1, 2, 3)}

	if !game.IsPlayable(Card{Value: 2}) {
		t.Error("IsPlayable(2) = false, want true")
	}
	if game.IsPlayable(Card{Value: 4}) {
		t.Error("IsPlayable(4) = true, want false")
	}
}

func TestGameSortedCardsDoesNotMutate(t *testing.T) {
	game := &Game{PlayableCards: cards(8, 1, 3)}

	sorted := game.SortedCards()
	if sorted[0].Value != 1 || sorted[1].Value != 3 || sorted[2].Value != 8 {
		t.Errorf("SortedCards() = %v", sorted)
	}
	if game.PlayableCards[0].Value != 8 {
		t.Errorf("SortedCards() reordered the game's cards: %v", game.PlayableCards)
	}
}

func TestGameJSONHidesPasswordHash(t *testing.T) {
	game := Game{ID: "g1", Name: "Secret", PasswordHash: "$2a$10$hash", PlayableCards: cards(1)}

	data, err := json.Marshal(game)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	body := string(data)
	if strings.Contains(body, "hash") {
		t.Errorf("JSON leaks the password hash: %s", body)
	}
	if !strings.Contains(body, `"hasPassword":true`) {
		t.Errorf("JSON misses hasPassword: %s", body)
	}
}

func TestPlayerIsInGame(t *testing.T) {
	player := &Player{ID: "p1", GameIDs: []string{"g1", "g2"}}

	if !player.IsInGame("g2") {
		t.Error("IsInGame(g2) = false, want true")
	}
	if player.IsInGame("g3") {
		t.Error("IsInGame(g3) = true, want false")
	}
}

func TestRoundIsFinished(t *testing.T) {
	round := &Round{ID: "r1"}
	if round.IsFinished() {
		t.Error("open round reported as finished")
	}

	ended := time.Now()
	round.EndedAt = &ended
	if !round.IsFinished() {
		t.Error("ended round reported as open")
	}
}
