package service

import (
	"context"
	"errors"
	"testing"

	"planningpoker/internal/apperr"
	"planningpoker/internal/events"
	"planningpoker/internal/models"
)

func TestCreateGame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.player(t, "Alice")

	game, err := f.games.CreateGame(ctx, alice.ID, "Backlog grooming", "hunter2", cardsOf(1, 2, 3, 5, 8))
	if err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}
	if !game.HasPassword() || game.PasswordHash == "hunter2" {
		t.Error("password should be stored as a hash")
	}

	me, _ := f.players.GetPlayer(ctx, alice.ID)
	if !me.IsInGame(game.ID) {
		t.Error("creator should join the new game")
	}
	if names := f.sink.Names(); len(names) != 1 || names[0] != events.PlayerJoined {
		t.Errorf("events = %v, want [playerJoined]", names)
	}

	anonymous, err := f.games.CreateGame(ctx, "", "Open game", "", cardsOf(1))
	if err != nil {
		t.Fatalf("CreateGame() without creator error = %v", err)
	}
	if anonymous.HasPassword() {
		t.Error("game without password reports one")
	}
}

func TestCreateGameValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		game    string
		pass    string
		cards   []models.Card
		message string
	}{
		{name: "blank name", game: "  ", cards: cardsOf(1), message: "Name of game must not be blank."},
		{name: "no cards", game: "G", cards: nil, message: "No playable cards are set for the game."},
		{name: "duplicates", game: "G", cards: cardsOf(1, 2, 2, 3, 3), message: "Playable cards are duplicated: 2, 3"},
		{name: "short password", game: "G", pass: "abc", cards: cardsOf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.games.CreateGame(ctx, "", tt.game, tt.pass, tt.cards)
			assertKind(t, err, apperr.KindBadRequest)
			if tt.message != "" && err.Error() != tt.message {
				t.Errorf("message = %q, want %q", err.Error(), tt.message)
			}
		})
	}

	page, _ := f.games.ListGames(ctx, 0, 10)
	if len(page.Items) != 0 {
		t.Errorf("invalid games were persisted: %+v", page.Items)
	}
}

func TestListGames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		if _, err := f.games.CreateGame(ctx, "", "Game", "", cardsOf(1, 2)); err != nil {
			t.Fatalf("CreateGame() error = %v", err)
		}
	}

	page, err := f.games.ListGames(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListGames() error = %v", err)
	}
	if page.PageSize != DefaultPageSize || page.TotalPages != 3 || len(page.Items) != DefaultPageSize {
		t.Errorf("ListGames(0, 0) = page %d size %d total %d items %d", page.Page, page.PageSize, page.TotalPages, len(page.Items))
	}

	last, err := f.games.ListGames(ctx, 2, 10)
	if err != nil || len(last.Items) != 5 || last.Page != 2 {
		t.Errorf("ListGames(2, 10) = %+v, %v", last, err)
	}

	_, err = f.games.ListGames(ctx, -1, 10)
	assertKind(t, err, apperr.KindBadRequest)
}

func TestGetGame(t *testing.T) {
	f := newFixture(t)
	_, err := f.games.GetGame(context.Background(), "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetGame(missing) error = %v, want not found", err)
	}
}
