package service

import (
	"context"
	"path/filepath"
	"testing"

	"planningpoker/internal/apperr"
	"planningpoker/internal/database"
	"planningpoker/internal/events"
	"planningpoker/internal/models"
)

type fixture struct {
	db      *database.DB
	sink    *events.Recorder
	games   *GameService
	players *PlayerService
	rounds  *RoundService
	votes   *VoteService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	sink := &events.Recorder{}
	return &fixture{
		db:      db,
		sink:    sink,
		games:   NewGameService(db, sink),
		players: NewPlayerService(db, sink),
		rounds:  NewRoundService(db, sink),
		votes:   NewVoteService(db, sink),
	}
}

func (f *fixture) player(t *testing.T, name string) *models.Player {
	t.Helper()
	p, err := f.players.CreatePlayer(context.Background(), name)
	if err != nil {
		t.Fatalf("CreatePlayer(%q) error = %v", name, err)
	}
	return p
}

// game creates a game owned (and joined) by owner with the given card values
func (f *fixture) game(t *testing.T, owner *models.Player, values ...int) *models.Game {
	t.Helper()
	g, err := f.games.CreateGame(context.Background(), owner.ID, "Sprint 42", "", cardsOf(values...))
	if err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}
	return g
}

func (f *fixture) join(t *testing.T, p *models.Player, g *models.Game) {
	t.Helper()
	if _, err := f.players.JoinGame(context.Background(), p.ID, g.ID, ""); err != nil {
		t.Fatalf("JoinGame() error = %v", err)
	}
}

func cardsOf(values ...int) []models.Card {
	cards := make([]models.Card, len(values))
	for i, v := range values {
		cards[i] = models.Card{Value: v}
	}
	return cards
}

func assertKind(t *testing.T, err error, want apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := apperr.KindOf(err); got != want {
		t.Fatalf("error kind = %s (%v), want %s", got, err, want)
	}
}
