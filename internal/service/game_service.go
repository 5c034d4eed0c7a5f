package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"planningpoker/internal/apperr"
	"planningpoker/internal/database"
	"planningpoker/internal/events"
	"planningpoker/internal/models"
	"planningpoker/internal/repository"
	"planningpoker/internal/security"
	"planningpoker/internal/validation"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// GameService handles game creation and lookup
type GameService struct {
	db      *database.DB
	games   *repository.GameRepository
	players *repository.PlayerRepository
	sink    events.Sink
	now     Clock
}

// NewGameService creates a new game service
func NewGameService(db *database.DB, sink events.Sink) *GameService {
	return &GameService{
		db:      db,
		games:   repository.NewGameRepository(db),
		players: repository.NewPlayerRepository(db),
		sink:    sink,
		now:     utcNow,
	}
}

// CreateGame creates a game. When callerID names an existing player, the
// player joins the new game right away.
func (s *GameService) CreateGame(ctx context.Context, callerID, name, password string, cards []models.Card) (*models.Game, error) {
	name = strings.TrimSpace(name)
	if name != "" {
		if err := validation.ValidateName(name); err != nil {
			return nil, apperr.BadRequest("%s", err.Error())
		}
	}
	if err := validation.ValidateCardCount(len(cards)); err != nil {
		return nil, apperr.BadRequest("%s", err.Error())
	}
	if err := validation.ValidateGamePassword(password); err != nil {
		return nil, apperr.BadRequest("%s", err.Error())
	}

	hash := ""
	if password != "" {
		var err error
		if hash, err = security.HashPassword(password); err != nil {
			return nil, err
		}
	}

	game, err := models.NewGame(uuid.NewString(), name, hash, cards, s.now())
	if err != nil {
		return nil, err
	}

	var joined *models.Player
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := s.games.WithTx(tx).Create(ctx, game); err != nil {
			return err
		}
		if callerID == "" {
			return nil
		}
		players := s.players.WithTx(tx)
		creator, err := players.GetByID(ctx, callerID)
		if err != nil || creator == nil {
			return err
		}
		if _, err := players.AddToGame(ctx, creator.ID, game.ID, game.CreatedAt); err != nil {
			return err
		}
		creator.GameIDs = append(creator.GameIDs, game.ID)
		joined = creator
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	log.Printf("Game created: %s (%s)", game.Name, game.ID)
	if joined != nil {
		events.Publish(ctx, s.sink, game.ID, events.NewPlayerJoined(game.ID, joined))
	}
	return game, nil
}

// GetGame returns a game or NotFound
func (s *GameService) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	return requireGame(ctx, s.games, gameID)
}

// ListGames returns one page of games, newest first. page starts at 0.
func (s *GameService) ListGames(ctx context.Context, page, limit int) (*models.PagedResult[models.Game], error) {
	if page < 0 {
		return nil, apperr.BadRequest("Page must not be negative.")
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	total, err := s.games.Count(ctx)
	if err != nil {
		return nil, err
	}
	games, err := s.games.List(ctx, page*limit, limit)
	if err != nil {
		return nil, err
	}

	return &models.PagedResult[models.Game]{
		Items:      games,
		Page:       page,
		PageSize:   limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// CheckPassword reports whether password opens the game. Open games accept any password.
func (s *GameService) CheckPassword(game *models.Game, password string) bool {
	if !game.HasPassword() {
		return true
	}
	return security.CheckPassword(password, game.PasswordHash)
}
