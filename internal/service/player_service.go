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
	"planningpoker/internal/nickname"
	"planningpoker/internal/repository"
	"planningpoker/internal/security"
	"planningpoker/internal/validation"
)

// PlayerService handles players and their game memberships
type PlayerService struct {
	db      *database.DB
	games   *repository.GameRepository
	players *repository.PlayerRepository
	sink    events.Sink
	now     Clock
}

// NewPlayerService creates a new player service
func NewPlayerService(db *database.DB, sink events.Sink) *PlayerService {
	return &PlayerService{
		db:      db,
		games:   repository.NewGameRepository(db),
		players: repository.NewPlayerRepository(db),
		sink:    sink,
		now:     utcNow,
	}
}

// CreatePlayer registers a new anonymous player. A blank name is replaced
// with a generated one.
func (s *PlayerService) CreatePlayer(ctx context.Context, name string) (*models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		generated, err := nickname.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate player name: %w", err)
		}
		name = generated
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, apperr.BadRequest("%s", err.Error())
	}

	now := s.now()
	player := &models.Player{
		ID:        uuid.NewString(),
		Name:      name,
		GameIDs:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.players.Create(ctx, player); err != nil {
		return nil, err
	}

	log.Printf("Player created: %s", player.ID)
	return player, nil
}

// GetPlayer returns a player or NotFound
func (s *PlayerService) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, apperr.NotFound("Player with ID '%s' does not exist.", playerID)
	}
	return player, nil
}

// UpdatePlayer renames the caller
func (s *PlayerService) UpdatePlayer(ctx context.Context, callerID, name string) (*models.Player, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateName(name); err != nil {
		return nil, apperr.BadRequest("%s", err.Error())
	}

	var player *models.Player
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		players := s.players.WithTx(tx)
		var err error
		if player, err = requirePlayer(ctx, players, callerID); err != nil {
			return err
		}
		player.Name = name
		player.UpdatedAt = s.now()
		return players.UpdateName(ctx, player.ID, player.Name, player.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

// JoinGame adds the caller to a game. Joining twice is a no-op.
// A password protected game requires the matching password.
func (s *PlayerService) JoinGame(ctx context.Context, callerID, gameID, password string) (*models.Player, error) {
	var player *models.Player
	var added bool
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		players := s.players.WithTx(tx)
		game, err := requireGame(ctx, s.games.WithTx(tx), gameID)
		if err != nil {
			return err
		}
		if player, err = requirePlayer(ctx, players, callerID); err != nil {
			return err
		}
		if player.IsInGame(gameID) {
			return nil
		}
		if game.HasPassword() && !security.CheckPassword(password, game.PasswordHash) {
			return apperr.Forbidden("Invalid password for game '%s'.", gameID)
		}
		if added, err = players.AddToGame(ctx, player.ID, gameID, s.now()); err != nil {
			return err
		}
		player.GameIDs = append(player.GameIDs, gameID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if added {
		events.Publish(ctx, s.sink, gameID, events.NewPlayerJoined(gameID, player))
	}
	return player, nil
}

// LeaveGame removes the caller from a game
func (s *PlayerService) LeaveGame(ctx context.Context, callerID, gameID string) (*models.Player, error) {
	var player *models.Player
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		players := s.players.WithTx(tx)
		if _, err := requireGame(ctx, s.games.WithTx(tx), gameID); err != nil {
			return err
		}
		var err error
		if player, err = requirePlayer(ctx, players, callerID); err != nil {
			return err
		}
		removed, err := players.RemoveFromGame(ctx, player.ID, gameID)
		if err != nil {
			return err
		}
		if !removed {
			return apperr.BadRequest("Player '%s' did not join game '%s'.", player.ID, gameID)
		}
		player.GameIDs = removeString(player.GameIDs, gameID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.Publish(ctx, s.sink, gameID, events.NewPlayerLeft(gameID, player))
	return player, nil
}

// GetPlayersInGame lists the members of a game. Only members may see them.
func (s *PlayerService) GetPlayersInGame(ctx context.Context, callerID, gameID string) ([]models.Player, error) {
	if _, err := requireGame(ctx, s.games, gameID); err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.players, callerID, gameID); err != nil {
		return nil, err
	}
	return s.players.ListByGame(ctx, gameID)
}

func removeString(values []string, target string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
