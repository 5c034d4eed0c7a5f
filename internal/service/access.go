package service

import (
	"context"
	"time"

	"planningpoker/internal/apperr"
	"planningpoker/internal/models"
	"planningpoker/internal/repository"
)

// Clock returns the current time. Services store times in UTC.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

func gameNotFound(gameID string) error {
	return apperr.NotFound("Game with ID '%s' does not exist.", gameID)
}

func roundNotFound(roundID string) error {
	return apperr.NotFound("Round with ID '%s' does not exist.", roundID)
}

func notMember(playerID, gameID string) error {
	return apperr.Forbidden("Player with ID '%s' is not part of game '%s'.", playerID, gameID)
}

// requireGame loads a game or fails with NotFound
func requireGame(ctx context.Context, games *repository.GameRepository, gameID string) (*models.Game, error) {
	game, err := games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, gameNotFound(gameID)
	}
	return game, nil
}

// requireMember fails with Forbidden unless the caller joined the game
func requireMember(ctx context.Context, players *repository.PlayerRepository, callerID, gameID string) error {
	if callerID == "" {
		return apperr.Unauthorized("No player session.")
	}
	member, err := players.IsMember(ctx, callerID, gameID)
	if err != nil {
		return err
	}
	if !member {
		return notMember(callerID, gameID)
	}
	return nil
}

// requirePlayer loads the caller or fails with Unauthorized
func requirePlayer(ctx context.Context, players *repository.PlayerRepository, playerID string) (*models.Player, error) {
	if playerID == "" {
		return nil, apperr.Unauthorized("No player session.")
	}
	player, err := players.GetByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player == nil {
		return nil, apperr.Unauthorized("Player with ID '%s' does not exist.", playerID)
	}
	return player, nil
}
