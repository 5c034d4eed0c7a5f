package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"planningpoker/internal/apperr"
	"planningpoker/internal/database"
	"planningpoker/internal/events"
	"planningpoker/internal/models"
	"planningpoker/internal/repository"
	"planningpoker/internal/stats"
)

// RoundService drives the round state machine: a game has at most one open
// round, and a round is closed exactly once.
type RoundService struct {
	db      *database.DB
	games   *repository.GameRepository
	players *repository.PlayerRepository
	rounds  *repository.RoundRepository
	votes   *repository.VoteRepository
	sink    events.Sink
	now     Clock
}

// NewRoundService creates a new round service
func NewRoundService(db *database.DB, sink events.Sink) *RoundService {
	return &RoundService{
		db:      db,
		games:   repository.NewGameRepository(db),
		players: repository.NewPlayerRepository(db),
		rounds:  repository.NewRoundRepository(db),
		votes:   repository.NewVoteRepository(db),
		sink:    sink,
		now:     utcNow,
	}
}

// StartRound opens a new round in the game
func (s *RoundService) StartRound(ctx context.Context, callerID, gameID, topic string) (*models.Round, error) {
	round := &models.Round{
		ID:     uuid.NewString(),
		GameID: gameID,
		Topic:  strings.TrimSpace(topic),
	}

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		rounds := s.rounds.WithTx(tx)
		if _, err := requireGame(ctx, s.games.WithTx(tx), gameID); err != nil {
			return err
		}
		if err := requireMember(ctx, s.players.WithTx(tx), callerID, gameID); err != nil {
			return err
		}

		open, err := openRound(ctx, rounds, gameID)
		if err != nil {
			return err
		}
		if open != nil {
			return roundOngoing(open.ID)
		}

		round.CreatedAt = s.now()
		return rounds.Create(ctx, round)
	})
	if errors.Is(err, repository.ErrOpenRoundExists) {
		return nil, s.conflictWithOpenRound(ctx, gameID)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("Round %s started in game %s by %s", round.ID, gameID, callerID)
	events.Publish(ctx, s.sink, gameID, events.NewRoundStarted(round))
	return round, nil
}

// EndRound closes an open round and freezes its result
func (s *RoundService) EndRound(ctx context.Context, callerID, gameID, roundID string) (*models.Round, error) {
	var round *models.Round
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		rounds := s.rounds.WithTx(tx)
		game, err := requireGame(ctx, s.games.WithTx(tx), gameID)
		if err != nil {
			return err
		}
		if err := requireMember(ctx, s.players.WithTx(tx), callerID, gameID); err != nil {
			return err
		}

		round, err = rounds.GetByID(ctx, roundID)
		if err != nil {
			return err
		}
		if round == nil || round.GameID != gameID {
			return roundNotFound(roundID)
		}
		if round.IsFinished() {
			return roundFinished(roundID)
		}

		endedAt := s.now()
		closed, err := rounds.Close(ctx, roundID, endedAt, callerID)
		if err != nil {
			return err
		}
		if !closed {
			return roundFinished(roundID)
		}

		votes, err := s.votes.WithTx(tx).ListByRound(ctx, roundID)
		if err != nil {
			return err
		}
		result := stats.Compute(votes, game.PlayableCards)
		if err := rounds.SetResult(ctx, roundID, result); err != nil {
			return err
		}

		round.EndedAt = &endedAt
		round.EndedBy = callerID
		round.Result = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Round %s ended in game %s by %s", roundID, gameID, callerID)
	events.Publish(ctx, s.sink, gameID, events.NewRoundEnded(round))
	return round, nil
}

// GetCurrentRound returns the open round of the game
func (s *RoundService) GetCurrentRound(ctx context.Context, callerID, gameID string) (*models.Round, error) {
	if err := s.checkGameAccess(ctx, callerID, gameID); err != nil {
		return nil, err
	}
	open, err := openRound(ctx, s.rounds, gameID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, apperr.NotFound("No round is currently ongoing.")
	}
	return open, nil
}

// GetRounds lists every round of the game in creation order
func (s *RoundService) GetRounds(ctx context.Context, callerID, gameID string) ([]models.Round, error) {
	if err := s.checkGameAccess(ctx, callerID, gameID); err != nil {
		return nil, err
	}
	return s.rounds.ListByGame(ctx, gameID)
}

// GetRound returns a single round
func (s *RoundService) GetRound(ctx context.Context, callerID, roundID string) (*models.Round, error) {
	round, err := s.rounds.GetByID(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return nil, roundNotFound(roundID)
	}
	if err := requireMember(ctx, s.players, callerID, round.GameID); err != nil {
		return nil, err
	}
	return round, nil
}

func (s *RoundService) checkGameAccess(ctx context.Context, callerID, gameID string) error {
	if _, err := requireGame(ctx, s.games, gameID); err != nil {
		return err
	}
	return requireMember(ctx, s.players, callerID, gameID)
}

// conflictWithOpenRound builds the Conflict error after a concurrent start won the race
func (s *RoundService) conflictWithOpenRound(ctx context.Context, gameID string) error {
	open, err := openRound(ctx, s.rounds, gameID)
	if err != nil {
		return err
	}
	if open == nil {
		return apperr.Conflict("Another round was started concurrently in game '%s'.", gameID)
	}
	return roundOngoing(open.ID)
}

// openRound returns the open round of a game, or nil. More than one open
// round means the storage guard failed and is reported as an internal error.
func openRound(ctx context.Context, rounds *repository.RoundRepository, gameID string) (*models.Round, error) {
	open, err := rounds.OpenRounds(ctx, gameID)
	if err != nil {
		return nil, err
	}
	switch len(open) {
	case 0:
		return nil, nil
	case 1:
		return &open[0], nil
	default:
		return nil, fmt.Errorf("game %s has %d open rounds", gameID, len(open))
	}
}

func roundOngoing(roundID string) error {
	return apperr.Conflict("Round with ID '%s' is still ongoing.", roundID)
}

func roundFinished(roundID string) error {
	return apperr.BadRequest("Round with ID '%s' is already finished.", roundID)
}
