package service

import (
	"context"

	"planningpoker/internal/apperr"
	"planningpoker/internal/database"
	"planningpoker/internal/events"
	"planningpoker/internal/models"
	"planningpoker/internal/repository"
)

// VoteService collects the votes of a round. Players always vote for themselves.
type VoteService struct {
	db      *database.DB
	games   *repository.GameRepository
	players *repository.PlayerRepository
	rounds  *repository.RoundRepository
	votes   *repository.VoteRepository
	sink    events.Sink
	now     Clock
}

// NewVoteService creates a new vote service
func NewVoteService(db *database.DB, sink events.Sink) *VoteService {
	return &VoteService{
		db:      db,
		games:   repository.NewGameRepository(db),
		players: repository.NewPlayerRepository(db),
		rounds:  repository.NewRoundRepository(db),
		votes:   repository.NewVoteRepository(db),
		sink:    sink,
		now:     utcNow,
	}
}

// SubmitVote records the caller's card for an open round, replacing an earlier vote
func (s *VoteService) SubmitVote(ctx context.Context, callerID, roundID string, card models.Card) (*models.Vote, error) {
	var vote *models.Vote
	var gameID string
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		round, err := s.lockOpenRound(ctx, tx, callerID, roundID)
		if err != nil {
			return err
		}
		gameID = round.GameID

		game, err := requireGame(ctx, s.games.WithTx(tx), round.GameID)
		if err != nil {
			return err
		}
		if !game.IsPlayable(card) {
			return apperr.BadRequest("Card with value %d can not be played in game '%s'.", card.Value, game.ID)
		}

		votes := s.votes.WithTx(tx)
		if err := votes.Upsert(ctx, &models.Vote{
			RoundID:   roundID,
			PlayerID:  callerID,
			Card:      card,
			CreatedAt: s.now(),
		}); err != nil {
			return err
		}
		vote, err = votes.Get(ctx, roundID, callerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	events.Publish(ctx, s.sink, gameID, events.NewVoteSubmitted(gameID, vote))
	return vote, nil
}

// RevokeVote removes the caller's vote from an open round. Revoking without
// a vote is not an error.
func (s *VoteService) RevokeVote(ctx context.Context, callerID, roundID string) error {
	var removed *models.Vote
	var gameID string
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		round, err := s.lockOpenRound(ctx, tx, callerID, roundID)
		if err != nil {
			return err
		}
		gameID = round.GameID
		removed, err = s.votes.WithTx(tx).Delete(ctx, roundID, callerID)
		return err
	})
	if err != nil {
		return err
	}

	if removed != nil {
		events.Publish(ctx, s.sink, gameID, events.NewVoteRevoked(gameID, removed))
	}
	return nil
}

// ListVotes returns the votes of a round in the order they were cast
func (s *VoteService) ListVotes(ctx context.Context, callerID, roundID string) ([]models.Vote, error) {
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
	return s.votes.ListByRound(ctx, roundID)
}

// lockOpenRound loads the round under a shared lock and checks that the
// caller may vote in it
func (s *VoteService) lockOpenRound(ctx context.Context, tx *database.Tx, callerID, roundID string) (*models.Round, error) {
	round, err := s.rounds.WithTx(tx).GetByIDForShare(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round == nil {
		return nil, roundNotFound(roundID)
	}
	if err := requireMember(ctx, s.players.WithTx(tx), callerID, round.GameID); err != nil {
		return nil, err
	}
	if round.IsFinished() {
		return nil, roundFinished(roundID)
	}
	return round, nil
}
