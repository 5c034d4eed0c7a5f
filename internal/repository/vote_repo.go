package repository

import (
	"context"
	"database/sql"
	"fmt"

	"planningpoker/internal/database"
	"planningpoker/internal/models"
)

// VoteRepository handles database operations for votes
type VoteRepository struct {
	db database.DBTX
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db database.DBTX) *VoteRepository {
	return &VoteRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *VoteRepository) WithTx(tx *database.Tx) *VoteRepository {
	return &VoteRepository{db: tx}
}

// Upsert stores the player's vote for the round, replacing a previous one
func (r *VoteRepository) Upsert(ctx context.Context, vote *models.Vote) error {
	query := r.db.GetDialect().UpsertVoteQuery()
	if _, err := r.db.ExecContext(ctx, query, vote.RoundID, vote.PlayerID, vote.Card.Value, vote.CreatedAt); err != nil {
		return fmt.Errorf("failed to save vote: %w", err)
	}
	return nil
}

// Get returns the player's vote in the round, or nil when there is none
func (r *VoteRepository) Get(ctx context.Context, roundID, playerID string) (*models.Vote, error) {
	query := `
		SELECT v.round_id, v.player_id, COALESCE(p.name, ''), v.card, v.created_at
		FROM votes v
		LEFT JOIN players p ON p.id = v.player_id
		WHERE v.round_id = ? AND v.player_id = ?
	`
	vote, err := scanVote(r.db.QueryRowContext(ctx, query, roundID, playerID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return vote, nil
}

// Delete removes the player's vote and returns it, or nil when there was none
func (r *VoteRepository) Delete(ctx context.Context, roundID, playerID string) (*models.Vote, error) {
	vote, err := r.Get(ctx, roundID, playerID)
	if err != nil || vote == nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM votes WHERE round_id = ? AND player_id = ?`, roundID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete vote: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	return vote, nil
}

// ListByRound returns the votes of a round in the order they were cast
func (r *VoteRepository) ListByRound(ctx context.Context, roundID string) ([]models.Vote, error) {
	query := `
		SELECT v.round_id, v.player_id, COALESCE(p.name, ''), v.card, v.created_at
		FROM votes v
		LEFT JOIN players p ON p.id = v.player_id
		WHERE v.round_id = ?
		ORDER BY v.created_at, v.player_id
	`
	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		vote, err := scanVote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, *vote)
	}
	return votes, rows.Err()
}

func scanVote(row scanner) (*models.Vote, error) {
	vote := &models.Vote{}
	if err := row.Scan(&vote.RoundID, &vote.PlayerID, &vote.PlayerName, &vote.Card.Value, &vote.CreatedAt); err != nil {
		return nil, err
	}
	return vote, nil
}
