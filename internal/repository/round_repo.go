package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"planningpoker/internal/database"
	"planningpoker/internal/models"
)

// ErrOpenRoundExists is returned by Create when the game already has an open round
var ErrOpenRoundExists = errors.New("game already has an open round")

// RoundRepository handles database operations for rounds
type RoundRepository struct {
	db database.DBTX
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(db database.DBTX) *RoundRepository {
	return &RoundRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *RoundRepository) WithTx(tx *database.Tx) *RoundRepository {
	return &RoundRepository{db: tx}
}

const roundColumns = `id, game_id, COALESCE(topic, ''), created_at, ended_at, COALESCE(ended_by, ''), result`

// Create inserts an open round. A concurrent open round for the same game
// surfaces as ErrOpenRoundExists.
func (r *RoundRepository) Create(ctx context.Context, round *models.Round) error {
	query := `INSERT INTO rounds (id, game_id, topic, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, round.ID, round.GameID, nullString(round.Topic), round.CreatedAt)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return ErrOpenRoundExists
		}
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

// Insert writes a round with all of its fields, open or closed
func (r *RoundRepository) Insert(ctx context.Context, round *models.Round) error {
	result, err := encodeResult(round.Result)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO rounds (id, game_id, topic, created_at, ended_at, ended_by, result)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		round.ID, round.GameID, nullString(round.Topic), round.CreatedAt,
		nullTime(round.EndedAt), nullString(round.EndedBy), result)
	if err != nil {
		return fmt.Errorf("failed to insert round: %w", err)
	}
	return nil
}

// GetByID retrieves a round by ID, returning nil when it does not exist
func (r *RoundRepository) GetByID(ctx context.Context, id string) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByIDForShare is GetByID holding a shared lock on the row until the
// transaction ends, so the round cannot be closed underneath a vote.
func (r *RoundRepository) GetByIDForShare(ctx context.Context, id string) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = ?` + r.db.GetDialect().ShareLockClause()
	return r.getOne(ctx, query, id)
}

// OpenRounds returns the rounds of a game that have not ended
func (r *RoundRepository) OpenRounds(ctx context.Context, gameID string) ([]models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE game_id = ? AND ended_at IS NULL ORDER BY created_at, id`
	return r.queryRounds(ctx, query, gameID)
}

// ListByGame returns the rounds of a game in creation order
func (r *RoundRepository) ListByGame(ctx context.Context, gameID string) ([]models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE game_id = ? ORDER BY created_at, id`
	return r.queryRounds(ctx, query, gameID)
}

// Close marks an open round as ended. It reports false when the round was
// already closed, leaving the stored round untouched. On databases with row
// locks the update waits for votes holding a shared lock on the round.
func (r *RoundRepository) Close(ctx context.Context, roundID string, endedAt time.Time, endedBy string) (bool, error) {
	query := `UPDATE rounds SET ended_at = ?, ended_by = ? WHERE id = ? AND ended_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, endedAt, nullString(endedBy), roundID)
	if err != nil {
		return false, fmt.Errorf("failed to end round: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to end round: %w", err)
	}
	return n == 1, nil
}

// SetResult stores the frozen result of a closed round
func (r *RoundRepository) SetResult(ctx context.Context, roundID string, result *models.RoundResult) error {
	encoded, err := encodeResult(result)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE rounds SET result = ? WHERE id = ?`, encoded, roundID); err != nil {
		return fmt.Errorf("failed to save round result: %w", err)
	}
	return nil
}

func (r *RoundRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Round, error) {
	round, err := scanRound(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return round, nil
}

func (r *RoundRepository) queryRounds(ctx context.Context, query string, args ...interface{}) ([]models.Round, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	rounds := []models.Round{}
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, *round)
	}
	return rounds, rows.Err()
}

func scanRound(row scanner) (*models.Round, error) {
	round := &models.Round{}
	var endedAt sql.NullTime
	var result sql.NullString
	if err := row.Scan(&round.ID, &round.GameID, &round.Topic, &round.CreatedAt, &endedAt, &round.EndedBy, &result); err != nil {
		return nil, err
	}
	if endedAt.Valid {
		t := endedAt.Time
		round.EndedAt = &t
	}
	if result.Valid && result.String != "" {
		round.Result = &models.RoundResult{}
		if err := json.Unmarshal([]byte(result.String), round.Result); err != nil {
			return nil, fmt.Errorf("failed to decode result of round %s: %w", round.ID, err)
		}
	}
	return round, nil
}

func encodeResult(result *models.RoundResult) (sql.NullString, error) {
	if result == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode round result: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
