package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"planningpoker/internal/database"
	"planningpoker/internal/models"
)

// GameRepository handles database operations for games
type GameRepository struct {
	db database.DBTX
}

// NewGameRepository creates a new game repository
func NewGameRepository(db database.DBTX) *GameRepository {
	return &GameRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *GameRepository) WithTx(tx *database.Tx) *GameRepository {
	return &GameRepository{db: tx}
}

const gameColumns = `id, name, COALESCE(password_hash, ''), playable_cards, created_at, updated_at`

// Create inserts a new game
func (r *GameRepository) Create(ctx context.Context, game *models.Game) error {
	cards, err := json.Marshal(game.PlayableCards)
	if err != nil {
		return fmt.Errorf("failed to encode playable cards: %w", err)
	}

	query := `
		INSERT INTO games (id, name, password_hash, playable_cards, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		game.ID, game.Name, nullString(game.PasswordHash), string(cards), game.CreatedAt, game.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

// GetByID retrieves a game by ID, returning nil when it does not exist
func (r *GameRepository) GetByID(ctx context.Context, id string) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = ?`
	game, err := scanGame(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

// List returns one page of games, newest first
func (r *GameRepository) List(ctx context.Context, offset, limit int) ([]models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	return r.queryGames(ctx, query, limit, offset)
}

// ListAll returns every game ordered by creation time
func (r *GameRepository) ListAll(ctx context.Context) ([]models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games ORDER BY created_at, id`
	return r.queryGames(ctx, query)
}

// Count returns the number of games
func (r *GameRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}
	return count, nil
}

// Exists reports whether a game with id exists
func (r *GameRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check game: %w", err)
	}
	return n > 0, nil
}

func (r *GameRepository) queryGames(ctx context.Context, query string, args ...interface{}) ([]models.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	games := []models.Game{}
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, *game)
	}
	return games, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanGame(row scanner) (*models.Game, error) {
	game := &models.Game{}
	var cards string
	if err := row.Scan(&game.ID, &game.Name, &game.PasswordHash, &cards, &game.CreatedAt, &game.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cards), &game.PlayableCards); err != nil {
		return nil, fmt.Errorf("failed to decode playable cards of game %s: %w", game.ID, err)
	}
	return game, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
