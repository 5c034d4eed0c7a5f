package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"planningpoker/internal/database"
	"planningpoker/internal/models"
)

// PlayerRepository handles database operations for players and their game memberships
type PlayerRepository struct {
	db database.DBTX
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db database.DBTX) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *PlayerRepository) WithTx(tx *database.Tx) *PlayerRepository {
	return &PlayerRepository{db: tx}
}

// Create inserts a new player
func (r *PlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `INSERT INTO players (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, player.ID, player.Name, player.CreatedAt, player.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

// GetByID retrieves a player with its joined games, returning nil when it does not exist
func (r *PlayerRepository) GetByID(ctx context.Context, id string) (*models.Player, error) {
	query := `SELECT id, name, created_at, updated_at FROM players WHERE id = ?`
	player := &models.Player{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&player.ID, &player.Name, &player.CreatedAt, &player.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	gameIDs, err := r.GameIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	player.GameIDs = gameIDs
	return player, nil
}

// UpdateName renames a player
func (r *PlayerRepository) UpdateName(ctx context.Context, id, name string, updatedAt time.Time) error {
	query := `UPDATE players SET name = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, name, updatedAt, id); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}
	return nil
}

// GameIDs returns the ids of the games the player joined, in join order
func (r *PlayerRepository) GameIDs(ctx context.Context, playerID string) ([]string, error) {
	query := `SELECT game_id FROM player_games WHERE player_id = ? ORDER BY joined_at, game_id`
	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list player games: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan game id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IsMember reports whether the player joined the game
func (r *PlayerRepository) IsMember(ctx context.Context, playerID, gameID string) (bool, error) {
	var n int
	query := `SELECT COUNT(*) FROM player_games WHERE player_id = ? AND game_id = ?`
	if err := r.db.QueryRowContext(ctx, query, playerID, gameID).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return n > 0, nil
}

// AddToGame records that the player joined the game.
// It reports false when the player already was a member.
func (r *PlayerRepository) AddToGame(ctx context.Context, playerID, gameID string, joinedAt time.Time) (bool, error) {
	member, err := r.IsMember(ctx, playerID, gameID)
	if err != nil {
		return false, err
	}
	if member {
		return false, nil
	}

	query := `INSERT INTO player_games (player_id, game_id, joined_at) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, playerID, gameID, joinedAt); err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to join game: %w", err)
	}
	return true, nil
}

// RemoveFromGame deletes the membership. It reports false when there was none.
func (r *PlayerRepository) RemoveFromGame(ctx context.Context, playerID, gameID string) (bool, error) {
	query := `DELETE FROM player_games WHERE player_id = ? AND game_id = ?`
	result, err := r.db.ExecContext(ctx, query, playerID, gameID)
	if err != nil {
		return false, fmt.Errorf("failed to leave game: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to leave game: %w", err)
	}
	return n > 0, nil
}

// ListByGame returns the members of a game in join order
func (r *PlayerRepository) ListByGame(ctx context.Context, gameID string) ([]models.Player, error) {
	query := `
		SELECT p.id, p.name, p.created_at, p.updated_at
		FROM players p
		JOIN player_games pg ON pg.player_id = p.id
		WHERE pg.game_id = ?
		ORDER BY pg.joined_at, p.id
	`
	players, err := r.queryPlayers(ctx, query, gameID)
	if err != nil {
		return nil, err
	}
	for i := range players {
		ids, err := r.GameIDs(ctx, players[i].ID)
		if err != nil {
			return nil, err
		}
		players[i].GameIDs = ids
	}
	return players, nil
}

// ListAll returns every player with its memberships
func (r *PlayerRepository) ListAll(ctx context.Context) ([]models.Player, error) {
	players, err := r.queryPlayers(ctx, `SELECT id, name, created_at, updated_at FROM players ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	for i := range players {
		ids, err := r.GameIDs(ctx, players[i].ID)
		if err != nil {
			return nil, err
		}
		players[i].GameIDs = ids
	}
	return players, nil
}

func (r *PlayerRepository) queryPlayers(ctx context.Context, query string, args ...interface{}) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	players := []models.Player{}
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return players, nil
}

// Membership is one row of the player to game relation
type Membership struct {
	PlayerID string    `json:"player_id"`
	GameID   string    `json:"game_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// ListMemberships returns every membership in join order
func (r *PlayerRepository) ListMemberships(ctx context.Context) ([]Membership, error) {
	query := `SELECT player_id, game_id, joined_at FROM player_games ORDER BY joined_at, player_id, game_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	memberships := []Membership{}
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.PlayerID, &m.GameID, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}
