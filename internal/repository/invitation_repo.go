package repository

import (
	"context"
	"database/sql"
	"fmt"

	"planningpoker/internal/database"
	"planningpoker/internal/models"
)

// InvitationRepository stores the email invitations sent for games
type InvitationRepository struct {
	db database.DBTX
}

func NewInvitationRepository(db database.DBTX) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// Create records a sent invitation
func (r *InvitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	query := `INSERT INTO game_invitations (id, game_id, email, invited_by, created_at) VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, inv.ID, inv.GameID, inv.Email, nullString(inv.InvitedBy), inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// Latest returns the most recent invitation of email to the game, or nil
func (r *InvitationRepository) Latest(ctx context.Context, gameID, email string) (*models.Invitation, error) {
	query := `
		SELECT i.id, i.game_id, i.email, i.invited_by, i.created_at, COALESCE(p.name, '')
		FROM game_invitations i
		LEFT JOIN players p ON i.invited_by = p.id
		WHERE i.game_id = ? AND i.email = ?
		ORDER BY i.created_at DESC
		LIMIT 1
	`
	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, gameID, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return inv, nil
}

// ListByGame returns the invitations of a game, newest first
func (r *InvitationRepository) ListByGame(ctx context.Context, gameID string) ([]models.Invitation, error) {
	query := `
		SELECT i.id, i.game_id, i.email, i.invited_by, i.created_at, COALESCE(p.name, '')
		FROM game_invitations i
		LEFT JOIN players p ON i.invited_by = p.id
		WHERE i.game_id = ?
		ORDER BY i.created_at DESC, i.id
	`
	rows, err := r.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	invitations := []models.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, *inv)
	}
	return invitations, rows.Err()
}

func scanInvitation(row scanner) (*models.Invitation, error) {
	var inv models.Invitation
	var invitedBy sql.NullString
	if err := row.Scan(&inv.ID, &inv.GameID, &inv.Email, &invitedBy, &inv.CreatedAt, &inv.InviterName); err != nil {
		return nil, err
	}
	inv.InvitedBy = invitedBy.String
	return &inv, nil
}
