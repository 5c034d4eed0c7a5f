package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"planningpoker/internal/apperr"
	"planningpoker/internal/database"
	"planningpoker/internal/models"
	"planningpoker/internal/repository"
	"planningpoker/internal/validation"
)

// InvitationCooldown is the minimum time between two invitations of the same
// address to the same game
const InvitationCooldown = 10 * time.Minute

// Mailer sends game invitations. *EmailService implements it.
type Mailer interface {
	SendGameInvitation(ctx context.Context, toEmail, inviterName, gameName, joinLink string) error
	JoinLink(gameID string) string
}

// InvitationService lets members invite others to a game by email
type InvitationService struct {
	games       *repository.GameRepository
	players     *repository.PlayerRepository
	invitations *repository.InvitationRepository
	mailer      Mailer
	now         Clock
}

// NewInvitationService creates a new invitation service
func NewInvitationService(db *database.DB, mailer Mailer) *InvitationService {
	return &InvitationService{
		games:       repository.NewGameRepository(db),
		players:     repository.NewPlayerRepository(db),
		invitations: repository.NewInvitationRepository(db),
		mailer:      mailer,
		now:         utcNow,
	}
}

// InviteByEmail sends a join link for the game to email and records the
// invitation. Only members may invite.
func (s *InvitationService) InviteByEmail(ctx context.Context, callerID, gameID, email string) (*models.Invitation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperr.BadRequest("%s", err.Error())
	}

	game, err := requireGame(ctx, s.games, gameID)
	if err != nil {
		return nil, err
	}
	inviter, err := requirePlayer(ctx, s.players, callerID)
	if err != nil {
		return nil, err
	}
	if !inviter.IsInGame(gameID) {
		return nil, notMember(callerID, gameID)
	}

	now := s.now()
	previous, err := s.invitations.Latest(ctx, gameID, email)
	if err != nil {
		return nil, err
	}
	if previous != nil && !previous.CanResend(now, InvitationCooldown) {
		return nil, apperr.Conflict("'%s' was already invited to game '%s' recently.", email, gameID)
	}

	err = s.mailer.SendGameInvitation(ctx, email, inviter.Name, game.Name, s.mailer.JoinLink(gameID))
	if errors.Is(err, ErrEmailDisabled) {
		return nil, apperr.BadRequest("Email invitations are not configured on this server.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to send invitation: %w", err)
	}

	invitation := &models.Invitation{
		ID:          uuid.NewString(),
		GameID:      gameID,
		Email:       email,
		InvitedBy:   callerID,
		InviterName: inviter.Name,
		CreatedAt:   now,
	}
	if err := s.invitations.Create(ctx, invitation); err != nil {
		return nil, err
	}

	log.Printf("Player %s invited %s to game %s", callerID, email, gameID)
	return invitation, nil
}

// ListInvitations returns the invitations sent for a game, newest first
func (s *InvitationService) ListInvitations(ctx context.Context, callerID, gameID string) ([]models.Invitation, error) {
	if _, err := requireGame(ctx, s.games, gameID); err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.players, callerID, gameID); err != nil {
		return nil, err
	}
	return s.invitations.ListByGame(ctx, gameID)
}
