package models

import "time"

// Invitation records a game invitation sent by email
type Invitation struct {
	ID          string    `json:"id"`
	GameID      string    `json:"gameId"`
	Email       string    `json:"email"`
	InvitedBy   string    `json:"invitedBy,omitempty"`
	InviterName string    `json:"inviterName,omitempty"` // Populated via JOIN
	CreatedAt   time.Time `json:"createdAt"`
}

// CanResend reports whether cooldown has passed since the invitation was sent
func (i *Invitation) CanResend(now time.Time, cooldown time.Duration) bool {
	return !now.Before(i.CreatedAt.Add(cooldown))
}
