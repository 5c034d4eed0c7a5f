package models

import "time"

// Round is one voting cycle within a game. A round is open until EndedAt is set.
type Round struct {
	ID        string       `json:"id"`
	GameID    string       `json:"gameId"`
	Topic     string       `json:"topic,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	EndedAt   *time.Time   `json:"endedAt,omitempty"`
	EndedBy   string       `json:"endedBy,omitempty"`
	Result    *RoundResult `json:"result,omitempty"`
}

// IsFinished reports whether the round has been closed
func (r *Round) IsFinished() bool {
	return r.EndedAt != nil
}

// Vote is a player's card for a round
type Vote struct {
	RoundID    string    `json:"roundId"`
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName,omitempty"`
	Card       Card      `json:"card"`
	CreatedAt  time.Time `json:"createdAt"`
}

// RoundResult is the frozen statistics of a closed round.
// Nullable fields are nil when the round received no votes.
type RoundResult struct {
	Votes         []Vote   `json:"votes"`
	MinVoteValue  *int     `json:"minVoteValue"`
	MaxVoteValue  *int     `json:"maxVoteValue"`
	MinVotes      []Vote   `json:"minVotes"`
	MaxVotes      []Vote   `json:"maxVotes"`
	AverageVote   *float64 `json:"averageVote"`
	Variance      *float64 `json:"variance"` // population standard deviation
	SuggestedCard *Card    `json:"suggestedCard"`
}
