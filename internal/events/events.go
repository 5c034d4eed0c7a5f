// Package events describes the notifications pushed to game rooms after a
// state change has been committed.
package events

import (
	"context"
	"log"
	"sync"

	"planningpoker/internal/models"
)

// Event names sent to clients
const (
	GameEntered   = "gameEntered"
	PlayerJoined  = "playerJoined"
	PlayerLeft    = "playerLeft"
	RoundStarted  = "roundStarted"
	RoundEnded    = "roundEnded"
	VoteSubmitted = "voteSubmitted"
	VoteRevoked   = "voteRevoked"
	Error         = "error"
)

// Commands received from clients
const (
	EnterGame = "enterGame"
	LeaveGame = "leaveGame"
)

// RoomPrefix prefixes the game id to form the room a game's events go to
const RoomPrefix = "games/"

// RoomID returns the room name for a game
func RoomID(gameID string) string {
	return RoomPrefix + gameID
}

// Event is a tagged union: Name decides which payload field is set
type Event struct {
	Name    string         `json:"event"`
	GameID  string         `json:"gameId,omitempty"`
	RoomID  string         `json:"roomId,omitempty"`
	Player  *models.Player `json:"player,omitempty"`
	Round   *models.Round  `json:"round,omitempty"`
	Vote    *models.Vote   `json:"vote,omitempty"`
	Message string         `json:"message,omitempty"`
}

func NewPlayerJoined(gameID string, player *models.Player) Event {
	return Event{Name: PlayerJoined, GameID: gameID, Player: player}
}

func NewPlayerLeft(gameID string, player *models.Player) Event {
	return Event{Name: PlayerLeft, GameID: gameID, Player: player}
}

func NewRoundStarted(round *models.Round) Event {
	return Event{Name: RoundStarted, GameID: round.GameID, Round: round}
}

func NewRoundEnded(round *models.Round) Event {
	return Event{Name: RoundEnded, GameID: round.GameID, Round: round}
}

func NewVoteSubmitted(gameID string, vote *models.Vote) Event {
	return Event{Name: VoteSubmitted, GameID: gameID, Vote: vote}
}

func NewVoteRevoked(gameID string, vote *models.Vote) Event {
	return Event{Name: VoteRevoked, GameID: gameID, Vote: vote}
}

func NewGameEntered(gameID string) Event {
	return Event{Name: GameEntered, GameID: gameID, RoomID: RoomID(gameID)}
}

func NewError(message string) Event {
	return Event{Name: Error, Message: message}
}

// Sink receives events for a game's room. Emit is fire-and-forget: an error
// is reported to the caller for logging but never undoes the change.
type Sink interface {
	Emit(ctx context.Context, gameID string, event Event) error
}

// Publish emits event and logs a failure instead of returning it
func Publish(ctx context.Context, sink Sink, gameID string, event Event) {
	if sink == nil {
		return
	}
	if err := sink.Emit(ctx, gameID, event); err != nil {
		log.Printf("Failed to emit %s for game %s: %v", event.Name, gameID, err)
	}
}

// Nop discards every event
type Nop struct{}

func (Nop) Emit(context.Context, string, Event) error { return nil }

// Recorder keeps emitted events in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, gameID string, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.GameID == "" {
		event.GameID = gameID
	}
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything recorded so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the names of the recorded events in emission order
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name
	}
	return names
}

// Multi fans an event out to several sinks and returns the first error
type Multi []Sink

func (m Multi) Emit(ctx context.Context, gameID string, event Event) error {
	var firstErr error
	for _, s := range m {
		if err := s.Emit(ctx, gameID, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
