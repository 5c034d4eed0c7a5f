package handlers

import (
	"context"
	"net/http"

	"planningpoker/internal/apperr"
	"planningpoker/internal/models"
	"planningpoker/internal/service"
)

// RoundHandler serves rounds and the votes cast in them
type RoundHandler struct {
	rounds *service.RoundService
	votes  *service.VoteService
}

// NewRoundHandler creates a new round handler
func NewRoundHandler(rounds *service.RoundService, votes *service.VoteService) *RoundHandler {
	return &RoundHandler{
		rounds: rounds,
		votes:  votes,
	}
}

type startRoundRequest struct {
	Topic string `json:"topic"`
}

type voteRequest struct {
	Value *int `json:"value"`
}

func (h *RoundHandler) ListRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.rounds.GetRounds(r.Context(), PlayerIDFromContext(r.Context()), r.PathValue("gameId"))
	if err != nil {
		respondWithServiceError(w, "Failed to list rounds", err)
		return
	}
	respondJSON(w, http.StatusOK, rounds)
}

// StartRound opens a new round in the game
func (h *RoundHandler) StartRound(w http.ResponseWriter, r *http.Request) {
	var req startRoundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	round, err := h.rounds.StartRound(r.Context(), PlayerIDFromContext(r.Context()), r.PathValue("gameId"), req.Topic)
	if err != nil {
		respondWithServiceError(w, "Failed to start round", err)
		return
	}
	respondJSON(w, http.StatusCreated, round)
}

func (h *RoundHandler) CurrentRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.rounds.GetCurrentRound(r.Context(), PlayerIDFromContext(r.Context()), r.PathValue("gameId"))
	if err != nil {
		respondWithServiceError(w, "Failed to load current round", err)
		return
	}
	respondJSON(w, http.StatusOK, round)
}

func (h *RoundHandler) GetRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.roundInGame(r.Context(), r)
	if err != nil {
		respondWithServiceError(w, "Failed to load round", err)
		return
	}
	respondJSON(w, http.StatusOK, round)
}

// EndRound closes the round and returns it with its result
func (h *RoundHandler) EndRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.rounds.EndRound(r.Context(), PlayerIDFromContext(r.Context()), r.PathValue("gameId"), r.PathValue("roundId"))
	if err != nil {
		respondWithServiceError(w, "Failed to end round", err)
		return
	}
	respondJSON(w, http.StatusOK, round)
}

func (h *RoundHandler) ListVotes(w http.ResponseWriter, r *http.Request) {
	round, err := h.roundInGame(r.Context(), r)
	if err != nil {
		respondWithServiceError(w, "Failed to load round", err)
		return
	}

	votes, err := h.votes.ListVotes(r.Context(), PlayerIDFromContext(r.Context()), round.ID)
	if err != nil {
		respondWithServiceError(w, "Failed to list votes", err)
		return
	}
	respondJSON(w, http.StatusOK, votes)
}

// SubmitVote records the caller's card, replacing an earlier vote
func (h *RoundHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	if req.Value == nil {
		respondWithError(w, http.StatusBadRequest, "Card value is required.", "", nil)
		return
	}

	round, err := h.roundInGame(r.Context(), r)
	if err != nil {
		respondWithServiceError(w, "Failed to load round", err)
		return
	}

	vote, err := h.votes.SubmitVote(r.Context(), PlayerIDFromContext(r.Context()), round.ID, models.Card{Value: *req.Value})
	if err != nil {
		respondWithServiceError(w, "Failed to submit vote", err)
		return
	}
	respondJSON(w, http.StatusOK, vote)
}

// RevokeVote withdraws the caller's vote. Revoking twice is not an error.
func (h *RoundHandler) RevokeVote(w http.ResponseWriter, r *http.Request) {
	round, err := h.roundInGame(r.Context(), r)
	if err != nil {
		respondWithServiceError(w, "Failed to load round", err)
		return
	}

	if err := h.votes.RevokeVote(r.Context(), PlayerIDFromContext(r.Context()), round.ID); err != nil {
		respondWithServiceError(w, "Failed to revoke vote", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// roundInGame loads the round named in the path and checks it belongs to the path's game
func (h *RoundHandler) roundInGame(ctx context.Context, r *http.Request) (*models.Round, error) {
	roundID := r.PathValue("roundId")
	round, err := h.rounds.GetRound(ctx, PlayerIDFromContext(ctx), roundID)
	if err != nil {
		return nil, err
	}
	if round.GameID != r.PathValue("gameId") {
		return nil, apperr.NotFound("Round with ID '%s' does not exist.", roundID)
	}
	return round, nil
}
