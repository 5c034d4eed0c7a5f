package handlers

import (
	"net/http"
	"time"

	"planningpoker/internal/auth"
	"planningpoker/internal/models"
	"planningpoker/internal/security"
	"planningpoker/internal/service"
)

// PlayerHandler serves player sessions and profiles
type PlayerHandler struct {
	players *service.PlayerService
	tokens  *auth.TokenIssuer
	csrf    *security.CSRFGenerator
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(players *service.PlayerService, tokens *auth.TokenIssuer, csrf *security.CSRFGenerator) *PlayerHandler {
	return &PlayerHandler{
		players: players,
		tokens:  tokens,
		csrf:    csrf,
	}
}

type playerRequest struct {
	Name string `json:"name"`
}

// sessionResponse is returned when a player session is created
type sessionResponse struct {
	Player    *models.Player `json:"player"`
	Token     string         `json:"token"`
	CSRFToken string         `json:"csrfToken"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// CreatePlayer registers an anonymous player and starts their session
func (h *PlayerHandler) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	player, err := h.players.CreatePlayer(r.Context(), req.Name)
	if err != nil {
		respondWithServiceError(w, "Failed to create player", err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(player.ID, player.Name)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to issue session token", err)
		return
	}
	csrfToken, err := h.csrf.GenerateToken(player.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to generate CSRF token", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, token, expiresAt))
	respondJSON(w, http.StatusCreated, sessionResponse{
		Player:    player,
		Token:     token,
		CSRFToken: csrfToken,
		ExpiresAt: expiresAt,
	})
}

// GetMe returns the calling player
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	player, err := h.players.GetPlayer(r.Context(), PlayerIDFromContext(r.Context()))
	if err != nil {
		respondWithServiceError(w, "Failed to load player", err)
		return
	}
	respondJSON(w, http.StatusOK, player)
}

// UpdateMe renames the calling player
func (h *PlayerHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	player, err := h.players.UpdatePlayer(r.Context(), PlayerIDFromContext(r.Context()), req.Name)
	if err != nil {
		respondWithServiceError(w, "Failed to update player", err)
		return
	}
	respondJSON(w, http.StatusOK, player)
}

// EndSession clears the session cookie
func (h *PlayerHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, security.CreateDeleteCookie(r))
	w.WriteHeader(http.StatusNoContent)
}
