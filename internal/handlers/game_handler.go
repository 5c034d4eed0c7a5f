package handlers

import (
	"net/http"
	"strconv"

	"planningpoker/internal/apperr"
	"planningpoker/internal/models"
	"planningpoker/internal/service"
)

// GameHandler serves games, their rosters and invitations
type GameHandler struct {
	games       *service.GameService
	players     *service.PlayerService
	invitations *service.InvitationService
}

// NewGameHandler creates a new game handler
func NewGameHandler(games *service.GameService, players *service.PlayerService, invitations *service.InvitationService) *GameHandler {
	return &GameHandler{
		games:       games,
		players:     players,
		invitations: invitations,
	}
}

type createGameRequest struct {
	Name          string        `json:"name"`
	Password      string        `json:"password"`
	PlayableCards []models.Card `json:"playableCards"`
}

type joinGameRequest struct {
	Password string `json:"password"`
}

type inviteRequest struct {
	Email string `json:"email"`
}

// ListGames returns one page of games, newest first
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultPageSize)
	if err != nil {
		respondWithServiceError(w, "", err)
		return
	}

	result, err := h.games.ListGames(r.Context(), page, limit)
	if err != nil {
		respondWithServiceError(w, "Failed to list games", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// CreateGame creates a game. A caller with a session joins it right away.
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	game, err := h.games.CreateGame(r.Context(), PlayerIDFromContext(r.Context()), req.Name, req.Password, req.PlayableCards)
	if err != nil {
		respondWithServiceError(w, "Failed to create game", err)
		return
	}
	respondJSON(w, http.StatusCreated, game)
}

func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.games.GetGame(r.Context(), r.PathValue("gameId"))
	if err != nil {
		respondWithServiceError(w, "Failed to load game", err)
		return
	}
	respondJSON(w, http.StatusOK, game)
}

// GetPlayers lists the members of a game
func (h *GameHandler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.players.GetPlayersInGame(r.Context(), PlayerIDFromContext(r.Context()), r.PathValue("gameId"))
	if err != nil {
		respondWithServiceError(w, "Failed to list players", err)
		return
	}
	respondJSON(w, http.StatusOK, players)
}

// JoinGame adds the caller to a game, checking the game password
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	var req joinGameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	player, err := h.players.JoinGame(r.Context(), PlayerIDFromContext(r.Context()), r.PathValue("gameId"), req.Password)
	if err != nil {
		respondWithServiceError(w, "Failed to join game", err)
		return
	}
	respondJSON(w, http.StatusOK, player)
}

func (h *GameHandler) LeaveGame(w http.ResponseWriter, r *http.Request) {
	player, err := h.players.LeaveGame(r.Context(), PlayerIDFromContext(r.Context()), r.PathValue("gameId"))
	if err != nil {
		respondWithServiceError(w, "Failed to leave game", err)
		return
	}
	respondJSON(w, http.StatusOK, player)
}

// Invite emails a join link for the game
func (h *GameHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	invitation, err := h.invitations.InviteByEmail(r.Context(), PlayerIDFromContext(r.Context()), r.PathValue("gameId"), req.Email)
	if err != nil {
		respondWithServiceError(w, "Failed to send invitation", err)
		return
	}
	respondJSON(w, http.StatusCreated, invitation)
}

// ListInvitations returns the invitations sent for the game
func (h *GameHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.invitations.ListInvitations(r.Context(), PlayerIDFromContext(r.Context()), r.PathValue("gameId"))
	if err != nil {
		respondWithServiceError(w, "Failed to list invitations", err)
		return
	}
	respondJSON(w, http.StatusOK, invitations)
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.BadRequest("Query parameter '%s' must be an integer.", name)
	}
	return value, nil
}
