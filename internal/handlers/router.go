package handlers

import "net/http"

// Handlers groups everything the router mounts
type Handlers struct {
	Middleware *Middleware
	Players    *PlayerHandler
	Games      *GameHandler
	Rounds     *RoundHandler
	WebSocket  http.Handler
}

// NewRouter registers every route on a fresh ServeMux
func NewRouter(h Handlers) *http.ServeMux {
	mw := h.Middleware
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+APIPrefix+"/info", Info)

	mux.HandleFunc("POST "+APIPrefix+"/players", mw.RateLimit(h.Players.CreatePlayer))
	mux.HandleFunc("GET "+APIPrefix+"/players/me", mw.RequirePlayer(h.Players.GetMe))
	mux.HandleFunc("PUT "+APIPrefix+"/players/me", mw.RequirePlayer(h.Players.UpdateMe))
	mux.HandleFunc("DELETE "+APIPrefix+"/players/me/session", h.Players.EndSession)

	mux.HandleFunc("GET "+APIPrefix+"/games", h.Games.ListGames)
	mux.HandleFunc("POST "+APIPrefix+"/games", mw.RateLimit(mw.OptionalPlayer(h.Games.CreateGame)))
	mux.HandleFunc("GET "+APIPrefix+"/games/{gameId}", h.Games.GetGame)
	mux.HandleFunc("GET "+APIPrefix+"/games/{gameId}/players", mw.RequirePlayer(h.Games.GetPlayers))
	mux.HandleFunc("POST "+APIPrefix+"/games/{gameId}/players", mw.RequirePlayer(h.Games.JoinGame))
	mux.HandleFunc("DELETE "+APIPrefix+"/games/{gameId}/players", mw.RequirePlayer(h.Games.LeaveGame))
	mux.HandleFunc("GET "+APIPrefix+"/games/{gameId}/invitations", mw.RequirePlayer(h.Games.ListInvitations))
	mux.HandleFunc("POST "+APIPrefix+"/games/{gameId}/invitations", mw.RequirePlayer(h.Games.Invite))

	mux.HandleFunc("GET "+APIPrefix+"/games/{gameId}/rounds", mw.RequirePlayer(h.Rounds.ListRounds))
	mux.HandleFunc("POST "+APIPrefix+"/games/{gameId}/rounds", mw.RequirePlayer(h.Rounds.StartRound))
	mux.HandleFunc("GET "+APIPrefix+"/games/{gameId}/rounds/current", mw.RequirePlayer(h.Rounds.CurrentRound))
	mux.HandleFunc("GET "+APIPrefix+"/games/{gameId}/rounds/{roundId}", mw.RequirePlayer(h.Rounds.GetRound))
	mux.HandleFunc("DELETE "+APIPrefix+"/games/{gameId}/rounds/{roundId}", mw.RequirePlayer(h.Rounds.EndRound))
	mux.HandleFunc("GET "+APIPrefix+"/games/{gameId}/rounds/{roundId}/votes", mw.RequirePlayer(h.Rounds.ListVotes))
	mux.HandleFunc("POST "+APIPrefix+"/games/{gameId}/rounds/{roundId}/votes", mw.RequirePlayer(h.Rounds.SubmitVote))
	mux.HandleFunc("DELETE "+APIPrefix+"/games/{gameId}/rounds/{roundId}/votes/mine", mw.RequirePlayer(h.Rounds.RevokeVote))

	if h.WebSocket != nil {
		mux.Handle("GET "+WebSocketPath, h.WebSocket)
	}

	return mux
}
