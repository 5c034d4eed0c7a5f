package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"planningpoker/internal/auth"
	"planningpoker/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const PlayerIDContextKey ContextKey = "playerID"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens  *auth.TokenIssuer
	csrf    *security.CSRFGenerator
	limiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *auth.TokenIssuer, csrf *security.CSRFGenerator, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		tokens:  tokens,
		csrf:    csrf,
		limiter: limiter,
	}
}

// RequirePlayer is middleware that requires a valid player session
func (m *Middleware) RequirePlayer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, fromCookie := security.TokenFromRequest(r)
		if token == "" {
			respondWithError(w, http.StatusUnauthorized, ErrNoSession, "", nil)
			return
		}
		m.serveWithPlayer(w, r, token, fromCookie, next)
	}
}

// OptionalPlayer resolves the player session when one is presented and lets
// anonymous requests through. A presented but invalid session is still rejected.
func (m *Middleware) OptionalPlayer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, fromCookie := security.TokenFromRequest(r)
		if token == "" {
			next(w, r)
			return
		}
		m.serveWithPlayer(w, r, token, fromCookie, next)
	}
}

func (m *Middleware) serveWithPlayer(w http.ResponseWriter, r *http.Request, token string, fromCookie bool, next http.HandlerFunc) {
	playerID, err := m.tokens.Parse(token)
	if err != nil {
		if fromCookie {
			http.SetCookie(w, security.CreateDeleteCookie(r))
		}
		respondWithServiceError(w, "Failed to parse session token", err)
		return
	}

	// Cookie sessions must echo the CSRF token on writes
	if fromCookie && !security.IsSafeMethod(r.Method) {
		if !m.csrf.ValidateToken(playerID, r.Header.Get(security.CSRFHeader)) {
			respondWithError(w, http.StatusForbidden, ErrInvalidCSRFToken, "", nil)
			return
		}
	}

	ctx := context.WithValue(r.Context(), PlayerIDContextKey, playerID)
	next(w, r.WithContext(ctx))
}

// RateLimit applies the per-IP rate limiter
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return m.limiter.Limit(next)
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// CORS allows cross-origin requests from allowedOrigin. An empty
// allowedOrigin reflects the request origin.
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowedOrigin == "" || origin == allowedOrigin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+security.CSRFHeader)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PlayerIDFromContext returns the authenticated player id, or "" for anonymous requests
func PlayerIDFromContext(ctx context.Context) string {
	playerID, _ := ctx.Value(PlayerIDContextKey).(string)
	return playerID
}
