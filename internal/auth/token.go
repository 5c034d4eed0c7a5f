// Package auth issues and verifies the session tokens that identify players.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"planningpoker/internal/apperr"
)

const issuer = "planningpoker"

var ErrInvalidToken = apperr.Unauthorized("Invalid or expired session.")

type playerClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// TokenIssuer signs HS256 tokens whose subject is the player id
type TokenIssuer struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

// NewTokenIssuer creates an issuer. duration is the lifetime of issued tokens.
func NewTokenIssuer(secret string, duration time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(secret),
		duration: duration,
		now:      time.Now,
	}
}

// Duration returns the lifetime of issued tokens
func (ti *TokenIssuer) Duration() time.Duration {
	return ti.duration
}

// Issue returns a signed token for the player and its expiry time
func (ti *TokenIssuer) Issue(playerID, name string) (string, time.Time, error) {
	if playerID == "" {
		return "", time.Time{}, errors.New("player id is required")
	}
	now := ti.now()
	expiresAt := now.Add(ti.duration)
	claims := playerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name: name,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies a token and returns the player id it was issued for
func (ti *TokenIssuer) Parse(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}

	var claims playerClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
