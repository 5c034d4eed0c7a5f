// Package validation checks user input before it reaches the services.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const (
	MaxNameLength        = 100
	MinGamePasswordChars = 4
	MaxPlayableCards     = 100
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateGamePassword checks an optional game password. Empty means no password.
func ValidateGamePassword(password string) error {
	if password == "" {
		return nil
	}
	if utf8.RuneCountInString(password) < MinGamePasswordChars {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinGamePasswordChars)}
	}
	return nil
}

// ValidateName checks a player or game name
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ValidationError{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", MaxNameLength)}
	}
	return nil
}

// ValidateCardCount limits the number of playable cards of a game
func ValidateCardCount(n int) error {
	if n > MaxPlayableCards {
		return ValidationError{Field: "playableCards", Message: fmt.Sprintf("at most %d playable cards are allowed", MaxPlayableCards)}
	}
	return nil
}
