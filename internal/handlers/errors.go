package handlers

import (
	"errors"
	"log"
	"net/http"

	"planningpoker/internal/apperr"
)

// errorResponse is the body of every non-2xx JSON response
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, errorResponse{Error: http.StatusText(status), Message: userMsg})
}

// respondWithServiceError writes the status matching an apperr kind.
// Anything else is logged and hidden behind a 500.
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		respondWithError(w, statusForKind(appErr.Kind), appErr.Message, "", nil)
		return
	}
	respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindBadRequest:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
