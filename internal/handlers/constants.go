package handlers

const (
	APIPrefix     = "/api/v1"
	WebSocketPath = "/ws"

	// maxBodyBytes caps JSON request bodies
	maxBodyBytes = 1 << 20

	ErrInvalidJSON         = "Request body must be valid JSON."
	ErrNoSession           = "No player session."
	ErrInvalidCSRFToken    = "Invalid CSRF token."
	ErrInternalServerError = "Internal server error"
)
