package handlers

import "net/http"

// infoResponse tells clients where to find the real-time endpoint
type infoResponse struct {
	Name          string `json:"name"`
	APIPrefix     string `json:"apiPrefix"`
	WebSocketPath string `json:"webSocketPath"`
}

func Info(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, infoResponse{
		Name:          "planningpoker",
		APIPrefix:     APIPrefix,
		WebSocketPath: WebSocketPath,
	})
}
