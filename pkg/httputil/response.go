package httputil

import (
	"encoding/json"
	"net/http"

	"supportline-backend/internal/models"
)

// RespondJSON writes a JSON response with the given status code and payload.
func RespondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// The header is already written; an encode failure here is unrecoverable.
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondError writes a JSON error response with the given status code and
// message.
func RespondError(w http.ResponseWriter, statusCode int, message string) {
	RespondJSON(w, statusCode, models.ErrorResponse{Error: message})
}
