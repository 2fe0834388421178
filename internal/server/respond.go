package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/tunesmith/internal/shared"
)

const (
	msgUnexpected        = "An unexpected error occurred."
	msgPromptRequired    = "Prompt is required."
	msgGeminiUnavailable = "Gemini API key not configured."
	msgSpotifyUnset      = "Spotify client not configured."
	msgTracksRequired    = "At least one track is required."
	msgInvalidBody       = "Request body must be JSON."
	msgInvalidTrack      = "Every track needs a song name."
)

// jsonResponse is a helper to send JSON responses
func jsonResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// jsonError is a helper to send JSON error responses
func jsonError(w http.ResponseWriter, message string, statusCode int) {
	jsonResponse(w, statusCode, map[string]string{"error": message})
}

// decodeJSON decodes a request body of at most 1MB into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}

// errorStatus maps a service error to an HTTP status.
func errorStatus(err error) int {
	var upstream *shared.UpstreamRequestError
	switch {
	case shared.IsAuthError(err):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrNoMatchesFound):
		return http.StatusUnprocessableEntity
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
