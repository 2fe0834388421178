package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrUpstreamConfig     = fmt.Errorf("upstream credential not configured")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrUpstreamRequest    = fmt.Errorf("upstream request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Generation errors
	ErrGenerationEmpty  = fmt.Errorf("AI did not return any text content")
	ErrGenerationFormat = fmt.Errorf("AI did not return a valid JSON array")

	// Synthesis errors
	ErrNoMatchesFound   = fmt.Errorf("no generated songs matched")
	ErrPlaylistCreate   = fmt.Errorf("playlist creation failed")
	ErrPlaylistPopulate = fmt.Errorf("adding tracks to playlist failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// UpstreamRequestError is returned when an external API answers with a non-success status.
//
// It unwraps to [ErrUpstreamRequest].
type UpstreamRequestError struct {
	Service    string // "spotify" or "gemini"
	Path       string // endpoint path without host or credentials
	StatusCode int
	Message    string // upstream error message, verbatim when present
}

func (e *UpstreamRequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s request to %s failed with status %d", e.Service, e.Path, e.StatusCode)
}

func (e *UpstreamRequestError) Unwrap() error {
	return ErrUpstreamRequest
}

// IsAuthError reports whether err means the held credential is unusable and the user has to sign in again.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrNotAuthenticated)
}
