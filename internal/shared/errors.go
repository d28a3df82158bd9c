package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors. 401/403-class responses are hard failures and
	// are never retried by the gateway.
	ErrAuthRequired = fmt.Errorf("authentication required")

	// Transport errors
	ErrThrottled          = fmt.Errorf("request throttled")
	ErrQuotaExceeded      = fmt.Errorf("daily quota exceeded")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Domain errors
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrTrackNotFound    = fmt.Errorf("track not found")
	ErrEmptyPlaylist    = fmt.Errorf("playlist has no tracks")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
