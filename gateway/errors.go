package gateway

import "github.com/pkg/errors"

var (
	// ErrNoRefreshToken is returned when a refresh cycle starts but no
	// refresh token is stored.
	ErrNoRefreshToken = errors.New("no refresh token stored")

	// ErrSessionExpired wraps every refresh failure. Callers that were
	// queued behind the failed refresh observe this same error class.
	ErrSessionExpired = errors.New("session expired")
)
