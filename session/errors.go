package session

import "github.com/pkg/errors"

var (
	// ErrNotAuthenticated is returned when an operation requires stored
	// credentials and none are set.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoStoredSession is returned by Restore when no credentials were
	// persisted from a previous run.
	ErrNoStoredSession = errors.New("no stored session")
)
