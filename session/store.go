// Package session holds the client's authentication state: which tokens are
// active and who the platform says the current user is. It is the single
// source of truth consumed by route gating and the CLI.
package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wanderinn/go-client/tokenstore"
)

// AuthAPI is the slice of the platform API the store needs: an identity
// fetch and a best-effort remote logout. Calls go through the authenticated
// gateway, so a stale access token heals transparently.
type AuthAPI interface {
	Me(ctx context.Context) (*User, error)
	Logout(ctx context.Context) error
}

// Store tracks the current session. Authenticated means both tokens were set
// via SetCredentials; the user is populated only after a successful identity
// fetch and never while unauthenticated.
type Store struct {
	tokens tokenstore.Repo
	api    AuthAPI

	mu            sync.RWMutex
	authenticated bool
	user          *User
	onReset       []func()
}

// NewStore creates a session store over the shared token repo. The store and
// the gateway must be given the same repo instance so neither can see tokens
// the other has already cleared.
func NewStore(tokens tokenstore.Repo, api AuthAPI) (*Store, error) {
	if tokens == nil {
		return nil, errors.New("[session.NewStore] token repo is required")
	}
	if api == nil {
		return nil, errors.New("[session.NewStore] auth API is required")
	}
	return &Store{tokens: tokens, api: api}, nil
}

// OnReset registers a hook run whenever the session is reset, e.g. to drop
// cached query results that belonged to the signed-out user.
func (s *Store) OnReset(hook func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReset = append(s.onReset, hook)
}

// Restore bootstraps the session from persisted tokens. If both tokens are
// present the store marks itself authenticated and fetches the identity; a
// failed identity fetch is fatal and resets the session, so callers never
// observe an authenticated session with an unknown user.
func (s *Store) Restore(ctx context.Context) error {
	creds, err := s.tokens.Load()
	if err != nil {
		if errors.Is(err, tokenstore.ErrNoCredentials) {
			return ErrNoStoredSession
		}
		return errors.Wrap(err, "[Store.Restore] tokens.Load")
	}

	if claims, err := tokenstore.ParseAccessClaims(creds.AccessToken); err == nil {
		log.Debug().
			Str("subject", claims.Subject).
			Time("expires_at", claims.ExpiresAt).
			Msg("restoring persisted session")
	}

	s.mu.Lock()
	s.authenticated = true
	s.mu.Unlock()

	user, err := s.api.Me(ctx)
	if err != nil {
		s.Reset()
		return errors.Wrap(err, "[Store.Restore] identity fetch")
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return nil
}

// SetCredentials stores and persists both tokens and marks the session
// authenticated. The user is left untouched; callers follow up with an
// identity fetch and SetUser.
func (s *Store) SetCredentials(access, refresh string) error {
	if access == "" || refresh == "" {
		return errors.New("[Store.SetCredentials] both tokens are required")
	}
	if err := s.tokens.Save(tokenstore.Credentials{AccessToken: access, RefreshToken: refresh}); err != nil {
		return errors.Wrap(err, "[Store.SetCredentials] tokens.Save")
	}

	s.mu.Lock()
	s.authenticated = true
	s.mu.Unlock()
	return nil
}

// SetUser records the fetched identity. It is an error to set a user on an
// unauthenticated session; route gating relies on that pairing.
func (s *Store) SetUser(user *User) error {
	if user == nil {
		return errors.New("[Store.SetUser] user is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated {
		return ErrNotAuthenticated
	}
	s.user = user
	return nil
}

// Reset clears the in-memory session, wipes persisted tokens and runs the
// registered reset hooks. It is idempotent.
func (s *Store) Reset() {
	s.mu.Lock()
	s.authenticated = false
	s.user = nil
	hooks := s.onReset
	s.mu.Unlock()

	if err := s.tokens.Clear(); err != nil {
		log.Error().Err(err).Msg("clearing persisted tokens")
	}
	for _, hook := range hooks {
		hook()
	}
}

// Logout tells the platform to invalidate the session, then resets local
// state regardless of the outcome. Being signed out locally must not depend
// on the backend being reachable.
func (s *Store) Logout(ctx context.Context) {
	if err := s.api.Logout(ctx); err != nil {
		log.Warn().Err(err).Msg("remote logout failed, clearing local session anyway")
	}
	s.Reset()
}

// IsAuthenticated reports whether credentials are set.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// CurrentUser returns the fetched identity, or nil before the identity fetch
// completes or after a reset.
func (s *Store) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Role returns the current user's role, or "" when no identity is known.
func (s *Store) Role() RoleType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Role
}
