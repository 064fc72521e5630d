package session_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/wanderinn/go-client/session"
	"github.com/wanderinn/go-client/tokenstore"
	"github.com/wanderinn/go-client/tokenstore/repofake"
)

// fakeAuthAPI stands in for the platform's identity endpoints.
type fakeAuthAPI struct {
	user      *session.User
	meErr     error
	logoutErr error

	meCalls     int
	logoutCalls int
}

func (f *fakeAuthAPI) Me(ctx context.Context) (*session.User, error) {
	f.meCalls++
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.user, nil
}

func (f *fakeAuthAPI) Logout(ctx context.Context) error {
	f.logoutCalls++
	return f.logoutErr
}

func testUser() *session.User {
	return &session.User{
		ID:            "user-1",
		Email:         "jo@example.com",
		DisplayName:   "Jo",
		Role:          session.RoleUser,
		EmailVerified: true,
		Status:        session.StatusActive,
	}
}

func setupStore(t *testing.T, api *fakeAuthAPI) (*session.Store, *repofake.FakeTokenRepo) {
	t.Helper()
	tokens := repofake.NewFakeTokenRepo()
	store, err := session.NewStore(tokens, api)
	require.NoError(t, err)
	return store, tokens
}

func TestRestoreWithNoPersistedTokens(t *testing.T) {
	store, _ := setupStore(t, &fakeAuthAPI{})

	err := store.Restore(context.Background())
	require.ErrorIs(t, err, session.ErrNoStoredSession)
	require.False(t, store.IsAuthenticated())
	require.Nil(t, store.CurrentUser())
}

func TestRestorePopulatesIdentity(t *testing.T) {
	api := &fakeAuthAPI{user: testUser()}
	store, tokens := setupStore(t, api)
	require.NoError(t, tokens.Save(tokenstore.Credentials{AccessToken: "a", RefreshToken: "r"}))

	require.NoError(t, store.Restore(context.Background()))
	require.True(t, store.IsAuthenticated())
	require.Equal(t, session.RoleUser, store.Role())
	require.Equal(t, "jo@example.com", store.CurrentUser().Email)
	require.Equal(t, 1, api.meCalls)
}

func TestRestoreIdentityFailureResetsSession(t *testing.T) {
	api := &fakeAuthAPI{meErr: errors.New("backend down")}
	store, tokens := setupStore(t, api)
	require.NoError(t, tokens.Save(tokenstore.Credentials{AccessToken: "a", RefreshToken: "r"}))

	err := store.Restore(context.Background())
	require.Error(t, err)
	require.False(t, store.IsAuthenticated())
	require.Nil(t, store.CurrentUser())

	_, err = tokens.Load()
	require.ErrorIs(t, err, tokenstore.ErrNoCredentials)
}

func TestSetCredentialsPersistsAndAuthenticates(t *testing.T) {
	store, tokens := setupStore(t, &fakeAuthAPI{})

	require.NoError(t, store.SetCredentials("access", "refresh"))
	require.True(t, store.IsAuthenticated())
	require.Nil(t, store.CurrentUser())

	creds, err := tokens.Load()
	require.NoError(t, err)
	require.Equal(t, "access", creds.AccessToken)
	require.Equal(t, "refresh", creds.RefreshToken)
}

func TestSetCredentialsRejectsPartialPair(t *testing.T) {
	store, _ := setupStore(t, &fakeAuthAPI{})
	require.Error(t, store.SetCredentials("access", ""))
	require.False(t, store.IsAuthenticated())
}

func TestSetUserRequiresAuthentication(t *testing.T) {
	store, _ := setupStore(t, &fakeAuthAPI{})

	err := store.SetUser(testUser())
	require.ErrorIs(t, err, session.ErrNotAuthenticated)
	// The invariant the route guards rely on: no user without credentials.
	require.Nil(t, store.CurrentUser())

	require.NoError(t, store.SetCredentials("a", "r"))
	require.NoError(t, store.SetUser(testUser()))
	require.Equal(t, session.RoleUser, store.Role())
}

func TestResetClearsEverythingAndRunsHooks(t *testing.T) {
	api := &fakeAuthAPI{user: testUser()}
	store, tokens := setupStore(t, api)

	hookRuns := 0
	store.OnReset(func() { hookRuns++ })

	require.NoError(t, store.SetCredentials("a", "r"))
	require.NoError(t, store.SetUser(testUser()))

	store.Reset()
	require.False(t, store.IsAuthenticated())
	require.Nil(t, store.CurrentUser())
	require.Equal(t, session.RoleType(""), store.Role())
	require.Equal(t, 1, hookRuns)

	_, err := tokens.Load()
	require.ErrorIs(t, err, tokenstore.ErrNoCredentials)

	// Reset is idempotent.
	store.Reset()
	require.Equal(t, 2, hookRuns)
	require.False(t, store.IsAuthenticated())
}

func TestLogoutClearsSessionEvenWhenRemoteCallFails(t *testing.T) {
	api := &fakeAuthAPI{user: testUser(), logoutErr: errors.New("network unreachable")}
	store, tokens := setupStore(t, api)

	require.NoError(t, store.SetCredentials("a", "r"))
	require.NoError(t, store.SetUser(testUser()))

	store.Logout(context.Background())
	require.Equal(t, 1, api.logoutCalls)
	require.False(t, store.IsAuthenticated())
	require.Nil(t, store.CurrentUser())

	_, err := tokens.Load()
	require.ErrorIs(t, err, tokenstore.ErrNoCredentials)
}
