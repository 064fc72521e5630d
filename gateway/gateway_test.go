package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/wanderinn/go-client/tokenstore"
	"github.com/wanderinn/go-client/tokenstore/repofake"
)

const (
	staleAccess  = "stale-access-token"
	freshAccess  = "fresh-access-token"
	refreshToken = "refresh-token-1"
)

// backend is a fake API that treats staleAccess as expired and freshAccess
// as valid. Refresh behaviour is pluggable per test.
type backend struct {
	t *testing.T

	refreshCalls   atomic.Int64
	refreshStatus  int        // refresh endpoint HTTP status (default 200)
	refreshRelease chan error // when set, refresh blocks until a value arrives
	rotateRefresh  string     // when set, refresh responds with a rotated refresh token
	deny401        string     // path that 401s regardless of token

	mu          sync.Mutex
	unauthSeen  int      // 401s served for staleAccess
	servedOrder []string // paths served with freshAccess, in order
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		if b.refreshRelease != nil {
			if err := <-b.refreshRelease; err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		}
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(b.t, refreshToken, req.RefreshToken)

		status := b.refreshStatus
		if status == 0 {
			status = http.StatusOK
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := map[string]any{
			"success": true,
			"data": map[string]string{
				"accessToken":  freshAccess,
				"refreshToken": b.rotateRefresh,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(b.t, json.NewEncoder(w).Encode(resp))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if b.deny401 != "" && r.URL.Path == b.deny401 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		auth := r.Header.Get("Authorization")
		switch auth {
		case "Bearer " + freshAccess:
			b.mu.Lock()
			b.servedOrder = append(b.servedOrder, r.URL.Path)
			b.mu.Unlock()
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{"success":true}`)
		default:
			b.mu.Lock()
			if auth == "Bearer "+staleAccess {
				b.unauthSeen++
			}
			b.mu.Unlock()
			w.WriteHeader(http.StatusUnauthorized)
		}
	})

	return mux
}

func (b *backend) unauthCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unauthSeen
}

func (b *backend) order() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.servedOrder...)
}

type fixture struct {
	backend *backend
	server  *httptest.Server
	tokens  *repofake.FakeTokenRepo
	gateway *Gateway
}

func setup(t *testing.T, options ...Option) *fixture {
	t.Helper()

	b := &backend{t: t}
	server := httptest.NewServer(b.handler())
	t.Cleanup(server.Close)

	tokens := repofake.NewFakeTokenRepo()
	require.NoError(t, tokens.Save(tokenstore.Credentials{
		AccessToken:  staleAccess,
		RefreshToken: refreshToken,
	}))

	gw, err := New(server.URL, tokens, options...)
	require.NoError(t, err)

	return &fixture{backend: b, server: server, tokens: tokens, gateway: gw}
}

func (f *fixture) pendingCount() int {
	f.gateway.mu.Lock()
	defer f.gateway.mu.Unlock()
	return len(f.gateway.pending)
}

func TestDoAttachesBearerAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		fmt.Fprint(w, `{"success":true}`)
	}))
	t.Cleanup(server.Close)

	tokens := repofake.NewFakeTokenRepo()
	require.NoError(t, tokens.Save(tokenstore.Credentials{AccessToken: "abc", RefreshToken: "def"}))
	gw, err := New(server.URL, tokens)
	require.NoError(t, err)

	resp, err := gw.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/hotels"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Bearer abc", gotAuth)
	require.NotEmpty(t, gotRequestID)
}

func TestDoPassesThroughNon401Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	tokens := repofake.NewFakeTokenRepo()
	require.NoError(t, tokens.Save(tokenstore.Credentials{AccessToken: staleAccess, RefreshToken: refreshToken}))
	gw, err := New(server.URL, tokens)
	require.NoError(t, err)

	resp, err := gw.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/bookings"})
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestAnonymous401NeverRefreshes(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.tokens.Clear())

	resp, err := f.gateway.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/hotels"})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int64(0), f.backend.refreshCalls.Load())
}

func TestExpiredTokenIsRefreshedTransparently(t *testing.T) {
	f := setup(t)

	resp, err := f.gateway.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/bookings"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int64(1), f.backend.refreshCalls.Load())

	creds, err := f.tokens.Load()
	require.NoError(t, err)
	require.Equal(t, freshAccess, creds.AccessToken)
	require.Equal(t, refreshToken, creds.RefreshToken)
}

func TestRefreshRotatesRefreshToken(t *testing.T) {
	f := setup(t)
	f.backend.rotateRefresh = "refresh-token-2"

	_, err := f.gateway.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/bookings"})
	require.NoError(t, err)

	creds, err := f.tokens.Load()
	require.NoError(t, err)
	require.Equal(t, "refresh-token-2", creds.RefreshToken)
}

func TestSingleFlightRefresh(t *testing.T) {
	f := setup(t)
	f.backend.refreshRelease = make(chan error, 1)

	const concurrent = 5
	results := make(chan error, concurrent)
	for i := 0; i < concurrent; i++ {
		path := fmt.Sprintf("/resource/%d", i)
		go func() {
			resp, err := f.gateway.Do(context.Background(), &Request{Method: http.MethodGet, Path: path})
			if err == nil && resp.StatusCode != http.StatusOK {
				err = errors.Errorf("status %d", resp.StatusCode)
			}
			results <- err
		}()
	}

	// All five hit the stale-token 401; the first becomes the refresher and
	// the rest park behind it.
	require.Eventually(t, func() bool {
		return f.backend.unauthCount() == concurrent && f.pendingCount() == concurrent-1
	}, 2*time.Second, 5*time.Millisecond)

	f.backend.refreshRelease <- nil

	for i := 0; i < concurrent; i++ {
		require.NoError(t, <-results)
	}
	require.Equal(t, int64(1), f.backend.refreshCalls.Load())
	require.Len(t, f.backend.order(), concurrent)
}

func TestReplayPreservesArrivalOrder(t *testing.T) {
	f := setup(t)
	f.backend.refreshRelease = make(chan error, 1)

	// The trigger request starts the refresh and blocks inside it.
	triggerDone := make(chan error, 1)
	go func() {
		_, err := f.gateway.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/trigger"})
		triggerDone <- err
	}()
	require.Eventually(t, func() bool {
		return f.backend.refreshCalls.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)

	// A, B and C expire while the refresh is in flight and queue up in
	// arrival order.
	queuedDone := make(chan error, 3)
	for _, path := range []string{"/a", "/b", "/c"} {
		path := path
		go func() {
			_, err := f.gateway.Do(context.Background(), &Request{Method: http.MethodGet, Path: path})
			queuedDone <- err
		}()
		requireQueued(t, f, path)
	}

	f.backend.refreshRelease <- nil

	require.NoError(t, <-triggerDone)
	for i := 0; i < 3; i++ {
		require.NoError(t, <-queuedDone)
	}

	// Queued requests replay in arrival order, the trigger retries last.
	require.Equal(t, []string{"/a", "/b", "/c", "/trigger"}, f.backend.order())
}

// requireQueued waits until the given request has joined the pending queue.
func requireQueued(t *testing.T, f *fixture, path string) {
	t.Helper()
	require.Eventually(t, func() bool {
		f.gateway.mu.Lock()
		defer f.gateway.mu.Unlock()
		for _, pc := range f.gateway.pending {
			if pc.req.Path == path {
				return true
			}
		}
		return false
	}, 2*time.Second, time.Millisecond)
}

func TestRefreshFailureFailsWholeCohort(t *testing.T) {
	f := setup(t)
	f.backend.refreshStatus = http.StatusInternalServerError
	f.backend.refreshRelease = make(chan error, 1)

	var expiredCalls atomic.Int64
	f.gateway.OnSessionExpired = func() { expiredCalls.Add(1) }

	triggerDone := make(chan error, 1)
	go func() {
		_, err := f.gateway.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/trigger"})
		triggerDone <- err
	}()
	require.Eventually(t, func() bool {
		return f.backend.refreshCalls.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)

	queuedDone := make(chan error, 2)
	for _, path := range []string{"/a", "/b"} {
		path := path
		go func() {
			_, err := f.gateway.Do(context.Background(), &Request{Method: http.MethodGet, Path: path})
			queuedDone <- err
		}()
		requireQueued(t, f, path)
	}

	f.backend.refreshRelease <- errors.New("refresh down")

	// The trigger and all queued callers observe the refresh error; nothing
	// is replayed.
	require.ErrorIs(t, <-triggerDone, ErrSessionExpired)
	require.ErrorIs(t, <-queuedDone, ErrSessionExpired)
	require.ErrorIs(t, <-queuedDone, ErrSessionExpired)
	require.Empty(t, f.backend.order())

	// Tokens are gone and the expiry hook fired once.
	_, err := f.tokens.Load()
	require.ErrorIs(t, err, tokenstore.ErrNoCredentials)
	require.Equal(t, int64(1), expiredCalls.Load())
}

func TestNoSecondRetryAfterRefresh(t *testing.T) {
	f := setup(t)
	// The backend rejects even the fresh token for this path.
	f.backend.deny401 = "/always-401"

	resp, err := f.gateway.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/always-401"})
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, int64(1), f.backend.refreshCalls.Load())
}

func TestRefreshTimeoutReleasesLock(t *testing.T) {
	f := setup(t, WithRefreshTimeout(50*time.Millisecond))
	f.backend.refreshRelease = make(chan error) // never released within the timeout
	t.Cleanup(func() { f.backend.refreshRelease <- errors.New("released after timeout") })

	_, err := f.gateway.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/bookings"})
	require.ErrorIs(t, err, ErrSessionExpired)

	// The lock is free again: a later call is not starved.
	f.gateway.mu.Lock()
	refreshing := f.gateway.refreshing
	f.gateway.mu.Unlock()
	require.False(t, refreshing)
}

func TestCanceledCallerDoesNotHoldTheLock(t *testing.T) {
	f := setup(t)
	f.backend.refreshRelease = make(chan error, 1)

	triggerDone := make(chan error, 1)
	go func() {
		_, err := f.gateway.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/trigger"})
		triggerDone <- err
	}()
	require.Eventually(t, func() bool {
		return f.backend.refreshCalls.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)

	// A queued caller gives up while the refresh is still running.
	ctx, cancel := context.WithCancel(context.Background())
	queuedDone := make(chan error, 1)
	go func() {
		_, err := f.gateway.Do(ctx, &Request{Method: http.MethodGet, Path: "/impatient"})
		queuedDone <- err
	}()
	requireQueued(t, f, "/impatient")
	cancel()
	require.ErrorIs(t, <-queuedDone, context.Canceled)

	// The refresh cycle still completes normally for the trigger.
	f.backend.refreshRelease <- nil
	require.NoError(t, <-triggerDone)
}
