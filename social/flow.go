// Package social implements "sign in with an identity provider" for the
// CLI: an OIDC authorization-code flow with PKCE against the configured
// provider, completed by exchanging the verified ID token for platform
// credentials.
package social

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wanderinn/go-client/api"
	"github.com/wanderinn/go-client/session"
	"golang.org/x/oauth2"
)

// Flow drives one interactive provider sign-in.
type Flow struct {
	provider     *oidc.Provider
	oauth2Config oauth2.Config
	verifier     *oidc.IDTokenVerifier
	providerName string
	callbackAddr string

	client *api.Client
	store  *session.Store
}

// New discovers the OIDC provider and prepares the code flow. callbackAddr
// is the loopback address the provider will redirect back to.
func New(ctx context.Context, issuer, clientID, callbackAddr, providerName string, client *api.Client, store *session.Store) (*Flow, error) {
	if clientID == "" {
		return nil, errors.New("[social.New] client ID is required")
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, errors.Wrap(err, "[social.New] oidc.NewProvider")
	}

	return &Flow{
		provider: provider,
		oauth2Config: oauth2.Config{
			ClientID:    clientID,
			Endpoint:    provider.Endpoint(),
			RedirectURL: fmt.Sprintf("http://%s/callback", callbackAddr),
			Scopes:      []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier:     provider.Verifier(&oidc.Config{ClientID: clientID}),
		providerName: providerName,
		callbackAddr: callbackAddr,
		client:       client,
		store:        store,
	}, nil
}

type callbackResult struct {
	code string
	err  error
}

// SignIn runs the whole flow: opens a loopback listener, prints the
// authorization URL for the user to visit, exchanges the returned code,
// verifies the ID token, trades it for platform credentials and populates
// the session. An identity fetch failure after credential issue is fatal
// and resets the session.
func (f *Flow) SignIn(ctx context.Context) (*session.User, error) {
	state, err := randomToken()
	if err != nil {
		return nil, errors.Wrap(err, "[Flow.SignIn] generating state")
	}
	nonce, err := randomToken()
	if err != nil {
		return nil, errors.Wrap(err, "[Flow.SignIn] generating nonce")
	}
	pkceVerifier := oauth2.GenerateVerifier()

	code, err := f.awaitCallback(ctx, state, func() string {
		return f.oauth2Config.AuthCodeURL(state,
			oauth2.S256ChallengeOption(pkceVerifier),
			oidc.Nonce(nonce),
		)
	})
	if err != nil {
		return nil, err
	}

	oauth2Token, err := f.oauth2Config.Exchange(ctx, code, oauth2.VerifierOption(pkceVerifier))
	if err != nil {
		return nil, errors.Wrap(err, "[Flow.SignIn] code exchange")
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("[Flow.SignIn] no ID token in provider response")
	}

	idToken, err := f.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Flow.SignIn] ID token verification")
	}

	var claims struct {
		Nonce string `json:"nonce"`
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.Wrap(err, "[Flow.SignIn] extracting claims")
	}
	if claims.Nonce != nonce {
		return nil, errors.New("[Flow.SignIn] nonce mismatch")
	}

	return f.complete(ctx, rawIDToken, claims.Email)
}

// complete trades the verified provider ID token for platform credentials
// and bootstraps the session.
func (f *Flow) complete(ctx context.Context, rawIDToken, email string) (*session.User, error) {
	result, err := f.client.CompleteOAuth(ctx, f.providerName, rawIDToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Flow.complete] platform token issue")
	}
	if err := f.store.SetCredentials(result.AccessToken, result.RefreshToken); err != nil {
		return nil, errors.Wrap(err, "[Flow.complete] storing credentials")
	}

	user := result.User
	if user == nil {
		user, err = f.client.Me(ctx)
		if err != nil {
			f.store.Reset()
			return nil, errors.Wrap(err, "[Flow.complete] identity fetch")
		}
	}
	if err := f.store.SetUser(user); err != nil {
		f.store.Reset()
		return nil, errors.Wrap(err, "[Flow.complete] storing user")
	}

	log.Info().Str("email", email).Str("provider", f.providerName).Msg("signed in")
	return user, nil
}

// awaitCallback serves the loopback redirect endpoint until the provider
// delivers a code, the context is canceled, or the flow times out.
func (f *Flow) awaitCallback(ctx context.Context, state string, authURL func() string) (string, error) {
	listener, err := net.Listen("tcp", f.callbackAddr)
	if err != nil {
		return "", errors.Wrap(err, "[Flow.awaitCallback] net.Listen")
	}

	results := make(chan callbackResult, 1)

	r := chi.NewRouter()
	r.Get("/callback", func(w http.ResponseWriter, req *http.Request) {
		if errParam := req.URL.Query().Get("error"); errParam != "" {
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			results <- callbackResult{err: errors.Errorf("provider error: %s", errParam)}
			return
		}
		if req.URL.Query().Get("state") != state {
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			results <- callbackResult{err: errors.New("state mismatch")}
			return
		}
		code := req.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing code parameter", http.StatusBadRequest)
			results <- callbackResult{err: errors.New("missing code")}
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, "<html><body>Signed in. You can close this window.</body></html>")
		results <- callbackResult{code: code}
	})

	server := &http.Server{Handler: r}
	go func() { _ = server.Serve(listener) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Open the following URL in your browser to sign in:\n\n  %s\n\n", authURL())

	select {
	case res := <-results:
		if res.err != nil {
			return "", errors.Wrap(res.err, "[Flow.awaitCallback]")
		}
		return res.code, nil
	case <-ctx.Done():
		return "", errors.Wrap(ctx.Err(), "[Flow.awaitCallback] canceled")
	}
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
