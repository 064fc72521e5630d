package api

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/wanderinn/go-client/session"
)

// TokenPair is the credential pair issued by login, register and the OAuth
// completion endpoint.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult carries the issued tokens plus the identity the platform
// reports at sign-in.
type LoginResult struct {
	TokenPair
	User *session.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type oauthCompleteRequest struct {
	Provider string `json:"provider"`
	IDToken  string `json:"idToken"`
}

// Login exchanges email/password for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	result, err := call[LoginResult](ctx, c, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Login]")
	}
	if result == nil || result.AccessToken == "" || result.RefreshToken == "" {
		return nil, errors.New("[Client.Login] login response missing tokens")
	}
	return result, nil
}

// Register creates an account. The platform signs the new account in
// immediately, so the response carries a token pair like Login.
func (c *Client) Register(ctx context.Context, email, password, displayName string) (*LoginResult, error) {
	result, err := call[LoginResult](ctx, c, http.MethodPost, "/auth/register", nil, registerRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Register]")
	}
	if result == nil || result.AccessToken == "" || result.RefreshToken == "" {
		return nil, errors.New("[Client.Register] register response missing tokens")
	}
	return result, nil
}

// CompleteOAuth exchanges a verified provider ID token for platform
// credentials.
func (c *Client) CompleteOAuth(ctx context.Context, provider, idToken string) (*LoginResult, error) {
	result, err := call[LoginResult](ctx, c, http.MethodPost, "/auth/oauth", nil, oauthCompleteRequest{
		Provider: provider,
		IDToken:  idToken,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.CompleteOAuth]")
	}
	if result == nil || result.AccessToken == "" || result.RefreshToken == "" {
		return nil, errors.New("[Client.CompleteOAuth] oauth response missing tokens")
	}
	return result, nil
}

// Me fetches the current identity.
func (c *Client) Me(ctx context.Context) (*session.User, error) {
	user, err := call[session.User](ctx, c, http.MethodGet, "/auth/me", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Me]")
	}
	if user == nil {
		return nil, errors.New("[Client.Me] identity response missing user")
	}
	return user, nil
}

// Logout invalidates the session server-side.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := call[empty](ctx, c, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return errors.Wrap(err, "[Client.Logout]")
	}
	return nil
}

var _ session.AuthAPI = (*Client)(nil)
