package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wanderinn/go-client/tokenstore"
)

const refreshPath = "/auth/refresh-token"

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"data"`
}

// refresh exchanges the stored refresh token for a new access token and
// persists the result. Any failure clears the stored tokens: a refresh token
// the auth service rejects is dead weight, and keeping it would just replay
// the same failure on the next 401.
//
// The call runs on a cancel-detached context with its own timeout. The
// refresh lock is process-global state; it must not stay held because the
// one caller that happened to trigger the refresh went away.
func (g *Gateway) refresh(ctx context.Context) (string, error) {
	g.metrics.observeRefresh()

	newAccess, err := g.callRefreshEndpoint(ctx)
	if err != nil {
		g.metrics.observeRefreshFailure()
		if clearErr := g.tokens.Clear(); clearErr != nil {
			log.Error().Err(clearErr).Msg("clearing tokens after failed refresh")
		}
		log.Warn().Err(err).Msg("token refresh failed, session expired")
		return "", errors.Wrap(ErrSessionExpired, err.Error())
	}

	log.Debug().Msg("access token refreshed")
	return newAccess, nil
}

func (g *Gateway) callRefreshEndpoint(ctx context.Context) (string, error) {
	creds, err := g.tokens.Load()
	if err != nil || creds.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.refreshTimeout)
	defer cancel()

	payload, err := json.Marshal(refreshRequest{RefreshToken: creds.RefreshToken})
	if err != nil {
		return "", errors.Wrap(err, "[Gateway.refresh] json.Marshal")
	}

	httpReq, err := http.NewRequestWithContext(rctx, http.MethodPost, g.baseURL+refreshPath, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "[Gateway.refresh] http.NewRequestWithContext")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return "", errors.Wrap(err, "[Gateway.refresh] refresh call")
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", errors.Wrap(err, "[Gateway.refresh] io.ReadAll")
	}
	if httpResp.StatusCode != http.StatusOK {
		return "", errors.Errorf("[Gateway.refresh] refresh endpoint returned %d", httpResp.StatusCode)
	}

	var parsed refreshResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", errors.Wrap(err, "[Gateway.refresh] json.Unmarshal")
	}
	if !parsed.Success || parsed.Data == nil || parsed.Data.AccessToken == "" {
		return "", errors.Errorf("[Gateway.refresh] refresh rejected: %s", parsed.Message)
	}

	rotated := tokenstore.Credentials{
		AccessToken:  parsed.Data.AccessToken,
		RefreshToken: creds.RefreshToken,
	}
	if parsed.Data.RefreshToken != "" {
		rotated.RefreshToken = parsed.Data.RefreshToken
	}
	if err := g.tokens.Save(rotated); err != nil {
		return "", errors.Wrap(err, "[Gateway.refresh] tokens.Save")
	}

	return rotated.AccessToken, nil
}
