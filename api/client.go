// Package api provides typed bindings for the WanderInn platform API. Every
// call goes through the authenticated gateway; this package only shapes
// requests and interprets the platform's response envelope.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/pkg/errors"
	"github.com/wanderinn/go-client/gateway"
)

// Envelope is the platform's uniform response shape. Data is nil for
// success-without-payload responses.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *T     `json:"data"`
}

// Error is a platform-reported failure: a non-2xx status or a response
// envelope with success=false.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// Client is the typed surface over the gateway.
type Client struct {
	gw *gateway.Gateway
}

// NewClient wraps the gateway.
func NewClient(gw *gateway.Gateway) (*Client, error) {
	if gw == nil {
		return nil, errors.New("[api.NewClient] gateway is required")
	}
	return &Client{gw: gw}, nil
}

// call dispatches one request and decodes the envelope. A nil return with a
// nil error is a success-without-payload response.
func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (*T, error) {
	resp, err := c.gw.Do(ctx, &gateway.Request{
		Method: method,
		Path:   path,
		Query:  query,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	var env Envelope[T]
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &env); err != nil {
			return nil, errors.Wrapf(err, "[api] decoding %s %s response", method, path)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		return nil, &Error{Status: resp.StatusCode, Message: env.Message}
	}
	return env.Data, nil
}

// empty marks endpoints whose success responses carry no payload.
type empty struct{}
