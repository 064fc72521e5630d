package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wanderinn/go-client/tokenstore"
)

const defaultRefreshTimeout = 10 * time.Second

// Doer abstracts *http.Client for testing.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Request describes one outbound API call. Body is JSON-encoded when non-nil.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any

	id      string
	retried bool
}

// Response is the decoded-enough result of a dispatched Request. Non-2xx
// statuses are not errors at this layer; typed bindings interpret them.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type callResult struct {
	resp *Response
	err  error
}

// pendingCall is a request that hit a 401 while a refresh was already in
// flight. The refresher replays pending calls in arrival order and delivers
// each outcome on its channel.
type pendingCall struct {
	ctx    context.Context
	req    *Request
	result chan callResult
}

// Gateway sends every outbound API call, attaches bearer credentials,
// recovers from a single access-token expiry via a coordinated refresh, and
// escalates irrecoverable refresh failures through OnSessionExpired.
type Gateway struct {
	baseURL        string
	client         Doer
	tokens         tokenstore.Repo
	refreshTimeout time.Duration
	metrics        *Metrics

	// OnSessionExpired, when set, runs after a failed refresh has cleared
	// the stored tokens. The application uses it to reset the session and
	// return the user to the login entry point.
	OnSessionExpired func()

	mu         sync.Mutex
	refreshing bool
	pending    []*pendingCall
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c Doer) Option {
	return func(g *Gateway) { g.client = c }
}

// WithRefreshTimeout bounds the refresh call itself. Without a bound, a
// refresh endpoint that never responds would hold the refresh lock forever
// and starve every later 401.
func WithRefreshTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.refreshTimeout = d }
}

// WithMetrics attaches prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// New creates a Gateway for the API at baseURL, reading and writing bearer
// tokens through tokens.
func New(baseURL string, tokens tokenstore.Repo, options ...Option) (*Gateway, error) {
	if baseURL == "" {
		return nil, errors.New("[gateway.New] baseURL is required")
	}
	if tokens == nil {
		return nil, errors.New("[gateway.New] token repo is required")
	}

	g := &Gateway{
		baseURL:        strings.TrimRight(baseURL, "/"),
		client:         &http.Client{Timeout: 30 * time.Second},
		tokens:         tokens,
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// Do dispatches req with the stored access token attached. A 401 on an
// authenticated, not-yet-retried request triggers the refresh protocol: at
// most one refresh call runs at a time, requests that expire behind it are
// queued and replayed in arrival order, and a failed refresh clears the
// stored tokens and fails the whole cohort with ErrSessionExpired.
func (g *Gateway) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.id == "" {
		req.id = uuid.NewString()
	}

	access := g.accessToken()
	resp, err := g.dispatch(ctx, req, access)
	if err != nil {
		g.metrics.observeRequest(outcomeNetworkError)
		return nil, err
	}

	// Pass-through cases: not an auth failure, anonymous call, or this
	// request already got its one retry.
	if resp.StatusCode != http.StatusUnauthorized || access == "" || req.retried {
		g.metrics.observeRequest(outcomeForStatus(resp.StatusCode))
		return resp, nil
	}

	req.retried = true
	return g.refreshAndRetry(ctx, req)
}

// refreshAndRetry coordinates the single-flight refresh. The caller either
// becomes the refresher or parks behind the in-flight refresh.
func (g *Gateway) refreshAndRetry(ctx context.Context, req *Request) (*Response, error) {
	g.mu.Lock()
	if g.refreshing {
		pc := &pendingCall{ctx: ctx, req: req, result: make(chan callResult, 1)}
		g.pending = append(g.pending, pc)
		g.mu.Unlock()

		select {
		case res := <-pc.result:
			if res.err != nil {
				g.metrics.observeRequest(outcomeAuthFailed)
				return nil, res.err
			}
			g.metrics.observeRequest(outcomeForStatus(res.resp.StatusCode))
			return res.resp, nil
		case <-ctx.Done():
			g.metrics.observeRequest(outcomeCanceled)
			return nil, errors.Wrap(ctx.Err(), "[Gateway.Do] canceled while awaiting refresh")
		}
	}
	g.refreshing = true
	g.mu.Unlock()

	newAccess, refreshErr := g.refresh(ctx)

	g.mu.Lock()
	queue := g.pending
	g.pending = nil
	g.refreshing = false
	g.mu.Unlock()

	if refreshErr != nil {
		// The queue is abandoned: every parked caller observes the
		// refresh error, none is replayed.
		for _, pc := range queue {
			pc.result <- callResult{err: refreshErr}
		}
		if g.OnSessionExpired != nil {
			g.OnSessionExpired()
		}
		g.metrics.observeRequest(outcomeAuthFailed)
		return nil, refreshErr
	}

	// Replay parked requests in arrival order before retrying our own, so
	// no request resolves out of order against the cohort.
	for _, pc := range queue {
		resp, err := g.dispatch(pc.ctx, pc.req, newAccess)
		g.metrics.observeReplay()
		pc.result <- callResult{resp: resp, err: err}
	}

	resp, err := g.dispatch(ctx, req, newAccess)
	if err != nil {
		g.metrics.observeRequest(outcomeNetworkError)
		return nil, err
	}
	g.metrics.observeRequest(outcomeForStatus(resp.StatusCode))
	return resp, nil
}

// dispatch performs a single HTTP round trip with the given access token.
func (g *Gateway) dispatch(ctx context.Context, req *Request, access string) (*Response, error) {
	u := g.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, errors.Wrap(err, "[Gateway.dispatch] json.Marshal request body")
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, errors.Wrap(err, "[Gateway.dispatch] http.NewRequestWithContext")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", req.id)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "[Gateway.dispatch] %s %s", req.Method, req.Path)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "[Gateway.dispatch] io.ReadAll response body")
	}

	log.Debug().
		Str("request_id", req.id).
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", httpResp.StatusCode).
		Msg("api call")

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

func (g *Gateway) accessToken() string {
	creds, err := g.tokens.Load()
	if err != nil {
		return ""
	}
	return creds.AccessToken
}
