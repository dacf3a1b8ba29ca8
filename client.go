package voteclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// Client is the envelope-aware HTTP client for the vote-system API. It is an
// explicitly constructed instance: the bearer token lives in the injected
// TokenStore, never in package state.
//
// The client owns exactly one side effect beyond the request itself: on a
// 401 it clears the token store and notifies registered unauthorized
// handlers before failing the call. Navigation and state transitions belong
// to those handlers, not to this layer.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      TokenStore
	logger     Logger
	debug      bool

	mu             sync.RWMutex
	onUnauthorized []UnauthorizedHandler
}

// ClientOption customizes client construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying http.Client. The client imposes no
// timeout of its own; deadlines are a caller concern via context, WithTimeout,
// or here.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every request with an overall deadline, typically fed
// from AppConfig.Timeout. Zero or negative is ignored.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithLogger overrides the logger used for debug and cleanup failures.
func WithLogger(logger Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug enables request/response payload dumps.
func WithDebug(debug bool) ClientOption {
	return func(c *Client) {
		c.debug = debug
	}
}

// NewClient returns a client rooted at baseURL (origin plus /api prefix)
// reading and clearing tokens through store.
func NewClient(baseURL string, store TokenStore, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		store:      store,
		logger:     defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// OnUnauthorized registers a handler invoked after a 401 clears the token
// store. Handlers run synchronously on the failing request path.
func (c *Client) OnUnauthorized(h UnauthorizedHandler) {
	if h == nil {
		return
	}
	c.mu.Lock()
	c.onUnauthorized = append(c.onUnauthorized, h)
	c.mu.Unlock()
}

// Store exposes the injected token store to collaborators constructed around
// the same client.
func (c *Client) Store() TokenStore {
	return c.store
}

func (c *Client) Get(ctx context.Context, path string) (*Envelope, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

func (c *Client) Patch(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.Do(ctx, http.MethodPatch, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) (*Envelope, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do issues a single request and normalizes the response. Transport-level
// failures propagate unchanged: no retry, no translation. Non-2xx responses
// become normalized API errors; 401 short-circuits before any body parsing.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "unable to encode request body")
		}
		reader = bytes.NewReader(payload)

		if c.debug {
			c.logger.Debug("request %s %s payload: %s", method, path, print.MaybePrettyJSON(body))
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "unable to build request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())

	token, err := c.store.Get()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to read token store")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.forceLogout(ctx)
		return nil, ErrUnauthorized
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "unable to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, raw)
		c.logger.Debug("request %s %s failed: %s", method, path, apiErr.Message)
		return nil, apiErr
	}

	// A few endpoints answer 2xx with an empty body.
	if len(raw) == 0 {
		return &Envelope{IsSuccess: true}, nil
	}

	env := &Envelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "unable to decode response envelope").
			WithMetadata(map[string]any{"status": resp.StatusCode})
	}

	if c.debug {
		c.logger.Debug("response %s %s: %s", method, path, print.MaybePrettyJSON(env))
	}

	return env, nil
}

// forceLogout clears the stored token and notifies unauthorized handlers.
// Cleanup failures are logged; the 401 is reported regardless.
func (c *Client) forceLogout(ctx context.Context) {
	if err := c.store.Clear(); err != nil {
		c.logger.Error("unable to clear token store after 401: %v", err)
	}

	c.mu.RLock()
	handlers := make([]UnauthorizedHandler, len(c.onUnauthorized))
	copy(handlers, c.onUnauthorized)
	c.mu.RUnlock()

	for _, h := range handlers {
		h(ctx)
	}
}
