// Package clinicapi is the HTTP client for the clinic backend. It attaches
// the bearer token from the session store to every request and recovers
// expired access tokens through a single-flight refresh: concurrent 401s
// share exactly one POST /auth/refresh/ and are replayed or rejected
// together on its outcome.
package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ocampolabs/clinic-agenda/internal/session"
	"github.com/ocampolabs/clinic-agenda/pkg/logging"
)

const (
	LoginPath   = "/auth/login/"
	RefreshPath = "/auth/refresh/"
)

// Client talks to the clinic REST API.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	tokens           session.Store
	logger           *logging.Logger
	refresher        *refreshCoordinator
	onSessionExpired func()
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithOnSessionExpired registers the callback fired once when a refresh
// fails irrecoverably and the session has been cleared. The UI uses it to
// navigate to the login screen.
func WithOnSessionExpired(fn func()) Option {
	return func(c *Client) {
		c.onSessionExpired = fn
	}
}

// NewClient creates a client for the given base URL, reading and storing
// credentials through tokens.
func NewClient(baseURL string, tokens session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens:    tokens,
		logger:    logging.Default(),
		refresher: newRefreshCoordinator(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Do sends an authenticated JSON request and decodes a 2xx response body
// into out when out is non-nil. On a 401 it refreshes the access token
// (joining any refresh already in flight) and replays the request exactly
// once.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = b
	}
	return c.do(ctx, method, path, payload, out, false)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any, retried bool) error {
	req, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if token := c.tokens.Access(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !retried {
		if err := c.refresher.RunExclusive(ctx, func() error {
			return c.refreshTokens(ctx)
		}); err != nil {
			return err
		}
		return c.do(ctx, method, path, payload, out, true)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload []byte) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// refreshTokens is run by the refresh coordinator's leader. Any failure,
// including a missing refresh token, clears the session pair and fires the
// session-expired callback once.
func (c *Client) refreshTokens(ctx context.Context) error {
	refresh := c.tokens.Refresh()
	if refresh == "" {
		return c.failSession(fmt.Errorf("%w: no refresh token", ErrSessionExpired))
	}

	var out struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	err := c.postUnauthenticated(ctx, RefreshPath, map[string]string{"refresh": refresh}, &out)
	if err != nil {
		return c.failSession(fmt.Errorf("%w: %v", ErrSessionExpired, err))
	}
	if out.Access == "" {
		return c.failSession(fmt.Errorf("%w: refresh response missing access token", ErrSessionExpired))
	}

	if out.Refresh != "" {
		err = c.tokens.SetPair(out.Access, out.Refresh)
	} else {
		err = c.tokens.SetAccess(out.Access)
	}
	if err != nil {
		return fmt.Errorf("store refreshed token: %w", err)
	}

	c.logger.Debug("access token refreshed")
	return nil
}

func (c *Client) failSession(err error) error {
	_ = c.tokens.Clear()
	c.logger.Warn("session cleared after refresh failure", "error", err.Error())
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
	return err
}

// postUnauthenticated is used by login and refresh, which must never carry
// a bearer token nor re-enter the refresh flow.
func (c *Client) postUnauthenticated(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

func decodeAPIError(status int, data []byte) error {
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(data, &payload)

	detail := payload.Detail
	if detail == "" {
		detail = payload.Message
	}
	return &APIError{StatusCode: status, Detail: detail}
}
