// Package client is the Go client for the platform API. It manages the
// session tokens transparently: when a request comes back 401 the client
// refreshes the access token and retries the request exactly once, and
// concurrent callers share a single refresh round trip.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"oceanos.org/pkg/api"
)

// ErrNoSession is returned when a request needs credentials and the
// store holds none.
var ErrNoSession = errors.New("client: no active session")

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenStore replaces the default in-memory token store.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) { c.store = store }
}

// WithApp sets the application name and environment reported in the
// provenance header.
func WithApp(app, environment string) Option {
	return func(c *Client) {
		c.app = app
		c.environment = environment
	}
}

// Client talks to the platform API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	store       TokenStore
	refreshing  singleflight.Group
	app         string
	environment string
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		store:       NewMemoryStore(),
		app:         "oceanos-go",
		environment: "development",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store exposes the token store, e.g. to persist a session.
func (c *Client) Store() TokenStore { return c.store }

// --- auth ---

// Login starts a session and stores its tokens.
func (c *Client) Login(ctx context.Context, email, password string) (*api.SessionResponse, error) {
	var resp api.SessionResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", api.LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	c.store.SetSession(resp.AccessToken, resp.RefreshToken)
	return &resp, nil
}

// Register creates an account and stores the session it opens.
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.SessionResponse, error) {
	var resp api.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &resp); err != nil {
		return nil, err
	}
	c.store.SetSession(resp.AccessToken, resp.RefreshToken)
	return &resp, nil
}

// Logout revokes the refresh token and clears the local session.
func (c *Client) Logout(ctx context.Context) error {
	_, refresh := c.store.Tokens()
	c.store.Clear()
	if refresh == "" {
		return nil
	}
	var resp api.LogoutResponse
	return c.do(ctx, http.MethodPost, "/api/auth/logout", api.LogoutRequest{RefreshToken: refresh}, &resp)
}

// Me returns the identity behind the current session.
func (c *Client) Me(ctx context.Context) (*api.Account, error) {
	var resp api.MeResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// --- submissions ---

func (c *Client) CreateSubmission(ctx context.Context, req api.CreateSubmissionRequest) (*api.Submission, error) {
	var resp api.SubmissionResponse
	if err := c.do(ctx, http.MethodPost, "/api/submissions", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Submission, nil
}

func (c *Client) Submissions(ctx context.Context) ([]api.Submission, error) {
	var resp api.SubmissionListResponse
	if err := c.do(ctx, http.MethodGet, "/api/submissions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Submissions, nil
}

func (c *Client) PendingSubmissions(ctx context.Context) ([]api.Submission, error) {
	var resp api.SubmissionListResponse
	if err := c.do(ctx, http.MethodGet, "/api/submissions/pending", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Submissions, nil
}

func (c *Client) Submission(ctx context.Context, id string) (*api.Submission, error) {
	var resp api.SubmissionResponse
	if err := c.do(ctx, http.MethodGet, "/api/submissions/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Submission, nil
}

func (c *Client) UpdateSubmission(ctx context.Context, id string, req api.UpdateSubmissionRequest) (*api.Submission, error) {
	var resp api.SubmissionResponse
	if err := c.do(ctx, http.MethodPut, "/api/submissions/"+url.PathEscape(id), req, &resp); err != nil {
		return nil, err
	}
	return &resp.Submission, nil
}

func (c *Client) ReviewSubmission(ctx context.Context, id string, req api.ReviewRequest) (*api.Submission, error) {
	var resp api.SubmissionResponse
	if err := c.do(ctx, http.MethodPost, "/api/submissions/"+url.PathEscape(id)+"/review", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Submission, nil
}

// --- marine data ---

func (c *Client) SearchSpecies(ctx context.Context, name string) (*api.SpeciesSearchResponse, error) {
	path := "/api/species"
	if name != "" {
		path += "?name=" + url.QueryEscape(name)
	}
	var resp api.SpeciesSearchResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Stats(ctx context.Context) (*api.StatsResponse, error) {
	var resp api.StatsResponse
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- transport ---

// do runs one request and, on 401, refreshes the access token and
// retries exactly once. Auth endpoints are never retried.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	err := c.doOnce(ctx, method, path, body, result)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || isAuthPath(path) {
		return err
	}

	if refreshErr := c.refreshAccessToken(ctx); refreshErr != nil {
		// The session is gone. Every waiter still sees its own
		// request's 401, not the refresh round trip's error.
		c.store.Clear()
		return err
	}
	return c.doOnce(ctx, method, path, body, result)
}

// refreshAccessToken collapses concurrent refreshes into one round trip.
// The trip is detached from the initiating caller's context so that
// canceling one queued request does not fail the rest.
func (c *Client) refreshAccessToken(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	_, err, _ := c.refreshing.Do("refresh", func() (any, error) {
		_, refresh := c.store.Tokens()
		if refresh == "" {
			return nil, ErrNoSession
		}
		var resp api.RefreshResponse
		if err := c.doOnce(ctx, http.MethodPost, "/api/auth/refresh", api.RefreshRequest{RefreshToken: refresh}, &resp); err != nil {
			return nil, err
		}
		c.store.SetAccessToken(resp.AccessToken)
		return nil, nil
	})
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access, _ := c.store.Tokens(); access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	c.setProvenance(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Code: api.CodeInternal, Message: http.StatusText(resp.StatusCode)}
		var envelope api.ErrorResponse
		if json.Unmarshal(data, &envelope) == nil && envelope.Error != "" {
			apiErr.Code = envelope.Code
			apiErr.Message = envelope.Error
			apiErr.RequestID = envelope.RequestID
		}
		return apiErr
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("client: decode response: %w", err)
		}
	}
	return nil
}

// setProvenance attaches the client identification headers.
func (c *Client) setProvenance(req *http.Request) {
	req.Header.Set("X-Client", c.app)
	prov, err := json.Marshal(map[string]string{
		"app":         c.app,
		"sent_at":     time.Now().UTC().Format(time.RFC3339),
		"environment": c.environment,
	})
	if err != nil {
		return
	}
	req.Header.Set("X-Provenance", string(prov))
}

func isAuthPath(path string) bool {
	switch path {
	case "/api/auth/login", "/api/auth/register", "/api/auth/refresh", "/api/auth/logout":
		return true
	}
	return false
}
