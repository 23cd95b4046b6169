// Package client is a Go consumer of the tickdone HTTP API. It keeps a
// session cookie jar, fetches and replays the anti-forgery token on
// mutating calls, and exposes small stateful stores that mirror the
// server with optimistic updates.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"
)

// Todo is the wire shape of one todo item.
type Todo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// User is the wire shape of the authenticated principal.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// APIError carries the status and message of a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client. A cookie jar is
// installed if the given client has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithUnauthorizedHook registers a callback invoked whenever any call
// comes back 401. Stores use it to drop local state the moment the
// session dies.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// Client talks to one tickdone API server on behalf of one session.
type Client struct {
	baseURL string
	hc      *http.Client

	mu        sync.Mutex
	csrfToken string

	onUnauthorized func()
}

// New builds a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{baseURL: strings.TrimRight(baseURL, "/")}
	for _, opt := range opts {
		opt(c)
	}
	if c.hc == nil {
		c.hc = &http.Client{Timeout: 30 * time.Second}
	}
	if c.hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("client: cookie jar: %w", err)
		}
		c.hc.Jar = jar
	}
	return c, nil
}

// do performs one JSON round trip. Mutating methods carry the CSRF
// token, fetching one first when none is cached.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	mutating := method != http.MethodGet && method != http.MethodHead

	if mutating {
		token, err := c.ensureCSRF(ctx)
		if err != nil {
			return err
		}
		if err := c.roundTrip(ctx, method, path, body, out, token); err != nil {
			return err
		}
		return nil
	}
	return c.roundTrip(ctx, method, path, body, out, "")
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any, csrf string) error {
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: marshal request: %w", err)
		}
		payload = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidateCSRF()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
	}
	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(resp.StatusCode)
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

func (c *Client) ensureCSRF(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.csrfToken
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	var payload struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := c.roundTrip(ctx, http.MethodGet, "/api/csrf", nil, &payload, ""); err != nil {
		return "", err
	}
	c.mu.Lock()
	c.csrfToken = payload.CSRFToken
	c.mu.Unlock()
	return payload.CSRFToken, nil
}

func (c *Client) invalidateCSRF() {
	c.mu.Lock()
	c.csrfToken = ""
	c.mu.Unlock()
}

// --- auth endpoints ---

type userEnvelope struct {
	User User `json:"user"`
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, email, password, name string) (User, error) {
	var env userEnvelope
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	}, &env)
	return env.User, err
}

// Login authenticates and binds the session cookie to the principal. The
// server rotates the session and CSRF secret, so the cached token is
// dropped.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var env userEnvelope
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &env)
	c.invalidateCSRF()
	return env.User, err
}

// Logout destroys the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.invalidateCSRF()
	return err
}

// Me returns the currently authenticated principal. Unlike register and
// login, the endpoint answers with the bare principal object.
func (c *Client) Me(ctx context.Context) (User, error) {
	var user User
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user)
	return user, err
}

// --- todo endpoints ---

type listEnvelope struct {
	Items []Todo `json:"items"`
	Total int    `json:"total"`
}

// ListTodos fetches the caller's full list, newest first.
func (c *Client) ListTodos(ctx context.Context) ([]Todo, error) {
	var env listEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/todos", nil, &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}

// GetTodo fetches one item by id.
func (c *Client) GetTodo(ctx context.Context, id string) (Todo, error) {
	var item Todo
	err := c.do(ctx, http.MethodGet, "/api/todos/"+id, nil, &item)
	return item, err
}

// CreateTodo makes a new item and returns the canonical record.
func (c *Client) CreateTodo(ctx context.Context, title string, description *string) (Todo, error) {
	var item Todo
	err := c.do(ctx, http.MethodPost, "/api/todos", map[string]any{
		"title":       title,
		"description": description,
	}, &item)
	return item, err
}

// TodoPatch is a partial update. Nil fields are left untouched;
// ClearDescription sends an explicit null.
type TodoPatch struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Completed        *bool
}

func (p TodoPatch) body() map[string]any {
	body := make(map[string]any)
	if p.Title != nil {
		body["title"] = *p.Title
	}
	if p.ClearDescription {
		body["description"] = nil
	} else if p.Description != nil {
		body["description"] = *p.Description
	}
	if p.Completed != nil {
		body["completed"] = *p.Completed
	}
	return body
}

// UpdateTodo applies a partial update and returns the canonical record.
func (c *Client) UpdateTodo(ctx context.Context, id string, patch TodoPatch) (Todo, error) {
	var item Todo
	err := c.do(ctx, http.MethodPatch, "/api/todos/"+id, patch.body(), &item)
	return item, err
}

// DeleteTodo permanently removes one item.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/todos/"+id, nil, nil)
}
