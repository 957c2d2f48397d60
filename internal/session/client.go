// Package session is the client side of the login session: it keeps the bearer token, rehydrates
// the user on start-up and answers permission queries the way the server's guards do.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"aiverse.club/internal/auth"
	"aiverse.club/internal/obs"
)

// ErrNotAuthenticated is returned by calls that need a session when none is held.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// StatusError is a non-2xx API response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status=%d", e.Code)
	}
	return fmt.Sprintf("api error: status=%d: %s", e.Code, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusUnauthorized
}

// IsForbidden reports whether err is a 403 from the API.
func IsForbidden(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusForbidden
}

// User is the signed-in user as reported by the API.
type User = auth.PrincipalSummary

// Client holds one session against the API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      TokenStore
	log        logrus.FieldLogger

	mu    sync.RWMutex
	token string
	user  *User
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for session transitions.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a client for baseURL. A nil store keeps the token in memory only.
func New(baseURL string, store TokenStore, opts ...Option) *Client {
	if store == nil {
		store = &MemoryStore{}
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		store:      store,
		log:        obs.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

type userResponse struct {
	User User `json:"user"`
}

// Bootstrap restores a stored session by asking the API who the token belongs to. Without a
// stored token it does nothing. A rejected token is discarded and is not an error.
func (c *Client) Bootstrap(ctx context.Context) error {
	token, err := c.store.Load()
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	var res userResponse
	if err := c.Do(ctx, http.MethodGet, "/api/auth/me", nil, &res); err != nil {
		if IsUnauthorized(err) {
			return nil
		}
		return err
	}
	c.setUser(&res.User)
	return nil
}

// Login exchanges credentials for a token and stores it.
func (c *Client) Login(ctx context.Context, identifier, password string) (User, error) {
	var res loginResponse
	in := map[string]string{"username": identifier, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", in, &res); err != nil {
		return User{}, err
	}
	if err := c.store.Save(res.Token); err != nil {
		return User{}, err
	}
	c.mu.Lock()
	c.token = res.Token
	c.user = &res.User
	c.mu.Unlock()
	c.log.WithField("user", res.User.Username).Debug("session started")
	return res.User, nil
}

// Logout tells the API and discards the token whatever the API answers.
func (c *Client) Logout(ctx context.Context) error {
	token := c.Token()
	if token == "" {
		return c.clear()
	}
	err := c.Do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	if cerr := c.clear(); cerr != nil {
		return cerr
	}
	if err != nil && !IsUnauthorized(err) {
		return err
	}
	return nil
}

// Do performs an authenticated JSON call. A 401 ends the session; a 403 leaves it intact.
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	token := c.Token()
	if token == "" {
		return ErrNotAuthenticated
	}
	err := c.do(ctx, method, path, token, in, out)
	if IsUnauthorized(err) {
		if cerr := c.clear(); cerr != nil {
			c.log.WithError(cerr).Warn("discard token")
		}
	}
	return err
}

// User returns the signed-in user.
func (c *Client) User() (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return User{}, false
	}
	return *c.user, true
}

// Token returns the held bearer token, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// IsAuthenticated reports whether a user is signed in.
func (c *Client) IsAuthenticated() bool {
	_, ok := c.User()
	return ok
}

// HasPermission mirrors the server rule: super admins hold every module, team admins the
// modules granted to them, jury members none.
func (c *Client) HasPermission(m auth.Module) bool {
	u, ok := c.User()
	if !ok {
		return false
	}
	switch u.Role {
	case auth.RoleSuperAdmin:
		return true
	case auth.RoleTeamAdmin:
		for _, p := range u.Permissions {
			if p == m {
				return true
			}
		}
	}
	return false
}

func (c *Client) setUser(u *User) {
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()
}

func (c *Client) clear() error {
	c.mu.Lock()
	had := c.token != ""
	c.token = ""
	c.user = nil
	c.mu.Unlock()
	if had {
		c.log.Debug("session cleared")
	}
	return c.store.Clear()
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &e) != nil {
			e.Error = strings.TrimSpace(string(raw))
		}
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
