package authclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Client keeps a session alive against the auth service: it holds the
// token cookies in its jar, tracks the current user, and refreshes the
// pair proactively before the access token expires. It never inspects
// token contents for trust decisions; expiry comes from the cookie-status
// probe and is informational only.
type Client struct {
	baseURL    string
	httpClient *http.Client

	refreshMargin time.Duration

	mu           sync.Mutex
	user         *User
	refreshing   bool
	refreshTimer *time.Timer
}

// Start runs the mount sequence: probe the cookies, materialize the user
// via /auth/me when an access cookie is present, otherwise attempt a
// single refresh before settling on "not authenticated".
func (c *Client) Start(ctx context.Context) error {
	status, err := c.cookieStatus(ctx)
	if err != nil {
		return err
	}

	if status.HasAuthToken {
		user, err := c.me(ctx)
		if err == nil {
			c.setUser(user)
			c.scheduleRefresh(status.AuthTokenExpiry)
			return nil
		}
		if !errors.Is(err, ErrUnauthorized) {
			return err
		}
	}

	if !status.HasAuthToken && status.HasRefreshToken {
		if c.Refresh(ctx) {
			return nil
		}
	}

	c.setUser(nil)
	return nil
}

// Refresh rotates the token pair. A refresh already in flight
// short-circuits concurrent callers to false rather than issuing
// duplicate calls. Any failure drops the session to unauthenticated.
func (c *Client) Refresh(ctx context.Context) bool {
	c.mu.Lock()
	if c.refreshing {
		c.mu.Unlock()
		return false
	}
	c.refreshing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.refreshing = false
		c.mu.Unlock()
	}()

	var resp struct {
		Success bool  `json:"success"`
		User    *User `json:"user"`
	}
	code, err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", nil, &resp)
	if err != nil || code != http.StatusOK || resp.User == nil {
		c.setUser(nil)
		return false
	}

	c.setUser(resp.User)
	if status, err := c.cookieStatus(ctx); err == nil {
		c.scheduleRefresh(status.AuthTokenExpiry)
	}
	return true
}

func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var resp struct {
		User *User `json:"user"`
	}
	code, err := c.doJSON(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK || resp.User == nil {
		c.setUser(nil)
		return nil, fmt.Errorf("login failed with status: %d", code)
	}

	c.setUser(resp.User)
	if status, err := c.cookieStatus(ctx); err == nil {
		c.scheduleRefresh(status.AuthTokenExpiry)
	}
	return resp.User, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	var resp struct {
		User *User `json:"user"`
	}
	code, err := c.doJSON(ctx, http.MethodPost, "/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK || resp.User == nil {
		c.setUser(nil)
		return nil, fmt.Errorf("register failed with status: %d", code)
	}

	c.setUser(resp.User)
	if status, err := c.cookieStatus(ctx); err == nil {
		c.scheduleRefresh(status.AuthTokenExpiry)
	}
	return resp.User, nil
}

// Logout revokes every session server-side, so a refresh token issued
// before logout stays unusable even if a copy survives the jar.
func (c *Client) Logout(ctx context.Context) error {
	code, err := c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.setUser(nil)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return fmt.Errorf("logout failed with status: %d", code)
	}
	return nil
}

func (c *Client) User() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *Client) Close() {
	c.setUser(nil)
}

// setUser swaps the identity and cancels any armed refresh timer, so a
// stale timer can never fire a refresh for a logged-out session.
func (c *Client) setUser(user *User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = user
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
}

// scheduleRefresh arms the proactive refresh a fixed margin before the
// access token expires. The margin is a heuristic against clock skew,
// not a guarantee. Armed only while a user is known.
func (c *Client) scheduleRefresh(expiry string) {
	if expiry == "" {
		return
	}
	exp, err := time.Parse(time.RFC3339, expiry)
	if err != nil {
		return
	}

	delay := time.Until(exp) - c.refreshMargin
	if delay < 0 {
		delay = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return
	}
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
	}
	c.refreshTimer = time.AfterFunc(delay, func() {
		c.Refresh(context.Background())
	})
}
