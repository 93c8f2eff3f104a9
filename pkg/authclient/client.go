package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	TokenVersion int    `json:"tokenVersion"`
}

type CookieStatus struct {
	HasAuthToken    bool   `json:"hasAuthToken"`
	HasRefreshToken bool   `json:"hasRefreshToken"`
	AuthTokenExpiry string `json:"authTokenExpiry,omitempty"`
}

var ErrUnauthorized = fmt.Errorf("unauthorized")

func NewClient(authServiceURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(authServiceURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Jar:     jar,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		refreshMargin: time.Minute,
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

func (c *Client) cookieStatus(ctx context.Context) (*CookieStatus, error) {
	var status CookieStatus
	code, err := c.doJSON(ctx, http.MethodGet, "/auth/cookie-status", nil, &status)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK {
		return nil, fmt.Errorf("cookie status failed with status: %d", code)
	}
	return &status, nil
}

func (c *Client) me(ctx context.Context) (*User, error) {
	var resp struct {
		User *User `json:"user"`
	}
	code, err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &resp)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK || resp.User == nil {
		return nil, ErrUnauthorized
	}
	return resp.User, nil
}
