package rest

import (
	"context"
	"io"
	"net/http"
	"strings"
)

// AuthUser is the identity the backend reports for a bearer token.
type AuthUser struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// FetchAuthUser asks the backend who the given token belongs to. A 401
// comes back as a *StatusError; callers treat it as "no live session".
func (c *Client) FetchAuthUser(ctx context.Context, token string) (*AuthUser, error) {
	// Explicit token rather than the client's TokenSource: identity
	// resolution probes candidate tokens before one is adopted.
	u := c.base.JoinPath("/auth/user")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		c.observe(http.MethodGet, "/auth/user", "transport_error")
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.observe(http.MethodGet, "/auth/user", "status_error")
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	c.observe(http.MethodGet, "/auth/user", "ok")
	var user AuthUser
	if err := decodeJSON(resp.Body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
