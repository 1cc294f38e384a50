package client

import (
	"context"
	"encoding/json"
	"net/http"

	"feedfinder/pkg/models"
)

const (
	loginFailed    = "An error occurred during login"
	registerFailed = "An error occurred during registration"
)

// FetchCSRFToken asks the server for a new token and caches it. It returns
// "" on any failure.
func (c *Client) FetchCSRFToken(ctx context.Context) string {
	resp, err := c.do(ctx, http.MethodGet, "/api/csrf-token", nil, nil)
	if err != nil {
		c.log.Error("Error fetching CSRF token: %v", err)
		return ""
	}
	if !ok(resp) {
		drain(resp)
		c.log.Error("Error fetching CSRF token: status %d", resp.StatusCode)
		return ""
	}

	var data models.CSRFResponse
	if err := decode(resp, &data); err != nil {
		c.log.Error("Error fetching CSRF token: %v", err)
		return ""
	}

	c.mu.Lock()
	c.csrfToken = data.CSRFToken
	c.mu.Unlock()
	return data.CSRFToken
}

// CSRFToken returns the cached token, fetching one when none is cached.
func (c *Client) CSRFToken(ctx context.Context) string {
	c.mu.Lock()
	token := c.csrfToken
	c.mu.Unlock()
	if token != "" {
		return token
	}
	return c.FetchCSRFToken(ctx)
}

func (c *Client) clearCSRFToken() {
	c.mu.Lock()
	c.csrfToken = ""
	c.mu.Unlock()
}

// AuthenticatedFetch sends a request with the session cookies and the CSRF
// header. On 401 it refreshes the session and, if that worked, retries the
// request once. A failed refresh returns the original 401.
func (c *Client) AuthenticatedFetch(ctx context.Context, method, path string, body []byte, header http.Header) (*http.Response, error) {
	h := make(http.Header, len(header)+1)
	for k, v := range header {
		h[http.CanonicalHeaderKey(k)] = v
	}
	if token := c.CSRFToken(ctx); token != "" {
		h.Set(CSRFHeader, token)
	}

	resp, err := c.do(ctx, method, path, body, h)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	if !c.RefreshToken(ctx) {
		return resp, nil
	}
	drain(resp)
	return c.do(ctx, method, path, body, h)
}

// RefreshToken renews the access cookie. The CSRF token is left alone.
func (c *Client) RefreshToken(ctx context.Context) bool {
	resp, err := c.do(ctx, http.MethodPost, "/api/refresh", nil, nil)
	if err != nil {
		c.log.Error("Error refreshing token: %v", err)
		return false
	}
	drain(resp)
	return ok(resp)
}

// VerifySession returns the logged-in user, or nil.
func (c *Client) VerifySession(ctx context.Context) *models.User {
	resp, err := c.AuthenticatedFetch(ctx, http.MethodGet, "/api/verify-session", nil, nil)
	if err != nil {
		c.log.Error("Error verifying session: %v", err)
		return nil
	}
	if !ok(resp) {
		drain(resp)
		return nil
	}

	var data models.SessionResponse
	if err := decode(resp, &data); err != nil {
		c.log.Error("Error verifying session: %v", err)
		return nil
	}
	return data.User
}

// AuthResult mirrors the HTTP outcome of login and registration. Data is
// the decoded body either way.
type AuthResult struct {
	Success bool
	Data    models.AuthResponse
}

func (c *Client) Login(ctx context.Context, username, password string) AuthResult {
	req := models.LoginRequest{Username: username, Password: password}
	return c.credentialPost(ctx, "/api/login", req, loginFailed)
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) AuthResult {
	return c.credentialPost(ctx, "/api/register", req, registerFailed)
}

func (c *Client) credentialPost(ctx context.Context, path string, in interface{}, failure string) AuthResult {
	failed := AuthResult{Data: models.AuthResponse{Message: failure}}

	body, err := json.Marshal(in)
	if err != nil {
		c.log.Error("Error encoding %s: %v", path, err)
		return failed
	}

	token := c.FetchCSRFToken(ctx)
	header := http.Header{CSRFHeader: []string{token}}

	resp, err := c.do(ctx, http.MethodPost, path, body, header)
	if err != nil {
		c.log.Error("Error posting %s: %v", path, err)
		return failed
	}

	var data models.AuthResponse
	if err := decode(resp, &data); err != nil {
		c.log.Error("Error posting %s: %v", path, err)
		return failed
	}
	return AuthResult{Success: ok(resp), Data: data}
}

// Logout ends the session. The cached CSRF token is dropped whatever the
// outcome.
func (c *Client) Logout(ctx context.Context) bool {
	resp, err := c.AuthenticatedFetch(ctx, http.MethodPost, "/api/logout", nil, nil)
	c.clearCSRFToken()
	if err != nil {
		c.log.Error("Error logging out: %v", err)
		return false
	}
	drain(resp)
	return ok(resp)
}
