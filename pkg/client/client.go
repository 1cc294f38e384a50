// Package client talks to the FeedFinder HTTP API. It keeps the session in
// a cookie jar and the anti-forgery token in memory, and turns transport
// failures into zero values so callers never have to handle them.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"feedfinder/pkg/logger"
)

const (
	CSRFHeader = "X-CSRF-Token"

	defaultTimeout        = 15 * time.Second
	defaultBranchTimeout  = 10 * time.Second
	defaultProfileTimeout = 15 * time.Second
)

type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
	now     func() time.Time

	branchTimeout  time.Duration
	profileTimeout time.Duration

	mu        sync.Mutex
	csrfToken string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. A cookie jar is added when
// it has none, since the session lives in cookies.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		hc := *h
		if hc.Jar == nil {
			hc.Jar = c.http.Jar
		}
		c.http = &hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithProfileTimeouts sets the per-branch and overall deadlines of
// LoadProfilePage.
func WithProfileTimeouts(branch, overall time.Duration) Option {
	return func(c *Client) {
		c.branchTimeout = branch
		c.profileTimeout = overall
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

func New(baseURL string, log *logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.Discard()
	}
	jar, _ := cookiejar.New(nil)

	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{Jar: jar, Timeout: defaultTimeout},
		log:            log,
		now:            time.Now,
		branchTimeout:  defaultBranchTimeout,
		profileTimeout: defaultProfileTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte, header http.Header) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Del(k)
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}
	return req, nil
}

// do sends a request without the refresh-and-retry handling.
func (c *Client) do(ctx context.Context, method, path string, body []byte, header http.Header) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, body, header)
	if err != nil {
		return nil, err
	}
	return c.http.Do(req)
}

func ok(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func decode(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", resp.Request.URL.Path, err)
	}
	return nil
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// apiError reads the message out of a failed response and closes it.
func apiError(resp *http.Response, fallback string) *APIError {
	defer resp.Body.Close()
	var body errorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &body)

	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = fallback
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

// call is AuthenticatedFetch with JSON in and out. Non-2xx responses come
// back as *APIError carrying the server's message or fallback.
func (c *Client) call(ctx context.Context, method, path string, in, out interface{}, fallback string) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
	}

	resp, err := c.AuthenticatedFetch(ctx, method, path, body, nil)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if !ok(resp) {
		return apiError(resp, fallback)
	}
	if out == nil {
		drain(resp)
		return nil
	}
	return decode(resp, out)
}
