// Package client calls a remote-call endpoint the way the browser runtime
// does: form-encoded POSTs tagged with the AJAX header. It backs
// integration tests and server-to-server triggers.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Envelope fields of the remote-call form.
const (
	fieldCall = "remote[call]"
	fieldView = "remote[view]"
	fieldCSRF = "remote[csrf]"
)

// Client calls remote handlers on a dispatch endpoint.
type Client struct {
	endpoint   string
	csrf       string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithCSRF submits token with every call.
func WithCSRF(token string) Option {
	return func(c *Client) { c.csrf = token }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a client for the endpoint URL. The default HTTP client
// keeps a cookie jar so session cookies persist across calls.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("endpoint is required")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Call invokes the named remote handler and returns its decoded commands.
func (c *Client) Call(ctx context.Context, name string, args url.Values) (*CommandSet, error) {
	return c.post(ctx, fieldCall, name, args)
}

// CallView requests the named view container.
func (c *Client) CallView(ctx context.Context, container string, args url.Values) (*CommandSet, error) {
	return c.post(ctx, fieldView, container, args)
}

func (c *Client) post(ctx context.Context, field, name string, args url.Values) (*CommandSet, error) {
	if name == "" {
		return nil, errors.New("remote name is required")
	}

	form := url.Values{}
	for k, vs := range args {
		form[k] = vs
	}
	form.Set(field, name)
	if c.csrf != "" {
		form.Set(fieldCSRF, c.csrf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	return ParseCommandSet(body)
}
