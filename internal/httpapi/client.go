// Package httpapi holds the JSON-over-HTTP plumbing shared by the DNS provider
// and drive storage registrar clients.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
	"git.home.luguber.info/inful/pinningd/internal/version"
)

// DefaultTimeout bounds a single request when the caller's context has no deadline.
const DefaultTimeout = 30 * time.Second

// Client provides request construction, bearer auth and response decoding.
type Client struct {
	httpClient *http.Client
	apiURL     string
	category   errors.ErrorCategory

	mu    sync.RWMutex
	token string
}

// New creates a Client rooted at apiURL. Failures are classified under category.
func New(httpClient *http.Client, apiURL, token string, category errors.ErrorCategory) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		httpClient: httpClient,
		apiURL:     apiURL,
		token:      token,
		category:   category,
	}
}

// SetToken replaces the bearer token, e.g. after a login exchange.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// NewRequest creates a request for endpoint relative to the API URL. Query strings
// in endpoint are preserved. A non-nil body is JSON encoded.
func (c *Client) NewRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	if body == nil {
		return c.NewStreamRequest(ctx, method, endpoint, "", nil)
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to marshal request body").Build()
	}
	return c.NewStreamRequest(ctx, method, endpoint, "application/json", bytes.NewReader(buf))
}

// NewStreamRequest creates a request whose body is read from body as-is.
func (c *Client) NewStreamRequest(ctx context.Context, method, endpoint, contentType string, body io.Reader) (*http.Request, error) {
	target, err := c.resolve(endpoint)
	if err != nil {
		return nil, err
	}
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.WrapError(err, c.category, "failed to create request").
			WithContext("method", method).
			WithContext("url", target).
			Build()
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.Header.Set("User-Agent", "pinningd/"+version.Version)
	return req, nil
}

func (c *Client) resolve(endpoint string) (string, error) {
	cleanEndpoint := strings.TrimPrefix(endpoint, "/")
	var rawQuery string
	if idx := strings.Index(cleanEndpoint, "?"); idx != -1 {
		rawQuery = cleanEndpoint[idx+1:]
		cleanEndpoint = cleanEndpoint[:idx]
	}

	u, err := url.Parse(c.apiURL)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryConfig, "failed to parse API URL").
			WithContext("api_url", c.apiURL).
			Build()
	}
	u.Path = path.Join("/", strings.TrimSuffix(u.Path, "/"), cleanEndpoint)
	u.RawQuery = rawQuery
	return u.String(), nil
}

// Send executes req and returns the response when its status is below 400. The
// caller owns the body. Status codes >= 400 become classified errors: 401/403
// auth, 404 not found, anything else the client's category.
func (c *Client) Send(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, errors.NetworkError("request failed").
			WithCause(err).
			WithContext("method", req.Method).
			WithContext("url", req.URL.String()).
			Build()
	}
	if resp.StatusCode < 400 {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()

	limited, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	category := c.category
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		category = errors.CategoryAuth
	case http.StatusNotFound:
		category = errors.CategoryNotFound
	}
	return nil, errors.NewError(category, fmt.Sprintf("API error: %s", resp.Status)).
		WithRetry(errors.RetryNextPass).
		WithContext("method", req.Method).
		WithContext("code", resp.StatusCode).
		WithContext("url", req.URL.String()).
		WithContext("response", strings.ReplaceAll(string(limited), "\n", " ")).
		Build()
}

// Do executes req and decodes a JSON response into result when result is non-nil.
func (c *Client) Do(req *http.Request, result any) error {
	resp, err := c.Send(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return errors.WrapError(err, c.category, "failed to decode response").
			WithContext("url", req.URL.String()).
			Build()
	}
	return nil
}
