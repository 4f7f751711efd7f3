// Package httpapi is the authenticated transport to the Autobridge backend.
// It attaches the bearer token to non-public requests, funnels 401/403
// responses to registered observers, and normalizes JSON request/response
// handling for the typed resource clients built on top of it.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/autobridge/autobridge-go/internal/api/metrics"
	"github.com/autobridge/autobridge-go/internal/core/domain"
)

// DefaultTimeout bounds every request; a timeout surfaces as an ordinary
// transport failure to the caller.
const DefaultTimeout = 30 * time.Second

// publicGetPrefixes lists path prefixes that are served without
// authentication. GET requests to these never carry an Authorization header,
// even when a session token exists.
var publicGetPrefixes = []string{
	"/api/v1/services/public",
	"/api/v1/vehicles/public",
	"/uploads/",
	"/docs",
	"/swagger",
}

// TokenSource supplies the current bearer token, or "" when logged out.
// Implemented by the session manager.
type TokenSource interface {
	Token() string
}

// UnauthorizedFunc observes authorization failures. Each observer is invoked
// exactly once per failing request, before the error reaches the caller.
type UnauthorizedFunc func(status int, body []byte)

// Client is the configured HTTP transport. Construct once at startup with a
// resolved base URL.
type Client struct {
	base   string
	hc     *http.Client
	tokens TokenSource
	logger zerolog.Logger

	mu             sync.Mutex
	onUnauthorized []UnauthorizedFunc
}

// NewClient builds a transport for the given base URL (trailing slash
// stripped). A nil tokens source means no request is ever authenticated.
// A timeout <= 0 falls back to DefaultTimeout.
func NewClient(base string, tokens TokenSource, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		hc:     &http.Client{Timeout: timeout},
		tokens: tokens,
		logger: logger,
	}
}

// OnUnauthorized appends an observer for 401/403 responses. Observers
// accumulate: registering a second one does not displace the first.
func (c *Client) OnUnauthorized(fn UnauthorizedFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = append(c.onUnauthorized, fn)
}

// Get issues a GET and decodes the JSON response into out (out may be nil).
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// GetFirst tries candidate paths in order and returns the first success. The
// last error is surfaced when every candidate fails. This is a fixed ordered
// fallback for historically ambiguous routes, not a retry loop: no delays,
// no repeats.
func (c *Client) GetFirst(ctx context.Context, paths []string, out any) error {
	if len(paths) == 0 {
		return fmt.Errorf("httpapi: no candidate paths")
	}
	var lastErr error
	for _, p := range paths {
		if err := c.Get(ctx, p, out); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// Post issues a POST with a JSON body and decodes the response into out.
// Either may be nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	target, reqPath, err := c.resolve(path)
	if err != nil {
		return err
	}

	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("httpapi: encode body: %w", err)
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return fmt.Errorf("httpapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !isPublic(method, reqPath) && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(method, "transport").Inc()
		return fmt.Errorf("httpapi: %s %s: %w", method, reqPath, err)
	}
	defer resp.Body.Close()
	metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(method, "transport").Inc()
		return fmt.Errorf("httpapi: read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		metrics.UnauthorizedTotal.Inc()
		metrics.RequestsTotal.WithLabelValues(method, "error").Inc()
		c.notifyUnauthorized(resp.StatusCode, raw)
		return fmt.Errorf("%w: %w", domain.ErrUnauthorized, decodeError(resp.StatusCode, raw))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RequestsTotal.WithLabelValues(method, "error").Inc()
		return decodeError(resp.StatusCode, raw)
	}
	metrics.RequestsTotal.WithLabelValues(method, "ok").Inc()

	// 201/204 with an empty body means "nothing to decode", not an error:
	// callers uniformly check for absence instead of an empty string.
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpapi: decode response: %w", domain.ErrMalformedResponse)
	}
	return nil
}

// resolve turns a relative or absolute path into the full request URL plus
// the bare path component used for the public allowlist check.
func (c *Client) resolve(path string) (target, reqPath string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", fmt.Errorf("httpapi: bad path %q: %w", path, err)
	}
	if u.IsAbs() {
		return path, u.Path, nil
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base + path, u.Path, nil
}

func (c *Client) notifyUnauthorized(status int, body []byte) {
	c.mu.Lock()
	observers := make([]UnauthorizedFunc, len(c.onUnauthorized))
	copy(observers, c.onUnauthorized)
	c.mu.Unlock()
	for _, fn := range observers {
		fn(status, body)
	}
}

func isPublic(method, path string) bool {
	if method != http.MethodGet {
		return false
	}
	for _, prefix := range publicGetPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
