// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry talks to the Elements registry API: authenticated GET
// and PATCH calls through a fixed proxy, response classification, bounded
// retries, and feed pagination.
package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/elements-sync/internal/httputil"
	"github.com/pdiddy/elements-sync/pkg/types"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultMaxAttempts = 3
	DefaultMaxPages    = 500
	DefaultUserAgent   = "elements-sync/0.1"
)

// Client issues authenticated, rate-limited calls to the registry.
type Client struct {
	cfg        types.RegistryConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for retry and call diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient builds a client from cfg, filling defaults for zero values.
func NewClient(cfg types.RegistryConfig, opts ...Option) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	if cfg.ProxyURL != "" {
		u, err := url.Parse(cfg.ProxyURL)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL %q", cfg.ProxyURL)
		}
		transport.Proxy = http.ProxyURL(u)
	}

	var rt http.RoundTripper = transport
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		rt = &limitedTransport{base: transport, limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)}
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: rt},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MaxPages returns the configured pager bound.
func (c *Client) MaxPages() int { return c.cfg.MaxPages }

// AuthorURL returns the user document URL for a registry author ID.
func (c *Client) AuthorURL(authorID string) string {
	return c.cfg.Endpoint + "/users/" + url.PathEscape(authorID)
}

// AuthorPublicationsURL returns the first feed page of an author's publications.
func AuthorPublicationsURL(authorURL string) string {
	return authorURL + "/publications?&detail=full"
}

// PublicationURL returns the detail URL of a publication; status updates
// are PATCHed to the same URL.
func (c *Client) PublicationURL(paperID string) string {
	return c.cfg.Endpoint + "/publications/" + url.PathEscape(paperID)
}

// Fetch GETs target, retrying transient failures up to the configured attempt
// cap, and returns the response body.
func (c *Client) Fetch(ctx context.Context, target string) (string, error) {
	_, body, err := c.do(ctx, http.MethodGet, target, nil, c.cfg.MaxAttempts)
	return body, err
}

// Submit PATCHes payload to target with the same retry policy as Fetch.
func (c *Client) Submit(ctx context.Context, target string, payload []byte) (string, error) {
	_, body, err := c.do(ctx, http.MethodPatch, target, payload, c.cfg.MaxAttempts)
	return body, err
}

// SubmitOnce PATCHes payload to target exactly once. It returns the upstream
// status (zero when no response arrived) and body alongside the classified
// error, so callers that audit every attempt can record them.
func (c *Client) SubmitOnce(ctx context.Context, target string, payload []byte) (int, string, error) {
	return c.do(ctx, http.MethodPatch, target, payload, 1)
}

func (c *Client) do(ctx context.Context, method, target string, payload []byte, attempts int) (int, string, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, "", fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "text/xml")
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, httputil.Policy{
		MaxAttempts: attempts,
		BaseDelay:   c.cfg.BackoffBase,
		Logger:      c.logger,
	})
	if err != nil {
		if isTimeout(err) {
			return 0, "", &Error{Kind: KindTimeout, Method: method, URL: target, Err: err}
		}
		return 0, "", fmt.Errorf("registry %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return 0, "", &Error{Kind: KindTimeout, Method: method, URL: target, Err: err}
		}
		return resp.StatusCode, "", fmt.Errorf("reading registry response: %w", err)
	}
	text := string(data)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.StatusCode, text, nil
	}

	kind := KindPermanent
	if httputil.RetryableStatus(resp.StatusCode) {
		kind = KindRetry
	}
	c.logger.Debug("registry call failed",
		"method", method, "url", target, "status", resp.StatusCode, "kind", kind.String())
	return resp.StatusCode, text, &Error{
		Kind:       kind,
		Method:     method,
		URL:        target,
		StatusCode: resp.StatusCode,
		Body:       text,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// limitedTransport waits on a token bucket before every round trip, so each
// retry attempt is rate limited as well.
type limitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return t.base.RoundTrip(req)
}
