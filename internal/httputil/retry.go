// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP retry loop shared by registry calls.
package httputil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// retryable responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 1 * time.Second

const defaultMaxAttempts = 3

// RetryableStatus reports whether the registry signalled a transient
// failure: 409 (edit conflict), 500, or 504.
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusConflict, http.StatusInternalServerError, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Policy configures DoWithRetry.
type Policy struct {
	// MaxAttempts is the total number of attempts, first call included.
	// Zero means the default (3).
	MaxAttempts int

	// BaseDelay is the first backoff; zero means RetryBaseDelay. The delay
	// doubles after every attempt.
	BaseDelay time.Duration

	// Retryable classifies status codes; nil means RetryableStatus.
	Retryable func(int) bool

	Logger *slog.Logger
}

// DoWithRetry executes an HTTP request and retries retryable statuses with
// exponential backoff: BaseDelay, 2*BaseDelay, 4*BaseDelay, ...
//
// Request bodies are rewound through req.GetBody on every attempt, so
// requests built with http.NewRequest over a bytes or strings reader can be
// retried. Transport errors are returned immediately. If the context is
// cancelled during a backoff wait the function returns ctx.Err(). After
// MaxAttempts the last retryable response is returned so the caller can
// inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, p Policy) (*http.Response, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	base := p.BaseDelay
	if base <= 0 {
		base = RetryBaseDelay
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = RetryableStatus
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for attempt := 1; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= maxAttempts {
			return resp, nil
		}

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := base << (attempt - 1)
		logger.Warn("retryable response, backing off",
			"method", req.Method, "url", req.URL.String(), "status", resp.StatusCode,
			"attempt", attempt, "max_attempts", maxAttempts, "backoff", backoff)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
