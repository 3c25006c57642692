// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outbound pushes "full text requested" status updates to the
// registry. Every PATCH attempt is written to the audit log, and retries
// of a transient failure are chained to the attempt they follow.
package outbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/elements-sync/internal/elements"
	"github.com/pdiddy/elements-sync/internal/registry"
	"github.com/pdiddy/elements-sync/pkg/types"
)

// RetryBaseDelay is the wait before the first retry when the config sets
// none. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const (
	// DefaultMaxRetries is the number of retries chained after the first attempt.
	DefaultMaxRetries = 4

	// maxChainDepth bounds any retry chain regardless of configuration.
	maxChainDepth = 16

	defaultConcurrency = 4
)

// ErrRetriesExhausted means the registry still reported a transient
// failure after the last allowed retry.
var ErrRetriesExhausted = errors.New("outbound: retries exhausted")

// Submitter sends a single PATCH to the registry.
type Submitter interface {
	SubmitOnce(ctx context.Context, url string, payload []byte) (int, string, error)
	PublicationURL(paperID string) string
}

// AuditLog stores outbound calls.
type AuditLog interface {
	CreateOutboundCall(ctx context.Context, c types.OutboundCall) (types.OutboundCall, error)
	AttachResponse(ctx context.Context, id string, status *int, body string) error
	UnansweredCalls(ctx context.Context) ([]types.OutboundCall, error)
	RetryChain(ctx context.Context, id string, maxDepth int) ([]types.OutboundCall, error)
}

// Updater sends status updates and records every attempt.
type Updater struct {
	reg    Submitter
	audit  AuditLog
	cfg    types.OutboundConfig
	logger *slog.Logger
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
}

// Option configures an Updater.
type Option func(*Updater)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(u *Updater) { u.logger = l }
}

// WithClock sets the time source stamped into update documents.
func WithClock(now func() time.Time) Option {
	return func(u *Updater) { u.now = now }
}

// NewUpdater returns an updater submitting through reg and logging to audit.
func NewUpdater(reg Submitter, audit AuditLog, cfg types.OutboundConfig, opts ...Option) *Updater {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.MaxRetries > maxChainDepth {
		cfg.MaxRetries = maxChainDepth
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	u := &Updater{
		reg:    reg,
		audit:  audit,
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// SendStatusUpdate marks the publication "full text requested" in the
// registry on behalf of username.
func (u *Updater) SendStatusUpdate(ctx context.Context, paperID, username string) error {
	payload, err := elements.BuildStatusUpdate(username, u.now())
	if err != nil {
		return fmt.Errorf("building status update for %s: %w", paperID, err)
	}
	return u.send(ctx, u.reg.PublicationURL(paperID), payload, "", 0)
}

// send submits payload, retrying transient failures. Each attempt is a new
// audit row whose retry_of names the previous attempt. depth is the number
// of links already behind retryOf.
func (u *Updater) send(ctx context.Context, url string, payload []byte, retryOf string, depth int) error {
	base := u.cfg.BackoffBase
	if base <= 0 {
		base = RetryBaseDelay
	}
	logger := u.logger.With("url", url)

	for retry := 0; ; retry++ {
		if depth > maxChainDepth {
			return fmt.Errorf("%w: retry chain for %s exceeds depth %d", ErrRetriesExhausted, url, maxChainDepth)
		}

		call, err := u.audit.CreateOutboundCall(ctx, types.OutboundCall{
			RequestURL: url,
			RequestXML: string(payload),
			RetryOf:    retryOf,
		})
		if err != nil {
			return fmt.Errorf("recording outbound call: %w", err)
		}

		status, body, sendErr := u.reg.SubmitOnce(ctx, url, payload)
		var code *int
		if status != 0 {
			code = &status
		}
		if err := u.audit.AttachResponse(ctx, call.ID, code, body); err != nil {
			return fmt.Errorf("recording response: %w", err)
		}

		if sendErr == nil {
			logger.Info("status update accepted", "call_id", call.ID, "status", status, "attempt", retry+1)
			return nil
		}
		if !registry.IsRetry(sendErr) {
			logger.Warn("status update failed", "call_id", call.ID, "status", status, "error", sendErr)
			return fmt.Errorf("status update to %s: %w", url, sendErr)
		}
		if retry >= u.cfg.MaxRetries {
			logger.Error("status update retries exhausted", "call_id", call.ID, "status", status, "attempts", retry+1)
			return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, retry+1, sendErr)
		}

		backoff := base << retry
		logger.Warn("status update will be retried",
			"call_id", call.ID, "status", status, "attempt", retry+1, "backoff", backoff)
		if err := u.sleep(ctx, backoff); err != nil {
			return err
		}
		retryOf = call.ID
		depth++
	}
}

// ResendResult reports one replayed call.
type ResendResult struct {
	CallID string
	URL    string
	Err    error
}

// ResendUnanswered replays every call that never received a response.
// Each replay starts a retry chain linked to the unanswered call. Replays
// run concurrently up to the configured limit; one failure does not stop
// the rest.
func (u *Updater) ResendUnanswered(ctx context.Context) ([]ResendResult, error) {
	calls, err := u.audit.UnansweredCalls(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]ResendResult, len(calls))
	var g errgroup.Group
	g.SetLimit(u.cfg.Concurrency)
	for i, c := range calls {
		g.Go(func() error {
			results[i] = ResendResult{CallID: c.ID, URL: c.RequestURL, Err: u.resend(ctx, c)}
			return nil
		})
	}
	g.Wait()
	return results, nil
}

func (u *Updater) resend(ctx context.Context, c types.OutboundCall) error {
	chain, err := u.audit.RetryChain(ctx, c.ID, maxChainDepth)
	if err != nil {
		return err
	}
	return u.send(ctx, c.RequestURL, []byte(c.RequestXML), c.ID, len(chain))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
