// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"errors"
	"fmt"
)

// Kind classifies a failed registry call.
type Kind int

const (
	// KindRetry is a transient upstream failure (409, 500, 504).
	KindRetry Kind = iota + 1
	// KindPermanent is any other non-2xx response.
	KindPermanent
	// KindTimeout means no response arrived within the call timeout.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindRetry:
		return "retry"
	case KindPermanent:
		return "permanent"
	case KindTimeout:
		return "timeout"
	}
	return "unknown"
}

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrRetry     = errors.New("registry: transient failure")
	ErrPermanent = errors.New("registry: permanent failure")
	ErrTimeout   = errors.New("registry: request timed out")

	// ErrTooManyPages stops a pager that exceeded its page bound.
	ErrTooManyPages = errors.New("registry: too many pages")
)

// Error describes a failed registry call.
type Error struct {
	Kind       Kind
	Method     string
	URL        string
	StatusCode int    // zero for timeouts
	Body       string // upstream response body, if any
	Err        error  // underlying transport error, if any
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindTimeout:
		return fmt.Sprintf("registry %s %s: timed out: %v", e.Method, e.URL, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("registry %s %s: %s failure (HTTP %d)", e.Method, e.URL, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("registry %s %s: %s failure: %v", e.Method, e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrRetry:
		return e.Kind == KindRetry
	case ErrPermanent:
		return e.Kind == KindPermanent
	case ErrTimeout:
		return e.Kind == KindTimeout
	}
	return false
}

// IsRetry reports whether err is a transient upstream failure.
func IsRetry(err error) bool { return errors.Is(err, ErrRetry) }

// IsPermanent reports whether err is a non-retryable upstream failure.
func IsPermanent(err error) bool { return errors.Is(err, ErrPermanent) }

// IsTimeout reports whether err is a call that timed out.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// StatusCode returns the upstream status carried by err, or 0.
func StatusCode(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.StatusCode
	}
	return 0
}
