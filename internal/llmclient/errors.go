package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

var ErrEmptyCompletion = errors.New("empty completion from model")

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// AuthError means the provider rejected the credentials. Fatal for the
// profile that produced it; never retried.
type AuthError struct {
	Provider string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: authentication rejected: %v", e.Provider, e.Err)
}
func (e *AuthError) Unwrap() error { return e.Err }

// RateLimitError is transient. RetryAfter is zero when the provider did not
// announce a delay.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited: %v", e.Provider, e.Err)
}
func (e *RateLimitError) Unwrap() error { return e.Err }

// UnavailableError marks 5xx-class provider failures. Transient, and the
// only class that also triggers fallback to an alternate profile.
type UnavailableError struct {
	Provider string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: provider unavailable: %v", e.Provider, e.Err)
}
func (e *UnavailableError) Unwrap() error { return e.Err }

// MalformedResponseError means the provider answered but the body was not
// usable (invalid JSON, no candidates). A bad model output is not a
// transport error, so it is never retried.
type MalformedResponseError struct {
	Provider string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Provider, e.Err)
}
func (e *MalformedResponseError) Unwrap() error { return e.Err }

// BlockedError means the provider refused to complete the request
// (safety finish reason). Permanent; surfaces to the safety-block path.
type BlockedError struct {
	Provider string
	Reason   string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s: completion blocked: %s", e.Provider, e.Reason)
}

// IsTransient reports whether err is worth retrying: rate limits,
// provider unavailability, timeouts. Auth, malformed-response, blocked and
// PermanentError-wrapped failures are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var pErr *PermanentError
	var aErr *AuthError
	var mErr *MalformedResponseError
	var bErr *BlockedError
	if errors.As(err, &pErr) || errors.As(err, &aErr) || errors.As(err, &mErr) || errors.As(err, &bErr) {
		return false
	}
	var rlErr *RateLimitError
	var uErr *UnavailableError
	if errors.As(err, &rlErr) || errors.As(err, &uErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nErr net.Error
	if errors.As(err, &nErr) && nErr.Timeout() {
		return true
	}
	return false
}
