package ai

import (
	"context"
	"errors"
	"net"
)

// transientError marks an error as a transport-level failure that is
// expected to sometimes resolve on retry.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

func (e *transientError) Transient() bool { return true }

// MarkTransient wraps err so that IsTransient reports true for it. Providers
// call this at the boundary for connection refusals, timeouts, and other
// generic I/O failures. A nil err returns nil.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err was classified as transient by a provider,
// or is a network/timeout failure by its own nature. Context cancellation is
// never transient: a canceled caller must not trigger retries.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var marked interface{ Transient() bool }
	if errors.As(err, &marked) {
		return marked.Transient()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}
