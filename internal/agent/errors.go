package agent

import (
	"errors"
	"fmt"
)

// ErrNoSession is returned when a session-turn operation is invoked without
// an open session. It indicates a caller programming error, never a
// transient condition.
var ErrNoSession = errors.New("no active session")

// ErrSessionOpen is returned when StartSession is invoked while a session is
// already established. Close the existing session first.
var ErrSessionOpen = errors.New("session already open")

// ConnectionError is a transport-level failure: connection refused, timeout,
// or a generic I/O fault while opening or maintaining a channel to the
// remote service. For blocking calls, streaming setup, and session opening
// it has already been retried before surfacing.
type ConnectionError struct {
	// Op names the failing operation.
	Op string
	// Agent identifies the originating agent, for diagnostics.
	Agent string
	// Err is the underlying failure, preserved unchanged.
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %s: connection failure: %v", e.Agent, e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// OperationError is an application-level failure: a malformed request or a
// service-side rejection. It is never retried.
type OperationError struct {
	Op    string
	Agent string
	Err   error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s: operation failure: %v", e.Agent, e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }
