package messaging

import (
	"errors"
	"fmt"
)

var (
	// ErrShutdownInProgress is returned by Start while a previous Stop has not completed.
	ErrShutdownInProgress = errors.New("shutdown in progress")

	// ErrAlreadyStarted is returned by Start when the Connection already has a receiver running.
	ErrAlreadyStarted = errors.New("connection already started")

	// ErrReservedPayload is returned by Send for the handshake Sentinel.
	ErrReservedPayload = errors.New("payload is reserved for the handshake")

	// ErrClosed is returned by sockets that have been closed.
	ErrClosed = errors.New("socket closed")
)

// ConnectionError is returned by Start when the sockets could not be opened. It is never
// retried internally; callers that expect the service to come up later should wrap Start
// in their own retry.
type ConnectionError struct {
	Op       string
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("messaging %s: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("messaging %s %s: %s", e.Op, e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
