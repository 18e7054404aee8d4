package network

import (
	"fmt"
	"time"
)

// ErrConnectionRejected is returned when the server refuses the hello
type ErrConnectionRejected struct {
	Reason string
}

func (e *ErrConnectionRejected) Error() string {
	return fmt.Sprintf("connection rejected by server: %s", e.Reason)
}

// ErrConnectTimeout is returned when the server does not answer the hello in time
type ErrConnectTimeout struct{}

func (e *ErrConnectTimeout) Error() string {
	return "timed out waiting for server accept"
}

// ErrServerTimeout is reported when an established session stops hearing
// from the server, e.g. after the server reaped the client or restarted.
type ErrServerTimeout struct {
	Silence time.Duration
}

func (e *ErrServerTimeout) Error() string {
	return fmt.Sprintf("no message from server for %v", e.Silence)
}
