// internal/transport/transport.go
package transport

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupportedScheme is returned by Build when forward_addr names no known transport.
var ErrUnsupportedScheme = errors.New("transport: unsupported scheme")

// Conn is one live, stream-ordered connection to the collector.
// It is owned by a single goroutine; implementations need not be safe for concurrent Send.
type Conn interface {
	// Send writes one complete message. A non-nil error means the connection is unusable.
	Send(p []byte) error
	// Close releases the connection. Callers treat it as best-effort.
	Close() error
}

// Dialer opens a fresh Conn on every call. ONE attempt per call, no retries.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// DialFunc adapts a function to Dialer.
type DialFunc func(ctx context.Context) (Conn, error)

func (f DialFunc) Dial(ctx context.Context) (Conn, error) { return f(ctx) }

// Options are the transport-neutral knobs shared by every scheme.
type Options struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}
