// internal/transport/tcp/client.go
package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// Delimiter terminates every frame on the wire.
const Delimiter byte = '\n'

// Config is minimal transport config.
type Config struct {
	Endpoint     string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// Dialer opens newline-framed TCP streams to one endpoint.
type Dialer struct {
	cfg Config
}

func NewDialer(cfg Config) (*Dialer, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("transport tcp: endpoint required")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	return &Dialer{cfg: cfg}, nil
}

// Dial performs one connection attempt.
func (d *Dialer) Dial(ctx context.Context) (*Conn, error) {
	nd := net.Dialer{Timeout: d.cfg.DialTimeout}
	conn, err := nd.DialContext(ctx, "tcp", d.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("transport tcp: dial: %w", err)
	}
	return &Conn{conn: conn, writeTimeout: d.cfg.WriteTimeout}, nil
}

// Conn is one persistent TCP stream. 1 message = 1 line.
type Conn struct {
	conn         net.Conn
	writeTimeout time.Duration
}

// Send writes p followed by Delimiter.
// Payloads must not contain the delimiter themselves.
func (c *Conn) Send(p []byte) error {
	frame := make([]byte, 0, len(p)+1)
	frame = append(frame, p...)
	frame = append(frame, Delimiter)

	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := writeAll(c.conn, frame); err != nil {
		return fmt.Errorf("transport tcp: write: %w", err)
	}
	return nil
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
