// internal/transport/websocket/client.go
package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Config is minimal transport config.
type Config struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	Header           http.Header
}

// Dialer opens WebSocket connections to one collector URL.
type Dialer struct {
	cfg    Config
	dialer websocket.Dialer
}

func NewDialer(cfg Config) (*Dialer, error) {
	if cfg.URL == "" {
		return nil, errors.New("transport websocket: url required")
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}

	return &Dialer{
		cfg: cfg,
		dialer: websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}, nil
}

// Dial performs one connection attempt.
func (d *Dialer) Dial(ctx context.Context) (*Conn, error) {
	ws, resp, err := d.dialer.DialContext(ctx, d.cfg.URL, d.cfg.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("transport websocket: dial %s: status %d: %w", d.cfg.URL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("transport websocket: dial %s: %w", d.cfg.URL, err)
	}

	c := &Conn{
		ws:           ws,
		writeTimeout: d.cfg.WriteTimeout,
		readDone:     make(chan struct{}),
	}
	go c.drain()

	return c, nil
}

// Conn is one WebSocket session. Payloads go out as binary messages.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration
	readDone     chan struct{}
}

// Send writes p as a single binary message.
func (c *Conn) Send(p []byte) error {
	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return fmt.Errorf("transport websocket: write: %w", err)
	}
	return nil
}

// Close sends a normal-closure frame and tears down the socket.
func (c *Conn) Close() error {
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "emitter closing connection")
	_ = c.ws.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))

	err := c.ws.Close()
	<-c.readDone
	return err
}

// drain services inbound frames (ping, close) and discards data messages.
// The emitter never reads from the collector.
func (c *Conn) drain() {
	defer close(c.readDone)
	for {
		if _, _, err := c.ws.NextReader(); err != nil {
			return
		}
	}
}
