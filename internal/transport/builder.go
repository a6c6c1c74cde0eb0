// internal/transport/builder.go
package transport

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	tmodbus "github.com/tamzrod/telemetry-emitter/internal/transport/modbus"
	ttcp "github.com/tamzrod/telemetry-emitter/internal/transport/tcp"
	tws "github.com/tamzrod/telemetry-emitter/internal/transport/websocket"
)

// Supported forward_addr schemes.
const (
	SchemeWS     = "ws"
	SchemeWSS    = "wss"
	SchemeTCP    = "tcp"
	SchemeModbus = "modbus"
)

// Schemes lists every scheme Build accepts.
func Schemes() []string {
	return []string{SchemeModbus, SchemeTCP, SchemeWS, SchemeWSS}
}

// Build constructs a Dialer for forwardAddr.
// Nothing is dialed here; the first connection attempt belongs to the caller's loop.
func Build(forwardAddr string, opts Options) (Dialer, error) {
	u, err := url.Parse(forwardAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: parse forward_addr: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("transport: forward_addr %q has no host", forwardAddr)
	}

	switch strings.ToLower(u.Scheme) {
	case SchemeWS, SchemeWSS:
		d, err := tws.NewDialer(tws.Config{
			URL:              forwardAddr,
			HandshakeTimeout: opts.DialTimeout,
			WriteTimeout:     opts.WriteTimeout,
		})
		if err != nil {
			return nil, err
		}
		return adapt(d.Dial), nil

	case SchemeTCP:
		d, err := ttcp.NewDialer(ttcp.Config{
			Endpoint:     u.Host,
			DialTimeout:  opts.DialTimeout,
			WriteTimeout: opts.WriteTimeout,
		})
		if err != nil {
			return nil, err
		}
		return adapt(d.Dial), nil

	case SchemeModbus:
		cfg, err := modbusConfig(u, opts)
		if err != nil {
			return nil, err
		}
		d, err := tmodbus.NewDialer(cfg)
		if err != nil {
			return nil, err
		}
		return adapt(d.Dial), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// adapt lifts a concrete dial func to a Dialer.
// A failed dial yields an untyped nil Conn, never a typed nil pointer.
func adapt[C Conn](dial func(context.Context) (C, error)) Dialer {
	return DialFunc(func(ctx context.Context) (Conn, error) {
		c, err := dial(ctx)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// modbusConfig reads unit and mailbox address from the query string:
// modbus://host:502?unit=1&address=100
func modbusConfig(u *url.URL, opts Options) (tmodbus.Config, error) {
	cfg := tmodbus.Config{
		Endpoint: u.Host,
		UnitID:   1,
		Timeout:  opts.WriteTimeout,
	}

	q := u.Query()
	if v := q.Get("unit"); v != "" {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return cfg, fmt.Errorf("transport: modbus unit %q: %w", v, err)
		}
		cfg.UnitID = uint8(n)
	}
	if v := q.Get("address"); v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return cfg, fmt.Errorf("transport: modbus address %q: %w", v, err)
		}
		cfg.Address = uint16(n)
	}

	return cfg, nil
}
