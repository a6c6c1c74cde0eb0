// internal/collector/mailbox/builder.go
package mailbox

import (
	"errors"
	"time"

	"github.com/goburrow/modbus"
	"go.uber.org/zap"

	"github.com/tamzrod/telemetry-emitter/internal/codec"
)

// Build constructs a Poller over a Modbus TCP connection.
// The handler reconnects on its own after a transport error, so a dead
// device only costs the ticks it is down.
func Build(cfg Config, c codec.Codec, log *zap.Logger) (*Poller, func() error, error) {
	if cfg.Endpoint == "" {
		return nil, nil, errors.New("mailbox: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	// fail fast at startup
	if err := h.Connect(); err != nil {
		return nil, nil, err
	}

	p, err := New(cfg, modbus.NewClient(h), c, log)
	if err != nil {
		_ = h.Close()
		return nil, nil, err
	}

	return p, h.Close, nil
}
