// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	"github.com/goburrow/modbus"
)

// Config locates the status block on a Modbus TCP device.
type Config struct {
	Endpoint   string
	UnitID     uint8
	Address    uint16
	DeviceName string
	Timeout    time.Duration
}

// Build connects to the status device and returns the block writer with its closer.
// The handler reconnects on its own after a transport error.
func Build(cfg Config) (*StatusBlockWriter, func() error, error) {
	if cfg.Endpoint == "" {
		return nil, nil, errors.New("status writer: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, nil, err
	}

	sw, err := NewStatusBlockWriter(modbus.NewClient(h), cfg.Address, cfg.DeviceName)
	if err != nil {
		_ = h.Close()
		return nil, nil, err
	}

	return sw, h.Close, nil
}
