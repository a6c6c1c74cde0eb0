// internal/transport/modbus/client.go
package modbus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goburrow/modbus"
)

// ---- MAILBOX LAYOUT (holding registers) ----
//
// base+0   sequence counter (wraps)
// base+1   payload length in bytes
// base+2.. payload, two bytes per register, big-endian, zero padded
//
// Payload registers are written first and the header last, so a collector
// polling the sequence register only ever sees complete frames.

const (
	// HeaderRegs counts the sequence and length registers.
	HeaderRegs = 2

	// maxWriteRegs is the FC16 per-request limit.
	maxWriteRegs = 123

	// MaxPayload is bounded by the length register.
	MaxPayload = 0xFFFF
)

// registerClient is the slice of modbus.Client the mailbox needs.
type registerClient interface {
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
}

// Config is minimal transport config.
type Config struct {
	Endpoint string
	UnitID   uint8
	Address  uint16
	Timeout  time.Duration
}

// Dialer opens Modbus TCP sessions to one collector device.
//
// The sequence register belongs to the mailbox, not to a session: the
// counter lives here and carries across reconnects, so a reader never
// sees it repeat or run backwards while this process is alive.
type Dialer struct {
	cfg  Config
	open func() (registerClient, io.Closer, error)

	seeded bool
	seq    uint16
}

func NewDialer(cfg Config) (*Dialer, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("transport modbus: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}

	d := &Dialer{cfg: cfg}
	d.open = d.openTCP
	return d, nil
}

// Dial performs one connection attempt.
// goburrow connects synchronously; ctx is only checked before dialing.
// The first successful dial continues from the sequence already on the device.
func (d *Dialer) Dial(ctx context.Context) (*Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, closer, err := d.open()
	if err != nil {
		return nil, err
	}

	if !d.seeded {
		// best effort: an unreadable header starts the counter at zero
		if b, err := client.ReadHoldingRegisters(d.cfg.Address, 1); err == nil && len(b) >= 2 {
			d.seq = uint16(b[0])<<8 | uint16(b[1])
		}
		d.seeded = true
	}

	return &Conn{
		closer: closer,
		client: client,
		base:   d.cfg.Address,
		seq:    &d.seq,
	}, nil
}

func (d *Dialer) openTCP() (registerClient, io.Closer, error) {
	h := modbus.NewTCPClientHandler(d.cfg.Endpoint)
	h.Timeout = d.cfg.Timeout
	h.SlaveId = d.cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, nil, fmt.Errorf("transport modbus: connect: %w", err)
	}
	return modbus.NewClient(h), h, nil
}

// Conn is one Modbus TCP session writing into a register mailbox.
type Conn struct {
	closer io.Closer
	client registerClient
	base   uint16
	seq    *uint16 // shared with the Dialer
}

// Send writes p into the mailbox and bumps the sequence register.
func (c *Conn) Send(p []byte) error {
	writes, err := planWrites(c.base, p)
	if err != nil {
		return err
	}

	for _, w := range writes {
		if _, err := c.client.WriteMultipleRegisters(w.addr, w.qty, w.data); err != nil {
			return fmt.Errorf("transport modbus: write addr=%d qty=%d: %w", w.addr, w.qty, err)
		}
	}

	*c.seq++
	header := packRegisters([]uint16{*c.seq, uint16(len(p))})
	if _, err := c.client.WriteMultipleRegisters(c.base, HeaderRegs, header); err != nil {
		return fmt.Errorf("transport modbus: write header: %w", err)
	}
	return nil
}

func (c *Conn) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// ---- helpers (pure geometry) ----

type regWrite struct {
	addr uint16
	qty  uint16
	data []byte
}

// planWrites splits p into FC16-sized payload writes starting at base+2.
func planWrites(base uint16, p []byte) ([]regWrite, error) {
	if len(p) > MaxPayload {
		return nil, fmt.Errorf("transport modbus: payload %d bytes exceeds %d", len(p), MaxPayload)
	}

	data := p
	if len(data)%2 != 0 {
		data = make([]byte, len(p)+1)
		copy(data, p)
	}

	regs := len(data) / 2
	last := int(base) + HeaderRegs + regs - 1
	if last > 0xFFFF {
		return nil, fmt.Errorf("transport modbus: mailbox at %d cannot hold %d registers", base, regs)
	}

	var out []regWrite
	for off := 0; off < regs; off += maxWriteRegs {
		n := regs - off
		if n > maxWriteRegs {
			n = maxWriteRegs
		}
		out = append(out, regWrite{
			addr: base + HeaderRegs + uint16(off),
			qty:  uint16(n),
			data: data[off*2 : (off+n)*2],
		})
	}
	return out, nil
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
