// internal/collector/mailbox/poller.go
package mailbox

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/telemetry-emitter/internal/codec"
	tmodbus "github.com/tamzrod/telemetry-emitter/internal/transport/modbus"
)

// maxReadRegs is the FC3 per-request limit.
const maxReadRegs = 125

// ErrTorn is reported when the sequence register moved while the payload was being read.
var ErrTorn = errors.New("mailbox: frame overwritten during read")

// Client is the slice of modbus.Client the poller needs.
type Client interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Endpoint string
	UnitID   uint8
	Address  uint16
	Interval time.Duration
	Timeout  time.Duration

	// Handshake frames are recognized and not decoded. Empty disables recognition.
	Handshake []byte
}

// Poller reads the register mailbox an emitter writes into.
// It tracks the last sequence seen; it is not safe for concurrent use.
type Poller struct {
	cfg    Config
	client Client
	codec  codec.Codec
	log    *zap.Logger

	primed  bool
	lastSeq uint16
}

// New creates a poller with immutable config.
func New(cfg Config, client Client, c codec.Codec, log *zap.Logger) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("mailbox: interval must be > 0")
	}
	if client == nil {
		return nil, errors.New("mailbox: client required")
	}
	if c == nil {
		return nil, errors.New("mailbox: codec required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{cfg: cfg, client: client, codec: c, log: log}, nil
}

// PollOnce performs exactly one poll cycle.
//
// The first successful cycle only records the current sequence; whatever
// the mailbox held before the poller started is not delivered.
func (p *Poller) PollOnce() PollResult {
	res := PollResult{At: time.Now()}

	seq, length, err := p.readHeader()
	if err != nil {
		res.Err = err
		return res
	}

	if !p.primed {
		p.primed = true
		p.lastSeq = seq
		return res
	}
	if seq == p.lastSeq {
		return res
	}

	payload, err := p.readPayload(length)
	if err != nil {
		res.Err = err
		return res
	}

	again, _, err := p.readHeader()
	if err != nil {
		res.Err = err
		return res
	}
	if again != seq {
		// lastSeq stays put so the next cycle reads the newer frame.
		res.Err = ErrTorn
		return res
	}

	res.Seq = seq
	res.Skipped = skipped(p.lastSeq, seq)
	p.lastSeq = seq

	if len(p.cfg.Handshake) > 0 && bytes.Equal(payload, p.cfg.Handshake) {
		res.Handshake = true
		return res
	}

	r, err := p.codec.Decode(payload)
	if err != nil {
		res.Err = fmt.Errorf("mailbox: decode seq %d: %w", seq, err)
		return res
	}

	res.Fresh = true
	res.Reading = r
	return res
}

// skipped counts the frames between prev and cur.
// A jump of half the counter range or more is a counter restart, not a loss.
func skipped(prev, cur uint16) uint16 {
	d := cur - prev
	if d == 0 || d >= 0x8000 {
		return 0
	}
	return d - 1
}

func (p *Poller) readHeader() (seq, length uint16, err error) {
	b, err := p.client.ReadHoldingRegisters(p.cfg.Address, tmodbus.HeaderRegs)
	if err != nil {
		return 0, 0, fmt.Errorf("mailbox: read header: %w", err)
	}
	if len(b) < 2*tmodbus.HeaderRegs {
		return 0, 0, fmt.Errorf("mailbox: short header: %d bytes", len(b))
	}
	return uint16(b[0])<<8 | uint16(b[1]), uint16(b[2])<<8 | uint16(b[3]), nil
}

func (p *Poller) readPayload(length uint16) ([]byte, error) {
	regs := (int(length) + 1) / 2
	start := int(p.cfg.Address) + tmodbus.HeaderRegs

	if start+regs-1 > 0xFFFF {
		return nil, fmt.Errorf("mailbox: %d byte frame overflows address space", length)
	}

	out := make([]byte, 0, 2*regs)
	for off := 0; off < regs; off += maxReadRegs {
		n := regs - off
		if n > maxReadRegs {
			n = maxReadRegs
		}

		b, err := p.client.ReadHoldingRegisters(uint16(start+off), uint16(n))
		if err != nil {
			return nil, fmt.Errorf("mailbox: read payload at %d: %w", start+off, err)
		}
		if len(b) < 2*n {
			return nil, fmt.Errorf("mailbox: short payload read at %d: %d bytes", start+off, len(b))
		}
		out = append(out, b[:2*n]...)
	}

	return out[:length], nil
}
