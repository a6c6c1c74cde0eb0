// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"math"

	"github.com/tamzrod/telemetry-emitter/internal/status"
)

// registerWriter is the slice of modbus.Client the status block needs.
type registerWriter interface {
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// StatusBlockWriter delivers loop snapshots into a Modbus status block.
// It writes verbatim. No logic beyond change detection.
type StatusBlockWriter struct {
	cli      registerWriter
	base     uint16
	nameRegs []uint16

	needFull bool
	last     [liveSlots]uint16
}

// NewStatusBlockWriter builds a writer for the block starting at base.
// The first successful write re-asserts the full block, device name included.
func NewStatusBlockWriter(cli registerWriter, base uint16, deviceName string) (*StatusBlockWriter, error) {
	if cli == nil {
		return nil, errors.New("status writer: client required")
	}
	if int(base)+SlotsPerBlock-1 > math.MaxUint16 {
		return nil, fmt.Errorf("status writer: block at %d overflows address space", base)
	}
	return &StatusBlockWriter{
		cli:      cli,
		base:     base,
		nameRegs: encodeDeviceNameRegs(deviceName),
		needFull: true,
	}, nil
}

// Write delivers one snapshot.
// Only the span of changed live slots is written; on any failure the next
// successful call re-asserts the full block.
func (sw *StatusBlockWriter) Write(s status.Snapshot) error {
	live := liveRegs(s)

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		regs := make([]uint16, SlotsPerBlock)
		copy(regs, live[:])
		copy(regs[SlotDeviceNameStart:], sw.nameRegs)

		if err := sw.write(sw.base, regs); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}

		sw.needFull = false
		sw.last = live
		return nil
	}

	first, last := -1, -1
	for i := range live {
		if live[i] != sw.last[i] {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return nil
	}

	if err := sw.write(sw.base+uint16(first), live[first:last+1]); err != nil {
		// Partial failure introduces doubt: re-assert on next success.
		sw.needFull = true
		return fmt.Errorf("status writer: slots %d..%d write failed: %w", first, last, err)
	}

	sw.last = live
	return nil
}

func (sw *StatusBlockWriter) write(addr uint16, regs []uint16) error {
	_, err := sw.cli.WriteMultipleRegisters(addr, uint16(len(regs)), packRegs(regs))
	if err != nil {
		sw.needFull = true
	}
	return err
}

func liveRegs(s status.Snapshot) [liveSlots]uint16 {
	var r [liveSlots]uint16

	r[SlotState] = uint16(s.State)
	r[SlotRetriesLeft] = clamp16(uint64(max(s.RetriesLeft, 0)))
	r[SlotSentHi] = uint16(s.Sent >> 16)
	r[SlotSentLo] = uint16(s.Sent)
	r[SlotConnects] = clamp16(s.Connects)
	r[SlotConnectFailures] = clamp16(s.ConnectFailures)
	r[SlotWriteFailures] = clamp16(s.WriteFailures)
	r[SlotHandshakeFailures] = clamp16(s.HandshakeFailures)
	r[SlotLastTickMicros] = clamp16(uint64(max(s.LastTick.Microseconds(), 0)))

	return r
}

// HARD INVARIANT: counters saturate, they never wrap.
func clamp16(v uint64) uint16 {
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}

func packRegs(regs []uint16) []byte {
	out := make([]byte, 2*len(regs))
	for i, v := range regs {
		out[2*i] = byte(v >> 8)
		out[2*i+1] = byte(v)
	}
	return out
}

// encodeDeviceNameRegs packs up to 16 ASCII characters into 8 uint16 registers.
// Each register stores two ASCII bytes in big-endian order.
func encodeDeviceNameRegs(name string) []uint16 {
	out := make([]uint16, SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > DeviceNameMaxChars {
		b = b[:DeviceNameMaxChars]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < DeviceNameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}
