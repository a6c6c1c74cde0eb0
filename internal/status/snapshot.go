// internal/status/snapshot.go
package status

import "time"

// Snapshot is what the loop publishes after every transition and tick.
// Counters are cumulative since process start.
type Snapshot struct {
	State       State
	RetriesLeft int

	Connects          uint64
	ConnectFailures   uint64
	HandshakeFailures uint64
	Sent              uint64
	WriteFailures     uint64

	// LastTick is the generate+encode+write time of the most recent successful tick.
	LastTick time.Duration
}

// Writer is the delivery-only contract for status.
// It receives a snapshot and must not block the loop.
type Writer interface {
	WriteStatus(s Snapshot)
}

// Nop discards snapshots.
type Nop struct{}

func (Nop) WriteStatus(Snapshot) {}

// Multi fans one snapshot out to several writers, in order.
type Multi []Writer

func (m Multi) WriteStatus(s Snapshot) {
	for _, w := range m {
		w.WriteStatus(s)
	}
}
