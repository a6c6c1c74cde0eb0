// internal/collector/mailbox/types.go
package mailbox

import (
	"time"

	"github.com/tamzrod/telemetry-emitter/internal/reading"
)

// PollResult is the outcome of one poll cycle.
type PollResult struct {
	At time.Time

	// Fresh is set when a new frame was read and decoded into Reading.
	Fresh   bool
	Seq     uint16
	Reading reading.Reading

	// Handshake is set when the new frame was the session handshake; Reading is empty.
	Handshake bool

	// Skipped counts frames overwritten before this poll could read them.
	Skipped uint16

	Err error // non-nil means the poll cycle failed
}
