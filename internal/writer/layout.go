// internal/writer/layout.go
package writer

// ---- STATUS BLOCK LAYOUT (holding registers) ----
//
// Every slot is one register unless noted. Counters wider than 16 bits are
// clamped, except sent which spans two registers (hi, lo) and wraps.
const (
	SlotState             = 0
	SlotRetriesLeft       = 1
	SlotSentHi            = 2
	SlotSentLo            = 3
	SlotConnects          = 4
	SlotConnectFailures   = 5
	SlotWriteFailures     = 6
	SlotHandshakeFailures = 7
	SlotLastTickMicros    = 8

	// liveSlots are rewritten as the loop progresses; the rest is identity.
	liveSlots = 9

	// Slots 9..11 are RESERVED and written as zero.

	SlotDeviceNameStart = 12
	SlotDeviceNameSlots = 8
	DeviceNameMaxChars  = 2 * SlotDeviceNameSlots

	SlotsPerBlock = SlotDeviceNameStart + SlotDeviceNameSlots
)
