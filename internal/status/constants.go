// internal/status/constants.go
package status

// State is the connection session state as published to observers.
// Numeric values are exported as the connection_state gauge and MUST NOT change.
type State uint16

const (
	// StateDisconnected: no live transport; dialing or backing off.
	StateDisconnected State = 0

	// StateConnected: a transport is live and ticks are being emitted.
	StateConnected State = 1

	// StateTerminated: the retry budget ran out. Terminal.
	StateTerminated State = 2
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
