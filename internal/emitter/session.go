// internal/emitter/session.go
package emitter

import "github.com/tamzrod/telemetry-emitter/internal/transport"

// session is exactly one of disconnected or connected.
// The loop switches on the concrete type; there is no nil handle to check.
type session interface {
	isSession()
}

type disconnected struct{}

type connected struct {
	conn transport.Conn
}

func (disconnected) isSession() {}
func (connected) isSession()    {}
