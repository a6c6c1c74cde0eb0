// internal/status/encode.go
package status

import "go.uber.org/zap"

// Encode converts a Snapshot into structured log fields.
// No IO. No side effects.
func Encode(s Snapshot) []zap.Field {
	return []zap.Field{
		zap.Stringer("state", s.State),
		zap.Int("retries_left", s.RetriesLeft),
		zap.Uint64("connects", s.Connects),
		zap.Uint64("connect_failures", s.ConnectFailures),
		zap.Uint64("handshake_failures", s.HandshakeFailures),
		zap.Uint64("sent", s.Sent),
		zap.Uint64("write_failures", s.WriteFailures),
	}
}
