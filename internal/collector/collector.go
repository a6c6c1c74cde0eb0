// internal/collector/collector.go
package collector

import (
	"bytes"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tamzrod/telemetry-emitter/internal/codec"
	"github.com/tamzrod/telemetry-emitter/internal/reading"
)

// Sink receives every decoded reading, in arrival order per connection.
// It is called from the connection's goroutine.
type Sink func(remote string, r reading.Reading)

// Handler is a WebSocket endpoint that reads emitter traffic back.
//
// The first message of a connection is treated as the handshake when it
// matches the configured bytes. Every other message is decoded with the
// codec; undecodable messages are logged and skipped.
type Handler struct {
	codec     codec.Codec
	handshake []byte
	sink      Sink
	log       *zap.Logger
	upgrader  websocket.Upgrader

	received atomic.Uint64
	rejected atomic.Uint64
}

// NewHandler creates a collector endpoint. An empty handshake disables recognition.
func NewHandler(c codec.Codec, handshake []byte, sink Sink, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if sink == nil {
		sink = func(string, reading.Reading) {}
	}
	return &Handler{
		codec:     c,
		handshake: handshake,
		sink:      sink,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Received is the number of readings handed to the sink.
func (h *Handler) Received() uint64 { return h.received.Load() }

// Rejected is the number of messages that failed to decode.
func (h *Handler) Rejected() uint64 { return h.rejected.Load() }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.Warn("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	defer conn.Close()

	remote := r.RemoteAddr
	log := h.log.With(zap.String("remote", remote))
	log.Info("emitter connected")

	first := true
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info("emitter disconnected")
			} else {
				log.Warn("emitter connection lost", zap.Error(err))
			}
			return
		}

		if first {
			first = false
			if len(h.handshake) > 0 && bytes.Equal(msg, h.handshake) {
				log.Debug("handshake received")
				continue
			}
		}

		rd, err := h.codec.Decode(msg)
		if err != nil {
			h.rejected.Add(1)
			log.Warn("decode failed, message skipped", zap.Int("bytes", len(msg)), zap.Error(err))
			continue
		}

		h.received.Add(1)
		h.sink(remote, rd)
	}
}

// Fields renders a reading as zap fields for logging sinks.
func Fields(r reading.Reading) []zap.Field {
	return []zap.Field{
		zap.String("ts", reading.FormatTimestamp(r.Timestamp)),
		zap.Float64("lat", r.GPS.Lat),
		zap.Float64("lon", r.GPS.Lon),
		zap.Float64s("accel", []float64{r.Accel.X, r.Accel.Y, r.Accel.Z}),
		zap.Float64s("gyro", []float64{r.Gyro.X, r.Gyro.Y, r.Gyro.Z}),
		zap.Float64s("mag", []float64{r.Mag.X, r.Mag.Y, r.Mag.Z}),
		zap.Uint32("force", r.Force),
		zap.Uint32("linear", r.Linear),
		zap.Uint32("string", r.String),
	}
}
