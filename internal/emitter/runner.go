// internal/emitter/runner.go
package emitter

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/telemetry-emitter/internal/status"
)

// Run drives the loop on the calling goroutine until the retry budget is exhausted.
//
// Budget exhaustion is a normal termination and returns nil.
// ctx is observed between iterations only: pacing and backoff sleeps are not interrupted.
// On cancellation the live transport, if any, is closed and ctx.Err() is returned.
func (e *Emitter) Run(ctx context.Context) error {
	var s session = disconnected{}
	tries := e.cfg.MaxTries

	e.publish()

	for {
		if err := ctx.Err(); err != nil {
			if c, ok := s.(connected); ok {
				_ = c.conn.Close()
			}
			e.snap.State = status.StateDisconnected
			e.publish()
			return err
		}

		switch cur := s.(type) {
		case connected:
			s = e.tick(cur)

		case disconnected:
			next, done := e.connect(ctx, &tries)
			if done {
				return nil
			}
			s = next

		default:
			panic(fmt.Sprintf("emitter: unknown session %T", s))
		}
	}
}

// tick is one Connected iteration: generate, encode, write, pace.
// A write failure drops the reading and the connection; no pacing follows it.
func (e *Emitter) tick(cur connected) session {
	start := e.now()

	r := e.gen.Generate(e.rng)

	payload, err := e.codec.Encode(r)
	if err != nil {
		// Not a transport fault: drop this reading, keep the session and the cadence.
		e.log.Error("encode failed, reading dropped", zap.Error(err))
		e.pace(start)
		return cur
	}

	if err := cur.conn.Send(payload); err != nil {
		e.log.Warn("failed to send to collector, reconnecting", zap.Error(err))
		_ = cur.conn.Close()

		e.snap.WriteFailures++
		e.snap.State = status.StateDisconnected
		e.publish()
		return disconnected{}
	}

	e.snap.Sent++
	e.snap.LastTick = e.now().Sub(start)
	e.publish()

	e.pace(start)
	return cur
}

// pace sleeps off whatever is left of the interval since start.
// An overrun proceeds immediately; there is no catch-up and no negative sleep.
func (e *Emitter) pace(start time.Time) {
	if elapsed := e.now().Sub(start); elapsed < e.cfg.Interval {
		e.sleep(e.cfg.Interval - elapsed)
	}
}

// connect is one Disconnected iteration.
// It reports done when the budget was already spent and this attempt failed too.
func (e *Emitter) connect(ctx context.Context, tries *int) (session, bool) {
	conn, err := e.dialer.Dial(ctx)
	if err != nil {
		e.snap.ConnectFailures++
		e.log.Warn("failed to connect to collector", zap.Error(err), zap.Int("retries_left", *tries))

		if ctx.Err() != nil {
			return disconnected{}, false
		}

		if *tries > 0 {
			*tries--
			e.snap.RetriesLeft = *tries
			e.publish()

			e.log.Info("retrying", zap.Duration("backoff", e.cfg.RetryBackoff))
			e.sleep(e.cfg.RetryBackoff)
			return disconnected{}, false
		}

		e.snap.State = status.StateTerminated
		e.publish()
		e.log.Info("attempted max tries, exiting", status.Encode(e.snap)...)
		return nil, true
	}

	*tries = e.cfg.MaxTries
	e.snap.RetriesLeft = *tries
	e.snap.Connects++
	e.snap.State = status.StateConnected

	if len(e.cfg.Handshake) > 0 {
		if err := conn.Send(e.cfg.Handshake); err != nil {
			e.snap.HandshakeFailures++
			e.log.Error("failed to send handshake", zap.Error(err))
		}
	}

	e.publish()
	e.log.Info("connected to collector", zap.Uint64("connects", e.snap.Connects))
	return connected{conn: conn}, false
}
