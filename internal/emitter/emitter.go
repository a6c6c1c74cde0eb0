// internal/emitter/emitter.go
package emitter

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/telemetry-emitter/internal/codec"
	"github.com/tamzrod/telemetry-emitter/internal/reading"
	"github.com/tamzrod/telemetry-emitter/internal/status"
	"github.com/tamzrod/telemetry-emitter/internal/transport"
)

// DefaultRetryBackoff is the pause between failed connection attempts.
const DefaultRetryBackoff = time.Second

// ErrInvalidConfig is returned by New for unusable loop settings.
var ErrInvalidConfig = errors.New("emitter: invalid config")

// Config is the minimal runtime config the loop needs.
type Config struct {
	// Interval is the steady-state tick period, anchored at tick start.
	Interval time.Duration

	// MaxTries is the number of additional connection attempts allowed after a failure.
	// It is restored in full on every successful connection.
	MaxTries int

	// RetryBackoff is slept after each failed attempt that still has budget. Zero means DefaultRetryBackoff.
	RetryBackoff time.Duration

	// Handshake is sent once right after every successful connect. Empty disables it.
	Handshake []byte
}

// Emitter is the paced connection loop.
// It owns the transport handle and the random source; it is not safe for concurrent use.
type Emitter struct {
	cfg    Config
	dialer transport.Dialer
	gen    *reading.Generator
	codec  codec.Codec

	rng    *rand.Rand
	log    *zap.Logger
	status status.Writer
	now    func() time.Time
	sleep  func(time.Duration)

	snap status.Snapshot
}

// Option customizes an Emitter.
type Option func(*Emitter)

// WithLogger sets the structured logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Emitter) {
		if l != nil {
			e.log = l
		}
	}
}

// WithStatusWriter receives a snapshot after every transition and tick.
func WithStatusWriter(w status.Writer) Option {
	return func(e *Emitter) {
		if w != nil {
			e.status = w
		}
	}
}

// WithRand injects the random source handed to the generator.
func WithRand(r *rand.Rand) Option {
	return func(e *Emitter) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithClock replaces the time source and the blocking sleep used for pacing and backoff.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(e *Emitter) {
		if now != nil {
			e.now = now
		}
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// New creates a loop with immutable config. Nothing is dialed until Run.
func New(cfg Config, dialer transport.Dialer, gen *reading.Generator, c codec.Codec, opts ...Option) (*Emitter, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be > 0", ErrInvalidConfig)
	}
	if cfg.MaxTries < 0 {
		return nil, fmt.Errorf("%w: max_tries must be >= 0", ErrInvalidConfig)
	}
	if cfg.RetryBackoff < 0 {
		return nil, fmt.Errorf("%w: retry backoff must be >= 0", ErrInvalidConfig)
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	if dialer == nil {
		return nil, fmt.Errorf("%w: dialer required", ErrInvalidConfig)
	}
	if gen == nil {
		return nil, fmt.Errorf("%w: generator required", ErrInvalidConfig)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: codec required", ErrInvalidConfig)
	}

	e := &Emitter{
		cfg:    cfg,
		dialer: dialer,
		gen:    gen,
		codec:  c,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		log:    zap.NewNop(),
		status: status.Nop{},
		now:    time.Now,
		sleep:  time.Sleep,
		snap: status.Snapshot{
			State:       status.StateDisconnected,
			RetriesLeft: cfg.MaxTries,
		},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Snapshot returns the latest published status.
// Only meaningful once Run has returned, or from the goroutine running it.
func (e *Emitter) Snapshot() status.Snapshot {
	return e.snap
}

func (e *Emitter) publish() {
	e.status.WriteStatus(e.snap)
}
