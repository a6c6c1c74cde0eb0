// internal/writer/async.go
package writer

import (
	"context"

	"go.uber.org/zap"

	"github.com/tamzrod/telemetry-emitter/internal/status"
)

// Async adapts a StatusBlockWriter to status.Writer without blocking the loop.
// Only the latest snapshot is kept; intermediate ones are overwritten.
// It assumes a single publishing goroutine.
type Async struct {
	w       *StatusBlockWriter
	log     *zap.Logger
	pending chan status.Snapshot
}

func NewAsync(w *StatusBlockWriter, log *zap.Logger) *Async {
	if log == nil {
		log = zap.NewNop()
	}
	return &Async{
		w:       w,
		log:     log,
		pending: make(chan status.Snapshot, 1),
	}
}

// WriteStatus implements status.Writer. It never blocks.
func (a *Async) WriteStatus(s status.Snapshot) {
	select {
	case a.pending <- s:
		return
	default:
	}

	// replace the stale one
	select {
	case <-a.pending:
	default:
	}
	select {
	case a.pending <- s:
	default:
	}
}

// Run delivers snapshots until ctx is cancelled.
// A snapshot still pending at cancellation is delivered before returning.
func (a *Async) Run(ctx context.Context) {
	for {
		select {
		case s := <-a.pending:
			a.deliver(s)
		case <-ctx.Done():
			select {
			case s := <-a.pending:
				a.deliver(s)
			default:
			}
			return
		}
	}
}

func (a *Async) deliver(s status.Snapshot) {
	if err := a.w.Write(s); err != nil {
		a.log.Warn("status block write failed", zap.Error(err))
	}
}
