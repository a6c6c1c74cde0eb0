// internal/collector/mailbox/runner.go
package mailbox

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/telemetry-emitter/internal/collector"
)

// Run starts the ticker loop and hands every fresh reading to sink.
// No overlap. No retries beyond the next tick.
func (p *Poller) Run(ctx context.Context, sink collector.Sink) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := p.PollOnce()
			switch {
			case errors.Is(res.Err, ErrTorn):
				p.log.Debug("mailbox frame torn, retrying next tick")
			case res.Err != nil:
				p.log.Warn("mailbox poll failed", zap.Error(res.Err))
			case res.Handshake:
				p.log.Debug("handshake received", zap.Uint16("seq", res.Seq))
			case res.Fresh:
				if res.Skipped > 0 {
					p.log.Warn("mailbox frames missed", zap.Uint16("skipped", res.Skipped), zap.Uint16("seq", res.Seq))
				}
				sink(p.cfg.Endpoint, res.Reading)
			}
		}
	}
}
