// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/telemetry-emitter/internal/status"
)

const namespace = "emitter"

// Metrics exports loop status as Prometheus collectors.
// It implements status.Writer by applying deltas against the previous snapshot,
// so it must be fed by a single loop.
type Metrics struct {
	state             prometheus.Gauge
	retriesRemaining  prometheus.Gauge
	connects          prometheus.Counter
	connectFailures   prometheus.Counter
	handshakeFailures prometheus.Counter
	sent              prometheus.Counter
	writeFailures     prometheus.Counter
	tick              prometheus.Histogram

	last status.Snapshot
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "Loop state: 0 disconnected, 1 connected, 2 terminated.",
		}),
		retriesRemaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "retries_remaining",
			Help:      "Connection attempts left before the loop terminates.",
		}),
		connects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connects_total",
			Help:      "Successful connections to the collector.",
		}),
		connectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_failures_total",
			Help:      "Failed connection attempts.",
		}),
		handshakeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_failures_total",
			Help:      "Handshake messages that could not be written.",
		}),
		sent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Readings written to the collector.",
		}),
		writeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_failures_total",
			Help:      "Reading writes that failed and dropped the connection.",
		}),
		tick: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Generate, encode and write time of successful ticks.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.state,
		m.retriesRemaining,
		m.connects,
		m.connectFailures,
		m.handshakeFailures,
		m.sent,
		m.writeFailures,
		m.tick,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// WriteStatus implements status.Writer.
func (m *Metrics) WriteStatus(s status.Snapshot) {
	m.state.Set(float64(s.State))
	m.retriesRemaining.Set(float64(s.RetriesLeft))

	addDelta(m.connects, m.last.Connects, s.Connects)
	addDelta(m.connectFailures, m.last.ConnectFailures, s.ConnectFailures)
	addDelta(m.handshakeFailures, m.last.HandshakeFailures, s.HandshakeFailures)
	addDelta(m.writeFailures, m.last.WriteFailures, s.WriteFailures)

	if s.Sent > m.last.Sent {
		m.sent.Add(float64(s.Sent - m.last.Sent))
		m.tick.Observe(s.LastTick.Seconds())
	}

	m.last = s
}

// counters only move forward; a smaller value is ignored
func addDelta(c prometheus.Counter, prev, cur uint64) {
	if cur > prev {
		c.Add(float64(cur - prev))
	}
}
