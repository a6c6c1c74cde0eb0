// internal/collector/collector_test.go
package collector

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/tamzrod/telemetry-emitter/internal/codec"
	"github.com/tamzrod/telemetry-emitter/internal/emitter"
	"github.com/tamzrod/telemetry-emitter/internal/reading"
	"github.com/tamzrod/telemetry-emitter/internal/transport"
	tws "github.com/tamzrod/telemetry-emitter/internal/transport/websocket"
)

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func sample(ts time.Time, force uint32) reading.Reading {
	return reading.Reading{
		Timestamp: ts,
		GPS:       reading.GPS{Lat: 44.5, Lon: -123.2},
		Accel:     reading.Vec3{X: 1, Y: 2, Z: 3},
		Force:     force,
		Linear:    12,
		String:    10,
	}
}

func TestHandler_DecodesAfterHandshake(t *testing.T) {
	c, err := codec.New("json")
	require.NoError(t, err)

	got := make(chan reading.Reading, 4)
	h := NewHandler(c, []byte("S"), func(_ string, r reading.Reading) { got <- r }, zap.NewNop())

	srv := httptest.NewServer(h)
	defer srv.Close()

	d, err := tws.NewDialer(tws.Config{URL: wsURL(srv), WriteTimeout: time.Second})
	require.NoError(t, err)
	conn, err := d.Dial(context.Background())
	require.NoError(t, err)

	ts := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)

	require.NoError(t, conn.Send([]byte("S")))
	for _, f := range []uint32{5, 25} {
		payload, err := c.Encode(sample(ts, f))
		require.NoError(t, err)
		require.NoError(t, conn.Send(payload))
	}
	require.NoError(t, conn.Send([]byte("not a reading")))
	require.NoError(t, conn.Close())

	for _, want := range []uint32{5, 25} {
		select {
		case r := <-got:
			assert.Equal(t, want, r.Force)
			assert.True(t, ts.Equal(r.Timestamp))
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for reading")
		}
	}

	require.Eventually(t, func() bool { return h.Rejected() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, uint64(2), h.Received())
}

func TestHandler_HandshakeOnlyFirst(t *testing.T) {
	c, err := codec.New("cbor")
	require.NoError(t, err)

	h := NewHandler(c, []byte("S"), nil, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	d, err := tws.NewDialer(tws.Config{URL: wsURL(srv), WriteTimeout: time.Second})
	require.NoError(t, err)
	conn, err := d.Dial(context.Background())
	require.NoError(t, err)

	// No handshake: the first message is a reading, a later "S" is garbage.
	payload, err := c.Encode(sample(time.Now(), 10))
	require.NoError(t, err)
	require.NoError(t, conn.Send(payload))
	require.NoError(t, conn.Send([]byte("S")))
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return h.Received() == 1 && h.Rejected() == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestEmitterToCollector(t *testing.T) {
	if testing.Short() {
		t.Skip("real network and clock")
	}

	c, err := codec.New("json")
	require.NoError(t, err)

	const want = 20

	var (
		mu   sync.Mutex
		seen []reading.Reading
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHandler(c, []byte("S"), func(_ string, r reading.Reading) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, r)
		if len(seen) == want {
			cancel()
		}
	}, zap.NewNop())

	srv := httptest.NewServer(h)
	defer srv.Close()

	dialer, err := transport.Build(wsURL(srv), transport.Options{DialTimeout: time.Second, WriteTimeout: time.Second})
	require.NoError(t, err)

	ch := reading.DefaultChannels()
	e, err := emitter.New(
		emitter.Config{Interval: time.Millisecond, MaxTries: 0, Handshake: []byte("S")},
		dialer,
		reading.NewGenerator(ch),
		c,
		emitter.WithRand(rand.New(rand.NewPCG(1, 2))),
		emitter.WithLogger(zaptest.NewLogger(t)),
	)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled), "run returned %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("emitter did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(seen), want)
	assert.Equal(t, uint64(1), e.Snapshot().Connects)
	assert.Zero(t, h.Rejected())

	for i, r := range seen {
		assert.GreaterOrEqual(t, r.Force, ch.Force.Min(), i)
		assert.LessOrEqual(t, r.Force, ch.Force.Max(), i)
		if i > 0 {
			assert.False(t, r.Timestamp.Before(seen[i-1].Timestamp), "timestamps out of order at %d", i)
		}
	}
}
