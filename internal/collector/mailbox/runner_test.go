// internal/collector/mailbox/runner_test.go
package mailbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/telemetry-emitter/internal/reading"
)

// lockedDevice serializes access between the test and the poll loop.
type lockedDevice struct {
	mu  sync.Mutex
	dev *fakeDevice
}

func (l *lockedDevice) ReadHoldingRegisters(addr, qty uint16) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dev.ReadHoldingRegisters(addr, qty)
}

func TestRun_DeliversToSink(t *testing.T) {
	dev := &lockedDevice{dev: newFakeDevice()}
	p, c := newPoller(t, dev.dev, 0)
	p.client = dev

	got := make(chan reading.Reading, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx, func(_ string, r reading.Reading) { got <- r })
	}()

	// let the first cycle prime
	require.Eventually(t, func() bool {
		dev.mu.Lock()
		defer dev.mu.Unlock()
		return dev.dev.reads > 0
	}, 5*time.Second, time.Millisecond)

	payload, err := c.Encode(sample(17))
	require.NoError(t, err)
	dev.mu.Lock()
	dev.dev.publish(0, 1, payload)
	dev.mu.Unlock()

	select {
	case r := <-got:
		assert.Equal(t, uint32(17), r.Force)
	case <-time.After(5 * time.Second):
		t.Fatal("no reading delivered")
	}

	cancel()
	<-done
}
