// internal/status/encode_test.go
package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEncode_Fields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	log.Info("summary", Encode(Snapshot{
		State:         StateTerminated,
		RetriesLeft:   0,
		Connects:      3,
		Sent:          120,
		WriteFailures: 2,
	})...)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	assert.Equal(t, "terminated", fields["state"])
	assert.EqualValues(t, 3, fields["connects"])
	assert.EqualValues(t, 120, fields["sent"])
	assert.EqualValues(t, 2, fields["write_failures"])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "terminated", StateTerminated.String())
	assert.Equal(t, "unknown", State(9).String())
}

type recorder struct{ got []Snapshot }

func (r *recorder) WriteStatus(s Snapshot) { r.got = append(r.got, s) }

func TestMulti(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Multi{a, Nop{}, b}.WriteStatus(Snapshot{Sent: 1})

	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
}
