// internal/codec/codec_test.go
package codec

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/telemetry-emitter/internal/reading"
)

var wireKeys = []string{
	"lat", "lon",
	"accel_x", "accel_y", "accel_z",
	"gyro_x", "gyro_y", "gyro_z",
	"mag_x", "mag_y", "mag_z",
	"force", "linear", "string",
}

func sample() reading.Reading {
	clock := func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 987654321, time.UTC) }
	g := reading.NewGeneratorWithClock(reading.DefaultChannels(), clock)
	return g.Generate(rand.New(rand.NewPCG(7, 7)))
}

func TestNew(t *testing.T) {
	for _, name := range []string{"json", "JSON", "", "cbor"} {
		c, err := New(name)
		require.NoError(t, err, name)
		require.NotNil(t, c)
	}

	_, err := New("protobuf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownEncoding))
}

func TestRoundTrip(t *testing.T) {
	for _, name := range []string{JSON, CBOR} {
		t.Run(name, func(t *testing.T) {
			c, err := New(name)
			require.NoError(t, err)

			g := reading.NewGenerator(reading.DefaultChannels())
			r := rand.New(rand.NewPCG(3, 4))

			for i := 0; i < 200; i++ {
				want := g.Generate(r)

				data, err := c.Encode(want)
				require.NoError(t, err)

				got, err := c.Decode(data)
				require.NoError(t, err)
				require.True(t, want.Timestamp.Equal(got.Timestamp), "timestamp %v != %v", want.Timestamp, got.Timestamp)

				want.Timestamp, got.Timestamp = time.Time{}, time.Time{}
				require.Equal(t, want, got)
			}
		})
	}
}

func TestJSON_WireShape(t *testing.T) {
	c, err := New(JSON)
	require.NoError(t, err)

	rd := sample()
	data, err := c.Encode(rd)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc, 2)

	var ts string
	require.NoError(t, json.Unmarshal(doc["timestamp"], &ts))
	assert.Equal(t, "2025-01-02 03:04:05.987654321", ts)

	var blob map[string]any
	require.NoError(t, json.Unmarshal(doc["sensor_blob"], &blob))
	require.Len(t, blob, len(wireKeys))
	for _, k := range wireKeys {
		_, ok := blob[k]
		assert.True(t, ok, "missing key %s", k)
	}
	assert.EqualValues(t, rd.Force, blob["force"])
}

func TestCBOR_Deterministic(t *testing.T) {
	c, err := New(CBOR)
	require.NoError(t, err)

	rd := sample()
	a, err := c.Encode(rd)
	require.NoError(t, err)
	b, err := c.Encode(rd)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecode_BadTimestamp(t *testing.T) {
	c, err := New(JSON)
	require.NoError(t, err)

	_, err = c.Decode([]byte(`{"timestamp":"yesterday","sensor_blob":{}}`))
	assert.Error(t, err)

	_, err = c.Decode([]byte(`not json`))
	assert.Error(t, err)
}
