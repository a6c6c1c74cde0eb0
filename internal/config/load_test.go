// internal/config/load_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "emitter.toml", `
forward_addr = "ws://127.0.0.1:8080/ingest"
max_tries = 5
interval = 20
encoding = "cbor"
seed = 42

[channels.force]
seed = 30
range = 5

[logging]
level = "debug"

[metrics]
addr = ":9100"

[status_modbus]
endpoint = "127.0.0.1:1502"
address = 200
device_name = "EMITTER-01"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://127.0.0.1:8080/ingest", cfg.ForwardAddr)
	assert.Equal(t, 5, cfg.MaxTries)
	assert.Equal(t, 20*time.Millisecond, cfg.Interval())
	assert.Equal(t, "cbor", cfg.Encoding)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, uint64(42), *cfg.Seed)
	require.Contains(t, cfg.Channels, "force")
	assert.Equal(t, 30.0, *cfg.Channels["force"].Seed)
	assert.Equal(t, 5.0, *cfg.Channels["force"].Range)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	assert.Equal(t, "127.0.0.1:1502", cfg.StatusModbus.Endpoint)
	assert.Equal(t, 1, cfg.StatusModbus.UnitID)
	assert.Equal(t, 200, cfg.StatusModbus.Address)
	assert.Equal(t, "EMITTER-01", cfg.StatusModbus.DeviceName)

	// defaults survive
	assert.Equal(t, time.Second, cfg.RetryBackoff())
	assert.Equal(t, 5*time.Second, cfg.DialTimeout())
	assert.Equal(t, "S", cfg.Handshake)
	assert.Equal(t, "json", cfg.Logging.Format)

	require.NoError(t, Validate(cfg))
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "emitter.yaml", `
forward_addr: tcp://127.0.0.1:9000
max_tries: 0
interval: 100
handshake: ""
channels:
  lat:
    seed: 10.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://127.0.0.1:9000", cfg.ForwardAddr)
	assert.Equal(t, 0, cfg.MaxTries)
	assert.Equal(t, 100, cfg.IntervalMs)
	assert.Equal(t, "", cfg.Handshake)
	assert.Nil(t, cfg.Seed)
	require.Contains(t, cfg.Channels, "lat")
	assert.Equal(t, 10.5, *cfg.Channels["lat"].Seed)
	assert.Nil(t, cfg.Channels["lat"].Range)
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, missing := range requiredKeys {
		t.Run(missing, func(t *testing.T) {
			body := map[string]string{
				"forward_addr": `forward_addr = "ws://127.0.0.1:1"`,
				"max_tries":    `max_tries = 1`,
				"interval":     `interval = 10`,
			}
			delete(body, missing)

			var src string
			for _, line := range body {
				src += line + "\n"
			}

			_, err := Load(writeFile(t, "emitter.toml", src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), missing)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "emitter.toml", `
forward_addr = "ws://127.0.0.1:8080"
max_tries = 1
interval = 10
`)

	t.Setenv("EMITTER_FORWARD_ADDR", "tcp://10.0.0.1:9000")
	t.Setenv("EMITTER_MAX_TRIES", "7")
	t.Setenv("EMITTER_RETRY_BACKOFF_MS", "250")
	t.Setenv("EMITTER_LOGGING_LEVEL", "warn")
	t.Setenv("EMITTER_CHANNELS_FORCE_SEED", "40")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tcp://10.0.0.1:9000", cfg.ForwardAddr)
	assert.Equal(t, 7, cfg.MaxTries)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBackoff())
	assert.Equal(t, "warn", cfg.Logging.Level)
	require.Contains(t, cfg.Channels, "force")
	assert.Equal(t, 40.0, *cfg.Channels["force"].Seed)
}

func TestLoad_EnvSatisfiesRequired(t *testing.T) {
	path := writeFile(t, "emitter.toml", `interval = 10`)

	t.Setenv("EMITTER_FORWARD_ADDR", "ws://127.0.0.1:8080")
	t.Setenv("EMITTER_MAX_TRIES", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MaxTries)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeFile(t, "emitter.json", `{}`))
	assert.ErrorContains(t, err, "unsupported file type")

	_, err = Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "broken.toml", `forward_addr = `))
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"EMITTER_FORWARD_ADDR":        "forward_addr",
		"EMITTER_WRITE_TIMEOUT_MS":    "write_timeout_ms",
		"EMITTER_LOGGING_FORMAT":      "logging.format",
		"EMITTER_METRICS_ADDR":        "metrics.addr",
		"EMITTER_CHANNELS_LAT_RANGE":  "channels.lat.range",
		"EMITTER_SOME__NESTED_KEY":    "some_nested.key",
		"EMITTER_STATUS__MODBUS_UNIT": "status_modbus.unit",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}
