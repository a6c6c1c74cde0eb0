// internal/config/config.go
package config

import "time"

type Config struct {
	// ---- CONNECTION ----
	ForwardAddr    string `koanf:"forward_addr"`
	MaxTries       int    `koanf:"max_tries"`
	IntervalMs     int    `koanf:"interval"`
	RetryBackoffMs int    `koanf:"retry_backoff_ms"`
	DialTimeoutMs  int    `koanf:"dial_timeout_ms"`
	WriteTimeoutMs int    `koanf:"write_timeout_ms"`

	// Handshake is sent once per successful connect. Empty disables it.
	Handshake string `koanf:"handshake"`

	// ---- PAYLOAD ----
	Encoding string `koanf:"encoding"`

	// Seed makes the reading stream reproducible. Nil = random.
	Seed *uint64 `koanf:"seed"`

	// Channels overrides per-channel bounds by name; missing channels keep their defaults.
	Channels map[string]ChannelConfig `koanf:"channels"`

	// ---- AMBIENT ----
	Logging LoggingConfig `koanf:"logging"`
	Metrics MetricsConfig `koanf:"metrics"`

	// StatusModbus mirrors loop status into a Modbus register block. Empty endpoint = disabled.
	StatusModbus StatusModbusConfig `koanf:"status_modbus"`
}

// ---- CHANNEL ----

type ChannelConfig struct {
	Seed  *float64 `koanf:"seed"`
	Range *float64 `koanf:"range"`
}

// ---- LOGGING ----

type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug | info | warn | error
	Format string `koanf:"format"` // json | console
}

// ---- METRICS ----

type MetricsConfig struct {
	Addr string `koanf:"addr"` // empty = disabled
}

// ---- STATUS MEMORY ----

type StatusModbusConfig struct {
	Endpoint   string `koanf:"endpoint"` // host:port
	UnitID     int    `koanf:"unit"`
	Address    int    `koanf:"address"`
	DeviceName string `koanf:"device_name"` // ASCII, max 16 chars after Normalize
}

// Interval is the tick period.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}

func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMs) * time.Millisecond
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMs) * time.Millisecond
}

// defaultConfig holds every optional key. Required keys stay zero.
func defaultConfig() *Config {
	return &Config{
		RetryBackoffMs: 1000,
		DialTimeoutMs:  5000,
		WriteTimeoutMs: 5000,
		Handshake:      "S",
		Encoding:       "json",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		StatusModbus: StatusModbusConfig{
			UnitID: 1,
		},
	}
}
