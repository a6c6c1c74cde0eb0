// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/tamzrod/telemetry-emitter/internal/codec"
	"github.com/tamzrod/telemetry-emitter/internal/reading"
	"github.com/tamzrod/telemetry-emitter/internal/transport"
)

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"json", "console"}
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// CONNECTION
	// ------------------------------------------------------------

	if cfg.ForwardAddr == "" {
		return fmt.Errorf("forward_addr must not be empty")
	}
	u, err := url.Parse(cfg.ForwardAddr)
	if err != nil {
		return fmt.Errorf("forward_addr %q: %w", cfg.ForwardAddr, err)
	}
	if !slices.Contains(transport.Schemes(), strings.ToLower(u.Scheme)) {
		return fmt.Errorf(
			"forward_addr %q: unsupported scheme %q (want one of %s)",
			cfg.ForwardAddr,
			u.Scheme,
			strings.Join(transport.Schemes(), ", "),
		)
	}
	if u.Host == "" {
		return fmt.Errorf("forward_addr %q: missing host", cfg.ForwardAddr)
	}

	if cfg.MaxTries < 0 {
		return fmt.Errorf("max_tries must be >= 0, got %d", cfg.MaxTries)
	}
	if cfg.IntervalMs <= 0 {
		return fmt.Errorf("interval must be > 0 ms, got %d", cfg.IntervalMs)
	}

	for name, v := range map[string]int{
		"retry_backoff_ms": cfg.RetryBackoffMs,
		"dial_timeout_ms":  cfg.DialTimeoutMs,
		"write_timeout_ms": cfg.WriteTimeoutMs,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be > 0, got %d", name, v)
		}
	}

	// ------------------------------------------------------------
	// PAYLOAD
	// ------------------------------------------------------------

	if _, err := codec.New(strings.ToLower(cfg.Encoding)); err != nil {
		return err
	}

	// tcp frames are newline-terminated; binary cbor may contain the delimiter.
	if strings.EqualFold(u.Scheme, transport.SchemeTCP) && strings.EqualFold(cfg.Encoding, codec.CBOR) {
		return fmt.Errorf("encoding cbor cannot be framed over tcp; use json or a ws/modbus forward_addr")
	}

	if _, err := cfg.ReadingChannels(); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// AMBIENT
	// ------------------------------------------------------------

	if !slices.Contains(validLevels, strings.ToLower(cfg.Logging.Level)) {
		return fmt.Errorf("logging.level %q: want one of %s", cfg.Logging.Level, strings.Join(validLevels, ", "))
	}
	if !slices.Contains(validFormats, strings.ToLower(cfg.Logging.Format)) {
		return fmt.Errorf("logging.format %q: want one of %s", cfg.Logging.Format, strings.Join(validFormats, ", "))
	}

	// ------------------------------------------------------------
	// STATUS MEMORY (OPT-IN)
	// ------------------------------------------------------------

	if sm := cfg.StatusModbus; sm.Endpoint != "" {
		if sm.UnitID < 0 || sm.UnitID > 255 {
			return fmt.Errorf("status_modbus.unit must be 0..255, got %d", sm.UnitID)
		}
		if sm.Address < 0 || sm.Address > 0xFFFF {
			return fmt.Errorf("status_modbus.address must be 0..65535, got %d", sm.Address)
		}
		// device_name sanity (ASCII only)
		for i := 0; i < len(sm.DeviceName); i++ {
			if sm.DeviceName[i] > 0x7F {
				return fmt.Errorf("status_modbus.device_name must contain ASCII characters only")
			}
		}
	}

	return nil
}

// ReadingChannels applies the channel overrides on top of reading.DefaultChannels.
// A channel that sets only seed or only range keeps the default for the other.
func (c *Config) ReadingChannels() (reading.Channels, error) {
	ch := reading.DefaultChannels()

	for name, o := range c.Channels {
		key := strings.ToLower(name)

		seed, rng, ok := ch.Get(key)
		if !ok {
			return ch, fmt.Errorf("channels.%s: unknown channel (want one of %s)", name, strings.Join(reading.Names(), ", "))
		}
		if o.Seed != nil {
			seed = *o.Seed
		}
		if o.Range != nil {
			rng = *o.Range
		}

		if err := ch.Set(key, seed, rng); err != nil {
			return ch, fmt.Errorf("channels.%s: %w", name, err)
		}
	}

	return ch, nil
}

// OverrideSeed replaces the seed of one channel, keeping any configured range.
func (c *Config) OverrideSeed(name string, seed float64) {
	if c.Channels == nil {
		c.Channels = make(map[string]ChannelConfig)
	}
	o := c.Channels[name]
	o.Seed = &seed
	c.Channels[name] = o
}
