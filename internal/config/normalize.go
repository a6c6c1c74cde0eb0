// internal/config/normalize.go
package config

import "strings"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Encoding = strings.ToLower(cfg.Encoding)
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)

	// Channel names are matched case-insensitively; store them lowercased.
	if len(cfg.Channels) > 0 {
		out := make(map[string]ChannelConfig, len(cfg.Channels))
		for name, o := range cfg.Channels {
			out[strings.ToLower(name)] = o
		}
		cfg.Channels = out
	}

	// device_name: ASCII already validated, truncate to the 16 characters the block holds
	if len(cfg.StatusModbus.DeviceName) > 16 {
		cfg.StatusModbus.DeviceName = cfg.StatusModbus.DeviceName[:16]
	}
}
