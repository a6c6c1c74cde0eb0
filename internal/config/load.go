// internal/config/load.go
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix marks environment variables that override file values.
const EnvPrefix = "EMITTER_"

// requiredKeys have no default; a config without them does not start.
var requiredKeys = []string{"forward_addr", "max_tries", "interval"}

// topLevelKeys contain underscores of their own and map from env verbatim.
var topLevelKeys = map[string]bool{
	"forward_addr":     true,
	"max_tries":        true,
	"interval":         true,
	"retry_backoff_ms": true,
	"dial_timeout_ms":  true,
	"write_timeout_ms": true,
	"handshake":        true,
	"encoding":         true,
	"seed":             true,
}

// Load reads the config file at path (TOML or YAML by extension),
// applies EMITTER_* environment overrides and decodes the result.
// It does not validate; call Validate then Normalize.
func Load(path string) (*Config, error) {
	parser, err := parserFor(path)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	for _, key := range requiredKeys {
		if !k.Exists(key) {
			return nil, fmt.Errorf("config: missing required key %q", key)
		}
	}

	cfg := defaultConfig()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			TagName:          "koanf",
			WeaklyTypedInput: true,
			Result:           cfg,
		},
	}); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	return cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yamlParser{}, nil
	default:
		return nil, fmt.Errorf("config: unsupported file type %q (want .toml, .yaml or .yml)", filepath.Ext(path))
	}
}

// envKey maps EMITTER_FORWARD_ADDR -> forward_addr and EMITTER_LOGGING_LEVEL -> logging.level.
// A double underscore stands for a literal underscore in nested keys.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))

	if topLevelKeys[s] {
		return s
	}

	s = strings.ReplaceAll(s, "__", "%UNDERSCORE%")
	s = strings.ReplaceAll(s, "_", ".")
	s = strings.ReplaceAll(s, "%UNDERSCORE%", "_")
	return s
}

// yamlParser lets koanf read YAML through gopkg.in/yaml.v3.
type yamlParser struct{}

func (yamlParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (yamlParser) Marshal(o map[string]interface{}) ([]byte, error) {
	return yaml.Marshal(o)
}
