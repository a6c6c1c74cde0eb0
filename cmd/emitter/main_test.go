// cmd/emitter/main_test.go
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/telemetry-emitter/internal/reading"
)

const baseConfig = `
forward_addr = "tcp://127.0.0.1:1"
max_tries = 0
interval = 10

[channels.lat]
seed = 10.5

[logging]
level = "error"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emitter.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		path    string
		lat     *float64
		lon     *float64
		help    bool
		wantErr bool
	}{
		{name: "positional path", args: []string{"a.toml"}, path: "a.toml"},
		{name: "flag path", args: []string{"-c", "b.yaml"}, path: "b.yaml"},
		{name: "flag wins over positional", args: []string{"--config", "b.yaml", "a.toml"}, path: "b.yaml"},
		{name: "lat only", args: []string{"--lat", "44.5", "a.toml"}, path: "a.toml", lat: ptr(44.5)},
		{name: "lat and lon", args: []string{"--lat=1", "--lon=-123.25", "a.toml"}, path: "a.toml", lat: ptr(1.0), lon: ptr(-123.25)},
		{name: "explicit zero is an override", args: []string{"--lon", "0", "a.toml"}, path: "a.toml", lon: ptr(0.0)},
		{name: "help", args: []string{"-h"}, help: true},
		{name: "missing path", args: nil, wantErr: true},
		{name: "bad float", args: []string{"--lat", "north", "a.toml"}, wantErr: true},
		{name: "unknown flag", args: []string{"--nope", "a.toml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			opts, err := parseArgs(tt.args, &stderr)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.help, opts.help)
			if tt.help {
				assert.Contains(t, stderr.String(), "Usage:")
				return
			}
			assert.Equal(t, tt.path, opts.cfgPath)
			assert.Equal(t, tt.lat, opts.lat)
			assert.Equal(t, tt.lon, opts.lon)
		})
	}
}

func TestLoadConfig_SeedOverrides(t *testing.T) {
	path := writeConfig(t, baseConfig)

	tests := []struct {
		name    string
		args    []string
		wantLat float64
		wantLon float64
	}{
		{name: "file value kept", args: []string{path}, wantLat: 10.5, wantLon: reading.DefaultChannels().Lon.Seed},
		{name: "lat replaces file value", args: []string{"--lat", "44.5", path}, wantLat: 44.5, wantLon: reading.DefaultChannels().Lon.Seed},
		{name: "lon added", args: []string{"--lon", "-123.2", "-c", path}, wantLat: 10.5, wantLon: -123.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseArgs(tt.args, &bytes.Buffer{})
			require.NoError(t, err)

			cfg, err := loadConfig(opts)
			require.NoError(t, err)

			channels, err := cfg.ReadingChannels()
			require.NoError(t, err)

			lat, _, ok := channels.Get(reading.ChannelLat)
			require.True(t, ok)
			assert.Equal(t, tt.wantLat, lat)

			lon, _, ok := channels.Get(reading.ChannelLon)
			require.True(t, ok)
			assert.Equal(t, tt.wantLon, lon)
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := loadConfig(options{cfgPath: filepath.Join(t.TempDir(), "absent.toml")})
		require.Error(t, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		path := writeConfig(t, `
forward_addr = "udp://127.0.0.1:1"
max_tries = 0
interval = 10
`)
		_, err := loadConfig(options{cfgPath: path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config validation failed")
	})
}

func TestRun(t *testing.T) {
	path := writeConfig(t, baseConfig)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name     string
		ctx      context.Context
		args     []string
		wantCode int
	}{
		{name: "help", ctx: context.Background(), args: []string{"--help"}, wantCode: 0},
		{name: "interrupted before first dial", ctx: cancelled, args: []string{path}, wantCode: 0},
		{name: "no config", ctx: context.Background(), args: nil, wantCode: 1},
		{name: "startup error", ctx: context.Background(), args: []string{filepath.Join(t.TempDir(), "absent.toml")}, wantCode: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.ctx, tt.args, &bytes.Buffer{})
			assert.Equal(t, tt.wantCode, exitCode(err))
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"budget exhausted", nil, 0},
		{"interrupted", context.Canceled, 0},
		{"wrapped interrupt", fmt.Errorf("emitter: %w", context.Canceled), 0},
		{"startup error", errors.New("config file required"), 1},
		{"deadline", context.DeadlineExceeded, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func ptr(v float64) *float64 { return &v }
