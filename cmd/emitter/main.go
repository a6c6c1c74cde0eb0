// cmd/emitter/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tamzrod/telemetry-emitter/internal/codec"
	"github.com/tamzrod/telemetry-emitter/internal/config"
	"github.com/tamzrod/telemetry-emitter/internal/emitter"
	"github.com/tamzrod/telemetry-emitter/internal/logger"
	"github.com/tamzrod/telemetry-emitter/internal/metrics"
	"github.com/tamzrod/telemetry-emitter/internal/reading"
	"github.com/tamzrod/telemetry-emitter/internal/status"
	"github.com/tamzrod/telemetry-emitter/internal/transport"
	"github.com/tamzrod/telemetry-emitter/internal/writer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stderr)
	stop()

	if code := exitCode(err); code != 0 {
		fmt.Fprintf(os.Stderr, "emitter: %v\n", err)
		os.Exit(code)
	}
}

// exitCode maps the result of run to a process status.
// Budget exhaustion and interruption are normal terminations.
func exitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	return 1
}

type options struct {
	cfgPath string
	lat     *float64
	lon     *float64
	help    bool
}

// parseArgs reads flags; the config path may also be the first positional argument.
func parseArgs(args []string, stderr io.Writer) (options, error) {
	var (
		opts     options
		lat, lon float64
	)

	flagSet := pflag.NewFlagSet("emitter", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.cfgPath, "config", "c", "", "path to config file (.toml, .yaml or .yml)")
	flagSet.Float64Var(&lat, "lat", 0, "GPS latitude seed (overrides channels.lat.seed)")
	flagSet.Float64Var(&lon, "lon", 0, "GPS longitude seed (overrides channels.lon.seed)")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return options{help: true}, nil
		}
		return opts, err
	}
	if opts.help {
		printHelp(stderr, flagSet)
		return opts, nil
	}

	if flagSet.Changed("lat") {
		opts.lat = &lat
	}
	if flagSet.Changed("lon") {
		opts.lon = &lon
	}

	if opts.cfgPath == "" && flagSet.NArg() > 0 {
		opts.cfgPath = flagSet.Arg(0)
	}
	if opts.cfgPath == "" {
		printHelp(stderr, flagSet)
		return opts, errors.New("config file required")
	}
	return opts, nil
}

// loadConfig loads the file, applies flag overrides, then validates and normalizes.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.cfgPath)
	if err != nil {
		return nil, err
	}

	if opts.lat != nil {
		cfg.OverrideSeed(reading.ChannelLat, *opts.lat)
	}
	if opts.lon != nil {
		cfg.OverrideSeed(reading.ChannelLon, *opts.lon)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil || opts.help {
		return err
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// --------------------
	// Build pipeline
	// --------------------

	channels, err := cfg.ReadingChannels()
	if err != nil {
		return err
	}

	c, err := codec.New(cfg.Encoding)
	if err != nil {
		return err
	}

	dialer, err := transport.Build(cfg.ForwardAddr, transport.Options{
		DialTimeout:  cfg.DialTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	})
	if err != nil {
		return err
	}

	writers := status.Multi{}
	var metricsDone chan error

	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		m, err := metrics.New(reg)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		writers = append(writers, m)

		srvCtx, cancelSrv := context.WithCancel(ctx)
		defer cancelSrv()

		metricsDone = make(chan error, 1)
		go func() {
			metricsDone <- metrics.Serve(srvCtx, cfg.Metrics.Addr, reg)
		}()
		log.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))

		defer func() {
			cancelSrv()
			if err := <-metricsDone; err != nil {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	if sm := cfg.StatusModbus; sm.Endpoint != "" {
		sw, closeStatus, err := writer.Build(writer.Config{
			Endpoint:   sm.Endpoint,
			UnitID:     uint8(sm.UnitID),
			Address:    uint16(sm.Address),
			DeviceName: sm.DeviceName,
			Timeout:    cfg.WriteTimeout(),
		})
		if err != nil {
			return fmt.Errorf("status memory: %w", err)
		}
		defer closeStatus()

		async := writer.NewAsync(sw, log.Named("status"))
		writers = append(writers, async)

		statusCtx, cancelStatus := context.WithCancel(context.Background())
		statusDone := make(chan struct{})
		go func() {
			defer close(statusDone)
			async.Run(statusCtx)
		}()

		// flush the final snapshot after Run returns
		defer func() {
			cancelStatus()
			<-statusDone
		}()
		log.Info("mirroring status to modbus",
			zap.String("endpoint", sm.Endpoint),
			zap.Int("address", sm.Address),
		)
	}

	var rng *rand.Rand
	if cfg.Seed != nil {
		rng = rand.New(rand.NewPCG(*cfg.Seed, *cfg.Seed))
	}

	e, err := emitter.New(
		emitter.Config{
			Interval:     cfg.Interval(),
			MaxTries:     cfg.MaxTries,
			RetryBackoff: cfg.RetryBackoff(),
			Handshake:    []byte(cfg.Handshake),
		},
		dialer,
		reading.NewGenerator(channels),
		c,
		emitter.WithLogger(log.Named("emitter")),
		emitter.WithStatusWriter(writers),
		emitter.WithRand(rng),
	)
	if err != nil {
		return err
	}

	log.Info("emitter starting",
		zap.String("forward_addr", cfg.ForwardAddr),
		zap.Duration("interval", cfg.Interval()),
		zap.Int("max_tries", cfg.MaxTries),
		zap.String("encoding", c.Name()),
	)

	// --------------------
	// Run until budget exhausted or signalled
	// --------------------

	err = e.Run(ctx)
	switch {
	case err == nil:
		log.Info("emitter stopped", status.Encode(e.Snapshot())...)
		return nil
	case errors.Is(err, context.Canceled):
		log.Info("emitter interrupted", status.Encode(e.Snapshot())...)
		return nil
	default:
		return err
	}
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `emitter - paced synthetic telemetry sender

Usage:
  emitter [flags] <config-file>

Flags:
%s
Environment variables prefixed with %s override config keys
(EMITTER_FORWARD_ADDR, EMITTER_LOGGING_LEVEL, EMITTER_CHANNELS_FORCE_SEED).
`, flagSet.FlagUsages(), config.EnvPrefix)
}
