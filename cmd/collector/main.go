// cmd/collector/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tamzrod/telemetry-emitter/internal/codec"
	"github.com/tamzrod/telemetry-emitter/internal/collector"
	"github.com/tamzrod/telemetry-emitter/internal/collector/mailbox"
	"github.com/tamzrod/telemetry-emitter/internal/logger"
	"github.com/tamzrod/telemetry-emitter/internal/reading"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "collector: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		listen    string
		path      string
		encoding  string
		handshake string
		level     string
		format    string
		csvPath   string

		mbEndpoint string
		mbUnit     uint8
		mbAddress  uint16
		mbInterval time.Duration
	)

	flagSet := pflag.NewFlagSet("collector", pflag.ContinueOnError)
	flagSet.StringVar(&listen, "listen", ":8080", "address to accept emitter connections on")
	flagSet.StringVar(&path, "path", "/", "WebSocket endpoint path")
	flagSet.StringVar(&encoding, "encoding", "json", "payload encoding: json or cbor")
	flagSet.StringVar(&handshake, "handshake", "S", "handshake message expected first on each connection (empty disables)")
	flagSet.StringVar(&level, "log-level", "info", "debug, info, warn or error")
	flagSet.StringVar(&format, "log-format", "console", "json or console")
	flagSet.StringVar(&csvPath, "csv", "", "also append every reading to this CSV file (empty disables)")
	flagSet.StringVar(&mbEndpoint, "modbus", "", "also poll a Modbus TCP mailbox at host:port (empty disables)")
	flagSet.Uint8Var(&mbUnit, "modbus-unit", 1, "Modbus unit id of the mailbox device")
	flagSet.Uint16Var(&mbAddress, "modbus-address", 0, "first holding register of the mailbox")
	flagSet.DurationVar(&mbInterval, "modbus-interval", 10*time.Millisecond, "mailbox poll interval")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	log, err := logger.New(level, format)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	c, err := codec.New(encoding)
	if err != nil {
		return err
	}

	// ---- csv sink (optional) ----
	var csvSink *collector.CSVSink
	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("csv: %w", err)
		}
		csvSink, err = collector.NewCSVSink(f)
		if err != nil {
			_ = f.Close()
			return err
		}

		// runs after every producer below has stopped
		defer func() {
			if err := csvSink.Flush(); err != nil {
				log.Error("csv flush failed", zap.String("path", csvPath), zap.Error(err))
			}
			if err := f.Close(); err != nil {
				log.Error("csv close failed", zap.String("path", csvPath), zap.Error(err))
			}
		}()
		log.Info("writing readings to csv", zap.String("path", csvPath))
	}

	sink := func(remote string, r reading.Reading) {
		log.Info("reading", append(collector.Fields(r), zap.String("remote", remote))...)
		if csvSink != nil {
			if err := csvSink.Write(r); err != nil {
				log.Warn("csv write failed", zap.Error(err))
			}
		}
	}

	h := collector.NewHandler(c, []byte(handshake), sink, log)

	mux := http.NewServeMux()
	mux.Handle(path, h)

	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- modbus mailbox (optional) ----
	if mbEndpoint != "" {
		p, closePoller, err := mailbox.Build(mailbox.Config{
			Endpoint:  mbEndpoint,
			UnitID:    mbUnit,
			Address:   mbAddress,
			Interval:  mbInterval,
			Handshake: []byte(handshake),
		}, c, log.Named("mailbox"))
		if err != nil {
			return fmt.Errorf("mailbox: %w", err)
		}
		defer closePoller()

		pollDone := make(chan struct{})
		go func() {
			defer close(pollDone)
			p.Run(ctx, sink)
		}()
		defer func() {
			stop()
			<-pollDone
		}()
		log.Info("polling modbus mailbox",
			zap.String("endpoint", mbEndpoint),
			zap.Uint8("unit", mbUnit),
			zap.Uint16("address", mbAddress),
		)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("collector listening", zap.String("addr", listen), zap.String("path", path), zap.String("encoding", c.Name()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("collector stopped",
		zap.Uint64("received", h.Received()),
		zap.Uint64("rejected", h.Rejected()),
	)
	return nil
}
