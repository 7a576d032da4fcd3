// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/gazelab/pursuit/lib/clock"
	"github.com/gazelab/pursuit/lib/codec"
	"github.com/gazelab/pursuit/lib/config"
	"github.com/gazelab/pursuit/lib/control"
	"github.com/gazelab/pursuit/lib/process"
	"github.com/gazelab/pursuit/lib/publish"
	"github.com/gazelab/pursuit/lib/samplebus"
	"github.com/gazelab/pursuit/lib/session"
	"github.com/gazelab/pursuit/lib/trajectory"
	"github.com/gazelab/pursuit/lib/trigger"
	"github.com/gazelab/pursuit/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

// options holds the command line. Only flags the user set override the
// configuration file.
type options struct {
	configPath    string
	address       string
	busAddress    string
	compression   string
	triggerDevice string
	logLevel      string
	showVersion   bool

	flagSet *pflag.FlagSet
}

func parseOptions(args []string) (*options, error) {
	opts := &options{}
	flagSet := pflag.NewFlagSet("pursuit-presenter", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "configuration file (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&opts.address, "address", "", "operator host[:port]")
	flagSet.StringVar(&opts.busAddress, "bus-address", "", "recorder host:port for sample streams")
	flagSet.StringVar(&opts.compression, "compression", "", "sample frame compression: none, lz4 or zstd")
	flagSet.StringVar(&opts.triggerDevice, "trigger-device", "", "serial device of the TTL trigger box")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", extra[0])
	}
	opts.flagSet = flagSet
	return opts, nil
}

// apply overlays the flags the user set onto cfg.
func (o *options) apply(cfg *config.PresenterConfig) error {
	if o.flagSet.Changed("address") {
		cfg.Address = o.address
	}
	if o.flagSet.Changed("bus-address") {
		cfg.Bus.Address = o.busAddress
	}
	if o.flagSet.Changed("compression") {
		tag, err := codec.ParseCompressionTag(o.compression)
		if err != nil {
			return fmt.Errorf("--compression: %w", err)
		}
		cfg.Bus.Compression = tag
	}
	if o.flagSet.Changed("trigger-device") {
		cfg.Trigger.Device = o.triggerDevice
	}
	if o.flagSet.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	return nil
}

func run() error {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.showVersion {
		version.Print(os.Stdout, "pursuit-presenter")
		return nil
	}

	cfg, err := config.LoadPresenter(config.Path(opts.configPath))
	if err != nil {
		return err
	}
	if err := opts.apply(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := process.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.Info("pursuit-presenter starting",
		"version", version.Info(),
		"operator", control.WithDefaultPort(cfg.Address),
		"bus", cfg.Bus.Address,
		"compression", cfg.Bus.Compression,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sinks []publish.MarkerSink
	if cfg.Trigger.Device != "" {
		device, err := trigger.Open(triggerConfig(cfg.Trigger), logger)
		if err != nil {
			return err
		}
		defer device.Close()
		sinks = append(sinks, device)
		logger.Info("trigger device ready", "device", cfg.Trigger.Device)
	}

	realClock := clock.Real()
	publisher := publish.New(newBus(cfg.Bus, logger), realClock, logger, sinks...)
	client := control.NewClient(logger)
	controller := session.New(session.Config{
		Geometry:  cfg.Display,
		Clock:     realClock,
		Publisher: publisher,
		Status:    client,
		Logger:    logger,
	})

	if err := client.Connect(ctx, cfg.Address); err != nil {
		logger.Warn("operator not reachable, waiting for SIGHUP to retry", "error", err)
	}
	go reconnectOnHangup(ctx, client, cfg.Address, logger)

	runErr := controller.Run(ctx, client.Events())
	client.Close()
	logger.Info("pursuit-presenter stopped")
	return runErr
}

func newBus(cfg config.BusConfig, logger *slog.Logger) samplebus.Bus {
	if cfg.Address == "" {
		return samplebus.NopBus{}
	}
	return samplebus.NewStreamBus(cfg.Address, cfg.Compression, logger)
}

func triggerConfig(cfg config.TriggerConfig) trigger.Config {
	lines := make(map[trajectory.State]string, len(cfg.Lines))
	for state, value := range cfg.Lines {
		lines[trajectory.State(state)] = value
	}
	return trigger.Config{
		Device: cfg.Device,
		Baud:   cfg.Baud,
		Lines:  lines,
		Pulse:  time.Duration(cfg.Pulse),
	}
}

// reconnectOnHangup dials the operator again on every SIGHUP until ctx
// is cancelled. A successful dial replaces the current connection.
func reconnectOnHangup(ctx context.Context, client *control.Client, address string, logger *slog.Logger) {
	hangups := make(chan os.Signal, 1)
	signal.Notify(hangups, syscall.SIGHUP)
	defer signal.Stop(hangups)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hangups:
			logger.Info("reconnecting to operator", "operator", control.WithDefaultPort(address))
			if err := client.Connect(ctx, address); err != nil {
				logger.Warn("reconnect failed", "error", err)
			}
		}
	}
}
