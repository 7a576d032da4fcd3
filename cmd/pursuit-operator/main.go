// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/gazelab/pursuit/lib/config"
	"github.com/gazelab/pursuit/lib/control"
	"github.com/gazelab/pursuit/lib/netutil"
	"github.com/gazelab/pursuit/lib/operator"
	"github.com/gazelab/pursuit/lib/process"
	"github.com/gazelab/pursuit/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

type options struct {
	configPath  string
	listen      string
	logLevel    string
	logFile     string
	lineMode    bool
	showVersion bool

	flagSet *pflag.FlagSet
}

func parseOptions(args []string) (*options, error) {
	opts := &options{}
	flagSet := pflag.NewFlagSet("pursuit-operator", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "configuration file (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVar(&opts.listen, "listen", "", "control port address (default 0.0.0.0:49152)")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	flagSet.StringVar(&opts.logFile, "log-file", "", "append JSON log records to this file (the console hides stderr)")
	flagSet.BoolVar(&opts.lineMode, "line-mode", false, "read commands from stdin even on a terminal")
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

func (o *options) apply(cfg *config.OperatorConfig) {
	if o.flagSet.Changed("listen") {
		cfg.Listen = o.listen
	}
	if o.flagSet.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
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
		version.Print(os.Stdout, "pursuit-operator")
		return nil
	}

	cfg, err := config.LoadOperator(config.Path(opts.configPath))
	if err != nil {
		return err
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	presets, err := operator.LoadPresets(cfg.Stimuli)
	if err != nil {
		return err
	}

	interactive := !opts.lineMode &&
		term.IsTerminal(int(os.Stdin.Fd())) &&
		term.IsTerminal(int(os.Stdout.Fd()))
	logger, closeLog, err := newLogger(cfg.LogLevel, opts.logFile, interactive)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := netutil.ListenReusable(ctx, cfg.Listen)
	if err != nil {
		return err
	}
	op := operator.New(control.NewServer(listener, logger), cfg.Settings, presets, logger)
	logger.Info("pursuit-operator listening",
		"version", version.Info(),
		"address", listener.Addr().String(),
		"presets", len(presets),
	)

	// The server outlives the console so the stop commands sent on exit
	// still reach the presenter.
	serveContext, cancelServe := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() { serveDone <- op.Serve(serveContext) }()

	reload := func() error {
		reloaded, err := operator.LoadPresets(cfg.Stimuli)
		if err != nil {
			return err
		}
		op.SetPresets(reloaded)
		logger.Info("presets reloaded", "presets", len(reloaded))
		return nil
	}

	var consoleErr error
	if interactive {
		consoleErr = runConsole(ctx, op, reload)
	} else {
		consoleErr = runLines(ctx, os.Stdin, os.Stdout, op, reload)
	}

	op.Disconnect()
	cancelServe()
	serveErr := <-serveDone
	logger.Info("pursuit-operator stopped")
	return errors.Join(consoleErr, serveErr)
}

// newLogger writes to stderr in line mode. The full-screen console owns
// the terminal, so there records go to logFile or nowhere.
func newLogger(level, logFile string, interactive bool) (*slog.Logger, func(), error) {
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		logger, err := process.NewLoggerTo(file, false, level)
		if err != nil {
			file.Close()
			return nil, nil, err
		}
		return logger, func() { file.Close() }, nil
	}
	if interactive {
		logger, err := process.NewLoggerTo(io.Discard, false, level)
		return logger, func() {}, err
	}
	logger, err := process.NewLogger(level)
	return logger, func() {}, err
}
