// Command csms-console is the administration console of a charging station
// management system (CSMS) backend.
//
// It talks to the backend API over gRPC and runs one command given on the
// command line or an interactive shell.
//
// Usage:
//
//	csms-console [flags] [command [args...]]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-address string       Backend API address (default "localhost:50053")
//	-tls                  Connect with TLS
//	-tls-ca string        CA certificates trusted for the backend
//	-tls-cert string      Client certificate for mutual TLS
//	-tls-key string       Client key for mutual TLS
//	-timeout duration     Per-call timeout (default 30s)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-event-log string     Append RPC events to a CBOR log file
//	-trace                Log every RPC event at debug level
//	-metrics-addr string  Serve Prometheus metrics on this address
//	-interactive          Start the interactive shell
//
// Examples:
//
//	# Show a charger
//	csms-console -address csms.example.net:50053 -tls get CP-1
//
//	# Hard reboot, recording the exchange
//	csms-console -event-log console.clog reboot CP-1 hard
//
//	# Any method with a JSON request
//	csms-console call GetChargers '{"page":0,"pageSize":50}'
//
//	# Interactive shell
//	csms-console -config console.yaml -interactive
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ocpp-csms-server/csms-go/cmd/csms-console/interactive"
	"github.com/ocpp-csms-server/csms-go/pkg/interaction"
	"github.com/ocpp-csms-server/csms-go/pkg/log"
	"github.com/ocpp-csms-server/csms-go/pkg/metrics"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, command, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	level, _ := parseLevel(cfg.LogLevel)
	logLevel := new(slog.LevelVar)
	logLevel.Set(level)
	logOut := &switchWriter{w: stderr}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: logLevel}))

	events, closeEvents, err := setupEventLogging(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer closeEvents()

	opts := []interaction.Option{
		interaction.WithTimeout(cfg.Timeout),
		interaction.WithLogger(events),
	}
	if cfg.MetricsAddr != "" {
		collector := metrics.NewCollector("console")
		opts = append(opts, interaction.WithMetrics(collector))
		stop := serveMetrics(cfg.MetricsAddr, collector, logger)
		defer stop()
	}

	client, err := interaction.Dial(cfg.Server, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to connect: %v\n", err)
		return 1
	}
	defer client.Close()
	logger.Debug("console ready", "address", cfg.Server.Address, "tls", cfg.Server.TLS != nil)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	console := interactive.New(client, stdout)

	if len(command) > 0 && !cfg.Interactive {
		if err := console.Execute(ctx, command); err != nil && !errors.Is(err, interactive.ErrQuit) {
			fmt.Fprintf(stderr, "Error: %s\n", interactive.Describe(err))
			return 1
		}
		return 0
	}

	shell, err := interactive.NewShell(console, cfg.HistoryFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	// Redirect log output through readline to avoid interfering with input
	logOut.Set(shell.Stderr())

	if len(command) > 0 {
		if err := console.Execute(ctx, command); err != nil {
			fmt.Fprintf(shell.Stderr(), "Error: %s\n", interactive.Describe(err))
		}
	}
	shell.Run(ctx, cancel)
	client.Wait()
	return 0
}

// setupEventLogging builds the RPC event logger from the configuration.
// The returned function closes any files it opened.
func setupEventLogging(cfg Config, logger *slog.Logger) (log.Logger, func(), error) {
	var loggers []log.Logger
	var file *log.FileLogger

	if cfg.EventLog != "" {
		var err error
		file, err = log.NewFileLogger(cfg.EventLog)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open event log: %w", err)
		}
		loggers = append(loggers, file)
		logger.Info("event log enabled", "path", file.Path())
	}
	if cfg.Trace {
		loggers = append(loggers, log.NewSlogAdapter(logger).WithLevel(slog.LevelDebug))
	}

	closer := func() {
		if file == nil {
			return
		}
		if n := file.Dropped(); n > 0 {
			logger.Warn("events dropped from event log", "count", n)
		}
		_ = file.Close()
	}

	switch len(loggers) {
	case 0:
		return log.NoopLogger{}, closer, nil
	case 1:
		return loggers[0], closer, nil
	default:
		return log.NewMultiLogger(loggers...), closer, nil
	}
}

// serveMetrics exposes collector and the Go runtime metrics over HTTP.
func serveMetrics(addr string, collector *metrics.Collector, logger *slog.Logger) func() {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector, collectors.NewGoCollector())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	logger.Info("serving metrics", "address", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
