// Command csms-stub serves the CSMS API from memory, for trying the console
// and for integration tests without a real backend.
//
// Usage:
//
//	csms-stub [flags]
//
// Flags:
//
//	-listen string        Address to listen on (default ":50053")
//	-fixture string       YAML file of chargers to preload
//	-tls-cert string      PEM server certificate (enables TLS)
//	-tls-key string       PEM server key
//	-tls-ca string        PEM CA bundle; requires client certificates
//	-event-log string     Append served RPC events to a CBOR log file
//	-metrics-addr string  Serve Prometheus metrics on this address
//	-log-level string     Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Serve the sample chargers
//	csms-stub -fixture pkg/stub/testdata/chargers.yaml
//
//	# Serve over mutual TLS and record every call
//	csms-stub -tls-cert server.pem -tls-key server-key.pem -tls-ca ca.pem -event-log stub.clog
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
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/ocpp-csms-server/csms-go/pkg/csms"
	"github.com/ocpp-csms-server/csms-go/pkg/interaction"
	"github.com/ocpp-csms-server/csms-go/pkg/log"
	"github.com/ocpp-csms-server/csms-go/pkg/metrics"
	"github.com/ocpp-csms-server/csms-go/pkg/stub"
	"github.com/ocpp-csms-server/csms-go/pkg/transport"
	"github.com/ocpp-csms-server/csms-go/pkg/version"
)

// Config holds the stub configuration.
type Config struct {
	Listen      string
	Fixture     string
	CertFile    string
	KeyFile     string
	CAFile      string
	EventLog    string
	MetricsAddr string
	LogLevel    string
}

func parseFlags(args []string, stderr io.Writer) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("csms-stub", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Listen, "listen", transport.DefaultListenAddress, "Address to listen on")
	fs.StringVar(&cfg.Fixture, "fixture", "", "YAML file of chargers to preload")
	fs.StringVar(&cfg.CertFile, "tls-cert", "", "PEM server certificate (enables TLS)")
	fs.StringVar(&cfg.KeyFile, "tls-key", "", "PEM server key")
	fs.StringVar(&cfg.CAFile, "tls-ca", "", "PEM CA bundle; requires client certificates")
	fs.StringVar(&cfg.EventLog, "event-log", "", "Append served RPC events to a CBOR log file")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if (cfg.CertFile == "") != (cfg.KeyFile == "") {
		return Config{}, errors.New("-tls-cert and -tls-key must be given together")
	}
	if cfg.CAFile != "" && cfg.CertFile == "" {
		return Config{}, errors.New("-tls-ca requires -tls-cert and -tls-key")
	}
	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level: %s (use: debug, info, warn, error)", s)
	}
	return level, nil
}

// serverConfig translates cfg into the transport configuration.
func (c Config) serverConfig() transport.ServerConfig {
	sc := transport.ServerConfig{Address: c.Listen}
	if c.CertFile != "" {
		sc.TLS = &transport.TLSConfig{CertFile: c.CertFile, KeyFile: c.KeyFile, CAFile: c.CAFile}
	}
	return sc
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("stub failed", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx is done.
func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	srv, backend, cleanup, err := newServer(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := srv.Start(ctx); err != nil {
		return err
	}
	logger.Info("CSMS stub started",
		"address", srv.Addr().String(),
		"tls", cfg.CertFile != "",
		"version", version.Current,
		"chargers", backend.Len())

	<-ctx.Done()
	logger.Info("shutting down")
	return srv.Stop()
}

// newServer builds the server with its backend, event logging and metrics.
// cleanup releases what newServer opened once the server has stopped.
func newServer(cfg Config, logger *slog.Logger) (*transport.Server, *stub.Backend, func(), error) {
	backend := stub.New(stub.WithLogger(logger))
	if cfg.Fixture != "" {
		if err := backend.LoadFixtureFile(cfg.Fixture); err != nil {
			return nil, nil, nil, err
		}
		logger.Info("fixture loaded", "path", cfg.Fixture)
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	sc := cfg.serverConfig()
	sc.UnaryInterceptors = append(sc.UnaryInterceptors, transport.RequireCompatibleClient())
	if cfg.MetricsAddr != "" {
		collector := metrics.NewCollector("server")
		sc.UnaryInterceptors = append(sc.UnaryInterceptors, collector.UnaryServerInterceptor())
		closers = append(closers, serveMetrics(cfg.MetricsAddr, collector, logger))
	}
	if cfg.EventLog != "" {
		events, err := log.NewFileLogger(cfg.EventLog)
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("failed to open event log: %w", err)
		}
		sc.UnaryInterceptors = append(sc.UnaryInterceptors, interaction.ServerEventInterceptor(events))
		closers = append(closers, func() { _ = events.Close() })
		logger.Info("event log enabled", "path", events.Path())
	}
	sc.UnaryInterceptors = append(sc.UnaryInterceptors, accessLog(logger))

	srv, err := transport.NewServer(sc)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	csms.RegisterAPIServer(srv, backend)
	return srv, backend, cleanup, nil
}

// accessLog logs every served call at debug level.
func accessLog(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("call served",
			"method", info.FullMethod,
			"code", interaction.Code(err).String(),
			"duration", time.Since(start))
		return resp, err
	}
}

func serveMetrics(addr string, collector *metrics.Collector, logger *slog.Logger) func() {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector, collectors.NewGoCollector())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
