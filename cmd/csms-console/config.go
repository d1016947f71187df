package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ocpp-csms-server/csms-go/pkg/interaction"
	"github.com/ocpp-csms-server/csms-go/pkg/transport"
)

// Config holds the console configuration. It is read from an optional YAML
// file; command-line flags override the file.
type Config struct {
	Server      transport.ClientConfig `yaml:"server"`
	Timeout     time.Duration          `yaml:"timeout"`
	LogLevel    string                 `yaml:"log_level"`
	EventLog    string                 `yaml:"event_log"`
	Trace       bool                   `yaml:"trace"`
	MetricsAddr string                 `yaml:"metrics_addr"`
	Interactive bool                   `yaml:"interactive"`
	HistoryFile string                 `yaml:"history_file"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Server:   transport.ClientConfig{Address: transport.DefaultAddress},
		Timeout:  interaction.DefaultTimeout,
		LogLevel: "info",
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults.
// Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return parseConfig(f)
}

func parseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings that cannot be caught by parsing.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server address is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if t := c.Server.TLS; t != nil && (t.CertFile == "") != (t.KeyFile == "") {
		return errors.New("tls cert and key must be given together")
	}
	return nil
}

// parseArgs parses the command line. The remaining arguments form a one-shot
// console command.
func parseArgs(args []string, stderr io.Writer) (Config, []string, error) {
	fs := flag.NewFlagSet("csms-console", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: csms-console [flags] [command [args...]]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nRun with -interactive or without a command for the shell; type 'help' there for commands.\n")
	}

	def := DefaultConfig()
	var (
		configFile  = fs.String("config", "", "Configuration file path (YAML)")
		address     = fs.String("address", def.Server.Address, "Backend API address (host:port)")
		useTLS      = fs.Bool("tls", false, "Connect with TLS using the system trust store")
		caFile      = fs.String("tls-ca", "", "PEM file of CA certificates trusted for the backend")
		certFile    = fs.String("tls-cert", "", "PEM client certificate for mutual TLS")
		keyFile     = fs.String("tls-key", "", "PEM client key for mutual TLS")
		serverName  = fs.String("server-name", "", "Server name to verify the backend certificate against")
		insecure    = fs.Bool("tls-insecure", false, "Skip backend certificate verification (testing only)")
		timeout     = fs.Duration("timeout", def.Timeout, "Per-call timeout")
		logLevel    = fs.String("log-level", def.LogLevel, "Log level: debug, info, warn, error")
		eventLog    = fs.String("event-log", "", "Append RPC events to this CBOR log file (view with csms-log)")
		trace       = fs.Bool("trace", false, "Log every RPC event at debug level")
		metricsAddr = fs.String("metrics-addr", "", "Serve Prometheus metrics on this address")
		interactive = fs.Bool("interactive", false, "Start the interactive shell")
		history     = fs.String("history", "", "History file of the interactive shell")
	)

	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}

	cfg := def
	if *configFile != "" {
		var err error
		if cfg, err = LoadConfig(*configFile); err != nil {
			return Config{}, nil, err
		}
	}

	tlsConfig := func() *transport.TLSConfig {
		if cfg.Server.TLS == nil {
			cfg.Server.TLS = &transport.TLSConfig{}
		}
		return cfg.Server.TLS
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "address":
			cfg.Server.Address = *address
		case "tls":
			if *useTLS {
				tlsConfig()
			} else {
				cfg.Server.TLS = nil
			}
		case "tls-ca":
			tlsConfig().CAFile = *caFile
		case "tls-cert":
			tlsConfig().CertFile = *certFile
		case "tls-key":
			tlsConfig().KeyFile = *keyFile
		case "server-name":
			tlsConfig().ServerName = *serverName
		case "tls-insecure":
			tlsConfig().InsecureSkipVerify = *insecure
		case "timeout":
			cfg.Timeout = *timeout
		case "log-level":
			cfg.LogLevel = *logLevel
		case "event-log":
			cfg.EventLog = *eventLog
		case "trace":
			cfg.Trace = *trace
		case "metrics-addr":
			cfg.MetricsAddr = *metricsAddr
		case "interactive":
			cfg.Interactive = *interactive
		case "history":
			cfg.HistoryFile = *history
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, nil, err
	}
	return cfg, fs.Args(), nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s (use: debug, info, warn, error)", s)
	}
}
