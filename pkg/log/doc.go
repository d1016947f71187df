// Package log provides structured RPC event logging for the CSMS console.
//
// This package defines the Logger interface and Event types for capturing
// call-level events at multiple layers (transport, wire, service).
// It is separate from operational logging (slog): event capture provides
// a complete machine-readable trace of every call for debugging and analysis.
//
// # Basic Usage
//
// Clients are configured with a Logger implementation:
//
//	// For development: log to console via slog
//	client := interaction.NewClient(conn, interaction.WithLogger(log.NewSlogAdapter(slog.Default())))
//
//	// For production: write to binary file
//	fileLogger, _ := log.NewFileLogger("/var/log/csms/console.clog")
//
//	// Both: use MultiLogger
//	logger := log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fileLogger)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: encoded message bodies (FrameEvent)
//   - Wire: decoded requests and responses (MessageEvent)
//   - Service: channel state changes (StateChangeEvent)
//
// Errors at any layer have a dedicated event type.
//
// # File Format
//
// Log files use CBOR encoding with .clog extension. The csms-log CLI tool
// provides viewing, filtering, and summary capabilities.
package log
