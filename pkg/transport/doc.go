// Package transport builds the gRPC channels used to reach the CSMS API.
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│   wire messages (pkg/wire)     │
//	├────────────────────────────────┤
//	│   gRPC unary calls             │
//	├────────────────────────────────┤
//	│   HTTP/2                       │
//	├────────────────────────────────┤
//	│   TLS 1.2+ (optional)          │
//	├────────────────────────────────┤
//	│   TCP                          │
//	└────────────────────────────────┘
//
// A client binds one endpoint and one security mode for its lifetime.
// Without TLS material the channel is plaintext, matching a backend running
// inside a trusted network. With a TLSConfig the server certificate is
// verified against the configured CA, or the system pool when no CA is set,
// and a client certificate is presented when one is configured.
//
// # Codec
//
// Codec replaces the default protobuf codec under the same name, so peers
// still see application/grpc+proto. It carries pre-encoded Frame values
// verbatim and encodes any other value with package wire.
package transport
