package transport

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ocpp-csms-server/csms-go/pkg/version"
)

const (
	// DefaultAddress is where the CSMS API listens in a default deployment.
	DefaultAddress = "localhost:50053"

	// DefaultMaxMessageSize bounds a single request or response.
	DefaultMaxMessageSize = 4 * 1024 * 1024
)

// ClientConfig configures the channel to the CSMS API.
type ClientConfig struct {
	// Address is the host:port of the API (default: localhost:50053).
	Address string `yaml:"address"`

	// TLS enables TLS. Nil means plaintext.
	TLS *TLSConfig `yaml:"tls"`

	// MaxMessageSize is the maximum message size in bytes (default: 4 MiB).
	MaxMessageSize int `yaml:"max_message_size"`

	// UserAgent is sent with every call (default: csms-console/<version>).
	UserAgent string `yaml:"user_agent"`

	// KeepAlive enables keep-alive pings. Nil leaves gRPC's defaults.
	KeepAlive *KeepAliveConfig `yaml:"keepalive"`
}

func (c *ClientConfig) applyDefaults() {
	if c.Address == "" {
		c.Address = DefaultAddress
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent("csms-console")
	}
}

// Secure reports whether the config selects TLS.
func (c ClientConfig) Secure() bool {
	return c.TLS != nil
}

// DialOptions returns the gRPC options for cfg.
func DialOptions(cfg ClientConfig) ([]grpc.DialOption, error) {
	cfg.applyDefaults()

	creds := insecure.NewCredentials()
	if cfg.TLS != nil {
		tlsConf, err := NewClientTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		creds = credentials.NewTLS(tlsConf)
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithUserAgent(cfg.UserAgent),
		grpc.WithDefaultCallOptions(
			grpc.ForceCodec(Codec{}),
			grpc.MaxCallRecvMsgSize(cfg.MaxMessageSize),
			grpc.MaxCallSendMsgSize(cfg.MaxMessageSize),
		),
	}
	if cfg.KeepAlive != nil {
		if err := cfg.KeepAlive.Validate(); err != nil {
			return nil, err
		}
		opts = append(opts, cfg.KeepAlive.dialOption())
	}
	return opts, nil
}

// Dial creates a channel to the API. No connection is made until the first
// call. Extra options are applied after the ones derived from cfg.
func Dial(cfg ClientConfig, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts, err := DialOptions(cfg)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	conn, err := grpc.NewClient(cfg.Address, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Address, err)
	}
	return conn, nil
}
