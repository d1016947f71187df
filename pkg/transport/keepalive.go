package transport

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

// Keep-alive constants.
const (
	// DefaultPingInterval is the default interval between pings on an idle
	// channel.
	DefaultPingInterval = 30 * time.Second

	// DefaultPongTimeout is the default timeout waiting for a ping ack.
	DefaultPongTimeout = 5 * time.Second

	// MinPingInterval is the shortest ping interval gRPC honours. Servers
	// reject clients that ping more often.
	MinPingInterval = 10 * time.Second
)

// KeepAliveConfig configures HTTP/2 keep-alive pings on an API channel.
type KeepAliveConfig struct {
	// PingInterval is the idle time after which a ping is sent.
	PingInterval time.Duration `yaml:"ping_interval"`

	// PongTimeout is the timeout waiting for the ping ack before the
	// connection is closed.
	PongTimeout time.Duration `yaml:"pong_timeout"`

	// PermitWithoutCalls keeps pinging while no call is in flight.
	PermitWithoutCalls bool `yaml:"permit_without_calls"`
}

// DefaultKeepAliveConfig returns the default keep-alive configuration.
func DefaultKeepAliveConfig() KeepAliveConfig {
	return KeepAliveConfig{
		PingInterval:       DefaultPingInterval,
		PongTimeout:        DefaultPongTimeout,
		PermitWithoutCalls: true,
	}
}

// DetectionDelay is the longest time a dead connection goes unnoticed.
func (c KeepAliveConfig) DetectionDelay() time.Duration {
	return c.PingInterval + c.PongTimeout
}

// Validate rejects intervals gRPC would not honour.
func (c KeepAliveConfig) Validate() error {
	if c.PingInterval < MinPingInterval {
		return fmt.Errorf("keepalive ping interval %s is below the minimum of %s", c.PingInterval, MinPingInterval)
	}
	if c.PongTimeout <= 0 {
		return errors.New("keepalive pong timeout must be positive")
	}
	return nil
}

// dialOption returns the client side keep-alive option.
func (c KeepAliveConfig) dialOption() grpc.DialOption {
	return grpc.WithKeepaliveParams(keepalive.ClientParameters{
		Time:                c.PingInterval,
		Timeout:             c.PongTimeout,
		PermitWithoutStream: c.PermitWithoutCalls,
	})
}

// serverOptions returns the server side pings and the policy accepting
// client pings down to MinPingInterval.
func (c KeepAliveConfig) serverOptions() []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    c.PingInterval,
			Timeout: c.PongTimeout,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             MinPingInterval,
			PermitWithoutStream: c.PermitWithoutCalls,
		}),
	}
}
