package transport

import (
	"testing"
	"time"

	"github.com/ocpp-csms-server/csms-go/pkg/csms"
)

func TestKeepAliveConfig(t *testing.T) {
	config := DefaultKeepAliveConfig()

	if config.PingInterval != DefaultPingInterval {
		t.Errorf("PingInterval = %v, want %v", config.PingInterval, DefaultPingInterval)
	}
	if config.PongTimeout != DefaultPongTimeout {
		t.Errorf("PongTimeout = %v, want %v", config.PongTimeout, DefaultPongTimeout)
	}
	if !config.PermitWithoutCalls {
		t.Error("PermitWithoutCalls should default to true")
	}

	// Verify detection delay calculation
	if delay := config.DetectionDelay(); delay != 35*time.Second {
		t.Errorf("DetectionDelay = %v, want 35s", delay)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestKeepAliveValidate(t *testing.T) {
	tests := []struct {
		name   string
		config KeepAliveConfig
	}{
		{"interval below minimum", KeepAliveConfig{PingInterval: time.Second, PongTimeout: time.Second}},
		{"zero timeout", KeepAliveConfig{PingInterval: time.Minute}},
		{"zero value", KeepAliveConfig{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestKeepAliveOptions(t *testing.T) {
	config := DefaultKeepAliveConfig()

	if config.dialOption() == nil {
		t.Error("dialOption returned nil")
	}
	if got := len(config.serverOptions()); got != 2 {
		t.Errorf("serverOptions returned %d options, want 2", got)
	}

	base, err := DialOptions(ClientConfig{})
	if err != nil {
		t.Fatalf("DialOptions failed: %v", err)
	}
	withKeepAlive, err := DialOptions(ClientConfig{KeepAlive: &config})
	if err != nil {
		t.Fatalf("DialOptions failed: %v", err)
	}
	if len(withKeepAlive) != len(base)+1 {
		t.Errorf("keep-alive should add one dial option, got %d vs %d", len(withKeepAlive), len(base))
	}

	bad := KeepAliveConfig{PingInterval: time.Second, PongTimeout: time.Second}
	if _, err := DialOptions(ClientConfig{KeepAlive: &bad}); err == nil {
		t.Error("expected error for invalid keep-alive")
	}
	if _, err := NewServer(ServerConfig{KeepAlive: &bad}); err == nil {
		t.Error("expected server error for invalid keep-alive")
	}
}

func TestKeepAliveServerRoundTrip(t *testing.T) {
	config := DefaultKeepAliveConfig()
	srv, _ := startTestServer(t, ServerConfig{KeepAlive: &config})
	conn := dialTestServer(t, ClientConfig{Address: srv.Addr().String(), KeepAlive: &config})

	if err := conn.Invoke(callContext(t), csms.FullMethod(csms.MethodGetCharger), Frame{0x0a, 0x01, 'k'}, new(Frame)); err != nil {
		t.Fatalf("Invoke with keep-alive failed: %v", err)
	}
}
