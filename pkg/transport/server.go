package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

// DefaultListenAddress is the default server listen address.
const DefaultListenAddress = ":50053"

// ServerConfig configures a gRPC server speaking the wire codec.
type ServerConfig struct {
	// Address to listen on (default: ":50053"). Ignored when Listener is set.
	Address string `yaml:"address"`

	// TLS enables TLS. Nil means plaintext.
	TLS *TLSConfig `yaml:"tls"`

	// MaxMessageSize is the maximum message size (default: 4 MiB).
	MaxMessageSize int `yaml:"max_message_size"`

	// Listener serves on an existing listener, such as a bufconn in tests.
	Listener net.Listener `yaml:"-"`

	// KeepAlive enables server pings and accepts client pings. Nil leaves
	// gRPC's defaults.
	KeepAlive *KeepAliveConfig `yaml:"keepalive"`

	// UnaryInterceptors run in order around every call.
	UnaryInterceptors []grpc.UnaryServerInterceptor `yaml:"-"`
}

// Server wraps a grpc.Server with start and stop handling.
// It implements grpc.ServiceRegistrar, so services register on it directly.
type Server struct {
	config ServerConfig
	grpc   *grpc.Server

	listener net.Listener
	running  atomic.Bool
	wg       sync.WaitGroup

	errMu    sync.Mutex
	serveErr error
}

// NewServer creates a server. Services must be registered before Start.
func NewServer(config ServerConfig, opts ...grpc.ServerOption) (*Server, error) {
	if config.Address == "" {
		config.Address = DefaultListenAddress
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}

	base := []grpc.ServerOption{
		grpc.ForceServerCodec(Codec{}),
		grpc.MaxRecvMsgSize(config.MaxMessageSize),
		grpc.MaxSendMsgSize(config.MaxMessageSize),
	}
	if len(config.UnaryInterceptors) > 0 {
		base = append(base, grpc.ChainUnaryInterceptor(config.UnaryInterceptors...))
	}
	if config.KeepAlive != nil {
		if err := config.KeepAlive.Validate(); err != nil {
			return nil, err
		}
		base = append(base, config.KeepAlive.serverOptions()...)
	}
	if config.TLS != nil {
		tlsConf, err := NewServerTLSConfig(config.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		base = append(base, grpc.Creds(credentials.NewTLS(tlsConf)))
	}

	return &Server{
		config: config,
		grpc:   grpc.NewServer(append(base, opts...)...),
	}, nil
}

// RegisterService registers a service implementation.
func (s *Server) RegisterService(desc *grpc.ServiceDesc, impl any) {
	s.grpc.RegisterService(desc, impl)
}

// Start begins serving in the background. The server stops when ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return errors.New("server already running")
	}

	listener := s.config.Listener
	if listener == nil {
		var err error
		listener, err = net.Listen("tcp", s.config.Address)
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}
	}
	s.listener = listener
	s.running.Store(true)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.grpc.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			s.errMu.Lock()
			s.serveErr = err
			s.errMu.Unlock()
		}
	}()

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			_ = s.Stop()
		}()
	}

	return nil
}

// Stop drains in-flight calls and stops the server.
func (s *Server) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}
	s.grpc.GracefulStop()
	s.wg.Wait()

	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.serveErr
}

// Addr returns the listener's address, or nil when not started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
