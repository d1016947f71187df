package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// ALPNProtocol is the protocol negotiated by gRPC over TLS.
const ALPNProtocol = "h2"

// TLSConfig holds the credential material of one endpoint.
// File paths and in-memory values may be mixed; in-memory values win.
type TLSConfig struct {
	// CAFile is a PEM bundle of trusted CA certificates. For clients it
	// verifies the server; for servers it enables client certificate
	// verification.
	CAFile string `yaml:"ca_file"`

	// CertFile and KeyFile hold this endpoint's PEM certificate and key.
	// Optional for clients, required for servers.
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// ServerName overrides the name used to verify the server certificate.
	ServerName string `yaml:"server_name"`

	// InsecureSkipVerify disables server certificate verification.
	// Only for testing against self-signed backends.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	Certificate *tls.Certificate `yaml:"-"`
	RootCAs     *x509.CertPool   `yaml:"-"`
}

// NewClientTLSConfig creates the TLS configuration of a console client.
func NewClientTLSConfig(cfg *TLSConfig) (*tls.Config, error) {
	if cfg == nil {
		return nil, errors.New("TLSConfig is required")
	}

	pool, err := cfg.certPool()
	if err != nil {
		return nil, err
	}
	cert, err := cfg.certificate()
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		NextProtos:         []string{ALPNProtocol},
		RootCAs:            pool, // nil means the system pool
		ServerName:         cfg.ServerName,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
	if cert != nil {
		tlsConfig.Certificates = []tls.Certificate{*cert}
	}
	return tlsConfig, nil
}

// NewServerTLSConfig creates the TLS configuration of a backend server.
// A configured CA turns on mutual TLS.
func NewServerTLSConfig(cfg *TLSConfig) (*tls.Config, error) {
	if cfg == nil {
		return nil, errors.New("TLSConfig is required")
	}

	cert, err := cfg.certificate()
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, errors.New("server certificate is required")
	}
	pool, err := cfg.certPool()
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{ALPNProtocol},
		Certificates: []tls.Certificate{*cert},
		ClientAuth:   tls.NoClientCert,
	}
	if pool != nil {
		tlsConfig.ClientCAs = pool
		tlsConfig.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return tlsConfig, nil
}

func (c *TLSConfig) certificate() (*tls.Certificate, error) {
	if c.Certificate != nil {
		return c.Certificate, nil
	}
	switch {
	case c.CertFile == "" && c.KeyFile == "":
		return nil, nil
	case c.CertFile == "" || c.KeyFile == "":
		return nil, errors.New("cert_file and key_file must be set together")
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load key pair: %w", err)
	}
	return &cert, nil
}

func (c *TLSConfig) certPool() (*x509.CertPool, error) {
	if c.RootCAs != nil {
		return c.RootCAs, nil
	}
	if c.CAFile == "" {
		return nil, nil
	}

	pem, err := os.ReadFile(c.CAFile)
	if err != nil {
		return nil, fmt.Errorf("read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", c.CAFile)
	}
	return pool, nil
}
