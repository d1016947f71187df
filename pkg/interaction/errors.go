package interaction

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ocpp-csms-server/csms-go/pkg/wire"
)

// Client errors.
var (
	ErrClientClosed  = errors.New("client is closed")
	ErrUnknownMethod = errors.New("unknown method")
)

// CallError is the error delivered to a callback when a call fails.
// Err is a gRPC status error for transport and remote failures, a
// *wire.DecodeError when the response could not be decoded, or one of the
// package's sentinel errors.
type CallError struct {
	Method string
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Method, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Code returns the gRPC status code of the failure. Decode failures report
// codes.Internal and local failures codes.Unknown.
func (e *CallError) Code() codes.Code {
	if IsDecodeError(e.Err) {
		return codes.Internal
	}
	if s, ok := status.FromError(e.Err); ok {
		return s.Code()
	}
	return codes.Unknown
}

// IsDecodeError reports whether err was caused by an undecodable response.
func IsDecodeError(err error) bool {
	var de *wire.DecodeError
	return errors.As(err, &de)
}

// Code returns the gRPC status code carried by err, looking through a
// *CallError. It returns codes.OK for a nil error.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return status.Code(err)
}
