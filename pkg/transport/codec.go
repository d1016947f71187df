package transport

import (
	"fmt"
	"reflect"

	"google.golang.org/grpc/encoding"

	"github.com/ocpp-csms-server/csms-go/pkg/wire"
)

// CodecName is the content subtype the codec registers under.
const CodecName = "proto"

// Frame is an already encoded message body.
type Frame []byte

// Codec is a gRPC codec for wire messages and raw frames.
type Codec struct{}

var _ encoding.Codec = Codec{}

// Marshal encodes v. A Frame is returned as is; a nil message encodes to an
// empty body.
func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case Frame:
		return m, nil
	case *Frame:
		if m == nil {
			return nil, nil
		}
		return *m, nil
	}

	if rv := reflect.ValueOf(v); v == nil || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return nil, nil
	}
	data, err := wire.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("transport: marshal %T: %w", v, err)
	}
	return data, nil
}

// Unmarshal decodes data into v, which is a *Frame or a wire message.
// Frames receive a copy since gRPC may reuse the buffer.
func (Codec) Unmarshal(data []byte, v any) error {
	if f, ok := v.(*Frame); ok {
		*f = append(Frame(nil), data...)
		return nil
	}
	return wire.Unmarshal(data, v)
}

// Name returns CodecName.
func (Codec) Name() string {
	return CodecName
}
