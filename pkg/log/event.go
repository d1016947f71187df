package log

import (
	"time"
)

// Event represents an RPC log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// CallID correlates the events of one call (UUID). Empty for channel
	// state changes.
	CallID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether the event was captured by the console
	// client or by a backend server.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address (host:port).
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// ChargerID is the charger a call targets, when its request names one.
	ChargerID string `cbor:"8,keyasint,omitempty"`

	// Method is the short method name, e.g. "GetCharger".
	Method string `cbor:"9,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Channel state
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the gRPC layer (encoded message bodies).
	LayerTransport Layer = 0
	// LayerWire is the message encoding layer (decoded messages).
	LayerWire Layer = 1
	// LayerService is the facade and action layer.
	LayerService Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerService:
		return "SERVICE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a request or response.
	CategoryMessage Category = 0
	// CategoryState indicates a channel state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role indicates which side of the API captured the event.
type Role uint8

const (
	// RoleClient indicates the console client.
	RoleClient Role = 0
	// RoleServer indicates a backend server.
	RoleServer Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleClient:
		return "CLIENT"
	case RoleServer:
		return "SERVER"
	default:
		return "UNKNOWN"
	}
}

// MaxFrameData is the number of body bytes kept in a FrameEvent.
const MaxFrameData = 256

// FrameEvent captures an encoded message body at the transport layer.
type FrameEvent struct {
	// Size is the body size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the body (truncated to MaxFrameData bytes).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// NewFrameEvent captures body, keeping at most MaxFrameData bytes.
func NewFrameEvent(body []byte) *FrameEvent {
	fe := &FrameEvent{Size: len(body)}
	if len(body) > MaxFrameData {
		fe.Data = append([]byte(nil), body[:MaxFrameData]...)
		fe.Truncated = true
	} else if len(body) > 0 {
		fe.Data = append([]byte(nil), body...)
	}
	return fe
}

// MessageEvent captures a decoded request or response.
type MessageEvent struct {
	// Type distinguishes request and response.
	Type MessageType `cbor:"1,keyasint"`

	// Payload is the structural form of the message.
	Payload map[string]any `cbor:"2,keyasint,omitempty"`

	// Duration is the time from request send to response receipt
	// (response only). Stored as nanoseconds.
	Duration *time.Duration `cbor:"3,keyasint,omitempty"`
}

// MessageType distinguishes request and response.
type MessageType uint8

const (
	// MessageTypeRequest indicates a request message.
	MessageTypeRequest MessageType = 0
	// MessageTypeResponse indicates a response message.
	MessageTypeResponse MessageType = 1
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures channel lifecycle events.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the gRPC status code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
