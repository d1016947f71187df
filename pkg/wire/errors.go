package wire

import (
	"errors"
	"fmt"
)

// Codec errors.
var (
	// ErrInvalidMessage indicates a value that is not a pointer to a tagged struct.
	ErrInvalidMessage = errors.New("not a message")

	// ErrTruncated indicates the buffer ended before a field was complete.
	ErrTruncated = errors.New("truncated buffer")

	// ErrMalformed indicates bytes that cannot be parsed as any field,
	// such as a reserved wire type or an overlong varint.
	ErrMalformed = errors.New("malformed field")

	// ErrUnknownField indicates a field name that is not part of the schema.
	ErrUnknownField = errors.New("unknown field")

	// ErrTypeMismatch indicates a value that cannot be converted to the field type.
	ErrTypeMismatch = errors.New("type mismatch")
)

// SchemaError reports a problem with a message type or with a named field
// of one.
type SchemaError struct {
	Type  string
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("wire: %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("wire: %s.%s: %v", e.Type, e.Field, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// DecodeError reports structurally invalid input.
// Unknown fields never produce a DecodeError.
type DecodeError struct {
	// Message is the name of the message type being decoded.
	Message string

	// Field is the field being parsed, empty while reading a tag or
	// skipping an unknown field.
	Field string

	// Offset is the byte offset in the outermost buffer.
	Offset int

	Err error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("wire: decode %s at offset %d: %v", e.Message, e.Offset, e.Err)
	}
	return fmt.Sprintf("wire: decode %s.%s at offset %d: %v", e.Message, e.Field, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
