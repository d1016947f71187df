// Package wire implements the binary message format shared with the CSMS API.
//
// Messages are plain Go structs whose fields carry a `wire` tag with the
// field number. The field name used by the structural (JSON) form comes from
// the `json` tag:
//
//	type ClearChargerCacheRequest struct {
//		ChargerID string `wire:"1" json:"chargerId"`
//	}
//
// The first time a type is used its tags are compiled into a Schema, a field
// table ordered by field number, and every operation in this package is
// driven by that table. There is no per-type encode or decode code.
//
// # Encoding
//
// Each field is written as a varint tag, (number << 3) | wire type, followed
// by its payload:
//   - string, nested and repeated messages: length-delimited (wire type 2)
//   - bool, integers and enums: varint (wire type 0)
//
// Fields holding their default value (empty string, false, zero, nil,
// empty slice) are never written, so an all-default message encodes to zero
// bytes. Field emission order is the field number order, which makes the
// output deterministic.
//
// # Decoding
//
// Decoding resets the message to its defaults before applying the fields
// found in the buffer. Unknown field numbers and known numbers carrying an
// unexpected wire type are skipped. A zero tag or an end-group tag ends the
// message. Truncated input is reported as a *DecodeError wrapping
// ErrTruncated.
//
// # Structural form and partial construction
//
// ToStructural and FromStructural convert messages to and from loosely typed
// maps keyed by the json field name. FromPartial builds a message from a
// sparse Partial, leaving absent fields at their defaults.
package wire
