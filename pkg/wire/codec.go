package wire

import (
	"bytes"
	"errors"
	"io"
	"reflect"

	"google.golang.org/protobuf/encoding/protowire"
)

// Marshal returns the wire encoding of m, a pointer to a tagged struct.
// An all-default message encodes to an empty (nil) slice.
func Marshal(m any) ([]byte, error) {
	v, s, err := messageValue(m)
	if err != nil {
		return nil, err
	}
	return appendMessage(nil, s, v.Elem()), nil
}

// Append appends the wire encoding of m to b.
func Append(b []byte, m any) ([]byte, error) {
	v, s, err := messageValue(m)
	if err != nil {
		return b, err
	}
	return appendMessage(b, s, v.Elem()), nil
}

// Size returns the encoded length of m, or 0 when m is not a valid message.
func Size(m any) int {
	v, s, err := messageValue(m)
	if err != nil {
		return 0
	}
	return len(appendMessage(nil, s, v.Elem()))
}

func appendMessage(b []byte, s *Schema, v reflect.Value) []byte {
	for i := range s.Fields {
		f := &s.Fields[i]
		fv := v.Field(f.index)

		switch f.Kind {
		case KindString:
			if str := fv.String(); str != "" {
				b = protowire.AppendTag(b, f.Number, protowire.BytesType)
				b = protowire.AppendString(b, str)
			}
		case KindBool:
			if fv.Bool() {
				b = protowire.AppendTag(b, f.Number, protowire.VarintType)
				b = protowire.AppendVarint(b, protowire.EncodeBool(true))
			}
		case KindInt32, KindInt64, KindEnum:
			// Negative int32 values are sign-extended to ten bytes.
			if n := fv.Int(); n != 0 {
				b = protowire.AppendTag(b, f.Number, protowire.VarintType)
				b = protowire.AppendVarint(b, uint64(n))
			}
		case KindUint32, KindUint64:
			if n := fv.Uint(); n != 0 {
				b = protowire.AppendTag(b, f.Number, protowire.VarintType)
				b = protowire.AppendVarint(b, n)
			}
		case KindMessage:
			if !fv.IsNil() {
				b = protowire.AppendTag(b, f.Number, protowire.BytesType)
				b = appendNested(b, f.Elem, fv.Elem())
			}
		case KindRepeatedMessage:
			for j := 0; j < fv.Len(); j++ {
				ev := fv.Index(j)
				b = protowire.AppendTag(b, f.Number, protowire.BytesType)
				if ev.IsNil() {
					b = protowire.AppendVarint(b, 0)
					continue
				}
				b = appendNested(b, f.Elem, ev.Elem())
			}
		case KindRepeatedString:
			for j := 0; j < fv.Len(); j++ {
				b = protowire.AppendTag(b, f.Number, protowire.BytesType)
				b = protowire.AppendString(b, fv.Index(j).String())
			}
		}
	}
	return b
}

func appendNested(b []byte, s *Schema, v reflect.Value) []byte {
	return protowire.AppendBytes(b, appendMessage(nil, s, v))
}

// Unmarshal decodes b into m, a pointer to a tagged struct.
// Every field of m is reset to its default first.
func Unmarshal(b []byte, m any) error {
	return UnmarshalN(b, -1, m)
}

// UnmarshalN decodes the first n bytes of b into m. A negative n decodes
// the whole buffer. An n larger than len(b) is reported as truncation.
func UnmarshalN(b []byte, n int, m any) error {
	v, s, err := messageValue(m)
	if err != nil {
		return err
	}
	if n >= 0 {
		if n > len(b) {
			return &DecodeError{Message: s.Name, Offset: len(b), Err: ErrTruncated}
		}
		b = b[:n]
	}

	v.Elem().Set(reflect.Zero(s.typ))
	return decodeMessage(b, s, v.Elem(), 0)
}

func decodeMessage(b []byte, s *Schema, v reflect.Value, base int) error {
	for pos := 0; pos < len(b); {
		raw, n := protowire.ConsumeVarint(b[pos:])
		if n < 0 {
			return decodeError(s, nil, base+pos, n)
		}
		if raw == 0 {
			return nil
		}
		num, typ := protowire.DecodeTag(raw)
		if typ == protowire.EndGroupType {
			return nil
		}
		pos += n

		f := s.FieldByNumber(num)
		if f == nil || f.Kind.WireType() != typ {
			skip := protowire.ConsumeFieldValue(num, typ, b[pos:])
			if skip < 0 {
				return decodeError(s, nil, base+pos, skip)
			}
			pos += skip
			continue
		}

		used, err := decodeField(b[pos:], s, f, v.Field(f.index), base+pos)
		if err != nil {
			return err
		}
		pos += used
	}
	return nil
}

func decodeField(b []byte, s *Schema, f *Field, fv reflect.Value, off int) (int, error) {
	switch f.Kind {
	case KindString:
		str, n := protowire.ConsumeString(b)
		if n < 0 {
			return 0, decodeError(s, f, off, n)
		}
		fv.SetString(str)
		return n, nil

	case KindRepeatedString:
		str, n := protowire.ConsumeString(b)
		if n < 0 {
			return 0, decodeError(s, f, off, n)
		}
		fv.Set(reflect.Append(fv, reflect.ValueOf(str).Convert(fv.Type().Elem())))
		return n, nil

	case KindMessage, KindRepeatedMessage:
		inner, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, decodeError(s, f, off, n)
		}
		nv := reflect.New(f.Elem.typ)
		if err := decodeMessage(inner, f.Elem, nv.Elem(), off+n-len(inner)); err != nil {
			return 0, err
		}
		if f.Kind == KindMessage {
			fv.Set(nv)
		} else {
			fv.Set(reflect.Append(fv, nv))
		}
		return n, nil
	}

	x, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, decodeError(s, f, off, n)
	}
	switch f.Kind {
	case KindBool:
		fv.SetBool(protowire.DecodeBool(x))
	case KindInt32, KindEnum:
		fv.SetInt(int64(int32(x)))
	case KindInt64:
		fv.SetInt(int64(x))
	case KindUint32:
		fv.SetUint(uint64(uint32(x)))
	case KindUint64:
		fv.SetUint(x)
	}
	return n, nil
}

func decodeError(s *Schema, f *Field, off int, code int) error {
	e := &DecodeError{Message: s.Name, Offset: off, Err: parseError(code)}
	if f != nil {
		e.Field = f.Name
	}
	return e
}

// parseError maps a negative protowire length to a package error.
func parseError(code int) error {
	if errors.Is(protowire.ParseError(code), io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return ErrMalformed
}

// Equal reports whether a and b have the same wire encoding.
func Equal(a, b any) bool {
	dataA, errA := Marshal(a)
	dataB, errB := Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(dataA, dataB)
}

// Clone returns a deep copy of m made by re-encoding it.
func Clone[T any](m *T) (*T, error) {
	data, err := Marshal(m)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}
