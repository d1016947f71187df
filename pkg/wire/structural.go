package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// ToStructural converts m into a loosely typed map keyed by the structural
// field names. Fields holding their default value are omitted, mirroring the
// wire encoding. Enums are emitted by symbol name and 64-bit integers as
// decimal strings.
func ToStructural(m any) (map[string]any, error) {
	v, s, err := messageValue(m)
	if err != nil {
		return nil, err
	}
	return toStructural(s, v.Elem()), nil
}

func toStructural(s *Schema, v reflect.Value) map[string]any {
	obj := make(map[string]any)
	for i := range s.Fields {
		f := &s.Fields[i]
		fv := v.Field(f.index)

		switch f.Kind {
		case KindString:
			if str := fv.String(); str != "" {
				obj[f.Name] = str
			}
		case KindBool:
			if fv.Bool() {
				obj[f.Name] = true
			}
		case KindInt32:
			if n := fv.Int(); n != 0 {
				obj[f.Name] = int32(n)
			}
		case KindUint32:
			if n := fv.Uint(); n != 0 {
				obj[f.Name] = uint32(n)
			}
		case KindInt64:
			if n := fv.Int(); n != 0 {
				obj[f.Name] = strconv.FormatInt(n, 10)
			}
		case KindUint64:
			if n := fv.Uint(); n != 0 {
				obj[f.Name] = strconv.FormatUint(n, 10)
			}
		case KindEnum:
			if n := int32(fv.Int()); n != 0 {
				if name, ok := fv.Interface().(Enum).Symbols()[n]; ok {
					obj[f.Name] = name
				} else {
					obj[f.Name] = n
				}
			}
		case KindMessage:
			if !fv.IsNil() {
				obj[f.Name] = toStructural(f.Elem, fv.Elem())
			}
		case KindRepeatedMessage:
			if fv.Len() > 0 {
				items := make([]any, fv.Len())
				for j := range items {
					ev := fv.Index(j)
					if ev.IsNil() {
						items[j] = map[string]any{}
						continue
					}
					items[j] = toStructural(f.Elem, ev.Elem())
				}
				obj[f.Name] = items
			}
		case KindRepeatedString:
			if fv.Len() > 0 {
				items := make([]any, fv.Len())
				for j := range items {
					items[j] = fv.Index(j).String()
				}
				obj[f.Name] = items
			}
		}
	}
	return obj
}

// FromStructural resets m to its defaults and fills every field whose name
// is present in obj with a non-nil value, coercing it to the field type.
func FromStructural(obj map[string]any, m any) error {
	v, s, err := messageValue(m)
	if err != nil {
		return err
	}
	v.Elem().Set(reflect.Zero(s.typ))
	return fromStructural(obj, s, v.Elem())
}

func fromStructural(obj map[string]any, s *Schema, v reflect.Value) error {
	for i := range s.Fields {
		f := &s.Fields[i]
		raw, ok := obj[f.Name]
		if !ok || raw == nil {
			continue
		}
		if err := setStructural(f, v.Field(f.index), raw); err != nil {
			return &SchemaError{Type: s.Name, Field: f.Name, Err: err}
		}
	}
	return nil
}

func setStructural(f *Field, fv reflect.Value, raw any) error {
	switch f.Kind {
	case KindString:
		fv.SetString(coerceString(raw))
	case KindBool:
		fv.SetBool(truthy(raw))
	case KindInt32, KindInt64:
		n, err := coerceInt(raw)
		if err != nil {
			return err
		}
		if f.Kind == KindInt32 {
			n = int64(int32(n))
		}
		fv.SetInt(n)
	case KindUint32, KindUint64:
		n, err := coerceInt(raw)
		if err != nil {
			return err
		}
		if f.Kind == KindUint32 {
			n = int64(uint32(n))
		}
		fv.SetUint(uint64(n))
	case KindEnum:
		n, err := coerceEnum(fv, raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(n))
	case KindMessage:
		obj, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: want object, got %T", ErrTypeMismatch, raw)
		}
		nv := reflect.New(f.Elem.typ)
		if err := fromStructural(obj, f.Elem, nv.Elem()); err != nil {
			return err
		}
		fv.Set(nv)
	case KindRepeatedMessage:
		items, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("%w: want array, got %T", ErrTypeMismatch, raw)
		}
		out := reflect.MakeSlice(fv.Type(), 0, len(items))
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: want object element, got %T", ErrTypeMismatch, item)
			}
			nv := reflect.New(f.Elem.typ)
			if err := fromStructural(obj, f.Elem, nv.Elem()); err != nil {
				return err
			}
			out = reflect.Append(out, nv)
		}
		fv.Set(out)
	case KindRepeatedString:
		items, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("%w: want array, got %T", ErrTypeMismatch, raw)
		}
		out := reflect.MakeSlice(fv.Type(), len(items), len(items))
		for j, item := range items {
			out.Index(j).SetString(coerceString(item))
		}
		fv.Set(out)
	}
	return nil
}

// coerceString converts a scalar the way a string conversion of a JSON
// value would: numbers in their shortest form, booleans as true/false.
func coerceString(raw any) string {
	switch x := raw.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(raw)
	}
}

// truthy reports the boolean conversion of a JSON value.
func truthy(raw any) bool {
	switch x := raw.(type) {
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	}
	return true
}

func coerceInt(raw any) (int64, error) {
	switch x := raw.(type) {
	case string:
		return parseInt(x)
	case json.Number:
		return parseInt(x.String())
	case float64:
		return int64(x), nil
	case float32:
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), nil
	}
	return 0, fmt.Errorf("%w: want number, got %T", ErrTypeMismatch, raw)
}

func parseInt(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return int64(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, s)
	}
	return int64(f), nil
}

func coerceEnum(fv reflect.Value, raw any) (int32, error) {
	if name, ok := raw.(string); ok {
		for n, sym := range fv.Interface().(Enum).Symbols() {
			if sym == name {
				return n, nil
			}
		}
		if n, err := strconv.ParseInt(name, 10, 32); err == nil {
			return int32(n), nil
		}
		return 0, fmt.Errorf("%w: unknown symbol %q for %s", ErrTypeMismatch, name, fv.Type().Name())
	}
	n, err := coerceInt(raw)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

// MarshalJSON returns the JSON text of the structural form of m.
func MarshalJSON(m any) ([]byte, error) {
	obj, err := ToStructural(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

// UnmarshalJSON parses JSON text and fills m from its structural form.
// Numbers are kept as json.Number so 64-bit values survive.
func UnmarshalJSON(data []byte, m any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return fmt.Errorf("wire: parse json: %w", err)
	}
	return FromStructural(obj, m)
}
