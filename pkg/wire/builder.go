package wire

import (
	"fmt"
	"reflect"
	"sort"
)

// Partial is a sparse set of field values keyed by structural field name.
// A nested message field accepts a Partial, a *T or a T; a repeated message
// field accepts a []Partial or a []*T.
type Partial map[string]any

// New returns the all-defaults instance of T.
func New[T any]() *T {
	return new(T)
}

// Create builds a T from an optional base Partial.
func Create[T any](base ...Partial) (*T, error) {
	var p Partial
	if len(base) > 0 {
		p = base[0]
	}
	return FromPartial[T](p)
}

// FromPartial builds a T from defaults with the fields in p layered on top.
// Values are only converted between compatible Go types; their content is
// not validated, so an out-of-range enum value is kept as given.
func FromPartial[T any](p Partial) (*T, error) {
	m := new(T)
	if err := Apply(m, p); err != nil {
		return nil, err
	}
	return m, nil
}

// Apply layers p onto m. Fields absent from p keep their current value and
// a nil value resets a field to its default.
func Apply(m any, p Partial) error {
	v, s, err := messageValue(m)
	if err != nil {
		return err
	}
	return applyPartial(s, v.Elem(), p)
}

func applyPartial(s *Schema, v reflect.Value, p Partial) error {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := s.FieldByName(name)
		if f == nil {
			return &SchemaError{Type: s.Name, Field: name, Err: ErrUnknownField}
		}
		fv := v.Field(f.index)
		val := p[name]
		if val == nil {
			fv.Set(reflect.Zero(fv.Type()))
			continue
		}

		var err error
		switch f.Kind {
		case KindMessage:
			var sub reflect.Value
			if sub, err = partialMessage(f.Elem, val); err == nil {
				fv.Set(sub)
			}
		case KindRepeatedMessage:
			err = applyRepeated(f, fv, val)
		default:
			err = assign(fv, val)
		}
		if err != nil {
			return &SchemaError{Type: s.Name, Field: name, Err: err}
		}
	}
	return nil
}

// partialMessage returns a fresh *T for a nested field value.
func partialMessage(s *Schema, val any) (reflect.Value, error) {
	switch x := val.(type) {
	case Partial:
		return newFromPartial(s, x)
	case map[string]any:
		return newFromPartial(s, Partial(x))
	}

	rv := reflect.ValueOf(val)
	nv := reflect.New(s.typ)
	switch rv.Type() {
	case reflect.PointerTo(s.typ):
		if rv.IsNil() {
			return reflect.Zero(rv.Type()), nil
		}
		nv.Elem().Set(rv.Elem())
		return nv, nil
	case s.typ:
		nv.Elem().Set(rv)
		return nv, nil
	}
	return reflect.Value{}, fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, s.Name, val)
}

func newFromPartial(s *Schema, p Partial) (reflect.Value, error) {
	nv := reflect.New(s.typ)
	if err := applyPartial(s, nv.Elem(), p); err != nil {
		return reflect.Value{}, err
	}
	return nv, nil
}

func applyRepeated(f *Field, fv reflect.Value, val any) error {
	var parts []Partial
	switch x := val.(type) {
	case []Partial:
		parts = x
	case []map[string]any:
		parts = make([]Partial, len(x))
		for i, m := range x {
			parts[i] = m
		}
	default:
		return assign(fv, val)
	}

	out := reflect.MakeSlice(fv.Type(), 0, len(parts))
	for _, part := range parts {
		nv, err := newFromPartial(f.Elem, part)
		if err != nil {
			return err
		}
		out = reflect.Append(out, nv)
	}
	fv.Set(out)
	return nil
}

// assign stores val in fv, converting between types of the same family.
func assign(fv reflect.Value, val any) error {
	rv := reflect.ValueOf(val)
	if rv.Type().AssignableTo(fv.Type()) {
		fv.Set(rv)
		return nil
	}
	if sameFamily(rv.Type(), fv.Type()) {
		fv.Set(rv.Convert(fv.Type()))
		return nil
	}
	return fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, fv.Type(), val)
}

// sameFamily reports whether a value of type from may be converted to type
// to without changing its meaning class (int to string conversions are not
// allowed, for example).
func sameFamily(from, to reflect.Type) bool {
	switch {
	case isInteger(from.Kind()) && isInteger(to.Kind()):
		return true
	case from.Kind() == reflect.String && to.Kind() == reflect.String:
		return true
	case from.Kind() == reflect.Bool && to.Kind() == reflect.Bool:
		return true
	case from.Kind() == reflect.Slice && to.Kind() == reflect.Slice:
		return from.ConvertibleTo(to)
	}
	return false
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
