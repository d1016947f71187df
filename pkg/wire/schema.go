package wire

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// Kind is the semantic type of a message field.
type Kind uint8

const (
	KindString Kind = iota + 1
	KindBool
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindEnum
	KindMessage
	KindRepeatedMessage
	KindRepeatedString
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindEnum:
		return "enum"
	case KindMessage:
		return "message"
	case KindRepeatedMessage:
		return "repeated message"
	case KindRepeatedString:
		return "repeated string"
	default:
		return "unknown"
	}
}

// WireType returns the wire type a field of this kind is encoded with.
func (k Kind) WireType() protowire.Type {
	switch k {
	case KindString, KindMessage, KindRepeatedMessage, KindRepeatedString:
		return protowire.BytesType
	default:
		return protowire.VarintType
	}
}

// Enum is implemented by closed, int32-backed symbol sets.
// Values outside Symbols are still carried on the wire unchanged.
type Enum interface {
	String() string

	// Symbols maps every defined value to its symbol name.
	Symbols() map[int32]string
}

var enumType = reflect.TypeOf((*Enum)(nil)).Elem()

// Field is one entry of a message field table.
type Field struct {
	// Name is the structural (JSON) name of the field.
	Name string

	// Number is the field number written in the tag.
	Number protowire.Number

	Kind Kind

	// Elem is the schema of the nested message for message kinds.
	Elem *Schema

	index int
}

// Schema is the field table of a message type, ordered by field number.
type Schema struct {
	Name   string
	Fields []Field

	typ    reflect.Type
	byNum  map[protowire.Number]int
	byName map[string]int
}

// Type returns the Go struct type described by the schema.
func (s *Schema) Type() reflect.Type {
	return s.typ
}

// FieldByNumber returns the field with the given number, or nil.
func (s *Schema) FieldByNumber(num protowire.Number) *Field {
	i, ok := s.byNum[num]
	if !ok {
		return nil
	}
	return &s.Fields[i]
}

// FieldByName returns the field with the given structural name, or nil.
func (s *Schema) FieldByName(name string) *Field {
	i, ok := s.byName[name]
	if !ok {
		return nil
	}
	return &s.Fields[i]
}

var (
	schemaMu    sync.RWMutex
	schemaCache = make(map[reflect.Type]*Schema)
)

// SchemaOf returns the schema of m, which must be a pointer to a tagged struct.
func SchemaOf(m any) (*Schema, error) {
	t := reflect.TypeOf(m)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T", ErrInvalidMessage, m)
	}
	return schemaFor(t.Elem())
}

func schemaFor(t reflect.Type) (*Schema, error) {
	schemaMu.RLock()
	s, ok := schemaCache[t]
	schemaMu.RUnlock()
	if ok {
		return s, nil
	}

	schemaMu.Lock()
	defer schemaMu.Unlock()

	var building []reflect.Type
	s, err := buildSchema(t, &building)
	if err != nil {
		// Drop every partially built schema of this attempt.
		for _, bt := range building {
			delete(schemaCache, bt)
		}
		return nil, err
	}
	return s, nil
}

// buildSchema compiles the field table of t. Must be called with schemaMu held.
func buildSchema(t reflect.Type, building *[]reflect.Type) (*Schema, error) {
	if s, ok := schemaCache[t]; ok {
		return s, nil
	}

	s := &Schema{
		Name:   t.Name(),
		typ:    t,
		byNum:  make(map[protowire.Number]int),
		byName: make(map[string]int),
	}
	// Registered before the fields so self-referencing types resolve.
	schemaCache[t] = s
	*building = append(*building, t)

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("wire")
		if !ok || tag == "-" {
			continue
		}
		if !sf.IsExported() {
			return nil, &SchemaError{Type: s.Name, Field: sf.Name, Err: fmt.Errorf("wire tag on unexported field")}
		}

		num, err := strconv.ParseUint(tag, 10, 32)
		if err != nil || num == 0 || protowire.Number(num) > protowire.MaxValidNumber {
			return nil, &SchemaError{Type: s.Name, Field: sf.Name, Err: fmt.Errorf("invalid field number %q", tag)}
		}

		kind, elem, err := kindOf(sf.Type, building)
		if err != nil {
			return nil, &SchemaError{Type: s.Name, Field: sf.Name, Err: err}
		}

		s.Fields = append(s.Fields, Field{
			Name:   structuralName(sf),
			Number: protowire.Number(num),
			Kind:   kind,
			Elem:   elem,
			index:  i,
		})
	}

	sort.Slice(s.Fields, func(i, j int) bool {
		return s.Fields[i].Number < s.Fields[j].Number
	})

	for i, f := range s.Fields {
		if _, dup := s.byNum[f.Number]; dup {
			return nil, &SchemaError{Type: s.Name, Field: f.Name, Err: fmt.Errorf("duplicate field number %d", f.Number)}
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, &SchemaError{Type: s.Name, Field: f.Name, Err: fmt.Errorf("duplicate field name")}
		}
		s.byNum[f.Number] = i
		s.byName[f.Name] = i
	}

	return s, nil
}

func kindOf(t reflect.Type, building *[]reflect.Type) (Kind, *Schema, error) {
	if t.Kind() == reflect.Int32 && t.Implements(enumType) {
		return KindEnum, nil, nil
	}

	switch t.Kind() {
	case reflect.String:
		return KindString, nil, nil
	case reflect.Bool:
		return KindBool, nil, nil
	case reflect.Int32:
		return KindInt32, nil, nil
	case reflect.Int64:
		return KindInt64, nil, nil
	case reflect.Uint32:
		return KindUint32, nil, nil
	case reflect.Uint64:
		return KindUint64, nil, nil
	case reflect.Pointer:
		if t.Elem().Kind() == reflect.Struct {
			elem, err := buildSchema(t.Elem(), building)
			return KindMessage, elem, err
		}
	case reflect.Slice:
		et := t.Elem()
		if et.Kind() == reflect.String {
			return KindRepeatedString, nil, nil
		}
		if et.Kind() == reflect.Pointer && et.Elem().Kind() == reflect.Struct {
			elem, err := buildSchema(et.Elem(), building)
			return KindRepeatedMessage, elem, err
		}
	}
	return 0, nil, fmt.Errorf("unsupported field type %s", t)
}

// structuralName returns the json tag name, or the Go field name with its
// first letter lowered.
func structuralName(sf reflect.StructField) string {
	if tag := sf.Tag.Get("json"); tag != "" {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	r, size := utf8.DecodeRuneInString(sf.Name)
	return string(unicode.ToLower(r)) + sf.Name[size:]
}

// messageValue validates m and returns its pointer value and schema.
func messageValue(m any) (reflect.Value, *Schema, error) {
	s, err := SchemaOf(m)
	if err != nil {
		return reflect.Value{}, nil, err
	}
	v := reflect.ValueOf(m)
	if v.IsNil() {
		return reflect.Value{}, nil, fmt.Errorf("%w: nil %T", ErrInvalidMessage, m)
	}
	return v, s, nil
}
