package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToStructural(t *testing.T) {
	msg := &testMessage{
		Name:  "CP-1",
		Big:   5,
		Small: -2,
		Mode:  testModeOn,
		Inner: &testInner{ID: "x"},
		Items: []*testInner{{Count: 2}},
		Tags:  []string{"t"},
	}

	obj, err := ToStructural(msg)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"name":  "CP-1",
		"big":   "5",
		"small": int32(-2),
		"mode":  "On",
		"inner": map[string]any{"id": "x"},
		"items": []any{map[string]any{"count": uint32(2)}},
		"tags":  []any{"t"},
	}, obj)
}

func TestToStructuralOmitsDefaults(t *testing.T) {
	obj, err := ToStructural(&testMessage{})
	require.NoError(t, err)
	assert.Empty(t, obj)
}

func TestToStructuralUnknownEnumValue(t *testing.T) {
	obj, err := ToStructural(&testMessage{Mode: testMode(9)})
	require.NoError(t, err)
	assert.Equal(t, int32(9), obj["mode"])
}

func TestStructuralRoundTrip(t *testing.T) {
	msgs := []*testMessage{
		{},
		{Name: "a", Flag: true},
		{Big: -1 << 50, U64: 1<<64 - 1},
		{Mode: testModeOn, Inner: &testInner{}},
		{Items: []*testInner{{ID: "a", Count: 1}, {ID: "b"}}, Tags: []string{"x", "y"}},
	}

	for _, msg := range msgs {
		obj, err := ToStructural(msg)
		require.NoError(t, err)

		var back testMessage
		require.NoError(t, FromStructural(obj, &back))
		assert.True(t, Equal(msg, &back), "round trip mismatch: %+v vs %+v", msg, back)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	msg := &testMessage{
		Name:  "CP-1",
		Big:   9007199254740993, // not representable as float64
		Mode:  testModeOn,
		Items: []*testInner{{ID: "e1", Count: 4}},
	}

	data, err := MarshalJSON(msg)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, "9007199254740993", generic["big"])
	assert.Equal(t, "On", generic["mode"])

	var back testMessage
	require.NoError(t, UnmarshalJSON(data, &back))
	assert.Equal(t, int64(9007199254740993), back.Big)
	assert.True(t, Equal(msg, &back))
}

func TestFromStructuralCoercion(t *testing.T) {
	obj := map[string]any{
		"name":    12,
		"flag":    "yes",
		"small":   "7",
		"big":     float64(3),
		"mode":    1,
		"u64":     json.Number("18446744073709551615"),
		"unknown": "ignored",
		"inner":   nil,
	}

	var msg testMessage
	require.NoError(t, FromStructural(obj, &msg))

	assert.Equal(t, "12", msg.Name)
	assert.True(t, msg.Flag)
	assert.Equal(t, int32(7), msg.Small)
	assert.Equal(t, int64(3), msg.Big)
	assert.Equal(t, testModeOn, msg.Mode)
	assert.Equal(t, uint64(1<<64-1), msg.U64)
	assert.Nil(t, msg.Inner)
}

func TestFromStructuralEnumBySymbol(t *testing.T) {
	var msg testMessage
	require.NoError(t, FromStructural(map[string]any{"mode": "On"}, &msg))
	assert.Equal(t, testModeOn, msg.Mode)

	require.NoError(t, FromStructural(map[string]any{"mode": "1"}, &msg))
	assert.Equal(t, testModeOn, msg.Mode)

	err := FromStructural(map[string]any{"mode": "Sideways"}, &msg)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "mode", schemaErr.Field)
}

func TestFromStructuralResetsMessage(t *testing.T) {
	msg := testMessage{Name: "old", Flag: true}
	require.NoError(t, FromStructural(map[string]any{"small": 1}, &msg))
	assert.Equal(t, testMessage{Small: 1}, msg)
}

func TestFromStructuralTypeErrors(t *testing.T) {
	tests := []struct {
		name string
		obj  map[string]any
	}{
		{name: "nested not an object", obj: map[string]any{"inner": "x"}},
		{name: "repeated not an array", obj: map[string]any{"items": map[string]any{}}},
		{name: "repeated element not an object", obj: map[string]any{"items": []any{1}}},
		{name: "integer from non-numeric string", obj: map[string]any{"big": "many"}},
		{name: "integer from object", obj: map[string]any{"small": map[string]any{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStructural(tt.obj, &testMessage{})
			assert.ErrorIs(t, err, ErrTypeMismatch)
		})
	}
}

func TestUnmarshalJSONInvalid(t *testing.T) {
	err := UnmarshalJSON([]byte(`{"name":`), &testMessage{})
	assert.Error(t, err)
}
