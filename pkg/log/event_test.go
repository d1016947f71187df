package log

import (
	"bytes"
	"testing"
)

func TestDirectionString(t *testing.T) {
	tests := []struct {
		dir  Direction
		want string
	}{
		{DirectionIn, "IN"},
		{DirectionOut, "OUT"},
		{Direction(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.dir.String(); got != tt.want {
			t.Errorf("Direction(%d).String() = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

func TestLayerString(t *testing.T) {
	tests := []struct {
		layer Layer
		want  string
	}{
		{LayerTransport, "TRANSPORT"},
		{LayerWire, "WIRE"},
		{LayerService, "SERVICE"},
		{Layer(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.layer.String(); got != tt.want {
			t.Errorf("Layer(%d).String() = %q, want %q", tt.layer, got, tt.want)
		}
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		cat  Category
		want string
	}{
		{CategoryMessage, "MESSAGE"},
		{CategoryState, "STATE"},
		{CategoryError, "ERROR"},
	}

	for _, tt := range tests {
		if got := tt.cat.String(); got != tt.want {
			t.Errorf("Category(%d).String() = %q, want %q", tt.cat, got, tt.want)
		}
	}

	if Category(1).String() != "UNKNOWN" {
		t.Error("unused category value should be UNKNOWN")
	}
}

func TestRoleString(t *testing.T) {
	if RoleClient.String() != "CLIENT" || RoleServer.String() != "SERVER" || Role(9).String() != "UNKNOWN" {
		t.Error("unexpected role names")
	}
}

func TestMessageTypeString(t *testing.T) {
	if MessageTypeRequest.String() != "REQUEST" || MessageTypeResponse.String() != "RESPONSE" || MessageType(9).String() != "UNKNOWN" {
		t.Error("unexpected message type names")
	}
}

func TestNewFrameEvent(t *testing.T) {
	small := NewFrameEvent([]byte{1, 2, 3})
	if small.Size != 3 || small.Truncated || !bytes.Equal(small.Data, []byte{1, 2, 3}) {
		t.Errorf("unexpected small frame: %+v", small)
	}

	empty := NewFrameEvent(nil)
	if empty.Size != 0 || empty.Data != nil {
		t.Errorf("unexpected empty frame: %+v", empty)
	}

	body := bytes.Repeat([]byte{0xab}, MaxFrameData+10)
	large := NewFrameEvent(body)
	if large.Size != len(body) {
		t.Errorf("Size = %d, want %d", large.Size, len(body))
	}
	if !large.Truncated || len(large.Data) != MaxFrameData {
		t.Errorf("expected truncation to %d bytes, got %d (truncated=%v)", MaxFrameData, len(large.Data), large.Truncated)
	}

	body[0] = 0
	if large.Data[0] != 0xab {
		t.Error("frame data must be copied")
	}
}
