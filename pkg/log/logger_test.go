package log

import (
	"testing"
)

func TestNoopLogger(t *testing.T) {
	var l Logger = NoopLogger{}
	l.Log(Event{CallID: "ignored"})
}

func TestLoggerFunc(t *testing.T) {
	var got []string
	l := LoggerFunc(func(e Event) { got = append(got, e.CallID) })

	l.Log(Event{CallID: "a"})
	l.Log(Event{CallID: "b"})

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("got %v", got)
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}

	called := false
	l := OrNoop(LoggerFunc(func(Event) { called = true }))
	l.Log(Event{})
	if !called {
		t.Error("OrNoop should return the given logger")
	}
}

func TestMultiLogger(t *testing.T) {
	var first, second []Event
	m := NewMultiLogger(
		LoggerFunc(func(e Event) { first = append(first, e) }),
		nil,
		LoggerFunc(func(e Event) { second = append(second, e) }),
	)

	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (nil skipped)", m.Len())
	}

	m.Log(Event{CallID: "fan-out"})

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one event per logger, got %d and %d", len(first), len(second))
	}
	if first[0].CallID != "fan-out" || second[0].CallID != "fan-out" {
		t.Error("event not forwarded unchanged")
	}
}

func TestMultiLoggerEmpty(t *testing.T) {
	m := NewMultiLogger()
	m.Log(Event{})
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}
