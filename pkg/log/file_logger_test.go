package log

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileLoggerCreatesFileAndDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "console"+FileExtension)

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
	if logger.Path() != path {
		t.Errorf("Path() = %q, want %q", logger.Path(), path)
	}
}

func TestFileLoggerWritesCBOR(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.clog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	event := Event{
		Timestamp: time.Now(),
		CallID:    "call-123",
		Direction: DirectionOut,
		Layer:     LayerTransport,
		Category:  CategoryMessage,
		Frame:     NewFrameEvent([]byte{1, 2, 3}),
	}
	logger.Log(event)
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}

	if decoded.CallID != event.CallID {
		t.Errorf("CallID: got %q, want %q", decoded.CallID, event.CallID)
	}
	if decoded.Frame == nil || decoded.Frame.Size != 3 {
		t.Errorf("Frame: got %+v", decoded.Frame)
	}
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.clog")

	for _, id := range []string{"first", "second"} {
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}
		logger.Log(Event{Timestamp: time.Now(), CallID: id})
		logger.Close()
	}

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	events, err := reader.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(events) != 2 || events[0].CallID != "first" || events[1].CallID != "second" {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestFileLoggerConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.clog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	const goroutines = 10
	const perGoroutine = 50

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				logger.Log(Event{Timestamp: time.Now(), Method: "GetCharger"})
			}
		}()
	}
	wg.Wait()
	logger.Close()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	events, err := reader.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(events) != goroutines*perGoroutine {
		t.Errorf("got %d events, want %d", len(events), goroutines*perGoroutine)
	}
	if logger.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", logger.Dropped())
	}
}

func TestFileLoggerCloseIdempotent(t *testing.T) {
	logger, err := NewFileLogger(filepath.Join(t.TempDir(), "test.clog"))
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	// Logging after close is ignored.
	logger.Log(Event{CallID: "late"})
}
