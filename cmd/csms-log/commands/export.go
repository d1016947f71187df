package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ocpp-csms-server/csms-go/pkg/log"
)

// Export formats.
const (
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
)

var csvHeader = []string{"timestamp", "call_id", "direction", "layer", "category", "role", "remote", "method", "charger_id", "type", "code"}

// sink receives exported events one at a time.
type sink interface {
	write(event log.Event) error
	flush() error
}

func newSink(format string, w io.Writer) (sink, error) {
	switch format {
	case FormatJSONL:
		return jsonlSink{enc: json.NewEncoder(w)}, nil
	case FormatCSV:
		s := csvSink{w: csv.NewWriter(w)}
		if err := s.w.Write(csvHeader); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: %s, %s)", format, FormatJSONL, FormatCSV)
	}
}

// RunExport writes every event of the log at path to output (stdout when
// empty) as JSON lines or CSV rows.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	if _, err := newSink(format, io.Discard); err != nil {
		return err
	}

	w := io.Writer(os.Stdout)
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return export(reader, format, w)
}

func export(reader *log.Reader, format string, w io.Writer) error {
	s, err := newSink(format, w)
	if err != nil {
		return err
	}
	err = forEach(reader, func(event log.Event) error {
		if err := s.write(event); err != nil {
			return fmt.Errorf("failed to export event %s: %w", event.CallID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.flush()
}

type jsonlSink struct {
	enc *json.Encoder
}

func (s jsonlSink) write(event log.Event) error { return s.enc.Encode(event) }
func (s jsonlSink) flush() error                { return nil }

type csvSink struct {
	w *csv.Writer
}

func (s csvSink) write(event log.Event) error {
	var code string
	if event.Error != nil && event.Error.Code != nil {
		code = strconv.Itoa(*event.Error.Code)
	}
	return s.w.Write([]string{
		event.Timestamp.UTC().Format(timestampLayout),
		event.CallID,
		event.Direction.String(),
		event.Layer.String(),
		event.Category.String(),
		event.LocalRole.String(),
		event.RemoteAddr,
		event.Method,
		event.ChargerID,
		eventLabel(event),
		code,
	})
}

func (s csvSink) flush() error {
	s.w.Flush()
	return s.w.Error()
}
