// Package commands implements the csms-log CLI commands.
package commands

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"google.golang.org/grpc/codes"

	"github.com/ocpp-csms-server/csms-go/pkg/log"
)

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// eventLabel names the payload an event carries.
func eventLabel(event log.Event) string {
	switch {
	case event.Frame != nil:
		return "Frame"
	case event.Message != nil:
		return event.Message.Type.String()
	case event.StateChange != nil:
		return "State"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// detail is one indented "Key: value" line below an event header.
type detail struct {
	key   string
	value string
}

// formatEvent writes the header line of an event followed by its details
// and a blank line:
//
//	2026-01-28T10:15:32.123456Z [call:abc12345] OUT WIRE REQUEST GetCharger
func formatEvent(w io.Writer, event log.Event) {
	callID := "-"
	if event.CallID != "" {
		callID = shortenID(event.CallID)
	}
	header := []string{
		event.Timestamp.UTC().Format(timestampLayout),
		"[call:" + callID + "]",
		fmt.Sprintf("%-3s", event.Direction),
		event.Layer.String(),
		eventLabel(event),
	}
	if event.Method != "" {
		header = append(header, event.Method)
	}
	fmt.Fprintln(w, strings.Join(header, " "))

	for _, d := range eventDetails(event) {
		fmt.Fprintf(w, "  %s: %s\n", d.key, d.value)
	}
	fmt.Fprintln(w)
}

func eventDetails(event log.Event) []detail {
	var ds []detail
	if event.LocalRole == log.RoleServer || event.RemoteAddr != "" {
		ds = append(ds, detail{"Role", event.LocalRole.String()})
	}
	if event.RemoteAddr != "" {
		ds = append(ds, detail{"Remote", event.RemoteAddr})
	}
	if event.ChargerID != "" {
		ds = append(ds, detail{"Charger", event.ChargerID})
	}

	switch {
	case event.Frame != nil:
		f := event.Frame
		ds = append(ds, detail{"Size", fmt.Sprintf("%d bytes", f.Size)})
		if len(f.Data) > 0 {
			data := hex.EncodeToString(f.Data)
			if f.Truncated {
				data += " (truncated)"
			}
			ds = append(ds, detail{"Data", data})
		}
	case event.Message != nil:
		m := event.Message
		if m.Duration != nil {
			ds = append(ds, detail{"Duration", formatDuration(*m.Duration)})
		}
		if m.Payload != nil {
			if payload, err := json.Marshal(m.Payload); err == nil {
				ds = append(ds, detail{"Payload", string(payload)})
			}
		}
	case event.StateChange != nil:
		sc := event.StateChange
		ds = append(ds, detail{"State", strings.TrimSpace(sc.OldState + " -> " + sc.NewState)})
		if sc.Reason != "" {
			ds = append(ds, detail{"Reason", sc.Reason})
		}
	case event.Error != nil:
		e := event.Error
		ds = append(ds, detail{"Layer", e.Layer.String()}, detail{"Message", e.Message})
		if e.Code != nil {
			ds = append(ds, detail{"Code", fmt.Sprintf("%d (%s)", *e.Code, codes.Code(*e.Code))})
		}
		if e.Context != "" {
			ds = append(ds, detail{"Context", e.Context})
		}
	}
	return ds
}

// shortenID returns the first 8 characters of a call ID, enough to tell
// the calls of one session apart.
func shortenID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatDuration prints d with three decimals in the largest unit below it.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%.3fus", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.3fs", d.Seconds())
	}
}

// RunView prints the events of path that pass filter.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	return forEach(reader, func(event log.Event) error {
		formatEvent(output, event)
		return nil
	})
}

// forEach calls fn for every remaining event of reader, stopping at the
// first error.
func forEach(reader *log.Reader, fn func(log.Event) error) error {
	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}
