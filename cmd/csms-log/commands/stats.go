package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ocpp-csms-server/csms-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Methods           map[string]*MethodStats
	Chargers          map[string]int
	Calls             map[string]struct{}
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// MethodStats holds statistics for a single RPC method.
type MethodStats struct {
	Requests  int
	Responses int
	Errors    int
	Total     time.Duration
	Max       time.Duration
}

// Average returns the mean response time, or zero without responses.
func (m *MethodStats) Average() time.Duration {
	if m.Responses == 0 {
		return 0
	}
	return m.Total / time.Duration(m.Responses)
}

func newStats() *Stats {
	return &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Methods:           make(map[string]*MethodStats),
		Chargers:          make(map[string]int),
		Calls:             make(map[string]struct{}),
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++
	s.EventsByDirection[event.Direction]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	if event.CallID != "" {
		s.Calls[event.CallID] = struct{}{}
	}
	if event.ChargerID != "" && event.Message != nil && event.Message.Type == log.MessageTypeRequest {
		s.Chargers[event.ChargerID]++
	}
	if event.Error != nil {
		s.Errors++
	}

	if event.Method == "" {
		return
	}
	m, ok := s.Methods[event.Method]
	if !ok {
		m = &MethodStats{}
		s.Methods[event.Method] = m
	}
	switch {
	case event.Message != nil && event.Message.Type == log.MessageTypeRequest:
		m.Requests++
	case event.Message != nil && event.Message.Type == log.MessageTypeResponse:
		m.Responses++
		if d := event.Message.Duration; d != nil {
			m.Total += *d
			if *d > m.Max {
				m.Max = *d
			}
		}
	case event.Error != nil:
		m.Errors++
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	if err := forEach(reader, func(event log.Event) error {
		stats.add(event)
		return nil
	}); err != nil {
		return err
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== CSMS RPC Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Calls:        %d\n", len(stats.Calls))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerWire, log.LayerService} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}

	if len(stats.Methods) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Methods:")
		names := make([]string, 0, len(stats.Methods))
		for name := range stats.Methods {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			m := stats.Methods[name]
			fmt.Fprintf(w, "  %-28s requests=%d responses=%d errors=%d avg=%s max=%s\n",
				name, m.Requests, m.Responses, m.Errors, formatDuration(m.Average()), formatDuration(m.Max))
		}
	}

	if len(stats.Chargers) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Chargers: %d\n", len(stats.Chargers))
		ids := make([]string, 0, len(stats.Chargers))
		for id := range stats.Chargers {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			if stats.Chargers[ids[i]] != stats.Chargers[ids[j]] {
				return stats.Chargers[ids[i]] > stats.Chargers[ids[j]]
			}
			return ids[i] < ids[j]
		})
		for _, id := range ids {
			fmt.Fprintf(w, "  %-28s %d requests\n", id, stats.Chargers[id])
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
