package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/ocpp-csms-server/csms-go/pkg/log"
)

// FilterOptions holds the textual filter flags shared by view and filter.
type FilterOptions struct {
	CallID    string
	Method    string
	ChargerID string
	TimeStart string
	TimeEnd   string
	Layer     string
	Direction string
	Category  string
}

// Build converts the options into a log.Filter.
func (o FilterOptions) Build() (log.Filter, error) {
	filter := log.Filter{
		CallID:    o.CallID,
		Method:    o.Method,
		ChargerID: o.ChargerID,
	}

	var err error
	if filter.TimeStart, err = parseTimeFlag("time-start", o.TimeStart); err != nil {
		return log.Filter{}, err
	}
	if filter.TimeEnd, err = parseTimeFlag("time-end", o.TimeEnd); err != nil {
		return log.Filter{}, err
	}
	if o.Layer != "" {
		l, err := ParseLayerFlag(o.Layer)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Layer = &l
	}
	if o.Direction != "" {
		d, err := ParseDirectionFlag(o.Direction)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Direction = &d
	}
	if o.Category != "" {
		c, err := ParseCategoryFlag(o.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}
	return filter, nil
}

func parseTimeFlag(name, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format: %w", name, err)
	}
	return &t, nil
}

// ParseLayerFlag parses a layer name, ignoring case.
func ParseLayerFlag(s string) (log.Layer, error) {
	return parseNamed("layer", s, log.LayerTransport, log.LayerWire, log.LayerService)
}

// ParseDirectionFlag parses a direction name, ignoring case.
func ParseDirectionFlag(s string) (log.Direction, error) {
	return parseNamed("direction", s, log.DirectionIn, log.DirectionOut)
}

// ParseCategoryFlag parses a category name, ignoring case.
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseNamed("category", s, log.CategoryMessage, log.CategoryState, log.CategoryError)
}

func parseNamed[T fmt.Stringer](kind, s string, values ...T) (T, error) {
	names := make([]string, len(values))
	for i, v := range values {
		if strings.EqualFold(v.String(), s) {
			return v, nil
		}
		names[i] = strings.ToLower(v.String())
	}
	var zero T
	return zero, fmt.Errorf("invalid %s: %s (must be one of %s)", kind, s, strings.Join(names, ", "))
}

// RunFilter copies the events of path that match opts into output and
// returns how many were written.
func RunFilter(path, output string, opts FilterOptions) (int, error) {
	filter, err := opts.Build()
	if err != nil {
		return 0, err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	out, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}

	count := 0
	err = forEach(reader, func(event log.Event) error {
		out.Log(event)
		count++
		return nil
	})
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close output: %w", cerr)
	}
	if err == nil && out.Dropped() > 0 {
		err = fmt.Errorf("%d events could not be written", out.Dropped())
	}
	return count - out.Dropped(), err
}
