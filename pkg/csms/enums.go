package csms

import (
	"fmt"
	"strings"
)

// RebootType selects how a charger restarts.
type RebootType int32

const (
	// RebootSoft asks the charger to stop transactions and restart gracefully.
	RebootSoft RebootType = 0

	// RebootHard restarts the charger immediately.
	RebootHard RebootType = 1
)

var rebootTypeSymbols = map[int32]string{
	0: "Soft",
	1: "Hard",
}

// String returns the symbol name.
func (r RebootType) String() string {
	if name, ok := rebootTypeSymbols[int32(r)]; ok {
		return name
	}
	return fmt.Sprintf("RebootType(%d)", int32(r))
}

// Symbols returns every defined reboot type by value.
func (RebootType) Symbols() map[int32]string {
	return rebootTypeSymbols
}

// IsValid reports whether r is a defined reboot type.
func (r RebootType) IsValid() bool {
	_, ok := rebootTypeSymbols[int32(r)]
	return ok
}

// ParseRebootType parses a symbol name, case-insensitively.
func ParseRebootType(s string) (RebootType, error) {
	for n, name := range rebootTypeSymbols {
		if strings.EqualFold(name, s) {
			return RebootType(n), nil
		}
	}
	return 0, fmt.Errorf("unknown reboot type %q", s)
}

// ConnectorStatus is the last status a connector reported.
type ConnectorStatus int32

const (
	ConnectorStatusUnspecified ConnectorStatus = 0
	ConnectorStatusAvailable   ConnectorStatus = 1
	ConnectorStatusOccupied    ConnectorStatus = 2
	ConnectorStatusReserved    ConnectorStatus = 3
	ConnectorStatusUnavailable ConnectorStatus = 4
	ConnectorStatusFaulted     ConnectorStatus = 5
)

var connectorStatusSymbols = map[int32]string{
	0: "Unspecified",
	1: "Available",
	2: "Occupied",
	3: "Reserved",
	4: "Unavailable",
	5: "Faulted",
}

// String returns the symbol name.
func (c ConnectorStatus) String() string {
	if name, ok := connectorStatusSymbols[int32(c)]; ok {
		return name
	}
	return fmt.Sprintf("ConnectorStatus(%d)", int32(c))
}

// Symbols returns every defined connector status by value.
func (ConnectorStatus) Symbols() map[int32]string {
	return connectorStatusSymbols
}

// ParseConnectorStatus parses a symbol name, case-insensitively.
func ParseConnectorStatus(s string) (ConnectorStatus, error) {
	for n, name := range connectorStatusSymbols {
		if strings.EqualFold(name, s) {
			return ConnectorStatus(n), nil
		}
	}
	return 0, fmt.Errorf("unknown connector status %q", s)
}
