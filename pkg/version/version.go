// Package version provides release version parsing and the client
// identification sent to the CSMS API.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the release version of this module.
const Current = "0.4"

// Version represents a parsed "major.minor" release version.
type Version struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return Version{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return Version{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return Version{Major: uint16(major), Minor: uint16(minor)}, nil
}

// String returns the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible returns true if the other version has the same major version.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major
}

// UserAgent returns the user agent of a component: "csms-console/0.4".
// gRPC appends its own identifier after it.
func UserAgent(component string) string {
	return component + "/" + Current
}

// ParseUserAgent extracts the component and version from a user agent
// produced by UserAgent. Anything after the first space is ignored.
func ParseUserAgent(ua string) (string, Version, error) {
	first, _, _ := strings.Cut(ua, " ")
	component, ver, ok := strings.Cut(first, "/")
	if !ok || component == "" {
		return "", Version{}, fmt.Errorf("not a component user agent: %q", ua)
	}
	v, err := Parse(ver)
	if err != nil {
		return "", Version{}, err
	}
	return component, v, nil
}
