package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	valid := map[string]Version{
		"0.4":   {Major: 0, Minor: 4},
		"1.0":   {Major: 1},
		"10.23": {Major: 10, Minor: 23},
	}
	for input, want := range valid {
		v, err := Parse(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, v, input)
		assert.Equal(t, input, v.String())
	}

	for _, input := range []string{"", "1", "abc", "1.0.0", "1.x", "-1.0", ".1", "70000.0"} {
		_, err := Parse(input)
		assert.Error(t, err, "Parse(%q)", input)
	}
}

func TestCurrentParses(t *testing.T) {
	_, err := Parse(Current)
	require.NoError(t, err)
}

func TestCompatible(t *testing.T) {
	v04 := Version{Minor: 4}
	v09 := Version{Minor: 9}
	v10 := Version{Major: 1}

	assert.True(t, v04.Compatible(v09))
	assert.True(t, v09.Compatible(v04))
	assert.False(t, v04.Compatible(v10))
	assert.False(t, v10.Compatible(v04))
}

func TestUserAgentRoundTrip(t *testing.T) {
	ua := UserAgent("csms-console")
	assert.Equal(t, "csms-console/"+Current, ua)

	component, v, err := ParseUserAgent(ua + " grpc-go/1.68.1")
	require.NoError(t, err)
	assert.Equal(t, "csms-console", component)
	assert.Equal(t, Current, v.String())
}

func TestParseUserAgentRejects(t *testing.T) {
	for _, ua := range []string{"", "csms-console", "/1.0", "grpc-go/1.68.1", "grpcurl grpc-go/1.68.1"} {
		_, _, err := ParseUserAgent(ua)
		assert.Error(t, err, "ParseUserAgent(%q)", ua)
	}
}
