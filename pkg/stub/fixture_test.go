package stub

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocpp-csms-server/csms-go/pkg/csms"
)

const (
	evse1     = "0b9a2f64-5d1e-4c3b-8f7a-2e6d9c1b0a11"
	evse2     = "0b9a2f64-5d1e-4c3b-8f7a-2e6d9c1b0a12"
	connector = "7c1e0d52-3a4b-4f6c-9d8e-1f2a3b4c5d61"
)

func loadTestBackend(t *testing.T, opts ...Option) *Backend {
	t.Helper()
	b := New(opts...)
	require.NoError(t, b.LoadFixtureFile("testdata/chargers.yaml"))
	return b
}

func TestLoadFixtureFile(t *testing.T) {
	b := loadTestBackend(t)

	c, ok := b.Charger("CP-1")
	require.True(t, ok)
	assert.Equal(t, "SN-0001", c.SerialNumber)
	assert.Equal(t, "1.4.2", c.FirmwareVersion)
	assert.True(t, c.IsOnline)
	require.Len(t, c.EVSEs, 2)

	first := c.Evse(evse1)
	require.NotNil(t, first)
	assert.Equal(t, uint32(1), first.OcppID)
	assert.Equal(t, "CP-1", first.ChargerID)
	require.Len(t, first.Connectors, 1)
	assert.Equal(t, connector, first.Connectors[0].ID)
	assert.Equal(t, evse1, first.Connectors[0].EvseID)
	assert.Equal(t, csms.ConnectorStatusAvailable, first.Connectors[0].Status)

	generated := c.Evse(evse2).Connectors[0]
	assert.NotEmpty(t, generated.ID)
	assert.Equal(t, csms.ConnectorStatusOccupied, generated.Status)

	require.Len(t, c.Ocpp16Configuration, 2)
	assert.Equal(t, "300", c.Configuration("HeartbeatInterval").Value)
	assert.True(t, c.Configuration("NumberOfConnectors").Readonly)

	c2, ok := b.Charger("CP-2")
	require.True(t, ok)
	assert.False(t, c2.IsOnline)
	assert.Empty(t, c2.Ocpp16Configuration)
}

func TestParseFixtureErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "chargers:\n  - id: CP-1\n    colour: red\n"},
		{"not a list", "chargers: CP-1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixture(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFixtureErrors(t *testing.T) {
	b := New()

	err := b.LoadFixture(strings.NewReader("chargers:\n  - id: CP-1\n    evses:\n      - connectors:\n          - status: Melting\n"))
	assert.ErrorContains(t, err, "Melting")

	err = b.LoadFixture(strings.NewReader("chargers:\n  - id: CP-1\n    configuration:\n      - value: \"1\"\n"))
	assert.ErrorContains(t, err, "configuration key required")

	err = b.LoadFixture(strings.NewReader("chargers:\n  - vendor: Acme\n"))
	assert.Error(t, err)

	assert.Error(t, b.LoadFixtureFile("testdata/missing.yaml"))
}

func TestLoadEmptyFixture(t *testing.T) {
	b := New()
	require.NoError(t, b.LoadFixture(strings.NewReader("")))
	_, ok := b.Charger("CP-1")
	assert.False(t, ok)
}
