package stub

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ocpp-csms-server/csms-go/pkg/csms"
)

// Fixture is the YAML seed of a backend.
//
//	chargers:
//	  - id: CP-1
//	    vendor: Acme
//	    online: true
//	    evses:
//	      - id: 5f0c1f2e-8a3b-4c1d-9e2f-0a1b2c3d4e5f
//	        ocpp_id: 1
//	        connectors:
//	          - ocpp_id: 1
//	            status: Available
//	    configuration:
//	      - key: HeartbeatInterval
//	        value: "300"
type Fixture struct {
	Chargers []ChargerFixture `yaml:"chargers"`
}

// ChargerFixture seeds one charger.
type ChargerFixture struct {
	ID              string          `yaml:"id"`
	SerialNumber    string          `yaml:"serial_number"`
	Model           string          `yaml:"model"`
	Vendor          string          `yaml:"vendor"`
	FirmwareVersion string          `yaml:"firmware_version"`
	ICCID           string          `yaml:"iccid"`
	IMSI            string          `yaml:"imsi"`
	Online          bool            `yaml:"online"`
	LastSeen        string          `yaml:"last_seen"`
	NodeAddress     string          `yaml:"node_address"`
	EVSEs           []EvseFixture   `yaml:"evses"`
	Configuration   []ConfigFixture `yaml:"configuration"`
}

// ConfigFixture seeds one OCPP 1.6 configuration key.
type ConfigFixture struct {
	Key      string `yaml:"key"`
	Value    string `yaml:"value"`
	Readonly bool   `yaml:"readonly"`
}

// EvseFixture seeds one EVSE. An empty id is generated.
type EvseFixture struct {
	ID         string             `yaml:"id"`
	OcppID     uint32             `yaml:"ocpp_id"`
	Connectors []ConnectorFixture `yaml:"connectors"`
}

// ConnectorFixture seeds one connector. Status is a symbol name such as
// "Available"; empty means unspecified.
type ConnectorFixture struct {
	ID     string `yaml:"id"`
	OcppID uint32 `yaml:"ocpp_id"`
	Status string `yaml:"status"`
}

// Charger converts the fixture to a charger record.
func (f ChargerFixture) Charger() (*csms.Charger, error) {
	c := &csms.Charger{
		ID:              f.ID,
		SerialNumber:    f.SerialNumber,
		Model:           f.Model,
		Vendor:          f.Vendor,
		FirmwareVersion: f.FirmwareVersion,
		ICCID:           f.ICCID,
		IMSI:            f.IMSI,
		IsOnline:        f.Online,
		LastSeen:        f.LastSeen,
		NodeAddress:     f.NodeAddress,
	}
	for _, ef := range f.EVSEs {
		evse := &csms.Evse{ID: ef.ID, OcppID: ef.OcppID}
		for _, cf := range ef.Connectors {
			var st csms.ConnectorStatus
			if cf.Status != "" {
				var err error
				if st, err = csms.ParseConnectorStatus(cf.Status); err != nil {
					return nil, fmt.Errorf("charger %s: %w", f.ID, err)
				}
			}
			evse.Connectors = append(evse.Connectors, &csms.Connector{ID: cf.ID, OcppID: cf.OcppID, Status: st})
		}
		c.EVSEs = append(c.EVSEs, evse)
	}
	for _, kf := range f.Configuration {
		if kf.Key == "" {
			return nil, fmt.Errorf("charger %s: configuration key required", f.ID)
		}
		c.Ocpp16Configuration = append(c.Ocpp16Configuration, &csms.Ocpp16Configuration{Key: kf.Key, Value: kf.Value, Readonly: kf.Readonly})
	}
	return c, nil
}

// ParseFixture decodes a YAML fixture.
func ParseFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// LoadFixture registers every charger of a YAML fixture.
func (b *Backend) LoadFixture(r io.Reader) error {
	f, err := ParseFixture(r)
	if err != nil {
		return err
	}
	for _, cf := range f.Chargers {
		c, err := cf.Charger()
		if err != nil {
			return err
		}
		if err := b.AddCharger(c); err != nil {
			return fmt.Errorf("charger %q: %w", cf.ID, err)
		}
	}
	b.logger.Info("fixture loaded", "chargers", len(f.Chargers))
	return nil
}

// LoadFixtureFile registers every charger of the YAML fixture at path.
func (b *Backend) LoadFixtureFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return b.LoadFixture(file)
}
