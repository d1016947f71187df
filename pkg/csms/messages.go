package csms

import "time"

// Charger is the full record of a registered charger.
type Charger struct {
	ID              string  `wire:"1" json:"id"`
	SerialNumber    string  `wire:"2" json:"serialNumber"`
	Model           string  `wire:"3" json:"model"`
	Vendor          string  `wire:"4" json:"vendor"`
	FirmwareVersion string  `wire:"5" json:"firmwareVersion"`
	ICCID           string  `wire:"6" json:"iccid"`
	IMSI            string  `wire:"7" json:"imsi"`
	EVSEs           []*Evse `wire:"8" json:"evses"`
	IsOnline        bool    `wire:"9" json:"isOnline"`

	// LastSeen is an RFC 3339 timestamp, empty when the charger never connected.
	LastSeen string `wire:"10" json:"lastSeen"`

	// NodeAddress is the OCPP node the charger is connected to.
	NodeAddress string `wire:"11" json:"nodeAddress"`

	// Ocpp16Configuration holds the configuration keys reported by an
	// OCPP 1.6 charger; empty for other protocol versions.
	Ocpp16Configuration []*Ocpp16Configuration `wire:"12" json:"ocpp16ConfigurationValues"`
}

// Ocpp16Configuration is one OCPP 1.6 configuration key of a charger.
type Ocpp16Configuration struct {
	Key      string `wire:"1" json:"key"`
	Value    string `wire:"2" json:"value"`
	Readonly bool   `wire:"3" json:"readonly"`
}

// Summary returns the list view of c.
func (c *Charger) Summary() *ChargerSummary {
	return &ChargerSummary{
		ID:           c.ID,
		SerialNumber: c.SerialNumber,
		Model:        c.Model,
		Vendor:       c.Vendor,
	}
}

// Configuration looks up an OCPP 1.6 configuration key.
func (c *Charger) Configuration(key string) *Ocpp16Configuration {
	for _, v := range c.Ocpp16Configuration {
		if v != nil && v.Key == key {
			return v
		}
	}
	return nil
}

// Evse looks up an EVSE by id.
func (c *Charger) Evse(id string) *Evse {
	for _, e := range c.EVSEs {
		if e != nil && e.ID == id {
			return e
		}
	}
	return nil
}

// ChargerSummary is the list view of a charger.
type ChargerSummary struct {
	ID           string `wire:"1" json:"id"`
	SerialNumber string `wire:"2" json:"serialNumber"`
	Model        string `wire:"3" json:"model"`
	Vendor       string `wire:"4" json:"vendor"`
}

// Evse is one electric vehicle supply equipment of a charger.
type Evse struct {
	ID         string       `wire:"1" json:"id"`
	ChargerID  string       `wire:"2" json:"chargerId"`
	OcppID     uint32       `wire:"3" json:"ocppId"`
	Connectors []*Connector `wire:"4" json:"connectors"`
}

// Connector is one outlet of an EVSE.
// Field 5 (connector type) is not modelled and is skipped when received.
type Connector struct {
	ID        string          `wire:"1" json:"id"`
	ChargerID string          `wire:"2" json:"chargerId"`
	EvseID    string          `wire:"3" json:"evseId"`
	OcppID    uint32          `wire:"4" json:"ocppId"`
	Status    ConnectorStatus `wire:"6" json:"status"`
}

// Transaction is a charging session.
type Transaction struct {
	ID                string `wire:"1" json:"id"`
	ChargerID         string `wire:"2" json:"chargerId"`
	OcppTransactionID string `wire:"3" json:"ocppTransactionId"`

	// StartTime and EndTime are unix milliseconds; EndTime is zero while
	// the transaction is ongoing.
	StartTime int64 `wire:"4" json:"startTime"`
	EndTime   int64 `wire:"5" json:"endTime"`

	WattCharged  int32 `wire:"6" json:"wattCharged"`
	IsAuthorized bool  `wire:"7" json:"isAuthorized"`
}

// Ongoing reports whether the transaction has not ended yet.
func (t *Transaction) Ongoing() bool {
	return t.EndTime == 0
}

// Started returns the start time.
func (t *Transaction) Started() time.Time {
	return time.UnixMilli(t.StartTime)
}

// Requests and responses.

// ChangeOutletAvailabilityRequest enables or disables a single outlet.
type ChangeOutletAvailabilityRequest struct {
	ChargerID string `wire:"1" json:"chargerId"`
	OutletID  string `wire:"2" json:"outletId"`
	Available bool   `wire:"3" json:"available"`
}

type ChangeOutletAvailabilityResponse struct{}

// ChangeEvseAvailabilityRequest sets an EVSE operative or inoperative.
type ChangeEvseAvailabilityRequest struct {
	ChargerID string `wire:"1" json:"chargerId"`
	EvseID    string `wire:"2" json:"evseId"`
	Operative bool   `wire:"3" json:"operative"`
}

type ChangeEvseAvailabilityResponse struct{}

// ChangeChargerAvailabilityRequest sets a whole charger operative or inoperative.
type ChangeChargerAvailabilityRequest struct {
	ChargerID string `wire:"1" json:"chargerId"`
	Operative bool   `wire:"2" json:"operative"`
}

type ChangeChargerAvailabilityResponse struct{}

// ClearChargerCacheRequest clears the authorization cache of a charger.
type ClearChargerCacheRequest struct {
	ChargerID string `wire:"1" json:"chargerId"`
}

type ClearChargerCacheResponse struct{}

// StartTransactionRequest starts a remote transaction on an EVSE.
type StartTransactionRequest struct {
	ChargerID string `wire:"1" json:"chargerId"`
	EvseID    string `wire:"2" json:"evseId"`
}

type StartTransactionResponse struct{}

// StopTransactionRequest stops a running transaction.
type StopTransactionRequest struct {
	ChargerID     string `wire:"1" json:"chargerId"`
	TransactionID string `wire:"2" json:"transactionId"`
}

type StopTransactionResponse struct {
	Transaction *Transaction `wire:"1" json:"transaction"`
}

// RebootChargerRequest restarts a charger.
type RebootChargerRequest struct {
	ChargerID  string     `wire:"1" json:"chargerId"`
	RebootType RebootType `wire:"2" json:"rebootType"`
}

type RebootChargerResponse struct{}

// ChangeOcpp16ConfigurationValueRequest sets an OCPP 1.6 configuration key
// on a charger.
type ChangeOcpp16ConfigurationValueRequest struct {
	ChargerID string `wire:"1" json:"chargerId"`
	Key       string `wire:"2" json:"key"`
	Value     string `wire:"3" json:"value"`
}

type ChangeOcpp16ConfigurationValueResponse struct{}

type GetChargerRequest struct {
	ChargerID string `wire:"1" json:"chargerId"`
}

// GetChargerResponse carries a nil Charger when the id is not registered.
type GetChargerResponse struct {
	Charger *Charger `wire:"1" json:"charger"`
}

// GetChargersRequest requests one page of the charger list. Pages start at 0.
type GetChargersRequest struct {
	Page     int64 `wire:"1" json:"page"`
	PageSize int64 `wire:"2" json:"pageSize"`
}

type GetChargersResponse struct {
	Chargers   []*ChargerSummary `wire:"1" json:"chargers"`
	Page       int64             `wire:"2" json:"page"`
	TotalCount int64             `wire:"3" json:"totalCount"`
	HasNext    bool              `wire:"4" json:"hasNext"`
	HasPrev    bool              `wire:"5" json:"hasPrev"`
}

// CreateChargerRequest registers a charger under the given id.
type CreateChargerRequest struct {
	ChargerID string `wire:"1" json:"chargerId"`
}

type CreateChargerResponse struct {
	Charger *Charger `wire:"1" json:"charger"`
}

type GetOngoingTransactionRequest struct {
	ChargerID string `wire:"1" json:"chargerId"`
	EvseID    string `wire:"2" json:"evseId"`
}

// GetOngoingTransactionResponse carries a nil Transaction when the EVSE is idle.
type GetOngoingTransactionResponse struct {
	Transaction *Transaction `wire:"1" json:"transaction"`
}
