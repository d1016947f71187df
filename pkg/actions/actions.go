// Package actions wraps the callback facade into blocking calls, one per
// administrative action of the console.
//
// Each action builds its request, issues the call and waits on a Future that
// the call's single completion callback settles. Failures are returned as the
// facade reports them, so interaction.Code and interaction.IsDecodeError
// apply to them unchanged.
package actions

import (
	"context"
	"errors"

	"github.com/ocpp-csms-server/csms-go/pkg/csms"
	"github.com/ocpp-csms-server/csms-go/pkg/interaction"
)

// ErrChargerNotFound is returned by GetCharger when the backend knows no
// charger with the requested id.
var ErrChargerNotFound = errors.New("charger not found")

// Facade is the callback API the actions run on. *interaction.Client
// implements it.
type Facade interface {
	GetCharger(ctx context.Context, req *csms.GetChargerRequest, done func(*csms.GetChargerResponse, error))
	GetChargers(ctx context.Context, req *csms.GetChargersRequest, done func(*csms.GetChargersResponse, error))
	CreateCharger(ctx context.Context, req *csms.CreateChargerRequest, done func(*csms.CreateChargerResponse, error))
	ChangeOutletAvailability(ctx context.Context, req *csms.ChangeOutletAvailabilityRequest, done func(*csms.ChangeOutletAvailabilityResponse, error))
	ChangeEvseAvailability(ctx context.Context, req *csms.ChangeEvseAvailabilityRequest, done func(*csms.ChangeEvseAvailabilityResponse, error))
	ChangeChargerAvailability(ctx context.Context, req *csms.ChangeChargerAvailabilityRequest, done func(*csms.ChangeChargerAvailabilityResponse, error))
	ClearChargerCache(ctx context.Context, req *csms.ClearChargerCacheRequest, done func(*csms.ClearChargerCacheResponse, error))
	StartTransaction(ctx context.Context, req *csms.StartTransactionRequest, done func(*csms.StartTransactionResponse, error))
	StopTransaction(ctx context.Context, req *csms.StopTransactionRequest, done func(*csms.StopTransactionResponse, error))
	RebootCharger(ctx context.Context, req *csms.RebootChargerRequest, done func(*csms.RebootChargerResponse, error))
	ChangeOcpp16ConfigurationValue(ctx context.Context, req *csms.ChangeOcpp16ConfigurationValueRequest, done func(*csms.ChangeOcpp16ConfigurationValueResponse, error))
	GetOngoingTransaction(ctx context.Context, req *csms.GetOngoingTransactionRequest, done func(*csms.GetOngoingTransactionResponse, error))
}

var _ Facade = (*interaction.Client)(nil)

// Actions runs administrative actions against a facade.
type Actions struct {
	facade Facade
}

// New returns the actions of facade.
func New(facade Facade) *Actions {
	return &Actions{facade: facade}
}

// await issues one call and waits for its completion.
func await[Req, Resp any](ctx context.Context, req *Req, issue func(context.Context, *Req, func(*Resp, error))) (*Resp, error) {
	f := NewFuture[*Resp]()
	issue(ctx, req, f.Complete)
	return f.Wait(ctx)
}

// GetCharger returns the full record of a charger.
func (a *Actions) GetCharger(ctx context.Context, chargerID string) (*csms.Charger, error) {
	resp, err := await(ctx, &csms.GetChargerRequest{ChargerID: chargerID}, a.facade.GetCharger)
	if err != nil {
		return nil, err
	}
	if resp.Charger == nil {
		return nil, ErrChargerNotFound
	}
	return resp.Charger, nil
}

// ListChargers returns one page of the charger list. Pages start at 0.
func (a *Actions) ListChargers(ctx context.Context, page, pageSize int64) (*csms.GetChargersResponse, error) {
	return await(ctx, &csms.GetChargersRequest{Page: page, PageSize: pageSize}, a.facade.GetChargers)
}

// CreateCharger registers a charger and returns its record.
func (a *Actions) CreateCharger(ctx context.Context, chargerID string) (*csms.Charger, error) {
	resp, err := await(ctx, &csms.CreateChargerRequest{ChargerID: chargerID}, a.facade.CreateCharger)
	if err != nil {
		return nil, err
	}
	return resp.Charger, nil
}

// StartTransaction starts a remote transaction on an EVSE.
func (a *Actions) StartTransaction(ctx context.Context, chargerID, evseID string) error {
	_, err := await(ctx, &csms.StartTransactionRequest{ChargerID: chargerID, EvseID: evseID}, a.facade.StartTransaction)
	return err
}

// StopTransaction stops a transaction and returns its final state.
func (a *Actions) StopTransaction(ctx context.Context, chargerID, transactionID string) (*csms.Transaction, error) {
	resp, err := await(ctx, &csms.StopTransactionRequest{ChargerID: chargerID, TransactionID: transactionID}, a.facade.StopTransaction)
	if err != nil {
		return nil, err
	}
	return resp.Transaction, nil
}

// OngoingTransaction returns the running transaction of an EVSE, or nil
// when the EVSE is idle.
func (a *Actions) OngoingTransaction(ctx context.Context, chargerID, evseID string) (*csms.Transaction, error) {
	resp, err := await(ctx, &csms.GetOngoingTransactionRequest{ChargerID: chargerID, EvseID: evseID}, a.facade.GetOngoingTransaction)
	if err != nil {
		return nil, err
	}
	return resp.Transaction, nil
}

// ChangeOutletAvailability enables or disables one outlet.
func (a *Actions) ChangeOutletAvailability(ctx context.Context, chargerID, outletID string, available bool) error {
	_, err := await(ctx, &csms.ChangeOutletAvailabilityRequest{ChargerID: chargerID, OutletID: outletID, Available: available}, a.facade.ChangeOutletAvailability)
	return err
}

// ChangeEvseAvailability sets one EVSE operative or not.
func (a *Actions) ChangeEvseAvailability(ctx context.Context, chargerID, evseID string, operative bool) error {
	_, err := await(ctx, &csms.ChangeEvseAvailabilityRequest{ChargerID: chargerID, EvseID: evseID, Operative: operative}, a.facade.ChangeEvseAvailability)
	return err
}

// SetChargerAvailability sets every EVSE of a charger operative or not.
func (a *Actions) SetChargerAvailability(ctx context.Context, chargerID string, operative bool) error {
	_, err := await(ctx, &csms.ChangeChargerAvailabilityRequest{ChargerID: chargerID, Operative: operative}, a.facade.ChangeChargerAvailability)
	return err
}

// ClearCache clears the authorization cache of a charger.
func (a *Actions) ClearCache(ctx context.Context, chargerID string) error {
	_, err := await(ctx, &csms.ClearChargerCacheRequest{ChargerID: chargerID}, a.facade.ClearChargerCache)
	return err
}

// Reboot restarts a charger.
func (a *Actions) Reboot(ctx context.Context, chargerID string, rebootType csms.RebootType) error {
	_, err := await(ctx, &csms.RebootChargerRequest{ChargerID: chargerID, RebootType: rebootType}, a.facade.RebootCharger)
	return err
}

// SoftReboot restarts a charger gracefully.
func (a *Actions) SoftReboot(ctx context.Context, chargerID string) error {
	return a.Reboot(ctx, chargerID, csms.RebootSoft)
}

// HardReboot restarts a charger immediately.
func (a *Actions) HardReboot(ctx context.Context, chargerID string) error {
	return a.Reboot(ctx, chargerID, csms.RebootHard)
}

// Configuration returns the OCPP 1.6 configuration keys a charger reported.
func (a *Actions) Configuration(ctx context.Context, chargerID string) ([]*csms.Ocpp16Configuration, error) {
	c, err := a.GetCharger(ctx, chargerID)
	if err != nil {
		return nil, err
	}
	return c.Ocpp16Configuration, nil
}

// ChangeConfiguration sets one OCPP 1.6 configuration key of a charger.
func (a *Actions) ChangeConfiguration(ctx context.Context, chargerID, key, value string) error {
	_, err := await(ctx, &csms.ChangeOcpp16ConfigurationValueRequest{ChargerID: chargerID, Key: key, Value: value}, a.facade.ChangeOcpp16ConfigurationValue)
	return err
}
