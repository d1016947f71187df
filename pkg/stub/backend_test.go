package stub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ocpp-csms-server/csms-go/pkg/csms"
)

var ctx = context.Background()

func fixedClock() func() time.Time {
	t := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestCreateCharger(t *testing.T) {
	b := New()

	resp, err := b.CreateCharger(ctx, &csms.CreateChargerRequest{ChargerID: "CP-9"})
	require.NoError(t, err)
	require.NotNil(t, resp.Charger)
	assert.Equal(t, "CP-9", resp.Charger.ID)
	assert.False(t, resp.Charger.IsOnline)

	_, err = b.CreateCharger(ctx, &csms.CreateChargerRequest{ChargerID: "CP-9"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = b.CreateCharger(ctx, &csms.CreateChargerRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, 1, b.Len())
}

func TestGetCharger(t *testing.T) {
	b := loadTestBackend(t)

	resp, err := b.GetCharger(ctx, &csms.GetChargerRequest{ChargerID: "CP-1"})
	require.NoError(t, err)
	require.NotNil(t, resp.Charger)
	assert.Equal(t, "Acme", resp.Charger.Vendor)

	// The response is a copy.
	resp.Charger.Vendor = "changed"
	c, _ := b.Charger("CP-1")
	assert.Equal(t, "Acme", c.Vendor)

	resp, err = b.GetCharger(ctx, &csms.GetChargerRequest{ChargerID: "nope"})
	require.NoError(t, err)
	assert.Nil(t, resp.Charger)
}

func TestGetChargersPaging(t *testing.T) {
	b := loadTestBackend(t)

	tests := []struct {
		page, size int64
		ids        []string
		next, prev bool
	}{
		{0, 2, []string{"CP-1", "CP-2"}, true, false},
		{1, 2, []string{"CP-3"}, false, true},
		{2, 2, nil, false, true},
		{0, 3, []string{"CP-1", "CP-2", "CP-3"}, false, false},
		{1, 1, []string{"CP-2"}, true, true},
	}
	for _, tt := range tests {
		resp, err := b.GetChargers(ctx, &csms.GetChargersRequest{Page: tt.page, PageSize: tt.size})
		require.NoError(t, err)

		var ids []string
		for _, s := range resp.Chargers {
			ids = append(ids, s.ID)
		}
		assert.Equal(t, tt.ids, ids, "page %d size %d", tt.page, tt.size)
		assert.Equal(t, int64(3), resp.TotalCount)
		assert.Equal(t, tt.page, resp.Page)
		assert.Equal(t, tt.next, resp.HasNext, "hasNext page %d size %d", tt.page, tt.size)
		assert.Equal(t, tt.prev, resp.HasPrev, "hasPrev page %d size %d", tt.page, tt.size)
	}

	_, err := b.GetChargers(ctx, &csms.GetChargersRequest{Page: -1, PageSize: 10})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = b.GetChargers(ctx, &csms.GetChargersRequest{Page: 0})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetChargersPageOutOfRange(t *testing.T) {
	b := loadTestBackend(t)

	for _, page := range []int64{1 << 62, 1<<63 - 1} {
		resp, err := b.GetChargers(ctx, &csms.GetChargersRequest{Page: page, PageSize: 2})
		require.NoError(t, err)
		assert.Empty(t, resp.Chargers)
		assert.Equal(t, page, resp.Page)
		assert.Equal(t, int64(3), resp.TotalCount)
		assert.False(t, resp.HasNext)
		assert.True(t, resp.HasPrev)
	}

	resp, err := b.GetChargers(ctx, &csms.GetChargersRequest{Page: 1, PageSize: 1<<63 - 1})
	require.NoError(t, err)
	assert.Empty(t, resp.Chargers)
	assert.False(t, resp.HasNext)
}

func TestCommandsRequireConnectedCharger(t *testing.T) {
	b := loadTestBackend(t)

	_, err := b.RebootCharger(ctx, &csms.RebootChargerRequest{ChargerID: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = b.ClearChargerCache(ctx, &csms.ClearChargerCacheRequest{ChargerID: "CP-2"})
	assert.Equal(t, codes.Unavailable, status.Code(err))

	require.NoError(t, b.SetOnline("CP-2", true))
	_, err = b.ClearChargerCache(ctx, &csms.ClearChargerCacheRequest{ChargerID: "CP-2"})
	assert.NoError(t, err)

	assert.Equal(t, codes.NotFound, status.Code(b.SetOnline("missing", true)))
}

func TestRebootRecorded(t *testing.T) {
	b := loadTestBackend(t, WithClock(fixedClock()))

	_, err := b.RebootCharger(ctx, &csms.RebootChargerRequest{ChargerID: "CP-1", RebootType: csms.RebootHard})
	require.NoError(t, err)

	cmds := b.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, csms.MethodRebootCharger, cmds[0].Method)
	assert.Equal(t, "CP-1", cmds[0].ChargerID)
	assert.Equal(t, csms.RebootHard, cmds[0].Request.(*csms.RebootChargerRequest).RebootType)
	assert.Equal(t, fixedClock()(), cmds[0].At)
}

func TestAvailability(t *testing.T) {
	b := loadTestBackend(t)

	_, err := b.ChangeEvseAvailability(ctx, &csms.ChangeEvseAvailabilityRequest{ChargerID: "CP-1", EvseID: evse1})
	require.NoError(t, err)
	c, _ := b.Charger("CP-1")
	assert.Equal(t, csms.ConnectorStatusUnavailable, c.Evse(evse1).Connectors[0].Status)
	assert.Equal(t, csms.ConnectorStatusOccupied, c.Evse(evse2).Connectors[0].Status)

	_, err = b.ChangeOutletAvailability(ctx, &csms.ChangeOutletAvailabilityRequest{ChargerID: "CP-1", OutletID: connector, Available: true})
	require.NoError(t, err)
	c, _ = b.Charger("CP-1")
	assert.Equal(t, csms.ConnectorStatusAvailable, c.Evse(evse1).Connectors[0].Status)

	_, err = b.ChangeChargerAvailability(ctx, &csms.ChangeChargerAvailabilityRequest{ChargerID: "CP-1", Operative: false})
	require.NoError(t, err)
	c, _ = b.Charger("CP-1")
	for _, evse := range c.EVSEs {
		assert.Equal(t, csms.ConnectorStatusUnavailable, evse.Connectors[0].Status)
	}

	_, err = b.ChangeEvseAvailability(ctx, &csms.ChangeEvseAvailabilityRequest{ChargerID: "CP-1", EvseID: "nope", Operative: true})
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = b.ChangeOutletAvailability(ctx, &csms.ChangeOutletAvailabilityRequest{ChargerID: "CP-1", OutletID: "nope"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	assert.Len(t, b.Commands(), 3)
}

func TestTransactionLifecycle(t *testing.T) {
	clock := fixedClock()
	b := loadTestBackend(t, WithClock(clock))

	resp, err := b.GetOngoingTransaction(ctx, &csms.GetOngoingTransactionRequest{ChargerID: "CP-1", EvseID: evse1})
	require.NoError(t, err)
	assert.Nil(t, resp.Transaction)

	_, err = b.StartTransaction(ctx, &csms.StartTransactionRequest{ChargerID: "CP-1", EvseID: evse1})
	require.NoError(t, err)

	_, err = b.StartTransaction(ctx, &csms.StartTransactionRequest{ChargerID: "CP-1", EvseID: evse1})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	resp, err = b.GetOngoingTransaction(ctx, &csms.GetOngoingTransactionRequest{ChargerID: "CP-1", EvseID: evse1})
	require.NoError(t, err)
	require.NotNil(t, resp.Transaction)
	tx := resp.Transaction
	assert.True(t, tx.Ongoing())
	assert.Equal(t, clock().UnixMilli(), tx.StartTime)
	assert.Equal(t, "CP-1", tx.ChargerID)

	_, err = b.StopTransaction(ctx, &csms.StopTransactionRequest{ChargerID: "CP-3", TransactionID: tx.ID})
	assert.Equal(t, codes.NotFound, status.Code(err))

	stopped, err := b.StopTransaction(ctx, &csms.StopTransactionRequest{ChargerID: "CP-1", TransactionID: tx.ID})
	require.NoError(t, err)
	assert.False(t, stopped.Transaction.Ongoing())

	_, err = b.StopTransaction(ctx, &csms.StopTransactionRequest{ChargerID: "CP-1", TransactionID: tx.ID})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	resp, err = b.GetOngoingTransaction(ctx, &csms.GetOngoingTransactionRequest{ChargerID: "CP-1", EvseID: evse1})
	require.NoError(t, err)
	assert.Nil(t, resp.Transaction)
}

func TestStartTransactionUnknownEvse(t *testing.T) {
	b := loadTestBackend(t)
	_, err := b.StartTransaction(ctx, &csms.StartTransactionRequest{ChargerID: "CP-1", EvseID: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGetOngoingTransactionInvalidEvse(t *testing.T) {
	b := loadTestBackend(t)
	_, err := b.GetOngoingTransaction(ctx, &csms.GetOngoingTransactionRequest{ChargerID: "CP-1", EvseID: "1"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestAddChargerRejectsMissingID(t *testing.T) {
	b := New()
	assert.Error(t, b.AddCharger(nil))
	assert.Error(t, b.AddCharger(&csms.Charger{}))
}

func TestChangeOcpp16ConfigurationValue(t *testing.T) {
	b := loadTestBackend(t)

	_, err := b.ChangeOcpp16ConfigurationValue(ctx, &csms.ChangeOcpp16ConfigurationValueRequest{ChargerID: "CP-1", Key: "HeartbeatInterval", Value: "60"})
	require.NoError(t, err)
	_, err = b.ChangeOcpp16ConfigurationValue(ctx, &csms.ChangeOcpp16ConfigurationValueRequest{ChargerID: "CP-1", Key: "MeterValueSampleInterval", Value: "15"})
	require.NoError(t, err)

	c, _ := b.Charger("CP-1")
	require.Len(t, c.Ocpp16Configuration, 3)
	assert.Equal(t, "60", c.Configuration("HeartbeatInterval").Value)
	assert.Equal(t, "15", c.Configuration("MeterValueSampleInterval").Value)

	cmds := b.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, csms.MethodChangeOcpp16ConfigurationValue, cmds[0].Method)

	tests := []struct {
		name string
		req  *csms.ChangeOcpp16ConfigurationValueRequest
		code codes.Code
	}{
		{"read-only", &csms.ChangeOcpp16ConfigurationValueRequest{ChargerID: "CP-1", Key: "NumberOfConnectors", Value: "4"}, codes.FailedPrecondition},
		{"empty key", &csms.ChangeOcpp16ConfigurationValueRequest{ChargerID: "CP-1", Value: "4"}, codes.InvalidArgument},
		{"unknown charger", &csms.ChangeOcpp16ConfigurationValueRequest{ChargerID: "missing", Key: "K"}, codes.NotFound},
		{"offline", &csms.ChangeOcpp16ConfigurationValueRequest{ChargerID: "CP-2", Key: "K"}, codes.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.ChangeOcpp16ConfigurationValue(ctx, tt.req)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}

	c, _ = b.Charger("CP-1")
	assert.Equal(t, "2", c.Configuration("NumberOfConnectors").Value)
	assert.Len(t, b.Commands(), 2)
}
