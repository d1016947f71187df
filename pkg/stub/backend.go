package stub

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ocpp-csms-server/csms-go/pkg/csms"
	"github.com/ocpp-csms-server/csms-go/pkg/wire"
)

// Command is a charger command accepted by the backend.
type Command struct {
	Method    string
	ChargerID string
	Request   any
	At        time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// WithClock sets the time source used for transactions and commands.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// Backend is an in-memory implementation of csms.APIServer.
// It is safe for concurrent use.
type Backend struct {
	mu           sync.RWMutex
	chargers     map[string]*csms.Charger
	transactions map[string]*csms.Transaction
	ongoing      map[evseKey]string
	commands     []Command

	logger *slog.Logger
	now    func() time.Time
}

type evseKey struct {
	chargerID string
	evseID    string
}

var _ csms.APIServer = (*Backend)(nil)

// New creates an empty backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		chargers:     make(map[string]*csms.Charger),
		transactions: make(map[string]*csms.Transaction),
		ongoing:      make(map[evseKey]string),
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddCharger registers c, replacing any charger with the same id.
// EVSEs and connectors without an id get a generated one.
func (b *Backend) AddCharger(c *csms.Charger) error {
	if c == nil || c.ID == "" {
		return status.Error(codes.InvalidArgument, "charger id required")
	}
	c = clone(c)
	for _, evse := range c.EVSEs {
		if evse.ID == "" {
			evse.ID = uuid.NewString()
		}
		evse.ChargerID = c.ID
		for _, conn := range evse.Connectors {
			if conn.ID == "" {
				conn.ID = uuid.NewString()
			}
			conn.ChargerID = c.ID
			conn.EvseID = evse.ID
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.chargers[c.ID] = c
	return nil
}

// Charger returns a copy of the registered charger.
func (b *Backend) Charger(id string) (*csms.Charger, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.chargers[id]
	if !ok {
		return nil, false
	}
	return clone(c), true
}

// Len returns the number of chargers.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.chargers)
}

// SetOnline marks a charger connected or disconnected.
func (b *Backend) SetOnline(id string, online bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.chargers[id]
	if !ok {
		return status.Errorf(codes.NotFound, "charger %s not found", id)
	}
	c.IsOnline = online
	if online {
		c.LastSeen = b.now().UTC().Format(time.RFC3339)
	}
	return nil
}

// Commands returns the accepted commands in arrival order.
func (b *Backend) Commands() []Command {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Command, len(b.commands))
	copy(out, b.commands)
	return out
}

func (b *Backend) CreateCharger(_ context.Context, req *csms.CreateChargerRequest) (*csms.CreateChargerResponse, error) {
	if req.ChargerID == "" {
		return nil, status.Error(codes.InvalidArgument, "charger id required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.chargers[req.ChargerID]; exists {
		b.logger.Warn("charger already exists", "charger_id", req.ChargerID)
		return nil, status.Error(codes.AlreadyExists, "charger already exists")
	}
	c := &csms.Charger{ID: req.ChargerID}
	b.chargers[c.ID] = c
	b.logger.Info("charger created", "charger_id", c.ID)
	return &csms.CreateChargerResponse{Charger: clone(c)}, nil
}

// GetCharger answers with a nil charger for an unknown id.
func (b *Backend) GetCharger(_ context.Context, req *csms.GetChargerRequest) (*csms.GetChargerResponse, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.chargers[req.ChargerID]
	if !ok {
		return &csms.GetChargerResponse{}, nil
	}
	return &csms.GetChargerResponse{Charger: clone(c)}, nil
}

// GetChargers pages through the chargers ordered by id. Pages start at 0.
func (b *Backend) GetChargers(_ context.Context, req *csms.GetChargersRequest) (*csms.GetChargersResponse, error) {
	if req.Page < 0 || req.PageSize < 1 {
		return nil, status.Error(codes.InvalidArgument, "page must not be negative and page size must be positive")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.chargers))
	for id := range b.chargers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	total := int64(len(ids))
	resp := &csms.GetChargersResponse{
		Page:       req.Page,
		TotalCount: total,
		HasPrev:    req.Page > 0,
	}
	// Page*PageSize may overflow; pages past the last one are empty.
	if req.Page > total/req.PageSize {
		return resp, nil
	}
	start := req.Page * req.PageSize
	end := start + min(req.PageSize, total-start)
	resp.HasNext = end < total
	for _, id := range ids[start:end] {
		resp.Chargers = append(resp.Chargers, b.chargers[id].Summary())
	}
	return resp, nil
}

func (b *Backend) RebootCharger(_ context.Context, req *csms.RebootChargerRequest) (*csms.RebootChargerResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.connected(req.ChargerID); err != nil {
		return nil, err
	}
	b.record(csms.MethodRebootCharger, req.ChargerID, req)
	return &csms.RebootChargerResponse{}, nil
}

func (b *Backend) ChangeChargerAvailability(_ context.Context, req *csms.ChangeChargerAvailabilityRequest) (*csms.ChangeChargerAvailabilityResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.connected(req.ChargerID)
	if err != nil {
		return nil, err
	}
	for _, evse := range c.EVSEs {
		setConnectors(evse.Connectors, req.Operative)
	}
	b.record(csms.MethodChangeChargerAvailability, req.ChargerID, req)
	return &csms.ChangeChargerAvailabilityResponse{}, nil
}

func (b *Backend) ChangeEvseAvailability(_ context.Context, req *csms.ChangeEvseAvailabilityRequest) (*csms.ChangeEvseAvailabilityResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.connected(req.ChargerID)
	if err != nil {
		return nil, err
	}
	evse := c.Evse(req.EvseID)
	if evse == nil {
		return nil, status.Errorf(codes.NotFound, "evse %s not found", req.EvseID)
	}
	setConnectors(evse.Connectors, req.Operative)
	b.record(csms.MethodChangeEvseAvailability, req.ChargerID, req)
	return &csms.ChangeEvseAvailabilityResponse{}, nil
}

// ChangeOutletAvailability treats an outlet as a connector.
func (b *Backend) ChangeOutletAvailability(_ context.Context, req *csms.ChangeOutletAvailabilityRequest) (*csms.ChangeOutletAvailabilityResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.connected(req.ChargerID)
	if err != nil {
		return nil, err
	}
	var outlet *csms.Connector
	for _, evse := range c.EVSEs {
		for _, conn := range evse.Connectors {
			if conn.ID == req.OutletID {
				outlet = conn
			}
		}
	}
	if outlet == nil {
		return nil, status.Errorf(codes.NotFound, "outlet %s not found", req.OutletID)
	}
	setConnectors([]*csms.Connector{outlet}, req.Available)
	b.record(csms.MethodChangeOutletAvailability, req.ChargerID, req)
	return &csms.ChangeOutletAvailabilityResponse{}, nil
}

func (b *Backend) ClearChargerCache(_ context.Context, req *csms.ClearChargerCacheRequest) (*csms.ClearChargerCacheResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.connected(req.ChargerID); err != nil {
		return nil, err
	}
	b.record(csms.MethodClearChargerCache, req.ChargerID, req)
	return &csms.ClearChargerCacheResponse{}, nil
}

// ChangeOcpp16ConfigurationValue sets a configuration key of a connected
// charger. Unknown keys are added; read-only keys are rejected.
func (b *Backend) ChangeOcpp16ConfigurationValue(_ context.Context, req *csms.ChangeOcpp16ConfigurationValueRequest) (*csms.ChangeOcpp16ConfigurationValueResponse, error) {
	if req.Key == "" {
		return nil, status.Error(codes.InvalidArgument, "configuration key required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.connected(req.ChargerID)
	if err != nil {
		return nil, err
	}
	entry := c.Configuration(req.Key)
	switch {
	case entry == nil:
		c.Ocpp16Configuration = append(c.Ocpp16Configuration, &csms.Ocpp16Configuration{Key: req.Key, Value: req.Value})
	case entry.Readonly:
		return nil, status.Errorf(codes.FailedPrecondition, "configuration key %s is read-only", req.Key)
	default:
		entry.Value = req.Value
	}
	b.record(csms.MethodChangeOcpp16ConfigurationValue, req.ChargerID, req)
	b.logger.Info("configuration changed", "charger_id", req.ChargerID, "key", req.Key)
	return &csms.ChangeOcpp16ConfigurationValueResponse{}, nil
}

// StartTransaction opens a transaction on an idle EVSE.
func (b *Backend) StartTransaction(_ context.Context, req *csms.StartTransactionRequest) (*csms.StartTransactionResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.connected(req.ChargerID)
	if err != nil {
		return nil, err
	}
	if c.Evse(req.EvseID) == nil {
		return nil, status.Errorf(codes.NotFound, "evse %s not found", req.EvseID)
	}
	key := evseKey{req.ChargerID, req.EvseID}
	if _, busy := b.ongoing[key]; busy {
		return nil, status.Errorf(codes.FailedPrecondition, "evse %s already has an ongoing transaction", req.EvseID)
	}

	tx := &csms.Transaction{
		ID:                uuid.NewString(),
		ChargerID:         req.ChargerID,
		OcppTransactionID: uuid.NewString(),
		StartTime:         b.now().UnixMilli(),
		IsAuthorized:      true,
	}
	b.transactions[tx.ID] = tx
	b.ongoing[key] = tx.ID
	b.record(csms.MethodStartTransaction, req.ChargerID, req)
	b.logger.Info("transaction started", "charger_id", req.ChargerID, "evse_id", req.EvseID, "transaction_id", tx.ID)
	return &csms.StartTransactionResponse{}, nil
}

func (b *Backend) StopTransaction(_ context.Context, req *csms.StopTransactionRequest) (*csms.StopTransactionResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.connected(req.ChargerID); err != nil {
		return nil, err
	}
	tx, ok := b.transactions[req.TransactionID]
	if !ok || tx.ChargerID != req.ChargerID {
		return nil, status.Errorf(codes.NotFound, "transaction %s not found", req.TransactionID)
	}
	if !tx.Ongoing() {
		return nil, status.Errorf(codes.FailedPrecondition, "transaction %s already stopped", req.TransactionID)
	}

	tx.EndTime = b.now().UnixMilli()
	for key, id := range b.ongoing {
		if id == tx.ID {
			delete(b.ongoing, key)
		}
	}
	b.record(csms.MethodStopTransaction, req.ChargerID, req)
	return &csms.StopTransactionResponse{Transaction: clone(tx)}, nil
}

// GetOngoingTransaction requires the EVSE id to be a UUID and answers with a
// nil transaction when the EVSE is idle.
func (b *Backend) GetOngoingTransaction(_ context.Context, req *csms.GetOngoingTransactionRequest) (*csms.GetOngoingTransactionResponse, error) {
	if _, err := uuid.Parse(req.EvseID); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid evse id")
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	id, ok := b.ongoing[evseKey{req.ChargerID, req.EvseID}]
	if !ok {
		return &csms.GetOngoingTransactionResponse{}, nil
	}
	return &csms.GetOngoingTransactionResponse{Transaction: clone(b.transactions[id])}, nil
}

// connected returns the charger if it can take commands. Callers hold b.mu.
func (b *Backend) connected(id string) (*csms.Charger, error) {
	c, ok := b.chargers[id]
	if !ok {
		b.logger.Warn("could not find charger connection info", "charger_id", id)
		return nil, status.Error(codes.NotFound, "could not find charger connection info")
	}
	if !c.IsOnline {
		return nil, status.Errorf(codes.Unavailable, "charger %s is not connected", id)
	}
	return c, nil
}

// record appends an accepted command. Callers hold b.mu.
func (b *Backend) record(method, chargerID string, req any) {
	b.commands = append(b.commands, Command{
		Method:    method,
		ChargerID: chargerID,
		Request:   req,
		At:        b.now(),
	})
	b.logger.Debug("command accepted", "method", method, "charger_id", chargerID)
}

func setConnectors(connectors []*csms.Connector, operative bool) {
	for _, conn := range connectors {
		switch {
		case !operative:
			conn.Status = csms.ConnectorStatusUnavailable
		case conn.Status == csms.ConnectorStatusUnavailable || conn.Status == csms.ConnectorStatusUnspecified:
			conn.Status = csms.ConnectorStatusAvailable
		}
	}
}

func clone[T any](m *T) *T {
	c, err := wire.Clone(m)
	if err != nil {
		panic(err)
	}
	return c
}
