package interaction

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ocpp-csms-server/csms-go/pkg/csms"
	"github.com/ocpp-csms-server/csms-go/pkg/log"
	"github.com/ocpp-csms-server/csms-go/pkg/metrics"
	"github.com/ocpp-csms-server/csms-go/pkg/transport"
	"github.com/ocpp-csms-server/csms-go/pkg/wire"
)

// DefaultTimeout bounds every call that has no earlier deadline.
const DefaultTimeout = 30 * time.Second

// Option configures a Client.
type Option func(*Client)

// WithLogger records request, response and error events for every call.
func WithLogger(logger log.Logger) Option {
	return func(c *Client) {
		c.logger = log.OrNoop(logger)
	}
}

// WithMetrics records every call in collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithTimeout sets the per-call timeout. Zero or negative disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// Client is the callback facade of the CSMS API. It is bound to one channel
// and is safe for concurrent use: calls share no mutable state.
type Client struct {
	conn    grpc.ClientConnInterface
	owned   *grpc.ClientConn
	remote  string
	timeout time.Duration
	logger  log.Logger
	metrics *metrics.Collector

	closed   atomic.Bool
	inflight inflight
	stop     context.CancelFunc
}

// NewClient creates a client on an existing channel. The caller keeps
// ownership of conn.
func NewClient(conn grpc.ClientConnInterface, opts ...Option) *Client {
	c := &Client{
		conn:    conn,
		timeout: DefaultTimeout,
		logger:  log.NoopLogger{},
		stop:    func() {},
	}
	if t, ok := conn.(interface{ Target() string }); ok {
		c.remote = t.Target()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial creates a channel from cfg and binds a client to it. The endpoint and
// security mode are fixed for the lifetime of the client; Close releases the
// channel.
func Dial(cfg transport.ClientConfig, opts ...Option) (*Client, error) {
	conn, err := transport.Dial(cfg)
	if err != nil {
		return nil, err
	}

	c := NewClient(conn, opts...)
	c.owned = conn

	if _, noop := c.logger.(log.NoopLogger); !noop {
		ctx, cancel := context.WithCancel(context.Background())
		c.stop = cancel
		go WatchState(ctx, conn, c.logger)
	}
	return c, nil
}

// Close rejects further calls and releases a channel created by Dial.
// Calls in flight on an owned channel fail with codes.Canceled.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.stop()
	if c.owned != nil {
		return c.owned.Close()
	}
	return nil
}

// Wait blocks until no call is in flight, that is until every call issued
// so far has delivered its callback. It may run concurrently with new calls;
// calls issued while Wait blocks extend the wait.
func (c *Client) Wait() {
	c.inflight.wait()
}

// GetCharger fetches one charger. The response carries a nil Charger when
// the id is not registered.
func (c *Client) GetCharger(ctx context.Context, req *csms.GetChargerRequest, done func(*csms.GetChargerResponse, error)) {
	call(c, ctx, csms.MethodGetCharger, req, done)
}

// GetChargers fetches one page of the charger list.
func (c *Client) GetChargers(ctx context.Context, req *csms.GetChargersRequest, done func(*csms.GetChargersResponse, error)) {
	call(c, ctx, csms.MethodGetChargers, req, done)
}

// CreateCharger registers a charger and returns its record.
func (c *Client) CreateCharger(ctx context.Context, req *csms.CreateChargerRequest, done func(*csms.CreateChargerResponse, error)) {
	call(c, ctx, csms.MethodCreateCharger, req, done)
}

// ChangeOutletAvailability enables or disables a single outlet of a charger.
func (c *Client) ChangeOutletAvailability(ctx context.Context, req *csms.ChangeOutletAvailabilityRequest, done func(*csms.ChangeOutletAvailabilityResponse, error)) {
	call(c, ctx, csms.MethodChangeOutletAvailability, req, done)
}

// ChangeEvseAvailability sets an EVSE operative or inoperative.
func (c *Client) ChangeEvseAvailability(ctx context.Context, req *csms.ChangeEvseAvailabilityRequest, done func(*csms.ChangeEvseAvailabilityResponse, error)) {
	call(c, ctx, csms.MethodChangeEvseAvailability, req, done)
}

// ChangeChargerAvailability sets a whole charger operative or inoperative.
func (c *Client) ChangeChargerAvailability(ctx context.Context, req *csms.ChangeChargerAvailabilityRequest, done func(*csms.ChangeChargerAvailabilityResponse, error)) {
	call(c, ctx, csms.MethodChangeChargerAvailability, req, done)
}

// ClearChargerCache clears the authorization cache of a charger.
func (c *Client) ClearChargerCache(ctx context.Context, req *csms.ClearChargerCacheRequest, done func(*csms.ClearChargerCacheResponse, error)) {
	call(c, ctx, csms.MethodClearChargerCache, req, done)
}

// StartTransaction starts a remote transaction on an EVSE.
func (c *Client) StartTransaction(ctx context.Context, req *csms.StartTransactionRequest, done func(*csms.StartTransactionResponse, error)) {
	call(c, ctx, csms.MethodStartTransaction, req, done)
}

// StopTransaction stops a transaction and returns its final record.
func (c *Client) StopTransaction(ctx context.Context, req *csms.StopTransactionRequest, done func(*csms.StopTransactionResponse, error)) {
	call(c, ctx, csms.MethodStopTransaction, req, done)
}

// RebootCharger restarts a charger with a soft or hard reset.
func (c *Client) RebootCharger(ctx context.Context, req *csms.RebootChargerRequest, done func(*csms.RebootChargerResponse, error)) {
	call(c, ctx, csms.MethodRebootCharger, req, done)
}

// ChangeOcpp16ConfigurationValue sets one OCPP 1.6 configuration key on a
// charger.
func (c *Client) ChangeOcpp16ConfigurationValue(ctx context.Context, req *csms.ChangeOcpp16ConfigurationValueRequest, done func(*csms.ChangeOcpp16ConfigurationValueResponse, error)) {
	call(c, ctx, csms.MethodChangeOcpp16ConfigurationValue, req, done)
}

// GetOngoingTransaction fetches the running transaction of an EVSE, if any.
func (c *Client) GetOngoingTransaction(ctx context.Context, req *csms.GetOngoingTransactionRequest, done func(*csms.GetOngoingTransactionResponse, error)) {
	call(c, ctx, csms.MethodGetOngoingTransaction, req, done)
}

// Do issues a call by method name with the request given as plain fields,
// e.g. Do(ctx, "RebootCharger", wire.Partial{"chargerId": "CP-1"}, done).
// Method names match case-insensitively. The response passed to done is a
// pointer to the method's response type. A request that cannot be built
// from fields is reported through done like any other failure.
func (c *Client) Do(ctx context.Context, method string, fields wire.Partial, done func(any, error)) {
	c.dispatch(ctx, method, done, func(m csms.Method) (any, error) {
		req := m.NewRequest()
		if err := wire.Apply(req, fields); err != nil {
			return nil, err
		}
		return req, nil
	})
}

// Call issues a call by method name with a request the caller built, such
// as one decoded with wire.UnmarshalJSON into Method.NewRequest. The request
// must have the method's request type.
func (c *Client) Call(ctx context.Context, method string, req any, done func(any, error)) {
	c.dispatch(ctx, method, done, func(m csms.Method) (any, error) {
		if want := reflect.TypeOf(m.NewRequest()); reflect.TypeOf(req) != want {
			return nil, fmt.Errorf("%w: want %s, got %T", wire.ErrTypeMismatch, want, req)
		}
		return req, nil
	})
}

func (c *Client) dispatch(ctx context.Context, method string, done func(any, error), build func(csms.Method) (any, error)) {
	if done == nil {
		done = func(any, error) {}
	}

	c.inflight.add()
	go func() {
		defer c.inflight.done()

		m, ok := csms.LookupMethod(method)
		if !ok {
			done(nil, &CallError{Method: method, Err: ErrUnknownMethod})
			return
		}
		req, err := build(m)
		if err != nil {
			done(nil, &CallError{Method: m.Name, Err: err})
			return
		}
		resp := m.NewResponse()
		if err := c.invoke(ctx, m.Name, req, resp); err != nil {
			done(nil, err)
			return
		}
		done(resp, nil)
	}()
}

// call runs one typed call on its own goroutine and delivers exactly one
// callback. A nil request is sent as the all-defaults request.
func call[Req, Resp any](c *Client, ctx context.Context, method string, req *Req, done func(*Resp, error)) {
	if req == nil {
		req = new(Req)
	}
	if done == nil {
		done = func(*Resp, error) {}
	}

	c.inflight.add()
	go func() {
		defer c.inflight.done()

		resp := new(Resp)
		if err := c.invoke(ctx, method, req, resp); err != nil {
			done(nil, err)
			return
		}
		done(resp, nil)
	}()
}

// invoke encodes req, performs the unary call and decodes the reply into resp.
func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	if c.closed.Load() {
		return &CallError{Method: method, Err: ErrClientClosed}
	}

	body, err := wire.Marshal(req)
	if err != nil {
		return &CallError{Method: method, Err: err}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	tr := c.newTrace(method, req)
	tr.request(req, body)

	finish := func(error) {}
	if c.metrics != nil {
		finish = c.metrics.Begin(method)
	}

	start := time.Now()
	var reply transport.Frame
	err = c.conn.Invoke(ctx, csms.FullMethod(method), transport.Frame(body), &reply,
		grpc.ForceCodec(transport.Codec{}))
	if err != nil {
		finish(err)
		tr.failure(log.LayerTransport, err)
		return &CallError{Method: method, Err: err}
	}

	if err := wire.Unmarshal(reply, resp); err != nil {
		finish(status.Error(codes.Internal, err.Error()))
		tr.failure(log.LayerWire, err)
		return &CallError{Method: method, Err: err}
	}

	finish(nil)
	tr.response(resp, reply, time.Since(start))
	return nil
}

// newTrace starts the event trail of one call.
func (c *Client) newTrace(method string, req any) *trace {
	if _, noop := c.logger.(log.NoopLogger); noop {
		return nil
	}
	return &trace{
		logger:    c.logger,
		callID:    uuid.NewString(),
		method:    method,
		remote:    c.remote,
		role:      log.RoleClient,
		chargerID: chargerIDOf(req),
		frames:    true,
	}
}
