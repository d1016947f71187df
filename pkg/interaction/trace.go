package interaction

import (
	"time"

	"google.golang.org/grpc/status"

	"github.com/ocpp-csms-server/csms-go/pkg/log"
	"github.com/ocpp-csms-server/csms-go/pkg/wire"
)

// trace emits the log events of one call. A nil trace logs nothing.
type trace struct {
	logger    log.Logger
	callID    string
	method    string
	remote    string
	role      log.Role
	chargerID string

	// frames adds transport events with the encoded bodies.
	frames bool
}

func (t *trace) event(dir log.Direction, layer log.Layer, cat log.Category) log.Event {
	return log.Event{
		Timestamp:  time.Now(),
		CallID:     t.callID,
		Direction:  dir,
		Layer:      layer,
		Category:   cat,
		LocalRole:  t.role,
		RemoteAddr: t.remote,
		ChargerID:  t.chargerID,
		Method:     t.method,
	}
}

// outbound is the direction of requests for the local role.
func (t *trace) outbound() log.Direction {
	if t.role == log.RoleServer {
		return log.DirectionIn
	}
	return log.DirectionOut
}

func (t *trace) inbound() log.Direction {
	if t.role == log.RoleServer {
		return log.DirectionOut
	}
	return log.DirectionIn
}

func (t *trace) request(req any, body []byte) {
	if t == nil {
		return
	}
	payload, _ := wire.ToStructural(req)

	e := t.event(t.outbound(), log.LayerWire, log.CategoryMessage)
	e.Message = &log.MessageEvent{Type: log.MessageTypeRequest, Payload: payload}
	t.logger.Log(e)

	if t.frames {
		e = t.event(t.outbound(), log.LayerTransport, log.CategoryMessage)
		e.Frame = log.NewFrameEvent(body)
		t.logger.Log(e)
	}
}

func (t *trace) response(resp any, body []byte, elapsed time.Duration) {
	if t == nil {
		return
	}
	if t.frames {
		e := t.event(t.inbound(), log.LayerTransport, log.CategoryMessage)
		e.Frame = log.NewFrameEvent(body)
		t.logger.Log(e)
	}

	payload, _ := wire.ToStructural(resp)
	e := t.event(t.inbound(), log.LayerWire, log.CategoryMessage)
	e.Message = &log.MessageEvent{
		Type:     log.MessageTypeResponse,
		Payload:  payload,
		Duration: &elapsed,
	}
	t.logger.Log(e)
}

func (t *trace) failure(layer log.Layer, err error) {
	if t == nil {
		return
	}
	e := t.event(t.inbound(), layer, log.CategoryError)
	e.Error = &log.ErrorEventData{
		Layer:   layer,
		Message: err.Error(),
		Context: t.method,
	}
	if s, ok := status.FromError(err); ok {
		code := int(s.Code())
		e.Error.Code = &code
		e.Error.Message = s.Message()
	}
	t.logger.Log(e)
}

// chargerIDOf returns the charger a request targets, or "".
func chargerIDOf(req any) string {
	payload, err := wire.ToStructural(req)
	if err != nil {
		return ""
	}
	id, _ := payload["chargerId"].(string)
	return id
}
