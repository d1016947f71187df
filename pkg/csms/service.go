package csms

import (
	"context"
	"sort"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "ocpp_csms_server.Api"

// Method names.
const (
	MethodCreateCharger             = "CreateCharger"
	MethodGetCharger                = "GetCharger"
	MethodGetChargers               = "GetChargers"
	MethodRebootCharger             = "RebootCharger"
	MethodChangeChargerAvailability = "ChangeChargerAvailability"
	MethodChangeEvseAvailability    = "ChangeEvseAvailability"
	MethodChangeOutletAvailability  = "ChangeOutletAvailability"
	MethodClearChargerCache         = "ClearChargerCache"
	MethodStartTransaction          = "StartTransaction"
	MethodStopTransaction           = "StopTransaction"
	MethodGetOngoingTransaction     = "GetOngoingTransaction"

	MethodChangeOcpp16ConfigurationValue = "ChangeOcpp16ConfigurationValue"
)

// FullMethod returns the gRPC path of a method, e.g. "/ocpp_csms_server.Api/GetCharger".
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// APIServer is the server side of the administrative API.
type APIServer interface {
	CreateCharger(context.Context, *CreateChargerRequest) (*CreateChargerResponse, error)
	GetCharger(context.Context, *GetChargerRequest) (*GetChargerResponse, error)
	GetChargers(context.Context, *GetChargersRequest) (*GetChargersResponse, error)
	RebootCharger(context.Context, *RebootChargerRequest) (*RebootChargerResponse, error)
	ChangeChargerAvailability(context.Context, *ChangeChargerAvailabilityRequest) (*ChangeChargerAvailabilityResponse, error)
	ChangeEvseAvailability(context.Context, *ChangeEvseAvailabilityRequest) (*ChangeEvseAvailabilityResponse, error)
	ChangeOutletAvailability(context.Context, *ChangeOutletAvailabilityRequest) (*ChangeOutletAvailabilityResponse, error)
	ClearChargerCache(context.Context, *ClearChargerCacheRequest) (*ClearChargerCacheResponse, error)
	StartTransaction(context.Context, *StartTransactionRequest) (*StartTransactionResponse, error)
	StopTransaction(context.Context, *StopTransactionRequest) (*StopTransactionResponse, error)
	GetOngoingTransaction(context.Context, *GetOngoingTransactionRequest) (*GetOngoingTransactionResponse, error)
	ChangeOcpp16ConfigurationValue(context.Context, *ChangeOcpp16ConfigurationValueRequest) (*ChangeOcpp16ConfigurationValueResponse, error)
}

// UnimplementedAPIServer answers every method with codes.Unimplemented.
// Embed it to implement a subset of the API.
type UnimplementedAPIServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedAPIServer) CreateCharger(context.Context, *CreateChargerRequest) (*CreateChargerResponse, error) {
	return nil, unimplemented(MethodCreateCharger)
}

func (UnimplementedAPIServer) GetCharger(context.Context, *GetChargerRequest) (*GetChargerResponse, error) {
	return nil, unimplemented(MethodGetCharger)
}

func (UnimplementedAPIServer) GetChargers(context.Context, *GetChargersRequest) (*GetChargersResponse, error) {
	return nil, unimplemented(MethodGetChargers)
}

func (UnimplementedAPIServer) RebootCharger(context.Context, *RebootChargerRequest) (*RebootChargerResponse, error) {
	return nil, unimplemented(MethodRebootCharger)
}

func (UnimplementedAPIServer) ChangeChargerAvailability(context.Context, *ChangeChargerAvailabilityRequest) (*ChangeChargerAvailabilityResponse, error) {
	return nil, unimplemented(MethodChangeChargerAvailability)
}

func (UnimplementedAPIServer) ChangeEvseAvailability(context.Context, *ChangeEvseAvailabilityRequest) (*ChangeEvseAvailabilityResponse, error) {
	return nil, unimplemented(MethodChangeEvseAvailability)
}

func (UnimplementedAPIServer) ChangeOutletAvailability(context.Context, *ChangeOutletAvailabilityRequest) (*ChangeOutletAvailabilityResponse, error) {
	return nil, unimplemented(MethodChangeOutletAvailability)
}

func (UnimplementedAPIServer) ClearChargerCache(context.Context, *ClearChargerCacheRequest) (*ClearChargerCacheResponse, error) {
	return nil, unimplemented(MethodClearChargerCache)
}

func (UnimplementedAPIServer) StartTransaction(context.Context, *StartTransactionRequest) (*StartTransactionResponse, error) {
	return nil, unimplemented(MethodStartTransaction)
}

func (UnimplementedAPIServer) StopTransaction(context.Context, *StopTransactionRequest) (*StopTransactionResponse, error) {
	return nil, unimplemented(MethodStopTransaction)
}

func (UnimplementedAPIServer) GetOngoingTransaction(context.Context, *GetOngoingTransactionRequest) (*GetOngoingTransactionResponse, error) {
	return nil, unimplemented(MethodGetOngoingTransaction)
}

func (UnimplementedAPIServer) ChangeOcpp16ConfigurationValue(context.Context, *ChangeOcpp16ConfigurationValueRequest) (*ChangeOcpp16ConfigurationValueResponse, error) {
	return nil, unimplemented(MethodChangeOcpp16ConfigurationValue)
}

// Method describes one unary method of the API.
type Method struct {
	Name string

	// NewRequest and NewResponse return fresh, all-default messages.
	NewRequest  func() any
	NewResponse func() any

	handler func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error)
}

// FullName returns the gRPC path of the method.
func (m Method) FullName() string {
	return FullMethod(m.Name)
}

func unary[Req, Resp any](name string, call func(APIServer, context.Context, *Req) (*Resp, error)) Method {
	fullName := FullMethod(name)
	return Method{
		Name:        name,
		NewRequest:  func() any { return new(Req) },
		NewResponse: func() any { return new(Resp) },
		handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(APIServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullName}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(APIServer), ctx, req.(*Req))
			})
		},
	}
}

var methods = []Method{
	unary(MethodCreateCharger, APIServer.CreateCharger),
	unary(MethodGetCharger, APIServer.GetCharger),
	unary(MethodGetChargers, APIServer.GetChargers),
	unary(MethodRebootCharger, APIServer.RebootCharger),
	unary(MethodChangeChargerAvailability, APIServer.ChangeChargerAvailability),
	unary(MethodChangeEvseAvailability, APIServer.ChangeEvseAvailability),
	unary(MethodChangeOutletAvailability, APIServer.ChangeOutletAvailability),
	unary(MethodClearChargerCache, APIServer.ClearChargerCache),
	unary(MethodStartTransaction, APIServer.StartTransaction),
	unary(MethodStopTransaction, APIServer.StopTransaction),
	unary(MethodGetOngoingTransaction, APIServer.GetOngoingTransaction),
	unary(MethodChangeOcpp16ConfigurationValue, APIServer.ChangeOcpp16ConfigurationValue),
}

// Methods returns the method table sorted by name.
func Methods() []Method {
	out := make([]Method, len(methods))
	copy(out, methods)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupMethod finds a method by name. The match ignores case, so
// "getCharger" and "GetCharger" name the same method.
func LookupMethod(name string) (Method, bool) {
	for _, m := range methods {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return Method{}, false
}

// ServiceDesc is the gRPC service description of the API.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*APIServer)(nil),
	Methods:     methodDescs(),
	Streams:     []grpc.StreamDesc{},
	Metadata:    "ocpp_csms_server.proto",
}

func methodDescs() []grpc.MethodDesc {
	descs := make([]grpc.MethodDesc, len(methods))
	for i, m := range methods {
		descs[i] = grpc.MethodDesc{MethodName: m.Name, Handler: m.handler}
	}
	return descs
}

// RegisterAPIServer registers srv with a gRPC server. The server must use a
// codec that understands wire messages, see transport.NewServer.
func RegisterAPIServer(s grpc.ServiceRegistrar, srv APIServer) {
	s.RegisterService(&ServiceDesc, srv)
}
