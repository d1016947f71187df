// Package csms defines the messages and the service surface of the CSMS
// administrative API.
//
// Every request and response is a plain struct encoded by package wire. The
// field numbers match the ocpp_csms_server protobuf package, so the messages
// interoperate with any gRPC backend serving that API:
//
//	req := &csms.ChangeOutletAvailabilityRequest{
//		ChargerID: "CP-1",
//		OutletID:  "1",
//		Available: true,
//	}
//	data, _ := wire.Marshal(req)
//	// 0a 04 43 50 2d 31 12 01 31 18 01
//
// The method table returned by Methods drives both sides of the service: the
// client facade looks request and response types up by method name, and
// RegisterAPIServer builds its gRPC handlers from it.
package csms
