// Package interaction implements the callback facade of the CSMS API.
//
// A Client is bound to one channel, and so to one endpoint and one security
// mode. It offers one method per API action. Every method returns at once,
// runs the call on its own goroutine and invokes the completion callback
// exactly once, with either the decoded response or an error:
//
//	client, err := interaction.Dial(transport.ClientConfig{Address: "csms:50053"})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.RebootCharger(ctx, &csms.RebootChargerRequest{
//	    ChargerID:  "CP-1",
//	    RebootType: csms.RebootHard,
//	}, func(resp *csms.RebootChargerResponse, err error) {
//	    // ...
//	})
//
// Requests given as plain fields go through Do, which builds the request of
// the named method from defaults plus the given fields:
//
//	client.Do(ctx, "changeEvseAvailability", wire.Partial{
//	    "chargerId": "CP-1",
//	    "evseId":    "1",
//	    "operative": true,
//	}, done)
//
// # Errors
//
// Failures are delivered as *CallError. Transport and remote failures wrap a
// gRPC status error, whose code Code reports. A response that cannot be
// decoded wraps a *wire.DecodeError, detected with IsDecodeError. The client
// never retries.
//
// # Observability
//
// WithLogger records every call as request, frame, response and error events
// correlated by a call ID. WithMetrics counts calls in a Prometheus
// collector. ServerEventInterceptor records the server side of calls.
package interaction
