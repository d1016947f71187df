// Package stub provides an in-memory CSMS API backend.
//
// Backend implements csms.APIServer over a charger registry held in memory.
// Commands addressed to chargers (reboot, availability, transactions) are
// applied to the registry and recorded instead of being relayed to an OCPP
// node, which makes the backend usable for development and for end-to-end
// tests of the console:
//
//	backend := stub.New()
//	if err := backend.LoadFixtureFile("chargers.yaml"); err != nil {
//	    return err
//	}
//	srv, _ := transport.NewServer(transport.ServerConfig{})
//	csms.RegisterAPIServer(srv, backend)
package stub
