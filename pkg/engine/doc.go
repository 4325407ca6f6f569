// Package engine runs the stub server: it owns the listening socket, accepts
// connections one at a time, reads a single request from each, answers it
// from the response registry and closes the connection.
//
// Connections are served strictly in arrival order on one goroutine. The
// next connection is not accepted until the previous one is closed, so the
// served-request counter only ever advances for one request at a time. The
// registry is still lock-guarded because the control API and config watcher
// replace entries from other goroutines.
//
// # Lifecycle
//
//	srv, err := engine.New(engine.Config{Addr: "127.0.0.1:0"})
//	if err != nil {
//	    return err
//	}
//	srv.Register(stub.New("/api/ping"))
//	srv.Start()
//	defer srv.Stop()
//
// Start and Stop are one-shot: calling either a second time does nothing.
// Stop closes the listening socket, which is the only way to end the accept
// loop. Wait reports why the loop ended and returns nil after a clean Stop.
package engine
