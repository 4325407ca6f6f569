// Package stubtest runs a stubd stub server inside Go tests.
//
// The server listens on an ephemeral loopback port and is stopped when the
// test finishes.
//
//	func TestClient(t *testing.T) {
//	    srv := stubtest.New(t)
//
//	    srv.Stub("/users/123").
//	        WithStatus(200).
//	        WithJSON(map[string]string{"id": "123"}).
//	        Reply()
//
//	    client := NewClient(srv.URL())
//	    // ...
//
//	    srv.AssertCalled(t, "GET", "/users/123")
//	}
//
// # Raw requests
//
// Do and Raw talk to the server over a plain TCP connection, so responses
// can be checked byte for byte:
//
//	res := srv.Do("POST", "/echo", nil, `{"a":1}`)
//	res.AssertStatus(t, 200)
//	res.AssertBody(t, `{"a":1}`)
//
//	out := srv.Raw([]byte("GET /a HTTP/1.1\n\n"))
//
// # Assertions
//
//	srv.AssertServed(t, 3)
//	srv.AssertCalledTimes(t, "PUT", "/items", 2)
//	srv.AssertNotCalled(t, "GET", "/admin")
//
//	for _, req := range srv.Requests() {
//	    req.AssertHeader(t, "Content-Type", "application/json")
//	}
package stubtest
