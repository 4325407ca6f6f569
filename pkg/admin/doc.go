// Package admin serves the control API for a running stub server.
//
// The API runs on its own port, separate from the stub listener, and speaks
// ordinary JSON over net/http:
//
//	GET    /health                 liveness
//	GET    /status                 running state, uptime and counters
//	GET    /stubs                  registered stubs, sorted by URL
//	POST   /stubs                  register or replace one stub
//	PUT    /stubs                  replace every stub with a stub document
//	DELETE /stubs                  remove every stub
//	GET    /stubs/lookup?url=U     one stub
//	DELETE /stubs/lookup?url=U     remove one stub
//	GET    /settings               read timeout and response delay
//	PUT    /settings               change them
//	GET    /requests               request journal, newest first
//	GET    /requests/last          the most recently parsed request
//	GET    /requests/{id}          one journal entry
//	DELETE /requests               clear the journal
//	GET    /metrics                Prometheus text format
//
// Stub URLs are arbitrary strings that may contain slashes and query
// strings, so single-stub routes take the URL as a query parameter rather
// than a path segment.
package admin
