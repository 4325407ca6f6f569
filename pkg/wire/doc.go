// Package wire implements the byte-level HTTP/1.x framing used by the stub
// engine: line reading, request-line and header parsing, request body
// decoding and literal response serialization.
//
// The framing rules are deliberately narrower than RFC 9112. Each connection
// carries exactly one request, only PUT and POST requests have their body
// read, and the response status line carries no reason phrase:
//
//	HTTP/1.1 200\r\n
//	Content-Type: application/json;charset=utf-8\r\n
//	Content-Length: 16\r\n
//	Server: stubd/1.0\r\n
//	Connection: closed\r\n
//	\r\n
//	received message
//
// # Line Termination
//
// A line ends at "\r\n" or at a bare "\n". A "\r" that is not followed by
// "\n" is kept in the line together with the byte that follows it; existing
// fixtures rely on that byte-for-byte behaviour, so it is preserved rather
// than normalized. No line-length limit is enforced: a peer that never sends
// a terminator can grow a line without bound.
package wire
