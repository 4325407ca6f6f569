package wire

import "errors"

// Framing errors. Each one is fatal for the connection it occurs on.
var (
	// ErrIllegalRequest is returned when the request line does not carry
	// both a method and a URL.
	ErrIllegalRequest = errors.New("illegal request")

	// ErrMalformedHeader is returned for a header line without the ": "
	// separator.
	ErrMalformedHeader = errors.New("malformed header line")

	// ErrInvalidContentLength is returned when Content-Length is not a
	// non-negative decimal integer.
	ErrInvalidContentLength = errors.New("invalid Content-Length")

	// ErrInvalidChunkSize is returned when a chunk-size line is not a
	// hexadecimal number.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrShortBody is returned when the stream ends before the declared
	// number of body bytes arrived.
	ErrShortBody = errors.New("unexpected end of body")
)
