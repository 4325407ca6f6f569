package engine

import (
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/getmockd/stubd/pkg/wire"
)

// Connection failure kinds, used as the metrics label and log attribute.
const (
	failureClosed    = "closed"
	failureTimeout   = "timeout"
	failureMalformed = "malformed"
	failureIO        = "io"
)

// isBenignClose reports whether err only says the peer or the socket has
// already gone away.
func isBenignClose(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

func classifyFailure(err error) string {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr) && netErr.Timeout():
		return failureTimeout
	case errors.Is(err, wire.ErrIllegalRequest),
		errors.Is(err, wire.ErrMalformedHeader),
		errors.Is(err, wire.ErrInvalidContentLength),
		errors.Is(err, wire.ErrInvalidChunkSize),
		errors.Is(err, wire.ErrShortBody):
		return failureMalformed
	case isBenignClose(err):
		return failureClosed
	default:
		return failureIO
	}
}
