package engine

import (
	"bufio"
	"log/slog"
	"net"
	"time"

	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/wire"
)

// connState tracks how far a connection got, for logging.
type connState int

const (
	stateAccepted connState = iota
	stateReadingRequest
	stateDispatching
	stateWritingResponse
	stateClosed
)

func (c connState) String() string {
	switch c {
	case stateAccepted:
		return "accepted"
	case stateReadingRequest:
		return "reading-request"
	case stateDispatching:
		return "dispatching"
	case stateWritingResponse:
		return "writing-response"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// closeWriter is implemented by connections that support half-close.
type closeWriter interface {
	CloseWrite() error
}

// handle serves exactly one request on conn and closes it. Failures are
// logged and recorded; they never reach the accept loop.
func (s *Server) handle(conn net.Conn) {
	start := time.Now()
	log := s.log.With("remote", conn.RemoteAddr().String())
	entry := &requestlog.Entry{
		Timestamp:  start,
		RemoteAddr: conn.RemoteAddr().String(),
	}
	state := stateAccepted

	// The entry is journaled before the socket closes so a client that has
	// read to EOF can already see it.
	defer func() {
		s.untrack()
		entry.DurationMs = int(time.Since(start).Milliseconds())
		s.journal.Log(entry)
		s.closeConn(conn, log)
		log.Debug("connection closed", "reached", state.String())
	}()

	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.SetKeepAlive(false); err != nil {
			log.Debug("disabling keep-alive failed", "error", err)
		}
	}
	if d := s.ReadTimeout(); d > 0 {
		if err := conn.SetReadDeadline(start.Add(d)); err != nil {
			s.connFailed(log, entry, state, err)
			return
		}
	}

	// Tracked only after the read deadline is set, so an expiry from Stop
	// is never overwritten.
	s.track(conn)

	state = stateReadingRequest
	req, err := wire.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		s.connFailed(log, entry, state, err)
		return
	}
	entry.Method = req.Method
	entry.URL = req.URL
	entry.Headers = req.Header.Clone()
	entry.Body = requestlog.TruncateBody(req.Body)
	entry.BodySize = len(req.Body)
	s.setLastRequest(req)

	state = stateDispatching
	if !s.delay() {
		entry.Error = "response delay interrupted by shutdown"
		log.Debug("response delay interrupted", "method", req.Method, "url", req.URL)
		return
	}

	resp, matched := Dispatch(req, s.registry)
	entry.Matched = matched
	entry.ResponseStatus = resp.StatusCode
	entry.ResponseBody = requestlog.TruncateBody(resp.Body)
	if !matched {
		log.Info("no response registered", "method", req.Method, "url", req.URL)
	}

	state = stateWritingResponse
	if err := wire.WriteResponse(bufio.NewWriter(conn), resp); err != nil {
		s.connFailed(log, entry, state, err)
		return
	}
	state = stateClosed

	s.served.Add(1)
	s.stats.answered(resp.StatusCode, time.Since(start).Seconds())
	log.Info("request served",
		"method", req.Method,
		"url", req.URL,
		"status", resp.StatusCode,
		"matched", matched,
		"duration", time.Since(start))
}

// delay sleeps for the configured response delay. It returns false if Stop
// interrupted the wait.
func (s *Server) delay() bool {
	d := s.ResponseDelay()
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Server) connFailed(log *slog.Logger, entry *requestlog.Entry, state connState, err error) {
	kind := classifyFailure(err)
	entry.Error = err.Error()
	s.stats.failed(kind)

	if kind == failureClosed {
		log.Debug("peer closed connection", "state", state.String(), "error", err)
		return
	}
	log.Warn("connection failed", "state", state.String(), "kind", kind, "error", err)
}

// closeConn shuts down the write side first so the peer sees end of stream
// after the response, then releases the socket.
func (s *Server) closeConn(conn net.Conn, log *slog.Logger) {
	if cw, ok := conn.(closeWriter); ok {
		if err := cw.CloseWrite(); err != nil && !isBenignClose(err) {
			log.Debug("half-close failed", "error", err)
		}
	}
	if err := conn.Close(); err != nil && !isBenignClose(err) {
		log.Debug("close failed", "error", err)
	}
}
