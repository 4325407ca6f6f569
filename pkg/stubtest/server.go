package stubtest

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/getmockd/stubd/pkg/engine"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/stub"
	"github.com/getmockd/stubd/pkg/wire"
)

// ioTimeout bounds every exchange made by Do and Raw.
const ioTimeout = 10 * time.Second

// Server is a running stub server bound to a test.
type Server struct {
	t   testing.TB
	srv *engine.Server
}

type options struct {
	cfg engine.Config
	log *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithResponseDelay delays every response by d.
func WithResponseDelay(d time.Duration) Option {
	return func(o *options) {
		o.cfg.ResponseDelay = d
	}
}

// WithReadTimeout sets the per-connection read timeout. A negative value
// disables it.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.cfg.ReadTimeout = d
	}
}

// WithLogger sends the server's logs to log instead of discarding them.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// New starts a stub server on 127.0.0.1 with an ephemeral port. It is
// stopped by t.Cleanup.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	o := &options{cfg: engine.Config{Addr: "127.0.0.1:0"}}
	for _, opt := range opts {
		opt(o)
	}

	srv, err := engine.New(o.cfg, engine.WithLogger(o.log))
	if err != nil {
		t.Fatalf("failed to start stub server: %v", err)
	}
	srv.Start()
	t.Cleanup(func() {
		if err := srv.Stop(); err != nil {
			t.Errorf("failed to stop stub server: %v", err)
		}
	})

	return &Server{t: t, srv: srv}
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return s.srv.Addr().String()
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// Engine returns the underlying engine.Server for advanced use cases.
// Most tests should not need this.
func (s *Server) Engine() *engine.Server {
	return s.srv
}

// Stub starts building a response for url. Nothing is registered until
// Reply is called.
//
//	srv.Stub("/api").WithStatus(404).Reply()
func (s *Server) Stub(url string) *Builder {
	return &Builder{server: s, resp: stub.New(url)}
}

// Reset removes every registered response and clears the request journal.
func (s *Server) Reset() {
	s.srv.ClearResponses()
	s.srv.RequestLog().Clear()
}

// Do sends one request and parses the response. headers are written in
// the order given by sorting their names; a Content-Length header is added
// for a non-empty body unless headers already has one.
func (s *Server) Do(method, url string, headers map[string]string, body string) *Result {
	s.t.Helper()
	return ParseResult(s.Raw(BuildRequest(method, url, headers, body)))
}

// Raw writes req on a fresh connection, half-closes it, and returns every
// byte the server sends back.
func (s *Server) Raw(req []byte) []byte {
	s.t.Helper()

	conn, err := net.Dial("tcp", s.Addr())
	if err != nil {
		s.t.Fatalf("failed to connect to stub server: %v", err)
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(ioTimeout)); err != nil {
		s.t.Fatalf("failed to set deadline: %v", err)
	}

	if _, err := conn.Write(req); err != nil {
		s.t.Fatalf("failed to write request: %v", err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}

	out, err := io.ReadAll(conn)
	if err != nil {
		s.t.Fatalf("failed to read response: %v", err)
	}
	return out
}

// LastRequest returns the most recent request the server parsed, or nil.
func (s *Server) LastRequest() *wire.Request {
	return s.srv.LastRequest()
}

// Requests returns the journaled requests, newest first.
func (s *Server) Requests() []RequestLog {
	entries := s.srv.RequestLog().List(nil)
	result := make([]RequestLog, len(entries))
	for i, e := range entries {
		result[i] = newRequestLog(e)
	}
	return result
}

// AssertServed asserts that exactly n responses have been written.
func (s *Server) AssertServed(t testing.TB, n int64) {
	t.Helper()

	if got := s.srv.RequestCount(); got != n {
		t.Errorf("expected %d responses served, got %d", n, got)
	}
}

// AssertCalled asserts that method and url were requested at least once.
func (s *Server) AssertCalled(t testing.TB, method, url string) {
	t.Helper()

	if s.countCalls(method, url) == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, url)
	}
}

// AssertCalledTimes asserts that method and url were requested exactly
// times times.
func (s *Server) AssertCalledTimes(t testing.TB, method, url string, times int) {
	t.Helper()

	if count := s.countCalls(method, url); count != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times",
			method, url, times, count)
	}
}

// AssertNotCalled asserts that method and url were never requested.
func (s *Server) AssertNotCalled(t testing.TB, method, url string) {
	t.Helper()

	if count := s.countCalls(method, url); count > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times",
			method, url, count)
	}
}

// countCalls counts journaled requests with exactly this method and URL.
func (s *Server) countCalls(method, url string) int {
	count := 0
	for _, e := range s.srv.RequestLog().List(&requestlog.Filter{Method: method, URL: url}) {
		if e.URL == url {
			count++
		}
	}
	return count
}
