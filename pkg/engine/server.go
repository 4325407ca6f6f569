package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/metrics"
	"github.com/getmockd/stubd/pkg/registry"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/stub"
	"github.com/getmockd/stubd/pkg/wire"
)

// Server is a single-threaded stub HTTP server.
type Server struct {
	listener net.Listener
	registry *registry.Registry
	journal  requestlog.Store
	metrics  *metrics.Registry
	stats    *serverMetrics
	log      *slog.Logger

	readTimeout   atomic.Int64
	responseDelay atomic.Int64
	served        atomic.Int64

	// ctx is cancelled by Stop and interrupts a pending response delay.
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	started   bool
	stopped   bool
	startTime time.Time
	err       error
	current   net.Conn // connection being handled, if any

	lastMu sync.RWMutex
	last   *wire.Request
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the operational logger. A nil logger discards output.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = logging.OrNop(log)
	}
}

// WithRegistry serves responses from an existing registry instead of a new
// empty one.
func WithRegistry(reg *registry.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithRequestLog records every connection in store instead of a new
// in-memory journal.
func WithRequestLog(store requestlog.Store) Option {
	return func(s *Server) {
		if store != nil {
			s.journal = store
		}
	}
}

// WithMetrics registers the server's metrics in reg instead of a private
// registry.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.metrics = reg
		}
	}
}

// New binds cfg.Addr and returns a server that is not yet accepting.
func New(cfg Config, opts ...Option) (*Server, error) {
	s := &Server{
		log:  logging.Nop(),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	s.listener = ln
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if s.registry == nil {
		s.registry = registry.New()
	}
	if s.journal == nil {
		s.journal = requestlog.NewInMemoryStore(cfg.MaxLogEntries)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewRegistry()
	}
	s.stats = newServerMetrics(s.metrics)

	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	s.SetReadTimeout(cfg.ReadTimeout)
	s.SetResponseDelay(cfg.ResponseDelay)
	s.stubsChanged()
	return s, nil
}

// Start launches the accept loop in a background goroutine. Only the first
// call has any effect, and a stopped server cannot be restarted.
func (s *Server) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true
	s.startTime = time.Now()

	go s.serve()
}

// Stop closes the listening socket, interrupts a pending response delay,
// expires the deadlines of the connection in flight and waits for the accept
// loop to exit. Only the first call has any effect.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	started := s.started
	if s.current != nil {
		s.expire(s.current)
	}
	s.mu.Unlock()

	s.cancel()
	err := s.listener.Close()
	if !started {
		close(s.done)
	} else {
		<-s.done
	}
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("closing listener: %w", err)
	}
	return nil
}

// Wait blocks until the accept loop has exited and returns the error that
// ended it, or nil if it ended through Stop.
func (s *Server) Wait() error {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed when the accept loop has exited.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// serve is the accept loop. Each connection is handled to completion before
// the next is accepted.
func (s *Server) serve() {
	defer close(s.done)

	s.log.Info("stub server listening", "addr", s.listener.Addr().String())
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.log.Info("stub server stopped", "served", s.served.Load())
				return
			}
			s.log.Error("accept failed", "error", err)
			s.mu.Lock()
			s.err = fmt.Errorf("accept: %w", err)
			s.mu.Unlock()
			_ = s.listener.Close()
			return
		}
		s.handle(conn)
	}
}

// track records conn as the connection in flight. A connection accepted
// while Stop runs is expired at once.
func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = conn
	if s.stopped {
		s.expire(conn)
	}
}

func (s *Server) untrack() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// expire unblocks any pending read or write on conn. Callers hold s.mu.
func (s *Server) expire(conn net.Conn) {
	if err := conn.SetDeadline(time.Now()); err != nil {
		s.log.Debug("expiring in-flight connection failed", "error", err)
	}
}

// Addr returns the bound listen address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Port returns the bound TCP port.
func (s *Server) Port() int {
	if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// IsRunning reports whether the accept loop is active.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.stopped
}

// Uptime returns how long the server has been accepting, or zero.
func (s *Server) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.stopped {
		return 0
	}
	return time.Since(s.startTime)
}

// SetReadTimeout changes the read deadline applied to connections accepted
// from now on. A value of zero or less disables the deadline.
func (s *Server) SetReadTimeout(d time.Duration) {
	s.readTimeout.Store(int64(d))
	s.stats.readTimeout.With().Set(max(d, 0).Seconds())
}

// ReadTimeout returns the current per-connection read timeout.
func (s *Server) ReadTimeout() time.Duration {
	return time.Duration(s.readTimeout.Load())
}

// SetResponseDelay changes the delay applied before each response.
// Negative values are treated as zero.
func (s *Server) SetResponseDelay(d time.Duration) {
	d = max(d, 0)
	s.responseDelay.Store(int64(d))
	s.stats.delay.With().Set(d.Seconds())
}

// ResponseDelay returns the current response delay.
func (s *Server) ResponseDelay() time.Duration {
	return time.Duration(s.responseDelay.Load())
}

// Register adds resp to the registry, replacing any entry for its URL.
func (s *Server) Register(resp *stub.Response) {
	s.registry.Register(resp)
	s.stubsChanged()
}

// SetResponses replaces the whole registry.
func (s *Server) SetResponses(responses ...*stub.Response) {
	s.registry.Replace(responses...)
	s.stubsChanged()
}

// ClearResponses empties the registry.
func (s *Server) ClearResponses() {
	s.registry.Clear()
	s.stubsChanged()
}

// RemoveResponse deletes the entry for url and reports whether it existed.
func (s *Server) RemoveResponse(url string) bool {
	ok := s.registry.Remove(url)
	s.stubsChanged()
	return ok
}

// Response returns a copy of the entry registered for url.
func (s *Server) Response(url string) (*stub.Response, bool) {
	return s.registry.Get(url)
}

// Responses returns copies of every registered entry, sorted by URL.
func (s *Server) Responses() []*stub.Response {
	return s.registry.List()
}

func (s *Server) stubsChanged() {
	s.stats.stubs.With().Set(float64(s.registry.Len()))
}

// Registry returns the registry the server answers from.
func (s *Server) Registry() *registry.Registry {
	return s.registry
}

// RequestCount returns the number of responses fully written.
func (s *Server) RequestCount() int64 {
	return s.served.Load()
}

// LastRequest returns a copy of the most recently parsed request, or nil.
func (s *Server) LastRequest() *wire.Request {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	if s.last == nil {
		return nil
	}
	return s.last.Clone()
}

func (s *Server) setLastRequest(req *wire.Request) {
	s.lastMu.Lock()
	s.last = req.Clone()
	s.lastMu.Unlock()
}

// RequestLog returns the connection journal.
func (s *Server) RequestLog() requestlog.Store {
	return s.journal
}

// Metrics returns the registry holding the server's metrics.
func (s *Server) Metrics() *metrics.Registry {
	return s.metrics
}
