package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/getmockd/stubd/pkg/logging"
	"github.com/getmockd/stubd/pkg/metrics"
	"github.com/getmockd/stubd/pkg/requestlog"
	"github.com/getmockd/stubd/pkg/stub"
	"github.com/getmockd/stubd/pkg/wire"
)

// shutdownTimeout bounds how long Run waits for in-flight API calls.
const shutdownTimeout = 5 * time.Second

// Controller is the stub server surface the API drives. It is implemented
// by *engine.Server.
type Controller interface {
	IsRunning() bool
	Uptime() time.Duration
	Port() int

	Register(resp *stub.Response)
	SetResponses(responses ...*stub.Response)
	ClearResponses()
	RemoveResponse(url string) bool
	Response(url string) (*stub.Response, bool)
	Responses() []*stub.Response

	ReadTimeout() time.Duration
	SetReadTimeout(d time.Duration)
	ResponseDelay() time.Duration
	SetResponseDelay(d time.Duration)

	RequestCount() int64
	LastRequest() *wire.Request
	RequestLog() requestlog.Store
	Metrics() *metrics.Registry
}

// Server is the control API server.
type Server struct {
	ctrl       Controller
	addr       string
	httpServer *http.Server
	log        *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = logging.OrNop(log)
	}
}

// NewServer returns a control API for ctrl that will listen on addr.
func NewServer(ctrl Controller, addr string, opts ...Option) *Server {
	s := &Server{
		ctrl: ctrl,
		addr: addr,
		log:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Handler:           s.withMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

// Handler returns the API's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the bound address once Run is listening, or nil.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run listens and serves until ctx is cancelled, then shuts down
// gracefully. A listen failure is returned immediately.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("control API listen on %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.log.Info("control API listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- s.httpServer.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("control API: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("control API shutdown: %w", err)
		}
		s.log.Info("control API stopped")
		return nil
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)

	mux.HandleFunc("GET /stubs", s.handleListStubs)
	mux.HandleFunc("POST /stubs", s.handleRegisterStub)
	mux.HandleFunc("PUT /stubs", s.handleReplaceStubs)
	mux.HandleFunc("DELETE /stubs", s.handleClearStubs)
	mux.HandleFunc("GET /stubs/lookup", s.handleGetStub)
	mux.HandleFunc("DELETE /stubs/lookup", s.handleDeleteStub)

	mux.HandleFunc("GET /settings", s.handleGetSettings)
	mux.HandleFunc("PUT /settings", s.handleUpdateSettings)

	mux.HandleFunc("GET /requests", s.handleListRequests)
	mux.HandleFunc("GET /requests/last", s.handleLastRequest)
	mux.HandleFunc("GET /requests/{id}", s.handleGetRequest)
	mux.HandleFunc("DELETE /requests", s.handleClearRequests)

	mux.Handle("GET /metrics", s.ctrl.Metrics().Handler())
}

// statusRecorder captures the status code for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("control API request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
