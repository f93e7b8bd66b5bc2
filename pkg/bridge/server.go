package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	navErrors "github.com/vango-dev/navflow/internal/errors"
	"github.com/vango-dev/navflow/pkg/location"
	"github.com/vango-dev/navflow/pkg/middleware"
	"github.com/vango-dev/navflow/pkg/navigate"
)

// Server accepts browser clients over WebSocket and runs one navigation
// coordinator per connection.
type Server struct {
	config   Config
	upgrader websocket.Upgrader
	logger   *slog.Logger

	metrics         *middleware.Metrics
	gatherer        prometheus.Gatherer
	observers       []navigate.Observer
	coordinatorOpts []navigate.Option

	mu       sync.Mutex
	sessions map[string]*Session
	closing  bool

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches m to every session and mounts a Prometheus handler
// serving g at Config.MetricsPath.
func WithMetrics(m *middleware.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithObserver attaches o to every session's coordinator.
func WithObserver(o navigate.Observer) Option {
	return func(s *Server) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithCoordinatorOptions appends options for every session's coordinator.
func WithCoordinatorOptions(opts ...navigate.Option) Option {
	return func(s *Server) {
		s.coordinatorOpts = append(s.coordinatorOpts, opts...)
	}
}

// New creates a Server.
func New(config Config, opts ...Option) *Server {
	config = config.withDefaults()
	s := &Server{
		config:   config,
		logger:   slog.Default(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "bridge")
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     checkOrigin(config.AllowedOrigins),
	}
	return s
}

// Handler returns the bridge's HTTP routes:
//   - GET {SocketPath}: WebSocket upgrade
//   - GET /healthz: liveness and session count
//   - GET {MetricsPath}: Prometheus, when WithMetrics was given
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get(s.config.SocketPath, s.HandleWebSocket)
	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// HandleWebSocket upgrades the request and serves the session until the
// client goes away. The optional "href" query parameter carries the
// client's location at connect time.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	var initial location.Location
	if href := r.URL.Query().Get("href"); href != "" {
		loc, err := location.Parse(href)
		if err != nil {
			http.Error(w, "invalid href", http.StatusBadRequest)
			return
		}
		initial = loc
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", navErrors.New("N060").Wrap(err).LogAttrs()...)
		s.metrics.WebSocketError("upgrade")
		return
	}

	sess, err := newSession(s, conn, initial)
	if err != nil {
		s.logger.Error("session setup failed", "error", err)
		conn.Close()
		return
	}
	if !s.add(sess) {
		sess.closeWithMessage(websocket.CloseGoingAway, "server shutting down")
		sess.Close()
		return
	}

	s.metrics.SessionOpened()
	sess.logger.Info("session opened", "remote", r.RemoteAddr, "origin", initial.String())
	sess.run()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.Sessions(),
	})
}

// Sessions returns the number of connected sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Session returns the connected session with the given id, or nil.
func (s *Server) Session(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *Server) add(sess *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.sessions[sess.ID] = sess
	return true
}

func (s *Server) remove(sess *Session) {
	s.mu.Lock()
	_, ok := s.sessions[sess.ID]
	delete(s.sessions, sess.ID)
	s.mu.Unlock()
	if ok {
		s.metrics.SessionClosed()
	}
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return navErrors.New("N080").Wrap(err).WithField("address", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.WriteTimeout,
	}
	srv := s.httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return navErrors.New("N080").Wrap(err)

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown closes every session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	srv := s.httpServer
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.closeWithMessage(websocket.CloseGoingAway, "server shutting down")
	}

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
