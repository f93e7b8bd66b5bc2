package bridge

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	navErrors "github.com/vango-dev/navflow/internal/errors"
	"github.com/vango-dev/navflow/pkg/location"
	"github.com/vango-dev/navflow/pkg/navigate"
	"github.com/vango-dev/navflow/pkg/navstate"
)

// Session is one connected browser client with its own navigation store
// and coordinator.
type Session struct {
	ID          string
	Store       *navstate.Store
	Location    *location.Memory
	Router      *BrowserRouter
	Platform    *BrowserPlatform
	Coordinator *navigate.Coordinator

	server  *Server
	conn    *websocket.Conn
	logger  *slog.Logger
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	writeMu   sync.Mutex
	requests  sync.WaitGroup
	closeOnce sync.Once
	unwatch   func()
}

// newSession wires a coordinator to conn. initial is the client's location
// at connect time; the zero Location means unknown.
func newSession(s *Server, conn *websocket.Conn, initial location.Location) (*Session, error) {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	sess := &Session{
		ID:       id,
		Store:    navstate.NewStore(),
		Location: location.NewMemory(initial),
		Platform: NewBrowserPlatform(),
		server:   s,
		conn:     conn,
		logger:   s.logger.With("session", id),
		limiter:  rate.NewLimiter(s.config.limit(), s.config.EventBurst),
		ctx:      ctx,
		cancel:   cancel,
	}
	sess.Router = NewBrowserRouter(sess.send)

	opts := []navigate.Option{
		navigate.WithLogger(sess.logger),
		navigate.WithPlatform(sess.Platform),
		navigate.WithSettleTimeout(s.config.SettleTimeout),
	}
	if s.metrics != nil {
		opts = append(opts, navigate.WithObserver(s.metrics))
	}
	for _, o := range s.observers {
		opts = append(opts, navigate.WithObserver(o))
	}
	opts = append(opts, s.coordinatorOpts...)

	coord, err := navigate.New(sess.Store, sess.Router, sess.Location, opts...)
	if err != nil {
		cancel()
		return nil, err
	}
	sess.Coordinator = coord
	return sess, nil
}

// run serves the session until the connection closes.
func (s *Session) run() {
	defer s.Close()

	if err := s.send(ServerMessage{Type: MsgHello, Session: s.ID}); err != nil {
		return
	}
	s.unwatch = s.Store.Subscribe(func(st navstate.State) {
		s.send(stateMessage(st))
	})
	if err := s.send(stateMessage(s.Store.State())); err != nil {
		return
	}

	go s.heartbeat()
	s.readLoop()
}

// readLoop reads and dispatches client messages until the connection fails.
func (s *Session) readLoop() {
	cfg := s.server.config
	s.conn.SetReadLimit(cfg.MaxMessageSize)
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	for {
		s.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
				s.server.metrics.WebSocketError("read")
			}
			return
		}

		msg, err := DecodeClientMessage(data)
		if err != nil {
			s.logger.Warn("invalid client message", navErrors.FromError(err, "N061").LogAttrs()...)
			s.send(errorMessage(err))
			continue
		}
		s.handle(msg)
	}
}

// handle applies one decoded client message.
func (s *Session) handle(msg ClientMessage) {
	switch msg.Type {
	case MsgLocation:
		raw := msg.Path
		if msg.Query != "" {
			raw += "?" + msg.Query
		}
		loc, err := location.Parse(raw)
		if err != nil {
			s.send(errorMessage(navErrors.New("N061").Wrap(err).WithField("path", raw)))
			return
		}
		s.Location.Navigate(loc)

	case MsgPlatform:
		if !s.limiter.Allow() {
			s.logger.Debug("platform event dropped", "event", msg.Event)
			s.server.metrics.PlatformEventDropped()
			return
		}
		if msg.Href != "" {
			loc, err := location.Parse(msg.Href)
			if err != nil {
				s.send(errorMessage(navErrors.New("N061").Wrap(err).WithField("href", msg.Href)))
				return
			}
			s.Location.SetSnapshot(loc)
		}
		s.Platform.emit(navigate.PlatformEvent(msg.Event))

	case MsgAck:
		s.Router.ack(msg.Seq, msg.Error)

	case MsgNavigate:
		if s.ctx.Err() != nil {
			return
		}
		// Push and Replace wait for an ack that this loop has to read, so
		// requests run on their own goroutine.
		s.requests.Add(1)
		go func() {
			defer s.requests.Done()
			s.navigate(msg)
		}()
	}
}

// navigate runs a navigate request against the session's coordinator.
func (s *Session) navigate(msg ClientMessage) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("navigate request panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	var err error
	switch navigate.Op(msg.Op) {
	case navigate.OpPush:
		err = s.Coordinator.Push(s.ctx, msg.Path, navigate.WithElement(msg.Element), navigate.WithParams(msg.Params))
	case navigate.OpReplace:
		err = s.Coordinator.Replace(s.ctx, msg.Path, navigate.WithElement(msg.Element), navigate.WithParams(msg.Params))
	case navigate.OpBack:
		err = s.Coordinator.Back(s.ctx)
	case navigate.OpForward:
		err = s.Coordinator.Forward(s.ctx)
	case navigate.OpRefresh:
		err = s.Coordinator.Refresh(s.ctx)
	}
	if err != nil {
		s.logger.Error("navigate request rejected", "error", err)
	}
}

// send writes one message to the client.
func (s *Session) send(msg ServerMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(s.server.config.WriteTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.logger.Debug("write failed", "type", msg.Type, "error", err)
		s.server.metrics.WebSocketError("write")
		return err
	}
	return nil
}

// heartbeat pings the client so idle sessions keep their read deadline.
func (s *Session) heartbeat() {
	ticker := time.NewTicker(s.server.config.ReadTimeout * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.server.config.WriteTimeout))
			s.writeMu.Unlock()
			if err != nil {
				s.logger.Debug("ping failed", "error", err)
				return
			}
		}
	}
}

// Close tears the session down. Commands still waiting for an ack fail
// with a client-disconnected error, which ends their attempt. Idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.Router.close()
		s.requests.Wait()
		s.Coordinator.Close()
		if s.unwatch != nil {
			s.unwatch()
		}
		s.conn.Close()
		s.server.remove(s)
		s.logger.Info("session closed")
	})
	return nil
}

// closeWithMessage sends a close frame before closing.
func (s *Session) closeWithMessage(code int, text string) {
	s.writeMu.Lock()
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	s.conn.Close()
}
