package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/callgate/pkg/logger"
	"github.com/dmitrymomot/callgate/pkg/requestid"
	"github.com/dmitrymomot/callgate/pkg/rpc"
)

// Authenticator vets the upgrade request and returns the session id bound
// to the connection.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// Dispatcher executes a call.
type Dispatcher interface {
	Dispatch(ctx context.Context, conn *rpc.ConnInfo, name string, args []any) (any, error)
}

// Option configures a Server.
type Option func(*Server)

// WithConfig replaces the default transport settings.
func WithConfig(cfg Config) Option {
	return func(s *Server) {
		s.config = cfg
	}
}

// WithLogger sets the logger for connection and frame events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConnectionHooks observes connections opening and closing.
func WithConnectionHooks(onOpen, onClose func(conn *rpc.ConnInfo)) Option {
	return func(s *Server) {
		s.onOpen = onOpen
		s.onClose = onClose
	}
}

// Server upgrades authenticated requests to WebSocket connections and
// dispatches the JSON call frames they carry.
type Server struct {
	dispatcher Dispatcher
	auth       Authenticator
	config     Config
	logger     *slog.Logger
	upgrader   websocket.Upgrader
	onOpen     func(*rpc.ConnInfo)
	onClose    func(*rpc.ConnInfo)

	mu     sync.Mutex
	conns  map[*conn]struct{}
	closed bool
}

// NewServer creates a channel server that authenticates handshakes with auth
// and hands every call frame to dispatcher.
func NewServer(dispatcher Dispatcher, auth Authenticator, opts ...Option) *Server {
	s := &Server{
		dispatcher: dispatcher,
		auth:       auth,
		config:     DefaultConfig(),
		logger:     logger.Discard(),
		conns:      make(map[*conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config.MaxInflight <= 0 {
		s.config.MaxInflight = 1
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// ServeHTTP refuses the upgrade with 401 when the handshake does not
// authenticate, so no call traffic can flow on such a connection.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID, err := s.auth.Authenticate(r)
	if err != nil {
		s.logger.InfoContext(r.Context(), "channel handshake refused",
			slog.String("remote_addr", r.RemoteAddr),
			logger.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if s.isClosed() {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WarnContext(r.Context(), "channel upgrade failed", logger.Error(err))
		return
	}

	info := &rpc.ConnInfo{
		ID:         uuid.NewString(),
		RemoteAddr: r.RemoteAddr,
		Header:     r.Header.Clone(),
		SessionID:  sessionID,
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	c := &conn{
		server: s,
		ws:     ws,
		info:   info,
		ctx:    ctx,
		cancel: cancel,
		slots:  make(chan struct{}, s.config.MaxInflight),
		log:    s.logger.With(logger.ConnID(info.ID), logger.SessionID(sessionID)),
	}
	if !s.track(c) {
		cancel()
		_ = ws.Close()
		return
	}
	defer s.untrack(c)
	c.serve()
}

// Close sends a going-away close frame to every open connection and
// drops them. Upgrades arriving afterwards get 503. Hijacked connections
// are not covered by http.Server.Shutdown, so register Close with
// RegisterOnShutdown.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.close(websocket.CloseGoingAway, "server shutdown")
	}
}

// Len returns the number of open connections.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) track(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(s.config.AllowedOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

type conn struct {
	server *Server
	ws     *websocket.Conn
	info   *rpc.ConnInfo
	ctx    context.Context
	cancel context.CancelFunc
	slots  chan struct{}
	log    *slog.Logger

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

func (c *conn) serve() {
	cfg := c.server.config
	c.log.DebugContext(c.ctx, "channel connected", slog.String("remote_addr", c.info.RemoteAddr))
	if c.server.onOpen != nil {
		c.server.onOpen(c.info)
	}

	defer func() {
		c.cancel()
		c.wg.Wait()
		_ = c.ws.Close()
		if c.server.onClose != nil {
			c.server.onClose(c.info)
		}
		c.log.DebugContext(context.Background(), "channel disconnected")
	}()

	if cfg.MaxMessageSize > 0 {
		c.ws.SetReadLimit(cfg.MaxMessageSize)
	}
	if cfg.PongWait > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(cfg.PongWait))
		c.ws.SetPongHandler(func(string) error {
			return c.ws.SetReadDeadline(time.Now().Add(cfg.PongWait))
		})
	}
	if cfg.PingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop(cfg.PingInterval)
	}

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				c.log.WarnContext(c.ctx, "channel read failed", logger.Error(err))
			}
			return
		}

		var req request
		if err := json.Unmarshal(data, &req); err != nil || req.Name == "" {
			c.write(errorFrame{ID: frameID(req.ID), Error: errMalformedFrame})
			continue
		}

		select {
		case c.slots <- struct{}{}:
		case <-c.ctx.Done():
			return
		}
		c.wg.Add(1)
		go c.handle(req)
	}
}

func (c *conn) handle(req request) {
	defer func() {
		<-c.slots
		c.wg.Done()
	}()

	ctx := requestid.WithContext(c.ctx, requestid.New())
	id := frameID(req.ID)
	result, err := c.server.dispatcher.Dispatch(ctx, c.info, req.Name, req.Args)
	if err != nil {
		c.write(errorFrame{ID: id, Error: rpc.ClientError(err)})
		return
	}
	c.write(resultFrame{ID: id, Result: result})
}

// write encodes the frame before taking the write lock. A result that
// cannot be encoded is answered with an internal error for that call only.
func (c *conn) write(frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		c.log.ErrorContext(c.ctx, "channel frame encoding failed", logger.Error(err))
		var id json.RawMessage
		switch f := frame.(type) {
		case resultFrame:
			id = f.ID
		case errorFrame:
			id = f.ID
		}
		data, err = json.Marshal(errorFrame{
			ID:    frameID(id),
			Error: rpc.ClientError(fmt.Errorf("%w: unencodable result", rpc.ErrInternal)),
		})
		if err != nil {
			return
		}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.server.config.WriteTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.server.config.WriteTimeout))
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.log.DebugContext(c.ctx, "channel write failed", logger.Error(err))
		c.cancel()
	}
}

func (c *conn) close(code int, reason string) {
	deadline := time.Now().Add(time.Second)
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	c.writeMu.Unlock()
	c.cancel()
	_ = c.ws.Close()
}

func (c *conn) pingLoop(interval time.Duration) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.server.config.WriteTimeout)
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, deadline)
			c.writeMu.Unlock()
			if err != nil {
				c.cancel()
				_ = c.ws.Close()
				return
			}
		}
	}
}
