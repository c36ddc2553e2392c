package connauth

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrymomot/callgate/pkg/clientip"
	"github.com/dmitrymomot/callgate/pkg/cookie"
	"github.com/dmitrymomot/callgate/pkg/logger"
	"github.com/dmitrymomot/callgate/pkg/rpc"
	"github.com/dmitrymomot/callgate/pkg/session"
)

// Channel authenticates duplex connections by their handshake cookie and
// injects session metadata into every call on them.
type Channel struct {
	manager *session.Manager
	cookies *cookie.Manager
	opts    options
}

// NewChannel creates the authenticator for duplex channel connections.
func NewChannel(manager *session.Manager, cookies *cookie.Manager, opts ...Option) *Channel {
	o := options{logger: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Channel{manager: manager, cookies: cookies, opts: o}
}

// Authenticate returns the session id from the signed cookie of the
// handshake request. A missing, unsigned or forged cookie yields
// ErrUnauthenticated; the connection must then be refused.
func (c *Channel) Authenticate(r *http.Request) (string, error) {
	name := c.manager.Config().Name

	id, err := c.cookies.GetSigned(r, name)
	if err != nil {
		c.opts.logger.DebugContext(r.Context(), "handshake rejected",
			logger.Component("connauth"),
			logger.Error(err),
		)
		return "", errors.Join(ErrUnauthenticated, err)
	}
	if id == "" {
		return "", ErrUnauthenticated
	}
	return id, nil
}

// Stage returns the inbound stage that runs before authorization.
func (c *Channel) Stage() rpc.Stage {
	return rpc.Stage{Name: "connauth", Order: rpc.OrderConnAuth, Fn: c.inject}
}

// inject adds userAgent and userIp to the call metadata and, when the
// connection has a session id, sessionId, the loaded session and userId.
func (c *Channel) inject(ctx context.Context, call *rpc.Call) error {
	conn := call.Conn
	header := conn.Header
	if header == nil {
		header = http.Header{}
	}

	if err := errors.Join(
		call.Meta.Add(rpc.MetaUserAgent, header.Get("User-Agent")),
		call.Meta.Add(rpc.MetaUserIP, clientip.FromHeaders(header, conn.RemoteAddr)),
	); err != nil {
		return err
	}

	if conn.SessionID == "" {
		return nil
	}
	if err := call.Meta.Add(rpc.MetaSessionID, conn.SessionID); err != nil {
		return err
	}

	handle, err := c.manager.Handle(ctx, conn.SessionID, nil)
	if err != nil {
		c.opts.logger.ErrorContext(ctx, "failed to load session for call",
			logger.SessionID(conn.SessionID),
			logger.CallName(call.Name),
			logger.Error(err),
		)
		return err
	}

	if err := call.Meta.Add(rpc.MetaSession, handle); err != nil {
		return err
	}
	if uid := handle.Data().UserID(); uid != nil {
		return call.Meta.Add(rpc.MetaUserID, uid)
	}
	return nil
}
