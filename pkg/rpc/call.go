package rpc

import (
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/callgate/pkg/session"
)

// ConnInfo describes the connection a call arrived on.
type ConnInfo struct {
	ID         string
	RemoteAddr string
	Header     http.Header

	// SessionID is the verified id from the connection handshake.
	// The session itself is loaded per call.
	SessionID string
}

// Call is one remote invocation moving through the pipeline.
type Call struct {
	Name    string
	Args    []any
	Meta    *Meta
	Conn    *ConnInfo
	Started time.Time

	// Result is the handler's return value, visible to after stages.
	Result any

	mu  sync.Mutex
	err error
}

// NewCall builds a call with empty metadata.
func NewCall(conn *ConnInfo, name string, args []any) *Call {
	if conn == nil {
		conn = &ConnInfo{}
	}
	if args == nil {
		args = []any{}
	}
	return &Call{
		Name:    name,
		Args:    args,
		Meta:    NewMeta(),
		Conn:    conn,
		Started: time.Now(),
	}
}

// Cancel stops the call; no further stages or handler run and err is
// returned to the caller. The first cancellation wins.
func (c *Call) Cancel(err error) {
	if err == nil {
		err = ErrInternal
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

// Err returns the cancellation error, if any.
func (c *Call) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Session returns the handle injected under MetaSession.
func (c *Call) Session() (*session.Handle, bool) {
	v, _ := c.Meta.Get(MetaSession)
	h, ok := v.(*session.Handle)
	return h, ok && h != nil
}

// SessionData returns the session data as loaded for this call,
// or nil when no session is attached.
func (c *Call) SessionData() session.Data {
	h, ok := c.Session()
	if !ok {
		return nil
	}
	return h.Data()
}
