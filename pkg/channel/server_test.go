package channel_test

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/callgate/pkg/channel"
	"github.com/dmitrymomot/callgate/pkg/connauth"
	"github.com/dmitrymomot/callgate/pkg/cookie"
	"github.com/dmitrymomot/callgate/pkg/rpc"
	"github.com/dmitrymomot/callgate/pkg/session"
	"github.com/dmitrymomot/callgate/pkg/validator"
)

const secret = "this-is-a-very-long-secret-key-32-chars-long"

type env struct {
	url     string
	ws      *channel.Server
	manager *session.Manager
	cookies *cookie.Manager
	opened  *atomic.Int32
	closed  *atomic.Int32
}

func newEnv(t *testing.T) env {
	t.Helper()

	store := session.NewMemoryStore(0)
	t.Cleanup(func() { _ = store.Close() })
	manager := session.New(store)

	cookies, err := cookie.New([]string{secret})
	require.NoError(t, err)

	auth := connauth.NewChannel(manager, cookies)
	srv, err := rpc.NewServer(rpc.WithStages(rpc.InboundBefore, auth.Stage()))
	require.NoError(t, err)

	reg := srv.Registry()
	require.NoError(t, reg.Register("me", "session", func(_ context.Context, call *rpc.Call) (any, error) {
		return call.Meta.String(rpc.MetaSessionID), nil
	}, rpc.Public()))
	require.NoError(t, reg.Register("me", "profile", func(context.Context, *rpc.Call) (any, error) {
		return map[string]any{"ok": true}, nil
	}))
	require.NoError(t, reg.Register("math", "positive", func(_ context.Context, call *rpc.Call) (any, error) {
		n, _ := call.Args[0].(float64)
		return n > 0, nil
	}, rpc.Public(), rpc.Schema(validator.Number())))
	require.NoError(t, reg.Register("math", "nan", func(context.Context, *rpc.Call) (any, error) {
		return math.NaN(), nil
	}, rpc.Public()))

	var opened, closed atomic.Int32
	ws := channel.NewServer(srv, auth, channel.WithConnectionHooks(
		func(*rpc.ConnInfo) { opened.Add(1) },
		func(*rpc.ConnInfo) { closed.Add(1) },
	))

	ts := httptest.NewServer(ws)
	t.Cleanup(ts.Close)

	return env{
		url:     "ws" + strings.TrimPrefix(ts.URL, "http"),
		ws:      ws,
		manager: manager,
		cookies: cookies,
		opened:  &opened,
		closed:  &closed,
	}
}

func (e env) dial(t *testing.T, id string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set("Cookie", "NSS_="+e.cookies.Sign(id))
	conn, _, err := websocket.DefaultDialer.Dial(e.url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func call(t *testing.T, conn *websocket.Conn, id int, name string, args ...any) map[string]any {
	t.Helper()
	if args == nil {
		args = []any{}
	}
	require.NoError(t, conn.WriteJSON(map[string]any{"id": id, "name": name, "args": args}))
	return read(t, conn)
}

func read(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestServer_RefusesUnauthenticatedHandshake(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	forger, err := cookie.New([]string{"another-very-long-secret-key-for-forgery!"})
	require.NoError(t, err)

	headers := map[string]string{
		"no cookie":       "",
		"unsigned cookie": "NSS_=NSS_abc",
		"forged cookie":   "NSS_=" + forger.Sign("NSS_abc"),
	}

	for name, cookieHeader := range headers {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			header := http.Header{}
			if cookieHeader != "" {
				header.Set("Cookie", cookieHeader)
			}
			_, resp, err := websocket.DefaultDialer.Dial(e.url, header)
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}

	assert.Zero(t, e.opened.Load())
}

func TestServer_Calls(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	id := e.manager.NewID()
	_, _, err := e.manager.Save(ctx, id, session.Data{})
	require.NoError(t, err)
	conn := e.dial(t, id)

	t.Run("session id injected", func(t *testing.T) {
		frame := call(t, conn, 1, "me session")
		assert.Equal(t, float64(1), frame["id"])
		assert.Equal(t, id, frame["result"])
	})

	t.Run("default policy requires sign-in", func(t *testing.T) {
		frame := call(t, conn, 2, "me profile")
		assert.Equal(t, float64(2), frame["id"])
		errMsg, ok := frame["error"].(string)
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(errMsg, "[API Auth]: Access denied for method 'me profile' from "))
	})

	t.Run("sign-in is seen by the next call", func(t *testing.T) {
		_, _, err := e.manager.Save(ctx, id, session.Data{"authed": true})
		require.NoError(t, err)

		frame := call(t, conn, 3, "me profile")
		assert.Equal(t, map[string]any{"ok": true}, frame["result"])
	})

	t.Run("validation error is structured", func(t *testing.T) {
		frame := call(t, conn, 4, "math positive", "x")
		verr, ok := frame["error"].(map[string]any)
		require.True(t, ok)
		assert.Contains(t, verr["message"], "[API Validation error]: API 'math positive' call (")
		assert.Equal(t, []any{"[Arg #1 must be a number]:", "x"}, verr["errors"])
	})

	t.Run("false result kept", func(t *testing.T) {
		frame := call(t, conn, 5, "math positive", -1)
		result, ok := frame["result"]
		assert.True(t, ok)
		assert.Equal(t, false, result)
	})

	t.Run("malformed frame", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{nope")))
		frame := read(t, conn)
		assert.Nil(t, frame["id"])
		assert.Equal(t, "[API]: Malformed frame", frame["error"])
	})

	t.Run("string ids echoed", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"abc","name":"me session","args":[]}`)))
		frame := read(t, conn)
		assert.Equal(t, "abc", frame["id"])
	})
}

func TestServer_UnencodableResult(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	conn := e.dial(t, e.manager.NewID())

	frame := call(t, conn, 1, "math nan")
	assert.Equal(t, float64(1), frame["id"])
	assert.Equal(t, "[API]: Internal error", frame["error"])
	assert.NotContains(t, frame, "result")

	frame = call(t, conn, 2, "math positive", 3)
	assert.Equal(t, float64(2), frame["id"])
	assert.Equal(t, true, frame["result"])
	assert.Equal(t, int32(0), e.closed.Load())
}

func TestServer_ConnectionHooks(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	conn := e.dial(t, e.manager.NewID())
	frame := call(t, conn, 1, "me session")
	require.Contains(t, frame, "result")
	assert.Equal(t, int32(1), e.opened.Load())

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()

	assert.Eventually(t, func() bool { return e.closed.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_OriginCheck(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	header := http.Header{}
	header.Set("Cookie", "NSS_="+e.cookies.Sign(e.manager.NewID()))
	header.Set("Origin", "https://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(e.url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServer_Close(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	conn := e.dial(t, e.manager.NewID())
	frame := call(t, conn, 1, "me session")
	require.Contains(t, frame, "result")

	e.ws.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Eventually(t, func() bool { return e.ws.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	header := http.Header{}
	header.Set("Cookie", "NSS_="+e.cookies.Sign(e.manager.NewID()))
	_, resp, err := websocket.DefaultDialer.Dial(e.url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
