package main

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/dmitrymomot/callgate/pkg/rpc"
	"github.com/dmitrymomot/callgate/pkg/session"
	"github.com/dmitrymomot/callgate/pkg/validator"
)

var errNoSession = errors.New("no session bound to the call")

// modules lists the call modules served by this binary.
func modules() []rpc.ModuleLoader {
	return []rpc.ModuleLoader{
		{Name: "ping", Load: loadPing},
		{Name: "session", Load: loadSession},
		{Name: "users", Load: loadUsers},
	}
}

func loadPing(m *rpc.Module) error {
	return errors.Join(
		m.Register("get", func(context.Context, *rpc.Call) (any, error) {
			return "pong", nil
		}, rpc.Anonymous()),
		m.Register("echo", func(_ context.Context, call *rpc.Call) (any, error) {
			return call.Args, nil
		}, rpc.Anonymous()),
	)
}

func loadSession(m *rpc.Module) error {
	return errors.Join(
		m.Register("get", sessionGet, rpc.Public()),
		m.Register("signin", sessionSignIn, rpc.Public(), rpc.Schema(
			validator.String().Label("name").Min(1).Max(64),
			validator.Array().Label("access").Optional().Max(16),
		)),
		m.Register("signout", sessionSignOut),
	)
}

func sessionGet(_ context.Context, call *rpc.Call) (any, error) {
	data := call.SessionData()
	out := map[string]any{"authed": data.Authed()}
	if user, ok := data.User(); ok {
		out["user"] = map[string]any(user)
	}
	return out, nil
}

func sessionSignIn(ctx context.Context, call *rpc.Call) (any, error) {
	handle, ok := call.Session()
	if !ok {
		return nil, errNoSession
	}

	name, _ := call.Args[0].(string)
	access := map[string]any{}
	if len(call.Args) > 1 {
		if flags, ok := call.Args[1].([]any); ok {
			for _, f := range flags {
				if s, ok := f.(string); ok {
					access[s] = true
				}
			}
		}
	}

	user := map[string]any{
		"id":     uuid.NewString(),
		"user":   name,
		"access": access,
	}
	if _, err := handle.Save(ctx, session.Data{"authed": true, "user": user}); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return user, nil
}

func sessionSignOut(ctx context.Context, call *rpc.Call) (any, error) {
	handle, ok := call.Session()
	if !ok {
		return nil, errNoSession
	}
	if _, err := handle.Destroy(ctx); err != nil {
		return nil, fmt.Errorf("sign out: %w", err)
	}
	return true, nil
}

// selfKey marks calls whose first argument must be the caller's user id,
// unless the caller holds the "all" access flag.
const selfKey = "self"

func loadUsers(m *rpc.Module) error {
	m.RegisterCustomAccess(selfKey, selfOnly)

	return errors.Join(
		m.Register("get", func(_ context.Context, call *rpc.Call) (any, error) {
			user, _ := call.SessionData().User()
			return map[string]any(user), nil
		}, rpc.Schema(validator.String().Label("userId")), rpc.Custom(selfKey, true)),
		m.Register("list", func(_ context.Context, call *rpc.Call) (any, error) {
			user, _ := call.SessionData().User()
			return []any{map[string]any(user)}, nil
		}, rpc.Access("users")),
	)
}

func selfOnly(_ context.Context, _ any, sess session.Data, call *rpc.Call) error {
	if sess.HasAccess("all") {
		return nil
	}
	id := fmt.Sprint(sess.UserID())
	if len(call.Args) == 0 || fmt.Sprint(call.Args[0]) != id {
		return fmt.Errorf("[API Access]: method '%s' is limited to the caller's own user", call.Name)
	}
	return nil
}

// callNames is used by tests and the startup log.
func callNames(srv *rpc.Server) []string {
	names := srv.Registry().Names()
	slices.Sort(names)
	return names
}
