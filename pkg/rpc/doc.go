// Package rpc routes named remote calls through an ordered stage pipeline
// that authorizes each call against its declared policy before the handler
// runs.
//
// Calls are registered per resource as "<resource> <sub>" with options
// forming a Policy. The default policy requires a signed-in session.
//
//	srv, err := rpc.NewServer(
//	    rpc.WithStages(rpc.InboundBefore, channelAuth.Stage()),
//	    rpc.WithHooks(collector.Hooks()),
//	    rpc.WithLogger(log),
//	)
//
//	users := srv.Registry().Module("users")
//	_ = users.Register("get", getUser,
//	    rpc.Access("users"),
//	    rpc.Schema(validator.Number().Integer()),
//	)
//	_ = users.Register("ping", ping, rpc.Anonymous())
//
//	result, err := srv.Dispatch(ctx, conn, "users get", []any{42.0})
//
// # Pipeline
//
// Four chains run around each call: InboundBefore, the handler,
// InboundAfter, OutboundBefore and OutboundAfter. Stages are sorted by Order
// with insertion order breaking ties. The connection stage sits at 50 and
// injects session metadata; the Authorizer sits at 1992.
//
// # Authorization
//
// The Authorizer checks, in order: argument schema, session presence,
// authed flag, user access flag (the "all" flag overrides) and custom access
// checks registered with RegisterCustomAccess. Rejections are
// *ValidationError or *AccessError; ClientError turns any error into what
// the caller should see.
//
// # Loading
//
// Server.Load runs module loaders. A loader that errors or panics is logged
// as a HandlerLoadError and registers nothing; the process keeps running.
package rpc
