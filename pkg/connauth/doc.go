// Package connauth binds sessions to incoming connections.
//
// HTTP is request middleware: every request leaves it with a session id
// (reused from a valid signed cookie or freshly minted), a rewritten cookie
// scoped to the registrable domain, a refreshed server-side expiry and a
// session.Handle in its context.
//
// Channel guards duplex connections. Authenticate accepts a handshake only
// when it carries a valid signed session cookie, and Stage injects
// sessionId, userAgent, userIp, session and userId into each call ahead of
// the rpc authorizer.
//
//	auth := connauth.NewHTTP(manager, cookies, connauth.WithLogger(log))
//	r.Use(auth.Middleware)
//
//	ch := connauth.NewChannel(manager, cookies)
//	srv, _ := rpc.NewServer(rpc.WithStages(rpc.InboundBefore, ch.Stage()))
//	ws := channel.NewServer(srv, ch)
package connauth
