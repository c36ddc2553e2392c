// Package httpserver runs the gateway's HTTP listener.
//
// Run binds the listener, serves until the context ends or SIGINT/SIGTERM
// arrives, then shuts down within the configured timeout. Channel
// connections are hijacked from net/http and are invisible to its drain;
// pass their closer through OnShutdown:
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.OnShutdown(func(context.Context) { ws.Close() }),
//	)
//	err := srv.Run(ctx, router)
//
// Liveness and Readiness provide the probe handlers.
package httpserver
