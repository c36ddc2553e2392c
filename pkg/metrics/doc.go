// Package metrics exports Prometheus collectors for call traffic.
//
// A Collector plugs into the rpc server through Hooks and into the channel
// server through ConnOpened and ConnClosed:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(metrics.WithRegistry(reg))
//
//	srv, _ := rpc.NewServer(rpc.WithHooks(m.Hooks()))
//	ws := channel.NewServer(srv, auth, channel.WithConnectionHooks(m.ConnOpened, m.ConnClosed))
//
// Calls are counted per name and outcome. Names no handler was registered
// under collapse into a single "unknown" label, so clients cannot grow the
// series set.
package metrics
