// Package channel is the duplex transport for remote calls: a WebSocket
// endpoint that accepts only handshakes carrying a valid session cookie and
// exchanges JSON frames.
//
//	client → server  {"id": 1, "name": "users get", "args": [42]}
//	server → client  {"id": 1, "result": {...}}
//	                 {"id": 1, "error": "[API Auth]: Access denied ..."}
//	                 {"id": 1, "error": {"message": "...", "errors": [...]}}
//
// Each frame is dispatched in its own goroutine, bounded per connection by
// Config.MaxInflight, so responses may arrive out of order; clients match
// them by id. Writes are serialized. Closing the connection cancels the
// context of calls still running.
package channel
