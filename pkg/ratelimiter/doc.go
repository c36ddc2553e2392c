// Package ratelimiter throttles remote calls with a token bucket.
//
// A Bucket consumes tokens from a Store: MemoryStore for a single process,
// RedisStore when several gateway instances share one budget. Stage turns
// a Bucket into an inbound pipeline stage keyed by session id, falling
// back to the connection id:
//
//	limiter, err := ratelimiter.NewBucket(ratelimiter.NewRedisStore(client), cfg)
//	if err != nil {
//		return err
//	}
//	srv, err := rpc.NewServer(
//		rpc.WithStages(rpc.InboundBefore, auth.Stage(), ratelimiter.Stage(limiter)),
//	)
//
// A denied call fails with *LimitError. Store failures let the call
// through and are logged.
package ratelimiter
