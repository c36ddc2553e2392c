// Package session keeps per-visitor state in a key/value store under an
// unguessable id that travels in a signed cookie.
//
// A Manager mints ids, loads and saves data, and destroys sessions. It has no
// cache: each Load is a store round trip and each Save shallow-merges the
// given keys over the stored map and slides the expiry forward.
//
//	client, _ := redis.Connect(ctx, redisCfg)
//	manager := session.NewFromConfig(cfg, session.NewRedisStore(client))
//
//	id := manager.NewID() // "NSS_" + 36 hex chars
//	h, _ := manager.Handle(ctx, id, nil)
//	_, _ = h.Save(ctx, session.Data{"authed": true, "user": map[string]any{"id": 7}})
//
//	h.Data().Authed()      // true
//	h.Data().UserID()      // 7
//	_, _ = h.Destroy(ctx) // subsequent loads return empty data
//
// Two stores ship with the package: RedisStore for shared deployments and
// MemoryStore for tests and single-node development.
//
// Concurrent saves for the same id are last-write-wins: the read and the
// write of a merge are separate store operations.
package session
