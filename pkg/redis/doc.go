// Package redis creates and probes the go-redis client shared by every
// session store operation in the process.
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := session.NewRedisStore(client)
//	probe := redis.Healthcheck(client)
//
// Connect parses redis:// and rediss:// URLs, retries with a fixed interval
// and gives up after ConnectTimeout. Healthcheck wraps PING for readiness
// endpoints.
package redis
